package models

import (
	"time"
)

// LedgerEntry is one day of activity for one inventory item.
//
// Grain: (order_created_date, inventory_id). The rollup engine writes a row
// for every day in a processed window, including days with zero activity, so
// the opening-balance lookup of a later run always finds the prior day's
// closing balance. Rows are upserted in place and never deleted here.
//
// on_hand_end(day) = on_hand_end(day-1) + purchased_qty(day) - sold_qty(day),
// with a missing prior row meaning 0. Negative balances are kept as-is; they
// signal bad source data, they are not an error.
type LedgerEntry struct {
	OrderCreatedDate time.Time `gorm:"primaryKey;type:date" json:"order_created_date"`
	InventoryID      string    `gorm:"primaryKey;size:64" json:"inventory_id"`

	PurchasedQty int `gorm:"not null;default:0" json:"purchased_qty"`
	SoldQty      int `gorm:"not null;default:0" json:"sold_qty"`
	OnHandEnd    int `gorm:"not null;default:0" json:"on_hand_end"`

	ComputedAt time.Time `gorm:"autoUpdateTime" json:"computed_at"`
}

func (LedgerEntry) TableName() string {
	return "syncstock_ledger"
}
