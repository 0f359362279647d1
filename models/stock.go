package models

import (
	"time"
)

// Stock is the current on-hand projection consumed by downstream services.
// It is derived data: rebuilt after every run from the most recent day
// present in syncstock_ledger. version increases by one on every refresh so
// consumers can detect staleness.
type Stock struct {
	InventoryID string    `gorm:"primaryKey;size:64" json:"inventory_id"`
	OnHand      int       `gorm:"not null;default:0" json:"on_hand"`
	UpdatedAt   time.Time `json:"updated_at"`
	Version     int       `gorm:"not null;default:0" json:"version"`
}

func (Stock) TableName() string {
	return "syncstock_stock"
}
