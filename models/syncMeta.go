package models

import (
	"time"
)

type RunStatus string

const (
	RunStatusSuccess RunStatus = "SUCCESS"
	RunStatusFailed  RunStatus = "FAILED"
)

// SyncMeta is the singleton watermark row for the rollup engine.
//
// last_sales_day_done means "every day up to and including this date is fully
// reconciled in syncstock_ledger". Once advanced it never moves backwards:
// the watermark is always set to the last day of the processed window, which
// is derived from the database clock.
type SyncMeta struct {
	ID               bool       `gorm:"primaryKey;column:id" json:"id"`
	LastSalesDayDone *time.Time `gorm:"type:date" json:"last_sales_day_done"`
	RunStatus        RunStatus  `gorm:"size:32" json:"run_status"`
	Notes            string     `gorm:"size:512" json:"notes"`
	UpdatedAt        time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

func (SyncMeta) TableName() string {
	return "syncstock_meta"
}
