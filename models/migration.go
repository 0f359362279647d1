package models

import (
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// MigrateTable creates or updates every table this service touches and makes
// sure the singleton watermark row exists.
func MigrateTable(db *gorm.DB) error {
	err := db.AutoMigrate(
		&SyncMeta{}, &LedgerEntry{}, &Stock{},
		&InventoryItem{},
		&VendorPurchase{}, &VendorPurchaseLineItem{}, &VendorItem{}, &ItemMapping{},
		&SalesOrder{}, &SalesOrderLineItem{},
	)
	if err != nil {
		return err
	}

	// Seed the watermark singleton; a fresh install has no last done day yet.
	return db.Clauses(clause.OnConflict{DoNothing: true}).
		Create(&SyncMeta{ID: true}).Error
}
