package rollup

import (
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"bitbucket.org/mmdatafocus/syncstock_backend/models"
)

const ledgerBatchSize = 1000

// upsertLedger writes the computed grid, updating rows in place when a day
// is reprocessed. Conflict key is the ledger primary key (day, item).
func upsertLedger(tx *gorm.DB, rows []models.LedgerEntry) error {
	err := tx.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "order_created_date"}, {Name: "inventory_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"purchased_qty", "sold_qty", "on_hand_end", "computed_at",
		}),
	}).CreateInBatches(rows, ledgerBatchSize).Error
	if err != nil {
		return fmt.Errorf("upsert ledger rows: %w", err)
	}
	return nil
}

// advanceWatermark records that every day up to and including day is done.
func advanceWatermark(tx *gorm.DB, day time.Time, note string) error {
	err := tx.Model(&models.SyncMeta{}).
		Where("id = ?", true).
		Updates(map[string]interface{}{
			"last_sales_day_done": day,
			"run_status":          models.RunStatusSuccess,
			"notes":               note,
		}).Error
	if err != nil {
		return fmt.Errorf("advance watermark: %w", err)
	}
	return nil
}

// refreshStock republishes the current-stock snapshot from the most recent
// day present in the ledger, bumping version on every touched item.
func refreshStock(tx *gorm.DB) error {
	err := tx.Exec(`
		INSERT INTO syncstock_stock (inventory_id, on_hand, updated_at, version)
		SELECT l.inventory_id,
		       l.on_hand_end,
		       NOW(),
		       1
		FROM syncstock_ledger l
		JOIN (SELECT MAX(order_created_date) AS d FROM syncstock_ledger) latest
		  ON l.order_created_date = latest.d
		ON DUPLICATE KEY UPDATE
			on_hand    = VALUES(on_hand),
			updated_at = NOW(),
			version    = syncstock_stock.version + 1
	`).Error
	if err != nil {
		return fmt.Errorf("refresh stock snapshot: %w", err)
	}
	return nil
}
