package rollup

import (
	"fmt"
	"time"

	"gorm.io/gorm"

	"bitbucket.org/mmdatafocus/syncstock_backend/models"
)

// openingBalances fetches each item's closing balance from the ledger row
// dated exactly one day before the window start. Items without such a row
// open at zero. This is the only place history enters the roll-forward; the
// dense grid guarantees the prior-day row exists for any item the engine has
// seen before, so looking further back is never needed.
func (e *Engine) openingBalances(conn *gorm.DB, start time.Time, items []string) (map[string]int, error) {
	opening := make(map[string]int, len(items))
	if len(items) == 0 {
		return opening, nil
	}

	prevDay := start.AddDate(0, 0, -1)
	for i := 0; i < len(items); i += catalogChunkSize {
		chunk := items[i:min(i+catalogChunkSize, len(items))]
		var rows []models.LedgerEntry
		if err := conn.
			Select("inventory_id", "on_hand_end").
			Where("order_created_date = ? AND inventory_id IN ?", prevDay, chunk).
			Find(&rows).Error; err != nil {
			return nil, fmt.Errorf("fetch opening balances: %w", err)
		}
		for _, r := range rows {
			opening[r.InventoryID] = r.OnHandEnd
		}
	}

	return opening, nil
}
