package rollup

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"bitbucket.org/mmdatafocus/syncstock_backend/models"
)

// catalogChunkSize bounds the number of ids in a single IN lookup.
const catalogChunkSize = 1000

type purchaseRow struct {
	Day          time.Time     `gorm:"column:day"`
	InventoryID  string        `gorm:"column:inventory_id"`
	PurchasedQty sql.NullInt64 `gorm:"column:purchased_qty"`
}

type salesRow struct {
	Day         time.Time     `gorm:"column:day"`
	InventoryID string        `gorm:"column:inventory_id"`
	SoldQty     sql.NullInt64 `gorm:"column:sold_qty"`
}

// Purchases keyed by vendor receipt date, resolved through the UPC -> vendor
// item -> inventory item mapping chain. Unmapped lines never make it out of
// the query.
const dailyPurchasesSQL = `
SELECT DATE(vp.purchase_date)          AS day,
       ii.id                           AS inventory_id,
       CAST(SUM(li.quantity) AS SIGNED) AS purchased_qty
FROM vendor_purchases vp
JOIN vendor_purchases_line_items li ON li.docupanda_id = vp.docupanda_id
LEFT JOIN vendor_items vi ON li.upc = vi.receipt_upc
LEFT JOIN item_mapping im ON vi.id = im.vendor_item_id
LEFT JOIN inventory_items ii ON ii.id = im.inventory_item_id
WHERE ii.id IS NOT NULL
  AND vp.purchase_date >= ? AND vp.purchase_date < ?
GROUP BY day, inventory_id
ORDER BY day, inventory_id
`

// Sales keyed by order creation time. unit_qty wins over quantity when it is
// non-zero (weighted items), and refunded lines subtract instead of add.
// That sign convention feeds straight into the running balance; do not change
// it without reprocessing history.
const dailySalesSQL = `
SELECT DATE(so.client_created_time) AS day,
       sol.item_id                  AS inventory_id,
       CAST(SUM(COALESCE(NULLIF(sol.unit_qty, 0), sol.quantity)
            * CASE WHEN COALESCE(sol.refunded, FALSE) THEN -1 ELSE 1 END) AS SIGNED) AS sold_qty
FROM sales_orders_line_items sol
JOIN sales_orders so ON so.id = sol.order_id
WHERE sol.item_id IS NOT NULL
  AND so.client_created_time >= ? AND so.client_created_time < ?
GROUP BY day, inventory_id
ORDER BY day, inventory_id
`

// fetchDailyAggregates returns the per-day per-item purchased and sold
// quantities inside the window, filtered down to items that exist in the
// master catalog. Records referencing unknown ids are dropped and counted,
// never fatal.
func (e *Engine) fetchDailyAggregates(conn *gorm.DB, w Window) ([]purchaseRow, []salesRow, error) {
	var pRows []purchaseRow
	if err := conn.Raw(dailyPurchasesSQL, w.Start, w.End).Scan(&pRows).Error; err != nil {
		return nil, nil, fmt.Errorf("fetch daily purchases: %w", err)
	}

	var sRows []salesRow
	if err := conn.Raw(dailySalesSQL, w.Start, w.End).Scan(&sRows).Error; err != nil {
		return nil, nil, fmt.Errorf("fetch daily sales: %w", err)
	}

	idSet := map[string]struct{}{}
	for _, r := range pRows {
		if r.InventoryID != "" {
			idSet[r.InventoryID] = struct{}{}
		}
	}
	for _, r := range sRows {
		if r.InventoryID != "" {
			idSet[r.InventoryID] = struct{}{}
		}
	}
	if len(idSet) == 0 {
		return pRows, sRows, nil
	}

	valid, err := e.validCatalogIDs(conn, idSet)
	if err != nil {
		return nil, nil, err
	}

	pFiltered := pRows[:0]
	for _, r := range pRows {
		if _, ok := valid[r.InventoryID]; ok {
			pFiltered = append(pFiltered, r)
		}
	}
	sFiltered := sRows[:0]
	for _, r := range sRows {
		if _, ok := valid[r.InventoryID]; ok {
			sFiltered = append(sFiltered, r)
		}
	}

	dropped := len(pRows) + len(sRows) - len(pFiltered) - len(sFiltered)
	if dropped > 0 {
		e.Log.WithFields(logrus.Fields{
			"total_ids":    len(idSet),
			"valid_ids":    len(valid),
			"dropped_rows": dropped,
		}).Warn("dropped aggregate rows referencing ids missing from the item catalog")
	}

	return pFiltered, sFiltered, nil
}

// validCatalogIDs checks which of the given ids exist in inventory_items,
// chunked so a single lookup never carries more than catalogChunkSize ids.
func (e *Engine) validCatalogIDs(conn *gorm.DB, idSet map[string]struct{}) (map[string]struct{}, error) {
	ids := make([]string, 0, len(idSet))
	for id := range idSet {
		ids = append(ids, id)
	}

	valid := make(map[string]struct{}, len(ids))
	for i := 0; i < len(ids); i += catalogChunkSize {
		chunk := ids[i:min(i+catalogChunkSize, len(ids))]
		var found []string
		if err := conn.Model(&models.InventoryItem{}).
			Where("id IN ?", chunk).
			Pluck("id", &found).Error; err != nil {
			return nil, fmt.Errorf("validate inventory ids: %w", err)
		}
		for _, id := range found {
			valid[id] = struct{}{}
		}
	}
	return valid, nil
}
