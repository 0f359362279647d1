package rollup

import (
	"sort"

	"github.com/sirupsen/logrus"
)

// dayItem keys the merged grid. The day is formatted as YYYY-MM-DD so map
// equality never depends on time.Time internals.
type dayItem struct {
	day  string
	item string
}

type delta struct {
	purchased int
	sold      int
}

// mergeDaily folds the two aggregate streams into one sparse grid keyed by
// (day, item) and returns the sorted set of distinct items touched in the
// window. Missing keys mean zero activity; NULL quantities are coerced to
// zero with a data-quality warning.
func (e *Engine) mergeDaily(pRows []purchaseRow, sRows []salesRow) (map[dayItem]delta, []string) {
	by := map[dayItem]delta{}
	items := map[string]struct{}{}
	nullQty := 0

	for _, r := range pRows {
		qty := 0
		if r.PurchasedQty.Valid {
			qty = int(r.PurchasedQty.Int64)
		} else {
			nullQty++
		}
		k := dayItem{day: r.Day.Format(dateLayout), item: r.InventoryID}
		d := by[k]
		d.purchased += qty
		by[k] = d
		items[r.InventoryID] = struct{}{}
	}

	for _, r := range sRows {
		qty := 0
		if r.SoldQty.Valid {
			qty = int(r.SoldQty.Int64)
		} else {
			nullQty++
		}
		k := dayItem{day: r.Day.Format(dateLayout), item: r.InventoryID}
		d := by[k]
		d.sold += qty
		by[k] = d
		items[r.InventoryID] = struct{}{}
	}

	if nullQty > 0 {
		e.Log.WithField("rows", nullQty).Warn("NULL quantities in daily aggregates, treated as 0")
	}

	sorted := make([]string, 0, len(items))
	for id := range items {
		sorted = append(sorted, id)
	}
	sort.Strings(sorted)

	e.Log.WithFields(logrus.Fields{
		"day_item_pairs": len(by),
		"items":          len(sorted),
	}).Debug("merged daily aggregates")

	return by, sorted
}
