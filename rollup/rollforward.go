package rollup

import (
	"bitbucket.org/mmdatafocus/syncstock_backend/models"
)

// rollForward walks the window day by day in calendar order and accumulates
// the running balance per item:
//
//	on_hand[day] = on_hand[day-1] + purchased[day] - sold[day]
//
// The output is a dense grid: one row per (day, item) for every item in the
// touched set, even on days with zero activity. That keeps the prior-day
// lookup of future runs unambiguous. Balances are plain integers and may go
// negative.
func rollForward(w Window, items []string, merged map[dayItem]delta, opening map[string]int) []models.LedgerEntry {
	rows := make([]models.LedgerEntry, 0, w.Days()*len(items))

	onHand := make(map[string]int, len(items))
	for _, id := range items {
		onHand[id] = opening[id]
	}

	for day := w.Start; day.Before(w.End); day = day.AddDate(0, 0, 1) {
		key := day.Format(dateLayout)
		for _, id := range items {
			d := merged[dayItem{day: key, item: id}]
			onHand[id] += d.purchased - d.sold
			rows = append(rows, models.LedgerEntry{
				OrderCreatedDate: day,
				InventoryID:      id,
				PurchasedQty:     d.purchased,
				SoldQty:          d.sold,
				OnHandEnd:        onHand[id],
			})
		}
	}

	return rows
}
