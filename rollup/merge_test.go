package rollup

import (
	"database/sql"
	"io"
	"reflect"
	"testing"

	"github.com/sirupsen/logrus"
)

func newTestEngine() *Engine {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return &Engine{Log: log}
}

func qty(n int64) sql.NullInt64 {
	return sql.NullInt64{Int64: n, Valid: true}
}

func TestMergeDaily_SumsAndSortsItems(t *testing.T) {
	e := newTestEngine()
	d1 := date(2025, 3, 1)

	by, items := e.mergeDaily(
		[]purchaseRow{
			{Day: d1, InventoryID: "beta", PurchasedQty: qty(5)},
			{Day: d1, InventoryID: "beta", PurchasedQty: qty(2)},
			{Day: d1, InventoryID: "alpha", PurchasedQty: qty(1)},
		},
		[]salesRow{
			{Day: d1, InventoryID: "beta", SoldQty: qty(3)},
			{Day: d1, InventoryID: "gamma", SoldQty: qty(-4)}, // net refund day
		},
	)

	if want := []string{"alpha", "beta", "gamma"}; !reflect.DeepEqual(items, want) {
		t.Errorf("items = %v, want %v", items, want)
	}

	beta := by[dayItem{day: "2025-03-01", item: "beta"}]
	if beta.purchased != 7 || beta.sold != 3 {
		t.Errorf("beta delta = %+v, want purchased=7 sold=3", beta)
	}
	gamma := by[dayItem{day: "2025-03-01", item: "gamma"}]
	if gamma.sold != -4 {
		t.Errorf("gamma sold = %d, want -4 (refund)", gamma.sold)
	}
}

func TestMergeDaily_NullQuantitiesBecomeZero(t *testing.T) {
	e := newTestEngine()
	d1 := date(2025, 3, 1)

	by, items := e.mergeDaily(
		[]purchaseRow{{Day: d1, InventoryID: "alpha", PurchasedQty: sql.NullInt64{}}},
		[]salesRow{{Day: d1, InventoryID: "alpha", SoldQty: sql.NullInt64{}}},
	)

	if len(items) != 1 {
		t.Fatalf("items = %v, want just alpha", items)
	}
	d := by[dayItem{day: "2025-03-01", item: "alpha"}]
	if d.purchased != 0 || d.sold != 0 {
		t.Errorf("delta = %+v, want zeros", d)
	}
}

func TestMergeDaily_MissingKeysMeanZero(t *testing.T) {
	e := newTestEngine()

	by, items := e.mergeDaily(nil, nil)
	if len(by) != 0 || len(items) != 0 {
		t.Errorf("empty inputs should merge to nothing, got %v / %v", by, items)
	}
	if d := by[dayItem{day: "2025-03-01", item: "ghost"}]; d.purchased != 0 || d.sold != 0 {
		t.Errorf("absent key should read as zero delta, got %+v", d)
	}
}
