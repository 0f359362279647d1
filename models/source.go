package models

import (
	"time"
)

// Source tables the rollup engine reads from. This service never writes to
// them; the models exist so migrations and integration tests can create and
// seed the same schema the store ingestion pipeline maintains.

// InventoryItem is the master item catalog. Deltas referencing an id that is
// not in this table are dropped before they reach the ledger.
type InventoryItem struct {
	ID   string `gorm:"primaryKey;size:64" json:"id"`
	Name string `gorm:"size:255" json:"name"`
}

// VendorPurchase is one received vendor receipt.
type VendorPurchase struct {
	DocupandaID  string    `gorm:"primaryKey;size:64" json:"docupanda_id"`
	PurchaseDate time.Time `gorm:"type:date;index" json:"purchase_date"`
}

type VendorPurchaseLineItem struct {
	ID          int    `gorm:"primaryKey;autoIncrement" json:"id"`
	DocupandaID string `gorm:"size:64;index" json:"docupanda_id"`
	Upc         string `gorm:"size:64" json:"upc"`
	// Nullable on purpose: some receipt parsers emit lines with no quantity.
	Quantity *int `json:"quantity"`
}

func (VendorPurchaseLineItem) TableName() string {
	return "vendor_purchases_line_items"
}

// VendorItem links a receipt UPC to a vendor-level item.
type VendorItem struct {
	ID         int    `gorm:"primaryKey;autoIncrement" json:"id"`
	ReceiptUpc string `gorm:"size:64;index" json:"receipt_upc"`
}

// ItemMapping resolves a vendor item to an inventory item in the catalog.
type ItemMapping struct {
	ID              int    `gorm:"primaryKey;autoIncrement" json:"id"`
	VendorItemID    int    `gorm:"index" json:"vendor_item_id"`
	InventoryItemID string `gorm:"size:64;index" json:"inventory_item_id"`
}

func (ItemMapping) TableName() string {
	return "item_mapping"
}

// SalesOrder is a point-of-sale order header.
type SalesOrder struct {
	ID                string    `gorm:"primaryKey;size:64" json:"id"`
	ClientCreatedTime time.Time `gorm:"index" json:"client_created_time"`
}

type SalesOrderLineItem struct {
	ID      int     `gorm:"primaryKey;autoIncrement" json:"id"`
	OrderID string  `gorm:"size:64;index" json:"order_id"`
	ItemID  *string `gorm:"size:64;index" json:"item_id"`
	// unit_qty supersedes quantity when non-zero (weighted items).
	UnitQty  *int  `json:"unit_qty"`
	Quantity *int  `json:"quantity"`
	Refunded *bool `json:"refunded"`
}

func (SalesOrderLineItem) TableName() string {
	return "sales_orders_line_items"
}
