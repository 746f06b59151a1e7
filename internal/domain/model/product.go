package model

import "time"

// Product is the catalog view consumed by checkout: sellability, stock
// counters, pricing and tax classification.
type Product struct {
	ID              string  `bson:"_id" json:"id"`
	Name            string  `bson:"name" json:"name"`
	Sellable        bool    `bson:"sellable" json:"sellable"`
	StockQty        int64   `bson:"stock_qty" json:"stockQty"`
	ReservedQty     int64   `bson:"reserved_qty" json:"reservedQty"`
	RetailPrice     float64 `bson:"retail_price" json:"retailPrice"`
	WholesalePrice  float64 `bson:"wholesale_price" json:"wholesalePrice"`
	WholesaleMinQty int64   `bson:"wholesale_min_qty" json:"wholesaleMinQty"`
	HSNCode         string  `bson:"hsn_code" json:"hsnCode"`
	TaxSlab         float64 `bson:"tax_slab" json:"taxSlab"`
}

// Available returns stock not currently held by a reservation.
func (p *Product) Available() int64 {
	return p.StockQty - p.ReservedQty
}

// UnitPrice resolves the applicable price for the requested quantity under
// the retail vs wholesale pricing policy.
func (p *Product) UnitPrice(qty int64) float64 {
	if p.WholesalePrice > 0 && p.WholesaleMinQty > 0 && qty >= p.WholesaleMinQty {
		return p.WholesalePrice
	}
	return p.RetailPrice
}

// StockMovement is one audit-log entry for a stock counter mutation.
type StockMovement struct {
	ID        string    `bson:"_id" json:"id"`
	ProductID string    `bson:"product_id" json:"productId"`
	Delta     int64     `bson:"delta" json:"delta"`
	PrevStock int64     `bson:"prev_stock" json:"prevStock"`
	NewStock  int64     `bson:"new_stock" json:"newStock"`
	Reference string    `bson:"reference" json:"reference"`
	Note      string    `bson:"note" json:"note"`
	At        time.Time `bson:"at" json:"at"`
}
