package pricing

import (
	"github.com/shopspring/decimal"

	domainErrors "github.com/tanmaydk/shopcore/internal/domain/errors"
	"github.com/tanmaydk/shopcore/internal/domain/model"
)

// Line is one priced checkout position fed into the engine.
type Line struct {
	ProductID string
	Name      string
	Quantity  int64
	UnitPrice float64
	TaxSlab   float64
	HSNCode   string
}

// LineTotals is the per-line output: discount share, tax and line total.
type LineTotals struct {
	Discount     float64
	TaxAmount    float64
	TaxBreakdown model.TaxBreakdown
	LineTotal    float64
}

// Engine computes order totals. Client-submitted totals are never trusted;
// this is the single source of monetary truth for checkout.
type Engine interface {
	CalculateTotals(lines []Line, addr model.Address, method model.PaymentMethod, coupon *model.Coupon) (model.Totals, []LineTotals, error)
}

// GSTEngine applies slab tax per line with the intra/inter-state GST split,
// coupon discounts allocated proportionally across lines, and a flat shipping
// fee waived above the free-shipping threshold.
type GSTEngine struct {
	homeState             string
	shippingFlatFee       decimal.Decimal
	freeShippingThreshold decimal.Decimal
}

// NewGSTEngine builds the engine with the seller's home state and shipping policy.
func NewGSTEngine(homeState string, shippingFlatFee, freeShippingThreshold float64) *GSTEngine {
	return &GSTEngine{
		homeState:             homeState,
		shippingFlatFee:       decimal.NewFromFloat(shippingFlatFee),
		freeShippingThreshold: decimal.NewFromFloat(freeShippingThreshold),
	}
}

var hundred = decimal.NewFromInt(100)

// CalculateTotals computes per-line and order-level totals. All arithmetic is
// decimal; every emitted amount is rounded to 2 places.
func (e *GSTEngine) CalculateTotals(lines []Line, addr model.Address, method model.PaymentMethod, coupon *model.Coupon) (model.Totals, []LineTotals, error) {
	if len(lines) == 0 {
		return model.Totals{}, nil, domainErrors.ErrEmptyCart
	}

	lineSubtotals := make([]decimal.Decimal, len(lines))
	subtotal := decimal.Zero
	for i, line := range lines {
		if line.Quantity <= 0 {
			return model.Totals{}, nil, domainErrors.ErrInvalidQuantity
		}
		lineSubtotals[i] = decimal.NewFromFloat(line.UnitPrice).Mul(decimal.NewFromInt(line.Quantity))
		subtotal = subtotal.Add(lineSubtotals[i])
	}

	discount, err := e.couponDiscount(subtotal, coupon)
	if err != nil {
		return model.Totals{}, nil, err
	}

	interState := addr.State != "" && addr.State != e.homeState

	perLine := make([]LineTotals, len(lines))
	totalTax := decimal.Zero
	totalCGST, totalSGST, totalIGST := decimal.Zero, decimal.Zero, decimal.Zero
	allocated := decimal.Zero

	for i, line := range lines {
		var lineDiscount decimal.Decimal
		if i == len(lines)-1 {
			// Last line absorbs the rounding remainder so the allocated
			// discount sums exactly to the order discount.
			lineDiscount = discount.Sub(allocated)
		} else if subtotal.IsPositive() {
			lineDiscount = discount.Mul(lineSubtotals[i]).Div(subtotal).Round(2)
			allocated = allocated.Add(lineDiscount)
		}

		taxable := lineSubtotals[i].Sub(lineDiscount)
		tax := taxable.Mul(decimal.NewFromFloat(line.TaxSlab)).Div(hundred).Round(2)
		totalTax = totalTax.Add(tax)

		var breakdown model.TaxBreakdown
		if interState {
			breakdown.IGST = toFloat(tax)
			totalIGST = totalIGST.Add(tax)
		} else {
			half := tax.Div(decimal.NewFromInt(2)).Round(2)
			breakdown.CGST = toFloat(half)
			breakdown.SGST = toFloat(tax.Sub(half))
			totalCGST = totalCGST.Add(half)
			totalSGST = totalSGST.Add(tax.Sub(half))
		}

		perLine[i] = LineTotals{
			Discount:     toFloat(lineDiscount.Round(2)),
			TaxAmount:    toFloat(tax),
			TaxBreakdown: breakdown,
			LineTotal:    toFloat(taxable.Add(tax).Round(2)),
		}
	}

	shipping := e.shippingFee(subtotal.Sub(discount))
	grand := subtotal.Sub(discount).Add(totalTax).Add(shipping)

	totals := model.Totals{
		Subtotal:       toFloat(subtotal.Round(2)),
		DiscountAmount: toFloat(discount.Round(2)),
		TaxAmount:      toFloat(totalTax.Round(2)),
		TaxBreakdown: model.TaxBreakdown{
			CGST: toFloat(totalCGST.Round(2)),
			SGST: toFloat(totalSGST.Round(2)),
			IGST: toFloat(totalIGST.Round(2)),
		},
		ShippingFee: toFloat(shipping.Round(2)),
		GrandTotal:  toFloat(grand.Round(2)),
	}
	return totals, perLine, nil
}

func (e *GSTEngine) couponDiscount(subtotal decimal.Decimal, coupon *model.Coupon) (decimal.Decimal, error) {
	if coupon == nil {
		return decimal.Zero, nil
	}
	if coupon.MinOrderValue > 0 && subtotal.LessThan(decimal.NewFromFloat(coupon.MinOrderValue)) {
		return decimal.Zero, domainErrors.ErrCouponMinOrder
	}

	var discount decimal.Decimal
	switch coupon.Type {
	case model.CouponTypePercent:
		discount = subtotal.Mul(decimal.NewFromFloat(coupon.Value)).Div(hundred)
		if coupon.MaxDiscount > 0 {
			if cap := decimal.NewFromFloat(coupon.MaxDiscount); discount.GreaterThan(cap) {
				discount = cap
			}
		}
	case model.CouponTypeFlat:
		discount = decimal.NewFromFloat(coupon.Value)
	default:
		return decimal.Zero, nil
	}

	if discount.GreaterThan(subtotal) {
		discount = subtotal
	}
	return discount.Round(2), nil
}

func (e *GSTEngine) shippingFee(netSubtotal decimal.Decimal) decimal.Decimal {
	if e.freeShippingThreshold.IsPositive() && netSubtotal.GreaterThanOrEqual(e.freeShippingThreshold) {
		return decimal.Zero
	}
	return e.shippingFlatFee
}

func toFloat(d decimal.Decimal) float64 {
	f, _ := d.Float64()
	return f
}
