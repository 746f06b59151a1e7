package pricing

import (
	"errors"
	"math"
	"testing"

	domainErrors "github.com/tanmaydk/shopcore/internal/domain/errors"
	"github.com/tanmaydk/shopcore/internal/domain/model"
)

const eps = 1e-9

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < eps
}

func newTestEngine() *GSTEngine {
	return NewGSTEngine("MH", 49, 999)
}

func TestCalculateTotalsIntraState(t *testing.T) {
	engine := newTestEngine()
	lines := []Line{
		{ProductID: "p1", Name: "Widget", Quantity: 2, UnitPrice: 100, TaxSlab: 18},
	}
	addr := model.Address{Line1: "1 MG Road", City: "Pune", State: "MH", PostalCode: "411001"}

	totals, perLine, err := engine.CalculateTotals(lines, addr, model.PaymentMethodRazorpay, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !almostEqual(totals.Subtotal, 200) {
		t.Errorf("subtotal = %v, want 200", totals.Subtotal)
	}
	if !almostEqual(totals.TaxAmount, 36) {
		t.Errorf("tax = %v, want 36", totals.TaxAmount)
	}
	if !almostEqual(totals.TaxBreakdown.CGST, 18) || !almostEqual(totals.TaxBreakdown.SGST, 18) {
		t.Errorf("cgst/sgst = %v/%v, want 18/18", totals.TaxBreakdown.CGST, totals.TaxBreakdown.SGST)
	}
	if !almostEqual(totals.TaxBreakdown.IGST, 0) {
		t.Errorf("igst = %v, want 0", totals.TaxBreakdown.IGST)
	}
	if !almostEqual(totals.ShippingFee, 49) {
		t.Errorf("shipping = %v, want 49", totals.ShippingFee)
	}
	if !almostEqual(totals.GrandTotal, 285) {
		t.Errorf("grand total = %v, want 285", totals.GrandTotal)
	}
	if len(perLine) != 1 || !almostEqual(perLine[0].LineTotal, 236) {
		t.Errorf("line total = %+v, want 236", perLine)
	}
}

func TestCalculateTotalsInterState(t *testing.T) {
	engine := newTestEngine()
	lines := []Line{
		{ProductID: "p1", Quantity: 2, UnitPrice: 100, TaxSlab: 18},
	}
	addr := model.Address{Line1: "5 Ring Road", City: "Delhi", State: "DL", PostalCode: "110001"}

	totals, perLine, err := engine.CalculateTotals(lines, addr, model.PaymentMethodRazorpay, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !almostEqual(totals.TaxBreakdown.IGST, 36) {
		t.Errorf("igst = %v, want 36", totals.TaxBreakdown.IGST)
	}
	if !almostEqual(totals.TaxBreakdown.CGST, 0) || !almostEqual(totals.TaxBreakdown.SGST, 0) {
		t.Errorf("cgst/sgst = %v/%v, want 0/0", totals.TaxBreakdown.CGST, totals.TaxBreakdown.SGST)
	}
	if !almostEqual(perLine[0].TaxBreakdown.IGST, 36) {
		t.Errorf("line igst = %v, want 36", perLine[0].TaxBreakdown.IGST)
	}
}

func TestCalculateTotalsFreeShipping(t *testing.T) {
	engine := newTestEngine()
	lines := []Line{
		{ProductID: "p1", Quantity: 1, UnitPrice: 1200, TaxSlab: 12},
	}
	addr := model.Address{Line1: "1 MG Road", City: "Pune", State: "MH", PostalCode: "411001"}

	totals, _, err := engine.CalculateTotals(lines, addr, model.PaymentMethodRazorpay, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !almostEqual(totals.ShippingFee, 0) {
		t.Errorf("shipping = %v, want 0 above threshold", totals.ShippingFee)
	}
}

func TestCalculateTotalsPercentCouponCapped(t *testing.T) {
	engine := newTestEngine()
	lines := []Line{
		{ProductID: "p1", Quantity: 1, UnitPrice: 100, TaxSlab: 18},
		{ProductID: "p2", Quantity: 1, UnitPrice: 100, TaxSlab: 18},
	}
	addr := model.Address{Line1: "1 MG Road", City: "Pune", State: "MH", PostalCode: "411001"}
	coupon := &model.Coupon{Code: "SAVE10", Type: model.CouponTypePercent, Value: 10, MaxDiscount: 15, Active: true}

	totals, perLine, err := engine.CalculateTotals(lines, addr, model.PaymentMethodRazorpay, coupon)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !almostEqual(totals.DiscountAmount, 15) {
		t.Errorf("discount = %v, want capped 15", totals.DiscountAmount)
	}

	var allocated float64
	for _, line := range perLine {
		allocated += line.Discount
	}
	if !almostEqual(allocated, totals.DiscountAmount) {
		t.Errorf("allocated discount %v does not sum to order discount %v", allocated, totals.DiscountAmount)
	}
}

func TestCalculateTotalsDiscountRemainderOnLastLine(t *testing.T) {
	engine := newTestEngine()
	// Three equal lines with a discount that does not divide evenly.
	lines := []Line{
		{ProductID: "p1", Quantity: 1, UnitPrice: 100, TaxSlab: 18},
		{ProductID: "p2", Quantity: 1, UnitPrice: 100, TaxSlab: 18},
		{ProductID: "p3", Quantity: 1, UnitPrice: 100, TaxSlab: 18},
	}
	addr := model.Address{Line1: "1 MG Road", City: "Pune", State: "MH", PostalCode: "411001"}
	coupon := &model.Coupon{Code: "FLAT100", Type: model.CouponTypeFlat, Value: 100, Active: true}

	totals, perLine, err := engine.CalculateTotals(lines, addr, model.PaymentMethodRazorpay, coupon)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var allocated float64
	for _, line := range perLine {
		allocated += line.Discount
	}
	if !almostEqual(allocated, totals.DiscountAmount) {
		t.Errorf("allocated %v, want exactly %v", allocated, totals.DiscountAmount)
	}
}

func TestCalculateTotalsCouponMinOrder(t *testing.T) {
	engine := newTestEngine()
	lines := []Line{
		{ProductID: "p1", Quantity: 1, UnitPrice: 100, TaxSlab: 18},
	}
	addr := model.Address{Line1: "1 MG Road", City: "Pune", State: "MH", PostalCode: "411001"}
	coupon := &model.Coupon{Code: "BIG", Type: model.CouponTypeFlat, Value: 50, MinOrderValue: 500, Active: true}

	_, _, err := engine.CalculateTotals(lines, addr, model.PaymentMethodRazorpay, coupon)
	if !errors.Is(err, domainErrors.ErrCouponMinOrder) {
		t.Fatalf("err = %v, want ErrCouponMinOrder", err)
	}
}

func TestCalculateTotalsFlatCouponClamped(t *testing.T) {
	engine := newTestEngine()
	lines := []Line{
		{ProductID: "p1", Quantity: 1, UnitPrice: 100, TaxSlab: 18},
	}
	addr := model.Address{Line1: "1 MG Road", City: "Pune", State: "MH", PostalCode: "411001"}
	coupon := &model.Coupon{Code: "HUGE", Type: model.CouponTypeFlat, Value: 500, Active: true}

	totals, _, err := engine.CalculateTotals(lines, addr, model.PaymentMethodRazorpay, coupon)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !almostEqual(totals.DiscountAmount, 100) {
		t.Errorf("discount = %v, want clamped to subtotal 100", totals.DiscountAmount)
	}
	if !almostEqual(totals.TaxAmount, 0) {
		t.Errorf("tax = %v, want 0 on zero taxable", totals.TaxAmount)
	}
}

func TestCalculateTotalsValidation(t *testing.T) {
	engine := newTestEngine()
	addr := model.Address{Line1: "1 MG Road", City: "Pune", State: "MH", PostalCode: "411001"}

	if _, _, err := engine.CalculateTotals(nil, addr, model.PaymentMethodRazorpay, nil); !errors.Is(err, domainErrors.ErrEmptyCart) {
		t.Errorf("empty lines err = %v, want ErrEmptyCart", err)
	}

	lines := []Line{{ProductID: "p1", Quantity: 0, UnitPrice: 100, TaxSlab: 18}}
	if _, _, err := engine.CalculateTotals(lines, addr, model.PaymentMethodRazorpay, nil); !errors.Is(err, domainErrors.ErrInvalidQuantity) {
		t.Errorf("zero quantity err = %v, want ErrInvalidQuantity", err)
	}
}
