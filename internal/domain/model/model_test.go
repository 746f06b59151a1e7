package model

import (
	"testing"
	"time"
)

func TestShipmentTransitions(t *testing.T) {
	cases := []struct {
		from    ShipmentStatus
		to      ShipmentStatus
		allowed bool
	}{
		{ShipmentStatusPending, ShipmentStatusShipped, true},
		{ShipmentStatusShipped, ShipmentStatusInTransit, true},
		{ShipmentStatusShipped, ShipmentStatusDelivered, true},
		{ShipmentStatusInTransit, ShipmentStatusReturned, true},
		{ShipmentStatusPending, ShipmentStatusDelivered, false},
		{ShipmentStatusDelivered, ShipmentStatusShipped, false},
		{ShipmentStatusCancelled, ShipmentStatusShipped, false},
		{ShipmentStatusShipped, ShipmentStatusPending, false},
	}

	for _, tc := range cases {
		if got := tc.from.CanTransition(tc.to); got != tc.allowed {
			t.Errorf("%s -> %s: allowed = %v, want %v", tc.from, tc.to, got, tc.allowed)
		}
	}
}

func TestShipmentStatusTerminal(t *testing.T) {
	terminal := []ShipmentStatus{ShipmentStatusDelivered, ShipmentStatusCancelled, ShipmentStatusReturned}
	for _, s := range terminal {
		if !s.Terminal() {
			t.Errorf("%s must be terminal", s)
		}
	}
	for _, s := range []ShipmentStatus{ShipmentStatusPending, ShipmentStatusShipped, ShipmentStatusInTransit} {
		if s.Terminal() {
			t.Errorf("%s must not be terminal", s)
		}
	}
}

func TestShipmentStatusItemStatus(t *testing.T) {
	cases := []struct {
		status ShipmentStatus
		item   ItemStatus
		ok     bool
	}{
		{ShipmentStatusShipped, ItemStatusShipped, true},
		{ShipmentStatusDelivered, ItemStatusDelivered, true},
		{ShipmentStatusCancelled, ItemStatusCancelled, true},
		{ShipmentStatusReturned, ItemStatusCancelled, true},
		{ShipmentStatusPending, "", false},
		{ShipmentStatusInTransit, "", false},
	}

	for _, tc := range cases {
		item, ok := tc.status.ItemStatus()
		if ok != tc.ok || item != tc.item {
			t.Errorf("%s: item status = %q/%v, want %q/%v", tc.status, item, ok, tc.item, tc.ok)
		}
	}
}

func TestPaymentMethodOnline(t *testing.T) {
	if PaymentMethodCOD.Online() {
		t.Error("cod must not be online")
	}
	if !PaymentMethodRazorpay.Online() {
		t.Error("razorpay must be online")
	}
}

func TestDraftStatusTerminal(t *testing.T) {
	for _, s := range []DraftStatus{DraftStatusPaid, DraftStatusExpired} {
		if !s.Terminal() {
			t.Errorf("%s must be terminal", s)
		}
	}
	for _, s := range []DraftStatus{DraftStatusDraft, DraftStatusPending} {
		if s.Terminal() {
			t.Errorf("%s must not be terminal", s)
		}
	}
}

func TestDraftExpired(t *testing.T) {
	now := time.Now().UTC()
	draft := &CheckoutDraft{ExpiresAt: now.Add(time.Minute)}
	if draft.Expired(now) {
		t.Error("draft expired before its deadline")
	}
	if !draft.Expired(now.Add(2 * time.Minute)) {
		t.Error("draft not expired after its deadline")
	}
}

func TestProductUnitPrice(t *testing.T) {
	p := &Product{RetailPrice: 100, WholesalePrice: 80, WholesaleMinQty: 10}
	if got := p.UnitPrice(1); got != 100 {
		t.Errorf("retail price = %v, want 100", got)
	}
	if got := p.UnitPrice(10); got != 80 {
		t.Errorf("wholesale price = %v, want 80", got)
	}

	// No wholesale tier configured.
	p = &Product{RetailPrice: 100}
	if got := p.UnitPrice(100); got != 100 {
		t.Errorf("price without wholesale tier = %v, want 100", got)
	}
}

func TestPaymentSnapshot(t *testing.T) {
	at := time.Unix(0, 0).UTC()
	payment := &Payment{
		Gateway:          "razorpay",
		GatewayOrderID:   "gw1",
		GatewayPaymentID: "pay_abc",
		Status:           PaymentRecordSuccess,
		Amount:           285,
		RefundedAmount:   100,
	}
	view := payment.Snapshot(at)
	if view.GatewayPaymentID != "pay_abc" || view.Status != "success" {
		t.Fatalf("unexpected snapshot: %+v", view)
	}
	if view.Amount != 285 || view.RefundedAmount != 100 || !view.At.Equal(at) {
		t.Fatalf("unexpected snapshot: %+v", view)
	}
}
