package pricing

import "testing"

func TestCashCounterOffersMidpoint(t *testing.T) {
	buyer := Offer{Type: OfferCash, CashPrice: Int64Ptr(2_700_000)}
	owner := Offer{Type: OfferCash, CashPrice: Int64Ptr(3_000_000)}

	c := ComputeCounterOffers(buyer, owner, 3_000_000)

	if got := *c.Buyer.CashPrice; got != 2_850_000 {
		t.Fatalf("buyer counter = %d, want 2850000", got)
	}
	if got := *c.Owner.CashPrice; got != 2_850_000 {
		t.Fatalf("owner counter = %d, want 2850000", got)
	}
	if c.EstimatedReservation != 285_000 {
		t.Fatalf("reservation = %d, want 285000", c.EstimatedReservation)
	}
}

func TestCashCounterOffersDefaultsToAssetPrice(t *testing.T) {
	c := ComputeCounterOffers(Offer{Type: OfferCash}, Offer{Type: OfferCash}, 1_000_000)

	if got := *c.Buyer.CashPrice; got != 1_000_000 {
		t.Fatalf("counter = %d, want asset price", got)
	}
	if c.EstimatedReservation != 100_000 {
		t.Fatalf("reservation = %d, want 100000", c.EstimatedReservation)
	}
}

func TestRentCounterOffersAverage(t *testing.T) {
	buyer := Offer{Type: OfferRent, RentBudget: Int64Ptr(10_000), RentDurationMonths: IntPtr(24)}
	owner := Offer{Type: OfferRent, RentBudget: Int64Ptr(14_000)}

	c := ComputeCounterOffers(buyer, owner, 3_000_000)

	if got := *c.Buyer.RentBudget; got != 12_000 {
		t.Fatalf("buyer budget = %d, want 12000", got)
	}
	if got := *c.Owner.RentBudget; got != 12_000 {
		t.Fatalf("owner budget = %d, want 12000", got)
	}
	if got := *c.Buyer.RentDurationMonths; got != 24 {
		t.Fatalf("months = %d, want buyer's 24", got)
	}
	// Rent reservations equal one averaged month.
	if c.EstimatedReservation != 12_000 {
		t.Fatalf("reservation = %d, want 12000", c.EstimatedReservation)
	}
}

func TestInstallmentCounterEchoesBuyer(t *testing.T) {
	buyer := Offer{
		Type:               OfferInstallments,
		DownPaymentPercent: Float64Ptr(20),
		InstallmentYears:   IntPtr(5),
	}
	owner := Offer{
		Type:               OfferInstallments,
		DownPaymentPercent: Float64Ptr(10),
		InstallmentYears:   IntPtr(3),
	}

	c := ComputeCounterOffers(buyer, owner, 3_000_000)

	if got := *c.Buyer.DownPaymentPercent; got != 20 {
		t.Fatalf("buyer down = %v, want buyer's own 20", got)
	}
	if got := *c.Buyer.InstallmentYears; got != 5 {
		t.Fatalf("buyer years = %d, want 5", got)
	}
	if got := *c.Owner.DownPaymentPercent; got != 10 {
		t.Fatalf("owner down = %v, want 10", got)
	}
	// Reservation sized from the averaged down payment, (20+10)/2 = 15%.
	if c.EstimatedReservation != 450_000 {
		t.Fatalf("reservation = %d, want 450000", c.EstimatedReservation)
	}
}

func TestInstallmentCounterOwnerDefaultsWhenBuyerSilent(t *testing.T) {
	c := ComputeCounterOffers(Offer{Type: OfferInstallments}, Offer{Type: OfferInstallments}, 2_000_000)

	if got := *c.Buyer.DownPaymentPercent; got != DefaultDownPaymentPercent {
		t.Fatalf("buyer down = %v, want default", got)
	}
	if got := *c.Buyer.InstallmentYears; got != DefaultInstallmentYears {
		t.Fatalf("buyer years = %d, want default", got)
	}
	if c.EstimatedReservation != 200_000 {
		t.Fatalf("reservation = %d, want 200000", c.EstimatedReservation)
	}
}
