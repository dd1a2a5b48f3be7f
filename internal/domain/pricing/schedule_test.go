package pricing

import "testing"

func TestDeriveScheduleInstallments(t *testing.T) {
	offer := Offer{
		Type:               OfferInstallments,
		DownPaymentPercent: Float64Ptr(10),
		InstallmentYears:   IntPtr(3),
	}
	s := DeriveSchedule(3_000_000, offer)

	if s.DownPaymentAmount != 300_000 {
		t.Fatalf("down payment = %d, want 300000", s.DownPaymentAmount)
	}
	if s.RemainingAmount != 2_700_000 {
		t.Fatalf("remaining = %d, want 2700000", s.RemainingAmount)
	}
	if s.InstallmentYears != 3 {
		t.Fatalf("years = %v, want 3", s.InstallmentYears)
	}
	if s.MonthlyInstallment != 75_000 {
		t.Fatalf("monthly = %d, want 75000", s.MonthlyInstallment)
	}
	if s.TotalMonths() != 36 {
		t.Fatalf("months = %d, want 36", s.TotalMonths())
	}
}

func TestDeriveScheduleInstallmentsDefaults(t *testing.T) {
	s := DeriveSchedule(1_200_000, Offer{Type: OfferInstallments})

	if s.DownPaymentPercent != DefaultDownPaymentPercent {
		t.Fatalf("down percent = %v, want %v", s.DownPaymentPercent, DefaultDownPaymentPercent)
	}
	if s.DownPaymentAmount != 120_000 {
		t.Fatalf("down payment = %d, want 120000", s.DownPaymentAmount)
	}
	if s.MonthlyInstallment != 30_000 {
		t.Fatalf("monthly = %d, want 30000", s.MonthlyInstallment)
	}
}

func TestDeriveScheduleCash(t *testing.T) {
	s := DeriveSchedule(3_000_000, Offer{Type: OfferCash, CashPrice: Int64Ptr(2_700_000)})

	if s.DownPaymentPercent != 100 {
		t.Fatalf("down percent = %v, want 100", s.DownPaymentPercent)
	}
	if s.DownPaymentAmount != 2_700_000 {
		t.Fatalf("down payment = %d, want agreed price", s.DownPaymentAmount)
	}
	if s.RemainingAmount != 0 || s.MonthlyInstallment != 0 {
		t.Fatalf("cash schedule should have no remainder, got %d / %d", s.RemainingAmount, s.MonthlyInstallment)
	}
	if s.OriginalPrice != 3_000_000 || s.AgreedPrice != 2_700_000 {
		t.Fatalf("prices = %d / %d", s.OriginalPrice, s.AgreedPrice)
	}
}

func TestDeriveScheduleRent(t *testing.T) {
	offer := Offer{Type: OfferRent, RentBudget: Int64Ptr(15_000), RentDurationMonths: IntPtr(12)}
	s := DeriveSchedule(3_000_000, offer)

	if s.DownPaymentAmount != 15_000 {
		t.Fatalf("first month = %d, want 15000", s.DownPaymentAmount)
	}
	if s.RemainingAmount != 180_000 {
		t.Fatalf("remaining = %d, want 180000", s.RemainingAmount)
	}
	if s.MonthlyInstallment != 15_000 {
		t.Fatalf("monthly = %d, want 15000", s.MonthlyInstallment)
	}
	if s.TotalMonths() != 12 {
		t.Fatalf("months = %d, want 12", s.TotalMonths())
	}
}

func TestTotalMonthsFloor(t *testing.T) {
	s := Schedule{InstallmentYears: 0}
	if s.TotalMonths() != 1 {
		t.Fatalf("months = %d, want 1", s.TotalMonths())
	}
}
