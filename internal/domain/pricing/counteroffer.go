package pricing

import "math"

// CounterOffers is the informational suggestion pair computed when an offer
// arrives, plus the reservation deposit estimate shown to the buyer. Neither
// counter-offer is binding.
type CounterOffers struct {
	Buyer                Offer `json:"buyer"`
	Owner                Offer `json:"owner"`
	EstimatedReservation int64 `json:"estimatedReservation"`
}

// ComputeCounterOffers derives the counter-offer pair for a buyer offer
// against the owner's terms. Pure; the single source of truth for all
// negotiation math.
func ComputeCounterOffers(buyerOffer, ownerTerms Offer, assetPrice int64) CounterOffers {
	switch buyerOffer.Type {
	case OfferRent:
		return rentCounterOffers(buyerOffer, ownerTerms, assetPrice)
	case OfferInstallments:
		return installmentCounterOffers(buyerOffer, ownerTerms, assetPrice)
	default:
		return cashCounterOffers(buyerOffer, ownerTerms, assetPrice)
	}
}

func cashCounterOffers(buyerOffer, ownerTerms Offer, assetPrice int64) CounterOffers {
	buyerPrice := coalesceInt64(buyerOffer.CashPrice, assetPrice)
	ownerPrice := coalesceInt64(ownerTerms.CashPrice, assetPrice)
	midpoint := roundHalf(buyerPrice, ownerPrice)
	counter := Offer{Type: OfferCash, CashPrice: Int64Ptr(midpoint)}
	return CounterOffers{
		Buyer:                counter,
		Owner:                counter,
		EstimatedReservation: roundMoney(float64(midpoint) * 0.10),
	}
}

func rentCounterOffers(buyerOffer, ownerTerms Offer, assetPrice int64) CounterOffers {
	buyerBudget := coalesceInt64(buyerOffer.RentBudget, coalesceInt64(ownerTerms.RentBudget, assetPrice))
	ownerBudget := coalesceInt64(ownerTerms.RentBudget, buyerBudget)
	months := coalesceInt(buyerOffer.RentDurationMonths, coalesceInt(ownerTerms.RentDurationMonths, DefaultRentMonths))
	average := roundHalf(buyerBudget, ownerBudget)
	counter := Offer{Type: OfferRent, RentBudget: Int64Ptr(average), RentDurationMonths: IntPtr(months)}
	return CounterOffers{
		Buyer:                counter,
		Owner:                counter,
		EstimatedReservation: average,
	}
}

// Installment counter-offers never average the buyer's explicit values: the
// buyer's counter echoes them unmodified. The averaged midpoint exists only
// to size the reservation estimate and is discarded once a draft is created.
func installmentCounterOffers(buyerOffer, ownerTerms Offer, assetPrice int64) CounterOffers {
	ownerDown := coalesceFloat64(ownerTerms.DownPaymentPercent, DefaultDownPaymentPercent)
	ownerYears := coalesceInt(ownerTerms.InstallmentYears, DefaultInstallmentYears)

	buyerCounter := Offer{
		Type:               OfferInstallments,
		DownPaymentPercent: Float64Ptr(coalesceFloat64(buyerOffer.DownPaymentPercent, ownerDown)),
		InstallmentYears:   IntPtr(coalesceInt(buyerOffer.InstallmentYears, ownerYears)),
	}
	ownerCounter := Offer{
		Type:               OfferInstallments,
		DownPaymentPercent: Float64Ptr(ownerDown),
		InstallmentYears:   IntPtr(ownerYears),
	}

	counterDown := ownerDown
	if buyerOffer.DownPaymentPercent != nil {
		counterDown = math.Round((*buyerOffer.DownPaymentPercent + ownerDown) / 2)
	}
	return CounterOffers{
		Buyer:                buyerCounter,
		Owner:                ownerCounter,
		EstimatedReservation: roundMoney(float64(assetPrice) * counterDown / 100),
	}
}

func roundHalf(a, b int64) int64 {
	return roundMoney(float64(a+b) / 2)
}

func roundMoney(v float64) int64 {
	return int64(math.Round(v))
}

func coalesceInt64(v *int64, def int64) int64 {
	if v != nil {
		return *v
	}
	return def
}

func coalesceInt(v *int, def int) int {
	if v != nil {
		return *v
	}
	return def
}

func coalesceFloat64(v *float64, def float64) float64 {
	if v != nil {
		return *v
	}
	return def
}
