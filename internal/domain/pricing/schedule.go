package pricing

import "math"

// Schedule is the payment breakdown attached to a deal draft.
type Schedule struct {
	DownPaymentPercent float64   `json:"downPaymentPercent"`
	DownPaymentAmount  int64     `json:"downPaymentAmount"`
	RemainingAmount    int64     `json:"remainingAmount"`
	InstallmentYears   float64   `json:"installmentYears"`
	MonthlyInstallment int64     `json:"monthlyInstallment"`
	PaymentType        OfferType `json:"paymentType"`
	OriginalPrice      int64     `json:"originalPrice,omitempty"`
	AgreedPrice        int64     `json:"agreedPrice,omitempty"`
}

// TotalMonths returns the number of monthly entries the schedule amortizes
// over, at least one.
func (s Schedule) TotalMonths() int {
	months := int(math.Round(s.InstallmentYears * 12))
	if months < 1 {
		months = 1
	}
	return months
}

// DeriveSchedule computes the payment schedule for the agreed offer against
// the asset price. Pure.
func DeriveSchedule(assetPrice int64, agreed Offer) Schedule {
	switch agreed.Type {
	case OfferRent:
		monthlyRent := coalesceInt64(agreed.RentBudget, assetPrice)
		months := coalesceInt(agreed.RentDurationMonths, DefaultRentMonths)
		return Schedule{
			DownPaymentPercent: 0,
			DownPaymentAmount:  monthlyRent,
			RemainingAmount:    monthlyRent * int64(months),
			InstallmentYears:   float64(months) / 12,
			MonthlyInstallment: monthlyRent,
			PaymentType:        OfferRent,
		}
	case OfferInstallments:
		downPercent := coalesceFloat64(agreed.DownPaymentPercent, DefaultDownPaymentPercent)
		years := coalesceInt(agreed.InstallmentYears, DefaultInstallmentYears)
		downAmount := roundMoney(float64(assetPrice) * downPercent / 100)
		remaining := assetPrice - downAmount
		months := years * 12
		if months < 1 {
			months = 1
		}
		return Schedule{
			DownPaymentPercent: downPercent,
			DownPaymentAmount:  downAmount,
			RemainingAmount:    remaining,
			InstallmentYears:   float64(years),
			MonthlyInstallment: roundMoney(float64(remaining) / float64(months)),
			PaymentType:        OfferInstallments,
		}
	default:
		agreedPrice := coalesceInt64(agreed.CashPrice, assetPrice)
		return Schedule{
			DownPaymentPercent: 100,
			DownPaymentAmount:  agreedPrice,
			RemainingAmount:    0,
			InstallmentYears:   0,
			MonthlyInstallment: 0,
			PaymentType:        OfferCash,
			OriginalPrice:      assetPrice,
			AgreedPrice:        agreedPrice,
		}
	}
}
