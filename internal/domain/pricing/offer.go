package pricing

// OfferType represents the payment mode of an offer.
type OfferType string

const (
	OfferCash         OfferType = "cash"
	OfferInstallments OfferType = "installments"
	OfferRent         OfferType = "rent"
)

// Valid reports whether t is a known offer type.
func (t OfferType) Valid() bool {
	switch t {
	case OfferCash, OfferInstallments, OfferRent:
		return true
	}
	return false
}

// Offer holds one side's terms for a negotiation. Only the fields for the
// offer's type are meaningful; nil means "not stated" and falls back to the
// other side's value or the asset defaults.
type Offer struct {
	Type               OfferType `json:"type"`
	CashPrice          *int64    `json:"cashPrice,omitempty"`
	DownPaymentPercent *float64  `json:"downPaymentPercent,omitempty"`
	InstallmentYears   *int      `json:"installmentYears,omitempty"`
	RentBudget         *int64    `json:"rentBudget,omitempty"`
	RentDurationMonths *int      `json:"rentDurationMonths,omitempty"`
}

// Default owner terms applied when an asset states no payment policy.
const (
	DefaultDownPaymentPercent = 10.0
	DefaultInstallmentYears   = 3
	DefaultRentMonths         = 12
)

func Int64Ptr(v int64) *int64       { return &v }
func Float64Ptr(v float64) *float64 { return &v }
func IntPtr(v int) *int             { return &v }
