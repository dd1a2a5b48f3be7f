package asset

import (
	"time"

	"github.com/google/uuid"

	"github.com/estateflow/estateflow/internal/domain/pricing"
)

// ListingStatus represents how an asset is listed.
type ListingStatus string

const (
	ListingSale ListingStatus = "sale"
	ListingRent ListingStatus = "rent"
	ListingBoth ListingStatus = "both"
)

// AvailabilityStatus represents asset availability. Only this field is
// written by the workflow core, on contract completion.
type AvailabilityStatus string

const (
	AvailabilityAvailable         AvailabilityStatus = "available"
	AvailabilitySold              AvailabilityStatus = "sold"
	AvailabilityRented            AvailabilityStatus = "rented"
	AvailabilityUnderConstruction AvailabilityStatus = "under_construction"
	AvailabilityCompleted         AvailabilityStatus = "completed"
	AvailabilityPlanned           AvailabilityStatus = "planned"
)

// PaymentPolicy is the owner's stated payment terms for an asset. Unset
// fields fall back to the system defaults. OfferRule is an optional
// expression gating incoming offers, e.g. "offer >= price * 0.8".
type PaymentPolicy struct {
	PreferredType      pricing.OfferType `json:"preferredType,omitempty"`
	CashPrice          *int64            `json:"cashPrice,omitempty"`
	DownPaymentPercent *float64          `json:"downPaymentPercent,omitempty"`
	InstallmentYears   *int              `json:"installmentYears,omitempty"`
	RentBudget         *int64            `json:"rentBudget,omitempty"`
	RentDurationMonths *int              `json:"rentDurationMonths,omitempty"`
	OfferRule          string            `json:"offerRule,omitempty"`
}

// Asset represents the property being negotiated over. Listing management
// is external; the workflow core reads assets and mutates availability only.
type Asset struct {
	ID           int64              `json:"id"`
	AssetID      uuid.UUID          `json:"assetId"`
	OwnerID      uuid.UUID          `json:"ownerId"`
	Title        string             `json:"title"`
	Location     string             `json:"location"`
	Price        int64              `json:"price"`
	Listing      ListingStatus      `json:"listingStatus"`
	Availability AvailabilityStatus `json:"availabilityStatus"`
	Policy       *PaymentPolicy     `json:"paymentPolicy,omitempty"`
	CreatedAt    time.Time          `json:"createdAt"`
	UpdatedAt    time.Time          `json:"updatedAt"`
}

// Negotiable reports whether new negotiations may start on the asset.
func (a *Asset) Negotiable() bool {
	return a.Availability != AvailabilitySold && a.Availability != AvailabilityRented
}

// OwnerTerms resolves the asset's payment policy into the owner's side of a
// negotiation for the given offer type. Missing policy yields the defaults:
// 10% down over 3 years, cash at list price.
func (a *Asset) OwnerTerms(offerType pricing.OfferType) pricing.Offer {
	terms := pricing.Offer{Type: offerType}
	p := a.Policy
	switch offerType {
	case pricing.OfferCash:
		terms.CashPrice = pricing.Int64Ptr(a.Price)
		if p != nil && p.CashPrice != nil {
			terms.CashPrice = p.CashPrice
		}
	case pricing.OfferInstallments:
		terms.DownPaymentPercent = pricing.Float64Ptr(pricing.DefaultDownPaymentPercent)
		terms.InstallmentYears = pricing.IntPtr(pricing.DefaultInstallmentYears)
		if p != nil && p.DownPaymentPercent != nil {
			terms.DownPaymentPercent = p.DownPaymentPercent
		}
		if p != nil && p.InstallmentYears != nil {
			terms.InstallmentYears = p.InstallmentYears
		}
	case pricing.OfferRent:
		if p != nil && p.RentBudget != nil {
			terms.RentBudget = p.RentBudget
		}
		terms.RentDurationMonths = pricing.IntPtr(pricing.DefaultRentMonths)
		if p != nil && p.RentDurationMonths != nil {
			terms.RentDurationMonths = p.RentDurationMonths
		}
	}
	return terms
}

// OfferRule returns the asset's offer-gating expression, if any.
func (a *Asset) OfferRule() string {
	if a.Policy == nil {
		return ""
	}
	return a.Policy.OfferRule
}
