package pricing

import (
	"errors"
	"strings"

	"github.com/Knetic/govaluate"
)

// EvaluateOfferRule evaluates an asset's offer-policy expression against an
// incoming offer. Empty rule accepts everything. Supports "true"/"false"
// literals. Expressions see `offer`, `price` and `type`, e.g.
// "offer >= price * 0.8".
func EvaluateOfferRule(rule string, offer Offer, assetPrice int64) (bool, error) {
	cond := strings.TrimSpace(rule)
	if cond == "" {
		return true, nil
	}
	switch strings.ToLower(cond) {
	case "true":
		return true, nil
	case "false":
		return false, nil
	}

	expr, err := govaluate.NewEvaluableExpression(cond)
	if err != nil {
		return false, err
	}
	result, err := expr.Evaluate(ruleParams(offer, assetPrice))
	if err != nil {
		return false, err
	}
	switch v := result.(type) {
	case bool:
		return v, nil
	default:
		return false, errors.New("offer rule did not evaluate to boolean")
	}
}

func ruleParams(offer Offer, assetPrice int64) map[string]interface{} {
	params := map[string]interface{}{
		"price": float64(assetPrice),
		"type":  string(offer.Type),
		"offer": float64(OfferedAmount(offer, assetPrice)),
	}
	if offer.DownPaymentPercent != nil {
		params["downPaymentPercent"] = *offer.DownPaymentPercent
	}
	if offer.InstallmentYears != nil {
		params["installmentYears"] = float64(*offer.InstallmentYears)
	}
	if offer.RentDurationMonths != nil {
		params["rentDurationMonths"] = float64(*offer.RentDurationMonths)
	}
	return params
}

// OfferedAmount resolves the headline amount of an offer: the cash price,
// the monthly rent budget, or the asset price when the offer states none.
func OfferedAmount(offer Offer, assetPrice int64) int64 {
	switch offer.Type {
	case OfferCash:
		return coalesceInt64(offer.CashPrice, assetPrice)
	case OfferRent:
		return coalesceInt64(offer.RentBudget, assetPrice)
	default:
		return assetPrice
	}
}
