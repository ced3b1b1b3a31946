// Package model defines the core domain models used throughout the application.
package model

// OfferType is the direction of a detected dollar offer.
type OfferType string

// Offer type constants.
const (
	OfferNone OfferType = ""
	OfferSell OfferType = "sell"
	OfferBuy  OfferType = "buy"
)

// Label returns the Spanish label used in alerts.
func (t OfferType) Label() string {
	if t == OfferBuy {
		return "COMPRA"
	}
	return "VENTA"
}

// Evidence lists what triggered the scoring signals, in evaluation order.
type Evidence struct {
	Keywords       []string `json:"keywords,omitempty"`
	Amounts        []string `json:"amounts,omitempty"`
	Rates          []string `json:"rates,omitempty"`
	PaymentMethods []string `json:"payment_methods,omitempty"`
}

// DetectionResult is the outcome of classifying one message.
type DetectionResult struct {
	Type       OfferType `json:"type"`
	Evidence   Evidence  `json:"evidence"`
	Confidence float64   `json:"confidence"`
	IsMatch    bool      `json:"is_match"`
}

// ConfidencePercent returns the confidence rounded to a whole percentage.
func (r DetectionResult) ConfidencePercent() int {
	return int(r.Confidence*100 + 0.5)
}
