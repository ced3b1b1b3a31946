// Package classification scores chat messages for cash-dollar offers.
package classification

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/andresjosehr/dollarspy/internal/model"
)

// Signal weights. A message matches once the clamped sum reaches MatchThreshold.
const (
	WeightActionNumber  = 0.6
	WeightCurrency      = 0.3
	WeightSellAction    = 0.25
	WeightBuyAction     = 0.25
	WeightPaymentMethod = 0.3
	WeightPrice         = 0.15
	WeightDollarAmount  = 0.2
	WeightExchangeRate  = 0.15

	MatchThreshold = 0.4
)

// signal is one independently evaluated scoring rule.
type signal struct {
	re     *regexp.Regexp
	record func(ev *model.Evidence, found []string)
	name   string
	// offer is assigned when the signal fires; force overrides an earlier assignment.
	offer    model.OfferType
	keywords []string
	weight   float64
	force    bool
}

func (s signal) find(text string) []string {
	if s.re != nil {
		return s.re.FindAllString(text, -1)
	}

	var found []string
	for _, kw := range s.keywords {
		if strings.Contains(text, kw) {
			found = append(found, kw)
		}
	}
	return found
}

// Detector classifies message text. It holds no mutable state and is safe for concurrent use.
type Detector struct {
	signals []signal
}

// NewDetector compiles the lexicon into the ordered signal set.
func NewDetector(lex Lexicon) (*Detector, error) {
	actionNumber, err := compilePattern("action_number", lex.ActionNumberPattern)
	if err != nil {
		return nil, err
	}
	dollarAmount, err := compilePattern("dollar_amount", lex.DollarAmountPattern)
	if err != nil {
		return nil, err
	}
	exchangeRate, err := compilePattern("exchange_rate", lex.ExchangeRatePattern)
	if err != nil {
		return nil, err
	}

	addKeywords := func(ev *model.Evidence, found []string) {
		ev.Keywords = append(ev.Keywords, found...)
	}

	// Order only matters for offer type assignment; the score is additive.
	signals := []signal{
		{
			name:   "action_number",
			weight: WeightActionNumber,
			re:     actionNumber,
			offer:  model.OfferSell,
			force:  true,
			record: func(ev *model.Evidence, found []string) {
				ev.Amounts = append(ev.Amounts, found...)
			},
		},
		{name: "currency", weight: WeightCurrency, keywords: lower(lex.Currency), record: addKeywords},
		{name: "sell_action", weight: WeightSellAction, keywords: lower(lex.SellActions), offer: model.OfferSell, record: addKeywords},
		{name: "buy_action", weight: WeightBuyAction, keywords: lower(lex.BuyActions), offer: model.OfferBuy, record: addKeywords},
		{
			name:     "payment_method",
			weight:   WeightPaymentMethod,
			keywords: lower(lex.PaymentMethods),
			record: func(ev *model.Evidence, found []string) {
				ev.PaymentMethods = append(ev.PaymentMethods, found...)
				ev.Keywords = append(ev.Keywords, found...)
			},
		},
		{name: "price", weight: WeightPrice, keywords: lower(lex.Price), record: addKeywords},
		{
			name:   "dollar_amount",
			weight: WeightDollarAmount,
			re:     dollarAmount,
			record: func(ev *model.Evidence, found []string) {
				ev.Amounts = append(ev.Amounts, found...)
			},
		},
		{
			name:   "exchange_rate",
			weight: WeightExchangeRate,
			re:     exchangeRate,
			record: func(ev *model.Evidence, found []string) {
				ev.Rates = append(ev.Rates, found...)
			},
		},
	}

	return &Detector{signals: signals}, nil
}

// NewDefaultDetector returns a detector over DefaultLexicon.
func NewDefaultDetector() (*Detector, error) {
	return NewDetector(DefaultLexicon())
}

// Classify scores text against every signal. Empty text yields the zero result.
func (d *Detector) Classify(text string) model.DetectionResult {
	if text == "" {
		return model.DetectionResult{}
	}

	lowered := strings.ToLower(text)

	var (
		result model.DetectionResult
		score  float64
	)
	for _, s := range d.signals {
		found := s.find(lowered)
		if len(found) == 0 {
			continue
		}

		score += s.weight
		s.record(&result.Evidence, found)

		if s.offer != model.OfferNone && (s.force || result.Type == model.OfferNone) {
			result.Type = s.offer
		}
	}

	result.Confidence = minFloat(score, 1.0)
	result.IsMatch = result.Confidence >= MatchThreshold
	if !result.IsMatch {
		result.Type = model.OfferNone
	}

	return result
}

// SignalCount returns the number of compiled signals.
func (d *Detector) SignalCount() int {
	return len(d.signals)
}

func compilePattern(name, pattern string) (*regexp.Regexp, error) {
	if pattern == "" {
		return nil, fmt.Errorf("pattern %s is empty", name)
	}
	if !strings.HasPrefix(pattern, "(?i)") {
		pattern = "(?i)" + pattern
	}

	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("failed to compile pattern %s: %w", name, err)
	}
	return re, nil
}

func lower(words []string) []string {
	out := make([]string, 0, len(words))
	for _, w := range words {
		if w = strings.ToLower(strings.TrimSpace(w)); w != "" {
			out = append(out, w)
		}
	}
	return out
}

// minFloat returns the minimum of two float64 values.
func minFloat(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}
