package classification

// Lexicon is the static vocabulary the detector scores messages against.
// Keywords are matched as lowercase substrings; patterns are regular expressions
// evaluated against the lowercased message.
type Lexicon struct {
	// ActionNumberPattern matches a sell verb immediately followed by a quantity ("vendo 100").
	ActionNumberPattern string
	// DollarAmountPattern matches amounts such as "$100", "100$", "100 usd" or "usd 100".
	DollarAmountPattern string
	// ExchangeRatePattern matches rates such as "@36.5", "36 bs", "tasa 36" or "a 36".
	ExchangeRatePattern string

	Currency       []string
	SellActions    []string
	BuyActions     []string
	PaymentMethods []string
	Price          []string
}

// DefaultLexicon returns the vocabulary tuned for Venezuelan cash-dollar groups.
func DefaultLexicon() Lexicon {
	return Lexicon{
		Currency: []string{
			"dolar", "dolares", "dollar", "dollars",
			"usd", "us$", "u$d",
			"verdes", "verde",
			"divisas", "divisa",
			"efectivo americano",
		},
		SellActions: []string{
			"vendo", "venta", "vendiendo",
			"ofrezco", "oferto", "ofresco",
			"disponible", "disponibles",
			"tengo", "cuento con",
			"liquido", "remato",
			"cambio",
			"selling", "sell", "for sale",
		},
		BuyActions: []string{
			"compro", "busco", "necesito",
			"quien vende", "quién vende",
			"buying", "looking for",
		},
		PaymentMethods: []string{
			"zelle", "paypal", "venmo",
			"binance", "usdt",
			"cash app", "cashapp",
			"transferencia usa",
			"banco america", "bank of america", "bofa",
			"wells fargo", "chase",
		},
		Price: []string{
			"bs", "bolivares", "bolivar", "bsf", "bss",
			"tasa", "rate", "cambio a",
			"precio", "price",
		},
		ActionNumberPattern: `\b(vendo|tengo|disponible|disponibles|ofrezco|liquido|cambio)\s+(\d+[\d.,]*)`,
		DollarAmountPattern: `(?:\$\s*[\d,.]+|[\d,.]+\s*\$|[\d,.]+\s*(?:usd|dolares?|dollars?|verdes)|\b(?:usd|us\$)\s*[\d,.]+)`,
		ExchangeRatePattern: `(?:@\s*[\d,.]+|[\d,.]+\s*(?:bs|bss?|bolivares?)|tasa[:\s]*[\d,.]+|\ba\s+[\d,.]+(?:\s*bs)?)`,
	}
}
