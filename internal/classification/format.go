package classification

import (
	"fmt"
	"strings"

	"github.com/andresjosehr/dollarspy/internal/model"
)

// FormatDetection renders a one-line summary of a match for logs and the CLI.
// Non-matching results render as an empty string.
func FormatDetection(result model.DetectionResult, sender string) string {
	if !result.IsMatch {
		return ""
	}

	parts := []string{
		fmt.Sprintf("[%s DETECTADA] Confianza: %d%%", result.Type.Label(), result.ConfidencePercent()),
		"De: " + sender,
	}

	if len(result.Evidence.Amounts) > 0 {
		parts = append(parts, "Montos: "+strings.Join(result.Evidence.Amounts, ", "))
	}
	if len(result.Evidence.Rates) > 0 {
		parts = append(parts, "Tasas: "+strings.Join(result.Evidence.Rates, ", "))
	}
	if len(result.Evidence.PaymentMethods) > 0 {
		parts = append(parts, "Pago: "+strings.Join(result.Evidence.PaymentMethods, ", "))
	}

	return strings.Join(parts, " | ")
}
