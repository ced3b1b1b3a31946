package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormatters(t *testing.T) {
	tests := []struct {
		format func(string) string
		name   string
		icon   string
	}{
		{name: "success", format: FormatSuccess, icon: SuccessIcon},
		{name: "error", format: FormatError, icon: ErrorIcon},
		{name: "warning", format: FormatWarning, icon: WarningIcon},
		{name: "info", format: FormatInfo, icon: InfoIcon},
		{name: "title", format: FormatTitle, icon: DollarIcon},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := tt.format("saved")
			assert.Contains(t, out, tt.icon)
			assert.Contains(t, out, "saved")
		})
	}
}

func TestRenderBox(t *testing.T) {
	out := RenderBox("Status", "WhatsApp: CONNECTED", "Monitored groups: 2")

	assert.Contains(t, out, "Status")
	assert.Contains(t, out, "WhatsApp: CONNECTED")
	assert.Contains(t, out, "Monitored groups: 2")
	assert.Contains(t, out, "╭")
}
