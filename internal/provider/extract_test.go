package provider

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractValue(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		in     any
		want   float64
		wantOK bool
	}{
		{"float", 31.4, 31.4, true},
		{"int", 12, 12, true},
		{"json number", json.Number("27.5"), 27.5, true},
		{"string", " .487 ", 0.487, true},
		{"percent string", "48.7%", 48.7, true},
		{"thousands", "1,024", 1024, true},
		{"dash", "-", 0, false},
		{"empty", "", 0, false},
		{"text", "DNP", 0, false},
		{"nil", nil, 0, false},
		{"bool", true, 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ExtractValue(tt.in)
			assert.Equal(t, tt.wantOK, ok)
			assert.InDelta(t, tt.want, got, 1e-9)
		})
	}
}

func TestExtractFraction(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		in     any
		want   float64
		wantOK bool
	}{
		{"bare percent", "48.7", 0.487, true},
		{"bare fraction", ".487", 0.487, true},
		{"percent sign", "48.7%", 0.487, true},
		{"half a percent", "0.5%", 0.005, true},
		{"one percent", "1%", 0.01, true},
		{"hundred percent", "100%", 1.0, true},
		{"zero percent", "0%", 0, true},
		{"float one", 1.0, 1.0, true},
		{"text", "n/a", 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ExtractFraction(tt.in)
			assert.Equal(t, tt.wantOK, ok)
			assert.InDelta(t, tt.want, got, 1e-9)
		})
	}
}

func TestExtractString(t *testing.T) {
	assert.Equal(t, "Nikola Jokić", ExtractString(" Nikola Jokić "))
	assert.Equal(t, "1629029", ExtractString(json.Number("1629029")))
	assert.Equal(t, "23", ExtractString(float64(23)))
	assert.Equal(t, "", ExtractString(nil))
}
