package convert

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToFloatPtr(t *testing.T) {
	cases := []struct {
		name string
		in   any
		want *float64
	}{
		{"float64", 1.5, ptr(1.5)},
		{"int", 7, ptr(7)},
		{"string", " 12.25 ", ptr(12.25)},
		{"json number", json.Number("3.5"), ptr(3.5)},
		{"empty string", "  ", nil},
		{"garbage string", "n/a", nil},
		{"nil", nil, nil},
		{"nan", math.NaN(), nil},
		{"inf", math.Inf(1), nil},
		{"bool", true, nil},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := ToFloatPtr(tc.in)
			if tc.want == nil {
				assert.Nil(t, got)
				return
			}
			require.NotNil(t, got)
			assert.Equal(t, *tc.want, *got)
		})
	}
}

func TestToFloat64(t *testing.T) {
	assert.Equal(t, 4.5, ToFloat64("4.5"))
	assert.Zero(t, ToFloat64("bad"))
	assert.Zero(t, ToFloat64(nil))
}

func ptr(f float64) *float64 { return &f }
