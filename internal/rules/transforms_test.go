package rules

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApplyTransform(t *testing.T) {
	two := 2.0

	tests := []struct {
		name  string
		key   TransformKey
		value any
		param *float64
		want  any
	}{
		{"absolute of negative", TransformAbsolute, -12.5, nil, 12.5},
		{"absolute of positive", TransformAbsolute, 3.0, nil, 3.0},
		{"absolute of numeric string", TransformAbsolute, "-7.25", nil, 7.25},
		{"negate", TransformNegate, 4.0, nil, -4.0},
		{"negate negative", TransformNegate, -4.0, nil, 4.0},
		{"multiply", TransformMultiply, 3.5, &two, 7.0},
		{"uppercase", TransformUppercase, "coffee shop", nil, "COFFEE SHOP"},
		{"lowercase", TransformLowercase, "COFFEE", nil, "coffee"},
		{"trim", TransformTrim, "  padded  ", nil, "padded"},
		{"trim non-string", TransformTrim, 42, nil, "42"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ApplyTransform(tt.key, tt.value, tt.param)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestApplyTransformErrors(t *testing.T) {
	tests := []struct {
		name  string
		key   TransformKey
		value any
		param *float64
	}{
		{"multiply without parameter", TransformMultiply, 3.0, nil},
		{"absolute of non-number", TransformAbsolute, "not a number", nil},
		{"negate of nil", TransformNegate, nil, nil},
		{"unknown transform", TransformKey("sprinkle"), 1.0, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ApplyTransform(tt.key, tt.value, tt.param)
			require.Error(t, err)
		})
	}
}
