package domain_test

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonesrussell/north-cloud/prayerbook/internal/domain"
)

func TestContent_UnmarshalVariants(t *testing.T) {
	var items []domain.Content
	err := json.Unmarshal([]byte(`[
		"O God, guide me.",
		{"type": "info", "text": "To be recited at noon."},
		{"text": "Glorified art Thou.", "lines": [4, 5]}
	]`), &items)
	require.NoError(t, err)
	require.Len(t, items, 3)

	assert.Equal(t, domain.KindPlain, items[0].Kind())
	assert.Equal(t, "O God, guide me.", items[0].Text())

	assert.Equal(t, domain.KindAnnotation, items[1].Kind())
	assert.Equal(t, domain.AnnotationInfo, items[1].Type())

	assert.Equal(t, domain.KindLines, items[2].Kind())
	assert.Equal(t, []int{4, 5}, items[2].LineNumbers())

	out, err := json.Marshal(items)
	require.NoError(t, err)
	assert.JSONEq(t, `[
		"O God, guide me.",
		{"type": "info", "text": "To be recited at noon."},
		{"text": "Glorified art Thou.", "lines": [4, 5]}
	]`, string(out))
}

func TestContent_UnmarshalRejectsUnknownShapes(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"number", `42`},
		{"object without text", `{"type": "info"}`},
		{"type and lines", `{"type": "info", "text": "x", "lines": [1]}`},
		{"text only", `{"text": "x"}`},
		{"extra key", `{"type": "info", "text": "x", "note": "y"}`},
		{"empty type", `{"type": "", "text": "x"}`},
		{"lines not numbers", `{"text": "x", "lines": ["a"]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var c domain.Content
			err := json.Unmarshal([]byte(tt.raw), &c)
			require.Error(t, err)
			assert.True(t, errors.Is(err, domain.ErrMalformedRecord), "got %v", err)
		})
	}
}

func TestLines_CopiesInput(t *testing.T) {
	lines := []int{1, 2}
	c := domain.Lines("text", lines...)
	lines[0] = 99

	assert.Equal(t, []int{1, 2}, c.LineNumbers())
}
