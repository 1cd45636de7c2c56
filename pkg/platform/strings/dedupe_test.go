package strings

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDedupeAndTrim(t *testing.T) {
	tests := []struct {
		name     string
		input    []string
		expected []string
	}{
		{"nil slice", nil, []string{}},
		{"blanks dropped", []string{"", "  ", "site-001"}, []string{"site-001"}},
		{"order preserved", []string{" site-002", "site-001 ", "site-002"}, []string{"site-002", "site-001"}},
		{"case-sensitive", []string{"Site-1", "site-1"}, []string{"Site-1", "site-1"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, DedupeAndTrim(tt.input))
		})
	}
}

func TestDedupeFold(t *testing.T) {
	got := DedupeFold([]string{"Quercus robur", " quercus   ROBUR ", "Acer\tplatanoides", "", "Tilia cordata"})
	assert.Equal(t, []string{"Quercus robur", "Acer platanoides", "Tilia cordata"}, got)
}
