package domain

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "arbor/pkg/domain-errors"
)

func TestParseIdentifier_Invariants(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"SQL injection attempt", "'; DROP TABLE trees;--", true},
		{"Path traversal", "../../../etc/passwd", true},
		{"Null byte injection", "tree\x00-001", true},
		{"Oversized input", strings.Repeat("a", MaxIDLength+1), true},
		{"Unicode zero-width space", "tree\u200B001", true},
		{"Empty string", "", true},
		{"Whitespace only", "   ", true},

		{"Fixture id", "tree-001", false},
		{"Dotted and coloned", "park.north:12_a", false},
		{"Max length", strings.Repeat("a", MaxIDLength), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseTreeID(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
			} else {
				require.NoError(t, err)
			}
		})
	}
}

func TestAllIDTypes_ConsistentBehavior(t *testing.T) {
	t.Run("all accept a fixture id", func(t *testing.T) {
		_, errTree := ParseTreeID("site-001")
		_, errSite := ParseSiteID("site-001")
		_, errInit := ParseInitiativeID("site-001")
		_, errEvent := ParseEventID("site-001")
		_, errPrincipal := ParsePrincipal("site-001")

		require.NoError(t, errTree)
		require.NoError(t, errSite)
		require.NoError(t, errInit)
		require.NoError(t, errEvent)
		require.NoError(t, errPrincipal)
	})

	for _, input := range []string{"", "has space", "slash/ed"} {
		t.Run("all reject: "+input, func(t *testing.T) {
			_, errTree := ParseTreeID(input)
			_, errSite := ParseSiteID(input)
			_, errInit := ParseInitiativeID(input)
			_, errEvent := ParseEventID(input)
			_, errPrincipal := ParsePrincipal(input)

			require.Error(t, errTree)
			require.Error(t, errSite)
			require.Error(t, errInit)
			require.Error(t, errEvent)
			require.Error(t, errPrincipal)
		})
	}
}
