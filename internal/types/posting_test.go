package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPlatform_Normalize(t *testing.T) {
	assert.Equal(t, PlatformLinkedIn, Platform("  LinkedIn ").Normalize())
	assert.Equal(t, PlatformKariyer, Platform("Kariyer.net").Normalize())
}

func TestParseApplicationMethod(t *testing.T) {
	tests := []struct {
		in      string
		want    ApplicationMethod
		wantErr bool
	}{
		{"email", MethodEmail, false},
		{"inline_apply", MethodInlineApply, false},
		{"none", MethodNone, false},
		{"", MethodNone, false},
		{"fax", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseApplicationMethod(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPosting_Key(t *testing.T) {
	p := &Posting{Platform: PlatformLinkedIn, PlatformID: "123"}
	assert.Equal(t, PostingKey{Platform: PlatformLinkedIn, PlatformID: "123"}, p.Key())
	assert.Equal(t, "linkedin:123", p.Key().String())
}

func TestPlatform_DisplayName(t *testing.T) {
	assert.Equal(t, "LinkedIn", PlatformLinkedIn.DisplayName())
	assert.Equal(t, "Kariyer.net", PlatformKariyer.DisplayName())
	assert.Equal(t, "indeed", Platform("indeed").DisplayName())
}
