package taxonomy

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSlugify(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Thrash Metal", "thrash-metal"},
		{"Motörhead", "motorhead"},
		{"AC/DC", "ac-dc"},
		{"  Sigur Rós  ", "sigur-ros"},
		{"Post--Rock!!", "post-rock"},
		{"坂本龍一", ""},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, Slugify(tt.in))
		})
	}
}

func TestNormalizeName(t *testing.T) {
	assert.Equal(t, "Iron Maiden", NormalizeName("  Iron   Maiden\t"))
	assert.Empty(t, NormalizeName("   "))
}
