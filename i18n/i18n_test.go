package i18n

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalize(t *testing.T) {
	translator, err := New()
	require.NoError(t, err)

	t.Run("english message", func(t *testing.T) {
		got := translator.Localize("en", "ErrorNotFound", map[string]any{"Entity": "Offer"})
		assert.Equal(t, "Offer not found", got)
	})

	t.Run("persian message", func(t *testing.T) {
		got := translator.Localize("fa", "ErrorForbidden", nil)
		assert.Equal(t, "شما اجازه انجام این عملیات را ندارید", got)
	})

	t.Run("unsupported language falls back to persian", func(t *testing.T) {
		got := translator.Localize("de", "ErrorForbidden", nil)
		assert.Equal(t, "شما اجازه انجام این عملیات را ندارید", got)
	})

	t.Run("missing message id falls back to the id", func(t *testing.T) {
		got := translator.Localize("en", "NoSuchMessage", nil)
		assert.Equal(t, "NoSuchMessage", got)
	})
}

func TestResolve(t *testing.T) {
	tests := []struct {
		name       string
		candidates []string
		want       string
	}{
		{
			name:       "query parameter wins",
			candidates: []string{"en", "fa", "fa"},
			want:       "en",
		},
		{
			name:       "skip unsupported candidates",
			candidates: []string{"de", "fr", "en"},
			want:       "en",
		},
		{
			name:       "accept-language style tag is normalized",
			candidates: []string{"", "en-US"},
			want:       "en",
		},
		{
			name:       "browser accept-language header with quality values",
			candidates: []string{"en-US,en;q=0.9,fa;q=0.8"},
			want:       "en",
		},
		{
			name:       "header picks the first supported entry",
			candidates: []string{"de-DE,de;q=0.9,fa;q=0.5"},
			want:       "fa",
		},
		{
			name:       "no candidates falls back to default",
			candidates: []string{"", ""},
			want:       "fa",
		},
		{
			name:       "garbage input falls back to default",
			candidates: []string{"!!", "zz-ZZ"},
			want:       "fa",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Resolve(tt.candidates...))
		})
	}
}

func TestResolveExplicit(t *testing.T) {
	t.Run("reports a hit", func(t *testing.T) {
		lang, ok := ResolveExplicit("de", "en")
		assert.True(t, ok)
		assert.Equal(t, "en", lang)
	})

	t.Run("no hit means no fallback", func(t *testing.T) {
		_, ok := ResolveExplicit("de", "zz-ZZ", "")
		assert.False(t, ok)
	})
}
