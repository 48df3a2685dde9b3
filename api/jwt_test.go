package api_test

import (
	"crypto/ed25519"
	"crypto/rand"
	"encoding/base64"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bazar/api"
)

func newKeyPair(t *testing.T) (string, string) {
	t.Helper()
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)
	return base64.StdEncoding.EncodeToString(pub), base64.StdEncoding.EncodeToString(priv)
}

func TestNewTokenIssuer(t *testing.T) {
	pub, priv := newKeyPair(t)

	testCases := []struct {
		name       string
		publicKey  string
		privateKey string
		wantErr    bool
	}{
		{"完整金鑰對", pub, priv, false},
		{"只有公鑰也可以建立", pub, "", false},
		{"公鑰不是合法的base64", "not-base64!!", priv, true},
		{"公鑰長度錯誤", base64.StdEncoding.EncodeToString([]byte("short")), "", true},
		{"私鑰長度錯誤", pub, base64.StdEncoding.EncodeToString([]byte("short")), true},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := api.NewTokenIssuer(tc.publicKey, tc.privateKey, time.Hour)
			if tc.wantErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestTokenRoundTrip(t *testing.T) {
	pub, priv := newKeyPair(t)
	issuer, err := api.NewTokenIssuer(pub, priv, time.Hour)
	require.NoError(t, err)

	userID := uuid.New()
	token, err := issuer.Issue(userID, "amir", true)
	require.NoError(t, err)

	claims, err := issuer.ParseAndValidate(token)
	require.NoError(t, err)
	assert.Equal(t, userID, claims.UserID)
	assert.True(t, claims.IsAdmin)
	assert.Equal(t, "amir", claims.Subject)
}

func TestTokenValidation(t *testing.T) {
	pub, priv := newKeyPair(t)

	t.Run("過期的權杖應被拒絕", func(t *testing.T) {
		issuer, err := api.NewTokenIssuer(pub, priv, -time.Hour)
		require.NoError(t, err)
		token, err := issuer.Issue(uuid.New(), "amir", false)
		require.NoError(t, err)

		_, err = issuer.ParseAndValidate(token)
		assert.Error(t, err)
	})

	t.Run("別的金鑰簽的權杖應被拒絕", func(t *testing.T) {
		issuer, err := api.NewTokenIssuer(pub, priv, time.Hour)
		require.NoError(t, err)
		otherPub, otherPriv := newKeyPair(t)
		otherIssuer, err := api.NewTokenIssuer(otherPub, otherPriv, time.Hour)
		require.NoError(t, err)

		token, err := otherIssuer.Issue(uuid.New(), "amir", false)
		require.NoError(t, err)
		_, err = issuer.ParseAndValidate(token)
		assert.Error(t, err)
	})

	t.Run("沒有私鑰時不能簽發", func(t *testing.T) {
		issuer, err := api.NewTokenIssuer(pub, "", time.Hour)
		require.NoError(t, err)
		_, err = issuer.Issue(uuid.New(), "amir", false)
		assert.Error(t, err)
	})

	t.Run("亂碼不是權杖", func(t *testing.T) {
		issuer, err := api.NewTokenIssuer(pub, priv, time.Hour)
		require.NoError(t, err)
		_, err = issuer.ParseAndValidate("garbage")
		assert.Error(t, err)
	})
}
