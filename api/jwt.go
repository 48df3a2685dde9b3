package api

import (
	"crypto/ed25519"
	"encoding/base64"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Claims 是存取權杖攜帶的身份資訊
type Claims struct {
	UserID  uuid.UUID `json:"uid"`
	IsAdmin bool      `json:"adm,omitempty"`
	jwt.RegisteredClaims
}

// TokenIssuer 簽發與驗證 Ed25519 簽章的存取權杖
type TokenIssuer struct {
	public  ed25519.PublicKey
	private ed25519.PrivateKey
	ttl     time.Duration
}

// NewTokenIssuer 從 base64 編碼的金鑰建立權杖簽發器
// privateKey 可以為空，此時只能驗證不能簽發
func NewTokenIssuer(publicKey, privateKey string, ttl time.Duration) (*TokenIssuer, error) {
	const op = "NewTokenIssuer"
	pub, err := base64.StdEncoding.DecodeString(publicKey)
	if err != nil {
		return nil, fmt.Errorf("[%s] Fail to decode public key, err=%w", op, err)
	}
	if len(pub) != ed25519.PublicKeySize {
		return nil, fmt.Errorf("[%s] Invalid public key size: %d", op, len(pub))
	}
	issuer := &TokenIssuer{
		public: ed25519.PublicKey(pub),
		ttl:    ttl,
	}
	if privateKey != "" {
		priv, err := base64.StdEncoding.DecodeString(privateKey)
		if err != nil {
			return nil, fmt.Errorf("[%s] Fail to decode private key, err=%w", op, err)
		}
		if len(priv) != ed25519.PrivateKeySize {
			return nil, fmt.Errorf("[%s] Invalid private key size: %d", op, len(priv))
		}
		issuer.private = ed25519.PrivateKey(priv)
	}
	return issuer, nil
}

// CanIssue 回報這個實例是否設定了簽發金鑰
func (t *TokenIssuer) CanIssue() bool {
	return t.private != nil
}

// Issue 簽發帶有使用者身份的存取權杖
func (t *TokenIssuer) Issue(userID uuid.UUID, username string, isAdmin bool) (string, error) {
	const op = "TokenIssuer.Issue"
	if t.private == nil {
		return "", fmt.Errorf("[%s] Signing key is not configured", op)
	}
	now := time.Now()
	claims := Claims{
		UserID:  userID,
		IsAdmin: isAdmin,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   username,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(t.ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodEdDSA, claims)
	signed, err := token.SignedString(t.private)
	if err != nil {
		return "", fmt.Errorf("[%s] Fail to sign token, err=%w", op, err)
	}
	return signed, nil
}

// ParseAndValidate 驗證權杖簽章與有效期並回傳身份資訊
func (t *TokenIssuer) ParseAndValidate(tokenString string) (*Claims, error) {
	const op = "TokenIssuer.ParseAndValidate"
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		return t.public, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodEdDSA.Alg()}))
	if err != nil {
		return nil, fmt.Errorf("[%s] %w", op, err)
	}
	if !token.Valid {
		return nil, fmt.Errorf("[%s] Token is invalid", op)
	}
	claims, ok := token.Claims.(*Claims)
	if !ok {
		return nil, fmt.Errorf("[%s] Token claims are invalid", op)
	}
	return claims, nil
}
