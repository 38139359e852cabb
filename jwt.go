package isbclient

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// DefaultTokenTTL is the validity window of every signed token.
const DefaultTokenTTL = time.Hour

// SignJWT signs payload with HS256. The iat and exp claims are always set
// here and override any values already present in payload. A zero ttl means
// DefaultTokenTTL.
func SignJWT(payload map[string]any, secret string, ttl time.Duration) (string, error) {
	return signJWTAt(payload, secret, ttl, time.Now())
}

func signJWTAt(payload map[string]any, secret string, ttl time.Duration, now time.Time) (string, error) {
	if ttl == 0 {
		ttl = DefaultTokenTTL
	}

	claims := jwt.MapClaims{}
	for k, v := range payload {
		claims[k] = v
	}
	iat := now.Unix()
	claims["iat"] = iat
	claims["exp"] = iat + int64(ttl/time.Second)

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		return "", fmt.Errorf("isb-client: failed to sign token: %w", err)
	}
	return signed, nil
}
