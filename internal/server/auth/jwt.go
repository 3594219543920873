package auth

import (
	"errors"
	"time"

	"github.com/astrotechlabs/astrotech-api/internal/common"
	"github.com/golang-jwt/jwt/v5"
)

// Claims carries the registered claim set; the authenticated principal is
// the Subject (the user's email). The token service knows nothing about the
// User entity, only opaque subject strings.
type Claims struct {
	jwt.RegisteredClaims
}

// GenerateToken mints an HS256-signed token binding subject with an absolute
// expiry of now+validityDuration. The signing key is process-wide
// configuration, loaded once at startup.
func GenerateToken(subject string, secretKey []byte, validityDuration time.Duration) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(validityDuration)),
		},
	})

	tokenString, err := token.SignedString(secretKey)
	if err != nil {
		return "", err
	}

	return tokenString, nil
}

// GetSubjectFromToken verifies the signature over the full token payload and
// returns the embedded subject. Failures map onto the closed token error set:
// common.ErrTokenMalformed, common.ErrTokenExpired, common.ErrTokenTampered.
func GetSubjectFromToken(tokenString string, secretKey []byte) (string, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return secretKey, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenMalformed):
			return "", common.ErrTokenMalformed
		case errors.Is(err, jwt.ErrTokenExpired):
			return "", common.ErrTokenExpired
		default:
			return "", common.ErrTokenTampered
		}
	}

	if !token.Valid {
		return "", common.ErrTokenTampered
	}

	return claims.Subject, nil
}
