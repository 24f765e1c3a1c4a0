// Package auth implements access-token minting/verification and the
// password-verifier KDF.
package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/hevault-io/hevault/internal/common"
)

// Claims carries the authenticated identity: both the user id and the email
// are required so a token can only resolve to the exact account it was minted
// for.
type Claims struct {
	jwt.RegisteredClaims
	UserID int64  `json:"user_id"`
	Email  string `json:"email"`
}

func GenerateToken(userID int64, email string, secretKey []byte, validityDuration time.Duration) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(validityDuration)),
		},
		UserID: userID,
		Email:  email,
	})

	return token.SignedString(secretKey)
}

// ParseToken validates the signature and expiry and returns the claims.
func ParseToken(tokenString string, secretKey []byte) (*Claims, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return secretKey, nil
	})
	if err != nil {
		return nil, err
	}

	if !token.Valid || claims.UserID == 0 || claims.Email == "" {
		return nil, common.ErrInvalidToken
	}

	return claims, nil
}
