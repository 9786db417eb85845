package identity

import (
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
)

// ErrUnauthenticated is returned when no valid identity is attached to a request.
var ErrUnauthenticated = errors.New("no valid identity")

// Claims is the payload of a session token minted by the sign-in flow.
// Subject carries the external identity id.
type Claims struct {
	Email string `json:"email,omitempty"`
	Name  string `json:"name,omitempty"`
	jwt.RegisteredClaims
}

// VerifySessionToken validates a session token and extracts its claims.
// Only HMAC-signed tokens are accepted; tokens signed with any other
// method are rejected before signature verification to rule out
// algorithm-confusion attacks. Any failure, including expiry, surfaces
// as ErrUnauthenticated.
func VerifySessionToken(tokenString, secret string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{},
		func(token *jwt.Token) (any, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
			}
			return []byte(secret), nil
		},
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnauthenticated, err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.Subject == "" {
		return nil, ErrUnauthenticated
	}

	return claims, nil
}
