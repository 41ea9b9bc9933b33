package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"chancehr/internal/requestctx"
)

var ErrInvalidToken = errors.New("invalid token")

// Claims mirror the tokens minted by the account service; this service only verifies them.
type Claims struct {
	UserID      string `json:"uid"`
	WorkplaceID string `json:"wid"`
	EmployeeID  string `json:"eid,omitempty"`
	Role        string `json:"role"`
	jwt.RegisteredClaims
}

func (c Claims) Actor() requestctx.Actor {
	return requestctx.Actor{
		UserID:      c.UserID,
		WorkplaceID: c.WorkplaceID,
		EmployeeID:  c.EmployeeID,
		Role:        c.Role,
	}
}

// GenerateToken signs claims with HS256. Used by tests and local tooling.
func GenerateToken(secret string, claims Claims, ttl time.Duration) (string, error) {
	claims.RegisteredClaims = jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
		IssuedAt:  jwt.NewNumericDate(time.Now()),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

func ParseToken(secret, tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(secret), nil
	})
	if err != nil {
		return nil, err
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}
	switch claims.Role {
	case requestctx.RoleOwner, requestctx.RoleEmployee:
	default:
		return nil, ErrInvalidToken
	}
	return claims, nil
}
