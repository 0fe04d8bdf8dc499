// Package auth implements the credential boundary of the relay: signed
// token mint/verify and the password hashing behind the login endpoint.
package auth

import (
	"fmt"
	"net/http"
	"time"

	"github.com/batsdk/wowclass-enlace/contract"
	"github.com/golang-jwt/jwt/v5"
)

// CookieName is the cookie carrying the credential on the websocket
// handshake and the HTTP endpoints.
const CookieName = "token"

// Claims is the data stored inside the JWT. Subject carries the user
// id; role distinguishes teachers from students.
type Claims struct {
	Role string `json:"role"`
	Name string `json:"name,omitempty"`
	jwt.RegisteredClaims
}

// Signer mints and verifies HS256 tokens with a shared secret.
type Signer struct {
	secret []byte
	ttl    time.Duration
}

func NewSigner(secret []byte, ttl time.Duration) *Signer {
	return &Signer{secret: secret, ttl: ttl}
}

// Generate creates a signed token for a verified identity.
func (s *Signer) Generate(id contract.Identity) (string, error) {
	now := time.Now()
	claims := &Claims{
		Role: id.Role,
		Name: id.Name,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   id.SubjectID,
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    "wowclass",
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}

// Verify parses and validates the signature and expiration of a token,
// returning the identity it asserts. It implements
// contract.TokenVerifier.
func (s *Signer) Verify(tokenString string) (contract.Identity, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil {
		return contract.Identity{}, err
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return contract.Identity{}, jwt.ErrSignatureInvalid
	}
	return contract.Identity{
		SubjectID: claims.Subject,
		Role:      claims.Role,
		Name:      claims.Name,
	}, nil
}

// TokenFromRequest extracts the credential cookie from an HTTP request.
// The empty string means no token was presented.
func TokenFromRequest(r *http.Request) string {
	c, err := r.Cookie(CookieName)
	if err != nil {
		return ""
	}
	return c.Value
}
