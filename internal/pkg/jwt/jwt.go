package jwt

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Kind tags the purpose of a token. Tokens of one kind never verify as another.
type Kind string

const (
	KindAccess            Kind = "access"
	KindRefresh           Kind = "refresh"
	KindPasswordReset     Kind = "password_reset"
	KindEmailVerification Kind = "email_verification"
)

// Claim names added by the codec
const (
	ClaimKind    = "type"
	ClaimExpiry  = "exp"
	ClaimSubject = "sub"
	ClaimEmail   = "email"
	ClaimRoles   = "roles"
)

var ErrMissingSecret = errors.New("jwt signing secret is not configured")

// Valid reports whether k is one of the four token kinds
func (k Kind) Valid() bool {
	switch k {
	case KindAccess, KindRefresh, KindPasswordReset, KindEmailVerification:
		return true
	}
	return false
}

// Claims is a decoded, authenticated claim map
type Claims map[string]any

// Kind returns the embedded token kind
func (c Claims) Kind() Kind {
	return Kind(c.String(ClaimKind))
}

// Subject returns the sub claim, or "" when absent
func (c Claims) Subject() string {
	return c.String(ClaimSubject)
}

// String returns a string claim, or "" when absent or not a string
func (c Claims) String(key string) string {
	s, _ := c[key].(string)
	return s
}

// Roles returns the role-name list carried by access and refresh tokens
func (c Claims) Roles() []string {
	switch v := c[ClaimRoles].(type) {
	case []string:
		return v
	case []any:
		out := make([]string, 0, len(v))
		for _, r := range v {
			if s, ok := r.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}

// Codec signs and verifies tokens with one process-wide HS256 secret
type Codec struct {
	secret []byte
	now    func() time.Time
}

// NewCodec creates a codec. An empty secret is refused.
func NewCodec(secret string) (*Codec, error) {
	if secret == "" {
		return nil, ErrMissingSecret
	}
	return &Codec{
		secret: []byte(secret),
		now:    time.Now,
	}, nil
}

// Encode signs claims after setting the kind tag and an absolute expiry of now+ttl.
// The codec's kind and exp always replace caller-supplied values.
func (c *Codec) Encode(claims map[string]any, kind Kind, ttl time.Duration) (string, error) {
	if !kind.Valid() {
		return "", fmt.Errorf("unknown token kind %q", kind)
	}

	mc := make(jwt.MapClaims, len(claims)+2)
	for k, v := range claims {
		mc[k] = v
	}
	mc[ClaimKind] = string(kind)
	mc[ClaimExpiry] = c.now().Add(ttl).Unix()

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, mc)
	signed, err := token.SignedString(c.secret)
	if err != nil {
		return "", fmt.Errorf("signing %s token: %w", kind, err)
	}
	return signed, nil
}

// Decode verifies signature, expiry and kind. Any failure yields (nil, false);
// the reason is deliberately not reported.
func (c *Codec) Decode(tokenString string, expected Kind) (Claims, bool) {
	if tokenString == "" || !expected.Valid() {
		return nil, false
	}

	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrTokenSignatureInvalid
		}
		return c.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(c.now),
	)
	if err != nil || !token.Valid {
		return nil, false
	}

	mc, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, false
	}
	exp, err := mc.GetExpirationTime()
	if err != nil || exp == nil {
		return nil, false
	}

	claims := Claims(mc)
	if claims.Kind() != expected {
		return nil, false
	}
	return claims, true
}
