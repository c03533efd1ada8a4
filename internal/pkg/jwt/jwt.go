package jwt

import (
	"errors"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
)

const issuerName = "authhub"

var ErrInvalidToken = errors.New("invalid token")

type Service struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

type Claims struct {
	PrincipalID int64  `json:"principal_id"`
	Role        string `json:"role"`
	TokenType   string `json:"token_type"`
	jwtlib.RegisteredClaims
}

func New(secret string, ttl time.Duration) *Service {
	return &Service{
		secret: []byte(secret),
		ttl:    ttl,
		now:    time.Now,
	}
}

// WithClock replaces the time source. Tests use this to cross expiry
// boundaries without sleeping.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// GenerateAccessToken signs a short-lived HS256 token carrying the principal
// id and role. Returns the token and its expiry.
func (s *Service) GenerateAccessToken(principalID int64, role string) (string, time.Time, error) {
	now := s.now().UTC()
	exp := now.Add(s.ttl)
	claims := Claims{
		PrincipalID: principalID,
		Role:        role,
		TokenType:   "access",
		RegisteredClaims: jwtlib.RegisteredClaims{
			Issuer:    issuerName,
			ExpiresAt: jwtlib.NewNumericDate(exp),
			IssuedAt:  jwtlib.NewNumericDate(now),
		},
	}

	signed, err := jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, exp, nil
}

// ValidateAccessToken checks signature, issuer, expiry and token type.
// Every failure collapses into ErrInvalidToken; a token is never partially
// trusted.
func (s *Service) ValidateAccessToken(tokenStr string) (*Claims, error) {
	parsed, err := jwtlib.ParseWithClaims(tokenStr, &Claims{}, func(t *jwtlib.Token) (any, error) {
		if _, ok := t.Method.(*jwtlib.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return s.secret, nil
	},
		jwtlib.WithIssuer(issuerName),
		jwtlib.WithTimeFunc(func() time.Time { return s.now().UTC() }),
	)
	if err != nil || !parsed.Valid {
		return nil, ErrInvalidToken
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || claims.TokenType != "access" {
		return nil, ErrInvalidToken
	}

	return claims, nil
}
