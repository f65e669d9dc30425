package verification

import (
	"context"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v4"

	"eventreg/pkg/logger"
)

var ErrInvalidToken = errors.New("invalid or expired token")

const issuer = "eventreg"

// TokenService issues and validates stateless email verification tokens
type TokenService interface {
	Issue(email string) (string, error)
	Validate(ctx context.Context, token string) (string, error)
}

type tokenService struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
	logger *logger.Logger
}

// Option configures a token service
type Option func(*tokenService)

// WithClock overrides the issue-time clock
func WithClock(now func() time.Time) Option {
	return func(s *tokenService) {
		s.now = now
	}
}

// WithLogger sets the logger used for rejection diagnostics
func WithLogger(l *logger.Logger) Option {
	return func(s *tokenService) {
		s.logger = l
	}
}

func NewTokenService(secret string, ttl time.Duration, opts ...Option) TokenService {
	s := &tokenService{
		secret: []byte(secret),
		ttl:    ttl,
		now:    time.Now,
		logger: logger.GetDefault(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *tokenService) Issue(email string) (string, error) {
	now := s.now()

	claims := Claims{
		Email: email,
		Type:  TokenTypeEmailVerification,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
			Issuer:    issuer,
			Subject:   email,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}

func (s *tokenService) Validate(ctx context.Context, tokenString string) (string, error) {
	claims, cause := s.parse(tokenString)
	if cause != "" {
		s.logger.LogTokenRejected(ctx, cause)
		return "", ErrInvalidToken
	}
	return claims.Email, nil
}

// parse returns the claims, or the reason the token was refused
func (s *tokenService) parse(tokenString string) (*Claims, string) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return s.secret, nil
	})

	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenMalformed):
			return nil, causeMalformed
		case errors.Is(err, jwt.ErrTokenExpired):
			return nil, causeExpired
		case errors.Is(err, jwt.ErrTokenSignatureInvalid), errors.Is(err, jwt.ErrSignatureInvalid):
			return nil, causeSignature
		default:
			return nil, causeInvalid
		}
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, causeInvalid
	}
	if claims.Type != TokenTypeEmailVerification || claims.Email == "" {
		return nil, causeWrongType
	}

	return claims, ""
}
