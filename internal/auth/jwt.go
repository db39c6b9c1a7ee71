package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	kindAccess  = "access"
	kindRefresh = "refresh"
)

// TokenPair holds access and refresh tokens.
type TokenPair struct {
	AccessToken  string    `json:"accessToken"`
	RefreshToken string    `json:"refreshToken"`
	AccessExp    time.Time `json:"accessExpiresAt"`
	RefreshExp   time.Time `json:"refreshExpiresAt"`
}

// Claims represents JWT payload. The registered subject is the student email.
type Claims struct {
	Email string `json:"email"`
	Kind  string `json:"kind"`
	jwt.RegisteredClaims
}

// Tokens issues and verifies HS256 session tokens.
type Tokens struct {
	Issuer     string
	Key        []byte
	AccessTTL  time.Duration
	RefreshTTL time.Duration
	Now        func() time.Time
}

func NewTokens(issuer, key string, accessTTL, refreshTTL time.Duration) *Tokens {
	return &Tokens{Issuer: issuer, Key: []byte(key), AccessTTL: accessTTL, RefreshTTL: refreshTTL, Now: time.Now}
}

// Issue issues signed access and refresh tokens for email.
func (t *Tokens) Issue(email string) (TokenPair, error) {
	now := t.Now()
	accessExp := now.Add(t.AccessTTL)
	refreshExp := now.Add(t.RefreshTTL)

	accessToken, err := t.sign(email, kindAccess, now, accessExp)
	if err != nil {
		return TokenPair{}, err
	}
	refreshToken, err := t.sign(email, kindRefresh, now, refreshExp)
	if err != nil {
		return TokenPair{}, err
	}
	return TokenPair{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		AccessExp:    accessExp,
		RefreshExp:   refreshExp,
	}, nil
}

func (t *Tokens) sign(email, kind string, now, exp time.Time) (string, error) {
	claims := Claims{
		Email: email,
		Kind:  kind,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    t.Issuer,
			Subject:   email,
			ExpiresAt: jwt.NewNumericDate(exp),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.Key)
}

// ParseAccess validates an access token.
func (t *Tokens) ParseAccess(tokenStr string) (Claims, error) {
	return t.parse(tokenStr, kindAccess)
}

// ParseRefresh validates a refresh token.
func (t *Tokens) ParseRefresh(tokenStr string) (Claims, error) {
	return t.parse(tokenStr, kindRefresh)
}

func (t *Tokens) parse(tokenStr, kind string) (Claims, error) {
	parsed, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, errors.New("unexpected signing method")
		}
		return t.Key, nil
	}, jwt.WithTimeFunc(t.Now))
	if err != nil {
		return Claims{}, err
	}
	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return Claims{}, errors.New("invalid token")
	}
	if t.Issuer != "" && claims.Issuer != t.Issuer {
		return Claims{}, errors.New("issuer mismatch")
	}
	if claims.Kind != kind {
		return Claims{}, errors.New("wrong token kind")
	}
	if claims.Email == "" {
		return Claims{}, errors.New("token has no email")
	}
	return *claims, nil
}
