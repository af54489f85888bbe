package api

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const SessionCookie = "session"

var errNoSession = errors.New("missing session")

// SessionClaims is the merchant session issued by the dashboard login.
type SessionClaims struct {
	MerchantID string `json:"merchantId"`
	jwt.RegisteredClaims
}

type SessionManager struct {
	secret []byte
	ttl    time.Duration
}

func NewSessionManager(secret string, ttl time.Duration) *SessionManager {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &SessionManager{secret: []byte(secret), ttl: ttl}
}

// Mint signs a session for merchantID. Login lives outside this service; seeding and
// tests use it to obtain a token.
func (m *SessionManager) Mint(merchantID string) (string, error) {
	now := time.Now()
	claims := SessionClaims{
		MerchantID: merchantID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   merchantID,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
}

func (m *SessionManager) ParseFromRequest(r *http.Request) (*SessionClaims, error) {
	if m == nil {
		return nil, errNoSession
	}
	if c, err := r.Cookie(SessionCookie); err == nil && c.Value != "" {
		return m.parse(c.Value)
	}
	if hdr := r.Header.Get("Authorization"); strings.HasPrefix(strings.ToLower(hdr), "bearer ") {
		return m.parse(strings.TrimSpace(hdr[7:]))
	}
	return nil, errNoSession
}

func (m *SessionManager) parse(tok string) (*SessionClaims, error) {
	if len(m.secret) == 0 {
		return nil, errors.New("session secret not configured")
	}
	claims := &SessionClaims{}
	tkn, err := jwt.ParseWithClaims(tok, claims, func(t *jwt.Token) (any, error) {
		return m.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !tkn.Valid {
		return nil, errors.New("invalid session")
	}
	return claims, nil
}
