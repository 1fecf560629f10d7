// Package session keeps the logged-in principal in a signed cookie.
package session

import (
	"context"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/pkg/errors"

	"classquiz/internal/users"
)

const (
	CookieName = "quiz_session"
	DefaultTTL = 24 * time.Hour
)

var ErrNoSession = errors.New("no session")

// Principal is whoever the current request acts for. Guests are never
// stored in users.json; they only live in the cookie.
type Principal struct {
	Username string
	Role     users.Role
}

func (p Principal) IsTeacher() bool {
	return p.Role == users.RoleTeacher
}

type claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

type Manager struct {
	secret []byte
	ttl    time.Duration
	secure bool
	now    func() time.Time
}

func NewManager(secret string, ttl time.Duration) *Manager {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Manager{
		secret: []byte(secret),
		ttl:    ttl,
		now:    time.Now,
	}
}

// SetSecure marks issued cookies Secure, for deployments behind TLS.
func (m *Manager) SetSecure(secure bool) {
	m.secure = secure
}

// Issue signs a token for p and sets it as the session cookie.
func (m *Manager) Issue(w http.ResponseWriter, p Principal) error {
	token, err := m.sign(p)
	if err != nil {
		return err
	}

	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(m.ttl.Seconds()),
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

// Read returns the principal from the request cookie. A missing, tampered
// or expired cookie is ErrNoSession.
func (m *Manager) Read(r *http.Request) (Principal, error) {
	cookie, err := r.Cookie(CookieName)
	if err != nil || cookie.Value == "" {
		return Principal{}, ErrNoSession
	}
	return m.parse(cookie.Value)
}

func (m *Manager) Clear(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	})
}

func (m *Manager) sign(p Principal) (string, error) {
	now := m.now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		Role: string(p.Role),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   p.Username,
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
		},
	})

	signed, err := token.SignedString(m.secret)
	if err != nil {
		return "", errors.Wrap(err, "sign session token")
	}
	return signed, nil
}

func (m *Manager) parse(raw string) (Principal, error) {
	var c claims
	token, err := jwt.ParseWithClaims(raw, &c, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return m.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(m.now))
	if err != nil || !token.Valid {
		return Principal{}, ErrNoSession
	}

	role := users.Role(c.Role)
	if c.Subject == "" || !role.Valid() {
		return Principal{}, ErrNoSession
	}
	return Principal{Username: c.Subject, Role: role}, nil
}

type contextKey struct{}

func WithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, contextKey{}, p)
}

func FromContext(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(contextKey{}).(Principal)
	return p, ok
}
