// Package auth verifies the fixed user registry and issues the JWTs the
// API runs on. Users are configured at startup; there is no self-service
// registration.
package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"ayoberhemat/internal/core"
	"ayoberhemat/internal/store"
)

var (
	ErrInvalidCredentials = errors.New("nama pengguna atau PIN salah")
	ErrInvalidToken       = errors.New("token tidak valid")
)

// dummyHash is a valid bcrypt hash compared against when the username is
// unknown, keeping login timing independent of user existence.
var dummyHash = []byte("$2a$10$N9qo8uLOickgx2ZMRZoMyeIjZAgcfl7p92ldGxad68LJZdL17lhWy")

// Credential is one configured user. The PIN is hashed at startup and
// never kept in plain text.
type Credential struct {
	Username string
	PIN      string
	Theme    core.Theme
}

type user struct {
	hash  []byte
	theme core.Theme
}

// Authenticator checks credentials against the registry and mints tokens.
type Authenticator struct {
	users  map[string]user
	store  store.Store
	secret []byte
	ttl    time.Duration
}

func New(st store.Store, secret string, ttl time.Duration, creds []Credential) (*Authenticator, error) {
	if strings.TrimSpace(secret) == "" {
		return nil, errors.New("empty JWT secret")
	}
	users := make(map[string]user, len(creds))
	for _, c := range creds {
		name := strings.TrimSpace(c.Username)
		if name == "" {
			return nil, errors.New("credential with empty username")
		}
		if err := c.Theme.Validate(); err != nil {
			return nil, fmt.Errorf("user %s: %w", name, err)
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(c.PIN), bcrypt.DefaultCost)
		if err != nil {
			return nil, fmt.Errorf("hash PIN for %s: %w", name, err)
		}
		users[name] = user{hash: hash, theme: c.Theme}
	}
	return &Authenticator{
		users:  users,
		store:  st,
		secret: []byte(secret),
		ttl:    ttl,
	}, nil
}

// Login verifies a username and PIN, loads or creates the user's profile,
// and returns a signed token. The same error covers unknown users and
// wrong PINs.
func (a *Authenticator) Login(ctx context.Context, username, pin string) (string, core.Profile, error) {
	username = strings.TrimSpace(username)
	u, ok := a.users[username]
	if !ok {
		// Burn a comparison so unknown users cost the same as wrong PINs.
		bcrypt.CompareHashAndPassword(dummyHash, []byte(pin))
		return "", core.Profile{}, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword(u.hash, []byte(pin)); err != nil {
		return "", core.Profile{}, ErrInvalidCredentials
	}

	profile, err := a.store.Profile(ctx, username)
	if errors.Is(err, store.ErrProfileNotFound) {
		p := core.Profile{Username: username, Theme: u.theme}
		if err := a.store.SaveProfile(ctx, p); err != nil {
			return "", core.Profile{}, fmt.Errorf("create profile: %w", err)
		}
		slog.InfoContext(ctx, "created profile on first login", "user", username)
		profile = &p
	} else if err != nil {
		return "", core.Profile{}, fmt.Errorf("load profile: %w", err)
	}

	token, err := a.sign(username)
	if err != nil {
		return "", core.Profile{}, fmt.Errorf("sign token: %w", err)
	}
	return token, *profile, nil
}

func (a *Authenticator) sign(username string) (string, error) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   username,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(a.ttl)),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.secret)
}

// Verify parses a token and returns the username it was issued to.
func (a *Authenticator) Verify(tokenString string) (string, error) {
	token, err := jwt.ParseWithClaims(tokenString, &jwt.RegisteredClaims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrInvalidKeyType
		}
		return a.secret, nil
	})
	if err != nil || !token.Valid {
		return "", ErrInvalidToken
	}
	claims, ok := token.Claims.(*jwt.RegisteredClaims)
	if !ok || claims.Subject == "" {
		return "", ErrInvalidToken
	}
	if _, known := a.users[claims.Subject]; !known {
		return "", ErrInvalidToken
	}
	return claims.Subject, nil
}

// Theme returns the configured theme for a registered user.
func (a *Authenticator) Theme(username string) (core.Theme, bool) {
	u, ok := a.users[username]
	return u.theme, ok
}
