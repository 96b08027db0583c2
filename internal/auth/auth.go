// Package auth resolves and validates API keys and builds the auth headers.
package auth

import (
	"fmt"
	"net/http"
	"os"
	"regexp"
	"strings"

	"github.com/aetherfy/aetherfy-vectors-go/internal/domain"
)

// Environment variables consulted, in order, when no key is given explicitly.
const (
	EnvAPIKey        = "AETHERFY_API_KEY"
	EnvVectorsAPIKey = "AETHERFY_VECTORS_API_KEY"
)

const (
	livePrefix = "afy_live_"
	testPrefix = "afy_test_"
)

var keyPattern = regexp.MustCompile(`^afy_(live|test)_[a-zA-Z0-9]{16,}$`)

// Key is a validated API key.
type Key struct {
	value string
}

// Resolve picks the explicit key, else AETHERFY_API_KEY, else
// AETHERFY_VECTORS_API_KEY, and validates its format.
func Resolve(explicit string) (Key, error) {
	return resolve(explicit, os.Getenv)
}

func resolve(explicit string, getenv func(string) string) (Key, error) {
	v := explicit
	if v == "" {
		v = getenv(EnvAPIKey)
	}
	if v == "" {
		v = getenv(EnvVectorsAPIKey)
	}
	if v == "" {
		return Key{}, fmt.Errorf("%w: no API key provided, set %s or pass one explicitly",
			domain.ErrAuthentication, EnvAPIKey)
	}
	if err := Validate(v); err != nil {
		return Key{}, err
	}
	return Key{value: v}, nil
}

// Validate checks the key format: afy_live_ or afy_test_ followed by
// at least 16 alphanumeric characters.
func Validate(key string) error {
	if strings.TrimSpace(key) == "" {
		return fmt.Errorf("%w: API key cannot be empty", domain.ErrAuthentication)
	}
	if !keyPattern.MatchString(key) {
		return fmt.Errorf("%w: invalid API key format, expected %q or %q followed by at least 16 alphanumeric characters",
			domain.ErrAuthentication, livePrefix, testPrefix)
	}
	return nil
}

// IsTest reports whether the key is a test key.
func (k Key) IsTest() bool { return strings.HasPrefix(k.value, testPrefix) }

// IsLive reports whether the key is a live key.
func (k Key) IsLive() bool { return strings.HasPrefix(k.value, livePrefix) }

// String returns a masked form safe for logs.
func (k Key) String() string {
	if k.value == "" {
		return ""
	}
	if k.IsTest() {
		return testPrefix + "***"
	}
	return livePrefix + "***"
}

// Apply sets the Authorization (Bearer) and X-API-Key headers.
func (k Key) Apply(h http.Header) {
	h.Set("Authorization", "Bearer "+k.value)
	h.Set("X-API-Key", k.value)
}

// BearerToken extracts the token of an "Authorization: Bearer <token>" header.
func BearerToken(h http.Header) (string, bool) {
	const bearerPrefix = "Bearer "
	v := h.Get("Authorization")
	if !strings.HasPrefix(v, bearerPrefix) {
		return "", false
	}
	token := v[len(bearerPrefix):]
	return token, token != ""
}
