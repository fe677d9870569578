package config

import (
	"fmt"
	"strings"

	"golang.org/x/net/publicsuffix"
)

// HTTPConfig contains HTTP server configuration.
type HTTPConfig struct {
	// Addr is the address to bind the HTTP server to.
	Addr string `env:"HTTP_ADDR" envDefault:":8080"`

	// BaseURL is the base URL of the application (e.g., "https://admin.viveconecta.com").
	BaseURL string `env:"APP_BASE_URL" envDefault:"http://localhost:8080"`

	// CookieDomain is the domain for the device and CSRF cookies.
	// Leave empty to use the request domain.
	CookieDomain string `env:"APP_COOKIE_DOMAIN" envDefault:""`

	// CookieSecure marks cookies Secure. Defaults to true when BaseURL is https.
	CookieSecure bool `env:"APP_COOKIE_SECURE" envDefault:"false"`

	// CompressionEnabled enables gzip compression for text-based assets.
	CompressionEnabled bool `env:"HTTP_COMPRESSION_ENABLED" envDefault:"false"`

	// CompressionLevel is the gzip compression level (1-9).
	// Default is 6 (standard gzip default).
	CompressionLevel int `env:"HTTP_COMPRESSION_LEVEL" envDefault:"6"`
}

// Sanitize applies guardrails to HTTP configuration values.
func (h *HTTPConfig) Sanitize() {
	// Clamp compression level to valid gzip range (1-9)
	if h.CompressionLevel < 1 {
		h.CompressionLevel = 1
	}
	if h.CompressionLevel > 9 {
		h.CompressionLevel = 9
	}
	h.CookieDomain = strings.ToLower(strings.TrimSpace(h.CookieDomain))
	h.BaseURL = strings.TrimRight(strings.TrimSpace(h.BaseURL), "/")
	if strings.HasPrefix(h.BaseURL, "https://") {
		h.CookieSecure = true
	}
}

// Validate rejects a cookie domain that browsers would refuse or share across sites.
func (h *HTTPConfig) Validate() error {
	if h.CookieDomain == "" {
		return nil
	}
	domain := strings.TrimPrefix(h.CookieDomain, ".")
	if domain == "localhost" {
		return nil
	}
	suffix, icann := publicsuffix.PublicSuffix(domain)
	if domain == suffix && (icann || strings.Contains(domain, ".")) {
		return fmt.Errorf("APP_COOKIE_DOMAIN %q is a public suffix", h.CookieDomain)
	}
	if _, err := publicsuffix.EffectiveTLDPlusOne(domain); err != nil {
		return fmt.Errorf("APP_COOKIE_DOMAIN %q: %w", h.CookieDomain, err)
	}
	return nil
}
