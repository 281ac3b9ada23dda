package authcore

import (
	"errors"
	"strconv"
	"strings"
	"time"
)

// Config carries all engine tuning. TTL fields are strings like "15m" or
// "7d"; see ParseTTL for the accepted units and the fallback behavior.
type Config struct {
	Token     TokenConfig
	Password  PasswordConfig
	RateLimit RateLimitConfig
	MFA       MFAConfig
	Audit     AuditConfig
	Account   AccountConfig

	// Prefix namespaces every Redis key the engine writes.
	Prefix string
	// SweepInterval is how often expired refresh rows are deleted.
	SweepInterval string
}

// TokenConfig holds signing material and token lifetimes.
type TokenConfig struct {
	AccessTTL       string
	RefreshTTL      string
	VerificationTTL string
	ResetTTL        string
	BlacklistTTL    string
	SigningMethod   string // "hs256" (default) or "ed25519"
	PrivateKey      []byte
	PublicKey       []byte
	Issuer          string
	Audience        string
}

// PasswordConfig tunes the bcrypt work factor.
type PasswordConfig struct {
	Cost int
}

// RateLimitConfig holds the fixed-window budgets. Login is keyed by
// (email, ip); the email flows are keyed per address.
type RateLimitConfig struct {
	MaxLoginAttempts int
	LoginWindow      string
	MaxEmailRequests int
	EmailWindow      string
}

// MFAConfig tunes the second-factor challenge flow.
type MFAConfig struct {
	ChallengeTTL string
	Issuer       string
}

// AuditConfig controls the async audit dispatcher.
type AuditConfig struct {
	Enabled    bool
	BufferSize int
	DropIfFull bool
}

// AccountConfig holds registration defaults.
type AccountConfig struct {
	DefaultRole string
}

// DefaultConfig returns the configuration New preloads. Callers that need
// to override a handful of fields start here, mutate, and pass the result
// to Builder.WithConfig.
func DefaultConfig() Config {
	return defaultConfig()
}

func defaultConfig() Config {
	return Config{
		Token: TokenConfig{
			AccessTTL:       "15m",
			RefreshTTL:      "7d",
			VerificationTTL: "24h",
			ResetTTL:        "1h",
			BlacklistTTL:    "24h",
			SigningMethod:   "hs256",
			Issuer:          "quizcraft",
			Audience:        "quizcraft-api",
		},
		Password: PasswordConfig{
			Cost: 12,
		},
		RateLimit: RateLimitConfig{
			MaxLoginAttempts: 5,
			LoginWindow:      "5m",
			MaxEmailRequests: 3,
			EmailWindow:      "5m",
		},
		MFA: MFAConfig{
			ChallengeTTL: "5m",
			Issuer:       "quizcraft",
		},
		Audit: AuditConfig{
			Enabled:    true,
			BufferSize: 1024,
			DropIfFull: true,
		},
		Account: AccountConfig{
			DefaultRole: DefaultRole,
		},
		Prefix:        "qc:auth",
		SweepInterval: "1h",
	}
}

func cloneConfig(cfg Config) Config {
	out := cfg
	out.Token.PrivateKey = cloneBytes(cfg.Token.PrivateKey)
	out.Token.PublicKey = cloneBytes(cfg.Token.PublicKey)
	return out
}

func cloneBytes(b []byte) []byte {
	if len(b) == 0 {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}

// Validate rejects configurations the engine cannot run with.
func (c *Config) Validate() error {
	switch c.Token.SigningMethod {
	case "hs256":
		if len(c.Token.PrivateKey) == 0 {
			return errors.New("hs256 requires PrivateKey")
		}
	case "ed25519":
		if len(c.Token.PrivateKey) == 0 {
			return errors.New("ed25519 requires PrivateKey")
		}
		if len(c.Token.PublicKey) == 0 {
			return errors.New("ed25519 requires PublicKey")
		}
	default:
		return errors.New("unsupported signing method")
	}
	if c.Token.Issuer == "" {
		return errors.New("token Issuer is required")
	}

	if c.RateLimit.MaxLoginAttempts <= 0 {
		return errors.New("MaxLoginAttempts must be > 0")
	}
	if c.RateLimit.MaxEmailRequests <= 0 {
		return errors.New("MaxEmailRequests must be > 0")
	}

	if c.Audit.Enabled && c.Audit.BufferSize <= 0 {
		return errors.New("Audit BufferSize must be > 0 when audit is enabled")
	}

	if c.Account.DefaultRole == "" {
		return errors.New("Account DefaultRole is required")
	}
	if !KnownRole(c.Account.DefaultRole) {
		return errors.New("Account DefaultRole is not a known role")
	}

	if c.Prefix == "" {
		return errors.New("Prefix is required")
	}

	return nil
}

// fallbackTTL is used when a TTL string does not parse; startup stays
// resilient instead of failing on a typo.
const fallbackTTL = 3600 * time.Second

var ttlUnits = map[byte]int64{
	's': 1,
	'm': 60,
	'h': 3600,
	'd': 86400,
	'w': 604800,
}

// ParseTTL converts strings like "30s", "15m", "24h", "7d", "2w" to a
// duration. A bare number is taken as seconds. Unparseable input yields
// one hour.
func ParseTTL(s string) time.Duration {
	s = strings.TrimSpace(s)
	if s == "" {
		return fallbackTTL
	}

	unit := int64(1)
	if mult, ok := ttlUnits[s[len(s)-1]]; ok {
		unit = mult
		s = s[:len(s)-1]
	}

	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil || n <= 0 {
		return fallbackTTL
	}
	return time.Duration(n*unit) * time.Second
}
