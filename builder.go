package authcore

import (
	"errors"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/quizcraft/authcore/internal/audit"
	"github.com/quizcraft/authcore/internal/logging"
	"github.com/quizcraft/authcore/internal/mfa"
	"github.com/quizcraft/authcore/internal/rate"
	"github.com/quizcraft/authcore/password"
	"github.com/quizcraft/authcore/token"
)

// Builder assembles an Engine. All dependencies are injected; the engine
// opens no connections of its own.
type Builder struct {
	config Config
	redis  redis.UniversalClient

	users        UserStore
	refreshStore token.RefreshStore
	notifier     Notifier
	auditSink    AuditSink
	verifier     CodeVerifier
	logger       logging.Logger

	built bool
}

// New returns a Builder preloaded with the default configuration.
func New() *Builder {
	return &Builder{
		config: defaultConfig(),
	}
}

func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cloneConfig(cfg)
	return b
}

func (b *Builder) WithRedis(client redis.UniversalClient) *Builder {
	b.redis = client
	return b
}

func (b *Builder) WithUserStore(store UserStore) *Builder {
	b.users = store
	return b
}

func (b *Builder) WithRefreshStore(store token.RefreshStore) *Builder {
	b.refreshStore = store
	return b
}

func (b *Builder) WithNotifier(n Notifier) *Builder {
	b.notifier = n
	return b
}

func (b *Builder) WithAuditSink(sink AuditSink) *Builder {
	b.auditSink = sink
	return b
}

// WithCodeVerifier overrides the TOTP default second-factor check.
func (b *Builder) WithCodeVerifier(v CodeVerifier) *Builder {
	b.verifier = v
	return b
}

// WithLogger sets the structured logger. The default wraps slog.Default.
func (b *Builder) WithLogger(l logging.Logger) *Builder {
	b.logger = l
	return b
}

// Build validates the configuration and wires the engine together.
func (b *Builder) Build() (*Engine, error) {
	if b.built {
		return nil, errors.New("builder already used")
	}

	cfg := cloneConfig(b.config)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if b.redis == nil {
		return nil, errors.New("redis client required")
	}
	if b.users == nil {
		return nil, errors.New("user store required")
	}
	if b.refreshStore == nil {
		return nil, errors.New("refresh store required")
	}

	signer, err := token.NewSigner(token.SignerConfig{
		Method:     token.SigningMethod(cfg.Token.SigningMethod),
		PrivateKey: cloneBytes(cfg.Token.PrivateKey),
		PublicKey:  cloneBytes(cfg.Token.PublicKey),
		Issuer:     cfg.Token.Issuer,
		Audience:   cfg.Token.Audience,
	})
	if err != nil {
		return nil, err
	}

	issuer := token.NewIssuer(signer, b.refreshStore, b.redis, token.Config{
		AccessTTL:       ParseTTL(cfg.Token.AccessTTL),
		RefreshTTL:      ParseTTL(cfg.Token.RefreshTTL),
		VerificationTTL: ParseTTL(cfg.Token.VerificationTTL),
		ResetTTL:        ParseTTL(cfg.Token.ResetTTL),
		BlacklistTTL:    ParseTTL(cfg.Token.BlacklistTTL),
		Prefix:          cfg.Prefix,
	})

	hasher, err := password.NewHasher(cfg.Password.Cost)
	if err != nil {
		return nil, err
	}

	logger := b.logger
	if logger == nil {
		logger = logging.NewSlogLogger(slog.Default())
	}

	verifier := b.verifier
	if verifier == nil {
		verifier = mfa.NewTOTP(cfg.MFA.Issuer)
	}

	var dispatcher *audit.Dispatcher
	if cfg.Audit.Enabled {
		sink := b.auditSink
		if sink == nil {
			sink = audit.NoOpSink{}
		}
		dispatcher = audit.NewDispatcher(sink, cfg.Audit.BufferSize, cfg.Audit.DropIfFull)
	}

	engine := &Engine{
		config:     cfg,
		log:        logger,
		users:      b.users,
		notifier:   b.notifier,
		issuer:     issuer,
		hasher:     hasher,
		policy:     password.NewPolicy(),
		limiter:    rate.New(b.redis, cfg.Prefix),
		challenges: mfa.NewChallengeStore(b.redis, cfg.Prefix, ParseTTL(cfg.MFA.ChallengeTTL)),
		verifier:   verifier,
		audit:      dispatcher,
		metrics:    NewMetrics(),
		sweeper:    token.NewSweeper(b.refreshStore, ParseTTL(cfg.SweepInterval), logger),
		now:        time.Now,
	}

	b.built = true

	return engine, nil
}
