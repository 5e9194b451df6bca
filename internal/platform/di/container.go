// internal/platform/di/container.go
package di

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	httpin "optivista/internal/adapters/in/http"
	httpmw "optivista/internal/adapters/in/http/middleware"
	"optivista/internal/adapters/out/devauth"
	"optivista/internal/adapters/out/firebaseauth"
	"optivista/internal/adapters/out/gcs"
	"optivista/internal/adapters/out/kv"
	"optivista/internal/adapters/out/llm"
	"optivista/internal/adapters/out/mail"
	"optivista/internal/adapters/out/metrics"
	"optivista/internal/adapters/out/qr"
	"optivista/internal/application/auth"
	"optivista/internal/application/errorbus"
	"optivista/internal/application/live"
	usecase "optivista/internal/application/usecase"
	"optivista/internal/application/write"
	cartdom "optivista/internal/domain/cart"
	contactdom "optivista/internal/domain/contact"
	orderdom "optivista/internal/domain/order"
	userdom "optivista/internal/domain/user"
	appcfg "optivista/internal/infra/config"
	"optivista/internal/infra/secrets"
	"optivista/internal/platform/di/shared"
)

const (
	adminCacheTTL       = time.Minute
	cartCleanupInterval = time.Hour
	secretLookupTimeout = 10 * time.Second
)

// Container is the bundle of wired dependencies main uses.
type Container struct {
	Config *appcfg.Config
	Logger *zap.Logger
	Infra  *shared.Infra

	Registry *prometheus.Registry
	Metrics  *metrics.Metrics
	Bus      *errorbus.Emitter
	Writer   *write.Writer
	Policy   *live.AccessPolicy

	Verifier auth.Verifier
	AuthMW   *httpmw.AuthMiddleware
	AdminMW  *httpmw.AdminMiddleware
	Mailer   *mail.ContactMailer

	AuthUC     *usecase.AuthUsecase
	CatalogUC  *usecase.CatalogUsecase
	CartUC     *usecase.CartUsecase
	CheckoutUC *usecase.CheckoutUsecase
	ContactUC  *usecase.ContactUsecase
	DownloadUC *usecase.DownloadUsecase
	OrderUC    *usecase.OrderUsecase
	ProfileUC  *usecase.ProfileUsecase
	SettingsUC *usecase.SettingsUsecase

	cleanup []func()
}

// NewContainer builds infra, adapters and usecases from cfg.
func NewContainer(ctx context.Context, cfg *appcfg.Config, logger *zap.Logger) (*Container, error) {
	if cfg == nil {
		return nil, errors.New("di: config is nil")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	log := logger.Named("di")

	inf, err := shared.NewInfra(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	c := &Container{Config: cfg, Logger: logger, Infra: inf}

	// ------------------------------------------------------------
	// 1. Cross-cutting: metrics, error bus, writer, access policy
	// ------------------------------------------------------------
	c.Registry = prometheus.NewRegistry()
	c.Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	c.Metrics = metrics.New(c.Registry)

	c.Bus = errorbus.NewEmitter(logger)
	c.cleanup = append(c.cleanup,
		c.Bus.On(errorbus.TopicPermissionError, func(e *errorbus.PermissionError) {
			log.Warn("permission error",
				zap.String("operation", string(e.Kind)),
				zap.String("path", e.Path),
				zap.Error(e),
			)
		}),
		c.Metrics.Attach(c.Bus),
	)

	c.Writer = write.New(inf.Store, c.Bus, logger, write.Options{Observer: c.Metrics})

	if c.Policy, err = loadPolicy(cfg.AccessPolicyFile); err != nil {
		_ = inf.Close()
		return nil, err
	}

	// ------------------------------------------------------------
	// 2. Auth
	// ------------------------------------------------------------
	switch cfg.AuthMode {
	case appcfg.AuthDev:
		if strings.TrimSpace(cfg.DevAuthSecret) == "" {
			_ = inf.Close()
			return nil, errors.New("di: AUTH_MODE=dev needs DEV_AUTH_SECRET")
		}
		c.Verifier = devauth.NewVerifier(cfg.DevAuthSecret)
		log.Warn("dev auth enabled; tokens are self-issued")
	default:
		if inf.FirebaseAuth != nil {
			c.Verifier = firebaseauth.NewVerifier(inf.FirebaseAuth)
		} else {
			log.Warn("firebase auth unavailable; signed-in routes will answer 503")
		}
	}
	c.AuthMW = httpmw.NewAuthMiddleware(c.Verifier, logger)

	// ------------------------------------------------------------
	// 3. Outbound adapters
	// ------------------------------------------------------------
	resolver := secrets.NewResolver(inf.SecretManager, inf.ProjectID)
	sendgridKey := resolveSecret(ctx, resolver, log, "sendgrid", cfg.SendGridAPIKey, cfg.SendGridAPIKeySecret)
	geminiKey := resolveSecret(ctx, resolver, log, "gemini", cfg.GeminiAPIKey, cfg.GeminiAPIKeySecret)

	var notifier contactdom.OwnerNotifier
	if sendgridKey != "" {
		c.Mailer = mail.NewContactMailerWithSendGrid(sendgridKey, cfg.SendGridFrom, cfg.ContactNotifyTo, logger)
		notifier = c.Mailer
	} else {
		log.Warn("SendGrid not configured; contact messages are stored only")
	}

	var analyzer contactdom.Analyzer
	if geminiKey != "" {
		a, err := llm.NewGeminiAnalyzer(ctx, geminiKey, cfg.GeminiModel, logger)
		if err != nil {
			log.Warn("gemini analyzer init failed; contact triage disabled", zap.Error(err))
		} else {
			analyzer = a
		}
	} else {
		log.Warn("Gemini not configured; contact triage disabled")
	}

	var cartStorage cartdom.Storage
	if inf.Redis != nil {
		cartStorage = kv.NewRedisCartStorage(inf.Redis, cartdom.DefaultCartTTL)
	} else {
		cartStorage = kv.NewMemoryCartStorage(cartdom.DefaultCartTTL, cartCleanupInterval)
	}

	var photos usecase.PhotoStorage
	if inf.GCS != nil {
		photos = gcs.NewProfilePhotoRepositoryGCS(inf.GCS, cfg.ProfileBucket)
	}

	payee := orderdom.Payee{ID: cfg.UPIID, Name: cfg.UPIName}
	if !payee.Configured() {
		log.Warn("UPI_ID is not set; checkout answers 503")
	}

	// ------------------------------------------------------------
	// 4. Usecases
	// ------------------------------------------------------------
	store := inf.Store
	c.CatalogUC = usecase.NewCatalogUsecase(store, store, c.Writer, logger)
	c.CartUC = usecase.NewCartUsecase(cartStorage, c.CatalogUC, logger)
	c.CheckoutUC = usecase.NewCheckoutUsecase(c.CartUC, store, c.Writer, payee, qr.NewPNGRenderer(), nil, logger)
	c.ContactUC = usecase.NewContactUsecase(store, c.Writer, analyzer, notifier, nil, logger)
	c.DownloadUC = usecase.NewDownloadUsecase(store, c.CatalogUC, c.Writer, nil)
	c.OrderUC = usecase.NewOrderUsecase(store, c.Writer)
	c.ProfileUC = usecase.NewProfileUsecase(store, c.Writer, photos)
	c.SettingsUC = usecase.NewSettingsUsecase(store, store)
	c.AuthUC = usecase.NewAuthUsecase(store, store, userdom.ParseAdminEmails(strings.Join(cfg.AdminEmails, ",")), logger)

	c.AdminMW = httpmw.NewAdminMiddleware(c.AuthUC, adminCacheTTL, logger)

	log.Info("container ready",
		zap.String("store", cfg.StoreBackend),
		zap.String("auth", cfg.AuthMode),
		zap.Bool("redis", inf.Redis != nil),
		zap.Bool("mail", notifier != nil),
		zap.Bool("triage", analyzer != nil),
		zap.Bool("photos", photos != nil),
	)
	return c, nil
}

// RouterDeps hands the wired pieces to the HTTP router.
func (c *Container) RouterDeps() httpin.RouterDeps {
	deps := httpin.RouterDeps{
		Logger:     c.Logger,
		Auth:       c.AuthMW,
		Admin:      c.AdminMW,
		Verifier:   c.Verifier,
		AuthUC:     c.AuthUC,
		CatalogUC:  c.CatalogUC,
		CartUC:     c.CartUC,
		CheckoutUC: c.CheckoutUC,
		ContactUC:  c.ContactUC,
		DownloadUC: c.DownloadUC,
		OrderUC:    c.OrderUC,
		ProfileUC:  c.ProfileUC,
		SettingsUC: c.SettingsUC,
		Live: live.Deps{
			Source:   c.Infra.Store,
			Policy:   c.Policy,
			Bus:      c.Bus,
			Logger:   c.Logger,
			Observer: c.Metrics,
		},
		Gatherer:       c.Registry,
		AllowedOrigins: c.Config.CORSAllowedOrigins,
		SecureCookies:  c.Config.StoreBackend == appcfg.StoreFirestore,
	}
	if c.Mailer != nil {
		deps.MailChecker = c.Mailer
	}
	return deps
}

// Close waits for background work, then releases clients. Safe to call once
// the HTTP server has stopped.
func (c *Container) Close() {
	if c == nil {
		return
	}
	if c.ContactUC != nil {
		c.ContactUC.Wait()
	}
	if c.Writer != nil {
		c.Writer.Wait()
	}
	for _, fn := range c.cleanup {
		fn()
	}
	if err := c.Infra.Close(); err != nil {
		c.Logger.Warn("infra close", zap.Error(err))
	}
}

func loadPolicy(path string) (*live.AccessPolicy, error) {
	if strings.TrimSpace(path) == "" {
		return live.DefaultAccessPolicy(), nil
	}
	raw, err := appcfg.LoadAccessPolicy(path)
	if err != nil {
		return nil, fmt.Errorf("di: access policy: %w", err)
	}
	table := make(map[string]live.Access, len(raw))
	for p, a := range raw {
		table[p] = live.Access(a)
	}
	return live.NewAccessPolicy(table), nil
}

func resolveSecret(ctx context.Context, r *secrets.Resolver, log *zap.Logger, name, direct, secret string) string {
	ctx, cancel := context.WithTimeout(ctx, secretLookupTimeout)
	defer cancel()
	v, err := r.Resolve(ctx, direct, secret)
	if err != nil {
		log.Warn("secret lookup failed", zap.String("key", name), zap.Error(err))
		return ""
	}
	return v
}
