// internal/platform/di/shared/infra.go
package shared

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	secretmanager "cloud.google.com/go/secretmanager/apiv1"
	"cloud.google.com/go/storage"
	firebase "firebase.google.com/go/v4"
	fbauth "firebase.google.com/go/v4/auth"
	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
	"google.golang.org/api/option"

	fsadapter "optivista/internal/adapters/out/firestore"
	"optivista/internal/adapters/out/memstore"
	"optivista/internal/application/docstore"
	appcfg "optivista/internal/infra/config"
	firestoreinfra "optivista/internal/infra/firestore"
)

const redisPingTimeout = 3 * time.Second

// Infra is shared runtime infrastructure for DI.
//   - owns external clients (Firestore/FirebaseAuth/GCS/SecretManager/Redis)
//   - owns the document store every usecase reads and writes through
//
// Infra must not depend on routers or handlers.
type Infra struct {
	Config    *appcfg.Config
	ProjectID string

	Store docstore.Store

	// Clients (owned; Close-managed). Any of them may be nil when the
	// matching feature is not configured.
	GCS           *storage.Client
	FirebaseApp   *firebase.App
	FirebaseAuth  *fbauth.Client
	SecretManager *secretmanager.Client
	Redis         *redis.Client

	log *zap.Logger
}

// NewInfra initializes shared infra.
// The document store is strict (return error).
// Firebase/Auth, GCS, SecretManager and Redis are best-effort (warn + continue).
func NewInfra(ctx context.Context, cfg *appcfg.Config, logger *zap.Logger) (*Infra, error) {
	if cfg == nil {
		return nil, errors.New("shared.infra: config is nil")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	log := logger.Named("infra")

	inf := &Infra{
		Config:    cfg,
		ProjectID: resolveProjectID(cfg),
		log:       log,
	}

	var clientOpts []option.ClientOption
	if credFile := cfg.CredentialsFile(); credFile != "" {
		clientOpts = append(clientOpts, option.WithCredentialsFile(credFile))
		log.Info("using credentials file for GCP clients", zap.String("file", redactPath(credFile)))
	}

	// 1) Document store (strict)
	switch cfg.StoreBackend {
	case appcfg.StoreMemory:
		inf.Store = memstore.New(logger)
		log.Warn("using in-memory document store; data is lost on restart")
	case appcfg.StoreFirestore:
		if inf.ProjectID == "" {
			return nil, errors.New("shared.infra: projectID is empty (set FIRESTORE_PROJECT_ID or GOOGLE_CLOUD_PROJECT)")
		}
		cw, err := firestoreinfra.NewClient(ctx, inf.ProjectID, cfg.CredentialsFile(), log)
		if err != nil {
			return nil, fmt.Errorf("shared.infra: %w", err)
		}
		if err := cw.Ping(ctx); err != nil {
			log.Warn("firestore ping failed; continuing", zap.Error(err))
		}
		inf.Store = fsadapter.NewLiveStore(cw.Client, logger)
	default:
		return nil, fmt.Errorf("shared.infra: unknown STORE_BACKEND %q", cfg.StoreBackend)
	}

	// 2) Secret Manager (best-effort, only when a secret is referenced)
	if cfg.SendGridAPIKeySecret != "" || cfg.GeminiAPIKeySecret != "" {
		sm, err := secretmanager.NewClient(ctx, clientOpts...)
		if err != nil {
			log.Warn("secretmanager.NewClient failed; secret-backed keys disabled", zap.Error(err))
		} else {
			inf.SecretManager = sm
		}
	}

	// 3) GCS (best-effort, only with a profile bucket)
	if strings.TrimSpace(cfg.ProfileBucket) != "" {
		gcsClient, err := storage.NewClient(ctx, clientOpts...)
		if err != nil {
			log.Warn("storage.NewClient failed; profile photo upload disabled", zap.Error(err))
		} else {
			inf.GCS = gcsClient
			log.Info("GCS storage client initialized", zap.String("bucket", cfg.ProfileBucket))
		}
	} else {
		log.Warn("PROFILE_BUCKET is empty; profile photo upload disabled")
	}

	// 4) Firebase App/Auth (best-effort, firebase auth mode only)
	if cfg.AuthMode == appcfg.AuthFirebase {
		fbApp, err := firebase.NewApp(ctx, &firebase.Config{ProjectID: inf.ProjectID}, clientOpts...)
		if err != nil {
			log.Warn("firebase app init failed", zap.Error(err))
		} else {
			inf.FirebaseApp = fbApp
			authClient, err := fbApp.Auth(ctx)
			if err != nil {
				log.Warn("firebase auth init failed", zap.Error(err))
			} else {
				inf.FirebaseAuth = authClient
				log.Info("firebase auth initialized")
			}
		}
	}

	// 5) Redis (best-effort; carts fall back to process memory)
	if addr := strings.TrimSpace(cfg.RedisAddr); addr != "" {
		rc := redis.NewClient(&redis.Options{
			Addr:     addr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		pingCtx, cancel := context.WithTimeout(ctx, redisPingTimeout)
		err := rc.Ping(pingCtx).Err()
		cancel()
		if err != nil {
			log.Warn("redis unreachable; carts kept in memory", zap.String("addr", addr), zap.Error(err))
			_ = rc.Close()
		} else {
			inf.Redis = rc
			log.Info("redis connected", zap.String("addr", addr))
		}
	}

	return inf, nil
}

func (i *Infra) Close() error {
	if i == nil {
		return nil
	}
	var errs []error
	if i.Store != nil {
		errs = append(errs, i.Store.Close())
	}
	if i.GCS != nil {
		errs = append(errs, i.GCS.Close())
	}
	if i.SecretManager != nil {
		errs = append(errs, i.SecretManager.Close())
	}
	if i.Redis != nil {
		errs = append(errs, i.Redis.Close())
	}
	return errors.Join(errs...)
}

func resolveProjectID(cfg *appcfg.Config) string {
	if v := strings.TrimSpace(cfg.FirestoreProjectID); v != "" {
		return v
	}
	return strings.TrimSpace(cfg.GCPProjectID)
}

// redactPath keeps only the last path segment.
func redactPath(p string) string {
	p = strings.ReplaceAll(strings.TrimSpace(p), "\\", "/")
	if p == "" {
		return ""
	}
	parts := strings.Split(p, "/")
	last := parts[len(parts)-1]
	if last == "" {
		return "***"
	}
	return "***/" + last
}
