package cmd

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	authadapter "github.com/bnema/mailbin/internal/adapters/auth"
	"github.com/bnema/mailbin/internal/adapters/backend"
	"github.com/bnema/mailbin/internal/adapters/browser"
	googleadapter "github.com/bnema/mailbin/internal/adapters/google"
	newslettersadapter "github.com/bnema/mailbin/internal/adapters/render/newsletters"
	statusadapter "github.com/bnema/mailbin/internal/adapters/render/status"
	chainstore "github.com/bnema/mailbin/internal/adapters/secrets/chain"
	filestore "github.com/bnema/mailbin/internal/adapters/secrets/file"
	passstore "github.com/bnema/mailbin/internal/adapters/secrets/pass"
	sqlitestore "github.com/bnema/mailbin/internal/adapters/secrets/sqlite"
	"github.com/bnema/mailbin/internal/adapters/session"
	"github.com/bnema/mailbin/internal/adapters/store"
	"github.com/bnema/mailbin/internal/application"
	"github.com/bnema/mailbin/internal/config"
	"github.com/bnema/mailbin/internal/domain"
	"github.com/bnema/mailbin/internal/logging"
	"github.com/bnema/mailbin/internal/ports"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

const httpTimeout = 30 * time.Second

type app struct {
	cfg                config.Config
	logger             *zap.Logger
	sessionStore       ports.SessionStore
	encoder            ports.SessionEncoder
	profiles           ports.ProfileFetcher
	fetcher            ports.DigestFetcher
	httpClient         *http.Client
	openBrowser        func(string) error
	statusRenderer     func(application.SessionStatus, statusadapter.RenderOptions) (string, error)
	newsletterRenderer func(domain.ViewState) (string, error)
	now                func() time.Time
	closers            []io.Closer
}

func wireApp(opts rootOptions) (*app, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("resolve home directory: %w", err)
	}

	cfg, err := config.Load(viper.New(), homeDir, opts.configFile)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	level := cfg.Log.Level
	if opts.debug {
		level = "debug"
	}
	logger, _, err := logging.New(level)
	if err != nil {
		return nil, err
	}

	encoder, err := session.NewJWTEncoder(cfg.Session.Secret, cfg.Session.TTL, ports.SystemClock{})
	if err != nil {
		return nil, fmt.Errorf("wire session encoder: %w", err)
	}

	kv, closers, err := openKeyValueStore(cfg.Store, logger.Named("store"))
	if err != nil {
		return nil, err
	}
	logger.Debug("wired session store", zap.String("backend", cfg.Store.Backend), zap.String("path", cfg.Store.Path))

	httpClient := &http.Client{Timeout: httpTimeout}

	return &app{
		cfg:          cfg,
		logger:       logger,
		sessionStore: store.NewKeyValueSessionStore(kv),
		encoder:      encoder,
		profiles: &googleadapter.ProfileClient{
			UserInfoURL: cfg.OAuth.ProfileURL,
			HTTPClient:  httpClient,
			Logger:      logger.Named("profile"),
		},
		fetcher: &backend.NewsletterClient{
			HTTPClient: httpClient,
			Logger:     logger.Named("newsletters"),
			Path:       cfg.API.NewslettersPath,
		},
		httpClient:         httpClient,
		openBrowser:        browser.Open,
		statusRenderer:     statusadapter.Render,
		newsletterRenderer: newslettersadapter.Render,
		now:                time.Now,
		closers:            closers,
	}, nil
}

func openKeyValueStore(cfg config.StoreConfig, logger *zap.Logger) (ports.KeyValueStore, []io.Closer, error) {
	switch cfg.Backend {
	case config.BackendFile:
		return filestore.NewStore(cfg.Path), nil, nil
	case config.BackendPass:
		return passstore.NewStore(passstore.DefaultPrefix), nil, nil
	case config.BackendSQLite:
		db, err := sqlitestore.Open(filepath.Join(cfg.Path, "session.db"))
		if err != nil {
			return nil, nil, fmt.Errorf("wire sqlite session store: %w", err)
		}
		return db, []io.Closer{db}, nil
	case config.BackendChain:
		chain, err := chainstore.NewPassFirstWithFileFallback(passstore.DefaultPrefix, cfg.Path)
		if err != nil {
			return nil, nil, fmt.Errorf("wire session store chain: %w", err)
		}
		return chain.WithLogger(logger), nil, nil
	default:
		return nil, nil, fmt.Errorf("%w %q", config.ErrUnknownStoreBackend, cfg.Backend)
	}
}

// sessions builds a SessionService around the given consent broker.
func (a *app) sessions(broker ports.CredentialBroker) *application.SessionService {
	return application.NewSessionService(broker, a.encoder, a.sessionStore, a.profiles, ports.SystemClock{}, a.logger.Named("session"))
}

func (a *app) browserBroker(out io.Writer, openBrowser bool) *authadapter.BrowserBroker {
	broker := &authadapter.BrowserBroker{
		Config:     a.cfg.OAuth2(),
		ListenAddr: a.cfg.OAuth.ListenAddr,
		Timeout:    a.cfg.OAuth.Timeout,
		Out:        out,
		HTTPClient: a.httpClient,
		Logger:     a.logger.Named("auth"),
	}
	if openBrowser {
		broker.Open = a.openBrowser
	}
	return broker
}

func (a *app) deviceBroker(out io.Writer) *authadapter.DeviceBroker {
	return &authadapter.DeviceBroker{
		Config:     a.cfg.OAuth2(),
		Out:        out,
		HTTPClient: a.httpClient,
	}
}

func (a *app) newsletterController(sessions *application.SessionService) *application.ViewStateController {
	return application.NewViewStateController(sessions, a.fetcher, a.cfg.API.BaseURL, a.logger.Named("view"))
}

func (a *app) close() {
	var errs []error
	for _, closer := range a.closers {
		errs = append(errs, closer.Close())
	}
	if err := errors.Join(errs...); err != nil {
		a.logger.Warn("close resources", zap.Error(err))
	}
	_ = a.logger.Sync()
}
