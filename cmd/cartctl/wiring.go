package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	cart "github.com/goliatone/go-cart"
	"github.com/goliatone/go-cart/internal/config"
	"github.com/goliatone/go-cart/pkg/activity"
	"github.com/goliatone/go-cart/pkg/browser"
	"github.com/goliatone/go-cart/pkg/rules"
	"github.com/goliatone/go-cart/pkg/state"
	"github.com/goliatone/go-cart/pkg/state/redisstore"
	"github.com/goliatone/go-cart/pkg/state/sqlitestore"
)

// openBackend returns the configured backend and a function releasing it.
func openBackend(ctx context.Context, cfg config.StorageConfig) (state.Backend, func() error, error) {
	switch cfg.Driver {
	case config.DriverMemory:
		return state.NewMemoryBackend(), func() error { return nil }, nil
	case config.DriverSQLite:
		if dir := filepath.Dir(cfg.Path); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, nil, fmt.Errorf("cartctl: create storage dir: %w", err)
			}
		}
		backend, err := sqlitestore.Open(ctx, cfg.Path)
		if err != nil {
			return nil, nil, err
		}
		return backend, backend.Close, nil
	case config.DriverRedis:
		backend, err := redisstore.Dial(ctx, cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB, cfg.Prefix)
		if err != nil {
			return nil, nil, err
		}
		return backend, backend.Close, nil
	default:
		return nil, nil, fmt.Errorf("cartctl: unknown storage driver %q", cfg.Driver)
	}
}

// buildPolicy compiles the configured option rules. No rules means no policy.
func buildPolicy(cfg config.RulesConfig, expressions map[string]string, logger *zap.Logger) (*cart.OptionsPolicy, error) {
	if len(expressions) == 0 {
		return nil, nil
	}
	mode, err := cart.ParsePolicyMode(cfg.Mode)
	if err != nil {
		return nil, err
	}
	return cart.NewOptionsPolicy(cfg.Engine, mode, expressions, rules.WithLogger(rules.ZapLogger(logger)))
}

// buildEmitter logs every cart activity event.
func buildEmitter(cfg config.ActivityConfig, origin string, logger *zap.Logger) *activity.Emitter {
	hook := activity.HookFunc(func(_ context.Context, event activity.Event) error {
		logger.Info("cart activity",
			zap.String("verb", event.Verb),
			zap.String("subject", event.Subject()),
			zap.Any("metadata", event.Metadata),
		)
		return nil
	})
	return activity.NewEmitter(activity.Hooks{hook}, activity.Config{
		Enabled: cfg.Enabled,
		Channel: cfg.Channel,
		Origin:  origin,
	})
}

// openSession wires a hydrated cart session from the loaded config. The
// returned function releases storage and any browser started for it.
func (a *app) openSession(ctx context.Context, out, errOut io.Writer) (*cart.Session, func(), error) {
	cfg := a.cfg
	logger := a.logger

	tmpl, err := cart.TemplateByName(cfg.Message.Template)
	if err != nil {
		return nil, nil, err
	}
	policy, err := buildPolicy(cfg.Rules, cfg.RuleExpressions(), logger)
	if err != nil {
		return nil, nil, err
	}
	captureTimeout, err := cfg.CaptureTimeout()
	if err != nil {
		return nil, nil, err
	}

	backend, closeBackend, err := openBackend(ctx, cfg.Storage)
	if err != nil {
		return nil, nil, err
	}

	var chrome *browser.Session
	useBrowser := cfg.Handoff.Mode == config.HandoffBrowser || cfg.Capture.Enabled
	if useBrowser {
		chrome = browser.NewSession(browser.Config{
			ControlURL: cfg.Capture.ControlURL,
			Bin:        cfg.Capture.ChromeBin,
			Headless:   cfg.Capture.Headless,
			PageURL:    cfg.Capture.PageURL,
			Selector:   cfg.Capture.Selector,
			CartKey:    cfg.Storage.CartKey,
			OptionsKey: cfg.Storage.OptionsKey,
			Timeout:    captureTimeout,
		}, browser.WithLogger(logger.Named("browser")))
	}

	release := func() {
		if chrome != nil {
			if err := chrome.Close(); err != nil {
				logger.Warn("browser close failed", zap.Error(err))
			}
		}
		if err := closeBackend(); err != nil {
			logger.Warn("storage close failed", zap.Error(err))
		}
	}

	sessionCfg := cart.SessionConfig{
		Backend:                backend,
		Origin:                 cfg.Storage.Origin,
		CartKey:                cfg.Storage.CartKey,
		OptionsKey:             cfg.Storage.OptionsKey,
		Phone:                  cfg.Handoff.Phone,
		BaseURL:                cfg.Handoff.BaseURL,
		Template:               &tmpl,
		Navigator:              cart.WriterNavigator{W: out},
		CaptureTimeout:         captureTimeout,
		Policy:                 policy,
		ResetOptionsOnCheckout: cfg.Checkout.ResetOptions,
		Emitter:                buildEmitter(cfg.Activity, cfg.Storage.Origin, logger),
		Logger:                 logger,
		Warner: cart.WarnerFunc(func(_ context.Context, message string) {
			fmt.Fprintln(errOut, message)
		}),
	}
	if cfg.Handoff.Mode == config.HandoffBrowser {
		sessionCfg.Navigator = chrome.Navigator()
	}
	if cfg.Capture.Enabled {
		sessionCfg.Capturer = chrome.Capturer()
		sessionCfg.ArtifactSink = browser.FileSink{Dir: cfg.Capture.ArtifactDir}
	}

	session, err := cart.NewSession(sessionCfg)
	if err != nil {
		release()
		return nil, nil, err
	}
	if err := session.Init(ctx); err != nil {
		logger.Warn("stored cart could not be read, starting empty", zap.Error(err))
	}
	return session, release, nil
}

// withSession opens a session for the duration of fn.
func (a *app) withSession(ctx context.Context, out, errOut io.Writer, fn func(*cart.Session) error) error {
	session, release, err := a.openSession(ctx, out, errOut)
	if err != nil {
		return err
	}
	defer release()
	return fn(session)
}
