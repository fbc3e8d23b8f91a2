// Package browser drives a Chrome instance through go-rod to capture the cart
// panel and to open handoff links in a new browsing context.
package browser

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"go.uber.org/zap"
)

// DefaultTimeout bounds page loads when Config.Timeout is zero.
const DefaultTimeout = 15 * time.Second

// Config describes how to reach Chrome and the storefront page.
type Config struct {
	// ControlURL attaches to an already running Chrome. When empty a browser
	// is launched, from Bin if set.
	ControlURL string
	Bin        string
	Headless   bool

	// PageURL is the storefront page rendering the cart panel.
	PageURL string
	// Selector locates the cart panel on PageURL.
	Selector string
	// CartKey and OptionsKey are the localStorage keys the page reads.
	CartKey    string
	OptionsKey string

	Timeout time.Duration
}

func (c Config) timeout() time.Duration {
	if c.Timeout <= 0 {
		return DefaultTimeout
	}
	return c.Timeout
}

// Option configures a Session.
type Option func(*Session)

// WithLogger sets the session logger.
func WithLogger(logger *zap.Logger) Option {
	return func(s *Session) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// Session owns one Chrome connection, started lazily on first use.
type Session struct {
	cfg    Config
	logger *zap.Logger

	mu       sync.Mutex
	browser  *rod.Browser
	launched *launcher.Launcher
}

// NewSession returns an unstarted Session.
func NewSession(cfg Config, opts ...Option) *Session {
	s := &Session{cfg: cfg, logger: zap.NewNop()}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

// Start connects to Chrome, launching it when no ControlURL is configured.
// Calling Start on a started session is a no-op.
func (s *Session) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.browser != nil {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	controlURL := s.cfg.ControlURL
	if controlURL == "" {
		l := launcher.New().Headless(s.cfg.Headless)
		if s.cfg.Bin != "" {
			l = l.Bin(s.cfg.Bin)
		}
		launched, err := l.Launch()
		if err != nil {
			return fmt.Errorf("browser: launch chrome: %w", err)
		}
		controlURL = launched
		s.launched = l
	}

	browser := rod.New().ControlURL(controlURL)
	if err := browser.Connect(); err != nil {
		s.killLocked()
		return fmt.Errorf("browser: connect to chrome: %w", err)
	}
	s.browser = browser
	s.logger.Debug("browser connected", zap.String("control_url", controlURL))
	return nil
}

// Close disconnects and stops a browser launched by this session.
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	var err error
	if s.browser != nil {
		err = s.browser.Close()
		s.browser = nil
	}
	s.killLocked()
	return err
}

func (s *Session) killLocked() {
	if s.launched != nil {
		s.launched.Kill()
		s.launched = nil
	}
}

func (s *Session) ensureStarted(ctx context.Context) (*rod.Browser, error) {
	if err := s.Start(ctx); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.browser == nil {
		return nil, errors.New("browser: session closed")
	}
	return s.browser, nil
}
