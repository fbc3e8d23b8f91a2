package browser

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	cart "github.com/goliatone/go-cart"
	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"
	"go.uber.org/zap"
)

// seedStorage writes the cart state where the storefront page looks for it.
const seedStorage = `(entries) => {
	for (const [key, value] of Object.entries(entries)) {
		localStorage.setItem(key, value);
	}
	return Object.keys(entries).length;
}`

// Capturer screenshots the storefront cart panel after seeding the page's
// storage with the snapshot being checked out.
type Capturer struct {
	session *Session
}

// Capturer returns a cart.Capturer bound to s.
func (s *Session) Capturer() *Capturer {
	return &Capturer{session: s}
}

// Capture implements cart.Capturer.
func (c *Capturer) Capture(ctx context.Context, snapshot cart.Snapshot) (cart.Artifact, error) {
	cfg := c.session.cfg
	if cfg.PageURL == "" || cfg.Selector == "" {
		return cart.Artifact{}, errors.New("browser: capture needs a page url and selector")
	}
	entries, err := storageEntries(cfg, snapshot)
	if err != nil {
		return cart.Artifact{}, err
	}

	browser, err := c.session.ensureStarted(ctx)
	if err != nil {
		return cart.Artifact{}, err
	}
	page, err := browser.Context(ctx).Page(proto.TargetCreateTarget{URL: cfg.PageURL})
	if err != nil {
		return cart.Artifact{}, fmt.Errorf("browser: open %s: %w", cfg.PageURL, err)
	}
	defer func() {
		if closeErr := page.Close(); closeErr != nil {
			c.session.logger.Debug("capture page close failed", zap.Error(closeErr))
		}
	}()

	page = page.Timeout(cfg.timeout())
	if err := page.WaitLoad(); err != nil {
		return cart.Artifact{}, fmt.Errorf("browser: load %s: %w", cfg.PageURL, err)
	}
	if _, err := page.Evaluate(&rod.EvalOptions{
		JS:           seedStorage,
		JSArgs:       []interface{}{entries},
		ByValue:      true,
		AwaitPromise: true,
	}); err != nil {
		return cart.Artifact{}, fmt.Errorf("browser: seed storage: %w", err)
	}
	if err := page.Reload(); err != nil {
		return cart.Artifact{}, fmt.Errorf("browser: reload: %w", err)
	}
	if err := page.WaitLoad(); err != nil {
		return cart.Artifact{}, fmt.Errorf("browser: reload wait: %w", err)
	}

	panel, err := page.Element(cfg.Selector)
	if err != nil {
		return cart.Artifact{}, fmt.Errorf("browser: find %q: %w", cfg.Selector, err)
	}
	data, err := panel.Screenshot(proto.PageCaptureScreenshotFormatPng, 0)
	if err != nil {
		return cart.Artifact{}, fmt.Errorf("browser: screenshot: %w", err)
	}

	c.session.logger.Debug("cart captured", zap.Int("bytes", len(data)), zap.Int("lines", len(snapshot.Items)))
	return cart.Artifact{Name: "carrinho.png", ContentType: "image/png", Data: data}, nil
}

// storageEntries encodes snapshot the way the page persists it.
func storageEntries(cfg Config, snapshot cart.Snapshot) (map[string]string, error) {
	cartKey := cfg.CartKey
	if cartKey == "" {
		cartKey = cart.DefaultCartKey
	}
	optionsKey := cfg.OptionsKey
	if optionsKey == "" {
		optionsKey = cart.DefaultOptionsKey
	}

	items := snapshot.Items
	if items == nil {
		items = []cart.LineItem{}
	}
	itemsJSON, err := json.Marshal(items)
	if err != nil {
		return nil, fmt.Errorf("browser: encode items: %w", err)
	}
	optionsJSON, err := json.Marshal(snapshot.Options)
	if err != nil {
		return nil, fmt.Errorf("browser: encode options: %w", err)
	}
	return map[string]string{
		cartKey:    string(itemsJSON),
		optionsKey: string(optionsJSON),
	}, nil
}
