package browser

import (
	"context"
	"fmt"

	"github.com/go-rod/rod/lib/proto"
	"go.uber.org/zap"
)

// Navigator opens handoff links in a new browser tab and leaves it open.
type Navigator struct {
	session *Session
}

// Navigator returns a cart.Navigator bound to s.
func (s *Session) Navigator() *Navigator {
	return &Navigator{session: s}
}

// Navigate implements cart.Navigator.
func (n *Navigator) Navigate(ctx context.Context, link string) error {
	browser, err := n.session.ensureStarted(ctx)
	if err != nil {
		return err
	}
	page, err := browser.Context(ctx).Page(proto.TargetCreateTarget{URL: link})
	if err != nil {
		return fmt.Errorf("browser: open handoff: %w", err)
	}
	if err := page.Timeout(n.session.cfg.timeout()).WaitLoad(); err != nil {
		n.session.logger.Warn("handoff page did not finish loading", zap.Error(err))
	}
	return nil
}
