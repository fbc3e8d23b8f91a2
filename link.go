package cart

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"
)

// DefaultHandoffBase is the WhatsApp click-to-chat endpoint.
const DefaultHandoffBase = "https://wa.me/"

// ErrNoDestination is returned when the handoff phone has no digits.
var ErrNoDestination = errors.New("cart: handoff phone has no digits")

// LinkBuilder embeds a message into a click-to-chat link.
type LinkBuilder struct {
	BaseURL string
	Phone   string
}

// NewLinkBuilder returns a builder for phone. An empty base selects
// DefaultHandoffBase.
func NewLinkBuilder(baseURL, phone string) LinkBuilder {
	if strings.TrimSpace(baseURL) == "" {
		baseURL = DefaultHandoffBase
	}
	return LinkBuilder{BaseURL: baseURL, Phone: phone}
}

// Build returns base + phone digits + "?text=" + encoded message.
func (b LinkBuilder) Build(message string) (string, error) {
	digits := DigitsOnly(b.Phone)
	if digits == "" {
		return "", ErrNoDestination
	}
	base := b.BaseURL
	if base == "" {
		base = DefaultHandoffBase
	}
	if !strings.HasSuffix(base, "/") {
		base += "/"
	}
	return base + digits + "?text=" + EncodeMessage(message), nil
}

// DigitsOnly strips everything but ASCII digits.
func DigitsOnly(value string) string {
	var b strings.Builder
	for _, r := range value {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// componentUnescaper restores the characters a browser's
// encodeURIComponent leaves alone, and encodes spaces as %20.
var componentUnescaper = strings.NewReplacer(
	"+", "%20",
	"%21", "!",
	"%27", "'",
	"%28", "(",
	"%29", ")",
	"%2A", "*",
)

// EncodeMessage percent-encodes message for a URI query parameter.
func EncodeMessage(message string) string {
	return componentUnescaper.Replace(url.QueryEscape(message))
}

// Navigator opens a handoff link.
type Navigator interface {
	Navigate(ctx context.Context, link string) error
}

// NavigatorFunc adapts a function to Navigator.
type NavigatorFunc func(ctx context.Context, link string) error

// Navigate implements Navigator.
func (f NavigatorFunc) Navigate(ctx context.Context, link string) error {
	return f(ctx, link)
}

// WriterNavigator prints the link, leaving it to the caller to follow.
type WriterNavigator struct {
	W io.Writer
}

// Navigate writes link followed by a newline.
func (n WriterNavigator) Navigate(ctx context.Context, link string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if n.W == nil {
		return fmt.Errorf("cart: navigator writer is nil")
	}
	_, err := fmt.Fprintln(n.W, link)
	return err
}
