package cart

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
)

var (
	// ErrEmptyCart is returned when checkout is triggered with no items.
	ErrEmptyCart = errors.New("cart: cart is empty")
	// ErrPersist wraps write failures handed to the ErrorReporter.
	ErrPersist = errors.New("cart: persist failed")
	// ErrUnknownOption is returned for option fields other than the three
	// persisted keys.
	ErrUnknownOption = errors.New("cart: unknown option field")
	// ErrUnknownCommand is returned by Session.Dispatch for unsupported commands.
	ErrUnknownCommand = errors.New("cart: unknown command")
)

// OptionError reports an option value rejected by an OptionsPolicy.
type OptionError struct {
	Field string
	Value string
	Rule  string
	Err   error
}

func (e *OptionError) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Err != nil {
		return fmt.Sprintf("cart: option %s=%q failed rule %q: %v", e.Field, e.Value, e.Rule, e.Err)
	}
	return fmt.Sprintf("cart: option %s=%q failed rule %q", e.Field, e.Value, e.Rule)
}

func (e *OptionError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// ErrorReporter receives non-fatal failures such as persistence writes.
type ErrorReporter interface {
	Report(ctx context.Context, err error)
}

// ErrorReporterFunc adapts a function to ErrorReporter.
type ErrorReporterFunc func(ctx context.Context, err error)

// Report implements ErrorReporter.
func (f ErrorReporterFunc) Report(ctx context.Context, err error) {
	if f != nil {
		f(ctx, err)
	}
}

type noopReporter struct{}

func (noopReporter) Report(context.Context, error) {}

// LogReporter reports errors to logger at error level.
func LogReporter(logger *zap.Logger) ErrorReporter {
	if logger == nil {
		return noopReporter{}
	}
	return ErrorReporterFunc(func(_ context.Context, err error) {
		logger.Error("non-fatal cart failure", zap.Error(err))
	})
}
