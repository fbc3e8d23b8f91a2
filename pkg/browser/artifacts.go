package browser

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	cart "github.com/goliatone/go-cart"
	"github.com/google/uuid"
)

// FileSink stores capture artifacts as files under Dir.
type FileSink struct {
	Dir string
}

// Offer writes artifact to Dir and returns its path. Names are prefixed with
// a random id so repeated checkouts never collide.
func (s FileSink) Offer(ctx context.Context, artifact cart.Artifact) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if len(artifact.Data) == 0 {
		return "", fmt.Errorf("browser: artifact %q is empty", artifact.Name)
	}
	dir := s.Dir
	if dir == "" {
		dir = os.TempDir()
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("browser: artifact dir: %w", err)
	}

	name := filepath.Base(strings.TrimSpace(artifact.Name))
	if name == "" || name == "." || name == string(filepath.Separator) {
		name = "cart.png"
	}
	path := filepath.Join(dir, uuid.NewString()+"-"+name)
	if err := os.WriteFile(path, artifact.Data, 0o644); err != nil {
		return "", fmt.Errorf("browser: write artifact: %w", err)
	}
	return path, nil
}
