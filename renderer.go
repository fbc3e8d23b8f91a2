package cart

import "context"

// Renderer redraws the UI from a Snapshot. Implementations must not call
// back into the stores synchronously with a mutation.
type Renderer interface {
	Render(ctx context.Context, snapshot Snapshot)
}

// RendererFunc adapts a function to Renderer.
type RendererFunc func(ctx context.Context, snapshot Snapshot)

// Render implements Renderer.
func (f RendererFunc) Render(ctx context.Context, snapshot Snapshot) {
	if f != nil {
		f(ctx, snapshot)
	}
}
