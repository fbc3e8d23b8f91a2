package cart

import (
	"context"
	"sync"
	"testing"

	"github.com/goliatone/go-cart/pkg/state"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

const testOrigin = "https://gmattelier.example"

var (
	cartRef    = state.Ref{Origin: testOrigin, Key: DefaultCartKey}
	optionsRef = state.Ref{Origin: testOrigin, Key: DefaultOptionsKey}
)

// recordingBackend counts writes and can be told to fail them.
type recordingBackend struct {
	*state.MemoryBackend

	mu     sync.Mutex
	puts   int
	putErr error
	getErr error
}

func newRecordingBackend() *recordingBackend {
	return &recordingBackend{MemoryBackend: state.NewMemoryBackend()}
}

func (b *recordingBackend) Get(ctx context.Context, key string) (state.Record, bool, error) {
	b.mu.Lock()
	err := b.getErr
	b.mu.Unlock()
	if err != nil {
		return state.Record{}, false, err
	}
	return b.MemoryBackend.Get(ctx, key)
}

func (b *recordingBackend) Put(ctx context.Context, key string, record state.Record) error {
	b.mu.Lock()
	b.puts++
	err := b.putErr
	b.mu.Unlock()
	if err != nil {
		return err
	}
	return b.MemoryBackend.Put(ctx, key, record)
}

func (b *recordingBackend) Puts() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.puts
}

func (b *recordingBackend) failWrites(err error) {
	b.mu.Lock()
	b.putErr = err
	b.mu.Unlock()
}

func (b *recordingBackend) failReads(err error) {
	b.mu.Lock()
	b.getErr = err
	b.mu.Unlock()
}

// seedRaw stores payload under ref. Seeding a recordingBackend bypasses its
// write counter so Puts() only reflects writes made by the code under test.
func seedRaw(t *testing.T, backend state.Backend, ref state.Ref, payload string) {
	t.Helper()
	key, err := ref.Identifier()
	require.NoError(t, err)
	if recording, ok := backend.(*recordingBackend); ok {
		backend = recording.MemoryBackend
	}
	require.NoError(t, backend.Put(context.Background(), key, state.Record{Payload: []byte(payload)}))
}

func storedRaw(t *testing.T, backend state.Backend, ref state.Ref) string {
	t.Helper()
	key, err := ref.Identifier()
	require.NoError(t, err)
	record, ok, err := backend.Get(context.Background(), key)
	require.NoError(t, err)
	require.True(t, ok, "expected %s to be persisted", key)
	return string(record.Payload)
}

func widget(id, name, price string) Product {
	return Product{ID: id, Name: name, Price: decimal.RequireFromString(price)}
}
