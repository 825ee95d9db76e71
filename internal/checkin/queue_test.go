package checkin

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gatherkit/gatekit/internal/storage"
)

// brokenStore fails every operation, simulating an exhausted or revoked
// storage backend.
type brokenStore struct{}

func (brokenStore) Get(string) ([]byte, error) { return nil, errors.New("storage unavailable") }
func (brokenStore) Set(string, []byte) error   { return errors.New("storage unavailable") }
func (brokenStore) Delete(string) error        { return errors.New("storage unavailable") }
func (brokenStore) Close() error               { return nil }

func TestLoadQueueRoundTrip(t *testing.T) {
	store := storage.NewMemoryStore()

	assert.Empty(t, loadQueue(store, "evt-1"))

	saveQueue(store, "evt-1", []string{"A", "B"})
	assert.Equal(t, []string{"A", "B"}, loadQueue(store, "evt-1"))

	// queues are namespaced per event
	assert.Empty(t, loadQueue(store, "evt-2"))
}

func TestLoadQueueMalformedRecord(t *testing.T) {
	store := storage.NewMemoryStore()
	require.NoError(t, store.Set(queueKey("evt-1"), []byte("{not json")))
	assert.Empty(t, loadQueue(store, "evt-1"))

	// non-string entries are dropped, the rest survive
	require.NoError(t, store.Set(queueKey("evt-1"), []byte(`["A", 42, null, "B"]`)))
	assert.Equal(t, []string{"A", "B"}, loadQueue(store, "evt-1"))
}

func TestScanDegradesWhenStorageFails(t *testing.T) {
	remote := &fakeAPI{errAll: errOffline}
	scanner := NewScanner(remote, brokenStore{}, "evt-1")

	// the token cannot be buffered, but the scan flow must not error out
	result, err := scanner.Scan(context.Background(), "A")
	require.NoError(t, err)
	assert.Equal(t, OutcomeQueued, result.Outcome)
	assert.Empty(t, scanner.Pending())

	report := scanner.Flush(context.Background())
	assert.Equal(t, 0, report.Processed)
	assert.Equal(t, 0, report.Remaining)
}
