package idempotency

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeStore struct {
	mu   sync.Mutex
	keys map[string]string
	err  error
}

func newFakeStore() *fakeStore {
	return &fakeStore{keys: map[string]string{}}
}

func (f *fakeStore) Get(_ context.Context, key string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.keys[key], f.err
}

func (f *fakeStore) SetNX(_ context.Context, key string, value any, _ time.Duration) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return false, f.err
	}
	if _, ok := f.keys[key]; ok {
		return false, nil
	}
	f.keys[key] = value.(string)
	return true, nil
}

func (f *fakeStore) IdempotencyKey(scope, id string) string {
	return strings.Join([]string{"tl", "idempotency", scope, id}, ":")
}

func (f *fakeStore) Del(_ context.Context, keys ...string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, key := range keys {
		delete(f.keys, key)
	}
	return nil
}

func TestCheckAndMarkProcessed_FirstTimeWins(t *testing.T) {
	store := newFakeStore()
	manager, err := NewManager(store, time.Hour)
	require.NoError(t, err)

	eventID := uuid.New()

	already, err := manager.CheckAndMarkProcessed(context.Background(), "lead-pipeline", eventID)
	require.NoError(t, err)
	assert.False(t, already)

	already, err = manager.CheckAndMarkProcessed(context.Background(), "lead-pipeline", eventID)
	require.NoError(t, err)
	assert.True(t, already)
}

func TestCheckAndMarkProcessed_ScopedPerConsumer(t *testing.T) {
	store := newFakeStore()
	manager, err := NewManager(store, time.Hour)
	require.NoError(t, err)

	eventID := uuid.New()

	already, err := manager.CheckAndMarkProcessed(context.Background(), "lead-pipeline", eventID)
	require.NoError(t, err)
	assert.False(t, already)

	already, err = manager.CheckAndMarkProcessed(context.Background(), "settlement", eventID)
	require.NoError(t, err)
	assert.False(t, already, "consumers must not share processed markers")
}

func TestDelete_AllowsRetry(t *testing.T) {
	store := newFakeStore()
	manager, err := NewManager(store, time.Hour)
	require.NoError(t, err)

	eventID := uuid.New()
	_, err = manager.CheckAndMarkProcessed(context.Background(), "lead-pipeline", eventID)
	require.NoError(t, err)

	require.NoError(t, manager.Delete(context.Background(), "lead-pipeline", eventID))

	already, err := manager.CheckAndMarkProcessed(context.Background(), "lead-pipeline", eventID)
	require.NoError(t, err)
	assert.False(t, already)
}

func TestCheckAndMarkProcessed_Validation(t *testing.T) {
	store := newFakeStore()
	manager, err := NewManager(store, time.Hour)
	require.NoError(t, err)

	_, err = manager.CheckAndMarkProcessed(context.Background(), "", uuid.New())
	assert.Error(t, err)

	_, err = manager.CheckAndMarkProcessed(context.Background(), "lead-pipeline", uuid.Nil)
	assert.Error(t, err)
}

func TestCheckAndMarkProcessed_StoreError(t *testing.T) {
	store := newFakeStore()
	store.err = errors.New("redis down")
	manager, err := NewManager(store, time.Hour)
	require.NoError(t, err)

	_, err = manager.CheckAndMarkProcessed(context.Background(), "lead-pipeline", uuid.New())
	assert.Error(t, err)
}
