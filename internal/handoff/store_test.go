package handoff

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/curbcycle/pickup-platform/pkg/logging"
)

type fakePayload struct {
	Email string `json:"email"`
	Zips  []int  `json:"zips"`
}

func newTestStore(t *testing.T, ttl time.Duration) (*Store, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return NewStore(client, ttl, logging.New("error")), mr
}

func TestStore_RoundTrip(t *testing.T) {
	store, _ := newTestStore(t, time.Minute)
	ctx := context.Background()

	in := fakePayload{Email: "resident@example.com", Zips: []int{97201}}
	require.NoError(t, store.Put(ctx, "sess1", KindPendingUser, in))

	var out fakePayload
	require.NoError(t, store.Get(ctx, "sess1", KindPendingUser, &out))
	assert.Equal(t, in, out)
}

func TestStore_KindsAreIsolated(t *testing.T) {
	store, _ := newTestStore(t, time.Minute)
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, "sess1", KindAddressCheck, fakePayload{Email: "a"}))

	var out fakePayload
	err := store.Get(ctx, "sess1", KindFormState, &out)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStore_GetMissing(t *testing.T) {
	store, _ := newTestStore(t, time.Minute)

	var out fakePayload
	err := store.Get(context.Background(), "nope", KindPendingUser, &out)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStore_Expiry(t *testing.T) {
	store, mr := newTestStore(t, time.Minute)
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, "sess1", KindFormState, fakePayload{Email: "x"}))
	mr.FastForward(2 * time.Minute)

	var out fakePayload
	err := store.Get(ctx, "sess1", KindFormState, &out)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStore_Delete(t *testing.T) {
	store, _ := newTestStore(t, time.Minute)
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, "sess1", KindPendingUser, fakePayload{}))
	require.NoError(t, store.Delete(ctx, "sess1", KindPendingUser))

	var out fakePayload
	assert.ErrorIs(t, store.Get(ctx, "sess1", KindPendingUser, &out), ErrNotFound)
}

func TestStore_PutRefreshesTTL(t *testing.T) {
	store, mr := newTestStore(t, time.Minute)
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, "sess1", KindFormState, fakePayload{Email: "x"}))
	mr.FastForward(30 * time.Second)
	require.NoError(t, store.Put(ctx, "sess1", KindFormState, fakePayload{Email: "y"}))
	mr.FastForward(45 * time.Second)

	var out fakePayload
	require.NoError(t, store.Get(ctx, "sess1", KindFormState, &out))
	assert.Equal(t, "y", out.Email)
}
