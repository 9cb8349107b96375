package authflow

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBeginComplete(t *testing.T) {
	svc := NewService(nil)
	ctx := context.Background()

	state, verifier, err := svc.Begin(ctx, "/board?tab=2")
	require.NoError(t, err)
	assert.NotEmpty(t, state)
	assert.GreaterOrEqual(t, len(verifier), 43)

	flow, err := svc.Complete(ctx, state)
	require.NoError(t, err)
	assert.Equal(t, verifier, flow.Verifier)
	assert.Equal(t, "/board?tab=2", flow.CallbackURL)

	_, err = svc.Complete(ctx, state)
	assert.ErrorIs(t, err, ErrUnknownState, "state is single use")
}

func TestCompleteUnknownState(t *testing.T) {
	svc := NewService(nil)

	_, err := svc.Complete(context.Background(), "never-issued")
	assert.ErrorIs(t, err, ErrUnknownState)

	_, err = svc.Complete(context.Background(), "")
	assert.ErrorIs(t, err, ErrUnknownState)
}

func TestCompleteExpiredState(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }
	svc := NewServiceWithStore(newMemoryStore(clock), clock)

	state, _, err := svc.Begin(context.Background(), "/")
	require.NoError(t, err)

	now = now.Add(FlowLifetime + time.Second)
	_, err = svc.Complete(context.Background(), state)
	assert.ErrorIs(t, err, ErrUnknownState)
}

func TestMemoryStoreDropsAbandonedFlows(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }
	store := newMemoryStore(clock)
	svc := NewServiceWithStore(store, clock)
	ctx := context.Background()

	for i := 0; i < 100; i++ {
		_, _, err := svc.Begin(ctx, "/")
		require.NoError(t, err)
	}
	assert.Len(t, store.flows, 100)

	now = now.Add(2 * FlowLifetime)
	fresh, _, err := svc.Begin(ctx, "/")
	require.NoError(t, err)

	assert.Len(t, store.flows, 1)
	_, err = svc.Complete(ctx, fresh)
	assert.NoError(t, err)
}

func TestSafeCallbackURL(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{raw: "", want: "/"},
		{raw: "/", want: "/"},
		{raw: "/board", want: "/board"},
		{raw: "/board?x=1#top", want: "/board?x=1#top"},
		{raw: "https://evil.example.com", want: "/"},
		{raw: "//evil.example.com/path", want: "/"},
		{raw: "/\\evil.example.com", want: "/"},
		{raw: "board", want: "/"},
		{raw: "javascript:alert(1)", want: "/"},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			assert.Equal(t, tt.want, SafeCallbackURL(tt.raw))
		})
	}
}
