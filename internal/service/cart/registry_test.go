package cart

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	cartrepo "medusa-storefront/internal/repository/cart"
)

func TestRegistry_SharesContainerPerSession(t *testing.T) {
	reg := NewRegistry(&stubClient{}, cartrepo.NewMemory(0), nil, time.Minute)

	a := reg.Get("a")
	assert.Same(t, a, reg.Get("a"))
	assert.NotSame(t, a, reg.Get("b"))
	assert.Equal(t, 2, reg.Len())
}

func TestRegistry_SweepDropsIdleContainers(t *testing.T) {
	now := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	repo := cartrepo.NewMemory(0)
	reg := NewRegistry(&stubClient{}, repo, nil, 10*time.Minute)
	reg.now = func() time.Time { return now }

	old := reg.Get("idle")
	require.NoError(t, cartrepo.Scoped(repo, "idle").Save(context.Background(), "cart_1"))

	now = now.Add(5 * time.Minute)
	reg.Get("active")

	now = now.Add(6 * time.Minute)
	assert.Equal(t, 1, reg.Sweep())
	assert.Equal(t, 1, reg.Len())

	fresh := reg.Get("idle")
	assert.NotSame(t, old, fresh)
	id, err := cartrepo.Scoped(repo, "idle").Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "cart_1", id, "the stored id outlives the container")
}

func TestRegistry_EvictsLeastRecentlyUsedWhenFull(t *testing.T) {
	now := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	reg := NewRegistry(&stubClient{}, cartrepo.NewMemory(0), nil, time.Hour, WithMaxContainers(2))
	reg.now = func() time.Time { return now }

	a := reg.Get("a")
	now = now.Add(time.Second)
	reg.Get("b")
	now = now.Add(time.Second)
	assert.Same(t, a, reg.Get("a"))
	now = now.Add(time.Second)

	reg.Get("c")
	assert.Equal(t, 2, reg.Len())
	assert.Same(t, a, reg.Get("a"), "the recently used container stays")
	assert.Equal(t, 2, reg.Len())
}

func TestRegistry_RunStopsOnCancel(t *testing.T) {
	reg := NewRegistry(&stubClient{}, cartrepo.NewMemory(0), nil, time.Millisecond)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		reg.Run(ctx, time.Millisecond)
		close(done)
	}()
	reg.Get("x")
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
}
