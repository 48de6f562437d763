package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"restaurant-shm/internal/domain"
)

type fakeRepo struct {
	mu     sync.Mutex
	orders []domain.Order
	failOn map[int]error // 1-based call index
	calls  int
	onAdd  func(n int)
}

func (f *fakeRepo) Add(_ context.Context, o domain.Order) error {
	f.mu.Lock()
	f.calls++
	n := f.calls
	err := f.failOn[n]
	if err == nil {
		f.orders = append(f.orders, o)
	}
	cb := f.onAdd
	f.mu.Unlock()
	if cb != nil {
		cb(n)
	}
	return err
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []domain.StatusEvent
}

func (p *recordingPublisher) PublishStatus(_ context.Context, ev domain.StatusEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
	return nil
}

func TestPlaceOrder(t *testing.T) {
	repo := &fakeRepo{}
	pub := &recordingPublisher{}
	ws := NewWaiterService(repo, pub, nil, 3, 0, 0)

	for i := 0; i < 20; i++ {
		_, err := ws.PlaceOrder(context.Background())
		require.NoError(t, err)
	}

	require.Len(t, repo.orders, 20)
	for i, o := range repo.orders {
		assert.Equal(t, int64(3*domain.SequenceSpan+i+1), o.ID)
		assert.NoError(t, o.Validate())
		assert.Contains(t, Menu, o.Item)
		assert.Equal(t, 3, o.ProducerID)
	}
	require.Len(t, pub.events, 20)
	assert.Equal(t, domain.StatusPending, pub.events[0].NewStatus)
	assert.Equal(t, "producer-3", pub.events[0].ChangedBy)
}

func TestPlaceOrderFailureStillAdvancesSequence(t *testing.T) {
	repo := &fakeRepo{failOn: map[int]error{1: errors.New("segment busy")}}
	pub := &recordingPublisher{}
	ws := NewWaiterService(repo, pub, nil, 1, 0, 0)

	_, err := ws.PlaceOrder(context.Background())
	assert.Error(t, err)
	o, err := ws.PlaceOrder(context.Background())
	require.NoError(t, err)

	assert.Equal(t, int64(domain.SequenceSpan+2), o.ID)
	assert.Len(t, pub.events, 1, "no event for a failed add")
}

func TestPlaceOrderSequenceExhausted(t *testing.T) {
	ws := NewWaiterService(&fakeRepo{}, nil, nil, 1, 0, 0)
	ws.seq = domain.SequenceSpan - 1

	_, err := ws.PlaceOrder(context.Background())
	assert.ErrorIs(t, err, domain.ErrSequenceExhausted)
}

func TestRunKeepsGoingAfterFailuresAndStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	repo := &fakeRepo{failOn: map[int]error{2: errors.New("transient")}}
	repo.onAdd = func(n int) {
		if n == 5 {
			cancel()
		}
	}
	ws := NewWaiterService(repo, nil, nil, 2, time.Millisecond, 2*time.Millisecond)

	done := make(chan error, 1)
	go func() { done <- ws.Run(ctx) }()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("producer did not stop")
	}

	repo.mu.Lock()
	defer repo.mu.Unlock()
	assert.GreaterOrEqual(t, repo.calls, 5)
	assert.Len(t, repo.orders, repo.calls-1)
}

func TestNextIntervalWithinRange(t *testing.T) {
	ws := NewWaiterService(&fakeRepo{}, nil, nil, 1, time.Second, 4*time.Second)
	for i := 0; i < 100; i++ {
		d := ws.nextInterval()
		assert.GreaterOrEqual(t, d, time.Second)
		assert.LessOrEqual(t, d, 4*time.Second)
	}
}
