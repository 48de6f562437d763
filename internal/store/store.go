// Package store keeps the order queue in a shared segment. Every operation
// runs one locked read-decode-mutate-encode-write cycle against the segment,
// so any number of processes can attach their own Store to the same name.
package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"restaurant-shm/internal/codec"
	"restaurant-shm/internal/common/logger"
	"restaurant-shm/internal/domain"
	"restaurant-shm/internal/shm"
)

const (
	DefaultName        = "orders_shm"
	DefaultMaxAttempts = 3
	DefaultRetryDelay  = 100 * time.Millisecond
)

type Options struct {
	Name        string
	Dir         string // empty means shm.DefaultDir()
	Capacity    int
	MaxAttempts int
	RetryDelay  time.Duration
	Logger      *logger.Logger
}

func (o Options) withDefaults() Options {
	if o.Name == "" {
		o.Name = DefaultName
	}
	if o.Capacity <= 0 {
		o.Capacity = codec.DefaultCapacity
	}
	if o.MaxAttempts <= 0 {
		o.MaxAttempts = DefaultMaxAttempts
	}
	if o.RetryDelay < 0 {
		o.RetryDelay = 0
	}
	if o.Logger == nil {
		o.Logger = logger.NewNop()
	}
	return o
}

type frameCodec interface {
	WriteSnapshot(buf []byte, s domain.Snapshot) error
	DecodeStrict(buf []byte) (domain.Snapshot, error)
	Decode(buf []byte) domain.Snapshot
}

type Store struct {
	opts  Options
	seg   *shm.Segment
	codec frameCodec
	log   *logger.Logger
}

// Initialize creates the segment, replacing any previous one under the same
// name, and writes an empty snapshot before publishing it.
func Initialize(opts Options) (*Store, error) {
	opts = opts.withDefaults()
	c := codec.New(opts.Capacity)
	seg, err := shm.Create(opts.Dir, opts.Name, opts.Capacity, func(mem []byte) error {
		return c.WriteSnapshot(mem, domain.EmptySnapshot())
	})
	if err != nil {
		return nil, fmt.Errorf("initialize store %s: %w", opts.Name, err)
	}
	s := newStore(opts, seg, c)
	s.log.Info("store_initialized", map[string]any{"capacity": opts.Capacity, "path": seg.Path()})
	return s, nil
}

// Attach opens a segment some other process initialized. The capacity is taken
// from the segment itself.
func Attach(opts Options) (*Store, error) {
	opts = opts.withDefaults()
	seg, err := shm.Open(opts.Dir, opts.Name)
	if err != nil {
		return nil, fmt.Errorf("attach store %s: %w", opts.Name, err)
	}
	opts.Capacity = seg.Size()
	return newStore(opts, seg, codec.New(opts.Capacity)), nil
}

// WaitAttach retries Attach while the segment does not exist yet.
func WaitAttach(ctx context.Context, opts Options, attempts int, delay time.Duration) (*Store, error) {
	if attempts < 1 {
		attempts = 1
	}
	var lastErr error
	for i := 0; i < attempts; i++ {
		s, err := Attach(opts)
		if err == nil {
			return s, nil
		}
		if !errors.Is(err, ErrNotFound) {
			return nil, err
		}
		lastErr = err
		if i == attempts-1 {
			break
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(delay):
		}
	}
	return nil, lastErr
}

func newStore(opts Options, seg *shm.Segment, c frameCodec) *Store {
	return &Store{
		opts:  opts,
		seg:   seg,
		codec: c,
		log:   opts.Logger.With(map[string]any{"segment": opts.Name}),
	}
}

func (s *Store) Name() string { return s.opts.Name }

// Add appends a validated Pending order and bumps TotalCreated.
func (s *Store) Add(ctx context.Context, o domain.Order) error {
	if err := o.Validate(); err != nil {
		return err
	}
	return s.update(ctx, "add", func(snap *domain.Snapshot) (bool, error) {
		if snap.IndexOf(o.ID) >= 0 {
			return false, fmt.Errorf("%w: %d", ErrDuplicateOrder, o.ID)
		}
		snap.Orders = append(snap.Orders, o)
		snap.Stats.TotalCreated++
		return true, nil
	})
}

// ClaimNext moves the oldest Pending order to InPreparation for consumerID.
// ok is false when nothing is pending; the segment is not written then.
func (s *Store) ClaimNext(ctx context.Context, consumerID int) (order domain.Order, ok bool, err error) {
	err = s.update(ctx, "claim", func(snap *domain.Snapshot) (bool, error) {
		ok = false
		for i := range snap.Orders {
			if snap.Orders[i].Status != domain.StatusPending {
				continue
			}
			snap.Orders[i].Status = domain.StatusInPreparation
			snap.Orders[i].ConsumerID = consumerID
			order, ok = snap.Orders[i], true
			return true, nil
		}
		return false, nil
	})
	if err != nil {
		return domain.Order{}, false, err
	}
	return order, ok, nil
}

// Complete finishes an order a consumer holds. It reports false for an
// unknown id or an order that is not InPreparation, so repeating the call
// never counts twice.
func (s *Store) Complete(ctx context.Context, orderID int64) (bool, error) {
	var done bool
	err := s.update(ctx, "complete", func(snap *domain.Snapshot) (bool, error) {
		done = false
		i := snap.IndexOf(orderID)
		if i < 0 || !snap.Orders[i].Status.CanTransitionTo(domain.StatusCompleted) {
			return false, nil
		}
		snap.Orders[i].Status = domain.StatusCompleted
		snap.Stats.TotalProcessed++
		done = true
		return true, nil
	})
	if err != nil {
		return false, err
	}
	return done, nil
}

// Clear resets the store to the empty snapshot, stats included.
func (s *Store) Clear(ctx context.Context) error {
	return s.update(ctx, "clear", func(snap *domain.Snapshot) (bool, error) {
		*snap = domain.EmptySnapshot()
		return true, nil
	})
}

// Snapshot returns a copy of the whole state taken in one read cycle.
func (s *Store) Snapshot(ctx context.Context) (domain.Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return domain.Snapshot{}, err
	}
	mem, err := s.seg.Lock()
	if err != nil {
		return domain.Snapshot{}, s.mapClosed(err)
	}
	snap := s.codec.Decode(mem)
	if err := s.seg.Unlock(); err != nil {
		return domain.Snapshot{}, err
	}
	return snap, nil
}

func (s *Store) Orders(ctx context.Context) ([]domain.Order, error) {
	snap, err := s.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return snap.Orders, nil
}

func (s *Store) Statistics(ctx context.Context) (domain.Statistics, error) {
	snap, err := s.Snapshot(ctx)
	if err != nil {
		return domain.Statistics{}, err
	}
	return snap.Stats, nil
}

// Close detaches this handle; the segment stays available to others.
func (s *Store) Close() error {
	return s.seg.Close()
}

// Destroy detaches and unlinks the segment. Later Attach calls fail with
// ErrNotFound; processes already attached keep their mapping until they close.
func (s *Store) Destroy() error {
	if err := s.seg.Remove(); err != nil {
		return fmt.Errorf("destroy store %s: %w", s.opts.Name, err)
	}
	s.log.Info("store_destroyed", nil)
	return nil
}

// Destroy unlinks a named segment without attaching to it.
func Destroy(opts Options) error {
	opts = opts.withDefaults()
	return shm.Remove(opts.Dir, opts.Name)
}

// update runs fn inside one locked cycle, retrying transient failures. fn
// reports whether it changed the snapshot; nothing is written when it did not.
func (s *Store) update(ctx context.Context, op string, fn func(*domain.Snapshot) (bool, error)) error {
	var err error
	for attempt := 1; attempt <= s.opts.MaxAttempts; attempt++ {
		if cerr := ctx.Err(); cerr != nil {
			return cerr
		}
		err = s.cycle(fn)
		if err == nil || !transient(err) {
			return err
		}
		s.log.Warn("store_retry", map[string]any{
			"op":      op,
			"attempt": attempt,
			"error":   err.Error(),
		})
		if attempt == s.opts.MaxAttempts {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(s.opts.RetryDelay):
		}
	}
	return fmt.Errorf("%w: %s after %d attempts: %w", ErrRetriesExhausted, op, s.opts.MaxAttempts, err)
}

func (s *Store) cycle(fn func(*domain.Snapshot) (bool, error)) error {
	mem, err := s.seg.Lock()
	if err != nil {
		return s.mapClosed(err)
	}
	// An unlock failure is logged, not returned: the cycle's write has
	// already landed and retrying it would apply the mutation twice.
	defer func() {
		if uerr := s.seg.Unlock(); uerr != nil {
			s.log.Error("store_unlock_failed", uerr, nil)
		}
	}()

	snap, err := s.codec.DecodeStrict(mem)
	if err != nil {
		return err
	}
	changed, err := fn(&snap)
	if err != nil || !changed {
		return err
	}
	snap.Stats.InQueue = snap.CountStatus(domain.StatusPending)
	return s.codec.WriteSnapshot(mem, snap)
}

func (s *Store) mapClosed(err error) error {
	if errors.Is(err, shm.ErrClosed) {
		return ErrClosed
	}
	return err
}
