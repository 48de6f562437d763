package service

import (
	"context"
	"fmt"
	"math/rand/v2"
	"sync/atomic"
	"time"

	"restaurant-shm/internal/common/logger"
	"restaurant-shm/internal/connections/rabbitmq"
	"restaurant-shm/internal/domain"
	"restaurant-shm/internal/microservices/kitchen/repository"
)

type KitchenServiceInterface interface {
	ProcessNext(ctx context.Context) (bool, error)
	Run(ctx context.Context) error
}

type KitchenService struct {
	db  repository.KitchenRepositoryInterface
	pub rabbitmq.StatusPublisher
	log *logger.Logger

	ConsumerID   int
	PrepMin      time.Duration
	PrepMax      time.Duration
	PollInterval time.Duration
	BeatEvery    time.Duration // интервал heartbeat

	processed atomic.Int64
	rnd       *rand.Rand
}

// NewKitchenService: удобный конструктор с базовыми дефолтами.
func NewKitchenService(db repository.KitchenRepositoryInterface, pub rabbitmq.StatusPublisher, lg *logger.Logger,
	consumerID int, prepMin, prepMax, pollInterval time.Duration) *KitchenService {
	if pub == nil {
		pub = rabbitmq.NopPublisher{}
	}
	if lg == nil {
		lg = logger.NewNop()
	}
	if pollInterval <= 0 {
		pollInterval = 500 * time.Millisecond
	}
	return &KitchenService{
		db:           db,
		pub:          pub,
		log:          lg.With(map[string]any{"consumer_id": consumerID}),
		ConsumerID:   consumerID,
		PrepMin:      prepMin,
		PrepMax:      prepMax,
		PollInterval: pollInterval,
		BeatEvery:    30 * time.Second,
		rnd:          rand.New(rand.NewPCG(uint64(time.Now().UnixNano()), uint64(consumerID))),
	}
}

func (ks *KitchenService) Run(ctx context.Context) error {
	ks.log.Info("consumer_started", map[string]any{
		"prep_min":      ks.PrepMin.String(),
		"prep_max":      ks.PrepMax.String(),
		"poll_interval": ks.PollInterval.String(),
	})

	// Heartbeat
	go func() {
		t := time.NewTicker(ks.BeatEvery)
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-t.C:
				ks.log.Debug("heartbeat_sent", map[string]any{"processed": ks.Processed()})
			}
		}
	}()

	for {
		if ctx.Err() != nil {
			break
		}
		worked, err := ks.ProcessNext(ctx)
		if err != nil && ctx.Err() == nil {
			ks.log.Error("order_processing_failed", err, nil)
		}
		if worked && err == nil {
			continue
		}
		select {
		case <-ctx.Done():
		case <-time.After(ks.PollInterval):
		}
	}

	ks.log.Info("graceful_shutdown", map[string]any{"processed": ks.Processed()})
	return nil
}

// ProcessNext claims one order, prepares it and completes it. It reports
// false when the queue had nothing pending. An order whose preparation is cut
// short by ctx stays InPreparation.
func (ks *KitchenService) ProcessNext(ctx context.Context) (bool, error) {
	o, ok, err := ks.db.ClaimNext(ctx, ks.ConsumerID)
	if err != nil {
		return false, fmt.Errorf("claim: %w", err)
	}
	if !ok {
		return false, nil
	}
	ks.publishStatus(ctx, o, domain.StatusPending, domain.StatusInPreparation)
	ks.log.Info("order_processing_started", map[string]any{"order_id": o.ID, "item": o.Item, "table": o.Table})

	// имитация готовки
	select {
	case <-time.After(ks.prepTime()):
	case <-ctx.Done():
		ks.log.Warn("order_abandoned", map[string]any{"order_id": o.ID})
		return true, ctx.Err()
	}

	done, err := ks.db.Complete(ctx, o.ID)
	if err != nil {
		return true, fmt.Errorf("complete order %d: %w", o.ID, err)
	}
	if !done {
		// уже не InPreparation: идемпотентный повтор
		ks.log.Warn("order_not_completable", map[string]any{"order_id": o.ID})
		return true, nil
	}
	total := ks.processed.Add(1)
	ks.publishStatus(ctx, o, domain.StatusInPreparation, domain.StatusCompleted)
	ks.log.Info("order_completed", map[string]any{"order_id": o.ID, "total": total})
	return true, nil
}

func (ks *KitchenService) Processed() int64 { return ks.processed.Load() }

func (ks *KitchenService) prepTime() time.Duration {
	span := ks.PrepMax - ks.PrepMin
	if span <= 0 {
		return ks.PrepMin
	}
	return ks.PrepMin + time.Duration(ks.rnd.Int64N(int64(span)+1))
}

func (ks *KitchenService) publishStatus(ctx context.Context, o domain.Order, from, to domain.Status) {
	ev := rabbitmq.NewStatusEvent(o, from, to, fmt.Sprintf("consumer-%d", ks.ConsumerID))
	if err := ks.pub.PublishStatus(ctx, ev); err != nil {
		ks.log.Warn("status_publish_failed", map[string]any{"order_id": o.ID, "error": err.Error()})
	}
}
