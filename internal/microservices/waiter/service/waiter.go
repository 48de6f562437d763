package service

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"time"

	"restaurant-shm/internal/common/logger"
	"restaurant-shm/internal/connections/rabbitmq"
	"restaurant-shm/internal/domain"
	"restaurant-shm/internal/microservices/waiter/repository"
)

var Menu = []string{
	"Pizza Margherita",
	"Artisan Burger",
	"Caesar Salad",
	"Spaghetti Carbonara",
	"Mushroom Risotto",
	"Filet Mignon",
	"Assorted Sushi",
	"Lasagna Bolognese",
	"Grilled Chicken",
	"Roasted Fish",
}

type WaiterServiceInterface interface {
	PlaceOrder(ctx context.Context) (domain.Order, error)
	Run(ctx context.Context) error
}

type WaiterService struct {
	repo repository.WaiterRepositoryInterface
	pub  rabbitmq.StatusPublisher
	log  *logger.Logger

	ProducerID  int
	IntervalMin time.Duration
	IntervalMax time.Duration
	Menu        []string

	seq    int64
	placed int
	failed int
	rnd    *rand.Rand
}

func NewWaiterService(repo repository.WaiterRepositoryInterface, pub rabbitmq.StatusPublisher, lg *logger.Logger,
	producerID int, intervalMin, intervalMax time.Duration) *WaiterService {
	if pub == nil {
		pub = rabbitmq.NopPublisher{}
	}
	if lg == nil {
		lg = logger.NewNop()
	}
	seed := uint64(time.Now().UnixNano())
	return &WaiterService{
		repo:        repo,
		pub:         pub,
		log:         lg.With(map[string]any{"producer_id": producerID}),
		ProducerID:  producerID,
		IntervalMin: intervalMin,
		IntervalMax: intervalMax,
		Menu:        Menu,
		rnd:         rand.New(rand.NewPCG(seed, uint64(producerID))),
	}
}

// PlaceOrder takes the next sequence number and adds one random order. The
// sequence advances even when the add fails, so an id is never offered twice.
func (ws *WaiterService) PlaceOrder(ctx context.Context) (domain.Order, error) {
	ws.seq++
	id, err := domain.NewOrderID(ws.ProducerID, ws.seq)
	if err != nil {
		return domain.Order{}, err
	}
	o := domain.NewOrder(id, domain.MinTable+ws.rnd.IntN(domain.MaxTable-domain.MinTable+1), ws.Menu[ws.rnd.IntN(len(ws.Menu))], ws.ProducerID)

	if err := ws.repo.Add(ctx, o); err != nil {
		ws.failed++
		return o, fmt.Errorf("add order %d: %w", o.ID, err)
	}
	ws.placed++

	ev := rabbitmq.NewStatusEvent(o, "", domain.StatusPending, fmt.Sprintf("producer-%d", ws.ProducerID))
	if err := ws.pub.PublishStatus(ctx, ev); err != nil {
		ws.log.Warn("status_publish_failed", map[string]any{"order_id": o.ID, "error": err.Error()})
	}
	return o, nil
}

// Run places orders at random intervals until ctx ends. Failed adds are
// logged and skipped; only an exhausted id sequence stops the loop early.
func (ws *WaiterService) Run(ctx context.Context) error {
	if len(ws.Menu) == 0 {
		return errors.New("menu is empty")
	}
	ws.log.Info("producer_started", map[string]any{
		"interval_min": ws.IntervalMin.String(),
		"interval_max": ws.IntervalMax.String(),
	})
	defer func() {
		ws.log.Info("producer_stopped", map[string]any{"placed": ws.placed, "failed": ws.failed})
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-time.After(ws.nextInterval()):
		}

		o, err := ws.PlaceOrder(ctx)
		switch {
		case err == nil:
			ws.log.Info("order_created", map[string]any{"order_id": o.ID, "item": o.Item, "table": o.Table})
		case errors.Is(err, domain.ErrSequenceExhausted):
			ws.log.Error("sequence_exhausted", err, nil)
			return err
		case ctx.Err() != nil:
			return nil
		default:
			ws.log.Error("order_create_failed", err, map[string]any{"order_id": o.ID})
		}
	}
}

func (ws *WaiterService) nextInterval() time.Duration {
	span := ws.IntervalMax - ws.IntervalMin
	if span <= 0 {
		return ws.IntervalMin
	}
	return ws.IntervalMin + time.Duration(ws.rnd.Int64N(int64(span)+1))
}
