package orders

import (
	"context"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"restaurant-lifecycle/internal/domain"
	"restaurant-lifecycle/internal/domain/kitchen"
	"restaurant-lifecycle/internal/logger"
	"restaurant-lifecycle/internal/scheduler"
)

type fakeRepo struct {
	mu     sync.Mutex
	orders map[uuid.UUID]*kitchen.Order
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{orders: make(map[uuid.UUID]*kitchen.Order)}
}

func (r *fakeRepo) Create(_ context.Context, order *kitchen.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.orders[order.ID] = order
	return nil
}

func (r *fakeRepo) Update(_ context.Context, order *kitchen.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.orders[order.ID] = order
	return nil
}

func (r *fakeRepo) Get(_ context.Context, id uuid.UUID) (*kitchen.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	order, ok := r.orders[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return order, nil
}

func (r *fakeRepo) GetByNumber(_ context.Context, number string) (*kitchen.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, order := range r.orders {
		if order.Number == number {
			return order, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (r *fakeRepo) ListByStatus(_ context.Context, status kitchen.Status) ([]*kitchen.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*kitchen.Order
	for _, order := range r.orders {
		if order.Status == status {
			out = append(out, order)
		}
	}
	return out, nil
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []domain.Event
}

func (p *recordingPublisher) PublishEvent(_ context.Context, event domain.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return nil
}

func (p *recordingPublisher) names() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.EventName())
	}
	return out
}

func newTestService(t *testing.T) (*Service, *fakeRepo, *recordingPublisher, *scheduler.Timers) {
	t.Helper()
	repo := newFakeRepo()
	publisher := &recordingPublisher{}
	timers := scheduler.New()
	t.Cleanup(timers.Stop)
	svc := NewService(repo, publisher, timers, logger.New("orders-test"))
	return svc, repo, publisher, timers
}

func placeRequest() PlaceOrderRequest {
	return PlaceOrderRequest{
		TableID: uuid.New(),
		Type:    kitchen.DineIn,
		Items: []kitchen.ItemSpec{{
			MenuItemID: uuid.New(),
			Name:       "Margherita",
			UnitPrice:  decimal.NewFromInt(12),
			Quantity:   1,
			Section:    kitchen.SectionHot,
		}},
	}
}

func TestPlaceOrder_PersistsAndPublishes(t *testing.T) {
	svc, repo, publisher, _ := newTestService(t)

	order, err := svc.PlaceOrder(context.Background(), placeRequest(), "req-1")
	if err != nil {
		t.Fatalf("PlaceOrder: %v", err)
	}

	if _, err := repo.Get(context.Background(), order.ID); err != nil {
		t.Errorf("order not persisted: %v", err)
	}
	names := publisher.names()
	if len(names) != 1 || names[0] != kitchen.EventOrderPlaced {
		t.Errorf("published events = %v, want [%s]", names, kitchen.EventOrderPlaced)
	}
}

func TestMarkAsReady_ArmsCoolingDownTimer(t *testing.T) {
	svc, _, _, timers := newTestService(t)
	ctx := context.Background()

	order, err := svc.PlaceOrder(ctx, placeRequest(), "req-1")
	if err != nil {
		t.Fatalf("PlaceOrder: %v", err)
	}
	if _, err := svc.Accept(ctx, order.ID, "chef-1", "", "req-2"); err != nil {
		t.Fatalf("Accept: %v", err)
	}
	if _, err := svc.StartPreparation(ctx, order.ID, "chef-1", "req-3"); err != nil {
		t.Fatalf("StartPreparation: %v", err)
	}
	if _, err := svc.MarkAsReady(ctx, order.ID, "chef-1", "passed", "req-4"); err != nil {
		t.Fatalf("MarkAsReady: %v", err)
	}

	if timers.Pending() != 1 {
		t.Errorf("pending timers = %d after ready, want 1", timers.Pending())
	}

	if _, err := svc.MarkAsServed(ctx, order.ID, "waiter-1", "req-5"); err != nil {
		t.Fatalf("MarkAsServed: %v", err)
	}
	if timers.Pending() != 0 {
		t.Errorf("pending timers = %d after serve, want 0", timers.Pending())
	}
}

func TestCoolingDownCheck_FiresWhileReady(t *testing.T) {
	svc, _, publisher, _ := newTestService(t)
	ctx := context.Background()

	order, _ := svc.PlaceOrder(ctx, placeRequest(), "req-1")
	svc.Accept(ctx, order.ID, "chef-1", "", "req-2")
	svc.StartPreparation(ctx, order.ID, "chef-1", "req-3")
	svc.MarkAsReady(ctx, order.ID, "chef-1", "", "req-4")

	svc.coolingDownCheck(order.ID)

	names := publisher.names()
	if names[len(names)-1] != kitchen.EventOrderCoolingDown {
		t.Errorf("last event = %s, want %s", names[len(names)-1], kitchen.EventOrderCoolingDown)
	}
}

func TestCoolingDownCheck_SuppressedOnceServed(t *testing.T) {
	svc, _, publisher, _ := newTestService(t)
	ctx := context.Background()

	order, _ := svc.PlaceOrder(ctx, placeRequest(), "req-1")
	svc.Accept(ctx, order.ID, "chef-1", "", "req-2")
	svc.StartPreparation(ctx, order.ID, "chef-1", "req-3")
	svc.MarkAsReady(ctx, order.ID, "chef-1", "", "req-4")
	svc.MarkAsServed(ctx, order.ID, "waiter-1", "req-5")

	before := len(publisher.names())
	svc.coolingDownCheck(order.ID)
	if after := len(publisher.names()); after != before {
		t.Errorf("cooling-down alert published for a served order")
	}
}

func TestCancel_DisarmsTimerAndPublishes(t *testing.T) {
	svc, _, publisher, timers := newTestService(t)
	ctx := context.Background()

	order, _ := svc.PlaceOrder(ctx, placeRequest(), "req-1")
	svc.Accept(ctx, order.ID, "chef-1", "", "req-2")
	svc.StartPreparation(ctx, order.ID, "chef-1", "req-3")
	svc.MarkAsReady(ctx, order.ID, "chef-1", "", "req-4")

	if _, err := svc.Cancel(ctx, order.ID, "guest left", "manager-1", "req-5"); err != nil {
		t.Fatalf("Cancel: %v", err)
	}
	if timers.Pending() != 0 {
		t.Errorf("pending timers = %d after cancel, want 0", timers.Pending())
	}
	names := publisher.names()
	if names[len(names)-1] != kitchen.EventOrderCancelled {
		t.Errorf("last event = %s, want %s", names[len(names)-1], kitchen.EventOrderCancelled)
	}
}

func TestCommandFailure_PublishesNothing(t *testing.T) {
	svc, _, publisher, _ := newTestService(t)
	ctx := context.Background()

	order, _ := svc.PlaceOrder(ctx, placeRequest(), "req-1")
	before := len(publisher.names())

	if _, err := svc.MarkAsServed(ctx, order.ID, "waiter-1", "req-2"); err == nil {
		t.Fatal("expected serving a pending order to fail")
	}
	if after := len(publisher.names()); after != before {
		t.Errorf("events published on failed command")
	}
}

func TestGet_UnknownOrder(t *testing.T) {
	svc, _, _, _ := newTestService(t)

	_, err := svc.Get(context.Background(), uuid.New())
	if err != domain.ErrNotFound {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}
