package tables

import (
	"context"
	"sync"
	"testing"

	"github.com/google/uuid"

	"restaurant-lifecycle/internal/domain"
	"restaurant-lifecycle/internal/domain/dining"
	"restaurant-lifecycle/internal/logger"
)

type fakeRepo struct {
	mu     sync.Mutex
	tables map[uuid.UUID]*dining.Table
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{tables: make(map[uuid.UUID]*dining.Table)}
}

func (r *fakeRepo) Create(_ context.Context, table *dining.Table) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tables[table.ID] = table
	return nil
}

func (r *fakeRepo) Update(_ context.Context, table *dining.Table) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tables[table.ID] = table
	return nil
}

func (r *fakeRepo) Get(_ context.Context, id uuid.UUID) (*dining.Table, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	table, ok := r.tables[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return table, nil
}

func (r *fakeRepo) GetByNumber(_ context.Context, number string) (*dining.Table, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, table := range r.tables {
		if table.Number == number {
			return table, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (r *fakeRepo) List(_ context.Context) ([]*dining.Table, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*dining.Table
	for _, table := range r.tables {
		out = append(out, table)
	}
	return out, nil
}

func (r *fakeRepo) ListByStatus(_ context.Context, status dining.Status) ([]*dining.Table, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*dining.Table
	for _, table := range r.tables {
		if table.Status == status {
			out = append(out, table)
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

func (p *recordingPublisher) lastName() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.events) == 0 {
		return ""
	}
	return p.events[len(p.events)-1].EventName()
}

func newTestService() (*Service, *recordingPublisher) {
	publisher := &recordingPublisher{}
	return NewService(newFakeRepo(), publisher, logger.New("tables-test")), publisher
}

func TestRegisterTable_PublishesTableAdded(t *testing.T) {
	svc, publisher := newTestService()

	table, err := svc.RegisterTable(context.Background(), RegisterTableRequest{
		Number: "t1",
		Seats:  4,
		Zone:   "terrace",
	}, "req-1")
	if err != nil {
		t.Fatalf("RegisterTable: %v", err)
	}

	if table.Number != "T1" {
		t.Errorf("number = %q, want normalized T1", table.Number)
	}
	if publisher.lastName() != dining.EventTableAdded {
		t.Errorf("last event = %s, want %s", publisher.lastName(), dining.EventTableAdded)
	}
}

func TestRegisterTable_RejectsBadCapacity(t *testing.T) {
	svc, _ := newTestService()

	_, err := svc.RegisterTable(context.Background(), RegisterTableRequest{Number: "T2", Seats: 30}, "req-1")
	if !domain.IsValidation(err) {
		t.Errorf("err = %v, want validation error", err)
	}
}

func TestChangeStatus_RejectsForbiddenTransition(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	table, err := svc.RegisterTable(ctx, RegisterTableRequest{Number: "T3", Seats: 2}, "req-1")
	if err != nil {
		t.Fatalf("RegisterTable: %v", err)
	}

	// Available -> Occupied is a walk-in, allowed.
	if _, err := svc.ChangeStatus(ctx, table.ID, dining.StatusOccupied, "host-1", "walk-in", "req-2"); err != nil {
		t.Fatalf("ChangeStatus to occupied: %v", err)
	}
	// Occupied -> Reserved is not.
	_, err = svc.ChangeStatus(ctx, table.ID, dining.StatusReserved, "host-1", "", "req-3")
	if !domain.IsTransition(err) {
		t.Errorf("err = %v, want transition error", err)
	}
}

func TestMaintenanceRoundTrip(t *testing.T) {
	svc, publisher := newTestService()
	ctx := context.Background()

	table, err := svc.RegisterTable(ctx, RegisterTableRequest{Number: "T4", Seats: 6}, "req-1")
	if err != nil {
		t.Fatalf("RegisterTable: %v", err)
	}

	table, err = svc.AddMaintenance(ctx, table.ID, "repair", "wobbly leg", "facilities", nil, "req-2")
	if err != nil {
		t.Fatalf("AddMaintenance: %v", err)
	}
	if table.Status != dining.StatusOutOfService {
		t.Errorf("status = %s after opening maintenance, want out_of_service", table.Status)
	}
	if publisher.lastName() != dining.EventMaintenanceOpened {
		t.Errorf("last event = %s, want %s", publisher.lastName(), dining.EventMaintenanceOpened)
	}

	records := table.Maintenance()
	if len(records) != 1 {
		t.Fatalf("maintenance records = %d, want 1", len(records))
	}

	table, err = svc.CompleteMaintenance(ctx, table.ID, records[0].ID, nil, "req-3")
	if err != nil {
		t.Fatalf("CompleteMaintenance: %v", err)
	}
	if publisher.lastName() != dining.EventMaintenanceCompleted {
		t.Errorf("last event = %s, want %s", publisher.lastName(), dining.EventMaintenanceCompleted)
	}
}

func TestDeactivateReactivate(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	table, err := svc.RegisterTable(ctx, RegisterTableRequest{Number: "T5", Seats: 4}, "req-1")
	if err != nil {
		t.Fatalf("RegisterTable: %v", err)
	}

	table, err = svc.Deactivate(ctx, table.ID, "season closed", "req-2")
	if err != nil {
		t.Fatalf("Deactivate: %v", err)
	}
	if table.Active {
		t.Error("table still active after deactivation")
	}

	table, err = svc.Reactivate(ctx, table.ID, "req-3")
	if err != nil {
		t.Fatalf("Reactivate: %v", err)
	}
	if !table.Active || table.Status != dining.StatusAvailable {
		t.Errorf("active = %v status = %s after reactivation", table.Active, table.Status)
	}
}
