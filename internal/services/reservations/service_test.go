package reservations

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"restaurant-lifecycle/internal/domain"
	"restaurant-lifecycle/internal/domain/booking"
	"restaurant-lifecycle/internal/domain/dining"
	"restaurant-lifecycle/internal/logger"
)

type fakeRepo struct {
	mu           sync.Mutex
	reservations map[uuid.UUID]*booking.Reservation
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{reservations: make(map[uuid.UUID]*booking.Reservation)}
}

func (r *fakeRepo) Create(_ context.Context, reservation *booking.Reservation) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.reservations[reservation.ID] = reservation
	return nil
}

func (r *fakeRepo) Update(_ context.Context, reservation *booking.Reservation) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.reservations[reservation.ID] = reservation
	return nil
}

func (r *fakeRepo) Get(_ context.Context, id uuid.UUID) (*booking.Reservation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	reservation, ok := r.reservations[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return reservation, nil
}

func (r *fakeRepo) ListByTable(_ context.Context, tableID uuid.UUID) ([]*booking.Reservation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*booking.Reservation
	for _, reservation := range r.reservations {
		if reservation.TableID == tableID {
			out = append(out, reservation)
		}
	}
	return out, nil
}

func (r *fakeRepo) ListUpcoming(_ context.Context, from, to time.Time) ([]*booking.Reservation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*booking.Reservation
	for _, reservation := range r.reservations {
		if !reservation.ScheduledAt.Before(from) && !reservation.ScheduledAt.After(to) {
			out = append(out, reservation)
		}
	}
	return out, nil
}

type fakeTableRepo struct {
	mu     sync.Mutex
	tables map[uuid.UUID]*dining.Table
}

func newFakeTableRepo() *fakeTableRepo {
	return &fakeTableRepo{tables: make(map[uuid.UUID]*dining.Table)}
}

func (r *fakeTableRepo) Create(_ context.Context, table *dining.Table) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tables[table.ID] = table
	return nil
}

func (r *fakeTableRepo) Update(_ context.Context, table *dining.Table) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tables[table.ID] = table
	return nil
}

func (r *fakeTableRepo) Get(_ context.Context, id uuid.UUID) (*dining.Table, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	table, ok := r.tables[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return table, nil
}

func (r *fakeTableRepo) GetByNumber(_ context.Context, number string) (*dining.Table, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, table := range r.tables {
		if table.Number == number {
			return table, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (r *fakeTableRepo) List(_ context.Context) ([]*dining.Table, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*dining.Table
	for _, table := range r.tables {
		out = append(out, table)
	}
	return out, nil
}

func (r *fakeTableRepo) ListByStatus(_ context.Context, status dining.Status) ([]*dining.Table, error) {
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

func (p *recordingPublisher) names() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.EventName())
	}
	return out
}

func newTestService(t *testing.T, seats int) (*Service, *dining.Table, *recordingPublisher) {
	t.Helper()
	tableRepo := newFakeTableRepo()

	capacity, err := dining.NewCapacity(seats)
	if err != nil {
		t.Fatalf("NewCapacity: %v", err)
	}
	table, _, err := dining.NewTable("T1", capacity, "main", nil, dining.Features{})
	if err != nil {
		t.Fatalf("NewTable: %v", err)
	}
	tableRepo.Create(context.Background(), table)

	publisher := &recordingPublisher{}
	svc := NewService(newFakeRepo(), tableRepo, publisher, logger.New("reservations-test"))
	return svc, table, publisher
}

func bookRequest(tableID uuid.UUID, partySize int) BookRequest {
	return BookRequest{
		TableID:     tableID,
		ScheduledAt: time.Now().Add(3 * time.Hour),
		PartySize:   partySize,
		Contact:     booking.Contact{Name: "Ada Lovelace", Phone: "+1-555-0101"},
	}
}

// Full happy path: book for 4 at T+3h, confirm, seat 5 (inside the
// tolerance band), complete with a 120.00 bill. The table walks
// Available -> Reserved -> Occupied -> Cleaning and books the revenue.
func TestSeatingAndCompletionOrchestration(t *testing.T) {
	svc, table, publisher := newTestService(t, 6)
	ctx := context.Background()

	reservation, err := svc.Book(ctx, bookRequest(table.ID, 4), "req-1")
	if err != nil {
		t.Fatalf("Book: %v", err)
	}
	if table.Status != dining.StatusAvailable {
		t.Fatalf("table status = %s after booking, want available", table.Status)
	}

	if _, err := svc.Confirm(ctx, reservation.ID, "waiter-1", "req-2"); err != nil {
		t.Fatalf("Confirm: %v", err)
	}
	if table.Status != dining.StatusReserved {
		t.Errorf("table status = %s after confirm, want reserved", table.Status)
	}

	reservation, err = svc.SeatCustomers(ctx, reservation.ID, 5, "waiter-1", "req-3")
	if err != nil {
		t.Fatalf("SeatCustomers: %v", err)
	}
	if reservation.Status != booking.StatusSeated {
		t.Errorf("reservation status = %s, want seated", reservation.Status)
	}
	if reservation.ActualPartySize == nil || *reservation.ActualPartySize != 5 {
		t.Errorf("actual party size = %v, want 5", reservation.ActualPartySize)
	}
	if table.Status != dining.StatusOccupied {
		t.Errorf("table status = %s after seating, want occupied", table.Status)
	}

	bill := decimal.RequireFromString("120.00")
	reservation, err = svc.Complete(ctx, reservation.ID, &bill, nil, "req-4")
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if reservation.Status != booking.StatusCompleted {
		t.Errorf("reservation status = %s, want completed", reservation.Status)
	}
	if reservation.ActualDuration == nil {
		t.Error("actual duration not recorded")
	}
	if table.Status != dining.StatusCleaning {
		t.Errorf("table status = %s after completion, want cleaning", table.Status)
	}
	if !table.DailyRevenue.Equal(bill) {
		t.Errorf("daily revenue = %s, want %s", table.DailyRevenue, bill)
	}

	names := publisher.names()
	want := []string{
		booking.EventReservationCreated,
		booking.EventReservationConfirmed, dining.EventTableStatusChanged,
		booking.EventCustomersSeated, dining.EventTableStatusChanged,
		booking.EventReservationCompleted, dining.EventTableReleased,
	}
	if len(names) != len(want) {
		t.Fatalf("published %d events %v, want %d", len(names), names, len(want))
	}
	for i := range want {
		if names[i] != want[i] {
			t.Errorf("event[%d] = %s, want %s", i, names[i], want[i])
		}
	}
}

// A party of 10 on a party-of-4 booking is outside the tolerance band; the
// reservation must stay Confirmed and the table stays held.
func TestSeatCustomers_OutsideToleranceRejected(t *testing.T) {
	svc, table, _ := newTestService(t, 12)
	ctx := context.Background()

	reservation, err := svc.Book(ctx, bookRequest(table.ID, 4), "req-1")
	if err != nil {
		t.Fatalf("Book: %v", err)
	}
	if _, err := svc.Confirm(ctx, reservation.ID, "", "req-2"); err != nil {
		t.Fatalf("Confirm: %v", err)
	}

	_, err = svc.SeatCustomers(ctx, reservation.ID, 10, "", "req-3")
	if !domain.IsValidation(err) {
		t.Fatalf("err = %v, want validation error", err)
	}
	if reservation.Status != booking.StatusConfirmed {
		t.Errorf("reservation status = %s, want confirmed", reservation.Status)
	}
	if table.Status != dining.StatusReserved {
		t.Errorf("table status = %s, want reserved", table.Status)
	}
}

// The reservation-side tolerance admits 5 guests on a booking for 4, but a
// 4-seat table cannot hold them: the table side fails and the reservation
// must be compensated back to Confirmed.
func TestSeatCustomers_TableFailureCompensates(t *testing.T) {
	svc, table, _ := newTestService(t, 4)
	ctx := context.Background()

	reservation, err := svc.Book(ctx, bookRequest(table.ID, 4), "req-1")
	if err != nil {
		t.Fatalf("Book: %v", err)
	}
	if _, err := svc.Confirm(ctx, reservation.ID, "", "req-2"); err != nil {
		t.Fatalf("Confirm: %v", err)
	}

	if _, err := svc.SeatCustomers(ctx, reservation.ID, 5, "", "req-3"); err == nil {
		t.Fatal("expected table-side seating to fail")
	}
	if reservation.Status != booking.StatusConfirmed {
		t.Errorf("reservation status = %s after compensation, want confirmed", reservation.Status)
	}
	if reservation.SeatedAt != nil {
		t.Error("seated-at timestamp survived compensation")
	}
	if table.Status != dining.StatusReserved {
		t.Errorf("table status = %s, want reserved", table.Status)
	}
}

func TestCancel_FreesHeldTable(t *testing.T) {
	svc, table, publisher := newTestService(t, 6)
	ctx := context.Background()

	reservation, err := svc.Book(ctx, bookRequest(table.ID, 2), "req-1")
	if err != nil {
		t.Fatalf("Book: %v", err)
	}
	if _, err := svc.Confirm(ctx, reservation.ID, "", "req-2"); err != nil {
		t.Fatalf("Confirm: %v", err)
	}

	reservation, err = svc.Cancel(ctx, reservation.ID, "plans changed", "req-3")
	if err != nil {
		t.Fatalf("Cancel: %v", err)
	}
	if reservation.Status != booking.StatusCancelled {
		t.Errorf("reservation status = %s, want cancelled", reservation.Status)
	}
	if table.Status != dining.StatusAvailable {
		t.Errorf("table status = %s after cancel, want available", table.Status)
	}
	if table.CurrentReservationID != nil {
		t.Error("table still references the cancelled reservation")
	}

	names := publisher.names()
	if names[len(names)-2] != booking.EventReservationCancelled {
		t.Errorf("expected reservation.cancelled before the table event, got %v", names)
	}
}

func TestBook_UnknownTableRejected(t *testing.T) {
	svc, _, _ := newTestService(t, 4)

	_, err := svc.Book(context.Background(), bookRequest(uuid.New(), 2), "req-1")
	if err == nil {
		t.Fatal("expected booking on an unknown table to fail")
	}
}

func TestModify_ValidatesTargetTable(t *testing.T) {
	svc, table, _ := newTestService(t, 4)
	ctx := context.Background()

	reservation, err := svc.Book(ctx, bookRequest(table.ID, 2), "req-1")
	if err != nil {
		t.Fatalf("Book: %v", err)
	}

	unknown := uuid.New()
	_, err = svc.Modify(ctx, reservation.ID, booking.ModifyRequest{TableID: &unknown}, "req-2")
	if err == nil {
		t.Fatal("expected moving to an unknown table to fail")
	}
}
