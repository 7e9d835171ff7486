package reservations

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"restaurant-lifecycle/internal/domain/booking"
	"restaurant-lifecycle/internal/logger"
	"restaurant-lifecycle/internal/services/rest"
)

// Handler handles HTTP requests for reservations
type Handler struct {
	service *Service
	logger  *logger.Logger
}

func NewHandler(service *Service, log *logger.Logger) *Handler {
	return &Handler{
		service: service,
		logger:  log,
	}
}

// SetupRoutes registers the reservation routes on the given mux.
func (h *Handler) SetupRoutes(mux *http.ServeMux) {
	route := func(pattern string, fn http.HandlerFunc) {
		mux.HandleFunc(pattern, rest.WithLogging(h.logger, fn))
	}

	route("POST /reservations", h.book)
	route("GET /reservations/upcoming", h.listUpcoming)
	route("GET /reservations/{id}", h.getReservation)
	route("GET /tables/{tableID}/reservations", h.listByTable)
	route("POST /reservations/{id}/confirm", h.confirm)
	route("POST /reservations/{id}/seat", h.seatCustomers)
	route("POST /reservations/{id}/complete", h.complete)
	route("POST /reservations/{id}/cancel", h.cancel)
	route("POST /reservations/{id}/no-show", h.markAsNoShow)
	route("PATCH /reservations/{id}", h.modify)
}

// reservationResponse augments the aggregate with its modification history
// and the derived schedule values.
type reservationResponse struct {
	*booking.Reservation
	Modifications   []booking.Modification `json:"modifications,omitempty"`
	TimeUntil       time.Duration          `json:"time_until_reservation"`
	IsUpcoming      bool                   `json:"is_upcoming"`
	IsLate          bool                   `json:"is_late"`
	ExpectedEndTime time.Time              `json:"expected_end_time"`
	CanBeModified   bool                   `json:"can_be_modified"`
}

func toReservationResponse(reservation *booking.Reservation) reservationResponse {
	return reservationResponse{
		Reservation:     reservation,
		Modifications:   reservation.Modifications(),
		TimeUntil:       reservation.TimeUntilReservation(),
		IsUpcoming:      reservation.IsUpcoming(),
		IsLate:          reservation.IsLate(),
		ExpectedEndTime: reservation.ExpectedEndTime(),
		CanBeModified:   reservation.CanBeModified(),
	}
}

func (h *Handler) book(w http.ResponseWriter, r *http.Request) {
	requestID := logger.GenerateRequestID()

	var req BookRequest
	if !decodeBody(w, r, &req, requestID) {
		return
	}

	ctx, cancel := requestContext(r)
	defer cancel()

	reservation, err := h.service.Book(ctx, req, requestID)
	if err != nil {
		rest.WriteDomainError(w, err, requestID)
		return
	}
	rest.WriteJSON(w, http.StatusCreated, toReservationResponse(reservation))
}

func (h *Handler) getReservation(w http.ResponseWriter, r *http.Request) {
	requestID := logger.GenerateRequestID()
	id, ok := pathID(w, r, "id", requestID)
	if !ok {
		return
	}

	ctx, cancel := requestContext(r)
	defer cancel()

	reservation, err := h.service.Get(ctx, id)
	if err != nil {
		rest.WriteDomainError(w, err, requestID)
		return
	}
	rest.WriteJSON(w, http.StatusOK, toReservationResponse(reservation))
}

func (h *Handler) listByTable(w http.ResponseWriter, r *http.Request) {
	requestID := logger.GenerateRequestID()
	tableID, ok := pathID(w, r, "tableID", requestID)
	if !ok {
		return
	}

	ctx, cancel := requestContext(r)
	defer cancel()

	list, err := h.service.ListByTable(ctx, tableID)
	if err != nil {
		rest.WriteDomainError(w, err, requestID)
		return
	}
	writeList(w, list)
}

func (h *Handler) listUpcoming(w http.ResponseWriter, r *http.Request) {
	requestID := logger.GenerateRequestID()

	window := 24 * time.Hour
	if raw := r.URL.Query().Get("window"); raw != "" {
		parsed, err := time.ParseDuration(raw)
		if err != nil || parsed <= 0 {
			rest.WriteError(w, http.StatusBadRequest, "invalid window", requestID)
			return
		}
		window = parsed
	}

	ctx, cancel := requestContext(r)
	defer cancel()

	now := time.Now()
	list, err := h.service.ListUpcoming(ctx, now, now.Add(window))
	if err != nil {
		rest.WriteDomainError(w, err, requestID)
		return
	}
	writeList(w, list)
}

func (h *Handler) confirm(w http.ResponseWriter, r *http.Request) {
	var req struct {
		WaiterID string `json:"waiter_id"`
	}
	h.command(w, r, &req, func(ctx context.Context, id uuid.UUID, requestID string) (*booking.Reservation, error) {
		return h.service.Confirm(ctx, id, req.WaiterID, requestID)
	})
}

func (h *Handler) seatCustomers(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ActualPartySize int    `json:"actual_party_size"`
		WaiterID        string `json:"waiter_id"`
	}
	h.command(w, r, &req, func(ctx context.Context, id uuid.UUID, requestID string) (*booking.Reservation, error) {
		return h.service.SeatCustomers(ctx, id, req.ActualPartySize, req.WaiterID, requestID)
	})
}

func (h *Handler) complete(w http.ResponseWriter, r *http.Request) {
	var req struct {
		FinalBill *decimal.Decimal `json:"final_bill"`
		Rating    *int             `json:"rating"`
	}
	h.command(w, r, &req, func(ctx context.Context, id uuid.UUID, requestID string) (*booking.Reservation, error) {
		return h.service.Complete(ctx, id, req.FinalBill, req.Rating, requestID)
	})
}

func (h *Handler) cancel(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Reason string `json:"reason"`
	}
	h.command(w, r, &req, func(ctx context.Context, id uuid.UUID, requestID string) (*booking.Reservation, error) {
		return h.service.Cancel(ctx, id, req.Reason, requestID)
	})
}

func (h *Handler) markAsNoShow(w http.ResponseWriter, r *http.Request) {
	requestID := logger.GenerateRequestID()
	id, ok := pathID(w, r, "id", requestID)
	if !ok {
		return
	}

	ctx, cancel := requestContext(r)
	defer cancel()

	reservation, err := h.service.MarkAsNoShow(ctx, id, requestID)
	if err != nil {
		rest.WriteDomainError(w, err, requestID)
		return
	}
	rest.WriteJSON(w, http.StatusOK, toReservationResponse(reservation))
}

func (h *Handler) modify(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ScheduledAt *time.Time     `json:"scheduled_at"`
		PartySize   *int           `json:"party_size"`
		Duration    *time.Duration `json:"duration"`
		TableID     *uuid.UUID     `json:"table_id"`
		Reason      string         `json:"reason"`
		Actor       string         `json:"actor"`
	}
	h.command(w, r, &req, func(ctx context.Context, id uuid.UUID, requestID string) (*booking.Reservation, error) {
		return h.service.Modify(ctx, id, booking.ModifyRequest{
			ScheduledAt: req.ScheduledAt,
			PartySize:   req.PartySize,
			Duration:    req.Duration,
			TableID:     req.TableID,
			Reason:      req.Reason,
			Actor:       req.Actor,
		}, requestID)
	})
}

func (h *Handler) command(w http.ResponseWriter, r *http.Request, body interface{}, run func(ctx context.Context, id uuid.UUID, requestID string) (*booking.Reservation, error)) {
	requestID := logger.GenerateRequestID()
	id, ok := pathID(w, r, "id", requestID)
	if !ok {
		return
	}
	if !decodeBody(w, r, body, requestID) {
		return
	}

	ctx, cancel := requestContext(r)
	defer cancel()

	reservation, err := run(ctx, id, requestID)
	if err != nil {
		rest.WriteDomainError(w, err, requestID)
		return
	}
	rest.WriteJSON(w, http.StatusOK, toReservationResponse(reservation))
}

func writeList(w http.ResponseWriter, list []*booking.Reservation) {
	responses := make([]reservationResponse, 0, len(list))
	for _, reservation := range list {
		responses = append(responses, toReservationResponse(reservation))
	}
	rest.WriteJSON(w, http.StatusOK, responses)
}

func pathID(w http.ResponseWriter, r *http.Request, name, requestID string) (uuid.UUID, bool) {
	id, err := uuid.Parse(r.PathValue(name))
	if err != nil {
		rest.WriteError(w, http.StatusBadRequest, "invalid "+name, requestID)
		return uuid.Nil, false
	}
	return id, true
}

func decodeBody(w http.ResponseWriter, r *http.Request, v interface{}, requestID string) bool {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(v); err != nil {
		rest.WriteError(w, http.StatusBadRequest, "Invalid JSON format", requestID)
		return false
	}
	return true
}

func requestContext(r *http.Request) (context.Context, context.CancelFunc) {
	return context.WithTimeout(r.Context(), 30*time.Second)
}
