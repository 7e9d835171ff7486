package tables

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"restaurant-lifecycle/internal/domain/dining"
	"restaurant-lifecycle/internal/logger"
	"restaurant-lifecycle/internal/services/rest"
)

// Handler handles HTTP requests for dining tables
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

// SetupRoutes registers the table routes on the given mux.
func (h *Handler) SetupRoutes(mux *http.ServeMux) {
	route := func(pattern string, fn http.HandlerFunc) {
		mux.HandleFunc(pattern, rest.WithLogging(h.logger, fn))
	}

	route("POST /tables", h.registerTable)
	route("GET /tables", h.listTables)
	route("GET /tables/{id}", h.getTable)
	route("GET /tables/number/{number}", h.getTableByNumber)
	route("POST /tables/{id}/status", h.changeStatus)
	route("POST /tables/{id}/waiter", h.assignWaiter)
	route("PATCH /tables/{id}/configuration", h.updateConfiguration)
	route("POST /tables/{id}/maintenance", h.addMaintenance)
	route("POST /tables/{id}/maintenance/{maintenanceID}/complete", h.completeMaintenance)
	route("POST /tables/{id}/deactivate", h.deactivateTable)
	route("POST /tables/{id}/reactivate", h.reactivateTable)
}

// tableResponse augments the aggregate with its maintenance history and
// derived efficiency.
type tableResponse struct {
	*dining.Table
	Maintenance []dining.Maintenance `json:"maintenance,omitempty"`
	Efficiency  float64              `json:"efficiency"`
}

func toTableResponse(table *dining.Table) tableResponse {
	return tableResponse{
		Table:       table,
		Maintenance: table.Maintenance(),
		Efficiency:  table.Efficiency(),
	}
}

func (h *Handler) registerTable(w http.ResponseWriter, r *http.Request) {
	requestID := logger.GenerateRequestID()

	var req RegisterTableRequest
	if !decodeBody(w, r, &req, requestID) {
		return
	}

	ctx, cancel := requestContext(r)
	defer cancel()

	table, err := h.service.RegisterTable(ctx, req, requestID)
	if err != nil {
		rest.WriteDomainError(w, err, requestID)
		return
	}
	rest.WriteJSON(w, http.StatusCreated, toTableResponse(table))
}

func (h *Handler) listTables(w http.ResponseWriter, r *http.Request) {
	requestID := logger.GenerateRequestID()

	ctx, cancel := requestContext(r)
	defer cancel()

	var (
		list []*dining.Table
		err  error
	)
	if status := r.URL.Query().Get("status"); status != "" {
		list, err = h.service.ListByStatus(ctx, dining.Status(status))
	} else {
		list, err = h.service.List(ctx)
	}
	if err != nil {
		rest.WriteDomainError(w, err, requestID)
		return
	}

	responses := make([]tableResponse, 0, len(list))
	for _, table := range list {
		responses = append(responses, toTableResponse(table))
	}
	rest.WriteJSON(w, http.StatusOK, responses)
}

func (h *Handler) getTable(w http.ResponseWriter, r *http.Request) {
	requestID := logger.GenerateRequestID()
	id, ok := pathID(w, r, "id", requestID)
	if !ok {
		return
	}

	ctx, cancel := requestContext(r)
	defer cancel()

	table, err := h.service.Get(ctx, id)
	if err != nil {
		rest.WriteDomainError(w, err, requestID)
		return
	}
	rest.WriteJSON(w, http.StatusOK, toTableResponse(table))
}

func (h *Handler) getTableByNumber(w http.ResponseWriter, r *http.Request) {
	requestID := logger.GenerateRequestID()

	ctx, cancel := requestContext(r)
	defer cancel()

	table, err := h.service.GetByNumber(ctx, r.PathValue("number"))
	if err != nil {
		rest.WriteDomainError(w, err, requestID)
		return
	}
	rest.WriteJSON(w, http.StatusOK, toTableResponse(table))
}

func (h *Handler) changeStatus(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Status  dining.Status `json:"status"`
		ActorID string        `json:"actor_id"`
		Reason  string        `json:"reason"`
	}
	h.command(w, r, &req, func(ctx context.Context, id uuid.UUID, requestID string) (*dining.Table, error) {
		return h.service.ChangeStatus(ctx, id, req.Status, req.ActorID, req.Reason, requestID)
	})
}

func (h *Handler) assignWaiter(w http.ResponseWriter, r *http.Request) {
	var req struct {
		WaiterID string `json:"waiter_id"`
	}
	h.command(w, r, &req, func(ctx context.Context, id uuid.UUID, requestID string) (*dining.Table, error) {
		return h.service.AssignWaiter(ctx, id, req.WaiterID, requestID)
	})
}

func (h *Handler) updateConfiguration(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Seats    *int             `json:"seats"`
		Zone     *string          `json:"zone"`
		Position *dining.Position `json:"position"`
		Features *dining.Features `json:"features"`
	}
	h.command(w, r, &req, func(ctx context.Context, id uuid.UUID, requestID string) (*dining.Table, error) {
		update := dining.ConfigurationUpdate{
			Zone:     req.Zone,
			Position: req.Position,
			Features: req.Features,
		}
		if req.Seats != nil {
			capacity, err := dining.NewCapacity(*req.Seats)
			if err != nil {
				return nil, err
			}
			update.Capacity = &capacity
		}
		return h.service.UpdateConfiguration(ctx, id, update, requestID)
	})
}

func (h *Handler) addMaintenance(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Type        string           `json:"type"`
		Description string           `json:"description"`
		PerformedBy string           `json:"performed_by"`
		Cost        *decimal.Decimal `json:"cost"`
	}
	h.command(w, r, &req, func(ctx context.Context, id uuid.UUID, requestID string) (*dining.Table, error) {
		return h.service.AddMaintenance(ctx, id, req.Type, req.Description, req.PerformedBy, req.Cost, requestID)
	})
}

func (h *Handler) completeMaintenance(w http.ResponseWriter, r *http.Request) {
	requestID := logger.GenerateRequestID()
	id, ok := pathID(w, r, "id", requestID)
	if !ok {
		return
	}
	maintenanceID, ok := pathID(w, r, "maintenanceID", requestID)
	if !ok {
		return
	}

	var req struct {
		Cost *decimal.Decimal `json:"cost"`
	}
	if !decodeBody(w, r, &req, requestID) {
		return
	}

	ctx, cancel := requestContext(r)
	defer cancel()

	table, err := h.service.CompleteMaintenance(ctx, id, maintenanceID, req.Cost, requestID)
	if err != nil {
		rest.WriteDomainError(w, err, requestID)
		return
	}
	rest.WriteJSON(w, http.StatusOK, toTableResponse(table))
}

func (h *Handler) deactivateTable(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Reason string `json:"reason"`
	}
	h.command(w, r, &req, func(ctx context.Context, id uuid.UUID, requestID string) (*dining.Table, error) {
		return h.service.Deactivate(ctx, id, req.Reason, requestID)
	})
}

func (h *Handler) reactivateTable(w http.ResponseWriter, r *http.Request) {
	requestID := logger.GenerateRequestID()
	id, ok := pathID(w, r, "id", requestID)
	if !ok {
		return
	}

	ctx, cancel := requestContext(r)
	defer cancel()

	table, err := h.service.Reactivate(ctx, id, requestID)
	if err != nil {
		rest.WriteDomainError(w, err, requestID)
		return
	}
	rest.WriteJSON(w, http.StatusOK, toTableResponse(table))
}

func (h *Handler) command(w http.ResponseWriter, r *http.Request, body interface{}, run func(ctx context.Context, id uuid.UUID, requestID string) (*dining.Table, error)) {
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

	table, err := run(ctx, id, requestID)
	if err != nil {
		rest.WriteDomainError(w, err, requestID)
		return
	}
	rest.WriteJSON(w, http.StatusOK, toTableResponse(table))
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
