package orders

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"restaurant-lifecycle/internal/domain/kitchen"
	"restaurant-lifecycle/internal/logger"
	"restaurant-lifecycle/internal/services/rest"
)

// Handler handles HTTP requests for kitchen orders
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

// SetupRoutes registers the order routes on the given mux.
func (h *Handler) SetupRoutes(mux *http.ServeMux) {
	route := func(pattern string, fn http.HandlerFunc) {
		mux.HandleFunc(pattern, rest.WithLogging(h.logger, fn))
	}

	route("POST /orders", h.placeOrder)
	route("GET /orders", h.listOrders)
	route("GET /orders/{id}", h.getOrder)
	route("GET /orders/number/{number}", h.getOrderByNumber)
	route("POST /orders/{id}/accept", h.acceptOrder)
	route("POST /orders/{id}/start", h.startPreparation)
	route("POST /orders/{id}/ready", h.markAsReady)
	route("POST /orders/{id}/serve", h.markAsServed)
	route("POST /orders/{id}/complete", h.completeOrder)
	route("POST /orders/{id}/cancel", h.cancelOrder)
	route("POST /orders/{id}/priority", h.changePriority)
	route("POST /orders/{id}/items", h.addItem)
	route("PATCH /orders/{id}/items/{itemID}", h.modifyItem)
	route("DELETE /orders/{id}/items/{itemID}", h.removeItem)
	route("POST /orders/{id}/discount", h.applyDiscount)
}

// orderResponse augments the aggregate with its owned collections and the
// derived read-side values.
type orderResponse struct {
	*kitchen.Order
	Items              []kitchen.Item         `json:"items"`
	Log                []kitchen.LogEntry     `json:"log"`
	ItemModifications  []kitchen.Modification `json:"item_modifications,omitempty"`
	ProgressPercentage int                    `json:"progress_percentage"`
	EstimatedActive    time.Duration          `json:"estimated_active_time"`
	IsRush             bool                   `json:"is_rush"`
	IsOverdue          bool                   `json:"is_overdue"`
	SpecialAttention   bool                   `json:"requires_special_attention"`
}

func toOrderResponse(order *kitchen.Order) orderResponse {
	return orderResponse{
		Order:              order,
		Items:              order.Items(),
		Log:                order.Log(),
		ItemModifications:  order.Modifications(),
		ProgressPercentage: order.ProgressPercentage(),
		EstimatedActive:    order.EstimatedActiveTime(),
		IsRush:             order.IsRush(),
		IsOverdue:          order.IsOverdue(),
		SpecialAttention:   order.RequiresSpecialAttention(),
	}
}

func (h *Handler) placeOrder(w http.ResponseWriter, r *http.Request) {
	requestID := logger.GenerateRequestID()

	var req PlaceOrderRequest
	if !decodeBody(w, r, &req, requestID) {
		return
	}

	ctx, cancel := requestContext(r)
	defer cancel()

	order, err := h.service.PlaceOrder(ctx, req, requestID)
	if err != nil {
		rest.WriteDomainError(w, err, requestID)
		return
	}
	rest.WriteJSON(w, http.StatusCreated, toOrderResponse(order))
}

func (h *Handler) listOrders(w http.ResponseWriter, r *http.Request) {
	requestID := logger.GenerateRequestID()
	status := kitchen.Status(r.URL.Query().Get("status"))
	if status == "" {
		rest.WriteError(w, http.StatusBadRequest, "status query parameter is required", requestID)
		return
	}

	ctx, cancel := requestContext(r)
	defer cancel()

	list, err := h.service.ListByStatus(ctx, status)
	if err != nil {
		rest.WriteDomainError(w, err, requestID)
		return
	}

	responses := make([]orderResponse, 0, len(list))
	for _, order := range list {
		responses = append(responses, toOrderResponse(order))
	}
	rest.WriteJSON(w, http.StatusOK, responses)
}

func (h *Handler) getOrder(w http.ResponseWriter, r *http.Request) {
	requestID := logger.GenerateRequestID()
	id, ok := pathID(w, r, "id", requestID)
	if !ok {
		return
	}

	ctx, cancel := requestContext(r)
	defer cancel()

	order, err := h.service.Get(ctx, id)
	if err != nil {
		rest.WriteDomainError(w, err, requestID)
		return
	}
	rest.WriteJSON(w, http.StatusOK, toOrderResponse(order))
}

func (h *Handler) getOrderByNumber(w http.ResponseWriter, r *http.Request) {
	requestID := logger.GenerateRequestID()

	ctx, cancel := requestContext(r)
	defer cancel()

	order, err := h.service.GetByNumber(ctx, r.PathValue("number"))
	if err != nil {
		rest.WriteDomainError(w, err, requestID)
		return
	}
	rest.WriteJSON(w, http.StatusOK, toOrderResponse(order))
}

func (h *Handler) acceptOrder(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ChefID string `json:"chef_id"`
		Notes  string `json:"notes"`
	}
	h.command(w, r, &req, func(ctx context.Context, id uuid.UUID, requestID string) (*kitchen.Order, error) {
		return h.service.Accept(ctx, id, req.ChefID, req.Notes, requestID)
	})
}

func (h *Handler) startPreparation(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ChefID string `json:"chef_id"`
	}
	h.command(w, r, &req, func(ctx context.Context, id uuid.UUID, requestID string) (*kitchen.Order, error) {
		return h.service.StartPreparation(ctx, id, req.ChefID, requestID)
	})
}

func (h *Handler) markAsReady(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ChefID       string `json:"chef_id"`
		QualityCheck string `json:"quality_check"`
	}
	h.command(w, r, &req, func(ctx context.Context, id uuid.UUID, requestID string) (*kitchen.Order, error) {
		return h.service.MarkAsReady(ctx, id, req.ChefID, req.QualityCheck, requestID)
	})
}

func (h *Handler) markAsServed(w http.ResponseWriter, r *http.Request) {
	var req struct {
		WaiterID string `json:"waiter_id"`
	}
	h.command(w, r, &req, func(ctx context.Context, id uuid.UUID, requestID string) (*kitchen.Order, error) {
		return h.service.MarkAsServed(ctx, id, req.WaiterID, requestID)
	})
}

func (h *Handler) completeOrder(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Rating   *int            `json:"rating"`
		Feedback string          `json:"feedback"`
		Tip      decimal.Decimal `json:"tip"`
	}
	h.command(w, r, &req, func(ctx context.Context, id uuid.UUID, requestID string) (*kitchen.Order, error) {
		return h.service.Complete(ctx, id, req.Rating, req.Feedback, req.Tip, requestID)
	})
}

func (h *Handler) cancelOrder(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Reason  string `json:"reason"`
		ActorID string `json:"actor_id"`
	}
	h.command(w, r, &req, func(ctx context.Context, id uuid.UUID, requestID string) (*kitchen.Order, error) {
		return h.service.Cancel(ctx, id, req.Reason, req.ActorID, requestID)
	})
}

func (h *Handler) changePriority(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Priority kitchen.Priority `json:"priority"`
		Reason   string           `json:"reason"`
		ActorID  string           `json:"actor_id"`
	}
	h.command(w, r, &req, func(ctx context.Context, id uuid.UUID, requestID string) (*kitchen.Order, error) {
		return h.service.ChangePriority(ctx, id, req.Priority, req.Reason, req.ActorID, requestID)
	})
}

func (h *Handler) addItem(w http.ResponseWriter, r *http.Request) {
	var req kitchen.ItemSpec
	h.command(w, r, &req, func(ctx context.Context, id uuid.UUID, requestID string) (*kitchen.Order, error) {
		return h.service.AddItem(ctx, id, req, requestID)
	})
}

func (h *Handler) modifyItem(w http.ResponseWriter, r *http.Request) {
	requestID := logger.GenerateRequestID()
	id, ok := pathID(w, r, "id", requestID)
	if !ok {
		return
	}
	itemID, ok := pathID(w, r, "itemID", requestID)
	if !ok {
		return
	}

	var req struct {
		Quantity        *int     `json:"quantity"`
		SpecialRequests []string `json:"special_requests"`
		ActorID         string   `json:"actor_id"`
	}
	if !decodeBody(w, r, &req, requestID) {
		return
	}

	ctx, cancel := requestContext(r)
	defer cancel()

	order, err := h.service.ModifyItem(ctx, id, itemID, req.Quantity, req.SpecialRequests, req.ActorID, requestID)
	if err != nil {
		rest.WriteDomainError(w, err, requestID)
		return
	}
	rest.WriteJSON(w, http.StatusOK, toOrderResponse(order))
}

func (h *Handler) removeItem(w http.ResponseWriter, r *http.Request) {
	requestID := logger.GenerateRequestID()
	id, ok := pathID(w, r, "id", requestID)
	if !ok {
		return
	}
	itemID, ok := pathID(w, r, "itemID", requestID)
	if !ok {
		return
	}

	ctx, cancel := requestContext(r)
	defer cancel()

	order, err := h.service.RemoveItem(ctx, id, itemID, requestID)
	if err != nil {
		rest.WriteDomainError(w, err, requestID)
		return
	}
	rest.WriteJSON(w, http.StatusOK, toOrderResponse(order))
}

func (h *Handler) applyDiscount(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Amount decimal.Decimal `json:"amount"`
		Reason string          `json:"reason"`
	}
	h.command(w, r, &req, func(ctx context.Context, id uuid.UUID, requestID string) (*kitchen.Order, error) {
		return h.service.ApplyDiscount(ctx, id, req.Amount, req.Reason, requestID)
	})
}

// command is the shared skeleton for the single-ID command endpoints:
// parse the path ID, decode the body, run the command, write the order.
func (h *Handler) command(w http.ResponseWriter, r *http.Request, body interface{}, run func(ctx context.Context, id uuid.UUID, requestID string) (*kitchen.Order, error)) {
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

	order, err := run(ctx, id, requestID)
	if err != nil {
		rest.WriteDomainError(w, err, requestID)
		return
	}
	rest.WriteJSON(w, http.StatusOK, toOrderResponse(order))
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
