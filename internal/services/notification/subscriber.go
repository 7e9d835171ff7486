package notification

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"restaurant-lifecycle/internal/domain/booking"
	"restaurant-lifecycle/internal/domain/dining"
	"restaurant-lifecycle/internal/domain/kitchen"
	"restaurant-lifecycle/internal/logger"
	"restaurant-lifecycle/internal/messaging"
)

// Subscriber consumes every published lifecycle event off the fanout
// exchange and prints a human-readable line per event.
type Subscriber struct {
	consumer *messaging.Consumer
	logger   *logger.Logger

	shutdown chan os.Signal
	done     chan bool
}

// NewSubscriber creates a new notification subscriber
func NewSubscriber(consumer *messaging.Consumer, log *logger.Logger) *Subscriber {
	return &Subscriber{
		consumer: consumer,
		logger:   log,
		shutdown: make(chan os.Signal, 1),
		done:     make(chan bool, 1),
	}
}

// Start starts the notification subscriber
func (s *Subscriber) Start(ctx context.Context) error {
	requestID := logger.GenerateRequestID()

	signal.Notify(s.shutdown, syscall.SIGINT, syscall.SIGTERM)

	s.logger.Info("service_started", requestID, "Notification subscriber started", nil)

	go func() {
		if err := s.consumer.StartConsuming(ctx, s.handleEvent); err != nil {
			s.logger.Error("consumer_failed", requestID, "Notification consumer failed", err, nil)
		}
		s.done <- true
	}()

	select {
	case <-s.shutdown:
		s.logger.Info("graceful_shutdown", requestID, "Received shutdown signal", nil)
		return s.gracefulShutdown(requestID)
	case <-s.done:
		return nil
	}
}

// eventEnvelope mirrors messaging.Envelope with the payload left raw so
// per-event fields can be picked out.
type eventEnvelope struct {
	Event       string          `json:"event"`
	AggregateID string          `json:"aggregate_id"`
	OccurredAt  time.Time       `json:"occurred_at"`
	Payload     json.RawMessage `json:"payload"`
}

// handleEvent processes one published lifecycle event
func (s *Subscriber) handleEvent(ctx context.Context, body []byte) error {
	requestID := logger.GenerateRequestID()

	var envelope eventEnvelope
	if err := json.Unmarshal(body, &envelope); err != nil {
		s.logger.Error("message_parsing_failed", requestID, "Failed to parse event envelope", err, nil)
		return fmt.Errorf("failed to parse event envelope: %w", err)
	}

	s.logger.Debug("event_received", requestID, "Received lifecycle event", map[string]any{
		"event":        envelope.Event,
		"aggregate_id": envelope.AggregateID,
	})

	fmt.Println(s.formatNotification(&envelope))
	return nil
}

// formatNotification creates a human-readable line for one event.
func (s *Subscriber) formatNotification(envelope *eventEnvelope) string {
	timestamp := envelope.OccurredAt.Format("2006-01-02 15:04:05")

	// Picks out only the fields the message needs; unknown events fall
	// through to a generic line.
	var payload struct {
		OrderNumber     string `json:"order_number"`
		TableNumber     string `json:"table_number"`
		ContactName     string `json:"contact_name"`
		ChefID          string `json:"chef_id"`
		WaiterID        string `json:"waiter_id"`
		Reason          string `json:"reason"`
		PreviousStatus  string `json:"previous_status"`
		NewStatus       string `json:"new_status"`
		PartySize       int    `json:"party_size"`
		ActualPartySize int    `json:"actual_party_size"`
	}
	json.Unmarshal(envelope.Payload, &payload)

	switch envelope.Event {
	case kitchen.EventOrderPlaced:
		return fmt.Sprintf("[%s] Order %s has been placed.", timestamp, payload.OrderNumber)
	case kitchen.EventPreparationStarted:
		return fmt.Sprintf("[%s] Order %s is now being prepared by %s.", timestamp, payload.OrderNumber, payload.ChefID)
	case kitchen.EventOrderReady:
		return fmt.Sprintf("[%s] Order %s is ready for pickup.", timestamp, payload.OrderNumber)
	case kitchen.EventOrderCoolingDown:
		return fmt.Sprintf("[%s] Attention: order %s has been waiting unserved past the grace window.", timestamp, payload.OrderNumber)
	case kitchen.EventOrderServed:
		return fmt.Sprintf("[%s] Order %s has been served by %s.", timestamp, payload.OrderNumber, payload.WaiterID)
	case kitchen.EventOrderCompleted:
		return fmt.Sprintf("[%s] Order %s has been completed. Thank you!", timestamp, payload.OrderNumber)
	case kitchen.EventOrderCancelled:
		return fmt.Sprintf("[%s] Order %s has been cancelled: %s", timestamp, payload.OrderNumber, payload.Reason)
	case dining.EventTableStatusChanged:
		return fmt.Sprintf("[%s] Table %s moved from %s to %s.", timestamp, payload.TableNumber, payload.PreviousStatus, payload.NewStatus)
	case dining.EventTableReleased:
		return fmt.Sprintf("[%s] Table %s has been released and is being cleaned.", timestamp, payload.TableNumber)
	case booking.EventReservationCreated:
		return fmt.Sprintf("[%s] Reservation for %s (party of %d) has been created.", timestamp, payload.ContactName, payload.PartySize)
	case booking.EventReservationConfirmed:
		return fmt.Sprintf("[%s] Reservation %s has been confirmed.", timestamp, envelope.AggregateID)
	case booking.EventCustomersSeated:
		return fmt.Sprintf("[%s] Party of %d has been seated for reservation %s.", timestamp, payload.ActualPartySize, envelope.AggregateID)
	case booking.EventReservationNoShow:
		return fmt.Sprintf("[%s] Reservation %s has been marked as a no-show.", timestamp, envelope.AggregateID)
	default:
		return fmt.Sprintf("[%s] %s (%s)", timestamp, envelope.Event, envelope.AggregateID)
	}
}

// gracefulShutdown handles graceful shutdown of the subscriber
func (s *Subscriber) gracefulShutdown(requestID string) error {
	s.logger.Info("graceful_shutdown", requestID, "Starting graceful shutdown", nil)

	if s.consumer != nil {
		s.consumer.Close()
	}

	s.logger.Info("graceful_shutdown", requestID, "Graceful shutdown completed", nil)
	return nil
}
