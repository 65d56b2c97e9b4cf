// Package events publishes booking lifecycle transitions to a RabbitMQ topic
// exchange so downstream consumers (housekeeping boards, notification
// senders) can react without polling the API.
package events

import (
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/streadway/amqp"

	"hms-backend/domain"
	"hms-backend/models"
)

const exchangeName = "hms.bookings"

type bookingStatusChanged struct {
	EventID     string    `json:"event_id"`
	BookingID   uint      `json:"booking_id"`
	BookingCode string    `json:"booking_code"`
	From        string    `json:"from,omitempty"`
	To          string    `json:"to"`
	Reason      string    `json:"reason,omitempty"`
	Timestamp   time.Time `json:"timestamp"`
}

// Publisher fans out lifecycle events. Publication is best-effort: failures
// are logged and never propagate into the transition that triggered them.
type Publisher struct {
	conn *amqp.Connection
	ch   *amqp.Channel
}

func NewPublisher(url string) (*Publisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("amqp dial: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("amqp channel: %w", err)
	}
	if err := ch.ExchangeDeclare(exchangeName, "topic", true, false, false, false, nil); err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("amqp exchange declare: %w", err)
	}
	return &Publisher{conn: conn, ch: ch}, nil
}

func (p *Publisher) Close() {
	if p == nil {
		return
	}
	p.ch.Close()
	p.conn.Close()
}

// BookingStatusChanged implements services.LifecycleNotifier.
func (p *Publisher) BookingStatusChanged(b *models.Booking, from domain.BookingStatus, reason string) {
	if p == nil {
		return
	}

	event := bookingStatusChanged{
		EventID:     uuid.NewString(),
		BookingID:   b.ID,
		BookingCode: b.ReferenceCode,
		From:        string(from),
		To:          string(b.Status),
		Reason:      reason,
		Timestamp:   time.Now().UTC(),
	}
	body, err := json.Marshal(event)
	if err != nil {
		log.Printf("event marshal failed for booking %d: %v", b.ID, err)
		return
	}

	routingKey := fmt.Sprintf("booking.status.%s", b.Status)
	err = p.ch.Publish(exchangeName, routingKey, false, false, amqp.Publishing{
		ContentType:  "application/json",
		Body:         body,
		DeliveryMode: amqp.Persistent,
		MessageId:    event.EventID,
		Timestamp:    event.Timestamp,
	})
	if err != nil {
		log.Printf("event publish failed for booking %d: %v", b.ID, err)
	}
}
