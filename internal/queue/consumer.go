package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/labstack/gommon/log"
	amqp "github.com/rabbitmq/amqp091-go"
)

// AuditLogFile is the file, under the configured directory, that every
// consumed event is appended to.
const AuditLogFile = "backoffice.log"

// Consumer drains the events queue into an append-only audit log.
type Consumer struct {
	URL    string
	Queue  string
	LogDir string
	Log    *log.Logger
}

// NewConsumer returns a Consumer writing to logDir (default "logs").
func NewConsumer(url, logDir string, logger *log.Logger) *Consumer {
	if url == "" {
		url = DefaultURL
	}
	if logDir == "" {
		logDir = "logs"
	}
	return &Consumer{URL: url, Queue: DefaultQueue, LogDir: logDir, Log: logger}
}

// Run connects, consumes and reconnects with exponential backoff until
// ctx is cancelled.
func (c *Consumer) Run(ctx context.Context) error {
	backoff := time.Second
	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		conn, err := amqp.Dial(c.URL)
		if err != nil {
			c.Log.Warnf("event-consumer: failed to dial broker: %v; retrying in %s", err, backoff)
			if !sleep(ctx, backoff) {
				return ctx.Err()
			}
			if backoff < 30*time.Second {
				backoff *= 2
			}
			continue
		}
		backoff = time.Second

		err = c.consumeLoop(ctx, conn)
		_ = conn.Close()
		if ctx.Err() != nil {
			return ctx.Err()
		}
		c.Log.Warnf("event-consumer: consume loop ended: %v; reconnecting", err)
		if !sleep(ctx, 2*time.Second) {
			return ctx.Err()
		}
	}
}

func (c *Consumer) consumeLoop(ctx context.Context, conn *amqp.Connection) error {
	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("channel open: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if err := ch.Qos(50, 0, false); err != nil {
		c.Log.Warnf("event-consumer: set QoS failed: %v", err)
	}
	if _, err := ch.QueueDeclare(c.Queue, true, false, false, false, nil); err != nil {
		return fmt.Errorf("queue declare: %w", err)
	}
	msgs, err := ch.Consume(c.Queue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("queue consume: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case d, ok := <-msgs:
			if !ok {
				return errors.New("deliveries channel closed")
			}
			if err := c.handle(d.Body); err != nil {
				c.Log.Errorf("event-consumer: handle message failed: %v", err)
				_ = d.Nack(false, false) // no requeue, avoids a poison loop
				continue
			}
			_ = d.Ack(false)
		}
	}
}

func (c *Consumer) handle(body []byte) error {
	var env Envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return fmt.Errorf("unmarshal: %w", err)
	}
	line, err := FormatAuditLine(env)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(c.LogDir, 0o755); err != nil {
		return fmt.Errorf("mkdir logs: %w", err)
	}
	f, err := os.OpenFile(filepath.Join(c.LogDir, AuditLogFile), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	defer f.Close()
	if _, err := f.WriteString(line); err != nil {
		return fmt.Errorf("write log: %w", err)
	}
	return nil
}

// FormatAuditLine renders one human-readable line per event.
func FormatAuditLine(env Envelope) (string, error) {
	ts := env.OccurredAt.UTC().Format(time.RFC3339)
	switch env.Type {
	case TypeCustomerAggregated:
		var ev CustomerAggregatedEvent
		if err := json.Unmarshal(env.Payload, &ev); err != nil {
			return "", fmt.Errorf("decode %s: %w", env.Type, err)
		}
		verb := "updated"
		if ev.Created {
			verb = "created"
		}
		return fmt.Sprintf("[%s] Customer %s | event_id=%s | customer_id=%d | booking_id=%d | email=%q | bookings=%d | spent=%s | type=%s | points=%d\n",
			ts, verb, env.ID, ev.CustomerID, ev.BookingID, ev.Email, ev.TotalBookings, ev.TotalSpent, ev.CustomerType, ev.LoyaltyPoints), nil
	case TypeStudentCreated:
		var ev StudentCreatedEvent
		if err := json.Unmarshal(env.Payload, &ev); err != nil {
			return "", fmt.Errorf("decode %s: %w", env.Type, err)
		}
		return fmt.Sprintf("[%s] Student created | event_id=%s | student_id=%d | application_id=%d | number=%s | name=%q | campus=%q | program=%q | cohort=%s\n",
			ts, env.ID, ev.StudentID, ev.ApplicationID, ev.StudentNumber, ev.FullName, ev.Campus, ev.Program, ev.Cohort), nil
	}
	return fmt.Sprintf("[%s] %s | event_id=%s | payload=%s\n", ts, env.Type, env.ID, string(env.Payload)), nil
}

func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
