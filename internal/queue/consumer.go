// Package queue also contains the background consumer that listens to the
// game's event queues and appends one line per event to logs/activity.log.
package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// ActivityConsumer drains every queue in Queues() into an append-only
// activity log.
type ActivityConsumer struct {
	URL    string
	LogDir string
	Logger *slog.Logger

	mu sync.Mutex // serializes writes to the log file
}

// NewActivityConsumer returns a consumer writing to logDir/activity.log.
func NewActivityConsumer(url, logDir string, logger *slog.Logger) *ActivityConsumer {
	if logDir == "" {
		logDir = "logs"
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &ActivityConsumer{URL: url, LogDir: logDir, Logger: logger}
}

// Run connects to RabbitMQ, declares the durable queues and consumes
// messages until ctx is cancelled.  Broker failures trigger a reconnect
// with exponential backoff; a message that cannot be handled is rejected
// without requeue so the loop keeps going.
func (c *ActivityConsumer) Run(ctx context.Context) error {
	backoff := time.Second
	for {
		conn, err := amqp.Dial(c.URL)
		if err != nil {
			c.Logger.Warn("activity-consumer: dial failed", "err", err, "retry_in", backoff)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(backoff):
			}
			if backoff < 30*time.Second {
				backoff *= 2
			}
			continue
		}
		backoff = time.Second // reset after successful connect

		err = c.consumeLoop(ctx, conn)
		_ = conn.Close()
		if ctx.Err() != nil {
			return ctx.Err()
		}
		c.Logger.Warn("activity-consumer: consume loop ended, reconnecting", "err", err)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(2 * time.Second):
		}
	}
}

type delivery struct {
	queue string
	amqp.Delivery
}

func (c *ActivityConsumer) consumeLoop(ctx context.Context, conn *amqp.Connection) error {
	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("channel open: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if err := ch.Qos(50, 0, false); err != nil {
		c.Logger.Warn("activity-consumer: set QoS failed", "err", err)
	}

	merged := make(chan delivery)
	var wg sync.WaitGroup
	for _, name := range Queues() {
		if _, err := ch.QueueDeclare(name, true, false, false, false, nil); err != nil {
			return fmt.Errorf("queue declare %s: %w", name, err)
		}
		msgs, err := ch.Consume(name, "", false, false, false, false, nil)
		if err != nil {
			return fmt.Errorf("queue consume %s: %w", name, err)
		}
		wg.Add(1)
		go func(name string, msgs <-chan amqp.Delivery) {
			defer wg.Done()
			for d := range msgs {
				select {
				case merged <- delivery{queue: name, Delivery: d}:
				case <-ctx.Done():
					return
				}
			}
		}(name, msgs)
	}
	go func() {
		wg.Wait()
		close(merged)
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case d, ok := <-merged:
			if !ok {
				return errors.New("deliveries channel closed")
			}
			if err := c.Handle(d.queue, d.Body); err != nil {
				c.Logger.Error("activity-consumer: handle message failed", "queue", d.queue, "err", err)
				_ = d.Nack(false, false) // reject, do not requeue to avoid tight loops
				continue
			}
			_ = d.Ack(false)
		}
	}
}

// Handle formats one message and appends it to the activity log.
func (c *ActivityConsumer) Handle(queue string, body []byte) error {
	line, err := FormatActivity(queue, body)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := os.MkdirAll(c.LogDir, 0o755); err != nil {
		return fmt.Errorf("mkdir logs: %w", err)
	}
	fpath := filepath.Join(c.LogDir, "activity.log")
	f, err := os.OpenFile(fpath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	defer f.Close()
	if _, err := f.WriteString(line); err != nil {
		return fmt.Errorf("write log: %w", err)
	}
	return nil
}

// FormatActivity renders a message as a single newline-terminated line.
// Verification codes are never written.
func FormatActivity(queue string, body []byte) (string, error) {
	switch queue {
	case ExpeditionStartedQueue:
		var ev ExpeditionStartedEvent
		if err := json.Unmarshal(body, &ev); err != nil {
			return "", fmt.Errorf("unmarshal: %w", err)
		}
		return fmt.Sprintf("[%s] Expedition started | user_id=%s | location=%d | duration=%dm | ends_at=%s | slots=[%s]\n",
			ev.StartedAt, ev.UserID, ev.Location, ev.Duration, ev.EndsAt, strings.Join(ev.Slots, ",")), nil
	case ExpeditionRecalledQueue:
		var ev ExpeditionRecalledEvent
		if err := json.Unmarshal(body, &ev); err != nil {
			return "", fmt.Errorf("unmarshal: %w", err)
		}
		return fmt.Sprintf("[%s] Expedition recalled | user_id=%s | location=%d | finished=%t | slots=[%s]\n",
			ev.RecalledAt, ev.UserID, ev.Location, ev.Finished, strings.Join(ev.Slots, ",")), nil
	case RouletteRolledQueue:
		var ev RouletteRolledEvent
		if err := json.Unmarshal(body, &ev); err != nil {
			return "", fmt.Errorf("unmarshal: %w", err)
		}
		return fmt.Sprintf("[%s] Roulette rolled | user_id=%s | pokemon=\"%s\" | entry=%d | rarity=%s | shiny=%t | inventory_id=%s\n",
			ev.RolledAt, ev.UserID, ev.PokemonName, ev.PokemonEntry, ev.Rarity, ev.Shiny, ev.InventoryID), nil
	case VerificationRequestedQueue:
		var ev VerificationRequestedEvent
		if err := json.Unmarshal(body, &ev); err != nil {
			return "", fmt.Errorf("unmarshal: %w", err)
		}
		return fmt.Sprintf("[%s] Verification requested | identifier=%s\n",
			time.Now().UTC().Format(time.RFC3339), ev.Identifier), nil
	}
	return "", fmt.Errorf("unknown queue %q", queue)
}
