// This file contains the background consumer that listens to the
// scheduling.changed queue and appends structured lines to
// logs/schedule.log, giving organizers an audit trail of every edit.
package event

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// StartChangeConsumer connects to RabbitMQ, declares the durable
// scheduling.changed queue and consumes it forever.  It runs a reconnect
// loop with capped exponential backoff; processing errors are logged and
// the offending message rejected without requeue so the loop never spins.
func StartChangeConsumer() error {
	backoff := time.Second
	for {
		conn, err := amqp.Dial(brokerURL())
		if err != nil {
			log.Printf("change-consumer: failed to dial broker: %v; retrying in %s", err, backoff)
			time.Sleep(backoff)
			if backoff < 30*time.Second {
				backoff *= 2
			}
			continue
		}
		backoff = time.Second

		if err := consumeChanges(conn); err != nil {
			log.Printf("change-consumer: consume loop ended: %v; reconnecting", err)
			time.Sleep(2 * time.Second)
		}
	}
}

func consumeChanges(conn *amqp.Connection) error {
	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("channel open: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if err := ch.Qos(50, 0, false); err != nil {
		log.Printf("change-consumer: set QoS failed: %v", err)
	}
	if _, err := ch.QueueDeclare(changedQueueName, true, false, false, false, nil); err != nil {
		return fmt.Errorf("queue declare: %w", err)
	}
	msgs, err := ch.Consume(changedQueueName, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("queue consume: %w", err)
	}

	for d := range msgs {
		if err := appendChangeLog(d.Body); err != nil {
			log.Printf("change-consumer: handle message failed: %v", err)
			_ = d.Nack(false, false)
			continue
		}
		_ = d.Ack(false)
	}
	return errors.New("deliveries channel closed")
}

func appendChangeLog(body []byte) error {
	var ev Changed
	if err := json.Unmarshal(body, &ev); err != nil {
		return fmt.Errorf("unmarshal: %w", err)
	}
	if err := os.MkdirAll("logs", 0o755); err != nil {
		return fmt.Errorf("mkdir logs: %w", err)
	}
	f, err := os.OpenFile(filepath.Join("logs", "schedule.log"), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	defer f.Close()

	room := "unscheduled"
	if ev.MicrolocationID != nil {
		room = fmt.Sprintf("%d", *ev.MicrolocationID)
	}
	line := fmt.Sprintf("[%s] Session updated | session_id=%d | title=%q | start=%s | end=%s | microlocation=%s\n",
		time.Now().UTC().Format(time.RFC3339), ev.SessionID, ev.Title, ev.StartTime, ev.EndTime, room)
	if _, err := f.WriteString(line); err != nil {
		return fmt.Errorf("write log: %w", err)
	}
	return nil
}
