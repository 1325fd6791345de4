// Package rabbitmq publishes analysis jobs for the worker. Queue topology:
// main queue dead-letters to the DLQ, the retry queue dead-letters back to
// the main queue after its TTL.
package rabbitmq

import (
	"context"
	"encoding/json"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

const publishTimeout = 5 * time.Second

type Publisher struct {
	conn  *amqp.Connection
	ch    *amqp.Channel
	queue string
}

type JobMessage struct {
	JobID string `json:"job_id"`
}

type queueSpec struct {
	Name string
	Args amqp.Table
}

// topology lists the queue declarations in dependency order: the DLQ and
// retry queue exist before the main queue that dead-letters into them.
func topology(queue string) []queueSpec {
	mainQ := queue
	retryQ := queue + ".retry"
	dlqQ := queue + ".dlq"

	return []queueSpec{
		{Name: dlqQ, Args: nil},
		{Name: retryQ, Args: amqp.Table{
			"x-dead-letter-exchange":    "",
			"x-dead-letter-routing-key": mainQ,
		}},
		{Name: mainQ, Args: amqp.Table{
			"x-dead-letter-exchange":    "",
			"x-dead-letter-routing-key": dlqQ,
		}},
	}
}

// DeclareTopology declares the three queues. Publisher and worker both go
// through here; declaring the same queue with different arguments is a
// channel exception on the broker, so there is exactly one declaration site.
func DeclareTopology(ch *amqp.Channel, queue string) error {
	for _, q := range topology(queue) {
		if _, err := ch.QueueDeclare(q.Name, true, false, false, false, q.Args); err != nil {
			return err
		}
	}
	return nil
}

func NewPublisher(url, queue string) (*Publisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, err
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, err
	}

	if err := DeclareTopology(ch, queue); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, err
	}
	return &Publisher{conn: conn, ch: ch, queue: queue}, nil
}

func (p *Publisher) Close() error {
	if p.ch != nil {
		_ = p.ch.Close()
	}
	if p.conn != nil {
		return p.conn.Close()
	}
	return nil
}

func (p *Publisher) PublishJob(ctx context.Context, jobID string) error {
	body, err := json.Marshal(JobMessage{JobID: jobID})
	if err != nil {
		return err
	}

	cctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	return p.ch.PublishWithContext(cctx,
		"",      // default exchange
		p.queue, // routing key = queue
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Body:         body,
			Timestamp:    time.Now(),
		},
	)
}
