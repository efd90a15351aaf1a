package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/streadway/amqp"

	"github.com/unclebandit/smsleopard-dashboard/internal/logging"
	"github.com/unclebandit/smsleopard-dashboard/internal/model"
)

// Publisher sends a raw message to a broker.
type Publisher interface {
	Publish(routingKey string, body []byte) error
}

// AMQPPublisher publishes to a durable fanout exchange.
type AMQPPublisher struct {
	conn     *amqp.Connection
	ch       *amqp.Channel
	exchange string
}

// DialPublisher connects to RabbitMQ and declares exchange.
func DialPublisher(url, exchange string) (*AMQPPublisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("connect to rabbitmq: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}
	if err := declareExchange(ch, exchange); err != nil {
		ch.Close()
		conn.Close()
		return nil, err
	}
	return &AMQPPublisher{conn: conn, ch: ch, exchange: exchange}, nil
}

func (p *AMQPPublisher) Publish(routingKey string, body []byte) error {
	return p.ch.Publish(p.exchange, routingKey, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now(),
		Body:         body,
	})
}

func (p *AMQPPublisher) Close() error {
	p.ch.Close()
	return p.conn.Close()
}

func declareExchange(ch *amqp.Channel, exchange string) error {
	err := ch.ExchangeDeclare(
		exchange, // name
		"fanout", // kind
		true,     // durable
		false,    // auto-delete
		false,    // internal
		false,    // no-wait
		nil,      // arguments
	)
	if err != nil {
		return fmt.Errorf("declare exchange %s: %w", exchange, err)
	}
	return nil
}

// StartWorkflowEventForwarder relays workflow events from q to pub. A
// failing publish is retried by q.
func StartWorkflowEventForwarder(q Queue, pub Publisher) error {
	log := logging.WithComponent("queue")
	return q.Subscribe(TopicWorkflowEvents, func(payload any) error {
		ev, ok := payload.(model.WorkflowEvent)
		if !ok {
			log.Warn("⚠️ invalid payload type, expected WorkflowEvent")
			return nil
		}
		body, err := json.Marshal(ev)
		if err != nil {
			return nil
		}
		if err := pub.Publish(ev.Status, body); err != nil {
			return err
		}
		log.Debug("forwarded workflow event", "run_id", ev.RunID, "status", ev.Status)
		return nil
	})
}

// ConsumeWorkflowEvents binds queueName to exchange and hands every event to
// handle until ctx is done. A handler error requeues the delivery once;
// redelivered messages that fail again are dropped.
func ConsumeWorkflowEvents(ctx context.Context, url, exchange, queueName string, handle func(model.WorkflowEvent) error) error {
	log := logging.WithComponent("events")

	conn, err := amqp.Dial(url)
	if err != nil {
		return fmt.Errorf("connect to rabbitmq: %w", err)
	}
	defer conn.Close()

	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("open channel: %w", err)
	}
	defer ch.Close()

	if err := declareExchange(ch, exchange); err != nil {
		return err
	}

	q, err := ch.QueueDeclare(
		queueName, // name
		true,      // durable
		false,     // delete when unused
		false,     // exclusive
		false,     // no-wait
		nil,       // arguments
	)
	if err != nil {
		return fmt.Errorf("declare queue: %w", err)
	}
	if err := ch.QueueBind(q.Name, "", exchange, false, nil); err != nil {
		return fmt.Errorf("bind queue: %w", err)
	}

	msgs, err := ch.Consume(
		q.Name,
		"",
		false, // manual ack
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		return fmt.Errorf("register consumer: %w", err)
	}

	log.Info("waiting for workflow events", "exchange", exchange, "queue", q.Name)
	for {
		select {
		case <-ctx.Done():
			return nil
		case d, ok := <-msgs:
			if !ok {
				return fmt.Errorf("delivery channel closed")
			}
			handleDelivery(d, handle)
		}
	}
}

// acker is the subset of amqp.Delivery used to settle a message.
type acker interface {
	Ack(multiple bool) error
	Nack(multiple, requeue bool) error
}

func handleDelivery(d amqp.Delivery, handle func(model.WorkflowEvent) error) {
	settle(&d, d.Body, d.Redelivered, handle)
}

func settle(a acker, body []byte, redelivered bool, handle func(model.WorkflowEvent) error) {
	log := logging.WithComponent("events")
	var ev model.WorkflowEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		log.Warn("invalid workflow event", "error", err)
		a.Ack(false)
		return
	}
	if err := handle(ev); err != nil {
		log.Warn("workflow event handler failed", "run_id", ev.RunID, "error", err)
		a.Nack(false, !redelivered)
		return
	}
	a.Ack(false)
}
