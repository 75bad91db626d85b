package queue

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/streadway/amqp"
)

// AMQPPublisher publishes JSON payloads to a durable RabbitMQ queue named
// after the topic. It only publishes; Subscribe is not supported.
type AMQPPublisher struct {
	mu       sync.Mutex
	conn     *amqp.Connection
	ch       *amqp.Channel
	declared map[string]bool
}

var _ Queue = (*AMQPPublisher)(nil)

var ErrSubscribeUnsupported = errors.New("amqp publisher does not support subscribe")

// DialAMQP connects to the broker at url.
func DialAMQP(url string) (*AMQPPublisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("connecting to RabbitMQ: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("opening channel: %w", err)
	}
	return &AMQPPublisher{conn: conn, ch: ch, declared: map[string]bool{}}, nil
}

// DeclareQueue declares the durable queue used for topic.
func DeclareQueue(ch *amqp.Channel, topic string) (amqp.Queue, error) {
	return ch.QueueDeclare(
		topic, // name
		true,  // durable
		false, // delete when unused
		false, // exclusive
		false, // no-wait
		nil,   // arguments
	)
}

func (p *AMQPPublisher) Publish(topic string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encoding %s payload: %w", topic, err)
	}
	return p.publish(topic, "application/json", body)
}

// PublishJob publishes a CBOR-encoded instruction job to topic.
func (p *AMQPPublisher) PublishJob(topic string, job Job) error {
	body, err := EncodeJob(job)
	if err != nil {
		return err
	}
	return p.publish(topic, JobContentType, body)
}

func (p *AMQPPublisher) publish(topic, contentType string, body []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.declared[topic] {
		if _, err := DeclareQueue(p.ch, topic); err != nil {
			return fmt.Errorf("declaring queue %s: %w", topic, err)
		}
		p.declared[topic] = true
	}
	err := p.ch.Publish(
		"",    // default exchange
		topic, // routing key
		false,
		false,
		amqp.Publishing{
			ContentType:  contentType,
			DeliveryMode: amqp.Persistent,
			Body:         body,
		},
	)
	if err != nil {
		return fmt.Errorf("publishing to %s: %w", topic, err)
	}
	return nil
}

func (p *AMQPPublisher) Subscribe(topic string, handler func(payload any) error) error {
	return ErrSubscribeUnsupported
}

// Close closes the channel and the connection.
func (p *AMQPPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	chErr := p.ch.Close()
	connErr := p.conn.Close()
	return errors.Join(chErr, connErr)
}
