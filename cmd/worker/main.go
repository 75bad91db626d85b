package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/streadway/amqp"
	"go.uber.org/zap"

	"github.com/unclebandit/crowdfund-program/internal/app"
	"github.com/unclebandit/crowdfund-program/internal/config"
	"github.com/unclebandit/crowdfund-program/internal/logging"
	"github.com/unclebandit/crowdfund-program/internal/queue"
	"github.com/unclebandit/crowdfund-program/internal/service"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "worker:", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger, err := logging.New(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	// Connect to RabbitMQ
	conn, err := amqp.Dial(cfg.AMQPURL)
	if err != nil {
		return fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}
	defer conn.Close()

	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("failed to open a channel: %w", err)
	}
	defer ch.Close()

	q, err := queue.DeclareQueue(ch, queue.TopicInstructions)
	if err != nil {
		return fmt.Errorf("failed to declare queue: %w", err)
	}
	if err := ch.Qos(1, 0, false); err != nil {
		return fmt.Errorf("failed to set prefetch: %w", err)
	}

	msgs, err := ch.Consume(
		q.Name,
		"",
		false, // autoAck = false for reliability
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		return fmt.Errorf("failed to register consumer: %w", err)
	}

	jobs := make(chan service.Job)
	worker := service.NewWorker(a.Service, jobs, logger)
	go worker.Start(ctx)

	logger.Info("Worker running, waiting for messages...", zap.String("queue", q.Name))
	for {
		select {
		case <-ctx.Done():
			return nil
		case d, ok := <-msgs:
			if !ok {
				return fmt.Errorf("delivery channel closed")
			}
			dispatch(ctx, d, jobs, logger)
		}
	}
}

// dispatch hands one delivery to the worker. Deliveries that cannot be
// decoded, and instructions that fail with a final program error, are
// acked: they would fail the same way again. Infrastructure failures,
// including ones surfacing as an allocation failure, are requeued.
func dispatch(ctx context.Context, d amqp.Delivery, jobs chan<- service.Job, logger *zap.Logger) {
	job, err := queue.DecodeJob(d.Body)
	if err != nil {
		logger.Warn("dropping invalid job", zap.Error(err))
		d.Ack(false)
		return
	}

	select {
	case jobs <- service.Job{Job: job, Done: func(err error) { settle(d, err, logger) }}:
	case <-ctx.Done():
		d.Nack(false, true)
	}
}

func settle(d amqp.Delivery, err error, logger *zap.Logger) {
	if requeue(err) {
		logger.Warn("requeueing instruction", zap.Error(err))
		d.Nack(false, true)
		return
	}
	d.Ack(false)
}

func requeue(err error) bool {
	return service.Retryable(err)
}
