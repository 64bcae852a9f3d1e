package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sirupsen/logrus"

	"gophercalc/internal/model"
	"gophercalc/internal/repository"
)

// AuthEventWorker drains the audit queue and writes events to MySQL.
// Persistence runs off the request path; the HTTP handlers only ever
// publish.
type AuthEventWorker struct {
	conn      *amqp.Connection
	repo      *repository.AuthEventRepository
	queueName string
	logger    *logrus.Logger

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewAuthEventWorker(conn *amqp.Connection, repo *repository.AuthEventRepository, queueName string, logger *logrus.Logger) *AuthEventWorker {
	return &AuthEventWorker{
		conn:      conn,
		repo:      repo,
		queueName: queueName,
		logger:    logger,
	}
}

func (w *AuthEventWorker) Start(ctx context.Context) error {
	if w.cancel != nil {
		return nil
	}

	workerCtx, cancel := context.WithCancel(ctx)
	w.cancel = cancel

	ch, err := w.conn.Channel()
	if err != nil {
		cancel()
		return fmt.Errorf("open worker channel failed: %w", err)
	}

	_, err = ch.QueueDeclare(
		w.queueName,
		true,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		_ = ch.Close()
		cancel()
		return fmt.Errorf("declare worker queue failed: %w", err)
	}

	deliveries, err := ch.Consume(
		w.queueName,
		"",
		false,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		_ = ch.Close()
		cancel()
		return fmt.Errorf("consume queue failed: %w", err)
	}

	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		defer ch.Close()

		for {
			select {
			case <-workerCtx.Done():
				return
			case d, ok := <-deliveries:
				if !ok {
					return
				}
				w.handle(workerCtx, d)
			}
		}
	}()

	w.logger.WithField("queue", w.queueName).Info("auth event worker started")
	return nil
}

func (w *AuthEventWorker) handle(ctx context.Context, d amqp.Delivery) {
	var event model.AuthEvent
	if err := json.Unmarshal(d.Body, &event); err != nil {
		w.logger.WithError(err).Warn("decode auth event failed")
		_ = d.Nack(false, false)
		return
	}

	if err := w.repo.Create(ctx, &event); err != nil {
		// A redelivered event is already on disk; acknowledge it so it
		// stops cycling through the queue.
		if errors.Is(err, repository.ErrDuplicateEntry) {
			_ = d.Ack(false)
			return
		}
		w.logger.WithError(err).WithField("event_id", event.EventID).Error("persist auth event failed")
		_ = d.Nack(false, false)
		return
	}

	_ = d.Ack(false)
}

func (w *AuthEventWorker) Close() {
	if w.cancel != nil {
		w.cancel()
	}
	w.wg.Wait()
}
