package broker

import (
	"context"
	"fmt"
	"sync"

	amqp "github.com/rabbitmq/amqp091-go"
)

// DeliveryHandler processes one delivery and is responsible for acking it
type DeliveryHandler func(ctx context.Context, delivery amqp.Delivery)

// Consume reads deliveries from queue on ch and runs handle for each one in its own
// goroutine. It returns nil once ctx is cancelled and in-flight handlers finish,
// or ErrConnectionClosed if the broker closes the delivery stream first.
// Handlers receive a context that is not cancelled on shutdown.
func Consume(ctx context.Context, ch *amqp.Channel, queue string, handle DeliveryHandler) error {
	deliveries, err := ch.Consume(queue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("failed to consume %s: %w", queue, err)
	}

	var inflight sync.WaitGroup
	defer inflight.Wait()

	handlerCtx := context.WithoutCancel(ctx)
	for {
		select {
		case <-ctx.Done():
			return nil
		case delivery, ok := <-deliveries:
			if !ok {
				if ctx.Err() != nil {
					return nil
				}
				return fmt.Errorf("%s: %w", queue, ErrConnectionClosed)
			}
			inflight.Add(1)
			go func() {
				defer inflight.Done()
				handle(handlerCtx, delivery)
			}()
		}
	}
}
