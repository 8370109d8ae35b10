// Package messaging publica eventos del inventario en RabbitMQ.
package messaging

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"

	"github.com/jhoicas/musicstore-pos/internal/application/inventory"
)

// RoutingKeyLowStock clave con la que se publican las alertas de stock bajo.
const RoutingKeyLowStock = "stock.low"

// La publicación corre después del commit en el camino de la petición; publishTimeout acota
// cuánto puede sumar un broker caído.
const (
	publishAttempts = 3
	publishBackoff  = 100 * time.Millisecond
	publishTimeout  = 2 * time.Second
)

var (
	_ inventory.StockAlertPublisher = (*RabbitPublisher)(nil)
	_ inventory.StockAlertPublisher = NoopPublisher{}
)

// amqpChannel lo que el publicador usa de *amqp.Channel.
type amqpChannel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

// RabbitPublisher publica eventos JSON en un exchange topic.
// *amqp.Channel no admite publicaciones concurrentes, por eso mu. Si el canal se cierra
// se vuelve a abrir con openChannel en el siguiente intento.
type RabbitPublisher struct {
	conn        *amqp.Connection
	ch          amqpChannel
	openChannel func() (amqpChannel, error)
	exchange    string
	log         zerolog.Logger

	mu sync.Mutex
}

// NewRabbitPublisher conecta, abre un canal y declara el exchange (topic, durable).
func NewRabbitPublisher(url, exchange string, log zerolog.Logger) (*RabbitPublisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("rabbitmq: dial: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("rabbitmq: channel: %w", err)
	}
	if err := ch.ExchangeDeclare(exchange, amqp.ExchangeTopic, true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("rabbitmq: declare exchange %s: %w", exchange, err)
	}
	p := &RabbitPublisher{conn: conn, ch: ch, exchange: exchange, log: log}
	p.openChannel = func() (amqpChannel, error) {
		if conn.IsClosed() {
			return nil, amqp.ErrClosed
		}
		ch, err := conn.Channel()
		if err != nil {
			return nil, err
		}
		return ch, nil
	}
	return p, nil
}

// PublishLowStock publica la alerta con hasta publishAttempts intentos, sin pasar de publishTimeout.
func (p *RabbitPublisher) PublishLowStock(ctx context.Context, ev inventory.LowStockEvent) error {
	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	body, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("rabbitmq: encode event: %w", err)
	}
	msg := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    ev.OccurredAt,
		Body:         body,
	}
	err = retry(ctx, publishAttempts, publishBackoff, func() error {
		return p.publish(ctx, RoutingKeyLowStock, msg)
	})
	if err != nil {
		return fmt.Errorf("rabbitmq: publish %s: %w", RoutingKeyLowStock, err)
	}
	p.log.Debug().Str("product_id", ev.ProductID).Int("stock", ev.Stock).Msg("alerta de stock bajo publicada")
	return nil
}

func (p *RabbitPublisher) publish(ctx context.Context, key string, msg amqp.Publishing) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.ch == nil {
		if p.openChannel == nil {
			return amqp.ErrClosed
		}
		ch, err := p.openChannel()
		if err != nil {
			return fmt.Errorf("reabrir canal: %w", err)
		}
		p.ch = ch
		p.log.Info().Msg("canal de RabbitMQ reabierto")
	}
	err := p.ch.PublishWithContext(ctx, p.exchange, key, false, false, msg)
	if errors.Is(err, amqp.ErrClosed) {
		_ = p.ch.Close()
		p.ch = nil
	}
	return err
}

// Close cierra canal y conexión.
func (p *RabbitPublisher) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.ch != nil {
		_ = p.ch.Close()
	}
	if p.conn != nil {
		_ = p.conn.Close()
	}
}

// retry ejecuta fn hasta n veces. No espera tras el último intento y corta si ctx termina.
func retry(ctx context.Context, n int, backoff time.Duration, fn func() error) error {
	var err error
	for i := 0; i < n; i++ {
		if err = fn(); err == nil {
			return nil
		}
		if i == n-1 {
			break
		}
		t := time.NewTimer(backoff * time.Duration(i+1))
		select {
		case <-ctx.Done():
			t.Stop()
			return errors.Join(err, ctx.Err())
		case <-t.C:
		}
	}
	return err
}

// NoopPublisher descarta las alertas (sin RABBITMQ_URL). Solo deja un log en debug.
type NoopPublisher struct {
	Log zerolog.Logger
}

func (n NoopPublisher) PublishLowStock(_ context.Context, ev inventory.LowStockEvent) error {
	n.Log.Debug().Str("product_id", ev.ProductID).Int("stock", ev.Stock).Msg("alerta de stock bajo (sin broker)")
	return nil
}
