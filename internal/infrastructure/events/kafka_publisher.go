// Package events publica la actividad del inventario hacia Kafka.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"

	"github.com/jhoicas/bodegas-api/internal/application/activity"
	"github.com/jhoicas/bodegas-api/internal/domain/entity"
	"github.com/jhoicas/bodegas-api/pkg/config"
)

var (
	_ activity.EventPublisher = (*KafkaPublisher)(nil)
	_ activity.EventPublisher = NoopPublisher{}
)

// MessageWriter subconjunto de *kafka.Writer usado por el publicador.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaPublisher escribe cada actividad como un mensaje JSON con key = SKU (o bodega si no hay SKU).
type KafkaPublisher struct {
	writer MessageWriter
	source string
}

// NewKafkaPublisher construye el writer a partir de la configuración.
func NewKafkaPublisher(cfg config.KafkaConfig, source string) *KafkaPublisher {
	w := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        cfg.Topic,
		Balancer:     &kafka.Hash{},
		BatchTimeout: 10 * time.Millisecond,
		BatchSize:    100,
		RequiredAcks: kafka.RequireOne,
	}
	return NewKafkaPublisherWithWriter(w, source)
}

// NewKafkaPublisherWithWriter permite inyectar el writer (tests).
func NewKafkaPublisherWithWriter(w MessageWriter, source string) *KafkaPublisher {
	return &KafkaPublisher{writer: w, source: source}
}

// Publish serializa y envía la actividad.
func (p *KafkaPublisher) Publish(ctx context.Context, a *entity.Activity) error {
	msg, err := p.message(a)
	if err != nil {
		return err
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("publicar actividad %s: %w", a.ID, err)
	}
	return nil
}

func (p *KafkaPublisher) message(a *entity.Activity) (kafka.Message, error) {
	payload, err := json.Marshal(a)
	if err != nil {
		return kafka.Message{}, fmt.Errorf("serializar actividad: %w", err)
	}
	key := a.SKU
	if key == "" {
		key = a.WarehouseID
	}
	eventID := a.ID
	if eventID == "" {
		eventID = uuid.NewString()
	}
	return kafka.Message{
		Key:   []byte(key),
		Value: payload,
		Time:  a.OccurredAt,
		Headers: []kafka.Header{
			{Key: "event-type", Value: []byte(a.Kind)},
			{Key: "event-id", Value: []byte(eventID)},
			{Key: "source", Value: []byte(p.source)},
		},
	}, nil
}

// Close cierra el writer y vacía los lotes pendientes.
func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}

// NoopPublisher se usa cuando no hay brokers configurados.
type NoopPublisher struct{}

// Publish no hace nada.
func (NoopPublisher) Publish(context.Context, *entity.Activity) error { return nil }

// Close no hace nada.
func (NoopPublisher) Close() error { return nil }
