// Package activity registra el log de actividad y publica los eventos asociados. Es un canal
// lateral best-effort: corre después del commit y sus fallas se registran, nunca se devuelven.
package activity

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/jhoicas/bodegas-api/internal/application/inventory"
	"github.com/jhoicas/bodegas-api/internal/domain/entity"
	"github.com/jhoicas/bodegas-api/internal/domain/repository"
)

// DefaultRecentLimit entradas que devuelve Recent si no se pide un límite.
const DefaultRecentLimit = 5

const sinkTimeout = 2 * time.Second

// EventPublisher emite una actividad hacia un bus externo.
type EventPublisher interface {
	Publish(ctx context.Context, activity *entity.Activity) error
	Close() error
}

var _ inventory.ActivityRecorder = (*Recorder)(nil)

// Recorder reparte cada actividad entre los sumideros y el publicador.
// Recent lee del primer sumidero.
type Recorder struct {
	sinks     []repository.ActivityRepository
	publisher EventPublisher
	log       zerolog.Logger
}

// NewRecorder construye el recorder. primary es el sumidero de lectura; extra se suman solo para escritura.
func NewRecorder(primary repository.ActivityRepository, publisher EventPublisher, log zerolog.Logger, extra ...repository.ActivityRepository) *Recorder {
	sinks := []repository.ActivityRepository{primary}
	for _, s := range extra {
		if s != nil {
			sinks = append(sinks, s)
		}
	}
	return &Recorder{
		sinks:     sinks,
		publisher: publisher,
		log:       log.With().Str("component", "activity").Logger(),
	}
}

// Record persiste y publica la actividad. Cada sumidero tiene su propio límite de tiempo.
// Si la actividad no trae operador se toma el del contexto.
func (r *Recorder) Record(ctx context.Context, a *entity.Activity) {
	ctx = context.WithoutCancel(ctx)
	if a.Operator == "" {
		a.Operator = OperatorFrom(ctx)
	}
	for _, sink := range r.sinks {
		sctx, cancel := context.WithTimeout(ctx, sinkTimeout)
		if err := sink.Append(sctx, a); err != nil {
			r.log.Warn().Err(err).Str("activity_id", a.ID).Str("kind", a.Kind).Msg("no se pudo guardar la actividad")
		}
		cancel()
	}
	if r.publisher == nil {
		return
	}
	pctx, cancel := context.WithTimeout(ctx, sinkTimeout)
	defer cancel()
	if err := r.publisher.Publish(pctx, a); err != nil {
		r.log.Warn().Err(err).Str("activity_id", a.ID).Str("kind", a.Kind).Msg("no se pudo publicar la actividad")
	}
}

// Recent devuelve las últimas actividades, la más reciente primero.
func (r *Recorder) Recent(ctx context.Context, limit int) ([]*entity.Activity, error) {
	if limit <= 0 {
		limit = DefaultRecentLimit
	}
	return r.sinks[0].Recent(ctx, limit)
}
