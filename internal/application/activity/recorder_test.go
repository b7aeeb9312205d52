package activity_test

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/bodegas-api/internal/application/activity"
	"github.com/jhoicas/bodegas-api/internal/domain/entity"
	"github.com/jhoicas/bodegas-api/internal/infrastructure/memory"
)

type failingSink struct{ calls int }

func (s *failingSink) Append(context.Context, *entity.Activity) error {
	s.calls++
	return errors.New("sin conexión")
}

func (s *failingSink) Recent(context.Context, int) ([]*entity.Activity, error) { return nil, nil }

type publisherSpy struct {
	published []*entity.Activity
	ctxErr    error
}

func (p *publisherSpy) Publish(ctx context.Context, a *entity.Activity) error {
	p.ctxErr = ctx.Err()
	p.published = append(p.published, a)
	return nil
}

func (p *publisherSpy) Close() error { return nil }

func TestRecorder_RepartePeseAFallaDeSumidero(t *testing.T) {
	var buf bytes.Buffer
	log := zerolog.New(&buf)
	primary := memory.NewActivityRing(10)
	broken := &failingSink{}
	pub := &publisherSpy{}

	rec := activity.NewRecorder(primary, pub, log, broken, nil)
	rec.Record(context.Background(), &entity.Activity{ID: "a1", Kind: entity.ActivityTransfer})

	assert.Equal(t, 1, broken.calls)
	require.Len(t, pub.published, 1)
	assert.Contains(t, buf.String(), "no se pudo guardar la actividad")

	list, err := rec.Recent(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "a1", list[0].ID)
}

func TestRecorder_IgnoraCancelacionDelLlamador(t *testing.T) {
	primary := memory.NewActivityRing(10)
	pub := &publisherSpy{}
	rec := activity.NewRecorder(primary, pub, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	rec.Record(ctx, &entity.Activity{ID: "a1"})

	assert.NoError(t, pub.ctxErr)
	list, err := rec.Recent(context.Background(), 5)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestRecorder_LimitePorDefecto(t *testing.T) {
	primary := memory.NewActivityRing(50)
	rec := activity.NewRecorder(primary, nil, zerolog.Nop())
	for i := 0; i < 8; i++ {
		rec.Record(context.Background(), &entity.Activity{ID: string(rune('a' + i))})
	}
	list, err := rec.Recent(context.Background(), 0)
	require.NoError(t, err)
	assert.Len(t, list, activity.DefaultRecentLimit)
	assert.Equal(t, "h", list[0].ID)
}

func TestRecorder_TomaOperadorDelContexto(t *testing.T) {
	primary := memory.NewActivityRing(10)
	pub := &publisherSpy{}
	rec := activity.NewRecorder(primary, pub, zerolog.Nop())

	ctx := activity.WithOperator(context.Background(), "operador-3")
	rec.Record(ctx, &entity.Activity{ID: "a1"})
	rec.Record(ctx, &entity.Activity{ID: "a2", Operator: "seed"})
	rec.Record(context.Background(), &entity.Activity{ID: "a3"})

	require.Len(t, pub.published, 3)
	assert.Equal(t, "operador-3", pub.published[0].Operator)
	assert.Equal(t, "seed", pub.published[1].Operator)
	assert.Empty(t, pub.published[2].Operator)
	assert.Equal(t, "", activity.OperatorFrom(activity.WithOperator(context.Background(), "")))
}
