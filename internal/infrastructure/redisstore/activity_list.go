package redisstore

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/jhoicas/bodegas-api/internal/domain/entity"
	"github.com/jhoicas/bodegas-api/internal/domain/repository"
)

const activityKey = "activity:recent"

var _ repository.ActivityRepository = (*ActivityList)(nil)

// ActivityList lista acotada en Redis: LPUSH + LTRIM deja solo las últimas size entradas.
type ActivityList struct {
	client *redis.Client
	size   int64
}

// NewActivityList construye el adaptador.
func NewActivityList(client *redis.Client, size int) *ActivityList {
	return &ActivityList{client: client, size: int64(size)}
}

// Append agrega la entrada al inicio y recorta la lista en la misma transacción MULTI.
func (l *ActivityList) Append(ctx context.Context, activity *entity.Activity) error {
	payload, err := json.Marshal(activity)
	if err != nil {
		return fmt.Errorf("serializar actividad: %w", err)
	}
	_, err = l.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.LPush(ctx, activityKey, payload)
		pipe.LTrim(ctx, activityKey, 0, l.size-1)
		return nil
	})
	if err != nil {
		return fmt.Errorf("lpush actividad: %w", err)
	}
	return nil
}

// Recent devuelve hasta limit entradas, la más reciente primero.
func (l *ActivityList) Recent(ctx context.Context, limit int) ([]*entity.Activity, error) {
	raw, err := l.client.LRange(ctx, activityKey, 0, int64(limit)-1).Result()
	if err != nil {
		return nil, fmt.Errorf("lrange actividad: %w", err)
	}
	out := make([]*entity.Activity, 0, len(raw))
	for _, s := range raw {
		var a entity.Activity
		if err := json.Unmarshal([]byte(s), &a); err != nil {
			return nil, fmt.Errorf("deserializar actividad: %w", err)
		}
		out = append(out, &a)
	}
	return out, nil
}
