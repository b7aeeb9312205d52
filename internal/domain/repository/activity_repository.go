package repository

import (
	"context"

	"github.com/jhoicas/bodegas-api/internal/domain/entity"
)

// ActivityRepository sumidero del log de actividad (best-effort).
type ActivityRepository interface {
	Append(ctx context.Context, activity *entity.Activity) error
	Recent(ctx context.Context, limit int) ([]*entity.Activity, error)
}
