package memory

import (
	"context"
	"sync"

	"github.com/jhoicas/bodegas-api/internal/domain/entity"
	"github.com/jhoicas/bodegas-api/internal/domain/repository"
)

// DefaultActivitySize entradas que conserva el buffer circular.
const DefaultActivitySize = 50

var _ repository.ActivityRepository = (*ActivityRing)(nil)

// ActivityRing log de actividad acotado: al llenarse descarta la entrada más antigua.
type ActivityRing struct {
	mu      sync.Mutex
	entries []*entity.Activity
	next    int
	full    bool
}

// NewActivityRing construye el buffer. size <= 0 usa DefaultActivitySize.
func NewActivityRing(size int) *ActivityRing {
	if size <= 0 {
		size = DefaultActivitySize
	}
	return &ActivityRing{entries: make([]*entity.Activity, size)}
}

// Append agrega la entrada.
func (r *ActivityRing) Append(_ context.Context, activity *entity.Activity) error {
	cp := *activity
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries[r.next] = &cp
	r.next = (r.next + 1) % len(r.entries)
	if r.next == 0 {
		r.full = true
	}
	return nil
}

// Recent devuelve hasta limit entradas, la más reciente primero.
func (r *ActivityRing) Recent(_ context.Context, limit int) ([]*entity.Activity, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := r.next
	if r.full {
		n = len(r.entries)
	}
	if limit <= 0 || limit > n {
		limit = n
	}
	out := make([]*entity.Activity, 0, limit)
	for i := 1; i <= limit; i++ {
		idx := (r.next - i + len(r.entries)) % len(r.entries)
		cp := *r.entries[idx]
		out = append(out, &cp)
	}
	return out, nil
}
