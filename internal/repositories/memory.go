package repositories

import (
	"context"
	"sort"
	"sync"
	"time"

	"reelgen/internal/models"
	"reelgen/internal/pkg/errors"
)

// MemoryVideos keeps video records in process memory. It is used when no
// database is configured; records do not survive a restart.
type MemoryVideos struct {
	mu     sync.RWMutex
	videos map[string]models.Video
	now    func() time.Time
}

func NewMemoryVideos() *MemoryVideos {
	return &MemoryVideos{videos: make(map[string]models.Video), now: time.Now}
}

func (m *MemoryVideos) Create(_ context.Context, v *models.Video) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.videos[v.ID]; ok {
		return errors.Validation("video already exists").WithField("video_id", v.ID)
	}
	v.CreatedAt = m.now().UTC()
	m.videos[v.ID] = *v
	return nil
}

func (m *MemoryVideos) Get(_ context.Context, id string) (*models.Video, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.videos[id]
	if !ok || v.DeletedAt != nil {
		return nil, errors.NotFound("video", id)
	}
	return &v, nil
}

func (m *MemoryVideos) List(_ context.Context, limit int) ([]models.Video, error) {
	m.mu.RLock()
	out := make([]models.Video, 0, len(m.videos))
	for _, v := range m.videos {
		if v.DeletedAt == nil {
			out = append(out, v)
		}
	}
	m.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *MemoryVideos) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.videos[id]
	if !ok || v.DeletedAt != nil {
		return errors.NotFound("video", id)
	}
	now := m.now().UTC()
	v.DeletedAt = &now
	m.videos[id] = v
	return nil
}
