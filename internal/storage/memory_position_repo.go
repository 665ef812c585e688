package storage

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/annel0/mmo-portals/internal/world"
)

// MemoryPositionRepo реализует PositionRepo в памяти.
// Используется как fallback, когда Redis недоступен,
// или для CI/локальной разработки.
// ВНИМАНИЕ: Данные теряются при перезапуске сервера!
type MemoryPositionRepo struct {
	mu   sync.RWMutex
	data map[string]ArrivalRecord // playerID -> запись
}

// NewMemoryPositionRepo создает новый репозиторий точек прибытия в памяти
func NewMemoryPositionRepo() *MemoryPositionRepo {
	return &MemoryPositionRepo{
		data: make(map[string]ArrivalRecord),
	}
}

// Save сохраняет точку прибытия игрока в памяти
func (r *MemoryPositionRepo) Save(ctx context.Context, playerID string, loc world.Location) error {
	if playerID == "" {
		return fmt.Errorf("недействительный playerID")
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.data[playerID] = ArrivalRecord{
		PlayerID:  playerID,
		Location:  loc,
		UpdatedAt: time.Now(),
	}
	return nil
}

// Load загружает точку прибытия игрока из памяти
func (r *MemoryPositionRepo) Load(ctx context.Context, playerID string) (world.Location, bool, error) {
	if playerID == "" {
		return world.Location{}, false, fmt.Errorf("недействительный playerID")
	}

	select {
	case <-ctx.Done():
		return world.Location{}, false, ctx.Err()
	default:
	}

	r.mu.RLock()
	defer r.mu.RUnlock()
	rec, exists := r.data[playerID]
	return rec.Location, exists, nil
}

// Delete удаляет запись игрока из памяти
func (r *MemoryPositionRepo) Delete(ctx context.Context, playerID string) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.data[playerID]; !exists {
		return fmt.Errorf("запись для игрока %s не найдена", playerID)
	}
	delete(r.data, playerID)
	return nil
}

// Count возвращает количество сохранённых записей (для тестов)
func (r *MemoryPositionRepo) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.data)
}
