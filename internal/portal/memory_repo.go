package portal

import (
	"context"
	"fmt"
	"sync"
)

// MemoryRepo реализует Repo в памяти.
// Используется как fallback, когда база данных недоступна,
// или для CI/локальной разработки без БД.
// ВНИМАНИЕ: Данные теряются при перезапуске сервера!
type MemoryRepo struct {
	mu   sync.RWMutex
	data map[string]Definition // name -> определение
}

// NewMemoryRepo создает новый репозиторий порталов в памяти
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{
		data: make(map[string]Definition),
	}
}

// LoadAll загружает все определения порталов из памяти
func (r *MemoryRepo) LoadAll(ctx context.Context) ([]Definition, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Definition, 0, len(r.data))
	for _, def := range r.data {
		out = append(out, def)
	}
	return out, nil
}

// Save сохраняет определение портала в памяти
func (r *MemoryRepo) Save(ctx context.Context, def Definition) error {
	if def.Name == "" {
		return fmt.Errorf("недействительное имя портала")
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.data[def.Name] = def
	return nil
}

// Delete удаляет определение портала из памяти
func (r *MemoryRepo) Delete(ctx context.Context, name string) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.data[name]; !exists {
		return fmt.Errorf("портал '%s' не найден", name)
	}
	delete(r.data, name)
	return nil
}

// Count возвращает количество сохранённых порталов (для тестов)
func (r *MemoryRepo) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.data)
}
