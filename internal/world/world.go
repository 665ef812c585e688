package world

import (
	"sync"

	"github.com/annel0/mmo-portals/internal/vec"
	"github.com/annel0/mmo-portals/internal/world/block"
)

// World хранит блоки одного мира в памяти.
// Незаписанные координаты считаются воздухом.
type World struct {
	name string
	mu   sync.RWMutex
	data map[vec.Vec3]block.MaterialID
}

// NewWorld создаёт пустой мир с указанным именем
func NewWorld(name string) *World {
	return &World{
		name: name,
		data: make(map[vec.Vec3]block.MaterialID),
	}
}

// Name возвращает имя мира
func (w *World) Name() string {
	return w.name
}

// GetBlock возвращает материал блока в указанной позиции
func (w *World) GetBlock(pos vec.Vec3) block.MaterialID {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.data[pos]
}

// SetBlock устанавливает материал блока в указанной позиции
func (w *World) SetBlock(pos vec.Vec3, id block.MaterialID) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if id == block.AirID {
		delete(w.data, pos)
		return
	}
	w.data[pos] = id
}

// BlockCount возвращает количество не-воздушных блоков (для отладки)
func (w *World) BlockCount() int {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return len(w.data)
}

// Manager управляет набором загруженных миров
type Manager struct {
	mu     sync.RWMutex
	worlds map[string]*World
}

// NewManager создаёт пустой менеджер миров
func NewManager() *Manager {
	return &Manager{worlds: make(map[string]*World)}
}

// CreateWorld создаёт и регистрирует мир, если его ещё нет
func (m *Manager) CreateWorld(name string) *World {
	m.mu.Lock()
	defer m.mu.Unlock()
	if w, exists := m.worlds[name]; exists {
		return w
	}
	w := NewWorld(name)
	m.worlds[name] = w
	return w
}

// GetLoadedWorld возвращает мир по имени.
// Второе значение false означает, что мир не загружен; вызывающие
// обязаны обрабатывать отсутствие мира без ошибки.
func (m *Manager) GetLoadedWorld(name string) (*World, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	w, exists := m.worlds[name]
	return w, exists
}

// BlockAt возвращает материал блока по полной координате.
// Для незагруженного мира возвращает воздух.
func (m *Manager) BlockAt(loc Location) block.MaterialID {
	w, exists := m.GetLoadedWorld(loc.World)
	if !exists {
		return block.AirID
	}
	return w.GetBlock(loc.Pos)
}

// SetBlockAt устанавливает материал блока по полной координате.
// Запись в незагруженный мир игнорируется.
func (m *Manager) SetBlockAt(loc Location, id block.MaterialID) {
	w, exists := m.GetLoadedWorld(loc.World)
	if !exists {
		return
	}
	w.SetBlock(loc.Pos, id)
}
