package portal

import (
	"context"
	"fmt"
	"sync"

	"github.com/annel0/mmo-portals/internal/logging"
	"github.com/annel0/mmo-portals/internal/player"
	"github.com/annel0/mmo-portals/internal/world"
)

// Registry отвечает на два вопроса портальной логики:
// лежит ли координата внутри какого-либо портала и какой портал
// логически владеет координатой для данного игрока.
type Registry interface {
	// IsPortal проверяет принадлежность координаты какому-либо порталу
	IsPortal(loc world.Location) bool

	// Resolve возвращает портал, владеющий координатой, с учётом видимости
	// для игрока. nil означает «портала нет» — в том числе когда геометрия
	// совпала, но у игрока нет права видеть портал.
	Resolve(p player.Player, loc world.Location) *Definition
}

// Manager реализует Registry поверх репозитория определений порталов.
// Определения держатся в памяти; репозиторий — источник при загрузке
// и приёмник при изменениях.
type Manager struct {
	mu            sync.RWMutex
	portals       map[string]*Definition
	repo          Repo
	enforceAccess bool
}

// NewManager создаёт менеджер и загружает все порталы из репозитория
func NewManager(ctx context.Context, repo Repo, enforceAccess bool) (*Manager, error) {
	m := &Manager{
		portals:       make(map[string]*Definition),
		repo:          repo,
		enforceAccess: enforceAccess,
	}

	defs, err := repo.LoadAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("загрузка порталов: %w", err)
	}
	for i := range defs {
		def := defs[i]
		m.portals[def.Name] = &def
	}

	logging.Info("🌀 Загружено порталов: %d", len(m.portals))
	return m, nil
}

// IsPortal проверяет принадлежность координаты какому-либо порталу
func (m *Manager) IsPortal(loc world.Location) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, def := range m.portals {
		if def.Region.Contains(loc) {
			return true
		}
	}
	return false
}

// Resolve возвращает портал по координате с учётом видимости для игрока.
// При включённом контроле доступа портал видят только игроки с правом
// входа или правом создания порталов.
func (m *Manager) Resolve(p player.Player, loc world.Location) *Definition {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, def := range m.portals {
		if !def.Region.Contains(loc) {
			continue
		}
		if m.enforceAccess && p != nil &&
			!p.HasPermission(def.Permission()) && !p.HasPermission(CreatePermission) {
			logging.Debug("Портал '%s' скрыт от игрока '%s' (нет права %s)",
				def.Name, p.DisplayName(), def.Permission())
			return nil
		}
		return def
	}
	return nil
}

// Get возвращает портал по имени
func (m *Manager) Get(name string) (*Definition, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	def, exists := m.portals[name]
	return def, exists
}

// List возвращает копию списка всех порталов
func (m *Manager) List() []*Definition {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*Definition, 0, len(m.portals))
	for _, def := range m.portals {
		out = append(out, def)
	}
	return out
}

// Add регистрирует портал и сохраняет его в репозитории
func (m *Manager) Add(ctx context.Context, def Definition) error {
	if def.Name == "" {
		return fmt.Errorf("портал без имени")
	}
	if def.Region.World == "" {
		return fmt.Errorf("портал '%s' без мира", def.Name)
	}

	if err := m.repo.Save(ctx, def); err != nil {
		return fmt.Errorf("сохранение портала '%s': %w", def.Name, err)
	}

	m.mu.Lock()
	m.portals[def.Name] = &def
	m.mu.Unlock()

	logging.Info("🌀 Портал '%s' зарегистрирован (%s %s..%s)",
		def.Name, def.Region.World, def.Region.Min, def.Region.Max)
	return nil
}

// Remove удаляет портал из менеджера и репозитория
func (m *Manager) Remove(ctx context.Context, name string) error {
	if err := m.repo.Delete(ctx, name); err != nil {
		return fmt.Errorf("удаление портала '%s': %w", name, err)
	}

	m.mu.Lock()
	delete(m.portals, name)
	m.mu.Unlock()
	return nil
}

// Count возвращает количество зарегистрированных порталов
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.portals)
}
