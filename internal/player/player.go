package player

import (
	"sync"

	"github.com/annel0/mmo-portals/internal/world"
	"github.com/annel0/mmo-portals/internal/world/block"
)

// Player представляет подключённого игрока для портальной логики.
// Идентификация, права и доставка сообщений принадлежат хост-серверу;
// здесь зафиксирован только необходимый минимум операций.
type Player interface {
	// ID возвращает стабильный идентификатор игрока
	ID() string
	// DisplayName возвращает отображаемое имя игрока
	DisplayName() string
	// World возвращает имя мира, в котором находится игрок
	World() string
	// HasPermission проверяет наличие у игрока указанного права
	HasPermission(node string) bool
	// ItemInMainHand возвращает материал предмета в основной руке (AirID — рука пуста)
	ItemInMainHand() block.MaterialID
	// SendMessage доставляет игроку текстовое сообщение
	SendMessage(msg string)
}

// LocalPlayer реализует Player в памяти.
// Используется встроенным сервером и тестами; продакшен-обвязка
// оборачивает игрока хост-платформы.
type LocalPlayer struct {
	id    string
	name  string
	world string

	mu       sync.RWMutex
	pos      world.Location
	perms    map[string]bool
	mainHand block.MaterialID
	inbox    []string
}

// NewLocalPlayer создаёт игрока с указанным ID и отображаемым именем
func NewLocalPlayer(id, name, worldName string) *LocalPlayer {
	return &LocalPlayer{
		id:    id,
		name:  name,
		world: worldName,
		perms: make(map[string]bool),
	}
}

func (p *LocalPlayer) ID() string          { return p.id }
func (p *LocalPlayer) DisplayName() string { return p.name }

// World возвращает имя мира, в котором находится игрок
func (p *LocalPlayer) World() string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.world
}

// MoveTo перемещает игрока в указанную координату (возможно, в другой мир)
func (p *LocalPlayer) MoveTo(loc world.Location) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.world = loc.World
	p.pos = loc
}

// Position возвращает последнюю известную координату игрока
func (p *LocalPlayer) Position() world.Location {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.pos
}

// HasPermission проверяет наличие права
func (p *LocalPlayer) HasPermission(node string) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.perms[node]
}

// GrantPermission выдаёт игроку право
func (p *LocalPlayer) GrantPermission(node string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.perms[node] = true
}

// RevokePermission отзывает у игрока право
func (p *LocalPlayer) RevokePermission(node string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.perms, node)
}

// ItemInMainHand возвращает материал предмета в основной руке
func (p *LocalPlayer) ItemInMainHand() block.MaterialID {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.mainHand
}

// SetItemInMainHand помещает предмет в основную руку
func (p *LocalPlayer) SetItemInMainHand(id block.MaterialID) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.mainHand = id
}

// SendMessage сохраняет сообщение во входящей очереди игрока
func (p *LocalPlayer) SendMessage(msg string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.inbox = append(p.inbox, msg)
}

// Messages возвращает копию всех доставленных сообщений (для тестов и отладки)
func (p *LocalPlayer) Messages() []string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make([]string, len(p.inbox))
	copy(out, p.inbox)
	return out
}
