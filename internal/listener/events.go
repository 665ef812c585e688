package listener

import (
	"github.com/annel0/mmo-portals/internal/player"
	"github.com/annel0/mmo-portals/internal/world"
	"github.com/annel0/mmo-portals/internal/world/block"
)

// Action тип жеста взаимодействия игрока с миром
type Action int

const (
	ActionOther Action = iota
	ActionLeftClickBlock
	ActionRightClickBlock
)

// Hand рука, которой выполнено взаимодействие
type Hand int

const (
	HandMain Hand = iota
	HandOff
)

// Cancellable несёт флаг отмены события.
// Отменённое событие другие обработчики не трогают.
type Cancellable struct {
	cancelled bool
}

// IsCancelled сообщает, отменено ли событие
func (c *Cancellable) IsCancelled() bool {
	return c.cancelled
}

// SetCancelled помечает событие отменённым (или снимает пометку)
func (c *Cancellable) SetCancelled(v bool) {
	c.cancelled = v
}

// BlockPhysicsEvent — мир пересчитал блок (среда может погасить
// или размножить поле портала).
// Block может быть nil: хост иногда присылает неполные события.
type BlockPhysicsEvent struct {
	Cancellable
	Block       *world.Location
	ChangedType block.MaterialID // Материал-результат пересчёта
}

// BlockFromToEvent — жидкость или иной поток между двумя блоками
type BlockFromToEvent struct {
	Cancellable
	Block   *world.Location // Источник потока
	ToBlock *world.Location // Назначение потока
}

// BucketFillEvent — игрок зачерпывает жидкость из мира в ведро
type BucketFillEvent struct {
	Cancellable
	Player       player.Player
	BlockClicked *world.Location
}

// BucketEmptyEvent — игрок выливает ведро в мир
type BucketEmptyEvent struct {
	Cancellable
	Player       player.Player
	BlockClicked *world.Location
	BlockFace    world.Face       // Грань, по которой пришёлся клик
	Bucket       block.MaterialID // Материал ведра (water_bucket/lava_bucket)
}

// PlayerInteractEvent — общий жест взаимодействия (клик по блоку)
type PlayerInteractEvent struct {
	Cancellable
	Player       player.Player
	Action       Action
	Item         block.MaterialID // Предмет, которым выполнен жест (AirID — пусто)
	ClickedBlock *world.Location
	BlockFace    world.Face
	Hand         Hand
}

// PlayerPortalEvent — игрок коснулся поля портала
type PlayerPortalEvent struct {
	Cancellable
	Player   player.Player
	Location *world.Location // Точка касания поля
}

// PlayerTeleportEvent — игрок телепортирован (любым способом)
type PlayerTeleportEvent struct {
	Cancellable
	Player player.Player
	To     *world.Location
}

// PlayerQuitEvent — игрок отключился от сервера
type PlayerQuitEvent struct {
	Player player.Player
}
