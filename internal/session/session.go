package session

import (
	"fmt"
	"time"

	"github.com/annel0/mmo-portals/internal/logging"
	"github.com/annel0/mmo-portals/internal/player"
	"github.com/annel0/mmo-portals/internal/portal"
	"github.com/annel0/mmo-portals/internal/vec"
	"github.com/annel0/mmo-portals/internal/world"
)

// Session хранит портальное состояние одного подключённого игрока:
// углы выделения, флаг отладки, время и точку последнего телепорта.
//
// Мутация сессии разрешена только с основного игрового потока;
// собственной блокировки у сессии нет (см. Store).
type Session struct {
	player player.Player

	leftClick  *world.Location
	rightClick *world.Location

	debugMode    bool
	teleportTime time.Time // Нулевое значение — телепортов ещё не было
	lastLocation *world.Location
}

// NewSession создаёт сессию для игрока
func NewSession(p player.Player) *Session {
	return &Session{player: p}
}

// Player возвращает игрока, которому принадлежит сессия
func (s *Session) Player() player.Player {
	return s.player
}

// SetLeftClickSelection записывает левый угол выделения.
// Возвращает true, если выделение записано и исходное событие стоит
// отменить; false — когда мир не загружен и записывать нечего.
func (s *Session) SetLeftClickSelection(pos vec.Vec3, w *world.World) bool {
	if w == nil {
		return false
	}
	loc := world.Location{World: w.Name(), Pos: pos}
	s.leftClick = &loc
	s.player.SendMessage(fmt.Sprintf("Первый угол выделения: %s", loc))
	return true
}

// SetRightClickSelection записывает правый угол выделения.
// Семантика возврата совпадает с SetLeftClickSelection.
func (s *Session) SetRightClickSelection(pos vec.Vec3, w *world.World) bool {
	if w == nil {
		return false
	}
	loc := world.Location{World: w.Name(), Pos: pos}
	s.rightClick = &loc
	s.player.SendMessage(fmt.Sprintf("Второй угол выделения: %s", loc))
	return true
}

// Selection возвращает оба угла выделения (nil — угол ещё не выбран).
// Выделение не сбрасывается автоматически: потребитель заменяет его сам.
func (s *Session) Selection() (left, right *world.Location) {
	return s.leftClick, s.rightClick
}

// SetDebugMode включает или выключает режим отладки
func (s *Session) SetDebugMode(on bool) {
	s.debugMode = on
}

// IsDebugModeOn сообщает, включён ли режим отладки
func (s *Session) IsDebugModeOn() bool {
	return s.debugMode
}

// ShowDebugInfo отправляет игроку инспекционную сводку по порталу
func (s *Session) ShowDebugInfo(def *portal.Definition) {
	s.player.SendMessage(fmt.Sprintf("--- Портал '%s' ---", def.Name))
	s.player.SendMessage(fmt.Sprintf("Регион: %s %s..%s",
		def.Region.World, def.Region.Min, def.Region.Max))
	s.player.SendMessage(fmt.Sprintf("Назначение: %s", def.Destination))
	if def.Price > 0 {
		s.player.SendMessage(fmt.Sprintf("Цена входа: %.2f %s", def.Price, def.Currency))
	} else {
		s.player.SendMessage("Вход бесплатный")
	}
	logging.Debug("Отладочная сводка портала '%s' показана игроку '%s'",
		def.Name, s.player.DisplayName())
}

// DidTeleport записывает точку прибытия игрока.
// Перекрывает любое предыдущее отслеживание позиции.
func (s *Session) DidTeleport(to world.Location) {
	loc := to
	s.lastLocation = &loc
}

// SetTeleportTime фиксирует время последнего телепорта
func (s *Session) SetTeleportTime(t time.Time) {
	s.teleportTime = t
}

// TeleportTime возвращает время последнего телепорта (нулевое — не было)
func (s *Session) TeleportTime() time.Time {
	return s.teleportTime
}

// LastLocation возвращает последнюю записанную точку прибытия
func (s *Session) LastLocation() *world.Location {
	return s.lastLocation
}

// OnCooldown сообщает, прошло ли с последнего телепорта меньше window
func (s *Session) OnCooldown(window time.Duration) bool {
	if window <= 0 || s.teleportTime.IsZero() {
		return false
	}
	return time.Since(s.teleportTime) < window
}
