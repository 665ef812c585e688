package teleport

import (
	"context"
	"time"

	"github.com/annel0/mmo-portals/internal/audit"
	"github.com/annel0/mmo-portals/internal/game"
	"github.com/annel0/mmo-portals/internal/logging"
	"github.com/annel0/mmo-portals/internal/player"
	"github.com/annel0/mmo-portals/internal/portal"
	"github.com/annel0/mmo-portals/internal/session"
	"github.com/annel0/mmo-portals/internal/storage"
	"github.com/annel0/mmo-portals/internal/world"
	"github.com/annel0/mmo-portals/internal/world/block"
)

// Result представляет исход асинхронной телепортации
type Result struct {
	OK     bool
	Reason string // Человекочитаемая причина при неудаче
}

// Relocator — примитив безопасного перемещения игрока.
// BeginRelocate возвращается немедленно; результат приходит в канал
// ровно один раз, возможно из другой горутины.
type Relocator interface {
	BeginRelocate(p player.Player, dest portal.Destination, checkSafety bool) <-chan Result
}

// Relocatable реализуют игроки, позицией которых владеет этот процесс.
// Игроки хост-платформы перемещаются самой платформой.
type Relocatable interface {
	MoveTo(loc world.Location)
}

// Orchestrator связывает запрос на телепортацию с продолжением:
// запись точки прибытия в сессию, отметка времени и аудит выполняются
// после фактического завершения перемещения, на основном потоке.
type Orchestrator struct {
	relocator Relocator
	sessions  *session.Store
	positions storage.PositionRepo
	runner    game.Runner
}

// NewOrchestrator создаёт оркестратор телепортации
func NewOrchestrator(relocator Relocator, sessions *session.Store, positions storage.PositionRepo, runner game.Runner) *Orchestrator {
	return &Orchestrator{
		relocator: relocator,
		sessions:  sessions,
		positions: positions,
		runner:    runner,
	}
}

// Relocate запускает перемещение игрока и возвращается, не дожидаясь результата.
// Проверка безопасности выполняется, только если её запросил вызывающий
// И назначение её допускает; запрет назначения перекрыть нельзя.
func (o *Orchestrator) Relocate(p player.Player, dest portal.Destination, checkSafety bool) {
	effective := checkSafety && dest.Safe
	results := o.relocator.BeginRelocate(p, dest, effective)

	go func() {
		res := <-results

		if res.OK && o.positions != nil {
			// Персистентность точки прибытия не должна задерживать
			// основной поток — пишем до возврата в игровой цикл
			ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
			if err := o.positions.Save(ctx, p.ID(), dest.Loc); err != nil {
				logging.Warn("Сохранение точки прибытия игрока '%s': %v", p.DisplayName(), err)
			}
			cancel()
		}

		o.runner.Post(func() {
			o.complete(p, dest, res)
		})
	}()
}

// complete выполняется на основном потоке после завершения перемещения.
func (o *Orchestrator) complete(p player.Player, dest portal.Destination, res Result) {
	if !res.OK {
		logging.Info("Не удалось телепортировать игрока '%s' в '%s'. Причина: %s",
			p.DisplayName(), dest, res.Reason)
		audit.Emit(audit.EventFailed, audit.Record{
			Player: p.DisplayName(),
			Detail: res.Reason,
		})
		return
	}

	// Игрок мог отключиться, пока телепортация была в полёте —
	// отсутствующая сессия не ошибка
	if s, exists := o.sessions.Get(p.ID()); exists {
		s.DidTeleport(dest.Loc)
		s.SetTeleportTime(time.Now())
	}

	logging.Info("Игрок '%s' телепортирован в '%s'", p.DisplayName(), dest)
	audit.Emit(audit.EventUsed, audit.Record{
		Player: p.DisplayName(),
		Detail: dest.String(),
	})
}

// SafeRelocator реализует Relocator поверх менеджера миров.
// Проверка безопасности и само перемещение выполняются вне
// основного потока.
type SafeRelocator struct {
	worlds *world.Manager
}

// NewSafeRelocator создаёт перемещатель поверх менеджера миров
func NewSafeRelocator(worlds *world.Manager) *SafeRelocator {
	return &SafeRelocator{worlds: worlds}
}

// BeginRelocate запускает перемещение и немедленно возвращает канал результата
func (r *SafeRelocator) BeginRelocate(p player.Player, dest portal.Destination, checkSafety bool) <-chan Result {
	results := make(chan Result, 1)

	go func() {
		defer close(results)

		if checkSafety && !r.isSafe(dest.Loc) {
			// Сообщение игроку о неудаче — ответственность примитива
			p.SendMessage("Точка назначения небезопасна, телепортация отменена.")
			results <- Result{OK: false, Reason: "небезопасная точка назначения"}
			return
		}

		if mover, ok := p.(Relocatable); ok {
			mover.MoveTo(dest.Loc)
		}
		results <- Result{OK: true}
	}()

	return results
}

// isSafe проверяет, что в точке назначения можно стоять:
// два непроходимых-для-тела блока свободны, под ногами твёрдый блок,
// и ни один из них не лава.
func (r *SafeRelocator) isSafe(loc world.Location) bool {
	w, loaded := r.worlds.GetLoadedWorld(loc.World)
	if !loaded {
		return false
	}

	feet := w.GetBlock(loc.Pos)
	head := w.GetBlock(loc.Pos.Add(world.FaceUp.Offset()))
	floor := w.GetBlock(loc.Pos.Add(world.FaceDown.Offset()))

	if feet == block.LavaID || head == block.LavaID || floor == block.LavaID {
		return false
	}
	if isSolid(feet) || isSolid(head) {
		return false
	}
	return isSolid(floor)
}

func isSolid(id block.MaterialID) bool {
	props, exists := block.Get(id)
	return exists && props.Solid
}
