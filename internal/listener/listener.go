package listener

import (
	"github.com/annel0/mmo-portals/internal/audit"
	"github.com/annel0/mmo-portals/internal/config"
	"github.com/annel0/mmo-portals/internal/economy"
	"github.com/annel0/mmo-portals/internal/fill"
	"github.com/annel0/mmo-portals/internal/logging"
	"github.com/annel0/mmo-portals/internal/portal"
	"github.com/annel0/mmo-portals/internal/session"
	"github.com/annel0/mmo-portals/internal/teleport"
	"github.com/annel0/mmo-portals/internal/world"
	"github.com/annel0/mmo-portals/internal/world/block"
)

// SelectionTool — внешняя интеграция инструмента выделения.
// Когда она подключена, свой инструмент выделения не работает,
// чтобы один клик не обрабатывался дважды.
type SelectionTool interface {
	Connected() bool
}

// Listener превращает сырые события среды и ввода в действия портальной
// логики: подавление, выделение, переключение поля, заливку региона и
// проход с оплатой. Каждый обработчик тотален — не паникует ни на каком
// входе — и не трогает уже отменённые события.
//
// Все обработчики вызываются с основного игрового потока и не блокируются;
// единственная асинхронная операция — телепортация — уходит в Orchestrator.
type Listener struct {
	cfg           *config.PortalsConfig
	worlds        *world.Manager
	registry      portal.Registry
	filler        fill.Filler
	sessions      *session.Store
	gate          *economy.Gate
	teleporter    *teleport.Orchestrator
	selectionTool SelectionTool // nil — внешней интеграции нет
}

// New создаёт слушатель портальных событий
func New(
	cfg *config.PortalsConfig,
	worlds *world.Manager,
	registry portal.Registry,
	filler fill.Filler,
	sessions *session.Store,
	gate *economy.Gate,
	teleporter *teleport.Orchestrator,
) *Listener {
	return &Listener{
		cfg:        cfg,
		worlds:     worlds,
		registry:   registry,
		filler:     filler,
		sessions:   sessions,
		gate:       gate,
		teleporter: teleporter,
	}
}

// SetSelectionTool подключает внешнюю интеграцию инструмента выделения
func (l *Listener) SetSelectionTool(tool SelectionTool) {
	l.selectionTool = tool
}

// BlockPhysics подавляет пересчёт, способный погасить или размножить
// поле портала: среда не управляет портальными блоками.
func (l *Listener) BlockPhysics(ev *BlockPhysicsEvent) {
	if ev == nil || ev.IsCancelled() || ev.Block == nil {
		return
	}

	if !block.IsPortalForming(ev.ChangedType) &&
		!block.IsPortalForming(l.worlds.BlockAt(*ev.Block)) {
		return
	}
	if l.registry.IsPortal(*ev.Block) {
		ev.SetCancelled(true)
		suppressedEvents.WithLabelValues("block_physics").Inc()
	}
}

// BlockFromTo защищает порталы от потоков жидкости.
// Втекание внутрь портала блокируется всегда; вытекание — только когда
// работа с вёдрами административно запрещена: осушение портала ведром
// это осознанное действие игрока, поток наружу — его следствие.
func (l *Listener) BlockFromTo(ev *BlockFromToEvent) {
	if ev == nil || ev.IsCancelled() {
		return
	}
	// Block назначения не должен быть nil, но иногда бывает...
	if ev.Block == nil || ev.ToBlock == nil {
		return
	}

	if l.registry.IsPortal(*ev.ToBlock) {
		ev.SetCancelled(true)
		suppressedEvents.WithLabelValues("block_from_to").Inc()
		return
	}
	if l.registry.IsPortal(*ev.Block) && !l.cfg.BucketFilling {
		ev.SetCancelled(true)
		suppressedEvents.WithLabelValues("block_from_to").Inc()
	}
}

// PlayerBucketFill обрабатывает зачерпывание жидкости из портала.
// Заливка воздухом эквивалентна осушению, поэтому само событие
// отдельно не отменяется.
func (l *Listener) PlayerBucketFill(ev *BucketFillEvent) {
	if ev == nil {
		return
	}
	if ev.IsCancelled() {
		logging.Debug("Событие зачерпывания уже отменено. Ничего не делаем.")
		return
	}
	if ev.Player == nil || ev.BlockClicked == nil {
		return
	}

	ps := l.sessions.GetOrCreate(ev.Player)
	def := l.registry.Resolve(ev.Player, *ev.BlockClicked)
	if def == nil {
		return
	}
	if ps.IsDebugModeOn() {
		ps.ShowDebugInfo(def)
		ev.SetCancelled(true)
		return
	}

	logging.Trace("Осушение портала '%s' от %s", def.Name, ev.BlockClicked)
	if l.filler.FillRegion(def.Region, *ev.BlockClicked, block.AirID, ev.Player) {
		fillsTotal.WithLabelValues(block.Name(block.AirID)).Inc()
		audit.Emit(audit.EventFilled, audit.Record{
			Player: ev.Player.DisplayName(),
			Portal: def.Name,
			Detail: block.Name(block.AirID),
		})
	}
}

// PlayerBucketEmpty обрабатывает выливание ведра в портал.
// Точка заливки — блок по другую сторону кликнутой грани.
func (l *Listener) PlayerBucketEmpty(ev *BucketEmptyEvent) {
	if ev == nil {
		return
	}
	if ev.IsCancelled() {
		logging.Debug("Событие выливания уже отменено. Ничего не делаем.")
		return
	}
	if ev.Player == nil || ev.BlockClicked == nil {
		return
	}

	if !l.cfg.BucketFilling {
		logging.Debug("Работа с вёдрами выключена в конфигурации, ничего не делаем")
		return
	}

	translated := world.Translate(*ev.BlockClicked, ev.BlockFace)

	ps := l.sessions.GetOrCreate(ev.Player)
	def := l.registry.Resolve(ev.Player, translated)
	if def == nil {
		return
	}

	if ps.IsDebugModeOn() {
		ps.ShowDebugInfo(def)
		ev.SetCancelled(true)
		return
	}

	// Заполнение жидкостью — отдельная авторизация, не право входа
	if !def.PlayerCanFill(ev.Player) {
		ev.SetCancelled(true)
		return
	}

	fillMaterial := block.WaterID
	if contents, ok := block.BucketContents(ev.Bucket); ok {
		fillMaterial = contents
	}

	logging.Trace("Заливка портала '%s' материалом %s от %s",
		def.Name, block.Name(fillMaterial), translated)
	if l.filler.FillRegion(def.Region, translated, fillMaterial, ev.Player) {
		fillsTotal.WithLabelValues(block.Name(fillMaterial)).Inc()
		audit.Emit(audit.EventFilled, audit.Record{
			Player: ev.Player.DisplayName(),
			Portal: def.Name,
			Detail: block.Name(fillMaterial),
		})
	}
}

// PlayerInteract обрабатывает клики: поджиг портала инструментом
// зажигания либо выделение углов нового портала инструментом выделения.
func (l *Listener) PlayerInteract(ev *PlayerInteractEvent) {
	if ev == nil {
		return
	}
	if ev.IsCancelled() {
		logging.Debug("Событие взаимодействия уже отменено. Ничего не делаем.")
		return
	}
	if ev.Player == nil {
		return
	}

	if ev.Action == ActionRightClickBlock && ev.Item == block.FlintAndSteelID {
		l.igniteOrExtinguish(ev)
		return
	}

	// Жест выделения. Если подключена внешняя интеграция — мы не нужны.
	// Также выходим, если предмет в основной руке не инструмент выделения,
	// у игрока нет права на создание порталов или жест не основной рукой.
	if (l.selectionTool != nil && l.selectionTool.Connected()) ||
		ev.Player.ItemInMainHand() != l.cfg.WandMaterialID() ||
		!ev.Player.HasPermission(portal.CreatePermission) ||
		ev.Hand != HandMain {
		return
	}
	if ev.ClickedBlock == nil {
		return
	}

	switch ev.Action {
	case ActionLeftClickBlock:
		w, _ := l.worlds.GetLoadedWorld(ev.Player.World())
		ps := l.sessions.GetOrCreate(ev.Player)
		ev.SetCancelled(ps.SetLeftClickSelection(ev.ClickedBlock.Pos, w))
	case ActionRightClickBlock:
		w, _ := l.worlds.GetLoadedWorld(ev.Player.World())
		ps := l.sessions.GetOrCreate(ev.Player)
		ev.SetCancelled(ps.SetRightClickSelection(ev.ClickedBlock.Pos, w))
	}
}

// igniteOrExtinguish переключает поле портала одним ударом огнива.
// Каждая проверка — возможный ранний выход без отмены события:
// неудавшийся поджиг отдаёт событие обычной логике мира.
func (l *Listener) igniteOrExtinguish(ev *PlayerInteractEvent) {
	if ev.ClickedBlock == nil {
		return
	}

	translated := world.Translate(*ev.ClickedBlock, ev.BlockFace)
	logging.Trace("Игрок поджигает блок: %s", translated)

	if !l.registry.IsPortal(translated) {
		return
	}

	// Геометрия совпала, но разрешение могло не пройти —
	// для игрока это по-прежнему «портала нет»
	def := l.registry.Resolve(ev.Player, translated)
	if def == nil {
		return
	}

	if ev.Item == block.AirID {
		return
	}
	if !ev.Player.HasPermission(portal.CreatePermission) {
		return
	}

	// Рамка вокруг точки должна быть собрана из правильного материала:
	// поджиг недостроенной рамки ничего не делает
	if !def.IsFrameValid(l.worlds, translated) {
		return
	}

	ps := l.sessions.GetOrCreate(ev.Player)
	if ps.IsDebugModeOn() {
		ps.ShowDebugInfo(def)
		ev.SetCancelled(true)
		return
	}

	fillMaterial := block.PortalID
	eventType := audit.EventIgnited
	if l.worlds.BlockAt(translated) == block.PortalID {
		fillMaterial = block.AirID
		eventType = audit.EventExtinguished
	}

	logging.Trace("Переключение поля портала '%s': %s", def.Name, block.Name(fillMaterial))
	mutated := l.filler.FillRegion(def.Region, translated, fillMaterial, ev.Player)
	ev.SetCancelled(mutated)
	if mutated {
		fillsTotal.WithLabelValues(block.Name(fillMaterial)).Inc()
		audit.Emit(eventType, audit.Record{
			Player: ev.Player.DisplayName(),
			Portal: def.Name,
		})
	}
}

// PlayerPortal пропускает игрока через портал: проверка доступа,
// оплата и передача в оркестратор телепортации.
func (l *Listener) PlayerPortal(ev *PlayerPortalEvent) {
	if ev == nil {
		return
	}
	if ev.IsCancelled() {
		logging.Debug("Портальное событие уже отменено. Ничего не делаем.")
		return
	}
	if ev.Player == nil || ev.Location == nil {
		return
	}

	def := l.registry.Resolve(ev.Player, *ev.Location)
	if def == nil {
		return
	}

	// Порталом владеем мы — поведение мира по умолчанию отключается
	ev.SetCancelled(true)

	ps := l.sessions.GetOrCreate(ev.Player)
	if ps.OnCooldown(l.cfg.Cooldown()) {
		logging.Trace("Игрок '%s' на кулдауне телепортации", ev.Player.DisplayName())
		return
	}
	if ps.IsDebugModeOn() {
		ps.ShowDebugInfo(def)
		return
	}

	decision := l.gate.CheckAccess(def, ev.Player)
	switch decision {
	case economy.CannotUse:
		accessDenials.Inc()
		audit.Emit(audit.EventDenied, audit.Record{
			Player: ev.Player.DisplayName(),
			Portal: def.Name,
		})
		return
	case economy.PaidUse:
		// Оплата фиксируется до начала телепортации; неудачная
		// телепортация после успешной оплаты не компенсируется
		if err := l.gate.PayEntryFee(def, ev.Player); err != nil {
			logging.Error("Оплата входа в портал '%s' игроком '%s': %v",
				def.Name, ev.Player.DisplayName(), err)
			return
		}
	case economy.FreeUse:
		// Проход без оплаты
	}

	logging.Debug("Игрок '%s' проходит через портал '%s' -> '%s'",
		ev.Player.DisplayName(), def.Name, def.Destination)
	teleportRequests.Inc()
	l.teleporter.Relocate(ev.Player, def.Destination, l.cfg.TeleportSafety)
}

// PlayerTeleport отслеживает любые телепортации игрока,
// чтобы сессия знала его последнюю точку прибытия.
func (l *Listener) PlayerTeleport(ev *PlayerTeleportEvent) {
	if ev == nil || ev.Player == nil {
		return
	}
	if ev.IsCancelled() {
		logging.Debug("Событие телепортации уже отменено. Ничего не делаем.")
		return
	}
	if ev.To == nil {
		return
	}
	ps := l.sessions.GetOrCreate(ev.Player)
	ps.DidTeleport(*ev.To)
}

// PlayerQuit уничтожает портальную сессию отключившегося игрока
func (l *Listener) PlayerQuit(ev *PlayerQuitEvent) {
	if ev == nil || ev.Player == nil {
		return
	}
	l.sessions.Destroy(ev.Player.ID())
}
