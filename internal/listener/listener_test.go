package listener

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/annel0/mmo-portals/internal/config"
	"github.com/annel0/mmo-portals/internal/economy"
	"github.com/annel0/mmo-portals/internal/fill"
	"github.com/annel0/mmo-portals/internal/player"
	"github.com/annel0/mmo-portals/internal/portal"
	"github.com/annel0/mmo-portals/internal/session"
	"github.com/annel0/mmo-portals/internal/storage"
	"github.com/annel0/mmo-portals/internal/teleport"
	"github.com/annel0/mmo-portals/internal/vec"
	"github.com/annel0/mmo-portals/internal/world"
	"github.com/annel0/mmo-portals/internal/world/block"
)

// relocateCall фиксирует один вызов перемещателя
type relocateCall struct {
	player      player.Player
	dest        portal.Destination
	checkSafety bool
}

// fakeRelocator реализует teleport.Relocator с заранее заданным результатом
type fakeRelocator struct {
	mu      sync.Mutex
	calls   []relocateCall
	result  teleport.Result
	onBegin func() // вызывается синхронно в момент запроса перемещения
}

func (f *fakeRelocator) BeginRelocate(p player.Player, dest portal.Destination, checkSafety bool) <-chan teleport.Result {
	f.mu.Lock()
	f.calls = append(f.calls, relocateCall{player: p, dest: dest, checkSafety: checkSafety})
	cb := f.onBegin
	f.mu.Unlock()

	if cb != nil {
		cb()
	}
	ch := make(chan teleport.Result, 1)
	ch <- f.result
	return ch
}

func (f *fakeRelocator) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func (f *fakeRelocator) lastCall() relocateCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[len(f.calls)-1]
}

// queueRunner имитирует основной игровой поток: задачи копятся в канале,
// тест исполняет их явно через runOne
type queueRunner struct {
	tasks chan func()
}

func newQueueRunner() *queueRunner {
	return &queueRunner{tasks: make(chan func(), 16)}
}

func (r *queueRunner) Post(task func()) {
	r.tasks <- task
}

// runOne дожидается одной задачи и выполняет её
func (r *queueRunner) runOne(t *testing.T) {
	t.Helper()
	select {
	case task := <-r.tasks:
		task()
	case <-time.After(2 * time.Second):
		t.Fatal("задача не дошла до игрового цикла")
	}
}

// fixture собирает полный стенд портальной логики в памяти
type fixture struct {
	cfg       *config.PortalsConfig
	worlds    *world.Manager
	portals   *portal.Manager
	sessions  *session.Store
	ledger    *economy.MemoryLedger
	relocator *fakeRelocator
	runner    *queueRunner
	listener  *Listener
}

func newFixture(t *testing.T, enforceAccess bool) *fixture {
	t.Helper()

	cfg := &config.PortalsConfig{
		WandMaterial:        "wood_axe",
		BucketFilling:       true,
		EnforcePortalAccess: enforceAccess,
		TeleportSafety:      true,
		CooldownMs:          0,
	}

	worlds := world.NewManager()
	worlds.CreateWorld("world")

	portals, err := portal.NewManager(context.Background(), portal.NewMemoryRepo(), enforceAccess)
	require.NoError(t, err, "менеджер порталов должен создаться")

	sessions := session.NewStore()
	ledger := economy.NewMemoryLedger()
	gate := economy.NewGate(ledger, enforceAccess)

	relocator := &fakeRelocator{result: teleport.Result{OK: true}}
	runner := newQueueRunner()
	teleporter := teleport.NewOrchestrator(relocator, sessions, storage.NewMemoryPositionRepo(), runner)

	filler := fill.NewRegionFiller(worlds)
	l := New(cfg, worlds, portals, filler, sessions, gate, teleporter)

	return &fixture{
		cfg:       cfg,
		worlds:    worlds,
		portals:   portals,
		sessions:  sessions,
		ledger:    ledger,
		relocator: relocator,
		runner:    runner,
		listener:  l,
	}
}

// addPortal регистрирует портал-колонну 1x3x1 в (10, 64..66, 10)
func (f *fixture) addPortal(t *testing.T, name string, price float64) *portal.Definition {
	t.Helper()
	def := portal.Definition{
		Name:          name,
		Region:        portal.NewRegion("world", vec.Vec3{X: 10, Y: 64, Z: 10}, vec.Vec3{X: 10, Y: 66, Z: 10}),
		FrameMaterial: block.ObsidianID,
		Price:         price,
		Currency:      "coins",
		Destination: portal.Destination{
			Name: "spawn",
			Loc:  world.NewLocation("world", 0, 65, 0),
			Safe: true,
		},
	}
	require.NoError(t, f.portals.Add(context.Background(), def), "портал должен зарегистрироваться")
	got, ok := f.portals.Get(name)
	require.True(t, ok)
	return got
}

// fillRegion устанавливает материал во всех блоках региона
func (f *fixture) fillRegion(r portal.Region, id block.MaterialID) {
	for x := r.Min.X; x <= r.Max.X; x++ {
		for y := r.Min.Y; y <= r.Max.Y; y++ {
			for z := r.Min.Z; z <= r.Max.Z; z++ {
				f.worlds.SetBlockAt(world.NewLocation(r.World, x, y, z), id)
			}
		}
	}
}

// buildFrame обставляет регион портала материалом рамки со всех сторон
func (f *fixture) buildFrame(r portal.Region, frame block.MaterialID) {
	for x := r.Min.X - 1; x <= r.Max.X+1; x++ {
		for y := r.Min.Y - 1; y <= r.Max.Y+1; y++ {
			for z := r.Min.Z - 1; z <= r.Max.Z+1; z++ {
				loc := world.NewLocation(r.World, x, y, z)
				if r.Contains(loc) {
					continue
				}
				f.worlds.SetBlockAt(loc, frame)
			}
		}
	}
}

func (f *fixture) newPlayer(id string) *player.LocalPlayer {
	return player.NewLocalPlayer(id, id, "world")
}

func loc(x, y, z int) *world.Location {
	l := world.NewLocation("world", x, y, z)
	return &l
}

// === Подавление событий среды ===

func TestBlockPhysics_SuppressedInsidePortal(t *testing.T) {
	f := newFixture(t, false)
	f.addPortal(t, "nether", 0)

	ev := &BlockPhysicsEvent{Block: loc(10, 65, 10), ChangedType: block.PortalID}
	f.listener.BlockPhysics(ev)

	assert.True(t, ev.IsCancelled(), "пересчёт портального блока должен подавляться")
}

func TestBlockPhysics_ExistingPortalBlockSuppressed(t *testing.T) {
	// Пересчёт меняет блок на обычный материал, но в мире на этом месте
	// стоит портальный блок — среда всё равно не должна его трогать
	f := newFixture(t, false)
	f.addPortal(t, "nether", 0)
	f.worlds.SetBlockAt(*loc(10, 65, 10), block.PortalID)

	ev := &BlockPhysicsEvent{Block: loc(10, 65, 10), ChangedType: block.StoneID}
	f.listener.BlockPhysics(ev)

	assert.True(t, ev.IsCancelled())
}

func TestBlockPhysics_IgnoredOutsidePortal(t *testing.T) {
	f := newFixture(t, false)
	f.addPortal(t, "nether", 0)

	ev := &BlockPhysicsEvent{Block: loc(50, 65, 50), ChangedType: block.PortalID}
	f.listener.BlockPhysics(ev)

	assert.False(t, ev.IsCancelled(), "вне портала среда работает как обычно")
}

func TestBlockPhysics_IgnoredForOrdinaryMaterial(t *testing.T) {
	f := newFixture(t, false)
	f.addPortal(t, "nether", 0)

	ev := &BlockPhysicsEvent{Block: loc(10, 65, 10), ChangedType: block.StoneID}
	f.listener.BlockPhysics(ev)

	assert.False(t, ev.IsCancelled(), "обычный материал внутри региона не подавляется")
}

func TestBlockPhysics_NilBlockIgnored(t *testing.T) {
	f := newFixture(t, false)
	f.listener.BlockPhysics(&BlockPhysicsEvent{ChangedType: block.PortalID})
	f.listener.BlockPhysics(nil)
}

func TestBlockFromTo_InboundAlwaysCancelled(t *testing.T) {
	f := newFixture(t, false)
	f.addPortal(t, "nether", 0)

	ev := &BlockFromToEvent{Block: loc(9, 65, 10), ToBlock: loc(10, 65, 10)}
	f.listener.BlockFromTo(ev)

	assert.True(t, ev.IsCancelled(), "втекание в портал блокируется всегда")
}

func TestBlockFromTo_OutboundFollowsBucketFilling(t *testing.T) {
	f := newFixture(t, false)
	f.addPortal(t, "nether", 0)

	// Вёдра разрешены: жидкость из осушаемого портала может вытечь
	ev := &BlockFromToEvent{Block: loc(10, 65, 10), ToBlock: loc(9, 65, 10)}
	f.listener.BlockFromTo(ev)
	assert.False(t, ev.IsCancelled(), "при разрешённых вёдрах вытекание не подавляется")

	// Вёдра запрещены: портал герметичен в обе стороны
	f.cfg.BucketFilling = false
	ev = &BlockFromToEvent{Block: loc(10, 65, 10), ToBlock: loc(9, 65, 10)}
	f.listener.BlockFromTo(ev)
	assert.True(t, ev.IsCancelled(), "при запрещённых вёдрах вытекание подавляется")
}

func TestBlockFromTo_NilBlocksIgnored(t *testing.T) {
	f := newFixture(t, false)
	f.listener.BlockFromTo(&BlockFromToEvent{Block: loc(1, 1, 1)})
	f.listener.BlockFromTo(&BlockFromToEvent{ToBlock: loc(1, 1, 1)})
	f.listener.BlockFromTo(nil)
}

// === Вёдра ===

func TestPlayerBucketFill_DrainsPortal(t *testing.T) {
	f := newFixture(t, false)
	def := f.addPortal(t, "nether", 0)
	f.fillRegion(def.Region, block.WaterID)

	p := f.newPlayer("steve")
	ev := &BucketFillEvent{Player: p, BlockClicked: loc(10, 65, 10)}
	f.listener.PlayerBucketFill(ev)

	assert.False(t, ev.IsCancelled(), "зачерпывание не отменяется")
	for y := 64; y <= 66; y++ {
		assert.Equal(t, block.AirID, f.worlds.BlockAt(*loc(10, y, 10)),
			"регион портала должен быть осушен")
	}
}

func TestPlayerBucketFill_OutsidePortalIgnored(t *testing.T) {
	f := newFixture(t, false)
	f.addPortal(t, "nether", 0)
	f.worlds.SetBlockAt(*loc(50, 65, 50), block.WaterID)

	p := f.newPlayer("steve")
	ev := &BucketFillEvent{Player: p, BlockClicked: loc(50, 65, 50)}
	f.listener.PlayerBucketFill(ev)

	assert.False(t, ev.IsCancelled())
	assert.Equal(t, block.WaterID, f.worlds.BlockAt(*loc(50, 65, 50)),
		"вода вне портала не трогается")
}

func TestPlayerBucketFill_DebugModeInspects(t *testing.T) {
	f := newFixture(t, false)
	def := f.addPortal(t, "nether", 0)
	f.fillRegion(def.Region, block.WaterID)

	p := f.newPlayer("steve")
	f.sessions.GetOrCreate(p).SetDebugMode(true)

	ev := &BucketFillEvent{Player: p, BlockClicked: loc(10, 65, 10)}
	f.listener.PlayerBucketFill(ev)

	assert.True(t, ev.IsCancelled(), "в режиме отладки событие отменяется")
	assert.Equal(t, block.WaterID, f.worlds.BlockAt(*loc(10, 65, 10)),
		"в режиме отладки мир не мутирует")
	assert.NotEmpty(t, p.Messages(), "игрок должен получить отладочную сводку")
}

func TestPlayerBucketEmpty_FillsWater(t *testing.T) {
	f := newFixture(t, false)
	f.addPortal(t, "nether", 0)

	p := f.newPlayer("steve")
	p.GrantPermission(portal.CreatePermission)

	// Клик по блоку западнее портала, грань смотрит на восток —
	// точка заливки оказывается внутри региона
	ev := &BucketEmptyEvent{
		Player:       p,
		BlockClicked: loc(9, 65, 10),
		BlockFace:    world.FaceEast,
		Bucket:       block.WaterBucketID,
	}
	f.listener.PlayerBucketEmpty(ev)

	assert.False(t, ev.IsCancelled())
	for y := 64; y <= 66; y++ {
		assert.Equal(t, block.WaterID, f.worlds.BlockAt(*loc(10, y, 10)),
			"регион должен заполниться водой")
	}
}

func TestPlayerBucketEmpty_LavaBucketFillsLava(t *testing.T) {
	f := newFixture(t, false)
	f.addPortal(t, "nether", 0)

	p := f.newPlayer("steve")
	p.GrantPermission(portal.CreatePermission)

	ev := &BucketEmptyEvent{
		Player:       p,
		BlockClicked: loc(9, 65, 10),
		BlockFace:    world.FaceEast,
		Bucket:       block.LavaBucketID,
	}
	f.listener.PlayerBucketEmpty(ev)

	assert.Equal(t, block.LavaID, f.worlds.BlockAt(*loc(10, 65, 10)))
}

func TestPlayerBucketEmpty_DisabledByConfig(t *testing.T) {
	f := newFixture(t, false)
	f.addPortal(t, "nether", 0)
	f.cfg.BucketFilling = false

	p := f.newPlayer("steve")
	p.GrantPermission(portal.CreatePermission)

	ev := &BucketEmptyEvent{
		Player:       p,
		BlockClicked: loc(9, 65, 10),
		BlockFace:    world.FaceEast,
		Bucket:       block.WaterBucketID,
	}
	f.listener.PlayerBucketEmpty(ev)

	assert.False(t, ev.IsCancelled())
	assert.Equal(t, block.AirID, f.worlds.BlockAt(*loc(10, 65, 10)),
		"при выключенных вёдрах портал не заливается")
}

func TestPlayerBucketEmpty_DeniedWithoutPermission(t *testing.T) {
	f := newFixture(t, false)
	f.addPortal(t, "nether", 0)

	p := f.newPlayer("steve") // нет ни fill, ни create права

	ev := &BucketEmptyEvent{
		Player:       p,
		BlockClicked: loc(9, 65, 10),
		BlockFace:    world.FaceEast,
		Bucket:       block.WaterBucketID,
	}
	f.listener.PlayerBucketEmpty(ev)

	assert.True(t, ev.IsCancelled(), "без права заливки событие отменяется")
	assert.Equal(t, block.AirID, f.worlds.BlockAt(*loc(10, 65, 10)))
}

func TestPlayerBucketEmpty_FillPermissionSuffices(t *testing.T) {
	f := newFixture(t, false)
	def := f.addPortal(t, "nether", 0)

	p := f.newPlayer("steve")
	p.GrantPermission(def.FillPermission())

	ev := &BucketEmptyEvent{
		Player:       p,
		BlockClicked: loc(9, 65, 10),
		BlockFace:    world.FaceEast,
		Bucket:       block.WaterBucketID,
	}
	f.listener.PlayerBucketEmpty(ev)

	assert.False(t, ev.IsCancelled())
	assert.Equal(t, block.WaterID, f.worlds.BlockAt(*loc(10, 65, 10)))
}

// === Огниво ===

func igniteEvent(p player.Player) *PlayerInteractEvent {
	// Клик по блоку западнее портала, грань восток — переключается (10,65,10)
	return &PlayerInteractEvent{
		Player:       p,
		Action:       ActionRightClickBlock,
		Item:         block.FlintAndSteelID,
		ClickedBlock: loc(9, 65, 10),
		BlockFace:    world.FaceEast,
		Hand:         HandMain,
	}
}

func TestIgnite_TogglesPortalField(t *testing.T) {
	f := newFixture(t, false)
	def := f.addPortal(t, "nether", 0)
	f.buildFrame(def.Region, block.ObsidianID)

	p := f.newPlayer("steve")
	p.GrantPermission(portal.CreatePermission)

	// Поджиг: пустой регион заполняется полем портала
	ev := igniteEvent(p)
	f.listener.PlayerInteract(ev)
	assert.True(t, ev.IsCancelled(), "успешный поджиг отменяет событие")
	for y := 64; y <= 66; y++ {
		assert.Equal(t, block.PortalID, f.worlds.BlockAt(*loc(10, y, 10)),
			"поле портала должно зажечься по всему региону")
	}

	// Повторный удар: поле гаснет
	ev = igniteEvent(p)
	f.listener.PlayerInteract(ev)
	assert.True(t, ev.IsCancelled(), "успешное гашение отменяет событие")
	for y := 64; y <= 66; y++ {
		assert.Equal(t, block.AirID, f.worlds.BlockAt(*loc(10, y, 10)),
			"поле портала должно погаснуть по всему региону")
	}
}

func TestIgnite_RequiresCreatePermission(t *testing.T) {
	f := newFixture(t, false)
	def := f.addPortal(t, "nether", 0)
	f.buildFrame(def.Region, block.ObsidianID)

	p := f.newPlayer("steve") // без права создания

	ev := igniteEvent(p)
	f.listener.PlayerInteract(ev)

	assert.False(t, ev.IsCancelled(), "неудавшийся поджиг не отменяет событие")
	assert.Equal(t, block.AirID, f.worlds.BlockAt(*loc(10, 65, 10)))
}

func TestIgnite_RequiresValidFrame(t *testing.T) {
	f := newFixture(t, false)
	def := f.addPortal(t, "nether", 0)
	f.buildFrame(def.Region, block.ObsidianID)
	// Пробоина в рамке
	f.worlds.SetBlockAt(*loc(11, 65, 10), block.AirID)

	p := f.newPlayer("steve")
	p.GrantPermission(portal.CreatePermission)

	ev := igniteEvent(p)
	f.listener.PlayerInteract(ev)

	assert.False(t, ev.IsCancelled())
	assert.Equal(t, block.AirID, f.worlds.BlockAt(*loc(10, 65, 10)),
		"недостроенная рамка не поджигается")
}

func TestIgnite_OutsidePortalIgnored(t *testing.T) {
	f := newFixture(t, false)
	f.addPortal(t, "nether", 0)

	p := f.newPlayer("steve")
	p.GrantPermission(portal.CreatePermission)

	ev := &PlayerInteractEvent{
		Player:       p,
		Action:       ActionRightClickBlock,
		Item:         block.FlintAndSteelID,
		ClickedBlock: loc(50, 65, 50),
		BlockFace:    world.FaceEast,
		Hand:         HandMain,
	}
	f.listener.PlayerInteract(ev)

	assert.False(t, ev.IsCancelled())
}

func TestIgnite_DebugModeInspects(t *testing.T) {
	f := newFixture(t, false)
	def := f.addPortal(t, "nether", 0)
	f.buildFrame(def.Region, block.ObsidianID)

	p := f.newPlayer("steve")
	p.GrantPermission(portal.CreatePermission)
	f.sessions.GetOrCreate(p).SetDebugMode(true)

	ev := igniteEvent(p)
	f.listener.PlayerInteract(ev)

	assert.True(t, ev.IsCancelled())
	assert.Equal(t, block.AirID, f.worlds.BlockAt(*loc(10, 65, 10)),
		"в режиме отладки поле не переключается")
	assert.NotEmpty(t, p.Messages())
}

// === Инструмент выделения ===

func TestWandSelection_RecordsCorners(t *testing.T) {
	f := newFixture(t, false)

	p := f.newPlayer("steve")
	p.GrantPermission(portal.CreatePermission)
	p.SetItemInMainHand(block.WoodAxeID)

	left := &PlayerInteractEvent{
		Player:       p,
		Action:       ActionLeftClickBlock,
		ClickedBlock: loc(1, 64, 1),
		Hand:         HandMain,
	}
	f.listener.PlayerInteract(left)
	assert.True(t, left.IsCancelled(), "жест выделения поглощается")

	right := &PlayerInteractEvent{
		Player:       p,
		Action:       ActionRightClickBlock,
		ClickedBlock: loc(3, 66, 3),
		Hand:         HandMain,
	}
	f.listener.PlayerInteract(right)
	assert.True(t, right.IsCancelled())

	ps := f.sessions.GetOrCreate(p)
	lsel, rsel := ps.Selection()
	require.NotNil(t, lsel)
	require.NotNil(t, rsel)
	assert.Equal(t, vec.Vec3{X: 1, Y: 64, Z: 1}, lsel.Pos)
	assert.Equal(t, vec.Vec3{X: 3, Y: 66, Z: 3}, rsel.Pos)
}

func TestWandSelection_UnloadedWorldNotConsumed(t *testing.T) {
	f := newFixture(t, false)

	p := player.NewLocalPlayer("steve", "steve", "the_end") // мир не загружен
	p.GrantPermission(portal.CreatePermission)
	p.SetItemInMainHand(block.WoodAxeID)

	ev := &PlayerInteractEvent{
		Player:       p,
		Action:       ActionLeftClickBlock,
		ClickedBlock: loc(1, 64, 1),
		Hand:         HandMain,
	}
	f.listener.PlayerInteract(ev)

	assert.False(t, ev.IsCancelled(), "без загруженного мира выделение не записывается")
}

func TestWandSelection_RequiresMainHand(t *testing.T) {
	f := newFixture(t, false)

	p := f.newPlayer("steve")
	p.GrantPermission(portal.CreatePermission)
	p.SetItemInMainHand(block.WoodAxeID)

	ev := &PlayerInteractEvent{
		Player:       p,
		Action:       ActionLeftClickBlock,
		ClickedBlock: loc(1, 64, 1),
		Hand:         HandOff,
	}
	f.listener.PlayerInteract(ev)

	assert.False(t, ev.IsCancelled(), "жест не основной рукой игнорируется")
}

func TestWandSelection_RequiresWandInHand(t *testing.T) {
	f := newFixture(t, false)

	p := f.newPlayer("steve")
	p.GrantPermission(portal.CreatePermission)
	p.SetItemInMainHand(block.StoneID)

	ev := &PlayerInteractEvent{
		Player:       p,
		Action:       ActionLeftClickBlock,
		ClickedBlock: loc(1, 64, 1),
		Hand:         HandMain,
	}
	f.listener.PlayerInteract(ev)

	assert.False(t, ev.IsCancelled())
}

type connectedTool struct{}

func (connectedTool) Connected() bool { return true }

func TestWandSelection_ExternalToolTakesOver(t *testing.T) {
	f := newFixture(t, false)
	f.listener.SetSelectionTool(connectedTool{})

	p := f.newPlayer("steve")
	p.GrantPermission(portal.CreatePermission)
	p.SetItemInMainHand(block.WoodAxeID)

	ev := &PlayerInteractEvent{
		Player:       p,
		Action:       ActionLeftClickBlock,
		ClickedBlock: loc(1, 64, 1),
		Hand:         HandMain,
	}
	f.listener.PlayerInteract(ev)

	assert.False(t, ev.IsCancelled(), "при внешней интеграции свой инструмент молчит")
	lsel, _ := f.sessions.GetOrCreate(p).Selection()
	assert.Nil(t, lsel)
}

// === Проход через портал ===

func TestPlayerPortal_FreeUse(t *testing.T) {
	f := newFixture(t, false)
	f.addPortal(t, "nether", 0)

	p := f.newPlayer("steve")
	ev := &PlayerPortalEvent{Player: p, Location: loc(10, 65, 10)}
	f.listener.PlayerPortal(ev)

	assert.True(t, ev.IsCancelled(), "владение порталом отключает поведение мира")
	require.Equal(t, 1, f.relocator.callCount(), "перемещатель должен быть вызван")
	call := f.relocator.lastCall()
	assert.Equal(t, "spawn", call.dest.Name)
	assert.True(t, call.checkSafety)

	// Продолжение выполняется на основном потоке
	f.runner.runOne(t)

	ps, ok := f.sessions.Get(p.ID())
	require.True(t, ok)
	assert.False(t, ps.TeleportTime().IsZero(), "время телепорта должно быть записано")
	require.NotNil(t, ps.LastLocation())
	assert.True(t, ps.LastLocation().Equals(world.NewLocation("world", 0, 65, 0)),
		"точка прибытия должна попасть в сессию")
}

func TestPlayerPortal_OutsidePortalIgnored(t *testing.T) {
	f := newFixture(t, false)
	f.addPortal(t, "nether", 0)

	p := f.newPlayer("steve")
	ev := &PlayerPortalEvent{Player: p, Location: loc(50, 65, 50)}
	f.listener.PlayerPortal(ev)

	assert.False(t, ev.IsCancelled())
	assert.Zero(t, f.relocator.callCount())
}

func TestPlayerPortal_PaidUse_ChargesBeforeRelocate(t *testing.T) {
	f := newFixture(t, false)
	f.addPortal(t, "nether", 10)

	p := f.newPlayer("steve")
	f.ledger.Deposit(p.ID(), "coins", 25)

	var balanceAtRelocate float64
	f.relocator.onBegin = func() {
		balanceAtRelocate = f.ledger.Balance(p.ID(), "coins")
	}

	ev := &PlayerPortalEvent{Player: p, Location: loc(10, 65, 10)}
	f.listener.PlayerPortal(ev)

	require.Equal(t, 1, f.relocator.callCount())
	assert.Equal(t, 15.0, balanceAtRelocate,
		"оплата фиксируется до начала телепортации")
	assert.Equal(t, 15.0, f.ledger.Balance(p.ID(), "coins"))

	// Неудачная телепортация после оплаты не возвращает средства
	f.runner.runOne(t)
	assert.Equal(t, 15.0, f.ledger.Balance(p.ID(), "coins"))
}

func TestPlayerPortal_PaidUse_NoRefundOnFailure(t *testing.T) {
	f := newFixture(t, false)
	f.addPortal(t, "nether", 10)
	f.relocator.result = teleport.Result{OK: false, Reason: "небезопасная точка назначения"}

	p := f.newPlayer("steve")
	f.ledger.Deposit(p.ID(), "coins", 25)

	ev := &PlayerPortalEvent{Player: p, Location: loc(10, 65, 10)}
	f.listener.PlayerPortal(ev)
	f.runner.runOne(t)

	assert.Equal(t, 15.0, f.ledger.Balance(p.ID(), "coins"),
		"неудачная телепортация после оплаты не компенсируется")
	ps, ok := f.sessions.Get(p.ID())
	require.True(t, ok)
	assert.True(t, ps.TeleportTime().IsZero(), "неудачный телепорт не отмечается в сессии")
}

func TestPlayerPortal_InsufficientFunds(t *testing.T) {
	f := newFixture(t, false)
	f.addPortal(t, "nether", 10)

	p := f.newPlayer("steve")
	f.ledger.Deposit(p.ID(), "coins", 5)

	ev := &PlayerPortalEvent{Player: p, Location: loc(10, 65, 10)}
	f.listener.PlayerPortal(ev)

	assert.True(t, ev.IsCancelled(), "событие портала всё равно поглощается")
	assert.Zero(t, f.relocator.callCount(), "без средств телепортации нет")
	assert.Equal(t, 5.0, f.ledger.Balance(p.ID(), "coins"), "баланс не трогается")

	msgs := p.Messages()
	require.NotEmpty(t, msgs, "игрок должен узнать о нехватке средств")
	assert.Contains(t, msgs[0], "10.00 coins")
	assert.Contains(t, msgs[0], "nether")
}

func TestPlayerPortal_AccessEnforcement(t *testing.T) {
	f := newFixture(t, true)
	def := f.addPortal(t, "nether", 0)

	// Без права входа портал невидим: событие не поглощается
	p := f.newPlayer("steve")
	ev := &PlayerPortalEvent{Player: p, Location: loc(10, 65, 10)}
	f.listener.PlayerPortal(ev)
	assert.False(t, ev.IsCancelled(), "скрытый портал не поглощает событие")
	assert.Zero(t, f.relocator.callCount())

	// С правом входа — обычный бесплатный проход
	p.GrantPermission(def.Permission())
	ev = &PlayerPortalEvent{Player: p, Location: loc(10, 65, 10)}
	f.listener.PlayerPortal(ev)
	assert.True(t, ev.IsCancelled())
	assert.Equal(t, 1, f.relocator.callCount())
	f.runner.runOne(t)
}

func TestPlayerPortal_ExemptPermissionSkipsPayment(t *testing.T) {
	f := newFixture(t, false)
	def := f.addPortal(t, "nether", 10)

	p := f.newPlayer("steve")
	p.GrantPermission(def.ExemptPermission())
	// Средств нет, но освобождение делает вход бесплатным
	ev := &PlayerPortalEvent{Player: p, Location: loc(10, 65, 10)}
	f.listener.PlayerPortal(ev)

	require.Equal(t, 1, f.relocator.callCount())
	assert.Equal(t, 0.0, f.ledger.Balance(p.ID(), "coins"))
	f.runner.runOne(t)
}

func TestPlayerPortal_Cooldown(t *testing.T) {
	f := newFixture(t, false)
	f.addPortal(t, "nether", 0)
	f.cfg.CooldownMs = 60000

	p := f.newPlayer("steve")
	f.sessions.GetOrCreate(p).SetTeleportTime(time.Now())

	ev := &PlayerPortalEvent{Player: p, Location: loc(10, 65, 10)}
	f.listener.PlayerPortal(ev)

	assert.True(t, ev.IsCancelled(), "на кулдауне событие всё равно поглощается")
	assert.Zero(t, f.relocator.callCount(), "на кулдауне телепортации нет")
}

func TestPlayerPortal_DebugModeInspects(t *testing.T) {
	f := newFixture(t, false)
	f.addPortal(t, "nether", 10)

	p := f.newPlayer("steve")
	f.ledger.Deposit(p.ID(), "coins", 25)
	f.sessions.GetOrCreate(p).SetDebugMode(true)

	ev := &PlayerPortalEvent{Player: p, Location: loc(10, 65, 10)}
	f.listener.PlayerPortal(ev)

	assert.True(t, ev.IsCancelled())
	assert.Zero(t, f.relocator.callCount(), "в режиме отладки телепортации нет")
	assert.Equal(t, 25.0, f.ledger.Balance(p.ID(), "coins"), "в режиме отладки оплата не списывается")
	assert.NotEmpty(t, p.Messages())
}

// === Сопровождение сессии ===

func TestPlayerTeleport_TracksArrival(t *testing.T) {
	f := newFixture(t, false)

	p := f.newPlayer("steve")
	ev := &PlayerTeleportEvent{Player: p, To: loc(5, 70, 5)}
	f.listener.PlayerTeleport(ev)

	ps, ok := f.sessions.Get(p.ID())
	require.True(t, ok)
	require.NotNil(t, ps.LastLocation())
	assert.True(t, ps.LastLocation().Equals(*loc(5, 70, 5)))
}

func TestPlayerTeleport_CancelledIgnored(t *testing.T) {
	f := newFixture(t, false)

	p := f.newPlayer("steve")
	ev := &PlayerTeleportEvent{Player: p, To: loc(5, 70, 5)}
	ev.SetCancelled(true)
	f.listener.PlayerTeleport(ev)

	_, ok := f.sessions.Get(p.ID())
	assert.False(t, ok, "отменённая телепортация не создаёт сессию")
}

func TestPlayerQuit_DestroysSession(t *testing.T) {
	f := newFixture(t, false)

	p := f.newPlayer("steve")
	f.sessions.GetOrCreate(p)
	require.Equal(t, 1, f.sessions.Count())

	f.listener.PlayerQuit(&PlayerQuitEvent{Player: p})
	assert.Zero(t, f.sessions.Count(), "сессия отключившегося игрока уничтожается")
}
