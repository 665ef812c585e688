package session

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/annel0/mmo-portals/internal/player"
	"github.com/annel0/mmo-portals/internal/portal"
	"github.com/annel0/mmo-portals/internal/vec"
	"github.com/annel0/mmo-portals/internal/world"
)

func TestSession_SelectionPersists(t *testing.T) {
	p := player.NewLocalPlayer("steve", "steve", "world")
	s := NewSession(p)
	w := world.NewWorld("world")

	assert.True(t, s.SetLeftClickSelection(vec.Vec3{X: 1, Y: 64, Z: 1}, w))
	assert.True(t, s.SetRightClickSelection(vec.Vec3{X: 3, Y: 66, Z: 3}, w))

	left, right := s.Selection()
	require.NotNil(t, left)
	require.NotNil(t, right)
	assert.Equal(t, vec.Vec3{X: 1, Y: 64, Z: 1}, left.Pos)
	assert.Equal(t, vec.Vec3{X: 3, Y: 66, Z: 3}, right.Pos)
	assert.Len(t, p.Messages(), 2, "каждый угол подтверждается сообщением")
}

func TestSession_SelectionRejectsNilWorld(t *testing.T) {
	p := player.NewLocalPlayer("steve", "steve", "world")
	s := NewSession(p)

	assert.False(t, s.SetLeftClickSelection(vec.Vec3{X: 1, Y: 64, Z: 1}, nil))
	assert.False(t, s.SetRightClickSelection(vec.Vec3{X: 1, Y: 64, Z: 1}, nil))

	left, right := s.Selection()
	assert.Nil(t, left)
	assert.Nil(t, right)
	assert.Empty(t, p.Messages())
}

func TestSession_SelectionOverwrites(t *testing.T) {
	p := player.NewLocalPlayer("steve", "steve", "world")
	s := NewSession(p)
	w := world.NewWorld("world")

	s.SetLeftClickSelection(vec.Vec3{X: 1, Y: 1, Z: 1}, w)
	s.SetLeftClickSelection(vec.Vec3{X: 9, Y: 9, Z: 9}, w)

	left, _ := s.Selection()
	require.NotNil(t, left)
	assert.Equal(t, vec.Vec3{X: 9, Y: 9, Z: 9}, left.Pos, "новый клик замещает старый угол")
}

func TestSession_DebugMode(t *testing.T) {
	p := player.NewLocalPlayer("steve", "steve", "world")
	s := NewSession(p)

	assert.False(t, s.IsDebugModeOn(), "отладка выключена по умолчанию")
	s.SetDebugMode(true)
	assert.True(t, s.IsDebugModeOn())
	s.SetDebugMode(false)
	assert.False(t, s.IsDebugModeOn())
}

func TestSession_ShowDebugInfo(t *testing.T) {
	p := player.NewLocalPlayer("steve", "steve", "world")
	s := NewSession(p)

	def := &portal.Definition{
		Name:     "nether",
		Region:   portal.NewRegion("world", vec.Vec3{X: 0, Y: 0, Z: 0}, vec.Vec3{X: 1, Y: 1, Z: 1}),
		Price:    12.5,
		Currency: "coins",
		Destination: portal.Destination{
			Name: "spawn",
			Loc:  world.NewLocation("world", 0, 65, 0),
		},
	}
	s.ShowDebugInfo(def)

	msgs := p.Messages()
	require.NotEmpty(t, msgs)
	assert.Contains(t, msgs[0], "nether")

	joined := ""
	for _, m := range msgs {
		joined += m + "\n"
	}
	assert.Contains(t, joined, "spawn")
	assert.Contains(t, joined, "12.50 coins")
}

func TestSession_DidTeleportTracksArrival(t *testing.T) {
	p := player.NewLocalPlayer("steve", "steve", "world")
	s := NewSession(p)

	assert.Nil(t, s.LastLocation())

	s.DidTeleport(world.NewLocation("world", 5, 70, 5))
	require.NotNil(t, s.LastLocation())
	assert.True(t, s.LastLocation().Equals(world.NewLocation("world", 5, 70, 5)))

	s.DidTeleport(world.NewLocation("nether", 0, 64, 0))
	assert.True(t, s.LastLocation().Equals(world.NewLocation("nether", 0, 64, 0)),
		"новая телепортация перекрывает предыдущую точку")
}

func TestSession_Cooldown(t *testing.T) {
	p := player.NewLocalPlayer("steve", "steve", "world")
	s := NewSession(p)

	assert.False(t, s.OnCooldown(time.Minute), "до первого телепорта кулдауна нет")

	s.SetTeleportTime(time.Now())
	assert.True(t, s.OnCooldown(time.Minute))
	assert.False(t, s.OnCooldown(0), "нулевое окно отключает кулдаун")

	s.SetTeleportTime(time.Now().Add(-2 * time.Minute))
	assert.False(t, s.OnCooldown(time.Minute), "истёкший кулдаун не мешает")
}

func TestStore_GetOrCreate(t *testing.T) {
	st := NewStore()
	p := player.NewLocalPlayer("steve", "steve", "world")

	s1 := st.GetOrCreate(p)
	s2 := st.GetOrCreate(p)
	assert.Same(t, s1, s2, "повторное обращение возвращает ту же сессию")
	assert.Equal(t, 1, st.Count())
}

func TestStore_GetWithoutCreate(t *testing.T) {
	st := NewStore()

	_, ok := st.Get("ghost")
	assert.False(t, ok, "отсутствие сессии — не ошибка")
}

func TestStore_Destroy(t *testing.T) {
	st := NewStore()
	p := player.NewLocalPlayer("steve", "steve", "world")
	st.GetOrCreate(p)

	st.Destroy(p.ID())
	assert.Zero(t, st.Count())

	// Повторное уничтожение безвредно
	st.Destroy(p.ID())
}
