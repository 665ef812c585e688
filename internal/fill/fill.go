package fill

import (
	"github.com/annel0/mmo-portals/internal/logging"
	"github.com/annel0/mmo-portals/internal/player"
	"github.com/annel0/mmo-portals/internal/portal"
	"github.com/annel0/mmo-portals/internal/vec"
	"github.com/annel0/mmo-portals/internal/world"
	"github.com/annel0/mmo-portals/internal/world/block"
)

// Filler мутирует блоки в ограниченной области до целевого материала.
// Возвращаемое значение — изменился ли хотя бы один блок; по нему
// вызывающие решают, считать ли взаимодействие обработанным.
type Filler interface {
	FillRegion(region portal.Region, trigger world.Location, material block.MaterialID, p player.Player) bool
}

// RegionFiller реализует Filler заливкой по связности.
// От точки срабатывания обходятся все соседние по граням блоки того же
// материала, что и в точке срабатывания, не выходя за пределы региона.
type RegionFiller struct {
	worlds *world.Manager
}

// NewRegionFiller создаёт заливщик поверх менеджера миров
func NewRegionFiller(worlds *world.Manager) *RegionFiller {
	return &RegionFiller{worlds: worlds}
}

// FillRegion заливает связную область внутри региона целевым материалом.
// Точка срабатывания вне региона или незагруженный мир — ничего не меняется.
func (f *RegionFiller) FillRegion(region portal.Region, trigger world.Location, material block.MaterialID, p player.Player) bool {
	if !region.Contains(trigger) {
		return false
	}

	w, loaded := f.worlds.GetLoadedWorld(trigger.World)
	if !loaded {
		return false
	}

	source := w.GetBlock(trigger.Pos)
	if source == material {
		// Область уже состоит из целевого материала
		return false
	}

	var mutated int
	queue := []vec.Vec3{trigger.Pos}
	visited := map[vec.Vec3]bool{trigger.Pos: true}

	for len(queue) > 0 {
		pos := queue[0]
		queue = queue[1:]

		if w.GetBlock(pos) != source {
			continue
		}
		w.SetBlock(pos, material)
		mutated++

		for face := world.FaceDown; face <= world.FaceEast; face++ {
			next := pos.Add(face.Offset())
			if visited[next] {
				continue
			}
			if !region.Contains(world.Location{World: trigger.World, Pos: next}) {
				continue
			}
			visited[next] = true
			queue = append(queue, next)
		}
	}

	if mutated > 0 {
		name := "<env>"
		if p != nil {
			name = p.DisplayName()
		}
		logging.Debug("Заливка '%s' от %s: %d блоков -> %s",
			name, trigger, mutated, block.Name(material))
	}
	return mutated > 0
}
