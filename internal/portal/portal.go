package portal

import (
	"fmt"

	"github.com/annel0/mmo-portals/internal/player"
	"github.com/annel0/mmo-portals/internal/vec"
	"github.com/annel0/mmo-portals/internal/world"
	"github.com/annel0/mmo-portals/internal/world/block"
)

// CreatePermission право на создание и модификацию порталов
const CreatePermission = "portals.create"

// Region представляет ограниченную прямоугольную область портала в одном мире.
// Min и Max включительны; Min покомпонентно не больше Max.
type Region struct {
	World string   `json:"world" yaml:"world"`
	Min   vec.Vec3 `json:"min" yaml:"min"`
	Max   vec.Vec3 `json:"max" yaml:"max"`
}

// NewRegion создаёт регион, нормализуя границы
func NewRegion(worldName string, a, b vec.Vec3) Region {
	min := vec.Vec3{X: minInt(a.X, b.X), Y: minInt(a.Y, b.Y), Z: minInt(a.Z, b.Z)}
	max := vec.Vec3{X: maxInt(a.X, b.X), Y: maxInt(a.Y, b.Y), Z: maxInt(a.Z, b.Z)}
	return Region{World: worldName, Min: min, Max: max}
}

// Contains проверяет, лежит ли координата внутри региона
func (r Region) Contains(loc world.Location) bool {
	if loc.World != r.World {
		return false
	}
	p := loc.Pos
	return p.X >= r.Min.X && p.X <= r.Max.X &&
		p.Y >= r.Min.Y && p.Y <= r.Max.Y &&
		p.Z >= r.Min.Z && p.Z <= r.Max.Z
}

// Volume возвращает количество блоков в регионе
func (r Region) Volume() int {
	return (r.Max.X - r.Min.X + 1) * (r.Max.Y - r.Min.Y + 1) * (r.Max.Z - r.Min.Z + 1)
}

// Destination описывает точку назначения портала
type Destination struct {
	Name string         `json:"name" yaml:"name"` // Человекочитаемое имя назначения
	Loc  world.Location `json:"location" yaml:"location"`
	// Safe разрешает проверку безопасности при телепортации в это назначение.
	// Если false, проверка не выполняется независимо от запроса вызывающего.
	Safe bool `json:"safe" yaml:"safe"`
}

// String возвращает строковое представление назначения
func (d Destination) String() string {
	if d.Name != "" {
		return d.Name
	}
	return d.Loc.String()
}

// Definition описывает портал: геометрию, права и цену входа.
// Владеет определением реестр; портальная логика читает его per-lookup
// и никогда не кэширует между событиями.
type Definition struct {
	Name          string           `json:"name" yaml:"name"`
	Region        Region           `json:"region" yaml:"region"`
	FrameMaterial block.MaterialID `json:"frame_material" yaml:"frame_material"`
	Price         float64          `json:"price" yaml:"price"`       // 0 — бесплатный вход
	Currency      string           `json:"currency" yaml:"currency"` // Идентификатор валюты
	Destination   Destination      `json:"destination" yaml:"destination"`
}

// Permission возвращает право на вход в портал
func (d *Definition) Permission() string {
	return fmt.Sprintf("portals.access.%s", d.Name)
}

// ExemptPermission возвращает право на бесплатный вход
func (d *Definition) ExemptPermission() string {
	return fmt.Sprintf("portals.exempt.%s", d.Name)
}

// FillPermission возвращает право на заполнение портала жидкостью
func (d *Definition) FillPermission() string {
	return fmt.Sprintf("portals.fill.%s", d.Name)
}

// PlayerCanFill проверяет, может ли игрок заполнять портал жидкостью.
// Это отдельная авторизация, не связанная с правом входа.
func (d *Definition) PlayerCanFill(p player.Player) bool {
	return p.HasPermission(d.FillPermission()) || p.HasPermission(CreatePermission)
}

// IsFrameValid проверяет структурную целостность рамки вокруг точки.
// Каждый соседний по граням блок, лежащий вне региона портала,
// обязан состоять из материала рамки. Точка вне региона — рамка невалидна.
func (d *Definition) IsFrameValid(wm *world.Manager, loc world.Location) bool {
	if !d.Region.Contains(loc) {
		return false
	}

	frame := d.FrameMaterial
	if frame == block.AirID {
		frame = block.ObsidianID
	}

	for face := world.FaceDown; face <= world.FaceEast; face++ {
		neighbour := world.Translate(loc, face)
		if d.Region.Contains(neighbour) {
			continue
		}
		if wm.BlockAt(neighbour) != frame {
			return false
		}
	}
	return true
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
