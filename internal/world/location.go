package world

import (
	"fmt"

	"github.com/annel0/mmo-portals/internal/vec"
)

// Location представляет координату блока вместе с идентификатором мира.
// Иммутабельное значение; равенство — по всем полям.
type Location struct {
	World string
	Pos   vec.Vec3
}

// NewLocation создаёт координату в указанном мире
func NewLocation(worldName string, x, y, z int) Location {
	return Location{World: worldName, Pos: vec.Vec3{X: x, Y: y, Z: z}}
}

// Offset возвращает координату, смещённую на указанный вектор (тот же мир)
func (l Location) Offset(d vec.Vec3) Location {
	return Location{World: l.World, Pos: l.Pos.Add(d)}
}

// Equals проверяет структурное равенство координат
func (l Location) Equals(other Location) bool {
	return l.World == other.World && l.Pos.Equals(other.Pos)
}

// String возвращает строковое представление координаты
func (l Location) String() string {
	return fmt.Sprintf("%s:%s", l.World, l.Pos)
}

// Face представляет грань блока, через которую выполнено взаимодействие
type Face int

const (
	FaceDown Face = iota
	FaceUp
	FaceNorth
	FaceSouth
	FaceWest
	FaceEast
	FaceSelf // Взаимодействие без конкретной грани
)

var faceOffsets = map[Face]vec.Vec3{
	FaceDown:  {X: 0, Y: -1, Z: 0},
	FaceUp:    {X: 0, Y: 1, Z: 0},
	FaceNorth: {X: 0, Y: 0, Z: -1},
	FaceSouth: {X: 0, Y: 0, Z: 1},
	FaceWest:  {X: -1, Y: 0, Z: 0},
	FaceEast:  {X: 1, Y: 0, Z: 0},
	FaceSelf:  {},
}

// Offset возвращает единичный вектор смещения для грани
func (f Face) Offset() vec.Vec3 {
	return faceOffsets[f]
}

// Translate возвращает координату блока по другую сторону грани.
// Именно этот блок интересует обработчики поджига и вёдер:
// клик приходит по соседнему блоку, а не по самому порталу.
func Translate(loc Location, face Face) Location {
	return loc.Offset(face.Offset())
}
