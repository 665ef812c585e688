package block

import "strings"

// MaterialID представляет идентификатор материала блока
type MaterialID uint16

// Константы ID материалов
const (
	// Базовые материалы
	AirID      MaterialID = iota // 0
	StoneID                      // 1
	DirtID                       // 2
	WaterID                      // 3
	LavaID                       // 4
	ObsidianID                   // 5 — материал рамки портала

	// Инструменты (начиная с 100)
	WoodAxeID       MaterialID = 100 // Стандартный инструмент выделения
	FlintAndSteelID MaterialID = 101 // Инструмент поджига
	WaterBucketID   MaterialID = 102
	LavaBucketID    MaterialID = 103
	EmptyBucketID   MaterialID = 104

	// Специальные материалы (начиная с 1000)
	PortalID MaterialID = 1000 // Активное поле портала
)

// Properties описывает статические свойства материала
type Properties struct {
	Name          string // Машинное имя материала (snake_case)
	PortalForming bool   // Участвует ли материал в образовании поля портала
	Liquid        bool   // Является ли материал жидкостью
	Solid         bool   // Можно ли стоять на блоке из этого материала
}

var registry = map[MaterialID]Properties{
	AirID:           {Name: "air"},
	StoneID:         {Name: "stone", Solid: true},
	DirtID:          {Name: "dirt", Solid: true},
	WaterID:         {Name: "water", Liquid: true},
	LavaID:          {Name: "lava", Liquid: true},
	ObsidianID:      {Name: "obsidian", Solid: true},
	WoodAxeID:       {Name: "wood_axe"},
	FlintAndSteelID: {Name: "flint_and_steel"},
	WaterBucketID:   {Name: "water_bucket"},
	LavaBucketID:    {Name: "lava_bucket"},
	EmptyBucketID:   {Name: "bucket"},
	PortalID:        {Name: "portal", PortalForming: true},
}

// Get возвращает свойства материала по его ID
func Get(id MaterialID) (Properties, bool) {
	props, exists := registry[id]
	return props, exists
}

// Name возвращает машинное имя материала ("unknown", если не зарегистрирован)
func Name(id MaterialID) string {
	if props, exists := registry[id]; exists {
		return props.Name
	}
	return "unknown"
}

// IsPortalForming сообщает, участвует ли материал в образовании поля портала
func IsPortalForming(id MaterialID) bool {
	props, exists := registry[id]
	return exists && props.PortalForming
}

// IsLiquid сообщает, является ли материал жидкостью
func IsLiquid(id MaterialID) bool {
	props, exists := registry[id]
	return exists && props.Liquid
}

// ByName возвращает ID материала по машинному имени (без учёта регистра)
func ByName(name string) (MaterialID, bool) {
	name = strings.ToLower(strings.TrimSpace(name))
	for id, props := range registry {
		if props.Name == name {
			return id, true
		}
	}
	return AirID, false
}

// BucketContents возвращает жидкость, содержащуюся в ведре.
// Для не-ведёрных материалов возвращает false.
func BucketContents(bucket MaterialID) (MaterialID, bool) {
	switch bucket {
	case WaterBucketID:
		return WaterID, true
	case LavaBucketID:
		return LavaID, true
	default:
		return AirID, false
	}
}
