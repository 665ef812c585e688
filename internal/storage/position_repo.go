package storage

import (
	"context"
	"time"

	"github.com/annel0/mmo-portals/internal/world"
)

// ArrivalRecord описывает последнюю точку прибытия игрока через портал
type ArrivalRecord struct {
	PlayerID  string         `json:"player_id"`
	Location  world.Location `json:"location"`
	UpdatedAt time.Time      `json:"updated_at"`
}

// PositionRepo определяет интерфейс для сохранения точек прибытия игроков.
// Записи привязаны к стабильному ID игрока и переживают сессию —
// по ним восстанавливается позиция при повторном входе.
type PositionRepo interface {
	// Save сохраняет точку прибытия игрока.
	Save(ctx context.Context, playerID string, loc world.Location) error

	// Load загружает точку прибытия игрока.
	// Второе значение false — записи нет (игрок ещё не телепортировался).
	Load(ctx context.Context, playerID string) (world.Location, bool, error)

	// Delete удаляет запись игрока (для тестов или сброса).
	Delete(ctx context.Context, playerID string) error
}
