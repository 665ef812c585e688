package audit

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/annel0/mmo-portals/internal/eventbus"
	"github.com/annel0/mmo-portals/internal/logging"
)

// Типы событий аудита портальной подсистемы
const (
	EventUsed         = "used"         // Успешная телепортация через портал
	EventDenied       = "denied"       // Отказ в доступе (право или средства)
	EventIgnited      = "ignited"      // Поле портала зажжено
	EventExtinguished = "extinguished" // Поле портала погашено
	EventFilled       = "filled"       // Регион портала залит/осушен
	EventFailed       = "failed"       // Телепортация завершилась неудачей
)

// Record полезная нагрузка события аудита
type Record struct {
	Player string `json:"player"`
	Portal string `json:"portal,omitempty"`
	Detail string `json:"detail,omitempty"`
}

// Emit публикует событие аудита в шину.
// Ошибка публикации не прерывает игровую логику — только логируется.
func Emit(eventType string, rec Record) {
	payload, err := json.Marshal(rec)
	if err != nil {
		logging.Warn("Сериализация события аудита '%s': %v", eventType, err)
		return
	}

	ev := &eventbus.Envelope{
		ID:        uuid.NewString(),
		Timestamp: time.Now().UTC(),
		Source:    "portals",
		EventType: eventType,
		Version:   1,
		Payload:   payload,
	}

	if err := eventbus.Publish(context.Background(), ev); err != nil {
		logging.Warn("Публикация события аудита '%s': %v", eventType, err)
	}
}
