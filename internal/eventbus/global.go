package eventbus

import "context"

var globalBus EventBus

// Init устанавливает глобальную шину.
func Init(bus EventBus) { globalBus = bus }

// Publish отправляет событие в глобальную шину, если она инициализирована.
func Publish(ctx context.Context, ev *Envelope) error {
	if globalBus == nil {
		return nil
	}
	return globalBus.Publish(ctx, ev)
}

// Metrics возвращает метрики глобальной шины.
func Metrics() Stats {
	if globalBus == nil {
		return Stats{}
	}
	return globalBus.Metrics()
}
