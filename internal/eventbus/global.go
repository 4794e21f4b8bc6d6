package eventbus

import "context"

var globalBus EventBus

// Init устанавливает глобальную шину.
func Init(bus EventBus) { globalBus = bus }

// Global текущая глобальная шина или nil
func Global() EventBus { return globalBus }

// Publish отправляет событие в глобальную шину, если она инициализирована.
func Publish(ctx context.Context, ev *Envelope) error {
	if globalBus == nil {
		return nil
	}
	return globalBus.Publish(ctx, ev)
}

// GlobalStats метрики глобальной шины; нули, если шины нет
func GlobalStats() Stats {
	if globalBus == nil {
		return Stats{}
	}
	return globalBus.Metrics()
}
