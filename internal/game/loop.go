package game

import (
	"context"

	"github.com/annel0/mmo-portals/internal/logging"
)

// Runner принимает задачи для исполнения на основном игровом потоке.
// Всё, что мутирует сессии, миры или реестр порталов, обязано
// проходить через Runner — это единственная точка сериализации.
type Runner interface {
	Post(task func())
}

// Loop — основной игровой поток: последовательно исполняет задачи
// из буферизированной очереди. Обработчики событий и продолжения
// асинхронной телепортации сходятся сюда.
type Loop struct {
	tasks chan func()
	done  chan struct{}
}

// NewLoop создаёт цикл с указанной ёмкостью очереди
func NewLoop(capacity int) *Loop {
	if capacity <= 0 {
		capacity = 256
	}
	return &Loop{
		tasks: make(chan func(), capacity),
		done:  make(chan struct{}),
	}
}

// Post ставит задачу в очередь основного потока.
// Блокируется при заполненной очереди: back-pressure вместо потери задач.
func (l *Loop) Post(task func()) {
	select {
	case l.tasks <- task:
	case <-l.done:
		// Цикл остановлен — задача отбрасывается
	}
}

// Run исполняет задачи до отмены контекста.
// Вызывается ровно один раз из одной горутины.
func (l *Loop) Run(ctx context.Context) {
	defer close(l.done)
	logging.Debug("Основной игровой цикл запущен")

	for {
		select {
		case task := <-l.tasks:
			l.runTask(task)
		case <-ctx.Done():
			// Дочищаем уже поставленные задачи перед выходом
			for {
				select {
				case task := <-l.tasks:
					l.runTask(task)
				default:
					logging.Debug("Основной игровой цикл остановлен")
					return
				}
			}
		}
	}
}

func (l *Loop) runTask(task func()) {
	defer func() {
		if r := recover(); r != nil {
			logging.Error("Паника в задаче игрового цикла: %v", r)
		}
	}()
	task()
}
