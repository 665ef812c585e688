package eventbus

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/annel0/mmo-portals/internal/logging"
)

// MetricsExporter инкапсулирует Prometheus-метрики шины аудита
// и периодически обновляет их по снимкам Stats.
type MetricsExporter struct {
	bus  EventBus
	quit chan struct{}
	done chan struct{}

	published prometheus.Counter
	consumed  prometheus.Counter
	dropped   prometheus.Counter
	inflight  prometheus.Gauge

	lastPublished uint64
	lastConsumed  uint64
	lastDropped   uint64
}

// NewMetricsExporter создаёт экспортер, но не запускает HTTP-сервер.
func NewMetricsExporter(bus EventBus) *MetricsExporter {
	me := &MetricsExporter{
		bus:  bus,
		quit: make(chan struct{}),
		done: make(chan struct{}),
		published: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "portal_eventbus",
			Name:      "messages_published_total",
			Help:      "Общее число опубликованных событий аудита.",
		}),
		consumed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "portal_eventbus",
			Name:      "messages_consumed_total",
			Help:      "Общее число доставленных событий подписчикам.",
		}),
		dropped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "portal_eventbus",
			Name:      "messages_dropped_total",
			Help:      "Событий, отброшенных из-за переполнения буфера или ошибок.",
		}),
		inflight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "portal_eventbus",
			Name:      "messages_inflight",
			Help:      "Количество событий в очереди (не доставленных).",
		}),
	}

	prometheus.MustRegister(me.published, me.consumed, me.dropped, me.inflight)
	return me
}

// StartHTTP запускает HTTP-эндпоинт Prometheus на указанном адресе (например, ":2112").
// Метод неблокирующий: HTTP-сервер стартует в отдельной горутине.
func (m *MetricsExporter) StartHTTP(addr string) {
	go func() {
		logging.Info("📈 Prometheus /metrics доступен по адресу %s", addr)
		if err := http.ListenAndServe(addr, promhttp.Handler()); err != nil {
			logging.Error("Ошибка Prometheus HTTP сервера: %v", err)
		}
	}()

	go m.updateLoop()
}

// Stop останавливает цикл обновления метрик
func (m *MetricsExporter) Stop() {
	close(m.quit)
	<-m.done
}

// updateLoop переносит дельты Stats в Prometheus-счётчики.
func (m *MetricsExporter) updateLoop() {
	defer close(m.done)
	ticker := time.NewTicker(5 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-m.quit:
			return
		case <-ticker.C:
			s := m.bus.Metrics()
			m.published.Add(float64(s.Published - m.lastPublished))
			m.consumed.Add(float64(s.Consumed - m.lastConsumed))
			m.dropped.Add(float64(s.Dropped - m.lastDropped))
			m.inflight.Set(float64(s.InFlight))
			m.lastPublished = s.Published
			m.lastConsumed = s.Consumed
			m.lastDropped = s.Dropped
		}
	}
}
