package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/annel0/mmo-portals/internal/eventbus"
)

// Утилита наблюдения за шиной аудита порталов: подключается к NATS
// JetStream и печатает события по мере поступления (как tail -f).

const timeFormat = "15:04:05"

func main() {
	var (
		natsURL    = flag.String("nats", "nats://localhost:4222", "Адрес NATS сервера")
		stream     = flag.String("stream", "PORTAL_EVENTS", "Имя JetStream потока")
		eventTypes = flag.String("types", "", "Фильтр типов событий (через запятую: used,denied,ignited)")
		limit      = flag.Int("limit", 0, "Остановиться после N событий (0 — без ограничения)")
	)
	flag.Parse()

	bus, err := eventbus.NewJetStreamBus(*natsURL, *stream, 24*time.Hour)
	if err != nil {
		log.Fatalf("❌ Подключение к NATS: %v", err)
	}
	defer bus.Close()

	filter := eventbus.Filter{Types: parseStringList(*eventTypes)}
	fmt.Printf("🎬 Наблюдение за потоком '%s' (типы: %v)\n", *stream, filter.Types)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	counted := make(chan struct{}, 64)
	sub, err := bus.Subscribe(ctx, filter, func(_ context.Context, ev *eventbus.Envelope) {
		// Шина сужает subject только для одиночного типа,
		// для списка доводим фильтрацию на клиенте
		if !matchType(ev.EventType, filter.Types) {
			return
		}
		printEvent(ev)
		counted <- struct{}{}
	})
	if err != nil {
		log.Fatalf("❌ Подписка на события: %v", err)
	}
	defer sub.Unsubscribe()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	var total int
	for {
		select {
		case <-counted:
			total++
			if *limit > 0 && total >= *limit {
				fmt.Printf("\n📊 Всего событий: %d\n", total)
				return
			}
		case <-sigCh:
			fmt.Printf("\n📊 Всего событий: %d\n", total)
			return
		}
	}
}

// printEvent выводит событие аудита в читаемом формате
func printEvent(ev *eventbus.Envelope) {
	fmt.Printf("[%s] %s v%d %s\n",
		ev.Timestamp.Local().Format(timeFormat),
		ev.EventType,
		ev.Version,
		ev.ID)

	var rec struct {
		Player string `json:"player"`
		Portal string `json:"portal"`
		Detail string `json:"detail"`
	}
	if err := json.Unmarshal(ev.Payload, &rec); err != nil {
		fmt.Printf("  <не удалось разобрать payload: %v>\n", err)
		return
	}
	if rec.Player != "" {
		fmt.Printf("  Игрок: %s\n", rec.Player)
	}
	if rec.Portal != "" {
		fmt.Printf("  Портал: %s\n", rec.Portal)
	}
	if rec.Detail != "" {
		fmt.Printf("  Детали: %s\n", rec.Detail)
	}
}

func matchType(eventType string, types []string) bool {
	if len(types) == 0 {
		return true
	}
	for _, t := range types {
		if t == eventType {
			return true
		}
	}
	return false
}

// parseStringList парсит строку с разделителями-запятыми
func parseStringList(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}
