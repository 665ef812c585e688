package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/annel0/mmo-portals/internal/logging"
	"github.com/annel0/mmo-portals/internal/world"
)

// RedisConfig содержит настройки подключения к Redis
type RedisConfig struct {
	Addr      string        // Адрес Redis сервера
	Password  string        // Пароль (пустой если не требуется)
	DB        int           // Номер базы данных
	KeyPrefix string        // Префикс для ключей
	TTL       time.Duration // Время жизни записей (0 — бессрочно)
}

// DefaultRedisConfig возвращает конфигурацию по умолчанию
func DefaultRedisConfig() *RedisConfig {
	return &RedisConfig{
		Addr:      "localhost:6379",
		KeyPrefix: "portals:arrival:",
		TTL:       24 * time.Hour,
	}
}

// RedisPositionRepo хранит точки прибытия игроков в Redis.
// Быстрый общий доступ для нескольких узлов; TTL отсекает
// записи давно не заходивших игроков.
type RedisPositionRepo struct {
	client    *redis.Client
	keyPrefix string
	ttl       time.Duration
}

// NewRedisPositionRepo создаёт Redis репозиторий точек прибытия
func NewRedisPositionRepo(cfg *RedisConfig) (*RedisPositionRepo, error) {
	if cfg == nil {
		cfg = DefaultRedisConfig()
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	if err := client.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("не удалось подключиться к Redis: %w", err)
	}

	logging.Info("🔴 Подключение к Redis установлено (%s)", cfg.Addr)
	return &RedisPositionRepo{
		client:    client,
		keyPrefix: cfg.KeyPrefix,
		ttl:       cfg.TTL,
	}, nil
}

// Save сохраняет точку прибытия игрока в Redis
func (r *RedisPositionRepo) Save(ctx context.Context, playerID string, loc world.Location) error {
	if playerID == "" {
		return fmt.Errorf("недействительный playerID")
	}

	rec := ArrivalRecord{
		PlayerID:  playerID,
		Location:  loc,
		UpdatedAt: time.Now(),
	}
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("сериализация записи для %s: %w", playerID, err)
	}

	if err := r.client.Set(ctx, r.keyPrefix+playerID, data, r.ttl).Err(); err != nil {
		return fmt.Errorf("запись в Redis для %s: %w", playerID, err)
	}
	return nil
}

// Load загружает точку прибытия игрока из Redis
func (r *RedisPositionRepo) Load(ctx context.Context, playerID string) (world.Location, bool, error) {
	data, err := r.client.Get(ctx, r.keyPrefix+playerID).Result()
	if err == redis.Nil {
		return world.Location{}, false, nil
	} else if err != nil {
		return world.Location{}, false, fmt.Errorf("чтение из Redis для %s: %w", playerID, err)
	}

	var rec ArrivalRecord
	if err := json.Unmarshal([]byte(data), &rec); err != nil {
		return world.Location{}, false, fmt.Errorf("десериализация записи для %s: %w", playerID, err)
	}
	return rec.Location, true, nil
}

// Delete удаляет запись игрока из Redis
func (r *RedisPositionRepo) Delete(ctx context.Context, playerID string) error {
	if err := r.client.Del(ctx, r.keyPrefix+playerID).Err(); err != nil {
		return fmt.Errorf("удаление из Redis для %s: %w", playerID, err)
	}
	return nil
}

// Close закрывает соединение с Redis
func (r *RedisPositionRepo) Close() error {
	return r.client.Close()
}
