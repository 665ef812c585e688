package config

import (
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/annel0/mmo-portals/internal/world/block"
)

// Config корневая структура конфигурации приложения.

type Config struct {
	Portals  PortalsConfig  `yaml:"portals"`
	Storage  StorageConfig  `yaml:"storage"`
	EventBus EventBusConfig `yaml:"eventbus"`
	Server   ServerConfig   `yaml:"server"`
}

// PortalsConfig содержит административные флаги портальной логики
type PortalsConfig struct {
	WandMaterial        string `yaml:"wand_material"`         // Материал инструмента выделения
	BucketFilling       bool   `yaml:"bucket_filling"`        // Разрешено ли осушать/заполнять порталы вёдрами
	EnforcePortalAccess bool   `yaml:"enforce_portal_access"` // Проверять ли permission портала при входе
	TeleportSafety      bool   `yaml:"teleport_safety"`       // Запрашивать ли проверку безопасности у телепортера
	CooldownMs          int    `yaml:"cooldown_ms"`           // Минимальный интервал между телепортами игрока
}

// StorageConfig выбирает бэкенды хранения
type StorageConfig struct {
	PortalBackend string `yaml:"portal_backend"` // memory | maria | mongo
	MariaDSN      string `yaml:"maria_dsn"`      // user:pass@tcp(host:port)/dbname
	MongoURI      string `yaml:"mongo_uri"`      // mongodb://host:port
	RedisAddr     string `yaml:"redis_addr"`     // host:port; пусто — позиции хранятся в памяти
}

type EventBusConfig struct {
	URL       string `yaml:"url"` // nats://host:port; пусто — in-memory шина
	Stream    string `yaml:"stream"`
	Retention int    `yaml:"retention_hours"`
}

type ServerConfig struct {
	RESTPort    int `yaml:"rest_port"`
	MetricsPort int `yaml:"metrics_port"`
}

// GetRESTPort возвращает REST API порт с поддержкой fallback значений
func (s *ServerConfig) GetRESTPort() int {
	return getPortWithEnvFallback(s.RESTPort, "PORTALS_REST_PORT", 8090)
}

// GetMetricsPort возвращает Prometheus метрики порт с поддержкой fallback значений
func (s *ServerConfig) GetMetricsPort() int {
	return getPortWithEnvFallback(s.MetricsPort, "PORTALS_METRICS_PORT", 2112)
}

// getPortWithEnvFallback возвращает порт с приоритетом: config -> env -> default
func getPortWithEnvFallback(configPort int, envVar string, defaultPort int) int {
	if configPort > 0 {
		return configPort
	}
	if envVal := os.Getenv(envVar); envVal != "" {
		if port, err := strconv.Atoi(envVal); err == nil && port > 0 {
			return port
		}
	}
	return defaultPort
}

// WandMaterialID возвращает материал инструмента выделения.
// Неизвестное имя материала откатывается к деревянному топору.
func (p *PortalsConfig) WandMaterialID() block.MaterialID {
	if id, ok := block.ByName(p.WandMaterial); ok {
		return id
	}
	return block.WoodAxeID
}

// Cooldown возвращает интервал между телепортами как time.Duration
func (p *PortalsConfig) Cooldown() time.Duration {
	if p.CooldownMs <= 0 {
		return 0
	}
	return time.Duration(p.CooldownMs) * time.Millisecond
}

// Default возвращает конфигурацию по умолчанию
func Default() *Config {
	return &Config{
		Portals: PortalsConfig{
			WandMaterial:        "wood_axe",
			BucketFilling:       true,
			EnforcePortalAccess: true,
			TeleportSafety:      true,
			CooldownMs:          1000,
		},
		Storage: StorageConfig{
			PortalBackend: "memory",
		},
		EventBus: EventBusConfig{
			Stream:    "PORTAL_EVENTS",
			Retention: 24,
		},
	}
}

// Load читает YAML файл конфигурации.
// Если path == "", пытается прочитать из ENV PORTALS_CONFIG
// или возвращает конфигурацию по умолчанию.
func Load(path string) (*Config, error) {
	if path == "" {
		path = os.Getenv("PORTALS_CONFIG")
		if path == "" {
			return Default(), nil
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}
