package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/annel0/mmo-portals/internal/eventbus"
	"github.com/annel0/mmo-portals/internal/logging"
	"github.com/annel0/mmo-portals/internal/middleware"
	"github.com/annel0/mmo-portals/internal/portal"
	"github.com/annel0/mmo-portals/internal/session"
)

// RestServer — административный REST API портальной подсистемы.
// Только чтение: список порталов, карточка портала, статистика сессий.
type RestServer struct {
	router   *gin.Engine
	server   *http.Server
	portals  *portal.Manager
	sessions *session.Store
	port     string
	started  time.Time
}

// Config содержит конфигурацию REST сервера
type Config struct {
	Port     string // порт для запуска сервера, например ":8090"
	Portals  *portal.Manager
	Sessions *session.Store
}

// NewRestServer создает новый REST API сервер
func NewRestServer(config Config) *RestServer {
	if config.Port == "" {
		config.Port = ":8090"
	}

	gin.SetMode(gin.ReleaseMode)

	router := gin.New()        // без стандартного logger/recovery
	router.Use(gin.Recovery()) // добавим только recovery

	// === Observability middleware ===
	loggerMw := middleware.NewRequestLogger()
	router.Use(loggerMw.Handler())

	promMw := middleware.NewPrometheusMiddleware("portals_api")
	router.Use(promMw.Handler())
	promMw.RegisterMetricsEndpoint(router)

	server := &RestServer{
		router:   router,
		portals:  config.Portals,
		sessions: config.Sessions,
		port:     config.Port,
	}

	server.setupRoutes()
	return server
}

// setupRoutes настраивает маршруты REST API
func (rs *RestServer) setupRoutes() {
	rs.router.GET("/health", rs.handleHealth)

	api := rs.router.Group("/api")
	{
		api.GET("/portals", rs.handleListPortals)
		api.GET("/portals/:name", rs.handleGetPortal)
		api.GET("/stats", rs.handleStats)
	}
}

// Start запускает HTTP-сервер в отдельной горутине
func (rs *RestServer) Start() {
	rs.started = time.Now()
	rs.server = &http.Server{
		Addr:    rs.port,
		Handler: rs.router,
	}

	go func() {
		logging.Info("🌐 REST API запущен на %s", rs.port)
		if err := rs.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logging.Error("Ошибка REST API сервера: %v", err)
		}
	}()
}

// Stop останавливает HTTP-сервер с таймаутом
func (rs *RestServer) Stop() error {
	if rs.server == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return rs.server.Shutdown(ctx)
}

func (rs *RestServer) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"uptime": time.Since(rs.started).String(),
	})
}

// portalView — публичное представление портала в API
type portalView struct {
	Name        string  `json:"name"`
	World       string  `json:"world"`
	Volume      int     `json:"volume"`
	Price       float64 `json:"price"`
	Currency    string  `json:"currency,omitempty"`
	Destination string  `json:"destination"`
}

func toView(def *portal.Definition) portalView {
	return portalView{
		Name:        def.Name,
		World:       def.Region.World,
		Volume:      def.Region.Volume(),
		Price:       def.Price,
		Currency:    def.Currency,
		Destination: def.Destination.String(),
	}
}

func (rs *RestServer) handleListPortals(c *gin.Context) {
	defs := rs.portals.List()
	out := make([]portalView, 0, len(defs))
	for _, def := range defs {
		out = append(out, toView(def))
	}
	c.JSON(http.StatusOK, gin.H{"portals": out, "count": len(out)})
}

func (rs *RestServer) handleGetPortal(c *gin.Context) {
	name := c.Param("name")
	def, exists := rs.portals.Get(name)
	if !exists {
		c.JSON(http.StatusNotFound, gin.H{
			"error": fmt.Sprintf("портал '%s' не найден", name),
		})
		return
	}
	c.JSON(http.StatusOK, toView(def))
}

func (rs *RestServer) handleStats(c *gin.Context) {
	busStats := eventbus.Metrics()
	c.JSON(http.StatusOK, gin.H{
		"portals":  rs.portals.Count(),
		"sessions": rs.sessions.Count(),
		"audit": gin.H{
			"published": busStats.Published,
			"consumed":  busStats.Consumed,
			"dropped":   busStats.Dropped,
		},
	})
}
