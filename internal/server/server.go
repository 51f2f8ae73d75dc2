// Package server wires configuration, storage, services and HTTP routes
// into a runnable Fiber application.
package server

import (
	"fmt"
	"io"
	"log"
	"time"

	"qbay/internal/config"
	"qbay/internal/database"
	"qbay/internal/handlers"
	"qbay/internal/middleware"
	"qbay/internal/repositories"
	"qbay/internal/services"
	"qbay/pkg/kafka"
	"qbay/pkg/rabbitmq"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"gorm.io/gorm"
)

// Server owns the Fiber app and the resources it depends on.
type Server struct {
	App *fiber.App

	cfg       config.Config
	db        *gorm.DB
	publisher services.EventPublisher
	closers   []io.Closer
}

// New opens the database, runs migrations, connects the configured event
// sink and registers every route.
func New(cfg config.Config) (*Server, error) {
	db, err := database.Open(cfg.DBDriver, cfg.DatabaseDSN)
	if err != nil {
		return nil, err
	}
	if err := repositories.Migrate(db); err != nil {
		_ = database.Close(db)
		return nil, err
	}

	s := &Server{cfg: cfg, db: db}
	if err := s.connectEventSink(); err != nil {
		_ = database.Close(db)
		return nil, err
	}

	store := repositories.NewGORMStore(db, cfg.TxMaxRetries)
	s.App = newApp(store, s.publisher, cfg)
	return s, nil
}

func (s *Server) connectEventSink() error {
	switch s.cfg.EventSink {
	case config.EventSinkRabbitMQ:
		client, err := rabbitmq.NewClient(rabbitmq.Config{URL: s.cfg.RabbitMQURL})
		if err != nil {
			return fmt.Errorf("failed to initialize RabbitMQ client: %w", err)
		}
		s.publisher = client
		s.closers = append(s.closers, client)
	case config.EventSinkKafka:
		producer := kafka.NewProducer(s.cfg.KafkaBrokers, s.cfg.KafkaTopic)
		s.publisher = producer
		s.closers = append(s.closers, producer)
		log.Printf("Publishing purchase events to Kafka topic %s", s.cfg.KafkaTopic)
	default:
		log.Println("Purchase events are disabled")
	}
	return nil
}

// newApp builds the routes on top of store. publisher may be nil.
func newApp(store repositories.Store, publisher services.EventPublisher, cfg config.Config) *fiber.App {
	accountService := services.NewAccountService(store, cfg.JWTSecret, cfg.TokenTTL)
	productService := services.NewProductService(store)
	orderService := services.NewOrderService(store, publisher)

	app := fiber.New()
	app.Use(logger.New())

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusOK).JSON(fiber.Map{
			"status":     "healthy",
			"time":       time.Now().Format(time.RFC3339),
			"db":         cfg.DBDriver,
			"event_sink": cfg.EventSink,
		})
	})

	apiV1 := app.Group("/api/v1")
	handlers.NewAuthHandler(accountService).RegisterRoutes(apiV1)

	protected := apiV1.Group("", middleware.AuthRequired(accountService))
	handlers.NewAccountHandler(accountService).RegisterRoutes(protected)
	handlers.NewProductHandler(productService).RegisterRoutes(protected)
	handlers.NewOrderHandler(orderService).RegisterRoutes(protected)

	return app
}

// Listen serves HTTP on the configured port until Shutdown is called.
func (s *Server) Listen() error {
	log.Printf("Starting server on port %s", s.cfg.AppPort)
	return s.App.Listen(s.cfg.AppPort)
}

// Shutdown stops the HTTP server and releases the event sink and database.
func (s *Server) Shutdown() error {
	var errs []error
	if s.App != nil {
		if err := s.App.Shutdown(); err != nil {
			errs = append(errs, fmt.Errorf("fiber shutdown: %w", err))
		}
	}
	for _, c := range s.closers {
		if err := c.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if err := database.Close(s.db); err != nil {
		errs = append(errs, fmt.Errorf("database close: %w", err))
	}
	if len(errs) > 0 {
		return fmt.Errorf("errors occurred during shutdown: %v", errs)
	}
	return nil
}
