package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"registration-assistant/internal/database"
	"registration-assistant/internal/domain"
	"registration-assistant/internal/handler"
	"registration-assistant/internal/logger"
	"registration-assistant/internal/repository"
	"registration-assistant/internal/server"
	"registration-assistant/internal/services"
	"registration-assistant/internal/sheets"
	"registration-assistant/internal/telegram"
	"registration-assistant/internal/worker"

	"github.com/gookit/event"
	"github.com/joho/godotenv"
)

type Config struct {
	TelegramToken     string
	SpreadsheetID     string
	ShopSpreadsheetID string
	CredentialsFile   string
	ChatRegistryDSN   string
	HealthAddr        string
	LogLevel          string
}

type Application struct {
	logger       domain.Logger
	db           database.DB
	config       *Config
	services     *Services
	handlers     *Handlers
	healthServer *server.Server
	worker       *worker.BackgroundWorker
	sheetsClient *sheets.Client
	eventManager *event.Manager
}

type Services struct {
	Event    *services.EventService
	Catalog  *services.CatalogService
	Session  *services.SessionService
	Registry *services.RegistryService
}

type Handlers struct {
	Message *handler.MessageHandler
}

// main initializes and runs the registration assistant application
func main() {
	app, err := NewApplication()
	if err != nil {
		log.Fatalf("Не вдалося ініціалізувати застосунок: %v", err)
	}
	defer app.Close()

	if err := app.Run(); err != nil {
		log.Fatalf("Помилка застосунку: %v", err)
	}
}

// NewApplication creates a new application instance with all dependencies
func NewApplication() (*Application, error) {
	if err := godotenv.Load(); err != nil {
		log.Printf("Увага: файл .env не знайдено: %v", err)
	}

	config, err := loadConfig()
	if err != nil {
		return nil, fmt.Errorf("не вдалося завантажити конфігурацію: %w", err)
	}

	logger, err := initializeLogger(config.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("не вдалося ініціалізувати логер: %w", err)
	}

	ctx := context.Background()

	db, err := database.NewPostgres(ctx, config.ChatRegistryDSN)
	if err != nil {
		return nil, fmt.Errorf("не вдалося підключитися до бази даних: %w", err)
	}

	sheetsClient, err := sheets.New(ctx, config.CredentialsFile, config.SpreadsheetID, config.ShopSpreadsheetID, logger)
	if err != nil {
		return nil, fmt.Errorf("не вдалося підключитися до Google Sheets: %w", err)
	}

	eventManager := event.NewManager("app")

	services, err := initializeServices(ctx, db, sheetsClient, logger)
	if err != nil {
		return nil, fmt.Errorf("не вдалося ініціалізувати сервіси: %w", err)
	}

	handlers := initializeHandlers(services, logger, eventManager)

	app := &Application{
		config:       config,
		logger:       logger,
		db:           db,
		services:     services,
		handlers:     handlers,
		healthServer: server.New(config.HealthAddr, logger),
		sheetsClient: sheetsClient,
		eventManager: eventManager,
	}

	return app, nil
}

// Run starts the application and handles graceful shutdown
func (app *Application) Run() error {
	app.handlers.Message.RegisterEventListeners()

	telegramBot, err := telegram.NewTelegram(app.config.TelegramToken, app.eventManager, app.logger)
	if err != nil {
		return fmt.Errorf("не вдалося створити телеграм-бота: %w", err)
	}

	app.worker = worker.NewBackgroundWorker(
		app.services.Catalog,
		app.services.Registry,
		app.sheetsClient,
		telegramBot,
		app.logger,
	)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	app.healthServer.Start()
	app.worker.Start()

	app.logStartupMessages()

	telegramBot.Start(ctx)

	app.worker.Stop()
	if err := app.healthServer.Shutdown(context.Background()); err != nil {
		app.logger.WithError(err).Warn("HTTP сервер не зупинився чисто")
	}
	return nil
}

// Close performs cleanup operations
func (app *Application) Close() {
	if app.db != nil {
		if err := app.db.Close(context.Background()); err != nil {
			app.logger.WithError(err).Error("База даних не закрилася чисто")
		}
	}
}

// logStartupMessages displays startup information
func (app *Application) logStartupMessages() {
	app.logger.Info("🤖 Бот успішно запущено!")
	app.logger.Info("📊 Підключено до Google Sheets")
	app.logger.Info("🗄️ Підключено до бази даних")
	app.logger.Info("✅ Готовий приймати заявки та замовлення")
}

// loadConfig loads configuration from environment variables
func loadConfig() (*Config, error) {
	config := &Config{
		TelegramToken:     getEnv("TELEGRAM_BOT_TOKEN", ""),
		SpreadsheetID:     getEnv("SPREADSHEET_ID", ""),
		ShopSpreadsheetID: getEnv("SHOP_SPREADSHEET_ID", ""),
		CredentialsFile:   getEnv("GOOGLE_CREDENTIALS_FILE", "credentials.json"),
		ChatRegistryDSN:   getEnv("CHAT_REGISTRY_DATABASE_URL", ""),
		HealthAddr:        getEnv("HEALTH_ADDR", ":8080"),
		LogLevel:          getEnv("LOG_LEVEL", "debug"),
	}

	if err := validateConfig(config); err != nil {
		return nil, err
	}

	return config, nil
}

// validateConfig ensures all required configuration values are present
func validateConfig(config *Config) error {
	required := map[string]string{
		"TELEGRAM_BOT_TOKEN":         config.TelegramToken,
		"SPREADSHEET_ID":             config.SpreadsheetID,
		"SHOP_SPREADSHEET_ID":        config.ShopSpreadsheetID,
		"CHAT_REGISTRY_DATABASE_URL": config.ChatRegistryDSN,
	}

	for key, value := range required {
		if value == "" {
			return fmt.Errorf("обов'язкова змінна середовища %s не задана", key)
		}
	}

	return nil
}

// initializeLogger creates and configures the application logger
func initializeLogger(logLevel string) (*logger.ZLogXAdapter, error) {
	logConfig := &logger.Config{
		Level:          logLevel,
		DateTimeLayout: "02/01/2006 15:04:05",
		Colored:        true,
		JSONFormat:     false,
	}

	log, err := logger.New(logConfig)
	if err != nil {
		return nil, err
	}

	return &logger.ZLogXAdapter{ZLogX: log}, nil
}

// initializeServices creates all application services with their dependencies
func initializeServices(ctx context.Context, db database.DB, sheetsClient *sheets.Client, logger *logger.ZLogXAdapter) (*Services, error) {
	chatRepository, err := repository.NewChatRepository(ctx, db)
	if err != nil {
		return nil, fmt.Errorf("не вдалося ініціалізувати реєстр чатів: %w", err)
	}

	catalogService, err := services.NewCatalogService(sheetsClient, logger)
	if err != nil {
		return nil, fmt.Errorf("не вдалося ініціалізувати сервіс каталогу: %w", err)
	}

	return &Services{
		Event:    services.NewEventService(sheetsClient, logger),
		Catalog:  catalogService,
		Session:  services.NewSessionService(),
		Registry: services.NewRegistryService(chatRepository, logger),
	}, nil
}

// initializeHandlers creates all application handlers with shared event manager
func initializeHandlers(services *Services, logger *logger.ZLogXAdapter, eventManager *event.Manager) *Handlers {
	return &Handlers{
		Message: handler.NewMessageHandler(
			eventManager,
			services.Event,
			services.Catalog,
			services.Session,
			services.Registry,
			logger,
		),
	}
}

// getEnv retrieves environment variable with fallback to default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
