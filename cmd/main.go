package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	addBlockedRangeHandler "github.com/m04kA/SMC-SchedulingService/internal/api/handlers/add_blocked_range"
	createAppointmentHandler "github.com/m04kA/SMC-SchedulingService/internal/api/handlers/create_appointment"
	deleteBlockedRangeHandler "github.com/m04kA/SMC-SchedulingService/internal/api/handlers/delete_blocked_range"
	getAppointmentHandler "github.com/m04kA/SMC-SchedulingService/internal/api/handlers/get_appointment"
	getAvailableSlotsHandler "github.com/m04kA/SMC-SchedulingService/internal/api/handlers/get_available_slots"
	getBalanceHandler "github.com/m04kA/SMC-SchedulingService/internal/api/handlers/get_balance"
	getClientAppointmentsHandler "github.com/m04kA/SMC-SchedulingService/internal/api/handlers/get_client_appointments"
	getProviderAppointmentsHandler "github.com/m04kA/SMC-SchedulingService/internal/api/handlers/get_provider_appointments"
	getScheduleHandler "github.com/m04kA/SMC-SchedulingService/internal/api/handlers/get_schedule"
	listBlockedRangesHandler "github.com/m04kA/SMC-SchedulingService/internal/api/handlers/list_blocked_ranges"
	paymentStatusHandler "github.com/m04kA/SMC-SchedulingService/internal/api/handlers/payment_status"
	recomputeBalanceHandler "github.com/m04kA/SMC-SchedulingService/internal/api/handlers/recompute_balance"
	updateAppointmentStatusHandler "github.com/m04kA/SMC-SchedulingService/internal/api/handlers/update_appointment_status"
	updateScheduleHandler "github.com/m04kA/SMC-SchedulingService/internal/api/handlers/update_schedule"
	"github.com/m04kA/SMC-SchedulingService/internal/api/middleware"
	"github.com/m04kA/SMC-SchedulingService/internal/config"
	"github.com/m04kA/SMC-SchedulingService/internal/domain"
	slotsCache "github.com/m04kA/SMC-SchedulingService/internal/infra/cache/slots"
	appointmentRepo "github.com/m04kA/SMC-SchedulingService/internal/infra/storage/appointment"
	balanceRepo "github.com/m04kA/SMC-SchedulingService/internal/infra/storage/balance"
	scheduleRepo "github.com/m04kA/SMC-SchedulingService/internal/infra/storage/schedule"
	catalogClient "github.com/m04kA/SMC-SchedulingService/internal/integrations/catalog"
	appointmentsService "github.com/m04kA/SMC-SchedulingService/internal/service/appointments"
	balanceService "github.com/m04kA/SMC-SchedulingService/internal/service/balance"
	scheduleService "github.com/m04kA/SMC-SchedulingService/internal/service/schedule"
	createAppointmentUC "github.com/m04kA/SMC-SchedulingService/internal/usecase/create_appointment"
	getAvailableSlotsUC "github.com/m04kA/SMC-SchedulingService/internal/usecase/get_available_slots"
	"github.com/m04kA/SMC-SchedulingService/internal/worker/reconcile"
	"github.com/m04kA/SMC-SchedulingService/pkg/dbmetrics"
	"github.com/m04kA/SMC-SchedulingService/pkg/logger"
	"github.com/m04kA/SMC-SchedulingService/pkg/metrics"
	"github.com/m04kA/SMC-SchedulingService/pkg/txmanager"
)

// slotStore кэш слотов: Redis или заглушка
type slotStore interface {
	Get(ctx context.Context, providerID int64, date time.Time, durationMinutes int) ([]domain.TimeSlot, bool, error)
	Generation(ctx context.Context, providerID int64, date time.Time) (string, error)
	Set(ctx context.Context, providerID int64, date time.Time, durationMinutes int, slots []domain.TimeSlot, generation string) error
	Invalidate(ctx context.Context, providerID int64, date time.Time) error
	InvalidateProvider(ctx context.Context, providerID int64) error
}

const (
	redisPingTimeout = 3 * time.Second

	// reconcileTimeout ограничение на один проход пересчета балансов
	reconcileTimeout = 10 * time.Minute
)

func main() {
	// Загружаем конфигурацию
	cfg, err := config.Load("config.toml")
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Инициализируем логгер
	log, err := logger.New(cfg.Logs.File, cfg.Logs.Level)
	if err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Close()

	log.Info("Starting SMC-SchedulingService...")
	log.Info("Configuration loaded from config.toml")

	// Инициализируем метрики (если включены)
	var metricsCollector *metrics.Metrics
	stopMetricsCh := make(chan struct{})

	if cfg.Metrics.Enabled {
		metricsCollector = metrics.New(cfg.Metrics.ServiceName)
		log.Info("Metrics enabled at %s", cfg.Metrics.Path)
	}

	// Подключаемся к базе данных
	db, err := sql.Open("postgres", cfg.Database.DSN())
	if err != nil {
		log.Fatal("Failed to connect to database: %v", err)
	}
	defer db.Close()

	// Настраиваем connection pool
	db.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	db.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	db.SetConnMaxLifetime(time.Duration(cfg.Database.ConnMaxLifetime) * time.Second)

	if err := db.Ping(); err != nil {
		log.Fatal("Failed to ping database: %v", err)
	}
	log.Info("Successfully connected to database (host=%s, port=%d, db=%s)",
		cfg.Database.Host, cfg.Database.Port, cfg.Database.DBName)

	// Без метрик обертка только пробрасывает запросы; транзакции всегда идут через txmanager
	wrappedDB := dbmetrics.WrapWithDefault(db, metricsCollector, cfg.Metrics.ServiceName, stopMetricsCh)
	if cfg.Metrics.Enabled {
		log.Info("Database metrics collection started")
	}
	txMgr := txmanager.NewTransactionManager(wrappedDB)

	// Кэш слотов
	var slotCache slotStore = slotsCache.Noop{}
	if cfg.Redis.Enabled() {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer redisClient.Close()

		pingCtx, cancel := context.WithTimeout(context.Background(), redisPingTimeout)
		err := redisClient.Ping(pingCtx).Err()
		cancel()

		if err != nil {
			log.Warn("Redis is unavailable (addr=%s), slot cache disabled: %v", cfg.Redis.Addr, err)
		} else {
			slotCache = slotsCache.NewCache(redisClient, time.Duration(cfg.Redis.TTLSeconds)*time.Second)
			log.Info("Slot cache enabled (addr=%s, ttl=%ds)", cfg.Redis.Addr, cfg.Redis.TTLSeconds)
		}
	} else {
		log.Info("Redis address is not set, slot cache disabled")
	}

	// Инициализируем интеграционных клиентов
	catalog := catalogClient.NewClient(
		cfg.Catalog.URL,
		time.Duration(cfg.Catalog.Timeout)*time.Second,
		log,
	)
	log.Info("Catalog client initialized (url=%s timeout=%ds)", cfg.Catalog.URL, cfg.Catalog.Timeout)

	// Инициализируем репозитории
	appointmentRepository := appointmentRepo.NewRepository(wrappedDB)
	scheduleRepository := scheduleRepo.NewRepository(wrappedDB)
	balanceRepository := balanceRepo.NewRepository(wrappedDB)

	// Инициализируем сервисы
	balanceSvc := balanceService.NewService(
		appointmentRepository,
		balanceRepository,
		txMgr,
		metricsCollector,
		log,
	)
	appointmentSvc := appointmentsService.NewService(
		appointmentRepository,
		balanceSvc,
		slotCache,
		txMgr,
		metricsCollector,
		log,
		appointmentsService.Options{AutoConfirmOnPayment: cfg.Booking.AutoConfirmOnPayment},
	)
	scheduleSvc := scheduleService.NewService(
		scheduleRepository,
		slotCache,
		log,
	)

	// Инициализируем use cases
	createAppointmentUseCase := createAppointmentUC.NewUseCase(
		appointmentRepository,
		scheduleRepository,
		catalog,
		slotCache,
		txMgr,
		metricsCollector,
		log,
	)
	getAvailableSlotsUseCase := getAvailableSlotsUC.NewUseCase(
		appointmentRepository,
		scheduleRepository,
		catalog,
		slotCache,
		log,
	)

	// Инициализируем handlers
	getAvailableSlots := getAvailableSlotsHandler.NewHandler(getAvailableSlotsUseCase, log)
	getSchedule := getScheduleHandler.NewHandler(scheduleSvc, log)
	listBlockedRanges := listBlockedRangesHandler.NewHandler(scheduleSvc, log)
	createAppointment := createAppointmentHandler.NewHandler(createAppointmentUseCase, log)
	getAppointment := getAppointmentHandler.NewHandler(appointmentSvc, log)
	updateAppointmentStatus := updateAppointmentStatusHandler.NewHandler(appointmentSvc, log)
	getClientAppointments := getClientAppointmentsHandler.NewHandler(appointmentSvc, log)
	getProviderAppointments := getProviderAppointmentsHandler.NewHandler(appointmentSvc, log)
	updateSchedule := updateScheduleHandler.NewHandler(scheduleSvc, log)
	addBlockedRange := addBlockedRangeHandler.NewHandler(scheduleSvc, log)
	deleteBlockedRange := deleteBlockedRangeHandler.NewHandler(scheduleSvc, log)
	getBalance := getBalanceHandler.NewHandler(balanceSvc, log)
	recomputeBalance := recomputeBalanceHandler.NewHandler(balanceSvc, log)
	paymentStatus := paymentStatusHandler.NewHandler(appointmentSvc, log)

	// Периодический пересчет балансов
	var reconcileWorker *reconcile.Worker
	if cfg.Reconciliation.Enabled {
		reconcileWorker, err = reconcile.New(balanceSvc, cfg.Reconciliation.Schedule, reconcileTimeout, log)
		if err != nil {
			log.Fatal("Failed to create reconcile worker: %v", err)
		}
	} else {
		log.Info("Balance reconciliation disabled")
	}

	// Настраиваем роутер
	r := mux.NewRouter()
	r.Use(middleware.RequestID)

	if cfg.Metrics.Enabled {
		r.Use(middleware.MetricsMiddleware(metricsCollector, cfg.Metrics.ServiceName))
		log.Info("HTTP metrics middleware enabled")

		// Metrics endpoint (публичный, без аутентификации)
		r.Handle(cfg.Metrics.Path, promhttp.Handler()).Methods(http.MethodGet)
		log.Info("Prometheus metrics endpoint exposed at %s", cfg.Metrics.Path)
	}

	api := r.PathPrefix("/api/v1").Subrouter()

	// ============================================================
	// PUBLIC ROUTES (без аутентификации)
	// ============================================================

	api.HandleFunc("/providers/{providerId}/available-slots", getAvailableSlots.Handle).Methods(http.MethodGet)
	api.HandleFunc("/providers/{providerId}/schedule", getSchedule.Handle).Methods(http.MethodGet)
	api.HandleFunc("/providers/{providerId}/schedule/blocked-ranges", listBlockedRanges.Handle).Methods(http.MethodGet)

	// Колбэк платежного процессора: вместо X-User-ID проверяется общий секрет
	callbacks := api.PathPrefix("/internal").Subrouter()
	callbacks.Use(middleware.CallbackSecret(cfg.Booking.PaymentCallbackSecret))
	callbacks.HandleFunc("/appointments/{appointmentId}/payment-status", paymentStatus.Handle).Methods(http.MethodPost)

	// ============================================================
	// PROTECTED ROUTES (требуют X-User-ID header)
	// ============================================================

	protected := api.PathPrefix("").Subrouter()
	protected.Use(middleware.Auth)

	// --- Записи ---
	protected.HandleFunc("/appointments", createAppointment.Handle).Methods(http.MethodPost)
	protected.HandleFunc("/appointments/{appointmentId}", getAppointment.Handle).Methods(http.MethodGet)
	protected.HandleFunc("/appointments/{appointmentId}/{action:"+updateAppointmentStatusHandler.ActionPattern+"}",
		updateAppointmentStatus.Handle).Methods(http.MethodPatch)
	protected.HandleFunc("/clients/{clientId}/appointments", getClientAppointments.Handle).Methods(http.MethodGet)
	protected.HandleFunc("/providers/{providerId}/appointments", getProviderAppointments.Handle).Methods(http.MethodGet)

	// --- Расписание исполнителя ---
	protected.HandleFunc("/providers/{providerId}/schedule", updateSchedule.Handle).Methods(http.MethodPut)
	protected.HandleFunc("/providers/{providerId}/schedule/blocked-ranges", addBlockedRange.Handle).Methods(http.MethodPost)
	protected.HandleFunc("/providers/{providerId}/schedule/blocked-ranges/{rangeId}",
		deleteBlockedRange.Handle).Methods(http.MethodDelete)

	// --- Баланс исполнителя ---
	protected.HandleFunc("/providers/{providerId}/balance", getBalance.Handle).Methods(http.MethodGet)
	protected.HandleFunc("/providers/{providerId}/balance/recompute", recomputeBalance.Handle).Methods(http.MethodPost)

	// Создаем HTTP сервер
	addr := fmt.Sprintf(":%d", cfg.Server.HTTPPort)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(cfg.Server.IdleTimeout) * time.Second,
	}

	workerCtx, stopWorker := context.WithCancel(context.Background())
	defer stopWorker()
	if reconcileWorker != nil {
		reconcileWorker.Start(workerCtx)
	}

	// Graceful shutdown
	go func() {
		log.Info("Starting server on %s", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Server failed to start: %v", err)
		}
	}()

	// Ожидаем сигнал завершения
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(
		context.Background(),
		time.Duration(cfg.Server.ShutdownTimeout)*time.Second,
	)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown: %v", err)
	}

	// Прерываем текущий проход пересчета и ждем его завершения
	if reconcileWorker != nil {
		stopWorker()
		if err := reconcileWorker.Stop(shutdownCtx); err != nil {
			log.Error("Reconcile worker did not stop in time: %v", err)
		}
	}

	// Останавливаем сбор метрик connection pool
	close(stopMetricsCh)
	if cfg.Metrics.Enabled {
		log.Info("Metrics collection stopped")
	}

	log.Info("Server stopped gracefully")
}
