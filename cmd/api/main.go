package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/mikhlas911/medizap-ai/internal/api/router"
	"github.com/mikhlas911/medizap-ai/internal/appointments"
	"github.com/mikhlas911/medizap-ai/internal/calllog"
	appconfig "github.com/mikhlas911/medizap-ai/internal/config"
	"github.com/mikhlas911/medizap-ai/internal/conversation"
	"github.com/mikhlas911/medizap-ai/internal/demo"
	"github.com/mikhlas911/medizap-ai/internal/directory"
	"github.com/mikhlas911/medizap-ai/internal/observability/metrics"
	"github.com/mikhlas911/medizap-ai/internal/session"
	"github.com/mikhlas911/medizap-ai/internal/telephony"
	"github.com/mikhlas911/medizap-ai/pkg/logging"
)

func main() {
	_ = godotenv.Load()
	cfg := appconfig.Load()

	logger := logging.New(cfg.LogLevel)
	logger.Info("starting medizap-ai voice agent",
		"env", cfg.Env,
		"port", cfg.Port,
		"demo_mode", cfg.DemoMode,
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	callMetrics := metrics.NewCallMetrics(nil)

	var (
		clinics  telephony.ClinicResolver
		dir      conversation.DirectoryReader
		bookings conversation.BookingProvider
		audit    telephony.TurnAuditor
		callLogs conversation.CallLogAppender
	)
	if cfg.DemoMode {
		backend := demo.NewBackend(cfg.TransferNumber, uint64(time.Now().UnixNano()))
		clinics = backend
		dir = backend
		bookings = backend
	} else {
		if cfg.DatabaseURL == "" {
			logger.Error("DATABASE_URL is required unless DEMO_MODE=true")
			os.Exit(1)
		}
		pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
		if err != nil {
			logger.Error("failed to create pgx pool", "error", err)
			os.Exit(1)
		}
		defer pool.Close()
		if err := pool.Ping(ctx); err != nil {
			logger.Error("failed to ping database", "error", err)
			os.Exit(1)
		}

		directoryRepo := directory.NewRepository(pool)
		clinics = directoryRepo
		dir = directoryRepo
		bookings = appointments.NewRepository(pool)
		store := calllog.NewStore(pool)
		audit = store
		callLogs = store
	}

	var sessions session.Store
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
		})
		if err := rdb.Ping(ctx).Err(); err != nil {
			logger.Error("failed to ping redis", "error", err, "addr", cfg.RedisAddr)
			os.Exit(1)
		}
		sessions = session.NewRedisStore(rdb, cfg.SessionTTL)
		logger.Info("using redis session store", "addr", cfg.RedisAddr)
	} else {
		mem := session.NewMemoryStore(cfg.SessionTTL)
		go mem.Run(ctx, cfg.SessionSweepInterval)
		sessions = mem
		logger.Info("using in-memory session store")
	}

	engine := conversation.NewEngine(conversation.EngineConfig{
		Directory: dir,
		Bookings:  measuredBookings{inner: bookings, metrics: callMetrics},
		CallLogs:  callLogs,
		Logger:    logger,
		Timeout:   cfg.CollaboratorTimeout,
	})

	voiceHandler := telephony.NewHandler(telephony.HandlerConfig{
		AuthToken: cfg.TwilioAuthToken,
		Clinics:   clinics,
		Engine:    engine,
		Sessions:  sessions,
		Audit:     audit,
		Metrics:   callMetrics,
		Logger:    logger,
		Render: telephony.RenderConfig{
			ActionURL:         cfg.PublicBaseURL + "/webhooks/twilio/voice",
			TransferNumber:    cfg.TransferNumber,
			GatherTimeoutSecs: cfg.GatherTimeoutSecs,
			SpeechTimeoutSecs: cfg.SpeechTimeoutSecs,
			DialTimeoutSecs:   cfg.DialTimeoutSecs,
		},
	})

	r := router.New(&router.Config{
		Logger:         logger,
		VoiceHandler:   voiceHandler,
		MetricsHandler: promhttp.Handler(),
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", "error", err)
		os.Exit(1)
	}
	logger.Info("server stopped")
}

// measuredBookings counts booking outcomes around the real provider.
type measuredBookings struct {
	inner   conversation.BookingProvider
	metrics *metrics.CallMetrics
}

func (m measuredBookings) AvailableSlots(ctx context.Context, doctorID uuid.UUID, date time.Time) ([]string, error) {
	return m.inner.AvailableSlots(ctx, doctorID, date)
}

func (m measuredBookings) Create(ctx context.Context, p appointments.CreateParams) (*appointments.Appointment, error) {
	appt, err := m.inner.Create(ctx, p)
	switch {
	case err == nil:
		m.metrics.ObserveBooking("pending")
	case errors.Is(err, appointments.ErrSlotTaken):
		m.metrics.ObserveBooking("conflict")
	default:
		m.metrics.ObserveBooking("error")
	}
	return appt, err
}
