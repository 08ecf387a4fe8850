package factory

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"registration-wizard/internal/client"
	"registration-wizard/internal/config"
	"registration-wizard/internal/encryption"
	"registration-wizard/internal/events"
	"registration-wizard/internal/handler"
	"registration-wizard/internal/hashing"
	"registration-wizard/internal/otp"
	"registration-wizard/internal/service"
	"registration-wizard/internal/session"
	"registration-wizard/internal/storage"
	"registration-wizard/internal/tls"
	"registration-wizard/internal/util"
	"registration-wizard/internal/wizard"
)

// Factory manages the lifecycle of all application dependencies
type Factory struct {
	config     *config.Config
	logger     *zap.Logger
	tlsManager *tls.Manager

	// Clients
	redisClient   *client.RedisClient
	kafkaProducer *client.KafkaProducer

	hasher    *hashing.Hasher
	provider  storage.Provider
	codes     *otp.Service
	publisher *events.Publisher

	sessions      *session.Registry
	registrations *service.RegistrationService

	closeOnce sync.Once
	closed    chan struct{}
}

// NewFactory loads configuration, sets up the global logger and builds
// every dependency from them.
func NewFactory() (*Factory, error) {
	cfg := config.LoadConfig()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	logger := util.Init(cfg.Environment, cfg.Logging.Level, cfg.Logging.Format)
	return New(cfg, logger)
}

// New builds the dependency graph for an already loaded configuration
func New(cfg *config.Config, logger *zap.Logger) (*Factory, error) {
	f := &Factory{
		config: cfg,
		logger: util.OrNop(logger),
		closed: make(chan struct{}),
	}

	if cfg.Server.EnableTLS {
		manager, err := tls.NewManager(cfg.Server, cfg.IsProduction(), f.logger)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize TLS: %w", err)
		}
		f.tlsManager = manager
	}

	if err := f.initializeClients(); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to initialize clients: %w", err)
	}
	if err := f.initializeStorage(); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}
	if err := f.initializeOTP(); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to initialize otp: %w", err)
	}
	f.initializeEvents()

	f.logger.Info("Factory initialized successfully",
		util.String("environment", cfg.Environment),
		util.String("storage_driver", cfg.Storage.Driver),
		util.Bool("storage_sealed", cfg.Storage.Secret != ""),
		util.Bool("kafka_enabled", f.kafkaProducer != nil),
		util.Strings("kafka_brokers", cfg.Kafka.Brokers),
		util.Bool("tls_enabled", cfg.Server.EnableTLS),
	)
	return f, nil
}

// initializeClients connects Redis when the storage driver needs it and
// Kafka when brokers are configured. Kafka is optional outside production.
func (f *Factory) initializeClients() error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if f.config.Storage.Driver == config.StorageRedis {
		redisClient, err := client.NewRedisClient(f.config.Redis, f.logger)
		if err != nil {
			return fmt.Errorf("redis: %w", err)
		}
		f.redisClient = redisClient
		if err := f.redisClient.HealthCheck(ctx); err != nil {
			return fmt.Errorf("redis health check: %w", err)
		}
		f.logger.Info("Redis client initialized and healthy")
	}

	if len(f.config.Kafka.Brokers) > 0 {
		producer, err := client.NewKafkaProducer(f.config.Kafka, f.logger)
		if err != nil {
			if f.config.IsProduction() {
				return fmt.Errorf("kafka: %w", err)
			}
			f.logger.Warn("Kafka producer initialization failed - proceeding without Kafka", util.ErrorField(err))
		} else {
			f.kafkaProducer = producer
		}
	}
	return nil
}

func (f *Factory) initializeStorage() error {
	var provider storage.Provider
	switch f.config.Storage.Driver {
	case config.StorageMemory:
		provider = storage.NewMemory()
	case config.StorageFile:
		file, err := storage.NewFile(f.config.Storage.Dir)
		if err != nil {
			return err
		}
		provider = file
	case config.StorageRedis:
		provider = storage.NewRedis(f.redisClient, f.config.Storage.TTL, f.logger)
	default:
		return fmt.Errorf("unknown storage driver %q", f.config.Storage.Driver)
	}

	if f.config.Storage.Secret != "" {
		sealer, err := encryption.NewSealer(f.config.Storage.Secret)
		if err != nil {
			return err
		}
		provider = storage.NewSealed(provider, sealer)
	}
	f.provider = provider
	return nil
}

func (f *Factory) initializeOTP() error {
	hasher, err := hashing.NewHasherFromConfig(f.config)
	if err != nil {
		return err
	}
	f.hasher = hasher

	var cooldown otp.Cooldown = otp.NewMemoryCooldown(nil)
	if f.redisClient != nil {
		cooldown = otp.NewRedisCooldown(f.redisClient)
	}

	simulated := otp.NewSimulated(hasher, f.config.OTP.SendDelay, f.config.OTP.VerifyDelay, f.logger)
	f.codes = otp.NewService(simulated, cooldown, f.config.OTP.ResendInterval)
	return nil
}

func (f *Factory) initializeEvents() {
	var sink events.Sink = events.NewLogSink(f.logger)
	if f.kafkaProducer != nil {
		sink = events.NewKafkaSink(f.kafkaProducer)
	}
	f.publisher = events.NewPublisher(sink, f.logger)
}

// Store opens the single wizard record used by the terminal front end
func (f *Factory) Store(sessionID string) *wizard.Store {
	return wizard.Open(f.provider,
		wizard.WithKey(f.config.Storage.Key),
		wizard.WithLogger(f.logger),
		wizard.WithObserver(f.publisher.Observer(sessionID)),
	)
}

func (f *Factory) Sessions() *session.Registry {
	if f.sessions == nil {
		f.sessions = session.NewRegistry(f.provider,
			session.WithShards(f.config.Session.Shards),
			session.WithIdleTimeout(f.config.Session.IdleTimeout),
			session.WithLogger(f.logger),
			session.WithObserver(f.publisher.Observer),
			session.WithSweepHook(f.sweepCodes),
		)
	}
	return f.sessions
}

func (f *Factory) sweepCodes(now time.Time) {
	if n := f.codes.Sweep(now); n > 0 {
		f.logger.Debug("stale one-time code state swept", zap.Int("count", n))
	}
}

func (f *Factory) RegistrationService() *service.RegistrationService {
	if f.registrations == nil {
		f.registrations = service.NewRegistrationService(f.Sessions(), f.codes, f.logger)
	}
	return f.registrations
}

// Router wires the HTTP API
func (f *Factory) Router() http.Handler {
	h := handler.NewRegistrationHandler(f.RegistrationService(), f.logger)
	return handler.NewRouter(h, handler.RouterOptions{
		AllowedOrigins: f.config.Server.AllowedOrigins,
		RequireTLS:     f.config.Server.EnableTLS,
		RequestTimeout: f.config.Server.WriteTimeout,
		HealthCheck:    f.HealthCheck,
	}, f.logger)
}

// ==============================
// Health Checks
// ==============================

// HealthCheck checks every external client concurrently
func (f *Factory) HealthCheck(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)

	if f.redisClient != nil {
		g.Go(func() error {
			if err := f.redisClient.HealthCheck(ctx); err != nil {
				return fmt.Errorf("redis: %w", err)
			}
			return nil
		})
	}
	if f.kafkaProducer != nil {
		g.Go(func() error {
			if err := f.kafkaProducer.HealthCheck(ctx); err != nil {
				return fmt.Errorf("kafka: %w", err)
			}
			return nil
		})
	}
	return g.Wait()
}

func (f *Factory) Close() error {
	f.closeOnce.Do(func() {
		close(f.closed)
		f.logger.Info("Shutting down factory...")

		if f.kafkaProducer != nil {
			if err := f.kafkaProducer.Close(); err != nil {
				f.logger.Error("Failed to close Kafka producer", util.ErrorField(err))
			} else {
				f.logger.Info("Kafka producer closed")
			}
		}

		if f.redisClient != nil {
			if err := f.redisClient.Close(); err != nil {
				f.logger.Error("Failed to close Redis client", util.ErrorField(err))
			} else {
				f.logger.Info("Redis client closed")
			}
		}

		f.logger.Info("Factory shutdown completed")
	})
	return nil
}

func (f *Factory) WaitForClose() {
	<-f.closed
}

func (f *Factory) Config() *config.Config {
	return f.config
}

func (f *Factory) Logger() *zap.Logger {
	return f.logger
}

func (f *Factory) TLSManager() *tls.Manager {
	return f.tlsManager
}

func (f *Factory) Provider() storage.Provider {
	return f.provider
}

func (f *Factory) OTPService() *otp.Service {
	return f.codes
}
