package config

import (
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds application level configuration loaded from environment and flags.
type Config struct {
	RunAddress            string
	MongoURI              string
	MongoDatabase         string
	RedisAddr             string
	KafkaBrokers          []string
	GatewayAddress        string
	InvoiceAddress        string
	AuthSecret            string
	WebhookSecret         string
	Environment           string
	HomeState             string
	DraftTTL              time.Duration
	CouponLockTTL         time.Duration
	AutoCancelInterval    time.Duration
	SweepInterval         time.Duration
	WorkerPoolSize        int
	JobBatchSize          int
	ShutdownTimeout       time.Duration
	ShippingFlatFee       float64
	FreeShippingThreshold float64
}

const (
	defaultRunAddress         = ":8080"
	defaultMongoDatabase      = "shopcore"
	defaultRedisAddr          = "localhost:6379"
	defaultAuthSecret         = "change-me-in-production"
	defaultEnvironment        = "development"
	defaultHomeState          = "MH"
	defaultDraftTTL           = 20 * time.Minute
	defaultCouponLockTTL      = 60 * time.Second
	defaultAutoCancelInterval = 15 * time.Second
	defaultSweepInterval      = 5 * time.Minute
	defaultWorkerPoolSize     = 4
	defaultJobBatchSize       = 32
	defaultShutdownTimeout    = 10 * time.Second
	defaultShippingFlatFee    = 49
	defaultFreeShipping       = 999
)

// Load parses configuration from flags and environment variables.
func Load() (*Config, error) {
	return load(os.Args[1:], os.LookupEnv)
}

type envLookup func(string) (string, bool)

func load(args []string, lookup envLookup) (*Config, error) {
	cfg := &Config{
		RunAddress:            getString(lookup, "RUN_ADDRESS", defaultRunAddress),
		MongoURI:              getString(lookup, "MONGO_URI", ""),
		MongoDatabase:         getString(lookup, "MONGO_DATABASE", defaultMongoDatabase),
		RedisAddr:             getString(lookup, "REDIS_ADDR", defaultRedisAddr),
		GatewayAddress:        getString(lookup, "GATEWAY_ADDRESS", ""),
		InvoiceAddress:        getString(lookup, "INVOICE_ADDRESS", ""),
		AuthSecret:            getString(lookup, "AUTH_SECRET", defaultAuthSecret),
		WebhookSecret:         getString(lookup, "WEBHOOK_SECRET", ""),
		Environment:           getString(lookup, "ENVIRONMENT", defaultEnvironment),
		HomeState:             getString(lookup, "HOME_STATE", defaultHomeState),
		DraftTTL:              getDuration(lookup, "DRAFT_TTL", defaultDraftTTL),
		CouponLockTTL:         getDuration(lookup, "COUPON_LOCK_TTL", defaultCouponLockTTL),
		AutoCancelInterval:    getDuration(lookup, "AUTOCANCEL_POLL_INTERVAL", defaultAutoCancelInterval),
		SweepInterval:         getDuration(lookup, "SWEEP_INTERVAL", defaultSweepInterval),
		WorkerPoolSize:        getInt(lookup, "WORKER_POOL_SIZE", defaultWorkerPoolSize),
		JobBatchSize:          getInt(lookup, "JOB_BATCH_SIZE", defaultJobBatchSize),
		ShutdownTimeout:       getDuration(lookup, "SHUTDOWN_TIMEOUT", defaultShutdownTimeout),
		ShippingFlatFee:       getFloat(lookup, "SHIPPING_FLAT_FEE", defaultShippingFlatFee),
		FreeShippingThreshold: getFloat(lookup, "FREE_SHIPPING_THRESHOLD", defaultFreeShipping),
	}

	brokers := getString(lookup, "KAFKA_BROKERS", "")

	fs := flag.NewFlagSet("shopcore", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	var (
		draftTTLStr        = cfg.DraftTTL.String()
		couponLockTTLStr   = cfg.CouponLockTTL.String()
		shutdownTimeoutStr = cfg.ShutdownTimeout.String()
	)

	fs.StringVar(&cfg.RunAddress, "a", cfg.RunAddress, "HTTP server listen address")
	fs.StringVar(&cfg.MongoURI, "m", cfg.MongoURI, "MongoDB connection URI")
	fs.StringVar(&cfg.MongoDatabase, "db", cfg.MongoDatabase, "MongoDB database name")
	fs.StringVar(&cfg.RedisAddr, "redis", cfg.RedisAddr, "Redis server address")
	fs.StringVar(&brokers, "kafka", brokers, "Comma-separated Kafka broker list")
	fs.StringVar(&cfg.GatewayAddress, "gateway", cfg.GatewayAddress, "Payment gateway base URL")
	fs.StringVar(&cfg.InvoiceAddress, "invoice", cfg.InvoiceAddress, "Invoice service base URL")
	fs.StringVar(&cfg.AuthSecret, "auth-secret", cfg.AuthSecret, "Secret for verifying auth tokens")
	fs.StringVar(&cfg.WebhookSecret, "webhook-secret", cfg.WebhookSecret, "Secret for verifying gateway webhook signatures")
	fs.StringVar(&draftTTLStr, "draft-ttl", draftTTLStr, "Checkout draft lifetime")
	fs.StringVar(&couponLockTTLStr, "coupon-lock-ttl", couponLockTTLStr, "Coupon redemption lock lifetime")
	fs.StringVar(&shutdownTimeoutStr, "shutdown-timeout", shutdownTimeoutStr, "Graceful shutdown timeout")
	fs.IntVar(&cfg.WorkerPoolSize, "worker-pool", cfg.WorkerPoolSize, "Number of concurrent background workers")
	fs.IntVar(&cfg.JobBatchSize, "job-batch", cfg.JobBatchSize, "Maximum jobs claimed per poll")

	if err := fs.Parse(args); err != nil {
		return nil, fmt.Errorf("parse flags: %w", err)
	}

	var err error

	if cfg.DraftTTL, err = time.ParseDuration(draftTTLStr); err != nil {
		return nil, fmt.Errorf("invalid draft ttl: %w", err)
	}

	if cfg.CouponLockTTL, err = time.ParseDuration(couponLockTTLStr); err != nil {
		return nil, fmt.Errorf("invalid coupon lock ttl: %w", err)
	}

	if cfg.ShutdownTimeout, err = time.ParseDuration(shutdownTimeoutStr); err != nil {
		return nil, fmt.Errorf("invalid shutdown timeout: %w", err)
	}

	if secretFile, ok := lookup("AUTH_SECRET_FILE"); ok && secretFile != "" {
		content, err := os.ReadFile(secretFile)
		if err != nil {
			return nil, fmt.Errorf("read auth secret file: %w", err)
		}
		cfg.AuthSecret = strings.TrimSpace(string(content))
	}

	for _, b := range strings.Split(brokers, ",") {
		if b = strings.TrimSpace(b); b != "" {
			cfg.KafkaBrokers = append(cfg.KafkaBrokers, b)
		}
	}

	if cfg.WorkerPoolSize <= 0 {
		cfg.WorkerPoolSize = defaultWorkerPoolSize
	}

	if cfg.JobBatchSize <= 0 {
		cfg.JobBatchSize = defaultJobBatchSize
	}

	if cfg.DraftTTL <= 0 {
		cfg.DraftTTL = defaultDraftTTL
	}

	if cfg.CouponLockTTL <= 0 {
		cfg.CouponLockTTL = defaultCouponLockTTL
	}

	if cfg.AutoCancelInterval <= 0 {
		cfg.AutoCancelInterval = defaultAutoCancelInterval
	}

	if cfg.SweepInterval <= 0 {
		cfg.SweepInterval = defaultSweepInterval
	}

	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = defaultShutdownTimeout
	}

	if cfg.MongoURI == "" {
		return nil, fmt.Errorf("mongo URI must be provided")
	}

	if len(cfg.KafkaBrokers) == 0 {
		return nil, fmt.Errorf("kafka brokers must be provided")
	}

	if cfg.GatewayAddress == "" {
		return nil, fmt.Errorf("payment gateway address must be provided")
	}

	return cfg, nil
}

// Production reports whether the service runs outside development.
func (c *Config) Production() bool {
	return !strings.EqualFold(c.Environment, "development") && !strings.EqualFold(c.Environment, "dev")
}

func getString(lookup envLookup, key, def string) string {
	if v, ok := lookup(key); ok && v != "" {
		return v
	}
	return def
}

func getInt(lookup envLookup, key string, def int) int {
	if v, ok := lookup(key); ok && v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func getFloat(lookup envLookup, key string, def float64) float64 {
	if v, ok := lookup(key); ok && v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

func getDuration(lookup envLookup, key string, def time.Duration) time.Duration {
	if v, ok := lookup(key); ok && v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}
