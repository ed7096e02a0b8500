package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App          AppConfig
	DB           DBConfig
	Redis        RedisConfig
	GCP          GCPConfig
	PubSub       PubSubConfig
	Outbox       OutboxConfig
	Eventing     EventingConfig
	SMTP         SMTPConfig
	SMS          SMSConfig
	Geo          GeoConfig
	Payment      PaymentConfig
	Admin        AdminConfig
	RateLimit    RateLimitConfig
	Leads        LeadsConfig
	FeatureFlags FeatureFlagsConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"TREELEAD_APP_ENV" required:"true"`
	Port         string `envconfig:"TREELEAD_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"TREELEAD_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"TREELEAD_LOG_WARN_STACK" default:"false"`

	// MetricsPort enables a /metrics listener in the workers when set.
	MetricsPort string `envconfig:"TREELEAD_METRICS_PORT"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"TREELEAD_DB_DSN"`
	Driver string `envconfig:"TREELEAD_DB_DRIVER" default:"postgres"`

	Host     string `envconfig:"TREELEAD_DB_HOST"`
	Port     int    `envconfig:"TREELEAD_DB_PORT" default:"5432"`
	User     string `envconfig:"TREELEAD_DB_USER"`
	Password string `envconfig:"TREELEAD_DB_PASSWORD"`
	Name     string `envconfig:"TREELEAD_DB_NAME"`
	SSLMode  string `envconfig:"TREELEAD_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"TREELEAD_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"TREELEAD_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"TREELEAD_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"TREELEAD_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"TREELEAD_REDIS_URL" required:"true"`
	Address      string        `envconfig:"TREELEAD_REDIS_ADDR"`
	Password     string        `envconfig:"TREELEAD_REDIS_PASSWORD"`
	DB           int           `envconfig:"TREELEAD_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"TREELEAD_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"TREELEAD_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"TREELEAD_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"TREELEAD_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"TREELEAD_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type GCPConfig struct {
	ProjectID              string `envconfig:"TREELEAD_GCP_PROJECT_ID" required:"true"`
	CredentialsJSON        string `envconfig:"TREELEAD_GCP_CREDENTIALS_JSON"`
	ApplicationCredentials string `envconfig:"TREELEAD_GOOGLE_APPLICATION_CREDENTIALS"`
}

type PubSubConfig struct {
	LeadsTopic        string `envconfig:"TREELEAD_PUBSUB_LEADS_TOPIC" default:"tl-lead-events"`
	LeadsSubscription string `envconfig:"TREELEAD_PUBSUB_LEADS_SUBSCRIPTION" required:"true"`
}

type OutboxConfig struct {
	BatchSize      int `envconfig:"TREELEAD_OUTBOX_PUBLISH_BATCH_SIZE" default:"50"`
	PollIntervalMS int `envconfig:"TREELEAD_OUTBOX_PUBLISH_POLL_MS" default:"500"`
	MaxAttempts    int `envconfig:"TREELEAD_OUTBOX_MAX_ATTEMPTS" default:"10"`
}

type EventingConfig struct {
	IdempotencyTTL time.Duration `envconfig:"TREELEAD_EVENTING_IDEMPOTENCY_TTL" default:"720h"`
}

type SMTPConfig struct {
	Host     string `envconfig:"TREELEAD_SMTP_HOST"`
	Port     int    `envconfig:"TREELEAD_SMTP_PORT" default:"587"`
	User     string `envconfig:"TREELEAD_SMTP_USER"`
	Password string `envconfig:"TREELEAD_SMTP_PASSWORD"`
	From     string `envconfig:"TREELEAD_SMTP_FROM" default:"alerts@treelead.io"`
}

type SMSConfig struct {
	GatewayURL string `envconfig:"TREELEAD_SMS_GATEWAY_URL"`
	APIKey     string `envconfig:"TREELEAD_SMS_API_KEY"`
	FromNumber string `envconfig:"TREELEAD_SMS_FROM_NUMBER"`
}

type GeoConfig struct {
	BaseURL     string `envconfig:"TREELEAD_GEO_BASE_URL"`
	CountryCode string `envconfig:"TREELEAD_GEO_COUNTRY_CODE" default:"us"`
}

// Enabled reports whether radius matching has a configured centroid provider.
func (g GeoConfig) Enabled() bool {
	return strings.TrimSpace(g.BaseURL) != ""
}

type PaymentConfig struct {
	WebhookSecret string `envconfig:"TREELEAD_PAYMENT_WEBHOOK_SECRET" required:"true"`
}

type AdminConfig struct {
	APIKey string `envconfig:"TREELEAD_ADMIN_API_KEY" required:"true"`
}

type RateLimitConfig struct {
	SubmissionWindow     time.Duration `envconfig:"TREELEAD_RATE_LIMIT_SUBMISSION_WINDOW" default:"1m"`
	SubmissionIPLimit    int           `envconfig:"TREELEAD_RATE_LIMIT_SUBMISSION_IP_LIMIT" default:"10"`
	SubmissionEmailLimit int           `envconfig:"TREELEAD_RATE_LIMIT_SUBMISSION_EMAIL_LIMIT" default:"5"`
}

type LeadsConfig struct {
	RetentionDays int `envconfig:"TREELEAD_LEAD_RETENTION_DAYS" default:"30"`
}

// RetentionWindow converts the configured retention days to a duration.
func (l LeadsConfig) RetentionWindow() time.Duration {
	if l.RetentionDays <= 0 {
		return 0
	}
	return time.Duration(l.RetentionDays) * 24 * time.Hour
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"TREELEAD_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"TREELEAD_AUTO_MIGRATE" default:"false"`
	// RequireBuyerVerification holds new buyers out of matching until an
	// operator verifies them.
	RequireBuyerVerification bool `envconfig:"TREELEAD_REQUIRE_BUYER_VERIFICATION" default:"false"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}

	missing := []string{}
	values := map[string]string{
		EnvDBHost: db.Host,
		EnvDBUser: db.User,
		EnvDBName: db.Name,
	}
	for _, env := range requiredDBEnvVars {
		if values[env] == "" {
			missing = append(missing, env)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("either %s or %s are required", EnvDBDSN, strings.Join(missing, ", "))
	}

	userInfo := url.User(db.User)
	if db.Password != "" {
		userInfo = url.UserPassword(db.User, db.Password)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.Host, db.Port),
		Path:   db.Name,
	}

	if db.SSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.SSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}
