package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	// AppEnvDev marks a local/dev deployment.
	AppEnvDev = "dev"
	// AppEnvProd marks the production deployment.
	AppEnvProd = "prod"

	EnvDBDSN  = "APPRAISAL_DB_DSN"
	EnvDBHost = "APPRAISAL_DB_HOST"
	EnvDBUser = "APPRAISAL_DB_USER"
	EnvDBName = "APPRAISAL_DB_NAME"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}

type Config struct {
	App          AppConfig
	Service      ServiceConfig
	DB           DBConfig
	Redis        RedisConfig
	FeatureFlags FeatureFlagsConfig
	GCP          GCPConfig
	GCS          GCSConfig
	Photos       PhotoConfig
	PubSub       PubSubConfig
	Outbox       OutboxConfig
	Pricing      PricingConfig
	Valuation    ValuationConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"APPRAISAL_APP_ENV" required:"true"`
	Port         string `envconfig:"APPRAISAL_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"APPRAISAL_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"APPRAISAL_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type ServiceConfig struct {
	Kind string `envconfig:"APPRAISAL_SERVICE_KIND" default:"api"`
}

type DBConfig struct {
	DSN    string `envconfig:"APPRAISAL_DB_DSN"`
	Driver string `envconfig:"APPRAISAL_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"APPRAISAL_DB_HOST"`
	LegacyPort     int    `envconfig:"APPRAISAL_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"APPRAISAL_DB_USER"`
	LegacyPassword string `envconfig:"APPRAISAL_DB_PASSWORD"`
	LegacyName     string `envconfig:"APPRAISAL_DB_NAME"`
	LegacySSLMode  string `envconfig:"APPRAISAL_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"APPRAISAL_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"APPRAISAL_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"APPRAISAL_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"APPRAISAL_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"APPRAISAL_REDIS_URL" required:"true"`
	Address      string        `envconfig:"APPRAISAL_REDIS_ADDR"`
	Password     string        `envconfig:"APPRAISAL_REDIS_PASSWORD"`
	DB           int           `envconfig:"APPRAISAL_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"APPRAISAL_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"APPRAISAL_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"APPRAISAL_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"APPRAISAL_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"APPRAISAL_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"APPRAISAL_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"APPRAISAL_AUTO_MIGRATE" default:"false"`
}

type GCPConfig struct {
	ProjectID              string `envconfig:"APPRAISAL_GCP_PROJECT_ID" required:"true"`
	CredentialsJSON        string `envconfig:"APPRAISAL_GCP_CREDENTIALS_JSON"`
	ApplicationCredentials string `envconfig:"APPRAISAL_GOOGLE_APPLICATION_CREDENTIALS"`
}

type GCSConfig struct {
	BucketName        string        `envconfig:"APPRAISAL_GCS_BUCKET_NAME" required:"true"`
	UploadURLExpiry   time.Duration `envconfig:"APPRAISAL_GCS_UPLOAD_URL_EXPIRY" required:"true"`
	DownloadURLExpiry time.Duration `envconfig:"APPRAISAL_GCS_DOWNLOAD_URL_EXPIRY" required:"true"`
}

type PhotoConfig struct {
	MaxUploadMB      int `envconfig:"APPRAISAL_PHOTO_MAX_UPLOAD_MB" default:"25"`
	MaxPerEvaluation int `envconfig:"APPRAISAL_PHOTO_MAX_PER_EVALUATION" default:"30"`
}

type PubSubConfig struct {
	EvaluationsTopic        string `envconfig:"APPRAISAL_PUBSUB_EVALUATIONS_TOPIC" required:"true"`
	EvaluationsSubscription string `envconfig:"APPRAISAL_PUBSUB_EVALUATIONS_SUBSCRIPTION" required:"true"`
	NotificationTopic       string `envconfig:"APPRAISAL_PUBSUB_NOTIFICATION_TOPIC" default:"appraisal-notification-events"`
}

type OutboxConfig struct {
	BatchSize      int `envconfig:"APPRAISAL_OUTBOX_PUBLISH_BATCH_SIZE" default:"50"`
	PollIntervalMS int `envconfig:"APPRAISAL_OUTBOX_PUBLISH_POLL_MS" default:"500"`
	MaxAttempts    int `envconfig:"APPRAISAL_OUTBOX_MAX_ATTEMPTS" default:"10"`
	RetentionDays  int `envconfig:"APPRAISAL_OUTBOX_RETENTION_DAYS" default:"30"`
}

type PricingConfig struct {
	FipeBaseURL    string        `envconfig:"APPRAISAL_FIPE_BASE_URL" default:"https://parallelum.com.br/fipe/api/v1"`
	RequestTimeout time.Duration `envconfig:"APPRAISAL_FIPE_REQUEST_TIMEOUT" default:"10s"`
	CacheTTL       time.Duration `envconfig:"APPRAISAL_FIPE_CACHE_TTL" default:"24h"`
}

// ValuationConfig carries the tenant-wide defaults for the valuation engine.
// Percentages are strings parsed into decimals at service construction so the
// engine never touches binary floats.
type ValuationConfig struct {
	SafetyMarginPercent    string `envconfig:"APPRAISAL_VALUATION_SAFETY_MARGIN_PCT" default:"10"`
	ProfitMarginPercent    string `envconfig:"APPRAISAL_VALUATION_PROFIT_MARGIN_PCT" default:"15"`
	MaxManualAdjustmentPct string `envconfig:"APPRAISAL_VALUATION_MAX_MANUAL_ADJUSTMENT_PCT" default:"10"`
	RequireManagerApproval bool   `envconfig:"APPRAISAL_VALUATION_REQUIRE_MANAGER_APPROVAL" default:"true"`
	ApprovalValidityHours  int    `envconfig:"APPRAISAL_VALUATION_APPROVAL_VALIDITY_HOURS" default:"72"`
}

// ApprovalValidity returns the approval validity window as a duration.
func (v ValuationConfig) ApprovalValidity() time.Duration {
	if v.ApprovalValidityHours <= 0 {
		return 72 * time.Hour
	}
	return time.Duration(v.ApprovalValidityHours) * time.Hour
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}

	missing := []string{}
	legacyValues := map[string]string{
		EnvDBHost: db.LegacyHost,
		EnvDBUser: db.LegacyUser,
		EnvDBName: db.LegacyName,
	}
	for _, env := range legacyDBEnvVars {
		if legacyValues[env] == "" {
			missing = append(missing, env)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("either %s or %s are required", EnvDBDSN, strings.Join(missing, ", "))
	}

	userInfo := url.User(db.LegacyUser)
	if db.LegacyPassword != "" {
		userInfo = url.UserPassword(db.LegacyUser, db.LegacyPassword)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.LegacyHost, db.LegacyPort),
		Path:   db.LegacyName,
	}

	if db.LegacySSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.LegacySSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}
