package app

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"

	"github.com/klabast/wb-services/meal-roster/internal/calendar"
	"github.com/klabast/wb-services/meal-roster/internal/roster"
	"github.com/klabast/wb-services/meal-roster/internal/store"
)

// Constants
const (
	// Error messages
	ErrInvalidDateFormat = "Invalid date format"
	ErrInvalidWeek       = "Invalid week"
	ErrInvalidMonth      = "Invalid month"
	ErrInvalidFormat     = "Invalid format"
	ErrInvalidRequest    = "Invalid request"
	ErrUnauthorized      = "Unauthorized"
	ErrInternalServer    = "Internal server error"
	ErrFailedToSave      = "Failed to save selection"

	// Store backends
	BackendMemory = "memory"
	BackendFile   = "file"
	BackendRedis  = "redis"
	BackendMinio  = "minio"

	// Default week shown to residents
	DefaultWeekCurrent = "current"
	DefaultWeekNext    = "next"

	// ICS constants
	ICSProductID = "-//Residencia//Comedor//ES"
	ICSDomain    = "meal-roster.local"
)

// Config is the service configuration, read from the environment.
type Config struct {
	Env          string `validate:"oneof=development production test"`
	Port         int    `validate:"min=1,max=65535"`
	Timezone     string `validate:"required"`
	LogLevel     string `validate:"oneof=debug info warn error"`
	LogFile      string
	ErrorLogFile string

	StoreBackend string `validate:"oneof=memory file redis minio"`
	DataFile     string `validate:"required_if=StoreBackend file"`
	BackupKeep   int    `validate:"min=0"`
	Redis        RedisConfig
	Minio        MinioConfig

	AuthFile    string
	JWTSecret   string `validate:"required,min=16"`
	TokenTTL    time.Duration
	PINRequired bool
	MaxRequests int `validate:"min=1"`

	MonthBuckets string `validate:"oneof=iso chunk"`
	DefaultWeek  string `validate:"oneof=current next"`
	WeekMode     string `validate:"oneof=iso sunday"`

	ReminderRule string
	AMQP         AMQPConfig

	Location *time.Location `validate:"-"`
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int `validate:"min=0"`
	Key      string
}

type MinioConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	Object    string
	UseSSL    bool
}

type AMQPConfig struct {
	URL   string
	Queue string
}

var validate = validator.New()

// LoadConfig reads the configuration from the environment, after loading a
// .env file from the working directory if there is one.
func LoadConfig() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Env:          GetEnvString("APP_ENV", "development"),
		Port:         GetEnvInt("APP_PORT", 8080),
		Timezone:     GetEnvString("APP_TIMEZONE", "Europe/Madrid"),
		LogLevel:     GetEnvString("LOGGER_LEVEL", "info"),
		LogFile:      GetEnvString("LOGGER_OUTPUT_FILENAME", "meal-roster.log"),
		ErrorLogFile: GetEnvString("LOGGER_OUTPUT_ERROR_FILENAME", "meal-roster_error.log"),

		StoreBackend: GetEnvString("STORE_BACKEND", BackendFile),
		DataFile:     GetEnvString("DATA_FILE", store.DefaultDataFile),
		BackupKeep:   GetEnvInt("BACKUP_KEEP", 10),
		Redis: RedisConfig{
			Addr:     GetEnvString("REDIS_ADDR", "localhost:6379"),
			Password: GetEnvString("REDIS_PASSWORD", ""),
			DB:       GetEnvInt("REDIS_DB", 0),
			Key:      GetEnvString("REDIS_KEY", store.DefaultRedisKey),
		},
		Minio: MinioConfig{
			Endpoint:  GetEnvString("MINIO_ENDPOINT", ""),
			AccessKey: GetEnvString("MINIO_ACCESS_KEY", ""),
			SecretKey: GetEnvString("MINIO_SECRET_KEY", ""),
			Bucket:    GetEnvString("MINIO_BUCKET", "meal-roster"),
			Object:    GetEnvString("MINIO_OBJECT", store.DefaultObjectName),
			UseSSL:    GetEnvBool("MINIO_USE_SSL", false),
		},

		AuthFile:    GetEnvString("AUTH_FILE", ""),
		JWTSecret:   GetEnvString("JWT_SECRET", ""),
		TokenTTL:    time.Duration(GetEnvInt("JWT_EXP_TIME_IN_HOUR", 12)) * time.Hour,
		PINRequired: GetEnvBool("RESIDENT_PIN_REQUIRED", false),
		MaxRequests: GetEnvInt("APP_MAX_REQUESTS", 20),

		MonthBuckets: GetEnvString("MONTH_BUCKETS", string(roster.ISOWeekBuckets)),
		DefaultWeek:  GetEnvString("DEFAULT_WEEK", DefaultWeekCurrent),
		WeekMode:     GetEnvString("WEEK_MODE", string(calendar.ModeISO)),

		ReminderRule: GetEnvString("REMINDER_RRULE", "FREQ=HOURLY;INTERVAL=6"),
		AMQP: AMQPConfig{
			URL:   GetEnvString("AMQP_URL", ""),
			Queue: GetEnvString("AMQP_QUEUE", "meal-reminders"),
		},
	}

	if cfg.JWTSecret == "" {
		// sessions do not survive a restart without a configured secret
		secret, err := randomSecret()
		if err != nil {
			return nil, err
		}
		cfg.JWTSecret = secret
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks cfg and resolves its time zone.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if c.StoreBackend == BackendMinio && (c.Minio.Endpoint == "" || c.Minio.Bucket == "") {
		return fmt.Errorf("invalid configuration: MINIO_ENDPOINT and MINIO_BUCKET are required for the minio backend")
	}

	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return fmt.Errorf("invalid configuration: time zone %q: %w", c.Timezone, err)
	}
	c.Location = loc
	return nil
}

// Mode returns the configured calendar mode.
func (c *Config) Mode() calendar.Mode {
	return calendar.Mode(c.WeekMode)
}

// Buckets returns the configured month bucket policy.
func (c *Config) Buckets() roster.BucketPolicy {
	return roster.BucketPolicy(c.MonthBuckets)
}

func randomSecret() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate session secret: %w", err)
	}
	return hex.EncodeToString(b), nil
}
