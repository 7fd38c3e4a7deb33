package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	defaultAPIURL         = "http://127.0.0.1:3500"
	defaultCacheMaxAge    = 5 * time.Minute
	defaultNotifyChannel  = "cellhub.notifications"
	defaultDevServerPort  = 3500
	defaultArchivePrefix  = "document-bundles/"
	mebibyte              = 1 << 20
	defaultCreateImageMax = 10 * mebibyte
	defaultEditImageMax   = 5 * mebibyte
	defaultCelluleMax     = 5 * mebibyte
)

type Config struct {
	APIURL         string
	SessionFile    string
	RequestTimeout time.Duration
	CacheMaxAge    time.Duration
	LogLevel       string
	RollbarToken   string
	Env            string
	Limits         LimitsConfig
	Notify         NotifyConfig
	Archive        ArchiveConfig
	DevServer      DevServerConfig
}

// LimitsConfig holds upload size caps. The two event modals of the
// dashboard historically disagreed (10 MiB on create, 5 MiB on edit);
// EVENT_IMAGE_MAX unifies them when set.
type LimitsConfig struct {
	CreateImageMax  int64
	EditImageMax    int64
	CelluleImageMax int64
}

type NotifyConfig struct {
	Backend  string
	Channel  string
	RabbitMQ RabbitMQConfig
	PubSub   PubSubConfig
}

type RabbitMQConfig struct {
	URL             string
	QueueDurable    bool
	QueueAutoDelete bool
	PrefetchCount   int
}

type PubSubConfig struct {
	ProjectID          string
	CredentialsFile    string
	SubscriptionSuffix string
}

type ArchiveConfig struct {
	Backend string
	Prefix  string
	Minio   MinioConfig
	GCS     GCSConfig
}

type MinioConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

type GCSConfig struct {
	Bucket          string
	ProjectID       string
	CredentialsFile string
}

type DevServerConfig struct {
	Port           int
	JWTSecret      string
	AllowedOrigins []string
	AdminEmail     string
	AdminPassword  string
}

// LoadConfig reads configuration from the process environment (and a
// .env file in dev) through the global viper instance, so that flags
// bound with viper.BindPFlag take precedence.
func LoadConfig() Config {
	return LoadConfigFrom(viper.GetViper())
}

// LoadConfigFrom reads configuration through the given viper instance.
func LoadConfigFrom(v *viper.Viper) Config {
	if os.Getenv("ENV") == "dev" {
		_ = godotenv.Load()
	}

	setDefaults(v)
	v.AutomaticEnv()

	limits := LimitsConfig{
		CreateImageMax:  v.GetInt64("EVENT_IMAGE_MAX_CREATE"),
		EditImageMax:    v.GetInt64("EVENT_IMAGE_MAX_EDIT"),
		CelluleImageMax: v.GetInt64("CELLULE_IMAGE_MAX"),
	}
	if unified := v.GetInt64("EVENT_IMAGE_MAX"); unified > 0 {
		limits.CreateImageMax = unified
		limits.EditImageMax = unified
	}

	return Config{
		APIURL:         strings.TrimRight(v.GetString("API_URL"), "/"),
		SessionFile:    v.GetString("SESSION_FILE"),
		RequestTimeout: v.GetDuration("REQUEST_TIMEOUT"),
		CacheMaxAge:    v.GetDuration("CACHE_MAX_AGE"),
		LogLevel:       v.GetString("LOG_LEVEL"),
		RollbarToken:   v.GetString("ROLLBAR_TOKEN"),
		Env:            v.GetString("ENV"),
		Limits:         limits,
		Notify: NotifyConfig{
			Backend: v.GetString("NOTIFY_BACKEND"),
			Channel: v.GetString("NOTIFY_CHANNEL"),
			RabbitMQ: RabbitMQConfig{
				URL:             v.GetString("RABBITMQ_URL"),
				QueueDurable:    v.GetBool("RABBITMQ_QUEUE_DURABLE"),
				QueueAutoDelete: v.GetBool("RABBITMQ_QUEUE_AUTO_DELETE"),
				PrefetchCount:   v.GetInt("RABBITMQ_PREFETCH_COUNT"),
			},
			PubSub: PubSubConfig{
				ProjectID:          v.GetString("PUBSUB_PROJECT_ID"),
				CredentialsFile:    v.GetString("PUBSUB_CREDENTIALS_FILE"),
				SubscriptionSuffix: v.GetString("PUBSUB_SUBSCRIPTION_SUFFIX"),
			},
		},
		Archive: ArchiveConfig{
			Backend: v.GetString("ARCHIVE_BACKEND"),
			Prefix:  v.GetString("ARCHIVE_PREFIX"),
			Minio: MinioConfig{
				Endpoint:  v.GetString("MINIO_ENDPOINT"),
				AccessKey: v.GetString("MINIO_ACCESS_KEY"),
				SecretKey: v.GetString("MINIO_SECRET_KEY"),
				Bucket:    v.GetString("MINIO_BUCKET"),
				UseSSL:    v.GetBool("MINIO_USE_SSL"),
			},
			GCS: GCSConfig{
				Bucket:          v.GetString("GCS_BUCKET"),
				ProjectID:       v.GetString("GCS_PROJECT_ID"),
				CredentialsFile: v.GetString("GCS_CREDENTIALS_FILE"),
			},
		},
		DevServer: DevServerConfig{
			Port:           v.GetInt("DEVSERVER_PORT"),
			JWTSecret:      v.GetString("DEVSERVER_JWT_SECRET"),
			AllowedOrigins: splitList(v.GetString("DEVSERVER_ALLOWED_ORIGINS")),
			AdminEmail:     v.GetString("DEVSERVER_ADMIN_EMAIL"),
			AdminPassword:  v.GetString("DEVSERVER_ADMIN_PASSWORD"),
		},
	}
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("API_URL", defaultAPIURL)
	v.SetDefault("SESSION_FILE", defaultSessionFile())
	v.SetDefault("REQUEST_TIMEOUT", time.Duration(0))
	v.SetDefault("CACHE_MAX_AGE", defaultCacheMaxAge)
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("ENV", "")
	v.SetDefault("ROLLBAR_TOKEN", "")
	v.SetDefault("EVENT_IMAGE_MAX_CREATE", defaultCreateImageMax)
	v.SetDefault("EVENT_IMAGE_MAX_EDIT", defaultEditImageMax)
	v.SetDefault("EVENT_IMAGE_MAX", 0)
	v.SetDefault("CELLULE_IMAGE_MAX", defaultCelluleMax)
	v.SetDefault("NOTIFY_BACKEND", "log")
	v.SetDefault("NOTIFY_CHANNEL", defaultNotifyChannel)
	v.SetDefault("RABBITMQ_URL", "")
	v.SetDefault("RABBITMQ_QUEUE_DURABLE", true)
	v.SetDefault("RABBITMQ_QUEUE_AUTO_DELETE", false)
	v.SetDefault("RABBITMQ_PREFETCH_COUNT", 0)
	v.SetDefault("PUBSUB_PROJECT_ID", "")
	v.SetDefault("PUBSUB_CREDENTIALS_FILE", "")
	v.SetDefault("PUBSUB_SUBSCRIPTION_SUFFIX", "-sub")
	v.SetDefault("ARCHIVE_BACKEND", "minio")
	v.SetDefault("ARCHIVE_PREFIX", defaultArchivePrefix)
	v.SetDefault("MINIO_ENDPOINT", "localhost:9000")
	v.SetDefault("MINIO_ACCESS_KEY", "")
	v.SetDefault("MINIO_SECRET_KEY", "")
	v.SetDefault("MINIO_BUCKET", "cellhub")
	v.SetDefault("MINIO_USE_SSL", false)
	v.SetDefault("GCS_BUCKET", "")
	v.SetDefault("GCS_PROJECT_ID", "")
	v.SetDefault("GCS_CREDENTIALS_FILE", "")
	v.SetDefault("DEVSERVER_PORT", defaultDevServerPort)
	v.SetDefault("DEVSERVER_JWT_SECRET", "")
	v.SetDefault("DEVSERVER_ALLOWED_ORIGINS", "http://localhost:5173")
	v.SetDefault("DEVSERVER_ADMIN_EMAIL", "admin@cellhub.local")
	v.SetDefault("DEVSERVER_ADMIN_PASSWORD", "admin1234")
}

func defaultSessionFile() string {
	dir, err := os.UserConfigDir()
	if err != nil || dir == "" {
		dir = "."
	}
	return filepath.Join(dir, "cellhub", "session.json")
}

func splitList(raw string) []string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if item := strings.TrimSpace(part); item != "" {
			out = append(out, item)
		}
	}
	return out
}
