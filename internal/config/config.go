package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"family-care/internal/calendar"
	"family-care/internal/platform/timeutil"
)

type AuthMode string

const (
	AuthModeDev    AuthMode = "dev"    // X-Debug-User-ID, sin verifier
	AuthModeJWT    AuthMode = "jwt"    // valida access tokens HS256 localmente
	AuthModeRemote AuthMode = "remote" // pregunta al auth del servicio hosted
)

type Config struct {
	Port  string
	DBDSN string
	// DBAutoMigrate aplica el schema embebido al arrancar (CREATE ... IF NOT EXISTS).
	DBAutoMigrate bool

	Log struct {
		Level  string
		Format string
		App    string
	}

	// Zona en la que se interpretan timestamps naive, "hoy" del calendario y horarios de dosis.
	Location  *time.Location
	WeekStart time.Weekday

	Auth struct {
		Mode      AuthMode
		JWTSecret string
	}

	Hosted struct {
		URL     string
		APIKey  string
		Bucket  string
		Timeout time.Duration
	}

	Redis struct {
		Addr     string
		Password string
		DB       int
	}

	MQTT struct {
		Broker      string
		ClientID    string
		Username    string
		Password    string
		TopicPrefix string
	}

	Webhook struct {
		URL    string
		APIKey string
	}
}

// Load lee la configuración desde variables de entorno.
// El .env (si existe) se carga antes en main con godotenv.
func Load() (*Config, error) {
	cfg := &Config{}

	cfg.Port = getEnv("PORT", "8080")
	cfg.DBDSN = getEnv("DB_DSN", "")
	cfg.DBAutoMigrate = strings.EqualFold(getEnv("DB_AUTO_MIGRATE", "false"), "true")

	cfg.Log.Level = getEnv("LOG_LEVEL", "info")
	cfg.Log.Format = getEnv("LOG_FORMAT", "text")
	cfg.Log.App = getEnv("APP_NAME", "family-care")

	cfg.Location = timeutil.LoadLocation(getEnv("APP_TIMEZONE", ""), time.Local)
	cfg.WeekStart = ParseWeekStart(getEnv("CALENDAR_WEEK_START", "sunday"))

	cfg.Auth.Mode = parseAuthMode(getEnv("AUTH_MODE", string(AuthModeDev)))
	cfg.Auth.JWTSecret = getEnv("AUTH_JWT_SECRET", "")

	cfg.Hosted.URL = getEnv("HOSTED_URL", "")
	cfg.Hosted.APIKey = getEnv("HOSTED_API_KEY", "")
	cfg.Hosted.Bucket = getEnv("STORAGE_BUCKET", "medical-documents")
	cfg.Hosted.Timeout = time.Duration(getEnvInt("HOSTED_TIMEOUT_SECONDS", 10)) * time.Second

	cfg.Redis.Addr = getEnv("REDIS_ADDR", "")
	cfg.Redis.Password = getEnv("REDIS_PASSWORD", "")
	cfg.Redis.DB = getEnvInt("REDIS_DB", 0)

	cfg.MQTT.Broker = getEnv("MQTT_BROKER", "")
	cfg.MQTT.ClientID = getEnv("MQTT_CLIENT_ID", "family-care-api")
	cfg.MQTT.Username = getEnv("MQTT_USERNAME", "")
	cfg.MQTT.Password = getEnv("MQTT_PASSWORD", "")
	cfg.MQTT.TopicPrefix = getEnv("MQTT_TOPIC_PREFIX", "family-care")

	cfg.Webhook.URL = getEnv("NOTIFY_WEBHOOK_URL", "")
	cfg.Webhook.APIKey = getEnv("NOTIFY_WEBHOOK_API_KEY", "")

	return cfg, nil
}

// ParseWeekStart acepta "sunday"/"monday" (o "dom"/"seg"); cualquier otra cosa => domingo.
func ParseWeekStart(s string) time.Weekday {
	return calendar.ParseWeekStart(s, time.Sunday)
}

func parseAuthMode(s string) AuthMode {
	switch AuthMode(strings.ToLower(strings.TrimSpace(s))) {
	case AuthModeJWT:
		return AuthModeJWT
	case AuthModeRemote:
		return AuthModeRemote
	default:
		return AuthModeDev
	}
}

func getEnv(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return defaultValue
	}
	return n
}
