package config

import "time"

type AppConfig struct {
	ListenAddr string        `yaml:"listen_addr" env:"FALCON_LISTEN_ADDR" env-default:"0.0.0.0:8080"`
	AppEnv     string        `yaml:"app_env" env:"FALCON_APP_ENV" env-default:"dev"`
	DBDriver   string        `yaml:"db_driver" env:"FALCON_DB_DRIVER"`
	DBURL      string        `yaml:"db_url" env:"FALCON_DB_URL"`
	DBPath     string        `yaml:"db_path" env:"FALCON_DB_PATH"`
	Pepper     string        `yaml:"pepper" env:"FALCON_PEPPER"`
	JWTSecret  string        `yaml:"jwt_secret" env:"FALCON_JWT_SECRET"`
	SessionTTL time.Duration `yaml:"session_ttl" env:"FALCON_SESSION_TTL" env-default:"24h"`

	Redis         RedisConfig         `yaml:"redis"`
	SMTP          SMTPConfig          `yaml:"smtp"`
	Security      SecurityConfig      `yaml:"security"`
	Observability ObservabilityConfig `yaml:"observability"`
}

func (c *AppConfig) IsProduction() bool {
	if c == nil {
		return false
	}
	return c.AppEnv == "prod" || c.AppEnv == "production"
}

// RedisEnabled reports whether the distributed counter store is configured.
// Absence is not an error: rate limiting degrades to the in-process store.
func (c *AppConfig) RedisEnabled() bool {
	return c != nil && c.Redis.Addr != ""
}

type RedisConfig struct {
	Addr     string        `yaml:"addr" env:"FALCON_REDIS_ADDR"`
	Password string        `yaml:"password" env:"FALCON_REDIS_PASSWORD"`
	DB       int           `yaml:"db" env:"FALCON_REDIS_DB" env-default:"0"`
	Timeout  time.Duration `yaml:"timeout" env:"FALCON_REDIS_TIMEOUT" env-default:"500ms"`
}

type SMTPConfig struct {
	Host     string `yaml:"host" env:"FALCON_SMTP_HOST"`
	Port     int    `yaml:"port" env:"FALCON_SMTP_PORT" env-default:"587"`
	Username string `yaml:"username" env:"FALCON_SMTP_USERNAME"`
	Password string `yaml:"password" env:"FALCON_SMTP_PASSWORD"`
	From     string `yaml:"from" env:"FALCON_SMTP_FROM"`
}

type SecurityConfig struct {
	TrustedProxies       []string `yaml:"trusted_proxies" env:"FALCON_TRUSTED_PROXIES"`
	DefaultAdminEmail    string   `yaml:"default_admin_email" env:"FALCON_DEFAULT_ADMIN_EMAIL" env-default:"overwatch@falcon.hq"`
	DefaultAdminPassword string   `yaml:"default_admin_password" env:"FALCON_DEFAULT_ADMIN_PASSWORD"`
}

type ObservabilityConfig struct {
	MetricsEnabled bool `yaml:"metrics_enabled" env:"FALCON_METRICS_ENABLED" env-default:"true"`
}
