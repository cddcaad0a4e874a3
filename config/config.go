package config

import (
	"log"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
)

type Config struct {
	AppName      string `env:"AUTH_APP_NAME" envDefault:"portfolio-auth"`
	AppEnv       string `env:"AUTH_APP_ENV" envDefault:"local"`
	HTTPHost     string `env:"AUTH_HTTP_HOST" envDefault:"0.0.0.0"`
	HTTPPort     string `env:"AUTH_HTTP_PORT" envDefault:"8081"`
	HTTPBasePath string `env:"AUTH_HTTP_BASE_PATH" envDefault:"/api/v1"`

	DBHost     string `env:"AUTH_DB_HOST" envDefault:"localhost"`
	DBPort     string `env:"AUTH_DB_PORT" envDefault:"5432"`
	DBUser     string `env:"AUTH_DB_USER" envDefault:"app"`
	DBPassword string `env:"AUTH_DB_PASSWORD" envDefault:"app_password"`
	DBName     string `env:"AUTH_DB_NAME" envDefault:"portfoliodb"`
	DBSSLMode  string `env:"AUTH_DB_SSLMODE" envDefault:"disable"`

	// Cloud identity provider. Empty URL degrades the adapter to
	// "always unavailable" and the app falls back to local credentials.
	ProviderBaseURL string        `env:"AUTH_PROVIDER_BASE_URL"`
	ProviderAPIKey  string        `env:"AUTH_PROVIDER_API_KEY"`
	ProviderTimeout time.Duration `env:"AUTH_PROVIDER_TIMEOUT" envDefault:"5s"`

	ProfileGetTimeout   time.Duration `env:"AUTH_PROFILE_GET_TIMEOUT" envDefault:"5s"`
	ProfilePutTimeout   time.Duration `env:"AUTH_PROFILE_PUT_TIMEOUT" envDefault:"3s"`
	ProfileProbeTimeout time.Duration `env:"AUTH_PROFILE_PROBE_TIMEOUT" envDefault:"1s"`

	CredentialFile string `env:"AUTH_CREDENTIAL_FILE" envDefault:"credentials.json"`

	JWTSecret     string        `env:"AUTH_JWT_SECRET"`
	JWTPrivateKey string        `env:"AUTH_JWT_PRIVATE_KEY"`
	JWTPublicKey  string        `env:"AUTH_JWT_PUBLIC_KEY"`
	JWTAudience   string        `env:"AUTH_JWT_AUDIENCE" envDefault:"frontend"`
	JWTIssuer     string        `env:"AUTH_JWT_ISSUER" envDefault:"portfolio-auth"`
	AccessTTL     time.Duration `env:"AUTH_JWT_ACCESS_TTL" envDefault:"15m"`
	RefreshTTL    time.Duration `env:"AUTH_JWT_REFRESH_TTL" envDefault:"720h"`

	NATSURL            string `env:"NATS_URL" envDefault:"nats://localhost:4222"`
	NATSVerifySubject  string `env:"NATS_SUBJECT_VERIFY_JWT" envDefault:"auth.verifyJWT"`
	NATSSessionSubject string `env:"NATS_SUBJECT_SESSION_CHANGED" envDefault:"auth.session-changed"`
}

func Load() (*Config, error) {
	_ = godotenv.Load()
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	return cfg
}
