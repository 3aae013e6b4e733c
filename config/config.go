package config

import (
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v9"
	"github.com/joho/godotenv"
)

type Config struct {
	Port      string `env:"PORT" envDefault:"8800"`
	NodeEnv   string `env:"NODE_ENV" envDefault:"development"`
	MongoURI  string `env:"MONGO_URI" envDefault:"mongodb://localhost:27017"`
	MongoDB   string `env:"MONGO_DB_NAME" envDefault:"taskhero"`
	JWTSecret string `env:"JWT_SECRET,required"`

	JWTTTL        time.Duration `env:"JWT_TTL" envDefault:"24h"`
	CookieSecure  bool          `env:"COOKIE_SECURE" envDefault:"false"`
	CORSOrigins   []string      `env:"CORS_ORIGINS" envSeparator:"," envDefault:"http://localhost:3000,http://localhost:5173"`
	ResetTokenTTL time.Duration `env:"RESET_TOKEN_TTL" envDefault:"1h"`
	OTPTTL        time.Duration `env:"OTP_TTL" envDefault:"15m"`

	ResendAPIKey  string `env:"RESEND_API"`
	ResendBaseURL string `env:"RESEND_BASE_URL" envDefault:"https://api.resend.com"`
	EmailFrom     string `env:"EMAIL_FROM" envDefault:"TaskHero <onboarding@resend.dev>"`

	CloudinaryBaseURL      string `env:"CLOUDINARY_BASE_URL" envDefault:"https://api.cloudinary.com"`
	CloudinaryCloudName    string `env:"CLOUDINARY_CLOUD_NAME"`
	CloudinaryUploadPreset string `env:"CLOUDINARY_UPLOAD_PRESET" envDefault:"taskhero_uploads"`

	LogFile       string `env:"LOG_FILE" envDefault:"logs/taskhero.log"`
	LogLevel      string `env:"LOG_LEVEL" envDefault:"info"`
	LogStdout     bool   `env:"LOG_STDOUT" envDefault:"true"`
	LogMaxSizeMB  int    `env:"LOG_MAX_SIZE_MB" envDefault:"10"`
	LogMaxBackups int    `env:"LOG_MAX_BACKUPS" envDefault:"3"`
	LogMaxAgeDays int    `env:"LOG_MAX_AGE_DAYS" envDefault:"28"`

	// PasswordBlacklistFile lists rejected passwords, one per line.
	PasswordBlacklistFile string `env:"PASSWORD_BLACKLIST_FILE"`

	AuthRateLimit float64 `env:"AUTH_RATE_LIMIT" envDefault:"5"`
	AuthRateBurst int     `env:"AUTH_RATE_BURST" envDefault:"10"`
}

// Load reads an optional .env file and then the process environment.
func Load(envFiles ...string) (*Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		if _, err := os.Stat(f); err == nil {
			if err := godotenv.Load(f); err != nil {
				return nil, fmt.Errorf("failed to load %s: %w", f, err)
			}
		}
	}
	return parse(env.Options{})
}

// FromMap builds a Config from the given variables only.
func FromMap(vars map[string]string) (*Config, error) {
	return parse(env.Options{Environment: vars})
}

func parse(opts env.Options) (*Config, error) {
	cfg := &Config{}
	if err := env.ParseWithOptions(cfg, opts); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	if cfg.AuthRateBurst < 1 {
		cfg.AuthRateBurst = 1
	}
	return cfg, nil
}

func (c *Config) IsProduction() bool {
	return c.NodeEnv == "production"
}

func (c *Config) Addr() string {
	return ":" + c.Port
}
