package modinject

import (
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the environment-driven container settings.
type Config struct {
	// Timing is read from MODINJECT_TIMING: off, bootstrap, or constructors.
	Timing TimingMode
	// LogLevel is read from MODINJECT_LOG_LEVEL. Logging stays off when it is unset.
	LogLevel *zapcore.Level
	// Verify is read from MODINJECT_VERIFY.
	Verify bool
}

// LoadConfig reads the given .env files (".env" when none are given; missing files are
// fine) and then the MODINJECT_* environment variables. Unparseable values fall back to
// the defaults.
func LoadConfig(envFiles ...string) Config {
	files := envFiles
	if len(files) == 0 {
		files = []string{".env"}
	}
	_ = godotenv.Load(files...)

	cfg := Config{
		Timing: parseTiming(env("MODINJECT_TIMING", "off")),
		Verify: envBool("MODINJECT_VERIFY", false),
	}
	if raw := env("MODINJECT_LOG_LEVEL", ""); raw != "" {
		if level, err := zapcore.ParseLevel(raw); err == nil {
			cfg.LogLevel = &level
		}
	}
	return cfg
}

// Options converts the configuration into container options.
func (cfg Config) Options() []ContainerOption {
	opts := []ContainerOption{WithTiming(cfg.Timing)}
	if cfg.Verify {
		opts = append(opts, WithVerify())
	}
	if cfg.LogLevel != nil {
		zc := zap.NewProductionConfig()
		zc.Level = zap.NewAtomicLevelAt(*cfg.LogLevel)
		if logger, err := zc.Build(); err == nil {
			opts = append(opts, WithLogger(logger))
		}
	}
	return opts
}

func parseTiming(v string) TimingMode {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "bootstrap", "immediate":
		return TimingImmediate
	case "constructors", "all":
		return TimingConstructors
	default:
		return TimingDisable
	}
}

func env(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}
