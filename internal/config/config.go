// apps/arena-server/internal/config/config.go
//
// Runtime configuration, loaded once in main and passed down.
// Precedence (lowest to highest):
//   1. built-in defaults
//   2. YAML file named by CONFIG_FILE
//   3. environment variables (a .env file is loaded into the environment first)

package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Config describes all runtime settings for the server.
type Config struct {
	Env string `yaml:"env"` // dev|prod

	Log struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"` // json|console
	} `yaml:"log"`

	TCP struct {
		Addr string `yaml:"addr"`
	} `yaml:"tcp"`

	HTTP struct {
		Addr string `yaml:"addr"` // empty disables the ops server
	} `yaml:"http"`

	// WriteTimeout bounds every write to a client connection.
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`

	Game struct {
		MaxRounds  int    `yaml:"max_rounds"`
		WordLength int    `yaml:"word_length"`
		WordsFile  string `yaml:"words_file"` // empty uses the embedded list
		IDDigits   int    `yaml:"id_digits"`
		DailySalt  string `yaml:"daily_salt"`
	} `yaml:"game"`

	Ledger struct {
		Driver string `yaml:"driver"` // sqlite|file|none
		Path   string `yaml:"path"`
	} `yaml:"ledger"`
}

// Default returns the built-in settings.
func Default() Config {
	var c Config
	c.Env = "dev"
	c.Log.Level = "info"
	c.Log.Format = "json"
	c.TCP.Addr = "127.0.0.1:5050"
	c.HTTP.Addr = ":5175"
	c.WriteTimeout = 5 * time.Second
	c.ShutdownTimeout = 10 * time.Second
	c.Game.MaxRounds = 6
	c.Game.WordLength = 5
	c.Game.IDDigits = 4
	c.Game.DailySalt = "local_dev_salt"
	c.Ledger.Driver = "sqlite"
	return c
}

// Load reads .env (if present), the optional YAML file and the environment,
// then validates the result.
func Load() (Config, error) {
	_ = godotenv.Load()

	c := Default()
	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := c.mergeFile(path); err != nil {
			return Config{}, err
		}
	}
	c.applyEnv()
	c.fillDerived()

	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

func (c *Config) mergeFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return errors.Wrapf(err, "open config %s", path)
	}
	defer func() {
		_ = f.Close()
	}()
	if err := yaml.NewDecoder(f).Decode(c); err != nil {
		return errors.Wrapf(err, "decode config %s", path)
	}
	return nil
}

func (c *Config) applyEnv() {
	c.Env = envString("APP_ENV", c.Env)
	c.Log.Level = envString("LOG_LEVEL", c.Log.Level)
	c.Log.Format = envString("LOG_FORMAT", c.Log.Format)
	c.TCP.Addr = envString("TCP_ADDR", c.TCP.Addr)
	if v, ok := os.LookupEnv("HTTP_ADDR"); ok {
		c.HTTP.Addr = v
	}
	c.WriteTimeout = envDuration("WRITE_TIMEOUT", c.WriteTimeout)
	c.ShutdownTimeout = envDuration("SHUTDOWN_TIMEOUT", c.ShutdownTimeout)
	c.Game.MaxRounds = envInt("MAX_ROUNDS", c.Game.MaxRounds)
	c.Game.WordLength = envInt("WORD_LENGTH", c.Game.WordLength)
	c.Game.WordsFile = envString("WORDS_FILE", c.Game.WordsFile)
	c.Game.IDDigits = envInt("ID_DIGITS", c.Game.IDDigits)
	c.Game.DailySalt = envString("DAILY_SALT", c.Game.DailySalt)
	c.Ledger.Driver = strings.ToLower(envString("LEDGER_DRIVER", c.Ledger.Driver))
	c.Ledger.Path = envString("LEDGER_PATH", c.Ledger.Path)
}

func (c *Config) fillDerived() {
	if c.Ledger.Path != "" {
		return
	}
	switch c.Ledger.Driver {
	case "sqlite":
		c.Ledger.Path = "./data/arena.db"
	case "file":
		c.Ledger.Path = "./data/scores.json"
	}
}

func (c Config) Validate() error {
	if c.TCP.Addr == "" {
		return errors.New("TCP_ADDR is empty")
	}
	if c.Game.MaxRounds <= 0 {
		return errors.Errorf("MAX_ROUNDS must be positive, got %d", c.Game.MaxRounds)
	}
	if c.Game.WordLength <= 0 {
		return errors.Errorf("WORD_LENGTH must be positive, got %d", c.Game.WordLength)
	}
	if c.Game.IDDigits < 1 || c.Game.IDDigits > 9 {
		return errors.Errorf("ID_DIGITS must be within 1..9, got %d", c.Game.IDDigits)
	}
	if c.WriteTimeout < 0 || c.ShutdownTimeout < 0 {
		return errors.New("timeouts must not be negative")
	}
	switch c.Ledger.Driver {
	case "sqlite", "file", "none":
	default:
		return errors.Errorf("unsupported LEDGER_DRIVER=%q (want sqlite|file|none)", c.Ledger.Driver)
	}
	if c.Log.Format != "json" && c.Log.Format != "console" {
		return errors.Errorf("unsupported LOG_FORMAT=%q (want json|console)", c.Log.Format)
	}
	if c.Env == "prod" && c.Game.DailySalt == "local_dev_salt" {
		return errors.Errorf("refuse to run with default DAILY_SALT in %s", c.Env)
	}
	return nil
}

func envString(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		d, err := time.ParseDuration(v)
		if err == nil {
			return d
		}
	}
	return def
}

func envInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		n, err := strconv.Atoi(v)
		if err == nil {
			return n
		}
	}
	return def
}
