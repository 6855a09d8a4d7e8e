package config

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

type Config struct {
	LogLevel   string   `yaml:"log-level" env:"LOG_LEVEL" env-default:"info"`
	SocketPort string   `yaml:"socket-port" env:"SOCKET_PORT" env-default:"8080"`
	Redis      Redis    `yaml:"redis"`
	Postgres   Postgres `yaml:"postgres"`
	Nats       Nats     `yaml:"nats"`
	Storage    Storage  `yaml:"storage"`
	Game       Game     `yaml:"game"`
	Arena      Arena    `yaml:"arena"`
}

type Redis struct {
	Host string `yaml:"host" env:"REDIS_HOST" env-default:"localhost"`
	Port string `yaml:"port" env:"REDIS_PORT" env-default:"6379"`
}

// Postgres holds the result log connection. An empty DSN disables result logging.
type Postgres struct {
	DSN string `yaml:"dsn" env:"POSTGRES_DSN" env-default:""`
}

// Nats holds the event bus connection. An empty URL disables event publishing.
type Nats struct {
	URL string `yaml:"url" env:"NATS_URL" env-default:""`
}

type Storage struct {
	ConnectAttempts uint `yaml:"connect-attempts" env:"STORAGE_CONNECT_ATTEMPTS" env-default:"5"`
}

type Game struct {
	TimeLimit          time.Duration `yaml:"time-limit" env:"GAME_TIME_LIMIT" env-default:"600s"`
	ClockCheckInterval time.Duration `yaml:"clock-check-interval" env:"GAME_CLOCK_CHECK_INTERVAL" env-default:"1s"`
	WhitePolicy        string        `yaml:"white-policy" env:"GAME_WHITE_POLICY" env-default:"human"`
	RedPolicy          string        `yaml:"red-policy" env:"GAME_RED_POLICY" env-default:"greedy"`
	Seed               uint64        `yaml:"seed" env:"GAME_SEED" env-default:"0"`
}

type Arena struct {
	Games       int    `yaml:"games" env:"ARENA_GAMES" env-default:"100"`
	Concurrency int    `yaml:"concurrency" env:"ARENA_CONCURRENCY" env-default:"4"`
	WhitePolicy string `yaml:"white-policy" env:"ARENA_WHITE_POLICY" env-default:"greedy"`
	RedPolicy   string `yaml:"red-policy" env:"ARENA_RED_POLICY" env-default:"random"`
	Seed        uint64 `yaml:"seed" env:"ARENA_SEED" env-default:"1"`
	MaxTurns    int    `yaml:"max-turns" env:"ARENA_MAX_TURNS" env-default:"2000"`
}

// MustLoad - load all configurations in config.yml file.
func MustLoad(path string) *Config {
	config, err := Load(path)
	if err != nil {
		panic(err)
	}

	return config
}

func Load(path string) (*Config, error) {
	config := &Config{}

	if err := cleanenv.ReadConfig(path, config); err != nil {
		return nil, fmt.Errorf("unable to load config file: %w", err)
	}

	return config, nil
}

func (that *Redis) GetRedisAddr() string {
	return fmt.Sprintf("%s:%s", that.Host, that.Port)
}

// ParseLevel maps log-level to a slog level. Unknown values mean info.
func ParseLevel(value string) slog.Level {
	switch value {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
