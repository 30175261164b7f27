package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds the server's tunable settings, loaded from an optional yaml
// file over built-in defaults.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	WebSocket WebSocketConfig `yaml:"websocket"`
	Rooms     RoomsConfig     `yaml:"rooms"`
}

type ServerConfig struct {
	Port string `yaml:"port"`
}

type WebSocketConfig struct {
	PingIntervalSec int   `yaml:"ping_interval_sec"`
	ReadTimeoutSec  int   `yaml:"read_timeout_sec"`
	WriteTimeoutSec int   `yaml:"write_timeout_sec"`
	MaxMessageBytes int64 `yaml:"max_message_bytes"`
	ReadBufferSize  int   `yaml:"read_buffer_size"`
	WriteBufferSize int   `yaml:"write_buffer_size"`
}

type RoomsConfig struct {
	DefaultText string `yaml:"default_text"`

	// RetentionMin keeps a room alive this many minutes after its last
	// player leaves; 0 disables cleanup so rooms live forever.
	RetentionMin     int `yaml:"retention_min"`
	SweepIntervalMin int `yaml:"sweep_interval_min"`
}

// Default returns the configuration used when no file overrides it.
func Default() Config {
	return Config{
		Server: ServerConfig{Port: "3000"},
		WebSocket: WebSocketConfig{
			PingIntervalSec: 30,
			ReadTimeoutSec:  60,
			WriteTimeoutSec: 10,
			MaxMessageBytes: 4096,
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
		Rooms: RoomsConfig{
			RetentionMin:     0,
			SweepIntervalMin: 5,
		},
	}
}

// Load reads the yaml file at path and merges it over the defaults. A
// missing file is reported via the returned error; callers typically fall
// back to Default in that case.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}

// PingInterval converts the configured seconds to a duration.
func (c WebSocketConfig) PingInterval() time.Duration {
	return time.Duration(c.PingIntervalSec) * time.Second
}

func (c WebSocketConfig) ReadTimeout() time.Duration {
	return time.Duration(c.ReadTimeoutSec) * time.Second
}

func (c WebSocketConfig) WriteTimeout() time.Duration {
	return time.Duration(c.WriteTimeoutSec) * time.Second
}

// Retention converts the configured minutes to a duration; zero means keep
// rooms forever.
func (c RoomsConfig) Retention() time.Duration {
	return time.Duration(c.RetentionMin) * time.Minute
}

func (c RoomsConfig) SweepInterval() time.Duration {
	return time.Duration(c.SweepIntervalMin) * time.Minute
}
