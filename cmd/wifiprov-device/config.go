package main

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/wifiprov/wifiprov-go/pkg/association"
	"github.com/wifiprov/wifiprov-go/pkg/provisioning/mdns"
)

// Environment variables read after the config file.
const (
	EnvSSID   = "WIFIPROV_SSID"
	EnvSecret = "WIFIPROV_SECRET"
	EnvPoP    = "WIFIPROV_POP"
)

// Config holds the device configuration.
type Config struct {
	Driver    string `yaml:"driver"`
	Hostname  string `yaml:"hostname"`
	Interface string `yaml:"interface"`

	SSID   string `yaml:"ssid"`
	Secret string `yaml:"secret"`

	RetryBudget  int           `yaml:"retry_budget"`
	StableReset  time.Duration `yaml:"stable_reset"`
	ReadyTimeout time.Duration `yaml:"ready_timeout"`

	// Provisioning is mdns, serial or none.
	Provisioning  string `yaml:"provisioning"`
	Discriminator int    `yaml:"discriminator"`
	PoP           string `yaml:"pop"`

	StateFile string `yaml:"state_file"`
	NTPServer string `yaml:"ntp_server"`
	EventLog  string `yaml:"event_log"`
	LogLevel  string `yaml:"log_level"`

	Interactive bool `yaml:"interactive"`

	Exec ExecConfig `yaml:"exec"`
	Sim  SimConfig  `yaml:"sim"`
}

// ExecConfig holds command templates for the exec driver.
type ExecConfig struct {
	Connect    string `yaml:"connect"`
	Disconnect string `yaml:"disconnect"`
	Provision  string `yaml:"provision"`
}

// SimConfig describes the simulated radio's environment.
type SimConfig struct {
	AccessPoints []AccessPoint `yaml:"access_points"`
	Failures     []string      `yaml:"failures"`
}

// AccessPoint is a simulated network.
type AccessPoint struct {
	SSID   string `yaml:"ssid"`
	Secret string `yaml:"secret"`
}

// defaultConfig returns the built-in defaults.
func defaultConfig() Config {
	return Config{
		Driver:        "sim",
		Hostname:      "wifiprov",
		RetryBudget:   association.DefaultRetryBudget,
		Provisioning:  "mdns",
		Discriminator: -1,
		LogLevel:      "info",
	}
}

// loadFile merges a YAML file into cfg.
func loadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	return nil
}

// loadEnvFile loads variables from a .env file. A missing file is not an
// error; variables already set in the environment win.
func loadEnvFile(path string) error {
	err := godotenv.Load(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}

// applyEnv overrides cfg from the environment.
func applyEnv(cfg *Config, getenv func(string) string) {
	if v := getenv(EnvSSID); v != "" {
		cfg.SSID = v
	}
	if v := getenv(EnvSecret); v != "" {
		cfg.Secret = v
	}
	if v := getenv(EnvPoP); v != "" {
		cfg.PoP = v
	}
}

func (c *Config) validate() error {
	switch c.Driver {
	case "sim":
	case "exec":
		// The link is only ready once the Wi-Fi interface has an address.
		if c.Interface == "" {
			return errors.New("exec driver requires an interface")
		}
	default:
		return fmt.Errorf("unknown driver: %s", c.Driver)
	}
	switch c.Provisioning {
	case "mdns", "serial", "none":
	default:
		return fmt.Errorf("unknown provisioning scheme: %s", c.Provisioning)
	}
	if c.RetryBudget < 0 {
		return fmt.Errorf("retry budget must not be negative, got %d", c.RetryBudget)
	}
	if c.Discriminator > mdns.MaxDiscriminator {
		return fmt.Errorf("discriminator must be 0-%d, got %d", mdns.MaxDiscriminator, c.Discriminator)
	}
	if c.PoP != "" {
		if err := mdns.ValidatePoP(c.PoP); err != nil {
			return err
		}
	}
	if (c.SSID == "") != (c.Secret == "") {
		return errors.New("ssid and secret must be set together")
	}
	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("unknown log level: %s", c.LogLevel)
	}
	return nil
}
