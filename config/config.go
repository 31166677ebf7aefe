// Package config handles client and dev node configuration.
//
// Settings are layered: built-in defaults for the network, then the
// kaschess.conf file in the data directory, then KASCHESS_* environment
// variables, then command-line flags.
package config

import (
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/Klingon-tech/kaschess/pkg/types"
)

// NetworkType names a network. It selects the address prefix.
type NetworkType string

const (
	Mainnet NetworkType = "mainnet"
	Testnet NetworkType = "testnet"
	Simnet  NetworkType = "simnet"
	Devnet  NetworkType = "devnet"
)

// Transport selects how the client talks to a node.
type Transport string

const (
	TransportREST Transport = "rest"
	TransportRPC  Transport = "rpc"
)

// Config holds runtime configuration.
type Config struct {
	// Core
	Network NetworkType `conf:"network" envconfig:"network"`
	DataDir string      `conf:"datadir" envconfig:"datadir"`

	// Node endpoints
	API APIConfig `envconfig:"api"`

	// Transaction construction
	Publish PublishConfig `envconfig:"publish"`

	// Local record of publish attempts
	History HistoryConfig `envconfig:"history"`

	// Logging
	Log LogConfig `envconfig:"log"`

	// Prometheus endpoint (dev node only)
	Metrics MetricsConfig `envconfig:"metrics"`

	// Mock node served by kaschess-devnode
	DevNode DevNodeConfig `envconfig:"devnode"`
}

// APIConfig points the client at a node.
type APIConfig struct {
	REST      string        `conf:"api.rest" envconfig:"rest"`
	RPC       string        `conf:"api.rpc" envconfig:"rpc"` // websocket URL
	Transport Transport     `conf:"api.transport" envconfig:"transport"`
	Timeout   time.Duration `conf:"api.timeout" envconfig:"timeout"`
}

// PublishConfig holds fee and output settings.
type PublishConfig struct {
	Fee         uint64        `conf:"publish.fee" envconfig:"fee"` // 0 estimates from FeeRate
	FeeRate     uint64        `conf:"publish.feerate" envconfig:"feerate"`
	MinFee      uint64        `conf:"publish.minfee" envconfig:"minfee"`
	Dust        uint64        `conf:"publish.dust" envconfig:"dust"`
	Amount      uint64        `conf:"publish.amount" envconfig:"amount"`
	Destination string        `conf:"publish.destination" envconfig:"destination"` // empty pays self
	MaxAttempts int           `conf:"publish.maxattempts" envconfig:"maxattempts"`
	RetryDelay  time.Duration `conf:"publish.retrydelay" envconfig:"retrydelay"`

	CoinbaseMaturity uint64 `conf:"publish.coinbasematurity" envconfig:"coinbasematurity"` // 0 disables
}

// HistoryConfig controls the publish history store.
type HistoryConfig struct {
	Enabled bool `conf:"history.enabled,history" envconfig:"enabled"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level string `conf:"log.level" envconfig:"level"`
	File  string `conf:"log.file" envconfig:"file"`
	JSON  bool   `conf:"log.json" envconfig:"json"`
}

// MetricsConfig holds the Prometheus listener. With Addr empty the dev node
// serves /metrics on its API listener.
type MetricsConfig struct {
	Addr string `conf:"metrics.addr" envconfig:"addr"`
}

// DevNodeConfig configures the mock node.
type DevNodeConfig struct {
	Addr            string        `conf:"devnode.addr" envconfig:"addr"`
	Fund            []string      `conf:"devnode.fund" envconfig:"fund"` // address=amount pairs
	MinFee          uint64        `conf:"devnode.minfee" envconfig:"minfee"`
	ConfirmInterval time.Duration `conf:"devnode.confirm" envconfig:"confirm"` // 0 confirms on accept
}

// Prefix returns the address prefix of the configured network.
func (c *Config) Prefix() (types.Prefix, error) {
	return types.PrefixForNetwork(string(c.Network))
}

// =============================================================================
// Directory helpers
// =============================================================================

// DefaultDataDir returns the platform-specific default data directory.
//
//	Linux:   ~/.kaschess
//	macOS:   ~/Library/Application Support/Kaschess
//	Windows: %APPDATA%\Kaschess
func DefaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".kaschess"
	}
	switch runtime.GOOS {
	case "darwin":
		return filepath.Join(home, "Library", "Application Support", "Kaschess")
	case "windows":
		appData := os.Getenv("APPDATA")
		if appData != "" {
			return filepath.Join(appData, "Kaschess")
		}
		return filepath.Join(home, "AppData", "Roaming", "Kaschess")
	default:
		return filepath.Join(home, ".kaschess")
	}
}

// NetworkDataDir returns the network-specific data directory.
func (c *Config) NetworkDataDir() string {
	return filepath.Join(c.DataDir, string(c.Network))
}

// KeystoreDir returns the keystore directory.
func (c *Config) KeystoreDir() string {
	return filepath.Join(c.NetworkDataDir(), "keystore")
}

// HistoryDir returns the publish history database directory.
func (c *Config) HistoryDir() string {
	return filepath.Join(c.NetworkDataDir(), "history")
}

// LogsDir returns the logs directory.
func (c *Config) LogsDir() string {
	return filepath.Join(c.DataDir, "logs")
}

// ConfigFile returns the config file path.
func (c *Config) ConfigFile() string {
	return filepath.Join(c.DataDir, "kaschess.conf")
}
