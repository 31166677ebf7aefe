package config

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"reflect"
	"strconv"
	"strings"
)

// Flags holds parsed command-line flags.
type Flags struct {
	Help    bool
	Version bool
	Config  string

	// Values are the config keys given on the command line, in file
	// syntax. Only flags that were passed appear.
	Values map[string]string

	// Remaining args (subcommand and its flags)
	Args []string

	names map[string]string // key -> flag, for errors
}

// flagSpec binds a global flag to a config key.
type flagSpec struct {
	name, key, usage string
	boolean          bool
	fixed            string // value a boolean shorthand sets
	invert           bool
}

var globalFlags = []flagSpec{
	// Core
	{name: "network", key: "network", usage: "Network: mainnet, testnet, simnet or devnet"},
	{name: "testnet", key: "network", usage: "Shorthand for --network=testnet", boolean: true, fixed: string(Testnet)},
	{name: "datadir", key: "datadir", usage: "Data directory path"},

	// API
	{name: "rest", key: "api.rest", usage: "Node REST base URL"},
	{name: "rpc", key: "api.rpc", usage: "Node JSON-RPC websocket URL"},
	{name: "transport", key: "api.transport", usage: "Node transport: rest or rpc"},
	{name: "timeout", key: "api.timeout", usage: "Per-request timeout"},

	// Publish
	{name: "fee", key: "publish.fee", usage: "Fixed fee in sompi (0 estimates from fee rate)"},
	{name: "fee-rate", key: "publish.feerate", usage: "Fee rate in sompi per mass unit"},
	{name: "dust", key: "publish.dust", usage: "Dust threshold in sompi"},
	{name: "event-amount", key: "publish.amount", usage: "Amount of the event output in sompi"},
	{name: "destination", key: "publish.destination", usage: "Event output address (default: own address)"},
	{name: "max-attempts", key: "publish.maxattempts", usage: "Attempts for retried publishes"},
	{name: "coinbase-maturity", key: "publish.coinbasematurity", usage: "DAA score distance before coinbase outputs are spent (0 disables)"},
	{name: "no-history", key: "history.enabled", usage: "Do not record publish attempts", boolean: true, invert: true},

	// Logging
	{name: "log-level", key: "log.level", usage: "Log level (debug, info, warn, error)"},
	{name: "log-file", key: "log.file", usage: "Log file path"},
	{name: "log-json", key: "log.json", usage: "Output logs as JSON", boolean: true},

	// Metrics and dev node
	{name: "metrics", key: "metrics.addr", usage: "Prometheus listen address"},
	{name: "listen", key: "devnode.addr", usage: "Dev node listen address"},
	{name: "fund", key: "devnode.fund", usage: "Dev node funding, comma-separated address=amount"},
	{name: "confirm-interval", key: "devnode.confirm", usage: "Dev node confirmation interval (0 confirms on accept)"},
}

// keyValue is the flag.Value behind a flagSpec.
type keyValue struct {
	spec flagSpec
	f    *Flags
}

func (v *keyValue) String() string   { return "" }
func (v *keyValue) IsBoolFlag() bool { return v.spec.boolean }

func (v *keyValue) Set(s string) error {
	if v.spec.boolean {
		b, err := strconv.ParseBool(s)
		if err != nil {
			return err
		}
		switch {
		case v.spec.fixed != "":
			if !b {
				return nil
			}
			s = v.spec.fixed
		case v.spec.invert:
			s = strconv.FormatBool(!b)
		default:
			s = strconv.FormatBool(b)
		}
	}
	v.f.Values[v.spec.key] = s
	v.f.names[v.spec.key] = v.spec.name
	return nil
}

// ParseFlags parses the global flags of the named program. Parsing stops
// at the first non-flag argument; the rest is left in Flags.Args.
func ParseFlags(name string, args []string, output io.Writer) (*Flags, error) {
	f := &Flags{Values: make(map[string]string), names: make(map[string]string)}
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(output)

	fs.BoolVar(&f.Help, "help", false, "Show help message")
	fs.BoolVar(&f.Help, "h", false, "Show help message (shorthand)")
	fs.BoolVar(&f.Version, "version", false, "Show version information")
	fs.StringVar(&f.Config, "config", "", "Config file path")
	fs.StringVar(&f.Config, "c", "", "Config file path (shorthand)")
	for _, spec := range globalFlags {
		fs.Var(&keyValue{spec: spec, f: f}, spec.name, spec.usage)
	}

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	f.Args = fs.Args()
	return f, nil
}

// ApplyFlags overlays the flags that were passed on cfg.
func ApplyFlags(cfg *Config, f *Flags) error {
	fields := make(map[string]reflect.Value)
	confFields(reflect.ValueOf(cfg).Elem(), fields)
	for key, value := range f.Values {
		if err := setField(fields[key], value); err != nil {
			return fmt.Errorf("flag --%s: %w", f.names[key], err)
		}
	}
	return nil
}

// Load builds the configuration for a program from these sources
// (later wins):
// 1. Defaults for the network
// 2. Auto-create data dirs + default config (idempotent)
// 3. Config file
// 4. KASCHESS_* environment variables
// 5. Command-line flags
//
// flag.ErrHelp is returned unchanged when --help is given.
func Load(name string, args []string) (*Config, *Flags, error) {
	flags, err := ParseFlags(name, args, os.Stderr)
	if err != nil {
		return nil, nil, err
	}
	if flags.Help {
		return nil, flags, flag.ErrHelp
	}

	// Network and data dir are needed before the file can be found.
	network := NetworkType(strings.ToLower(flags.Values["network"]))
	if network == "" {
		network = NetworkType(strings.ToLower(os.Getenv("KASCHESS_NETWORK")))
	}
	if network == "" {
		network = Mainnet
	}
	cfg := Default(network)
	if dir := os.Getenv("KASCHESS_DATADIR"); dir != "" {
		cfg.DataDir = dir
	}
	if dir := flags.Values["datadir"]; dir != "" {
		cfg.DataDir = dir
	}

	if err := EnsureDataDirs(cfg); err != nil {
		return nil, nil, fmt.Errorf("ensuring data dirs: %w", err)
	}

	configPath := flags.Config
	if configPath == "" {
		configPath = cfg.ConfigFile()
	}
	fileValues, err := LoadFile(configPath)
	if err != nil {
		return nil, nil, fmt.Errorf("loading config file: %w", err)
	}
	if err := ApplyFileConfig(cfg, fileValues); err != nil {
		return nil, nil, fmt.Errorf("applying config file: %w", err)
	}

	if err := ApplyEnv(cfg); err != nil {
		return nil, nil, err
	}

	// Flags have the highest precedence.
	if err := ApplyFlags(cfg, flags); err != nil {
		return nil, nil, err
	}
	if err := Validate(cfg); err != nil {
		return nil, nil, err
	}
	return cfg, flags, nil
}

// IsHelp reports whether err is the --help signal from Load.
func IsHelp(err error) bool {
	return errors.Is(err, flag.ErrHelp)
}

// EnsureDataDirs creates the data directory structure and a default config
// file if they don't already exist. It is safe to call on every startup.
func EnsureDataDirs(cfg *Config) error {
	dirs := []string{
		cfg.DataDir,
		cfg.NetworkDataDir(),
		cfg.KeystoreDir(),
		cfg.LogsDir(),
	}
	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0700); err != nil {
			return fmt.Errorf("creating directory %s: %w", dir, err)
		}
	}

	configPath := cfg.ConfigFile()
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		if err := WriteDefaultConfig(configPath, cfg.Network); err != nil {
			return fmt.Errorf("writing config file: %w", err)
		}
	}
	return nil
}
