package config

import (
	"bufio"
	"fmt"
	"os"
	"reflect"
	"strconv"
	"strings"
	"time"
)

// LoadFile loads configuration from a .conf file.
// Format: key = value (one per line, # for comments). A missing file is
// not an error.
func LoadFile(path string) (map[string]string, error) {
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return make(map[string]string), nil
		}
		return nil, err
	}
	defer file.Close()

	values := make(map[string]string)
	scanner := bufio.NewScanner(file)
	lineNum := 0

	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())

		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		key, value, ok := strings.Cut(line, "=")
		if !ok {
			return nil, fmt.Errorf("line %d: invalid format (expected key = value)", lineNum)
		}
		key = strings.TrimSpace(key)
		value = strings.TrimSpace(value)

		// Remove quotes if present
		if len(value) >= 2 {
			if (value[0] == '"' && value[len(value)-1] == '"') ||
				(value[0] == '\'' && value[len(value)-1] == '\'') {
				value = value[1 : len(value)-1]
			}
		}

		values[key] = value
	}

	return values, scanner.Err()
}

// ApplyFileConfig applies file values to cfg. Keys are the conf tags of
// the Config fields; a comma in a tag lists aliases. Unknown keys are
// ignored.
func ApplyFileConfig(cfg *Config, values map[string]string) error {
	fields := make(map[string]reflect.Value)
	confFields(reflect.ValueOf(cfg).Elem(), fields)
	for key, value := range values {
		f, ok := fields[key]
		if !ok {
			continue
		}
		if err := setField(f, value); err != nil {
			return fmt.Errorf("config key %q: %w", key, err)
		}
	}
	return nil
}

func confFields(v reflect.Value, out map[string]reflect.Value) {
	t := v.Type()
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		tag := field.Tag.Get("conf")
		if tag == "" {
			if field.Type.Kind() == reflect.Struct {
				confFields(v.Field(i), out)
			}
			continue
		}
		for _, key := range strings.Split(tag, ",") {
			out[key] = v.Field(i)
		}
	}
}

func setField(f reflect.Value, value string) error {
	switch p := f.Addr().Interface().(type) {
	case *time.Duration:
		d, err := time.ParseDuration(value)
		if err != nil {
			return err
		}
		*p = d
		return nil
	case *Transport:
		*p = Transport(strings.ToLower(value))
		return nil
	case *NetworkType:
		*p = NetworkType(strings.ToLower(value))
		return nil
	case *[]string:
		*p = parseStringList(value)
		return nil
	case *bool:
		*p = parseBool(value)
		return nil
	}
	switch f.Kind() {
	case reflect.String:
		f.SetString(value)
	case reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		n, err := strconv.ParseUint(value, 10, f.Type().Bits())
		if err != nil {
			return err
		}
		f.SetUint(n)
	case reflect.Int, reflect.Int32, reflect.Int64:
		n, err := strconv.ParseInt(value, 10, f.Type().Bits())
		if err != nil {
			return err
		}
		f.SetInt(n)
	default:
		return fmt.Errorf("unsupported field type %s", f.Type())
	}
	return nil
}

func parseBool(s string) bool {
	s = strings.ToLower(s)
	return s == "true" || s == "1" || s == "yes" || s == "on"
}

// parseStringList splits a comma-separated list.
func parseStringList(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	result := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			result = append(result, p)
		}
	}
	return result
}

// WriteDefaultConfig writes a default configuration file.
func WriteDefaultConfig(path string, network NetworkType) error {
	cfg := Default(network)
	content := `# kaschess configuration
#
# Precedence: this file, then KASCHESS_* environment variables, then flags.
# Environment names follow the keys below, e.g. api.rest -> KASCHESS_API_REST.

# Network: mainnet, testnet, simnet or devnet
network = ` + string(network) + `

# Data directory (default: ~/.kaschess)
# datadir = ~/.kaschess

# ============================================================================
# Node API
# ============================================================================

# api.rest = ` + cfg.API.REST + `
# api.rpc = ` + cfg.API.RPC + `
# rest or rpc (persistent websocket)
api.transport = rest
api.timeout = 10s

# ============================================================================
# Publishing
# ============================================================================

# Fixed fee in sompi; 0 estimates from mass * feerate
publish.fee = 0
publish.feerate = 1
publish.minfee = ` + strconv.FormatUint(cfg.Publish.MinFee, 10) + `
# Change below this is added to the fee
publish.dust = 1000
# Amount of the event output
publish.amount = 1000
# Event output destination; empty pays back to the wallet
# publish.destination =
publish.maxattempts = 3
publish.retrydelay = 500ms
# Skip coinbase outputs younger than this many DAA scores; 0 disables
publish.coinbasematurity = 0

# ============================================================================
# History
# ============================================================================

history.enabled = true

# ============================================================================
# Logging
# ============================================================================

log.level = info
# log.file =
log.json = false

# ============================================================================
# Dev node (kaschess-devnode)
# ============================================================================

# devnode.addr = ` + cfg.DevNode.Addr + `
# devnode.fund = kaspatest:q...=100000000
# devnode.confirm = 0s
# metrics.addr = 127.0.0.1:9090
`
	return os.WriteFile(path, []byte(content), 0644)
}
