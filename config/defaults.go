package config

import (
	"strconv"
	"time"

	"github.com/Klingon-tech/kaschess/pkg/tx"
)

// Currency units.
const (
	Decimals = 8
	Coin     = 100_000_000 // sompi per KAS
)

// Default node API ports per network.
var defaultPorts = map[NetworkType]int{
	Mainnet: 18110,
	Testnet: 18210,
	Simnet:  18510,
	Devnet:  18610,
}

// DefaultPort returns the API port used for network, falling back to the
// mainnet port.
func DefaultPort(network NetworkType) int {
	if p, ok := defaultPorts[network]; ok {
		return p
	}
	return defaultPorts[Mainnet]
}

// Default returns the default configuration for the given network.
func Default(network NetworkType) *Config {
	hostPort := "127.0.0.1:" + strconv.Itoa(DefaultPort(network))
	return &Config{
		Network: network,
		DataDir: DefaultDataDir(),
		API: APIConfig{
			REST:      "http://" + hostPort,
			RPC:       "ws://" + hostPort + "/ws",
			Transport: TransportREST,
			Timeout:   10 * time.Second,
		},
		Publish: PublishConfig{
			FeeRate:     1,
			MinFee:      tx.DefaultMinFee,
			Dust:        1_000,
			Amount:      1_000,
			MaxAttempts: 3,
			RetryDelay:  500 * time.Millisecond,
		},
		History: HistoryConfig{
			Enabled: true,
		},
		Log: LogConfig{
			Level: "info",
			JSON:  false,
		},
		DevNode: DevNodeConfig{
			Addr:   hostPort,
			MinFee: tx.DefaultMinFee,
		},
	}
}
