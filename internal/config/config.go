// Package config resolves signer configuration from the environment.
package config

import (
	"github.com/spf13/viper"
)

// Config is the static configuration shared by the CLI and the dev server.
// Everything here is deployment configuration, not protocol.
type Config struct {
	ServerURL       string
	ChainID         uint64
	VerifierAddress string
	RPID            string
	Origin          string
	ListenAddr      string
	LogLevel        string
	PrettyLogs      bool
}

// DefaultConfig returns the local-development defaults.
func DefaultConfig() Config {
	return Config{
		ServerURL:       "http://localhost:8080",
		ChainID:         11155111, // sepolia
		VerifierAddress: "0x0000000000000000000000000000000000000000",
		RPID:            "localhost",
		Origin:          "http://localhost:8080",
		ListenAddr:      ":8080",
		LogLevel:        "info",
		PrettyLogs:      true,
	}
}

// Load reads configuration from PASSKEY_* environment variables on top of the
// defaults.
func Load() Config {
	def := DefaultConfig()

	v := viper.New()
	v.SetEnvPrefix("PASSKEY")
	v.AutomaticEnv()

	v.SetDefault("server_url", def.ServerURL)
	v.SetDefault("chain_id", def.ChainID)
	v.SetDefault("verifier_address", def.VerifierAddress)
	v.SetDefault("rp_id", def.RPID)
	v.SetDefault("origin", def.Origin)
	v.SetDefault("listen_addr", def.ListenAddr)
	v.SetDefault("log_level", def.LogLevel)
	v.SetDefault("pretty_logs", def.PrettyLogs)

	return Config{
		ServerURL:       v.GetString("server_url"),
		ChainID:         v.GetUint64("chain_id"),
		VerifierAddress: v.GetString("verifier_address"),
		RPID:            v.GetString("rp_id"),
		Origin:          v.GetString("origin"),
		ListenAddr:      v.GetString("listen_addr"),
		LogLevel:        v.GetString("log_level"),
		PrettyLogs:      v.GetBool("pretty_logs"),
	}
}
