// Command signer is a demo client for the passkey signing pipeline: it
// provisions a software credential with a passkey server, signs messages and
// prints the ABI-encoded signature the verifier contract consumes.
package main

import (
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/hjornigur/passkey-signer/internal/config"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		log.Error().Err(err).Msg("command failed")
		os.Exit(1)
	}
}

type rootFlags struct {
	serverURL string
	chainID   uint64
	verifier  string
	rpID      string
	origin    string
	softKey   string
	verbose   bool
}

func newRootCmd() *cobra.Command {
	cfg := config.Load()
	flags := &rootFlags{}

	cmd := &cobra.Command{
		Use:           "signer",
		Short:         "Passkey modular signer demo client",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(_ *cobra.Command, _ []string) {
			if flags.verbose {
				zerolog.SetGlobalLevel(zerolog.DebugLevel)
			} else {
				zerolog.SetGlobalLevel(zerolog.InfoLevel)
			}
			log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
		},
	}

	cmd.PersistentFlags().StringVar(&flags.serverURL, "server-url", cfg.ServerURL, "Passkey server base URL")
	cmd.PersistentFlags().Uint64Var(&flags.chainID, "chain-id", cfg.ChainID, "Chain id signatures are encoded for")
	cmd.PersistentFlags().StringVar(&flags.verifier, "verifier", cfg.VerifierAddress, "Verifier contract address")
	cmd.PersistentFlags().StringVar(&flags.rpID, "rp-id", cfg.RPID, "Relying party id")
	cmd.PersistentFlags().StringVar(&flags.origin, "origin", cfg.Origin, "Origin URL")
	cmd.PersistentFlags().StringVar(&flags.softKey, "soft-key", "", "Hex private scalar for the software authenticator (generated when empty)")
	cmd.PersistentFlags().BoolVar(&flags.verbose, "verbose", false, "Enable verbose logging")

	cmd.AddCommand(newRegisterCmd(flags))
	cmd.AddCommand(newSignCmd(flags))
	cmd.AddCommand(newDummyCmd(flags))
	cmd.AddCommand(newSignerDataCmd(flags))

	return cmd
}
