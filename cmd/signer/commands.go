package main

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/hjornigur/passkey-signer/internal/signer"
	"github.com/hjornigur/passkey-signer/internal/webauthn"
	"github.com/hjornigur/passkey-signer/internal/webauthn/softauthn"
)

func newAuthenticator(flags *rootFlags) (*softauthn.Authenticator, error) {
	if flags.softKey != "" {
		return softauthn.FromKeyHex(flags.softKey)
	}
	return softauthn.New()
}

// buildSigner provisions the software credential with the server and returns
// a signer holding the resulting public key. Registration and signing share
// one client so the session cookie carries across.
func buildSigner(cmd *cobra.Command, flags *rootFlags) (*signer.ModularSigner, error) {
	authn, err := newAuthenticator(flags)
	if err != nil {
		return nil, err
	}

	client, err := webauthn.NewClient(flags.serverURL)
	if err != nil {
		return nil, err
	}

	x, y, err := client.Register(cmd.Context(), authn, "signer-cli", flags.rpID, flags.origin)
	if err != nil {
		return nil, errors.Wrap(err, "failed to provision credential")
	}

	return signer.New(signer.Config{
		ChainID:       flags.chainID,
		Verifier:      common.HexToAddress(flags.verifier),
		PublicKey:     &signer.PublicKey{X: x, Y: y},
		Authenticator: authn,
		RPID:          flags.rpID,
		Origin:        flags.origin,
		Client:        client,
	})
}

func newRegisterCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "register",
		Short: "Provision a software credential with the passkey server",
		RunE: func(cmd *cobra.Command, _ []string) error {
			authn, err := newAuthenticator(flags)
			if err != nil {
				return err
			}

			client, err := webauthn.NewClient(flags.serverURL)
			if err != nil {
				return err
			}

			x, y, err := client.Register(cmd.Context(), authn, "signer-cli", flags.rpID, flags.origin)
			if err != nil {
				return err
			}

			log.Info().
				Str("credential_id", authn.CredentialID()).
				Msg("credential registered")

			fmt.Printf("credentialId: %s\n", authn.CredentialID())
			fmt.Printf("privateKey:   %s\n", authn.PrivateKeyHex())
			fmt.Printf("pubX:         %#x\n", x)
			fmt.Printf("pubY:         %#x\n", y)
			return nil
		},
	}
}

func newSignCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "sign <message>",
		Short: "Sign a message (hex or plain text) through the passkey pipeline",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := buildSigner(cmd, flags)
			if err != nil {
				return err
			}

			encoded, err := s.SignMessage(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			fmt.Println(hexutil.Encode(encoded))
			return nil
		},
	}
}

func newDummyCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "dummy",
		Short: "Print the dummy signature used for gas estimation",
		RunE: func(_ *cobra.Command, _ []string) error {
			authn, err := newAuthenticator(flags)
			if err != nil {
				return err
			}

			s, err := signer.New(signer.Config{
				ServerURL:     flags.serverURL,
				ChainID:       flags.chainID,
				Verifier:      common.HexToAddress(flags.verifier),
				Authenticator: authn,
				RPID:          flags.rpID,
				Origin:        flags.origin,
			})
			if err != nil {
				return err
			}

			encoded, err := s.DummySignature()
			if err != nil {
				return err
			}

			fmt.Println(hexutil.Encode(encoded))
			return nil
		},
	}
}

func newSignerDataCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "signer-data",
		Short: "Print the ABI-encoded (pubX, pubY) tuple for the soft key",
		RunE: func(_ *cobra.Command, _ []string) error {
			if flags.softKey == "" {
				return errors.New("--soft-key is required for signer-data")
			}

			authn, err := softauthn.FromKeyHex(flags.softKey)
			if err != nil {
				return err
			}
			x, y := authn.PublicKey()

			s, err := signer.New(signer.Config{
				ServerURL:     flags.serverURL,
				ChainID:       flags.chainID,
				Verifier:      common.HexToAddress(flags.verifier),
				PublicKey:     &signer.PublicKey{X: x, Y: y},
				Authenticator: authn,
				RPID:          flags.rpID,
				Origin:        flags.origin,
			})
			if err != nil {
				return err
			}

			data, err := s.SignerData()
			if err != nil {
				return err
			}

			fmt.Println(hexutil.Encode(data))
			return nil
		},
	}
}
