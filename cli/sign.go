package cli

import (
	"fmt"
	"os"

	"github.com/containerd/log"
	"github.com/spf13/cobra"

	"github.com/digitorus/signpdf"
	"github.com/digitorus/signpdf/cms"
	"github.com/digitorus/signpdf/revocation"
)

type signOptions struct {
	passphrase  string
	strict      bool
	placeholder string
	tsa         string
	revocation  bool
}

func newSignCommand(opts *options) *cobra.Command {
	so := &signOptions{}

	cmd := &cobra.Command{
		Use:   "sign <input.pdf> <output.pdf> [bundle.p12]",
		Short: "Sign a prepared PDF file",
		Long: `Sign a PDF that carries a signature placeholder.

The bundle argument may be omitted when the configuration file names one.
Flags take precedence over the configuration file.`,
		Args: cobra.RangeArgs(2, 3),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSign(cmd, opts, so, args)
		},
	}

	cmd.Flags().StringVar(&so.passphrase, "passphrase", "", "Passphrase of the PKCS#12 bundle")
	cmd.Flags().BoolVar(&so.strict, "strict", false, "Reject bundles that are not well formed DER")
	cmd.Flags().StringVar(&so.placeholder, "placeholder", "", "Token used in the ByteRange placeholder")
	cmd.Flags().StringVar(&so.tsa, "tsa", "", "URL of an RFC 3161 timestamp authority")
	cmd.Flags().BoolVar(&so.revocation, "embed-revocation", false, "Embed CRL and OCSP data for the signing chain")

	return cmd
}

func runSign(cmd *cobra.Command, opts *options, so *signOptions, args []string) error {
	ctx := cmd.Context()
	input, output := args[0], args[1]

	settings := opts.settings
	bundlePath := settings.Bundle
	if len(args) > 2 {
		bundlePath = args[2]
	}
	if bundlePath == "" {
		return fmt.Errorf("no bundle given and none configured")
	}

	if cmd.Flags().Changed("passphrase") {
		settings.Passphrase = so.passphrase
	}
	if cmd.Flags().Changed("strict") {
		settings.StrictDecoding = so.strict
	}
	if cmd.Flags().Changed("placeholder") {
		settings.Placeholder = so.placeholder
	}
	if cmd.Flags().Changed("tsa") {
		settings.TSA.URL = so.tsa
	}
	if cmd.Flags().Changed("embed-revocation") {
		settings.EmbedRevocation = so.revocation
	}

	p12, err := os.ReadFile(bundlePath)
	if err != nil {
		return fmt.Errorf("failed to read bundle: %w", err)
	}

	var fetch revocation.Func
	if settings.EmbedRevocation {
		fetch = revocation.Default
	}

	signer := &signpdf.SignPdf{ByteRangePlaceholder: settings.Placeholder}
	err = signer.SignFile(ctx, input, output, p12, signpdf.Options{
		Passphrase:     settings.Passphrase,
		StrictDecoding: settings.StrictDecoding,
		TSA: cms.TSA{
			URL:      settings.TSA.URL,
			Username: settings.TSA.Username,
			Password: settings.TSA.Password,
		},
		Revocation: fetch,
	})
	if err != nil {
		return err
	}

	log.G(ctx).WithField("output", output).Info("signed PDF written")
	return nil
}
