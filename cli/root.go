// Package cli implements the signpdf command line.
package cli

import (
	"context"
	"errors"
	"io/fs"
	"os"

	"github.com/containerd/log"
	"github.com/spf13/cobra"

	"github.com/digitorus/signpdf/config"
)

// options are shared by all commands and filled by the persistent flags.
type options struct {
	configFile string
	logLevel   string
	settings   config.Config
}

// NewRootCommand returns the signpdf command with its sign, inspect and
// verify subcommands.
func NewRootCommand() *cobra.Command {
	opts := &options{}

	cmd := &cobra.Command{
		Use:   "signpdf",
		Short: "Embed detached signatures in prepared PDF documents",
		Long: `signpdf fills the signature placeholder of a PDF with a detached PKCS#7
signature created from a PKCS#12 bundle.

The document must already contain a ByteRange placeholder and a zero filled
/Contents slot.

Examples:
  # Sign a prepared document
  signpdf sign --passphrase secret input.pdf output.pdf signer.p12

  # Show the signer of a bundle
  signpdf inspect --passphrase secret signer.p12

  # Verify the signatures of a document
  signpdf verify output.pdf`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return opts.load(cmd)
		},
	}

	cmd.PersistentFlags().StringVar(&opts.configFile, "config", config.DefaultLocation, "Path to the TOML configuration file")
	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "Log level (trace, debug, info, warn, error)")

	cmd.AddCommand(newSignCommand(opts))
	cmd.AddCommand(newInspectCommand(opts))
	cmd.AddCommand(newVerifyCommand(opts))

	return cmd
}

// load reads the configuration file and applies the log level. A missing
// file at the default location is not an error.
func (o *options) load(cmd *cobra.Command) error {
	if _, err := os.Stat(o.configFile); err == nil || cmd.Flags().Changed("config") {
		if err := config.Read(o.configFile); err != nil {
			return err
		}
		o.settings = config.Settings
	} else if !errors.Is(err, fs.ErrNotExist) {
		return err
	}

	level := o.settings.LogLevel
	if cmd.Flags().Changed("log-level") {
		level = o.logLevel
	}
	if level != "" {
		if err := log.SetLevel(level); err != nil {
			return err
		}
	}
	return nil
}

// Execute runs the root command against os.Args.
func Execute(ctx context.Context) error {
	return NewRootCommand().ExecuteContext(ctx)
}
