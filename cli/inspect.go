package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/digitorus/signpdf"
)

func newInspectCommand(opts *options) *cobra.Command {
	var passphrase string

	cmd := &cobra.Command{
		Use:   "inspect <bundle.p12>",
		Short: "Print the common name of the signer in a PKCS#12 bundle",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("passphrase") {
				passphrase = opts.settings.Passphrase
			}

			p12, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("failed to read bundle: %w", err)
			}

			name, err := signpdf.Inspect(p12, passphrase)
			if err != nil {
				return err
			}

			_, err = fmt.Fprintln(cmd.OutOrStdout(), name)
			return err
		},
	}

	cmd.Flags().StringVar(&passphrase, "passphrase", "", "Passphrase of the PKCS#12 bundle")

	return cmd
}
