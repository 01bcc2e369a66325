package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/digitorus/signpdf/verify"
)

func newVerifyCommand(_ *options) *cobra.Command {
	return &cobra.Command{
		Use:   "verify <signed.pdf>",
		Short: "Verify the signatures of a PDF file",
		Long: `Verify the signatures of a PDF file and print the result as JSON.

The command fails when any signature is invalid or does not cover the
whole document.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, err := verify.File(args[0])
			if err != nil {
				return err
			}

			jsonData, err := json.Marshal(resp)
			if err != nil {
				return err
			}
			if _, err := fmt.Fprintln(cmd.OutOrStdout(), string(jsonData)); err != nil {
				return err
			}

			for _, s := range resp.Signers {
				if !s.ValidSignature || !s.CoversDocument {
					return fmt.Errorf("signature %q is not valid", s.Field)
				}
			}
			return nil
		},
	}
}
