package main

import (
	"fmt"

	"certgen/internal/app"
	. "certgen/internal/models"

	"github.com/spf13/cobra"
)

func generateCommand() *cobra.Command {
	var req GenerateRequest

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate certificates for every valid row of a roster",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := configFromContext(cmd.Context())
			if err != nil {
				return err
			}

			a, err := app.New(cfg)
			if err != nil {
				return err
			}
			defer a.Close()

			result, err := a.CertificateController.Generate(cmd.Context(), req)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Certificates generated successfully for %d entries.\n", result.Processed)
			if result.Skipped > 0 {
				fmt.Fprintf(out, "%d rows were skipped due to formatting issues:\n", result.Skipped)
				for _, w := range result.Warnings {
					fmt.Fprintf(out, "  Row %d: %s\n", w.RowNumber, FormatRawRow(w.Raw))
				}
			}
			fmt.Fprintf(out, "Encoding: %s\nRun: %s\n", result.Encoding, result.RunID)
			return nil
		},
	}

	cmd.Flags().StringVar(&req.TemplatePath, "template", "", "template image path")
	cmd.Flags().StringVar(&req.RosterPath, "roster", "", "roster CSV path (Name, Event, Date)")
	cmd.Flags().StringVar(&req.BaseURL, "base-url", "", "verification base URL when VERIFY_BASE_URL is unset")
	_ = cmd.MarkFlagRequired("template")
	_ = cmd.MarkFlagRequired("roster")

	return cmd
}
