package main

import (
	"errors"
	"fmt"

	"certgen/internal/app"
	"certgen/internal/repositories"

	"github.com/spf13/cobra"
)

func verifyCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "verify <certificate-id>",
		Short: "Check whether a certificate id was issued",
		Args:  cobra.ExactArgs(1),
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

			id := args[0]
			verification, err := a.CertificateController.CheckVerification(cmd.Context(), id)
			if errors.Is(err, repositories.ErrNotFound) {
				return fmt.Errorf("certificate %q not found or invalid", id)
			}
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Certificate %s is verified and valid.\n", id)
			if record := verification.Record; record != nil {
				fmt.Fprintf(out, "Name: %s\nEvent: %s\nDate: %s\n", record.Name, record.Event, record.Date)
			}
			if verification.IntegrityChecked {
				fmt.Fprintf(out, "Intact: %t\n", verification.Intact)
			}
			return nil
		},
	}
}
