package main

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"expense-backfill/internal/domain"
	"expense-backfill/internal/handler"
)

func newRunCmd(a *app) *cobra.Command {
	var (
		tripID      string
		dryRun      bool
		withResults bool
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Backfill expense categories for one trip and print the result as JSON.",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			s, err := a.openStore(ctx)
			if err != nil {
				return err
			}
			defer s.Close()

			uc, err := a.newUseCase(s)
			if err != nil {
				return err
			}

			run := uc.Backfill
			if dryRun {
				run = uc.Preview
			}
			summary, err := run(ctx, tripID)

			var out interface{}
			switch {
			case errors.Is(err, domain.ErrAllUpdatesFailed):
				out = handler.ErrorResponse{
					Error:   "Failed to backfill expense categories",
					Details: fmt.Sprintf("%v: %d updates failed", err, len(summary.Failures)),
				}
			case err != nil:
				out = handler.ErrorResponse{Error: "Failed to backfill expense categories", Details: err.Error()}
			default:
				resp := handler.NewResponse(summary)
				if withResults {
					resp.Results = summary.Results
				}
				out = resp
			}

			data, mErr := json.MarshalIndent(out, "", "  ")
			if mErr != nil {
				return fmt.Errorf("failed to generate JSON report: %w", mErr)
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(data))
			return err
		},
	}

	cmd.Flags().StringVar(&tripID, "trip", "", "Trip identifier to backfill (required)")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Match and resolve without writing any update")
	cmd.Flags().BoolVar(&withResults, "results", false, "Include per-expense match results in the output")
	_ = cmd.MarkFlagRequired("trip")
	return cmd
}
