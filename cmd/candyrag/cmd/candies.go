package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/csheth/candyrag/internal/i18n"
	"github.com/csheth/candyrag/internal/tui"
)

func newCandiesCmd(o *options) *cobra.Command {
	var lang string
	cmd := &cobra.Command{
		Use:   "candies",
		Short: "Print the candy catalog",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			logger, closeLog, err := o.fileLogger()
			if err != nil {
				return err
			}
			defer func() { _ = closeLog() }()

			language, err := o.resolveLanguage(lang, logger)
			if err != nil {
				return err
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), o.cfg.RequestTimeout.Duration)
			defer cancel()

			candies, err := o.client(logger).Candies(ctx)
			if err != nil {
				return fmt.Errorf("fetch candies: %w", err)
			}
			_, err = fmt.Fprint(cmd.OutOrStdout(), tui.RenderCatalog(candies, i18n.MustLoad().For(language), language))
			return err
		},
	}
	cmd.Flags().StringVar(&lang, "lang", "", "catalog language: en or fi (default: saved preference)")
	return cmd
}
