package cmd

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/csheth/candyrag/internal/i18n"
	"github.com/csheth/candyrag/internal/tui"
)

func newAskCmd(o *options) *cobra.Command {
	var lang string
	cmd := &cobra.Command{
		Use:   "ask <query>",
		Short: "Ask one question and print the pipeline transcript",
		Long: `Submits a single query to the backend and prints every pipeline step
followed by the final answer.

Examples:
  candyrag ask "What's the sweetest candy?"
  candyrag ask --lang fi "Mikä on makein karkki?"`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			query := strings.TrimSpace(strings.Join(args, " "))
			if query == "" {
				return errors.New("query is empty")
			}
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

			resp, err := o.client(logger).Query(ctx, query, language)
			if err != nil {
				logger.Warn("query failed", zap.String("query", query), zap.Error(err))
				return fmt.Errorf("query failed: %w", err)
			}
			_, err = fmt.Fprint(cmd.OutOrStdout(), tui.RenderTranscript(resp, i18n.MustLoad().For(language), language))
			return err
		},
	}
	cmd.Flags().StringVar(&lang, "lang", "", "answer language: en or fi (default: saved preference)")
	return cmd
}
