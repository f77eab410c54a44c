package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/vango-dev/navrouter/internal/config"
	"github.com/vango-dev/navrouter/pkg/history"
	"github.com/vango-dev/navrouter/pkg/storage"
)

func historyCmd(flags *globalFlags) *cobra.Command {
	var session string

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Inspect the persisted history stack",
		Long: `Inspect the history stack kept in the configured storage backend.

Examples:
  navrouter history dump
  navrouter history clear --session 3f1c...`,
	}
	cmd.PersistentFlags().StringVar(&session, "session", "", "Use the history of a dev server session")

	withStack := func(fn func(ctx context.Context, cmd *cobra.Command, s *history.Storage) error) func(*cobra.Command, []string) error {
		return func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(flags)
			if err != nil {
				return err
			}
			ctx := context.Background()
			kv, err := openStore(ctx, cfg, session)
			if err != nil {
				return err
			}
			defer kv.Close()
			return fn(ctx, cmd, historyStack(cfg, kv))
		}
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "dump",
			Short: "Print the stack as JSON, oldest first",
			Args:  cobra.NoArgs,
			RunE: withStack(func(ctx context.Context, cmd *cobra.Command, s *history.Storage) error {
				items, err := s.Items(ctx)
				if err != nil {
					return err
				}
				return writeJSON(cmd.OutOrStdout(), items)
			}),
		},
		&cobra.Command{
			Use:   "clear",
			Short: "Empty the stack",
			Args:  cobra.NoArgs,
			RunE: withStack(func(ctx context.Context, cmd *cobra.Command, s *history.Storage) error {
				if err := s.Clear(ctx); err != nil {
					return err
				}
				success(cmd.OutOrStdout(), "Cleared history %q", s.Key())
				return nil
			}),
		},
	)
	return cmd
}

func historyStack(cfg *config.Config, kv storage.KV) *history.Storage {
	return history.NewStorage(kv,
		history.WithKey(cfg.History.Key),
		history.WithMaxLength(cfg.History.MaxLength))
}
