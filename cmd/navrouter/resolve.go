package main

import (
	"context"

	"github.com/spf13/cobra"
)

func resolveCmd(flags *globalFlags) *cobra.Command {
	var (
		lang    string
		session string
	)

	cmd := &cobra.Command{
		Use:   "resolve <url>",
		Short: "Resolve a URL with the persisted history",
		Long: `Resolve a URL the way a browser session landing on it would.

The history stack is read from and repaired in the configured storage
backend, so repeated runs against a file, redis, sql or s3 backend see
the state a previous run left.

Examples:
  navrouter resolve /items/42
  navrouter resolve "https://app.example.com/docs/intro#x1y2"
  navrouter resolve /items/42 --session 3f1c...`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
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

			r, _, err := openRouter(ctx, cfg, args[0], lang, kv)
			if err != nil {
				return err
			}
			defer r.Close()

			value, err := r.RouteAndState(ctx)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), value)
		},
	}

	cmd.Flags().StringVarP(&lang, "lang", "l", "", "Language to resolve in (default from config)")
	cmd.Flags().StringVar(&session, "session", "", "Use the history of a dev server session")

	return cmd
}
