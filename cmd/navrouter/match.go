package main

import (
	"context"
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/vango-dev/navrouter/pkg/storage"
)

func matchCmd(flags *globalFlags) *cobra.Command {
	var (
		lang   string
		asJSON bool
	)

	cmd := &cobra.Command{
		Use:   "match <path>",
		Short: "Match a path against the route table",
		Long: `Match a path against the route table without touching any history.

Examples:
  navrouter match /items/42
  navrouter match "/docs/guide/intro?tab=api" --json
  navrouter match /artikel/7 --lang de`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(flags)
			if err != nil {
				return err
			}
			ctx := context.Background()
			r, _, err := openRouter(ctx, cfg, "/", lang, storage.NewMemoryStore())
			if err != nil {
				return err
			}
			defer r.Close()

			m, err := r.MatchPath(args[0])
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if asJSON {
				return writeJSON(out, m)
			}
			fmt.Fprintf(out, "route:    %s\n", m.Label)
			fmt.Fprintf(out, "pattern:  %s\n", m.Path)
			fmt.Fprintf(out, "selector: %s\n", m.Selector)
			printMap(cmd, "var", m.Vars)
			printMap(cmd, "search", m.Search)
			return nil
		},
	}

	cmd.Flags().StringVarP(&lang, "lang", "l", "", "Language to match in (default from config)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the match as JSON")

	return cmd
}

func printMap(cmd *cobra.Command, kind string, m map[string]string) {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(cmd.OutOrStdout(), "%-9s %s=%s\n", kind+":", k, m[k])
	}
}
