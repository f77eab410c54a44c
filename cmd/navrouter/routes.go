package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func routesCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "routes",
		Short: "List the configured routes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(flags)
			if err != nil {
				return err
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "LABEL\tPATH\tLANGUAGE\tTARGET")
			for _, r := range cfg.Routes {
				lang := r.Language
				if lang == "" {
					lang = cfg.Language.Default
				}
				target := "-"
				switch {
				case r.RedirectToRoute != "":
					target = "-> " + r.RedirectToRoute
				case r.Layout != nil:
					target = r.Layout.Component
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", r.Label, r.Path, lang, target)
			}
			return tw.Flush()
		},
	}
}
