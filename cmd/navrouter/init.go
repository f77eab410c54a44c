package main

import (
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/vango-dev/navrouter/internal/config"
	"github.com/vango-dev/navrouter/internal/errors"
	"github.com/vango-dev/navrouter/pkg/router"
)

// starterRoutes seed a new configuration.
var starterRoutes = []router.Route{
	{Label: "home", Path: "/", IsHome: true, Layout: &router.Layout{Component: "HomePage"}},
	{Label: "item", Path: "/items/:id", Layout: &router.Layout{Component: "ItemPage"}},
	{Label: "docs", Path: "/docs/**", Layout: &router.Layout{Component: "DocsPage"}},
	{Label: "legacy-item", Path: "/products/:id", RedirectToRoute: "item"},
	{Label: "not-found", Path: "/404", IsNotFound: true, Layout: &router.Layout{Component: "NotFoundPage"}},
}

func initCmd() *cobra.Command {
	var (
		useJSON bool
		force   bool
		name    string
	)

	cmd := &cobra.Command{
		Use:   "init [directory]",
		Short: "Create a navrouter configuration",
		Long: `Create a navrouter.yaml with a starter route table.

Examples:
  navrouter init
  navrouter init ./web --json
  navrouter init --force`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) == 1 {
				dir = args[0]
			}
			return runInit(cmd, dir, name, useJSON, force)
		},
	}

	cmd.Flags().BoolVar(&useJSON, "json", false, "Write navrouter.json instead of navrouter.yaml")
	cmd.Flags().BoolVarP(&force, "force", "f", false, "Overwrite an existing configuration")
	cmd.Flags().StringVarP(&name, "name", "n", "", "Project name (default: directory name)")

	return cmd
}

func runInit(cmd *cobra.Command, dir, name string, useJSON, force bool) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}
	if config.Exists(dir) && !force {
		return errors.New(errors.CodeConfigInvalid).
			WithDetail("A configuration already exists in " + dir).
			WithSuggestion("Use --force to overwrite it")
	}

	if name == "" {
		abs, err := filepath.Abs(dir)
		if err != nil {
			return err
		}
		name = filepath.Base(abs)
	}

	cfg := config.New()
	cfg.Name = name
	cfg.Routes = starterRoutes

	file := config.YAMLFileName
	if useJSON {
		file = config.JSONFileName
	}
	path := filepath.Join(dir, file)
	if err := cfg.SaveTo(path); err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	success(out, "Created %s", path)
	info(out, "%d routes, history in %s storage", len(cfg.Routes), cfg.Storage.Backend)
	return nil
}
