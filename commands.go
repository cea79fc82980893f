package main

import (
	"fmt"
	"os"
	"path/filepath"
	"text/tabwriter"

	"github.com/billie-coop/switchboard/internal/adapter"
	"github.com/billie-coop/switchboard/internal/applier"
	"github.com/billie-coop/switchboard/internal/deeplink"
	"github.com/billie-coop/switchboard/internal/portable"
	"github.com/billie-coop/switchboard/internal/profile"
	"github.com/billie-coop/switchboard/internal/settings"
	"github.com/billie-coop/switchboard/internal/store"
	"github.com/billie-coop/switchboard/internal/tui"
	tea "github.com/charmbracelet/bubbletea/v2"
	"github.com/spf13/cobra"
)

// env holds everything the commands share.
type env struct {
	store    *store.Store
	applier  *applier.Applier
	settings *settings.Manager
}

// dataDir resolves the private data directory, honoring SWITCHBOARD_DIR
// for tests and unusual setups.
func dataDir() (string, error) {
	if dir := os.Getenv("SWITCHBOARD_DIR"); dir != "" {
		return dir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	return filepath.Join(home, ".switchboard"), nil
}

func newEnv() (*env, error) {
	dir, err := dataDir()
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("cannot create data directory: %w", err)
	}

	s, err := store.Open(filepath.Join(dir, "store.json"))
	if err != nil {
		return nil, err
	}

	mgr := settings.NewManager(dir)
	if err := mgr.Load(); err != nil {
		return nil, err
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("cannot determine home directory: %w", err)
	}
	var opts []applier.Option
	for app, ov := range mgr.Get().LiveOverrides {
		opts = append(opts, applier.WithLivePaths(app, adapter.Paths{Main: ov.Main, Aux: ov.Aux}))
	}
	a := applier.New(s, home, filepath.Join(dir, "backups"), opts...)

	return &env{store: s, applier: a, settings: mgr}, nil
}

func newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "switchboard",
		Short:         "Switch provider profiles and MCP servers for AI coding CLIs",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := newEnv()
			if err != nil {
				return err
			}
			p := tea.NewProgram(tui.New(e.store, e.applier, e.settings.Get()), tea.WithAltScreen())
			_, err = p.Run()
			return err
		},
	}

	root.AddCommand(
		newListCommand(),
		newUseCommand(),
		newApplyCommand(),
		newRollbackCommand(),
		newShowCommand(),
		newDeleteCommand(),
		newAddCommand(),
		newExportCommand(),
		newImportCommand(),
	)
	return root
}

func newListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all profiles and which one is live per app",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := newEnv()
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "APP\tID\tNAME\tACTIVE")
			for _, app := range profile.Apps {
				activeID, _ := e.store.ActiveID(app)
				for _, p := range e.store.List(profile.KindProvider, app) {
					mark := ""
					if p.ID == activeID {
						mark = "*"
					}
					fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", app, p.ID, p.Name, mark)
				}
			}
			for _, p := range e.store.List(profile.KindMcp, "") {
				apps := ""
				for _, app := range profile.Apps {
					if p.Apps[app] {
						if apps != "" {
							apps += ","
						}
						apps += string(app)
					}
				}
				fmt.Fprintf(w, "mcp\t%s\t%s\t%s\n", p.ID, p.Name, apps)
			}
			return w.Flush()
		},
	}
}

func newUseCommand() *cobra.Command {
	var apply bool
	cmd := &cobra.Command{
		Use:   "use <app> <id>",
		Short: "Activate a provider profile for an app",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := profile.ParseApp(args[0])
			if err != nil {
				return err
			}
			e, err := newEnv()
			if err != nil {
				return err
			}
			if err := e.store.SetActive(app, args[1]); err != nil {
				return err
			}
			if apply {
				if err := e.applier.Apply(app); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s is live for %s\n", args[1], app)
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s is active for %s (run 'switchboard apply %s' to make it live)\n", args[1], app, app)
			return nil
		},
	}
	cmd.Flags().BoolVar(&apply, "apply", false, "also write the live config")
	return cmd
}

func newApplyCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "apply <app>",
		Short: "Write the active profile into the app's live config",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := profile.ParseApp(args[0])
			if err != nil {
				return err
			}
			e, err := newEnv()
			if err != nil {
				return err
			}
			if err := e.applier.Apply(app); err != nil {
				return err
			}
			paths, err := e.applier.LivePaths(app)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", paths.Main)
			return nil
		},
	}
}

func newRollbackCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "rollback <app>",
		Short: "Restore the app's live config from the last backup",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := profile.ParseApp(args[0])
			if err != nil {
				return err
			}
			e, err := newEnv()
			if err != nil {
				return err
			}
			return e.applier.Rollback(app)
		},
	}
}

// resolveID finds the profiles matching a bare id from the command line.
// Ids are only unique per (kind, app) scope, so the same id may name
// profiles for several apps; appName narrows the matches when given.
func resolveID(s *store.Store, id, appName string) ([]*profile.Profile, error) {
	matches := s.Find(id)
	if appName != "" {
		app, err := profile.ParseApp(appName)
		if err != nil {
			return nil, err
		}
		var filtered []*profile.Profile
		for _, p := range matches {
			if p.EnabledFor(app) {
				filtered = append(filtered, p)
			}
		}
		matches = filtered
	}
	if len(matches) == 0 {
		return nil, fmt.Errorf("no profile with id %q", id)
	}
	return matches, nil
}

func newShowCommand() *cobra.Command {
	var appName string
	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Show a profile (all scopes sharing the id)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := newEnv()
			if err != nil {
				return err
			}
			matches, err := resolveID(e.store, args[0], appName)
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			for i, p := range matches {
				if i > 0 {
					fmt.Fprintln(w)
				}
				fmt.Fprintf(w, "id\t%s\n", p.ID)
				fmt.Fprintf(w, "name\t%s\n", p.Name)
				fmt.Fprintf(w, "kind\t%s\n", p.Kind)
				if p.Kind == profile.KindProvider {
					fmt.Fprintf(w, "app\t%s\n", p.App)
					if p.Provider != nil {
						if p.Provider.BaseURL != "" {
							fmt.Fprintf(w, "base_url\t%s\n", p.Provider.BaseURL)
						}
						if p.Provider.Model != "" {
							fmt.Fprintf(w, "model\t%s\n", p.Provider.Model)
						}
					}
				} else if p.Mcp != nil {
					fmt.Fprintf(w, "command\t%s\n", p.Mcp.Command)
				}
				if p.WebsiteURL != "" {
					fmt.Fprintf(w, "website\t%s\n", p.WebsiteURL)
				}
			}
			return w.Flush()
		},
	}
	cmd.Flags().StringVar(&appName, "app", "", "narrow to one target app")
	return cmd
}

func newDeleteCommand() *cobra.Command {
	var appName string
	cmd := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a profile (refused while it is active)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := newEnv()
			if err != nil {
				return err
			}
			matches, err := resolveID(e.store, args[0], appName)
			if err != nil {
				return err
			}
			if len(matches) > 1 {
				return fmt.Errorf("id %q matches %d profiles; pass --app to pick one", args[0], len(matches))
			}
			p := matches[0]
			return e.store.Delete(p.Kind, p.App, p.ID)
		},
	}
	cmd.Flags().StringVar(&appName, "app", "", "disambiguate by target app")
	return cmd
}

func newAddCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "add <ccswitch-url>",
		Short: "Import a provider profile from a ccswitch:// link",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req, err := deeplink.Parse(args[0])
			if err != nil {
				return err
			}
			e, err := newEnv()
			if err != nil {
				return err
			}
			p := req.Profile()
			if err := e.store.Create(p); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "added %s profile %q (%s)\n", p.App, p.Name, p.ID)
			return nil
		},
	}
}

func newExportCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "export <file>",
		Short: "Export all profiles to a bundle file (.json or .yaml)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := newEnv()
			if err != nil {
				return err
			}
			return portable.Export(e.store.Path(), args[0])
		},
	}
}

func newImportCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "import <file>",
		Short: "Replace all profiles from a bundle file (previous store is archived)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := newEnv()
			if err != nil {
				return err
			}
			return portable.Import(e.store.Path(), args[0])
		},
	}
}
