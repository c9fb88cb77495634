package cli

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/outshift-open/hax-cli/internal/config"
	"github.com/outshift-open/hax-cli/internal/exitcodes"
)

func (a *App) newRepoCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "repo",
		Short: "Manage named registry sources",
	}
	cmd.AddCommand(
		a.newRepoAddCmd(),
		a.newRepoListCmd(),
		a.newRepoSwitchCmd(),
		a.newRepoRemoveCmd(),
	)
	return cmd
}

func (a *App) newRepoAddCmd() *cobra.Command {
	var src config.RegistrySource
	var fallback bool

	cmd := &cobra.Command{
		Use:   "add <name>",
		Short: "Add a GitHub registry source",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runRepoAdd(args[0], src, fallback)
		},
	}

	cmd.Flags().StringVar(&src.Repo, "github", "", "GitHub repository as owner/repo")
	cmd.Flags().StringVar(&src.Branch, "branch", "main", "branch to read from")
	cmd.Flags().StringVar(&src.Token, "token", "", "access token, may reference env vars like ${HAX_GITHUB_TOKEN}")
	cmd.Flags().StringVar(&src.GitHubURL, "github-url", "", "GitHub Enterprise URL")
	cmd.Flags().BoolVar(&fallback, "fallback", false, "consult this source when the default has no match")
	cmd.MarkFlagRequired("github")
	return cmd
}

func (a *App) runRepoAdd(name string, src config.RegistrySource, fallback bool) error {
	if err := a.RequireProject(); err != nil {
		return err
	}
	if name == "" || strings.ContainsAny(name, " :/") {
		return &ExitError{Code: exitcodes.UsageError, Message: fmt.Sprintf("invalid registry name %q", name)}
	}
	if strings.Count(src.Repo, "/") != 1 {
		return &ExitError{Code: exitcodes.UsageError, Message: fmt.Sprintf("--github must be owner/repo, got %q", src.Repo)}
	}
	src.Type = "github"
	if _, err := src.Spec(); err != nil {
		return &ExitError{Code: exitcodes.UsageError, Message: err.Error()}
	}

	cfg, err := config.Update(a.projectDir, func(c *config.Config) error {
		if c.Registries == nil {
			c.Registries = &config.Registries{}
		}
		if c.Registries.Sources == nil {
			c.Registries.Sources = make(map[string]config.RegistrySource)
		}
		if _, exists := c.Registries.Sources[name]; exists {
			return fmt.Errorf("registry %q already exists", name)
		}
		c.Registries.Sources[name] = src
		switch {
		case fallback:
			c.Registries.Fallback = append(c.Registries.Fallback, name)
		case c.Registries.Default == "":
			c.Registries.Default = name
		}
		return nil
	})
	if err != nil {
		return &ExitError{Code: exitcodes.ConfigError, Message: err.Error()}
	}
	a.config = cfg

	a.output.Success("Added registry %s (%s@%s)", name, src.Repo, src.Branch)
	if cfg.Registries.Default == name {
		a.output.Info("%s is now the default registry", name)
	}
	return nil
}

func (a *App) newRepoListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List registry sources",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runRepoList()
		},
	}
}

func (a *App) runRepoList() error {
	if err := a.RequireProject(); err != nil {
		return err
	}

	rows := [][]string{{"(registry_source)", a.config.RegistrySource, "primary"}}
	if r := a.config.Registries; r != nil {
		names := make([]string, 0, len(r.Sources))
		for name := range r.Sources {
			names = append(names, name)
		}
		sort.Strings(names)

		for _, name := range names {
			role := ""
			switch {
			case name == r.Default:
				role = "default"
			case indexOfString(r.Fallback, name) >= 0:
				role = fmt.Sprintf("fallback %d", indexOfString(r.Fallback, name)+1)
			}
			location := "-"
			if spec, err := r.Sources[name].Spec(); err == nil {
				location = spec.String()
			}
			rows = append(rows, []string{name, location, role})
		}
	}
	a.output.Table([]string{"NAME", "SOURCE", "ROLE"}, rows)
	return nil
}

func (a *App) newRepoSwitchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "switch <name>",
		Short: "Make a registry source the default",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runRepoSwitch(args[0])
		},
	}
}

func (a *App) runRepoSwitch(name string) error {
	if err := a.RequireProject(); err != nil {
		return err
	}
	cfg, err := config.Update(a.projectDir, func(c *config.Config) error {
		if c.Registries == nil || !hasSource(c.Registries, name) {
			return fmt.Errorf("%w %q", config.ErrUnknownRegistry, name)
		}
		c.Registries.Default = name
		c.Registries.Fallback = removeString(c.Registries.Fallback, name)
		return nil
	})
	if errors.Is(err, config.ErrUnknownRegistry) {
		return &ExitError{Code: exitcodes.NotFound, Message: err.Error()}
	}
	if err != nil {
		return err
	}
	a.config = cfg
	a.output.Success("Default registry is now %s", name)
	return nil
}

func (a *App) newRepoRemoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "remove <name>",
		Short: "Remove a registry source",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runRepoRemove(args[0])
		},
	}
}

func (a *App) runRepoRemove(name string) error {
	if err := a.RequireProject(); err != nil {
		return err
	}
	cfg, err := config.Update(a.projectDir, func(c *config.Config) error {
		if c.Registries == nil || !hasSource(c.Registries, name) {
			return fmt.Errorf("%w %q", config.ErrUnknownRegistry, name)
		}
		if c.RegistrySource == "repo:"+name {
			return fmt.Errorf("registry %q is the registry_source; change it with 'hax config set registry-source' first", name)
		}
		delete(c.Registries.Sources, name)
		if c.Registries.Default == name {
			c.Registries.Default = ""
		}
		c.Registries.Fallback = removeString(c.Registries.Fallback, name)
		return nil
	})
	if errors.Is(err, config.ErrUnknownRegistry) {
		return &ExitError{Code: exitcodes.NotFound, Message: err.Error()}
	}
	if err != nil {
		return &ExitError{Code: exitcodes.ConfigError, Message: err.Error()}
	}
	a.config = cfg
	a.output.Success("Removed registry %s", name)
	return nil
}

func hasSource(r *config.Registries, name string) bool {
	_, ok := r.Sources[name]
	return ok
}

func indexOfString(list []string, s string) int {
	for i, v := range list {
		if v == s {
			return i
		}
	}
	return -1
}

func removeString(list []string, s string) []string {
	out := list[:0]
	for _, v := range list {
		if v != s {
			out = append(out, v)
		}
	}
	return out
}
