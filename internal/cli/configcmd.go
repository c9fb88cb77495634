package cli

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/outshift-open/hax-cli/internal/config"
	"github.com/outshift-open/hax-cli/internal/exitcodes"
	"github.com/outshift-open/hax-cli/internal/registry"
)

// configSetters maps a `config set` key to the field it writes.
var configSetters = map[string]func(c *config.Config, value string) error{
	"default-repo": func(c *config.Config, v string) error {
		if c.Registries == nil || !hasSource(c.Registries, v) {
			return fmt.Errorf("%w %q", config.ErrUnknownRegistry, v)
		}
		c.Registries.Default = v
		return nil
	},
	"registry-source": func(c *config.Config, v string) error {
		spec, err := registry.ParseSource(v)
		if err != nil {
			return err
		}
		if named, ok := spec.(registry.NamedSpec); ok && (c.Registries == nil || !hasSource(c.Registries, named.Name)) {
			return fmt.Errorf("%w %q", config.ErrUnknownRegistry, named.Name)
		}
		c.RegistrySource = v
		return nil
	},
	"artifacts-path":     func(c *config.Config, v string) error { c.Artifacts.Path = v; return nil },
	"composers-path":     func(c *config.Config, v string) error { c.Composers.Path = v; return nil },
	"adapters-path":      func(c *config.Config, v string) error { c.Adapters.Path = v; return nil },
	"frontend-path":      func(c *config.Config, v string) error { c.FrontendPath = v; return nil },
	"backend-path":       func(c *config.Config, v string) error { c.BackendPath = v; return nil },
	"frontend-framework": func(c *config.Config, v string) error { c.FrontendFramework = v; return nil },
	"backend-framework":  func(c *config.Config, v string) error { c.BackendFramework = v; return nil },
}

func configKeys() []string {
	keys := make([]string, 0, len(configSetters))
	for k := range configSetters {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func (a *App) newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Change hax.yml settings",
	}

	set := &cobra.Command{
		Use:       "set <key> <value>",
		Short:     "Set a config value",
		Long:      "Keys: " + strings.Join(configKeys(), ", "),
		Args:      cobra.ExactArgs(2),
		ValidArgs: configKeys(),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runConfigSet(args[0], args[1])
		},
	}
	cmd.AddCommand(set)
	return cmd
}

func (a *App) runConfigSet(key, value string) error {
	setter, ok := configSetters[key]
	if !ok {
		return &ExitError{
			Code:    exitcodes.UsageError,
			Message: fmt.Sprintf("unknown config key %q (valid: %s)", key, strings.Join(configKeys(), ", ")),
		}
	}
	if err := a.RequireProject(); err != nil {
		return err
	}

	cfg, err := config.Update(a.projectDir, func(c *config.Config) error {
		return setter(c, value)
	})
	if err != nil {
		return &ExitError{Code: exitcodes.UsageError, Message: fmt.Sprintf("setting %s: %v", key, err)}
	}
	a.config = cfg
	a.output.Success("Set %s = %s", key, value)
	return nil
}
