package cli

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/outshift-open/hax-cli/internal/config"
	"github.com/outshift-open/hax-cli/internal/exitcodes"
	"github.com/outshift-open/hax-cli/internal/project"
	"github.com/outshift-open/hax-cli/internal/ui"
)

func (a *App) newInitCmd() *cobra.Command {
	var (
		yes      bool
		format   string
		basePath string
	)

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create hax.yml for this project",
		Long:  "Creates the HAX config file with default install paths. Does nothing when one already exists.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			askFormat := !yes && !cmd.Flags().Changed("format")
			return a.runInit(yes, askFormat, format, basePath)
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "accept defaults without prompting")
	cmd.Flags().StringVar(&format, "format", "yaml", "config format: yaml or json")
	cmd.Flags().StringVar(&basePath, "base-path", "", "artifacts directory (default "+config.DefaultArtifactsPath+")")
	return cmd
}

func (a *App) runInit(yes, askFormat bool, formatFlag, basePath string) error {
	if existing, ok := config.DetectFormat(a.projectDir); ok {
		a.output.Warning("%s already exists, leaving it unchanged", existing.FileName())
		return nil
	}

	if askFormat && !ui.IsCI() {
		choice, err := ui.Select("Config format", []string{string(config.FormatYAML), string(config.FormatJSON)})
		if err != nil {
			return err
		}
		formatFlag = choice
	}

	format, err := config.ParseFormat(formatFlag)
	if err != nil {
		return &ExitError{Code: exitcodes.UsageError, Message: err.Error()}
	}

	if info, err := os.Stat(a.projectDir); err != nil || !info.IsDir() {
		return &ExitError{Code: exitcodes.UsageError, Message: "project directory " + a.projectDir + " does not exist"}
	}

	if basePath == "" {
		basePath = config.DefaultArtifactsPath
		if !yes && !ui.IsCI() {
			if basePath, err = ui.Input("Where should artifacts be installed?", basePath); err != nil {
				return err
			}
		}
	}

	cfg := &config.Config{
		Format:    format,
		Artifacts: config.PathConfig{Path: basePath},
	}
	if primary, err := a.primarySource(); err != nil {
		return err
	} else if primary != nil {
		cfg.RegistrySource = primary.String()
	}

	if project.HasPackageJSON(a.projectDir) {
		fw, err := project.DetectFramework(a.projectDir)
		if err != nil {
			a.logger.Warn("could not read package.json", "error", err)
		} else if fw.Name != "" {
			cfg.FrontendFramework = fw.String()
			a.logger.Debug("detected frontend framework", "framework", cfg.FrontendFramework)
		}
	} else {
		a.output.Warning("no package.json found in %s", a.projectDir)
	}

	if err := config.SaveConfig(a.projectDir, cfg); err != nil {
		return err
	}
	a.config = cfg

	a.output.Success("Created %s", format.FileName())
	a.output.Panel("Install paths",
		"artifacts  "+cfg.Artifacts.Path,
		"composers  "+cfg.Composers.Path,
		"adapters   "+cfg.Adapters.Path,
		"frontend   "+cfg.FrontendPath,
		"backend    "+cfg.BackendPath,
	)
	a.output.Info("\nNext: hax add <component>")
	return nil
}
