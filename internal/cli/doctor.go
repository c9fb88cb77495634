package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/outshift-open/hax-cli/internal/config"
	"github.com/outshift-open/hax-cli/internal/filemanager"
	"github.com/outshift-open/hax-cli/internal/installer"
	"github.com/outshift-open/hax-cli/internal/project"
	"github.com/outshift-open/hax-cli/internal/registry"
)

func (a *App) newDoctorCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Diagnose common issues",
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runDoctor(cmd.Context())
		},
	}
}

func (a *App) runDoctor(ctx context.Context) error {
	allOK := true

	// 1. Config file
	format, ok := config.DetectFormat(a.projectDir)
	if !ok {
		a.output.Error("%s not found: run hax init", config.ConfigFile)
		return nil // Can't check further without config
	}
	a.output.Success("%s found", format.FileName())

	if err := a.LoadProjectConfig(); err != nil {
		a.output.Error("Config file invalid: %v", err)
		return nil
	}

	// 2. Registry reachable (use a short timeout so doctor doesn't hang)
	registryCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	spec, err := a.effectiveSource()
	if err != nil {
		a.output.Error("Registry source invalid: %v", err)
		allOK = false
	} else if src, err := a.newResolver().Source(spec); err != nil {
		a.output.Error("Registry source %s unusable: %v", spec, err)
		allOK = false
	} else if _, isCDN := src.(*registry.CDNSource); isCDN {
		a.output.Success("Registry source %s (CDN, not checked)", src)
	} else if names, err := src.Names(registryCtx, registry.CategoryArtifacts); err != nil {
		a.output.Error("Registry %s unreachable: %v", src, err)
		var httpErr *registry.HTTPError
		if errors.As(err, &httpErr) && httpErr.IsAuth() {
			a.output.Info("  Check GITHUB_TOKEN or --token")
		}
		allOK = false
	} else {
		a.output.Success("Registry %s reachable (%d artifacts)", src, len(names))
	}

	// 3. Installed components
	in, err := installer.New(a.projectDir, a.config, nil, installer.WithLogger(a.logger))
	if err != nil {
		a.output.Error("Install paths invalid: %v", err)
		return nil
	}
	missing := 0
	installed := 0
	for _, kind := range config.RemoveOrder {
		for _, item := range *a.config.List(kind) {
			installed++
			p, err := in.InstalledPath(kind, item.Name)
			if err != nil {
				a.output.Error("%s: %v", item.Name, err)
				missing++
				continue
			}
			if info, _ := filemanager.Inspect(p); !info.Exists {
				a.output.Error("%s is recorded in %s but %s is missing: run hax add %s", item.Name, kind, p, item.Name)
				missing++
			}
		}
	}
	if missing == 0 {
		a.output.Success("%d installed components present", installed)
	} else {
		allOK = false
	}

	// 4. Project setup
	if !project.HasPackageJSON(a.projectDir) {
		a.output.Warning("package.json not found")
	} else {
		a.output.Success("Package manager: %s", project.DetectPackageManager(a.projectDir))
	}

	compilerConfig := project.CompilerConfigFile(a.projectDir)
	if _, err := os.Stat(filepath.Join(a.projectDir, compilerConfig)); err != nil {
		a.output.Warning("%s not found: hax add creates it with the @/* path alias", compilerConfig)
	} else {
		a.output.Success("%s present", compilerConfig)
	}

	utils := filepath.Join(in.Files().Layout().Root(registry.TypeLib), "utils.ts")
	if _, err := os.Stat(utils); err != nil && installed > 0 {
		a.output.Warning("%s not found: UI components import cn from @/lib/utils", utils)
	}

	if allOK {
		fmt.Fprintln(a.output.Writer())
		a.output.Success("Everything looks good!")
	}

	return nil
}
