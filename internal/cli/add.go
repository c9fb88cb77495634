package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/outshift-open/hax-cli/internal/exitcodes"
	"github.com/outshift-open/hax-cli/internal/installer"
	"github.com/outshift-open/hax-cli/internal/project"
	"github.com/outshift-open/hax-cli/internal/registry"
	"github.com/outshift-open/hax-cli/internal/ui"
)

func (a *App) newAddCmd() *cobra.Command {
	var opts installer.AddOptions

	cmd := &cobra.Command{
		Use:   "add <component> [component...]",
		Short: "Add components and their registry dependencies to this project",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runAdd(cmd.Context(), args, opts)
		},
	}

	cmd.Flags().BoolVar(&opts.Backend, "backend", false, "also create a backend tool placeholder")
	cmd.Flags().BoolVar(&opts.SkipInstall, "skip-install", false, "print package dependencies instead of installing them")
	return cmd
}

func (a *App) runAdd(ctx context.Context, names []string, opts installer.AddOptions) error {
	if err := a.RequireProject(); err != nil {
		return err
	}

	chain, err := a.newChain(a.newResolver())
	if err != nil {
		return err
	}
	if a.source != "" {
		opts.Source = a.source
	}

	packages := a.packages
	if packages == nil {
		packages = project.ExecInstaller{}
	}
	in, err := installer.New(a.projectDir, a.config, chain,
		installer.WithPackageInstaller(packages),
		installer.WithLogger(a.logger),
	)
	if err != nil {
		return err
	}

	var failed []string
	notFound := 0
	for _, name := range names {
		var report *installer.Report
		spinErr := ui.WithSpinner(ctx, fmt.Sprintf("Adding %s...", name), func(ctx context.Context) error {
			var addErr error
			report, addErr = in.Add(ctx, name, opts)
			return addErr
		})
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if spinErr != nil {
			if errors.Is(spinErr, registry.ErrNotFound) {
				notFound++
				a.output.Error("Component %q not found in %s", name, joinSpecs(chain.Specs()))
			} else {
				a.output.Error("Could not add %s: %v", name, spinErr)
			}
			failed = append(failed, name)
			continue
		}
		a.printAddReport(report, opts)
	}

	if len(failed) > 0 {
		code := exitcodes.GeneralError
		if notFound == len(failed) {
			code = exitcodes.NotFound
		}
		return &ExitError{Code: code, Message: fmt.Sprintf("failed to add: %s", strings.Join(failed, ", "))}
	}
	return nil
}

func (a *App) printAddReport(report *installer.Report, opts installer.AddOptions) {
	for _, item := range report.Items {
		if item.Failed() {
			a.output.Warning("%s: no files written", item.Name)
			continue
		}
		a.output.Success("%s (%s, %d files from %s)", item.Name, strings.TrimPrefix(string(item.Type), "registry:"), item.Written(), item.Source)
		if a.debug {
			for _, f := range item.Files {
				a.output.Debug("  %-9s %s", f.Status, f.Dest)
			}
		}
	}
	for _, name := range report.Missing {
		a.output.Warning("%s: not found in any registry source", name)
	}
	for _, p := range report.Touched {
		a.output.Dim("  wrote %s", p)
	}

	if len(report.Dependencies) > 0 && !report.PackagesInstalled {
		pm := project.DetectPackageManager(a.projectDir)
		if opts.SkipInstall {
			a.output.Info("Install the package dependencies with:")
		} else {
			a.output.Info("Install the package dependencies manually with:")
		}
		a.output.Info("  %s", strings.Join(pm.AddArgs(report.Dependencies), " "))
	}

	a.output.Info("%s", report.Summary())
}
