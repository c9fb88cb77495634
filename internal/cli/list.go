package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/outshift-open/hax-cli/internal/config"
	"github.com/outshift-open/hax-cli/internal/exitcodes"
	"github.com/outshift-open/hax-cli/internal/filemanager"
	"github.com/outshift-open/hax-cli/internal/installer"
	"github.com/outshift-open/hax-cli/internal/registry"
)

func (a *App) newListCmd() *cobra.Command {
	var available bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List installed components",
		Long:  "Shows the components recorded in hax.yml and whether their files are present. With --available, lists what the registry source offers instead.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if available {
				return a.runListAvailable(cmd.Context())
			}
			return a.runList()
		},
	}

	cmd.Flags().BoolVar(&available, "available", false, "list components available from the registry source")
	return cmd
}

func (a *App) runList() error {
	if err := a.RequireProject(); err != nil {
		return err
	}

	in, err := installer.New(a.projectDir, a.config, nil, installer.WithLogger(a.logger))
	if err != nil {
		return err
	}

	var rows [][]string
	for _, kind := range config.RemoveOrder {
		for _, item := range *a.config.List(kind) {
			source := item.Source
			if source == "" {
				source = "-"
			}
			rows = append(rows, []string{item.Name, string(kind), source, a.installStatus(in, kind, item.Name)})
		}
	}

	if len(rows) == 0 {
		a.output.Info("No components installed. Run 'hax add <component>' or 'hax list --available'.")
		return nil
	}
	a.output.Table([]string{"NAME", "LIST", "SOURCE", "STATUS"}, rows)
	return nil
}

func (a *App) installStatus(in *installer.Installer, kind config.ListKind, name string) string {
	p, err := in.InstalledPath(kind, name)
	if err != nil {
		return "invalid name"
	}
	info, err := filemanager.Inspect(p)
	switch {
	case err != nil:
		return "unreadable"
	case !info.Exists:
		return "missing"
	}
	return fmt.Sprintf("%d files, %s", info.Files, humanize.Bytes(uint64(info.Size)))
}

var listCategories = []registry.Category{
	registry.CategoryArtifacts,
	registry.CategoryComposer,
	registry.CategoryAdapter,
	registry.CategoryUI,
}

func (a *App) runListAvailable(ctx context.Context) error {
	spec, err := a.effectiveSource()
	if err != nil {
		return err
	}
	src, err := a.newResolver().Source(spec)
	if err != nil {
		return &ExitError{Code: exitcodes.UsageError, Message: err.Error()}
	}

	installed := make(map[string]bool)
	if a.config != nil {
		for _, kind := range config.RemoveOrder {
			for _, item := range *a.config.List(kind) {
				installed[item.Name] = true
			}
		}
	}

	a.output.Info("Components in %s:\n", src)
	total, installedCount := 0, 0
	for _, cat := range listCategories {
		names, err := src.Names(ctx, cat)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return ctxErr
			}
			var httpErr *registry.HTTPError
			if errors.As(err, &httpErr) && httpErr.IsNotFound() {
				a.logger.Debug("category not published", "category", cat, "source", src.String())
				continue
			}
			return &ExitError{Code: exitcodes.NetworkError, Message: fmt.Sprintf("listing %s: %v", cat, err)}
		}
		if len(names) == 0 {
			continue
		}

		a.output.Println("%s:", strings.ToUpper(string(cat[:1]))+string(cat[1:]))
		for _, name := range names {
			status := "  "
			if installed[name] {
				status = "* "
				installedCount++
			}
			a.output.Println("  %s%s", status, name)
		}
		a.output.Println("")
		total += len(names)
	}

	if installedCount > 0 {
		a.output.Println("* = installed (%d/%d)", installedCount, total)
	} else {
		a.output.Println("%d components available", total)
	}
	return nil
}
