// Package installer adds registry components to a project and removes them again.
package installer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/outshift-open/hax-cli/internal/config"
	"github.com/outshift-open/hax-cli/internal/filemanager"
	"github.com/outshift-open/hax-cli/internal/project"
	"github.com/outshift-open/hax-cli/internal/registry"
	"github.com/outshift-open/hax-cli/internal/resolver"
)

var (
	// ErrNotInstalled is returned by Remove when no installed list contains the component.
	ErrNotInstalled = errors.New("component is not installed")
	// ErrCancelled is returned when a confirmation prompt is declined.
	ErrCancelled = errors.New("cancelled")
)

// aliasPrefix is the import alias UI components are rewritten to.
const aliasPrefix = "@"

// utilsSource is written to <frontend>/lib/utils.ts when a UI component is
// installed and the project has none.
const utilsSource = `import { clsx, type ClassValue } from "clsx"
import { twMerge } from "tailwind-merge"

export function cn(...inputs: ClassValue[]) {
  return twMerge(clsx(inputs))
}
`

// Installer applies add and remove operations to one project.
type Installer struct {
	projectDir string
	files      *filemanager.Manager
	items      resolver.ItemResolver
	packages   project.PackageInstaller
	logger     *slog.Logger
}

// Option configures an Installer.
type Option func(*Installer)

// WithPackageInstaller sets how package dependencies are installed.
// Without one, dependencies are only reported.
func WithPackageInstaller(p project.PackageInstaller) Option {
	return func(in *Installer) { in.packages = p }
}

// WithLogger sets the logger. A nil logger uses slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(in *Installer) { in.logger = logger }
}

// New creates an installer for the project in projectDir laid out per cfg.
// items resolves single components, normally a *registry.Chain.
func New(projectDir string, cfg *config.Config, items resolver.ItemResolver, opts ...Option) (*Installer, error) {
	layout, err := LayoutFor(projectDir, cfg)
	if err != nil {
		return nil, err
	}
	in := &Installer{
		projectDir: projectDir,
		files:      filemanager.NewManager(layout),
		items:      items,
	}
	for _, opt := range opts {
		opt(in)
	}
	if in.logger == nil {
		in.logger = slog.Default()
	}
	return in, nil
}

// LayoutFor resolves the install roots configured in cfg against projectDir.
func LayoutFor(projectDir string, cfg *config.Config) (filemanager.Layout, error) {
	l := filemanager.Layout{ProjectDir: projectDir}
	for _, p := range []struct {
		dst *string
		src string
	}{
		{&l.ArtifactsDir, cfg.Artifacts.Path},
		{&l.ComposersDir, cfg.Composers.Path},
		{&l.AdaptersDir, cfg.Adapters.Path},
		{&l.FrontendDir, cfg.FrontendPath},
		{&l.BackendDir, cfg.BackendPath},
	} {
		resolved, err := config.ResolvePath(projectDir, p.src)
		if err != nil {
			return filemanager.Layout{}, err
		}
		*p.dst = resolved
	}
	return l, nil
}

// Files returns the file manager the installer writes through.
func (in *Installer) Files() *filemanager.Manager {
	return in.files
}

// AddOptions controls a single add.
type AddOptions struct {
	// Backend also creates a backend tool placeholder for the component.
	Backend bool
	// SkipInstall reports package dependencies without installing them.
	SkipInstall bool
	// Source is recorded next to the component in the config when set.
	Source string
}

// Add installs name and its registry dependencies.
//
// Writing files, installing packages, the backend placeholder and the path
// alias setup each fail independently; their failures are collected in the
// report. Add only returns an error when the component itself cannot be
// resolved, nothing of it could be written, or the context is cancelled.
func (in *Installer) Add(ctx context.Context, name string, opts AddOptions) (*Report, error) {
	report := &Report{Requested: name}

	walker := resolver.NewWalker(in.items, in.logger)
	res, err := walker.Walk(ctx, []string{name}, resolver.NewVisited())
	if err != nil {
		return report, err
	}
	report.Missing = res.Missing
	if len(res.Items) == 0 || res.Items[0].Name != name {
		return report, fmt.Errorf("%w: %s", registry.ErrNotFound, name)
	}

	wroteUI := false
	for _, item := range res.Items {
		ir := ItemReport{Name: item.Name, Type: item.Type, Source: item.Source}
		ir.Files = in.files.WriteItem(item)
		for _, f := range ir.Files {
			if f.Err != nil {
				in.logger.Warn("could not write file", "component", item.Name, "path", f.Source, "error", f.Err)
			}
		}
		if ir.Failed() {
			in.logger.Warn("no files written", "component", item.Name)
		} else if item.Type == registry.TypeUI {
			wroteUI = true
		}
		report.Items = append(report.Items, ir)
	}

	top := report.Items[0]
	if top.Failed() {
		return report, fmt.Errorf("installing %s: no files written", name)
	}

	if wroteUI {
		in.ensureUtils(report)
	}
	in.ensureAliases(report)

	report.Dependencies = project.PinDependencies(res.Dependencies())
	if len(report.Dependencies) > 0 && !opts.SkipInstall && in.packages != nil {
		if err := in.packages.Install(ctx, in.projectDir, report.Dependencies); err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return report, ctxErr
			}
			in.logger.Warn("package install failed", "error", err)
			report.warn("package install failed: %v", err)
		} else {
			report.PackagesInstalled = true
		}
	}

	if opts.Backend {
		in.writeBackendPlaceholder(name, report)
	}

	kind := config.ListFor(top.Type)
	_, err = config.Update(in.projectDir, func(c *config.Config) error {
		report.Recorded = c.AddComponent(kind, config.ComponentItem{Name: name, Source: opts.Source})
		return nil
	})
	if err != nil {
		in.logger.Warn("could not record component in config", "component", name, "error", err)
		report.warn("could not update config: %v", err)
	}
	return report, nil
}

func (in *Installer) ensureUtils(report *Report) {
	dest := filepath.Join(in.files.Layout().Root(registry.TypeLib), "utils.ts")
	created, err := filemanager.WriteIfAbsent(dest, []byte(utilsSource))
	switch {
	case err != nil:
		in.logger.Warn("could not create utils file", "path", dest, "error", err)
		report.warn("could not create %s: %v", dest, err)
	case created:
		in.logger.Debug("created utils file", "path", dest)
		report.Touched = append(report.Touched, dest)
	}
}

func (in *Installer) ensureAliases(report *Report) {
	changed, err := project.EnsurePathAliases(in.projectDir, aliasPrefix)
	if err != nil {
		in.logger.Warn("could not set up path aliases", "error", err)
		report.warn("could not set up path aliases: %v", err)
		return
	}
	if changed {
		report.Touched = append(report.Touched, filepath.Join(in.projectDir, project.CompilerConfigFile(in.projectDir)))
	}
}

func (in *Installer) writeBackendPlaceholder(name string, report *Report) {
	dir := filepath.Join(in.files.Layout().BackendDir, "tools", name)
	dest := filepath.Join(dir, name+".py")
	created, err := filemanager.WriteIfAbsent(dest, []byte(fmt.Sprintf("# %s backend tool\n", name)))
	if err != nil {
		in.logger.Warn("could not create backend placeholder", "path", dest, "error", err)
		report.warn("could not create backend placeholder: %v", err)
		return
	}
	report.Backend = dest
	if created {
		report.Touched = append(report.Touched, dest)
	}
}

// RemoveOptions controls a single remove.
type RemoveOptions struct {
	// Force skips the confirmation prompt.
	Force bool
	// Confirm asks the user before anything changes. Nil confirms.
	Confirm func(prompt string) (bool, error)
}

// RemoveResult describes a completed remove.
type RemoveResult struct {
	Name string
	Kind config.ListKind
	Dir  string
	// Kept is set when the directory was left in place on purpose.
	Kept bool
	// DeleteErr is the error from deleting Dir. The config was updated regardless.
	DeleteErr error
}

// Remove takes name out of the config and deletes its directory.
// The installed lists are searched in config.RemoveOrder.
func (in *Installer) Remove(ctx context.Context, name string, opts RemoveOptions) (*RemoveResult, error) {
	cfg, err := config.LoadConfig(in.projectDir)
	if err != nil {
		return nil, err
	}
	kind, ok := cfg.FindInstalled(name)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotInstalled, name)
	}

	if !opts.Force && opts.Confirm != nil {
		confirmed, err := opts.Confirm(fmt.Sprintf("Remove %s from %s?", name, kind))
		if err != nil {
			return nil, err
		}
		if !confirmed {
			return nil, ErrCancelled
		}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var remaining *config.Config
	remaining, err = config.Update(in.projectDir, func(c *config.Config) error {
		if !c.RemoveComponent(kind, name) {
			return fmt.Errorf("%w: %s", ErrNotInstalled, name)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	result := &RemoveResult{Name: name, Kind: kind}
	dir, err := in.InstalledPath(kind, name)
	if err != nil {
		in.logger.Warn("could not determine component directory", "component", name, "error", err)
		result.DeleteErr = err
		return result, nil
	}
	result.Dir = dir

	if kind == config.ListAdapters && len(*remaining.List(config.ListAdapters)) > 0 {
		in.logger.Warn("adapter directory is shared with other adapters, leaving it in place", "path", dir)
		result.Kept = true
		return result, nil
	}

	if err := in.files.RemoveComponent(dir); err != nil {
		in.logger.Warn("could not delete component directory", "path", dir, "error", err)
		result.DeleteErr = err
	}
	return result, nil
}

// InstalledPath returns the directory (or, for a UI component, the file) an
// installed component occupies. Entries in the components list are artifacts
// unless only a UI file of that name exists.
func (in *Installer) InstalledPath(kind config.ListKind, name string) (string, error) {
	dir, err := in.files.ComponentDir(itemTypeFor(kind), name)
	if err != nil || kind != config.ListComponents {
		return dir, err
	}
	if info, _ := filemanager.Inspect(dir); info.Exists {
		return dir, nil
	}
	uiRoot := in.files.Layout().Root(registry.TypeUI)
	for _, candidate := range []string{
		filepath.Join(uiRoot, "ui", name+".tsx"),
		filepath.Join(uiRoot, name+".tsx"),
	} {
		if info, _ := filemanager.Inspect(candidate); info.Exists {
			return candidate, nil
		}
	}
	return dir, nil
}

// itemTypeFor maps an installed list to the item type whose directory it owns.
func itemTypeFor(kind config.ListKind) registry.ItemType {
	switch kind {
	case config.ListFeatures:
		return registry.TypeComposer
	case config.ListAdapters:
		return registry.TypeAdapter
	default:
		return registry.TypeArtifacts
	}
}
