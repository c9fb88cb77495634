package installer

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/google/go-cmp/cmp"

	"github.com/outshift-open/hax-cli/internal/config"
	"github.com/outshift-open/hax-cli/internal/filemanager"
	"github.com/outshift-open/hax-cli/internal/registry"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// setupProject creates a project directory with a default hax.yml.
func setupProject(t *testing.T) (string, *config.Config) {
	t.Helper()
	dir := t.TempDir()
	cfg := config.New(config.FormatYAML)
	if err := config.SaveConfig(dir, cfg); err != nil {
		t.Fatal(err)
	}
	return dir, cfg
}

type recordingInstaller struct {
	calls [][]string
	err   error
}

func (r *recordingInstaller) Install(_ context.Context, _ string, pkgs []string) error {
	r.calls = append(r.calls, pkgs)
	return r.err
}

// mapResolver resolves from a fixed set of items.
type mapResolver map[string]*registry.Item

func (m mapResolver) Resolve(_ context.Context, name string) (*registry.Item, error) {
	item, ok := m[name]
	if !ok {
		return nil, registry.ErrNotFound
	}
	return item, nil
}

func localWorkspace() fstest.MapFS {
	return fstest.MapFS{
		"hax/artifacts/form/form.tsx":  {Data: []byte("export function Form() {}\n")},
		"hax/artifacts/form/types.ts":  {Data: []byte("export type FormField = {}\n")},
		"hax/components/ui/button.tsx": {Data: []byte("import { cn } from \"../lib/utils\"\n")},
		"hax/components/ui/input.tsx":  {Data: []byte("export const Input = 1\n")},
		"hax/components/ui/select.tsx": {Data: []byte("export const Select = 1\n")},
	}
}

func TestAddLocalFormInstallsDependencies(t *testing.T) {
	dir, cfg := setupProject(t)
	logger := discardLogger()
	chain := registry.NewResolver(nil,
		registry.WithLocalContent(localWorkspace()),
		registry.WithLogger(logger),
	).Chain(registry.LocalSpec{})
	pkgs := &recordingInstaller{}

	in, err := New(dir, cfg, chain, WithPackageInstaller(pkgs), WithLogger(logger))
	if err != nil {
		t.Fatal(err)
	}
	report, err := in.Add(context.Background(), "form", AddOptions{})
	if err != nil {
		t.Fatalf("Add() error: %v", err)
	}

	var names []string
	for _, item := range report.Items {
		names = append(names, item.Name)
	}
	if diff := cmp.Diff([]string{"form", "button", "input", "select"}, names); diff != "" {
		t.Errorf("installed items mismatch (-want +got):\n%s", diff)
	}
	if report.Items[0].Written() != 2 {
		t.Errorf("form wrote %d files, want 2", report.Items[0].Written())
	}
	if failed := report.FailedItems(); len(failed) != 0 {
		t.Errorf("FailedItems() = %v", failed)
	}

	for _, p := range []string{
		"src/hax/artifacts/form/form.tsx",
		"src/hax/artifacts/form/types.ts",
		"src/components/ui/button.tsx",
		"src/components/ui/input.tsx",
		"src/components/ui/select.tsx",
		"src/lib/utils.ts",
		"jsconfig.json",
	} {
		if _, err := os.Stat(filepath.Join(dir, filepath.FromSlash(p))); err != nil {
			t.Errorf("%s should exist: %v", p, err)
		}
	}
	button, _ := os.ReadFile(filepath.Join(dir, "src", "components", "ui", "button.tsx"))
	if !strings.Contains(string(button), `"@/lib/utils"`) {
		t.Errorf("button import not rewritten: %q", button)
	}

	saved, err := config.LoadConfig(dir)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]config.ComponentItem{{Name: "form"}}, saved.Components); diff != "" {
		t.Errorf("recorded components mismatch (-want +got):\n%s", diff)
	}
	if !report.Recorded {
		t.Error("report should mark the component as recorded")
	}

	wantDeps := []string{
		"react", "clsx", "tailwind-merge", "zod", "@copilotkit/react-core@1.10.0",
		"@radix-ui/react-slot", "class-variance-authority",
		"@radix-ui/react-select", "lucide-react",
	}
	if diff := cmp.Diff(wantDeps, report.Dependencies); diff != "" {
		t.Errorf("dependencies mismatch (-want +got):\n%s", diff)
	}
	if len(pkgs.calls) != 1 || !report.PackagesInstalled {
		t.Errorf("package installer calls = %d, installed = %v", len(pkgs.calls), report.PackagesInstalled)
	}
}

func TestAddIsIdempotent(t *testing.T) {
	dir, cfg := setupProject(t)
	chain := registry.NewResolver(nil,
		registry.WithLocalContent(localWorkspace()),
		registry.WithLogger(discardLogger()),
	).Chain(registry.LocalSpec{})
	in, err := New(dir, cfg, chain, WithLogger(discardLogger()))
	if err != nil {
		t.Fatal(err)
	}

	if _, err := in.Add(context.Background(), "form", AddOptions{SkipInstall: true}); err != nil {
		t.Fatal(err)
	}
	report, err := in.Add(context.Background(), "form", AddOptions{SkipInstall: true})
	if err != nil {
		t.Fatal(err)
	}
	if report.Recorded {
		t.Error("second add should not record the component again")
	}
	counts := report.Counts()
	if counts[filemanager.StatusUnchanged] != 5 || counts[filemanager.StatusCreated] != 0 {
		t.Errorf("second add counts = %v, want 5 unchanged", counts)
	}

	saved, _ := config.LoadConfig(dir)
	if len(saved.Components) != 1 {
		t.Errorf("components = %v, want one entry", saved.Components)
	}
}

func TestAddReportsItemWithoutFilesAsFailed(t *testing.T) {
	dir, cfg := setupProject(t)
	items := mapResolver{
		"chart": {
			Name:                 "chart",
			Type:                 registry.TypeArtifacts,
			RegistryDependencies: []string{"ghost", "absent"},
			Files:                []registry.File{{Path: "hax/artifacts/chart/chart.tsx", Content: "x"}},
		},
		// Resolved, but nothing of it could be fetched.
		"ghost": {Name: "ghost", Type: registry.TypeUI},
	}
	in, err := New(dir, cfg, items, WithLogger(discardLogger()))
	if err != nil {
		t.Fatal(err)
	}

	report, err := in.Add(context.Background(), "chart", AddOptions{SkipInstall: true})
	if err != nil {
		t.Fatalf("Add() error: %v", err)
	}
	if diff := cmp.Diff([]string{"ghost"}, report.FailedItems()); diff != "" {
		t.Errorf("FailedItems() mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"absent"}, report.Missing); diff != "" {
		t.Errorf("Missing mismatch (-want +got):\n%s", diff)
	}
	if _, err := os.Stat(filepath.Join(dir, "src", "lib", "utils.ts")); !os.IsNotExist(err) {
		t.Error("utils.ts should only be created when a UI component was written")
	}
}

func TestAddTopLevelWithoutFilesFails(t *testing.T) {
	dir, cfg := setupProject(t)
	items := mapResolver{"ghost": {Name: "ghost", Type: registry.TypeArtifacts}}
	in, err := New(dir, cfg, items, WithLogger(discardLogger()))
	if err != nil {
		t.Fatal(err)
	}

	report, err := in.Add(context.Background(), "ghost", AddOptions{})
	if err == nil {
		t.Fatal("expected an error for a component with no written files")
	}
	if len(report.Items) != 1 || !report.Items[0].Failed() {
		t.Errorf("report items = %+v", report.Items)
	}
	saved, _ := config.LoadConfig(dir)
	if len(saved.Components) != 0 {
		t.Errorf("failed component should not be recorded, got %v", saved.Components)
	}
}

func TestAddUnknownComponent(t *testing.T) {
	dir, cfg := setupProject(t)
	in, err := New(dir, cfg, mapResolver{}, WithLogger(discardLogger()))
	if err != nil {
		t.Fatal(err)
	}
	_, err = in.Add(context.Background(), "nope", AddOptions{})
	if !errors.Is(err, registry.ErrNotFound) {
		t.Errorf("Add() error = %v, want ErrNotFound", err)
	}
}

func TestAddBackendAndInstallFailure(t *testing.T) {
	dir, cfg := setupProject(t)
	items := mapResolver{
		"base-adapter": {
			Name:         "base-adapter",
			Type:         registry.TypeAdapter,
			Dependencies: []string{"@copilotkit/runtime"},
			Files:        []registry.File{{Path: "hax/adapter/index.ts", Content: "export {}\n"}},
		},
	}
	pkgs := &recordingInstaller{err: errors.New("npm exploded")}
	in, err := New(dir, cfg, items, WithPackageInstaller(pkgs), WithLogger(discardLogger()))
	if err != nil {
		t.Fatal(err)
	}

	report, err := in.Add(context.Background(), "base-adapter", AddOptions{Backend: true, Source: "local"})
	if err != nil {
		t.Fatalf("install failure should not fail Add: %v", err)
	}
	if report.PackagesInstalled || len(report.Warnings) == 0 {
		t.Errorf("report = installed %v, warnings %v", report.PackagesInstalled, report.Warnings)
	}
	if diff := cmp.Diff([][]string{{"@copilotkit/runtime@1.10.0"}}, pkgs.calls); diff != "" {
		t.Errorf("install calls mismatch (-want +got):\n%s", diff)
	}

	placeholder := filepath.Join(dir, "backend", "tools", "base-adapter", "base-adapter.py")
	data, err := os.ReadFile(placeholder)
	if err != nil {
		t.Fatalf("backend placeholder missing: %v", err)
	}
	if string(data) != "# base-adapter backend tool\n" {
		t.Errorf("placeholder content = %q", data)
	}
	if _, err := os.Stat(filepath.Join(dir, "src", "hax", "adapter", "index.ts")); err != nil {
		t.Errorf("adapter file missing: %v", err)
	}

	saved, _ := config.LoadConfig(dir)
	want := []config.ComponentItem{{Name: "base-adapter", Source: "local"}}
	if diff := cmp.Diff(want, saved.InstalledAdapters); diff != "" {
		t.Errorf("installedAdapters mismatch (-want +got):\n%s", diff)
	}
}

func TestRemoveArtifact(t *testing.T) {
	dir, cfg := setupProject(t)
	cfg.AddComponent(config.ListComponents, config.ComponentItem{Name: "form"})
	config.SaveConfig(dir, cfg)
	compDir := filepath.Join(dir, "src", "hax", "artifacts", "form")
	os.MkdirAll(compDir, 0755)
	os.WriteFile(filepath.Join(compDir, "form.tsx"), []byte("x"), 0644)

	in, err := New(dir, cfg, mapResolver{}, WithLogger(discardLogger()))
	if err != nil {
		t.Fatal(err)
	}
	var prompted string
	res, err := in.Remove(context.Background(), "form", RemoveOptions{
		Confirm: func(p string) (bool, error) { prompted = p; return true, nil },
	})
	if err != nil {
		t.Fatalf("Remove() error: %v", err)
	}
	if prompted == "" {
		t.Error("confirmation should be requested without --force")
	}
	if res.Kind != config.ListComponents || res.Dir != compDir || res.DeleteErr != nil {
		t.Errorf("Remove() = %+v", res)
	}
	if _, err := os.Stat(compDir); !os.IsNotExist(err) {
		t.Error("component directory should be deleted")
	}
	saved, _ := config.LoadConfig(dir)
	if saved.Contains(config.ListComponents, "form") {
		t.Error("form should be removed from the config")
	}
}

func TestRemoveDotEntryKeepsSiblings(t *testing.T) {
	dir, cfg := setupProject(t)
	cfg.AddComponent(config.ListComponents, config.ComponentItem{Name: "form"})
	cfg.AddComponent(config.ListComponents, config.ComponentItem{Name: "."})
	config.SaveConfig(dir, cfg)
	formDir := filepath.Join(dir, "src", "hax", "artifacts", "form")
	os.MkdirAll(formDir, 0755)
	os.WriteFile(filepath.Join(formDir, "form.tsx"), []byte("x"), 0644)

	in, err := New(dir, cfg, mapResolver{}, WithLogger(discardLogger()))
	if err != nil {
		t.Fatal(err)
	}
	res, err := in.Remove(context.Background(), ".", RemoveOptions{Force: true})
	if err != nil {
		t.Fatalf("Remove() error: %v", err)
	}
	if res.DeleteErr == nil {
		t.Errorf("Remove(\".\") = %+v, want a delete error", res)
	}
	if _, err := os.Stat(filepath.Join(formDir, "form.tsx")); err != nil {
		t.Errorf("form should survive: %v", err)
	}
}

func TestRemoveUIComponentFile(t *testing.T) {
	dir, cfg := setupProject(t)
	cfg.AddComponent(config.ListComponents, config.ComponentItem{Name: "button"})
	config.SaveConfig(dir, cfg)
	file := filepath.Join(dir, "src", "components", "ui", "button.tsx")
	os.MkdirAll(filepath.Dir(file), 0755)
	os.WriteFile(file, []byte("x"), 0644)

	in, _ := New(dir, cfg, mapResolver{}, WithLogger(discardLogger()))
	res, err := in.Remove(context.Background(), "button", RemoveOptions{Force: true})
	if err != nil {
		t.Fatalf("Remove() error: %v", err)
	}
	if res.Dir != file {
		t.Errorf("Remove() path = %q, want %q", res.Dir, file)
	}
	if _, err := os.Stat(file); !os.IsNotExist(err) {
		t.Error("UI component file should be deleted")
	}
}

func TestRemoveNotInstalled(t *testing.T) {
	dir, cfg := setupProject(t)
	in, _ := New(dir, cfg, mapResolver{}, WithLogger(discardLogger()))
	_, err := in.Remove(context.Background(), "form", RemoveOptions{Force: true})
	if !errors.Is(err, ErrNotInstalled) {
		t.Errorf("Remove() error = %v, want ErrNotInstalled", err)
	}
}

func TestRemoveCancelled(t *testing.T) {
	dir, cfg := setupProject(t)
	cfg.AddComponent(config.ListFeatures, config.ComponentItem{Name: "file-upload"})
	config.SaveConfig(dir, cfg)

	in, _ := New(dir, cfg, mapResolver{}, WithLogger(discardLogger()))
	_, err := in.Remove(context.Background(), "file-upload", RemoveOptions{
		Confirm: func(string) (bool, error) { return false, nil },
	})
	if !errors.Is(err, ErrCancelled) {
		t.Errorf("Remove() error = %v, want ErrCancelled", err)
	}
	saved, _ := config.LoadConfig(dir)
	if !saved.Contains(config.ListFeatures, "file-upload") {
		t.Error("declined remove should leave the config untouched")
	}
}

func TestRemoveLookupOrder(t *testing.T) {
	dir, cfg := setupProject(t)
	cfg.AddComponent(config.ListFeatures, config.ComponentItem{Name: "dup"})
	cfg.AddComponent(config.ListComponents, config.ComponentItem{Name: "dup"})
	config.SaveConfig(dir, cfg)

	in, _ := New(dir, cfg, mapResolver{}, WithLogger(discardLogger()))
	res, err := in.Remove(context.Background(), "dup", RemoveOptions{Force: true})
	if err != nil {
		t.Fatal(err)
	}
	if res.Kind != config.ListComponents {
		t.Errorf("Remove() matched %q, want components first", res.Kind)
	}
	saved, _ := config.LoadConfig(dir)
	if !saved.Contains(config.ListFeatures, "dup") {
		t.Error("only the first matching list should change")
	}
}

func TestRemoveSharedAdapterDirKept(t *testing.T) {
	dir, cfg := setupProject(t)
	cfg.AddComponent(config.ListAdapters, config.ComponentItem{Name: "base-adapter"})
	cfg.AddComponent(config.ListAdapters, config.ComponentItem{Name: "other-adapter"})
	config.SaveConfig(dir, cfg)
	adapterDir := filepath.Join(dir, "src", "hax", "adapter")
	os.MkdirAll(adapterDir, 0755)
	os.WriteFile(filepath.Join(adapterDir, "index.ts"), []byte("x"), 0644)

	in, _ := New(dir, cfg, mapResolver{}, WithLogger(discardLogger()))
	res, err := in.Remove(context.Background(), "base-adapter", RemoveOptions{Force: true})
	if err != nil {
		t.Fatal(err)
	}
	if res.Kind != config.ListAdapters || !res.Kept {
		t.Errorf("Remove() = %+v, want adapter dir kept", res)
	}
	if _, err := os.Stat(adapterDir); err != nil {
		t.Error("shared adapter directory should remain")
	}

	res, err = in.Remove(context.Background(), "other-adapter", RemoveOptions{Force: true})
	if err != nil {
		t.Fatal(err)
	}
	if res.Kept {
		t.Error("last adapter should delete the directory")
	}
	if _, err := os.Stat(adapterDir); !os.IsNotExist(err) {
		t.Error("adapter directory should be deleted with the last adapter")
	}
}

func TestReportSummary(t *testing.T) {
	r := &Report{
		Requested: "form",
		Items: []ItemReport{
			{Name: "form", Files: []filemanager.FileResult{
				{Status: filemanager.StatusCreated, Size: 1000},
				{Status: filemanager.StatusUnchanged, Size: 500},
			}},
			{Name: "button", Files: []filemanager.FileResult{
				{Status: filemanager.StatusFailed, Err: errors.New("boom")},
			}},
		},
	}
	want := "form: 2 components, 2 files (1 created, 0 updated, 1 unchanged, 1 failed), 1.5 kB"
	if got := r.Summary(); got != want {
		t.Errorf("Summary() = %q, want %q", got, want)
	}
}
