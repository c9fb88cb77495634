package project

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// CopilotKitVersion is the release every @copilotkit package is pinned to.
const CopilotKitVersion = "1.10.0"

var pinnedVersions = map[string]string{
	"@copilotkit/react-core":         CopilotKitVersion,
	"@copilotkit/react-ui":           CopilotKitVersion,
	"@copilotkit/runtime":            CopilotKitVersion,
	"@copilotkit/runtime-client-gql": CopilotKitVersion,
	"@copilotkit/shared":             CopilotKitVersion,
}

// PinDependency returns pkg with its pinned version appended, if it has one.
func PinDependency(pkg string) string {
	if v, ok := pinnedVersions[pkg]; ok {
		return pkg + "@" + v
	}
	return pkg
}

// PinDependencies applies PinDependency to every package.
func PinDependencies(pkgs []string) []string {
	out := make([]string, len(pkgs))
	for i, p := range pkgs {
		out[i] = PinDependency(p)
	}
	return out
}

// PackageManager is a JavaScript package manager CLI.
type PackageManager string

const (
	NPM  PackageManager = "npm"
	PNPM PackageManager = "pnpm"
	Yarn PackageManager = "yarn"
	Bun  PackageManager = "bun"
)

var lockfiles = []struct {
	file string
	pm   PackageManager
}{
	{"pnpm-lock.yaml", PNPM},
	{"yarn.lock", Yarn},
	{"bun.lockb", Bun},
	{"bun.lock", Bun},
	{"package-lock.json", NPM},
}

// DetectPackageManager picks the package manager from the lockfile in dir, defaulting to npm.
func DetectPackageManager(dir string) PackageManager {
	for _, lf := range lockfiles {
		if _, err := os.Stat(filepath.Join(dir, lf.file)); err == nil {
			return lf.pm
		}
	}
	return NPM
}

// AddArgs returns the command line that adds pkgs to a project.
func (pm PackageManager) AddArgs(pkgs []string) []string {
	verb := "add"
	if pm == NPM {
		verb = "install"
	}
	return append([]string{string(pm), verb}, pkgs...)
}

// PackageInstaller adds packages to the project in dir.
type PackageInstaller interface {
	Install(ctx context.Context, dir string, pkgs []string) error
}

// ExecInstaller runs the project's package manager.
type ExecInstaller struct {
	// Manager overrides lockfile detection when set.
	Manager PackageManager
}

// Install runs "<pm> add <pkgs>" in dir. The command's output is returned in the error on failure.
func (e ExecInstaller) Install(ctx context.Context, dir string, pkgs []string) error {
	if len(pkgs) == 0 {
		return nil
	}
	pm := e.Manager
	if pm == "" {
		pm = DetectPackageManager(dir)
	}
	args := pm.AddArgs(pkgs)

	cmd := exec.CommandContext(ctx, args[0], args[1:]...)
	cmd.Dir = dir
	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &out
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("%s failed: %w\n%s", strings.Join(args[:2], " "), err, strings.TrimSpace(out.String()))
	}
	return nil
}
