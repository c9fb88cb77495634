// Package project inspects and prepares the consumer's JavaScript project.
package project

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/tailscale/hujson"
)

var tsConfigFiles = []string{"tsconfig.json", "tsconfig.app.json", "tsconfig.web.json"}

// IsTypeScriptProject reports whether dir has a TypeScript config.
func IsTypeScriptProject(dir string) bool {
	for _, name := range tsConfigFiles {
		if _, err := os.Stat(filepath.Join(dir, name)); err == nil {
			return true
		}
	}
	return false
}

// CompilerConfigFile returns the first TypeScript config present in dir,
// or jsconfig.json when there is none.
func CompilerConfigFile(dir string) string {
	for _, name := range tsConfigFiles {
		if _, err := os.Stat(filepath.Join(dir, name)); err == nil {
			return name
		}
	}
	return "jsconfig.json"
}

// EnsurePathAliases adds compilerOptions.baseUrl and the <prefix>/* path alias
// to the project's compiler config. A config that cannot be parsed is left
// untouched. It reports whether the file was written.
func EnsurePathAliases(dir, prefix string) (bool, error) {
	path := filepath.Join(dir, CompilerConfigFile(dir))

	cfg := map[string]any{}
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		// Compiler configs are JSON with comments and trailing commas.
		clean, err := hujson.Standardize(data)
		if err != nil {
			return false, nil
		}
		if err := json.Unmarshal(clean, &cfg); err != nil {
			return false, nil
		}
	case !errors.Is(err, fs.ErrNotExist):
		return false, fmt.Errorf("reading %s: %w", filepath.Base(path), err)
	}

	opts, _ := cfg["compilerOptions"].(map[string]any)
	if opts == nil {
		opts = map[string]any{}
	}
	paths, _ := opts["paths"].(map[string]any)
	if paths == nil {
		paths = map[string]any{}
	}

	aliasKey := prefix + "/*"
	hasAlias := false
	for key := range paths {
		if key == aliasKey || strings.HasPrefix(key, prefix+"/") {
			hasAlias = true
			break
		}
	}
	_, hasBaseURL := opts["baseUrl"]
	if hasBaseURL && hasAlias {
		return false, nil
	}

	if !hasBaseURL {
		opts["baseUrl"] = "."
	}
	if _, ok := paths[aliasKey]; !ok {
		paths[aliasKey] = []string{"./src/*"}
	}
	opts["paths"] = paths
	cfg["compilerOptions"] = opts

	out, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return false, err
	}
	if err := os.WriteFile(path, append(out, '\n'), 0644); err != nil {
		return false, fmt.Errorf("writing %s: %w", filepath.Base(path), err)
	}
	return true, nil
}
