package project

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// Framework is a frontend framework found in package.json.
type Framework struct {
	Name  string // nextjs, vite, react
	Major string // major version, may be empty
}

func (f Framework) String() string {
	if f.Major == "" {
		return f.Name
	}
	return f.Name + "@" + f.Major
}

type packageJSON struct {
	Dependencies    map[string]string `json:"dependencies"`
	DevDependencies map[string]string `json:"devDependencies"`
}

// HasPackageJSON reports whether dir contains package.json.
func HasPackageJSON(dir string) bool {
	_, err := os.Stat(filepath.Join(dir, "package.json"))
	return err == nil
}

// DetectFramework reads dir/package.json and reports the frontend framework.
// The zero Framework means none was recognized.
func DetectFramework(dir string) (Framework, error) {
	data, err := os.ReadFile(filepath.Join(dir, "package.json"))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Framework{}, nil
		}
		return Framework{}, fmt.Errorf("reading package.json: %w", err)
	}

	var pkg packageJSON
	if err := json.Unmarshal(data, &pkg); err != nil {
		return Framework{}, fmt.Errorf("parsing package.json: %w", err)
	}

	version := func(name string) (string, bool) {
		if v, ok := pkg.Dependencies[name]; ok {
			return v, true
		}
		v, ok := pkg.DevDependencies[name]
		return v, ok
	}

	// Order matters: a Next.js project also depends on react.
	for _, candidate := range []struct{ pkg, name string }{
		{"next", "nextjs"},
		{"vite", "vite"},
		{"react", "react"},
	} {
		if v, ok := version(candidate.pkg); ok {
			return Framework{Name: candidate.name, Major: extractMajorVersion(v)}, nil
		}
	}
	return Framework{}, nil
}

func extractMajorVersion(version string) string {
	if version == "" {
		return ""
	}

	// Remove common version prefixes and constraints
	version = strings.TrimSpace(version)
	version = strings.Split(version, "||")[0]
	version = strings.Split(version, " ")[0]
	version = strings.TrimLeft(version, "^~><>=v ")

	var major strings.Builder
	for _, r := range version {
		if r < '0' || r > '9' {
			break
		}
		major.WriteRune(r)
	}

	return major.String()
}
