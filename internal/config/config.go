package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/gofrs/flock"
	"github.com/mitchellh/go-homedir"
	"gopkg.in/yaml.v3"

	"github.com/outshift-open/hax-cli/internal/registry"
)

const (
	ConfigFile     = "hax.yml"
	JSONConfigFile = "hax.json"
)

// Format is the on-disk encoding of a config file.
type Format string

const (
	FormatYAML Format = "yaml"
	FormatJSON Format = "json"
)

// FileName returns the config file name for f.
func (f Format) FileName() string {
	if f == FormatJSON {
		return JSONConfigFile
	}
	return ConfigFile
}

// ParseFormat parses a --format value.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(s) {
	case "", "yaml", "yml":
		return FormatYAML, nil
	case "json":
		return FormatJSON, nil
	}
	return "", fmt.Errorf("unknown config format %q (use yaml or json)", s)
}

// ErrNoConfig is returned when a directory has neither hax.yml nor hax.json.
var ErrNoConfig = errors.New("config file not found: run 'hax init' first")

// ErrUnknownRegistry is returned when a name does not match a registries.sources entry.
var ErrUnknownRegistry = errors.New("unknown registry")

// Config is the project's hax.yml (or hax.json).
type Config struct {
	Schema            string          `yaml:"$schema,omitempty" json:"$schema,omitempty"`
	Version           int             `yaml:"version" json:"version"`
	Style             string          `yaml:"style,omitempty" json:"style,omitempty"`
	RegistrySource    string          `yaml:"registry_source,omitempty" json:"registry_source,omitempty"`
	FrontendPath      string          `yaml:"frontend_path,omitempty" json:"frontend_path,omitempty"`
	BackendPath       string          `yaml:"backend_path,omitempty" json:"backend_path,omitempty"`
	Artifacts         PathConfig      `yaml:"artifacts" json:"artifacts"`
	Composers         PathConfig      `yaml:"composers" json:"composers"`
	Adapters          PathConfig      `yaml:"adapters" json:"adapters"`
	Components        []ComponentItem `yaml:"components" json:"components"`
	Features          []ComponentItem `yaml:"features,omitempty" json:"features,omitempty"`
	InstalledAdapters []ComponentItem `yaml:"installedAdapters,omitempty" json:"installedAdapters,omitempty"`
	BackendFramework  string          `yaml:"backend_framework,omitempty" json:"backend_framework,omitempty"`
	FrontendFramework string          `yaml:"frontend_framework,omitempty" json:"frontend_framework,omitempty"`
	Registries        *Registries     `yaml:"registries,omitempty" json:"registries,omitempty"`

	// Format records which file the config was loaded from; Save writes it back the same way.
	Format Format `yaml:"-" json:"-"`
}

// New returns a config with defaults applied.
func New(format Format) *Config {
	c := &Config{Format: format}
	applyDefaults(c)
	return c
}

// DetectFormat reports which config file exists in dir, preferring hax.yml.
func DetectFormat(dir string) (Format, bool) {
	if _, err := os.Stat(filepath.Join(dir, ConfigFile)); err == nil {
		return FormatYAML, true
	}
	if _, err := os.Stat(filepath.Join(dir, JSONConfigFile)); err == nil {
		return FormatJSON, true
	}
	return "", false
}

// ConfigExists checks whether a config file exists in the given directory.
func ConfigExists(dir string) bool {
	_, ok := DetectFormat(dir)
	return ok
}

// LoadConfig reads and parses the config file from the given directory.
func LoadConfig(dir string) (*Config, error) {
	format, ok := DetectFormat(dir)
	if !ok {
		return nil, ErrNoConfig
	}

	data, err := os.ReadFile(filepath.Join(dir, format.FileName()))
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	var c Config
	if format == FormatJSON {
		err = json.Unmarshal(data, &c)
	} else {
		err = yaml.Unmarshal(data, &c)
	}
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", format.FileName(), err)
	}
	c.Format = format

	applyDefaults(&c)

	if err := ValidateConfig(&c); err != nil {
		return nil, err
	}

	return &c, nil
}

// SaveConfig writes the config to the given directory in its recorded format.
func SaveConfig(dir string, c *Config) error {
	applyDefaults(c)
	if err := ValidateConfig(c); err != nil {
		return err
	}

	var content []byte
	var err error
	if c.Format == FormatJSON {
		content, err = json.MarshalIndent(c, "", "  ")
		content = append(content, '\n')
	} else {
		content, err = yaml.Marshal(c)
	}
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}

	cfgPath := filepath.Join(dir, c.Format.FileName())
	tmpPath := cfgPath + ".tmp"

	if err := os.WriteFile(tmpPath, content, 0644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	if err := os.Rename(tmpPath, cfgPath); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("saving config: %w", err)
	}

	return nil
}

// Update loads the config in dir, applies fn and saves the result while holding
// an advisory lock on <config>.lock. Nothing is written if fn returns an error.
func Update(dir string, fn func(*Config) error) (*Config, error) {
	format, ok := DetectFormat(dir)
	if !ok {
		return nil, ErrNoConfig
	}

	lock := flock.New(filepath.Join(dir, format.FileName()) + ".lock")
	if err := lock.Lock(); err != nil {
		return nil, fmt.Errorf("locking config: %w", err)
	}
	defer lock.Unlock()

	c, err := LoadConfig(dir)
	if err != nil {
		return nil, err
	}
	if err := fn(c); err != nil {
		return nil, err
	}
	if err := SaveConfig(dir, c); err != nil {
		return nil, err
	}
	return c, nil
}

func applyDefaults(c *Config) {
	if c.Version == 0 {
		c.Version = defaultRegistryVersion
	}
	if c.Format == "" {
		c.Format = FormatYAML
	}
	if c.Schema == "" {
		c.Schema = DefaultSchema
	}
	if c.Style == "" {
		c.Style = DefaultStyle
	}
	if c.RegistrySource == "" {
		c.RegistrySource = DefaultRegistrySource
	}
	if c.FrontendPath == "" {
		c.FrontendPath = DefaultFrontendPath
	}
	if c.BackendPath == "" {
		c.BackendPath = DefaultBackendPath
	}
	if c.Artifacts.Path == "" {
		c.Artifacts.Path = DefaultArtifactsPath
	}
	if c.Composers.Path == "" {
		c.Composers.Path = siblingPath(c.Artifacts.Path, composersDirName)
	}
	if c.Adapters.Path == "" {
		c.Adapters.Path = siblingPath(c.Artifacts.Path, adaptersDirName)
	}
	if c.Components == nil {
		c.Components = []ComponentItem{}
	}
}

// siblingPath places name next to the last element of p, keeping p's separator style.
func siblingPath(p, name string) string {
	p = strings.TrimRight(p, "/")
	if dir := path.Dir(p); dir != "." {
		return dir + "/" + name
	}
	return name
}

// ValidateConfig checks that a Config struct has required fields.
func ValidateConfig(c *Config) error {
	if c.Version < 1 {
		return fmt.Errorf("invalid config version: %d", c.Version)
	}
	spec, err := registry.ParseSource(c.RegistrySource)
	if err != nil {
		return fmt.Errorf("invalid registry_source: %w", err)
	}
	if named, ok := spec.(registry.NamedSpec); ok && !c.hasRegistry(named.Name) {
		return fmt.Errorf("invalid registry_source: %w %q", ErrUnknownRegistry, named.Name)
	}
	if c.Registries == nil {
		return nil
	}
	for name, src := range c.Registries.Sources {
		if _, err := src.Spec(); err != nil {
			return fmt.Errorf("registry %q: %w", name, err)
		}
	}
	if d := c.Registries.Default; d != "" && !c.hasRegistry(d) {
		return fmt.Errorf("registries.default: %w %q", ErrUnknownRegistry, d)
	}
	for _, f := range c.Registries.Fallback {
		if !c.hasRegistry(f) {
			return fmt.Errorf("registries.fallback: %w %q", ErrUnknownRegistry, f)
		}
	}
	return nil
}

func (c *Config) hasRegistry(name string) bool {
	if c.Registries == nil {
		return false
	}
	_, ok := c.Registries.Sources[name]
	return ok
}

// Source returns the parsed registry_source. ValidateConfig guarantees it parses.
func (c *Config) Source() registry.SourceSpec {
	return registry.ParseSourceLenient(c.RegistrySource)
}

// NamedSources returns the specs of the registries map, keyed by name.
func (c *Config) NamedSources() map[string]registry.SourceSpec {
	out := make(map[string]registry.SourceSpec)
	if c.Registries == nil {
		return out
	}
	for name, src := range c.Registries.Sources {
		if spec, err := src.Spec(); err == nil {
			out[name] = spec
		}
	}
	return out
}

// SourceChain returns the sources to consult in order: primary (or
// registry_source when primary is nil), then registries.default, then
// registries.fallback.
func (c *Config) SourceChain(primary registry.SourceSpec) []registry.SourceSpec {
	if primary == nil {
		primary = c.Source()
	}
	chain := []registry.SourceSpec{primary}
	if c.Registries == nil {
		return chain
	}
	names := append([]string{c.Registries.Default}, c.Registries.Fallback...)
	for _, name := range names {
		if _, ok := c.Registries.Sources[name]; name != "" && ok {
			chain = append(chain, registry.NamedSpec{Name: name})
		}
	}
	return chain
}

// List returns a pointer to one of the installed-component lists.
func (c *Config) List(kind ListKind) *[]ComponentItem {
	switch kind {
	case ListFeatures:
		return &c.Features
	case ListAdapters:
		return &c.InstalledAdapters
	default:
		return &c.Components
	}
}

// Contains reports whether name is recorded in the given list.
func (c *Config) Contains(kind ListKind, name string) bool {
	return indexOf(*c.List(kind), name) >= 0
}

// AddComponent records item in the given list unless a component with the
// same name is already there. It reports whether the list changed.
func (c *Config) AddComponent(kind ListKind, item ComponentItem) bool {
	list := c.List(kind)
	if indexOf(*list, item.Name) >= 0 {
		return false
	}
	*list = append(*list, item)
	return true
}

// FindInstalled looks name up in RemoveOrder and returns the first list containing it.
func (c *Config) FindInstalled(name string) (ListKind, bool) {
	for _, kind := range RemoveOrder {
		if c.Contains(kind, name) {
			return kind, true
		}
	}
	return "", false
}

// RemoveComponent splices name out of the given list. It reports whether it was present.
func (c *Config) RemoveComponent(kind ListKind, name string) bool {
	list := c.List(kind)
	i := indexOf(*list, name)
	if i < 0 {
		return false
	}
	*list = append((*list)[:i], (*list)[i+1:]...)
	return true
}

func indexOf(list []ComponentItem, name string) int {
	for i, item := range list {
		if item.Name == name {
			return i
		}
	}
	return -1
}

// ExpandPath resolves a leading ~ to the user's home directory.
func ExpandPath(p string) (string, error) {
	return homedir.Expand(p)
}

// ResolvePath turns a config path into a path usable from the process, relative to projectDir.
func ResolvePath(projectDir, p string) (string, error) {
	expanded, err := ExpandPath(p)
	if err != nil {
		return "", fmt.Errorf("expanding %q: %w", p, err)
	}
	if filepath.IsAbs(expanded) {
		return filepath.Clean(expanded), nil
	}
	return filepath.Join(projectDir, filepath.FromSlash(expanded)), nil
}
