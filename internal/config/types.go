package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/outshift-open/hax-cli/internal/registry"
)

const (
	DefaultArtifactsPath   = "src/hax/artifacts"
	DefaultFrontendPath    = "src"
	DefaultBackendPath     = "backend"
	DefaultRegistrySource  = "github:main"
	DefaultStyle           = "default"
	DefaultSchema          = "https://hax.dev/schema.json"
	composersDirName       = "composers"
	adaptersDirName        = "adapter"
	registryTypeGitHub     = "github"
	registryTypeCDN        = "cdn"
	registryTypeLocal      = "local"
	publicGitHubURL        = "https://github.com"
	publicGitHubURLAlt     = "https://github.com/"
	defaultRegistryBranch  = registry.DefaultBranch
	defaultRegistryVersion = 1
)

// PathConfig is a directory setting nested under its own key.
type PathConfig struct {
	Path string `yaml:"path" json:"path"`
}

// ComponentItem is an installed component: a bare name, or a name with the
// source it was installed from.
type ComponentItem struct {
	Name   string
	Source string
}

type componentItemFields struct {
	Name   string `yaml:"name" json:"name"`
	Source string `yaml:"source,omitempty" json:"source,omitempty"`
}

func (c ComponentItem) MarshalYAML() (interface{}, error) {
	if c.Source == "" {
		return c.Name, nil
	}
	return componentItemFields{Name: c.Name, Source: c.Source}, nil
}

func (c *ComponentItem) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		c.Name, c.Source = node.Value, ""
		return nil
	case yaml.MappingNode:
		var f componentItemFields
		if err := node.Decode(&f); err != nil {
			return err
		}
		c.Name, c.Source = f.Name, f.Source
		return nil
	}
	return fmt.Errorf("line %d: component must be a name or a {name, source} mapping", node.Line)
}

func (c ComponentItem) MarshalJSON() ([]byte, error) {
	if c.Source == "" {
		return json.Marshal(c.Name)
	}
	return json.Marshal(componentItemFields{Name: c.Name, Source: c.Source})
}

func (c *ComponentItem) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err == nil {
		c.Name, c.Source = name, ""
		return nil
	}
	var f componentItemFields
	if err := json.Unmarshal(data, &f); err != nil {
		return fmt.Errorf("component must be a name or a {name, source} object: %w", err)
	}
	c.Name, c.Source = f.Name, f.Source
	return nil
}

// Registries names alternative component sources.
type Registries struct {
	Default  string                    `yaml:"default,omitempty" json:"default,omitempty"`
	Fallback []string                  `yaml:"fallback,omitempty" json:"fallback,omitempty"`
	Sources  map[string]RegistrySource `yaml:"sources,omitempty" json:"sources,omitempty"`
}

// RegistrySource is one named entry of Registries.
type RegistrySource struct {
	Type   string `yaml:"type" json:"type"`
	Repo   string `yaml:"repo,omitempty" json:"repo,omitempty"`
	Branch string `yaml:"branch,omitempty" json:"branch,omitempty"`
	// Token may reference environment variables, e.g. ${HAX_GITHUB_TOKEN}.
	Token     string `yaml:"token,omitempty" json:"token,omitempty"`
	GitHubURL string `yaml:"githubUrl,omitempty" json:"githubUrl,omitempty"`
	URL       string `yaml:"url,omitempty" json:"url,omitempty"`
}

// Spec converts the entry into a registry source spec.
func (r RegistrySource) Spec() (registry.SourceSpec, error) {
	switch r.Type {
	case registryTypeGitHub, "":
		if r.Repo == "" {
			return nil, fmt.Errorf("github registry needs a repo")
		}
		branch := r.Branch
		if branch == "" {
			branch = defaultRegistryBranch
		}
		base := r.GitHubURL
		if base == publicGitHubURL || base == publicGitHubURLAlt {
			base = ""
		}
		return registry.GitHubSpec{
			Repo:    r.Repo,
			Branch:  branch,
			BaseURL: base,
			Token:   os.ExpandEnv(r.Token),
		}, nil
	case registryTypeCDN:
		if r.URL == "" {
			return nil, fmt.Errorf("cdn registry needs a url")
		}
		return registry.CDNSpec{BaseURL: strings.TrimRight(r.URL, "/")}, nil
	case registryTypeLocal:
		return registry.LocalSpec{}, nil
	}
	return nil, fmt.Errorf("unknown registry type %q", r.Type)
}

// ListKind identifies one of the installed-component lists.
type ListKind string

const (
	ListComponents ListKind = "components"
	ListFeatures   ListKind = "features"
	ListAdapters   ListKind = "installedAdapters"
)

// RemoveOrder is the lookup order used when removing a component.
var RemoveOrder = []ListKind{ListComponents, ListFeatures, ListAdapters}

// ListFor returns the list a top-level item of type t is recorded in.
func ListFor(t registry.ItemType) ListKind {
	switch t {
	case registry.TypeComposer:
		return ListFeatures
	case registry.TypeAdapter:
		return ListAdapters
	default:
		return ListComponents
	}
}
