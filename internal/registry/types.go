package registry

import "fmt"

// ItemType is the kind of a registry item.
type ItemType string

const (
	TypeArtifacts ItemType = "registry:artifacts"
	TypeUI        ItemType = "registry:ui"
	TypeLib       ItemType = "registry:lib"
	TypeComposer  ItemType = "registry:composer"
	TypeAdapter   ItemType = "registry:adapter"
)

// Valid reports whether t is one of the known item types.
func (t ItemType) Valid() bool {
	switch t {
	case TypeArtifacts, TypeUI, TypeLib, TypeComposer, TypeAdapter:
		return true
	}
	return false
}

// File roles. Informational only; they never change how a file is written.
const (
	FileComponent   = "registry:component"
	FileTypes       = "registry:types"
	FileHook        = "registry:hook"
	FileIndex       = "registry:index"
	FileDescription = "registry:description"
	FileConstants   = "registry:constants"
	FileLib         = "registry:lib"
)

// Item is the unit of distribution: a named bundle of files plus declared dependencies.
type Item struct {
	Name                 string   `json:"name"`
	Type                 ItemType `json:"type"`
	Dependencies         []string `json:"dependencies,omitempty"`
	RegistryDependencies []string `json:"registryDependencies,omitempty"`
	Files                []File   `json:"files"`

	// Source records where the item was resolved from, e.g. "local" or "outshift-open/hax@main".
	Source string `json:"source,omitempty"`
}

// File is a single file of an item. Path is relative to the registry root.
type File struct {
	Path    string `json:"path"`
	Type    string `json:"type"`
	Content string `json:"content,omitempty"`
}

// Category selects which metadata document an item is looked up in.
type Category string

const (
	CategoryArtifacts Category = "artifacts"
	CategoryUI        Category = "ui"
	CategoryComposer  Category = "composer"
	CategoryAdapter   Category = "adapter"
)

// ParseCategory parses a category name. The empty string means "any category".
func ParseCategory(s string) (Category, error) {
	switch c := Category(s); c {
	case "", CategoryArtifacts, CategoryUI, CategoryComposer, CategoryAdapter:
		return c, nil
	}
	return "", fmt.Errorf("unknown registry category %q", s)
}

// MetadataFile is the name of the category's metadata document.
func (c Category) MetadataFile() string {
	switch c {
	case CategoryComposer:
		return "composers.json"
	case CategoryAdapter:
		return "adapters.json"
	default:
		return string(c) + ".json"
	}
}

// FilePath derives the registry path of a file when metadata carries no explicit path.
func (c Category) FilePath(itemName, fileName string) string {
	switch c {
	case CategoryArtifacts:
		return "hax/artifacts/" + itemName + "/" + fileName
	case CategoryComposer:
		return "hax/composer/" + itemName + "/" + fileName
	case CategoryAdapter:
		return "hax/adapter/" + fileName
	default:
		return "hax/components/ui/" + fileName
	}
}

// remoteOrder is the category fallback order for remote sources.
var remoteOrder = []Category{CategoryArtifacts, CategoryUI, CategoryComposer, CategoryAdapter}

// localOrder is the category fallback order for the local catalog.
var localOrder = []Category{CategoryUI, CategoryArtifacts, CategoryComposer, CategoryAdapter}

// Metadata is a category document keyed by item name.
type Metadata map[string]MetadataEntry

// MetadataEntry describes one item in a category document.
type MetadataEntry struct {
	Type                 ItemType       `json:"type"`
	Dependencies         []string       `json:"dependencies"`
	RegistryDependencies []string       `json:"registryDependencies"`
	Files                []MetadataFile `json:"files"`
}

// MetadataFile names one file of an entry. Path, when set, wins over the derived path.
type MetadataFile struct {
	Name string `json:"name"`
	Type string `json:"type"`
	Path string `json:"path,omitempty"`
}

// ResolvedPath returns the registry path of f for the named item in category c.
func (f MetadataFile) ResolvedPath(c Category, itemName string) string {
	if f.Path != "" {
		return f.Path
	}
	return c.FilePath(itemName, f.Name)
}
