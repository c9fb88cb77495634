package registry

import (
	"fmt"
	"strings"
)

// DefaultGitHubRepo is the repository GitHub sources read from unless overridden.
const DefaultGitHubRepo = "outshift-open/hax"

// DefaultBranch is used when a named GitHub source does not set one.
const DefaultBranch = "main"

// SourceSpec describes where registry items are resolved from.
// It is a closed set: LocalSpec, GitHubSpec, CDNSpec, NamedSpec and UnsupportedSpec.
type SourceSpec interface {
	fmt.Stringer
	sourceSpec()
}

// LocalSpec resolves from the catalog compiled into the binary.
type LocalSpec struct{}

// GitHubSpec resolves from category metadata documents on a GitHub branch.
type GitHubSpec struct {
	Repo   string // owner/repo; empty means the client default
	Branch string
	// BaseURL overrides https://raw.githubusercontent.com, e.g. for GitHub Enterprise.
	BaseURL string
	Token   string
}

// CDNSpec resolves full items from <BaseURL>/<name>.json.
type CDNSpec struct {
	BaseURL string
}

// NamedSpec refers to an entry of the project's registries map.
type NamedSpec struct {
	Name string
}

func (LocalSpec) sourceSpec()  {}
func (GitHubSpec) sourceSpec() {}
func (CDNSpec) sourceSpec()    {}
func (NamedSpec) sourceSpec()  {}

func (LocalSpec) String() string { return "local" }

func (s GitHubSpec) String() string {
	if s.Repo == "" && s.BaseURL == "" {
		return "github:" + s.Branch
	}
	repo := s.Repo
	if repo == "" {
		repo = DefaultGitHubRepo
	}
	if s.BaseURL != "" {
		return strings.TrimRight(s.BaseURL, "/") + "/" + repo + "@" + s.Branch
	}
	return repo + "@" + s.Branch
}

func (s CDNSpec) String() string { return "cdn:" + s.BaseURL }

func (s NamedSpec) String() string { return "repo:" + s.Name }

// ParseSource parses a source selector string.
//
//	local              the compiled-in catalog
//	github:<branch>    category metadata on a branch of the default repo
//	cdn:<url>, https:// published items under a CDN base
//	repo:<name>        an entry of the registries map
func ParseSource(s string) (SourceSpec, error) {
	switch {
	case s == "local":
		return LocalSpec{}, nil
	case strings.HasPrefix(s, "github:"):
		branch := strings.TrimPrefix(s, "github:")
		if branch == "" {
			return nil, fmt.Errorf("%w: %q has no branch", ErrUnsupportedSource, s)
		}
		return GitHubSpec{Branch: branch}, nil
	case strings.HasPrefix(s, "cdn:"):
		base := strings.TrimPrefix(s, "cdn:")
		if base == "" {
			return nil, fmt.Errorf("%w: %q has no base URL", ErrUnsupportedSource, s)
		}
		return CDNSpec{BaseURL: strings.TrimRight(base, "/")}, nil
	case strings.HasPrefix(s, "https://"):
		return CDNSpec{BaseURL: strings.TrimRight(s, "/")}, nil
	case strings.HasPrefix(s, "repo:"):
		name := strings.TrimPrefix(s, "repo:")
		if name == "" {
			return nil, fmt.Errorf("%w: %q has no repository name", ErrUnsupportedSource, s)
		}
		return NamedSpec{Name: name}, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnsupportedSource, s)
}

// MustParseSource is ParseSource for compile-time constants.
func MustParseSource(s string) SourceSpec {
	spec, err := ParseSource(s)
	if err != nil {
		panic(err)
	}
	return spec
}

// UnsupportedSpec carries a source string that matched no known form.
// Every lookup against it is NotFound.
type UnsupportedSpec struct {
	Raw string
}

func (UnsupportedSpec) sourceSpec() {}

func (s UnsupportedSpec) String() string { return s.Raw }

// ParseSourceLenient never fails; strings ParseSource rejects become UnsupportedSpec.
func ParseSourceLenient(s string) SourceSpec {
	spec, err := ParseSource(s)
	if err != nil {
		return UnsupportedSpec{Raw: s}
	}
	return spec
}
