package registry

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
)

// requestLog counts requests per path.
type requestLog struct {
	mu    sync.Mutex
	paths map[string]int
}

func (l *requestLog) add(p string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.paths == nil {
		l.paths = make(map[string]int)
	}
	l.paths[p]++
}

func (l *requestLog) count(p string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.paths[p]
}

func setupTestServer(t *testing.T) (*httptest.Server, *requestLog) {
	t.Helper()

	testdataDir := filepath.Join("..", "..", "testdata", "registry")
	log := &requestLog{}

	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		log.add(r.URL.Path)
		data, err := os.ReadFile(filepath.Join(testdataDir, filepath.FromSlash(strings.TrimPrefix(r.URL.Path, "/"))))
		if err != nil {
			http.Error(w, "not found", 404)
			return
		}
		if filepath.Ext(r.URL.Path) == ".json" {
			w.Header().Set("Content-Type", "application/json")
		} else {
			w.Header().Set("Content-Type", "text/plain")
		}
		w.Write(data)
	})

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server, log
}

func newTestClient(server *httptest.Server, opts ...Option) *Client {
	return NewClient(append([]Option{
		WithRawBaseURL(server.URL),
		WithHTTPClient(server.Client()),
	}, opts...)...)
}

const metadataPath = "/outshift-open/hax/main/cli/src/registry/github-registry/"

func TestMetadataURL(t *testing.T) {
	client := NewClient()
	spec := GitHubSpec{Branch: "develop"}

	tests := []struct {
		cat  Category
		want string
	}{
		{CategoryArtifacts, "https://raw.githubusercontent.com/outshift-open/hax/develop/cli/src/registry/github-registry/artifacts.json"},
		{CategoryUI, "https://raw.githubusercontent.com/outshift-open/hax/develop/cli/src/registry/github-registry/ui.json"},
		{CategoryComposer, "https://raw.githubusercontent.com/outshift-open/hax/develop/cli/src/registry/github-registry/composers.json"},
		{CategoryAdapter, "https://raw.githubusercontent.com/outshift-open/hax/develop/cli/src/registry/github-registry/adapters.json"},
	}
	for _, tt := range tests {
		if got := client.MetadataURL(spec, tt.cat); got != tt.want {
			t.Errorf("MetadataURL(%s) = %q, want %q", tt.cat, got, tt.want)
		}
	}
}

func TestFetchMetadata(t *testing.T) {
	server, log := setupTestServer(t)
	client := newTestClient(server)

	ctx := context.Background()
	md, err := client.FetchMetadata(ctx, GitHubSpec{Branch: "main"}, CategoryArtifacts)
	if err != nil {
		t.Fatalf("FetchMetadata() error: %v", err)
	}

	form, ok := md["form"]
	if !ok {
		t.Fatal("metadata should contain form")
	}
	if len(form.Files) != 3 {
		t.Errorf("Files len = %d, want 3", len(form.Files))
	}
	if len(form.RegistryDependencies) != 1 || form.RegistryDependencies[0] != "button" {
		t.Errorf("RegistryDependencies = %v, want [button]", form.RegistryDependencies)
	}

	// Second call should use cache
	if _, err := client.FetchMetadata(ctx, GitHubSpec{Branch: "main"}, CategoryArtifacts); err != nil {
		t.Fatalf("cached FetchMetadata() error: %v", err)
	}
	if n := log.count(metadataPath + "artifacts.json"); n != 1 {
		t.Errorf("artifacts.json fetched %d times, want 1", n)
	}
}

func TestFetchMetadataNotFoundIsCached(t *testing.T) {
	server, log := setupTestServer(t)
	client := newTestClient(server)

	ctx := context.Background()
	for i := 0; i < 3; i++ {
		_, err := client.FetchMetadata(ctx, GitHubSpec{Branch: "main"}, CategoryComposer)
		var httpErr *HTTPError
		if !errors.As(err, &httpErr) || !httpErr.IsNotFound() {
			t.Fatalf("FetchMetadata() error = %v, want 404 HTTPError", err)
		}
	}
	if n := log.count(metadataPath + "composers.json"); n != 1 {
		t.Errorf("composers.json fetched %d times, want 1", n)
	}
}

func TestFetchMetadataParseError(t *testing.T) {
	server, _ := setupTestServer(t)
	client := newTestClient(server)

	_, err := client.FetchMetadata(context.Background(), GitHubSpec{Branch: "main"}, CategoryAdapter)
	var parseErr *ParseError
	if !errors.As(err, &parseErr) {
		t.Fatalf("FetchMetadata() error = %v, want ParseError", err)
	}
}

func TestAuthToken(t *testing.T) {
	var receivedAuth, receivedAgent string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		receivedAuth = r.Header.Get("Authorization")
		receivedAgent = r.Header.Get("User-Agent")
		json.NewEncoder(w).Encode(Metadata{})
	}))
	defer server.Close()

	client := newTestClient(server, WithToken("test-token-123"))
	client.FetchMetadata(context.Background(), GitHubSpec{Branch: "main"}, CategoryUI)

	if receivedAuth != "token test-token-123" {
		t.Errorf("Authorization = %q, want %q", receivedAuth, "token test-token-123")
	}
	if receivedAgent != "hax-cli" {
		t.Errorf("User-Agent = %q, want %q", receivedAgent, "hax-cli")
	}
}

func TestNoTokenOmitsHeader(t *testing.T) {
	sawHeader := false
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, sawHeader = r.Header["Authorization"]
		json.NewEncoder(w).Encode(Metadata{})
	}))
	defer server.Close()

	client := newTestClient(server)
	client.FetchMetadata(context.Background(), GitHubSpec{Branch: "main"}, CategoryUI)

	if sawHeader {
		t.Error("Authorization header should be omitted without a token")
	}
}

func TestSpecTokenOverridesClientToken(t *testing.T) {
	var receivedAuth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		receivedAuth = r.Header.Get("Authorization")
		w.Write([]byte("x"))
	}))
	defer server.Close()

	client := newTestClient(server, WithToken("default"))
	client.FetchFile(context.Background(), GitHubSpec{Branch: "main", Token: "override"}, "hax/a.ts")

	if receivedAuth != "token override" {
		t.Errorf("Authorization = %q, want %q", receivedAuth, "token override")
	}
}

func TestHTMLResponseRejected(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Write([]byte("<html>login</html>"))
	}))
	defer server.Close()

	client := newTestClient(server)
	if _, err := client.FetchFile(context.Background(), GitHubSpec{Branch: "main"}, "hax/a.ts"); err == nil {
		t.Error("HTML response should be an error")
	}
}

func TestResponseSizeLimit(t *testing.T) {
	oversized := strings.Repeat("x", maxResponseSize+1024)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(oversized))
	}))
	defer server.Close()

	client := newTestClient(server)
	data, err := client.FetchFile(context.Background(), GitHubSpec{Branch: "main"}, "hax/huge.ts")
	if err == nil {
		t.Fatalf("oversized response should be an error, got %d bytes", len(data))
	}

	exact := strings.Repeat("x", maxResponseSize)
	server2 := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(exact))
	}))
	defer server2.Close()
	data, err = newTestClient(server2).FetchFile(context.Background(), GitHubSpec{Branch: "main"}, "hax/big.ts")
	if err != nil || len(data) != maxResponseSize {
		t.Errorf("response at the limit = %d bytes, %v", len(data), err)
	}
}

func TestEnterpriseContentsAPI(t *testing.T) {
	var gotPath, gotRef string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotRef = r.URL.Query().Get("ref")
		json.NewEncoder(w).Encode(contentsResponse{
			Content:  base64.StdEncoding.EncodeToString([]byte("export {}\n")),
			Encoding: "base64",
		})
	}))
	defer server.Close()

	client := NewClient(WithHTTPClient(server.Client()))
	spec := GitHubSpec{Repo: "acme/hax", Branch: "release", BaseURL: server.URL}

	data, err := client.FetchFile(context.Background(), spec, "hax/adapter/index.ts")
	if err != nil {
		t.Fatalf("FetchFile() error: %v", err)
	}
	if string(data) != "export {}\n" {
		t.Errorf("content = %q, want decoded file", data)
	}
	if gotPath != "/api/v3/repos/acme/hax/contents/hax/adapter/index.ts" {
		t.Errorf("path = %q", gotPath)
	}
	if gotRef != "release" {
		t.Errorf("ref = %q, want release", gotRef)
	}
}

func TestFetchItem(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/r/badge.json" {
			http.Error(w, "not found", 404)
			return
		}
		json.NewEncoder(w).Encode(Item{
			Name:  "badge",
			Type:  TypeUI,
			Files: []File{{Path: "hax/components/ui/badge.tsx", Type: FileComponent, Content: "x"}},
		})
	}))
	defer server.Close()

	client := NewClient(WithHTTPClient(server.Client()))
	item, err := client.FetchItem(context.Background(), CDNSpec{BaseURL: server.URL + "/r"}, "badge")
	if err != nil {
		t.Fatalf("FetchItem() error: %v", err)
	}
	if item.Type != TypeUI || len(item.Files) != 1 {
		t.Errorf("item = %+v", item)
	}

	if _, err := client.FetchItem(context.Background(), CDNSpec{BaseURL: server.URL + "/r"}, "nope"); err == nil {
		t.Error("missing item should return error")
	}
}
