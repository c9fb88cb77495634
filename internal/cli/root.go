package cli

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/outshift-open/hax-cli/internal/config"
	"github.com/outshift-open/hax-cli/internal/exitcodes"
	"github.com/outshift-open/hax-cli/internal/project"
	"github.com/outshift-open/hax-cli/internal/registry"
	"github.com/outshift-open/hax-cli/internal/ui"
)

// App is the dependency container for all CLI commands.
type App struct {
	rootCmd    *cobra.Command
	version    string
	commit     string
	date       string
	config     *config.Config
	output     *ui.Output
	logger     *slog.Logger
	projectDir string
	source     string
	token      string
	repo       string
	debug      bool

	// Overridable in tests.
	rawBaseURL string
	httpClient *http.Client
	content    fs.FS
	packages   project.PackageInstaller
	confirm    func(string) (bool, error)
}

// NewApp creates the root command and registers all subcommands.
func NewApp(version, commit, date string) *App {
	app := &App{
		version: version,
		commit:  commit,
		date:    date,
		output:  ui.NewOutput(),
		confirm: ui.Confirm,
	}

	root := &cobra.Command{
		Use:   "hax",
		Short: "Add HAX artifacts, composers and adapters to your project",
		Long:  "Copies HAX components from a registry into a CopilotKit project and keeps track of them in hax.yml.",
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			app.applyEnv()
			app.setupLogger()

			// Commands that need a config call RequireProject, which reports load errors.
			_ = app.LoadProjectConfig()
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVar(&app.source, "source", "", "registry source: local, github:<branch>, cdn:<url> or repo:<name> (overrides HAX_REGISTRY_SOURCE)")
	root.PersistentFlags().StringVar(&app.token, "token", "", "GitHub token (overrides GITHUB_TOKEN)")
	root.PersistentFlags().BoolVar(&app.debug, "debug", false, "enable debug logging")
	root.PersistentFlags().StringVar(&app.projectDir, "dir", ".", "project directory")

	root.AddCommand(
		app.newInitCmd(),
		app.newAddCmd(),
		app.newRemoveCmd(),
		app.newListCmd(),
		app.newRepoCmd(),
		app.newConfigCmd(),
		app.newDoctorCmd(),
		app.newVersionCmd(),
	)

	app.rootCmd = root
	return app
}

// Execute runs the root command.
func (a *App) Execute() error {
	return a.rootCmd.Execute()
}

// ExecuteContext runs the root command with ctx available to every command.
func (a *App) ExecuteContext(ctx context.Context) error {
	return a.rootCmd.ExecuteContext(ctx)
}

func (a *App) applyEnv() {
	if env := os.Getenv("HAX_REGISTRY_SOURCE"); env != "" && a.source == "" {
		a.source = env
	}
	if a.token == "" {
		a.token = firstEnv("HAX_GITHUB_TOKEN", "GITHUB_TOKEN")
	}
	if env := os.Getenv("HAX_GITHUB_REPO"); env != "" && a.repo == "" {
		a.repo = env
	}
	if isTruthy(os.Getenv("HAX_DEBUG")) {
		a.debug = true
	}
	if ui.IsNoColor() {
		a.output.SetNoColor(true)
	}
}

func (a *App) setupLogger() {
	level := slog.LevelInfo
	if a.debug {
		level = slog.LevelDebug
	}
	a.logger = slog.New(ui.NewLogHandler(a.output, level))
}

func firstEnv(keys ...string) string {
	for _, k := range keys {
		if v := os.Getenv(k); v != "" {
			return v
		}
	}
	return ""
}

func isTruthy(v string) bool {
	return v != "" && v != "false" && v != "0"
}

// LoadProjectConfig loads the config file. Returns nil error if no config is found.
func (a *App) LoadProjectConfig() error {
	c, err := config.LoadConfig(a.projectDir)
	if errors.Is(err, config.ErrNoConfig) {
		a.config = nil
		return nil
	}
	if err != nil {
		return err
	}
	a.config = c
	return nil
}

// RequireProject loads config and returns an error if it doesn't exist.
func (a *App) RequireProject() error {
	if a.config == nil {
		if err := a.LoadProjectConfig(); err != nil {
			return &ExitError{Code: exitcodes.ConfigError, Message: err.Error()}
		}
	}
	if a.config == nil {
		return &ExitError{
			Code:    exitcodes.ConfigError,
			Message: "no " + config.ConfigFile + " found: run 'hax init' first",
		}
	}
	return nil
}

// primarySource returns the --source / HAX_REGISTRY_SOURCE override, or nil
// when the configured registry_source applies.
func (a *App) primarySource() (registry.SourceSpec, error) {
	if a.source == "" {
		return nil, nil
	}
	s := a.source
	if s == "cdn" {
		base := os.Getenv("HAX_CDN_BASE_URL")
		if base == "" {
			return nil, &ExitError{Code: exitcodes.UsageError, Message: "source cdn needs HAX_CDN_BASE_URL"}
		}
		s = "cdn:" + base
	}
	spec, err := registry.ParseSource(s)
	if err != nil {
		return nil, &ExitError{Code: exitcodes.UsageError, Message: err.Error()}
	}
	return spec, nil
}

// effectiveSource is the first source the chain consults.
func (a *App) effectiveSource() (registry.SourceSpec, error) {
	spec, err := a.primarySource()
	if err != nil || spec != nil {
		return spec, err
	}
	if a.config != nil {
		return a.config.Source(), nil
	}
	return registry.MustParseSource(config.DefaultRegistrySource), nil
}

// newRegistryClient creates a registry client with the current settings.
func (a *App) newRegistryClient() *registry.Client {
	var opts []registry.Option
	if a.rawBaseURL != "" {
		opts = append(opts, registry.WithRawBaseURL(a.rawBaseURL))
	}
	if a.repo != "" {
		opts = append(opts, registry.WithRepo(a.repo))
	}
	if a.token != "" {
		opts = append(opts, registry.WithToken(a.token))
	}
	if a.httpClient != nil {
		opts = append(opts, registry.WithHTTPClient(a.httpClient))
	}
	return registry.NewClient(opts...)
}

// newResolver creates a single-item resolver over every configured source.
func (a *App) newResolver() *registry.Resolver {
	content := a.content
	if content == nil {
		root := os.Getenv("HAX_WORKSPACE_ROOT")
		if root == "" {
			root = "."
		}
		if expanded, err := config.ExpandPath(root); err == nil {
			root = expanded
		}
		content = os.DirFS(root)
	}
	opts := []registry.ResolverOption{
		registry.WithLocalContent(content),
		registry.WithLogger(a.logger),
	}
	if a.config != nil {
		opts = append(opts, registry.WithNamedSources(a.config.NamedSources()))
	}
	return registry.NewResolver(a.newRegistryClient(), opts...)
}

// newChain builds the source chain for add: the override or registry_source,
// then the registries default and fallbacks.
func (a *App) newChain(r *registry.Resolver) (*registry.Chain, error) {
	primary, err := a.primarySource()
	if err != nil {
		return nil, err
	}
	if a.config == nil {
		spec, err := a.effectiveSource()
		if err != nil {
			return nil, err
		}
		return r.Chain(spec), nil
	}
	chain := r.Chain(a.config.SourceChain(primary)...)
	a.logger.Debug("registry sources", "chain", joinSpecs(chain.Specs()))
	return chain, nil
}

func joinSpecs(specs []registry.SourceSpec) string {
	parts := make([]string, len(specs))
	for i, s := range specs {
		parts[i] = s.String()
	}
	return strings.Join(parts, " -> ")
}

func (a *App) newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			a.output.Info("hax %s (commit: %s, built: %s)", a.version, a.commit, a.date)
		},
	}
}

// ExitError represents an error with a specific exit code.
type ExitError struct {
	Code    int
	Message string
}

func (e *ExitError) Error() string {
	return e.Message
}
