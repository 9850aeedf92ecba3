// Package cmd defines the CLI commands for setup-kustomize.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	cleanhttp "github.com/hashicorp/go-cleanhttp"
	"github.com/spf13/cobra"

	"github.com/donaldgifford/setup-kustomize/internal/actions"
	"github.com/donaldgifford/setup-kustomize/internal/config"
	"github.com/donaldgifford/setup-kustomize/internal/getter"
	"github.com/donaldgifford/setup-kustomize/internal/release"
	"github.com/donaldgifford/setup-kustomize/internal/setup"
	"github.com/donaldgifford/setup-kustomize/internal/toolcache"
	"github.com/donaldgifford/setup-kustomize/internal/tools"
	"github.com/donaldgifford/setup-kustomize/internal/ui"
)

var (
	verbose bool
	noColor bool

	cfg *config.Config
)

// rootCmd installs kustomize when run without a subcommand.
var rootCmd = &cobra.Command{
	Use:   "setup-kustomize",
	Short: "Install a kustomize release and add it to PATH",
	Long: `setup-kustomize resolves a kustomize release from the kubernetes-sigs/kustomize
GitHub releases, downloads the archive for this platform, caches the binary in the
tool cache and adds its directory to PATH.

Inside GitHub Actions the inputs come from INPUT_* variables and the binary
directory is appended to GITHUB_PATH.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		loaded, err := config.Load(cmd.Flags())
		if err != nil {
			return err
		}

		cfg = loaded
		initLogger(cfg)

		return nil
	},
	RunE: runSetup,
}

// reportedError marks an error that has already been shown to the user.
type reportedError struct {
	error
}

func (e reportedError) Unwrap() error {
	return e.error
}

// Execute runs the root command.
func Execute(ctx context.Context) error {
	err := rootCmd.ExecuteContext(ctx)
	if err != nil {
		var reported reportedError
		if !errors.As(err, &reported) {
			ui.NewWriter(noColor).Error(err.Error())
		}
	}

	return err
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")
	config.RegisterFlags(rootCmd.PersistentFlags())
}

func initLogger(c *config.Config) {
	level := slog.LevelInfo
	if verbose || c.Debug {
		level = slog.LevelDebug
	}

	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if c.Actions {
		handler = actions.NewHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}

	slog.SetDefault(slog.New(handler))
}

func runSetup(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	logger := slog.Default()
	commands := actions.NewCommands(os.Stdout, actions.Env{PathFile: cfg.PathFile, OutputFile: cfg.OutputFile})

	if err := cfg.Validate(); err != nil {
		return fail(commands, logger, err)
	}

	if cfg.Actions {
		commands.Mask(cfg.Token)
	}

	httpClient := cleanhttp.DefaultPooledClient()
	project := release.Kustomize()

	client := release.NewClient(ctx, release.ClientOpts{
		BaseURL:    cfg.APIURL,
		Token:      cfg.Token,
		UserAgent:  "setup-kustomize/" + buildVersion,
		HTTPClient: httpClient,
		Logger:     logger,
	})

	res, err := setup.Run(ctx, &setup.Opts{
		Project:          project,
		RequestedVersion: cfg.Version,
		Platform:         tools.Platform{OS: cfg.OS, Arch: cfg.Arch},
		StrictAsset:      cfg.StrictAsset,
		Resolver:         release.NewResolver(client, project, logger),
		Cache:            toolcache.New(cacheRoot(), logger),
		Fetcher: getter.New(getter.Opts{
			TempDir:    cfg.TempDir,
			HTTPClient: httpClient,
			Logger:     logger,
		}),
		Publisher: commands,
		Logger:    logger,
	})
	if err != nil {
		return fail(commands, logger, err)
	}

	logger.Debug("setup complete",
		"version", res.Version, "tag", res.Tag, "asset", res.Asset, "binary", res.Binary, "cache_hit", res.CacheHit)

	return nil
}

// fail reports err once: as a workflow error annotation inside Actions, as an
// error log line elsewhere.
func fail(commands *actions.Commands, logger *slog.Logger, err error) error {
	logger.Debug("error details", "detail", fmt.Sprintf("%+v", err))

	if cfg.Actions {
		commands.SetFailed(err.Error())
	} else {
		logger.Error(err.Error())
	}

	return reportedError{err}
}

func cacheRoot() string {
	if cfg.ToolCache != "" {
		return cfg.ToolCache
	}

	return toolcache.DefaultRoot()
}
