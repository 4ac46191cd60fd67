package cli

import (
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/doublediamond/pkg/buildinfo"
	"github.com/matzehuels/doublediamond/pkg/cache"
	"github.com/matzehuels/doublediamond/pkg/config"
	"github.com/matzehuels/doublediamond/pkg/errors"
	"github.com/matzehuels/doublediamond/pkg/pipeline"
)

// =============================================================================
// Constants
// =============================================================================

const (
	// appName is the application name used for directories and display.
	appName = "doublediamond"

	// defaultConfigFile is written by init and picked up by other commands
	// when present in the working directory.
	defaultConfigFile = "double-diamond.toml"
)

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{Logger: newLogger(w, level)}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:          appName,
		Short:        "Doublediamond draws Double Diamond design process diagrams",
		Long:         `Doublediamond generates the Double Diamond design process diagram (Discover, Define, Develop, Deliver) as SVG, PNG or JSON geometry, from the command line, a terminal editor or a live-preview web page.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cmd.SetContext(withLogger(cmd.Context(), c.Logger))
			return nil
		},
	}

	root.SetVersionTemplate(buildinfo.Template())

	root.AddCommand(c.renderCommand())
	root.AddCommand(c.batchCommand())
	root.AddCommand(c.initCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.editCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// =============================================================================
// Runner Factory
// =============================================================================

// newRunner creates a pipeline runner for CLI use.
func (c *CLI) newRunner(noCache bool) (*pipeline.Runner, error) {
	cache, err := newCache(noCache)
	if err != nil {
		return nil, err
	}
	return pipeline.NewRunner(cache, nil, c.Logger), nil
}

func newCache(noCache bool) (cache.Cache, error) {
	if noCache {
		return cache.NewNullCache(), nil
	}
	dir, err := cacheDir()
	if err != nil {
		return cache.NewNullCache(), nil
	}
	return cache.NewFileCache(dir)
}

// =============================================================================
// Paths
// =============================================================================

// cacheDir returns the cache directory using XDG standard (~/.cache/doublediamond/).
func cacheDir() (string, error) {
	if cacheHome := os.Getenv("XDG_CACHE_HOME"); cacheHome != "" {
		return filepath.Join(cacheHome, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cache", appName), nil
}

// =============================================================================
// Input Helpers
// =============================================================================

// configSource holds the flags shared by every command that reads a diagram
// configuration.
type configSource struct {
	file string   // config file (toml, yaml or json)
	sets []string // key=value overrides
}

func (s *configSource) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&s.file, "config", "c", "", "diagram config file (.toml, .yaml, .json); defaults to ./"+defaultConfigFile+" if present")
	cmd.Flags().StringArrayVar(&s.sets, "set", nil, "override a field, e.g. --set titleText=Roadmap (repeatable)")
}

// load resolves the form state: defaults, then the config file, then --set
// overrides.
func (s *configSource) load() (config.Input, error) {
	path := s.file
	if path == "" {
		if _, err := os.Stat(defaultConfigFile); err == nil {
			path = defaultConfigFile
		}
	}

	in := config.DefaultInput()
	if path != "" {
		file, err := config.Load(path)
		if err != nil {
			return nil, err
		}
		in = in.Merge(file)
	}
	if err := applySets(in, s.sets); err != nil {
		return nil, err
	}
	return in, nil
}

// applySets applies key=value overrides. Values may be empty, which clears
// a field.
func applySets(in config.Input, sets []string) error {
	for _, kv := range sets {
		key, value, ok := strings.Cut(kv, "=")
		if !ok {
			return errors.New(errors.ErrCodeInvalidInput, "invalid --set %q (want key=value)", kv)
		}
		if err := in.Set(strings.TrimSpace(key), value); err != nil {
			return err
		}
	}
	return nil
}
