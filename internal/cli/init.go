package cli

import (
	"context"
	"os"

	"github.com/spf13/cobra"

	"github.com/matzehuels/doublediamond/pkg/config"
	"github.com/matzehuels/doublediamond/pkg/errors"
)

// initCommand writes the default configuration, the file-based counterpart
// of the reset action.
func (c *CLI) initCommand() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init [path]",
		Short: "Write the default diagram config file",
		Long: `Write the default diagram configuration to path (default ` + defaultConfigFile + `).

The format follows the file extension: .toml, .yaml/.yml or .json.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := defaultConfigFile
			if len(args) == 1 {
				path = args[0]
			}
			return runInit(cmd.Context(), path, force)
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "overwrite an existing file")
	return cmd
}

func runInit(ctx context.Context, path string, force bool) error {
	logger := loggerFromContext(ctx)

	if err := errors.ValidateOutputPath(path); err != nil {
		return err
	}
	format, err := config.FormatFromPath(path)
	if err != nil {
		return err
	}
	if _, err := os.Stat(path); err == nil && !force {
		return errors.New(errors.ErrCodeInvalidPath, "%s already exists (use --force to overwrite)", path)
	}

	f, err := os.Create(path)
	if err != nil {
		return errors.Wrap(errors.ErrCodeInvalidPath, err, "create %s", path)
	}
	if err := config.Encode(f, config.Default(), format); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	logger.Debug("wrote default config", "path", path, "format", format)

	printSuccess("Wrote default config")
	printFile(path)
	if path == defaultConfigFile {
		printNextStep("Render it", appName+" render")
	} else {
		printNextStep("Render it", appName+" render "+path)
	}
	return nil
}
