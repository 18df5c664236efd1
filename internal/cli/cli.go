// Package cli implements the command-line interface for mdstream.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/eunmann/mdstream/internal/config"
	"github.com/eunmann/mdstream/pkg/logging"
)

// Run executes the CLI with the given arguments.
func Run(args []string) error {
	return run(args, os.Stdout, os.Stderr)
}

// app carries state shared by the commands of one invocation.
type app struct {
	stdout io.Writer
	cfg    *config.Config
	closer io.Closer

	configPath string
	debug      bool
	human      bool
	logFile    string
}

func run(args []string, stdout, stderr io.Writer) error {
	a := &app{stdout: stdout}
	defer a.close()

	root := a.rootCommand()
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)
	return root.ExecuteContext(context.Background())
}

func (a *app) rootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "mdstream",
		Short: "Read, recompress and assemble repository metadata files",
		Long: "mdstream streams repository metadata through gzip, bzip2 and xz compression.\n\n" +
			"It detects the compression of existing files, decompresses them, converts between " +
			"formats while checksumming the content, and assembles primary, filelists and other " +
			"XML documents from pre-serialized package chunks.",
		SilenceErrors:     true,
		SilenceUsage:      true,
		PersistentPreRunE: a.initialize,
		RunE: func(cmd *cobra.Command, args []string) error {
			return errors.New("usage: mdstream <command> [options]\ncommands: detect, cat, convert, wrap")
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&a.configPath, "config", "", "path to a YAML config file (default $"+config.EnvVar+")")
	flags.BoolVar(&a.debug, "debug", false, "enable debug logging")
	flags.BoolVar(&a.human, "human", false, "human-friendly log output")
	flags.StringVar(&a.logFile, "log-file", "", "also write JSON logs to this file")

	root.AddCommand(
		a.detectCommand(),
		a.catCommand(),
		a.convertCommand(),
		a.wrapCommand(),
	)
	return root
}

// initialize loads the configuration and sets up logging. Flags override
// the config file.
func (a *app) initialize(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}

	flags := cmd.Flags()
	if flags.Changed("debug") {
		cfg.Log.Debug = a.debug
	}
	if flags.Changed("human") {
		cfg.Log.Human = a.human
	}
	if flags.Changed("log-file") {
		cfg.Log.File = a.logFile
	}

	a.cfg = cfg
	a.closer = logging.Init(logging.Options{
		Debug:      cfg.Log.Debug,
		Human:      cfg.Log.Human,
		File:       cfg.Log.File,
		MaxSizeMB:  cfg.Log.MaxSizeMB,
		MaxBackups: cfg.Log.MaxBackups,
	})
	return nil
}

func (a *app) close() {
	if a.closer != nil {
		a.closer.Close()
	}
}

func (a *app) printf(format string, args ...any) {
	fmt.Fprintf(a.stdout, format, args...)
}
