package main

import (
	"fmt"

	"namescrub/internal/config"
	"namescrub/internal/console"
	"namescrub/internal/log"
	"namescrub/internal/rename"

	"github.com/spf13/cobra"
)

// flagValues holds raw flag values before they are merged over the config.
type flagValues struct {
	configFile string
	folder     string
	regex      string
	log        bool
	ext        string
	logLevel   string
	timezone   string
	wholeName  bool
	sort       bool
	exclude    []string
	dryRun     bool
	pause      string
}

// NewRootCmd creates the root command
func NewRootCmd() *cobra.Command {
	fv := &flagValues{}

	rootCmd := &cobra.Command{
		Use:   "namescrub",
		Short: "Strip unsafe characters from file names",
		Long: `namescrub renames every file with the chosen extension in one folder,
keeping only ASCII letters, digits, underscore and hyphen in the name.`,
		Version:       version,
		Args:          cobra.NoArgs,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true
			return runRename(cmd, fv)
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&fv.configFile, "config", "", "config file (default is $HOME/.config/namescrub/config.yaml)")
	flags.StringVarP(&fv.folder, "folder", "f", "", "folder to scan")
	flags.StringVar(&fv.regex, "regex", "", "regex override (accepted but not applied)")
	flags.BoolVar(&fv.log, "log", false, "also append log lines to logs.log")
	flags.StringVar(&fv.ext, "ext", "pdf", "extension of the files to rename, without the dot")
	flags.StringVar(&fv.logLevel, "log-level", "debug", "minimum log level (trace, debug, info, warn, error)")
	flags.StringVar(&fv.timezone, "timezone", log.DefaultTimezone, "timezone for log timestamps")
	flags.BoolVar(&fv.wholeName, "whole-name", false, "strip the extension dot along with everything else")
	flags.BoolVar(&fv.sort, "sort", false, "process files in name order")
	flags.StringArrayVar(&fv.exclude, "exclude", nil, "glob of file names to leave alone (repeatable)")
	flags.BoolVar(&fv.dryRun, "dry-run", false, "log intended renames without renaming")
	flags.StringVar(&fv.pause, "pause", console.PauseAlways, "wait for enter before exiting (always, never, auto)")

	rootCmd.AddCommand(newWatchCmd(fv))
	rootCmd.AddCommand(newSaveConfigCmd(fv))

	return rootCmd
}

// loadConfig reads the config file and lays explicitly set flags over it.
func loadConfig(cmd *cobra.Command, fv *flagValues) (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if fv.configFile != "" {
		cfg, err = config.LoadConfigFile(fv.configFile)
	} else {
		cfg, err = config.LoadConfig()
	}
	if err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	if flags.Changed("folder") {
		cfg.Folder = fv.folder
	}
	if flags.Changed("regex") {
		cfg.Regex = fv.regex
	}
	if flags.Changed("log") {
		cfg.Log = fv.log
	}
	if flags.Changed("ext") {
		cfg.Ext = fv.ext
	}
	if flags.Changed("log-level") {
		cfg.LogLevel = fv.logLevel
	}
	if flags.Changed("timezone") {
		cfg.Timezone = fv.timezone
	}
	if flags.Changed("whole-name") {
		cfg.WholeName = fv.wholeName
	}
	if flags.Changed("sort") {
		cfg.Sort = fv.sort
	}
	if flags.Changed("exclude") {
		cfg.Exclude = fv.exclude
	}
	if flags.Changed("dry-run") {
		cfg.DryRun = fv.dryRun
	}
	if flags.Changed("pause") {
		cfg.Pause = fv.pause
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// setup loads the configuration and opens the diagnostic sink.
func setup(cmd *cobra.Command, fv *flagValues) (*config.Config, *log.Logger, error) {
	cfg, err := loadConfig(cmd, fv)
	if err != nil {
		return nil, nil, err
	}

	logger, err := newLogger(cmd, cfg)
	if err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "Failed to initialize logger: %v\n", err)
		return nil, nil, &reportedError{err: err}
	}

	if cfg.Regex != "" {
		logger.Warnf("Regex override %q is ignored", cfg.Regex)
	}
	return cfg, logger, nil
}

func newLogger(cmd *cobra.Command, cfg *config.Config) (*log.Logger, error) {
	loc, err := log.LoadLocation(cfg.Timezone)
	if err != nil {
		return nil, err
	}
	level, err := log.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, err
	}

	opts := []log.Option{
		log.WithOutput(cmd.OutOrStdout()),
		log.WithLocation(loc),
		log.WithLevel(level),
	}
	if cfg.Log {
		opts = append(opts, log.WithFile(cfg.LogFile))
	}
	return log.New(opts...)
}

func runRename(cmd *cobra.Command, fv *flagValues) error {
	cfg, logger, err := setup(cmd, fv)
	if err != nil {
		return err
	}
	defer logger.Close()

	pauser, err := console.ForMode(cfg.Pause, cmd.InOrStdin())
	if err != nil {
		return err
	}

	engine, err := rename.NewWithConfig(cfg,
		rename.WithLogger(logger),
		rename.WithPauser(pauser),
		rename.WithConsole(cmd.OutOrStdout(), cmd.ErrOrStderr()))
	if err != nil {
		return err
	}

	_, err = engine.Run(cfg.Folder)
	return err
}
