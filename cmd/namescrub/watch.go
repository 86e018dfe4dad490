package main

import (
	"os"
	"os/signal"
	"syscall"

	"namescrub/internal/console"
	"namescrub/internal/rename"
	"namescrub/internal/watch"

	"github.com/spf13/cobra"
)

func newWatchCmd(fv *flagValues) *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Rename the folder, then keep renaming files as they arrive",
		Long: `Runs one normal pass over the folder, then renames every matching file
created in or moved into it until interrupted. Nothing pauses in watch
mode.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true

			cfg, logger, err := setup(cmd, fv)
			if err != nil {
				return err
			}
			defer logger.Close()

			// Our own renames arrive as new clean names and are skipped.
			engine, err := rename.NewWithConfig(cfg,
				rename.WithLogger(logger),
				rename.WithSkipClean(true))
			if err != nil {
				return err
			}
			svc, err := watch.NewService(engine, logger)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			// Watch before the first pass so files landing during it queue up.
			startErr := svc.Start(cfg.Folder)
			defer svc.Stop()

			initial, err := rename.NewWithConfig(cfg,
				rename.WithLogger(logger),
				rename.WithPauser(console.NoPause{}))
			if err != nil {
				return err
			}
			if _, err := initial.Run(cfg.Folder); err != nil {
				return err
			}
			if startErr != nil {
				return startErr
			}

			logger.Infof("Watching %s for new .%s files", cfg.Folder, cfg.Ext)
			err = svc.Serve(ctx)

			status := svc.Status()
			logger.Infof("Watch stopped: %d renamed, %d failed", status.FilesProcessed, status.FilesFailed)
			return err
		},
	}
}
