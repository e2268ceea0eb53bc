package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/fjyeo/Open-Photo-Lab/internal/app"
	"github.com/fjyeo/Open-Photo-Lab/internal/imaging"
)

func newExportCmd(flags *globalFlags) *cobra.Command {
	var destination string

	cmd := &cobra.Command{
		Use:   "export --to DIR <path>...",
		Short: "Import images and copy them into a directory",
		Long: `Imports the given images as one batch and exports them to DIR. Existing
files are never overwritten; name collisions get a _copyN suffix.
The export is recorded in the history database.`,
		Example: `  photolab export --to ~/Desktop/picks a.jpg b.jpg`,
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := loadConfig(cmd).Get()

			sess, err := openStore(flags.dbPath)
			if err != nil {
				return err
			}
			defer sess.Close()

			con := newConsole(cmd.InOrStdin(), cmd.ErrOrStderr())
			engine := app.NewEngine(cfg, app.Deps{
				Service:  imaging.NewService(cfg.Imaging.ThumbnailQuality),
				Notifier: con,
				Recorder: sess,
			})
			defer engine.Close()

			if err := engine.ImportPaths(cmd.Context(), args); err != nil {
				return err
			}
			if err := engine.ExportTo(cmd.Context(), destination); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "exported %d images to %s\n", len(engine.Entries()), destination)
			return nil
		},
	}

	cmd.Flags().StringVar(&destination, "to", "", "destination directory")
	_ = cmd.MarkFlagRequired("to")
	return cmd
}
