package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/fjyeo/Open-Photo-Lab/internal/app"
	"github.com/fjyeo/Open-Photo-Lab/internal/imaging"
)

func newInspectCmd(flags *globalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "inspect <path>...",
		Short: "Import images and list their catalog entries",
		Long: `Imports the given images (directories are expanded) and prints one row per
catalog entry: name, original dimensions, format, file size and thumbnail size.
Images that fail to load are reported and skipped.`,
		Example: `  photolab inspect ~/Pictures/trip
  photolab inspect a.jpg b.png`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := loadConfig(cmd).Get()
			cfg.Import.KeepPartial = true

			engine := app.NewEngine(cfg, app.Deps{
				Service: imaging.NewService(cfg.Imaging.ThumbnailQuality),
			})
			defer engine.Close()

			err := engine.ImportPaths(cmd.Context(), args)
			var partial *app.PartialImportError
			if err != nil && !errors.As(err, &partial) {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s %s %s %s %s\n",
				column("NAME", 32), column("SIZE", 11), column("FORMAT", 6), column("FILE", 9), "THUMB")
			for _, e := range engine.Entries() {
				fileSize := "?"
				if info, statErr := os.Stat(e.SourcePath); statErr == nil {
					fileSize = humanize.Bytes(uint64(info.Size()))
				}
				dims, format, thumbSize := "", "", ""
				if e.Thumbnail != nil {
					dims = fmt.Sprintf("%dx%d", e.Thumbnail.Width, e.Thumbnail.Height)
					format = e.Thumbnail.Format
					thumbSize = humanize.Bytes(uint64(len(e.Thumbnail.Thumbnail)))
				}
				fmt.Fprintf(out, "%s %s %s %s %s\n",
					column(e.DisplayName, 32), column(dims, 11), column(format, 6), column(fileSize, 9), thumbSize)
			}

			if partial != nil {
				for _, p := range partial.Failed {
					fmt.Fprintf(cmd.ErrOrStderr(), "failed: %s\n", p)
				}
				return fmt.Errorf("%d of %d images could not be loaded",
					len(partial.Failed), len(partial.Failed)+len(engine.Entries()))
			}
			return nil
		},
	}
	return cmd
}
