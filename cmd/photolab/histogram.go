package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/fjyeo/Open-Photo-Lab/internal/imaging"
)

func newHistogramCmd(flags *globalFlags) *cobra.Command {
	var width int

	cmd := &cobra.Command{
		Use:   "histogram <path>",
		Short: "Print the luminance and RGB histogram of an image",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if width < 1 || width > imaging.Bins {
				return fmt.Errorf("--width must be between 1 and %d, got %d", imaging.Bins, width)
			}
			cfg := loadConfig(cmd).Get()
			svc := imaging.NewService(cfg.Imaging.ThumbnailQuality)

			h, err := svc.ComputeHistogram(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			for _, ds := range h.Datasets() {
				peak, mean := summarize(ds.Values)
				fmt.Fprintf(out, "%s %s peak=%-3d mean=%.1f\n",
					column(ds.Label, 10), seriesColor(ds.Label).Sprint(sparkline(ds.Values, width)), peak, mean)
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&width, "width", "w", 32, "sparkline width in columns (1-256)")
	return cmd
}

// summarize returns the fullest bucket and the mean bucket value
func summarize(values []uint64) (peak int, mean float64) {
	var total, weighted uint64
	for i, v := range values {
		if v > values[peak] {
			peak = i
		}
		total += v
		weighted += uint64(i) * v
	}
	if total == 0 {
		return 0, 0
	}
	return peak, float64(weighted) / float64(total)
}

// seriesColor matches the terminal colour to the chart series
func seriesColor(label string) *color.Color {
	switch label {
	case "Red":
		return color.New(color.FgRed)
	case "Green":
		return color.New(color.FgGreen)
	case "Blue":
		return color.New(color.FgBlue)
	}
	return color.New(color.FgWhite)
}
