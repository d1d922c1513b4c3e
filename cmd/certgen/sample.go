package main

import (
	"fmt"
	"image"
	"image/color"
	"path/filepath"

	"certgen/internal/utils"

	"github.com/disintegration/imaging"
	"github.com/spf13/cobra"
)

func sampleCommand() *cobra.Command {
	var (
		dir    string
		sample utils.SampleRosterConfig
	)

	cmd := &cobra.Command{
		Use:   "sample",
		Short: "Write a sample roster and a blank template to try the pipeline",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rosterPath := filepath.Join(dir, "roster.csv")
			valid, malformed, err := utils.NewSampleRosterGenerator(sample).WriteFile(rosterPath)
			if err != nil {
				return err
			}

			templatePath := filepath.Join(dir, "template.png")
			if err := imaging.Save(blankTemplate(1200, 900), templatePath); err != nil {
				return fmt.Errorf("failed to write template: %w", err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Roster: %s (%d valid, %d malformed, %s)\n", rosterPath, valid, malformed, sample.Encoding)
			fmt.Fprintf(out, "Template: %s\n", templatePath)
			return nil
		},
	}

	cmd.Flags().StringVar(&dir, "dir", "sample", "output directory")
	cmd.Flags().IntVar(&sample.Rows, "rows", 10, "number of valid rows")
	cmd.Flags().StringVar(&sample.Encoding, "encoding", "utf-8", "roster encoding (utf-8, iso-8859-1, windows-1252, utf-16)")
	cmd.Flags().IntVar(&sample.MalformedEvery, "malformed-every", 0, "insert a malformed row after every n valid rows")
	cmd.Flags().Int64Var(&sample.Seed, "seed", 1, "random seed")

	return cmd
}

// blankTemplate is an off-white page with a thin frame.
func blankTemplate(width, height int) *image.NRGBA {
	frame := imaging.New(width, height, color.NRGBA{R: 40, G: 60, B: 110, A: 255})
	page := imaging.New(width-40, height-40, color.NRGBA{R: 252, G: 250, B: 244, A: 255})
	return imaging.Paste(frame, page, image.Pt(20, 20))
}
