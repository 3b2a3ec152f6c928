package main

import (
	"os"
	"path/filepath"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"certmark"
	"certmark/noise"
)

var noiseFlags struct {
	In  string
	Dir string
}

var noiseCmd = &cobra.Command{
	Use:   "noise",
	Short: "Write blurred and noisy copies of an image",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		in := orDefault(noiseFlags.In, cfg.Files.Watermarked)
		img, err := certmark.LoadGray(in)
		if err != nil {
			return err
		}
		if err := os.MkdirAll(noiseFlags.Dir, 0o755); err != nil {
			return err
		}
		for _, v := range noise.Variants(img, cfg.NoiseOptions()) {
			path := filepath.Join(noiseFlags.Dir, v.Name+".png")
			if err := certmark.SaveImage(path, v.Image); err != nil {
				return err
			}
			log.Debug().Str("variant", v.Name).Str("path", path).Msg("variant written")
			printf(cmd, "%s\n", path)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(noiseCmd)

	noiseCmd.Flags().StringVarP(&noiseFlags.In, "in", "i", "", "image to degrade (default from config)")
	noiseCmd.Flags().StringVarP(&noiseFlags.Dir, "dir", "d", ".", "output directory")
}
