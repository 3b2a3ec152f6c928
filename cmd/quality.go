package main

import (
	"github.com/spf13/cobra"

	"certmark"
	"certmark/quality"
)

var qualityFlags struct {
	Original    string
	Watermarked string
}

var qualityCmd = &cobra.Command{
	Use:   "quality",
	Short: "Compare an original and a watermarked image",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := certmark.LoadGray(orDefault(qualityFlags.Original, cfg.Files.Cover))
		if err != nil {
			return err
		}
		b, err := certmark.LoadGray(orDefault(qualityFlags.Watermarked, cfg.Files.Watermarked))
		if err != nil {
			return err
		}
		psnr, err := quality.PSNR(a, b)
		if err != nil {
			return err
		}
		ssim, err := quality.SSIM(a, b)
		if err != nil {
			return err
		}
		printf(cmd, "PSNR: %.2f dB\nSSIM: %.4f\n", psnr, ssim)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(qualityCmd)

	qualityCmd.Flags().StringVarP(&qualityFlags.Original, "original", "o", "", "original image (default from config)")
	qualityCmd.Flags().StringVarP(&qualityFlags.Watermarked, "watermarked", "w", "", "watermarked image (default from config)")
}
