package main

import (
	"context"
	"errors"
	"fmt"
	"image"
	"text/tabwriter"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"certmark"
	"certmark/noise"
	"certmark/quality"
)

var runFlags struct {
	Cover string
	Text  string
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Embed, attack and extract in one go, printing a robustness table",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		w, err := newWatermarker("")
		if err != nil {
			return err
		}
		cover, err := certmark.LoadGray(orDefault(runFlags.Cover, cfg.Files.Cover))
		if err != nil {
			return err
		}
		res, err := w.EmbedText(cover, runFlags.Text)
		if err != nil {
			return err
		}

		tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "VARIANT\tPSNR\tSSIM\tTEXT\tMATCH\tVERIFIED")
		variants := append([]noise.Variant{{Name: "clean", Image: res.Watermarked}},
			noise.Variants(res.Watermarked, cfg.NoiseOptions())...)
		for _, v := range variants {
			psnr, err := quality.PSNR(cover, v.Image)
			if err != nil {
				return err
			}
			ssim, err := quality.SSIM(cover, v.Image)
			if err != nil {
				return err
			}
			text, verified, err := extractText(cmd.Context(), w, v.Image)
			if err != nil {
				return fmt.Errorf("%s: %w", v.Name, err)
			}
			fmt.Fprintf(tw, "%s\t%.2f\t%.4f\t%q\t%t\t%t\n", v.Name, psnr, ssim, text, text == runFlags.Text, verified)
		}
		return tw.Flush()
	},
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringVarP(&runFlags.Cover, "cover", "c", "", "cover image (default from config)")
	runCmd.Flags().StringVarP(&runFlags.Text, "text", "t", "HELLO", "watermark text")
	addParamFlags(runCmd)
}

// extractText runs w over img. Recognition failures and header mismatches
// caused by the attack count as unreadable text, not as errors.
func extractText(ctx context.Context, w *certmark.Watermarker, img *image.Gray) (string, bool, error) {
	res, err := w.Extract(ctx, img)
	if errors.Is(err, certmark.ErrRecognize) || certmark.IsParameterMismatch(err) {
		log.Warn().Err(err).Msg("watermark unreadable")
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return res.Text, res.Verified, nil
}
