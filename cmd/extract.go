package main

import (
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"certmark"
)

var extractFlags struct {
	In         string
	Out        string
	Receipt    string
	Recognizer string
	Tesseract  string
	PSM        int
	Policy     string
}

var extractCmd = &cobra.Command{
	Use:   "extract",
	Short: "Recover the text watermark from an image",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		f := cmd.Flags()
		if f.Changed("recognizer") {
			cfg.Extract.Recognizer = extractFlags.Recognizer
		}
		if f.Changed("tesseract") {
			cfg.Extract.TesseractPath = extractFlags.Tesseract
		}
		if f.Changed("psm") {
			cfg.Extract.PSM = extractFlags.PSM
		}
		if f.Changed("header-policy") {
			cfg.Extract.HeaderPolicy = extractFlags.Policy
		}
		in := orDefault(extractFlags.In, cfg.Files.Watermarked)
		out := orDefault(extractFlags.Out, cfg.Files.Extracted)

		w, err := newWatermarker(extractFlags.Receipt)
		if err != nil {
			return err
		}
		img, err := certmark.LoadGray(in)
		if err != nil {
			return err
		}
		res, err := w.Extract(cmd.Context(), img)
		if res != nil && res.Bitmap != nil && out != "" {
			if serr := certmark.SaveImage(out, res.Bitmap); serr != nil {
				return serr
			}
		}
		if err != nil {
			return err
		}

		log.Info().Str("in", in).Str("bitmap", out).Bool("verified", res.Verified).Msg("watermark extracted")
		printf(cmd, "%s\n", res.Text)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(extractCmd)

	f := extractCmd.Flags()
	f.StringVarP(&extractFlags.In, "in", "i", "", "watermarked image (default from config)")
	f.StringVarP(&extractFlags.Out, "out", "o", "", "where to save the recovered bitmap")
	f.StringVar(&extractFlags.Receipt, "receipt", "", "read embedding parameters from this receipt")
	f.StringVar(&extractFlags.Recognizer, "recognizer", "glyph", "glyph or tesseract")
	f.StringVar(&extractFlags.Tesseract, "tesseract", "", "tesseract binary")
	f.IntVar(&extractFlags.PSM, "psm", 7, "tesseract page segmentation mode")
	f.StringVar(&extractFlags.Policy, "header-policy", "verify", "verify, adopt or ignore")
	addParamFlags(extractCmd)
}
