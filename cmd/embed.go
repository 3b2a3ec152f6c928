package main

import (
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"certmark"
)

var embedFlags struct {
	Cover   string
	Text    string
	Out     string
	Payload string
	Receipt string
	QR      string
	QRSize  int
}

var embedCmd = &cobra.Command{
	Use:   "embed",
	Short: "Embed a text watermark into a cover image",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cover := orDefault(embedFlags.Cover, cfg.Files.Cover)
		out := orDefault(embedFlags.Out, cfg.Files.Watermarked)
		receipt := orDefault(embedFlags.Receipt, cfg.Files.Receipt)

		w, err := newWatermarker("")
		if err != nil {
			return err
		}
		src, err := certmark.LoadGray(cover)
		if err != nil {
			return err
		}
		res, err := w.EmbedText(src, embedFlags.Text)
		if err != nil {
			return err
		}
		if err := certmark.SaveImage(out, res.Watermarked); err != nil {
			return err
		}
		if path := orDefault(embedFlags.Payload, cfg.Files.Payload); path != "" {
			if err := certmark.SaveImage(path, res.Payload); err != nil {
				return err
			}
		}
		if receipt != "" {
			if err := certmark.WriteReceipt(receipt, res.Header); err != nil {
				return err
			}
		}
		if embedFlags.QR != "" {
			if err := certmark.WriteReceiptQR(embedFlags.QR, res.Header, embedFlags.QRSize); err != nil {
				return err
			}
		}

		log.Info().Str("cover", cover).Str("out", out).Str("text", embedFlags.Text).Msg("watermark embedded")
		printf(cmd, "%s\n", certmark.NewReceipt(res.Header))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(embedCmd)

	f := embedCmd.Flags()
	f.StringVarP(&embedFlags.Cover, "cover", "c", "", "cover image (default from config)")
	f.StringVarP(&embedFlags.Text, "text", "t", "", "watermark text (required)")
	embedCmd.MarkFlagRequired("text")
	f.StringVarP(&embedFlags.Out, "out", "o", "", "watermarked image path")
	f.StringVar(&embedFlags.Payload, "payload", "", "where to save the rasterized payload")
	f.StringVar(&embedFlags.Receipt, "receipt", "", "where to write the YAML receipt")
	f.StringVar(&embedFlags.QR, "qr", "", "where to write the receipt as a QR code PNG")
	f.IntVar(&embedFlags.QRSize, "qr-size", 256, "QR code side in pixels")
	addParamFlags(embedCmd)
}
