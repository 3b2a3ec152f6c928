package main

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"certmark"
	"certmark/config"
)

var (
	rootFlags struct {
		Config   string
		LogLevel string
		Human    bool
	}

	// cfg is the loaded configuration with command-line overrides applied.
	cfg config.Config
)

var rootCmd = &cobra.Command{
	Use:           "certmark",
	Short:         "Hide short text in certificate images",
	Long:          `Embeds a rasterized text payload into the DWT/DCT domain of a grayscale image and recovers it, optionally after simulated attacks.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		if cfg, err = config.Load(rootFlags.Config); err != nil {
			return err
		}
		flags := cmd.Flags()
		if flags.Changed("log-level") {
			cfg.LogLevel = rootFlags.LogLevel
		}
		if flags.Changed("human") {
			cfg.Human = rootFlags.Human
		}

		level, err := cfg.Level()
		if err != nil {
			return err
		}
		zerolog.SetGlobalLevel(level)
		if cfg.Human {
			log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
		}
		paramFlags.apply(cmd, &cfg)
		return nil
	},
}

func init() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&rootFlags.Config, "config", "", "YAML configuration file")
	pf.StringVar(&rootFlags.LogLevel, "log-level", "info", "trace, debug, info, warn or error")
	pf.BoolVar(&rootFlags.Human, "human", false, "human-readable console logs")
}

// paramOverrides are the embedding parameters every command can override.
type paramOverrides struct {
	Iterations  int
	WorkingSize int
	PayloadSize int
	FontSize    float64
	FontPath    string
	Strength    float64
	Capacity    string
	KeepSize    bool
	NoHeader    bool
}

var paramFlags paramOverrides

func addParamFlags(cmd *cobra.Command) {
	d := config.Default().Embed
	f := cmd.Flags()
	f.IntVarP(&paramFlags.Iterations, "iterations", "k", d.Iterations, "Arnold scramble iterations")
	f.IntVar(&paramFlags.WorkingSize, "working-size", d.WorkingSize, "square working resolution")
	f.IntVar(&paramFlags.PayloadSize, "payload-size", d.PayloadSize, "payload bitmap side")
	f.Float64Var(&paramFlags.FontSize, "font-size", d.FontSize, "payload font size in points")
	f.StringVar(&paramFlags.FontPath, "font", d.FontPath, "TrueType/OpenType font file")
	f.Float64Var(&paramFlags.Strength, "strength", d.Strength, "payload coefficient scale")
	f.StringVar(&paramFlags.Capacity, "capacity", d.Capacity, "triangle or full")
	f.BoolVar(&paramFlags.KeepSize, "keep-working-size", false, "do not resize the output back to the host size")
	f.BoolVar(&paramFlags.NoHeader, "no-header", false, "do not embed a parameter header")
}

// apply copies every flag the user set onto c. Commands without parameter
// flags leave c untouched.
func (o paramOverrides) apply(cmd *cobra.Command, c *config.Config) {
	f := cmd.Flags()
	set := func(name string, fn func()) {
		if f.Lookup(name) != nil && f.Changed(name) {
			fn()
		}
	}
	set("iterations", func() { c.Embed.Iterations = o.Iterations })
	set("working-size", func() { c.Embed.WorkingSize = o.WorkingSize })
	set("payload-size", func() { c.Embed.PayloadSize = o.PayloadSize })
	set("font-size", func() { c.Embed.FontSize = o.FontSize })
	set("font", func() { c.Embed.FontPath = o.FontPath })
	set("strength", func() { c.Embed.Strength = o.Strength })
	set("capacity", func() { c.Embed.Capacity = o.Capacity })
	set("keep-working-size", func() { c.Embed.RestoreSize = !o.KeepSize })
	set("no-header", func() { c.Embed.Header = !o.NoHeader })
}

// newWatermarker builds a Watermarker from cfg. A non-empty receipt path
// replaces the embedding parameters with the receipt's.
func newWatermarker(receipt string) (*certmark.Watermarker, error) {
	p, err := cfg.Params()
	if err != nil {
		return nil, err
	}
	if receipt != "" {
		r, err := certmark.LoadReceipt(receipt)
		if err != nil {
			return nil, err
		}
		if p, err = r.Apply(p); err != nil {
			return nil, err
		}
	}
	policy, err := cfg.HeaderPolicy()
	if err != nil {
		return nil, err
	}
	opts := []certmark.Option{certmark.WithHeaderPolicy(policy)}
	rec, err := cfg.Recognizer()
	if err != nil {
		return nil, err
	}
	if rec != nil {
		opts = append(opts, certmark.WithRecognizer(rec))
	}
	return certmark.New(p, opts...)
}

// orDefault returns flag when set, otherwise the configured fallback.
func orDefault(flag, fallback string) string {
	if flag != "" {
		return flag
	}
	return fallback
}

func printf(cmd *cobra.Command, format string, a ...any) {
	fmt.Fprintf(cmd.OutOrStdout(), format, a...)
}
