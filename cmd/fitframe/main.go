// Command fitframe re-frames a still image to a target aspect ratio on the
// CPU and writes the result.
//
//	fitframe --mode trim --aspect 4:3 in.jpg out.png
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/anthonynsimon/bild/imgio"
	"github.com/phanxgames/fitstream"
	"github.com/sirupsen/logrus"
	"github.com/spf13/pflag"
)

func main() {
	pflag.Usage = func() {
		fmt.Fprintf(os.Stderr, "syntax: %s [flags] <input-image> <output-image>\n", os.Args[0])
		pflag.PrintDefaults()
	}

	mode := fitstream.FitTrim
	aspect := fitstream.FixedAspect(16.0 / 9.0)
	pflag.Var(&mode, "mode", "fit mode: trim, adapt or none")
	pflag.Var(&aspect, "aspect", `target aspect ratio, e.g. "16:9" or 1.3333`)
	panX := pflag.Float64("pan-x", 0, "horizontal pan in source UV units")
	panY := pflag.Float64("pan-y", 0, "vertical pan in source UV units")
	rotate := pflag.Float64("rotate", 0, "rotation in degrees, clockwise")
	configPath := pflag.String("config", "", "YAML config file; flags given explicitly override it")
	logLevel := pflag.String("log-level", "warning", "log level")
	pflag.Parse()
	if len(pflag.Args()) != 2 {
		pflag.Usage()
		os.Exit(1)
	}

	l := logrus.New()
	level, err := logrus.ParseLevel(*logLevel)
	if err != nil {
		l.Fatal(err)
	}
	l.SetLevel(level)
	fitstream.SetLogger(l)

	cfg := fitstream.DefaultConfig()
	if *configPath != "" {
		cfg, err = fitstream.LoadConfig(*configPath)
		if err != nil {
			l.Fatal(err)
		}
	}
	flags := pflag.CommandLine
	if *configPath == "" || flags.Changed("mode") {
		cfg.Mode = mode
	}
	if *configPath == "" || flags.Changed("aspect") {
		cfg.TargetAspect = aspect
	}
	if *configPath == "" || flags.Changed("pan-x") {
		cfg.Pan.X = *panX
	}
	if *configPath == "" || flags.Changed("pan-y") {
		cfg.Pan.Y = *panY
	}
	if *configPath == "" || flags.Changed("rotate") {
		cfg.RotationDegrees = *rotate
	}
	if cfg.TargetAspect.Screen {
		l.Fatal("fitframe has no screen; pass an explicit --aspect")
	}
	if err := cfg.Validate(); err != nil {
		l.Fatal(err)
	}

	if err := run(cfg, pflag.Arg(0), pflag.Arg(1), l); err != nil {
		l.Fatal(err)
	}
}

func run(cfg fitstream.Config, inPath, outPath string, l *logrus.Logger) error {
	l.Debugf("opening '%s'...", inPath)
	img, err := imgio.Open(inPath)
	if err != nil {
		return fmt.Errorf("open %s: %w", inPath, err)
	}
	src := fitstream.NewImageTexture(img)

	plan, err := fitstream.Plan(src.Descriptor().Size(), cfg.TargetAspect.Value, cfg.Mode)
	if err != nil {
		return err
	}
	fmt.Printf("source: %s  target aspect: %v  mode: %v\n", src.Descriptor().Size(), cfg.TargetAspect, plan.Mode)
	fmt.Printf("destination: %s  scale: (%.4f, %.4f)  content: %+v\n",
		plan.Destination, plan.Scale.X, plan.Scale.Y, plan.Content)

	engine := fitstream.NewEngine(fitstream.NewSoftBackend())
	defer engine.Dispose()

	out, err := engine.Transform(fitstream.TransformRequest{
		Source:          src,
		Pan:             cfg.Pan,
		RotationDegrees: cfg.RotationDegrees,
		Plan:            plan,
	})
	if err != nil {
		return err
	}
	exporter, ok := out.(fitstream.ImageExporter)
	if !ok {
		return fmt.Errorf("output %T cannot be exported", out)
	}
	result, err := exporter.ToImage()
	if err != nil {
		return err
	}

	var encoder imgio.Encoder
	switch strings.ToLower(filepath.Ext(outPath)) {
	case ".jpg", ".jpeg":
		encoder = imgio.JPEGEncoder(92)
	case ".bmp":
		encoder = imgio.BMPEncoder()
	default:
		encoder = imgio.PNGEncoder()
	}
	l.Debugf("writing '%s'...", outPath)
	if err := imgio.Save(outPath, result, encoder); err != nil {
		return fmt.Errorf("save %s: %w", outPath, err)
	}
	return nil
}
