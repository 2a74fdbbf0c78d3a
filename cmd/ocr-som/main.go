package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	jsoniter "github.com/json-iterator/go"
	"github.com/sirupsen/logrus"

	"github.com/ironsheep/ocr-som/internal/config"
	"github.com/ironsheep/ocr-som/internal/element"
	"github.com/ironsheep/ocr-som/internal/logging"
	"github.com/ironsheep/ocr-som/internal/ocr"
	"github.com/ironsheep/ocr-som/internal/server"
	"github.com/ironsheep/ocr-som/internal/som"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Version information - set by ldflags during build
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

// run executes the command line and returns the process exit code.
func run(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("ocr-som", flag.ContinueOnError)
	fs.SetOutput(stderr)
	configPath := fs.String("config", "", "YAML configuration file (default $SOM_CONFIG)")
	showVersion := fs.Bool("version", false, "Print version information")
	fs.BoolVar(showVersion, "v", false, "Print version information")
	fs.Usage = func() { printUsage(stdout) }

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}

	cmd := fs.Arg(0)
	if *showVersion {
		cmd = "version"
	}

	switch cmd {
	case "version":
		printVersion(stdout)
		return 0
	case "help":
		printUsage(stdout)
		return 0
	case "", "serve", "mark":
	default:
		fmt.Fprintf(stderr, "unknown command %q\n\n", cmd)
		printUsage(stderr)
		return 2
	}

	cfg, cfgPath, err := config.Resolve(*configPath)
	if err != nil {
		fmt.Fprintf(stderr, "configuration error: %v\n", err)
		return 1
	}

	log, closer, err := logging.New(cfg.Config, stderr)
	if err != nil {
		fmt.Fprintf(stderr, "logging error: %v\n", err)
		return 1
	}
	defer closer.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	p := som.New(newRecognizer(cfg.OCR, log), som.WithDefaults(cfg.Detection), som.WithLogger(log))
	defer p.Close()

	if cmd == "mark" {
		return runMark(ctx, p, fs.Args()[1:], stdout, stderr)
	}

	log.WithFields(logrus.Fields{
		"version": Version,
		"commit":  GitCommit,
		"config":  cfgPath,
	}).Info("starting MCP server on stdio")

	srv := server.New(p, server.WithLogger(log), server.WithVersion(Version))
	if err := srv.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		log.WithError(err).Error("server error")
		return 1
	}
	return 0
}

// newRecognizer builds the text recognizer the configuration asks for.
// Tesseract is constructed lazily unless preloading is enabled.
func newRecognizer(cfg config.OCRConfig, log logrus.FieldLogger) ocr.Recognizer {
	if !cfg.IsEnabled() {
		log.Info("text recognition disabled")
		return ocr.Static(nil)
	}

	engineCfg := cfg.Config
	lazy := ocr.NewLazy(func() (ocr.Recognizer, error) {
		t, err := ocr.NewTesseract(engineCfg)
		if err != nil {
			return nil, err
		}
		log.WithField("languages", engineCfg.LanguageSpec()).Info("text recognizer ready")
		return t, nil
	})

	if cfg.Preload {
		if _, err := lazy.Get(); err != nil {
			log.WithError(err).Warn("text recognizer preload failed, retrying on first use")
		}
	}
	return lazy
}

// markDocument is the JSON written by the mark command.
type markDocument struct {
	Image    string            `json:"image"`
	Elements []element.Element `json:"elements"`
	Count    int               `json:"count"`
}

// runMark marks one image file and writes the marked image and the
// element list next to it (or to the given paths).
func runMark(ctx context.Context, p *som.Pipeline, args []string, stdout, stderr io.Writer) int {
	if len(args) < 1 || len(args) > 3 {
		fmt.Fprintln(stderr, "usage: ocr-som mark <input_image> [output_image] [output_json]")
		return 2
	}

	input := args[0]
	outImage, outJSON := defaultOutputs(input)
	if len(args) > 1 {
		outImage = args[1]
	}
	if len(args) > 2 {
		outJSON = args[2]
	}

	format, err := formatFor(outImage)
	if err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
		return 2
	}

	res, err := p.ProcessFile(ctx, input, som.Options{ImageFormat: format})
	if err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
		if errors.Is(err, som.ErrDetectorUnavailable) {
			fmt.Fprintf(stderr, "hint: set %s=false to mark contours only\n", config.EnvOCREnabled)
		}
		return 1
	}

	if res.AnnotationError != "" {
		fmt.Fprintf(stderr, "warning: marked image not written: %s\n", res.AnnotationError)
	} else if err := os.WriteFile(outImage, res.AnnotatedImage, 0o644); err != nil {
		fmt.Fprintf(stderr, "error: failed to write %s: %v\n", outImage, err)
		return 1
	}

	doc, err := json.MarshalIndent(markDocument{
		Image:    input,
		Elements: res.Elements,
		Count:    res.Count,
	}, "", "  ")
	if err != nil {
		fmt.Fprintf(stderr, "error: failed to encode elements: %v\n", err)
		return 1
	}
	if err := os.WriteFile(outJSON, doc, 0o644); err != nil {
		fmt.Fprintf(stderr, "error: failed to write %s: %v\n", outJSON, err)
		return 1
	}

	fmt.Fprintf(stdout, "Marked %d elements (%d text, %d contour)\n", res.Count, res.TextCount, res.ContourCount)
	if res.AnnotationError == "" {
		fmt.Fprintf(stdout, "  image: %s\n", outImage)
	}
	fmt.Fprintf(stdout, "  json:  %s\n", outJSON)
	return 0
}

// defaultOutputs derives "name_marked.ext" and "name.json" from the input
// path. Inputs in a format the encoder cannot write get a .png output.
func defaultOutputs(input string) (image, doc string) {
	ext := filepath.Ext(input)
	base := strings.TrimSuffix(input, ext)
	if _, err := formatFor(input); err != nil {
		ext = ".png"
	}
	return base + "_marked" + ext, base + ".json"
}

// formatFor maps an output file extension to an encoder format.
func formatFor(path string) (string, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".png":
		return "png", nil
	case ".jpg", ".jpeg":
		return "jpeg", nil
	}
	return "", fmt.Errorf("unsupported output image type %q (use .png, .jpg or .jpeg)", filepath.Ext(path))
}

func printVersion(w io.Writer) {
	fmt.Fprintf(w, "ocr-som %s\n", Version)
	fmt.Fprintf(w, "  Build time: %s\n", BuildTime)
	fmt.Fprintf(w, "  Git commit: %s\n", GitCommit)
	fmt.Fprintf(w, "  Tesseract:  %t\n", ocr.TesseractAvailable)
}

func printUsage(w io.Writer) {
	fmt.Fprintln(w, "ocr-som - Set-of-Mark screenshot annotation for UI agents")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Usage:")
	fmt.Fprintln(w, "  ocr-som [options] [serve]                              Run the MCP server on stdin/stdout")
	fmt.Fprintln(w, "  ocr-som [options] mark <input> [out_image] [out_json]  Mark one screenshot")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Options:")
	fmt.Fprintln(w, "  --config <file>  YAML configuration file")
	fmt.Fprintln(w, "  --version, -v    Print version information")
	fmt.Fprintln(w, "  --help, -h       Print this help message")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Environment variables (also read from .env):")
	fmt.Fprintf(w, "  %-20s Configuration file path\n", config.EnvConfig)
	fmt.Fprintf(w, "  %-20s Log level (trace, debug, info, warn, error)\n", config.EnvLogLevel)
	fmt.Fprintf(w, "  %-20s Also log to this file, rotated\n", config.EnvLogFile)
	fmt.Fprintf(w, "  %-20s Tesseract languages, e.g. eng+deu\n", config.EnvOCRLang)
	fmt.Fprintf(w, "  %-20s Directory holding *.traineddata\n", config.EnvTessdataPrefix)
	fmt.Fprintf(w, "  %-20s Set to false to skip text recognition\n", config.EnvOCREnabled)
	fmt.Fprintln(w)
	fmt.Fprintln(w, "The server communicates via MCP protocol over stdin/stdout.")
	fmt.Fprintln(w, "Configure it in your MCP client (e.g., Claude Desktop).")
}
