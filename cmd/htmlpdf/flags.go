package main

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/pflag"
)

type cliFlags struct {
	mode       string
	output     string
	size       string
	width      float64
	height     float64
	configPath string
	help       bool
	version    bool
}

// parseFlags parses args (without the program name). Flags that mirror
// configuration keys are left on the returned set for config.Load to bind.
func parseFlags(args []string, stderr io.Writer) (*cliFlags, *pflag.FlagSet, error) {
	f := &cliFlags{}
	fs := pflag.NewFlagSet("htmlpdf", pflag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() { printUsage(stderr, fs) }

	fs.StringVar(&f.mode, "mode", "bytes", "output mode: file (artifact on disk) or bytes (in memory)")
	fs.StringVarP(&f.output, "output", "o", "", "write the PDF to this path (default: stdout in bytes mode)")
	fs.StringVar(&f.size, "size", "", "named paper size: A3, A4, A5, Letter, Legal, Tabloid")
	fs.Float64Var(&f.width, "width", 0, "paper width in points (requires --height)")
	fs.Float64Var(&f.height, "height", 0, "paper height in points (requires --width)")
	fs.StringVar(&f.configPath, "config", "", "config file (default: ./htmlpdf.yaml)")
	fs.BoolVarP(&f.help, "help", "h", false, "show this help")
	fs.BoolVar(&f.version, "version", false, "print the version and exit")

	fs.Duration("timeout", 30*time.Second, "overall conversion timeout")
	fs.String("chrome-path", "", "Chrome or Chromium executable")
	fs.String("remote-url", "", "DevTools websocket URL of a running browser")
	fs.Bool("no-sandbox", false, "disable the Chrome sandbox (containers, CI)")
	fs.Bool("auto-download", false, "download Chromium when none is installed")
	fs.String("log-level", "info", "log level: debug, info, warn, error")

	if err := fs.Parse(args); err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrUsage, err)
	}
	return f, fs, nil
}

func printUsage(w io.Writer, fs *pflag.FlagSet) {
	fmt.Fprintf(w, `htmlpdf - convert an HTML document to PDF with headless Chrome

Usage:
  htmlpdf [flags] <input.html | ->

Use "-" to read HTML from stdin.

Flags:
%s
Exit codes:
  0  success
  1  general error
  2  usage or configuration error
  3  I/O error
  4  browser or engine error
  5  busy
`, fs.FlagUsages())
}
