// Command htmlpdf converts a single HTML document to PDF.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"go.uber.org/automaxprocs/maxprocs"
	"go.uber.org/zap"

	htmlpdf "github.com/porticus-lab/go-native-html-pdf"
	"github.com/porticus-lab/go-native-html-pdf/internal/config"
	"github.com/porticus-lab/go-native-html-pdf/internal/logging"
)

// Version is set at build time via ldflags.
var Version = "dev"

// CLI errors.
var (
	ErrUsage           = errors.New("invalid usage")
	ErrConfig          = errors.New("invalid configuration")
	ErrInvalidPageSize = errors.New("invalid page size")
	ErrReadInput       = errors.New("reading input")
	ErrWriteOutput     = errors.New("writing output")
	ErrStartEngine     = errors.New("starting engine")
)

// Environment holds injectable dependencies for testability.
type Environment struct {
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer

	// Options are appended after the configured converter options.
	Options []htmlpdf.Option
}

// DefaultEnv returns the process environment.
func DefaultEnv() *Environment {
	return &Environment{Stdin: os.Stdin, Stdout: os.Stdout, Stderr: os.Stderr}
}

func main() {
	os.Exit(runMain(os.Args[1:], DefaultEnv()))
}

// runMain runs the CLI and returns the exit code.
func runMain(args []string, env *Environment) int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, args, env); err != nil {
		fmt.Fprintf(env.Stderr, "htmlpdf: %v\n", err)
		return exitCodeFor(err)
	}
	return ExitSuccess
}

func run(ctx context.Context, args []string, env *Environment) error {
	flags, fs, err := parseFlags(args, env.Stderr)
	if err != nil {
		return err
	}
	if flags.help {
		printUsage(env.Stdout, fs)
		return nil
	}
	if flags.version {
		fmt.Fprintln(env.Stdout, Version)
		return nil
	}
	if fs.NArg() != 1 {
		return fmt.Errorf("%w: expected exactly one input, got %d", ErrUsage, fs.NArg())
	}
	input := fs.Arg(0)

	var output htmlpdf.OutputKind
	switch flags.mode {
	case "bytes":
		output = htmlpdf.OutputBytes
	case "file":
		output = htmlpdf.OutputFile
		if input == "-" {
			return fmt.Errorf("%w: file mode needs an input path, not stdin", ErrUsage)
		}
	default:
		return fmt.Errorf("%w: unknown mode %q", ErrUsage, flags.mode)
	}

	ps, err := resolvePageSize(flags.size, flags.width, flags.height)
	if err != nil {
		return err
	}

	cfg, err := config.Load(flags.configPath, fs)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrConfig, err)
	}
	log, err := logging.New(cfg.Log)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrConfig, err)
	}
	defer log.Sync() //nolint:errcheck

	// Error ignored: maxprocs.Set only fails if GOMAXPROCS env is invalid,
	// in which case Go runtime defaults apply.
	_, _ = maxprocs.Set(maxprocs.Logger(log.Sugar().Debugf))

	req, err := buildRequest(output, input, ps, env.Stdin)
	if err != nil {
		return err
	}

	opts := append(cfg.ConverterOptions(log), env.Options...)
	conv, err := htmlpdf.NewConverter(opts...)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrStartEngine, err)
	}
	defer conv.Close()

	res, err := conv.Convert(ctx, req)
	if err != nil {
		return err
	}
	log.Debug("conversion finished",
		zap.Stringer("output", output),
		zap.Int("pages", res.Pages()),
		zap.Int("bytes", res.Len()))

	return writeResult(res, flags.output, env.Stdout)
}

// resolvePageSize returns nil (engine default A4) when no size was asked
// for.
func resolvePageSize(name string, width, height float64) (*htmlpdf.PageSize, error) {
	if name != "" && (width != 0 || height != 0) {
		return nil, fmt.Errorf("%w: --size cannot be combined with --width/--height", ErrInvalidPageSize)
	}
	if name != "" {
		ps, ok := htmlpdf.LookupPageSize(name)
		if !ok {
			return nil, fmt.Errorf("%w: unknown size %q", ErrInvalidPageSize, name)
		}
		return &ps, nil
	}
	if width == 0 && height == 0 {
		return nil, nil
	}
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: width and height must both be positive", ErrInvalidPageSize)
	}
	return &htmlpdf.PageSize{Width: width, Height: height}, nil
}

func buildRequest(output htmlpdf.OutputKind, input string, ps *htmlpdf.PageSize, stdin io.Reader) (htmlpdf.Request, error) {
	if output == htmlpdf.OutputFile {
		abs, err := filepath.Abs(input)
		if err != nil {
			return htmlpdf.Request{}, fmt.Errorf("%w: %w", ErrReadInput, err)
		}
		return htmlpdf.FileRequest(abs, ps), nil
	}

	var (
		data []byte
		err  error
	)
	if input == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(input)
	}
	if err != nil {
		return htmlpdf.Request{}, fmt.Errorf("%w: %w", ErrReadInput, err)
	}
	return htmlpdf.BytesRequest(string(data), ps), nil
}

// writeResult copies the PDF to path, or to stdout when path is empty. In
// file mode without -o the artifact path is printed instead.
func writeResult(res *htmlpdf.Result, path string, stdout io.Writer) error {
	if path != "" {
		if err := res.WriteToFile(path, 0o644); err != nil {
			return fmt.Errorf("%w: %w", ErrWriteOutput, err)
		}
		return nil
	}
	if res.Path() != "" {
		fmt.Fprintln(stdout, res.Path())
		return nil
	}
	if _, err := res.WriteTo(stdout); err != nil {
		return fmt.Errorf("%w: %w", ErrWriteOutput, err)
	}
	return nil
}
