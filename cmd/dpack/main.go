// dpack packs a directory tree into a flat deduplicating archive and
// restores it.
//
//	dpack [flags] pack <source_dir> <archive_file>
//	dpack [flags] unpack <archive_file> <output_dir>
//	dpack [flags] list <archive_file>
//
// Settings come from the YAML file named by --config or DPACK_CONFIG, and
// flags given on the command line override them. The exit code is 0 on
// success and 1 on any failure.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/pflag"

	"github.com/meigma/dpack"
	"github.com/meigma/dpack/internal/config"
	"github.com/meigma/dpack/internal/digest"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

type options struct {
	configPath string
	logLevel   string
	logFormat  string
	digest     string
	chunkSize  int
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	var opts options
	flagSet := pflag.NewFlagSet("dpack", pflag.ContinueOnError)
	flagSet.SetOutput(stderr)
	flagSet.SetInterspersed(false)
	flagSet.StringVar(&opts.configPath, "config", "", "YAML config file (default: $"+config.EnvVar+")")
	flagSet.StringVar(&opts.logLevel, "log-level", "", "log level: debug, info, warn, error")
	flagSet.StringVar(&opts.logFormat, "log-format", "", "log format: text, json")
	flagSet.StringVar(&opts.digest, "digest", "", "content digest: "+strings.Join(digest.Names(), ", "))
	flagSet.IntVar(&opts.chunkSize, "chunk-size", 0, "copy and compare buffer size in bytes")
	flagSet.Usage = func() { printUsage(stderr, flagSet) }

	if err := flagSet.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return err
	}

	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return err
	}
	applyFlags(&cfg, flagSet, opts)
	if err := cfg.Validate(); err != nil {
		return err
	}
	logger, err := cfg.Log.NewLogger(stderr)
	if err != nil {
		return err
	}

	rest := flagSet.Args()
	if len(rest) == 0 {
		printUsage(stderr, flagSet)
		return errors.New("missing command")
	}
	command, operands := rest[0], rest[1:]
	switch command {
	case "pack":
		if len(operands) != 2 {
			return usageError(stderr, flagSet, "pack takes <source_dir> <archive_file>")
		}
		return runPack(ctx, cfg, logger, operands[0], operands[1])
	case "unpack":
		if len(operands) != 2 {
			return usageError(stderr, flagSet, "unpack takes <archive_file> <output_dir>")
		}
		return runUnpack(ctx, cfg, logger, operands[0], operands[1])
	case "list":
		if len(operands) != 1 {
			return usageError(stderr, flagSet, "list takes <archive_file>")
		}
		return runList(ctx, cfg, stdout, operands[0])
	default:
		return usageError(stderr, flagSet, fmt.Sprintf("unknown command %q", command))
	}
}

// applyFlags copies explicitly set flags over the loaded configuration.
func applyFlags(cfg *config.Config, flagSet *pflag.FlagSet, opts options) {
	if flagSet.Changed("log-level") {
		cfg.Log.Level = opts.logLevel
	}
	if flagSet.Changed("log-format") {
		cfg.Log.Format = opts.logFormat
	}
	if flagSet.Changed("digest") {
		cfg.Digest = opts.digest
	}
	if flagSet.Changed("chunk-size") {
		cfg.ChunkSize = opts.chunkSize
	}
}

func runPack(ctx context.Context, cfg config.Config, logger *slog.Logger, src, archive string) error {
	d, err := digest.ByName(cfg.Digest)
	if err != nil {
		return err
	}
	stats, err := dpack.Pack(ctx, src, archive,
		dpack.PackWithLogger(logger),
		dpack.PackWithDigester(d),
		dpack.PackWithChunkSize(cfg.ChunkSize))
	if err != nil {
		return fmt.Errorf("pack %s: %w", src, err)
	}
	for _, f := range stats.Failed {
		logger.Error("entry not archived", "path", f.Path, "error", f.Err)
	}
	return nil
}

func runUnpack(ctx context.Context, cfg config.Config, logger *slog.Logger, archive, out string) error {
	if _, err := dpack.Unpack(ctx, archive, out,
		dpack.UnpackWithLogger(logger),
		dpack.UnpackWithChunkSize(cfg.ChunkSize)); err != nil {
		return fmt.Errorf("unpack %s: %w", archive, err)
	}
	return nil
}

func runList(ctx context.Context, cfg config.Config, stdout io.Writer, archive string) error {
	records, err := dpack.List(ctx, archive, dpack.UnpackWithChunkSize(cfg.ChunkSize))
	if err != nil {
		return fmt.Errorf("list %s: %w", archive, err)
	}
	for _, r := range records {
		switch r.Type {
		case dpack.TypeRegular:
			fmt.Fprintf(stdout, "%10d  %-9s %s (%d bytes)\n", r.Offset, r.Type, r.Path, r.Size)
		case dpack.TypeDuplicate:
			fmt.Fprintf(stdout, "%10d  %-9s %s (%d bytes at offset %d)\n", r.Offset, r.Type, r.Path, r.Size, r.Source)
		case dpack.TypeSymlink:
			fmt.Fprintf(stdout, "%10d  %-9s %s -> %s\n", r.Offset, r.Type, r.Path, r.Target)
		case dpack.TypeLeaveDirectory:
			fmt.Fprintf(stdout, "%10d  %-9s %d\n", r.Offset, "leave", r.Decrease)
		default:
			fmt.Fprintf(stdout, "%10d  %-9s %s/\n", r.Offset, r.Type, r.Path)
		}
	}
	return nil
}

func usageError(w io.Writer, flagSet *pflag.FlagSet, msg string) error {
	printUsage(w, flagSet)
	return errors.New(msg)
}

func printUsage(w io.Writer, flagSet *pflag.FlagSet) {
	fmt.Fprintf(w, `Usage:
  dpack [flags] pack <source_dir> <archive_file>
  dpack [flags] unpack <archive_file> <output_dir>
  dpack [flags] list <archive_file>

Flags:
%s`, flagSet.FlagUsages())
}
