package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/eunmann/mdstream/pkg/checksum"
	"github.com/eunmann/mdstream/pkg/cwrap"
	"github.com/eunmann/mdstream/pkg/fileutil"
	"github.com/eunmann/mdstream/pkg/humanfmt"
	"github.com/eunmann/mdstream/pkg/logging"
	"github.com/eunmann/mdstream/pkg/xmlfile"
)

// outputFlags are shared by the commands that produce a file.
type outputFlags struct {
	compression string
	checksum    string
	tmpDir      string
}

func (o *outputFlags) register(cmd *cobra.Command, compressionName string) {
	cmd.Flags().StringVar(&o.compression, compressionName, "", "output compression: none, gz, bz2 or xz (default from config)")
	cmd.Flags().StringVar(&o.checksum, "checksum", "", "checksum of the written content (default from config)")
	cmd.Flags().StringVar(&o.tmpDir, "tmp", "", "scratch directory for partial output; stale .tmp files in it are removed (default: next to the output)")
}

// resolve fills unset flags from the config and parses them.
func (o *outputFlags) resolve(a *app) (cwrap.Kind, checksum.Kind, error) {
	cfg := *a.cfg
	if o.compression != "" {
		cfg.Compression = o.compression
	}
	if o.checksum != "" {
		cfg.Checksum = o.checksum
	}

	compression, err := cfg.CompressionKind()
	if err != nil {
		return cwrap.Unknown, checksum.None, err
	}
	sum, err := cfg.ChecksumKind()
	if err != nil {
		return cwrap.Unknown, checksum.None, err
	}
	return compression, sum, nil
}

// scratch returns the directory for the temporary output file. A dedicated
// directory given with --tmp is cleared of leftovers first.
func (o *outputFlags) scratch(outPath string) (string, error) {
	if o.tmpDir == "" {
		return filepath.Dir(outPath), nil
	}
	if fileutil.Exists(o.tmpDir) {
		if err := fileutil.CleanupTmpFiles(o.tmpDir); err != nil {
			return "", fmt.Errorf("clean tmp dir: %w", err)
		}
	}
	return o.tmpDir, nil
}

func (a *app) convertCommand() *cobra.Command {
	var (
		out   outputFlags
		input string
	)

	cmd := &cobra.Command{
		Use:   "convert IN OUT",
		Short: "Recompress a file",
		Long: "Recompress IN into OUT, reporting the content size, checksum and compression ratio.\n\n" +
			"IN may be an s3:// URI. OUT is written through a temporary file and renamed into place when complete.",
		Example: `  # Recompress a gzip primary.xml as xz with a sha256 of the content
  mdstream convert --to xz --checksum sha256 primary.xml.gz primary.xml.xz`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			inKind, err := cwrap.ParseKind(input)
			if err != nil {
				return fmt.Errorf("--compression: %w", err)
			}
			outKind, sumKind, err := out.resolve(a)
			if err != nil {
				return err
			}
			inputs, cleanup, err := localInputs(cmd.Context(), args[:1])
			if err != nil {
				return err
			}
			defer cleanup()
			return a.convert(inputs[0], args[1], inKind, outKind, sumKind, &out)
		},
	}
	out.register(cmd, "to")
	cmd.Flags().StringVar(&input, "compression", "auto", "input compression: auto, none, gz, bz2 or xz")
	return cmd
}

func (a *app) convert(inPath, outPath string, inKind, outKind cwrap.Kind, sumKind checksum.Kind, out *outputFlags) error {
	log := logging.WithComponent("convert")
	start := time.Now()

	src, err := cwrap.Open(inPath, cwrap.Read, inKind, nil)
	if err != nil {
		return err
	}
	defer src.Close()

	tmpDir, err := out.scratch(outPath)
	if err != nil {
		return err
	}

	stats := cwrap.NewContentStats(sumKind)
	err = fileutil.WriteTmpThenMove(tmpDir, outPath, func(tmpPath string) error {
		dst, err := cwrap.Open(tmpPath, cwrap.Write, outKind, stats)
		if err != nil {
			return err
		}
		if _, err := io.Copy(dst, src); err != nil {
			dst.Close()
			return fmt.Errorf("copy %s: %w", inPath, err)
		}
		return dst.Close()
	})
	if err != nil {
		return fmt.Errorf("convert %s: %w", inPath, err)
	}

	log.Debug().Str("in", inPath).Stringer("from", src.Kind()).Stringer("to", outKind).Msg("converted")
	event := logging.FileWritten(*logging.L(), "convert", time.Since(start)).
		Str("source_compression", src.Kind().String())
	return a.report(event, outPath, outKind, stats)
}

func (a *app) wrapCommand() *cobra.Command {
	var (
		out     outputFlags
		docType string
		count   int
		outPath string
	)

	cmd := &cobra.Command{
		Use:   "wrap --type KIND --out OUT CHUNK...",
		Short: "Assemble a metadata XML document from package chunks",
		Long: "Assemble a primary, filelists or other document from files holding one " +
			"pre-serialized package fragment each, in the order given.\n\n" +
			"The document is never written over an existing file.",
		Example: `  # Build primary.xml.gz from two package fragments
  mdstream wrap --type primary --out primary.xml.gz --compression gz bash.xml zsh.xml`,
		Args: cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if outPath == "" {
				return errors.New("--out is required")
			}
			kind, err := xmlfile.ParseKind(docType)
			if err != nil {
				return fmt.Errorf("--type: %w", err)
			}
			if count < 0 {
				count = len(args)
			}
			compression, sumKind, err := out.resolve(a)
			if err != nil {
				return err
			}
			return a.wrap(outPath, kind, count, compression, sumKind, args, &out)
		},
	}
	out.register(cmd, "compression")
	cmd.Flags().StringVar(&docType, "type", "primary", "document type: primary, filelists or other")
	cmd.Flags().IntVar(&count, "count", -1, "package count for the header (default: number of chunks)")
	cmd.Flags().StringVar(&outPath, "out", "", "output document path")
	return cmd
}

// chunkFileDumper serializes a record naming a chunk file into that file's
// content.
var chunkFileDumper = xmlfile.DumperFunc(func(kind xmlfile.Kind, pkg any) (string, error) {
	path, ok := pkg.(string)
	if !ok {
		return "", fmt.Errorf("unexpected %s record %T", kind, pkg)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read chunk: %w", err)
	}
	return string(data), nil
})

func (a *app) wrap(outPath string, kind xmlfile.Kind, count int, compression cwrap.Kind, sumKind checksum.Kind, chunks []string, out *outputFlags) error {
	log := logging.WithComponent("wrap")
	start := time.Now()

	if fileutil.Exists(outPath) {
		return fmt.Errorf("%w: %s", xmlfile.ErrAlreadyExists, outPath)
	}

	tmpDir, err := out.scratch(outPath)
	if err != nil {
		return err
	}

	stats := cwrap.NewContentStats(sumKind)
	err = fileutil.WriteTmpThenMove(tmpDir, outPath, func(tmpPath string) error {
		doc, err := xmlfile.Create(tmpPath, kind, compression, stats, xmlfile.WithDumper(chunkFileDumper))
		if err != nil {
			return err
		}
		doc.SetNumOfPkgs(count)
		for _, chunk := range chunks {
			if err := doc.AddRecord(chunk); err != nil {
				doc.Close()
				return fmt.Errorf("add %s: %w", chunk, err)
			}
		}
		return doc.Close()
	})
	if err != nil {
		return fmt.Errorf("wrap %s: %w", outPath, err)
	}

	log.Debug().Stringer("type", kind).Msg("document assembled")
	event := logging.FileWritten(*logging.L(), "wrap", time.Since(start)).
		Str("type", kind.String()).
		Int("packages", count).
		Int("chunks", len(chunks))
	return a.report(event, outPath, compression, stats)
}

// report prints the outcome of a written file and completes its log event.
func (a *app) report(event *logging.CompletionEvent, path string, compression cwrap.Kind, stats *cwrap.ContentStats) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("stat output: %w", err)
	}
	fileSize := uint64(info.Size())

	a.printf("wrote %s (%s)\n", path, compression)
	a.printf("  content:  %s (%d bytes)\n", humanfmt.BytesUint64(stats.Size), stats.Size)
	a.printf("  file:     %s (%d bytes)\n", humanfmt.BytesUint64(fileSize), fileSize)
	a.printf("  ratio:    %s\n", humanfmt.Ratio(fileSize, stats.Size))
	if stats.ChecksumType != checksum.None {
		a.printf("  %-8s  %s\n", stats.ChecksumType.String()+":", stats.ChecksumHex())
	}

	if stats.Size > 0 {
		event.Float64("ratio", float64(fileSize)/float64(stats.Size))
	}
	event.Str("path", path).
		Str("compression", compression.String()).
		BytesUint64("content_size", stats.Size).
		BytesUint64("file_size", fileSize).
		Str("checksum_type", stats.ChecksumType.String()).
		Str("checksum", stats.ChecksumHex()).
		Throughput(int64(stats.Size)).
		Log("file written")
	return nil
}
