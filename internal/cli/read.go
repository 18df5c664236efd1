package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/eunmann/mdstream/pkg/cwrap"
)

func (a *app) detectCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "detect FILE|S3URI...",
		Short: "Print the compression of each file",
		Long: "Print the compression of each file as PATH<TAB>KIND.\n\n" +
			"A known suffix (.gz, .bz2, .xz, .xml and their aliases) decides without reading " +
			"the file; otherwise the content is sniffed. s3:// URIs are downloaded first.",
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			paths, cleanup, err := localInputs(cmd.Context(), args)
			if err != nil {
				return err
			}
			defer cleanup()

			for i, path := range paths {
				kind, err := cwrap.DetectCompression(path)
				if err != nil {
					return fmt.Errorf("detect %s: %w", args[i], err)
				}
				a.printf("%s\t%s\n", args[i], kind)
			}
			return nil
		},
	}
}

func (a *app) catCommand() *cobra.Command {
	var compression string

	cmd := &cobra.Command{
		Use:   "cat FILE|S3URI",
		Short: "Decompress a file to standard output",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, err := cwrap.ParseKind(compression)
			if err != nil {
				return fmt.Errorf("--compression: %w", err)
			}

			paths, cleanup, err := localInputs(cmd.Context(), args)
			if err != nil {
				return err
			}
			defer cleanup()

			s, err := cwrap.Open(paths[0], cwrap.Read, kind, nil)
			if err != nil {
				return err
			}
			defer s.Close()

			if _, err := io.Copy(a.stdout, s); err != nil {
				return fmt.Errorf("read %s: %w", args[0], err)
			}
			return s.Close()
		},
	}
	cmd.Flags().StringVar(&compression, "compression", "auto", "input compression: auto, none, gz, bz2 or xz")
	return cmd
}
