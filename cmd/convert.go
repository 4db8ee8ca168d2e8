package cmd

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"convertey/converter"
)

var (
	outputFile string
	targetFmt  string
	sourceType string
)

var convertCmd = &cobra.Command{
	Use:   "convert <input>",
	Short: "Convert a single file",
	Long: `Convert a single file to another format.

The source type is detected from the file extension unless --type is given.
If --to is omitted you are asked to pick one of the formats the source
converts to.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		inputFile := args[0]
		out := cmd.OutOrStdout()

		// Validate input file exists
		if _, err := os.Stat(inputFile); os.IsNotExist(err) {
			return fmt.Errorf("input file does not exist: %s", inputFile)
		}

		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		logger := cliLogger(cmd.ErrOrStderr())

		dispatcher, _, err := newDispatcher(cfg, logger)
		if err != nil {
			return err
		}
		registry := dispatcher.Registry()

		fileType := sourceType
		if fileType == "" {
			detected, ok := registry.SourceTypeForExtension(filepath.Ext(inputFile))
			if !ok {
				return fmt.Errorf("cannot detect the type of %s, use --type", inputFile)
			}
			fileType = detected
		}

		// If format not specified, ask user interactively
		format := targetFmt
		if format == "" {
			targets := registry.AllowedTargets(fileType)
			if len(targets) == 0 {
				return fmt.Errorf("no conversions available for %s", fileType)
			}
			format = selectFormatInteractively(cmd.InOrStdin(), out, targets)
		}

		data, err := os.ReadFile(inputFile)
		if err != nil {
			return fmt.Errorf("failed to read input file: %w", err)
		}

		fmt.Fprintf(out, "Converting %s (%s) to %s...\n", inputFile, fileType, format)
		res, err := dispatcher.ConvertJob(cmd.Context(), converter.Job{
			Data:     data,
			FileType: fileType,
			Format:   format,
			FileName: filepath.Base(inputFile),
		})
		if err != nil {
			return err
		}

		dest := outputFile
		if dest == "" {
			dest = filepath.Join(filepath.Dir(inputFile), res.FileName)
		}
		if err := os.WriteFile(dest, res.Data, 0o644); err != nil {
			return fmt.Errorf("failed to write output file: %w", err)
		}

		if res.Degraded {
			fmt.Fprintf(out, "Warning: %s\n", res.Warning)
		}
		fmt.Fprintf(out, "Successfully created: %s (%s, %d bytes in %s)\n", dest, res.MimeType, len(res.Data), res.Elapsed.Round(time.Millisecond))
		return nil
	},
}

// selectFormatInteractively lists the targets and reads a choice by number
// or name. Anything else falls back to the first target.
func selectFormatInteractively(in io.Reader, out io.Writer, targets []string) string {
	fmt.Fprintln(out, "\nSelect target format:")
	for i, t := range targets {
		fmt.Fprintf(out, "  [%d] %s\n", i+1, t)
	}
	fmt.Fprintf(out, "\nEnter choice (1-%d): ", len(targets))

	reader := bufio.NewReader(in)
	input, _ := reader.ReadString('\n')
	input = strings.ToLower(strings.TrimSpace(input))

	if n, err := strconv.Atoi(input); err == nil && n >= 1 && n <= len(targets) {
		return targets[n-1]
	}
	for _, t := range targets {
		if input == t {
			return t
		}
	}

	fmt.Fprintf(out, "Invalid choice, defaulting to '%s'\n", targets[0])
	return targets[0]
}

func init() {
	convertCmd.Flags().StringVarP(&outputFile, "output", "o", "", "Output file (default: input name with the target extension)")
	convertCmd.Flags().StringVarP(&targetFmt, "to", "t", "", "Target format: pdf, docx, jpg, jpeg or pptx")
	convertCmd.Flags().StringVar(&sourceType, "type", "", "Source media type (default: detected from the extension)")
	rootCmd.AddCommand(convertCmd)
}
