package main

import (
	"bufio"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/andresjosehr/dollarspy/internal/classification"
	"github.com/andresjosehr/dollarspy/internal/cli"
	"github.com/andresjosehr/dollarspy/internal/service"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
)

func classifyCmd() *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "classify [text...]",
		Short: "Check text against the dollar offer detector",
		Long: `Run the detector offline, without WhatsApp.

Pass a message as arguments, or use --file to check one message per line
("-" reads standard input). Useful for tuning the lexicon against real chats.`,
		Example: `  dollarspy classify "vendo 100$ a 36.5 por pago movil"
  dollarspy classify --file export.txt`,
		RunE: func(cmd *cobra.Command, args []string) error {
			detector, err := classification.NewDefaultDetector()
			if err != nil {
				return err
			}

			if file == "" {
				if len(args) == 0 {
					return fmt.Errorf("provide text to classify or --file")
				}
				return classifyText(cmd.OutOrStdout(), detector, strings.Join(args, " "))
			}

			in := io.Reader(os.Stdin)
			if file != "-" {
				f, err := os.Open(file)
				if err != nil {
					return fmt.Errorf("failed to open %s: %w", file, err)
				}
				defer func() {
					if closeErr := f.Close(); closeErr != nil {
						slog.Warn("failed to close input", "error", closeErr)
					}
				}()
				in = f
			}

			lines, err := readLines(in)
			if err != nil {
				return err
			}
			return classifyLines(cmd.OutOrStdout(), cmd.ErrOrStderr(), detector, lines)
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "classify each line of this file (- for stdin)")

	return cmd
}

func classifyText(out io.Writer, detector service.Classifier, text string) error {
	result := detector.Classify(text)
	if !result.IsMatch {
		_, err := fmt.Fprintln(out, cli.FormatInfo(fmt.Sprintf("No dollar offer detected (confidence %d%%)", result.ConfidencePercent())))
		return err
	}
	_, err := fmt.Fprintln(out, cli.FormatSuccess(classification.FormatDetection(result, "input")))
	return err
}

// classifyLines prints one detection line per matching input line and a
// summary. Progress goes to progress.
func classifyLines(out, progress io.Writer, detector service.Classifier, lines []string) error {
	bar := progressbar.NewOptions(len(lines),
		progressbar.OptionSetWriter(progress),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionShowCount(),
		progressbar.OptionSetWidth(40),
		progressbar.OptionSetDescription("[green][bold]Classifying messages...[reset]"),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "[green]=[reset]",
			SaucerHead:    "[green]>[reset]",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}),
		progressbar.OptionOnCompletion(func() {
			_, _ = fmt.Fprintln(progress)
		}),
	)

	var detections []string
	for i, line := range lines {
		result := detector.Classify(line)
		if result.IsMatch {
			detections = append(detections, classification.FormatDetection(result, fmt.Sprintf("line %d", i+1)))
		}
		if err := bar.Add(1); err != nil {
			slog.Debug("progress bar update failed", "error", err)
		}
	}
	_ = bar.Finish()

	for _, d := range detections {
		if _, err := fmt.Fprintln(out, d); err != nil {
			return err
		}
	}

	_, err := fmt.Fprintln(out, cli.FormatInfo(fmt.Sprintf("%d of %d messages look like dollar offers", len(detections), len(lines))))
	return err
}

// readLines returns the non-blank lines of r.
func readLines(r io.Reader) ([]string, error) {
	var lines []string
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		if line := strings.TrimSpace(scanner.Text()); line != "" {
			lines = append(lines, line)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read input: %w", err)
	}
	return lines, nil
}
