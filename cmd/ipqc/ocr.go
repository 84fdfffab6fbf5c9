package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
)

var ocrCmd = &cobra.Command{
	Use:   "ocr <file>",
	Short: "Print the recognized text of a PDF, image or text file",
	Long: `Run only the recognition step with the local poppler and tesseract tools
and print the text, pages separated by form feeds. The output can be fed
back to "ipqc process" as a .txt checklist.`,
	Example: `  ipqc ocr scans/CL-0001.pdf -o CL-0001.txt
  ipqc ocr page3.jpg --json`,
	Args: cobra.ExactArgs(1),
	RunE: runOCR,
}

// OCROutput is the --json shape of the ocr command.
type OCROutput struct {
	FileName   string   `json:"file_name"`
	SourceType string   `json:"source_type"`
	Pages      []string `json:"pages"`
	Warnings   []string `json:"warnings,omitempty"`
	DurationMS int64    `json:"duration_ms"`
}

func init() {
	rootCmd.AddCommand(ocrCmd)
	ocrCmd.Flags().StringP("output", "o", "", "output file (default stdout)")
	ocrCmd.Flags().Bool("json", false, "output as JSON")
	ocrCmd.Flags().Duration("timeout", 5*time.Minute, "processing timeout")
}

func runOCR(cmd *cobra.Command, args []string) error {
	outputPath, _ := cmd.Flags().GetString("output")
	asJSON, _ := cmd.Flags().GetBool("json")
	timeout, _ := cmd.Flags().GetDuration("timeout")

	ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
	defer cancel()

	res, err := newOCRExtractor(cfg.OCR, logger).Extract(ctx, args[0])
	if err != nil {
		return fmt.Errorf("ocr %s: %w", args[0], err)
	}
	for _, w := range res.Warnings {
		logger.Warn("ocr warning", "file", args[0], "warning", w)
	}

	out := cmd.OutOrStdout()
	if outputPath != "" {
		f, err := os.Create(outputPath)
		if err != nil {
			return err
		}
		defer f.Close()
		out = f
	}

	if asJSON {
		pages := make([]string, len(res.Pages))
		for i, p := range res.Pages {
			pages[i] = p.Text
		}
		return writeJSON(out, OCROutput{
			FileName:   filepath.Base(args[0]),
			SourceType: res.SourceType,
			Pages:      pages,
			Warnings:   res.Warnings,
			DurationMS: res.Duration.Milliseconds(),
		})
	}
	_, err = fmt.Fprintln(out, res.Text())
	return err
}
