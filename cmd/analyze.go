package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/BitCodeHub/analytics-storyteller/internal/analysis"
	"github.com/BitCodeHub/analytics-storyteller/internal/parser"
	"github.com/BitCodeHub/analytics-storyteller/internal/pipeline"
	"github.com/BitCodeHub/analytics-storyteller/internal/sources"
	"github.com/BitCodeHub/analytics-storyteller/internal/utils"
)

var (
	anaDataPath    string
	anaSheetName   string
	anaSnapshot    string
	anaDocs        []string
	anaFormat      string
	anaOutputPath  string
	anaDryRun      bool
	anaPrintPrompt bool
	anaModel       string
	anaMaxTokens   int
	anaTimeoutSec  int
	anaDelimiter   string
	anaDecimal     string
	anaThousands   string
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Generate a data story from a spreadsheet, an analytics snapshot and documents",
	Example: `  storyteller analyze --data sales.csv
  storyteller analyze --data q1.xlsx --sheet Revenue --ga4 ga4.json --doc notes.docx
  storyteller analyze --ga4 ga4.json --dry-run
  storyteller analyze --data sales.csv --format json --output story.json`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		switch anaFormat {
		case "markdown", "md", "json":
		default:
			return fmt.Errorf("unsupported --format: %s (use markdown|json)", anaFormat)
		}
		in, err := loadInput()
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()

		if anaDryRun || anaPrintPrompt {
			p, err := pipeline.Prepare(in)
			if err != nil {
				_, msg := pipeline.Describe(err)
				return fmt.Errorf("%s: %w", msg, err)
			}
			if anaDryRun {
				fmt.Fprintf(out, "--dry-run: no model call will be made (prompt tokens≈%d) --\n", utils.CountTokens(p))
				fmt.Fprintln(out, p)
				return nil
			}
			fmt.Fprintln(out, "--print-prompt: sending the following prompt --")
			fmt.Fprintln(out, p)
		}

		c, err := requireConfig()
		if err != nil {
			return err
		}
		analyzer, err := buildAnalyzer(c, nil, analyzerOptions{
			Model:      anaModel,
			MaxTokens:  anaMaxTokens,
			TimeoutSec: anaTimeoutSec,
		})
		if err != nil {
			return err
		}

		ctx, stop := withSignals(cmd.Context())
		defer stop()
		result, err := analyzer.Analyze(ctx, in)
		if err != nil {
			_, msg := pipeline.Describe(err)
			return fmt.Errorf("%s: %w", msg, err)
		}

		var rendered []byte
		if anaFormat == "json" {
			rendered, err = utils.PrettyJSON(result)
			if err != nil {
				return err
			}
		} else {
			rendered = []byte(result.Markdown())
		}

		if anaOutputPath != "" {
			if err := utils.SafeWriteFile(anaOutputPath, rendered); err != nil {
				return fmt.Errorf("write output: %w", err)
			}
			fmt.Fprintf(out, "✓ Wrote story to %s\n", anaOutputPath)
			return nil
		}
		fmt.Fprintln(out, strings.TrimRight(string(rendered), "\n"))
		return nil
	},
}

// loadInput reads every source named on the command line.
func loadInput() (pipeline.Input, error) {
	var in pipeline.Input
	if anaDataPath == "" && anaSnapshot == "" && len(anaDocs) == 0 {
		return in, fmt.Errorf("nothing to analyze: pass --data, --ga4 or --doc")
	}

	if anaDataPath != "" {
		opt, err := tableOptions()
		if err != nil {
			return in, err
		}
		var t *analysis.Table
		switch strings.ToLower(filepath.Ext(anaDataPath)) {
		case ".xlsx":
			t, err = analysis.LoadXLSX(anaDataPath, anaSheetName, opt)
		default:
			t, err = analysis.LoadCSV(anaDataPath, opt)
		}
		if err != nil {
			return in, err
		}
		logger.Debug("Loaded table",
			zap.String("path", anaDataPath),
			zap.Int("columns", len(t.Headers)),
			zap.Int("rows_kept", len(t.Rows)),
			zap.Int("rows_total", t.TotalRows))
		in.Tabular = t
	}

	if anaSnapshot != "" {
		snap, err := sources.LoadSnapshot(anaSnapshot)
		if err != nil {
			return in, err
		}
		in.Analytics = snap
	}

	for _, path := range anaDocs {
		d, err := parser.ExtractFile(path)
		if err != nil {
			return in, err
		}
		if strings.HasPrefix(d.Content, "Extraction failed:") {
			fmt.Fprintf(os.Stderr, "⚠ Warning: %s: %s\n", d.Name, d.Content)
		}
		in.Documents = append(in.Documents, d)
	}
	return in, nil
}

func tableOptions() (analysis.Options, error) {
	opt := analysis.DefaultOptions()
	switch anaDelimiter {
	case "":
	case ",":
		opt.Delimiter = ','
	case "\t", "tab":
		opt.Delimiter = '\t'
	case ";":
		opt.Delimiter = ';'
	case "|", "pipe":
		opt.Delimiter = '|'
	default:
		return opt, fmt.Errorf("unsupported --delimiter: %s", anaDelimiter)
	}
	switch strings.ToLower(strings.TrimSpace(anaDecimal)) {
	case ",", "comma":
		opt.DecimalSeparator = ','
	case ".", "dot":
		opt.DecimalSeparator = '.'
	case "":
	default:
		return opt, fmt.Errorf("unsupported --decimal: %s (use '.'|'comma')", anaDecimal)
	}
	switch strings.ToLower(strings.TrimSpace(anaThousands)) {
	case ",":
		opt.ThousandsSeparator = ','
	case ".":
		opt.ThousandsSeparator = '.'
	case "space", " ":
		opt.ThousandsSeparator = ' '
	case "":
	default:
		return opt, fmt.Errorf("unsupported --thousands: %s (use ','|'.'|'space')", anaThousands)
	}
	return opt, nil
}

func withSignals(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}

func init() {
	rootCmd.AddCommand(analyzeCmd)
	analyzeCmd.Flags().StringVar(&anaDataPath, "data", "", "CSV, TSV or XLSX file to profile")
	analyzeCmd.Flags().StringVar(&anaSheetName, "sheet", "", "XLSX: sheet name (default first sheet)")
	analyzeCmd.Flags().StringVar(&anaSnapshot, "ga4", "", "analytics snapshot JSON file")
	analyzeCmd.Flags().StringArrayVar(&anaDocs, "doc", nil, "document to include (repeatable)")
	analyzeCmd.Flags().StringVar(&anaFormat, "format", "markdown", "output format: markdown|json")
	analyzeCmd.Flags().StringVarP(&anaOutputPath, "output", "o", "", "optional path to write the story")
	analyzeCmd.Flags().BoolVar(&anaDryRun, "dry-run", false, "print the prompt without calling the model")
	analyzeCmd.Flags().BoolVar(&anaPrintPrompt, "print-prompt", false, "print the prompt before calling the model")
	analyzeCmd.Flags().StringVar(&anaModel, "model", "", "override model (default from config)")
	analyzeCmd.Flags().IntVar(&anaMaxTokens, "max-tokens", 0, "max tokens for the response (default from config)")
	analyzeCmd.Flags().IntVar(&anaTimeoutSec, "timeout-sec", 0, "model call timeout in seconds (default from config)")
	analyzeCmd.Flags().StringVar(&anaDelimiter, "delimiter", "", "CSV delimiter: ',' | ';' | 'tab' | 'pipe'")
	analyzeCmd.Flags().StringVar(&anaDecimal, "decimal", "", "decimal separator for numbers: '.'|'comma'")
	analyzeCmd.Flags().StringVar(&anaThousands, "thousands", "", "thousands separator for numbers: ','|'.'|'space'")
}
