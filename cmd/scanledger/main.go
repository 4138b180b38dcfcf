// Command scanledger is the CLI companion to scanledgerd: parse a text dump,
// scan an image end to end, or export stored receipts, all against the same
// local store.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/scanledger/scanledger/constants"
	"github.com/scanledger/scanledger/internal/common"
	"github.com/scanledger/scanledger/internal/dedupe"
	"github.com/scanledger/scanledger/internal/export"
	"github.com/scanledger/scanledger/internal/llm"
	"github.com/scanledger/scanledger/internal/llm/openai"
	"github.com/scanledger/scanledger/internal/ocr"
	"github.com/scanledger/scanledger/internal/parser"
	"github.com/scanledger/scanledger/internal/pipeline"
	"github.com/scanledger/scanledger/internal/repository"
	"github.com/scanledger/scanledger/internal/timeparse"
)

func main() {
	_ = godotenv.Load()

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelWarn,
	}))
	slog.SetDefault(logger)

	root := &cobra.Command{
		Use:           "scanledger",
		Short:         "Receipt extraction and normalization engine",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(parseCmd(), scanCmd(logger), exportCmd(logger))

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// parseCmd runs only the heuristic line parser; no store, no network.
func parseCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "parse <text-file>",
		Short: "Parse raw OCR text into line items",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			items := parser.Parse(string(raw))
			return printJSON(cmd, items)
		},
	}
}

// scanCmd runs the full pipeline on an image or text file and saves the
// result, honoring the duplicate warning unless --force is given.
func scanCmd(logger *slog.Logger) *cobra.Command {
	var force, dryRun bool
	cmd := &cobra.Command{
		Use:   "scan <image-or-text-file>",
		Short: "Extract a receipt and save it to the store",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			path := args[0]
			ext := constants.NormalizeExt(filepath.Ext(path))
			if _, ok := constants.AllowedExtensions[ext]; !ok {
				return fmt.Errorf("unsupported file type %q (want jpg, jpeg, png, or txt)", ext)
			}

			processor, db, err := buildProcessor(ctx, logger)
			if err != nil {
				return err
			}
			defer func() { _ = db.Close() }()

			var res pipeline.ScanResult
			if constants.MapExtToFormat(filepath.Ext(path)) == constants.TXT {
				raw, err := os.ReadFile(path)
				if err != nil {
					return err
				}
				res, err = processor.ProcessText(ctx, string(raw))
				if err != nil {
					return err
				}
			} else {
				res, err = processor.ProcessImage(ctx, path)
				if err != nil {
					return err
				}
			}

			if dryRun {
				return printJSON(cmd, res.Candidate)
			}
			outcome, err := processor.Save(ctx, res.Candidate, force)
			if err != nil {
				return err
			}
			if outcome.Duplicate {
				fmt.Fprintln(os.Stderr, "warning: a similar receipt already exists; rerun with --force to save anyway")
				return printJSON(cmd, res.Candidate)
			}
			return printJSON(cmd, outcome.Receipt)
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "save even if a duplicate is suspected")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "print the candidate without saving")
	return cmd
}

func exportCmd(logger *slog.Logger) *cobra.Command {
	var fromStr, toStr, format, out string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export stored receipts to xlsx or csv",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			cfg := common.LoadConfig()
			db, err := repository.Open(ctx, repository.Config{
				DSN:         cfg.Database.DSN,
				DialTimeout: cfg.Database.DialTimeout,
			}, logger)
			if err != nil {
				return err
			}
			defer func() { _ = db.Close() }()

			receipts := repository.NewReceiptRepository(db, logger)
			svc := export.NewService(receipts, logger)

			from, err := optionalDate(fromStr, "--from")
			if err != nil {
				return err
			}
			to, err := optionalDate(toStr, "--to")
			if err != nil {
				return err
			}

			var b []byte
			switch format {
			case "csv":
				b, err = svc.ExportCSV(ctx, from, to)
			case "xlsx":
				b, err = svc.ExportXLSX(ctx, from, to)
			default:
				return fmt.Errorf("format must be csv or xlsx")
			}
			if err != nil {
				return err
			}
			if out == "" {
				out = "receipts." + format
			}
			if err := os.WriteFile(out, b, 0o644); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), out)
			return nil
		},
	}
	cmd.Flags().StringVar(&fromStr, "from", "", "start date (inclusive)")
	cmd.Flags().StringVar(&toStr, "to", "", "end date (inclusive)")
	cmd.Flags().StringVar(&format, "format", "xlsx", "output format: xlsx or csv")
	cmd.Flags().StringVarP(&out, "out", "o", "", "output file path")
	return cmd
}

func buildProcessor(ctx context.Context, logger *slog.Logger) (*pipeline.Processor, interface{ Close() error }, error) {
	cfg := common.LoadConfig()
	db, err := repository.Open(ctx, repository.Config{
		DSN:         cfg.Database.DSN,
		DialTimeout: cfg.Database.DialTimeout,
	}, logger)
	if err != nil {
		return nil, nil, err
	}
	receipts := repository.NewReceiptRepository(db, logger)

	var extractor llm.Extractor
	if cfg.LLM.APIKey != "" {
		extractor = openai.NewClient(openai.Config{
			APIKey:      cfg.LLM.APIKey,
			BaseURL:     cfg.LLM.BaseURL,
			Model:       cfg.LLM.Model,
			Temperature: cfg.LLM.Temperature,
			Timeout:     cfg.LLM.Timeout,
		}, logger)
	}

	recognizer := ocr.NewExtractor(ocr.Config{
		Tesseract:     cfg.OCR.Tesseract,
		TesseractLang: cfg.OCR.TesseractLang,
		TessdataDir:   cfg.OCR.TessdataDir,
	}, logger)

	processor := pipeline.NewProcessor(logger, recognizer, extractor, receipts,
		dedupe.Detector{Tolerance: cfg.Dedupe.Tolerance})
	return processor, db, nil
}

func optionalDate(s, flag string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	t, ok := timeparse.Parse(s, false)
	if !ok {
		return nil, fmt.Errorf("unparseable %s date: %q", flag, s)
	}
	return &t, nil
}

func printJSON(cmd *cobra.Command, v any) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(b))
	return nil
}
