package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/a3tai/labreport-summarizer/internal/config"
	"github.com/a3tai/labreport-summarizer/internal/export"
	"github.com/a3tai/labreport-summarizer/internal/pdf"
	"github.com/a3tai/labreport-summarizer/internal/pipeline"
)

func newSummarizeCmd(a *app) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "summarize [files...]",
		Short: "Summarize reports into one spreadsheet row",
		Long: "Summarizes the given PDF files in order. Without arguments, or when --dir is set,\n" +
			"every PDF under the report directory is added in path order.",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return a.summarize(ctx, cmd, args, asJSON)
		},
	}

	cmd.Flags().String("out", config.DefaultOutputPath, "spreadsheet to write")
	cmd.Flags().String("sheet", config.DefaultSheet, "worksheet name")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the summary as JSON")

	return cmd
}

func (a *app) summarize(ctx context.Context, cmd *cobra.Command, args []string, asJSON bool) error {
	sources := make([]pdf.Source, 0, len(args))
	for _, arg := range args {
		sources = append(sources, pdf.Source{Name: filepath.Base(arg), Path: arg})
	}

	if len(args) == 0 || cmd.Flags().Changed("dir") {
		files, err := pdf.NewSearch(a.cfg.MaxFileSize).FindPDFs(a.cfg.PDFDirectory)
		if err != nil {
			return eris.Wrap(err, "search reports")
		}
		sources = append(sources, pdf.Sources(files)...)
	}

	eng, err := a.newEngine(pipeline.WithProgress(func(done, total int) {
		zap.L().Debug("report scanned", zap.Int("done", done), zap.Int("total", total))
	}))
	if err != nil {
		return err
	}

	sum, err := eng.pipeline.Run(ctx, sources)
	if err != nil {
		return eris.Wrap(err, "summarize")
	}

	if err := export.SaveXLSX(a.cfg.Output.Path, sum.Record, a.cfg.Output.Sheet); err != nil {
		return err
	}
	zap.L().Info("summary written",
		zap.String("batch_id", sum.BatchID),
		zap.String("path", a.cfg.Output.Path),
		zap.Int("files", len(sum.Outcomes)),
		zap.Int("skipped", len(sum.Skipped())),
		zap.Duration("elapsed", sum.Elapsed))

	out := cmd.OutOrStdout()
	if asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(sum.Report())
	}
	return printSummary(out, sum, a.cfg.Output.Path)
}

func printSummary(w io.Writer, sum *pipeline.Summary, path string) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	header, row := sum.Record.Header(), sum.Record.Row()
	for i := range header {
		fmt.Fprintf(tw, "%s\t%s\n", header[i], row[i])
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	for _, o := range sum.Outcomes {
		switch {
		case o.Status == pipeline.StatusSkipped:
			fmt.Fprintf(w, "skipped %s (%s): %s\n", o.Name, o.Kind, o.Reason)
		case len(o.Warnings) > 0:
			for _, warning := range o.Warnings {
				fmt.Fprintf(w, "warning %s: %s\n", o.Name, warning)
			}
		}
	}

	_, err := fmt.Fprintf(w, "\n%d report(s) summarized, written to %s\n", len(sum.Outcomes), path)
	return err
}
