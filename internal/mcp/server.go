package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/a3tai/labreport-summarizer/internal/config"
	"github.com/a3tai/labreport-summarizer/internal/descriptions"
	"github.com/a3tai/labreport-summarizer/internal/export"
	"github.com/a3tai/labreport-summarizer/internal/intelligence"
	"github.com/a3tai/labreport-summarizer/internal/pdf"
	"github.com/a3tai/labreport-summarizer/internal/pdf/security"
	"github.com/a3tai/labreport-summarizer/internal/pipeline"
	"github.com/a3tai/labreport-summarizer/internal/summary"
)

// Server represents the MCP server instance
type Server struct {
	config    *config.Config
	pipeline  *pipeline.Pipeline
	search    *pdf.Search
	guard     *security.PathGuard
	mcpServer *server.MCPServer
	logger    *zap.Logger
}

// NewServer creates a new MCP server instance
func NewServer(cfg *config.Config, p *pipeline.Pipeline) (*Server, error) {
	if cfg == nil {
		return nil, eris.New("config cannot be nil")
	}
	if p == nil {
		return nil, eris.New("pipeline cannot be nil")
	}

	guard, err := security.NewPathGuard(cfg.PDFDirectory)
	if err != nil {
		return nil, eris.Wrap(err, "mcp: guard report directory")
	}

	mcpServer := server.NewMCPServer(
		cfg.ServerName,
		cfg.Version,
		server.WithToolCapabilities(false),
	)

	s := &Server{
		config:    cfg,
		pipeline:  p,
		search:    pdf.NewSearch(cfg.MaxFileSize),
		guard:     guard,
		mcpServer: mcpServer,
		logger:    zap.L().Named("mcp"),
	}

	s.registerTools()

	return s, nil
}

// registerTools registers all available MCP tools
func (s *Server) registerTools() {
	summarizeTool := mcp.NewTool(
		"summarize_reports",
		mcp.WithDescription(descriptions.SummarizeReportsDescription),
		mcp.WithString("paths",
			mcp.Description("PDF files to summarize, separated by commas or newlines. Relative paths resolve against the report directory"),
		),
		mcp.WithString("directory",
			mcp.Description("Directory whose PDFs are summarized (uses the report directory if both paths and directory are empty)"),
		),
		mcp.WithString("output",
			mcp.Description("Optional .xlsx path to save the summary row to"),
		),
	)
	s.mcpServer.AddTool(summarizeTool, s.handleSummarizeReports)

	scanTool := mcp.NewTool(
		"scan_report",
		mcp.WithDescription(descriptions.ScanReportDescription),
		mcp.WithString("path",
			mcp.Required(),
			mcp.Description("Path to the PDF report"),
		),
	)
	s.mcpServer.AddTool(scanTool, s.handleScanReport)

	columnsTool := mcp.NewTool(
		"list_columns",
		mcp.WithDescription(descriptions.ListColumnsDescription),
	)
	s.mcpServer.AddTool(columnsTool, s.handleListColumns)
}

func (s *Server) handleSummarizeReports(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	paths := splitList(request.GetString("paths", ""))
	directory := request.GetString("directory", "")
	output := request.GetString("output", "")

	sources, err := s.collectSources(paths, directory)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	sum, err := s.pipeline.Run(ctx, sources)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to summarize reports: %v", err)), nil
	}

	var saved string
	if output != "" {
		saved, err = s.guard.Resolve(output)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("Invalid output path: %v", err)), nil
		}
		if err := export.SaveXLSX(saved, sum.Record, s.config.Output.Sheet); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("Failed to save spreadsheet: %v", err)), nil
		}
	}

	text, err := s.formatSummary(sum, saved)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(text), nil
}

func (s *Server) handleScanReport(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := request.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	resolved, err := s.guard.Resolve(path)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Invalid path: %v", err)), nil
	}

	outcome, result := s.pipeline.Inspect(ctx, pdf.Source{Name: filepath.Base(resolved), Path: resolved})
	if result == nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to scan %s: %s", outcome.Name, outcome.Reason)), nil
	}

	return mcp.NewToolResultText(s.formatScan(outcome, result)), nil
}

func (s *Server) handleListColumns(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(s.formatColumns(s.pipeline.Rules())), nil
}

// collectSources turns the tool arguments into pipeline sources in the order given
func (s *Server) collectSources(paths []string, directory string) ([]pdf.Source, error) {
	var sources []pdf.Source

	for _, p := range paths {
		resolved, err := s.guard.Resolve(p)
		if err != nil {
			return nil, eris.Wrap(err, "invalid path")
		}
		sources = append(sources, pdf.Source{Name: filepath.Base(resolved), Path: resolved})
	}

	if directory == "" && len(paths) == 0 {
		directory = s.guard.Directory()
	}
	if directory != "" {
		dir, err := s.guard.Resolve(directory)
		if err != nil {
			return nil, eris.Wrap(err, "invalid directory")
		}
		files, err := s.search.FindPDFs(dir)
		if err != nil {
			return nil, eris.Wrap(err, "search directory")
		}
		s.logger.Debug("found reports", zap.String("directory", dir), zap.Int("count", len(files)))
		sources = append(sources, pdf.Sources(files)...)
	}

	if len(sources) == 0 {
		return nil, eris.New("no PDF reports found")
	}
	return sources, nil
}

func (s *Server) formatSummary(sum *pipeline.Summary, saved string) (string, error) {
	var b strings.Builder

	fmt.Fprintf(&b, "Batch %s: %d file(s), %d skipped\n\n", sum.BatchID, len(sum.Outcomes), len(sum.Skipped()))

	header, row := sum.Record.Header(), sum.Record.Row()
	for i := range header {
		value := row[i]
		if value == "" {
			value = "-"
		}
		fmt.Fprintf(&b, "%-10s %s\n", header[i]+":", value)
	}

	if skipped := sum.Skipped(); len(skipped) > 0 {
		b.WriteString("\nSkipped:\n")
		for _, o := range skipped {
			fmt.Fprintf(&b, "  • %s [%s]: %s\n", o.Name, o.Kind, o.Reason)
		}
	}

	var warned bool
	for _, o := range sum.Outcomes {
		for _, w := range o.Warnings {
			if !warned {
				b.WriteString("\nWarnings:\n")
				warned = true
			}
			fmt.Fprintf(&b, "  • %s: %s\n", o.Name, w)
		}
	}

	if saved != "" {
		fmt.Fprintf(&b, "\nSaved to: %s\n", saved)
	}

	payload, err := json.MarshalIndent(sum.Report(), "", "  ")
	if err != nil {
		return "", eris.Wrap(err, "encode summary")
	}
	b.WriteString("\nJSON:\n")
	b.Write(payload)
	b.WriteByte('\n')

	return b.String(), nil
}

func (s *Server) formatScan(outcome pipeline.FileOutcome, result *pipeline.FileResult) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Report: %s\n", outcome.Name)
	fmt.Fprintf(&b, "Content type: %s\n", outcome.ContentType)
	if result.Date != nil {
		fmt.Fprintf(&b, "Date: %s\n", result.Date.Date.Format(summary.DateLayout))
	} else {
		b.WriteString("Date: not found\n")
	}
	var opened []string
	for _, key := range s.pipeline.Rules().Keys() {
		if result.Triggered.Has(key) {
			opened = append(opened, string(key))
		}
	}
	if len(opened) > 0 {
		fmt.Fprintf(&b, "Opened families: %s\n", strings.Join(opened, ", "))
	}

	st := result.Stats
	fmt.Fprintf(&b, "\nPages: %d  Tables: %d (resolved %d, carried %d, reference %d, skipped %d)\n",
		st.Pages, st.Tables, st.ResolvedTables, st.CarriedTables, st.ReferenceTables, st.SkippedTables)
	fmt.Fprintf(&b, "Rows: %d  Matched: %d  Candidates: %d\n", st.Rows, st.MatchedRows, st.Candidates)

	b.WriteString("\nCandidates:\n")
	for _, key := range s.pipeline.Rules().Keys() {
		cands := result.Pools.Candidates(key)
		if len(cands) == 0 {
			continue
		}
		values := make([]string, len(cands))
		for i, c := range cands {
			values[i] = fmt.Sprintf("%s (%s)", c.Display, c.Tier)
		}
		fmt.Fprintf(&b, "  %-6s %s\n", key, strings.Join(values, ", "))
	}

	for _, w := range outcome.Warnings {
		fmt.Fprintf(&b, "\n⚠ %s", w)
	}

	return b.String()
}

func (s *Server) formatColumns(rs *intelligence.RuleSet) string {
	var b strings.Builder

	cols := make([]string, 0, len(rs.Output.Columns)+2)
	for _, k := range rs.Output.Columns {
		cols = append(cols, string(k))
	}
	cols = append(cols, rs.Output.DateColumn, rs.Output.FileColumn)

	fmt.Fprintf(&b, "Rules version: %s\n", rs.Version)
	fmt.Fprintf(&b, "Columns: %s\n", strings.Join(cols, ", "))
	fmt.Fprintf(&b, "Anchor: %s\n", rs.Output.Anchor)

	b.WriteString("\nSubstances:\n")
	for _, r := range rs.Simple {
		names := append(append([]string{}, r.Synonyms...), r.Tokens...)
		fmt.Fprintf(&b, "  %-6s %s\n", r.Key, strings.Join(names, ", "))
	}

	b.WriteString("\nGrouped families:\n")
	for _, g := range rs.Grouped {
		keywords := append([]string{}, g.Keywords...)
		sort.Strings(keywords)
		fmt.Fprintf(&b, "  %-6s %s\n", g.Key, strings.Join(keywords, ", "))
		if g.Gated() {
			fmt.Fprintf(&b, "         gated by: %s\n", strings.Join(g.Triggers, ", "))
		}
	}

	return b.String()
}

// splitList splits a comma or newline separated argument
func splitList(s string) []string {
	fields := strings.FieldsFunc(s, func(r rune) bool { return r == ',' || r == '\n' })
	out := fields[:0]
	for _, f := range fields {
		if f = strings.TrimSpace(f); f != "" {
			out = append(out, f)
		}
	}
	return out
}

// Run serves MCP over stdio until the client disconnects
func (s *Server) Run(_ context.Context) error {
	s.logger.Info("starting MCP server on stdio",
		zap.String("directory", s.guard.Directory()),
		zap.String("version", s.config.Version))

	if err := server.ServeStdio(s.mcpServer); err != nil {
		return eris.Wrap(err, "failed to serve stdio")
	}
	return nil
}
