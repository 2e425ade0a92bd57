package httpapi

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/a3tai/labreport-summarizer/internal/export"
	"github.com/a3tai/labreport-summarizer/internal/intelligence"
	"github.com/a3tai/labreport-summarizer/internal/pdf"
	"github.com/a3tai/labreport-summarizer/internal/pipeline"
)

// multipart parts above this size spill to temporary files
const formMemory = 32 << 20

var errRateLimited = eris.New("too many batches, retry later")

// Handler serves the API endpoints
type Handler struct {
	pipeline    *pipeline.Pipeline
	logger      *zap.Logger
	version     string
	sheet       string
	maxFileSize int64
	maxFiles    int
}

// ErrorResponse is the body of every non-2xx JSON response
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ColumnsResponse describes the summary schema
type ColumnsResponse struct {
	Columns []string              `json:"columns"`
	Anchor  intelligence.Key      `json:"anchor"`
	Rules   *intelligence.RuleSet `json:"rules"`
}

// Health reports liveness
func (h *Handler) Health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "version": h.version})
}

// Columns returns the column order and the active rule set
func (h *Handler) Columns(w http.ResponseWriter, _ *http.Request) {
	rs := h.pipeline.Rules()
	cols := make([]string, 0, len(rs.Output.Columns)+2)
	for _, k := range rs.Output.Columns {
		cols = append(cols, string(k))
	}
	cols = append(cols, rs.Output.DateColumn, rs.Output.FileColumn)

	writeJSON(w, http.StatusOK, ColumnsResponse{Columns: cols, Anchor: rs.Output.Anchor, Rules: rs})
}

// Summarize runs one batch over the uploaded "files" parts, in upload order.
// ?format=xlsx returns the spreadsheet instead of JSON.
func (h *Handler) Summarize(w http.ResponseWriter, r *http.Request) {
	format := r.URL.Query().Get("format")
	if format != "" && format != "json" && format != "xlsx" {
		writeError(w, http.StatusBadRequest, eris.Errorf("unsupported format %q", format))
		return
	}

	if err := r.ParseMultipartForm(formMemory); err != nil {
		writeError(w, http.StatusBadRequest, eris.Wrap(err, "invalid multipart form"))
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	headers := r.MultipartForm.File["files"]
	if len(headers) == 0 {
		writeError(w, http.StatusBadRequest, eris.New(`no files uploaded in field "files"`))
		return
	}
	if h.maxFiles > 0 && len(headers) > h.maxFiles {
		writeError(w, http.StatusRequestEntityTooLarge, eris.Errorf("at most %d files per batch", h.maxFiles))
		return
	}

	sources := make([]pdf.Source, 0, len(headers))
	for _, fh := range headers {
		src, err := h.readUpload(fh)
		if err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		sources = append(sources, src)
	}

	sum, err := h.pipeline.Run(r.Context(), sources)
	if err != nil {
		if errors.Is(err, pipeline.ErrNoSources) {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		h.logger.Warn("batch aborted", zap.Error(err))
		writeError(w, http.StatusServiceUnavailable, err)
		return
	}

	h.logger.Info("batch summarized",
		zap.String("batch_id", sum.BatchID),
		zap.Int("files", len(sum.Outcomes)),
		zap.Int("skipped", len(sum.Skipped())))

	if format == "xlsx" {
		h.writeSpreadsheet(w, sum)
		return
	}
	writeJSON(w, http.StatusOK, sum.Report())
}

// readUpload copies one part into memory. Oversized parts are kept with a
// truncated body so the pipeline rejects them as a per-file skip.
func (h *Handler) readUpload(fh *multipart.FileHeader) (pdf.Source, error) {
	name := filepath.Base(fh.Filename)
	f, err := fh.Open()
	if err != nil {
		return pdf.Source{}, eris.Wrapf(err, "open upload %s", name)
	}
	defer f.Close()

	var body io.Reader = f
	if h.maxFileSize > 0 {
		body = io.LimitReader(f, h.maxFileSize+1)
	}
	data, err := io.ReadAll(body)
	if err != nil {
		return pdf.Source{}, eris.Wrapf(err, "read upload %s", name)
	}
	if data == nil {
		data = []byte{}
	}
	return pdf.Source{Name: name, Data: data}, nil
}

func (h *Handler) writeSpreadsheet(w http.ResponseWriter, sum *pipeline.Summary) {
	var buf bytes.Buffer
	if err := export.WriteXLSX(&buf, sum.Record, h.sheet); err != nil {
		h.logger.Error("spreadsheet export failed", zap.String("batch_id", sum.BatchID), zap.Error(err))
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	w.Header().Set("Content-Type", export.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="summary-%s.xlsx"`, sum.BatchID))
	w.Header().Set("X-Batch-ID", sum.BatchID)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

func writeJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if data != nil {
		_ = json.NewEncoder(w).Encode(data)
	}
}

func writeError(w http.ResponseWriter, statusCode int, err error) {
	writeJSON(w, statusCode, ErrorResponse{Code: http.StatusText(statusCode), Message: err.Error()})
}
