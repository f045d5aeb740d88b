package dashboard

import (
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"era-admin-console/internal/auth"
	"era-admin-console/pkg/importer"
)

// ImportsHandler handles Excel import operations
type ImportsHandler struct {
	Creator    importer.Creator
	Logger     *zap.Logger
	MaxBytes   int64
	DefaultMap string
}

// NewImportsHandler creates a new imports handler
func NewImportsHandler(creator importer.Creator, logger *zap.Logger) *ImportsHandler {
	return &ImportsHandler{
		Creator:  creator,
		Logger:   logger,
		MaxBytes: 20 << 20, // 20 MB
	}
}

// UploadExcel creates inventory items from an uploaded .xlsx. Nothing is
// appended locally; the items arrive with the next push.
func (h *ImportsHandler) UploadExcel(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.MaxBytes)

	if !strings.Contains(r.Header.Get("Content-Type"), "multipart/form-data") {
		auth.WriteError(w, "content-type must be multipart/form-data", "INVALID_UPLOAD", http.StatusBadRequest)
		return
	}
	if err := r.ParseMultipartForm(h.MaxBytes); err != nil {
		auth.WriteError(w, "invalid multipart form: "+err.Error(), "INVALID_UPLOAD", http.StatusBadRequest)
		return
	}

	dryRun := r.FormValue("dry_run") == "true"
	maxErrors := 50
	if v := r.FormValue("max_errors"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			maxErrors = n
		}
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		auth.WriteError(w, "file is required: "+err.Error(), "INVALID_UPLOAD", http.StatusBadRequest)
		return
	}
	defer file.Close()

	if !isXLSX(header) {
		auth.WriteError(w, "only .xlsx files are accepted", "INVALID_UPLOAD", http.StatusBadRequest)
		return
	}

	sum, impErr := importer.ImportExcel(r.Context(), h.Creator, file, importer.ImportOptions{
		MappingPath: h.DefaultMap,
		DryRun:      dryRun,
		MaxErrors:   maxErrors,
		Logger:      h.Logger,
	})
	if impErr != nil {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]any{
			"error": impErr.Error(),
			"code":  "IMPORT_FAILED",
			"data":  sum,
		})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"message": importMessage(sum),
		"data":    sum,
		"meta": map[string]any{
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		},
	})
}

func importMessage(sum importer.ImportSummary) string {
	if sum.DryRun {
		return strconv.Itoa(sum.Created) + " rows valid, " + strconv.Itoa(sum.Errors) + " with errors"
	}
	return strconv.Itoa(sum.Created) + " items imported, " + strconv.Itoa(sum.Errors) + " rows failed"
}

// isXLSX checks if the uploaded file is an Excel .xlsx file
func isXLSX(h *multipart.FileHeader) bool {
	return strings.HasSuffix(strings.ToLower(h.Filename), ".xlsx")
}
