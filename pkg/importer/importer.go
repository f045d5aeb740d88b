package importer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/tealeg/xlsx/v3"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"era-admin-console/internal/models"
)

// ErrTooManyErrors stops an import once MaxErrors rows have failed.
var ErrTooManyErrors = errors.New("too many errors")

// Creator creates one inventory item. Implemented by the API client.
type Creator interface {
	CreateInventory(ctx context.Context, req models.CreateInventoryRequest) (*models.InventoryItem, error)
}

// ImportOptions defines the configuration for Excel import operations
type ImportOptions struct {
	MappingPath string // empty uses the built-in mapping
	DryRun      bool
	MaxErrors   int // default 50
	Logger      *zap.Logger
}

// RowError represents an error that occurred during row processing
type RowError struct {
	Sheet   string `json:"sheet"`
	Row     int    `json:"row"`
	Message string `json:"message"`
}

// SheetSummary contains the import statistics for a single sheet
type SheetSummary struct {
	Name    string     `json:"name"`
	Created int        `json:"created"`
	Skipped int        `json:"skipped"`
	Errors  int        `json:"errors"`
	Samples []RowError `json:"error_samples,omitempty"`
}

// ImportSummary contains the overall import statistics
type ImportSummary struct {
	Created int            `json:"created"`
	Skipped int            `json:"skipped"`
	Errors  int            `json:"errors"`
	Sheets  []SheetSummary `json:"sheets"`
	DryRun  bool           `json:"dry_run"`
}

const maxSamples = 20

// wildcardSheet maps any sheet without an entry of its own.
const wildcardSheet = "*"

// MappingConfig represents the YAML mapping configuration
type MappingConfig struct {
	Version int                    `yaml:"version"`
	Sheets  map[string]SheetConfig `yaml:"sheets"`
}

// SheetConfig maps item fields to the header names that may carry them.
type SheetConfig struct {
	Columns map[string][]string `yaml:"columns"`
}

var knownFields = map[string]bool{
	"item_name":      true,
	"quantity":       true,
	"distributor":    true,
	"client_name":    true,
	"entry_date":     true,
	"received_by":    true,
	"checked_by":     true,
	"item_status":    true,
	"notes":          true,
	"serial_numbers": true,
}

// DefaultMapping matches the columns of the inventory log spreadsheet.
func DefaultMapping() *MappingConfig {
	return &MappingConfig{
		Version: 1,
		Sheets: map[string]SheetConfig{
			wildcardSheet: {
				Columns: map[string][]string{
					"item_name":      {"Item Name", "Item", "Description"},
					"quantity":       {"Quantity", "Qty"},
					"distributor":    {"Distributor", "Supplier"},
					"client_name":    {"Client", "Client Name"},
					"entry_date":     {"Entry Date", "Date"},
					"received_by":    {"Received By"},
					"checked_by":     {"Checked By"},
					"item_status":    {"Status", "Item Status"},
					"notes":          {"Notes"},
					"serial_numbers": {"Serial Numbers", "Serial Number", "Serials", "S/N"},
				},
			},
		},
	}
}

// ParseMapping decodes and checks a YAML mapping document.
func ParseMapping(data []byte) (*MappingConfig, error) {
	var m MappingConfig
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse mapping: %w", err)
	}
	if len(m.Sheets) == 0 {
		return nil, fmt.Errorf("mapping defines no sheets")
	}
	for name, sc := range m.Sheets {
		for field := range sc.Columns {
			if !knownFields[field] {
				return nil, fmt.Errorf("sheet %q: unknown field %q", name, field)
			}
		}
		if len(sc.Columns["item_name"]) == 0 {
			return nil, fmt.Errorf("sheet %q: item_name has no columns", name)
		}
	}
	return &m, nil
}

func loadMappingConfig(path string) (*MappingConfig, error) {
	if path == "" {
		return DefaultMapping(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseMapping(data)
}

func (m *MappingConfig) sheet(name string) (SheetConfig, bool) {
	if sc, ok := m.Sheets[name]; ok {
		return sc, true
	}
	sc, ok := m.Sheets[wildcardSheet]
	return sc, ok
}

// ImportExcel reads a workbook and creates one inventory item per data row
func ImportExcel(ctx context.Context, creator Creator, r io.Reader, opts ImportOptions) (ImportSummary, error) {
	summary := ImportSummary{
		DryRun: opts.DryRun,
		Sheets: []SheetSummary{},
	}

	if opts.MaxErrors <= 0 {
		opts.MaxErrors = 50
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}

	mapping, err := loadMappingConfig(opts.MappingPath)
	if err != nil {
		return summary, fmt.Errorf("failed to load mapping config: %w", err)
	}

	// xlsx needs random access, so the upload is read fully first.
	data, err := io.ReadAll(r)
	if err != nil {
		return summary, fmt.Errorf("failed to read Excel file: %w", err)
	}

	xlFile, err := xlsx.OpenBinary(data)
	if err != nil {
		return summary, fmt.Errorf("failed to open Excel file: %w", err)
	}

	for _, sheet := range xlFile.Sheets {
		sheetConfig, exists := mapping.sheet(sheet.Name)
		if !exists {
			opts.Logger.Debug("skipping unmapped sheet", zap.String("sheet", sheet.Name))
			continue
		}

		budget := opts.MaxErrors - summary.Errors
		sheetSummary, err := processSheet(ctx, creator, sheet, sheetConfig, opts, budget)
		summary.Sheets = append(summary.Sheets, sheetSummary)

		summary.Created += sheetSummary.Created
		summary.Skipped += sheetSummary.Skipped
		summary.Errors += sheetSummary.Errors

		opts.Logger.Info("sheet imported",
			zap.String("sheet", sheet.Name),
			zap.Int("created", sheetSummary.Created),
			zap.Int("skipped", sheetSummary.Skipped),
			zap.Int("errors", sheetSummary.Errors),
			zap.Bool("dry_run", opts.DryRun))

		if err != nil {
			return summary, err
		}
	}

	return summary, nil
}

func processSheet(ctx context.Context, creator Creator, sheet *xlsx.Sheet, config SheetConfig, opts ImportOptions, budget int) (SheetSummary, error) {
	summary := SheetSummary{Name: sheet.Name}
	fail := func(row int, msg string) error {
		summary.Errors++
		if len(summary.Samples) < maxSamples {
			summary.Samples = append(summary.Samples, RowError{Sheet: sheet.Name, Row: row, Message: msg})
		}
		if summary.Errors >= budget {
			return fmt.Errorf("%w (%d), stopping import", ErrTooManyErrors, summary.Errors)
		}
		return nil
	}

	if sheet.MaxRow == 0 {
		return summary, nil
	}

	headerRow, err := sheet.Row(0)
	if err != nil {
		return summary, fail(1, "failed to read header row: "+err.Error())
	}

	// column index -> item field
	columns := make(map[int]string)
	for colIdx := 0; colIdx < sheet.MaxCol; colIdx++ {
		header := strings.TrimSpace(headerRow.GetCell(colIdx).String())
		if header == "" {
			continue
		}
		if field, ok := fieldFor(config, header); ok {
			columns[colIdx] = field
		}
	}
	if !hasField(columns, "item_name") {
		return summary, fail(1, "no item name column in header row")
	}

	for rowIdx := 1; rowIdx < sheet.MaxRow; rowIdx++ {
		if err := ctx.Err(); err != nil {
			return summary, err
		}

		row, err := sheet.Row(rowIdx)
		if err != nil {
			break
		}

		rowData := make(map[string]string)
		for colIdx, field := range columns {
			if v := cellText(row.GetCell(colIdx)); v != "" {
				rowData[field] = v
			}
		}
		if len(rowData) == 0 {
			summary.Skipped++
			continue
		}

		req, err := buildRequest(rowData)
		if err == nil {
			err = req.Validate()
		}
		if err == nil && !opts.DryRun {
			_, err = creator.CreateInventory(ctx, req)
		}
		if err != nil {
			if stop := fail(rowIdx+1, err.Error()); stop != nil {
				return summary, stop
			}
			continue
		}
		summary.Created++
	}

	return summary, nil
}

func fieldFor(config SheetConfig, header string) (string, bool) {
	for field, aliases := range config.Columns {
		if strings.EqualFold(field, header) {
			return field, true
		}
		for _, alias := range aliases {
			if strings.EqualFold(strings.TrimSpace(alias), header) {
				return field, true
			}
		}
	}
	return "", false
}

func hasField(columns map[int]string, field string) bool {
	for _, f := range columns {
		if f == field {
			return true
		}
	}
	return false
}

// cellText returns the trimmed cell value. Date-formatted cells come back
// as YYYY-MM-DD.
func cellText(c *xlsx.Cell) string {
	if c == nil {
		return ""
	}
	if c.IsTime() {
		if t, err := c.GetTime(false); err == nil {
			return t.Format(models.DateLayout)
		}
	}
	return strings.TrimSpace(c.String())
}

func buildRequest(rowData map[string]string) (models.CreateInventoryRequest, error) {
	req := models.CreateInventoryRequest{
		ItemName:    rowData["item_name"],
		Distributor: rowData["distributor"],
		ClientName:  rowData["client_name"],
		ItemStatus:  models.ItemStatus(rowData["item_status"]),
		Notes:       rowData["notes"],
		ReceivedBy:  splitList(rowData["received_by"]),
		CheckedBy:   splitList(rowData["checked_by"]),
	}

	if v := rowData["quantity"]; v != "" {
		n, err := parseQuantity(v)
		if err != nil {
			return req, err
		}
		req.Quantity = n
	}

	if v := rowData["entry_date"]; v != "" {
		d, err := parseDate(v)
		if err != nil {
			return req, err
		}
		req.EntryDate = d
	}

	for _, sn := range splitList(rowData["serial_numbers"]) {
		req.SerialNumbers = append(req.SerialNumbers, models.SerialNumber{
			SerialNumber: sn,
			Remarks:      models.SerialGood,
		})
	}
	return req, nil
}

func parseQuantity(v string) (int, error) {
	if n, err := strconv.Atoi(v); err == nil {
		return n, nil
	}
	// Numeric cells may be rendered as "3.0".
	f, err := strconv.ParseFloat(v, 64)
	if err != nil || f != float64(int(f)) {
		return 0, fmt.Errorf("invalid quantity %q", v)
	}
	return int(f), nil
}

func parseDate(v string) (models.Date, error) {
	if d, err := models.ParseDate(v); err == nil {
		return d, nil
	}
	// Raw Excel serial day numbers.
	if f, err := strconv.ParseFloat(v, 64); err == nil && f > 0 {
		return models.NewDate(xlsx.TimeFromExcelTime(f, false)), nil
	}
	return models.Date{}, fmt.Errorf("invalid entry date %q", v)
}

func splitList(v string) []string {
	fields := strings.FieldsFunc(v, func(r rune) bool {
		return r == ',' || r == ';' || r == '\n'
	})
	var out []string
	for _, f := range fields {
		if f = strings.TrimSpace(f); f != "" {
			out = append(out, f)
		}
	}
	return out
}
