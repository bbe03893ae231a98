package models

// ExportFormat enumerates supported ranking export formats.
type ExportFormat string

const (
	ExportFormatCSV ExportFormat = "csv"
	ExportFormatPDF ExportFormat = "pdf"
)

// IsValid reports whether the format is supported.
func (f ExportFormat) IsValid() bool {
	return f == ExportFormatCSV || f == ExportFormatPDF
}
