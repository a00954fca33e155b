package models

// ReportFormat формат экспорта отчета
type ReportFormat string

const (
	ReportFormatExcel ReportFormat = "xlsx"
	ReportFormatPDF   ReportFormat = "pdf"
	ReportFormatCSV   ReportFormat = "csv"
)

// ValidReportFormat проверяет формат экспорта
func ValidReportFormat(s string) bool {
	switch ReportFormat(s) {
	case ReportFormatExcel, ReportFormatPDF, ReportFormatCSV:
		return true
	}
	return false
}

// ContentType MIME-тип файла отчета
func (f ReportFormat) ContentType() string {
	switch f {
	case ReportFormatExcel:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	case ReportFormatPDF:
		return "application/pdf"
	default:
		return "text/csv; charset=utf-8"
	}
}
