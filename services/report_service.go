package services

import (
	"encoding/csv"
	"fmt"
	"io"
	"time"

	"backend_extintores/models"

	"github.com/jung-kurt/gofpdf"
	"github.com/sirupsen/logrus"
	"github.com/xuri/excelize/v2"
)

// ReportService выгрузка списка огнетушителей в XLSX, PDF и CSV
type ReportService struct {
	extinguishers *ExtinguisherService
	logger        *logrus.Logger
}

// NewReportService создает новый экземпляр ReportService
func NewReportService(extinguishers *ExtinguisherService, logger *logrus.Logger) *ReportService {
	return &ReportService{extinguishers: extinguishers, logger: logger}
}

// ReportData данные для отчета
type ReportData struct {
	Title   string
	Headers []string
	Rows    []map[string]interface{}
	Summary map[string]int
}

// Report готовый к выгрузке отчет
type Report struct {
	Filename string
	Format   models.ReportFormat
	Rows     int
}

var extinguisherReportHeaders = []string{
	"ID", "Código", "Tipo", "Descripción", "Sede", "Ubicación", "Responsable",
	"Vencimiento", "Días para vencer", "Estado vencimiento", "Último mantenimiento",
	"Mantenimiento pendiente", "Estado", "Capacidad (kg)",
}

// ExportExtinguishers пишет отчет по тем же фильтрам, что и список, в w
func (rs *ReportService) ExportExtinguishers(w io.Writer, format string, filters ExtinguisherFilters) (*Report, error) {
	if !models.ValidReportFormat(format) {
		return nil, FieldError("formato", "Formato no soportado: use xlsx, pdf o csv")
	}

	views, err := rs.extinguishers.ListAll(filters)
	if err != nil {
		return nil, err
	}
	data := BuildExtinguisherReport(views, rs.extinguishers.Today())

	reportFormat := models.ReportFormat(format)
	switch reportFormat {
	case models.ReportFormatCSV:
		err = rs.generateCSVReport(w, data)
	case models.ReportFormatExcel:
		err = rs.generateExcelReport(w, data)
	case models.ReportFormatPDF:
		err = rs.generatePDFReport(w, data)
	}
	if err != nil {
		return nil, NewInternalError(fmt.Errorf("ошибка генерации отчета %s: %w", format, err))
	}

	return &Report{
		Filename: fmt.Sprintf("extintores_%s.%s", rs.extinguishers.Now().Format("20060102_150405"), format),
		Format:   reportFormat,
		Rows:     len(data.Rows),
	}, nil
}

// BuildExtinguisherReport строки отчета по огнетушителям
func BuildExtinguisherReport(views []models.ExtinguisherView, today time.Time) *ReportData {
	data := &ReportData{
		Title:   "Inventario de extintores al " + today.Format("02/01/2006"),
		Headers: extinguisherReportHeaders,
		Rows:    make([]map[string]interface{}, 0, len(views)),
		Summary: map[string]int{},
	}

	for _, v := range views {
		row := map[string]interface{}{
			"ID":                      v.ID,
			"Código":                  derefString(v.InternalCode),
			"Tipo":                    v.TypeID,
			"Descripción":             v.Description,
			"Vencimiento":             v.ExpirationDate.Format("2006-01-02"),
			"Días para vencer":        v.DaysUntilExpiration,
			"Estado vencimiento":      string(v.ExpirationStatus),
			"Último mantenimiento":    "",
			"Mantenimiento pendiente": yesNo(v.MaintenancePending),
			"Estado":                  string(v.EffectiveStatus),
			"Capacidad (kg)":          "",
		}
		if v.Type != nil {
			row["Tipo"] = v.Type.Name
		}
		if v.Location != nil {
			row["Ubicación"] = v.Location.AreaName
			if v.Location.Site != nil {
				row["Sede"] = v.Location.Site.Name
			}
		}
		if v.Responsible != nil {
			row["Responsable"] = v.Responsible.Name
		}
		if v.LastMaintenance != nil {
			row["Último mantenimiento"] = v.LastMaintenance.Format("2006-01-02")
		}
		if v.CapacityKg.Valid {
			row["Capacidad (kg)"] = v.CapacityKg.Decimal.StringFixed(2)
		}

		data.Rows = append(data.Rows, row)
		data.Summary[string(v.ExpirationStatus)]++
		if v.MaintenancePending {
			data.Summary["mantenimiento_pendiente"]++
		}
	}
	return data
}

// generateCSVReport генерирует CSV отчета
func (rs *ReportService) generateCSVReport(w io.Writer, data *ReportData) error {
	writer := csv.NewWriter(w)

	// Записываем заголовки
	if err := writer.Write(data.Headers); err != nil {
		return err
	}

	// Записываем данные
	for _, row := range data.Rows {
		record := make([]string, len(data.Headers))
		for i, header := range data.Headers {
			if value, ok := row[header]; ok {
				record[i] = fmt.Sprintf("%v", value)
			}
		}
		if err := writer.Write(record); err != nil {
			return err
		}
	}

	writer.Flush()
	return writer.Error()
}

// generateExcelReport генерирует Excel отчета
func (rs *ReportService) generateExcelReport(w io.Writer, data *ReportData) error {
	f := excelize.NewFile()
	defer func() {
		if err := f.Close(); err != nil {
			rs.logger.WithError(err).Warn("Не удалось закрыть Excel файл")
		}
	}()

	sheetName := "Extintores"
	if err := f.SetSheetName("Sheet1", sheetName); err != nil {
		return err
	}

	headerStyle, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return err
	}

	// Записываем заголовки
	for i, header := range data.Headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(sheetName, cell, header)
		f.SetCellStyle(sheetName, cell, cell, headerStyle)
	}

	// Записываем данные
	for rowIdx, row := range data.Rows {
		for colIdx, header := range data.Headers {
			cell, _ := excelize.CoordinatesToCellName(colIdx+1, rowIdx+2)
			if value, ok := row[header]; ok {
				f.SetCellValue(sheetName, cell, value)
			}
		}
	}

	// Добавляем автофильтр
	endCell, _ := excelize.CoordinatesToCellName(len(data.Headers), len(data.Rows)+1)
	if err := f.AutoFilter(sheetName, "A1:"+endCell, []excelize.AutoFilterOptions{}); err != nil {
		return err
	}

	return f.Write(w)
}

// generatePDFReport генерирует PDF отчета (альбомная ориентация, сокращенный набор колонок)
func (rs *ReportService) generatePDFReport(w io.Writer, data *ReportData) error {
	pdf := gofpdf.New("L", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.AddPage()

	// Заголовок отчета
	pdf.SetFont("Arial", "B", 14)
	pdf.Cell(0, 10, tr(data.Title))
	pdf.Ln(12)

	columns := []struct {
		header string
		width  float64
	}{
		{"Código", 25}, {"Tipo", 35}, {"Sede", 40}, {"Ubicación", 40},
		{"Vencimiento", 25}, {"Días para vencer", 25}, {"Estado vencimiento", 30},
		{"Mantenimiento pendiente", 25}, {"Estado", 25},
	}

	pdf.SetFont("Arial", "B", 8)
	for _, col := range columns {
		pdf.CellFormat(col.width, 7, tr(col.header), "1", 0, "C", false, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Arial", "", 8)
	for _, row := range data.Rows {
		for _, col := range columns {
			value := ""
			if v, ok := row[col.header]; ok && v != nil {
				value = fmt.Sprintf("%v", v)
			}
			pdf.CellFormat(col.width, 6, tr(truncate(value, 28)), "1", 0, "L", false, 0, "")
		}
		pdf.Ln(-1)
	}

	// Итоги
	pdf.Ln(4)
	pdf.SetFont("Arial", "B", 9)
	pdf.Cell(0, 6, tr(fmt.Sprintf("Total: %d | Vencidos: %d | Por vencer: %d | Vigentes: %d | Mantenimiento pendiente: %d",
		len(data.Rows),
		data.Summary[string(models.BucketExpired)],
		data.Summary[string(models.BucketExpiringSoon)],
		data.Summary[string(models.BucketCurrent)],
		data.Summary["mantenimiento_pendiente"],
	)))

	return pdf.Output(w)
}

func derefString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func yesNo(b bool) string {
	if b {
		return "Sí"
	}
	return "No"
}
