package export

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"gasthof/internal/domain"
	"gasthof/internal/models"
	"gasthof/internal/status"

	"github.com/rs/zerolog"
	"github.com/xuri/excelize/v2"
)

// Service renders booking data into downloadable XLSX files.
type Service struct {
	bookings domain.BookingService
	path     string
	logger   *zerolog.Logger
}

func NewService(bookings domain.BookingService, path string, logger *zerolog.Logger) *Service {
	return &Service{
		bookings: bookings,
		path:     path,
		logger:   logger,
	}
}

// ExportOccupancy создает Excel файл с сеткой занятости: строка на
// объект, колонка на день.
func (s *Service) ExportOccupancy(ctx context.Context, startDate, endDate time.Time) (string, error) {
	if err := os.MkdirAll(s.path, 0o755); err != nil {
		return "", fmt.Errorf("error creating export directory: %v", err)
	}

	dailyBookings, err := s.bookings.GetDailyBookings(ctx, startDate, endDate)
	if err != nil {
		return "", fmt.Errorf("error getting bookings: %v", err)
	}

	f := excelize.NewFile()
	defer f.Close()

	sheetName := "Belegung"
	index, err := f.NewSheet(sheetName)
	if err != nil {
		return "", fmt.Errorf("error creating sheet: %v", err)
	}
	f.SetActiveSheet(index)

	_ = f.SetCellValue(sheetName, "A1", fmt.Sprintf("Zeitraum: %s - %s",
		startDate.Format("02.01.2006"), endDate.Format("02.01.2006")))

	dateHeaders := s.writeDateHeaders(f, sheetName, startDate, endDate)
	properties := collectProperties(dailyBookings)
	s.writePropertyHeaders(f, sheetName, properties)
	s.writeOccupancyData(f, sheetName, dailyBookings, properties, dateHeaders)

	_ = f.SetColWidth(sheetName, "A", "A", 25)
	for i := 'B'; i <= 'Z'; i++ {
		_ = f.SetColWidth(sheetName, string(i), string(i), 20)
	}

	lastCol := getLastColumn(len(dateHeaders) + 1)
	_ = f.MergeCell(sheetName, "A1", lastCol+"1")

	style, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 14},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	_ = f.SetCellStyle(sheetName, "A1", "A1", style)

	_ = f.DeleteSheet("Sheet1")

	fileName := fmt.Sprintf("belegung_%s_to_%s.xlsx",
		startDate.Format(models.DateOnly),
		endDate.Format(models.DateOnly))
	filePath := filepath.Join(s.path, fileName)

	if err := f.SaveAs(filePath); err != nil {
		return "", fmt.Errorf("error saving file: %v", err)
	}

	s.logger.Info().Str("file_path", filePath).Msg("Occupancy export created")
	return filePath, nil
}

// ExportReservations создает Excel файл со списком резерваций.
func (s *Service) ExportReservations(ctx context.Context) (string, error) {
	if err := os.MkdirAll(s.path, 0o755); err != nil {
		return "", fmt.Errorf("error creating export directory: %v", err)
	}

	reservations, err := s.bookings.ReservationsView(ctx)
	if err != nil {
		return "", fmt.Errorf("error getting reservations: %v", err)
	}

	f := excelize.NewFile()
	defer f.Close()

	sheetName := "Reservierungen"
	index, err := f.NewSheet(sheetName)
	if err != nil {
		return "", fmt.Errorf("error creating sheet: %v", err)
	}
	f.SetActiveSheet(index)

	headers := []string{"ID", "Objekt", "Zimmer", "Gast", "Anreise", "Abreise", "Status", "Kommentar"}
	headerStyle, _ := f.NewStyle(&excelize.Style{
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#DDEBF7"}, Pattern: 1},
		Font: &excelize.Font{Bold: true},
	})
	for i, header := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheetName, cell, header)
		_ = f.SetCellStyle(sheetName, cell, cell, headerStyle)
	}

	for i, b := range reservations {
		row := i + 2
		_ = f.SetCellValue(sheetName, fmt.Sprintf("A%d", row), b.ID)
		_ = f.SetCellValue(sheetName, fmt.Sprintf("B%d", row), b.PropertyID)
		_ = f.SetCellValue(sheetName, fmt.Sprintf("C%d", row), b.RoomName)
		_ = f.SetCellValue(sheetName, fmt.Sprintf("D%d", row), b.GuestName)
		_ = f.SetCellValue(sheetName, fmt.Sprintf("E%d", row), b.StartDate.Format("02.01.2006"))
		_ = f.SetCellValue(sheetName, fmt.Sprintf("F%d", row), b.EndDate.Format("02.01.2006"))
		_ = f.SetCellValue(sheetName, fmt.Sprintf("G%d", row), b.Status)
		_ = f.SetCellValue(sheetName, fmt.Sprintf("H%d", row), b.Comment)

		statusCell := fmt.Sprintf("G%d", row)
		styleID, err := f.NewStyle(&excelize.Style{
			Fill: excelize.Fill{Type: "pattern", Color: []string{statusHexColor(status.BookingStatus(b.Status))}, Pattern: 1},
		})
		if err == nil {
			_ = f.SetCellStyle(sheetName, statusCell, statusCell, styleID)
		}
	}

	_ = f.SetColWidth(sheetName, "A", "A", 14)
	_ = f.SetColWidth(sheetName, "B", "D", 20)
	_ = f.SetColWidth(sheetName, "E", "G", 14)
	_ = f.SetColWidth(sheetName, "H", "H", 30)

	_ = f.DeleteSheet("Sheet1")

	fileName := fmt.Sprintf("reservierungen_%s.xlsx", time.Now().Format("2006-01-02_15-04-05"))
	filePath := filepath.Join(s.path, fileName)

	if err := f.SaveAs(filePath); err != nil {
		return "", fmt.Errorf("error saving file: %v", err)
	}

	s.logger.Info().Str("file_path", filePath).Msg("Reservations export created")
	return filePath, nil
}

func (s *Service) writeDateHeaders(f *excelize.File, sheetName string, startDate, endDate time.Time) map[string]int {
	col := 2
	dateHeaders := make(map[string]int)

	style, _ := f.NewStyle(&excelize.Style{
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#DDEBF7"}, Pattern: 1},
		Font:      &excelize.Font{Bold: true},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})

	for day := startDate; !day.After(endDate); day = day.AddDate(0, 0, 1) {
		cell, _ := excelize.CoordinatesToCellName(col, 2)
		_ = f.SetCellValue(sheetName, cell, day.Format("02.01"))
		_ = f.SetCellStyle(sheetName, cell, cell, style)
		dateHeaders[day.Format(models.DateOnly)] = col
		col++
	}
	return dateHeaders
}

func (s *Service) writePropertyHeaders(f *excelize.File, sheetName string, properties []string) {
	style, _ := f.NewStyle(&excelize.Style{
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#E2EFDA"}, Pattern: 1},
		Font: &excelize.Font{Bold: true},
	})

	row := 3
	for _, propertyID := range properties {
		cell, _ := excelize.CoordinatesToCellName(1, row)
		_ = f.SetCellValue(sheetName, cell, propertyID)
		_ = f.SetCellStyle(sheetName, cell, cell, style)
		row++
	}
}

func (s *Service) writeOccupancyData(
	f *excelize.File, sheetName string,
	dailyBookings map[string][]models.Booking,
	properties []string,
	dateHeaders map[string]int,
) {
	rowByProperty := make(map[string]int, len(properties))
	for i, p := range properties {
		rowByProperty[p] = i + 3
	}

	for dateKey, bookings := range dailyBookings {
		col, exists := dateHeaders[dateKey]
		if !exists {
			continue
		}

		for _, booking := range bookings {
			row, ok := rowByProperty[booking.PropertyID]
			if !ok {
				continue
			}
			cell, _ := excelize.CoordinatesToCellName(col, row)

			cellValue := booking.GuestName
			if booking.RoomName != "" {
				cellValue += "\n" + booking.RoomName
			}
			cellValue += "\n" + booking.Status
			_ = f.SetCellValue(sheetName, cell, cellValue)

			styleID, err := f.NewStyle(&excelize.Style{
				Fill: excelize.Fill{Type: "pattern", Color: []string{statusHexColor(status.BookingStatus(booking.Status))}, Pattern: 1},
				Alignment: &excelize.Alignment{
					Horizontal: "left",
					Vertical:   "top",
					WrapText:   true,
				},
			})
			if err == nil {
				_ = f.SetCellStyle(sheetName, cell, cell, styleID)
			}
		}
	}
}

// statusHexColor maps a lifecycle status to the cell fill. Keep this
// aligned with the fills in the status package.
func statusHexColor(s status.BookingStatus) string {
	switch status.Normalize(s) {
	case status.Reserved:
		return "#FFF2CC"
	case status.OfferPrepared, status.OfferSent:
		return "#DDEBF7"
	case status.Invoiced:
		return "#FFEB9C"
	case status.Paid:
		return "#C6EFCE"
	case status.CheckInDone:
		return "#A9E3BD"
	case status.Completed:
		return "#D9D9D9"
	default:
		return "#FFFFFF"
	}
}

// collectProperties returns distinct property ids sorted for a stable
// row layout.
func collectProperties(dailyBookings map[string][]models.Booking) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, bookings := range dailyBookings {
		for _, b := range bookings {
			if _, ok := seen[b.PropertyID]; ok {
				continue
			}
			seen[b.PropertyID] = struct{}{}
			out = append(out, b.PropertyID)
		}
	}
	sort.Strings(out)
	return out
}

// getLastColumn возвращает последнюю колонку для объединения ячеек
func getLastColumn(colCount int) string {
	if colCount <= 26 {
		return string(rune('A' + colCount - 1))
	}

	firstChar := string(rune('A' + (colCount-1)/26 - 1))
	secondChar := string(rune('A' + (colCount-1)%26))
	return firstChar + secondChar
}
