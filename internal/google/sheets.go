package google

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"
	"time"

	"gasthof/internal/models"
	"gasthof/internal/status"

	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

const (
	bookingsSheetName = "Bookings"
	scheduleSheetName = "Belegungsplan"
)

var ErrRowNotFound = errors.New("booking row not found")

// SheetsService mirrors booking state into a shared spreadsheet: one
// flat Bookings sheet plus a per-day occupancy grid.
type SheetsService struct {
	service       *sheets.Service
	spreadsheetID string
	rowCache      map[string]int
	cacheMu       sync.RWMutex
}

func NewSheetsService(credentialsFile, spreadsheetID string) (*SheetsService, error) {
	ctx := context.Background()

	// Читаем файл учетных данных сервисного аккаунта
	credentialsJSON, err := os.ReadFile(credentialsFile)
	if err != nil {
		return nil, fmt.Errorf("unable to read credentials file: %v", err)
	}

	config, err := google.JWTConfigFromJSON(credentialsJSON, sheets.SpreadsheetsScope)
	if err != nil {
		return nil, fmt.Errorf("unable to parse credentials: %v", err)
	}

	client := config.Client(ctx)

	srv, err := sheets.NewService(ctx, option.WithHTTPClient(client))
	if err != nil {
		return nil, fmt.Errorf("unable to create Sheets service: %v", err)
	}

	service := &SheetsService{
		service:       srv,
		spreadsheetID: spreadsheetID,
		rowCache:      make(map[string]int),
	}

	// Warm up cache in background
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		service.WarmUpCache(ctx)
	}()

	return service, nil
}

// TestConnection проверяет подключение к таблице
func (s *SheetsService) TestConnection(ctx context.Context) error {
	_, err := s.service.Spreadsheets.Values.Get(s.spreadsheetID, bookingsSheetName+"!A1").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("connection test failed: %v", err)
	}
	return nil
}

// GetServiceAccountEmail возвращает email сервисного аккаунта
func (s *SheetsService) GetServiceAccountEmail(credentialsFile string) (string, error) {
	file, err := os.ReadFile(credentialsFile)
	if err != nil {
		return "", err
	}

	var creds struct {
		ClientEmail string `json:"client_email"`
	}

	if err := json.Unmarshal(file, &creds); err != nil {
		return "", err
	}

	return creds.ClientEmail, nil
}

// WarmUpCache populates the row index cache by reading the entire ID column.
func (s *SheetsService) WarmUpCache(ctx context.Context) error {
	resp, err := s.service.Spreadsheets.Values.Get(s.spreadsheetID, bookingsSheetName+"!A:A").Context(ctx).Do()
	if err != nil {
		return err
	}

	s.cacheMu.Lock()
	defer s.cacheMu.Unlock()
	s.rowCache = make(map[string]int)

	for i, row := range resp.Values {
		if len(row) == 0 {
			continue
		}
		id := strings.TrimSpace(fmt.Sprintf("%v", row[0]))
		if id != "" && id != "ID" {
			s.rowCache[id] = i + 1
		}
	}
	return nil
}

// UpsertBooking updates an existing booking row or appends a new one if not found.
func (s *SheetsService) UpsertBooking(ctx context.Context, booking *models.Booking) error {
	if booking == nil {
		return fmt.Errorf("booking is nil")
	}

	rowIdx, err := s.FindBookingRow(ctx, booking.ID)
	if err != nil {
		if errors.Is(err, ErrRowNotFound) {
			return s.appendBooking(ctx, booking)
		}
		return err
	}

	rangeData := fmt.Sprintf("%s!A%d:J%d", bookingsSheetName, rowIdx, rowIdx)
	valueRange := &sheets.ValueRange{
		Values: [][]interface{}{bookingRowValues(booking)},
	}

	_, err = s.service.Spreadsheets.Values.Update(s.spreadsheetID, rangeData, valueRange).
		ValueInputOption("RAW").
		Context(ctx).
		Do()
	return err
}

func (s *SheetsService) appendBooking(ctx context.Context, booking *models.Booking) error {
	rangeData := bookingsSheetName + "!A:A"
	valueRange := &sheets.ValueRange{
		Values: [][]interface{}{bookingRowValues(booking)},
	}

	_, err := s.service.Spreadsheets.Values.Append(s.spreadsheetID, rangeData, valueRange).
		ValueInputOption("RAW").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).
		Do()

	return err
}

// UpdateBookingStatus updates the status and updated-at cells for a booking row.
func (s *SheetsService) UpdateBookingStatus(ctx context.Context, bookingID string, bookingStatus string) error {
	rowIdx, err := s.FindBookingRow(ctx, bookingID)
	if err != nil {
		return err
	}

	now := time.Now().Format("2006-01-02 15:04:05")

	statusRange := fmt.Sprintf("%s!F%d:F%d", bookingsSheetName, rowIdx, rowIdx)
	_, err = s.service.Spreadsheets.Values.Update(s.spreadsheetID, statusRange, &sheets.ValueRange{
		Values: [][]interface{}{{bookingStatus}},
	}).ValueInputOption("RAW").Context(ctx).Do()
	if err != nil {
		return err
	}

	updatedRange := fmt.Sprintf("%s!J%d:J%d", bookingsSheetName, rowIdx, rowIdx)
	_, err = s.service.Spreadsheets.Values.Update(s.spreadsheetID, updatedRange, &sheets.ValueRange{
		Values: [][]interface{}{{now}},
	}).ValueInputOption("RAW").Context(ctx).Do()
	return err
}

// FindBookingRow locates row index (1-based) for a booking id in column A with cache.
func (s *SheetsService) FindBookingRow(ctx context.Context, bookingID string) (int, error) {
	if bookingID == "" {
		return 0, fmt.Errorf("booking id is required")
	}

	if row, ok := s.getCachedRow(bookingID); ok {
		return row, nil
	}

	resp, err := s.service.Spreadsheets.Values.Get(s.spreadsheetID, bookingsSheetName+"!A:A").Context(ctx).Do()
	if err != nil {
		return 0, err
	}

	for i, row := range resp.Values {
		if len(row) == 0 {
			continue
		}
		if strings.TrimSpace(fmt.Sprintf("%v", row[0])) == bookingID {
			rowIdx := i + 1 // Values are zero-based; sheet rows are 1-based
			s.setCachedRow(bookingID, rowIdx)
			return rowIdx, nil
		}
	}

	return 0, ErrRowNotFound
}

// UpdateScheduleSheet rewrites the occupancy grid: one row per property,
// one column per day, each occupied cell tinted by the booking status.
func (s *SheetsService) UpdateScheduleSheet(ctx context.Context, startDate, endDate time.Time, dailyBookings map[string][]models.Booking) error {
	sheetID, err := s.GetSheetIDByName(ctx, scheduleSheetName)
	if err != nil {
		return fmt.Errorf("unable to get sheet ID: %v", err)
	}

	clearRange := scheduleSheetName + "!A:Z"
	_, err = s.service.Spreadsheets.Values.Clear(s.spreadsheetID, clearRange, &sheets.ClearValuesRequest{}).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("unable to clear sheet: %v", err)
	}

	days := int(endDate.Sub(startDate).Hours()/24) + 1
	if days <= 0 {
		return fmt.Errorf("invalid date range: startDate %s, endDate %s", startDate, endDate)
	}

	var data [][]interface{}
	var formatRequests []*sheets.Request

	// Заголовок периода (строка 1)
	data = append(data, []interface{}{
		fmt.Sprintf("Zeitraum: %s - %s",
			startDate.Format("02.01.2006"),
			endDate.Format("02.01.2006")),
	})
	data = append(data, []interface{}{})

	headerRow := []interface{}{""}
	dateCols := 0
	for day := startDate; !day.After(endDate) && dateCols < 100; day = day.AddDate(0, 0, 1) {
		headerRow = append(headerRow, day.Format("02.01"))
		dateCols++
	}
	data = append(data, headerRow)

	formatRequests = append(formatRequests, &sheets.Request{
		RepeatCell: &sheets.RepeatCellRequest{
			Range: &sheets.GridRange{
				SheetId:          sheetID,
				StartRowIndex:    2,
				EndRowIndex:      3,
				StartColumnIndex: 1,
				EndColumnIndex:   int64(len(headerRow)),
			},
			Cell: &sheets.CellData{
				UserEnteredFormat: &sheets.CellFormat{
					HorizontalAlignment: "CENTER",
					TextFormat:          &sheets.TextFormat{Bold: true},
					BackgroundColor:     &sheets.Color{Red: 0.86, Green: 0.92, Blue: 0.97},
				},
			},
			Fields: "userEnteredFormat(backgroundColor,textFormat,horizontalAlignment)",
		},
	})

	properties := collectProperties(dailyBookings)

	for rowIndex, propertyID := range properties {
		rowData := []interface{}{propertyID}

		colIndex := 0
		for day := startDate; !day.After(endDate) && colIndex < dateCols; day = day.AddDate(0, 0, 1) {
			dateKey := day.Format(models.DateOnly)

			var occupant *models.Booking
			for i := range dailyBookings[dateKey] {
				if dailyBookings[dateKey][i].PropertyID == propertyID {
					occupant = &dailyBookings[dateKey][i]
					break
				}
			}

			cellValue := ""
			background := &sheets.Color{Red: 1.0, Green: 1.0, Blue: 1.0}
			if occupant != nil {
				cellValue = fmt.Sprintf("%s\n%s", occupant.GuestName, occupant.Status)
				if occupant.Comment != "" {
					cellValue += "\n" + occupant.Comment
				}
				background = statusColor(status.BookingStatus(occupant.Status))
			}
			rowData = append(rowData, cellValue)

			formatRequests = append(formatRequests, &sheets.Request{
				RepeatCell: &sheets.RepeatCellRequest{
					Range: &sheets.GridRange{
						SheetId:          sheetID,
						StartRowIndex:    int64(rowIndex + 3),
						EndRowIndex:      int64(rowIndex + 4),
						StartColumnIndex: int64(colIndex + 1),
						EndColumnIndex:   int64(colIndex + 2),
					},
					Cell: &sheets.CellData{
						UserEnteredFormat: &sheets.CellFormat{
							VerticalAlignment: "TOP",
							WrapStrategy:      "WRAP",
							BackgroundColor:   background,
						},
					},
					Fields: "userEnteredFormat(backgroundColor,verticalAlignment,wrapStrategy)",
				},
			})
			colIndex++
		}
		data = append(data, rowData)
	}

	if len(properties) == 0 {
		rowData := []interface{}{"Keine Objekte"}
		for i := 0; i < dateCols; i++ {
			rowData = append(rowData, "")
		}
		data = append(data, rowData)
	}

	valueRange := &sheets.ValueRange{Values: data}
	_, err = s.service.Spreadsheets.Values.Update(s.spreadsheetID, scheduleSheetName+"!A1", valueRange).
		ValueInputOption("RAW").
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("unable to update schedule sheet: %v", err)
	}

	if len(formatRequests) > 0 {
		batchUpdateRequest := &sheets.BatchUpdateSpreadsheetRequest{Requests: formatRequests}
		_, err = s.service.Spreadsheets.BatchUpdate(s.spreadsheetID, batchUpdateRequest).Context(ctx).Do()
		if err != nil {
			return fmt.Errorf("unable to apply formatting: %v", err)
		}
	}

	return s.adjustColumnWidths(ctx, sheetID, dateCols)
}

// GetSheetIDByName возвращает ID листа по его названию
func (s *SheetsService) GetSheetIDByName(ctx context.Context, sheetName string) (int64, error) {
	spreadsheet, err := s.service.Spreadsheets.Get(s.spreadsheetID).Context(ctx).Do()
	if err != nil {
		return 0, fmt.Errorf("unable to get spreadsheet: %v", err)
	}

	for _, sheet := range spreadsheet.Sheets {
		if sheet.Properties.Title == sheetName {
			return sheet.Properties.SheetId, nil
		}
	}

	return 0, fmt.Errorf("sheet '%s' not found", sheetName)
}

func (s *SheetsService) adjustColumnWidths(ctx context.Context, sheetID int64, dateCols int) error {
	if dateCols <= 0 {
		dateCols = 1
	}

	requests := []*sheets.Request{{
		UpdateDimensionProperties: &sheets.UpdateDimensionPropertiesRequest{
			Range: &sheets.DimensionRange{
				SheetId:    sheetID,
				Dimension:  "COLUMNS",
				StartIndex: 0,
				EndIndex:   1,
			},
			Properties: &sheets.DimensionProperties{PixelSize: 200},
			Fields:     "pixelSize",
		},
	}}

	for i := 1; i <= dateCols && i < 100; i++ {
		requests = append(requests, &sheets.Request{
			UpdateDimensionProperties: &sheets.UpdateDimensionPropertiesRequest{
				Range: &sheets.DimensionRange{
					SheetId:    sheetID,
					Dimension:  "COLUMNS",
					StartIndex: int64(i),
					EndIndex:   int64(i + 1),
				},
				Properties: &sheets.DimensionProperties{PixelSize: 150},
				Fields:     "pixelSize",
			},
		})
	}

	_, err := s.service.Spreadsheets.BatchUpdate(s.spreadsheetID, &sheets.BatchUpdateSpreadsheetRequest{
		Requests: requests,
	}).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("unable to adjust column widths: %v", err)
	}
	return nil
}

func (s *SheetsService) getCachedRow(id string) (int, bool) {
	s.cacheMu.RLock()
	defer s.cacheMu.RUnlock()
	row, ok := s.rowCache[id]
	return row, ok
}

func (s *SheetsService) setCachedRow(id string, row int) {
	s.cacheMu.Lock()
	defer s.cacheMu.Unlock()
	s.rowCache[id] = row
}

// ClearCache clears the row index cache.
func (s *SheetsService) ClearCache() {
	s.cacheMu.Lock()
	defer s.cacheMu.Unlock()
	s.rowCache = make(map[string]int)
}

func bookingRowValues(booking *models.Booking) []interface{} {
	return []interface{}{
		booking.ID,
		booking.PropertyID,
		booking.RoomName,
		booking.GuestName,
		booking.StartDate.Format(models.DateOnly),
		booking.Status,
		booking.EndDate.Format(models.DateOnly),
		booking.Comment,
		booking.CreatedAt.Format("2006-01-02 15:04:05"),
		booking.UpdatedAt.Format("2006-01-02 15:04:05"),
	}
}

// collectProperties returns the distinct property ids present in the
// daily map, sorted for a stable sheet layout.
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

// statusColor maps a lifecycle status to the cell tint of the occupancy
// grid. Keep this aligned with the fills in the status package.
func statusColor(s status.BookingStatus) *sheets.Color {
	switch status.Normalize(s) {
	case status.Reserved:
		return &sheets.Color{Red: 1.0, Green: 0.95, Blue: 0.80}
	case status.OfferPrepared, status.OfferSent:
		return &sheets.Color{Red: 0.86, Green: 0.92, Blue: 0.97}
	case status.Invoiced:
		return &sheets.Color{Red: 1.0, Green: 0.92, Blue: 0.61}
	case status.Paid:
		return &sheets.Color{Red: 0.78, Green: 0.94, Blue: 0.81}
	case status.CheckInDone:
		return &sheets.Color{Red: 0.65, Green: 0.89, Blue: 0.74}
	case status.Completed:
		return &sheets.Color{Red: 0.85, Green: 0.85, Blue: 0.85}
	default:
		return &sheets.Color{Red: 1.0, Green: 0.78, Blue: 0.81}
	}
}
