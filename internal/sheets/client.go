// Package sheets adapts the Google Sheets API to the storage interfaces the
// bot consumes. One spreadsheet carries the competitions, their per-event
// registration tabs and the metadata tabs (age_groups, coaches,
// notifications); a second one (optionally the same document) carries the
// shop catalog, banners and orders.
package sheets

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"registration-assistant/internal/domain"
	"registration-assistant/internal/schema"

	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

const (
	competitionsSheet  = "competitions"
	ageGroupsSheet     = "age_groups"
	coachesSheet       = "coaches"
	notificationsSheet = "notifications"
	productsSheet      = "products"
	bannersSheet       = "banners"
	ordersSheet        = "orders"
)

type Client struct {
	svc               *sheets.Service
	spreadsheetID     string
	shopSpreadsheetID string
	logger            domain.Logger
}

var (
	_ domain.EventStore        = (*Client)(nil)
	_ domain.ShopStore         = (*Client)(nil)
	_ domain.NotificationStore = (*Client)(nil)
)

// New creates a Sheets client authenticated with a service account key file.
func New(ctx context.Context, credentialsFile, spreadsheetID, shopSpreadsheetID string, logger domain.Logger) (*Client, error) {
	svc, err := sheets.NewService(ctx, option.WithCredentialsFile(credentialsFile))
	if err != nil {
		return nil, fmt.Errorf("створення клієнта sheets: %w", err)
	}

	if shopSpreadsheetID == "" {
		shopSpreadsheetID = spreadsheetID
	}

	return &Client{
		svc:               svc,
		spreadsheetID:     spreadsheetID,
		shopSpreadsheetID: shopSpreadsheetID,
		logger:            logger,
	}, nil
}

// FetchEvents reads the competitions sheet.
func (c *Client) FetchEvents(ctx context.Context) ([]domain.Event, error) {
	rows, err := c.readTable(ctx, c.spreadsheetID, competitionsSheet)
	if err != nil {
		return nil, err
	}

	events := make([]domain.Event, 0, len(rows))
	for _, row := range rows {
		events = append(events, domain.Event{
			ID:          row["id"],
			Name:        row["Назва змагань"],
			Date:        row["Дата"],
			Deadline:    row["Дедлайн"],
			PaymentInfo: row["Реквізити для оплати"],
			Info:        row["Інформація"],
		})
	}
	return events, nil
}

// FetchEventByID scans the competitions sheet for one row.
func (c *Client) FetchEventByID(ctx context.Context, id string) (*domain.Event, error) {
	events, err := c.FetchEvents(ctx)
	if err != nil {
		return nil, err
	}
	for i := range events {
		if events[i].ID == id {
			return &events[i], nil
		}
	}
	return nil, nil
}

// FetchEventColumns reads the header row of the event's registration tab.
func (c *Client) FetchEventColumns(ctx context.Context, event *domain.Event) ([]string, error) {
	resp, err := c.svc.Spreadsheets.Values.
		Get(c.spreadsheetID, quoteSheet(event.Name)+"!1:1").
		Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("заголовки аркуша %q: %w", event.Name, err)
	}
	if len(resp.Values) == 0 {
		return nil, nil
	}

	columns := make([]string, 0, len(resp.Values[0]))
	for _, cell := range resp.Values[0] {
		columns = append(columns, cellString(cell))
	}
	return columns, nil
}

// FetchAgeGroups lists the age groups scoped to one competition.
func (c *Client) FetchAgeGroups(ctx context.Context, eventID string) ([]string, error) {
	rows, err := c.readTable(ctx, c.spreadsheetID, ageGroupsSheet)
	if err != nil {
		return nil, err
	}

	var groups []string
	for _, row := range rows {
		if row["competition_id"] == eventID {
			groups = append(groups, row["age_group"])
		}
	}
	return groups, nil
}

// FetchCoaches lists the coaches scoped to one competition.
func (c *Client) FetchCoaches(ctx context.Context, eventID string) ([]domain.Coach, error) {
	rows, err := c.readTable(ctx, c.spreadsheetID, coachesSheet)
	if err != nil {
		return nil, err
	}

	var coaches []domain.Coach
	for _, row := range rows {
		if row["competition_id"] == eventID {
			coaches = append(coaches, domain.Coach{
				ID:   row["coach_id"],
				Name: row["coach_name"],
			})
		}
	}
	return coaches, nil
}

// SaveRegistration appends one row to the event's registration tab,
// creating the tab with the step titles as its header when missing.
// Answer cells are aligned to the tab's live header order; a
// [payment]-tagged header receives the payment timestamp out-of-band.
func (c *Client) SaveRegistration(ctx context.Context, rec *domain.RegistrationRecord) error {
	columns, err := c.FetchEventColumns(ctx, &domain.Event{Name: rec.EventName})
	if err != nil || len(columns) == 0 {
		if columns, err = c.createRegistrationSheet(ctx, rec); err != nil {
			return err
		}
	}

	paymentColumn, hasPayment := schema.PaymentColumn(columns)

	row := make([]any, 0, len(columns))
	for _, column := range columns {
		if hasPayment && column == paymentColumn {
			row = append(row, rec.PaymentDateTime)
			continue
		}
		row = append(row, rec.Values[schema.Key(column)])
	}

	return c.appendRow(ctx, c.spreadsheetID, rec.EventName, row)
}

// FetchCatalog reads the shop products sheet.
func (c *Client) FetchCatalog(ctx context.Context) ([]domain.Product, error) {
	rows, err := c.readTable(ctx, c.shopSpreadsheetID, productsSheet)
	if err != nil {
		return nil, err
	}

	products := make([]domain.Product, 0, len(rows))
	for _, row := range rows {
		price, _ := strconv.ParseFloat(strings.ReplaceAll(row["price"], ",", "."), 64)
		stock, _ := strconv.Atoi(row["stock"])
		products = append(products, domain.Product{
			ID:          row["id"],
			Name:        row["name"],
			Category:    row["category"],
			Description: row["description"],
			Color:       row["color"],
			Price:       price,
			Stock:       stock,
			ImageRef:    row["image"],
		})
	}
	return products, nil
}

// FetchCategoryBanners reads the banner mapping for the category view.
func (c *Client) FetchCategoryBanners(ctx context.Context) (map[string]string, error) {
	rows, err := c.readTable(ctx, c.shopSpreadsheetID, bannersSheet)
	if err != nil {
		return nil, err
	}

	banners := make(map[string]string, len(rows))
	for _, row := range rows {
		banners[row["category"]] = row["image"]
	}
	return banners, nil
}

// SaveOrderRows appends the confirmed order lines to the orders sheet.
func (c *Client) SaveOrderRows(ctx context.Context, rows []domain.OrderRow) error {
	values := make([][]any, 0, len(rows))
	for _, row := range rows {
		values = append(values, []any{
			row.ID,
			row.PlacedAt,
			row.ProductName,
			row.Color,
			row.Quantity,
			fmt.Sprintf("%.2f", row.UnitPrice),
			row.CustomerName,
			row.Phone,
		})
	}

	_, err := c.svc.Spreadsheets.Values.
		Append(c.shopSpreadsheetID, quoteSheet(ordersSheet)+"!A:H", &sheets.ValueRange{Values: values}).
		ValueInputOption("USER_ENTERED").
		Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("додавання рядків замовлення: %w", err)
	}
	return nil
}

// FetchNotifications reads pending broadcast rows.
func (c *Client) FetchNotifications(ctx context.Context) ([]domain.Notification, error) {
	rows, err := c.readTable(ctx, c.spreadsheetID, notificationsSheet)
	if err != nil {
		return nil, err
	}

	notifications := make([]domain.Notification, 0, len(rows))
	for _, row := range rows {
		notifications = append(notifications, domain.Notification{
			ID:           row["id"],
			Message:      row["message"],
			SendDateTime: row["send_date_time"],
		})
	}
	return notifications, nil
}

// createRegistrationSheet adds the per-event tab with headers taken from
// the step titles.
func (c *Client) createRegistrationSheet(ctx context.Context, rec *domain.RegistrationRecord) ([]string, error) {
	_, err := c.svc.Spreadsheets.BatchUpdate(c.spreadsheetID, &sheets.BatchUpdateSpreadsheetRequest{
		Requests: []*sheets.Request{{
			AddSheet: &sheets.AddSheetRequest{
				Properties: &sheets.SheetProperties{Title: rec.EventName},
			},
		}},
	}).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("створення аркуша %q: %w", rec.EventName, err)
	}

	columns := make([]string, 0, len(rec.Steps))
	header := make([]any, 0, len(rec.Steps))
	for _, step := range rec.Steps {
		columns = append(columns, step.Title)
		header = append(header, step.Title)
	}

	_, err = c.svc.Spreadsheets.Values.
		Update(c.spreadsheetID, quoteSheet(rec.EventName)+"!1:1", &sheets.ValueRange{Values: [][]any{header}}).
		ValueInputOption("RAW").
		Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("запис заголовків аркуша %q: %w", rec.EventName, err)
	}

	c.logger.WithField("sheet", rec.EventName).Info("Створено аркуш реєстрацій")
	return columns, nil
}

func (c *Client) appendRow(ctx context.Context, spreadsheetID, sheetName string, row []any) error {
	_, err := c.svc.Spreadsheets.Values.
		Append(spreadsheetID, quoteSheet(sheetName)+"!A:Z", &sheets.ValueRange{Values: [][]any{row}}).
		ValueInputOption("USER_ENTERED").
		Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("додавання рядка до %q: %w", sheetName, err)
	}
	return nil
}

// readTable reads a sheet whose first row is a header and maps every data
// row by header name.
func (c *Client) readTable(ctx context.Context, spreadsheetID, sheetName string) ([]map[string]string, error) {
	resp, err := c.svc.Spreadsheets.Values.
		Get(spreadsheetID, quoteSheet(sheetName)+"!A:Z").
		Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("читання аркуша %q: %w", sheetName, err)
	}
	if len(resp.Values) == 0 {
		return nil, nil
	}

	headers := make([]string, 0, len(resp.Values[0]))
	for _, cell := range resp.Values[0] {
		headers = append(headers, cellString(cell))
	}

	rows := make([]map[string]string, 0, len(resp.Values)-1)
	for _, raw := range resp.Values[1:] {
		row := make(map[string]string, len(headers))
		for i, header := range headers {
			if i < len(raw) {
				row[header] = cellString(raw[i])
			}
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// quoteSheet wraps a sheet title for use inside an A1 range.
func quoteSheet(name string) string {
	return "'" + strings.ReplaceAll(name, "'", "''") + "'"
}

func cellString(cell any) string {
	switch v := cell.(type) {
	case string:
		return strings.TrimSpace(v)
	default:
		return strings.TrimSpace(fmt.Sprint(v))
	}
}
