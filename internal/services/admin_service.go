// internal/services/admin_service.go
package services

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/360EntSecGroup-Skylar/excelize"
	"github.com/gocarina/gocsv"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/javajoker/storefront/internal/models"
)

const (
	ExportFormatCSV  = "csv"
	ExportFormatXLSX = "xlsx"
)

type AdminService struct {
	users    UserRepository
	products ProductRepository
	orders   OrderRepository
}

// OrderExportRow is one line of the orders export.
type OrderExportRow struct {
	ID          string `csv:"id"`
	CreatedAt   string `csv:"created_at"`
	Customer    string `csv:"customer"`
	Email       string `csv:"email"`
	Items       int    `csv:"items"`
	ItemsPrice  string `csv:"items_price"`
	TaxPrice    string `csv:"tax_price"`
	Shipping    string `csv:"shipping_price"`
	TotalPrice  string `csv:"total_price"`
	Method      string `csv:"payment_method"`
	Paid        bool   `csv:"paid"`
	PaidAt      string `csv:"paid_at"`
	Delivered   bool   `csv:"delivered"`
	DeliveredAt string `csv:"delivered_at"`
	Country     string `csv:"country"`
}

var exportHeaders = []string{
	"id", "created_at", "customer", "email", "items", "items_price", "tax_price",
	"shipping_price", "total_price", "payment_method", "paid", "paid_at",
	"delivered", "delivered_at", "country",
}

func NewAdminService(users UserRepository, products ProductRepository, orders OrderRepository) *AdminService {
	return &AdminService{
		users:    users,
		products: products,
		orders:   orders,
	}
}

// GetSummary computes the dashboard counters and the monthly sales series.
// Nothing is cached.
func (s *AdminService) GetSummary(ctx context.Context) (*models.Summary, error) {
	summary := &models.Summary{}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		n, err := s.orders.Count(gctx)
		if err != nil {
			return fmt.Errorf("failed to count orders: %w", err)
		}
		summary.OrdersCount = n
		return nil
	})
	g.Go(func() error {
		n, err := s.products.Count(gctx)
		if err != nil {
			return fmt.Errorf("failed to count products: %w", err)
		}
		summary.ProductsCount = n
		return nil
	})
	g.Go(func() error {
		n, err := s.users.Count(gctx)
		if err != nil {
			return fmt.Errorf("failed to count users: %w", err)
		}
		summary.UsersCount = n
		return nil
	})
	g.Go(func() error {
		sales, err := s.orders.SalesByMonth(gctx)
		if err != nil {
			return fmt.Errorf("failed to aggregate sales: %w", err)
		}
		summary.SalesData = sales
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}

	if summary.SalesData == nil {
		summary.SalesData = []models.MonthlySales{}
	}

	total := decimal.Zero
	for _, month := range summary.SalesData {
		total = total.Add(month.TotalSales)
	}
	summary.OrdersPrice = total

	if summary.OrdersCount > 0 {
		summary.AverageOrderValue = total.Div(decimal.NewFromInt(summary.OrdersCount)).Round(2).InexactFloat64()
	}

	return summary, nil
}

// ExportOrders writes every order to w in the requested format.
func (s *AdminService) ExportOrders(ctx context.Context, format string, w io.Writer) error {
	orders, err := s.orders.List(ctx)
	if err != nil {
		return fmt.Errorf("failed to list orders: %w", err)
	}

	rows := make([]*OrderExportRow, 0, len(orders))
	for i := range orders {
		rows = append(rows, toExportRow(&orders[i]))
	}

	switch strings.ToLower(format) {
	case ExportFormatCSV, "":
		if err := gocsv.Marshal(rows, w); err != nil {
			return fmt.Errorf("failed to write csv: %w", err)
		}
		return nil
	case ExportFormatXLSX:
		return writeOrdersXLSX(rows, w)
	default:
		return fmt.Errorf("unsupported export format %q", format)
	}
}

func toExportRow(o *models.Order) *OrderExportRow {
	row := &OrderExportRow{
		ID:         o.ID.String(),
		CreatedAt:  o.CreatedAt.UTC().Format(time.RFC3339),
		Items:      len(o.OrderItems),
		ItemsPrice: o.ItemsPrice.StringFixed(2),
		TaxPrice:   o.TaxPrice.StringFixed(2),
		Shipping:   o.ShippingPrice.StringFixed(2),
		TotalPrice: o.TotalPrice.StringFixed(2),
		Method:     string(o.PaymentMethod),
		Paid:       o.IsPaid,
		Delivered:  o.IsDelivered,
		Country:    o.ShippingAddress.Country,
	}
	if o.User != nil {
		row.Customer = o.User.Name
		row.Email = o.User.Email
	}
	if o.PaidAt != nil {
		row.PaidAt = o.PaidAt.UTC().Format(time.RFC3339)
	}
	if o.DeliveredAt != nil {
		row.DeliveredAt = o.DeliveredAt.UTC().Format(time.RFC3339)
	}
	return row
}

func writeOrdersXLSX(rows []*OrderExportRow, w io.Writer) error {
	const sheet = "Sheet1"
	f := excelize.NewFile()

	for col, header := range exportHeaders {
		f.SetCellValue(sheet, cellName(col, 1), header)
	}

	for i, r := range rows {
		line := i + 2
		values := []interface{}{
			r.ID, r.CreatedAt, r.Customer, r.Email, r.Items, r.ItemsPrice, r.TaxPrice,
			r.Shipping, r.TotalPrice, r.Method, r.Paid, r.PaidAt, r.Delivered, r.DeliveredAt,
			r.Country,
		}
		for col, v := range values {
			f.SetCellValue(sheet, cellName(col, line), v)
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write xlsx: %w", err)
	}
	return nil
}

// cellName maps a zero-based column and one-based row to an A1 reference.
func cellName(col, row int) string {
	return excelize.ToAlphaString(col) + strconv.Itoa(row)
}
