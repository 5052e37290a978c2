package service

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/ridloal/toko-storefront/internal/order/domain"
)

var exportHeader = []string{
	"order_code", "created_at", "customer_email", "customer_phone", "total_amount",
	"unique_payment_amount", "payment_method", "payment_status", "note", "items",
}

// ExportOrdersCSV writes every order, newest first, with the same enrichment as the admin listing.
func (s *orderServiceImpl) ExportOrdersCSV(ctx context.Context, w io.Writer) error {
	orders, err := s.ListAllOrders(ctx)
	if err != nil {
		return err
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(exportHeader); err != nil {
		return err
	}
	for _, o := range orders {
		record := []string{
			o.OrderCode,
			o.CreatedAt.UTC().Format(time.RFC3339),
			o.CustomerEmail,
			o.CustomerPhone,
			strconv.FormatInt(o.TotalAmount, 10),
			strconv.FormatInt(o.UniquePaymentAmount, 10),
			o.PaymentMethod,
			string(o.PaymentStatus),
			o.Note,
			summarizeItems(o.Items),
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// summarizeItems renders "2x Kaos (gift wrap); 1x Topi".
func summarizeItems(items []domain.OrderItem) string {
	parts := make([]string, 0, len(items))
	for _, it := range items {
		p := fmt.Sprintf("%dx %s", it.Quantity, it.Name)
		if it.Note != "" {
			p += " (" + it.Note + ")"
		}
		parts = append(parts, p)
	}
	return strings.Join(parts, "; ")
}
