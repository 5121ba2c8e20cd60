package export

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strings"

	domain "github.com/Rubenglzg/FotoEsportMerchWEB2-sub001/internal/domain"
	"github.com/Rubenglzg/FotoEsportMerchWEB2-sub001/internal/services"
)

// utf8BOM keeps Excel on Spanish locales from mangling accented characters.
var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

var csvHeader = []string{"Pedido", "Fecha", "Cliente", "Artículos", "Pago", "Total"}

// BatchCSV renders one batch group as a semicolon-delimited, BOM-prefixed CSV
// with a settlement footer: batch total, the club's commission, and the net
// amount to settle after the commission is deducted.
func BatchCSV(club domain.Club, group services.BatchGroup, commissionRate float64) ([]byte, error) {
	var buf bytes.Buffer
	buf.Write(utf8BOM)

	w := csv.NewWriter(&buf)
	w.Comma = ';'

	if err := w.Write(csvHeader); err != nil {
		return nil, fmt.Errorf("export: write csv header: %w", err)
	}
	for _, order := range group.Orders {
		record := []string{
			order.ID,
			order.CreatedAt.Format("02/01/2006"),
			order.Customer.Name,
			itemSummary(order.Items),
			string(order.Payment),
			services.FormatEuros(order.Total),
		}
		if err := w.Write(record); err != nil {
			return nil, fmt.Errorf("export: write csv row: %w", err)
		}
	}

	settlement := SettleBatch(group, commissionRate)
	footer := [][]string{
		{},
		{"", "", "", "", "Total lote", services.FormatEuros(settlement.Total)},
		{"", "", "", "", fmt.Sprintf("Comisión %s", club.Name), services.FormatEuros(settlement.ClubCommission)},
		{"", "", "", "", "Neto a liquidar", services.FormatEuros(settlement.NetPayable)},
	}
	for _, record := range footer {
		if err := w.Write(record); err != nil {
			return nil, fmt.Errorf("export: write csv footer: %w", err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("export: flush csv: %w", err)
	}
	return buf.Bytes(), nil
}

// CSVFilename names the download after the club and batch key.
func CSVFilename(club domain.Club, batch domain.BatchKey) string {
	name := strings.ReplaceAll(strings.TrimSpace(club.Name), " ", "_")
	if name == "" {
		name = "tienda"
	}
	return fmt.Sprintf("lote_%s_%s.csv", name, batch.String())
}

func itemSummary(items []domain.OrderItem) string {
	parts := make([]string, 0, len(items))
	for _, item := range items {
		label := fmt.Sprintf("%dx %s", item.Quantity, item.ProductName)
		var details []string
		if item.PlayerName != "" {
			details = append(details, item.PlayerName)
		}
		if item.PlayerNumber != "" {
			details = append(details, item.PlayerNumber)
		}
		if item.Size != "" {
			details = append(details, item.Size)
		}
		if len(details) > 0 {
			label += " (" + strings.Join(details, " ") + ")"
		}
		parts = append(parts, label)
	}
	return strings.Join(parts, ", ")
}
