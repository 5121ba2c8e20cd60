package export

import (
	"bytes"
	"fmt"
	"html/template"

	domain "github.com/Rubenglzg/FotoEsportMerchWEB2-sub001/internal/domain"
	"github.com/Rubenglzg/FotoEsportMerchWEB2-sub001/internal/services"
)

// batchDocumentTemplate is a standalone page: opened in a new browser context
// it triggers the print dialog itself.
var batchDocumentTemplate = template.Must(template.New("batch").Parse(`<!DOCTYPE html>
<html lang="es">
<head>
<meta charset="utf-8">
<title>Lote {{.BatchLabel}} · {{.ClubName}}</title>
<style>
body { font-family: sans-serif; margin: 2rem; color: #222; }
h1 { font-size: 1.3rem; }
table { border-collapse: collapse; width: 100%; margin-top: 1rem; }
th, td { border: 1px solid #999; padding: 0.4rem 0.6rem; text-align: left; font-size: 0.85rem; }
tfoot td { font-weight: bold; }
.amount { text-align: right; white-space: nowrap; }
</style>
</head>
<body onload="window.print()">
<h1>{{.ClubName}} - Lote {{.BatchLabel}} ({{.StatusLabel}})</h1>
<table>
<thead>
<tr><th>Pedido</th><th>Fecha</th><th>Cliente</th><th>Artículos</th><th>Pago</th><th class="amount">Total</th></tr>
</thead>
<tbody>
{{range .Rows}}<tr><td>{{.ID}}</td><td>{{.Date}}</td><td>{{.Customer}}</td><td>{{.Items}}</td><td>{{.Payment}}</td><td class="amount">{{.Total}}</td></tr>
{{end}}</tbody>
<tfoot>
<tr><td colspan="5">Total lote</td><td class="amount">{{.Total}}</td></tr>
<tr><td colspan="5">Comisión club</td><td class="amount">{{.Commission}}</td></tr>
<tr><td colspan="5">Neto a liquidar</td><td class="amount">{{.NetPayable}}</td></tr>
</tfoot>
</table>
</body>
</html>
`))

type batchDocumentRow struct {
	ID       string
	Date     string
	Customer string
	Items    string
	Payment  string
	Total    string
}

type batchDocumentData struct {
	ClubName    string
	BatchLabel  string
	StatusLabel string
	Rows        []batchDocumentRow
	Total       string
	Commission  string
	NetPayable  string
}

// BatchHTML renders the printable batch summary document.
func BatchHTML(club domain.Club, group services.BatchGroup, commissionRate float64) ([]byte, error) {
	settlement := SettleBatch(group, commissionRate)

	data := batchDocumentData{
		ClubName:    club.Name,
		BatchLabel:  group.Key.String(),
		StatusLabel: group.VisibleStatus,
		Total:       services.FormatEuros(settlement.Total),
		Commission:  services.FormatEuros(settlement.ClubCommission),
		NetPayable:  services.FormatEuros(settlement.NetPayable),
	}
	if data.ClubName == "" {
		data.ClubName = "Tienda"
	}
	for _, order := range group.Orders {
		data.Rows = append(data.Rows, batchDocumentRow{
			ID:       order.ID,
			Date:     order.CreatedAt.Format("02/01/2006"),
			Customer: order.Customer.Name,
			Items:    itemSummary(order.Items),
			Payment:  string(order.Payment),
			Total:    services.FormatEuros(order.Total),
		})
	}

	var buf bytes.Buffer
	if err := batchDocumentTemplate.Execute(&buf, data); err != nil {
		return nil, fmt.Errorf("export: render batch document: %w", err)
	}
	return buf.Bytes(), nil
}
