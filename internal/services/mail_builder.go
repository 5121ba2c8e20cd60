package services

import (
	"fmt"
	"strings"

	"github.com/microcosm-cc/bluemonday"

	domain "github.com/Rubenglzg/FotoEsportMerchWEB2-sub001/internal/domain"
)

// MailBuilder renders the outbound mail bodies. Customer-supplied strings pass
// through a strict sanitiser before landing in HTML.
type MailBuilder struct {
	policy *bluemonday.Policy
}

// NewMailBuilder constructs a builder with the strict sanitisation policy.
func NewMailBuilder() *MailBuilder {
	return &MailBuilder{policy: bluemonday.StrictPolicy()}
}

// Invoice renders the order invoice mail.
func (b *MailBuilder) Invoice(order domain.Order) domain.MailMessage {
	name := b.clean(order.Customer.Name)
	club := b.clean(order.ClubName)

	var rows strings.Builder
	var textLines []string
	for _, item := range order.Items {
		product := b.clean(item.ProductName)
		line := fmt.Sprintf("%dx %s", item.Quantity, product)
		if player := b.clean(item.PlayerName); player != "" {
			line += fmt.Sprintf(" (%s", player)
			if number := b.clean(item.PlayerNumber); number != "" {
				line += " #" + number
			}
			line += ")"
		}
		amount := FormatEuros(item.UnitPrice * int64(item.Quantity))
		rows.WriteString(fmt.Sprintf("<tr><td>%s</td><td style=\"text-align:right\">%s</td></tr>", line, amount))
		textLines = append(textLines, line+" "+amount)
	}

	subject := fmt.Sprintf("Tu pedido %s", order.ID)
	var html strings.Builder
	html.WriteString(fmt.Sprintf("<h2>Gracias por tu pedido, %s</h2>", name))
	if club != "" {
		html.WriteString(fmt.Sprintf("<p>Club: %s</p>", club))
	}
	html.WriteString("<table width=\"100%\">")
	html.WriteString(rows.String())
	if order.Subtotal != nil && *order.Subtotal != order.Total {
		html.WriteString(fmt.Sprintf("<tr><td>Subtotal</td><td style=\"text-align:right\">%s</td></tr>", FormatEuros(*order.Subtotal)))
		if code := b.clean(order.DiscountCode); code != "" {
			html.WriteString(fmt.Sprintf("<tr><td>Descuento (%s)</td><td style=\"text-align:right\">-%s</td></tr>", code, FormatEuros(*order.Subtotal-order.Total)))
		}
	}
	html.WriteString(fmt.Sprintf("<tr><td><strong>Total</strong></td><td style=\"text-align:right\"><strong>%s</strong></td></tr>", FormatEuros(order.Total)))
	html.WriteString("</table>")
	if order.Payment == domain.PaymentCash {
		html.WriteString("<p>Pago en efectivo confirmado por el club.</p>")
	}

	text := fmt.Sprintf("Gracias por tu pedido, %s\n%s\nTotal: %s",
		name, strings.Join(textLines, "\n"), FormatEuros(order.Total))

	return domain.MailMessage{
		To:      order.Customer.Email,
		Subject: subject,
		HTML:    html.String(),
		Text:    text,
	}
}

// StatusChange renders the batch status notification mail for one order.
func (b *MailBuilder) StatusChange(order domain.Order, status domain.OrderStatus) domain.MailMessage {
	name := b.clean(order.Customer.Name)
	label := domain.VisibleStatus(status)

	subject := fmt.Sprintf("Actualización de tu pedido %s", order.ID)
	html := fmt.Sprintf("<h2>Hola %s</h2><p>Tu pedido %s ha pasado a: <strong>%s</strong></p>",
		name, order.ID, label)
	text := fmt.Sprintf("Hola %s\nTu pedido %s ha pasado a: %s", name, order.ID, label)

	return domain.MailMessage{
		To:      order.Customer.Email,
		Subject: subject,
		HTML:    html,
		Text:    text,
	}
}

func (b *MailBuilder) clean(value string) string {
	return strings.TrimSpace(b.policy.Sanitize(value))
}

// FormatEuros renders integer euro cents using the Spanish decimal comma.
func FormatEuros(cents int64) string {
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	return fmt.Sprintf("%s%d,%02d €", sign, cents/100, cents%100)
}
