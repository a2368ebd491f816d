package mailer

import (
	"fmt"
	"log"
	"os"

	"github.com/wneessen/go-mail"

	"johnhenry_back_end/internal/models"
)

// Mailer envoie les confirmations de commande par SMTP.
type Mailer struct {
	host     string
	port     int
	username string
	password string
	from     string
}

func NewFromEnv() *Mailer {
	return &Mailer{
		host:     os.Getenv("SMTP_HOST"),
		port:     587,
		username: os.Getenv("SMTP_USERNAME"),
		password: os.Getenv("SMTP_PASSWORD"),
		from:     os.Getenv("SMTP_FROM"),
	}
}

func (m *Mailer) SendOrderConfirmation(to string, order *models.Order) error {
	msg := mail.NewMsg()

	if err := msg.From(m.from); err != nil {
		return err
	}
	if err := msg.To(to); err != nil {
		return err
	}
	msg.Subject("Xác nhận đơn hàng " + order.OrderNumber)
	msg.SetBodyString(mail.TypeTextHTML, orderConfirmationHTML(order))

	client, err := mail.NewClient(m.host,
		mail.WithPort(m.port),
		mail.WithSMTPAuth(mail.SMTPAuthLogin),
		mail.WithUsername(m.username),
		mail.WithPassword(m.password),
		mail.WithTLSPolicy(mail.TLSMandatory),
	)
	if err != nil {
		return err
	}

	log.Println("📤 Envoi de l'e-mail à", to)
	return client.DialAndSend(msg)
}

// orderConfirmationHTML génère le HTML de confirmation de commande
func orderConfirmationHTML(order *models.Order) string {
	itemsHTML := ""
	for _, item := range order.Items {
		itemsHTML += fmt.Sprintf(`
			<tr>
				<td style="padding: 10px; border: 1px solid #ddd;">%s</td>
				<td style="padding: 10px; border: 1px solid #ddd;">%d</td>
				<td style="padding: 10px; border: 1px solid #ddd;">%.0f₫</td>
				<td style="padding: 10px; border: 1px solid #ddd;">%.0f₫</td>
			</tr>`, item.ProductName, item.Quantity, item.UnitPrice, item.TotalPrice)
	}

	return fmt.Sprintf(`
<!DOCTYPE html>
<html lang="vi">
<head>
	<meta charset="UTF-8">
	<meta name="viewport" content="width=device-width, initial-scale=1.0">
	<title>Xác nhận đơn hàng</title>
</head>
<body style="font-family: Arial, sans-serif; background-color: #f9f9f9; padding: 20px;">
	<div style="max-width: 600px; margin: auto; background-color: white; padding: 20px; border-radius: 10px;">
		<h2 style="color: #333;">Cảm ơn bạn đã đặt hàng!</h2>
		<p>Đơn hàng <strong>%s</strong> của bạn đã được xác nhận.</p>

		<h3>Chi tiết đơn hàng</h3>
		<table style="width: 100%%; border-collapse: collapse; margin: 20px 0;">
			<thead>
				<tr style="background-color: #f0f0f0;">
					<th style="padding: 10px; text-align: left; border: 1px solid #ddd;">Sản phẩm</th>
					<th style="padding: 10px; text-align: left; border: 1px solid #ddd;">Số lượng</th>
					<th style="padding: 10px; text-align: left; border: 1px solid #ddd;">Đơn giá</th>
					<th style="padding: 10px; text-align: left; border: 1px solid #ddd;">Thành tiền</th>
				</tr>
			</thead>
			<tbody>
				%s
			</tbody>
			<tfoot>
				<tr>
					<td colspan="3" style="padding: 10px; text-align: right;">Tạm tính:</td>
					<td style="padding: 10px;">%.0f₫</td>
				</tr>
				<tr>
					<td colspan="3" style="padding: 10px; text-align: right;">Phí vận chuyển:</td>
					<td style="padding: 10px;">%.0f₫</td>
				</tr>
				<tr>
					<td colspan="3" style="padding: 10px; text-align: right;">Thuế (10%%):</td>
					<td style="padding: 10px;">%.0f₫</td>
				</tr>
				<tr>
					<td colspan="3" style="padding: 10px; text-align: right;">Giảm giá:</td>
					<td style="padding: 10px;">-%.0f₫</td>
				</tr>
				<tr>
					<td colspan="3" style="padding: 10px; text-align: right; font-weight: bold;">Tổng cộng:</td>
					<td style="padding: 10px; font-weight: bold;">%.0f₫</td>
				</tr>
			</tfoot>
		</table>

		<p style="margin-top: 30px; color: #555;">
			Trân trọng,<br>
			<strong>John Henry Fashion</strong>
		</p>
	</div>
</body>
</html>`, order.OrderNumber, itemsHTML, order.Subtotal, order.ShippingFee, order.Tax,
		order.DiscountAmount, order.TotalAmount)
}
