package mailsmodels

import (
	"fmt"

	"github.com/Mamungithube/AJAXX-PRIVACY-WEB-BACKEND/utils"
)

// PaymentConfirmation notifies a user that a subscription payment went through.
func PaymentConfirmation(email string, amount float64, transactionID string, invoiceID string) {
	subject := "Subject: Payment Successful \r\n"
	mime := "MIME-version: 1.0;\r\nContent-Type: text/html; charset=\"UTF-8\";\r\n\r\n"
	body := fmt.Sprintf(`
	<div style="background-color: #1B2A4A; width: 100%%; min-height: 300px; padding: 30px; box-sizing:border-box">
		<table style="background-color: #ffffff; width: 100%%;  min-height: 300px;">
			<tbody>
				<tr>
					<td><h1 style="text-align:center">Payment Confirmation</h1></td>
				</tr>
				<tr>
					<td style="text-align:center; padding-bottom: 30px;">Thank you for your payment of <strong>$%.2f</strong>.</td>
				</tr>
				<tr>
					<td style="text-align:center; padding-bottom: 10px;">Transaction ID: %s</td>
				</tr>
				<tr>
					<td style="text-align:center; padding-bottom: 10px;">Invoice ID: %s</td>
				</tr>
				<tr>
					<td style="text-align:center; padding-bottom: 30px;">Thank you for your subscription!</td>
				</tr>
			</tbody>
		</table>
	</div>
`, amount, transactionID, invoiceID)

	message := []byte(subject + mime + body)
	utils.SendMail(email, message)
}
