package ses

import (
	"fmt"
	"html"

	"travelbill/internal/port"
)

// Message is the rendered subject and bodies of one email.
type Message struct {
	Subject string
	Text    string
	HTML    string
}

// BuildInvoiceMessage renders the invoice link email.
func BuildInvoiceMessage(msg port.InvoiceEmail, fromName string) Message {
	name := msg.ToName
	if name == "" {
		name = "there"
	}
	subject := fmt.Sprintf("%s %s from %s", msg.DocumentTitle, msg.InvoiceNumber, fromName)
	text := fmt.Sprintf(
		"Hi %s,\n\nYour %s %s for %s %s is ready. Download it here:\n%s\n\nThe link expires in 24 hours.\n\n%s",
		name, msg.DocumentTitle, msg.InvoiceNumber, msg.Currency, msg.Amount, msg.DownloadURL, fromName,
	)
	body := fmt.Sprintf(`<!DOCTYPE html>
<html>
<head><meta charset="UTF-8"></head>
<body style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto; padding: 20px;">
  <h2 style="color: #333;">%s %s</h2>
  <p>Hi %s,</p>
  <p>Your document for <strong>%s %s</strong> is ready.</p>
  <p style="text-align: center; margin: 30px 0;">
    <a href="%s" style="background-color: #0F766E; color: white; padding: 12px 24px; text-decoration: none; border-radius: 6px; display: inline-block;">Download PDF</a>
  </p>
  <p style="color: #999; font-size: 12px;">The link expires in 24 hours.</p>
  <hr style="border: none; border-top: 1px solid #eee; margin: 20px 0;">
  <p style="color: #999; font-size: 12px;">%s</p>
</body>
</html>`,
		html.EscapeString(msg.DocumentTitle), html.EscapeString(msg.InvoiceNumber),
		html.EscapeString(name),
		html.EscapeString(msg.Currency), html.EscapeString(msg.Amount),
		html.EscapeString(msg.DownloadURL),
		html.EscapeString(fromName),
	)
	return Message{Subject: subject, Text: text, HTML: body}
}
