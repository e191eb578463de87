package email

import (
	"fmt"
	"html/template"
	"strings"

	"confreg/internal/registration/models"
)

var confirmationTmpl = template.Must(template.New("confirmation").Parse(`<!DOCTYPE html>
<html>
<body style="font-family: Arial, sans-serif; color: #333;">
  <div style="max-width: 600px; margin: 0 auto; padding: 20px;">
    <h1>Registration Confirmed</h1>
    <p>Dear {{.Name}},</p>
    <p>Thank you for registering. Your payment has been successfully processed.</p>
    <table style="width: 100%; border-collapse: collapse;">
      <tr><td><strong>Registration ID</strong></td><td>{{.RegistrationID}}</td></tr>
      <tr><td><strong>Category</strong></td><td>{{.Category}}</td></tr>
      <tr><td><strong>Amount Paid</strong></td><td>{{.Amount}}</td></tr>
      <tr><td><strong>Payment Reference</strong></td><td>{{.Reference}}</td></tr>
    </table>
    <h3>Your Conference Pass</h3>
    <p>Present this code at the registration desk for check-in:</p>
    <img src="cid:{{.PassCID}}" alt="Conference pass" style="max-width: 300px;" />
    <p>Keep this email; the pass is required on arrival.</p>
  </div>
</body>
</html>`))

func renderConfirmationHTML(reg *models.Registration, passCID string) string {
	var b strings.Builder
	_ = confirmationTmpl.Execute(&b, struct {
		Name           string
		RegistrationID string
		Category       models.Category
		Amount         string
		Reference      string
		PassCID        string
	}{
		Name:           reg.FullName(),
		RegistrationID: reg.ID.String(),
		Category:       reg.Category,
		Amount:         formatAmount(reg.TotalAmount),
		Reference:      reg.PaymentReference,
		PassCID:        passCID,
	})
	return b.String()
}

// formatAmount groups thousands for display: 21000 -> "21,000".
func formatAmount(amount int) string {
	s := fmt.Sprintf("%d", amount)
	if len(s) <= 3 {
		return s
	}
	var b strings.Builder
	lead := len(s) % 3
	if lead > 0 {
		b.WriteString(s[:lead])
	}
	for i := lead; i < len(s); i += 3 {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(s[i : i+3])
	}
	return b.String()
}
