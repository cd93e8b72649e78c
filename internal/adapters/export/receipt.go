package export

import (
	"html/template"
	"io"
	"time"

	"gymdesk/internal/domain/billing"
	"gymdesk/internal/domain/membership"
)

// Receipt is the data printed on a bill receipt.
type Receipt struct {
	GymName     string
	GymAddress  string
	Bill        billing.Bill
	MemberEmail string
	MemberPhone string
	Status      string // derived for the day the receipt is printed
	PrintedAt   time.Time
}

var receiptTemplate = template.Must(template.New("receipt").Funcs(template.FuncMap{
	"money": billing.FormatAmount,
	"date":  membership.FormatDate,
}).Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>Receipt {{.Bill.BillNumber}}</title>
</head>
<body style="font-family:Arial,Helvetica,sans-serif;color:#222;max-width:640px;margin:24px auto;padding:24px;border:1px solid #ddd">
<header style="border-bottom:2px solid #c0392b;padding-bottom:12px;margin-bottom:16px">
<h1 style="margin:0;font-size:24px;color:#c0392b">{{.GymName}}</h1>
{{if .GymAddress}}<p style="margin:4px 0 0;color:#666;font-size:13px">{{.GymAddress}}</p>{{end}}
</header>
<h2 style="font-size:18px;margin:0 0 12px">{{if eq .Status "Paid"}}Payment Receipt{{else}}Invoice{{end}}</h2>
<table style="width:100%;border-collapse:collapse;font-size:14px">
<tr><td style="padding:6px 0;color:#666">Bill number</td><td style="padding:6px 0;text-align:right">{{.Bill.BillNumber}}</td></tr>
<tr><td style="padding:6px 0;color:#666">Member</td><td style="padding:6px 0;text-align:right">{{.Bill.MemberName}}</td></tr>
{{if .MemberEmail}}<tr><td style="padding:6px 0;color:#666">Email</td><td style="padding:6px 0;text-align:right">{{.MemberEmail}}</td></tr>{{end}}
{{if .MemberPhone}}<tr><td style="padding:6px 0;color:#666">Phone</td><td style="padding:6px 0;text-align:right">{{.MemberPhone}}</td></tr>{{end}}
<tr><td style="padding:6px 0;color:#666">Description</td><td style="padding:6px 0;text-align:right">{{.Bill.Description}}</td></tr>
<tr><td style="padding:6px 0;color:#666">Due date</td><td style="padding:6px 0;text-align:right">{{date .Bill.DueDate}}</td></tr>
<tr><td style="padding:6px 0;color:#666">Status</td><td style="padding:6px 0;text-align:right">{{.Status}}</td></tr>
{{if eq .Status "Paid"}}<tr><td style="padding:6px 0;color:#666">Paid on</td><td style="padding:6px 0;text-align:right">{{date .Bill.PaymentDate}} ({{.Bill.PaymentMethod}})</td></tr>{{end}}
<tr style="border-top:1px solid #ddd;font-weight:bold;font-size:16px"><td style="padding:12px 0">Amount</td><td style="padding:12px 0;text-align:right">&#8377; {{money .Bill.Amount}}</td></tr>
</table>
<footer style="margin-top:24px;font-size:12px;color:#888">Printed {{.PrintedAt.Format "2006-01-02 15:04"}}</footer>
</body>
</html>
`))

// WriteReceipt renders a standalone HTML receipt with inline styles.
// INVARIANT: every value is HTML-escaped
func WriteReceipt(w io.Writer, r Receipt) error {
	if r.Status == "" {
		r.Status = r.Bill.Status
	}
	return receiptTemplate.Execute(w, r)
}
