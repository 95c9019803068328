package render

import (
	"bytes"
	"html/template"
)

const invoiceEmailTemplate = `<!doctype html>
<html lang="en">
<head>
  <meta charset="utf-8" />
  <title>Invoice {{.Number}}</title>
  <style>
    body { margin: 0; padding: 24px; font-family: -apple-system, "Segoe UI", Roboto, Arial, sans-serif; color: #1a1f36; background: #f7f9fc; }
    .card { background: #ffffff; max-width: 560px; margin: 0 auto; padding: 32px; border-radius: 4px; }
    h1 { margin: 0 0 16px; font-size: 20px; }
    .label { font-size: 11px; text-transform: uppercase; color: #8792a2; font-weight: 600; }
    .amount { font-size: 28px; font-weight: 700; margin: 4px 0 24px; }
    .footer { margin-top: 24px; font-size: 12px; color: #8792a2; }
  </style>
</head>
<body>
  <div class="card">
    <h1>{{.BusinessName}}</h1>
    <p>Dear {{.CustomerName}},</p>
    <p>Your invoice for {{.Period}} is attached.</p>
    <div class="label">Amount due</div>
    <div class="amount">{{.Total}}</div>
    <div class="label">Invoice number</div>
    <div>{{.Number}}</div>
    {{if .Footer}}<div class="footer">{{.Footer}}</div>{{end}}
  </div>
</body>
</html>`

// EmailView is the data shown in the invoice notification email.
type EmailView struct {
	BusinessName string
	CustomerName string
	Number       string
	Period       string
	Total        string
	Footer       string
}

type Renderer interface {
	RenderEmail(view EmailView) (string, error)
}

type HTMLRenderer struct {
	tmpl *template.Template
}

func NewRenderer() Renderer {
	return &HTMLRenderer{tmpl: template.Must(template.New("invoice_email").Parse(invoiceEmailTemplate))}
}

func (r *HTMLRenderer) RenderEmail(view EmailView) (string, error) {
	var buf bytes.Buffer
	if err := r.tmpl.Execute(&buf, view); err != nil {
		return "", err
	}
	return buf.String(), nil
}
