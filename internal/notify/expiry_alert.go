package notify

import (
	"bytes"
	"context"
	"fmt"
	htmltemplate "html/template"
	"strconv"
	texttemplate "text/template"

	"wms-backend/internal/clock"
	"wms-backend/internal/expiry"
	"wms-backend/internal/i18n"
	"wms-backend/internal/inventory"

	"go.uber.org/zap"
)

type alertItem struct {
	ProductName string
	SKU         string
	BatchNumber string
	BinCode     string
	Warehouse   string
	Quantity    string
	UseBy       string
	Days        int
}

type alertData struct {
	Critical      []alertItem
	High          []alertItem
	CriticalCount int
	HighCount     int
	Total         int
	Generated     string
}

const alertHTML = `<!DOCTYPE html>
<html lang="hu">
<head>
<meta charset="UTF-8">
<title>Lejárat Figyelmeztetés</title>
<style>
body { font-family: Arial, sans-serif; color: #333; max-width: 800px; margin: 0 auto; padding: 20px; }
.header { background-color: #dc3545; color: white; padding: 20px; text-align: center; }
.critical { color: #dc3545; font-weight: bold; }
.high { color: #fd7e14; font-weight: bold; }
table { width: 100%; border-collapse: collapse; margin: 20px 0; }
th, td { border: 1px solid #ddd; padding: 8px; text-align: left; }
th { background-color: #343a40; color: white; }
tr.critical-row { background-color: #f8d7da; }
tr.high-row { background-color: #fff3cd; }
.footer { margin-top: 30px; font-size: 12px; color: #666; }
</style>
</head>
<body>
<div class="header"><h1>Lejárat Figyelmeztetés</h1><p>WMS - Raktárkezelő Rendszer</p></div>
<h3>Összefoglaló</h3>
<p><strong class="critical">Kritikus:</strong> {{.CriticalCount}} db &nbsp;
<strong class="high">Magas:</strong> {{.HighCount}} db &nbsp;
<strong>Összes figyelmeztetés:</strong> {{.Total}} db</p>
{{if .Critical}}
<h2 class="critical">KRITIKUS - Azonnali beavatkozás szükséges!</h2>
<p>Az alábbi termékek 7 napon belül lejárnak:</p>
{{template "table" dict "Rows" .Critical "Class" "critical-row"}}
{{end}}
{{if .High}}
<h2 class="high">MAGAS PRIORITÁS - Figyelem szükséges</h2>
<p>Az alábbi termékek 14 napon belül lejárnak:</p>
{{template "table" dict "Rows" .High "Class" "high-row"}}
{{end}}
<div class="footer">
<p>Ez egy automatikus értesítés a WMS Raktárkezelő Rendszerből.</p>
<p>Generálva: {{.Generated}}</p>
</div>
</body>
</html>
{{define "table"}}<table>
<thead><tr><th>Termék</th><th>SKU</th><th>Batch</th><th>Tárolóhely</th><th>Raktár</th><th>Mennyiség</th><th>Lejárat</th><th>Hátralévő napok</th></tr></thead>
<tbody>
{{range .Rows}}<tr class="{{$.Class}}"><td>{{.ProductName}}</td><td>{{.SKU}}</td><td>{{.BatchNumber}}</td><td>{{.BinCode}}</td><td>{{.Warehouse}}</td><td>{{.Quantity}}</td><td>{{.UseBy}}</td><td>{{.Days}} nap</td></tr>
{{end}}</tbody>
</table>{{end}}`

const alertText = `LEJÁRAT FIGYELMEZTETÉS
======================
WMS - Raktárkezelő Rendszer

ÖSSZEFOGLALÓ
------------
Kritikus: {{.CriticalCount}} db
Magas: {{.HighCount}} db
Összes figyelmeztetés: {{.Total}} db
{{if .Critical}}
KRITIKUS - AZONNALI BEAVATKOZÁS SZÜKSÉGES!
Az alábbi termékek 7 napon belül lejárnak:
{{range .Critical}}{{template "item" .}}{{end}}{{end}}{{if .High}}
MAGAS PRIORITÁS - FIGYELEM SZÜKSÉGES
Az alábbi termékek 14 napon belül lejárnak:
{{range .High}}{{template "item" .}}{{end}}{{end}}
---
Ez egy automatikus értesítés a WMS Raktárkezelő Rendszerből.
Generálva: {{.Generated}}
{{define "item"}}
- {{.ProductName}} ({{.SKU}})
  Batch: {{.BatchNumber}}
  Hely: {{.BinCode}} ({{.Warehouse}})
  Mennyiség: {{.Quantity}}
  Lejárat: {{.UseBy}} ({{.Days}} nap)
{{end}}`

var (
	htmlTmpl = htmltemplate.Must(htmltemplate.New("alert").Funcs(htmltemplate.FuncMap{"dict": dict}).Parse(alertHTML))
	textTmpl = texttemplate.Must(texttemplate.New("alert").Parse(alertText))
)

func dict(pairs ...any) map[string]any {
	m := make(map[string]any, len(pairs)/2)
	for i := 0; i+1 < len(pairs); i += 2 {
		m[pairs[i].(string)] = pairs[i+1]
	}
	return m
}

func toAlertItem(w inventory.ExpiryWarning) alertItem {
	sku := "-"
	if w.SKU != nil && *w.SKU != "" {
		sku = *w.SKU
	}
	useBy := w.UseByDate
	if d, err := clock.ParseDate(w.UseByDate); err == nil {
		useBy = i18n.FormatDate(d)
	}
	return alertItem{
		ProductName: w.ProductName,
		SKU:         sku,
		BatchNumber: w.BatchNumber,
		BinCode:     w.BinCode,
		Warehouse:   w.WarehouseName,
		Quantity:    i18n.FormatNumber(w.Quantity.InexactFloat64()) + " " + w.Unit,
		UseBy:       useBy,
		Days:        w.DaysUntilExpiry,
	}
}

// BuildExpiryAlert renders the alert for the critical and high warnings.
// ok is false when there is nothing to report.
func BuildExpiryAlert(warnings []inventory.ExpiryWarning) (msg Message, ok bool, err error) {
	var data alertData
	for _, w := range warnings {
		switch w.Urgency {
		case expiry.Critical:
			data.Critical = append(data.Critical, toAlertItem(w))
		case expiry.High:
			data.High = append(data.High, toAlertItem(w))
		}
	}
	data.CriticalCount, data.HighCount = len(data.Critical), len(data.High)
	data.Total = data.CriticalCount + data.HighCount
	if data.Total == 0 {
		return Message{}, false, nil
	}
	data.Generated = i18n.FormatDate(clock.Today())

	var html, text bytes.Buffer
	if err := htmlTmpl.Execute(&html, data); err != nil {
		return Message{}, false, fmt.Errorf("render html alert: %w", err)
	}
	if err := textTmpl.Execute(&text, data); err != nil {
		return Message{}, false, fmt.Errorf("render text alert: %w", err)
	}
	return Message{
		Subject: "[WMS] Lejárat Figyelmeztetés - " + strconv.Itoa(data.CriticalCount) + " kritikus, " + strconv.Itoa(data.HighCount) + " magas",
		Text:    text.String(),
		HTML:    html.String(),
	}, true, nil
}

// SendExpiryAlert mails the alert to recipients. sent is false when there
// were no recipients or no critical or high warnings.
func SendExpiryAlert(ctx context.Context, m Mailer, recipients []string, warnings []inventory.ExpiryWarning) (sent bool, err error) {
	if len(recipients) == 0 {
		zap.L().Warn("no recipients configured for expiry alerts")
		return false, nil
	}
	msg, ok, err := BuildExpiryAlert(warnings)
	if err != nil || !ok {
		return false, err
	}
	msg.To = recipients
	if err := m.Send(ctx, msg); err != nil {
		return false, err
	}
	return true, nil
}
