package report

// reportHTML is the full document template. Inline styles only: the output
// must render identically when opened from disk with no network access.
const reportHTML = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
</head>
<body style="font-family: Helvetica, Arial, sans-serif; color: #1a1a2e; max-width: 880px; margin: 0 auto; padding: 24px;">
<h1 style="font-size: 26px; margin-bottom: 4px;">{{.Title}}</h1>
<p style="color: #666; font-size: 13px; margin-top: 0;">Generated {{.GeneratedAt}}</p>
{{range .Days}}
<h2 style="font-size: 18px; border-bottom: 2px solid #2866df; padding-bottom: 4px; margin-top: 28px;">{{.Label}}</h2>
{{range .Flights}}
<div style="border: 1px solid #ddd; border-radius: 6px; padding: 14px 18px; margin: 12px 0; page-break-inside: avoid;">
<h3 style="font-size: 15px; margin: 0 0 8px 0;">{{.Name}}</h3>
{{range .Groups}}
<div style="margin: 8px 0;">
<div style="font-size: 11px; font-weight: bold; text-transform: uppercase; letter-spacing: 0.06em; color: #2866df; margin-bottom: 4px;">{{.Title}}</div>
<table style="border-collapse: collapse; width: 100%; font-size: 13px;">
{{range .Rows}}
<tr>
<td style="padding: 2px 12px 2px 0; color: #555; width: 200px; vertical-align: top;">{{.Label}}</td>
<td style="padding: 2px 0;">{{.Value}}</td>
</tr>
{{end}}
</table>
</div>
{{end}}
</div>
{{end}}
<p style="font-size: 13px; color: #444;"><strong>{{.Summary.Flights}}</strong> flight{{if ne .Summary.Flights 1}}s{{end}},
flight time {{.Summary.Duration}}, distance {{.Summary.Distance}}</p>
{{end}}
<hr style="border: none; border-top: 1px solid #ccc; margin-top: 28px;">
<p style="font-size: 14px;"><strong>Total:</strong> {{.Totals.Flights}} flight{{if ne .Totals.Flights 1}}s{{end}},
flight time {{.Totals.Duration}}, distance {{.Totals.Distance}}</p>
</body>
</html>
`
