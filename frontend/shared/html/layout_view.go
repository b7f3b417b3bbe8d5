package html

import (
	"fmt"
	"html"
)

const (
	bootstrapCSS = "https://cdn.jsdelivr.net/npm/bootstrap@5.3.3/dist/css/bootstrap.min.css"
	bootstrapJS  = "https://cdn.jsdelivr.net/npm/bootstrap@5.3.3/dist/js/bootstrap.bundle.min.js"
	iconsCSS     = "https://cdn.jsdelivr.net/npm/bootstrap-icons@1.11.3/font/bootstrap-icons.min.css"
	quaggaJS     = "https://cdn.jsdelivr.net/npm/@ericblade/quagga2@1.8.4/dist/quagga.min.js"
)

// RenderLayout wraps body in the page shell. theme is written to data-bs-theme.
func RenderLayout(title, theme, body string) string {
	return fmt.Sprintf(`<!doctype html><html lang="en" data-bs-theme="%s"><head><meta charset="utf-8">`+
		`<meta name="viewport" content="width=device-width, initial-scale=1">`+
		`<title>%s</title>`+
		`<link rel="stylesheet" href="%s"><link rel="stylesheet" href="%s">`+
		`<link rel="stylesheet" href="/assets/app.css"></head>`+
		`<body>%s%s<script src="%s"></script><script src="%s"></script><script src="/assets/app.js"></script></body></html>`,
		html.EscapeString(theme), html.EscapeString(title), bootstrapCSS, iconsCSS,
		body, CSRFFormScript(), bootstrapJS, quaggaJS)
}
