package export

import "strings"

// xmlEscaper covers every character that may not appear raw in XML element
// content or attribute values.
var xmlEscaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
	"'", "&apos;",
)

// xmlEscape escapes a string for interpolation into XML text or attributes.
func xmlEscape(s string) string {
	return xmlEscaper.Replace(s)
}
