package synthesis

import "strings"

// Typographic characters the runner's tokenizer trips over.
const (
	emDash       = "—"
	enDash       = "–"
	figureDash   = "‒"
	ellipsisChar = "…"
)

// NormalizeText prepares raw input text for the runner: typographic dashes
// and ellipses become their ASCII forms and runs of whitespace collapse to a
// single space.
func NormalizeText(text string) string {
	replacer := strings.NewReplacer(
		emDash, " - ",
		enDash, " - ",
		figureDash, " - ",
		ellipsisChar, "...",
		"\r\n", " ",
		"\n", " ",
		"\t", " ",
	)
	text = replacer.Replace(text)

	return strings.Join(strings.Fields(text), " ")
}
