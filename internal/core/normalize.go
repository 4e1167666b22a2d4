package core

import "strings"

// normalize.go provides text cleanup for cells read from the hierarchical
// export. It handles the messy reality of human-authored spreadsheets:
// - Smart quotes pasted in from word processors
// - Stray enclosing quotes left over from manual CSV edits
// - Runs of whitespace, tabs, and embedded newlines

// smartQuotes folds the Unicode quote variants word processors insert into
// their plain ASCII equivalents.
var smartQuotes = strings.NewReplacer(
	"“", `"`, // left double quotation mark
	"”", `"`, // right double quotation mark
	"‘", "'", // left single quotation mark
	"’", "'", // right single quotation mark
)

// Normalize cleans a single cell value: folds smart quotes to ASCII, trims
// whitespace, strips enclosing quote characters, and collapses internal
// whitespace runs to single spaces. It never fails; the result may be empty
// and callers decide what empty means in context.
func Normalize(raw string) string {
	if raw == "" {
		return ""
	}

	text := smartQuotes.Replace(raw)

	text = strings.TrimSpace(text)
	text = strings.Trim(text, `"'`)
	text = strings.TrimSpace(text)

	// Collapse all interior whitespace (spaces, tabs, newlines) to one space.
	return strings.Join(strings.Fields(text), " ")
}
