package intent

import "strings"

// Route tags the reply path a user message takes.
type Route string

const (
	// RouteCatalog answers from the product catalog.
	RouteCatalog Route = "catalog"
	// RouteGenerative delegates to the language model.
	RouteGenerative Route = "generative"
)

// triggerWords force catalog routing when present anywhere in the
// message, even as a substring of another word ("preciosa" routes to
// the catalog). The same list is stripped from queries before lookup.
// Multi-word triggers come first so cleaning removes them whole.
var triggerWords = []string{
	"dónde comprar",
	"where to buy",
	"buscar",
	"search",
	"precio",
	"price",
}

// Classify maps a message to exactly one route. The switch is a hard
// keyword match, case-insensitive, with no scoring: any trigger word
// anywhere in the text wins.
func Classify(text string) Route {
	lower := strings.ToLower(text)
	for _, word := range triggerWords {
		if strings.Contains(lower, word) {
			return RouteCatalog
		}
	}
	return RouteGenerative
}

// CleanQuery normalizes a raw message into a catalog search term:
// lower-case, first occurrence of each trigger word removed, quotes
// stripped, whitespace trimmed. The cleaned form is also what the
// marketplace fallback URL is built from.
func CleanQuery(raw string) string {
	q := strings.ToLower(raw)
	for _, word := range triggerWords {
		q = strings.Replace(q, word, "", 1)
	}
	q = strings.ReplaceAll(q, `"`, "")
	return strings.TrimSpace(q)
}
