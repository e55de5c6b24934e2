package confluence

import "regexp"

var namedEntityPattern = regexp.MustCompile(`&([a-zA-Z]+);`)

// namedHTMLEntities maps common named HTML entities to their Unicode
// equivalent. The five XML predefined entities (amp, lt, gt, quot, apos)
// are deliberately absent: they must survive untouched for the XML parser.
var namedHTMLEntities = map[string]string{
	"nbsp": " ", "mdash": "—", "ndash": "–",
	"ldquo": "“", "rdquo": "”", "lsquo": "‘", "rsquo": "’",
	"bull": "•", "hellip": "…",
	"rarr": "→", "larr": "←", "harr": "↔", "uarr": "↑", "darr": "↓",
	"le": "≤", "ge": "≥", "ne": "≠", "plusmn": "±", "times": "×", "divide": "÷",
	"copy": "©", "reg": "®", "trade": "™",
	"euro": "€", "pound": "£", "yen": "¥", "cent": "¢",
	"deg": "°", "para": "¶", "sect": "§", "dagger": "†", "Dagger": "‡",
	"laquo": "«", "raquo": "»", "iexcl": "¡", "iquest": "¿",
	"frac14": "¼", "frac12": "½", "frac34": "¾",
	"sup1": "¹", "sup2": "²", "sup3": "³",
	"acute": "´", "micro": "µ", "middot": "·", "cedil": "¸",
	"ordf": "ª", "ordm": "º",
}

// convertHTMLEntities replaces named HTML entities with their Unicode
// equivalent, leaving the five XML predefined entities (and any unknown
// name) untouched so the result still parses as XML.
func convertHTMLEntities(html string) string {
	return namedEntityPattern.ReplaceAllStringFunc(html, func(match string) string {
		name := match[1 : len(match)-1]
		if repl, ok := namedHTMLEntities[name]; ok {
			return repl
		}
		return match
	})
}
