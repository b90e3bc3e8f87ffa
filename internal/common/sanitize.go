package common

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var strictPolicy = bluemonday.StrictPolicy()

// SanitizeText вырезает HTML-разметку из пользовательского текста и обрезает пробелы по краям.
// StrictPolicy экранирует оставшийся текст (' → &#39;, & → &amp;), поэтому результат
// разэкранируется: храним простой текст, экранирует тот, кто выводит его в HTML.
func SanitizeText(input string) string {
	return strings.TrimSpace(html.UnescapeString(strictPolicy.Sanitize(input)))
}
