package pipedrivetest

import "strings"

// rawBody captures a JSON request body verbatim.
type rawBody []byte

func (g *rawBody) UnmarshalJSON(b []byte) error {
	*g = append((*g)[:0], b...)
	return nil
}

var pathEscaper = strings.NewReplacer(
	`\`, `\\`,
	".", `\.`,
	"*", `\*`,
	"?", `\?`,
	"|", `\|`,
	"#", `\#`,
	"@", `\@`,
	":", `\:`,
)

// escapePath quotes a member name for use as an sjson path.
func escapePath(key string) string {
	return pathEscaper.Replace(key)
}
