package jsonfusion

import (
	"fmt"
	"strings"
)

// replace substitutes {placeholder} tokens in a message template with the
// matching parameter values.
func replace(template string, params map[string]any) string {
	for key, value := range params {
		placeholder := "{" + key + "}"
		template = strings.ReplaceAll(template, placeholder, fmt.Sprint(value))
	}
	return template
}
