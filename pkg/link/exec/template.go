package exec

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/shlex"
)

// ErrEmptyTemplate is returned for a template without words.
var ErrEmptyTemplate = errors.New("exec: empty command template")

// Placeholders recognized in templates.
const (
	PlaceholderSSID      = "{ssid}"
	PlaceholderSecret    = "{secret}"
	PlaceholderInterface = "{iface}"
	PlaceholderHostname  = "{hostname}"
	PlaceholderScheme    = "{scheme}"
)

// Template is a parsed command template.
type Template struct {
	raw   string
	words []string
}

// ParseTemplate splits s into words.
func ParseTemplate(s string) (Template, error) {
	words, err := shlex.Split(s)
	if err != nil {
		return Template{}, fmt.Errorf("exec: template %q: %w", s, err)
	}
	if len(words) == 0 {
		return Template{}, ErrEmptyTemplate
	}
	return Template{raw: s, words: words}, nil
}

// IsZero reports whether the template is unset.
func (t Template) IsZero() bool {
	return len(t.words) == 0
}

// String returns the template as written.
func (t Template) String() string {
	return t.raw
}

// Expand substitutes vars into every word and returns the argument vector.
func (t Template) Expand(vars map[string]string) []string {
	pairs := make([]string, 0, 2*len(vars))
	for k, v := range vars {
		pairs = append(pairs, k, v)
	}
	r := strings.NewReplacer(pairs...)

	argv := make([]string, len(t.words))
	for i, w := range t.words {
		argv[i] = r.Replace(w)
	}
	return argv
}
