package dataset

import (
	"sort"
	"strings"
)

// Vocabulary resolves free-text names case-insensitively to the first
// spelling seen in the data.
type Vocabulary struct {
	canonical map[string]string
	seen      map[string]struct{}
	values    []string
}

func NewVocabulary() *Vocabulary {
	return &Vocabulary{
		canonical: make(map[string]string),
		seen:      make(map[string]struct{}),
	}
}

func foldKey(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

func (v *Vocabulary) Add(name string) {
	if _, ok := v.seen[name]; ok {
		return
	}
	v.seen[name] = struct{}{}
	v.values = append(v.values, name)

	key := foldKey(name)
	if _, ok := v.canonical[key]; !ok {
		v.canonical[key] = name
	}
}

// Resolve returns the canonical spelling for name.
func (v *Vocabulary) Resolve(name string) (string, bool) {
	c, ok := v.canonical[foldKey(name)]
	return c, ok
}

// Values returns every distinct spelling, sorted.
func (v *Vocabulary) Values() []string {
	out := make([]string, len(v.values))
	copy(out, v.values)
	sort.Strings(out)
	return out
}

func (v *Vocabulary) Len() int {
	return len(v.values)
}
