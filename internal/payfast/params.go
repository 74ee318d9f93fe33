package payfast

import (
	"net/url"
	"strings"
)

// ParamSet is an insertion-ordered set of string parameters. The processor
// reads the redirect query string in the order it was written, while the
// signature is computed over the sorted keys; ParamSet keeps both views.
type ParamSet struct {
	keys   []string
	values map[string]string
}

// NewParamSet returns an empty ParamSet.
func NewParamSet() *ParamSet {
	return &ParamSet{values: make(map[string]string)}
}

// Set adds or replaces a parameter. Replacing keeps the original position.
func (p *ParamSet) Set(key, value string) {
	if _, exists := p.values[key]; !exists {
		p.keys = append(p.keys, key)
	}
	p.values[key] = value
}

// Get returns the value for key, or "" when absent.
func (p *ParamSet) Get(key string) string {
	return p.values[key]
}

// Keys returns the parameter keys in insertion order.
func (p *ParamSet) Keys() []string {
	out := make([]string, len(p.keys))
	copy(out, p.keys)
	return out
}

// Map returns a copy of the parameters as a plain map.
func (p *ParamSet) Map() map[string]string {
	out := make(map[string]string, len(p.values))
	for k, v := range p.values {
		out[k] = v
	}
	return out
}

// Len returns the number of parameters.
func (p *ParamSet) Len() int {
	return len(p.keys)
}

// Encode renders the parameters as a query string in insertion order.
func (p *ParamSet) Encode() string {
	var b strings.Builder
	for i, k := range p.keys {
		if i > 0 {
			b.WriteByte('&')
		}
		b.WriteString(k)
		b.WriteByte('=')
		b.WriteString(url.QueryEscape(p.values[k]))
	}
	return b.String()
}
