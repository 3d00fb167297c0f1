package fawkes

import "net/url"

// Param is one captured path parameter. Key is the parameter name taken from
// the registered pattern; Value is a substring of the request's decoded path.
type Param struct {
	Key   string
	Value string
}

// Params is an insertion-ordered collection of captured path parameters.
// Route lookup fills it while matching; handlers and middleware read it
// through Request.Params.
type Params struct {
	ps []Param
}

func (p *Params) add(key, value string) {
	p.ps = append(p.ps, Param{Key: key, Value: value})
}

// Get returns the value captured for key.
func (p *Params) Get(key string) (string, bool) {
	for _, pam := range p.ps {
		if pam.Key == key {
			return pam.Value, true
		}
	}
	return "", false
}

// GetOr returns the value captured for key, or def if key was not captured.
func (p *Params) GetOr(key, def string) string {
	if value, ok := p.Get(key); ok {
		return value
	}
	return def
}

// Len returns the number of captured parameters.
func (p *Params) Len() int {
	return len(p.ps)
}

// All returns the captured parameters in capture order.
func (p *Params) All() []Param {
	return p.ps
}

// QueryParams wraps the parsed query string of a request. The zero value is
// an empty query on which Set panics; the view returned by Request.Query
// reads and writes the request's own storage.
type QueryParams struct {
	values url.Values
}

// Get returns the first value associated with key.
func (q QueryParams) Get(key string) (string, bool) {
	vs, ok := q.values[key]
	if !ok || len(vs) == 0 {
		return "", false
	}
	return vs[0], true
}

// GetOr returns the first value associated with key, or def if the key is
// not present.
func (q QueryParams) GetOr(key, def string) string {
	if value, ok := q.Get(key); ok {
		return value
	}
	return def
}

// Has reports whether the query contains key.
func (q QueryParams) Has(key string) bool {
	_, ok := q.values[key]
	return ok
}

// Set replaces any existing values of key with value, inserting the pair if
// key is not present. Key comparison is case-sensitive.
func (q QueryParams) Set(key, value string) {
	q.values[key] = []string{value}
}

// Del removes all values of key and returns how many were removed.
// Key comparison is case-sensitive.
func (q QueryParams) Del(key string) int {
	n := len(q.values[key])
	delete(q.values, key)
	return n
}
