package provider

import "github.com/tidwall/gjson"

// Strategy extracts an optional string result from a parsed provider response.
type Strategy func(doc gjson.Result) (string, bool)

// StringAt returns a Strategy that matches a non-empty string at the given
// gjson path (e.g. "output.url" or "candidates.0.content.parts.0.text").
func StringAt(path string) Strategy {
	return func(doc gjson.Result) (string, bool) {
		v := doc.Get(path)
		if v.Type != gjson.String || v.Str == "" {
			return "", false
		}
		return v.Str, true
	}
}

// FieldAt returns a Strategy that matches whenever the given path is present,
// whatever its value. The match carries the string value, or "" for null and
// non-string values, so callers validate the picked field themselves.
func FieldAt(path string) Strategy {
	return func(doc gjson.Result) (string, bool) {
		v := doc.Get(path)
		if !v.Exists() {
			return "", false
		}
		if v.Type != gjson.String {
			return "", true
		}
		return v.Str, true
	}
}

// FirstMatch applies strategies in order and returns the first match.
// Later strategies are never consulted once one matches.
func FirstMatch(doc gjson.Result, strategies ...Strategy) (string, bool) {
	for _, strategy := range strategies {
		if v, ok := strategy(doc); ok {
			return v, true
		}
	}
	return "", false
}

// ParseJSON parses a provider response body, reporting invalid JSON as a ShapeError.
func ParseJSON(providerName string, body []byte) (gjson.Result, error) {
	if !gjson.ValidBytes(body) {
		return gjson.Result{}, &ShapeError{
			Provider: providerName,
			Reason:   "response is not valid JSON",
			Body:     body,
		}
	}
	return gjson.ParseBytes(body), nil
}
