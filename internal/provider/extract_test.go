package provider_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"

	"github.com/florianilch/aihub/internal/provider"
)

func TestStringAt(t *testing.T) {
	doc := gjson.Parse(`{"a":{"b":"value"},"empty":"","num":3,"list":[{"x":"first"}]}`)

	tests := []struct {
		path   string
		want   string
		wantOK bool
	}{
		{path: "a.b", want: "value", wantOK: true},
		{path: "list.0.x", want: "first", wantOK: true},
		{path: "empty", wantOK: false},
		{path: "num", wantOK: false},
		{path: "missing", wantOK: false},
		{path: "a", wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			got, ok := provider.StringAt(tt.path)(doc)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFieldAt(t *testing.T) {
	doc := gjson.Parse(`{"a":{"b":"value"},"empty":"","null":null,"num":3}`)

	tests := []struct {
		path   string
		want   string
		wantOK bool
	}{
		{path: "a.b", want: "value", wantOK: true},
		{path: "empty", want: "", wantOK: true},
		{path: "null", want: "", wantOK: true},
		{path: "num", want: "", wantOK: true},
		{path: "missing", wantOK: false},
		{path: "a.c", wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			got, ok := provider.FieldAt(tt.path)(doc)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFirstMatch_StopsAtFirstMatch(t *testing.T) {
	var calls []string
	strategy := func(name, value string) provider.Strategy {
		return func(gjson.Result) (string, bool) {
			calls = append(calls, name)
			return value, value != ""
		}
	}

	got, ok := provider.FirstMatch(gjson.Result{},
		strategy("one", ""),
		strategy("two", "second"),
		strategy("three", "third"),
	)

	require.True(t, ok)
	assert.Equal(t, "second", got)
	assert.Equal(t, []string{"one", "two"}, calls)
}

func TestFirstMatch_NoMatch(t *testing.T) {
	got, ok := provider.FirstMatch(gjson.Parse(`{}`), provider.StringAt("a"), provider.StringAt("b"))
	assert.False(t, ok)
	assert.Empty(t, got)
}

func TestParseJSON_Invalid(t *testing.T) {
	_, err := provider.ParseJSON("test", []byte("<html>oops</html>"))

	var shapeErr *provider.ShapeError
	require.ErrorAs(t, err, &shapeErr)
	assert.Equal(t, "test", shapeErr.Provider)
	assert.Equal(t, "<html>oops</html>", string(shapeErr.Body))
}
