package validation

import (
	"reflect"
	"strings"
	"sync"

	"github.com/microcosm-cc/bluemonday"
)

var (
	policyOnce sync.Once
	policy     *bluemonday.Policy
)

func htmlPolicy() *bluemonday.Policy {
	policyOnce.Do(func() {
		p := bluemonday.NewPolicy()
		p.AllowElements("b", "i", "u", "s", "strong", "em", "p", "br", "ul", "ol", "li",
			"blockquote", "code", "pre", "h1", "h2", "h3", "h4", "h5", "h6")
		p.AllowAttrs("href", "title").OnElements("a")
		p.AllowAttrs("src", "alt", "title", "width", "height").OnElements("img")
		p.AllowURLSchemes("http", "https", "mailto")
		p.RequireParseableURLs(true)
		policy = p
	})
	return policy
}

// SanitizeHTML strips every element, attribute and URL scheme outside the
// allow-list. Script and style elements are removed together with their content.
// The output is HTML: a bare "&" comes back as "&amp;".
func SanitizeHTML(s string) string {
	return htmlPolicy().Sanitize(s)
}

// SanitizeValue returns v with SanitizeHTML applied to every string it
// contains, walking nested maps and slices. Other values pass through.
func SanitizeValue(v any) any {
	switch val := v.(type) {
	case string:
		return SanitizeHTML(val)
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, item := range val {
			out[k] = SanitizeValue(item)
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = SanitizeValue(item)
		}
		return out
	default:
		return v
	}
}

// SanitizeTagged applies SanitizeValue to the members of a decoded JSON
// object raw whose field in the struct type of dst carries `sanitize:"html"`.
// Untagged fields are left as sent; nested structs and slices of structs are
// followed.
func SanitizeTagged(raw any, dst any) any {
	return sanitizeAs(raw, reflect.TypeOf(dst))
}

func sanitizeAs(raw any, t reflect.Type) any {
	for t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t == nil {
		return raw
	}
	switch t.Kind() {
	case reflect.Struct:
		obj, ok := raw.(map[string]any)
		if !ok {
			return raw
		}
		out := make(map[string]any, len(obj))
		for k, v := range obj {
			out[k] = v
		}
		for i := 0; i < t.NumField(); i++ {
			f := t.Field(i)
			if !f.IsExported() {
				continue
			}
			name := jsonName(f)
			v, present := out[name]
			if name == "" || !present {
				continue
			}
			if f.Tag.Get("sanitize") == "html" {
				out[name] = SanitizeValue(v)
			} else {
				out[name] = sanitizeAs(v, f.Type)
			}
		}
		return out
	case reflect.Slice, reflect.Array:
		list, ok := raw.([]any)
		if !ok {
			return raw
		}
		out := make([]any, len(list))
		for i, v := range list {
			out[i] = sanitizeAs(v, t.Elem())
		}
		return out
	default:
		return raw
	}
}

func jsonName(f reflect.StructField) string {
	tag := f.Tag.Get("json")
	if tag == "-" {
		return ""
	}
	if name, _, _ := strings.Cut(tag, ","); name != "" {
		return name
	}
	return f.Name
}
