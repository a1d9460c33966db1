package cms

import (
	"fmt"
	"net/url"
	"reflect"
	"sort"
	"strconv"
	"strings"
)

// EncodeQuery renders params in the bracket notation understood by the CMS:
// nested maps become key[sub]=v and slices become key[0]=v. Keys are emitted
// in sorted order and nil values are skipped.
func EncodeQuery(params map[string]any) string {
	var pairs []string
	for _, key := range sortedKeys(params) {
		pairs = appendPairs(pairs, key, params[key])
	}
	return strings.Join(pairs, "&")
}

func appendPairs(pairs []string, prefix string, value any) []string {
	switch v := value.(type) {
	case nil:
		return pairs
	case map[string]any:
		for _, key := range sortedKeys(v) {
			pairs = appendPairs(pairs, prefix+"["+key+"]", v[key])
		}
		return pairs
	case []any:
		for i, item := range v {
			pairs = appendPairs(pairs, prefix+"["+strconv.Itoa(i)+"]", item)
		}
		return pairs
	case []string:
		for i, item := range v {
			pairs = appendPairs(pairs, prefix+"["+strconv.Itoa(i)+"]", item)
		}
		return pairs
	case string:
		return append(pairs, escape(prefix)+"="+escape(v))
	case bool:
		return append(pairs, escape(prefix)+"="+strconv.FormatBool(v))
	case fmt.Stringer:
		return append(pairs, escape(prefix)+"="+escape(v.String()))
	}

	rv := reflect.ValueOf(value)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		for i := 0; i < rv.Len(); i++ {
			pairs = appendPairs(pairs, prefix+"["+strconv.Itoa(i)+"]", rv.Index(i).Interface())
		}
		return pairs
	case reflect.Map:
		if rv.Type().Key().Kind() == reflect.String {
			keys := make([]string, 0, rv.Len())
			for _, k := range rv.MapKeys() {
				keys = append(keys, k.String())
			}
			sort.Strings(keys)
			for _, k := range keys {
				pairs = appendPairs(pairs, prefix+"["+k+"]", rv.MapIndex(reflect.ValueOf(k).Convert(rv.Type().Key())).Interface())
			}
			return pairs
		}
	}
	return append(pairs, escape(prefix)+"="+escape(fmt.Sprint(value)))
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// escape percent-encodes like RFC 3986, spaces included.
func escape(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}

// ParamsFromValues turns an incoming query string into Fetch params. Keys are
// kept verbatim so bracketed keys round-trip unchanged.
func ParamsFromValues(values url.Values, skip ...string) map[string]any {
	params := make(map[string]any, len(values))
	for key, vals := range values {
		if contains(skip, key) || len(vals) == 0 {
			continue
		}
		if len(vals) == 1 {
			params[key] = vals[0]
			continue
		}
		params[key] = append([]string(nil), vals...)
	}
	return params
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
