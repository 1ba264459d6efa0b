package endpoint

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"reflect"
	"sort"
	"strconv"

	"github.com/kbukum/apifire/session"
)

// Encoding writes endpoint parameters into a request.
type Encoding interface {
	Encode(req *session.Request, params map[string]any) error
}

// ArrayEncoding controls how slice parameters are keyed in a query string.
type ArrayEncoding int

const (
	// ArrayBrackets encodes tags=[a b] as tags[]=a&tags[]=b.
	ArrayBrackets ArrayEncoding = iota
	// ArrayNoBrackets encodes tags=[a b] as tags=a&tags=b.
	ArrayNoBrackets
)

// BoolEncoding controls how bool parameters are written in a query string.
type BoolEncoding int

const (
	// BoolNumeric writes true as 1 and false as 0.
	BoolNumeric BoolEncoding = iota
	// BoolLiteral writes true and false.
	BoolLiteral
)

// QueryEncoding writes parameters into the URL query string. Keys are
// emitted in sorted order and nested maps use key[sub] notation. The zero
// value uses bracketed arrays and numeric bools.
type QueryEncoding struct {
	Arrays ArrayEncoding
	Bools  BoolEncoding
}

// DefaultQueryEncoding is used for GET endpoints that do not set an Encoding.
var DefaultQueryEncoding = QueryEncoding{Arrays: ArrayNoBrackets, Bools: BoolLiteral}

// Encode adds params to req.Query.
func (e QueryEncoding) Encode(req *session.Request, params map[string]any) error {
	if len(params) == 0 {
		return nil
	}
	if req.Query == nil {
		req.Query = url.Values{}
	}
	for _, k := range sortedKeys(params) {
		if err := e.add(req.Query, k, params[k]); err != nil {
			return err
		}
	}
	return nil
}

func (e QueryEncoding) add(q url.Values, key string, value any) error {
	if isNil(value) {
		return nil
	}
	rv := reflect.ValueOf(value)
	for rv.Kind() == reflect.Pointer || rv.Kind() == reflect.Interface {
		if rv.IsNil() {
			return nil
		}
		rv = rv.Elem()
	}

	switch rv.Kind() {
	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			return fmt.Errorf("query parameter %q: map keys must be strings", key)
		}
		keys := rv.MapKeys()
		sort.Slice(keys, func(i, j int) bool { return keys[i].String() < keys[j].String() })
		for _, k := range keys {
			if err := e.add(q, key+"["+k.String()+"]", rv.MapIndex(k).Interface()); err != nil {
				return err
			}
		}
	case reflect.Slice, reflect.Array:
		if rv.Kind() == reflect.Slice && rv.Type().Elem().Kind() == reflect.Uint8 {
			q.Add(key, string(rv.Bytes()))
			return nil
		}
		arrayKey := key
		if e.Arrays == ArrayBrackets {
			arrayKey = key + "[]"
		}
		for i := 0; i < rv.Len(); i++ {
			if err := e.add(q, arrayKey, rv.Index(i).Interface()); err != nil {
				return err
			}
		}
	case reflect.Bool:
		q.Add(key, e.formatBool(rv.Bool()))
	default:
		q.Add(key, fmt.Sprint(rv.Interface()))
	}
	return nil
}

func (e QueryEncoding) formatBool(b bool) string {
	if e.Bools == BoolLiteral {
		return strconv.FormatBool(b)
	}
	if b {
		return "1"
	}
	return "0"
}

// JSONEncoding writes parameters as a JSON object body. Empty parameters
// send no body.
type JSONEncoding struct{}

// Encode sets req.Body to the JSON encoding of params.
func (JSONEncoding) Encode(req *session.Request, params map[string]any) error {
	if len(params) == 0 {
		return nil
	}
	data, err := json.Marshal(params)
	if err != nil {
		return fmt.Errorf("encode json parameters: %w", err)
	}
	if req.Header == nil {
		req.Header = make(http.Header)
	}
	if req.Header.Get("Content-Type") == "" {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Body = bytes.NewReader(data)
	req.BodySize = int64(len(data))
	return nil
}

// defaultEncoding picks the query string for GET and JSON otherwise.
func defaultEncoding(method string) Encoding {
	if method == http.MethodGet {
		return DefaultQueryEncoding
	}
	return JSONEncoding{}
}

// compact returns params without nil values.
func compact(params map[string]any) map[string]any {
	out := make(map[string]any, len(params))
	for k, v := range params {
		if !isNil(v) {
			out[k] = v
		}
	}
	return out
}

func isNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Interface, reflect.Func, reflect.Chan:
		return rv.IsNil()
	}
	return false
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
