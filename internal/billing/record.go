package billing

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// Record is one JSON-shaped object of unknown layout: a line item, an invoice
// header or a metadata blob. Values are the kinds produced by encoding/json
// (float64, json.Number, string, bool, nil, map[string]any, []any) plus Go
// integer kinds and decimal.Decimal.
type Record map[string]any

// NormalizeKey lower-cases the string form of x and drops every character
// outside [a-z0-9], so "Tax Pct", "tax_pct" and "TAXPCT" compare equal.
func NormalizeKey(x any) string {
	s := strings.ToLower(textOf(x))
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if (c >= 'a' && c <= 'z') || (c >= '0' && c <= '9') {
			b.WriteByte(c)
		}
	}
	return b.String()
}

// ParseItems turns a stored or submitted line-item list into records. It
// accepts slices, raw JSON and JSON-encoded strings; anything else, and any
// non-object element, is dropped.
func ParseItems(raw any) []Record {
	switch v := raw.(type) {
	case nil:
		return []Record{}
	case []Record:
		return v
	case []map[string]any:
		out := make([]Record, 0, len(v))
		for _, m := range v {
			out = append(out, Record(m))
		}
		return out
	case []any:
		out := make([]Record, 0, len(v))
		for _, el := range v {
			if rec, ok := asRecord(el); ok {
				out = append(out, rec)
			}
		}
		return out
	case json.RawMessage:
		return ParseItems([]byte(v))
	case []byte:
		var decoded []any
		if err := decodeJSON(v, &decoded); err != nil {
			return []Record{}
		}
		return ParseItems(decoded)
	case string:
		s := strings.TrimSpace(v)
		if s == "" {
			return []Record{}
		}
		return ParseItems([]byte(s))
	default:
		return []Record{}
	}
}

// ParseRecord turns a map, raw JSON or JSON-encoded string into a Record.
// Anything else yields nil.
func ParseRecord(raw any) Record {
	if rec, ok := asRecord(raw); ok {
		return rec
	}
	var b []byte
	switch v := raw.(type) {
	case json.RawMessage:
		b = v
	case []byte:
		b = v
	case string:
		b = []byte(strings.TrimSpace(v))
	default:
		return nil
	}
	if len(b) == 0 {
		return nil
	}
	var decoded map[string]any
	if err := decodeJSON(b, &decoded); err != nil {
		return nil
	}
	return Record(decoded)
}

func decodeJSON(b []byte, dst any) error {
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()
	return dec.Decode(dst)
}

func asRecord(v any) (Record, bool) {
	switch m := v.(type) {
	case Record:
		return m, m != nil
	case map[string]any:
		return Record(m), m != nil
	}
	return nil, false
}

func isNull(v any) bool { return v == nil }

// absent reports whether v carries no usable value.
func absent(v any) bool {
	switch t := v.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(t) == ""
	}
	return false
}

// currencyMarks are stripped from numeric strings before parsing. Inner
// whitespace is kept so "1 2" stays non-numeric.
var currencyMarks = strings.NewReplacer(",", "", "₹", "", "%", "")

// toDecimal coerces v to a decimal. The bool is false for non-numeric input.
func toDecimal(v any) (decimal.Decimal, bool) {
	switch t := v.(type) {
	case decimal.Decimal:
		return t, true
	case Money:
		return t.Decimal, true
	case Rate:
		return t.Decimal, true
	case float64:
		if math.IsNaN(t) || math.IsInf(t, 0) {
			return decimal.Zero, false
		}
		return decimal.NewFromFloat(t), true
	case float32:
		return toDecimal(float64(t))
	case int:
		return decimal.NewFromInt(int64(t)), true
	case int8:
		return decimal.NewFromInt(int64(t)), true
	case int16:
		return decimal.NewFromInt(int64(t)), true
	case int32:
		return decimal.NewFromInt(int64(t)), true
	case int64:
		return decimal.NewFromInt(t), true
	case uint:
		return fromUint(uint64(t)), true
	case uint8:
		return fromUint(uint64(t)), true
	case uint16:
		return fromUint(uint64(t)), true
	case uint32:
		return fromUint(uint64(t)), true
	case uint64:
		return fromUint(t), true
	case json.Number:
		return parseAmount(t.String())
	case string:
		return parseAmount(t)
	}
	return decimal.Zero, false
}

func fromUint(u uint64) decimal.Decimal {
	return decimal.RequireFromString(strconv.FormatUint(u, 10))
}

func parseAmount(s string) (decimal.Decimal, bool) {
	s = strings.TrimSpace(s)
	lower := strings.ToLower(s)
	for _, prefix := range []string{"inr", "rs.", "rs"} {
		if strings.HasPrefix(lower, prefix) {
			s = s[len(prefix):]
			break
		}
	}
	s = strings.TrimSpace(currencyMarks.Replace(s))
	if s == "" {
		return decimal.Zero, false
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, false
	}
	return d, true
}

// textOf renders scalar values as text. Containers render as "".
func textOf(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case json.Number:
		return t.String()
	case bool:
		return strconv.FormatBool(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(t), 'f', -1, 32)
	case map[string]any, Record, []any:
		return ""
	}
	if d, ok := toDecimal(v); ok {
		return d.String()
	}
	return ""
}

// truthy reads loosely-typed boolean flags.
func truthy(v any) bool {
	switch t := v.(type) {
	case bool:
		return t
	case string:
		switch strings.ToLower(strings.TrimSpace(t)) {
		case "true", "yes", "y", "1":
			return true
		}
		return false
	}
	if d, ok := toDecimal(v); ok {
		return !d.IsZero()
	}
	return false
}
