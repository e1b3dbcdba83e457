package inventory

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"

	"golang.org/x/text/unicode/norm"
)

// MarshalSnapshot serializes a snapshot into its canonical byte form.
// Equal inventory states always produce identical bytes, so the output can
// be diffed, cached, or hashed directly.
func MarshalSnapshot(s *Snapshot) ([]byte, error) {
	return MarshalCanonical(s.Document())
}

// MarshalCanonical produces deterministic compact JSON:
//
//  1. Object keys sorted by byte order
//  2. No HTML escaping (< > & pass through)
//  3. Strings NFC normalized at the serialization boundary
//  4. No insignificant whitespace
//
// Unlike json.Marshal, map iteration order can never leak into the output.
// Variable values round-trip through JSON decode, so floats, bools, nulls,
// arrays, and nested objects are all legal inputs.
func MarshalCanonical(v any) ([]byte, error) {
	var buf bytes.Buffer
	if err := marshalCanonical(&buf, v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func marshalCanonical(buf *bytes.Buffer, v any) error {
	switch val := v.(type) {
	case nil:
		buf.WriteString("null")
		return nil
	case string:
		return marshalCanonicalString(buf, val)
	case bool:
		if val {
			buf.WriteString("true")
		} else {
			buf.WriteString("false")
		}
		return nil
	case int:
		buf.WriteString(strconv.FormatInt(int64(val), 10))
		return nil
	case int64:
		buf.WriteString(strconv.FormatInt(val, 10))
		return nil
	case float64:
		// json.Marshal's shortest-round-trip formatting: 8080.0 renders
		// as 8080, matching what a plain encoder would emit for the same
		// decoded value.
		out, err := json.Marshal(val)
		if err != nil {
			return err
		}
		buf.Write(out)
		return nil
	case json.Number:
		buf.WriteString(string(val))
		return nil
	case []any:
		return marshalCanonicalArray(buf, val)
	case []string:
		return marshalCanonicalArray(buf, toAnySlice(val))
	case map[string]any:
		return marshalCanonicalObject(buf, val)
	default:
		return fmt.Errorf("unsupported type for canonical JSON: %T", v)
	}
}

// marshalCanonicalString writes the JSON string form of s, NFC normalized
// and without HTML escaping.
func marshalCanonicalString(buf *bytes.Buffer, s string) error {
	normalized := norm.NFC.String(s)

	enc := json.NewEncoder(buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(normalized); err != nil {
		return err
	}

	// json.Encoder appends a trailing newline; drop it.
	buf.Truncate(buf.Len() - 1)
	return nil
}

func marshalCanonicalArray(buf *bytes.Buffer, arr []any) error {
	buf.WriteByte('[')
	for i, elem := range arr {
		if i > 0 {
			buf.WriteByte(',')
		}
		if err := marshalCanonical(buf, elem); err != nil {
			return fmt.Errorf("array[%d]: %w", i, err)
		}
	}
	buf.WriteByte(']')
	return nil
}

func marshalCanonicalObject(buf *bytes.Buffer, obj map[string]any) error {
	keys := make([]string, 0, len(obj))
	for k := range obj {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	buf.WriteByte('{')
	for i, k := range keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		if err := marshalCanonicalString(buf, k); err != nil {
			return fmt.Errorf("key %q: %w", k, err)
		}
		buf.WriteByte(':')
		if err := marshalCanonical(buf, obj[k]); err != nil {
			return fmt.Errorf("value for key %q: %w", k, err)
		}
	}
	buf.WriteByte('}')
	return nil
}
