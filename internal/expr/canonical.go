package expr

import (
	"bytes"
	"encoding/json"
	"fmt"
	"slices"
	"unicode/utf16"

	"golang.org/x/text/unicode/norm"
)

// MarshalCanonical produces RFC 8785 canonical JSON for hashing and golden
// files. It accepts expressions and plain trees built from string, int,
// int64, bool, []string, []any and map[string]any.
//
// Key differences from standard json.Marshal:
//  1. Object keys sorted by UTF-16 code units (not UTF-8 bytes)
//  2. No HTML escaping (< > & are NOT escaped)
//  3. Strings are NFC normalized
//  4. No floats, no null
//
// Expressions encode binder info but not binder names, so alpha-equivalent
// terms marshal identically.
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
		return fmt.Errorf("null is forbidden in canonical JSON")
	case Expr:
		return marshalCanonical(buf, exprTree(val))
	case string:
		return writeCanonicalString(buf, val)
	case int:
		fmt.Fprintf(buf, "%d", val)
	case int64:
		fmt.Fprintf(buf, "%d", val)
	case uint32:
		fmt.Fprintf(buf, "%d", val)
	case bool:
		if val {
			buf.WriteString("true")
		} else {
			buf.WriteString("false")
		}
	case []string:
		buf.WriteByte('[')
		for i, s := range val {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := writeCanonicalString(buf, s); err != nil {
				return err
			}
		}
		buf.WriteByte(']')
	case []any:
		buf.WriteByte('[')
		for i, elem := range val {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := marshalCanonical(buf, elem); err != nil {
				return fmt.Errorf("array[%d]: %w", i, err)
			}
		}
		buf.WriteByte(']')
	case map[string]any:
		keys := make([]string, 0, len(val))
		for k := range val {
			keys = append(keys, k)
		}
		slices.SortFunc(keys, compareKeysRFC8785)
		buf.WriteByte('{')
		for i, k := range keys {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := writeCanonicalString(buf, k); err != nil {
				return fmt.Errorf("key %q: %w", k, err)
			}
			buf.WriteByte(':')
			if err := marshalCanonical(buf, val[k]); err != nil {
				return fmt.Errorf("value for key %q: %w", k, err)
			}
		}
		buf.WriteByte('}')
	case float64, float32:
		return fmt.Errorf("floats are forbidden in canonical JSON: %v", val)
	default:
		return fmt.Errorf("unsupported type for canonical JSON: %T", v)
	}
	return nil
}

// exprTree lowers an expression to the generic tree marshalled above.
func exprTree(e Expr) map[string]any {
	switch n := e.(type) {
	case *BVar:
		return map[string]any{"k": "bvar", "i": n.Idx}
	case *Local:
		return map[string]any{"k": "local", "n": n.Name}
	case *Meta:
		return map[string]any{"k": "meta", "n": n.Name}
	case *Sort:
		return map[string]any{"k": "sort", "l": n.Level}
	case *Const:
		return map[string]any{"k": "const", "n": n.Name}
	case *Macro:
		return map[string]any{"k": "macro", "t": n.Tag, "a": exprList(n.Args)}
	case *Binding:
		return map[string]any{
			"k":  n.Kind().String(),
			"bi": n.Info.String(),
			"d":  exprTree(n.Domain),
			"b":  exprTree(n.Body),
		}
	case *Let:
		return map[string]any{
			"k": "let",
			"t": exprTree(n.Type),
			"v": exprTree(n.Value),
			"b": exprTree(n.Body),
		}
	case *App:
		return map[string]any{"k": "app", "f": exprTree(n.Fn), "a": exprList(n.Args)}
	}
	panic(fmt.Sprintf("expr: unknown node %T", e))
}

func exprList(es []Expr) []any {
	out := make([]any, len(es))
	for i, e := range es {
		out[i] = exprTree(e)
	}
	return out
}

// writeCanonicalString writes a canonical JSON string with NFC normalization.
// Only control characters, backslash and quote are escaped; U+2028 and U+2029
// stay literal as RFC 8785 requires.
func writeCanonicalString(buf *bytes.Buffer, s string) error {
	var tmp bytes.Buffer
	enc := json.NewEncoder(&tmp)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(norm.NFC.String(s)); err != nil {
		return err
	}
	data := bytes.TrimSuffix(tmp.Bytes(), []byte{'\n'})
	buf.Write(unescapeLineSeparators(data))
	return nil
}

// unescapeLineSeparators rewrites the \u2028 and \u2029 escapes produced by
// encoding/json into literal characters. Escapes are consumed pairwise, so an
// escaped backslash followed by the text "u2028" is left alone.
func unescapeLineSeparators(data []byte) []byte {
	if !bytes.Contains(data, []byte(`\u202`)) {
		return data
	}
	out := make([]byte, 0, len(data))
	for i := 0; i < len(data); i++ {
		if data[i] != '\\' || i+1 >= len(data) {
			out = append(out, data[i])
			continue
		}
		if data[i+1] == 'u' && i+6 <= len(data) && string(data[i+2:i+5]) == "202" {
			switch data[i+5] {
			case '8':
				out = append(out, "\u2028"...)
				i += 5
				continue
			case '9':
				out = append(out, "\u2029"...)
				i += 5
				continue
			}
		}
		out = append(out, data[i], data[i+1])
		i++
	}
	return out
}

// compareKeysRFC8785 compares strings by UTF-16 code units.
// Go's default string comparison uses UTF-8 which produces a different order
// for characters outside the BMP.
func compareKeysRFC8785(a, b string) int {
	a16 := utf16.Encode([]rune(a))
	b16 := utf16.Encode([]rune(b))
	return slices.Compare(a16, b16)
}
