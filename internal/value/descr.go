package value

import (
	"sort"
	"strconv"
	"strings"
)

// Descr renders the canonical textual form used throughout the test
// corpus: maps as {"k": v, ...} with keys sorted lexicographically,
// arrays as [v, ...], strings double-quoted with JSON-style escapes,
// booleans as true/false, null as null.
//
// This is a bespoke dialect, not encoding/json output: map key order is a
// caller choice (sorted here; internal/value.Map itself stays
// insertion-ordered for members() and sql_one row construction), and
// Object/Function/MapRef have no JSON equivalent.
func Descr(v Value) string {
	var sb strings.Builder
	writeDescr(&sb, v)
	return sb.String()
}

func writeDescr(sb *strings.Builder, v Value) {
	switch v.kind {
	case KindUndefined:
		sb.WriteString("undefined")
	case KindNull:
		sb.WriteString("null")
	case KindBool:
		if v.b {
			sb.WriteString("true")
		} else {
			sb.WriteString("false")
		}
	case KindInteger:
		sb.WriteString(strconv.FormatInt(v.i, 10))
	case KindUInteger:
		sb.WriteString(strconv.FormatUint(v.u, 10))
		sb.WriteByte('u')
	case KindFloat:
		s := strconv.FormatFloat(v.f, 'g', -1, 64)
		if !strings.ContainsAny(s, ".eEnN") {
			// disambiguate from Integer: a float always carries a marker
			s += ".0"
		}
		sb.WriteString(s)
	case KindString:
		writeQuotedString(sb, v.s)
	case KindArray:
		sb.WriteByte('[')
		if v.arr != nil {
			for i, item := range v.arr.Items {
				if i > 0 {
					sb.WriteString(", ")
				}
				writeDescr(sb, item)
			}
		}
		sb.WriteByte(']')
	case KindMap:
		sb.WriteByte('{')
		if v.m != nil {
			keys := v.m.Keys()
			sort.Strings(keys)
			for i, k := range keys {
				if i > 0 {
					sb.WriteString(", ")
				}
				writeQuotedString(sb, k)
				sb.WriteString(": ")
				mv, _ := v.m.Get(k)
				writeDescr(sb, mv)
			}
		}
		sb.WriteByte('}')
	case KindObject:
		if v.obj != nil {
			sb.WriteString("<" + v.obj.ClassName() + ">")
		} else {
			sb.WriteString("<Object>")
		}
	case KindMapRef:
		sb.WriteString("<MapRef>")
	case KindFunction:
		sb.WriteString("<Function>")
	default:
		sb.WriteString("undefined")
	}
}

func writeQuotedString(sb *strings.Builder, s string) {
	sb.WriteByte('"')
	for _, r := range s {
		switch r {
		case '"':
			sb.WriteString(`\"`)
		case '\\':
			sb.WriteString(`\\`)
		case '\n':
			sb.WriteString(`\n`)
		case '\t':
			sb.WriteString(`\t`)
		case '\r':
			sb.WriteString(`\r`)
		default:
			sb.WriteRune(r)
		}
	}
	sb.WriteByte('"')
}
