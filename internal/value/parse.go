package value

import (
	"strconv"
	"strings"

	"github.com/juju/errors"
)

// Parse reads the canonical Descr form back into a Value. Object,
// Function and MapRef never round-trip through text (the spec only
// requires round-tripping for values that exclude those variants) and
// Parse rejects their sigils explicitly rather than guessing.
func Parse(s string) (Value, error) {
	p := &parser{src: s}
	p.skipSpace()
	v, err := p.parseValue()
	if err != nil {
		return Value{}, err
	}
	p.skipSpace()
	if p.pos != len(p.src) {
		return Value{}, errors.Errorf("trailing input at offset %d", p.pos)
	}
	return v, nil
}

type parser struct {
	src string
	pos int
}

func (p *parser) skipSpace() {
	for p.pos < len(p.src) && (p.src[p.pos] == ' ' || p.src[p.pos] == '\t' || p.src[p.pos] == '\n') {
		p.pos++
	}
}

func (p *parser) peek() byte {
	if p.pos >= len(p.src) {
		return 0
	}
	return p.src[p.pos]
}

func (p *parser) parseValue() (Value, error) {
	p.skipSpace()
	switch c := p.peek(); {
	case c == '"':
		s, err := p.parseString()
		if err != nil {
			return Value{}, err
		}
		return FromString(s), nil
	case c == '{':
		return p.parseMap()
	case c == '[':
		return p.parseArray()
	case c == '<':
		return Value{}, errors.Errorf("cannot parse object/function sigil at offset %d", p.pos)
	case strings.HasPrefix(p.src[p.pos:], "true"):
		p.pos += 4
		return FromBool(true), nil
	case strings.HasPrefix(p.src[p.pos:], "false"):
		p.pos += 5
		return FromBool(false), nil
	case strings.HasPrefix(p.src[p.pos:], "null"):
		p.pos += 4
		return Null(), nil
	case strings.HasPrefix(p.src[p.pos:], "undefined"):
		p.pos += len("undefined")
		return Undefined(), nil
	case c == '-' || (c >= '0' && c <= '9'):
		return p.parseNumber()
	default:
		return Value{}, errors.Errorf("unexpected character %q at offset %d", c, p.pos)
	}
}

func (p *parser) parseString() (string, error) {
	if p.peek() != '"' {
		return "", errors.Errorf("expected '\"' at offset %d", p.pos)
	}
	p.pos++
	var sb strings.Builder
	for {
		if p.pos >= len(p.src) {
			return "", errors.Errorf("unterminated string")
		}
		c := p.src[p.pos]
		if c == '"' {
			p.pos++
			return sb.String(), nil
		}
		if c == '\\' {
			p.pos++
			if p.pos >= len(p.src) {
				return "", errors.Errorf("unterminated escape")
			}
			switch p.src[p.pos] {
			case '"':
				sb.WriteByte('"')
			case '\\':
				sb.WriteByte('\\')
			case 'n':
				sb.WriteByte('\n')
			case 't':
				sb.WriteByte('\t')
			case 'r':
				sb.WriteByte('\r')
			default:
				sb.WriteByte(p.src[p.pos])
			}
			p.pos++
			continue
		}
		sb.WriteByte(c)
		p.pos++
	}
}

func (p *parser) parseNumber() (Value, error) {
	start := p.pos
	if p.peek() == '-' {
		p.pos++
	}
	for p.pos < len(p.src) && p.src[p.pos] >= '0' && p.src[p.pos] <= '9' {
		p.pos++
	}
	isFloat := false
	if p.peek() == '.' {
		isFloat = true
		p.pos++
		for p.pos < len(p.src) && p.src[p.pos] >= '0' && p.src[p.pos] <= '9' {
			p.pos++
		}
	}
	if p.peek() == 'e' || p.peek() == 'E' {
		isFloat = true
		p.pos++
		if p.peek() == '+' || p.peek() == '-' {
			p.pos++
		}
		for p.pos < len(p.src) && p.src[p.pos] >= '0' && p.src[p.pos] <= '9' {
			p.pos++
		}
	}
	isUnsigned := false
	if p.peek() == 'u' {
		isUnsigned = true
		p.pos++
	}
	text := p.src[start:p.pos]
	if isUnsigned {
		text = strings.TrimSuffix(text, "u")
		u, err := strconv.ParseUint(text, 10, 64)
		if err != nil {
			return Value{}, errors.Annotate(err, "parsing UInteger")
		}
		return FromUint(u), nil
	}
	if isFloat {
		f, err := strconv.ParseFloat(text, 64)
		if err != nil {
			return Value{}, errors.Annotate(err, "parsing Float")
		}
		return FromFloat(f), nil
	}
	i, err := strconv.ParseInt(text, 10, 64)
	if err != nil {
		return Value{}, errors.Annotate(err, "parsing Integer")
	}
	return FromInt(i), nil
}

func (p *parser) parseArray() (Value, error) {
	p.pos++ // '['
	arr := NewArray()
	p.skipSpace()
	if p.peek() == ']' {
		p.pos++
		return FromArray(arr), nil
	}
	for {
		v, err := p.parseValue()
		if err != nil {
			return Value{}, err
		}
		arr.Append(v)
		p.skipSpace()
		if p.peek() == ',' {
			p.pos++
			p.skipSpace()
			continue
		}
		if p.peek() == ']' {
			p.pos++
			return FromArray(arr), nil
		}
		return Value{}, errors.Errorf("expected ',' or ']' at offset %d", p.pos)
	}
}

func (p *parser) parseMap() (Value, error) {
	p.pos++ // '{'
	m := NewMap()
	p.skipSpace()
	if p.peek() == '}' {
		p.pos++
		return FromMap(m), nil
	}
	for {
		p.skipSpace()
		key, err := p.parseString()
		if err != nil {
			return Value{}, err
		}
		p.skipSpace()
		if p.peek() != ':' {
			return Value{}, errors.Errorf("expected ':' at offset %d", p.pos)
		}
		p.pos++
		v, err := p.parseValue()
		if err != nil {
			return Value{}, err
		}
		m.Set(key, v)
		p.skipSpace()
		if p.peek() == ',' {
			p.pos++
			continue
		}
		if p.peek() == '}' {
			p.pos++
			return FromMap(m), nil
		}
		return Value{}, errors.Errorf("expected ',' or '}' at offset %d", p.pos)
	}
}
