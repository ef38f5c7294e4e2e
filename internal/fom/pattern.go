package fom

import (
	"fmt"
	"regexp"
	"strings"
)

var placeholderName = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

type segment struct {
	literal string
	attr    string
}

// Pattern is a parsed path template.
type Pattern struct {
	raw      string
	segments []segment
}

// ParsePattern splits a template into literal text and placeholders.
func ParsePattern(s string) (Pattern, error) {
	if strings.TrimSpace(s) == "" {
		return Pattern{}, fmt.Errorf("empty pattern")
	}
	p := Pattern{raw: s}
	rest := s
	for rest != "" {
		open := strings.IndexByte(rest, '<')
		closeIdx := strings.IndexByte(rest, '>')
		if open < 0 {
			if closeIdx >= 0 {
				return Pattern{}, fmt.Errorf("pattern %q: unmatched '>'", s)
			}
			p.segments = append(p.segments, segment{literal: rest})
			break
		}
		if closeIdx >= 0 && closeIdx < open {
			return Pattern{}, fmt.Errorf("pattern %q: unmatched '>'", s)
		}
		if open > 0 {
			p.segments = append(p.segments, segment{literal: rest[:open]})
		}
		end := strings.IndexByte(rest[open:], '>')
		if end < 0 {
			return Pattern{}, fmt.Errorf("pattern %q: unterminated placeholder", s)
		}
		name := rest[open+1 : open+end]
		if !placeholderName.MatchString(name) {
			return Pattern{}, fmt.Errorf("pattern %q: invalid placeholder name %q", s, name)
		}
		p.segments = append(p.segments, segment{attr: name})
		rest = rest[open+end+1:]
	}
	return p, nil
}

func (p Pattern) String() string { return p.raw }

// Placeholders returns placeholder names in first-use order, without repeats.
func (p Pattern) Placeholders() []string {
	var out []string
	seen := make(map[string]bool)
	for _, s := range p.segments {
		if s.attr != "" && !seen[s.attr] {
			seen[s.attr] = true
			out = append(out, s.attr)
		}
	}
	return out
}

// Expand substitutes values for placeholders. It fails when a placeholder
// has no value or an empty one.
func (p Pattern) Expand(values map[string]string) (string, bool) {
	var b strings.Builder
	for _, s := range p.segments {
		if s.attr == "" {
			b.WriteString(s.literal)
			continue
		}
		v := values[s.attr]
		if v == "" {
			return "", false
		}
		b.WriteString(v)
	}
	return b.String(), true
}

// match extracts placeholder values from an expanded path. A placeholder
// that appears twice must capture the same text both times.
func (p Pattern) match(s string) (map[string]string, bool) {
	var expr strings.Builder
	expr.WriteString("^")
	var groups []string
	for _, seg := range p.segments {
		if seg.attr == "" {
			expr.WriteString(regexp.QuoteMeta(seg.literal))
			continue
		}
		expr.WriteString(`([^/]+?)`)
		groups = append(groups, seg.attr)
	}
	expr.WriteString("$")
	re, err := regexp.Compile(expr.String())
	if err != nil {
		return nil, false
	}
	m := re.FindStringSubmatch(s)
	if m == nil {
		return nil, false
	}
	values := make(map[string]string, len(groups))
	for i, name := range groups {
		v := m[i+1]
		if prev, ok := values[name]; ok && prev != v {
			return nil, false
		}
		values[name] = v
	}
	return values, true
}
