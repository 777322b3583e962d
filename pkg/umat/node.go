package umat

import (
	"strconv"
	"strings"
)

// The material dialect is close to YAML but deviates enough (custom type
// tags on arbitrary nodes, duplicate keys, no anchors worth honoring) that a
// general-purpose document parser rejects real-world records. This is a
// small scanner over the restricted grammar we actually see: block and flow
// mappings, block sequences, scalars, and tags that get discarded.

type nodeKind int

const (
	scalarNode nodeKind = iota
	mappingNode
	sequenceNode
)

type entry struct {
	key   string
	value *node
}

type node struct {
	kind    nodeKind
	scalar  string
	entries []entry
	items   []*node
}

func newMapping() *node {
	return &node{kind: mappingNode, entries: make([]entry, 0)}
}

func newScalar(value string) *node {
	return &node{kind: scalarNode, scalar: value}
}

// set overwrites an existing key in place; duplicate keys take the last
// occurrence.
func (n *node) set(key string, value *node) {
	for i, e := range n.entries {
		if e.key == key {
			n.entries[i].value = value
			return
		}
	}
	n.entries = append(n.entries, entry{key: key, value: value})
}

func (n *node) get(key string) *node {
	if n == nil || n.kind != mappingNode {
		return nil
	}
	for _, e := range n.entries {
		if e.key == key {
			return e.value
		}
	}
	return nil
}

func (n *node) str() string {
	if n == nil || n.kind != scalarNode {
		return ""
	}
	return n.scalar
}

func (n *node) float() (float64, bool) {
	if n == nil || n.kind != scalarNode {
		return 0, false
	}
	value, err := strconv.ParseFloat(strings.TrimSpace(n.scalar), 64)
	if err != nil {
		return 0, false
	}
	return value, true
}

type line struct {
	indent int
	text   string
	num    int
}

// scanLines drops blanks, comments, %-directives and document markers, and
// measures indentation. Tabs count as two columns.
func scanLines(data []byte) []line {
	raw := strings.Split(string(data), "\n")
	lines := make([]line, 0, len(raw))

	for i, text := range raw {
		text = strings.TrimRight(text, "\r")

		indent := 0
		j := 0
		for ; j < len(text); j++ {
			if text[j] == ' ' {
				indent++
			} else if text[j] == '\t' {
				indent += 2
			} else {
				break
			}
		}
		content := strings.TrimRight(text[j:], " \t")
		content = stripComment(content)

		if content == "" {
			continue
		}
		if strings.HasPrefix(content, "%") || strings.HasPrefix(content, "---") {
			continue
		}

		lines = append(lines, line{indent: indent, text: content, num: i + 1})
	}

	return lines
}

func stripComment(s string) string {
	inSingle, inDouble := false, false
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '\'':
			if !inDouble {
				inSingle = !inSingle
			}
		case '"':
			if !inSingle {
				inDouble = !inDouble
			}
		case '#':
			if inSingle || inDouble {
				continue
			}
			if i == 0 || s[i-1] == ' ' || s[i-1] == '\t' {
				return strings.TrimRight(s[:i], " \t")
			}
		}
	}
	return strings.TrimRight(s, " \t")
}

type parser struct {
	lines []line
	pos   int
}

func parseDialect(data []byte) *node {
	p := &parser{lines: scanLines(data)}
	if len(p.lines) == 0 {
		return newMapping()
	}
	return p.parseBlock(p.lines[0].indent)
}

func (p *parser) peek() (line, bool) {
	if p.pos >= len(p.lines) {
		return line{}, false
	}
	return p.lines[p.pos], true
}

func (p *parser) parseBlock(indent int) *node {
	first, ok := p.peek()
	if !ok || first.indent < indent {
		return newScalar("")
	}

	if strings.HasPrefix(first.text, "- ") || first.text == "-" {
		return p.parseSequence(first.indent)
	}
	return p.parseMapping(first.indent)
}

func (p *parser) parseSequence(indent int) *node {
	seq := &node{kind: sequenceNode, items: make([]*node, 0)}

	for {
		current, ok := p.peek()
		if !ok || current.indent < indent {
			break
		}
		if current.indent > indent {
			// Stray continuation line; tolerate and move on.
			p.pos++
			continue
		}
		if !strings.HasPrefix(current.text, "- ") && current.text != "-" {
			break
		}

		rest := strings.TrimPrefix(strings.TrimPrefix(current.text, "-"), " ")
		if rest == "" {
			p.pos++
			seq.items = append(seq.items, p.parseBlock(indent+1))
			continue
		}

		if _, _, ok := splitKey(rest); !ok {
			p.pos++
			seq.items = append(seq.items, parseValue(rest))
			continue
		}

		// Rewrite the dash line as the first line of a nested block so
		// "- key:" items with deeper continuation lines parse naturally.
		p.lines[p.pos] = line{indent: indent + 2, text: rest, num: current.num}
		seq.items = append(seq.items, p.parseBlock(indent + 1))
	}

	return seq
}

func (p *parser) parseMapping(indent int) *node {
	mapping := newMapping()

	for {
		current, ok := p.peek()
		if !ok || current.indent < indent {
			break
		}
		if current.indent > indent {
			// Continuation of something already consumed; skip it.
			p.pos++
			continue
		}
		if strings.HasPrefix(current.text, "- ") || current.text == "-" {
			break
		}

		key, rest, ok := splitKey(current.text)
		if !ok {
			p.pos++
			continue
		}
		p.pos++

		if rest == "" {
			next, ok := p.peek()
			switch {
			case ok && next.indent > indent:
				mapping.set(key, p.parseBlock(next.indent))
			case ok && next.indent == indent &&
				(strings.HasPrefix(next.text, "- ") || next.text == "-"):
				// Sequences often sit at the same indent as their key.
				mapping.set(key, p.parseSequence(indent))
			default:
				mapping.set(key, newScalar(""))
			}
			continue
		}

		mapping.set(key, parseValue(rest))
	}

	return mapping
}

// splitKey breaks "key: value" on the first colon outside quotes and flow
// delimiters that is followed by a space or ends the line.
func splitKey(s string) (string, string, bool) {
	inSingle, inDouble := false, false
	depth := 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '\'':
			if !inDouble {
				inSingle = !inSingle
			}
		case '"':
			if !inSingle {
				inDouble = !inDouble
			}
		case '{', '[':
			if !inSingle && !inDouble {
				depth++
			}
		case '}', ']':
			if !inSingle && !inDouble {
				depth--
			}
		case ':':
			if inSingle || inDouble || depth > 0 {
				continue
			}
			if i+1 == len(s) {
				return cleanKey(s[:i]), "", true
			}
			if s[i+1] == ' ' {
				return cleanKey(s[:i]), strings.TrimSpace(s[i+1:]), true
			}
		}
	}
	return "", "", false
}

func cleanKey(key string) string {
	return unquote(stripDecorations(strings.TrimSpace(key)))
}

// parseValue handles an inline value: flow mappings, flow sequences, and
// scalars, with any leading type tags or anchors discarded.
func parseValue(s string) *node {
	s = stripDecorations(strings.TrimSpace(s))
	if s == "" {
		return newScalar("")
	}

	if strings.HasPrefix(s, "{") {
		return parseFlowMapping(s)
	}
	if strings.HasPrefix(s, "[") {
		return parseFlowSequence(s)
	}
	if strings.HasPrefix(s, "*") {
		// Alias; keep the referent name as an opaque scalar.
		return newScalar(s[1:])
	}
	return newScalar(unquote(s))
}

// stripDecorations removes leading "!tag" and "&anchor" tokens. Tags carry
// no information this format needs.
func stripDecorations(s string) string {
	for {
		if len(s) == 0 || (s[0] != '!' && s[0] != '&') {
			return s
		}
		space := strings.IndexAny(s, " \t")
		if space < 0 {
			return ""
		}
		s = strings.TrimLeft(s[space+1:], " \t")
	}
}

func unquote(s string) string {
	if len(s) >= 2 && s[0] == '\'' && s[len(s)-1] == '\'' {
		return strings.ReplaceAll(s[1:len(s)-1], "''", "'")
	}
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		if unquoted, err := strconv.Unquote(s); err == nil {
			return unquoted
		}
		return s[1 : len(s)-1]
	}
	return s
}

func parseFlowMapping(s string) *node {
	inner := strings.TrimSpace(s)
	inner = strings.TrimPrefix(inner, "{")
	inner = strings.TrimSuffix(inner, "}")

	mapping := newMapping()
	for _, item := range splitFlowItems(inner) {
		key, rest, ok := splitFlowPair(item)
		if !ok {
			continue
		}
		mapping.set(cleanKey(key), parseValue(rest))
	}
	return mapping
}

func parseFlowSequence(s string) *node {
	inner := strings.TrimSpace(s)
	inner = strings.TrimPrefix(inner, "[")
	inner = strings.TrimSuffix(inner, "]")

	seq := &node{kind: sequenceNode, items: make([]*node, 0)}
	for _, item := range splitFlowItems(inner) {
		if strings.TrimSpace(item) == "" {
			continue
		}
		seq.items = append(seq.items, parseValue(item))
	}
	return seq
}

// splitFlowItems splits on commas at depth zero.
func splitFlowItems(s string) []string {
	items := make([]string, 0)
	depth := 0
	inSingle, inDouble := false, false
	start := 0

	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '\'':
			if !inDouble {
				inSingle = !inSingle
			}
		case '"':
			if !inSingle {
				inDouble = !inDouble
			}
		case '{', '[':
			if !inSingle && !inDouble {
				depth++
			}
		case '}', ']':
			if !inSingle && !inDouble {
				depth--
			}
		case ',':
			if depth == 0 && !inSingle && !inDouble {
				items = append(items, s[start:i])
				start = i + 1
			}
		}
	}
	if strings.TrimSpace(s[start:]) != "" {
		items = append(items, s[start:])
	}
	return items
}

func splitFlowPair(s string) (string, string, bool) {
	depth := 0
	inSingle, inDouble := false, false
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '\'':
			if !inDouble {
				inSingle = !inSingle
			}
		case '"':
			if !inSingle {
				inDouble = !inDouble
			}
		case '{', '[':
			if !inSingle && !inDouble {
				depth++
			}
		case '}', ']':
			if !inSingle && !inDouble {
				depth--
			}
		case ':':
			if depth == 0 && !inSingle && !inDouble {
				return s[:i], s[i+1:], true
			}
		}
	}
	return "", "", false
}
