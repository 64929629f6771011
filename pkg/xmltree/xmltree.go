// Package xmltree is a small, forgiving XML reader that builds a generic element
// tree. It targets fully-buffered interchange documents such as Collada and does
// not validate: malformed input yields a best-effort tree instead of an error.
package xmltree

import (
	"regexp"
	"strings"
)

// Node is one XML element.
type Node struct {
	Name     string
	Attrs    map[string]string
	Children []*Node
	Text     string // concatenated, trimmed character data (CDATA included verbatim)
}

var (
	prologRe  = regexp.MustCompile(`<\?xml[^?]*\?>`)
	commentRe = regexp.MustCompile(`(?s)<!--.*?-->`)

	entityReplacer = strings.NewReplacer(
		"&lt;", "<",
		"&gt;", ">",
		"&quot;", `"`,
		"&apos;", "'",
		"&amp;", "&",
	)
)

const cdataOpen, cdataClose = "<![CDATA[", "]]>"

// Parse returns the document's root element, or nil if none is found.
func Parse(doc string) *Node {
	doc = prologRe.ReplaceAllString(doc, "")
	doc = commentRe.ReplaceAllString(doc, "")

	p := &parser{s: doc}
	for {
		p.skipSpace()
		if p.eof() {
			return nil
		}
		if p.skipDeclaration() {
			continue
		}
		return p.element()
	}
}

type parser struct {
	s   string
	pos int
}

func (p *parser) eof() bool { return p.pos >= len(p.s) }

func (p *parser) rest() string { return p.s[p.pos:] }

func (p *parser) skipSpace() {
	for p.pos < len(p.s) && isSpace(p.s[p.pos]) {
		p.pos++
	}
}

// skipDeclaration consumes a <!DOCTYPE ...> or <?pi ...?> markup item.
func (p *parser) skipDeclaration() bool {
	r := p.rest()
	if strings.HasPrefix(r, cdataOpen) {
		return false
	}
	if !strings.HasPrefix(r, "<!") && !strings.HasPrefix(r, "<?") {
		return false
	}
	p.skipPast(">")
	return true
}

// skipPast moves the cursor just past the next occurrence of tok, or to EOF.
func (p *parser) skipPast(tok string) {
	if i := strings.Index(p.rest(), tok); i >= 0 {
		p.pos += i + len(tok)
		return
	}
	p.pos = len(p.s)
}

func (p *parser) readUntil(stop func(byte) bool) string {
	start := p.pos
	for p.pos < len(p.s) && !stop(p.s[p.pos]) {
		p.pos++
	}
	return p.s[start:p.pos]
}

// element parses one element starting at '<'. It returns nil at a closing tag
// or when the cursor is not on a tag.
func (p *parser) element() *Node {
	p.skipSpace()
	if p.eof() || p.s[p.pos] != '<' || strings.HasPrefix(p.rest(), "</") {
		return nil
	}
	p.pos++

	n := &Node{
		Name:  p.readUntil(func(c byte) bool { return isSpace(c) || c == '/' || c == '>' }),
		Attrs: make(map[string]string),
	}

	p.attributes(n)

	if p.eof() {
		return n
	}
	if p.s[p.pos] == '/' {
		p.skipPast(">")
		return n
	}
	p.pos++ // '>'

	p.content(n)
	return n
}

func (p *parser) attributes(n *Node) {
	for {
		p.skipSpace()
		if p.eof() || p.s[p.pos] == '>' || p.s[p.pos] == '/' {
			return
		}
		name := p.readUntil(func(c byte) bool { return isSpace(c) || c == '=' || c == '>' || c == '/' })
		if name == "" {
			p.pos++
			continue
		}
		p.skipSpace()
		if p.eof() || p.s[p.pos] != '=' {
			n.Attrs[name] = ""
			continue
		}
		p.pos++
		p.skipSpace()
		if p.eof() {
			return
		}

		var value string
		if q := p.s[p.pos]; q == '"' || q == '\'' {
			p.pos++
			value = p.readUntil(func(c byte) bool { return c == q })
			if !p.eof() {
				p.pos++
			}
		} else {
			value = p.readUntil(func(c byte) bool { return isSpace(c) || c == '>' || c == '/' })
		}
		n.Attrs[name] = entityReplacer.Replace(value)
	}
}

func (p *parser) content(n *Node) {
	var text strings.Builder
	for {
		p.skipSpace()
		if p.eof() {
			break
		}
		r := p.rest()
		switch {
		case strings.HasPrefix(r, "</"):
			p.skipPast(">")
			n.Text = strings.TrimSpace(text.String())
			return
		case strings.HasPrefix(r, cdataOpen):
			p.pos += len(cdataOpen)
			end := strings.Index(p.rest(), cdataClose)
			if end < 0 {
				text.WriteString(p.rest())
				p.pos = len(p.s)
				continue
			}
			text.WriteString(p.s[p.pos : p.pos+end])
			p.pos += end + len(cdataClose)
		case p.skipDeclaration():
		case r[0] == '<':
			start := p.pos
			if child := p.element(); child != nil {
				n.Children = append(n.Children, child)
			} else if p.pos == start {
				p.pos++
			}
		default:
			chunk := p.readUntil(func(c byte) bool { return c == '<' })
			text.WriteString(entityReplacer.Replace(chunk))
		}
	}
	n.Text = strings.TrimSpace(text.String())
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r'
}

// Attr returns the named attribute, or "" when absent.
func (n *Node) Attr(name string) string {
	if n == nil {
		return ""
	}
	return n.Attrs[name]
}

// Child returns the first direct child with the given tag name.
func (n *Node) Child(name string) *Node {
	if n == nil {
		return nil
	}
	for _, c := range n.Children {
		if c.Name == name {
			return c
		}
	}
	return nil
}

// ChildrenNamed returns all direct children with the given tag name.
func (n *Node) ChildrenNamed(name string) []*Node {
	if n == nil {
		return nil
	}
	var out []*Node
	for _, c := range n.Children {
		if c.Name == name {
			out = append(out, c)
		}
	}
	return out
}

// FindDeep returns every descendant (not n itself) with the given tag name,
// in document order.
func (n *Node) FindDeep(name string) []*Node {
	if n == nil {
		return nil
	}
	var out []*Node
	for _, c := range n.Children {
		if c.Name == name {
			out = append(out, c)
		}
		out = append(out, c.FindDeep(name)...)
	}
	return out
}
