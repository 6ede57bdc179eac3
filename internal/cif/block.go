package cif

import (
	"fmt"
	"strconv"
	"strings"
)

// Value is a single CIF data value.
type Value struct {
	Text   string
	Quoted bool
	Line   int
}

// Unknown reports whether the value is the unquoted placeholder "?" or ".".
func (v Value) Unknown() bool {
	return !v.Quoted && (v.Text == "?" || v.Text == ".")
}

// Float parses a numeric value, discarding any standard uncertainty suffix
// such as the "(3)" in "5.6402(3)".
func (v Value) Float() (float64, error) {
	if v.Unknown() {
		return 0, errorAt(v.Line, ErrBadNumber, "value is unknown (%q)", v.Text)
	}
	s := v.Text
	if i := strings.IndexByte(s, '('); i >= 0 {
		if !strings.HasSuffix(s, ")") {
			return 0, errorAt(v.Line, ErrBadNumber, "%q", v.Text)
		}
		s = s[:i]
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, errorAt(v.Line, ErrBadNumber, "%q", v.Text)
	}
	return f, nil
}

// Loop is a loop_ table. Rows hold one Value per tag.
type Loop struct {
	Tags []string
	Rows [][]Value
}

// Column returns the index of tag in the loop, or -1.
func (l *Loop) Column(tag string) int {
	tag = strings.ToLower(tag)
	for i, t := range l.Tags {
		if t == tag {
			return i
		}
	}
	return -1
}

// Block is one data_ block: single-valued items plus loops.
type Block struct {
	Name  string
	Items map[string]Value
	Loops []*Loop
}

// Item returns the single value for tag. Tags are case-insensitive. A loop
// with exactly one row also answers for its tags.
func (b *Block) Item(tag string) (Value, bool) {
	tag = strings.ToLower(tag)
	if v, ok := b.Items[tag]; ok {
		return v, true
	}
	if l := b.Loop(tag); l != nil && len(l.Rows) == 1 {
		return l.Rows[0][l.Column(tag)], true
	}
	return Value{}, false
}

// FirstItem returns the first of tags that is present and known.
func (b *Block) FirstItem(tags ...string) (Value, bool) {
	for _, t := range tags {
		if v, ok := b.Item(t); ok && !v.Unknown() {
			return v, true
		}
	}
	return Value{}, false
}

// Loop returns the loop containing tag, or nil.
func (b *Block) Loop(tag string) *Loop {
	tag = strings.ToLower(tag)
	for _, l := range b.Loops {
		if l.Column(tag) >= 0 {
			return l
		}
	}
	return nil
}

// parseBlocks groups tokens into data blocks.
func parseBlocks(toks []token) ([]*Block, error) {
	var blocks []*Block
	var cur *Block
	inSave := false

	for i := 0; i < len(toks); {
		t := toks[i]
		switch t.kind {
		case tokData:
			cur = &Block{Name: t.text, Items: make(map[string]Value)}
			blocks = append(blocks, cur)
			inSave = false
			i++
			continue
		case tokSave:
			// "save_name" opens a frame, bare "save_" closes it.
			inSave = t.text != ""
			i++
			continue
		case tokGlobal, tokStop:
			i++
			continue
		}

		if cur == nil {
			return nil, errorAt(t.line, ErrSyntax, "content before first data_ block")
		}

		switch t.kind {
		case tokTag:
			if i+1 >= len(toks) || toks[i+1].kind != tokValue {
				return nil, errorAt(t.line, ErrSyntax, "tag %s has no value", t.text)
			}
			if !inSave {
				v := toks[i+1]
				cur.Items[t.text] = Value{Text: v.text, Quoted: v.quoted, Line: v.line}
			}
			i += 2

		case tokLoop:
			l, next, err := parseLoop(toks, i+1)
			if err != nil {
				return nil, err
			}
			if !inSave {
				cur.Loops = append(cur.Loops, l)
			}
			i = next

		default:
			return nil, errorAt(t.line, ErrSyntax, "unexpected value %q", t.text)
		}
	}
	return blocks, nil
}

func parseLoop(toks []token, i int) (*Loop, int, error) {
	start := i
	l := &Loop{}
	for i < len(toks) && toks[i].kind == tokTag {
		l.Tags = append(l.Tags, toks[i].text)
		i++
	}
	if len(l.Tags) == 0 {
		line := 0
		if start > 0 {
			line = toks[start-1].line
		}
		return nil, i, errorAt(line, ErrSyntax, "loop_ without tags")
	}

	var vals []Value
	for i < len(toks) && toks[i].kind == tokValue {
		v := toks[i]
		vals = append(vals, Value{Text: v.text, Quoted: v.quoted, Line: v.line})
		i++
	}
	if len(vals)%len(l.Tags) != 0 {
		line := toks[start].line
		return nil, i, errorAt(line, ErrSyntax, "loop has %d values for %d tags", len(vals), len(l.Tags))
	}
	for r := 0; r < len(vals); r += len(l.Tags) {
		l.Rows = append(l.Rows, vals[r:r+len(l.Tags)])
	}
	return l, i, nil
}

func (b *Block) String() string {
	return fmt.Sprintf("data_%s (%d items, %d loops)", b.Name, len(b.Items), len(b.Loops))
}
