package cif

import (
	"bufio"
	"io"
	"strings"
)

type tokenKind int

const (
	tokValue tokenKind = iota
	tokTag
	tokLoop
	tokData
	tokSave // save_ frames are skipped
	tokGlobal
	tokStop
)

type token struct {
	kind   tokenKind
	text   string
	line   int
	quoted bool // quoted strings and text fields are never "?" or "."
}

// tokenize splits a CIF document into tokens. Comments are discarded.
func tokenize(r io.Reader) ([]token, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)

	var toks []token
	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := strings.TrimRight(sc.Text(), "\r")

		// Semicolon text field: runs until the next line starting with ';'.
		if strings.HasPrefix(line, ";") {
			start := lineNo
			var b strings.Builder
			b.WriteString(line[1:])
			closed := false
			for sc.Scan() {
				lineNo++
				l := strings.TrimRight(sc.Text(), "\r")
				if strings.HasPrefix(l, ";") {
					closed = true
					// Anything after the closing ';' is tokenized normally.
					rest, err := tokenizeLine(l[1:], lineNo)
					if err != nil {
						return nil, err
					}
					toks = append(toks, token{kind: tokValue, text: strings.TrimSpace(b.String()), line: start, quoted: true})
					toks = append(toks, rest...)
					break
				}
				b.WriteByte('\n')
				b.WriteString(l)
			}
			if !closed {
				return nil, errorAt(start, ErrSyntax, "unterminated text field")
			}
			continue
		}

		lt, err := tokenizeLine(line, lineNo)
		if err != nil {
			return nil, err
		}
		toks = append(toks, lt...)
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return toks, nil
}

func tokenizeLine(line string, lineNo int) ([]token, error) {
	var toks []token
	i := 0
	for i < len(line) {
		c := line[i]
		switch {
		case c == ' ' || c == '\t':
			i++
		case c == '#':
			return toks, nil
		case c == '\'' || c == '"':
			// A quote only closes when followed by whitespace or end of line.
			j := i + 1
			for {
				k := strings.IndexByte(line[j:], c)
				if k < 0 {
					return nil, errorAt(lineNo, ErrSyntax, "unterminated quoted string")
				}
				j += k
				if j+1 >= len(line) || line[j+1] == ' ' || line[j+1] == '\t' {
					break
				}
				j++
			}
			toks = append(toks, token{kind: tokValue, text: line[i+1 : j], line: lineNo, quoted: true})
			i = j + 1
		default:
			j := i
			for j < len(line) && line[j] != ' ' && line[j] != '\t' {
				j++
			}
			toks = append(toks, classify(line[i:j], lineNo))
			i = j
		}
	}
	return toks, nil
}

func classify(word string, lineNo int) token {
	lower := strings.ToLower(word)
	t := token{kind: tokValue, text: word, line: lineNo}
	switch {
	case strings.HasPrefix(word, "_"):
		t.kind = tokTag
		t.text = lower
	case lower == "loop_":
		t.kind = tokLoop
	case strings.HasPrefix(lower, "data_"):
		t.kind = tokData
		t.text = word[len("data_"):]
	case strings.HasPrefix(lower, "save_"):
		t.kind = tokSave
		t.text = word[len("save_"):]
	case lower == "global_":
		t.kind = tokGlobal
	case lower == "stop_":
		t.kind = tokStop
	}
	return t
}
