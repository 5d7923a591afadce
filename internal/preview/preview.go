// Package preview extracts #Preview blocks from Swift source text.
//
// The scanner is an explicit small state machine over code, line
// comments, nesting block comments, single-line strings, and
// triple-quoted multi-line strings. Braces inside comments and
// strings are non-structural and never affect block depth. Each scan
// is stateless and restartable.
package preview

import "strings"

const marker = "#Preview"

// Block is one extracted preview: its optional display name and the
// trimmed body of its trailing closure.
type Block struct {
	Name string
	Body string
}

// Extract returns the preview blocks of source in source order. Empty
// input or no markers yields nil.
func Extract(source string) []Block {
	s := &scanner{src: source}
	var blocks []Block

	for s.pos < len(s.src) {
		s.skipNonCode()
		if s.pos >= len(s.src) {
			break
		}
		if !s.atMarker() {
			s.pos++
			continue
		}

		after := s.pos + len(marker)
		s.pos = after
		if b, ok := s.block(); ok {
			blocks = append(blocks, b)
		} else {
			// Malformed or markerless trailing block: resume right
			// after the token so nothing is skipped.
			s.pos = after
		}
	}
	return blocks
}

type scanner struct {
	src string
	pos int
}

// atMarker reports whether the scanner sits on the exact marker
// token. A longer identifier sharing the prefix (e.g. #Previewable)
// does not count.
func (s *scanner) atMarker() bool {
	if !strings.HasPrefix(s.src[s.pos:], marker) {
		return false
	}
	if s.pos > 0 {
		prev := s.src[s.pos-1]
		if isIdentByte(prev) || prev == '#' {
			return false
		}
	}
	end := s.pos + len(marker)
	return end >= len(s.src) || !isIdentByte(s.src[end])
}

// block consumes the optional ("name", ...) argument list and the
// trailing { ... } closure following a marker.
func (s *scanner) block() (Block, bool) {
	var b Block

	s.skipSpace()
	if s.pos < len(s.src) && s.src[s.pos] == '(' {
		name, ok := s.argumentName()
		if !ok {
			return Block{}, false
		}
		b.Name = name
		s.skipSpace()
	}

	if s.pos >= len(s.src) || s.src[s.pos] != '{' {
		return Block{}, false
	}
	s.pos++ // consume '{'
	bodyStart := s.pos

	depth := 1
	for s.pos < len(s.src) {
		s.skipNonCode()
		if s.pos >= len(s.src) {
			break
		}
		switch s.src[s.pos] {
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				b.Body = strings.TrimSpace(s.src[bodyStart:s.pos])
				s.pos++
				return b, true
			}
		}
		s.pos++
	}
	return Block{}, false // unterminated block
}

// argumentName consumes a balanced parenthesis group and returns the
// content of the first string literal inside it — the display name in
// #Preview("name", traits: ...).
func (s *scanner) argumentName() (string, bool) {
	depth := 0
	name := ""
	captured := false

	for s.pos < len(s.src) {
		switch {
		case strings.HasPrefix(s.src[s.pos:], "//"):
			s.skipLineComment()
		case strings.HasPrefix(s.src[s.pos:], "/*"):
			s.skipBlockComment()
		case strings.HasPrefix(s.src[s.pos:], `"""`):
			s.skipMultiString()
		case s.src[s.pos] == '"':
			lit := s.scanString()
			if !captured {
				name = lit
				captured = true
			}
		default:
			switch s.src[s.pos] {
			case '(':
				depth++
			case ')':
				depth--
				if depth == 0 {
					s.pos++
					return name, true
				}
			}
			s.pos++
		}
	}
	return "", false
}

// skipNonCode advances through any run of comments and string
// literals so the caller only ever inspects structural code bytes.
func (s *scanner) skipNonCode() {
	for s.pos < len(s.src) {
		switch {
		case strings.HasPrefix(s.src[s.pos:], "//"):
			s.skipLineComment()
		case strings.HasPrefix(s.src[s.pos:], "/*"):
			s.skipBlockComment()
		case strings.HasPrefix(s.src[s.pos:], `"""`):
			s.skipMultiString()
		case s.src[s.pos] == '"':
			s.scanString()
		default:
			return
		}
	}
}

func (s *scanner) skipLineComment() {
	for s.pos < len(s.src) && s.src[s.pos] != '\n' {
		s.pos++
	}
}

// skipBlockComment handles Swift's nesting block comments.
func (s *scanner) skipBlockComment() {
	s.pos += 2
	depth := 1
	for s.pos < len(s.src) && depth > 0 {
		switch {
		case strings.HasPrefix(s.src[s.pos:], "/*"):
			depth++
			s.pos += 2
		case strings.HasPrefix(s.src[s.pos:], "*/"):
			depth--
			s.pos += 2
		default:
			s.pos++
		}
	}
}

// scanString consumes a single-line string literal and returns its
// content with simple escapes resolved. An unterminated literal ends
// at the newline.
func (s *scanner) scanString() string {
	s.pos++ // opening quote
	var b strings.Builder
	for s.pos < len(s.src) {
		c := s.src[s.pos]
		switch c {
		case '\\':
			if s.pos+1 < len(s.src) {
				b.WriteByte(s.src[s.pos+1])
				s.pos += 2
				continue
			}
			s.pos++
		case '"':
			s.pos++
			return b.String()
		case '\n':
			return b.String()
		default:
			b.WriteByte(c)
			s.pos++
		}
	}
	return b.String()
}

func (s *scanner) skipMultiString() {
	s.pos += 3
	for s.pos < len(s.src) {
		if s.src[s.pos] == '\\' {
			s.pos += 2
			continue
		}
		if strings.HasPrefix(s.src[s.pos:], `"""`) {
			s.pos += 3
			return
		}
		s.pos++
	}
}

// skipSpace advances over whitespace, including newlines between the
// marker, its arguments, and the opening brace.
func (s *scanner) skipSpace() {
	for s.pos < len(s.src) {
		switch s.src[s.pos] {
		case ' ', '\t', '\r', '\n':
			s.pos++
		default:
			return
		}
	}
}

func isIdentByte(c byte) bool {
	return c == '_' ||
		(c >= 'a' && c <= 'z') ||
		(c >= 'A' && c <= 'Z') ||
		(c >= '0' && c <= '9')
}
