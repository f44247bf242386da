package channel

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/flemzord/tgsend/internal/markup"
)

// Tag is an inline or structural construct found open at the end of a
// scanned piece of text.
type Tag struct {
	// Name identifies the construct: a MarkdownV2 delimiter ("*", "```")
	// or a lower-case HTML element name ("b", "a").
	Name string
	// Pos is the byte offset of the opening delimiter in the scanned text.
	Pos int
	// Open is the text that reopens the construct at the start of a chunk.
	Open string
	// Close is the text that closes the construct at the end of a chunk.
	Close string
}

// tagStack is a last-in-first-out sequence of open tags, oldest first.
type tagStack []Tag

func (s *tagStack) push(t Tag) {
	*s = append(*s, t)
}

func (s tagStack) top() (Tag, bool) {
	if len(s) == 0 {
		return Tag{}, false
	}
	return s[len(s)-1], true
}

func (s *tagStack) pop() {
	if len(*s) > 0 {
		*s = (*s)[:len(*s)-1]
	}
}

// toggle removes the most recent tag with the given name, or pushes t when
// none is open. This is delimiter parity: an odd count leaves t open.
func (s *tagStack) toggle(t Tag) {
	for i := len(*s) - 1; i >= 0; i-- {
		if (*s)[i].Name == t.Name {
			*s = append((*s)[:i], (*s)[i+1:]...)
			return
		}
	}
	s.push(t)
}

// OpenTags scans text under the rules of dialect d and returns the
// constructs still open at its end, in opening order.
func OpenTags(text string, d markup.Dialect) []Tag {
	if d == markup.DialectHTML {
		return scanHTML(text)
	}
	return scanMarkdownV2(text)
}

// scanMarkdownV2 tracks * _ ~ by parity and ` / ``` as code spans.
// Backslash-escaped characters are skipped, nothing inside a code span
// counts except its own closer, and the URL part of a link is opaque.
func scanMarkdownV2(text string) []Tag {
	var stack tagStack

	for i := 0; i < len(text); {
		c := text[i]

		if c == '\\' {
			i += 2
			continue
		}

		if top, ok := stack.top(); ok && (top.Name == markup.DelimPre || top.Name == markup.DelimCode) {
			switch {
			case top.Name == markup.DelimPre && strings.HasPrefix(text[i:], markup.DelimPre):
				stack.pop()
				i += len(markup.DelimPre)
			case top.Name == markup.DelimCode && c == '`':
				stack.pop()
				i++
			default:
				i++
			}
			continue
		}

		switch {
		case strings.HasPrefix(text[i:], markup.DelimPre):
			stack.push(Tag{Name: markup.DelimPre, Pos: i, Open: markup.DelimPre + "\n", Close: markup.DelimPre})
			i += len(markup.DelimPre)
		case c == '`':
			stack.push(Tag{Name: markup.DelimCode, Pos: i, Open: markup.DelimCode, Close: markup.DelimCode})
			i++
		case c == '*' || c == '_' || c == '~':
			d := string(c)
			stack.toggle(Tag{Name: d, Pos: i, Open: d, Close: d})
			i++
		case c == ']' && i+1 < len(text) && text[i+1] == '(':
			i = skipLinkURL(text, i+2)
		default:
			i++
		}
	}

	return stack
}

// skipLinkURL returns the offset just past the unescaped ')' that ends a
// link URL starting at i, or len(text) if the URL is cut off.
func skipLinkURL(text string, i int) int {
	for i < len(text) {
		switch text[i] {
		case '\\':
			i += 2
		case ')':
			return i + 1
		default:
			i++
		}
	}
	return len(text)
}

// linkRanges returns the [start, end) rune ranges of MarkdownV2 links in
// text, under the same escape and code span rules as scanMarkdownV2. A link
// still open at the end of text extends past it.
func linkRanges(text []rune) [][2]int {
	var (
		ranges [][2]int
		code   string
	)
	open := -1

	for i := 0; i < len(text); {
		c := text[i]

		if c == '\\' {
			i += 2
			continue
		}

		if code != "" {
			if hasRunePrefix(text[i:], code) {
				i += len(code)
				code = ""
			} else {
				i++
			}
			continue
		}

		switch {
		case hasRunePrefix(text[i:], markup.DelimPre):
			code = markup.DelimPre
			i += len(markup.DelimPre)
		case c == '`':
			code = markup.DelimCode
			i++
		case c == '[':
			open = i
			i++
		case c == ']' && open >= 0 && i+1 == len(text):
			// The URL may follow past the end of text.
			return append(ranges, [2]int{open, len(text) + 1})
		case c == ']' && open >= 0 && text[i+1] == '(':
			end := skipLinkURLRunes(text, i+2)
			if end > len(text) {
				return append(ranges, [2]int{open, end})
			}
			ranges = append(ranges, [2]int{open, end})
			open = -1
			i = end
		case c == ']':
			open = -1
			i++
		default:
			i++
		}
	}

	if open >= 0 {
		ranges = append(ranges, [2]int{open, len(text) + 1})
	}
	return ranges
}

// skipLinkURLRunes is skipLinkURL over runes. It returns len(text)+1 when
// the URL is cut off.
func skipLinkURLRunes(text []rune, i int) int {
	for i < len(text) {
		switch text[i] {
		case '\\':
			i += 2
		case ')':
			return i + 1
		default:
			i++
		}
	}
	return len(text) + 1
}

func hasRunePrefix(text []rune, prefix string) bool {
	i := 0
	for _, r := range prefix {
		if i >= len(text) || text[i] != r {
			return false
		}
		i++
	}
	return true
}

// htmlTagPattern matches opening and closing HTML tags.
var htmlTagPattern = regexp.MustCompile(`(?i)<(/?)([a-z]+)(?:\s[^>]*)?>`)

// scanHTML keeps a stack of open elements. A closing tag pops the stack only
// when it matches the most recently opened element; stray closers are ignored.
func scanHTML(text string) []Tag {
	var stack tagStack

	for _, loc := range htmlTagPattern.FindAllStringSubmatchIndex(text, -1) {
		closing := loc[3] > loc[2]
		name := strings.ToLower(text[loc[4]:loc[5]])

		if !closing {
			stack.push(Tag{
				Name:  name,
				Pos:   loc[0],
				Open:  text[loc[0]:loc[1]],
				Close: "</" + name + ">",
			})
			continue
		}

		if top, ok := stack.top(); ok && top.Name == name {
			stack.pop()
		}
	}

	return stack
}

// closers renders the closing text for tags, most recently opened first.
func closers(tags []Tag) string {
	var b strings.Builder
	for i := len(tags) - 1; i >= 0; i-- {
		b.WriteString(tags[i].Close)
	}
	return b.String()
}

// openers renders the reopening text for tags, in opening order.
func openers(tags []Tag) string {
	var b strings.Builder
	for _, t := range tags {
		b.WriteString(t.Open)
	}
	return b.String()
}

func runeLen(s string) int {
	return utf8.RuneCountInString(s)
}
