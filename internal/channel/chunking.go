package channel

import (
	"unicode/utf8"

	"github.com/flemzord/tgsend/internal/markup"
)

// splitLookback bounds how far back from the limit a newline or space is
// searched for.
const splitLookback = 200

// htmlLookback bounds how far back a hard cut looks for an unfinished
// entity or tag.
const htmlLookback = 64

// Chunk is one transport-sized segment of a message. Its Text, parsed on
// its own under Dialect, has no inline construct left open: constructs
// carried over from the previous chunk are reopened at its start and
// constructs still open at its end are closed.
type Chunk struct {
	Text    string         `json:"text"`
	Dialect markup.Dialect `json:"dialect"`
}

// Len returns the length of the chunk text in code points.
func (c Chunk) Len() int {
	return utf8.RuneCountInString(c.Text)
}

// SplitIntoChunks splits text, already formatted for dialect d, into
// chunks of at most maxChunkSize code points. Text that fits, including the
// empty string, yields exactly one chunk equal to text. A maxChunkSize <= 0
// disables splitting.
//
// Each split prefers the last newline, then the last space, within the
// final splitLookback code points before the limit, and falls back to a
// hard cut. Constructs open at the split are closed at the end of the
// chunk and reopened at the start of the next one.
func SplitIntoChunks(text string, d markup.Dialect, maxChunkSize int) []Chunk {
	if maxChunkSize <= 0 || utf8.RuneCountInString(text) <= maxChunkSize {
		return []Chunk{{Text: text, Dialect: d}}
	}

	var chunks []Chunk
	remaining := []rune(text)
	var carried []Tag

	for len(remaining) > maxChunkSize {
		// The reopened prefix of the previous chunk must stay in this one.
		overhead := runeLen(openers(carried))
		limit := max(maxChunkSize-overhead, overhead+1)

		var (
			split int
			part  string
			open  []Tag
		)
		floor := overhead
		for {
			split = findSplitPosition(remaining, limit, floor, d)
			part = string(remaining[:split])
			open = OpenTags(part, d)
			if d == markup.DialectMarkdownV2 && hasCodeTag(open) {
				if moved := clearOfBackticks(remaining, split, floor); moved != split {
					split = moved
					part = string(remaining[:split])
					open = OpenTags(part, d)
				}
			}

			// A split that leaves nothing past the reopeners of its own open
			// constructs makes no progress: search again beyond them.
			if reopen := runeLen(openers(open)); len(open) > 0 && split <= reopen && floor < reopen && reopen < limit {
				floor = reopen
				continue
			}

			excess := split + runeLen(closers(open)) - maxChunkSize
			if excess <= 0 || limit <= floor+1 {
				break
			}
			limit = max(limit-excess, floor+1)
		}

		chunks = append(chunks, Chunk{Text: part + closers(open), Dialect: d})

		next := remaining[split:]
		carried = nil
		if len(open) > 0 {
			reopened := append([]rune(openers(open)), next...)
			// Reopening must not undo the progress made by this split.
			if len(reopened) < len(remaining) {
				next = reopened
				carried = open
			}
		}
		remaining = next
	}

	if len(remaining) > 0 {
		chunks = append(chunks, Chunk{Text: string(remaining), Dialect: d})
	}

	return chunks
}

// findSplitPosition returns the number of code points of text that go into
// the next chunk. The result is in (minSplit, limit] whenever text is
// longer than limit. Under MarkdownV2 a split never lands inside a link
// when the link can be moved whole to the next chunk.
func findSplitPosition(text []rune, limit, minSplit int, d markup.Dialect) int {
	if len(text) <= limit {
		return len(text)
	}

	var links [][2]int
	if d == markup.DialectMarkdownV2 {
		links = linkRanges(text[:limit])
	}

	start := max(limit-splitLookback, minSplit)
	if start < limit {
		if pos := lastSplitAfter(text, start, limit, '\n', links); pos >= 0 {
			return pos
		}
		if pos := lastSplitAfter(text, start, limit, ' ', links); pos >= 0 {
			return pos
		}
	}

	cut := safeCut(text, limit, d)
	if open := linkStart(links, cut); open >= 0 {
		cut = open
	}
	if cut > minSplit {
		return cut
	}
	return limit
}

// lastSplitAfter returns the position just after the last r in
// text[start:limit] that is not inside a link, or -1.
func lastSplitAfter(text []rune, start, limit int, r rune, links [][2]int) int {
	for i := limit - 1; i >= start; i-- {
		if text[i] == r && linkStart(links, i+1) < 0 {
			return i + 1
		}
	}
	return -1
}

// linkStart returns the offset of the '[' of the link that a split at pos
// would cut through, or -1.
func linkStart(links [][2]int, pos int) int {
	for _, l := range links {
		if l[0] < pos && pos < l[1] {
			return l[0]
		}
	}
	return -1
}

// clearOfBackticks moves split back until neither side of it is a backtick,
// so a code delimiter added at the split cannot merge with a backtick run of
// the text, and until it is outside any link. It returns split unchanged when no such position exists above
// floor.
func clearOfBackticks(text []rune, split, floor int) int {
	links := linkRanges(text[:split])
	pos := split
	for pos > floor {
		if text[pos-1] == '`' || text[pos] == '`' {
			pos--
			continue
		}
		if open := linkStart(links, pos); open >= 0 {
			pos = open
			continue
		}
		if c := safeCut(text, pos, markup.DialectMarkdownV2); c != pos {
			pos = c
			continue
		}
		return pos
	}
	return split
}

func hasCodeTag(tags []Tag) bool {
	for _, t := range tags {
		if t.Name == markup.DelimCode || t.Name == markup.DelimPre {
			return true
		}
	}
	return false
}

// safeCut moves a hard cut back so it does not split a backtick run or
// leave a dangling escape backslash (MarkdownV2), or split an entity or tag
// (HTML).
func safeCut(text []rune, cut int, d markup.Dialect) int {
	switch d {
	case markup.DialectMarkdownV2:
		for cut > 0 && cut < len(text) && text[cut-1] == '`' && text[cut] == '`' {
			cut--
		}
		n := 0
		for j := cut - 1; j >= 0 && text[j] == '\\'; j-- {
			n++
		}
		if n%2 == 1 {
			return cut - 1
		}
	case markup.DialectHTML:
		for j := cut - 1; j >= 0 && cut-j <= htmlLookback; j-- {
			switch text[j] {
			case ';', '>':
				return cut
			case '&', '<':
				return j
			}
		}
	}
	return cut
}

func lastIndexRune(s []rune, r rune) int {
	for i := len(s) - 1; i >= 0; i-- {
		if s[i] == r {
			return i
		}
	}
	return -1
}
