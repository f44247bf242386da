package markup

import (
	"regexp"
	"strconv"
	"strings"
)

// Sentinel code points from the Unicode private use area. They never occur
// in text produced by Convert. Input that already contains them is not
// supported: such input may be rewritten unpredictably.
const (
	markSpanOpen  = '\uE000'
	markSpanClose = '\uE001'
	markBold      = '\uE002'
	markItalic    = '\uE003'
)

var (
	codeBlockPattern  = regexp.MustCompile("```([^`]+)```")
	inlineCodePattern = regexp.MustCompile("`([^`]+)`")
	linkPattern       = regexp.MustCompile(`\[([^\]]+)\]\(([^)]+)\)`)
	placeholder       = regexp.MustCompile("\uE000([0-9]+)\uE001")
)

type spanKind int

const (
	spanCodeBlock spanKind = iota
	spanInlineCode
	spanLink
)

// protectedSpan is a piece of input whose literal content must survive
// transformation and escaping untouched.
type protectedSpan struct {
	kind    spanKind
	payload string
	url     string // spanLink only
}

// render writes the span back with the MarkdownV2 delimiters of its kind.
// A link label is written as captured, unescaped: Telegram refuses a label
// holding a reserved character such as '.', '-' or '!', and such a message
// ends up delivered as HTML.
func (s protectedSpan) render() string {
	switch s.kind {
	case spanCodeBlock:
		return DelimPre + s.payload + DelimPre
	case spanInlineCode:
		return DelimCode + s.payload + DelimCode
	case spanLink:
		return "[" + s.payload + "](" + s.url + ")"
	default:
		return s.payload
	}
}

// protector swaps spans out of the text for numbered placeholders and
// swaps them back in after escaping.
type protector struct {
	spans []protectedSpan
}

// protect replaces every match of re with a placeholder. build turns the
// submatches of one match into the span to keep.
func (p *protector) protect(text string, re *regexp.Regexp, build func(sub []string) protectedSpan) string {
	return re.ReplaceAllStringFunc(text, func(match string) string {
		span := build(re.FindStringSubmatch(match))
		p.spans = append(p.spans, span)

		var b strings.Builder
		b.WriteRune(markSpanOpen)
		b.WriteString(strconv.Itoa(len(p.spans) - 1))
		b.WriteRune(markSpanClose)
		return b.String()
	})
}

// protectAll extracts code blocks, then inline code, then links.
func (p *protector) protectAll(text string) string {
	text = p.protect(text, codeBlockPattern, func(sub []string) protectedSpan {
		return protectedSpan{kind: spanCodeBlock, payload: sub[1]}
	})
	text = p.protect(text, inlineCodePattern, func(sub []string) protectedSpan {
		return protectedSpan{kind: spanInlineCode, payload: sub[1]}
	})
	return p.protect(text, linkPattern, func(sub []string) protectedSpan {
		return protectedSpan{kind: spanLink, payload: sub[1], url: sub[2]}
	})
}

// restore replaces placeholders with their rendered spans. A span extracted
// later can hold the placeholder of an earlier one (inline code inside a
// link label), so payloads are restored too, each only against the spans
// extracted before it.
func (p *protector) restore(text string) string {
	return p.restoreBefore(text, len(p.spans))
}

func (p *protector) restoreBefore(text string, limit int) string {
	if limit == 0 {
		return text
	}
	return placeholder.ReplaceAllStringFunc(text, func(match string) string {
		idx, err := strconv.Atoi(placeholder.FindStringSubmatch(match)[1])
		if err != nil || idx < 0 || idx >= limit {
			// Only reachable when the input carried sentinel code points.
			return match
		}
		span := p.spans[idx]
		span.payload = p.restoreBefore(span.payload, idx)
		span.url = p.restoreBefore(span.url, idx)
		return span.render()
	})
}
