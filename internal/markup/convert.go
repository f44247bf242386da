package markup

import (
	"regexp"
	"strings"
)

// emphasisPass rewrites one delimiter style into a sentinel pair.
type emphasisPass struct {
	pattern *regexp.Regexp
	marker  rune
}

// emphasisPasses run in order. Bold runs before italic so that the inner
// text of **x** is never matched as *x*: the delimiters it consumed are
// gone by the time the italic passes see the text.
var emphasisPasses = []emphasisPass{
	{regexp.MustCompile(`\*\*([^*]+)\*\*`), markBold},
	{regexp.MustCompile(`__([^_]+)__`), markBold},
	{regexp.MustCompile(`\*([^*]+)\*`), markItalic},
	{regexp.MustCompile(`_([^_]+)_`), markItalic},
}

// markerDelimiters turns emphasis sentinels into MarkdownV2 delimiters.
var markerDelimiters = strings.NewReplacer(
	string(markBold), DelimBold,
	string(markItalic), DelimItalic,
)

// Convert maps generic markdown text to dialect d.
//
// For DialectMarkdownV2 it converts **bold** and __bold__ to *bold*,
// *italic* and _italic_ to _italic_, keeps code blocks, inline code and
// [label](url) links verbatim, and escapes every other reserved character.
// For DialectHTML it only escapes &, < and >.
//
// Empty input yields empty output.
func Convert(text string, d Dialect) string {
	if text == "" {
		return text
	}
	if d == DialectHTML {
		return EscapeMinimal(text)
	}

	var p protector
	result := p.protectAll(text)

	for _, pass := range emphasisPasses {
		m := string(pass.marker)
		result = pass.pattern.ReplaceAllString(result, m+"${1}"+m)
	}

	result = EscapeMarkdownV2(result)
	result = markerDelimiters.Replace(result)

	return p.restore(result)
}
