package markup

import "strings"

// markdownV2SpecialChars lists all characters that must be escaped in Telegram MarkdownV2.
var markdownV2SpecialChars = strings.NewReplacer(
	`_`, `\_`,
	`*`, `\*`,
	`[`, `\[`,
	`]`, `\]`,
	`(`, `\(`,
	`)`, `\)`,
	`~`, `\~`,
	"`", "\\`",
	`>`, `\>`,
	`#`, `\#`,
	`+`, `\+`,
	`-`, `\-`,
	`=`, `\=`,
	`|`, `\|`,
	`{`, `\{`,
	`}`, `\}`,
	`.`, `\.`,
	`!`, `\!`,
)

// htmlSpecialChars is the whole escape set of the fallback dialect.
var htmlSpecialChars = strings.NewReplacer(
	`&`, `&amp;`,
	`<`, `&lt;`,
	`>`, `&gt;`,
)

// EscapeMarkdownV2 escapes all special characters for Telegram MarkdownV2 format.
// Special chars: _ * [ ] ( ) ~ ` > # + - = | { } . !
//
// Escaping is not idempotent: the backslash itself is not reserved, so
// escaping `a\.b` a second time yields `a\\.b`.
func EscapeMarkdownV2(text string) string {
	return markdownV2SpecialChars.Replace(text)
}

// EscapeMinimal escapes &, < and > as HTML entities and nothing else.
// It is the only transformation applied to text sent under DialectHTML.
func EscapeMinimal(text string) string {
	return htmlSpecialChars.Replace(text)
}

// Escape applies the escape rules of dialect d to text.
func Escape(text string, d Dialect) string {
	if d == DialectHTML {
		return EscapeMinimal(text)
	}
	return EscapeMarkdownV2(text)
}
