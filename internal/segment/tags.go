package segment

import (
	"strings"

	"golang.org/x/text/width"
)

// TagUnregistered is the tag of text that matches no keyword.
const TagUnregistered = "unregistered"

// tagRule maps any of its keywords to a strategy tag.
type tagRule struct {
	tag      string
	keywords []string
}

// tagRules is checked in order; the first rule with a matching keyword wins,
// so "trend pullback" is a Pullback.
var tagRules = []tagRule{
	{tag: "Breakout", keywords: []string{"breakout", "break out", "ブレイク"}},
	{tag: "Pullback", keywords: []string{"pullback", "pull back", "押し目", "戻り売り"}},
	{tag: "Reversal", keywords: []string{"reversal", "counter", "逆張り", "反転"}},
	{tag: "Trend", keywords: []string{"trend", "順張り", "トレンド"}},
	{tag: "Range", keywords: []string{"range", "レンジ"}},
	{tag: "Scalp", keywords: []string{"scalp", "スキャル"}},
	{tag: "News", keywords: []string{"news", "指標", "ニュース"}},
	{tag: "Swing", keywords: []string{"swing", "スイング"}},
}

// Tags lists every tag ExtractTag can return, in enumeration order.
func Tags() []string {
	tags := make([]string, 0, len(tagRules)+1)
	for _, r := range tagRules {
		tags = append(tags, r.tag)
	}
	return append(tags, TagUnregistered)
}

// ExtractTag maps free text to a strategy tag by case-insensitive keyword
// match. Unmatched or empty text yields TagUnregistered.
func ExtractTag(text string) string {
	s := strings.ToLower(width.Fold.String(text))
	if strings.TrimSpace(s) == "" {
		return TagUnregistered
	}
	for _, r := range tagRules {
		for _, kw := range r.keywords {
			if strings.Contains(s, kw) {
				return r.tag
			}
		}
	}
	return TagUnregistered
}

// tagOrder returns the enumeration position of tag.
func tagOrder(tag string) int {
	for i, r := range tagRules {
		if r.tag == tag {
			return i
		}
	}
	return len(tagRules)
}
