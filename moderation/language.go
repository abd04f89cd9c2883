package moderation

import "github.com/abadojack/whatlanggo"

// DetectLanguage returns the ISO 639-1 code of content, empty when the guess is unreliable.
func DetectLanguage(content string) string {
	info := whatlanggo.Detect(content)
	if !info.IsReliable() {
		return ""
	}
	return info.Lang.Iso6391()
}
