package model

import (
	"fmt"
	"strings"
)

// Dub is a locale tag as accepted on the command line (enUS, esLA,
// ...). The catalog reports languages by display name, DisplayName
// maps one to the other.
type Dub string

const (
	DubEnUS Dub = "enUS"
	DubEsLA Dub = "esLA"
	DubPtBR Dub = "ptBR"
	DubZhMN Dub = "zhMN"
	DubJaJP Dub = "jaJP"
)

// Dubs returns every supported dub language in preference order.
func Dubs() []Dub {
	return []Dub{DubEnUS, DubEsLA, DubPtBR, DubZhMN, DubJaJP}
}

// SubtitleLanguages returns the dub languages subtitles can be
// requested in.
func SubtitleLanguages() []Dub {
	return []Dub{DubEnUS, DubEsLA, DubPtBR}
}

// ParseDub returns the Dub for s or an error if s is not one of the
// supported locale tags.
func ParseDub(s string) (Dub, error) {
	for _, d := range Dubs() {
		if strings.EqualFold(string(d), strings.TrimSpace(s)) {
			return d, nil
		}
	}
	return "", fmt.Errorf("unsupported language %q, choose from %s", s, JoinDubs(Dubs()))
}

// DisplayName is the language name used by the catalog API.
func (d Dub) DisplayName() string {
	switch d {
	case DubEnUS:
		return "English"
	case DubEsLA:
		return "Spanish (Latin Am)"
	case DubPtBR:
		return "Portuguese (Brazil)"
	case DubZhMN:
		return "Chinese (Mandarin, PRC)"
	case DubJaJP:
		return "Japanese"
	}
	return ""
}

// LanguageCode is the ISO 639-2 code written into the output
// container for audio tracks of this dub. Unknown values fall back to
// the first two letters of the tag.
func (d Dub) LanguageCode() string {
	switch d {
	case DubEnUS:
		return "eng"
	case DubEsLA:
		return "spa"
	case DubPtBR:
		return "por"
	case DubZhMN:
		return "chi"
	case DubJaJP:
		return "jpn"
	}
	if len(d) >= 2 {
		return strings.ToLower(string(d[:2]))
	}
	return string(d)
}

// IsSubtitleLanguage reports whether subtitles are offered in d.
func (d Dub) IsSubtitleLanguage() bool {
	for _, s := range SubtitleLanguages() {
		if s == d {
			return true
		}
	}
	return false
}

func (d Dub) String() string {
	return string(d)
}

// JoinDubs joins dubs with a comma and a space.
func JoinDubs(dubs []Dub) string {
	s := make([]string, 0, len(dubs))
	for _, d := range dubs {
		s = append(s, string(d))
	}
	return strings.Join(s, ", ")
}
