package model

import "regexp"

var (
	uncutRe     = regexp.MustCompile(`(?i)uncut`)
	simulcastRe = regexp.MustCompile(`(?i)simulcast`)
)

// NonEncrypted is the experience type of streams that can be
// downloaded.
const NonEncrypted = "Non-Encrypted"

// Version classifies the free-form version label of an experience.
type Version int

const (
	VersionOther Version = iota
	VersionUncut
	VersionSimulcast
)

// ParseVersion classifies label. "Uncut" wins when a label mentions
// both.
func ParseVersion(label string) Version {
	switch {
	case uncutRe.MatchString(label):
		return VersionUncut
	case simulcastRe.MatchString(label):
		return VersionSimulcast
	}
	return VersionOther
}

func (v Version) String() string {
	switch v {
	case VersionUncut:
		return "uncut"
	case VersionSimulcast:
		return "simulcast"
	}
	return "cut"
}

// Experience is one streaming variant of an episode.
type Experience struct {
	ID             int64
	DubLanguage    string
	VersionLabel   string
	ExperienceType string
	Children       []MediaChild
}

// MediaChild is a file attached to an experience, subtitles among
// others.
type MediaChild struct {
	FilePath string
	// Language is the display name, for example "English".
	Language string
	// LanguageCode is the code of the first entry of the child's
	// language list, empty when there is none.
	LanguageCode string
}

// Version returns the classified version label.
func (e Experience) Version() Version {
	return ParseVersion(e.VersionLabel)
}

// Eligible reports whether the experience can be downloaded.
func (e Experience) Eligible() bool {
	return e.ID > 0 && e.ExperienceType == NonEncrypted
}

// SubtitleTrack is a WebVTT subtitle offered by an experience.
// Extension is the tag inserted before the file extension, for
// example ".enUS".
type SubtitleTrack struct {
	SourcePath          string
	Extension           string
	DisplayLanguageName string
	LanguageCode        string
}

// StreamSelection is a reconciled dub, the experience to request a
// stream for and the language code of its audio.
type StreamSelection struct {
	ExperienceID       int64
	Dub                Dub
	OutputLanguageCode string
}

// StreamSource is one item of a signed video response.
type StreamSource struct {
	VideoType string
	Src       string
}
