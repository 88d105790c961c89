package model

import (
	"fmt"
	"strconv"
	"strings"
)

// EpisodeKey is the sortable identity of an episode, an optional
// alphabetic type prefix (for example "S" for specials or "OVA") and
// a numeric part. Keys that could not be parsed carry the overflow
// prefix and number and sort after every parsed key.
type EpisodeKey struct {
	Prefix string
	Number int
	Parsed bool
}

// String returns the unpadded form, for example "S2" or "12".
func (k EpisodeKey) String() string {
	return k.Prefix + strconv.Itoa(k.Number)
}

// Less orders keys by parse state, prefix and number.
func (k EpisodeKey) Less(o EpisodeKey) bool {
	if k.Parsed != o.Parsed {
		return k.Parsed
	}
	if c := strings.Compare(k.Prefix, o.Prefix); c != 0 {
		return c < 0
	}
	return k.Number < o.Number
}

// CatalogEpisode is one entry of a show's episode listing.
type CatalogEpisode struct {
	RawID          string
	Key            EpisodeKey
	SeasonOrder    int
	TitleSlug      string
	EpisodeSlug    string
	SeasonNumber   string
	EpisodeNumber  string
	EpisodeID      string
	DisplayTitle   string
	EpisodeName    string
	MediaCategory  string
	Runtime        string
	Quality        string
	QualityHeight  int
	AudioLanguages []string
}

// QualityString returns the listing quality, for example "SD480", or
// UNK when the catalog did not report a height.
func (e CatalogEpisode) QualityString() string {
	if e.QualityHeight == 0 {
		return "UNK"
	}
	return fmt.Sprintf("%s%d", e.Quality, e.QualityHeight)
}

// RuntimeString returns the runtime or ??:?? when unknown.
func (e CatalogEpisode) RuntimeString() string {
	if e.Runtime == "" {
		return "??:??"
	}
	return e.Runtime
}

// Show is a catalog title.
type Show struct {
	ID          int64
	Title       string
	ReleaseYear string
	Date        string
}

// EpisodeDetail is the full record of one episode, including every
// streaming experience offered for it.
type EpisodeDetail struct {
	ID            string
	ShowTitle     string
	Title         string
	SeasonNumber  string
	Number        string
	MediaCategory string
	Experiences   []Experience
}

// Label is the episode number used in file names. Episodes outside the
// regular "Episode" category get the category prepended, or the
// category and the id when they carry no number.
func (d EpisodeDetail) Label() string {
	if d.MediaCategory == "" || strings.EqualFold(d.MediaCategory, "Episode") {
		return d.Number
	}
	if d.Number != "" {
		return d.MediaCategory + d.Number
	}
	return d.MediaCategory + "#" + d.ID
}

// Season returns the season number, 0 when it is not numeric.
func (d EpisodeDetail) Season() int {
	n, err := strconv.Atoi(strings.TrimSpace(d.SeasonNumber))
	if err != nil {
		return 0
	}
	return n
}
