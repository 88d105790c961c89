package model

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

const (
	DefaultPartSize   = 10
	DefaultVideoLayer = 7
	DefaultServer     = 1
	DefaultNumbers    = 2
	DefaultFontSize   = 55
	DefaultTimeout    = 60 * time.Second
	DefaultFileName   = "[Funimation] ${showTitle} - ${episode} [${height}p]"
	MaxVideoLayer     = 10
	MaxServer         = 4
)

// Options is the validated configuration of one download run. It is
// built once at the command line boundary, nothing below the command
// line reads flags or the configuration file.
type Options struct {
	ShowID     int64
	Episodes   string
	All        bool
	AltList    bool
	Dubs       []Dub
	SubLangs   []Dub
	NoSubs     bool
	ForceSimul bool
	Quality    int
	Server     int
	PartSize   int
	Timeout    time.Duration
	NoVideo    bool
	NoAudio    bool
	SkipMux    bool
	MP4        bool
	ASS        bool
	NoCleanup  bool
	Force      bool
	Upload     bool
	FileName   string
	Numbers    int
	FontSize   int
	ContentDir string
}

// Validate checks every field against its allowed range and returns
// all violations joined.
func (o *Options) Validate() error {
	var errs []error
	if o.ShowID < 1 {
		errs = append(errs, errors.New("show id must be above 0"))
	}
	if !o.All && strings.TrimSpace(o.Episodes) == "" {
		errs = append(errs, errors.New("select episodes or use all"))
	}
	if len(o.Dubs) == 0 {
		errs = append(errs, errors.New("at least one dub language is required"))
	}
	for _, d := range o.Dubs {
		if d.DisplayName() == "" {
			errs = append(errs, fmt.Errorf("unsupported dub language %q", d))
		}
	}
	for _, s := range o.SubLangs {
		if !s.IsSubtitleLanguage() {
			errs = append(errs, fmt.Errorf("unsupported subtitle language %q, choose from %s", s, JoinDubs(SubtitleLanguages())))
		}
	}
	if o.Quality < 0 || o.Quality > MaxVideoLayer {
		errs = append(errs, fmt.Errorf("video layer must be between 0 and %d", MaxVideoLayer))
	}
	if o.Server < 1 || o.Server > MaxServer {
		errs = append(errs, fmt.Errorf("server must be between 1 and %d", MaxServer))
	}
	if o.PartSize < 1 {
		errs = append(errs, errors.New("partsize must be at least 1"))
	}
	if o.Timeout <= 0 {
		errs = append(errs, errors.New("timeout must be positive"))
	}
	if o.Numbers < 0 {
		errs = append(errs, errors.New("numbers must not be negative"))
	}
	if strings.TrimSpace(o.FileName) == "" {
		errs = append(errs, errors.New("file name template must not be empty"))
	}
	if strings.TrimSpace(o.ContentDir) == "" {
		errs = append(errs, errors.New("content directory must not be empty"))
	}
	return errors.Join(errs...)
}

// SubtitleFormat is ass unless muxing into mp4 without asking for
// ass, then srt.
func (o *Options) SubtitleFormat() string {
	if o.MP4 && !o.ASS {
		return "srt"
	}
	return "ass"
}

// Container returns the extension of the muxed output.
func (o *Options) Container() string {
	if o.MP4 {
		return "mp4"
	}
	return "mkv"
}
