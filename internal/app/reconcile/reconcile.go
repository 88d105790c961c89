// Package reconcile picks the experiences of an episode to download,
// one per requested dub, and merges their subtitle tracks.
package reconcile

import (
	"context"
	"errors"
	"path"
	"strings"

	"github.com/sa6mwa/funidl/internal/app/model"
	"github.com/sa6mwa/funidl/internal/infra/adapters/logger"
)

var ErrTrackNotSelected = errors.New("track not selected")

type Request struct {
	Dubs       []model.Dub
	SubLangs   []model.Dub
	NoSubs     bool
	ForceSimul bool
}

type Result struct {
	Selections []model.StreamSelection
	// Subtitles holds at most one track per language code, the first
	// one offered wins.
	Subtitles []model.SubtitleTrack
}

// Reconcile returns one selection per accepted experience. It returns
// ErrTrackNotSelected when nothing was accepted.
func Reconcile(ctx context.Context, experiences []model.Experience, req Request) (*Result, error) {
	l := logger.FromContext(ctx)

	eligible := make([]model.Experience, 0, len(experiences))
	for _, e := range experiences {
		if e.Eligible() && e.DubLanguage != "" {
			eligible = append(eligible, e)
		}
	}

	uncut := make(map[string]bool)
	for _, e := range eligible {
		if e.Version() == model.VersionUncut {
			uncut[e.DubLanguage] = true
		}
	}

	result := &Result{}
	var subtitles []model.SubtitleTrack
	for _, e := range eligible {
		if !accept(e, uncut[e.DubLanguage], req.ForceSimul) {
			l.Info("Available stream", "id", e.ID, "language", e.DubLanguage, "version", e.VersionLabel)
			continue
		}
		selected := false
		var tracks []model.SubtitleTrack
		for _, dub := range req.Dubs {
			if dub.DisplayName() != e.DubLanguage {
				continue
			}
			result.Selections = append(result.Selections, model.StreamSelection{
				ExperienceID:       e.ID,
				Dub:                dub,
				OutputLanguageCode: dub.LanguageCode(),
			})
			selected = true
			if req.NoSubs {
				continue
			}
			tracks = LimitSubtitles(e.Children, req.SubLangs)
			if len(tracks) == 0 {
				l.Warn("Unable to find subtitles for stream", "id", e.ID, "language", e.DubLanguage)
				continue
			}
			subtitles = append(subtitles, tracks...)
		}
		if !selected {
			l.Info("Available stream", "id", e.ID, "language", e.DubLanguage, "version", e.VersionLabel)
			continue
		}
		args := []any{"id", e.ID, "language", e.DubLanguage, "version", e.VersionLabel, "selected", true}
		if len(tracks) > 0 {
			names := make([]string, 0, len(tracks))
			for _, t := range tracks {
				names = append(names, t.DisplayLanguageName)
			}
			args = append(args, "subtitles", strings.Join(names, ", "))
		}
		l.Info("Available stream", args...)
	}

	result.Subtitles = Dedupe(subtitles)
	if len(result.Selections) == 0 {
		return nil, ErrTrackNotSelected
	}
	return result, nil
}

// accept is the version policy. Uncut is taken when it exists for the
// language and simulcast is not forced, simulcast when forced, and
// anything when the language has no uncut variant.
func accept(e model.Experience, uncutAvailable, forceSimul bool) bool {
	v := e.Version()
	return (!forceSimul && uncutAvailable && v == model.VersionUncut) ||
		(!uncutAvailable || (forceSimul && v == model.VersionSimulcast))
}

// LimitSubtitles returns the WebVTT children in one of the requested
// languages. When none of them is offered English is used instead.
func LimitSubtitles(children []model.MediaChild, langs []model.Dub) []model.SubtitleTrack {
	available := false
	for _, c := range children {
		for _, lang := range langs {
			if isVTT(c) && lang.IsSubtitleLanguage() && c.Language == lang.DisplayName() {
				available = true
			}
		}
	}
	if !available {
		langs = []model.Dub{model.DubEnUS}
	}
	var found []model.SubtitleTrack
	for _, c := range children {
		if !isVTT(c) {
			continue
		}
		for _, lang := range langs {
			if !lang.IsSubtitleLanguage() || c.Language != lang.DisplayName() {
				continue
			}
			code := c.LanguageCode
			if code == "" {
				code = strings.ToLower(string(lang)[:2])
			}
			found = append(found, model.SubtitleTrack{
				SourcePath:          c.FilePath,
				Extension:           "." + string(lang),
				DisplayLanguageName: lang.DisplayName(),
				LanguageCode:        code,
			})
		}
	}
	return found
}

func isVTT(c model.MediaChild) bool {
	return strings.TrimPrefix(path.Ext(c.FilePath), ".") == "vtt"
}

// Dedupe keeps the first track of every language code.
func Dedupe(tracks []model.SubtitleTrack) []model.SubtitleTrack {
	seen := make(map[string]bool, len(tracks))
	out := make([]model.SubtitleTrack, 0, len(tracks))
	for _, t := range tracks {
		if seen[t.LanguageCode] {
			continue
		}
		seen[t.LanguageCode] = true
		out = append(out, t)
	}
	return out
}
