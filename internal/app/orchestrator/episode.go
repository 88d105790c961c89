package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/renameio/v2"
	"github.com/sa6mwa/funidl/internal/app/filename"
	"github.com/sa6mwa/funidl/internal/app/model"
	"github.com/sa6mwa/funidl/internal/app/playlist"
	"github.com/sa6mwa/funidl/internal/app/ports"
	"github.com/sa6mwa/funidl/internal/app/reconcile"
	"github.com/sa6mwa/funidl/internal/infra/adapters/logger"
)

// artifacts are the files downloaded for one episode.
type artifacts struct {
	onlyVideo []model.DownloadArtifact
	onlyAudio []model.DownloadArtifact
	combined  []model.DownloadArtifact
	subtitles []model.SubtitleFile
}

// hasAudio reports whether audio in lang is already downloaded.
func (a *artifacts) hasAudio(lang string) bool {
	for _, f := range a.combined {
		if f.LanguageCode == lang {
			return true
		}
	}
	for _, f := range a.onlyAudio {
		if f.LanguageCode == lang {
			return true
		}
	}
	return false
}

// paired reports whether there is something to mux.
func (a *artifacts) paired() bool {
	return !((len(a.onlyAudio) < 1 && len(a.combined) < 1) || (len(a.onlyVideo) < 1 && len(a.combined) < 1))
}

func (a *artifacts) files() []string {
	var out []string
	for _, set := range [][]model.DownloadArtifact{a.combined, a.onlyAudio, a.onlyVideo} {
		for _, f := range set {
			out = append(out, f.FilePath)
		}
	}
	for _, s := range a.subtitles {
		out = append(out, s.Path)
	}
	return out
}

type stream struct {
	selection model.StreamSelection
	url       string
}

// ProcessEpisode downloads, converts and muxes one episode.
func (o *Orchestrator) ProcessEpisode(ctx context.Context, ep model.CatalogEpisode) error {
	l := logger.FromContext(ctx)

	detail, err := o.deps.Catalog.Episode(ctx, ep.TitleSlug, ep.EpisodeSlug)
	if err != nil {
		return fmt.Errorf("episode %s/%s: %w", ep.TitleSlug, ep.EpisodeSlug, err)
	}
	l.Info("Episode", "show", detail.ShowTitle, "season", orUnknown(detail.SeasonNumber), "number", orUnknown(detail.Number), "title", detail.Title)

	result, err := reconcile.Reconcile(ctx, detail.Experiences, reconcile.Request{
		Dubs:       o.opts.Dubs,
		SubLangs:   o.opts.SubLangs,
		NoSubs:     o.opts.NoSubs,
		ForceSimul: o.opts.ForceSimul,
	})
	if err != nil {
		return err
	}

	var streams []stream
	for _, sel := range result.Selections {
		sources, err := o.deps.Catalog.StreamSources(ctx, sel.ExperienceID)
		if err != nil {
			return fmt.Errorf("stream %d: %w", sel.ExperienceID, err)
		}
		for _, s := range sources {
			if s.VideoType == "m3u8" {
				streams = append(streams, stream{selection: sel, url: s.Src})
				break
			}
		}
	}
	if len(streams) == 0 {
		return errors.New("no m3u8 stream found")
	}

	return o.downloadStreams(ctx, detail, streams, result.Subtitles)
}

func (o *Orchestrator) downloadStreams(ctx context.Context, detail *model.EpisodeDetail, streams []stream, subtitles []model.SubtitleTrack) error {
	l := logger.FromContext(ctx)
	a := &artifacts{}
	var base string

	for _, st := range streams {
		lang := st.selection.OutputLanguageCode
		sl := l.With("stream", st.selection.ExperienceID, "lang", lang)

		body, err := o.deps.Fetcher.Get(ctx, st.url)
		if err != nil {
			return fmt.Errorf("fetch manifest: %w", err)
		}
		ix, err := playlist.Parse(st.url, body)
		if err != nil {
			return fmt.Errorf("parse manifest: %w", err)
		}
		for _, c := range ix.Conflicts {
			sl.Warn("Conflicting url for server and layer, keeping the first", "server", c.Host, "layer", c.Layer, "kept", c.Kept, "ignored", c.Ignored)
		}
		for _, u := range ix.Unmatched {
			sl.Debug("Unrecognized rendition", "url", u)
		}
		if ix.AudioMissing() {
			sl.Warn("No audio group found in manifest, downloading without separate audio")
		}
		sl.Info("Servers available", "servers", strings.Join(ix.Hosts, ", "))
		sl.Info("Available qualities", "qualities", strings.Join(ix.Qualities, ", "))

		rs, err := ix.Resolve(o.opts.Quality, o.opts.Server)
		if err != nil {
			return err
		}
		sl.Info("Selected layer", "layer", rs.Layer, "resolution", rs.Resolution.String(), "server", rs.Host)
		sl.Debug("Stream url", "url", rs.URL)

		segments, err := filename.Render(o.opts.FileName, filename.Vars{
			Title:     detail.Title,
			Episode:   detail.Label(),
			ShowTitle: detail.ShowTitle,
			Season:    detail.Season(),
			Width:     rs.Resolution.Width,
			Height:    rs.Resolution.Height,
		}, o.opts.Numbers)
		if err != nil {
			return fmt.Errorf("%w: %s: %w", ErrFatal, o.opts.FileName, err)
		}
		first := base == ""
		base = filename.Join(o.opts.ContentDir, segments)
		sl.Info("Output filename", "file", base+".ts")
		if err := os.MkdirAll(filepath.Dir(base), 0o755); err != nil {
			return fmt.Errorf("%w: %w", ErrFatal, err)
		}
		if first && !o.opts.SkipMux {
			output := base + "." + o.opts.Container()
			if _, err := os.Stat(output); err == nil {
				if !o.deps.Asker.Ask(ctx, "%s already exists, overwrite", output) {
					return ErrSkipped
				}
			}
		}

		o.downloadVideo(logger.WithLogger(ctx, sl), a, base, st, rs)

		if !o.opts.NoAudio && rs.Audio != nil && !a.hasAudio(rs.Audio.Language) {
			body, err := o.deps.Fetcher.Get(ctx, rs.Audio.URL)
			if err != nil {
				return fmt.Errorf("fetch audio playlist: %w", err)
			}
			out := fmt.Sprintf("%s.audio.%s.ts", base, rs.Audio.Language)
			if err := o.deps.Segments.Download(ctx, &ports.SegmentDownloadRequest{PlaylistURL: rs.Audio.URL, Playlist: body, Output: out}); err != nil {
				sl.Error("Audio download failed", "file", out, "error", err)
			} else {
				a.onlyAudio = append(a.onlyAudio, model.DownloadArtifact{FilePath: out, LanguageCode: rs.Audio.Language, Kind: model.KindAudio})
			}
		}
	}

	o.downloadSubtitles(ctx, a, base, subtitles)

	if !a.paired() {
		return ErrNoPair
	}
	if o.opts.SkipMux {
		l.Info("Skipping muxing")
		return nil
	}
	if o.opts.NoVideo {
		l.Info("Video not downloaded, muxing without video")
	}

	output := base + "." + o.opts.Container()
	tool, err := o.deps.Merger.Merge(ctx, &ports.MergeRequest{
		OnlyVideo:     a.onlyVideo,
		OnlyAudio:     a.onlyAudio,
		VideoAndAudio: a.combined,
		Subtitles:     a.subtitles,
		Output:        output,
		MP4:           o.opts.MP4,
	})
	if err != nil {
		if errors.Is(err, ports.ErrNoMerger) {
			l.Warn("No merger available, keeping downloaded files")
			l.Info("Done")
			return nil
		}
		return fmt.Errorf("merge: %w", err)
	}
	l.Info("Muxed", "tool", tool, "file", output)

	if !o.opts.NoCleanup {
		for _, f := range a.files() {
			if err := os.Remove(f); err != nil && !errors.Is(err, os.ErrNotExist) {
				l.Warn("Unable to remove file", "file", f, "error", err)
			}
		}
	}

	if o.opts.Upload && o.deps.Uploader != nil {
		if err := o.deps.Uploader.Upload(ctx, &ports.ForUploadingRequest{
			Store:        o.publish.Bucket,
			To:           filepath.Base(output),
			From:         output,
			StorageClass: o.publish.StorageClass,
		}); err != nil {
			return fmt.Errorf("upload: %w", err)
		}
	}
	l.Info("Done")
	return nil
}

func (o *Orchestrator) downloadVideo(ctx context.Context, a *artifacts, base string, st stream, rs *playlist.Selection) {
	l := logger.FromContext(ctx)
	if o.opts.NoVideo {
		l.Info("Skip video downloading")
		return
	}
	lang := st.selection.OutputLanguageCode
	if rs.Audio != nil && (len(a.onlyVideo) > 0 || len(a.combined) > 0) {
		return
	}
	if rs.Audio == nil && a.hasAudio(lang) {
		return
	}
	body, err := o.deps.Fetcher.Get(ctx, rs.URL)
	if err != nil {
		l.Error("Failed to fetch video playlist, skipping video", "error", err)
		return
	}
	out := base + ".video"
	if rs.Audio == nil {
		out += "." + lang
	}
	out += ".ts"
	if err := o.deps.Segments.Download(ctx, &ports.SegmentDownloadRequest{PlaylistURL: rs.URL, Playlist: body, Output: out}); err != nil {
		l.Error("Video download failed", "file", out, "error", err)
		return
	}
	if rs.Audio != nil {
		a.onlyVideo = append(a.onlyVideo, model.DownloadArtifact{FilePath: out, LanguageCode: rs.Audio.Language, Kind: model.KindVideo})
		return
	}
	a.combined = append(a.combined, model.DownloadArtifact{FilePath: out, LanguageCode: lang, Kind: model.KindCombined})
}

// downloadSubtitles converts and writes every track. The first
// failure stops further subtitles, the ones written so far are kept.
func (o *Orchestrator) downloadSubtitles(ctx context.Context, a *artifacts, base string, tracks []model.SubtitleTrack) {
	l := logger.FromContext(ctx)
	if len(tracks) == 0 || base == "" {
		return
	}
	format := o.opts.SubtitleFormat()
	l.Info("Downloading subtitles", "count", len(tracks), "format", format)
	for _, t := range tracks {
		vtt, err := o.deps.Fetcher.Get(ctx, t.SourcePath)
		if err != nil {
			l.Error("Failed to download subtitles", "lang", t.LanguageCode, "error", err)
			return
		}
		data, err := o.deps.Converter.Convert(ctx, &ports.ConvertRequest{
			VTT:      vtt,
			Format:   format,
			Title:    t.DisplayLanguageName,
			FontSize: o.opts.FontSize,
		})
		if err != nil {
			l.Error("Failed to convert subtitles", "lang", t.LanguageCode, "error", err)
			return
		}
		path := fmt.Sprintf("%s.subtitle%s.%s", base, t.Extension, format)
		if err := renameio.WriteFile(path, data, 0o644); err != nil {
			l.Error("Failed to write subtitles", "file", path, "error", err)
			return
		}
		a.subtitles = append(a.subtitles, model.SubtitleFile{Track: t, Path: path})
	}
	l.Info("Subtitles downloaded")
}

func orUnknown(s string) string {
	if s == "" {
		return "?"
	}
	return s
}
