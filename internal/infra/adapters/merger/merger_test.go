package merger

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/sa6mwa/funidl/internal/app/model"
	"github.com/sa6mwa/funidl/internal/app/ports"
	"github.com/sa6mwa/funidl/internal/infra/adapters/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func request(output string, mp4 bool) *ports.MergeRequest {
	return &ports.MergeRequest{
		OnlyVideo: []model.DownloadArtifact{{FilePath: "ep.video.ts", LanguageCode: "eng", Kind: model.KindVideo}},
		OnlyAudio: []model.DownloadArtifact{{FilePath: "ep.audio.ts", LanguageCode: "jpn", Kind: model.KindAudio}},
		Subtitles: []model.SubtitleFile{{
			Track: model.SubtitleTrack{LanguageCode: "en", DisplayLanguageName: "English"},
			Path:  "ep.subtitle.enUS.ass",
		}},
		Output: output,
		MP4:    mp4,
	}
}

func TestMKVMergeArgs(t *testing.T) {
	args := MKVMergeArgs(request("ep.mkv", false))
	assert.Equal(t, []string{
		"-o", "ep.mkv",
		"--no-date", "--disable-track-statistics-tags", "--engage", "no_variable_data",
		"--video-tracks", "0", "--no-audio", "--track-name", "0:English", "--language", "0:eng", "ep.video.ts",
		"--track-name", "0:Japanese", "--language", "0:jpn", "--no-video", "--audio-tracks", "0", "ep.audio.ts",
		"--track-name", "0:English", "--language", "0:en", "ep.subtitle.enUS.ass",
	}, args)

	r := request("ep.mkv", false)
	r.Subtitles = nil
	args = MKVMergeArgs(r)
	assert.Equal(t, []string{"--default-track", "0:no"}, args[len(args)-2:])
}

func TestMKVMergeArgsCombined(t *testing.T) {
	r := &ports.MergeRequest{
		VideoAndAudio: []model.DownloadArtifact{
			{FilePath: "a.ts", LanguageCode: "eng", Kind: model.KindCombined},
			{FilePath: "b.ts", LanguageCode: "jpn", Kind: model.KindCombined},
		},
		Output: "out.mkv",
	}
	prefix := []string{"-o", "out.mkv", "--no-date", "--disable-track-statistics-tags", "--engage", "no_variable_data"}
	args := MKVMergeArgs(r)
	require.GreaterOrEqual(t, len(args), len(prefix))
	assert.Equal(t, prefix, args[:len(prefix)])
	assert.Equal(t, []string{
		"--video-tracks", "0", "--audio-tracks", "1", "--track-name", "0:English", "--track-name", "1:English", "--language", "1:eng", "a.ts",
		"--no-video", "--audio-tracks", "1", "--track-name", "1:Japanese", "--language", "1:jpn", "b.ts",
		"--default-track", "0:no",
	}, args[len(prefix):])
}

func TestFFmpegArgs(t *testing.T) {
	args := FFmpegArgs(request("ep.mp4", true))
	assert.Equal(t, []string{
		"-y",
		"-i", "ep.video.ts", "-i", "ep.audio.ts", "-i", "ep.subtitle.enUS.ass",
		"-map", "0:v",
		"-map", "1:a", "-metadata:s:a:0", "language=jpn",
		"-map", "2",
		"-c:v", "copy", "-c:a", "copy", "-c:s", "mov_text",
		"-metadata:s:s:0", "title=English", "-metadata:s:s:0", "language=en",
		"ep.mp4",
	}, args)

	args = FFmpegArgs(request("ep.mkv", false))
	assert.Contains(t, args, "ass")
	assert.NotContains(t, args, "mov_text")
}

func TestLanguageName(t *testing.T) {
	assert.Equal(t, "Japanese", LanguageName("JPN"))
	assert.Equal(t, "kor", LanguageName("kor"))
}

func writeTool(t *testing.T, dir, name, script string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(p, []byte("#!/bin/sh\n"+script), 0o755))
	return p
}

func TestMerge(t *testing.T) {
	if _, err := os.Stat(shell); err != nil {
		t.Skip("no " + shell)
	}
	ctx := logger.WithLogger(context.Background(), logger.Discard())
	dir := t.TempDir()
	// mkvmerge signals warnings with exit status 1.
	mkvmerge := writeTool(t, dir, "mkvmerge", "printf 'muxed' > \"$2\"\nexit 1\n")
	ffmpeg := writeTool(t, dir, "ffmpeg", "for a; do last=$a; done\nprintf 'muxed' > \"$last\"\n")

	t.Run("mkvmerge", func(t *testing.T) {
		out := filepath.Join(dir, "ep one.mkv")
		tool, err := New(model.BinConfig{FFmpeg: ffmpeg, MKVMerge: mkvmerge}).Merge(ctx, request(out, false))
		require.NoError(t, err)
		assert.Equal(t, "mkvmerge", tool)
		assert.FileExists(t, out)
	})

	t.Run("ffmpeg for mp4", func(t *testing.T) {
		out := filepath.Join(dir, "ep one.mp4")
		tool, err := New(model.BinConfig{FFmpeg: ffmpeg, MKVMerge: mkvmerge}).Merge(ctx, request(out, true))
		require.NoError(t, err)
		assert.Equal(t, "ffmpeg", tool)
		assert.FileExists(t, out)
	})

	t.Run("ffmpeg fallback", func(t *testing.T) {
		out := filepath.Join(dir, "fallback.mkv")
		tool, err := New(model.BinConfig{FFmpeg: ffmpeg}).Merge(ctx, request(out, false))
		require.NoError(t, err)
		assert.Equal(t, "ffmpeg", tool)
	})

	t.Run("failing tool", func(t *testing.T) {
		broken := writeTool(t, dir, "broken", "exit 2\n")
		_, err := New(model.BinConfig{FFmpeg: broken}).Merge(ctx, request(filepath.Join(dir, "x.mkv"), false))
		assert.Error(t, err)
	})

	t.Run("no merger", func(t *testing.T) {
		_, err := New(model.BinConfig{MKVMerge: mkvmerge}).Merge(ctx, request(filepath.Join(dir, "x.mp4"), true))
		assert.ErrorIs(t, err, ports.ErrNoMerger)
		_, err = New(model.BinConfig{}).Merge(ctx, request(filepath.Join(dir, "x.mkv"), false))
		assert.ErrorIs(t, err, ports.ErrNoMerger)
	})
}
