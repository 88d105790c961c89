package merger

import (
	"fmt"
	"strings"

	"github.com/sa6mwa/funidl/internal/app/ports"
)

var languageNames = map[string]string{
	"eng": "English",
	"en":  "English",
	"spa": "Spanish",
	"es":  "Spanish",
	"por": "Portuguese",
	"pt":  "Portuguese",
	"jpn": "Japanese",
	"ja":  "Japanese",
	"chi": "Chinese",
	"zh":  "Chinese",
}

// LanguageName returns the track name of a language code, the code
// itself when it is unknown.
func LanguageName(code string) string {
	if n, ok := languageNames[strings.ToLower(code)]; ok {
		return n
	}
	return code
}

// MKVMergeArgs returns the mkvmerge arguments muxing r, excluding the
// binary.
func MKVMergeArgs(r *ports.MergeRequest) []string {
	args := []string{
		"-o", r.Output,
		"--no-date",
		"--disable-track-statistics-tags",
		"--engage", "no_variable_data",
	}
	hasVideo := false
	for _, v := range r.OnlyVideo {
		if hasVideo {
			break
		}
		args = append(args,
			"--video-tracks", "0",
			"--no-audio",
			"--track-name", "0:"+LanguageName(v.LanguageCode),
			"--language", "0:"+v.LanguageCode,
			v.FilePath,
		)
		hasVideo = true
	}
	for _, v := range r.VideoAndAudio {
		name := LanguageName(v.LanguageCode)
		if !hasVideo {
			args = append(args,
				"--video-tracks", "0",
				"--audio-tracks", "1",
				"--track-name", "0:"+name,
				"--track-name", "1:"+name,
				"--language", "1:"+v.LanguageCode,
			)
			hasVideo = true
		} else {
			args = append(args,
				"--no-video",
				"--audio-tracks", "1",
				"--track-name", "1:"+name,
				"--language", "1:"+v.LanguageCode,
			)
		}
		args = append(args, v.FilePath)
	}
	for _, a := range r.OnlyAudio {
		args = append(args,
			"--track-name", "0:"+LanguageName(a.LanguageCode),
			"--language", "0:"+a.LanguageCode,
			"--no-video",
			"--audio-tracks", "0",
			a.FilePath,
		)
	}
	if len(r.Subtitles) == 0 {
		return append(args, "--default-track", "0:no")
	}
	for _, s := range r.Subtitles {
		args = append(args,
			"--track-name", "0:"+s.Track.DisplayLanguageName,
			"--language", "0:"+s.Track.LanguageCode,
			s.Path,
		)
	}
	return args
}

// FFmpegArgs returns the ffmpeg arguments muxing r, excluding the
// binary.
func FFmpegArgs(r *ports.MergeRequest) []string {
	var inputs, meta []string
	index, audioIndex := 0, 0
	hasVideo := false
	for _, v := range r.VideoAndAudio {
		inputs = append(inputs, "-i", v.FilePath)
		if !hasVideo {
			meta = append(meta, "-map", fmt.Sprintf("%d:a", index), "-map", fmt.Sprintf("%d:v", index))
			hasVideo = true
		} else {
			meta = append(meta, "-map", fmt.Sprintf("%d:a", index))
		}
		meta = append(meta, fmt.Sprintf("-metadata:s:a:%d", audioIndex), "language="+v.LanguageCode)
		audioIndex++
		index++
	}
	for _, v := range r.OnlyVideo {
		if hasVideo {
			break
		}
		inputs = append(inputs, "-i", v.FilePath)
		meta = append(meta, "-map", fmt.Sprintf("%d:v", index))
		hasVideo = true
		index++
	}
	for _, a := range r.OnlyAudio {
		inputs = append(inputs, "-i", a.FilePath)
		meta = append(meta, "-map", fmt.Sprintf("%d:a", index), fmt.Sprintf("-metadata:s:a:%d", audioIndex), "language="+a.LanguageCode)
		audioIndex++
		index++
	}
	for _, s := range r.Subtitles {
		inputs = append(inputs, "-i", s.Path)
	}

	args := append([]string{"-y"}, inputs...)
	args = append(args, meta...)
	for i := range r.Subtitles {
		args = append(args, "-map", fmt.Sprintf("%d", index+i))
	}
	args = append(args, "-c:v", "copy", "-c:a", "copy")
	if r.MP4 {
		args = append(args, "-c:s", "mov_text")
	} else {
		args = append(args, "-c:s", "ass")
	}
	for i, s := range r.Subtitles {
		args = append(args,
			fmt.Sprintf("-metadata:s:s:%d", i), "title="+s.Track.DisplayLanguageName,
			fmt.Sprintf("-metadata:s:s:%d", i), "language="+s.Track.LanguageCode,
		)
	}
	return append(args, r.Output)
}
