// merger multiplexes downloaded video, audio and subtitle files into
// one matroska or mp4 file using mkvmerge or ffmpeg. Implements the
// ports.ForMerging interface.
package merger

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/alessio/shellescape"
	"github.com/alfg/mp4"
	"github.com/gabriel-vasile/mimetype"
	"github.com/sa6mwa/funidl/internal/app/humanreadable"
	"github.com/sa6mwa/funidl/internal/app/model"
	"github.com/sa6mwa/funidl/internal/app/ports"
	"github.com/sa6mwa/funidl/internal/infra/adapters/logger"
)

const shell = "/bin/sh"
const shellCommandOption = "-c"

type forMerging struct {
	bin model.BinConfig
}

// merger.New returns a merger using the binaries in bin. Empty paths
// mean the tool is not installed.
func New(bin model.BinConfig) ports.ForMerging {
	return &forMerging{bin: bin}
}

func (m *forMerging) Merge(ctx context.Context, r *ports.MergeRequest) (string, error) {
	l := logger.FromContext(ctx)
	if !r.MP4 && m.bin.MKVMerge == "" {
		l.Warn("MKVMerge not found")
	}
	if (m.bin.MKVMerge == "" && m.bin.FFmpeg == "") || (r.MP4 && m.bin.FFmpeg == "") {
		l.Warn("FFmpeg not found")
	}

	var tool, command string
	switch {
	case !r.MP4 && m.bin.MKVMerge != "":
		tool = "mkvmerge"
		command = shellescape.QuoteCommand(append([]string{m.bin.MKVMerge}, MKVMergeArgs(r)...))
	case m.bin.FFmpeg != "":
		tool = "ffmpeg"
		command = shellescape.QuoteCommand(append([]string{m.bin.FFmpeg, "-hide_banner", "-loglevel", "error"}, FFmpegArgs(r)...))
	default:
		return "", ports.ErrNoMerger
	}

	l.Info("Executing merger", "tool", tool, "command", command)
	cmd := exec.CommandContext(ctx, shell, shellCommandOption, command)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		var exitErr *exec.ExitError
		// mkvmerge exits with 1 when it only emitted warnings.
		if !(tool == "mkvmerge" && errors.As(err, &exitErr) && exitErr.ExitCode() == 1) {
			return tool, fmt.Errorf("unable to mux %q using %s: %w", r.Output, tool, err)
		}
		l.Warn("mkvmerge finished with warnings", "file", r.Output)
	}

	contentType, err := GetFileContentType(r.Output)
	if err != nil {
		return tool, fmt.Errorf("merger did not produce %q: %w", r.Output, err)
	}
	fi, err := os.Stat(r.Output)
	if err != nil {
		return tool, err
	}
	args := []any{"file", r.Output, "contentType", contentType, "size", humanreadable.IEC(fi.Size())}
	if strings.HasPrefix(contentType, "video/mp4") {
		if _, duration, err := Mp4Duration(r.Output); err == nil {
			args = append(args, "duration", duration)
		} else {
			l.Debug("Unable to read mp4 duration", "file", r.Output, "error", err)
		}
	}
	l.Info("Merged", args...)
	return tool, nil
}

// GetFileContentType returns the sniffed mime type of filename.
func GetFileContentType(filename string) (contentType string, err error) {
	mimetype.SetLimit(1024 * 1024)
	mimeType, err := mimetype.DetectFile(filename)
	if err != nil {
		return "", err
	}
	return mimeType.String(), nil
}

// Mp4Duration returns the size and duration of an mp4 file.
func Mp4Duration(filename string) (int64, time.Duration, error) {
	f, err := os.Open(filename)
	if err != nil {
		return 0, 0, err
	}
	defer f.Close()
	info, err := f.Stat()
	if err != nil {
		return 0, 0, err
	}
	m, err := mp4.OpenFromReader(f, info.Size())
	if err != nil {
		return 0, 0, err
	}
	if m != nil && m.Moov != nil && m.Moov.Mvhd != nil {
		return info.Size(), time.Duration(m.Moov.Mvhd.Duration) * time.Millisecond, nil
	}
	return 0, 0, fmt.Errorf("%s does not contain a Moov Mvhd box (maybe not an mp4?)", filename)
}
