// The subconverter adapter implements the ports.ForConverting
// interface by running WebVTT subtitles through ffmpeg.
package subconverter

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"text/template"

	"github.com/alessio/shellescape"
	"github.com/sa6mwa/funidl/internal/app/ports"
	"github.com/sa6mwa/funidl/internal/infra/adapters/logger"
)

var (
	ErrNoTool            = errors.New("ffmpeg not found, unable to convert subtitles")
	ErrUnsupportedFormat = errors.New("unsupported subtitle format")
)

const (
	shell              = "/bin/sh"
	shellCommandOption = "-c"
	playResX           = 1280
	playResY           = 720
)

// subconverter.New returns a converter using the ffmpeg binary at
// tool.
func New(tool string) ports.ForConverting {
	return &forConverting{
		tool: tool,
		funcMap: template.FuncMap{
			"escape": func(s string) string {
				return shellescape.Quote(s)
			},
		},
	}
}

type Variables struct {
	Tool   string
	Input  string
	Output string
	Codec  string
}

type forConverting struct {
	tool    string
	funcMap template.FuncMap
}

func (c *forConverting) Convert(ctx context.Context, r *ports.ConvertRequest) ([]byte, error) {
	l := logger.FromContext(ctx)
	if c.tool == "" {
		return nil, ErrNoTool
	}
	var codec string
	switch r.Format {
	case "ass":
		codec = "ass"
	case "srt":
		codec = "srt"
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, r.Format)
	}

	dir, err := os.MkdirTemp("", "funidl-subs-")
	if err != nil {
		return nil, err
	}
	defer os.RemoveAll(dir)

	vars := Variables{
		Tool:   c.tool,
		Input:  filepath.Join(dir, "input.vtt"),
		Output: filepath.Join(dir, "output."+r.Format),
		Codec:  codec,
	}
	if err := os.WriteFile(vars.Input, r.VTT, 0o600); err != nil {
		return nil, err
	}

	tmpl, err := template.New("Convert").Funcs(c.funcMap).Parse(convertTemplate)
	if err != nil {
		return nil, err
	}
	buf := &bytes.Buffer{}
	if err := tmpl.Execute(buf, vars); err != nil {
		return nil, err
	}
	l.Debug("Converting subtitles", "format", r.Format, "command", buf.String())
	stderr := &bytes.Buffer{}
	cmd := exec.CommandContext(ctx, shell, shellCommandOption, buf.String())
	cmd.Stderr = stderr
	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("unable to convert subtitles using external tool (%s): %w: %s", c.tool, err, strings.TrimSpace(stderr.String()))
	}
	out, err := os.ReadFile(vars.Output)
	if err != nil {
		return nil, err
	}
	if r.Format == "ass" {
		return AdjustASS(out, r.Title, r.FontSize), nil
	}
	return out, nil
}

// AdjustASS sets the script title, the play resolution and the font
// size of every style of an ASS script. A fontSize below 1 keeps the
// sizes as they are.
func AdjustASS(script []byte, title string, fontSize int) []byte {
	var out bytes.Buffer
	section := ""
	sizeField := -1
	titleWritten := false
	sc := bufio.NewScanner(bytes.NewReader(script))
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		line := strings.TrimRight(sc.Text(), "\r")
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "[") && strings.HasSuffix(trimmed, "]") {
			section = strings.ToLower(trimmed)
			out.WriteString(line + "\n")
			if section == "[script info]" && title != "" && !titleWritten {
				out.WriteString("Title: " + title + "\n")
				titleWritten = true
			}
			continue
		}
		switch section {
		case "[script info]":
			switch {
			case strings.HasPrefix(trimmed, "Title:") && titleWritten:
				continue
			case strings.HasPrefix(trimmed, "PlayResX:"):
				line = "PlayResX: " + strconv.Itoa(playResX)
			case strings.HasPrefix(trimmed, "PlayResY:"):
				line = "PlayResY: " + strconv.Itoa(playResY)
			}
		case "[v4+ styles]", "[v4 styles]":
			switch {
			case strings.HasPrefix(trimmed, "Format:"):
				sizeField = -1
				for i, f := range strings.Split(strings.TrimPrefix(trimmed, "Format:"), ",") {
					if strings.EqualFold(strings.TrimSpace(f), "Fontsize") {
						sizeField = i
					}
				}
			case strings.HasPrefix(trimmed, "Style:") && fontSize > 0 && sizeField >= 0:
				fields := strings.Split(strings.TrimSpace(strings.TrimPrefix(trimmed, "Style:")), ",")
				if sizeField < len(fields) {
					fields[sizeField] = strconv.Itoa(fontSize)
					line = "Style: " + strings.Join(fields, ",")
				}
			}
		}
		out.WriteString(line + "\n")
	}
	return out.Bytes()
}
