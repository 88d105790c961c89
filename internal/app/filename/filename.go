// Package filename renders output names from a template with ${name}
// placeholders and makes every path segment safe for the filesystem.
package filename

import (
	"errors"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/text/unicode/norm"
)

var ErrEmptyPath = errors.New("template produced an empty path")

var (
	placeholderRe = regexp.MustCompile(`\$\{[A-Za-z1-9]+\}`)
	illegalRe     = regexp.MustCompile(`[/?<>\\:*|"]`)
	controlRe     = regexp.MustCompile(`[\x00-\x1f\x80-\x9f]`)
	reservedRe    = regexp.MustCompile(`^\.+$`)
	windowsRe     = regexp.MustCompile(`(?i)^(con|prn|aux|nul|com[0-9]|lpt[0-9])(\..*)?$`)
	trailingRe    = regexp.MustCompile(`[. ]+$`)
)

// Vars are the values substituted into a template. Episode is
// zero-padded when it is numeric.
type Vars struct {
	Title     string
	Episode   string
	ShowTitle string
	Season    int
	Width     int
	Height    int
}

// Render substitutes vars into template, pads episode and season to
// numbers digits and returns the sanitized path segments. Unknown
// placeholders are left as they are.
func Render(template string, vars Vars, numbers int) ([]string, error) {
	out := placeholderRe.ReplaceAllStringFunc(template, func(p string) string {
		switch strings.ToLower(p[2 : len(p)-1]) {
		case "title":
			return vars.Title
		case "episode":
			if n, err := strconv.Atoi(strings.TrimSpace(vars.Episode)); err == nil {
				return pad(n, numbers)
			}
			return vars.Episode
		case "showtitle":
			return vars.ShowTitle
		case "season":
			return pad(vars.Season, numbers)
		case "width":
			return strconv.Itoa(vars.Width)
		case "height":
			return strconv.Itoa(vars.Height)
		}
		return p
	})
	var segments []string
	for _, s := range strings.Split(filepath.ToSlash(out), "/") {
		if strings.TrimSpace(s) == "" {
			continue
		}
		segments = append(segments, Sanitize(s))
	}
	if len(segments) == 0 {
		return nil, ErrEmptyPath
	}
	return segments, nil
}

// Sanitize replaces characters and names that are not allowed in a
// file name on common filesystems with underscores.
func Sanitize(segment string) string {
	s := illegalRe.ReplaceAllString(segment, "_")
	s = controlRe.ReplaceAllString(s, "_")
	s = reservedRe.ReplaceAllString(s, "_")
	s = windowsRe.ReplaceAllString(s, "_")
	s = trailingRe.ReplaceAllStringFunc(s, func(t string) string {
		return strings.Repeat("_", len(t))
	})
	return norm.NFC.String(s)
}

// Join returns the segments joined below dir, the base name without
// extension being the last segment.
func Join(dir string, segments []string) string {
	return filepath.Join(append([]string{dir}, segments...)...)
}

func pad(n, width int) string {
	s := strconv.Itoa(n)
	if len(s) < width {
		return strings.Repeat("0", width-len(s)) + s
	}
	return s
}
