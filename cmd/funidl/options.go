package main

import (
	"errors"
	"strings"
	"time"

	"github.com/sa6mwa/funidl/internal/app/model"
	"github.com/urfave/cli/v2"
)

func downloadFlags() []cli.Flag {
	return []cli.Flag{
		&cli.Int64Flag{Name: "show", Aliases: []string{"s"}, Usage: "Show id to list and download from"},
		&cli.StringFlag{Name: "episodes", Aliases: []string{"e"}, Usage: "Episodes to download, e.g 1,3-5,S1-S2"},
		&cli.BoolFlag{Name: "all", Usage: "Select every episode of the show"},
		&cli.BoolFlag{Name: "alt", Usage: "Use the alternative (English) episode listing"},
		&cli.StringSliceFlag{Name: "dub", Usage: "Dub languages to download (enUS, esLA, ptBR, zhMN, jaJP)"},
		&cli.BoolFlag{Name: "allDubs", Usage: "Download every dub language"},
		&cli.StringSliceFlag{Name: "subLang", Usage: "Subtitle languages to download (enUS, esLA, ptBR)"},
		&cli.BoolFlag{Name: "allSubs", Usage: "Download every subtitle language"},
		&cli.BoolFlag{Name: "nosubs", Usage: "Do not download subtitles"},
		&cli.BoolFlag{Name: "simul", Usage: "Prefer the simulcast version over the uncut version"},
		&cli.IntFlag{Name: "q", Usage: "Video layer, 0 selects the best available"},
		&cli.IntFlag{Name: "x", Aliases: []string{"server"}, Usage: "Server number, 1 to 4"},
		&cli.IntFlag{Name: "partsize", Usage: "Number of segments downloaded at the same time"},
		&cli.DurationFlag{Name: "timeout", Usage: "Timeout of every http request"},
		&cli.BoolFlag{Name: "novids", Usage: "Skip the video streams"},
		&cli.BoolFlag{Name: "noaudio", Usage: "Skip the separate audio streams"},
		&cli.BoolFlag{Name: "skipmux", Usage: "Keep the downloaded files, do not mux"},
		&cli.BoolFlag{Name: "mp4", Usage: "Mux into mp4 instead of mkv"},
		&cli.BoolFlag{Name: "ass", Usage: "Keep ass subtitles when muxing into mp4"},
		&cli.BoolFlag{Name: "nocleanup", Usage: "Keep intermediate files after muxing"},
		&cli.BoolFlag{Name: "force", Aliases: []string{"f"}, Usage: "Overwrite existing files without asking"},
		&cli.BoolFlag{Name: "upload", Aliases: []string{"u"}, Usage: "Upload the muxed file to the output bucket in the configuration file"},
		&cli.StringFlag{Name: "fileName", Usage: "Output file name template, ${showTitle} ${title} ${episode} ${season} ${width} ${height}"},
		&cli.IntFlag{Name: "numbers", Usage: "Zero padding width of episode and season numbers"},
		&cli.IntFlag{Name: "fontSize", Usage: "Font size of ass subtitles"},
	}
}

// flagReader is the part of cli.Context the options are built from.
type flagReader interface {
	IsSet(name string) bool
	Bool(name string) bool
	Int(name string) int
	Int64(name string) int64
	String(name string) string
	StringSlice(name string) []string
	Duration(name string) time.Duration
}

// buildOptions merges the download flags with the cli defaults of
// cfg. A flag given on the command line always wins.
func buildOptions(f flagReader, cfg *model.Config) (*model.Options, error) {
	d := cfg.Cli
	opts := &model.Options{
		ShowID:     f.Int64("show"),
		Episodes:   f.String("episodes"),
		All:        boolOr(f, "all", d.All),
		AltList:    boolOr(f, "alt", d.AltList),
		NoSubs:     f.Bool("nosubs"),
		ForceSimul: boolOr(f, "simul", d.ForceSimul),
		Quality:    intOr(f, "q", d.VideoLayer),
		Server:     intOr(f, "x", d.Server),
		PartSize:   intOr(f, "partsize", d.PartSize),
		Timeout:    d.Timeout,
		NoVideo:    f.Bool("novids"),
		NoAudio:    f.Bool("noaudio"),
		SkipMux:    f.Bool("skipmux"),
		MP4:        boolOr(f, "mp4", d.MP4Mux),
		ASS:        f.Bool("ass"),
		NoCleanup:  boolOr(f, "nocleanup", d.NoCleanUp),
		Force:      f.Bool("force"),
		Upload:     f.Bool("upload"),
		FileName:   d.FileName,
		Numbers:    intOr(f, "numbers", d.Numbers),
		FontSize:   intOr(f, "fontSize", d.FontSize),
		ContentDir: cfg.Dir.Content,
	}
	if f.IsSet("timeout") {
		opts.Timeout = f.Duration("timeout")
	}
	if f.IsSet("fileName") {
		opts.FileName = f.String("fileName")
	}

	var errs []error
	var err error
	if f.Bool("allDubs") {
		opts.Dubs = model.Dubs()
	} else {
		dubs := d.Dub
		if f.IsSet("dub") {
			dubs = f.StringSlice("dub")
		}
		if opts.Dubs, err = parseDubs(dubs); err != nil {
			errs = append(errs, err)
		}
	}
	if f.Bool("allSubs") {
		opts.SubLangs = model.SubtitleLanguages()
	} else {
		subs := d.SubLang
		if f.IsSet("subLang") {
			subs = f.StringSlice("subLang")
		}
		if opts.SubLangs, err = parseDubs(subs); err != nil {
			errs = append(errs, err)
		}
	}
	errs = append(errs, opts.Validate())
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return opts, nil
}

// parseDubs accepts both repeated values and comma separated lists.
// Duplicates are dropped.
func parseDubs(values []string) ([]model.Dub, error) {
	var dubs []model.Dub
	var errs []error
	seen := make(map[model.Dub]bool)
	for _, v := range values {
		for _, s := range strings.Split(v, ",") {
			if strings.TrimSpace(s) == "" {
				continue
			}
			d, err := model.ParseDub(s)
			if err != nil {
				errs = append(errs, err)
				continue
			}
			if !seen[d] {
				seen[d] = true
				dubs = append(dubs, d)
			}
		}
	}
	return dubs, errors.Join(errs...)
}

func boolOr(f flagReader, name string, def bool) bool {
	if f.IsSet(name) {
		return f.Bool(name)
	}
	return def
}

func intOr(f flagReader, name string, def int) int {
	if f.IsSet(name) {
		return f.Int(name)
	}
	return def
}
