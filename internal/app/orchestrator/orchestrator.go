// Package orchestrator drives a download run: it lists a show,
// applies the episode selection and downloads, converts and muxes
// every selected episode one at a time.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/sa6mwa/funidl/internal/app/episodeid"
	"github.com/sa6mwa/funidl/internal/app/model"
	"github.com/sa6mwa/funidl/internal/app/ports"
	"github.com/sa6mwa/funidl/internal/app/selection"
	"github.com/sa6mwa/funidl/internal/infra/adapters/logger"
)

var (
	// ErrFatal wraps errors that abort the whole run rather than the
	// current episode.
	ErrFatal   = errors.New("fatal")
	ErrNoToken = errors.New("authentication token not found, run auth first")
	ErrNoPair  = errors.New("unable to locate a video and audio file")
	// ErrSkipped is returned when the user declined to overwrite an
	// existing output.
	ErrSkipped = errors.New("episode skipped")
)

// Dependencies are the collaborators of an Orchestrator. Uploader may
// be nil when publishing is not configured.
type Dependencies struct {
	Catalog    ports.ForCataloging
	Fetcher    ports.ForFetching
	Segments   ports.ForSegmentDownloading
	Converter  ports.ForConverting
	Merger     ports.ForMerging
	Uploader   ports.ForUploading
	Asker      ports.ForAsking
	Configurer ports.ForConfiguring
	// Out receives listings, os.Stdout when nil.
	Out io.Writer
}

// Publish is where muxed outputs are uploaded to when --upload is
// given.
type Publish struct {
	Bucket       string
	StorageClass string
}

type Orchestrator struct {
	deps    Dependencies
	opts    *model.Options
	publish Publish
}

func New(deps Dependencies, opts *model.Options, publish Publish) *Orchestrator {
	if deps.Out == nil {
		deps.Out = os.Stdout
	}
	if opts == nil {
		opts = &model.Options{}
	}
	return &Orchestrator{deps: deps, opts: opts, publish: publish}
}

// RequireToken returns a fatal error when token is empty.
func RequireToken(token string) error {
	if strings.TrimSpace(token) == "" {
		return fmt.Errorf("%w: %w", ErrFatal, ErrNoToken)
	}
	return nil
}

// Auth asks for credentials, logs in and stores the returned token.
func (o *Orchestrator) Auth(ctx context.Context) error {
	l := logger.FromContext(ctx)
	user, err := o.deps.Asker.Input(ctx, "Login:")
	if err != nil {
		return err
	}
	password, err := o.deps.Asker.Password(ctx, "Password:")
	if err != nil {
		return err
	}
	token, err := o.deps.Catalog.Login(ctx, user, password)
	if err != nil {
		return fmt.Errorf("login: %w", err)
	}
	if err := o.deps.Configurer.SaveToken(ctx, token); err != nil {
		return fmt.Errorf("save token: %w", err)
	}
	l.Info("Authentication success, token saved")
	return nil
}

// Search prints the shows matching query.
func (o *Orchestrator) Search(ctx context.Context, query string) error {
	l := logger.FromContext(ctx)
	shows, total, err := o.deps.Catalog.Search(ctx, query)
	if err != nil {
		return err
	}
	rows := make([][]string, 0, len(shows))
	for _, s := range shows {
		rows = append(rows, []string{fmt.Sprintf("%d", s.ID), s.Title, s.Date})
	}
	if len(rows) > 0 {
		fmt.Fprintln(o.deps.Out, renderTable([]string{"ID", "Title", "Date"}, rows, []columnAlignment{alignRight}))
	}
	l.Info("Search done", "query", query, "total", total)
	return nil
}

// Run lists the show, selects episodes and processes them in order.
// Per-episode failures are logged and the run continues, errors
// wrapping ErrFatal end it.
func (o *Orchestrator) Run(ctx context.Context) error {
	l := logger.FromContext(ctx)
	selected, err := o.List(ctx)
	if err != nil {
		return err
	}
	if len(selected) == 0 {
		l.Info("Episodes not selected")
		return nil
	}
	var failed int
	for _, ep := range selected {
		el := l.With("episode", ep.SelectionID)
		ectx := logger.WithLogger(ctx, el)
		if err := o.ProcessEpisode(ectx, ep.Episode); err != nil {
			if errors.Is(err, ErrFatal) {
				return err
			}
			if errors.Is(err, ErrSkipped) {
				el.Info("Skipped")
				continue
			}
			failed++
			el.Error("Episode failed", "error", err)
			continue
		}
	}
	l.Info("Done", "episodes", len(selected), "failed", failed)
	return nil
}

// Selected is a listed episode matched by the selection.
type Selected struct {
	SelectionID string
	Episode     model.CatalogEpisode
}

// List prints the episodes of the show and returns the selected ones
// in listing order.
func (o *Orchestrator) List(ctx context.Context) ([]Selected, error) {
	l := logger.FromContext(ctx)

	show, err := o.deps.Catalog.Show(ctx, o.opts.ShowID)
	if err != nil {
		if errors.Is(err, ports.ErrNotFound) {
			l.Error("Show not found", "show", o.opts.ShowID)
			return nil, nil
		}
		var apiErr *model.APIError
		if errors.As(err, &apiErr) {
			return nil, fmt.Errorf("%w: show %d: %w", ErrFatal, o.opts.ShowID, err)
		}
		return nil, fmt.Errorf("show %d: %w", o.opts.ShowID, err)
	}
	l.Info("Show", "id", show.ID, "title", show.Title, "year", show.ReleaseYear)

	items, err := o.deps.Catalog.Episodes(ctx, o.opts.ShowID, o.opts.AltList)
	if err != nil {
		return nil, fmt.Errorf("episodes of show %d: %w", o.opts.ShowID, err)
	}

	filter := selection.NewAll()
	if !o.opts.All {
		filter, err = selection.Parse(o.opts.Episodes)
		if err != nil {
			l.Warn("Ignoring invalid selection", "error", err)
		}
	}

	resolver := episodeid.NewResolver()
	episodes := make([]model.CatalogEpisode, 0, len(items))
	for _, it := range items {
		ep := it.Episode
		ep.RawID = it.BaseID
		ep.Key = resolver.Resolve(ctx, it.BaseID)
		episodes = append(episodes, ep)
	}
	episodeid.Sort(episodes)

	var selected []Selected
	rows := make([][]string, 0, len(episodes))
	for _, ep := range episodes {
		id := resolver.SelectionID(ep.Key)
		mark := ""
		if filter.Includes(id) {
			selected = append(selected, Selected{SelectionID: id, Episode: ep})
			mark = "selected"
		}
		rows = append(rows, episodeRow(resolver.DisplayID(ep.Key), ep, mark))
	}
	if len(rows) > 0 {
		fmt.Fprintln(o.deps.Out, renderTable(
			[]string{"ID", "Show", "Episode", "Name", "Runtime", "Quality", "Audio", ""},
			rows,
			[]columnAlignment{alignRight},
		))
	}
	if len(selected) > 0 {
		ids := make([]string, 0, len(selected))
		for _, s := range selected {
			ids = append(ids, s.SelectionID)
		}
		l.Info("Selected episodes", "ids", strings.Join(ids, ", "))
	}
	return selected, nil
}

func episodeRow(displayID string, ep model.CatalogEpisode, mark string) []string {
	show := ep.DisplayTitle
	if ep.SeasonNumber != "" && ep.SeasonNumber != "1" {
		show += " S" + ep.SeasonNumber
	}
	kind := ""
	if !strings.EqualFold(ep.MediaCategory, "episode") {
		kind = ep.MediaCategory
	}
	number := "#" + ep.EpisodeID
	if ep.EpisodeNumber != "" {
		number = "#" + ep.EpisodeNumber
		if len(ep.EpisodeNumber) == 1 {
			number = "#0" + ep.EpisodeNumber
		}
	}
	return []string{
		displayID,
		show,
		kind + number,
		ep.EpisodeName,
		ep.RuntimeString(),
		ep.QualityString(),
		strings.Join(ep.AudioLanguages, ", "),
		mark,
	}
}
