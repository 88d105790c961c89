package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/sa6mwa/funidl/internal/app/episodeid"
	"github.com/sa6mwa/funidl/internal/app/model"
	"github.com/sa6mwa/funidl/internal/app/ports"
)

var ErrNoToken = errors.New("no token found in login response")

var (
	_ ports.ForCataloging = (*Client)(nil)
	_ ports.ForFetching   = (*Client)(nil)
)

// flexString decodes both JSON strings and numbers, the catalog is not
// consistent about which one it sends.
type flexString string

func (f *flexString) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*f = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*f = flexString(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*f = flexString(n.String())
	return nil
}

func (f flexString) int64() int64 {
	n, _ := strconv.ParseInt(strings.TrimSpace(string(f)), 10, 64)
	return n
}

type apiError struct {
	Code   flexString `json:"code"`
	Detail string     `json:"detail"`
}

func (e apiError) toModel() *model.APIError {
	return &model.APIError{Code: string(e.Code), Detail: e.Detail}
}

func (c *Client) Login(ctx context.Context, user, password string) (string, error) {
	var resp struct {
		Token string `json:"token"`
		Error string `json:"error"`
	}
	form := url.Values{"username": {user}, "password": {password}}
	if err := c.call(ctx, http.MethodPost, "/auth/login/", nil, form, &resp); err != nil {
		return "", err
	}
	if resp.Token == "" {
		if resp.Error != "" {
			return "", fmt.Errorf("%w: %s", ErrNoToken, resp.Error)
		}
		return "", ErrNoToken
	}
	return resp.Token, nil
}

func (c *Client) Search(ctx context.Context, query string) ([]model.Show, int, error) {
	var resp struct {
		Detail string `json:"detail"`
		Items  struct {
			Hits []struct {
				ID     flexString `json:"id"`
				Title  string     `json:"title"`
				TxDate string     `json:"tx_date"`
			} `json:"hits"`
		} `json:"items"`
		Count int `json:"count"`
	}
	q := url.Values{
		"unique": {"true"},
		"limit":  {"100"},
		"q":      {query},
		"offset": {"0"},
	}
	if err := c.call(ctx, http.MethodGet, "/source/funimation/search/auto/", q, nil, &resp); err != nil {
		return nil, 0, err
	}
	if resp.Detail != "" {
		return nil, 0, &model.APIError{Detail: resp.Detail}
	}
	shows := make([]model.Show, 0, len(resp.Items.Hits))
	for _, h := range resp.Items.Hits {
		shows = append(shows, model.Show{ID: h.ID.int64(), Title: h.Title, Date: h.TxDate})
	}
	return shows, resp.Count, nil
}

func (c *Client) Show(ctx context.Context, showID int64) (*model.Show, error) {
	var resp struct {
		Status flexString `json:"status"`
		Data   struct {
			Errors []apiError `json:"errors"`
		} `json:"data"`
		Items []struct {
			ID          flexString `json:"id"`
			Title       string     `json:"title"`
			ReleaseYear flexString `json:"releaseYear"`
		} `json:"items"`
	}
	if err := c.call(ctx, http.MethodGet, fmt.Sprintf("/source/catalog/title/%d", showID), nil, nil, &resp); err != nil {
		return nil, err
	}
	if resp.Status != "" {
		e := &model.APIError{Code: string(resp.Status)}
		if len(resp.Data.Errors) > 0 {
			e.Detail = resp.Data.Errors[0].Detail
		}
		return nil, e
	}
	if len(resp.Items) == 0 {
		return nil, ports.ErrNotFound
	}
	it := resp.Items[0]
	return &model.Show{ID: it.ID.int64(), Title: it.Title, ReleaseYear: string(it.ReleaseYear)}, nil
}

type episodeItem struct {
	IDs struct {
		ExternalAsianID   string `json:"externalAsianId"`
		ExternalEpisodeID string `json:"externalEpisodeId"`
		ExternalShowID    string `json:"externalShowId"`
	} `json:"ids"`
	Item struct {
		SeasonOrder flexString `json:"seasonOrder"`
		TitleSlug   string     `json:"titleSlug"`
		EpisodeSlug string     `json:"episodeSlug"`
		SeasonNum   flexString `json:"seasonNum"`
		EpisodeNum  flexString `json:"episodeNum"`
		EpisodeID   flexString `json:"episodeId"`
		TitleName   string     `json:"titleName"`
		EpisodeName string     `json:"episodeName"`
		Runtime     string     `json:"runtime"`
	} `json:"item"`
	MediaCategory string `json:"mediaCategory"`
	Quality       struct {
		Quality string     `json:"quality"`
		Height  flexString `json:"height"`
	} `json:"quality"`
	Audio []string `json:"audio"`
}

func (c *Client) Episodes(ctx context.Context, showID int64, altList bool) ([]ports.CatalogItem, error) {
	var resp struct {
		Items []episodeItem `json:"items"`
	}
	q := url.Values{
		"limit":          {"-1"},
		"sort":           {"order"},
		"sort_direction": {"ASC"},
		"title_id":       {strconv.FormatInt(showID, 10)},
	}
	if altList {
		q.Set("language", "English")
	}
	if err := c.call(ctx, http.MethodGet, "/funimation/episodes/", q, nil, &resp); err != nil {
		return nil, err
	}
	items := make([]ports.CatalogItem, 0, len(resp.Items))
	for _, e := range resp.Items {
		baseID := e.IDs.ExternalAsianID
		if baseID == "" {
			baseID = e.IDs.ExternalEpisodeID
		}
		items = append(items, ports.CatalogItem{
			BaseID: episodeid.TrimShowPrefix(baseID, e.IDs.ExternalShowID),
			Episode: model.CatalogEpisode{
				SeasonOrder:    int(e.Item.SeasonOrder.int64()),
				TitleSlug:      e.Item.TitleSlug,
				EpisodeSlug:    e.Item.EpisodeSlug,
				SeasonNumber:   string(e.Item.SeasonNum),
				EpisodeNumber:  string(e.Item.EpisodeNum),
				EpisodeID:      string(e.Item.EpisodeID),
				DisplayTitle:   e.Item.TitleName,
				EpisodeName:    e.Item.EpisodeName,
				MediaCategory:  e.MediaCategory,
				Runtime:        e.Item.Runtime,
				Quality:        e.Quality.Quality,
				QualityHeight:  int(e.Quality.Height.int64()),
				AudioLanguages: e.Audio,
			},
		})
	}
	return items, nil
}

func (c *Client) Episode(ctx context.Context, titleSlug, episodeSlug string) (*model.EpisodeDetail, error) {
	var resp struct {
		Items []struct {
			ID            flexString `json:"id"`
			Title         string     `json:"title"`
			Number        flexString `json:"number"`
			MediaCategory string     `json:"mediaCategory"`
			Parent        struct {
				Title        string     `json:"title"`
				SeasonNumber flexString `json:"seasonNumber"`
			} `json:"parent"`
			Media []struct {
				ID             flexString `json:"id"`
				MediaType      string     `json:"mediaType"`
				Language       string     `json:"language"`
				Version        string     `json:"version"`
				ExperienceType string     `json:"experienceType"`
				MediaChildren  []struct {
					FilePath  string `json:"filePath"`
					Language  string `json:"language"`
					Languages []struct {
						Code string `json:"code"`
					} `json:"languages"`
				} `json:"mediaChildren"`
			} `json:"media"`
		} `json:"items"`
	}
	path := fmt.Sprintf("/source/catalog/episode/%s/%s/", url.PathEscape(titleSlug), url.PathEscape(episodeSlug))
	if err := c.call(ctx, http.MethodGet, path, nil, nil, &resp); err != nil {
		return nil, err
	}
	if len(resp.Items) == 0 {
		return nil, fmt.Errorf("episode %s/%s: %w", titleSlug, episodeSlug, ports.ErrNotFound)
	}
	it := resp.Items[0]
	d := &model.EpisodeDetail{
		ID:            string(it.ID),
		ShowTitle:     it.Parent.Title,
		Title:         it.Title,
		SeasonNumber:  string(it.Parent.SeasonNumber),
		Number:        string(it.Number),
		MediaCategory: it.MediaCategory,
	}
	for _, m := range it.Media {
		if m.MediaType != "experience" {
			continue
		}
		e := model.Experience{
			ID:             m.ID.int64(),
			DubLanguage:    m.Language,
			VersionLabel:   m.Version,
			ExperienceType: m.ExperienceType,
		}
		for _, ch := range m.MediaChildren {
			mc := model.MediaChild{FilePath: ch.FilePath, Language: ch.Language}
			if len(ch.Languages) > 0 {
				mc.LanguageCode = ch.Languages[0].Code
			}
			e.Children = append(e.Children, mc)
		}
		d.Experiences = append(d.Experiences, e)
	}
	return d, nil
}

func (c *Client) StreamSources(ctx context.Context, experienceID int64) ([]model.StreamSource, error) {
	var resp struct {
		Errors []apiError `json:"errors"`
		Items  []struct {
			VideoType string `json:"videoType"`
			Src       string `json:"src"`
		} `json:"items"`
	}
	q := url.Values{"dinstid": {deviceInstanceID()}}
	if err := c.call(ctx, http.MethodGet, fmt.Sprintf("/source/catalog/video/%d/signed", experienceID), q, nil, &resp); err != nil {
		return nil, err
	}
	if len(resp.Errors) > 0 {
		return nil, resp.Errors[0].toModel()
	}
	sources := make([]model.StreamSource, 0, len(resp.Items))
	for _, it := range resp.Items {
		sources = append(sources, model.StreamSource{VideoType: it.VideoType, Src: it.Src})
	}
	return sources, nil
}
