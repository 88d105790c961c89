package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/sa6mwa/funidl/internal/app/model"
	"github.com/sa6mwa/funidl/internal/app/ports"
	"github.com/sa6mwa/funidl/internal/infra/adapters/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testContext() context.Context {
	return logger.WithLogger(context.Background(), logger.Discard())
}

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	c, err := New(Options{BaseURL: srv.URL + "/api/", Token: "tok", Timeout: 5 * time.Second})
	require.NoError(t, err)
	return c, srv
}

func TestLogin(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/auth/login/", r.URL.Path)
		assert.NoError(t, r.ParseForm())
		if r.PostForm.Get("username") == "user" && r.PostForm.Get("password") == "pass" {
			fmt.Fprint(w, `{"token":"abcdef"}`)
			return
		}
		w.WriteHeader(http.StatusUnauthorized)
		fmt.Fprint(w, `{"error":"Invalid credentials"}`)
	})
	token, err := c.Login(testContext(), "user", "pass")
	require.NoError(t, err)
	assert.Equal(t, "abcdef", token)

	_, err = c.Login(testContext(), "user", "wrong")
	assert.ErrorIs(t, err, ErrNoToken)
	assert.Contains(t, err.Error(), "Invalid credentials")
}

func TestSearch(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/source/funimation/search/auto/", r.URL.Path)
		assert.Equal(t, "Token tok", r.Header.Get("Authorization"))
		q := r.URL.Query()
		assert.Equal(t, "100", q.Get("limit"))
		assert.Equal(t, "true", q.Get("unique"))
		if q.Get("q") == "bad" {
			fmt.Fprint(w, `{"detail":"Invalid token."}`)
			return
		}
		fmt.Fprint(w, `{"count":2,"items":{"hits":[{"id":"123","title":"One","tx_date":"2020-01-01"},{"id":456,"title":"Two"}]}}`)
	})
	shows, total, err := c.Search(testContext(), "one")
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	assert.Equal(t, []model.Show{{ID: 123, Title: "One", Date: "2020-01-01"}, {ID: 456, Title: "Two"}}, shows)

	_, _, err = c.Search(testContext(), "bad")
	var apiErr *model.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "Invalid token.", apiErr.Detail)
}

func TestShow(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/source/catalog/title/1":
			fmt.Fprint(w, `{"items":[{"id":1,"title":"Show","releaseYear":2019}]}`)
		case "/api/source/catalog/title/2":
			fmt.Fprint(w, `{"items":[]}`)
		default:
			w.WriteHeader(http.StatusNotFound)
			fmt.Fprint(w, `{"status":404,"data":{"errors":[{"detail":"Not found."}]}}`)
		}
	})
	show, err := c.Show(testContext(), 1)
	require.NoError(t, err)
	assert.Equal(t, &model.Show{ID: 1, Title: "Show", ReleaseYear: "2019"}, show)

	_, err = c.Show(testContext(), 2)
	assert.ErrorIs(t, err, ports.ErrNotFound)

	_, err = c.Show(testContext(), 3)
	var apiErr *model.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "error #404: Not found.", apiErr.Error())
}

func TestEpisodes(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "/api/funimation/episodes/", r.URL.Path)
		assert.Equal(t, "7", q.Get("title_id"))
		assert.Equal(t, "-1", q.Get("limit"))
		assert.Equal(t, "English", q.Get("language"))
		fmt.Fprint(w, `{"items":[
			{"ids":{"externalAsianId":"","externalEpisodeId":"SHOW0012","externalShowId":"SHOW"},
			 "item":{"seasonOrder":1,"titleSlug":"show","episodeSlug":"ep-12","seasonNum":"1","episodeNum":12,"episodeId":"9912","titleName":"Show","episodeName":"Twelve","runtime":"23:40"},
			 "mediaCategory":"episode","quality":{"quality":"HD","height":1080},"audio":["English","Japanese"]},
			{"ids":{"externalAsianId":"SHOWOVA1","externalEpisodeId":"X","externalShowId":"SHOW"},
			 "item":{"titleSlug":"show","episodeSlug":"ova-1","runtime":""},
			 "mediaCategory":"ova","quality":{},"audio":[]}
		]}`)
	})
	items, err := c.Episodes(testContext(), 7, true)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "0012", items[0].BaseID)
	assert.Equal(t, "12", items[0].Episode.EpisodeNumber)
	assert.Equal(t, "HD1080", items[0].Episode.QualityString())
	assert.Equal(t, []string{"English", "Japanese"}, items[0].Episode.AudioLanguages)
	assert.Equal(t, "OVA1", items[1].BaseID)
	assert.Equal(t, "UNK", items[1].Episode.QualityString())
	assert.Equal(t, "??:??", items[1].Episode.RuntimeString())
}

func TestEpisode(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/source/catalog/episode/show/ep-12/", r.URL.Path)
		fmt.Fprint(w, `{"items":[{"id":555,"title":"Twelve","number":"12","mediaCategory":"Episode",
			"parent":{"title":"Show","seasonNumber":"2"},
			"media":[
				{"id":100,"mediaType":"experience","language":"English","version":"Uncut","experienceType":"Non-Encrypted",
				 "mediaChildren":[{"filePath":"https://s.example.com/en.vtt","ext":"vtt","language":"English","languages":[{"code":"en"}]},
				                  {"filePath":"https://s.example.com/x.srt","ext":"srt","language":"English","languages":[]}]},
				{"id":5,"mediaType":"image"}
			]}]}`)
	})
	d, err := c.Episode(testContext(), "show", "ep-12")
	require.NoError(t, err)
	assert.Equal(t, "Show", d.ShowTitle)
	assert.Equal(t, 2, d.Season())
	assert.Equal(t, "12", d.Label())
	require.Len(t, d.Experiences, 1)
	e := d.Experiences[0]
	assert.Equal(t, int64(100), e.ID)
	assert.True(t, e.Eligible())
	assert.Equal(t, model.VersionUncut, e.Version())
	assert.Equal(t, []model.MediaChild{
		{FilePath: "https://s.example.com/en.vtt", Language: "English", LanguageCode: "en"},
		{FilePath: "https://s.example.com/x.srt", Language: "English"},
	}, e.Children)
}

func TestStreamSources(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, err := uuid.Parse(r.URL.Query().Get("dinstid"))
		assert.NoError(t, err)
		if r.URL.Path == "/api/source/catalog/video/100/signed" {
			fmt.Fprint(w, `{"items":[{"videoType":"mp4","src":"a"},{"videoType":"m3u8","src":"b"}]}`)
			return
		}
		fmt.Fprint(w, `{"errors":[{"code":403,"detail":"Geo restricted"}]}`)
	})
	src, err := c.StreamSources(testContext(), 100)
	require.NoError(t, err)
	assert.Equal(t, []model.StreamSource{{VideoType: "mp4", Src: "a"}, {VideoType: "m3u8", Src: "b"}}, src)

	_, err = c.StreamSources(testContext(), 200)
	var apiErr *model.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "error #403: Geo restricted", err.Error())
}

func TestGet(t *testing.T) {
	c, srv := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/ok" {
			fmt.Fprint(w, "#EXTM3U")
			return
		}
		http.NotFound(w, r)
	})
	b, err := c.Get(testContext(), srv.URL+"/ok")
	require.NoError(t, err)
	assert.Equal(t, "#EXTM3U", string(b))

	_, err = c.Get(testContext(), srv.URL+"/missing")
	assert.ErrorContains(t, err, "404")
}

func TestTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer srv.Close()
	c, err := New(Options{Timeout: 20 * time.Millisecond})
	require.NoError(t, err)
	_, err = c.Get(testContext(), srv.URL)
	require.Error(t, err)
	var netErr interface{ Timeout() bool }
	assert.True(t, errors.As(err, &netErr) && netErr.Timeout())
}

func TestInvalidProxy(t *testing.T) {
	_, err := New(Options{Proxy: "://bad"})
	assert.Error(t, err)
}
