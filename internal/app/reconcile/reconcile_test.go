package reconcile

import (
	"context"
	"testing"

	"github.com/sa6mwa/funidl/internal/app/model"
	"github.com/sa6mwa/funidl/internal/infra/adapters/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testContext() context.Context {
	return logger.WithLogger(context.Background(), logger.Discard())
}

func vtt(lang, code, file string) model.MediaChild {
	return model.MediaChild{FilePath: "https://subs.example.com/" + file + ".vtt", Language: lang, LanguageCode: code}
}

func exp(id int64, lang, version string, children ...model.MediaChild) model.Experience {
	return model.Experience{ID: id, DubLanguage: lang, VersionLabel: version, ExperienceType: model.NonEncrypted, Children: children}
}

func ids(r *Result) []int64 {
	var out []int64
	for _, s := range r.Selections {
		out = append(out, s.ExperienceID)
	}
	return out
}

func TestVersionPolicy(t *testing.T) {
	uncutAndSimul := []model.Experience{
		exp(1, "English", "Uncut"),
		exp(2, "English", "Simulcast"),
	}
	onlySimul := []model.Experience{exp(3, "English", "Simulcast")}

	tests := []struct {
		name        string
		experiences []model.Experience
		forceSimul  bool
		want        []int64
	}{
		{"uncut preferred", uncutAndSimul, false, []int64{1}},
		{"simulcast forced", uncutAndSimul, true, []int64{2}},
		{"only simulcast", onlySimul, false, []int64{3}},
		{"only simulcast forced", onlySimul, true, []int64{3}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			r, err := Reconcile(testContext(), tc.experiences, Request{
				Dubs:       []model.Dub{model.DubEnUS},
				SubLangs:   []model.Dub{model.DubEnUS},
				ForceSimul: tc.forceSimul,
			})
			require.NoError(t, err)
			assert.Equal(t, tc.want, ids(r))
		})
	}
}

func TestSingleUncutStream(t *testing.T) {
	r, err := Reconcile(testContext(), []model.Experience{exp(7, "English", "uncut")}, Request{
		Dubs: []model.Dub{model.DubEnUS},
	})
	require.NoError(t, err)
	require.Len(t, r.Selections, 1)
	assert.Equal(t, model.StreamSelection{ExperienceID: 7, Dub: model.DubEnUS, OutputLanguageCode: "eng"}, r.Selections[0])
}

func TestEncryptedAndUnrequestedAreIgnored(t *testing.T) {
	encrypted := exp(1, "English", "Uncut")
	encrypted.ExperienceType = "Encrypted"
	experiences := []model.Experience{
		encrypted,
		exp(2, "English", "Simulcast"),
		exp(3, "Japanese", "Uncut"),
		{ID: 0, DubLanguage: "English", VersionLabel: "Uncut", ExperienceType: model.NonEncrypted},
	}
	r, err := Reconcile(testContext(), experiences, Request{Dubs: []model.Dub{model.DubEnUS}})
	require.NoError(t, err)
	// The encrypted uncut does not count, so simulcast is accepted.
	assert.Equal(t, []int64{2}, ids(r))
}

func TestMultipleDubs(t *testing.T) {
	experiences := []model.Experience{
		exp(1, "Japanese", "Uncut"),
		exp(2, "English", "Uncut"),
		exp(3, "Spanish (Latin Am)", "Simulcast"),
	}
	r, err := Reconcile(testContext(), experiences, Request{Dubs: []model.Dub{model.DubEnUS, model.DubJaJP}})
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 2}, ids(r))
	assert.Equal(t, "jpn", r.Selections[0].OutputLanguageCode)
	assert.Equal(t, "eng", r.Selections[1].OutputLanguageCode)
}

func TestTrackNotSelected(t *testing.T) {
	_, err := Reconcile(testContext(), []model.Experience{exp(1, "Japanese", "Uncut")}, Request{Dubs: []model.Dub{model.DubEnUS}})
	assert.ErrorIs(t, err, ErrTrackNotSelected)
	_, err = Reconcile(testContext(), nil, Request{Dubs: []model.Dub{model.DubEnUS}})
	assert.ErrorIs(t, err, ErrTrackNotSelected)
}

func TestSubtitlesMergedAndDeduped(t *testing.T) {
	experiences := []model.Experience{
		exp(1, "Japanese", "Uncut", vtt("English", "en", "ja-en"), vtt("Spanish (Latin Am)", "es", "ja-es")),
		exp(2, "English", "Uncut", vtt("English", "en", "en-en")),
	}
	req := Request{
		Dubs:     []model.Dub{model.DubJaJP, model.DubEnUS},
		SubLangs: []model.Dub{model.DubEnUS, model.DubEsLA},
	}
	r, err := Reconcile(testContext(), experiences, req)
	require.NoError(t, err)
	require.Len(t, r.Subtitles, 2)
	assert.Equal(t, "https://subs.example.com/ja-en.vtt", r.Subtitles[0].SourcePath)
	assert.Equal(t, ".enUS", r.Subtitles[0].Extension)
	assert.Equal(t, ".esLA", r.Subtitles[1].Extension)

	reversed := []model.Experience{experiences[1], experiences[0]}
	r2, err := Reconcile(testContext(), reversed, req)
	require.NoError(t, err)
	langs := func(r *Result) []string {
		var out []string
		for _, s := range r.Subtitles {
			out = append(out, s.LanguageCode)
		}
		return out
	}
	assert.ElementsMatch(t, langs(r), langs(r2))
	assert.Equal(t, "https://subs.example.com/en-en.vtt", r2.Subtitles[0].SourcePath)
}

func TestNoSubs(t *testing.T) {
	r, err := Reconcile(testContext(), []model.Experience{exp(1, "English", "Uncut", vtt("English", "en", "x"))}, Request{
		Dubs:     []model.Dub{model.DubEnUS},
		SubLangs: []model.Dub{model.DubEnUS},
		NoSubs:   true,
	})
	require.NoError(t, err)
	assert.Empty(t, r.Subtitles)
	assert.Len(t, r.Selections, 1)
}

func TestMissingSubtitlesStillSelects(t *testing.T) {
	r, err := Reconcile(testContext(), []model.Experience{exp(1, "English", "Uncut")}, Request{
		Dubs:     []model.Dub{model.DubEnUS},
		SubLangs: []model.Dub{model.DubEnUS},
	})
	require.NoError(t, err)
	assert.Len(t, r.Selections, 1)
	assert.Empty(t, r.Subtitles)
}

func TestLimitSubtitles(t *testing.T) {
	children := []model.MediaChild{
		vtt("English", "en", "a"),
		{FilePath: "https://subs.example.com/a.srt", Language: "English"},
		vtt("Portuguese (Brazil)", "", "b"),
	}

	got := LimitSubtitles(children, []model.Dub{model.DubPtBR})
	require.Len(t, got, 1)
	assert.Equal(t, "pt", got[0].LanguageCode)
	assert.Equal(t, ".ptBR", got[0].Extension)
	assert.Equal(t, "Portuguese (Brazil)", got[0].DisplayLanguageName)

	// esLA is not offered, fall back to English.
	got = LimitSubtitles(children, []model.Dub{model.DubEsLA})
	require.Len(t, got, 1)
	assert.Equal(t, "en", got[0].LanguageCode)
	assert.Equal(t, "https://subs.example.com/a.vtt", got[0].SourcePath)
}
