// Package playlist indexes an HLS master playlist by mirror host and
// quality layer and resolves the rendition to download.
package playlist

import (
	"bytes"
	"errors"
	"fmt"
	"math"
	"net/url"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/grafov/m3u8"
)

var (
	ErrNotMaster         = errors.New("not a master playlist")
	ErrNoRenditions      = errors.New("no renditions found in playlist")
	ErrServerNotSelected = errors.New("server not selected")
	ErrLayerNotSelected  = errors.New("layer not selected")
)

// CanonicalHosts are promoted to the front of the server list in this
// order.
var CanonicalHosts = []string{
	"vmfst-api.prd.funimationsvc.com",
	"d33et77evd9bgg.cloudfront.net",
	"d132fumi6di1wa.cloudfront.net",
	"funiprod.akamaized.net",
}

var (
	layerRe     = regexp.MustCompile(`_Layer(\d+)\.m3u8`)
	alternateRe = regexp.MustCompile(`streaming_video_(\d+)_(\d+)_(\d+)_index\.m3u8`)
)

type Resolution struct {
	Width  int
	Height int
}

func (r Resolution) String() string {
	return fmt.Sprintf("%dx%d", r.Width, r.Height)
}

// Audio is the separate audio rendition of an alternate shape
// playlist.
type Audio struct {
	URL      string
	Language string
	Name     string
}

// Conflict is a second, different url seen for a host and layer that
// already had one. The first url is kept.
type Conflict struct {
	Host    string
	Layer   int
	Kept    string
	Ignored string
}

// Index is the result of one pass over a master playlist. It is not
// modified after Parse returns.
type Index struct {
	// Hosts in preference order.
	Hosts       []string
	MaxLayer    int
	Qualities   []string
	Audio       *Audio
	Conflicts   []Conflict
	Unmatched   []string
	streams     map[string]map[int]string
	resolutions map[int]Resolution
	// audioMissing is set for alternate shape playlists without an
	// audio group.
	audioMissing bool
}

// AudioMissing reports whether the playlist needed a separate audio
// rendition but declared none.
func (ix *Index) AudioMissing() bool {
	return ix.audioMissing
}

// Resolution returns the resolution of layer.
func (ix *Index) Resolution(layer int) (Resolution, bool) {
	r, ok := ix.resolutions[layer]
	return r, ok
}

type rendition struct {
	uri       string
	bandwidth uint32
	res       Resolution
}

// Parse indexes the master playlist body fetched from manifestURL.
// Relative uris are resolved against manifestURL.
func Parse(manifestURL string, body []byte) (*Index, error) {
	base, err := url.Parse(manifestURL)
	if err != nil {
		return nil, fmt.Errorf("manifest url: %w", err)
	}
	p, listType, err := m3u8.DecodeFrom(bytes.NewReader(body), false)
	if err != nil {
		return nil, fmt.Errorf("decode playlist: %w", err)
	}
	if listType != m3u8.MASTER {
		return nil, ErrNotMaster
	}
	master, ok := p.(*m3u8.MasterPlaylist)
	if !ok || len(master.Variants) == 0 {
		return nil, ErrNoRenditions
	}

	ix := &Index{
		streams:     make(map[string]map[int]string),
		resolutions: make(map[int]Resolution),
	}

	variants := make([]rendition, 0, len(master.Variants))
	for _, v := range master.Variants {
		// I-frame playlists are trick-play only.
		if v == nil || v.Iframe {
			continue
		}
		variants = append(variants, rendition{
			uri:       resolve(base, v.URI),
			bandwidth: v.Bandwidth,
			res:       parseResolution(v.Resolution),
		})
	}
	if len(variants) == 0 {
		return nil, ErrNoRenditions
	}

	alternate := alternateRe.MatchString(variants[0].uri)
	if alternate {
		ix.Audio, ix.audioMissing = audioRendition(base, master)
		sort.SliceStable(variants, func(i, j int) bool {
			return tier(variants[i].uri) < tier(variants[j].uri)
		})
	}

	var hosts []string
	seenQuality := make(map[string]bool)
	type quality struct {
		layer int
		s     string
	}
	var qualities []quality
	nextID := 1
	for _, v := range variants {
		var layer int
		if m := layerRe.FindStringSubmatch(v.uri); m != nil {
			layer, _ = strconv.Atoi(m[1])
		} else if alternateRe.MatchString(v.uri) {
			layer = nextID
			nextID++
		} else {
			ix.Unmatched = append(ix.Unmatched, v.uri)
			continue
		}
		if layer > ix.MaxLayer {
			ix.MaxLayer = layer
		}
		u, err := url.Parse(v.uri)
		if err != nil {
			ix.Unmatched = append(ix.Unmatched, v.uri)
			continue
		}
		host := u.Host
		if _, ok := ix.streams[host]; !ok {
			ix.streams[host] = make(map[int]string)
			hosts = append(hosts, host)
		}
		if existing, ok := ix.streams[host][layer]; ok {
			if existing != v.uri {
				ix.Conflicts = append(ix.Conflicts, Conflict{Host: host, Layer: layer, Kept: existing, Ignored: v.uri})
			}
		} else {
			ix.streams[host][layer] = v.uri
		}
		ix.resolutions[layer] = v.res
		s := fmt.Sprintf("%2d: %dx%d (%dKiB/s)", layer, v.res.Width, v.res.Height, int(math.Round(float64(v.bandwidth)/1024)))
		if !seenQuality[s] {
			seenQuality[s] = true
			qualities = append(qualities, quality{layer: layer, s: s})
		}
	}
	if ix.MaxLayer == 0 {
		return nil, ErrNoRenditions
	}
	sort.SliceStable(qualities, func(i, j int) bool {
		if qualities[i].layer != qualities[j].layer {
			return qualities[i].layer < qualities[j].layer
		}
		return qualities[i].s < qualities[j].s
	})
	for _, q := range qualities {
		ix.Qualities = append(ix.Qualities, q.s)
	}
	ix.Hosts = PromoteCanonical(hosts)
	return ix, nil
}

// Selection is a resolved video rendition.
type Selection struct {
	Host       string
	Layer      int
	URL        string
	Resolution Resolution
	Audio      *Audio
}

// ResolveLayer returns quality, or the highest layer when quality is
// below 1 or above it.
func (ix *Index) ResolveLayer(quality int) int {
	if quality < 1 || quality > ix.MaxLayer {
		return ix.MaxLayer
	}
	return quality
}

// Resolve returns the rendition of the requested quality layer on the
// 1-based server.
func (ix *Index) Resolve(quality, server int) (*Selection, error) {
	layer := ix.ResolveLayer(quality)
	if server < 1 || server > len(ix.Hosts) {
		return nil, fmt.Errorf("%w: server %d of %d", ErrServerNotSelected, server, len(ix.Hosts))
	}
	host := ix.Hosts[server-1]
	u, ok := ix.streams[host][layer]
	if !ok {
		return nil, fmt.Errorf("%w: layer %d is not on %s", ErrLayerNotSelected, layer, host)
	}
	return &Selection{
		Host:       host,
		Layer:      layer,
		URL:        u,
		Resolution: ix.resolutions[layer],
		Audio:      ix.Audio,
	}, nil
}

// PromoteCanonical moves the canonical hosts present in hosts to the
// front, in canonical order, and keeps the order of the rest.
func PromoteCanonical(hosts []string) []string {
	out := make([]string, 0, len(hosts))
	present := make(map[string]bool, len(hosts))
	for _, h := range hosts {
		present[h] = true
	}
	canonical := make(map[string]bool, len(CanonicalHosts))
	for _, h := range CanonicalHosts {
		canonical[h] = true
		if present[h] {
			out = append(out, h)
		}
	}
	for _, h := range hosts {
		if !canonical[h] {
			out = append(out, h)
		}
	}
	return out
}

// audioRendition returns the first rendition of the last declared
// audio group.
func audioRendition(base *url.URL, master *m3u8.MasterPlaylist) (*Audio, bool) {
	var groups []string
	renditions := make(map[string][]*m3u8.Alternative)
	for _, v := range master.Variants {
		if v == nil {
			continue
		}
		for _, a := range v.Alternatives {
			if a == nil || !strings.EqualFold(a.Type, "AUDIO") {
				continue
			}
			if _, ok := renditions[a.GroupId]; !ok {
				groups = append(groups, a.GroupId)
			}
			renditions[a.GroupId] = append(renditions[a.GroupId], a)
		}
	}
	if len(groups) == 0 {
		return nil, true
	}
	a := renditions[groups[len(groups)-1]][0]
	if a.URI == "" {
		return nil, false
	}
	return &Audio{URL: resolve(base, a.URI), Language: a.Language, Name: a.Name}, false
}

func tier(uri string) int {
	m := alternateRe.FindStringSubmatch(uri)
	if m == nil {
		return 0
	}
	n, _ := strconv.Atoi(m[3])
	return n
}

func parseResolution(s string) Resolution {
	w, h, ok := strings.Cut(strings.ToLower(s), "x")
	if !ok {
		return Resolution{}
	}
	width, _ := strconv.Atoi(w)
	height, _ := strconv.Atoi(h)
	return Resolution{Width: width, Height: height}
}

func resolve(base *url.URL, ref string) string {
	u, err := url.Parse(strings.TrimSpace(ref))
	if err != nil {
		return ref
	}
	return base.ResolveReference(u).String()
}
