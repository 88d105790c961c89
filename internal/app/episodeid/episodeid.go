// Package episodeid turns raw catalog episode ids into sortable
// (prefix, number) keys and renders the padded forms used for
// selection and listing.
package episodeid

import (
	"context"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/sa6mwa/funidl/internal/app/model"
	"github.com/sa6mwa/funidl/internal/infra/adapters/logger"
)

const (
	OverflowPrefix = "ZZZ"
	OverflowNumber = 9999

	minNumberWidth = 4
)

var idRe = regexp.MustCompile(`(?i)^([A-Z0-9]*[A-Z])?(\d+)$`)

// Parse splits id into its prefix and numeric part. ok is false when
// id has no numeric suffix.
func Parse(id string) (key model.EpisodeKey, ok bool) {
	key, _, ok = parse(id)
	return key, ok
}

func parse(id string) (model.EpisodeKey, int, bool) {
	m := idRe.FindStringSubmatch(strings.TrimSpace(id))
	if m == nil {
		return model.EpisodeKey{}, 0, false
	}
	n, err := strconv.Atoi(m[2])
	if err != nil {
		return model.EpisodeKey{}, 0, false
	}
	return model.EpisodeKey{Prefix: strings.ToUpper(m[1]), Number: n, Parsed: true}, len(m[2]), true
}

// Overflow is the key given to ids that cannot be parsed.
func Overflow() model.EpisodeKey {
	return model.EpisodeKey{Prefix: OverflowPrefix, Number: OverflowNumber}
}

// TrimShowPrefix removes the show id from the front of an external
// episode id.
func TrimShowPrefix(baseID, showID string) string {
	if showID == "" {
		return baseID
	}
	return strings.TrimPrefix(baseID, showID)
}

// Resolver resolves the ids of one show and keeps track of the widest
// prefix and number seen, which only affects padding.
type Resolver struct {
	prefixWidth int
	numberWidth int
}

func NewResolver() *Resolver {
	return &Resolver{numberWidth: minNumberWidth}
}

// Resolve returns the key of rawID. Unparseable ids are logged and
// get the overflow key, they never fail the listing.
func (r *Resolver) Resolve(ctx context.Context, rawID string) model.EpisodeKey {
	key, digits, ok := parse(rawID)
	if !ok {
		logger.FromContext(ctx).Warn("Failed to parse episode id, sorting it last", "id", rawID)
		key = Overflow()
		digits = len(strconv.Itoa(OverflowNumber))
	}
	r.widen(key, digits)
	return key
}

func (r *Resolver) widen(key model.EpisodeKey, digits int) {
	if len(key.Prefix) > r.prefixWidth {
		r.prefixWidth = len(key.Prefix)
	}
	if digits > r.numberWidth {
		r.numberWidth = digits
	}
}

// SelectionID is the prefix followed by the zero padded number, the
// form a selection expression is matched against.
func (r *Resolver) SelectionID(key model.EpisodeKey) string {
	return key.Prefix + pad(strconv.Itoa(key.Number), r.numberWidth, '0')
}

// DisplayID is SelectionID with the prefix right aligned so listings
// line up.
func (r *Resolver) DisplayID(key model.EpisodeKey) string {
	return pad(key.Prefix, r.prefixWidth, ' ') + pad(strconv.Itoa(key.Number), r.numberWidth, '0')
}

// Widths returns the current prefix and number widths.
func (r *Resolver) Widths() (prefix, number int) {
	return r.prefixWidth, r.numberWidth
}

// Sort orders episodes by key, keeping the catalog order of equal
// keys.
func Sort(episodes []model.CatalogEpisode) {
	sort.SliceStable(episodes, func(i, j int) bool {
		return episodes[i].Key.Less(episodes[j].Key)
	})
}

func pad(s string, width int, c byte) string {
	if len(s) >= width {
		return s
	}
	return strings.Repeat(string(c), width-len(s)) + s
}
