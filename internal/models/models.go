// package models defines the canonical data model shared across providers
package models

// Source tags the provider a record came from. The constants cover the
// catalogs with dedicated resolvers; any other string is carried through
// untouched for forward compatibility.
type Source string

const (
	SourceNetease Source = "netease"
	SourceQQ      Source = "qq"
	SourceKuwo    Source = "kuwo"
)

// KnownSources lists the providers with dedicated resolvers, in aggregate
// search fan-out order.
var KnownSources = []Source{SourceNetease, SourceQQ, SourceKuwo}

// ParseSource maps a user-supplied tag to a Source. Unknown tags pass through
// as-is so new providers can be addressed before this package learns about
// them.
func ParseSource(s string) Source {
	switch s {
	case "wy", "163", "netease":
		return SourceNetease
	case "tx", "qq", "tencent":
		return SourceQQ
	case "kw", "kuwo":
		return SourceKuwo
	default:
		return Source(s)
	}
}

// Quality is an audio quality tier, ordered 128k < 320k < flac < flac24bit.
type Quality string

const (
	Quality128    Quality = "128k"
	Quality320    Quality = "320k"
	QualityFlac   Quality = "flac"
	QualityFlac24 Quality = "flac24bit"
)

// Qualities lists the tiers in ascending order.
var Qualities = []Quality{Quality128, Quality320, QualityFlac, QualityFlac24}

// Lowest returns the bottom quality tier, the target of automatic degradation.
func Lowest() Quality { return Quality128 }

// IsLowest reports whether q is the bottom tier.
func (q Quality) IsLowest() bool { return q == Quality128 }

// Valid reports whether q names a known tier.
func (q Quality) Valid() bool {
	for _, known := range Qualities {
		if q == known {
			return true
		}
	}
	return false
}

// Song is the canonical track shape every provider response is normalized
// into.
//
// ID is provider-local: uniqueness holds only within a (Source, ID) pair, so
// equality and dedup checks must compare both. When no provider identifier
// could be discovered the ID is a synthesized temp_<token> placeholder and
// IsValidID is false; such songs must be rejected by anything that needs a
// resolvable identity.
type Song struct {
	ID        string   `json:"id"`
	Name      string   `json:"name"`
	Artist    string   `json:"artist"`
	Album     string   `json:"album"`
	Pic       string   `json:"pic"` // absolute https URL or empty
	URL       string   `json:"url"` // playable stream URL, populated lazily
	Lrc       string   `json:"lrc"` // raw lyric text, may embed a translation block
	Source    Source   `json:"source"`
	Types     []string `json:"types,omitempty"` // optional quality-tier tags
	IsValidID bool     `json:"-"`
}

// Key returns the dedup key for the song, scoped by provider.
func (s Song) Key() string {
	return string(s.Source) + ":" + s.ID
}

// TopList describes a provider chart. PicURL and CoverImgURL are always
// populated identically; both aliases survive because different provider
// payloads expect one or the other.
type TopList struct {
	ID              string `json:"id"`
	Name            string `json:"name"`
	UpdateFrequency string `json:"updateFrequency"`
	PicURL          string `json:"picUrl"`
	CoverImgURL     string `json:"coverImgUrl"`
}

// ParseResult is the combined outcome of one parse call: playable URL, lyric
// text and cover art obtained in a single upstream hit.
type ParseResult struct {
	URL   string `json:"url"`
	Lyric string `json:"lyric"`
	Cover string `json:"cover"`
}

// Placeholder display values used when a field cannot be resolved. Name,
// artist and album are never left empty-undefined in a normalized Song.
const (
	UnknownSong   = "Unknown Song"
	UnknownArtist = "Unknown Artist"
)
