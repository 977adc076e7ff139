// package extract locates track records inside arbitrarily-shaped provider
// payloads and maps them into the canonical [models.Song] shape.
//
// Provider responses are undocumented and inconsistent, so decoding works by
// probing [gjson.Result] values in a fixed priority order rather than
// unmarshalling into per-provider structs.
package extract

import (
	"strings"

	"github.com/tidwall/gjson"

	"github.com/wavecrest/harmonia/internal/models"
)

// generic identity fields, probed last for every provider
var genericIDFields = []string{"id", "ID", "songid", "songId"}

// FindIdentity extracts the provider-local identity from a raw record.
//
// The order is provider-sensitive: QQ numeric ids are frequently unstable for
// later resolution, so the mnemonic songmid/mid string wins over any numeric
// field; Kuwo keys resolution off a dedicated resource id rather than the
// generic id. Returns ok=false, never an error, when nothing matches —
// callers synthesize a placeholder identity in that case.
func FindIdentity(rec gjson.Result, src models.Source) (string, bool) {
	var preferred []string
	switch src {
	case models.SourceQQ:
		preferred = []string{"songmid", "mid"}
	case models.SourceKuwo:
		preferred = []string{"rid", "RID", "musicrid", "MUSICRID"}
	}

	for _, field := range append(preferred, genericIDFields...) {
		v := rec.Get(field)
		if !v.Exists() {
			continue
		}
		id := strings.TrimPrefix(v.String(), "MUSIC_")
		if id != "" && id != "0" {
			return id, true
		}
	}
	return "", false
}

// cover fields in priority order, spanning all three providers' spellings
var coverFields = []string{
	"pic",
	"picUrl",
	"pic_url",
	"cover",
	"coverImgUrl",
	"img",
	"image",
	"imgurl",
	"albumpic",
	"album_pic",
	"pic120",
	"hts_MVPIC",
}

// FindCover extracts a cover-art URL from a raw record, trying the flat field
// priority list and then one nested artist-detail path. Returns an empty
// string, never a missing value, when nothing is found.
func FindCover(rec gjson.Result) string {
	for _, field := range coverFields {
		if v := rec.Get(field); v.Exists() && v.String() != "" {
			return v.String()
		}
	}
	if v := rec.Get("artist.img1v1Url"); v.Exists() && v.String() != "" {
		return v.String()
	}
	return ""
}
