package extract

import (
	"fmt"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/wavecrest/harmonia/internal/models"
	"github.com/wavecrest/harmonia/internal/shared"
)

// QQ album-art CDN template, used only when a record exposes an album mid but
// no usable image field.
const qqAlbumCoverTemplate = "https://y.gtimg.cn/music/photo_new/T002R500x500M000%s.jpg"

// Normalize maps raw provider records into canonical songs, filtering out
// null records. Name, artist and album always come out populated (with the
// documented placeholders when unresolvable); records with no discoverable
// identity get a temp_<token> placeholder and IsValidID=false.
func Normalize(list []gjson.Result, src models.Source) []models.Song {
	songs := make([]models.Song, 0, len(list))
	for _, rec := range list {
		if !rec.Exists() || rec.Type == gjson.Null {
			continue
		}

		// some provider endpoints wrap each record in {data:{...}}
		if data := rec.Get("data"); data.IsObject() {
			rec = data
		}

		song := models.Song{Source: src, IsValidID: true}

		id, ok := FindIdentity(rec, src)
		if !ok {
			id = shared.GenerateTempID()
			song.IsValidID = false
		}
		song.ID = id

		song.Name = firstString(rec, "name", "songname", "songName", "title", "SONGNAME")
		if song.Name == "" {
			song.Name = models.UnknownSong
		}

		song.Artist = resolveArtist(rec)
		song.Album = resolveAlbum(rec)
		song.Pic = resolveCover(rec, src)

		songs = append(songs, song)
	}
	return songs
}

func firstString(rec gjson.Result, fields ...string) string {
	for _, field := range fields {
		v := rec.Get(field)
		if v.Type == gjson.String && v.String() != "" {
			return v.String()
		}
	}
	return ""
}

// resolveArtist probes a plain string field, then the three known
// list-of-objects shapes, joining multiple performers with '/'.
func resolveArtist(rec gjson.Result) string {
	if s := firstString(rec, "artist", "singer", "ARTIST", "artistName"); s != "" {
		return s
	}

	for _, field := range []string{"artist", "artists", "singer", "ar"} {
		v := rec.Get(field)
		if !v.IsArray() {
			continue
		}
		var names []string
		for _, item := range v.Array() {
			name := item.Get("name").String()
			if name == "" {
				name = item.Get("singerName").String()
			}
			if name != "" {
				names = append(names, name)
			}
		}
		if len(names) > 0 {
			return strings.Join(names, "/")
		}
	}

	return models.UnknownArtist
}

// resolveAlbum handles both the object-with-name and flat-string album
// spellings. Unlike name and artist, a missing album stays empty.
func resolveAlbum(rec gjson.Result) string {
	for _, field := range []string{"album.name", "al.name"} {
		if v := rec.Get(field); v.String() != "" {
			return v.String()
		}
	}
	return firstString(rec, "album", "albumname", "albumName")
}

func resolveCover(rec gjson.Result, src models.Source) string {
	pic := FindCover(rec)
	if pic == "" {
		pic = firstString(rec, "album.picUrl", "al.picUrl")
	}

	// QQ records frequently carry no image at all but do expose the album
	// mid, which maps onto a stable CDN path.
	if pic == "" && src == models.SourceQQ {
		mid := firstString(rec, "albummid", "album.mid", "albumMid")
		if mid != "" {
			pic = fmt.Sprintf(qqAlbumCoverTemplate, mid)
		}
	}

	return shared.UpgradeImageURL(pic)
}
