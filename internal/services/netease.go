// Netease secondary endpoints.
package services

import (
	"context"
	"net/url"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/wavecrest/harmonia/internal/models"
	"github.com/wavecrest/harmonia/internal/shared"
)

const (
	neteaseSearchURL   = "http://music.163.com/api/search/get/web"
	neteaseTopListsURL = "http://music.163.com/api/toplist"
	neteasePlaylistURL = "http://music.163.com/api/playlist/detail"
	neteaseLyricURL    = "http://music.163.com/api/song/lyric"
)

// NeteaseResolver is the hand-written fallback path for the Netease catalog.
type NeteaseResolver struct {
	chain *ProxyChain
}

// NewNeteaseResolver creates a Netease fallback resolver over the proxy chain.
func NewNeteaseResolver(chain *ProxyChain) *NeteaseResolver {
	return &NeteaseResolver{chain: chain}
}

func (n *NeteaseResolver) Source() models.Source { return models.SourceNetease }

// Search queries the web search endpoint.
func (n *NeteaseResolver) Search(ctx context.Context, keyword string, page int) ([]models.Song, error) {
	if page < 1 {
		page = 1
	}
	params := url.Values{}
	params.Set("s", keyword)
	params.Set("type", "1")
	params.Set("offset", strconv.Itoa((page-1)*30))
	params.Set("limit", "30")

	resp, err := n.chain.Do(ctx, ProxyRequest{URL: neteaseSearchURL + "?" + params.Encode()})
	if err != nil {
		return nil, err
	}

	var songs []models.Song
	for _, item := range resp.Get("result.songs").Array() {
		song, ok := neteaseSongFromRecord(item)
		if !ok {
			continue
		}
		songs = append(songs, song)
	}
	return songs, nil
}

// TopLists returns the chart descriptors. The endpoint populates both cover
// aliases from its coverImgUrl field.
func (n *NeteaseResolver) TopLists(ctx context.Context) ([]models.TopList, error) {
	resp, err := n.chain.Do(ctx, ProxyRequest{URL: neteaseTopListsURL})
	if err != nil {
		return nil, err
	}

	var lists []models.TopList
	for _, item := range resp.Get("list").Array() {
		pic := shared.UpgradeImageURL(item.Get("coverImgUrl").String())
		lists = append(lists, models.TopList{
			ID:              item.Get("id").String(),
			Name:            item.Get("name").String(),
			UpdateFrequency: item.Get("updateFrequency").String(),
			PicURL:          pic,
			CoverImgURL:     pic,
		})
	}
	return lists, nil
}

// TopListDetail returns the songs of one chart; charts are plain playlists
// on this provider.
func (n *NeteaseResolver) TopListDetail(ctx context.Context, id string) ([]models.Song, error) {
	resp, err := n.chain.Do(ctx, ProxyRequest{URL: neteasePlaylistURL + "?id=" + url.QueryEscape(id)})
	if err != nil {
		return nil, err
	}

	var songs []models.Song
	for _, item := range resp.Get("result.tracks").Array() {
		song, ok := neteaseSongFromRecord(item)
		if !ok {
			continue
		}
		songs = append(songs, song)
	}
	return songs, nil
}

// Lyric fetches original and translated lyric blocks; the translation is
// embedded after the original text when present.
func (n *NeteaseResolver) Lyric(ctx context.Context, id string) (string, error) {
	params := url.Values{}
	params.Set("id", id)
	params.Set("lv", "-1")
	params.Set("tv", "-1")

	resp, err := n.chain.Do(ctx, ProxyRequest{URL: neteaseLyricURL + "?" + params.Encode()})
	if err != nil {
		return "", err
	}

	lyric := resp.Get("lrc.lyric").String()
	if trans := resp.Get("tlyric.lyric").String(); trans != "" {
		lyric += "\n" + trans
	}
	return lyric, nil
}

func neteaseSongFromRecord(item gjson.Result) (models.Song, bool) {
	id := item.Get("id").String()
	if id == "" || id == "0" {
		return models.Song{}, false
	}

	artist := models.UnknownArtist
	if artists := item.Get("artists").Array(); len(artists) > 0 {
		names := make([]string, 0, len(artists))
		for _, a := range artists {
			if name := a.Get("name").String(); name != "" {
				names = append(names, name)
			}
		}
		if len(names) > 0 {
			artist = strings.Join(names, "/")
		}
	}

	return models.Song{
		ID:        id,
		Name:      orUnknown(item.Get("name").String(), models.UnknownSong),
		Artist:    artist,
		Album:     item.Get("album.name").String(),
		Pic:       shared.UpgradeImageURL(item.Get("album.picUrl").String()),
		Source:    models.SourceNetease,
		IsValidID: true,
	}, true
}
