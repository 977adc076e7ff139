// QQ secondary endpoints. Identity is always the mnemonic songmid; numeric
// song ids from these endpoints are not stable enough for later resolution.
package services

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/wavecrest/harmonia/internal/models"
	"github.com/wavecrest/harmonia/internal/shared"
)

const (
	qqSearchURL   = "http://c.y.qq.com/soso/fcgi-bin/search_for_qq_cp"
	qqTopListsURL = "http://c.y.qq.com/v8/fcg-bin/fcg_myqq_toplist.fcg"
	qqTopDetail   = "http://c.y.qq.com/v8/fcg-bin/fcg_v8_toplist_cp.fcg"
	qqLyricURL    = "http://c.y.qq.com/lyric/fcgi-bin/fcg_query_lyric_new.fcg"
)

// QQResolver is the hand-written fallback path for the QQ catalog.
type QQResolver struct {
	chain *ProxyChain
}

// NewQQResolver creates a QQ fallback resolver over the proxy chain.
func NewQQResolver(chain *ProxyChain) *QQResolver {
	return &QQResolver{chain: chain}
}

func (q *QQResolver) Source() models.Source { return models.SourceQQ }

// Search queries the soso endpoint.
func (q *QQResolver) Search(ctx context.Context, keyword string, page int) ([]models.Song, error) {
	if page < 1 {
		page = 1
	}
	params := url.Values{}
	params.Set("w", keyword)
	params.Set("format", "json")
	params.Set("p", strconv.Itoa(page))
	params.Set("n", "30")
	params.Set("aggr", "1")
	params.Set("lossless", "1")

	resp, err := q.chain.Do(ctx, ProxyRequest{URL: qqSearchURL + "?" + params.Encode()})
	if err != nil {
		return nil, err
	}

	var songs []models.Song
	for _, item := range resp.Get("data.song.list").Array() {
		song, ok := qqSongFromRecord(item)
		if !ok {
			continue
		}
		songs = append(songs, song)
	}
	return songs, nil
}

// TopLists returns the chart menu.
func (q *QQResolver) TopLists(ctx context.Context) ([]models.TopList, error) {
	params := url.Values{}
	params.Set("format", "json")
	params.Set("platform", "h5")
	params.Set("needNewCode", "1")

	resp, err := q.chain.Do(ctx, ProxyRequest{URL: qqTopListsURL + "?" + params.Encode()})
	if err != nil {
		return nil, err
	}

	var lists []models.TopList
	for _, group := range resp.Get("data.topList").Array() {
		pic := shared.UpgradeImageURL(group.Get("picUrl").String())
		lists = append(lists, models.TopList{
			ID:          group.Get("id").String(),
			Name:        group.Get("topTitle").String(),
			PicURL:      pic,
			CoverImgURL: pic,
		})
	}
	return lists, nil
}

// TopListDetail returns the songs of one chart. Each record arrives wrapped
// in a data envelope.
func (q *QQResolver) TopListDetail(ctx context.Context, id string) ([]models.Song, error) {
	params := url.Values{}
	params.Set("topid", id)
	params.Set("format", "json")
	params.Set("platform", "h5")
	params.Set("needNewCode", "1")
	params.Set("tpl", "3")
	params.Set("page", "detail")
	params.Set("type", "top")

	resp, err := q.chain.Do(ctx, ProxyRequest{URL: qqTopDetail + "?" + params.Encode()})
	if err != nil {
		return nil, err
	}

	var songs []models.Song
	for _, item := range resp.Get("songlist").Array() {
		song, ok := qqSongFromRecord(item.Get("data"))
		if !ok {
			continue
		}
		songs = append(songs, song)
	}
	return songs, nil
}

// Lyric fetches base64-encoded lyric text; a present translation block is
// appended after the original.
func (q *QQResolver) Lyric(ctx context.Context, id string) (string, error) {
	params := url.Values{}
	params.Set("songmid", id)
	params.Set("format", "json")
	params.Set("nobase64", "0")
	params.Set("g_tk", "5381")

	resp, err := q.chain.Do(ctx, ProxyRequest{URL: qqLyricURL + "?" + params.Encode()})
	if err != nil {
		return "", err
	}

	lyric := decodeBase64(resp.Get("lyric").String())
	if trans := decodeBase64(resp.Get("trans").String()); trans != "" {
		lyric += "\n" + trans
	}
	return lyric, nil
}

func qqSongFromRecord(item gjson.Result) (models.Song, bool) {
	mid := item.Get("songmid").String()
	if mid == "" {
		return models.Song{}, false
	}

	var names []string
	for _, s := range item.Get("singer").Array() {
		if name := s.Get("name").String(); name != "" {
			names = append(names, name)
		}
	}
	artist := strings.Join(names, "/")
	if artist == "" {
		artist = models.UnknownArtist
	}

	pic := ""
	if albumMid := item.Get("albummid").String(); albumMid != "" {
		pic = fmt.Sprintf("https://y.gtimg.cn/music/photo_new/T002R500x500M000%s.jpg", albumMid)
	}

	return models.Song{
		ID:        mid,
		Name:      orUnknown(item.Get("songname").String(), models.UnknownSong),
		Artist:    artist,
		Album:     item.Get("albumname").String(),
		Pic:       pic,
		Source:    models.SourceQQ,
		IsValidID: true,
	}, true
}

func decodeBase64(s string) string {
	if s == "" {
		return ""
	}
	decoded, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		// some deployments already serve plain text here
		return s
	}
	return string(decoded)
}
