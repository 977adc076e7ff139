// Kuwo secondary endpoints. Response shapes here are fixed provider
// contracts, mapped straight into canonical songs without the generic list
// extractor.
package services

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/wavecrest/harmonia/internal/models"
	"github.com/wavecrest/harmonia/internal/shared"
)

const (
	kuwoSearchURL = "http://www.kuwo.cn/search/searchMusicBykeyWord"
	kuwoBangMenu  = "http://www.kuwo.cn/api/www/bang/bang/bangMenu"
	kuwoBangList  = "http://www.kuwo.cn/api/www/bang/bang/musicList"
	kuwoSongInfo  = "http://m.kuwo.cn/newh5/singles/songinfoandlrc"
)

// KuwoResolver is the hand-written fallback path for the Kuwo catalog.
type KuwoResolver struct {
	chain *ProxyChain
}

// NewKuwoResolver creates a Kuwo fallback resolver over the proxy chain.
func NewKuwoResolver(chain *ProxyChain) *KuwoResolver {
	return &KuwoResolver{chain: chain}
}

func (k *KuwoResolver) Source() models.Source { return models.SourceKuwo }

// Search queries the keyword endpoint. Records arrive upper-cased with a
// MUSIC_-prefixed resource id.
func (k *KuwoResolver) Search(ctx context.Context, keyword string, page int) ([]models.Song, error) {
	if page < 1 {
		page = 1
	}
	params := url.Values{}
	params.Set("vipver", "1")
	params.Set("client", "kt")
	params.Set("ft", "music")
	params.Set("encoding", "utf8")
	params.Set("rformat", "json")
	params.Set("mobi", "1")
	params.Set("pn", strconv.Itoa(page-1))
	params.Set("rn", "30")
	params.Set("all", keyword)

	resp, err := k.chain.Do(ctx, ProxyRequest{URL: kuwoSearchURL + "?" + params.Encode()})
	if err != nil {
		return nil, err
	}

	var songs []models.Song
	for _, item := range resp.Get("abslist").Array() {
		rid := strings.TrimPrefix(item.Get("MUSICRID").String(), "MUSIC_")
		if rid == "" {
			continue
		}
		songs = append(songs, models.Song{
			ID:        rid,
			Name:      orUnknown(item.Get("SONGNAME").String(), models.UnknownSong),
			Artist:    orUnknown(item.Get("ARTIST").String(), models.UnknownArtist),
			Album:     item.Get("ALBUM").String(),
			Pic:       shared.UpgradeImageURL(item.Get("hts_MVPIC").String()),
			Source:    models.SourceKuwo,
			IsValidID: true,
		})
	}
	return songs, nil
}

// TopLists flattens the grouped chart menu into one descriptor list.
func (k *KuwoResolver) TopLists(ctx context.Context) ([]models.TopList, error) {
	resp, err := k.chain.Do(ctx, ProxyRequest{URL: kuwoBangMenu + "?httpsStatus=1"})
	if err != nil {
		return nil, err
	}

	var lists []models.TopList
	for _, group := range resp.Get("data").Array() {
		for _, item := range group.Get("list").Array() {
			pic := shared.UpgradeImageURL(item.Get("pic").String())
			lists = append(lists, models.TopList{
				ID:              item.Get("sourceid").String(),
				Name:            item.Get("name").String(),
				UpdateFrequency: item.Get("pub").String(),
				PicURL:          pic,
				CoverImgURL:     pic,
			})
		}
	}
	return lists, nil
}

// TopListDetail returns the songs of one chart.
func (k *KuwoResolver) TopListDetail(ctx context.Context, id string) ([]models.Song, error) {
	params := url.Values{}
	params.Set("bangId", id)
	params.Set("pn", "1")
	params.Set("rn", "100")
	params.Set("httpsStatus", "1")

	resp, err := k.chain.Do(ctx, ProxyRequest{URL: kuwoBangList + "?" + params.Encode()})
	if err != nil {
		return nil, err
	}

	var songs []models.Song
	for _, item := range resp.Get("data.musicList").Array() {
		rid := item.Get("rid").String()
		if rid == "" {
			continue
		}
		songs = append(songs, models.Song{
			ID:        rid,
			Name:      orUnknown(item.Get("name").String(), models.UnknownSong),
			Artist:    orUnknown(item.Get("artist").String(), models.UnknownArtist),
			Album:     item.Get("album").String(),
			Pic:       shared.UpgradeImageURL(item.Get("pic").String()),
			Source:    models.SourceKuwo,
			IsValidID: true,
		})
	}
	return songs, nil
}

// Lyric fetches the timed lyric list and renders it as standard [mm:ss.xx]
// lines.
func (k *KuwoResolver) Lyric(ctx context.Context, id string) (string, error) {
	resp, err := k.songInfo(ctx, id)
	if err != nil {
		return "", err
	}

	lines := resp.Get("data.lrclist").Array()
	if len(lines) == 0 {
		return "", nil
	}

	var sb strings.Builder
	for _, line := range lines {
		secs, _ := strconv.ParseFloat(line.Get("time").String(), 64)
		m := int(secs) / 60
		s := int(secs) % 60
		cs := int((secs - float64(int(secs))) * 100)
		fmt.Fprintf(&sb, "[%02d:%02d.%02d]%s\n", m, s, cs, line.Get("lineLyric").String())
	}
	return sb.String(), nil
}

// Cover backfills cover art for one track. Invoked opportunistically (and
// concurrently across a result set) whenever a bulk fetch left covers empty.
func (k *KuwoResolver) Cover(ctx context.Context, id string) (string, error) {
	resp, err := k.songInfo(ctx, id)
	if err != nil {
		return "", err
	}
	return shared.UpgradeImageURL(resp.Get("data.songinfo.pic").String()), nil
}

func (k *KuwoResolver) songInfo(ctx context.Context, id string) (gjson.Result, error) {
	params := url.Values{}
	params.Set("musicId", id)
	params.Set("httpsStatus", "1")
	return k.chain.Do(ctx, ProxyRequest{URL: kuwoSongInfo + "?" + params.Encode()})
}

func orUnknown(s, placeholder string) string {
	if s == "" {
		return placeholder
	}
	return s
}
