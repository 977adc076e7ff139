// package aggregator composes the declarative descriptor path, the generic
// normalizer and the provider fallbacks into the operations the rest of the
// application consumes: search, charts, lyrics and playable-URL resolution.
package aggregator

import (
	"context"
	"errors"
	"io"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/tidwall/gjson"
	"golang.org/x/sync/errgroup"

	"github.com/wavecrest/harmonia/internal/extract"
	"github.com/wavecrest/harmonia/internal/models"
	"github.com/wavecrest/harmonia/internal/services"
	"github.com/wavecrest/harmonia/internal/shared"
)

const (
	parseCacheSize = 256
	parseCacheTTL  = 5 * time.Minute
)

// Aggregator owns the resolution pipeline and its caches. Both caches are
// best effort: a miss only costs extra network calls, and concurrent writes
// of the same key are idempotent (the later write wins).
type Aggregator struct {
	exec      *services.Executor
	config    *services.ConfigClient
	resolvers map[models.Source]services.Resolver

	parseCache *expirable.LRU[string, models.ParseResult]

	lyricMu    sync.Mutex
	lyricCache map[string]string // per-(source,id), session lifetime

	logger *log.Logger
}

// Options configures an Aggregator.
type Options struct {
	Executor  *services.Executor
	Config    *services.ConfigClient
	Resolvers []services.Resolver
	Logger    *log.Logger
}

// New creates an Aggregator.
func New(opts Options) *Aggregator {
	logger := opts.Logger
	if logger == nil {
		logger = shared.NewLogger(io.Discard)
	}

	resolvers := make(map[models.Source]services.Resolver, len(opts.Resolvers))
	for _, r := range opts.Resolvers {
		resolvers[r.Source()] = r
	}

	return &Aggregator{
		exec:       opts.Executor,
		config:     opts.Config,
		resolvers:  resolvers,
		parseCache: expirable.NewLRU[string, models.ParseResult](parseCacheSize, nil, parseCacheTTL),
		lyricCache: make(map[string]string),
		logger:     logger,
	}
}

// ClearCaches drops both caches. Correctness never depends on cache content.
func (a *Aggregator) ClearCaches() {
	a.parseCache.Purge()
	a.lyricMu.Lock()
	a.lyricCache = make(map[string]string)
	a.lyricMu.Unlock()
}

// Search runs a keyword search on one provider. The descriptor path runs
// first; an empty or failed result triggers the provider fallback when one
// exists. Soft failures come back as an empty list, never an error.
func (a *Aggregator) Search(ctx context.Context, src models.Source, keyword string, page int) ([]models.Song, error) {
	songs := a.declarative(ctx, src, "search", map[string]any{
		"keyword": keyword,
		"page":    page,
	})

	if len(songs) == 0 {
		if resolver, ok := a.resolvers[src]; ok {
			fallback, err := resolver.Search(ctx, keyword, page)
			if err != nil {
				a.logger.Debug("search fallback failed", "source", src, "err", err)
			}
			songs = fallback
		}
	}

	a.backfillCovers(ctx, src, songs)
	return songs, nil
}

// SearchAll fans the keyword out to every known provider concurrently and
// interleaves the result lists round-robin, so a combined results page shows
// variety near the top. One provider failing contributes an empty list and
// never fails the aggregate.
func (a *Aggregator) SearchAll(ctx context.Context, keyword string, page int) ([]models.Song, error) {
	lists := make([][]models.Song, len(models.KnownSources))

	var g errgroup.Group
	for i, src := range models.KnownSources {
		g.Go(func() error {
			songs, err := a.Search(ctx, src, keyword, page)
			if err != nil {
				a.logger.Debug("aggregate search branch failed", "source", src, "err", err)
				return nil
			}
			lists[i] = songs
			return nil
		})
	}
	g.Wait()

	return Interleave(lists...), nil
}

// Interleave merges result lists round-robin by position: element 0 of each
// list, then element 1, and so on. Exhausted lists simply stop contributing.
func Interleave(lists ...[]models.Song) []models.Song {
	total := 0
	longest := 0
	for _, list := range lists {
		total += len(list)
		if len(list) > longest {
			longest = len(list)
		}
	}

	merged := make([]models.Song, 0, total)
	for pos := 0; pos < longest; pos++ {
		for _, list := range lists {
			if pos < len(list) {
				merged = append(merged, list[pos])
			}
		}
	}
	return merged
}

// TopLists returns the chart descriptors of one provider.
func (a *Aggregator) TopLists(ctx context.Context, src models.Source) ([]models.TopList, error) {
	if result, err := a.exec.Execute(ctx, src, "toplist", nil); err == nil {
		lists := topListsFromPayload(result)
		if len(lists) > 0 {
			return lists, nil
		}
	}

	if resolver, ok := a.resolvers[src]; ok {
		lists, err := resolver.TopLists(ctx)
		if err != nil {
			a.logger.Debug("toplist fallback failed", "source", src, "err", err)
			return nil, nil
		}
		return lists, nil
	}
	return nil, nil
}

// TopListDetail returns the songs of one chart.
func (a *Aggregator) TopListDetail(ctx context.Context, src models.Source, id string) ([]models.Song, error) {
	songs := a.declarative(ctx, src, "toplist_detail", map[string]any{"id": id})

	if len(songs) == 0 {
		if resolver, ok := a.resolvers[src]; ok {
			fallback, err := resolver.TopListDetail(ctx, id)
			if err != nil {
				a.logger.Debug("toplist detail fallback failed", "source", src, "err", err)
			}
			songs = fallback
		}
	}

	a.backfillCovers(ctx, src, songs)
	return songs, nil
}

// Lyric returns raw lyric text for a song. Placeholder identities are
// rejected before any network call. The combined parse path runs first; the
// provider lyric endpoint is only consulted when parse yielded no text.
// Results are cached for the session per (source, id).
func (a *Aggregator) Lyric(ctx context.Context, song models.Song) (string, error) {
	if !song.IsValidID || shared.IsTempID(song.ID) {
		return "", shared.ErrInvalidID
	}

	key := song.Key()
	a.lyricMu.Lock()
	cached, hit := a.lyricCache[key]
	a.lyricMu.Unlock()
	if hit {
		return cached, nil
	}

	// the combined parse call can carry lyric text even when no playable
	// URL came back for the probe quality
	lyric := ""
	if result, err := a.Resolve(ctx, song, models.Lowest()); err == nil || errors.Is(err, shared.ErrNoPlayableURL) {
		lyric = result.Lyric
	}

	if lyric == "" {
		if resolver, ok := a.resolvers[song.Source]; ok {
			text, err := resolver.Lyric(ctx, song.ID)
			if err != nil {
				a.logger.Debug("lyric fallback failed", "source", song.Source, "id", song.ID, "err", err)
			}
			lyric = text
		}
	}

	if lyric != "" {
		a.lyricMu.Lock()
		a.lyricCache[key] = lyric
		a.lyricMu.Unlock()
	}
	return lyric, nil
}

// Resolve obtains {url, lyric, cover} for a song in one combined parse call,
// honoring the 5-minute result cache keyed by (source, id, quality).
func (a *Aggregator) Resolve(ctx context.Context, song models.Song, quality models.Quality) (models.ParseResult, error) {
	if !song.IsValidID || shared.IsTempID(song.ID) {
		return models.ParseResult{}, shared.ErrInvalidID
	}
	if !quality.Valid() {
		quality = models.Lowest()
	}

	key := song.Key() + ":" + string(quality)
	if cached, hit := a.parseCache.Get(key); hit {
		return cached, nil
	}

	data, err := a.config.Parse(ctx, song.Source, []string{song.ID}, quality)
	if err != nil {
		return models.ParseResult{}, err
	}

	result := models.ParseResult{
		URL:   data.Get("url").String(),
		Lyric: data.Get("lyric").String(),
		Cover: shared.UpgradeImageURL(data.Get("cover").String()),
	}
	if result.URL == "" {
		return result, shared.ErrNoPlayableURL
	}

	a.parseCache.Add(key, result)
	return result, nil
}

// topListsFromPayload decodes a descriptor-path chart payload. Chart shapes
// vary less than track lists, so a small field probe suffices here.
func topListsFromPayload(result gjson.Result) []models.TopList {
	records := result
	if !records.IsArray() {
		for _, field := range []string{"list", "data.list", "data.topList", "data"} {
			if v := result.Get(field); v.IsArray() {
				records = v
				break
			}
		}
	}
	if !records.IsArray() {
		return nil
	}

	var lists []models.TopList
	for _, rec := range records.Array() {
		id := rec.Get("id").String()
		if id == "" {
			id = rec.Get("sourceid").String()
		}
		name := rec.Get("name").String()
		if name == "" {
			name = rec.Get("topTitle").String()
		}
		if id == "" || name == "" {
			continue
		}

		pic := rec.Get("picUrl").String()
		if pic == "" {
			pic = rec.Get("coverImgUrl").String()
		}
		if pic == "" {
			pic = rec.Get("pic").String()
		}
		pic = shared.UpgradeImageURL(pic)

		freq := rec.Get("updateFrequency").String()
		if freq == "" {
			freq = rec.Get("pub").String()
		}

		lists = append(lists, models.TopList{
			ID:              id,
			Name:            name,
			UpdateFrequency: freq,
			PicURL:          pic,
			CoverImgURL:     pic,
		})
	}
	return lists
}

// declarative runs the descriptor path for one operation and normalizes
// whatever came back. Every failure mode collapses to an empty list; there
// is no signal separating "provider has no data" from "attempt was blocked",
// and the fallback trigger is emptiness either way.
func (a *Aggregator) declarative(ctx context.Context, src models.Source, function string, vars map[string]any) []models.Song {
	result, err := a.exec.Execute(ctx, src, function, vars)
	if err != nil {
		a.logger.Debug("descriptor path failed", "source", src, "function", function, "err", err)
		return nil
	}
	return extract.Normalize(extract.ExtractList(result), src)
}

// backfillCovers fills missing cover art after a bulk fetch, one concurrent
// request per uncovered track. Only providers exposing a per-track cover
// endpoint participate; individual failures leave that track untouched.
func (a *Aggregator) backfillCovers(ctx context.Context, src models.Source, songs []models.Song) {
	resolver, ok := a.resolvers[src]
	if !ok {
		return
	}
	covers, ok := resolver.(services.CoverResolver)
	if !ok {
		return
	}

	missing := false
	for _, s := range songs {
		if s.Pic == "" && s.IsValidID {
			missing = true
			break
		}
	}
	if !missing {
		return
	}

	var g errgroup.Group
	for i := range songs {
		if songs[i].Pic != "" || !songs[i].IsValidID {
			continue
		}
		g.Go(func() error {
			pic, err := covers.Cover(ctx, songs[i].ID)
			if err != nil {
				a.logger.Debug("cover backfill failed", "source", src, "id", songs[i].ID, "err", err)
				return nil
			}
			songs[i].Pic = pic
			return nil
		})
	}
	g.Wait()
}
