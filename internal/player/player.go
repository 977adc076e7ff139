// package player owns the playback controller: one combined resolution per
// selected track, a single automatic quality-degradation retry, and the
// routing decision between the instrumented and plain output paths.
package player

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"strings"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/wavecrest/harmonia/internal/models"
	"github.com/wavecrest/harmonia/internal/shared"
)

// State is the controller's position in the per-selection lifecycle:
// Requested -> Resolving -> {Playing | Degrading -> Resolving | Failed}.
type State string

const (
	StateIdle      State = "idle"
	StateRequested State = "requested"
	StateResolving State = "resolving"
	StatePlaying   State = "playing"
	StateDegrading State = "degrading"
	StateFailed    State = "failed"
)

// Resolver obtains the playable URL for a track at a quality tier. Satisfied
// by the aggregator.
type Resolver interface {
	Resolve(ctx context.Context, song models.Song, quality models.Quality) (models.ParseResult, error)
}

// Engine is the output port. Play receives the routing decision along with
// the stream URL; instrumented playback binds visualization taps to the
// handle. Bindings are one-shot: once a handle has been bound one way it
// cannot be detached, so switching posture between consecutive tracks
// requires Rebind to rebuild the handle first.
type Engine interface {
	Play(url string, instrumented bool) error
	Rebind()
}

// CDN hosts that reject cross-origin stream fetches. URLs served from these
// must play through the uninstrumented path or the fetch itself fails.
var corsUnfriendlyHosts = []string{
	".qq.com",
	".y.gtimg.cn",
	".kuwo.cn",
	".migu.cn",
}

// InstrumentedHost reports whether a stream URL's host permits the
// instrumented output path.
func InstrumentedHost(raw string) bool {
	parsed, err := url.Parse(raw)
	if err != nil {
		return false
	}
	host := strings.ToLower(parsed.Hostname())
	for _, suffix := range corsUnfriendlyHosts {
		if strings.HasSuffix(host, suffix) {
			return false
		}
	}
	return true
}

// Controller drives playback for one selection at a time. Selections are
// numbered; a resolution still in flight when a newer selection arrives is
// discarded on completion instead of overwriting the newer state.
type Controller struct {
	resolver Resolver
	engine   Engine
	logger   *log.Logger

	// engineMu serializes engine interaction; the sequence re-check under it
	// guarantees a superseded play can never run after the newer selection's
	// play has started
	engineMu sync.Mutex

	mu           sync.Mutex
	seq          uint64
	state        State
	current      models.Song
	quality      models.Quality
	streamURL    string
	retries      int
	bound        bool
	instrumented bool
}

// NewController creates a Controller over a resolver and an output engine.
func NewController(resolver Resolver, engine Engine, logger *log.Logger) *Controller {
	if logger == nil {
		logger = shared.NewLogger(io.Discard)
	}
	return &Controller{
		resolver: resolver,
		engine:   engine,
		logger:   logger,
		state:    StateIdle,
	}
}

// State returns the current lifecycle state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Current returns the active selection and its requested quality.
func (c *Controller) Current() (models.Song, models.Quality) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current, c.quality
}

// StreamURL returns the resolved stream URL of the playing track, empty
// until a selection reaches StatePlaying.
func (c *Controller) StreamURL() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.streamURL
}

// Select starts playback of a track. Manual selection resets the automatic
// retry budget and supersedes any resolution still in flight for a previous
// selection.
func (c *Controller) Select(ctx context.Context, song models.Song, quality models.Quality) error {
	if !song.IsValidID || shared.IsTempID(song.ID) {
		return shared.ErrInvalidID
	}
	if !quality.Valid() {
		quality = models.Lowest()
	}

	c.mu.Lock()
	c.seq++
	seq := c.seq
	c.current = song
	c.quality = quality
	c.streamURL = ""
	c.retries = 0
	c.state = StateRequested
	c.mu.Unlock()

	c.logger.Debug("track selected", "song", song.Key(), "quality", quality)
	return c.resolveAndPlay(ctx, seq, song, quality)
}

// OnEngineFailure reports that the engine rejected or lost an
// already-resolved stream. The same one-shot degradation applies as for a
// resolution dead-end, gated by the retry budget of the current selection.
func (c *Controller) OnEngineFailure(ctx context.Context) error {
	c.mu.Lock()
	if c.state != StatePlaying {
		c.mu.Unlock()
		return nil
	}
	seq, song, quality := c.seq, c.current, c.quality
	c.mu.Unlock()

	c.logger.Debug("engine reported failure", "song", song.Key(), "quality", quality)
	return c.degradeOrFail(ctx, seq, song, quality)
}

func (c *Controller) resolveAndPlay(ctx context.Context, seq uint64, song models.Song, quality models.Quality) error {
	if !c.transition(seq, StateResolving) {
		return nil
	}

	result, err := c.resolver.Resolve(ctx, song, quality)
	if err != nil || result.URL == "" {
		if err != nil {
			c.logger.Debug("resolution failed", "song", song.Key(), "quality", quality, "err", err)
		}
		return c.degradeOrFail(ctx, seq, song, quality)
	}
	return c.play(ctx, seq, song, quality, result.URL)
}

func (c *Controller) play(ctx context.Context, seq uint64, song models.Song, quality models.Quality, streamURL string) error {
	instrumented := InstrumentedHost(streamURL)

	c.engineMu.Lock()
	c.mu.Lock()
	if seq != c.seq {
		c.mu.Unlock()
		c.engineMu.Unlock()
		return nil
	}
	rebind := c.bound && c.instrumented != instrumented
	c.bound = true
	c.instrumented = instrumented
	c.mu.Unlock()

	if rebind {
		c.engine.Rebind()
	}
	err := c.engine.Play(streamURL, instrumented)
	c.engineMu.Unlock()
	if err != nil {
		c.logger.Debug("engine rejected stream", "song", song.Key(), "err", err)
		return c.degradeOrFail(ctx, seq, song, quality)
	}

	c.mu.Lock()
	if seq == c.seq {
		c.state = StatePlaying
		c.streamURL = streamURL
	}
	c.mu.Unlock()
	return nil
}

// degradeOrFail spends the selection's single automatic retry by dropping to
// the lowest tier; a failure at the lowest tier, or with the retry already
// spent, is terminal for this selection.
func (c *Controller) degradeOrFail(ctx context.Context, seq uint64, song models.Song, quality models.Quality) error {
	c.mu.Lock()
	if seq != c.seq {
		c.mu.Unlock()
		return nil
	}
	if quality.IsLowest() || c.retries > 0 {
		c.state = StateFailed
		c.mu.Unlock()
		return fmt.Errorf("%s at %s: %w", song.Key(), quality, shared.ErrPlaybackFailed)
	}
	c.retries++
	c.quality = models.Lowest()
	c.state = StateDegrading
	c.mu.Unlock()

	c.logger.Debug("degrading to lowest tier", "song", song.Key(), "from", quality)
	return c.resolveAndPlay(ctx, seq, song, models.Lowest())
}

// transition moves to state s unless the selection has been superseded.
func (c *Controller) transition(seq uint64, s State) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if seq != c.seq {
		return false
	}
	c.state = s
	return true
}
