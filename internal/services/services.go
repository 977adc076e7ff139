// package services talks to the outside world: the configuration service
// that supplies method descriptors, the CORS relay pool every provider
// request is routed through, and the hand-written secondary endpoints used
// when the declarative path comes back empty.
package services

import (
	"context"
	"encoding/json"

	"github.com/wavecrest/harmonia/internal/models"
)

// MethodDescriptor is a remotely-fetched declarative request template. It is
// untrusted configuration: the transform program and every {{expr}}
// placeholder run inside the sandboxed evaluator, never against ambient
// process state.
type MethodDescriptor struct {
	Type      string            `json:"type"` // only "http" is understood
	Method    string            `json:"method"`
	URL       string            `json:"url"`
	Params    map[string]string `json:"params"`
	Body      json.RawMessage   `json:"body"`
	Headers   map[string]string `json:"headers"`
	Transform string            `json:"transform"`
}

// Resolver is the hand-coded secondary request path for one provider,
// invoked only when the declarative descriptor path yields an empty or
// blocked result. Each implementation maps the fixed, known response shapes
// of its endpoints directly into canonical songs.
type Resolver interface {
	// Source returns the provider this resolver serves.
	Source() models.Source

	// Search runs a keyword search. page is 1-based.
	Search(ctx context.Context, keyword string, page int) ([]models.Song, error)

	// TopLists returns the provider's chart descriptors.
	TopLists(ctx context.Context) ([]models.TopList, error)

	// TopListDetail returns the songs of one chart.
	TopListDetail(ctx context.Context, id string) ([]models.Song, error)

	// Lyric fetches raw lyric text for a provider-local id.
	Lyric(ctx context.Context, id string) (string, error)
}

// CoverResolver is implemented by resolvers that can backfill cover art for
// a single track after a bulk fetch. Only Kuwo needs this today.
type CoverResolver interface {
	Cover(ctx context.Context, id string) (string, error)
}
