// CORS relay iteration: every provider-bound request goes out through an
// ordered pool of relay prefixes, stopping at the first proxy that returns a
// parseable, non-garbage payload.
package services

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/tidwall/gjson"
	"golang.org/x/time/rate"

	"github.com/wavecrest/harmonia/internal/shared"
)

// DefaultProxies is the built-in relay pool, tried in order. A user-configured
// relay replaces the whole list; the two are never blended.
var DefaultProxies = []string{
	"https://api.allorigins.win/get?url=",
	"https://corsproxy.io/?",
	"https://api.codetabs.com/v1/proxy?quest=",
}

// attemptTimeout bounds a single relay attempt so one dead proxy cannot stall
// the whole fallback chain.
const attemptTimeout = 12 * time.Second

// Headers that are either browser-protected or would mark the request as
// cross-origin in a way upstream providers reject. Stripped before relaying.
var forbiddenHeaders = map[string]struct{}{
	"user-agent":     {},
	"referer":        {},
	"host":           {},
	"origin":         {},
	"cookie":         {},
	"sec-fetch-dest": {},
	"sec-fetch-mode": {},
	"sec-fetch-site": {},
	"sec-fetch-user": {},
	"connection":     {},
	"content-length": {},
}

// FilterHeaders drops every header on the forbidden list, case-insensitively.
func FilterHeaders(headers map[string]string) map[string]string {
	out := make(map[string]string, len(headers))
	for k, v := range headers {
		if _, blocked := forbiddenHeaders[strings.ToLower(k)]; blocked {
			continue
		}
		out[k] = v
	}
	return out
}

// ProxyRequest describes one upstream call to be relayed.
type ProxyRequest struct {
	Method  string
	URL     string
	Headers map[string]string
	Body    any // JSON-encoded for non-GET/HEAD methods
}

// ProxyChain relays requests through the pool sequentially. Concurrent
// attempts would multiply load on rate-limited providers and break
// first-success-wins, so the iteration is strictly ordered.
type ProxyChain struct {
	proxies []string
	client  *http.Client
	limiter *rate.Limiter
	logger  *log.Logger
}

// NewProxyChain builds a chain over the default pool, or over the single
// custom relay when one is configured.
func NewProxyChain(custom string, client *http.Client, logger *log.Logger) *ProxyChain {
	proxies := DefaultProxies
	if custom != "" {
		proxies = []string{custom}
	}
	if client == nil {
		client = http.DefaultClient
	}
	if logger == nil {
		logger = shared.NewLogger(io.Discard)
	}
	return &ProxyChain{
		proxies: proxies,
		client:  client,
		limiter: rate.NewLimiter(rate.Limit(5), 5),
		logger:  logger,
	}
}

// Do relays the request through the pool and returns the first usable
// payload. Exhausting the pool is a soft failure surfaced as
// [shared.ErrUnavailable]; callers treat it like an empty result.
func (p *ProxyChain) Do(ctx context.Context, req ProxyRequest) (gjson.Result, error) {
	method := req.Method
	if method == "" {
		method = http.MethodGet
	}
	target := shared.NormalizeURL(req.URL)
	headers := FilterHeaders(req.Headers)

	var body []byte
	if req.Body != nil && method != http.MethodGet && method != http.MethodHead {
		encoded, err := json.Marshal(req.Body)
		if err != nil {
			return gjson.Result{}, err
		}
		body = encoded
	}

	for _, prefix := range p.proxies {
		if err := p.limiter.Wait(ctx); err != nil {
			return gjson.Result{}, err
		}

		result, err := p.attempt(ctx, prefix, method, target, headers, body)
		if err != nil {
			p.logger.Debug("proxy attempt failed", "proxy", prefix, "err", err)
			continue
		}
		if isGarbage(result) {
			p.logger.Debug("garbage response, trying next proxy", "proxy", prefix)
			continue
		}
		return result, nil
	}

	return gjson.Result{}, shared.ErrUnavailable
}

func (p *ProxyChain) attempt(ctx context.Context, prefix, method, target string, headers map[string]string, body []byte) (gjson.Result, error) {
	attemptCtx, cancel := context.WithTimeout(ctx, attemptTimeout)
	defer cancel()

	proxied := prefix + url.QueryEscape(target)

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	httpReq, err := http.NewRequestWithContext(attemptCtx, method, proxied, reader)
	if err != nil {
		return gjson.Result{}, err
	}
	for k, v := range headers {
		httpReq.Header.Set(k, v)
	}
	if body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return gjson.Result{}, err
	}
	defer resp.Body.Close()

	// raw text first: several providers hand back JSONP or otherwise
	// non-standard payloads that a direct JSON decode would reject
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return gjson.Result{}, err
	}

	result, err := decodePayload(string(raw))
	if err != nil {
		return gjson.Result{}, err
	}
	return unwrapProxyEnvelope(result)
}

// jsonpRe matches identifier( ... );-style wrappers.
var jsonpRe = regexp.MustCompile(`(?s)^\s*[A-Za-z_$][\w$.]*\s*\(\s*(.*?)\s*\)\s*;?\s*$`)

// decodePayload parses raw response text as JSON, falling back to stripping
// one JSONP wrapper.
func decodePayload(raw string) (gjson.Result, error) {
	trimmed := strings.TrimSpace(raw)
	if gjson.Valid(trimmed) {
		return gjson.Parse(trimmed), nil
	}
	if m := jsonpRe.FindStringSubmatch(trimmed); m != nil && gjson.Valid(m[1]) {
		return gjson.Parse(m[1]), nil
	}
	return gjson.Result{}, shared.ErrUnavailable
}

// unwrapProxyEnvelope handles relays with a documented response-wrapping
// convention: {contents, status:{url}}. Contents may itself be JSON or JSONP.
func unwrapProxyEnvelope(result gjson.Result) (gjson.Result, error) {
	contents := result.Get("contents")
	if !contents.Exists() || !result.Get("status.url").Exists() {
		return result, nil
	}
	// null contents means the relay's own upstream fetch failed; the attempt
	// is unusable, not an empty success
	if contents.Type == gjson.Null {
		return gjson.Result{}, shared.ErrUnavailable
	}
	if contents.Type == gjson.String {
		return decodePayload(contents.String())
	}
	return contents, nil
}

// antiScrapingCode is the well-known sentinel upstream anti-bot layers attach
// to blocked requests.
const antiScrapingCode = -460

// isGarbage recognizes payloads that signal an unusable relay response
// rather than real provider data: the [-1] sentinel array and the
// anti-scraping error code.
func isGarbage(result gjson.Result) bool {
	if result.IsArray() {
		arr := result.Array()
		if len(arr) == 1 && arr[0].String() == "-1" {
			return true
		}
	}
	if result.Get("code").Int() == antiScrapingCode {
		return true
	}
	return false
}
