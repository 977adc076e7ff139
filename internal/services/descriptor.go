// Method descriptor execution: fetch the declarative template, substitute
// variables, relay the call through the proxy pool and apply the optional
// transform program.
package services

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/tidwall/gjson"

	"github.com/wavecrest/harmonia/internal/extract"
	"github.com/wavecrest/harmonia/internal/models"
	"github.com/wavecrest/harmonia/internal/shared"
)

// Executor runs server-supplied method descriptors against live provider
// endpoints.
type Executor struct {
	config *ConfigClient
	chain  *ProxyChain
	logger *log.Logger
}

// NewExecutor creates an executor over the given configuration client and
// proxy chain.
func NewExecutor(config *ConfigClient, chain *ProxyChain, logger *log.Logger) *Executor {
	if logger == nil {
		logger = shared.NewLogger(io.Discard)
	}
	return &Executor{config: config, chain: chain, logger: logger}
}

// Execute fetches the descriptor for (src, function), substitutes vars into
// it and issues the call through the relay pool.
//
// Failure is always soft: a missing descriptor, an exhausted proxy pool or a
// blocked upstream all surface as an error the caller treats exactly like an
// empty successful result. No signal distinguishes "provider has no data"
// from "this attempt was blocked"; the fallback trigger is emptiness either
// way.
func (e *Executor) Execute(ctx context.Context, src models.Source, function string, vars map[string]any) (gjson.Result, error) {
	desc, err := e.config.Method(ctx, src, function)
	if err != nil {
		e.logger.Debug("descriptor fetch failed", "source", src, "function", function, "err", err)
		return gjson.Result{}, err
	}
	if desc.Type != "" && desc.Type != "http" {
		return gjson.Result{}, shared.ErrDescriptor
	}

	target := SubstituteString(desc.URL, vars)
	if len(desc.Params) > 0 {
		query := url.Values{}
		for k, v := range desc.Params {
			query.Set(k, SubstituteString(v, vars))
		}
		sep := "?"
		if strings.Contains(target, "?") {
			sep = "&"
		}
		target += sep + query.Encode()
	}

	method := strings.ToUpper(desc.Method)
	if method == "" {
		method = http.MethodGet
	}

	var body any
	if len(desc.Body) > 0 && method != http.MethodGet && method != http.MethodHead {
		var decoded any
		if err := json.Unmarshal(desc.Body, &decoded); err == nil {
			body = SubstituteValue(decoded, vars)
		}
	}

	raw, err := e.chain.Do(ctx, ProxyRequest{
		Method:  method,
		URL:     target,
		Headers: desc.Headers,
		Body:    body,
	})
	if err != nil {
		return gjson.Result{}, err
	}

	if desc.Transform == "" {
		return raw, nil
	}

	out, ok := RunTransform(desc.Transform, raw)
	if !ok {
		// broken or empty transform output: hand the raw payload to the
		// caller's list extractor instead
		return raw, nil
	}

	patched := backfillCovers(out, raw, src)
	encoded, err := json.Marshal(patched)
	if err != nil {
		return raw, nil
	}
	return gjson.ParseBytes(encoded), nil
}

// backfillCovers repairs cover fields the transform discarded. Transforms are
// observed to systematically drop cover art, so when the output is an array
// of track-like objects missing pic, the original raw payload's track list is
// cross-referenced: by identifier first, by position as a fallback.
func backfillCovers(out any, raw gjson.Result, src models.Source) any {
	items, ok := out.([]any)
	if !ok {
		return out
	}

	rawList := extract.ExtractList(raw)
	coverByID := make(map[string]string, len(rawList))
	for _, rec := range rawList {
		id, ok := extract.FindIdentity(rec, src)
		if !ok {
			continue
		}
		if cover := extract.FindCover(rec); cover != "" {
			coverByID[id] = cover
		}
	}

	for i, item := range items {
		track, ok := item.(map[string]any)
		if !ok {
			continue
		}
		if pic, _ := track["pic"].(string); pic != "" {
			continue
		}

		cover := ""
		if id := stringifyValue(track["id"]); id != "" {
			cover = coverByID[id]
		}
		if cover == "" && i < len(rawList) {
			cover = extract.FindCover(rawList[i])
		}
		if cover != "" {
			track["pic"] = shared.UpgradeImageURL(cover)
		}
	}
	return items
}
