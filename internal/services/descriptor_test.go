package services

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/wavecrest/harmonia/internal/models"
	"github.com/wavecrest/harmonia/internal/shared"
	itesting "github.com/wavecrest/harmonia/internal/testing"
)

// configServer serves method descriptors under /v1/methods/.
func configServer(t *testing.T, descriptors map[string]MethodDescriptor) *ConfigClient {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		desc, found := descriptors[r.URL.Path]
		if !found {
			json.NewEncoder(w).Encode(map[string]any{"code": 404, "msg": "no such method"})
			return
		}
		json.NewEncoder(w).Encode(map[string]any{"code": 0, "data": desc})
	}))
	t.Cleanup(server.Close)
	return NewConfigClient(server.URL, nil)
}

func TestExecutor(t *testing.T) {
	t.Run("Substitutes Variables And Returns Raw Payload", func(t *testing.T) {
		var relayed string
		_, prefix := relayServer(t, func(w http.ResponseWriter, r *http.Request) {
			relayed = r.URL.Query().Get("u")
			w.Write([]byte(`{"songs":[{"id":1,"name":"x"}]}`))
		})

		config := configServer(t, map[string]MethodDescriptor{
			"/v1/methods/netease/search": {
				Type:   "http",
				Method: "GET",
				URL:    "http://provider.example/search",
				Params: map[string]string{"s": "{{keyword}}", "offset": "{{(page - 1) * 30}}"},
			},
		})
		exec := NewExecutor(config, NewProxyChain(prefix, nil, nil), nil)

		result, err := exec.Execute(context.Background(), models.SourceNetease, "search",
			map[string]any{"keyword": "time", "page": 2})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if result.Get("songs.0.id").Int() != 1 {
			t.Errorf("unexpected payload %s", result.Raw)
		}
		if relayed != "http://provider.example/search?offset=30&s=time" {
			t.Errorf("unexpected relayed target %q", relayed)
		}
	})

	t.Run("Descriptor Fetch Failure Is Soft", func(t *testing.T) {
		config := configServer(t, nil)
		exec := NewExecutor(config, NewProxyChain("http://127.0.0.1:1/?u=", nil, nil), nil)

		_, err := exec.Execute(context.Background(), models.SourceQQ, "search", nil)
		if !errors.Is(err, shared.ErrDescriptor) {
			t.Errorf("expected ErrDescriptor, got %v", err)
		}
	})

	t.Run("Garbage From Every Proxy Is Soft Failure", func(t *testing.T) {
		_, prefix := relayServer(t, func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`[-1]`))
		})

		config := configServer(t, map[string]MethodDescriptor{
			"/v1/methods/kuwo/search": {Type: "http", URL: "http://provider.example/x"},
		})
		exec := NewExecutor(config, NewProxyChain(prefix, nil, nil), nil)

		_, err := exec.Execute(context.Background(), models.SourceKuwo, "search", nil)
		if !errors.Is(err, shared.ErrUnavailable) {
			t.Errorf("expected ErrUnavailable, got %v", err)
		}
	})

	t.Run("POST Body Placeholder Keeps Native Type", func(t *testing.T) {
		var gotBody map[string]any
		_, prefix := relayServer(t, func(w http.ResponseWriter, r *http.Request) {
			json.NewDecoder(r.Body).Decode(&gotBody)
			w.Write([]byte(`{}`))
		})

		config := configServer(t, map[string]MethodDescriptor{
			"/v1/methods/qq/search": {
				Type:   "http",
				Method: "POST",
				URL:    "http://provider.example/musicu",
				Body:   json.RawMessage(`{"param":{"page":"{{page}}","w":"{{keyword}}"}}`),
			},
		})
		exec := NewExecutor(config, NewProxyChain(prefix, nil, nil), nil)

		_, err := exec.Execute(context.Background(), models.SourceQQ, "search",
			map[string]any{"page": 3, "keyword": "abc"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		param := gotBody["param"].(map[string]any)
		if page, ok := param["page"].(float64); !ok || page != 3 {
			t.Errorf("expected numeric page field on the wire, got %T %v", param["page"], param["page"])
		}
		if param["w"] != "abc" {
			t.Errorf("unexpected keyword %v", param["w"])
		}
	})

	t.Run("Transform Applied With Cover Backfill", func(t *testing.T) {
		_, prefix := relayServer(t, func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"songs":[{"id":1,"name":"a","pic":"https://cdn/1.jpg"},{"id":2,"name":"b","pic":"https://cdn/2.jpg"}]}`))
		})

		config := configServer(t, map[string]MethodDescriptor{
			"/v1/methods/netease/search": {
				Type:      "http",
				URL:       "http://provider.example/search",
				Transform: `map(raw.songs, {{"id": #.id, "name": #.name}})`,
			},
		})
		exec := NewExecutor(config, NewProxyChain(prefix, nil, nil), nil)

		result, err := exec.Execute(context.Background(), models.SourceNetease, "search", nil)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if result.Get("0.pic").String() != "https://cdn/1.jpg" {
			t.Errorf("expected cover backfilled from raw payload, got %s", result.Raw)
		}
		if result.Get("1.pic").String() != "https://cdn/2.jpg" {
			t.Errorf("expected second cover backfilled, got %s", result.Raw)
		}
	})

	t.Run("Broken Transform Falls Back To Raw Payload", func(t *testing.T) {
		_, prefix := relayServer(t, func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"songs":[{"id":5}]}`))
		})

		config := configServer(t, map[string]MethodDescriptor{
			"/v1/methods/netease/search": {
				Type:      "http",
				URL:       "http://provider.example/search",
				Transform: `raw.songs.(`,
			},
		})
		exec := NewExecutor(config, NewProxyChain(prefix, nil, nil), nil)

		result, err := exec.Execute(context.Background(), models.SourceNetease, "search", nil)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if result.Get("songs.0.id").Int() != 5 {
			t.Errorf("expected raw payload fallback, got %s", result.Raw)
		}
	})
}

func TestConfigClient(t *testing.T) {
	t.Run("Transport Error Is Descriptor Failure", func(t *testing.T) {
		client := NewConfigClient("http://methods.example", &http.Client{
			Transport: itesting.NewMockRoundTripper(nil, errors.New("connection refused")),
		})

		if _, err := client.Method(context.Background(), models.SourceQQ, "search"); !errors.Is(err, shared.ErrDescriptor) {
			t.Errorf("expected ErrDescriptor, got %v", err)
		}
	})

	t.Run("Body Read Failure Is Descriptor Failure", func(t *testing.T) {
		resp := &http.Response{StatusCode: http.StatusOK, Body: &itesting.FCloser{}}
		client := NewConfigClient("http://methods.example", &http.Client{
			Transport: itesting.NewMockRoundTripper(resp, nil),
		})

		if _, err := client.Method(context.Background(), models.SourceQQ, "search"); !errors.Is(err, shared.ErrDescriptor) {
			t.Errorf("expected ErrDescriptor, got %v", err)
		}
	})

	t.Run("Non Zero Code Is Descriptor Failure", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"code":1,"msg":"signature expired"}`))
		}))
		defer server.Close()

		client := NewConfigClient(server.URL, nil)
		if _, err := client.Method(context.Background(), models.SourceQQ, "search"); !errors.Is(err, shared.ErrDescriptor) {
			t.Errorf("expected ErrDescriptor, got %v", err)
		}
	})

	t.Run("HTML Body Is Descriptor Failure", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`<html>gateway timeout</html>`))
		}))
		defer server.Close()

		client := NewConfigClient(server.URL, nil)
		if _, err := client.Method(context.Background(), models.SourceQQ, "search"); !errors.Is(err, shared.ErrDescriptor) {
			t.Errorf("expected ErrDescriptor, got %v", err)
		}
	})

	t.Run("Parse Returns Data Field", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/v1/parse" {
				t.Errorf("unexpected path %s", r.URL.Path)
			}
			var body map[string]any
			json.NewDecoder(r.Body).Decode(&body)
			if body["platform"] != "netease" || body["quality"] != "320k" {
				t.Errorf("unexpected parse request %v", body)
			}
			w.Write([]byte(`{"code":0,"data":{"url":"https://cdn/song.mp3","lyric":"[00:01.00]hi","cover":"https://cdn/c.jpg"}}`))
		}))
		defer server.Close()

		client := NewConfigClient(server.URL, nil)
		data, err := client.Parse(context.Background(), models.SourceNetease, []string{"42"}, models.Quality320)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if data.Get("url").String() != "https://cdn/song.mp3" {
			t.Errorf("unexpected parse data %s", data.Raw)
		}
	})
}
