package services

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/tidwall/gjson"

	"github.com/wavecrest/harmonia/internal/shared"
)

// relayServer returns an httptest server whose URL (plus "?u=") can be used
// as a single custom proxy prefix, and a pointer to the last relayed target.
func relayServer(t *testing.T, handler http.HandlerFunc) (*httptest.Server, string) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return server, server.URL + "/?u="
}

func TestProxyChain(t *testing.T) {
	t.Run("Custom Proxy Replaces Default List", func(t *testing.T) {
		chain := NewProxyChain("https://relay.example/?u=", nil, nil)
		if len(chain.proxies) != 1 || chain.proxies[0] != "https://relay.example/?u=" {
			t.Errorf("expected single custom proxy, got %v", chain.proxies)
		}

		chain = NewProxyChain("", nil, nil)
		if len(chain.proxies) != len(DefaultProxies) {
			t.Errorf("expected default pool, got %v", chain.proxies)
		}
	})

	t.Run("Target URL Is Encoded Into Prefix", func(t *testing.T) {
		var gotTarget string
		_, prefix := relayServer(t, func(w http.ResponseWriter, r *http.Request) {
			gotTarget = r.URL.Query().Get("u")
			w.Write([]byte(`{"ok":true}`))
		})

		chain := NewProxyChain(prefix, nil, nil)
		if _, err := chain.Do(context.Background(), ProxyRequest{URL: "http://provider.example/search?w=a b"}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if gotTarget != "http://provider.example/search?w=a b" {
			t.Errorf("relayed target mismatch: %q", gotTarget)
		}
	})

	t.Run("JSONP Response Unwrapped", func(t *testing.T) {
		_, prefix := relayServer(t, func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`MusicJsonCallback({"lyric":"abc"});`))
		})

		chain := NewProxyChain(prefix, nil, nil)
		result, err := chain.Do(context.Background(), ProxyRequest{URL: "http://provider.example/lyric"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if result.Get("lyric").String() != "abc" {
			t.Errorf("expected unwrapped jsonp payload, got %s", result.Raw)
		}
	})

	t.Run("Proxy Wrapper Shape Unwrapped", func(t *testing.T) {
		_, prefix := relayServer(t, func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"contents":"{\"songs\":[{\"id\":1}]}","status":{"url":"http://provider.example"}}`))
		})

		chain := NewProxyChain(prefix, nil, nil)
		result, err := chain.Do(context.Background(), ProxyRequest{URL: "http://provider.example/x"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if result.Get("songs.0.id").Int() != 1 {
			t.Errorf("expected wrapper contents, got %s", result.Raw)
		}
	})

	t.Run("Null Wrapper Contents Skips To Next Proxy", func(t *testing.T) {
		first, _ := relayServer(t, func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"contents":null,"status":{"url":"http://provider.example/x"}}`))
		})
		second, _ := relayServer(t, func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"songs":[{"id":9}]}`))
		})

		chain := NewProxyChain("", nil, nil)
		chain.proxies = []string{first.URL + "/?u=", second.URL + "/?u="}

		result, err := chain.Do(context.Background(), ProxyRequest{URL: "http://provider.example/x"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if result.Get("songs.0.id").Int() != 9 {
			t.Errorf("expected second proxy result, got %s", result.Raw)
		}
	})

	t.Run("Null Wrapper Contents From Every Proxy Is Soft Failure", func(t *testing.T) {
		only, _ := relayServer(t, func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"contents":null,"status":{"url":"http://provider.example/x"}}`))
		})

		chain := NewProxyChain(only.URL+"/?u=", nil, nil)
		if _, err := chain.Do(context.Background(), ProxyRequest{URL: "http://provider.example/x"}); !errors.Is(err, shared.ErrUnavailable) {
			t.Errorf("expected ErrUnavailable, got %v", err)
		}
	})

	t.Run("Garbage Sentinel Skips To Next Proxy", func(t *testing.T) {
		first, _ := relayServer(t, func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`[-1]`))
		})
		second, _ := relayServer(t, func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"songs":[{"id":9}]}`))
		})

		chain := NewProxyChain("", nil, nil)
		chain.proxies = []string{first.URL + "/?u=", second.URL + "/?u="}

		result, err := chain.Do(context.Background(), ProxyRequest{URL: "http://provider.example/x"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if result.Get("songs.0.id").Int() != 9 {
			t.Errorf("expected second proxy result, got %s", result.Raw)
		}
	})

	t.Run("All Proxies Garbage Is Soft Failure", func(t *testing.T) {
		first, _ := relayServer(t, func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`["-1"]`))
		})
		second, _ := relayServer(t, func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"code":-460,"msg":"cheating"}`))
		})

		chain := NewProxyChain("", nil, nil)
		chain.proxies = []string{first.URL + "/?u=", second.URL + "/?u="}

		_, err := chain.Do(context.Background(), ProxyRequest{URL: "http://provider.example/x"})
		if !errors.Is(err, shared.ErrUnavailable) {
			t.Errorf("expected ErrUnavailable, got %v", err)
		}
	})

	t.Run("Unreachable Proxy Skipped", func(t *testing.T) {
		dead := "http://127.0.0.1:1/?u="
		live, _ := relayServer(t, func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"ok":1}`))
		})

		chain := NewProxyChain("", nil, nil)
		chain.proxies = []string{dead, live.URL + "/?u="}

		result, err := chain.Do(context.Background(), ProxyRequest{URL: "http://provider.example/x"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if result.Get("ok").Int() != 1 {
			t.Errorf("expected live proxy result, got %s", result.Raw)
		}
	})

	t.Run("POST Body Relayed As JSON", func(t *testing.T) {
		var gotBody string
		var gotMethod string
		_, prefix := relayServer(t, func(w http.ResponseWriter, r *http.Request) {
			buf := make([]byte, r.ContentLength)
			r.Body.Read(buf)
			gotBody = string(buf)
			gotMethod = r.Method
			w.Write([]byte(`{}`))
		})

		chain := NewProxyChain(prefix, nil, nil)
		_, err := chain.Do(context.Background(), ProxyRequest{
			Method: http.MethodPost,
			URL:    "http://provider.example/x",
			Body:   map[string]any{"page": 1},
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if gotMethod != http.MethodPost {
			t.Errorf("expected POST, got %s", gotMethod)
		}
		if gotBody != `{"page":1}` {
			t.Errorf("unexpected body %q", gotBody)
		}
	})
}

func TestFilterHeaders(t *testing.T) {
	in := map[string]string{
		"User-Agent":     "spoofed",
		"Referer":        "http://y.qq.com",
		"Cookie":         "secret",
		"Origin":         "http://evil",
		"Sec-Fetch-Mode": "cors",
		"Content-Length": "10",
		"X-Custom":       "kept",
		"Accept":         "application/json",
	}

	out := FilterHeaders(in)

	for _, blocked := range []string{"User-Agent", "Referer", "Cookie", "Origin", "Sec-Fetch-Mode", "Content-Length"} {
		if _, present := out[blocked]; present {
			t.Errorf("header %s should be stripped", blocked)
		}
	}
	if out["X-Custom"] != "kept" || out["Accept"] != "application/json" {
		t.Errorf("allowed headers must survive, got %v", out)
	}
}

func TestDecodePayload(t *testing.T) {
	t.Run("Plain JSON", func(t *testing.T) {
		result, err := decodePayload(`{"a":1}`)
		if err != nil || result.Get("a").Int() != 1 {
			t.Errorf("plain json decode failed: %v %s", err, result.Raw)
		}
	})

	t.Run("JSONP With Dotted Identifier", func(t *testing.T) {
		result, err := decodePayload(`jsonp.cb1({"a":2});`)
		if err != nil || result.Get("a").Int() != 2 {
			t.Errorf("jsonp decode failed: %v %s", err, result.Raw)
		}
	})

	t.Run("Unparsable Text", func(t *testing.T) {
		if _, err := decodePayload(`<html>blocked</html>`); !errors.Is(err, shared.ErrUnavailable) {
			t.Errorf("expected ErrUnavailable, got %v", err)
		}
	})
}

func TestIsGarbage(t *testing.T) {
	cases := []struct {
		name string
		raw  string
		want bool
	}{
		{"Numeric Sentinel", `[-1]`, true},
		{"String Sentinel", `["-1"]`, true},
		{"Anti Scraping Code", `{"code":-460}`, true},
		{"Real Array", `[{"id":1}]`, false},
		{"Real Object", `{"code":0,"songs":[]}`, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := isGarbage(gjson.Parse(tc.raw)); got != tc.want {
				t.Errorf("isGarbage(%s) = %v, want %v", tc.raw, got, tc.want)
			}
		})
	}
}
