package shared

import "testing"

func TestNormalizeURL(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"Empty", "", ""},
		{"Protocol Relative", "//p1.music.126.net/a.jpg", "https://p1.music.126.net/a.jpg"},
		{"HTTP Upgradable Host", "http://y.gtimg.cn/music/photo_new/x.jpg", "https://y.gtimg.cn/music/photo_new/x.jpg"},
		{"HTTP Upgradable Subdomain", "http://p2.music.126.net/b.jpg", "https://p2.music.126.net/b.jpg"},
		{"HTTP Unknown Host Untouched", "http://img.example.com/c.jpg", "http://img.example.com/c.jpg"},
		{"HTTPS Untouched", "https://img.example.com/c.jpg", "https://img.example.com/c.jpg"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := NormalizeURL(tc.in); got != tc.want {
				t.Errorf("NormalizeURL(%q) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}

func TestUpgradeImageURL(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"QQ Size Token", "https://y.gtimg.cn/music/photo_new/T002R150x150M000001.jpg", "https://y.gtimg.cn/music/photo_new/T002R500x500M000001.jpg"},
		{"Kuwo Size Path", "https://img1.kwcdn.kuwo.cn/star/100x100/0.jpg", "https://img1.kwcdn.kuwo.cn/star/500x500/0.jpg"},
		{"Netease Param", "https://p1.music.126.net/a.jpg?param=300y300", "https://p1.music.126.net/a.jpg?param=500y500"},
		{"No Token", "https://example.com/a.jpg", "https://example.com/a.jpg"},
		{"Combined With Protocol Fix", "//y.gtimg.cn/T002R300x300M000.jpg", "https://y.gtimg.cn/T002R500x500M000.jpg"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := UpgradeImageURL(tc.in); got != tc.want {
				t.Errorf("UpgradeImageURL(%q) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}
