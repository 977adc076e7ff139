package models

import "testing"

func TestParseSource(t *testing.T) {
	cases := []struct {
		in   string
		want Source
	}{
		{"wy", SourceNetease},
		{"163", SourceNetease},
		{"netease", SourceNetease},
		{"tx", SourceQQ},
		{"qq", SourceQQ},
		{"kw", SourceKuwo},
		{"kuwo", SourceKuwo},
		{"radio-paradise", Source("radio-paradise")},
	}

	for _, tc := range cases {
		t.Run(tc.in, func(t *testing.T) {
			if got := ParseSource(tc.in); got != tc.want {
				t.Errorf("ParseSource(%q) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}

func TestQuality(t *testing.T) {
	t.Run("Ordering", func(t *testing.T) {
		if !Lowest().IsLowest() {
			t.Error("Lowest() must report IsLowest")
		}
		if QualityFlac24.IsLowest() {
			t.Error("flac24bit is not the lowest tier")
		}
	})

	t.Run("Valid", func(t *testing.T) {
		for _, q := range Qualities {
			if !q.Valid() {
				t.Errorf("%s should be valid", q)
			}
		}
		if Quality("64k").Valid() {
			t.Error("64k is not a known tier")
		}
	})
}

func TestSongKey(t *testing.T) {
	a := Song{ID: "1001", Source: SourceNetease}
	b := Song{ID: "1001", Source: SourceQQ}

	if a.Key() == b.Key() {
		t.Error("same id on different sources must produce distinct keys")
	}
	if a.Key() != "netease:1001" {
		t.Errorf("unexpected key %q", a.Key())
	}
}
