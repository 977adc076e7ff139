// URL normalization applied to cover art and composed request URLs.
package shared

import "strings"

// Hosts verified to serve the same content over TLS. Plain http URLs on other
// hosts are left alone because several provider CDNs break on https.
var httpsUpgradableHosts = []string{
	".music.126.net",
	".y.gtimg.cn",
	".qq.com",
	".kuwo.cn",
	".kwcdn.kuwo.cn",
	".migu.cn",
}

// thumbnail size tokens upgraded in-place to a higher-resolution variant
var imageSizeUpgrades = [][2]string{
	{"R150x150", "R500x500"},
	{"R300x300", "R500x500"},
	{"100x100", "500x500"},
	{"130x130", "500x500"},
	{"param=200y200", "param=500y500"},
	{"param=300y300", "param=500y500"},
}

// NormalizeURL fixes up a provider-supplied URL: protocol-relative URLs become
// https, http URLs on hosts known to support TLS are upgraded, everything else
// passes through unchanged. Empty input yields empty output.
func NormalizeURL(raw string) string {
	if raw == "" {
		return ""
	}
	if strings.HasPrefix(raw, "//") {
		return "https:" + raw
	}
	if strings.HasPrefix(raw, "http://") {
		rest := strings.TrimPrefix(raw, "http://")
		host := rest
		if i := strings.IndexByte(rest, '/'); i >= 0 {
			host = rest[:i]
		}
		for _, suffix := range httpsUpgradableHosts {
			if strings.HasSuffix(host, suffix) || host == strings.TrimPrefix(suffix, ".") {
				return "https://" + rest
			}
		}
	}
	return raw
}

// UpgradeImageURL normalizes a cover-art URL and swaps known low-resolution
// size tokens for their higher-resolution variants.
func UpgradeImageURL(raw string) string {
	fixed := NormalizeURL(raw)
	for _, pair := range imageSizeUpgrades {
		if strings.Contains(fixed, pair[0]) {
			fixed = strings.Replace(fixed, pair[0], pair[1], 1)
			break
		}
	}
	return fixed
}
