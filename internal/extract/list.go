package extract

import "github.com/tidwall/gjson"

// aliases for "the groups" in nested chart payloads
var groupFields = []string{"group", "groups", "groupList", "shoulderList"}

// aliases for the per-group (or top-level) song list
var listFields = []string{"list", "songlist", "songList", "musicList", "songs", "tracks", "abslist", "data"}

// flat top-level fields scanned when the payload is not a grouped chart.
// "data" is deliberately absent here; rule 4 handles the data wrapper.
var flatListFields = []string{"list", "songlist", "songList", "musicList", "songs", "tracks", "abslist", "info", "song"}

// looksLikeGroup reports whether a record carries a nested song list, i.e. it
// is a chart-group wrapper rather than a track.
func looksLikeGroup(rec gjson.Result) bool {
	for _, field := range listFields {
		if v := rec.Get(field); v.IsArray() {
			return true
		}
	}
	return false
}

// flattenGroups concatenates every group's song list, preserving group order
// then within-group order.
func flattenGroups(groups []gjson.Result) []gjson.Result {
	var out []gjson.Result
	for _, g := range groups {
		for _, field := range listFields {
			if v := g.Get(field); v.IsArray() {
				out = append(out, v.Array()...)
				break
			}
		}
	}
	return out
}

// looksLikeTrack reports whether the payload is itself a single track record.
func looksLikeTrack(rec gjson.Result) bool {
	hasID := false
	for _, field := range genericIDFields {
		if rec.Get(field).Exists() {
			hasID = true
			break
		}
	}
	if !hasID {
		hasID = rec.Get("songmid").Exists() || rec.Get("rid").Exists()
	}
	return hasID && (rec.Get("name").Exists() || rec.Get("songname").Exists() || rec.Get("title").Exists())
}

// scanFlatFields implements the priority scan over common list field names:
// the first present array-valued field wins, with one more group-flattening
// check on its first element.
func scanFlatFields(payload gjson.Result) ([]gjson.Result, bool) {
	for _, field := range flatListFields {
		v := payload.Get(field)
		if !v.IsArray() {
			continue
		}
		arr := v.Array()
		if len(arr) > 0 && looksLikeGroup(arr[0]) {
			return flattenGroups(arr), true
		}
		return arr, true
	}
	return nil, false
}

// ExtractList finds "the array of track-like records" inside an arbitrary
// JSON payload.
//
// Rules run in strict priority order; the first that yields a non-empty match
// wins. Grouped-chart detection must run before the generic field scan, or a
// flattened chart would be misread as a flat list of group-wrapper objects.
func ExtractList(payload gjson.Result) []gjson.Result {
	// rule 1: nested grouped-chart shapes
	for _, field := range groupFields {
		if v := payload.Get(field); v.IsArray() {
			if flat := flattenGroups(v.Array()); len(flat) > 0 {
				return flat
			}
		}
	}

	// rule 2: the payload itself is an array
	if payload.IsArray() {
		arr := payload.Array()
		if len(arr) > 0 && looksLikeGroup(arr[0]) {
			return flattenGroups(arr)
		}
		return arr
	}

	// rule 3: common field names at the top level
	if arr, ok := scanFlatFields(payload); ok {
		return arr
	}

	// rule 4: one level under a generic data wrapper
	if data := payload.Get("data"); data.Exists() {
		if data.IsArray() {
			return data.Array()
		}
		if arr, ok := scanFlatFields(data); ok {
			return arr
		}
	}

	// rule 5: the payload is a single track record
	if looksLikeTrack(payload) {
		return []gjson.Result{payload}
	}

	return nil
}
