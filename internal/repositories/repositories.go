// package repositories provides the local persistence layer.
//
// The core depends only on the KV port; the sqlite implementation backs it
// for the CLI. Favorites and settings are the only persisted state — there
// is no server-side component and no durable queue.
package repositories

// KV is the key-value persistence port. Implementations must treat a
// missing key as (value="", found=false), never as an error.
type KV interface {
	// Get returns the stored value for key, reporting whether it exists.
	Get(key string) (string, bool, error)

	// Set stores value under key, overwriting any previous value.
	Set(key, value string) error

	// Delete removes key. Deleting a missing key is a no-op.
	Delete(key string) error

	// Close releases the underlying store.
	Close() error
}
