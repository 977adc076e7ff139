package repositories

import (
	"encoding/json"
	"fmt"

	"github.com/wavecrest/harmonia/internal/models"
)

const favoritesKey = "favorites"

// FavoritesStore persists the user's favorite tracks on the KV port as one
// JSON document. Malformed stored data is discarded and treated as an empty
// list rather than propagated.
type FavoritesStore struct {
	kv KV
}

// NewFavoritesStore creates a FavoritesStore over the given KV store.
func NewFavoritesStore(kv KV) *FavoritesStore {
	return &FavoritesStore{kv: kv}
}

// List returns all favorites in insertion order.
func (f *FavoritesStore) List() ([]models.Song, error) {
	raw, found, err := f.kv.Get(favoritesKey)
	if err != nil {
		return nil, fmt.Errorf("failed to load favorites: %w", err)
	}
	if !found {
		return nil, nil
	}

	var songs []models.Song
	if err := json.Unmarshal([]byte(raw), &songs); err != nil {
		// corrupt document, start over
		return nil, nil
	}
	for i := range songs {
		songs[i].IsValidID = true
	}
	return songs, nil
}

// Add appends a song, deduplicating on the (source, id) pair.
func (f *FavoritesStore) Add(song models.Song) error {
	songs, err := f.List()
	if err != nil {
		return err
	}
	for _, existing := range songs {
		if existing.Key() == song.Key() {
			return nil
		}
	}
	return f.save(append(songs, song))
}

// Remove deletes the song with the given (source, id) pair. Removing a song
// that is not present is a no-op.
func (f *FavoritesStore) Remove(src models.Source, id string) error {
	songs, err := f.List()
	if err != nil {
		return err
	}

	kept := songs[:0]
	for _, song := range songs {
		if song.Source == src && song.ID == id {
			continue
		}
		kept = append(kept, song)
	}
	if len(kept) == len(songs) {
		return nil
	}
	return f.save(kept)
}

func (f *FavoritesStore) save(songs []models.Song) error {
	raw, err := json.Marshal(songs)
	if err != nil {
		return fmt.Errorf("failed to encode favorites: %w", err)
	}
	if err := f.kv.Set(favoritesKey, string(raw)); err != nil {
		return fmt.Errorf("failed to store favorites: %w", err)
	}
	return nil
}
