package main

import (
	"context"
	"fmt"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/wavecrest/harmonia/internal/formatter"
	"github.com/wavecrest/harmonia/internal/models"
	"github.com/wavecrest/harmonia/internal/repositories"
	"github.com/wavecrest/harmonia/internal/shared"
)

// Search runs a keyword search on one provider, or on all of them with
// round-robin interleaving when --all is set.
func (r *Runner) Search(ctx context.Context, cmd *cli.Command) error {
	keyword := cmd.StringArg("keyword")
	if keyword == "" {
		return fmt.Errorf("%w: keyword", shared.ErrMissingArgument)
	}
	page := int(cmd.Int("page"))

	var songs []models.Song
	var err error
	if cmd.Bool("all") {
		songs, err = r.agg.SearchAll(ctx, keyword, page)
	} else {
		songs, err = r.agg.Search(ctx, models.ParseSource(cmd.String("source")), keyword, page)
	}
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	if path := cmd.String("export"); path != "" {
		return formatter.WriteExport(path, "Search: "+keyword, songs)
	}
	if cmd.Bool("json") {
		return r.writeJSON(songs, cmd.Bool("pretty"))
	}
	r.writeSongs(songs)
	return nil
}

// ChartList lists a provider's charts.
func (r *Runner) ChartList(ctx context.Context, cmd *cli.Command) error {
	lists, err := r.agg.TopLists(ctx, models.ParseSource(cmd.String("source")))
	if err != nil {
		return fmt.Errorf("chart listing failed: %w", err)
	}

	if cmd.Bool("json") {
		return r.writeJSON(lists, cmd.Bool("pretty"))
	}
	r.writeTopLists(lists)
	return nil
}

// ChartDetail lists the songs of one chart.
func (r *Runner) ChartDetail(ctx context.Context, cmd *cli.Command) error {
	id := cmd.StringArg("id")
	if id == "" {
		return fmt.Errorf("%w: chart id", shared.ErrMissingArgument)
	}

	songs, err := r.agg.TopListDetail(ctx, models.ParseSource(cmd.String("source")), id)
	if err != nil {
		return fmt.Errorf("chart detail failed: %w", err)
	}

	if path := cmd.String("export"); path != "" {
		return formatter.WriteExport(path, "Chart "+id, songs)
	}
	if cmd.Bool("json") {
		return r.writeJSON(songs, cmd.Bool("pretty"))
	}
	r.writeSongs(songs)
	return nil
}

// Lyric prints raw lyric text for a (source, id) pair.
func (r *Runner) Lyric(ctx context.Context, cmd *cli.Command) error {
	id := cmd.StringArg("id")
	if id == "" {
		return fmt.Errorf("%w: track id", shared.ErrMissingArgument)
	}

	song := models.Song{
		ID:        id,
		Source:    models.ParseSource(cmd.String("source")),
		IsValidID: true,
	}
	lyric, err := r.agg.Lyric(ctx, song)
	if err != nil {
		return fmt.Errorf("lyric lookup failed: %w", err)
	}
	if lyric == "" {
		r.writePlain("no lyric found\n")
		return nil
	}
	r.writePlain("%s\n", lyric)
	return nil
}

// Resolve obtains {url, lyric, cover} for a (source, id) pair.
func (r *Runner) Resolve(ctx context.Context, cmd *cli.Command) error {
	id := cmd.StringArg("id")
	if id == "" {
		return fmt.Errorf("%w: track id", shared.ErrMissingArgument)
	}

	quality := models.Quality(cmd.String("quality"))
	if !quality.Valid() {
		quality = models.Quality(r.config.Playback.Quality)
	}

	song := models.Song{
		ID:        id,
		Source:    models.ParseSource(cmd.String("source")),
		IsValidID: true,
	}
	result, err := r.agg.Resolve(ctx, song, quality)
	if err != nil {
		return fmt.Errorf("resolution failed: %w", err)
	}

	if cmd.Bool("json") {
		return r.writeJSON(result, cmd.Bool("pretty"))
	}
	r.writePlain("url:   %s\n", result.URL)
	if result.Cover != "" {
		r.writePlain("cover: %s\n", result.Cover)
	}
	return nil
}

// FavoriteAdd stores a track in the favorites store.
func (r *Runner) FavoriteAdd(ctx context.Context, cmd *cli.Command) error {
	id := cmd.StringArg("id")
	if id == "" {
		return fmt.Errorf("%w: track id", shared.ErrMissingArgument)
	}

	kv, done, err := r.openKV()
	if err != nil {
		return err
	}
	defer done()

	name := cmd.String("name")
	if name == "" {
		name = models.UnknownSong
	}
	artist := cmd.String("artist")
	if artist == "" {
		artist = models.UnknownArtist
	}

	song := models.Song{
		ID:        id,
		Name:      name,
		Artist:    artist,
		Source:    models.ParseSource(cmd.String("source")),
		IsValidID: true,
	}
	if err := repositories.NewFavoritesStore(kv).Add(song); err != nil {
		return fmt.Errorf("failed to add favorite: %w", err)
	}
	r.writePlain("added %s\n", song.Key())
	return nil
}

// FavoriteRemove deletes a track from the favorites store.
func (r *Runner) FavoriteRemove(ctx context.Context, cmd *cli.Command) error {
	id := cmd.StringArg("id")
	if id == "" {
		return fmt.Errorf("%w: track id", shared.ErrMissingArgument)
	}

	kv, done, err := r.openKV()
	if err != nil {
		return err
	}
	defer done()

	src := models.ParseSource(cmd.String("source"))
	if err := repositories.NewFavoritesStore(kv).Remove(src, id); err != nil {
		return fmt.Errorf("failed to remove favorite: %w", err)
	}
	r.writePlain("removed %s:%s\n", src, id)
	return nil
}

// FavoriteList prints the favorites store.
func (r *Runner) FavoriteList(ctx context.Context, cmd *cli.Command) error {
	kv, done, err := r.openKV()
	if err != nil {
		return err
	}
	defer done()

	songs, err := repositories.NewFavoritesStore(kv).List()
	if err != nil {
		return fmt.Errorf("failed to list favorites: %w", err)
	}

	if path := cmd.String("export"); path != "" {
		return formatter.WriteExport(path, "Favorites", songs)
	}
	if cmd.Bool("json") {
		return r.writeJSON(songs, cmd.Bool("pretty"))
	}
	r.writeSongs(songs)
	return nil
}

// Setup writes a config file from the embedded template and initializes the
// local store.
func (r *Runner) Setup(ctx context.Context, cmd *cli.Command) error {
	configPath := cmd.String("config")

	config := r.config
	if _, err := os.Stat(configPath); err == nil {
		r.logger.Info("config file already exists", "path", configPath)
		if loaded, err := shared.LoadConfig(configPath); err == nil {
			config = loaded
		}
	} else {
		if err := shared.CreateConfigFile(configPath); err != nil {
			return fmt.Errorf("failed to create config file: %w", err)
		}
		r.logger.Info("config file created", "path", configPath)
		if loaded, err := shared.LoadConfig(configPath); err == nil {
			config = loaded
		}
	}

	r.logger.Info("initializing local store", "path", config.Database.Path)
	kv, err := repositories.OpenSQLiteKV(config.Database.Path)
	if err != nil {
		return fmt.Errorf("failed to initialize store: %w", err)
	}
	defer kv.Close()

	r.logger.Infof("setup complete for store: %v", config.Database.Path)
	return nil
}
