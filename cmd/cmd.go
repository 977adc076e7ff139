// submodule cmd contains command definitions
package main

import "github.com/urfave/cli/v3"

func sourceFlag() *cli.StringFlag {
	return &cli.StringFlag{
		Name:    "source",
		Aliases: []string{"s"},
		Usage:   "Provider to query (netease|qq|kuwo, also wy/tx/kw)",
		Value:   "netease",
	}
}

func jsonFlags() []cli.Flag {
	return []cli.Flag{
		&cli.BoolFlag{
			Name:  "json",
			Usage: "Output raw JSON",
		},
		&cli.BoolFlag{
			Name:  "pretty",
			Usage: "Pretty-print JSON output",
		},
	}
}

func exportFlag() *cli.StringFlag {
	return &cli.StringFlag{
		Name:    "export",
		Aliases: []string{"o"},
		Usage:   "Write the listing to a file (.csv, .md or plain text)",
	}
}

// searchCommand runs a keyword search on one provider or all of them
func searchCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "search",
		Usage: "Search for tracks",
		Arguments: []cli.Argument{
			&cli.StringArg{
				Name: "keyword",
			},
		},
		Flags: append([]cli.Flag{
			sourceFlag(),
			&cli.BoolFlag{
				Name:    "all",
				Aliases: []string{"a"},
				Usage:   "Fan out to every provider and interleave results",
			},
			&cli.IntFlag{
				Name:    "page",
				Aliases: []string{"p"},
				Usage:   "Result page (1-based)",
				Value:   1,
			},
			exportFlag(),
		}, jsonFlags()...),
		Action: r.Search,
	}
}

// chartCommand handles provider chart operations
func chartCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "chart",
		Usage: "Provider chart operations",
		Commands: []*cli.Command{
			{
				Name:   "list",
				Usage:  "List a provider's charts",
				Flags:  append([]cli.Flag{sourceFlag()}, jsonFlags()...),
				Action: r.ChartList,
			},
			{
				Name:  "detail",
				Usage: "List the songs of one chart",
				Arguments: []cli.Argument{
					&cli.StringArg{
						Name: "id",
					},
				},
				Flags:  append([]cli.Flag{sourceFlag(), exportFlag()}, jsonFlags()...),
				Action: r.ChartDetail,
			},
		},
	}
}

// lyricCommand fetches raw lyric text for a track
func lyricCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "lyric",
		Usage: "Fetch lyric text for a track",
		Arguments: []cli.Argument{
			&cli.StringArg{
				Name: "id",
			},
		},
		Flags:  []cli.Flag{sourceFlag()},
		Action: r.Lyric,
	}
}

// resolveCommand obtains the playable URL, lyric and cover for a track
func resolveCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "resolve",
		Usage: "Resolve a track to its playable URL",
		Arguments: []cli.Argument{
			&cli.StringArg{
				Name: "id",
			},
		},
		Flags: append([]cli.Flag{
			sourceFlag(),
			&cli.StringFlag{
				Name:    "quality",
				Aliases: []string{"q"},
				Usage:   "Quality tier (128k|320k|flac|flac24bit)",
			},
		}, jsonFlags()...),
		Action: r.Resolve,
	}
}

// favoritesCommand manages the local favorites store
func favoritesCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "favorites",
		Aliases: []string{"fav"},
		Usage:   "Manage favorite tracks",
		Commands: []*cli.Command{
			{
				Name:  "add",
				Usage: "Add a track to favorites",
				Arguments: []cli.Argument{
					&cli.StringArg{
						Name: "id",
					},
				},
				Flags: []cli.Flag{
					sourceFlag(),
					&cli.StringFlag{
						Name:  "name",
						Usage: "Track name to store",
					},
					&cli.StringFlag{
						Name:  "artist",
						Usage: "Artist to store",
					},
				},
				Action: r.FavoriteAdd,
			},
			{
				Name:  "remove",
				Usage: "Remove a track from favorites",
				Arguments: []cli.Argument{
					&cli.StringArg{
						Name: "id",
					},
				},
				Flags:  []cli.Flag{sourceFlag()},
				Action: r.FavoriteRemove,
			},
			{
				Name:   "list",
				Usage:  "List favorite tracks",
				Flags:  append([]cli.Flag{exportFlag()}, jsonFlags()...),
				Action: r.FavoriteList,
			},
		},
	}
}

func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Create a config file and initialize the local store",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to configuration file",
				Value:   "config.toml",
			},
		},
		Action: r.Setup,
	}
}
