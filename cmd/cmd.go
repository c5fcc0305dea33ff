package main

import (
	"github.com/urfave/cli/v3"
)

func jsonFlags() []cli.Flag {
	return []cli.Flag{
		&cli.BoolFlag{
			Name:  "json",
			Usage: "Output as JSON",
		},
		&cli.BoolFlag{
			Name:  "pretty",
			Usage: "Pretty-print JSON output",
			Value: true,
		},
	}
}

func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Create config.toml and initialize the library database",
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

// importCommand adds audio files to the library.
func importCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:      "import",
		Usage:     "Import audio files or directories into the library",
		ArgsUsage: "<path> [path...]",
		Flags: []cli.Flag{
			&cli.Float64Flag{
				Name:  "rate",
				Usage: "Files per second (0 disables throttling, default from config)",
				Value: -1,
			},
		},
		Action: r.Import,
	}
}

// playlistCommand groups playlist management operations.
func playlistCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "playlist",
		Aliases: []string{"pl"},
		Usage:   "Manage playlists",
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List playlists",
				Flags: append([]cli.Flag{
					&cli.BoolFlag{
						Name:  "user-only",
						Usage: "Hide the library-wide playlist",
					},
				}, jsonFlags()...),
				Action: r.PlaylistList,
			},
			{
				Name:      "create",
				Usage:     "Create a playlist",
				Arguments: []cli.Argument{&cli.StringArg{Name: "name"}},
				Action:    r.PlaylistCreate,
			},
			{
				Name:      "rename",
				Usage:     "Rename a playlist",
				Arguments: []cli.Argument{&cli.StringArg{Name: "id"}, &cli.StringArg{Name: "name"}},
				Action:    r.PlaylistRename,
			},
			{
				Name:      "delete",
				Usage:     "Delete a playlist (its tracks stay in the library)",
				Arguments: []cli.Argument{&cli.StringArg{Name: "id"}},
				Action:    r.PlaylistDelete,
			},
			{
				Name:      "add",
				Usage:     "Add a track to a playlist",
				Arguments: []cli.Argument{&cli.StringArg{Name: "track-id"}, &cli.StringArg{Name: "playlist-id"}},
				Action:    r.PlaylistAdd,
			},
			{
				Name:      "remove",
				Usage:     "Remove a track from a playlist",
				Arguments: []cli.Argument{&cli.StringArg{Name: "track-id"}, &cli.StringArg{Name: "playlist-id"}},
				Action:    r.PlaylistRemove,
			},
			{
				Name:      "tracks",
				Usage:     "List the tracks of a playlist",
				Arguments: []cli.Argument{&cli.StringArg{Name: "id"}},
				Flags:     jsonFlags(),
				Action:    r.PlaylistTracks,
			},
			{
				Name:      "export",
				Usage:     "Export playlists to m3u, csv, markdown, txt or json",
				ArgsUsage: "<id> [id...]",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "format",
						Aliases: []string{"f"},
						Usage:   "Export format",
						Value:   "m3u",
					},
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "Output directory (default: lark_export_<epoch>)",
					},
					&cli.IntFlag{
						Name:  "workers",
						Usage: "Concurrent writers for multi-playlist exports",
						Value: 4,
					},
				},
				Action: r.PlaylistExport,
			},
		},
	}
}

// libraryCommand exposes storage maintenance.
func libraryCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "library",
		Usage: "Inspect and maintain the library database",
		Commands: []*cli.Command{
			{
				Name:   "path",
				Usage:  "Print the database file backing the library",
				Action: r.LibraryPath,
			},
			{
				Name:   "version",
				Usage:  "Print the applied schema version",
				Action: r.LibraryVersion,
			},
			{
				Name:   "rollback",
				Usage:  "Roll back the most recent schema migration",
				Action: r.LibraryRollback,
			},
		},
	}
}

// playCommand plays a playlist without the TUI.
func playCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:      "play",
		Usage:     "Play a playlist in the terminal",
		Arguments: []cli.Argument{&cli.StringArg{Name: "playlist-id"}},
		Flags: []cli.Flag{
			&cli.Int64Flag{
				Name:  "start",
				Usage: "Track id to start from (default: first track)",
			},
			&cli.BoolFlag{
				Name:  "loop",
				Usage: "Wrap to the first track after the last one finishes",
			},
			&cli.StringFlag{
				Name:  "trace",
				Usage: "Write every engine event to this file as JSON lines",
			},
		},
		Action: r.Play,
	}
}

func tuiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "tui",
		Usage:  "Browse and play the library interactively",
		Action: r.TUI,
	}
}
