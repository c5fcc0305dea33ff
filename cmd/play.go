package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/lark/internal/models"
	"github.com/desertthunder/lark/internal/session"
	"github.com/desertthunder/lark/internal/shared"
	"github.com/urfave/cli/v3"
)

// Play plays a playlist headlessly, advancing when each track finishes.
// It returns after the last track unless --loop is set, or when the context is cancelled.
func (r *Runner) Play(ctx context.Context, cmd *cli.Command) error {
	playlistID, err := parseID(cmd, "playlist-id")
	if err != nil {
		return err
	}
	svc, err := r.library()
	if err != nil {
		return err
	}

	tracks, err := svc.ListTracks(playlistID)
	if err != nil {
		return err
	}
	if len(tracks) == 0 {
		return fmt.Errorf("%w: playlist %d has no tracks", shared.ErrTrackNotFound, playlistID)
	}

	start := tracks[0]
	if id := cmd.Int64("start"); id != 0 {
		found := false
		for _, t := range tracks {
			if t.TrackID == id {
				start, found = t, true
				break
			}
		}
		if !found {
			return fmt.Errorf("%w: %d is not in playlist %d", shared.ErrTrackNotFound, id, playlistID)
		}
	}

	eng := r.newEngine()
	defer eng.Terminate()

	if path := cmd.String("trace"); path != "" {
		trace, err := r.startTrace(eng, path)
		if err != nil {
			return err
		}
		defer trace.Stop()
	}

	sess, err := session.New(eng, session.Options{Logger: r.logger})
	if err != nil {
		return err
	}
	defer sess.Close()

	subID, snaps := sess.Store().Subscribe()
	defer sess.Store().Unsubscribe(subID)

	sess.SetQueue(playlistID, tracks)
	return r.playLoop(ctx, sess, snaps, start, cmd.Bool("loop"))
}

func (r *Runner) playLoop(ctx context.Context, sess *session.Session, snaps <-chan session.Snapshot, start models.Track, loop bool) error {
	svc, err := r.library()
	if err != nil {
		return err
	}

	// loads counts issued loads so each track end advances exactly once.
	loads, handled := 0, 0
	load := func(advance bool) error {
		loads++
		var err error
		if advance {
			err = sess.Next(ctx)
		} else {
			err = sess.LoadTrack(ctx, start)
		}
		if err != nil {
			return err
		}
		if !r.config.Player.Autoplay {
			return sess.Play(ctx)
		}
		return nil
	}

	if err := load(false); err != nil {
		return err
	}

	var (
		current  int64
		lastSecs = -1
		inline   bool // a progress line is open and needs a newline first
	)
	line := func(format string, args ...any) {
		if inline {
			r.writePlain("\n")
			inline = false
		}
		r.writePlain(format+"\n", args...)
	}
	for {
		select {
		case <-ctx.Done():
			line("Stopped")
			return nil
		case snap, ok := <-snaps:
			if !ok {
				return nil
			}
			if snap.Track == nil {
				continue
			}

			if snap.Track.TrackID != current {
				current = snap.Track.TrackID
				lastSecs = -1
				artist, _ := svc.Describe(*snap.Track)
				line("▶ %s - %s", artist, snap.Track.Name)
			}
			if secs := int(snap.Position); secs != lastSecs && snap.State == session.LoadedPlaying {
				lastSecs = secs
				r.writePlain("\r  %s / %s", shared.FormatSeconds(snap.Position), shared.FormatSeconds(snap.Duration))
				inline = true
			}

			if !snap.Finished() || handled == loads {
				continue
			}
			handled = loads

			last := snap.Queue[len(snap.Queue)-1]
			if last.TrackID == snap.Track.TrackID && !loop {
				line("Queue finished")
				return nil
			}
			if err := load(true); err != nil {
				return err
			}
		}
	}
}
