package main

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"time"

	"github.com/hako/durafmt"
	"github.com/spf13/cobra"

	"github.com/cbegin/chordsheet-go"
)

func newPlayCmd(g *globalFlags) *cobra.Command {
	var (
		inline    string
		soundfont string
		fromLine  int
		fromItem  int
	)
	cmd := &cobra.Command{
		Use:   "play [sheet-file|-]",
		Short: "Play a chord sheet through a SoundFont",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := g.load()
			if err != nil {
				return err
			}
			if soundfont != "" {
				cfg.Audio.SoundFont = soundfont
			}
			text, err := readSheet(cmd, args, inline)
			if err != nil {
				return err
			}

			p, err := chordsheet.NewPlayer(
				chordsheet.WithConfig(cfg),
				chordsheet.WithStart(fromLine-1, fromItem-1),
				chordsheet.WithLogger(slog.Default()),
			)
			if err != nil {
				return err
			}
			defer p.Close()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()

			watch := p.Watch()
			if err := p.PlaySheet(text); err != nil {
				return err
			}
			done := make(chan error, 1)
			go func() { done <- p.Wait() }()

			out := cmd.OutOrStdout()
			started := time.Now()
			for {
				select {
				case ev := <-watch:
					if ev.Kind == chordsheet.EventChord {
						m := ev.Event.Meta
						fmt.Fprintf(out, "bar %3d/%-3d %-12s %v\n", m.Bar, m.TotalBars, m.Symbol, ev.Event.Notes)
					}
				case <-ctx.Done():
					if err := p.Stop(); err != nil {
						return err
					}
					fmt.Fprintf(out, "stopped after %s\n", durafmt.Parse(time.Since(started)).LimitFirstN(2))
					return nil
				case err := <-done:
					if err != nil {
						return err
					}
					fmt.Fprintf(out, "played %s\n", durafmt.Parse(time.Since(started)).LimitFirstN(2))
					return nil
				}
			}
		},
	}
	f := cmd.Flags()
	f.StringVar(&inline, "sheet", "", "sheet text instead of a file")
	f.StringVar(&soundfont, "soundfont", "", "SoundFont (.sf2) file, overrides audio.soundfont")
	f.IntVar(&fromLine, "from-line", 1, "start at this line (1-based)")
	f.IntVar(&fromItem, "from-item", 1, "start at this item of the line (1-based)")
	return cmd
}
