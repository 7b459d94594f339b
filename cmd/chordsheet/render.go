package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/Southclaws/fault"
	"github.com/Southclaws/fault/fmsg"
	"github.com/dustin/go-humanize"
	"github.com/hako/durafmt"
	"github.com/spf13/cobra"

	"github.com/cbegin/chordsheet-go"
)

func newRenderCmd(g *globalFlags) *cobra.Command {
	var (
		inline    string
		output    string
		soundfont string
	)
	cmd := &cobra.Command{
		Use:   "render [sheet-file|-] -o out.mid|out.wav",
		Short: "Render a chord sheet to a MIDI or WAV file",
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
			song := chordsheet.Compile(text, cfg.NotationValue())
			r, err := chordsheet.RenderEvents(cmd.Context(), song, chordsheet.WithConfig(cfg))
			if err != nil {
				return err
			}

			var buf bytes.Buffer
			switch strings.ToLower(filepath.Ext(output)) {
			case ".mid", ".midi":
				err = r.WriteMIDI(&buf, chordsheet.WithConfig(cfg))
			case ".wav":
				err = r.WriteWAV(&buf, chordsheet.WithConfig(cfg))
			default:
				return fault.New(fmt.Sprintf("output %q: want a .mid or .wav file", output))
			}
			if err != nil {
				return err
			}
			if err := os.WriteFile(output, buf.Bytes(), 0o644); err != nil {
				return fault.Wrap(err, fmsg.With("write "+output))
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s (%s, %d bars, %s)\n",
				output, humanize.Bytes(uint64(buf.Len())), r.TotalBars, songLength(r))
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVar(&inline, "sheet", "", "sheet text instead of a file")
	f.StringVarP(&output, "output", "o", "", "output file; the extension picks the format")
	f.StringVar(&soundfont, "soundfont", "", "SoundFont (.sf2) file for WAV output")
	_ = cmd.MarkFlagRequired("output")
	return cmd
}

func newEventsCmd(g *globalFlags) *cobra.Command {
	var inline string
	cmd := &cobra.Command{
		Use:   "events [sheet-file|-]",
		Short: "Print the scheduled event stream",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := g.load()
			if err != nil {
				return err
			}
			text, err := readSheet(cmd, args, inline)
			if err != nil {
				return err
			}
			r, err := chordsheet.RenderEvents(cmd.Context(), chordsheet.Compile(text, cfg.NotationValue()), chordsheet.WithConfig(cfg))
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, ev := range r.Events {
				fmt.Fprintln(out, ev)
			}
			fmt.Fprintf(out, "%d events, %d bars, %s\n", len(r.Events), r.TotalBars, songLength(r))
			return nil
		},
	}
	cmd.Flags().StringVar(&inline, "sheet", "", "sheet text instead of a file")
	return cmd
}

func songLength(r chordsheet.Rendering) string {
	d := time.Duration(r.Duration() * float64(time.Second))
	if d < time.Second {
		return d.Round(time.Millisecond).String()
	}
	return durafmt.Parse(d.Round(time.Second)).LimitFirstN(2).String()
}
