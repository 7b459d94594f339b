package main

import (
	"fmt"
	"strings"

	"github.com/Southclaws/fault"
	"github.com/spf13/cobra"

	"github.com/cbegin/chordsheet-go/internal/picker"
	"github.com/cbegin/chordsheet-go/internal/theory"
)

func newResolveCmd(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "resolve SYMBOL...",
		Short: "Resolve chord symbols and show how they are voiced",
		Long: `Resolve chord symbols and show how they are voiced. Symbols are voiced in
order, so a progression shows the voice leading the player would use.`,
		Example: "  chordsheet resolve Cmaj7 Am7 Dm7 G7\n  chordsheet resolve --key Eb --picker guitar I vi ii V7",
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := g.load()
			if err != nil {
				return err
			}
			resolver := theory.NewResolver(cfg.NotationValue())
			pk := cfg.NewPicker()
			out := cmd.OutOrStdout()
			failed := 0
			for _, sym := range args {
				ch, err := resolver.Resolve(sym, cfg.Key, theory.IsRoman(sym))
				if err != nil {
					failed++
					msg := fmt.Sprintf("%-10s %v", sym, err)
					if s, ok := resolver.Suggest(sym); ok {
						msg += fmt.Sprintf(" (did you mean %s?)", s)
					}
					fmt.Fprintln(out, msg)
					continue
				}
				notes := pk.Pick(ch)
				line := fmt.Sprintf("%-10s %-10s root %-2s bass %-2s notes %-14s midi %v",
					sym, ch.Name, ch.Root, ch.Bass, strings.Join(ch.Notes, " "), notes)
				if fs, ok := pk.Snapshot().(picker.FrettedState); ok && fs.HasPrev {
					line += " " + fs.Prev.String()
				}
				fmt.Fprintln(out, line)
			}
			if failed > 0 {
				return fault.New(fmt.Sprintf("%d of %d symbols did not resolve", failed, len(args)))
			}
			return nil
		},
	}
}
