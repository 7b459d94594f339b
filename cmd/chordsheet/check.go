package main

import (
	"fmt"
	"strings"

	"github.com/Southclaws/fault"
	"github.com/spf13/cobra"

	"github.com/cbegin/chordsheet-go"
	"github.com/cbegin/chordsheet-go/internal/theory"
)

func newCheckCmd(g *globalFlags) *cobra.Command {
	var inline string
	cmd := &cobra.Command{
		Use:   "check [sheet-file|-]",
		Short: "Report chords and directives that will be skipped",
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
			song := chordsheet.Compile(text, cfg.NotationValue())
			resolver := theory.NewResolver(cfg.NotationValue())
			out := cmd.OutOrStdout()

			problems := song.Problems()
			for _, p := range problems {
				line := p.String()
				if !strings.HasPrefix(p.Text, "{") {
					if s, ok := resolver.Suggest(p.Text); ok {
						line += fmt.Sprintf(" (did you mean %s?)", s)
					}
				}
				fmt.Fprintln(out, line)
			}
			fmt.Fprintf(out, "%d chords, %d problems\n", song.ChordCount(), len(problems))
			if len(problems) > 0 {
				return fault.New(fmt.Sprintf("%d problems found", len(problems)))
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&inline, "sheet", "", "sheet text instead of a file")
	return cmd
}
