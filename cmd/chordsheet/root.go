package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/Southclaws/fault"
	"github.com/Southclaws/fault/fmsg"
	"github.com/spf13/cobra"

	"github.com/cbegin/chordsheet-go/internal/config"
	"github.com/cbegin/chordsheet-go/internal/logging"
	"github.com/cbegin/chordsheet-go/internal/picker"
)

// globalFlags override the config file for a single run.
type globalFlags struct {
	configPath string
	debug      bool
	tempo      float64
	key        string
	time       string
	picker     string
	tuning     string
	notation   string
}

func newRootCmd() *cobra.Command {
	g := &globalFlags{}
	root := &cobra.Command{
		Use:   "chordsheet",
		Short: "Play and render chord sheets",
		Long: `chordsheet resolves chord symbols, voices them for keyboard or guitar and
plays the result through a SoundFont or writes it to MIDI or WAV.

Sheets are plain text: chords separated by spaces, "Sym*beats" for explicit
durations, and {tempo: 90}, {time: 3/4}, {key: G}, {label: A}, {loop: A 2}
directives.`,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logging.Init(cmd.ErrOrStderr(), g.debug)
		},
	}
	pf := root.PersistentFlags()
	pf.StringVarP(&g.configPath, "config", "c", "", "YAML config file")
	pf.BoolVar(&g.debug, "debug", false, "debug logging with source locations")
	pf.Float64Var(&g.tempo, "tempo", 0, "starting tempo in BPM")
	pf.StringVar(&g.key, "key", "", "starting key, used by roman numerals")
	pf.StringVar(&g.time, "time", "", "starting time signature, e.g. 3/4")
	pf.StringVar(&g.picker, "picker", "", "voicing: keyboard or guitar")
	pf.StringVar(&g.tuning, "tuning", "", "guitar tuning preset: "+strings.Join(picker.TuningNames(), ", "))
	pf.StringVar(&g.notation, "notation", "", "note names: standard, german or solfege")

	root.AddCommand(
		newPlayCmd(g),
		newRenderCmd(g),
		newEventsCmd(g),
		newCheckCmd(g),
		newResolveCmd(g),
		newConfigCmd(),
	)
	return root
}

func (g *globalFlags) load() (config.Config, error) {
	cfg, err := config.Load(g.configPath)
	if err != nil {
		return cfg, err
	}
	if g.tempo > 0 {
		cfg.Tempo = g.tempo
	}
	if g.key != "" {
		cfg.Key = g.key
	}
	if g.time != "" {
		cfg.Time = g.time
	}
	if g.picker != "" {
		cfg.Picker.Kind = picker.Kind(strings.ToLower(g.picker))
	}
	if g.notation != "" {
		cfg.Notation = g.notation
	}
	if g.tuning != "" {
		t, ok := picker.LookupTuning(g.tuning)
		if !ok {
			return cfg, fault.New(fmt.Sprintf("unknown tuning %q", g.tuning))
		}
		cfg.Picker.Guitar.Tuning = config.Tuning{Name: g.tuning, Pitches: t}
	}
	return cfg, cfg.Validate()
}

// readSheet takes inline text first, then the file argument, with "-"
// meaning stdin.
func readSheet(cmd *cobra.Command, args []string, inline string) (string, error) {
	if strings.TrimSpace(inline) != "" {
		return inline, nil
	}
	if len(args) == 0 {
		return "", fault.New("no sheet: pass a file, - for stdin, or --sheet")
	}
	if args[0] == "-" {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return "", fault.Wrap(err, fmsg.With("read stdin"))
		}
		return string(data), nil
	}
	data, err := os.ReadFile(args[0])
	if err != nil {
		return "", fault.Wrap(err, fmsg.With("read sheet"))
	}
	return string(data), nil
}

func newConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Print a commented config file with the defaults",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprint(cmd.OutOrStdout(), config.Sample())
		},
	}
}
