// Command chordsheet plays chord sheets through a SoundFont, renders them to
// MIDI or WAV, and checks or resolves chord symbols.
package main

import "os"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
