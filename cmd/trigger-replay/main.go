package main

import (
	"os"

	"github.com/spf13/cobra"
)

var Command = &cobra.Command{
	Use:   "trigger-replay",
	Short: "replay a scripted stream through windows and triggers",
	Long: `trigger-replay feeds the elements, watermarks and processing time ticks of a
YAML script through the windowing and trigger evaluation core and prints every
pane it emits.`,
	SilenceUsage: true,
}

func main() {
	if err := Command.Execute(); err != nil {
		os.Exit(1)
	}
}
