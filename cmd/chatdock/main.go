package main

import (
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "chatdock",
	Short: "Self-hostable embeddable chat widget",
}

func main() {
	rootCmd.AddCommand(serveCmd, simulateCmd, sendCmd)
	if err := rootCmd.Execute(); err != nil {
		log.Fatal().Err(err).Msg("execute root command")
	}
}
