package cmd

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "smartcam",
	Short: "A multi-face tracking engine for browser smart cameras",
	Long: `Smartcam turns a stream of camera frames into a live session report:
it tracks and re-identifies faces across frames, derives who is speaking
and how much is happening, and aggregates everything into highlights,
KPIs, and a social graph of speaker turns.`,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)
}

func initConfig() {
	// .env file is optional, don't fail if not found
	_ = godotenv.Load()
}
