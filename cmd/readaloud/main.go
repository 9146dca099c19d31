package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"codeberg.org/snonux/readaloud/internal/cli"
)

func main() {
	// API keys may live in a .env file next to the working directory
	_ = godotenv.Load()

	// Create flags instance
	flags := cli.NewFlags()
	a := &app{flags: flags, out: os.Stdout, in: os.Stdin}

	// Create root command
	rootCmd := cli.CreateRootCommand(flags, cli.Runners{
		Read:       a.runRead,
		Chat:       a.runChat,
		History:    a.runHistory,
		ListModels: a.runListModels,
		Cache:      a.runCache,
	})

	// Set up command initialization
	cobra.OnInitialize(func() {
		cli.InitConfig(flags.CfgFile)
	})

	// Execute command
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
