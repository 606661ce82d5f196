package main

import (
	"log"

	"github.com/absmach/fusion/fusiond"
	"github.com/spf13/cobra"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "fusiond",
		Short: "Fusion Daemon",
		Long:  `Fusion Daemon manages the lifecycle of the secure aggregation coordinator.`,
	}

	rootCmd.AddCommand(fusiond.NewCoordinatorCmd())

	if err := rootCmd.Execute(); err != nil {
		log.Fatal(err)
	}
}
