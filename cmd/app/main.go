package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	version = "dev"
	commit  = "none"
)

type rootFlags struct {
	configPath string
	dev        bool
}

func main() {
	flags := &rootFlags{}
	root := &cobra.Command{
		Use:           "swapscribe",
		Short:         "Crypto subscription billing reconciled against SideShift",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&flags.configPath, "config", "config.yaml", "path to YAML config file")
	root.PersistentFlags().BoolVar(&flags.dev, "dev", false, "development mode (console logs, relaxed auth, fake gateway allowed)")

	root.AddCommand(serveCmd(flags))
	root.AddCommand(renewCmd(flags))
	root.AddCommand(reconcileCmd(flags))

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
