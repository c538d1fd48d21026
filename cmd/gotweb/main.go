package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	root := &cobra.Command{
		Use:   "gotweb",
		Short: "Repository browser plumbing for got repositories",
	}

	root.AddCommand(newVersionCmd())
	root.AddCommand(newResolveCmd())
	root.AddCommand(newRefsCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println("gotweb 0.1.0-dev")
		},
	}
}
