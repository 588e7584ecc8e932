package cmd

import "github.com/spf13/cobra"

// Command is a subcommand that registers itself with the root command.
type Command interface {
	Register(parent *cobra.Command)
}
