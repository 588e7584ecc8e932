package cmd

import (
	"context"
	goflag "flag"
	"os"

	"github.com/spf13/cobra"
	"k8s.io/klog/v2"

	"github.com/bjulian5/scmsource/cmd/discover"
	"github.com/bjulian5/scmsource/cmd/eventcmd"
	"github.com/bjulian5/scmsource/cmd/list"
	trustcmd "github.com/bjulian5/scmsource/cmd/trust"
	"github.com/bjulian5/scmsource/internal/common"
	"github.com/bjulian5/scmsource/internal/ui"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "scmsource",
	Short: "Discover and track the buildable heads of a repository",
	Long: `scmsource finds the branches, pull requests, tags and releases of a
source repository that a CI system should build, decides which of them may
be built with the repository's privileges, and keeps a head table up to date
from webhook events.

The source is described by a YAML config file (see --config).`,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return cmd.Help()
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute(ctx context.Context) {
	err := rootCmd.ExecuteContext(ctx)
	klog.Flush()
	if err != nil {
		ui.Error(err)
		os.Exit(1)
	}
}

func init() {
	klogFlags := goflag.NewFlagSet("klog", goflag.ExitOnError)
	klog.InitFlags(klogFlags)
	rootCmd.PersistentFlags().AddGoFlagSet(klogFlags)
	rootCmd.PersistentFlags().String(common.ConfigFlag, "scmsource.yaml", "Path to the source config file")

	commands := []Command{
		&discover.Command{},
		&eventcmd.Command{},
		&trustcmd.Command{},
		&list.Command{},
	}

	for _, cmd := range commands {
		cmd.Register(rootCmd)
	}
}
