package cmd

import (
	"github.com/spf13/cobra"
	"github.com/stealthwatch/stealthwatch/server"
)

// serverCmd represents the server command
var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Start a stealthwatch server",
	Long:  `The stealthwatch server houses the panic flow, settings & episode records`,
	Run: func(cmd *cobra.Command, args []string) {
		server.Start(serverConfig(serverConfFile), isDevEnv, isTestEnv)
	},
}

var serverConfFile string

func init() {
	rootCmd.AddCommand(serverCmd)

	serverCmd.Flags().StringVar(&serverConfFile, "sconfig", "", "Config for server")
}
