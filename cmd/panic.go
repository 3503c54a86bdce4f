package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/stealthwatch/stealthwatch/server"
)

// panicCmd fires a single panic episode from the terminal, without
// running the http listener.
var panicCmd = &cobra.Command{
	Use:   "panic",
	Short: "Trigger a one-off panic episode",
	Long: `Runs the full emergency flow once: location, live room, sms alert,
a short recording & the follow-up video sms.`,
	Run: func(cmd *cobra.Command, args []string) {
		if !isDevEnv && panicConfFile == "" {
			fmt.Fprintf(os.Stderr, "%v a server config is required outside dev mode\n", warningLabel)
			os.Exit(1)
		}

		cobra.CheckErr(server.TriggerOnce(serverConfig(panicConfFile), isDevEnv, isTestEnv))
	},
}

var panicConfFile string

func init() {
	rootCmd.AddCommand(panicCmd)

	panicCmd.Flags().StringVar(&panicConfFile, "sconfig", "", "Config for server")
}
