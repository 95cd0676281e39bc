// Package main provides a terminal client for the relay.
package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/mahirxmc/nova-agent-2/internal/agents"
	"github.com/mahirxmc/nova-agent-2/internal/chatclient"
	"github.com/mahirxmc/nova-agent-2/internal/config"
	v1 "github.com/mahirxmc/nova-agent-2/internal/transport/http/v1"
)

const (
	transportSSE = "sse"
	transportWS  = "ws"
)

var v *viper.Viper

var rootCmd = &cobra.Command{
	Use:   "novachat",
	Short: "Chat with nova agents through the relay",
	Long: `novachat streams agent replies from a running relay.

Configuration is read from NOVA_CONFIG, the environment and flags, in
increasing order of precedence.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		t := strings.ToLower(v.GetString("TRANSPORT"))
		if t != transportSSE && t != transportWS {
			return fmt.Errorf("unknown transport %q (want %s or %s)", t, transportSSE, transportWS)
		}
		return nil
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the client version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "novachat %s\n", v1.Version)
	},
}

func init() {
	var err error
	v, err = config.NewViper()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	v.SetDefault("AGENT", agents.DefaultAgentID)
	v.SetDefault("TRANSPORT", transportSSE)

	flags := rootCmd.PersistentFlags()
	flags.String("relay", v.GetString("RELAY_URL"), "relay base URL")
	flags.String("agent", v.GetString("AGENT"), "agent id")
	flags.String("transport", v.GetString("TRANSPORT"), "stream transport: sse or ws")
	flags.Bool("plain", false, "disable styled output")
	_ = v.BindPFlag("RELAY_URL", flags.Lookup("relay"))
	_ = v.BindPFlag("AGENT", flags.Lookup("agent"))
	_ = v.BindPFlag("TRANSPORT", flags.Lookup("transport"))
	_ = v.BindPFlag("PLAIN", flags.Lookup("plain"))

	rootCmd.AddCommand(chatCmd, agentsCmd, versionCmd)
}

// newClient builds a relay client from the merged configuration.
func newClient() (*chatclient.Client, *config.Config, error) {
	cfg, err := config.FromViper(v)
	if err != nil {
		return nil, nil, err
	}
	return chatclient.NewClient(cfg.RelayURL, cfg.RequestGrace, cfg.StreamWindow), cfg, nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
