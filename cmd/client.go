package cmd

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/sajjad-MoBe/tuplespace/internal/client"
	"github.com/sajjad-MoBe/tuplespace/internal/shared"
)

const clientUsage = "Usage: tuplespace client <hostname> <port> <requestFile>"

func newClientCommand() *cobra.Command {
	var timeout = client.DefaultTimeout

	cmd := &cobra.Command{
		Use:   "client <hostname> <port> <requestFile>",
		Short: "Send every request in a file to a tuple space server",
		Args:  cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) != 3 {
				fmt.Fprintln(cmd.OutOrStdout(), clientUsage)
				return nil
			}

			port, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("invalid port %q: %w", args[1], err)
			}

			cfg := client.DefaultConfig()
			cfg.Host = args[0]
			cfg.Port = port
			cfg.RequestFile = args[2]
			cfg.Timeout = timeout
			if err := cfg.Validate(); err != nil {
				return err
			}

			logger := shared.NewLoggerTo(cmd.ErrOrStderr(), shared.WARN)
			c := client.NewClient(cfg, cmd.OutOrStdout(), logger)
			return c.Run(cmd.Context())
		},
	}

	cmd.Flags().DurationVar(&timeout, "timeout", client.DefaultTimeout, "Connect and response timeout")
	return cmd
}
