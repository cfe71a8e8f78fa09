package main

import (
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/dkeye/Breakout/internal/client"
)

const (
	serverKey  = "server"
	timeoutKey = "timeout"
	verboseKey = "verbose"
)

func newRootCmd() *cobra.Command {
	v := viper.New()
	v.SetEnvPrefix("ROOMCTL")
	v.AutomaticEnv()

	root := &cobra.Command{
		Use:          "roomctl",
		Short:        "Create, list and join breakout rooms",
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if v.GetBool(verboseKey) {
				zerolog.SetGlobalLevel(zerolog.DebugLevel)
			}
		},
	}

	root.PersistentFlags().String("server", "http://localhost:8080", "breakout server base url")
	root.PersistentFlags().Duration("timeout", 10*time.Second, "per request timeout")
	root.PersistentFlags().BoolP("verbose", "v", false, "debug logging")
	_ = v.BindPFlag(serverKey, root.PersistentFlags().Lookup("server"))
	_ = v.BindPFlag(timeoutKey, root.PersistentFlags().Lookup("timeout"))
	_ = v.BindPFlag(verboseKey, root.PersistentFlags().Lookup("verbose"))

	env := &cliEnv{v: v}
	root.AddCommand(
		newCreateCmd(env),
		newBreakoutCmd(env),
		newListCmd(env),
		newWatchCmd(env),
		newShellCmd(env),
	)
	return root
}

// cliEnv resolves flag/env settings lazily, after cobra parsed flags.
type cliEnv struct {
	v *viper.Viper
}

func (e *cliEnv) api() (*client.API, error) {
	api, err := client.NewAPI(e.v.GetString(serverKey))
	if err != nil {
		return nil, fmt.Errorf("--server: %w", err)
	}
	return api, nil
}

func (e *cliEnv) timeout() time.Duration {
	if d := e.v.GetDuration(timeoutKey); d > 0 {
		return d
	}
	return 10 * time.Second
}
