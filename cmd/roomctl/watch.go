package main

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"golang.org/x/time/rate"

	"github.com/dkeye/Breakout/internal/adapters/notify"
)

func newWatchCmd(env *cliEnv) *cobra.Command {
	var once bool
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Print room topology change events as they happen",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			api, err := env.api()
			if err != nil {
				return err
			}
			// at most one reconnect every two seconds
			reconnect := rate.NewLimiter(rate.Every(2*time.Second), 1)
			for {
				if err := reconnect.Wait(cmd.Context()); err != nil {
					return nil
				}
				err := watchOnce(cmd.Context(), api.EventsURL(), cmd.OutOrStdout())
				if once || cmd.Context().Err() != nil {
					return err
				}
				log.Warn().Err(err).Str("module", "roomctl.watch").Msg("event stream lost, reconnecting")
			}
		},
	}
	cmd.Flags().BoolVar(&once, "once", false, "exit when the stream ends instead of reconnecting")
	return cmd
}

func watchOnce(ctx context.Context, url string, out io.Writer) error {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return fmt.Errorf("dial %s: %w", url, err)
	}
	defer conn.Close()

	stop := context.AfterFunc(ctx, func() { conn.Close() })
	defer stop()

	for {
		var ev notify.Event
		if err := conn.ReadJSON(&ev); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}
		fmt.Fprintf(out, "%s\t%s\n", time.Now().Format(time.TimeOnly), ev.Type)
	}
}
