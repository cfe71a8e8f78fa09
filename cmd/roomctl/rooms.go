package main

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/dkeye/Breakout/internal/domain"
)

func newCreateCmd(env *cliEnv) *cobra.Command {
	return &cobra.Command{
		Use:   "create [name]",
		Short: "Create a main room",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			api, err := env.api()
			if err != nil {
				return err
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), env.timeout())
			defer cancel()

			room, err := api.CreateMainRoom(ctx, domain.RoomName(firstArg(args)))
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", room.ID, room.Name)
			return nil
		},
	}
}

func newBreakoutCmd(env *cliEnv) *cobra.Command {
	return &cobra.Command{
		Use:   "breakout <parent-id> [name]",
		Short: "Create a breakout room under a main room",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			api, err := env.api()
			if err != nil {
				return err
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), env.timeout())
			defer cancel()

			parent, err := api.CreateBreakoutRoom(ctx, domain.RoomName(firstArg(args[1:])), domain.RoomID(args[0]))
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\tbreakouts=%v\n", parent.ID, parent.Name, parent.BreakoutIDs)
			return nil
		},
	}
}

func newListCmd(env *cliEnv) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List main rooms in progress with their live breakouts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			api, err := env.api()
			if err != nil {
				return err
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), env.timeout())
			defer cancel()

			views, err := api.ListActiveRooms(ctx)
			if err != nil {
				return err
			}
			printViews(cmd.OutOrStdout(), views)
			return nil
		},
	}
}

func printViews(w io.Writer, views []domain.LiveRoomView) {
	if len(views) == 0 {
		fmt.Fprintln(w, "no active rooms")
		return
	}
	for _, v := range views {
		fmt.Fprintf(w, "%s\t%s\n", v.ID, v.Name)
		for _, b := range v.Breakouts {
			fmt.Fprintf(w, "  └ %s\t%s\n", b.ID, b.Name)
		}
	}
}

func firstArg(args []string) string {
	if len(args) == 0 {
		return ""
	}
	return args[0]
}
