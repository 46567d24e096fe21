package cli

import (
	"context"
	"fmt"

	"roomboard/internal/board"
	"roomboard/internal/model"

	"github.com/spf13/cobra"
)

// runMutation selects roomID, runs fn, and prints the refetched room.
func runMutation(cmd *cobra.Command, app *App, roomID int, fn func(context.Context, *board.Controller) error) error {
	if roomID < 0 {
		return writeErr(cmd, errMissingRoom)
	}
	ctx := commandContext(cmd)
	sess, err := app.newSession(ctx, "", true)
	if err != nil {
		return writeErr(cmd, err)
	}
	defer sess.Close()

	ctrl := sess.controller(board.WithQuery(board.QueryFor(roomID)))
	if err := fn(ctx, ctrl); err != nil {
		return writeErr(cmd, err)
	}
	room, id, err := ctrl.SelectedRoom()
	if err != nil {
		return writeErr(cmd, err)
	}
	return writeOut(cmd, app, map[string]any{
		"data":   newRoomView(id, room),
		"_hints": []string{fmt.Sprintf("roomboard rooms show %d", id)},
	})
}

func newCardsCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cards",
		Short: "Card commands",
	}
	cmd.AddCommand(newCardsAddCmd(app))
	cmd.AddCommand(newCardsSetTextCmd(app))
	cmd.AddCommand(newCardsMoveCmd(app))
	cmd.AddCommand(newCardsDeleteCmd(app))
	return cmd
}

func newCardsAddCmd(app *App) *cobra.Command {
	var room int
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add an empty card to a room",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMutation(cmd, app, room, func(ctx context.Context, c *board.Controller) error {
				return c.AddCard(ctx)
			})
		},
	}
	cmd.Flags().IntVar(&room, "room", -1, "Room id")
	return cmd
}

func newCardsSetTextCmd(app *App) *cobra.Command {
	var room int
	var text string
	cmd := &cobra.Command{
		Use:   "set-text <cardId>",
		Short: "Replace a card's text",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cardID, err := parseCardArg(args[0])
			if err != nil {
				return writeErr(cmd, err)
			}
			return runMutation(cmd, app, room, func(ctx context.Context, c *board.Controller) error {
				return c.UpdateCardText(ctx, cardID, text)
			})
		},
	}
	cmd.Flags().IntVar(&room, "room", -1, "Room id")
	cmd.Flags().StringVar(&text, "text", "", "New card text (markdown)")
	_ = cmd.MarkFlagRequired("text")
	return cmd
}

func newCardsMoveCmd(app *App) *cobra.Command {
	var room int
	var x, y float64
	cmd := &cobra.Command{
		Use:   "move <cardId>",
		Short: "Set a card's position",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cardID, err := parseCardArg(args[0])
			if err != nil {
				return writeErr(cmd, err)
			}
			pos := model.Position{X: x, Y: y}
			return runMutation(cmd, app, room, func(ctx context.Context, c *board.Controller) error {
				return c.UpdatePosition(ctx, cardID, pos)
			})
		},
	}
	cmd.Flags().IntVar(&room, "room", -1, "Room id")
	cmd.Flags().Float64Var(&x, "x", 0, "X coordinate")
	cmd.Flags().Float64Var(&y, "y", 0, "Y coordinate")
	_ = cmd.MarkFlagRequired("x")
	_ = cmd.MarkFlagRequired("y")
	return cmd
}

func newCardsDeleteCmd(app *App) *cobra.Command {
	var room int
	cmd := &cobra.Command{
		Use:   "delete <cardId>",
		Short: "Delete a card",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cardID, err := parseCardArg(args[0])
			if err != nil {
				return writeErr(cmd, err)
			}
			return runMutation(cmd, app, room, func(ctx context.Context, c *board.Controller) error {
				return c.DeleteCard(ctx, cardID)
			})
		},
	}
	cmd.Flags().IntVar(&room, "room", -1, "Room id")
	return cmd
}

func newOrderCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "order",
		Short: "Card order commands",
	}
	cmd.AddCommand(newOrderSetCmd(app))
	return cmd
}

func newOrderSetCmd(app *App) *cobra.Command {
	var room int
	cmd := &cobra.Command{
		Use:   "set <cardId>...",
		Short: "Replace a room's card order",
		Example: `  # Cards 3, 1, 2 in that order
  roomboard order set --room 0 3 1 2`,
		RunE: func(cmd *cobra.Command, args []string) error {
			order := make([]model.CardID, 0, len(args))
			for _, a := range args {
				id, err := parseCardArg(a)
				if err != nil {
					return writeErr(cmd, err)
				}
				order = append(order, id)
			}
			return runMutation(cmd, app, room, func(ctx context.Context, c *board.Controller) error {
				return c.UpdateOrder(ctx, order)
			})
		},
	}
	cmd.Flags().IntVar(&room, "room", -1, "Room id")
	return cmd
}
