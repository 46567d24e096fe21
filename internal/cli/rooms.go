package cli

import (
	"fmt"
	"net/url"
	"strconv"

	"roomboard/internal/board"
	"roomboard/internal/model"

	"github.com/spf13/cobra"
)

type roomSummary struct {
	RoomID int    `json:"roomId"`
	Name   string `json:"name"`
	Cards  int    `json:"cards"`
}

// roomView is a room as scripts see it: cards already in display order.
type roomView struct {
	RoomID int            `json:"roomId"`
	Name   string         `json:"name"`
	Cards  []model.Card   `json:"cards"`
	Order  []model.CardID `json:"order"`
}

func newRoomView(id int, r model.Room) roomView {
	return roomView{RoomID: id, Name: r.DisplayName(id), Cards: r.OrderedCards(), Order: r.OrderIDs()}
}

// parseRoomArg applies the same rules as the roomId query parameter.
func parseRoomArg(raw string) (int, error) {
	id, ok := board.ParseRoomID(url.Values{board.QueryKey: {raw}})
	if !ok {
		return 0, fmt.Errorf("invalid room id %q (expected a non-negative integer)", raw)
	}
	return id, nil
}

func parseCardArg(raw string) (model.CardID, error) {
	id, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid card id %q", raw)
	}
	return id, nil
}

func newRoomsCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rooms",
		Short: "Room commands",
	}
	cmd.AddCommand(newRoomsListCmd(app))
	cmd.AddCommand(newRoomsShowCmd(app))
	return cmd
}

func newRoomsListCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List rooms",
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := app.newSession(commandContext(cmd), "", false)
			if err != nil {
				return writeErr(cmd, err)
			}
			defer sess.Close()

			ctrl := sess.controller()
			if err := ctrl.Load(commandContext(cmd)); err != nil {
				return writeErr(cmd, err)
			}
			rooms, _ := ctrl.Rooms()
			out := make([]roomSummary, 0, len(rooms))
			for i, r := range rooms {
				out = append(out, roomSummary{RoomID: i, Name: r.DisplayName(i), Cards: len(r.Cards)})
			}
			var hints []string
			if len(out) > 0 {
				hints = append(hints, "roomboard rooms show <roomId>")
			}
			return writeOut(cmd, app, map[string]any{"data": out, "_hints": hints})
		},
	}
}

func newRoomsShowCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "show <roomId>",
		Short: "Show a room with its cards in display order",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			roomID, err := parseRoomArg(args[0])
			if err != nil {
				return writeErr(cmd, err)
			}
			sess, err := app.newSession(commandContext(cmd), "", false)
			if err != nil {
				return writeErr(cmd, err)
			}
			defer sess.Close()

			ctrl := sess.controller(board.WithQuery(board.QueryFor(roomID)))
			if err := ctrl.Load(commandContext(cmd)); err != nil {
				return writeErr(cmd, err)
			}
			room, id, err := ctrl.SelectedRoom()
			if err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, map[string]any{
				"data":   newRoomView(id, room),
				"_hints": []string{fmt.Sprintf("roomboard cards add --room %d", id)},
			})
		},
	}
}
