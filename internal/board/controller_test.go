package board

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"sync"
	"testing"

	"roomboard/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeAPI keeps rooms in memory and records every call as "METHOD path".
type fakeAPI struct {
	mu      sync.Mutex
	rooms   []model.Room
	calls   []string
	failOn  string
	failErr error
}

func newFakeAPI(rooms ...model.Room) *fakeAPI {
	return &fakeAPI{rooms: rooms}
}

func (f *fakeAPI) log(call string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call)
	if f.failOn != "" && f.failOn == call {
		return f.failErr
	}
	return nil
}

func (f *fakeAPI) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string{}, f.calls...)
}

func (f *fakeAPI) room(id int) *model.Room {
	if id < 0 || id >= len(f.rooms) {
		return nil
	}
	return &f.rooms[id]
}

func (f *fakeAPI) Rooms(ctx context.Context) ([]model.Room, error) {
	if err := f.log("GET /rooms"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]model.Room, len(f.rooms))
	for i, r := range f.rooms {
		out[i] = model.Room{Name: r.Name, Cards: append([]model.Card{}, r.Cards...), Order: append([]model.CardID{}, r.Order...)}
	}
	return out, nil
}

func (f *fakeAPI) UpdateCardText(ctx context.Context, roomID int, cardID model.CardID, text string) error {
	if err := f.log(fmt.Sprintf("PATCH /rooms/%d/cards/%d text=%s", roomID, cardID, text)); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if r := f.room(roomID); r != nil {
		for i := range r.Cards {
			if r.Cards[i].ID == cardID {
				r.Cards[i].Text = text
			}
		}
	}
	return nil
}

func (f *fakeAPI) DeleteCard(ctx context.Context, roomID int, cardID model.CardID) error {
	return f.log(fmt.Sprintf("DELETE /rooms/%d/cards/%d", roomID, cardID))
}

func (f *fakeAPI) AddCard(ctx context.Context, roomID int) error {
	if err := f.log(fmt.Sprintf("POST /rooms/%d/cards", roomID)); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if r := f.room(roomID); r != nil {
		id := len(r.Cards) + 100
		r.Cards = append(r.Cards, model.Card{ID: id})
		r.Order = append(r.Order, id)
	}
	return nil
}

func (f *fakeAPI) UpdateCardPosition(ctx context.Context, roomID int, cardID model.CardID, pos model.Position) error {
	return f.log(fmt.Sprintf("PATCH /rooms/%d/cards/%d position=%v,%v", roomID, cardID, pos.X, pos.Y))
}

func (f *fakeAPI) UpdateOrder(ctx context.Context, roomID int, order []model.CardID) error {
	return f.log(fmt.Sprintf("PATCH /rooms/%d/order %v", roomID, order))
}

type memJournal struct {
	entries []model.Mutation
}

func (j *memJournal) Record(ctx context.Context, m model.Mutation) error {
	j.entries = append(j.entries, m)
	return nil
}

func singleCardRoom() model.Room {
	return model.Room{
		Cards: []model.Card{{ID: 1, Text: "a", Position: model.Position{X: 0, Y: 0}}},
		Order: []model.CardID{1},
	}
}

func TestParseRoomID(t *testing.T) {
	cases := []struct {
		raw    string
		wantID int
		wantOK bool
	}{
		{raw: "", wantOK: false},
		{raw: "roomId=", wantOK: false},
		{raw: "roomId=abc", wantOK: false},
		{raw: "roomId=1.5", wantOK: false},
		{raw: "roomId=-1", wantOK: false},
		{raw: "other=1", wantOK: false},
		{raw: "roomId=0", wantID: 0, wantOK: true},
		{raw: "roomId=%203%20", wantID: 3, wantOK: true},
		{raw: "roomId=2&roomId=5", wantID: 2, wantOK: true},
	}
	for _, tc := range cases {
		q, err := url.ParseQuery(tc.raw)
		require.NoError(t, err)
		id, ok := ParseRoomID(q)
		assert.Equal(t, tc.wantOK, ok, "query %q", tc.raw)
		if tc.wantOK {
			assert.Equal(t, tc.wantID, id, "query %q", tc.raw)
		}
	}
}

func TestPage_LoadingUntilFirstFetch(t *testing.T) {
	api := newFakeAPI(singleCardRoom())
	c := New(api, WithQuery(QueryFor(0)))

	p := c.Page()
	assert.True(t, p.Loading)
	assert.Nil(t, p.Sidebar)
	assert.Nil(t, p.Board)

	require.NoError(t, c.Load(context.Background()))
	p = c.Page()
	assert.False(t, p.Loading)
	require.NotNil(t, p.Sidebar)
	require.NotNil(t, p.Board)
	require.Len(t, p.Board.Cards, 1)
	assert.Equal(t, "a", p.Board.Cards[0].Text)
}

func TestPage_FailedFirstLoadKeepsLoadingWithError(t *testing.T) {
	api := newFakeAPI(singleCardRoom())
	api.failOn = "GET /rooms"
	api.failErr = errors.New("connection refused")
	c := New(api)

	err := c.Load(context.Background())
	require.Error(t, err)

	p := c.Page()
	assert.True(t, p.Loading)
	require.Error(t, p.Err)
	assert.Contains(t, p.Err.Error(), "connection refused")
}

func TestPage_NonNumericSelectionRendersSidebarOnly(t *testing.T) {
	api := newFakeAPI(singleCardRoom())
	c := New(api)
	require.NoError(t, c.NavigateRaw("roomId=abc"))
	require.NoError(t, c.Load(context.Background()))

	p := c.Page()
	require.NotNil(t, p.Sidebar)
	assert.False(t, p.Sidebar.HasSelection)
	assert.Nil(t, p.Board)
	assert.NoError(t, p.Err)
}

func TestPage_OutOfRangeSelectionDegrades(t *testing.T) {
	api := newFakeAPI(singleCardRoom())
	c := New(api, WithQuery(QueryFor(3)))
	require.NoError(t, c.Load(context.Background()))

	p := c.Page()
	require.NotNil(t, p.Sidebar)
	assert.Nil(t, p.Board)
	assert.ErrorIs(t, p.Err, ErrInvalidSelection)

	_, _, err := c.SelectedRoom()
	assert.ErrorIs(t, err, ErrInvalidSelection)
}

func TestPage_SelectionIndexesRooms(t *testing.T) {
	api := newFakeAPI(
		model.Room{Name: "zero", Cards: []model.Card{{ID: 1, Text: "x"}}, Order: []model.CardID{1}},
		model.Room{Name: "one", Cards: []model.Card{{ID: 1, Text: "y"}, {ID: 2, Text: "z"}}, Order: []model.CardID{2, 1}},
	)
	c := New(api)
	require.NoError(t, c.Load(context.Background()))

	for i, want := range []string{"zero", "one"} {
		c.Select(i)
		p := c.Page()
		require.NotNil(t, p.Board)
		assert.Equal(t, i, p.Board.RoomID)
		assert.Equal(t, want, p.Board.Room.Name)
	}
	p := c.Page()
	assert.Equal(t, "z", p.Board.Cards[0].Text)
	assert.Equal(t, "y", p.Board.Cards[1].Text)
}

func TestMutations_NoSelectionMakesNoCalls(t *testing.T) {
	api := newFakeAPI(singleCardRoom())
	c := New(api)
	ctx := context.Background()
	require.NoError(t, c.Load(ctx))

	for _, q := range []string{"", "roomId=abc"} {
		require.NoError(t, c.NavigateRaw(q))
		require.NoError(t, c.UpdateCardText(ctx, 1, "b"))
		require.NoError(t, c.DeleteCard(ctx, 1))
		require.NoError(t, c.AddCard(ctx))
		require.NoError(t, c.UpdatePosition(ctx, 1, model.Position{X: 1, Y: 1}))
		require.NoError(t, c.UpdateOrder(ctx, []model.CardID{1}))
	}

	assert.Equal(t, []string{"GET /rooms"}, api.Calls())
}

func TestMutations_OneCallThenOneRefetch(t *testing.T) {
	ctx := context.Background()
	cases := []struct {
		name string
		run  func(c *Controller) error
		want string
	}{
		{"text", func(c *Controller) error { return c.UpdateCardText(ctx, 1, "b") }, "PATCH /rooms/0/cards/1 text=b"},
		{"delete", func(c *Controller) error { return c.DeleteCard(ctx, 1) }, "DELETE /rooms/0/cards/1"},
		{"add", func(c *Controller) error { return c.AddCard(ctx) }, "POST /rooms/0/cards"},
		{"position", func(c *Controller) error { return c.UpdatePosition(ctx, 1, model.Position{X: 2, Y: 3}) }, "PATCH /rooms/0/cards/1 position=2,3"},
		{"order", func(c *Controller) error { return c.UpdateOrder(ctx, []model.CardID{1}) }, "PATCH /rooms/0/order [1]"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			api := newFakeAPI(singleCardRoom())
			c := New(api, WithQuery(QueryFor(0)))
			require.NoError(t, c.Load(ctx))

			require.NoError(t, tc.run(c))
			assert.Equal(t, []string{"GET /rooms", tc.want, "GET /rooms"}, api.Calls())
		})
	}
}

func TestUpdateCardText_ReflectsServerState(t *testing.T) {
	api := newFakeAPI(singleCardRoom())
	c := New(api, WithQuery(QueryFor(0)))
	ctx := context.Background()
	require.NoError(t, c.Load(ctx))

	require.NoError(t, c.UpdateCardText(ctx, 1, "b"))
	p := c.Page()
	require.NotNil(t, p.Board)
	assert.Equal(t, "b", p.Board.Cards[0].Text)
}

func TestAddCard_AddsOneCard(t *testing.T) {
	api := newFakeAPI(singleCardRoom())
	c := New(api, WithQuery(QueryFor(0)))
	ctx := context.Background()
	require.NoError(t, c.Load(ctx))
	before := len(c.Page().Board.Cards)

	require.NoError(t, c.AddCard(ctx))
	assert.Len(t, c.Page().Board.Cards, before+1)
}

func TestMutation_FailureSkipsRefetchAndKeepsRooms(t *testing.T) {
	api := newFakeAPI(singleCardRoom())
	api.failOn = "DELETE /rooms/0/cards/1"
	api.failErr = errors.New("boom")
	j := &memJournal{}
	c := New(api, WithQuery(QueryFor(0)), WithJournal(j), WithServer("http://api"))
	ctx := context.Background()
	require.NoError(t, c.Load(ctx))

	err := c.DeleteCard(ctx, 1)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "delete-card")
	assert.Equal(t, []string{"GET /rooms", "DELETE /rooms/0/cards/1"}, api.Calls())

	p := c.Page()
	require.NotNil(t, p.Board)
	assert.Len(t, p.Board.Cards, 1)
	assert.ErrorIs(t, p.Err, api.failErr)
	assert.False(t, p.Busy)

	require.Len(t, j.entries, 1)
	assert.Equal(t, model.MutationDeleteCard, j.entries[0].Kind)
	assert.False(t, j.entries[0].OK)
	assert.Equal(t, "boom", j.entries[0].Error)
	assert.Equal(t, "http://api", j.entries[0].Server)
}

func TestMutation_JournalsPayload(t *testing.T) {
	api := newFakeAPI(singleCardRoom())
	j := &memJournal{}
	c := New(api, WithQuery(QueryFor(0)), WithJournal(j))
	ctx := context.Background()

	require.NoError(t, c.UpdatePosition(ctx, 1, model.Position{X: 1, Y: 2}))
	require.NoError(t, c.UpdateOrder(ctx, []model.CardID{1}))

	require.Len(t, j.entries, 2)
	assert.JSONEq(t, `{"position":{"x":1,"y":2}}`, string(j.entries[0].Payload))
	require.NotNil(t, j.entries[0].CardID)
	assert.Equal(t, 1, *j.entries[0].CardID)
	assert.JSONEq(t, `[1]`, string(j.entries[1].Payload))
	assert.True(t, j.entries[1].OK)
}

func TestMutations_AreSerialized(t *testing.T) {
	api := newFakeAPI(singleCardRoom())
	c := New(api, WithQuery(QueryFor(0)))
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = c.AddCard(ctx)
		}()
	}
	wg.Wait()

	calls := api.Calls()
	require.Len(t, calls, 8)
	for i := 0; i < len(calls); i += 2 {
		assert.Equal(t, "POST /rooms/0/cards", calls[i])
		assert.Equal(t, "GET /rooms", calls[i+1])
	}
}
