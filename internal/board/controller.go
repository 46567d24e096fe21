package board

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"sync"
	"time"

	"roomboard/internal/logging"
	"roomboard/internal/model"

	"go.uber.org/zap"
)

// RoomsAPI is the remote side of the board. *api.Client implements it.
type RoomsAPI interface {
	Rooms(ctx context.Context) ([]model.Room, error)
	UpdateCardText(ctx context.Context, roomID int, cardID model.CardID, text string) error
	DeleteCard(ctx context.Context, roomID int, cardID model.CardID) error
	AddCard(ctx context.Context, roomID int) error
	UpdateCardPosition(ctx context.Context, roomID int, cardID model.CardID, pos model.Position) error
	UpdateOrder(ctx context.Context, roomID int, order []model.CardID) error
}

// Journal receives one entry per attempted mutation.
type Journal interface {
	Record(ctx context.Context, m model.Mutation) error
}

// Actions are the callbacks a board is bound to. *Controller implements it.
type Actions interface {
	UpdateCardText(ctx context.Context, cardID model.CardID, text string) error
	DeleteCard(ctx context.Context, cardID model.CardID) error
	AddCard(ctx context.Context) error
	UpdatePosition(ctx context.Context, cardID model.CardID, pos model.Position) error
	UpdateOrder(ctx context.Context, order []model.CardID) error
}

type Option func(*Controller)

func WithJournal(j Journal) Option { return func(c *Controller) { c.journal = j } }

func WithLogger(l *zap.Logger) Option { return func(c *Controller) { c.logger = logging.OrNop(l) } }

// WithServer labels journal entries with the API base URL.
func WithServer(s string) Option { return func(c *Controller) { c.server = s } }

func WithQuery(q url.Values) Option { return func(c *Controller) { c.query = cloneQuery(q) } }

// Controller owns the page state: the URL query and the last fetched rooms.
//
// Rooms are only ever replaced wholesale by a fetch. Mutations run one at a time:
// guard on selection, one API call, then one full refetch.
type Controller struct {
	api     RoomsAPI
	journal Journal
	logger  *zap.Logger
	server  string
	now     func() time.Time

	// mutateMu serializes mutation sequences (call + refetch).
	mutateMu sync.Mutex

	mu      sync.RWMutex
	query   url.Values
	rooms   []model.Room
	loaded  bool
	busy    bool
	lastErr error
}

func New(api RoomsAPI, opts ...Option) *Controller {
	c := &Controller{
		api:    api,
		logger: zap.NewNop(),
		now:    time.Now,
		query:  url.Values{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Navigate replaces the current URL query.
func (c *Controller) Navigate(q url.Values) {
	c.mu.Lock()
	c.query = cloneQuery(q)
	c.mu.Unlock()
}

// NavigateRaw replaces the current URL query from its encoded form ("roomId=1").
func (c *Controller) NavigateRaw(rawQuery string) error {
	q, err := url.ParseQuery(rawQuery)
	if err != nil {
		return fmt.Errorf("parse query: %w", err)
	}
	c.Navigate(q)
	return nil
}

// Select navigates to roomID, keeping other query parameters.
func (c *Controller) Select(roomID int) {
	c.mu.Lock()
	q := cloneQuery(c.query)
	q.Set(QueryKey, QueryFor(roomID).Get(QueryKey))
	c.query = q
	c.mu.Unlock()
}

func (c *Controller) Query() url.Values {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return cloneQuery(c.query)
}

// RoomID is the selection derived from the current query.
func (c *Controller) RoomID() (int, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return ParseRoomID(c.query)
}

// Load fetches the full room list. On failure the previous rooms (if any) stay in place.
func (c *Controller) Load(ctx context.Context) error {
	rooms, err := c.api.Rooms(ctx)
	if err != nil {
		err = fmt.Errorf("load rooms: %w", err)
		c.logger.Warn("load rooms failed", zap.Error(err))
		c.mu.Lock()
		c.lastErr = err
		c.mu.Unlock()
		return err
	}
	c.logger.Debug("rooms loaded", zap.Int("count", len(rooms)))

	c.mu.Lock()
	c.rooms = rooms
	c.loaded = true
	c.lastErr = nil
	c.mu.Unlock()
	return nil
}

// Rooms returns the last fetched rooms; ok is false until the first successful load.
func (c *Controller) Rooms() ([]model.Room, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.rooms, c.loaded
}

// SelectedRoom returns the selected room with a bounds check against the loaded rooms.
func (c *Controller) SelectedRoom() (model.Room, int, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.selectedLocked()
}

func (c *Controller) selectedLocked() (model.Room, int, error) {
	id, ok := ParseRoomID(c.query)
	if !ok {
		return model.Room{}, 0, ErrNoSelection
	}
	if !c.loaded {
		return model.Room{}, id, ErrNotLoaded
	}
	if id >= len(c.rooms) {
		return model.Room{}, id, fmt.Errorf("room %d of %d: %w", id, len(c.rooms), ErrInvalidSelection)
	}
	return c.rooms[id], id, nil
}

// Busy reports whether a mutation is in flight.
func (c *Controller) Busy() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.busy
}

// Err is the last load or mutation error; a successful load clears it.
func (c *Controller) Err() error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.lastErr
}

func (c *Controller) UpdateCardText(ctx context.Context, cardID model.CardID, text string) error {
	return c.mutate(ctx, model.MutationUpdateText, &cardID, map[string]any{"text": text}, func(ctx context.Context, roomID int) error {
		return c.api.UpdateCardText(ctx, roomID, cardID, text)
	})
}

func (c *Controller) DeleteCard(ctx context.Context, cardID model.CardID) error {
	return c.mutate(ctx, model.MutationDeleteCard, &cardID, nil, func(ctx context.Context, roomID int) error {
		return c.api.DeleteCard(ctx, roomID, cardID)
	})
}

func (c *Controller) AddCard(ctx context.Context) error {
	return c.mutate(ctx, model.MutationAddCard, nil, nil, func(ctx context.Context, roomID int) error {
		return c.api.AddCard(ctx, roomID)
	})
}

func (c *Controller) UpdatePosition(ctx context.Context, cardID model.CardID, pos model.Position) error {
	return c.mutate(ctx, model.MutationUpdatePosition, &cardID, map[string]any{"position": pos}, func(ctx context.Context, roomID int) error {
		return c.api.UpdateCardPosition(ctx, roomID, cardID, pos)
	})
}

func (c *Controller) UpdateOrder(ctx context.Context, order []model.CardID) error {
	order = append([]model.CardID{}, order...)
	return c.mutate(ctx, model.MutationUpdateOrder, nil, order, func(ctx context.Context, roomID int) error {
		return c.api.UpdateOrder(ctx, roomID, order)
	})
}

// mutate is a no-op without a selection. The refetch only runs after a successful call.
func (c *Controller) mutate(ctx context.Context, kind model.MutationKind, cardID *model.CardID, payload any, call func(context.Context, int) error) error {
	roomID, ok := c.RoomID()
	if !ok {
		return nil
	}

	c.mutateMu.Lock()
	defer c.mutateMu.Unlock()
	c.setBusy(true)
	defer c.setBusy(false)

	log := c.logger.With(zap.String("kind", string(kind)), zap.Int("room_id", roomID))
	if cardID != nil {
		log = log.With(zap.Int("card_id", *cardID))
	}

	err := call(ctx, roomID)
	c.record(ctx, kind, roomID, cardID, payload, err)
	if err != nil {
		err = fmt.Errorf("%s: %w", kind, err)
		log.Warn("mutation failed", zap.Error(err))
		c.mu.Lock()
		c.lastErr = err
		c.mu.Unlock()
		return err
	}
	log.Debug("mutation applied")

	return c.Load(ctx)
}

func (c *Controller) setBusy(b bool) {
	c.mu.Lock()
	c.busy = b
	c.mu.Unlock()
}

func (c *Controller) record(ctx context.Context, kind model.MutationKind, roomID int, cardID *model.CardID, payload any, callErr error) {
	if c.journal == nil {
		return
	}
	m := model.Mutation{
		Kind:   kind,
		Server: c.server,
		RoomID: roomID,
		CardID: cardID,
		OK:     callErr == nil,
		At:     c.now().UTC(),
	}
	if payload != nil {
		if b, err := json.Marshal(payload); err == nil {
			m.Payload = b
		}
	}
	if callErr != nil {
		m.Error = callErr.Error()
	}
	// The journal is best effort; a failed write never fails the mutation.
	if err := c.journal.Record(context.WithoutCancel(ctx), m); err != nil {
		c.logger.Warn("journal write failed", zap.Error(err))
	}
}

func cloneQuery(q url.Values) url.Values {
	out := url.Values{}
	for k, vs := range q {
		out[k] = append([]string{}, vs...)
	}
	return out
}
