package tui

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"roomboard/internal/api"
	"roomboard/internal/board"
	"roomboard/internal/sandbox"
	"roomboard/internal/store"

	tea "github.com/charmbracelet/bubbletea"
)

type harness struct {
	sb     *sandbox.Server
	ctrl   *board.Controller
	server string
}

func newHarness(t *testing.T) harness {
	t.Helper()
	sb := sandbox.New(sandbox.DemoRooms())
	ts := httptest.NewServer(sb.Handler())
	t.Cleanup(ts.Close)
	c := api.New(api.Options{BaseURL: ts.URL})
	return harness{sb: sb, ctrl: board.New(c, board.WithServer(ts.URL)), server: ts.URL}
}

func (h harness) model(st *store.Store) pageModel {
	m := newPageModel(context.Background(), h.ctrl, st, h.server, nil)
	return update(m, tea.WindowSizeMsg{Width: 120, Height: 30})
}

func update(m pageModel, msg tea.Msg) pageModel {
	mm, _ := m.Update(msg)
	return mm.(pageModel)
}

// updateRun applies msg and then feeds the resulting command's message back in.
func updateRun(t *testing.T, m pageModel, msg tea.Msg) pageModel {
	t.Helper()
	mm, cmd := m.Update(msg)
	if cmd == nil {
		t.Fatalf("expected a command for %v", msg)
	}
	return update(mm.(pageModel), cmd())
}

func loaded(t *testing.T, m pageModel) pageModel {
	t.Helper()
	return update(m, m.Init()())
}

func runes(s string) tea.KeyMsg { return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)} }

func openFirstRoom(t *testing.T, m pageModel) pageModel {
	t.Helper()
	m = update(m, tea.KeyMsg{Type: tea.KeyEnter})
	if m.page.Board == nil || m.pane != paneBoard {
		t.Fatalf("expected board pane after enter")
	}
	return m
}

func TestView_LoadingBeforeFirstFetch(t *testing.T) {
	h := newHarness(t)
	m := h.model(nil)
	if !strings.Contains(m.View(), "Loading rooms") {
		t.Fatalf("expected loading view, got:\n%s", m.View())
	}
}

func TestView_LoadErrorOffersRetry(t *testing.T) {
	h := newHarness(t)
	h.sb.FailNext(http.MethodGet, http.StatusInternalServerError)

	m := loaded(t, h.model(nil))
	v := m.View()
	if !strings.Contains(v, "Could not load rooms") || !strings.Contains(v, "r: retry") {
		t.Fatalf("expected load error view, got:\n%s", v)
	}

	m = updateRun(t, m, runes("r"))
	if m.page.Loading || m.page.Sidebar == nil {
		t.Fatalf("expected rooms after retry")
	}
}

func TestView_SidebarWithoutSelection(t *testing.T) {
	h := newHarness(t)
	m := loaded(t, h.model(nil))

	v := m.View()
	for _, want := range []string{"Planning", "Retro", "No room selected"} {
		if !strings.Contains(v, want) {
			t.Fatalf("expected %q in view:\n%s", want, v)
		}
	}
	if m.page.Board != nil {
		t.Fatalf("expected no board without a selection")
	}
}

func TestEnterSelectsRoomAndSavesState(t *testing.T) {
	h := newHarness(t)
	st := &store.Store{Dir: t.TempDir()}
	m := openFirstRoom(t, loaded(t, h.model(st)))

	if id, ok := h.ctrl.RoomID(); !ok || id != 0 {
		t.Fatalf("expected room 0 selected, got %d %v", id, ok)
	}
	if len(m.cardsList.Items()) != 3 {
		t.Fatalf("expected 3 cards, got %d", len(m.cardsList.Items()))
	}
	if !strings.Contains(m.View(), "Collect feedback") {
		t.Fatalf("expected card text in view:\n%s", m.View())
	}

	saved, err := st.LoadTUIState()
	if err != nil {
		t.Fatalf("load state: %v", err)
	}
	if saved.RoomID == nil || *saved.RoomID != 0 || saved.Server != h.server || saved.Pane != "board" {
		t.Fatalf("unexpected saved state: %+v", saved)
	}
}

func TestRestoreStateReopensRoomForSameServer(t *testing.T) {
	h := newHarness(t)
	st := &store.Store{Dir: t.TempDir()}
	one := 1
	if err := st.SaveTUIState(&store.TUIState{Server: h.server, RoomID: &one, Pane: "board"}); err != nil {
		t.Fatalf("save: %v", err)
	}

	m := h.model(st)
	m.restoreState()
	m = loaded(t, m)
	if m.page.Board == nil || m.page.Board.RoomID != 1 || m.pane != paneBoard {
		t.Fatalf("expected room 1 restored, got %+v pane=%v", m.page.Board, m.pane)
	}
}

func TestRestoreStateIgnoresOtherServer(t *testing.T) {
	h := newHarness(t)
	st := &store.Store{Dir: t.TempDir()}
	one := 1
	_ = st.SaveTUIState(&store.TUIState{Server: "http://elsewhere", RoomID: &one})

	m := h.model(st)
	m.restoreState()
	if _, ok := h.ctrl.RoomID(); ok {
		t.Fatalf("expected no selection for a different server")
	}
}

func TestAddCardPostsThenRefetches(t *testing.T) {
	h := newHarness(t)
	m := openFirstRoom(t, loaded(t, h.model(nil)))
	h.sb.ResetCalls()

	m = updateRun(t, m, runes("a"))

	calls := h.sb.Calls()
	if len(calls) != 2 || calls[0].Method != http.MethodPost || calls[0].Path != "/rooms/0/cards" || calls[1].Path != "/rooms" {
		t.Fatalf("unexpected calls: %+v", calls)
	}
	if len(m.cardsList.Items()) != 4 {
		t.Fatalf("expected 4 cards after add, got %d", len(m.cardsList.Items()))
	}
	if m.busy {
		t.Fatalf("expected busy cleared")
	}
}

func TestKeysIgnoredWhileBusy(t *testing.T) {
	h := newHarness(t)
	m := openFirstRoom(t, loaded(t, h.model(nil)))

	mm, cmd := m.Update(runes("a"))
	if cmd == nil {
		t.Fatalf("expected mutation command")
	}
	m = mm.(pageModel)
	if !m.busy || !strings.Contains(m.View(), "working") {
		t.Fatalf("expected busy marker")
	}
	if _, second := m.Update(runes("a")); second != nil {
		t.Fatalf("expected second add to be dropped while busy")
	}
}

func TestDeleteNeedsConfirmation(t *testing.T) {
	h := newHarness(t)
	m := openFirstRoom(t, loaded(t, h.model(nil)))
	h.sb.ResetCalls()

	m = update(m, runes("d"))
	if m.modal != modalConfirmDelete || !strings.Contains(m.View(), "Delete card #1?") {
		t.Fatalf("expected delete confirmation")
	}
	m = update(m, tea.KeyMsg{Type: tea.KeyEsc})
	if m.modal != modalNone || len(h.sb.Calls()) != 0 {
		t.Fatalf("expected cancel without calls")
	}

	m = update(m, runes("d"))
	m = updateRun(t, m, runes("y"))
	calls := h.sb.Calls()
	if len(calls) != 2 || calls[0].Method != http.MethodDelete || calls[0].Path != "/rooms/0/cards/1" {
		t.Fatalf("unexpected calls: %+v", calls)
	}
	if len(m.cardsList.Items()) != 2 {
		t.Fatalf("expected 2 cards after delete, got %d", len(m.cardsList.Items()))
	}
}

func TestEditTextSendsPatch(t *testing.T) {
	h := newHarness(t)
	m := openFirstRoom(t, loaded(t, h.model(nil)))
	m = update(m, tea.KeyMsg{Type: tea.KeyDown})
	h.sb.ResetCalls()

	m = update(m, runes("e"))
	if m.modal != modalEditText || m.editCardID != 2 {
		t.Fatalf("expected edit modal for card 2, got modal=%v id=%d", m.modal, m.editCardID)
	}
	m = update(m, runes("!"))
	m = updateRun(t, m, tea.KeyMsg{Type: tea.KeyEnter})

	calls := h.sb.Calls()
	if len(calls) != 2 || calls[0].Body != `{"text":"Collect feedback!"}` {
		t.Fatalf("unexpected calls: %+v", calls)
	}
	if c, ok := m.selectedCard(); !ok || c.ID != 2 || c.Text != "Collect feedback!" {
		t.Fatalf("expected card 2 kept under cursor with new text, got %+v", c)
	}
}

func TestNudgeAndReorder(t *testing.T) {
	h := newHarness(t)
	m := openFirstRoom(t, loaded(t, h.model(nil)))
	h.sb.ResetCalls()

	m = updateRun(t, m, runes("L"))
	m = updateRun(t, m, runes("]"))

	calls := h.sb.Calls()
	if len(calls) != 4 {
		t.Fatalf("expected 4 calls, got %+v", calls)
	}
	if calls[0].Path != "/rooms/0/cards/1" || calls[0].Body != `{"position":{"x":1,"y":0}}` {
		t.Fatalf("unexpected position call: %+v", calls[0])
	}
	if calls[2].Path != "/rooms/0/order" || calls[2].Body != `[2,1,3]` {
		t.Fatalf("unexpected order call: %+v", calls[2])
	}
	if c, ok := m.selectedCard(); !ok || c.ID != 1 || m.cardsList.Index() != 1 {
		t.Fatalf("expected moved card to stay selected, got %+v at %d", c, m.cardsList.Index())
	}
}

func TestFailedMutationShowsErrorWithoutRefetch(t *testing.T) {
	h := newHarness(t)
	m := openFirstRoom(t, loaded(t, h.model(nil)))
	h.sb.ResetCalls()
	h.sb.FailNext(http.MethodPost, http.StatusInternalServerError)

	m = updateRun(t, m, runes("a"))
	if len(h.sb.Calls()) != 1 {
		t.Fatalf("expected no refetch after failure, got %+v", h.sb.Calls())
	}
	if !strings.Contains(m.minibufferText, "add-card") {
		t.Fatalf("expected error in minibuffer, got %q", m.minibufferText)
	}
	if len(m.cardsList.Items()) != 3 {
		t.Fatalf("expected cards unchanged")
	}
}
