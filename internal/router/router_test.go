package router_test

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/google/uuid"

	"github.com/arthurd34/OpenImpro-Live/internal/router"
	"github.com/arthurd34/OpenImpro-Live/internal/session"
	"github.com/arthurd34/OpenImpro-Live/internal/show"
	"github.com/arthurd34/OpenImpro-Live/pkg/state"
)

func newTestLogger() *slog.Logger {
	handler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError + 1})
	return slog.New(handler)
}

type memStore struct {
	loadState *state.ShowState
	saves     int
}

func (s *memStore) Load() (*state.ShowState, error) { return s.loadState, nil }
func (s *memStore) Save(*state.ShowState) error     { s.saves++; return nil }

type recGateway struct {
	mu     sync.Mutex
	events []string
}

func (g *recGateway) rec(event string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.events = append(g.events, event)
}

func (g *recGateway) SendTo(connID, event string, payload any) { g.rec(event) }
func (g *recGateway) ToAdmins(event string, payload any)       { g.rec(event) }
func (g *recGateway) ToAll(event string, payload any)          { g.rec(event) }
func (g *recGateway) JoinAdmins(connID string)                 { g.rec("__join_admins") }
func (g *recGateway) CloseConnection(connID, reason string)    { g.rec("__close") }

func (g *recGateway) count(event string) int {
	g.mu.Lock()
	defer g.mu.Unlock()
	n := 0
	for _, e := range g.events {
		if e == event {
			n++
		}
	}
	return n
}

func newTestRouter(t *testing.T) (*router.EventRouter, *recGateway, *memStore) {
	t.Helper()
	showsDir := filepath.Join(t.TempDir(), "shows")
	if err := os.MkdirAll(filepath.Join(showsDir, "gala"), 0o755); err != nil {
		t.Fatal(err)
	}
	cfg := `{"name": "Gala", "lang": "fr", "scenes": [{"id": "s1", "type": "PROPOSAL", "params": {}}]}`
	if err := os.WriteFile(filepath.Join(showsDir, "gala", "config.json"), []byte(cfg), 0o644); err != nil {
		t.Fatal(err)
	}
	library, err := show.NewLibrary(newTestLogger(), showsDir)
	if err != nil {
		t.Fatal(err)
	}

	st := state.NewShowState()
	st.ActiveShowID = "gala"
	st.IsLive = true
	st.AdminTokens = []string{"admin-token"}
	store := &memStore{loadState: st}
	gateway := &recGateway{}

	engine, err := session.New(newTestLogger(), store, gateway, library, session.Options{AdminPassword: "pw"})
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(engine.Close)
	return router.NewEventRouter(newTestLogger(), engine), gateway, store
}

func TestJoinRequestRoutesToLifecycle(t *testing.T) {
	r, gateway, store := newTestRouter(t)

	r.HandleMessage(context.Background(), uuid.New(), []byte(`{"event": "join_request", "payload": {"displayName": "Alice"}}`))

	if gateway.count("status_update") != 1 {
		t.Error("join_request did not produce a status_update")
	}
	if gateway.count("admin_new_request") != 1 {
		t.Error("admins were not notified")
	}
	if store.saves != 1 {
		t.Errorf("expected one persisted mutation, got %d", store.saves)
	}
}

func TestAdminEventExtractsPayloadToken(t *testing.T) {
	r, gateway, _ := newTestRouter(t)

	r.HandleMessage(context.Background(), uuid.New(), []byte(`{"event": "admin_set_scene", "payload": {"token": "admin-token", "index": 0}}`))

	if gateway.count("sync_state") != 1 {
		t.Error("authorized admin_set_scene did not broadcast a sync")
	}
}

func TestAdminEventWithBadTokenIsDropped(t *testing.T) {
	r, gateway, store := newTestRouter(t)

	r.HandleMessage(context.Background(), uuid.New(), []byte(`{"event": "admin_set_scene", "payload": {"token": "guess", "index": 0}}`))

	if len(gateway.events) != 0 || store.saves != 0 {
		t.Error("unauthorized admin event must be dropped without a reply")
	}
}

func TestAdminLoginRoute(t *testing.T) {
	r, gateway, _ := newTestRouter(t)

	r.HandleMessage(context.Background(), uuid.New(), []byte(`{"event": "admin_login", "payload": {"password": "pw"}}`))

	if gateway.count("login_success") != 1 {
		t.Error("password login did not succeed")
	}

	r.HandleMessage(context.Background(), uuid.New(), []byte(`{"event": "admin_login", "payload": {"password": "nope"}}`))
	if gateway.count("login_error") != 1 {
		t.Error("bad password did not produce login_error")
	}
}

func TestMalformedFramesAreIgnored(t *testing.T) {
	r, gateway, store := newTestRouter(t)

	r.HandleMessage(context.Background(), uuid.New(), []byte(`not json`))
	r.HandleMessage(context.Background(), uuid.New(), []byte(`{"event": "no_such_event", "payload": {}}`))
	r.HandleMessage(context.Background(), uuid.New(), []byte(`{"event": "join_request", "payload": {"displayName": 42}}`))

	if len(gateway.events) != 0 || store.saves != 0 {
		t.Error("malformed frames must not reach the engine")
	}
}
