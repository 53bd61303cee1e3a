// Package session implements the authoritative show state machine: admin
// authentication, participant admission and lifecycle, scene progression
// and the per-scene proposal ledger. Every operation runs under one mutex,
// mutates the ShowState document, persists it, and only then notifies
// clients through the gateway.
package session

import (
	"crypto/rand"
	"encoding/hex"
	"log/slog"
	"sync"
	"time"

	"github.com/arthurd34/OpenImpro-Live/internal/i18n"
	"github.com/arthurd34/OpenImpro-Live/internal/show"
	"github.com/arthurd34/OpenImpro-Live/pkg/state"
)

// Gateway is the fan-out capability the engine needs. Implemented by
// hub.Hub; tests substitute a recording fake.
type Gateway interface {
	SendTo(connID, event string, payload any)
	ToAdmins(event string, payload any)
	ToAll(event string, payload any)
	JoinAdmins(connID string)
	CloseConnection(connID, reason string)
}

type Options struct {
	AdminPassword       string
	KickDisconnectDelay time.Duration
	DefaultProposalCap  int
	AdminTokenCap       int
}

func (o *Options) fillDefaults() {
	if o.KickDisconnectDelay <= 0 {
		o.KickDisconnectDelay = 500 * time.Millisecond
	}
	if o.DefaultProposalCap <= 0 {
		o.DefaultProposalCap = 5
	}
	if o.AdminTokenCap <= 0 {
		o.AdminTokenCap = 50
	}
}

type Engine struct {
	mu      sync.Mutex
	state   *state.ShowState
	store   state.Store
	gateway Gateway
	library *show.Library
	showCfg *show.Config
	opts    Options

	// degraded latches true after a failed save; mutating operations are
	// refused from then on rather than diverging from disk.
	degraded bool

	lastProposalID int64
	kickTimers     map[string]*time.Timer

	logger *slog.Logger
}

// New restores the engine from the last snapshot, or starts fresh when the
// store is empty. If the snapshot references a show whose config can no
// longer be read, the engine falls back to the offline playlist.
func New(logger *slog.Logger, store state.Store, gateway Gateway, library *show.Library, opts Options) (*Engine, error) {
	opts.fillDefaults()

	st, err := store.Load()
	if err != nil {
		return nil, err
	}
	if st == nil {
		st = state.NewShowState()
	}

	e := &Engine{
		state:      st,
		store:      store,
		gateway:    gateway,
		library:    library,
		showCfg:    show.DefaultConfig(),
		opts:       opts,
		kickTimers: make(map[string]*time.Timer),
		logger:     logger.With(slog.String("component", "session_engine")),
	}

	if st.ActiveShowID != "" {
		cfg, err := show.LoadConfig(library.Dir(), st.ActiveShowID)
		if err != nil {
			e.logger.Warn("Could not reload active show config", slog.String("showId", st.ActiveShowID), slog.Any("error", err))
		} else {
			e.showCfg = cfg
			e.logger.Info("Show config restored", slog.String("show", cfg.Name))
		}
	}
	return e, nil
}

// Close cancels any pending deferred disconnects.
func (e *Engine) Close() {
	e.mu.Lock()
	defer e.mu.Unlock()
	for id, t := range e.kickTimers {
		t.Stop()
		delete(e.kickTimers, id)
	}
}

// persist saves the document. Must be called with the mutex held, after
// the mutation and before any broadcast. A false return means the save
// failed and the caller must not notify anyone of the mutation.
func (e *Engine) persist() bool {
	if err := e.store.Save(e.state); err != nil {
		e.logger.Error("State persistence failed, refusing further mutations", slog.Any("error", err))
		e.degraded = true
		return false
	}
	return true
}

// refuseMutation reports whether the engine is degraded. Mutating
// operations call this first and drop the event when it returns true.
func (e *Engine) refuseMutation(op string) bool {
	if e.degraded {
		e.logger.Error("Dropping mutating operation, store is unavailable", slog.String("op", op))
	}
	return e.degraded
}

// --- Scene Controller ---

// SyncPacket is the canonical state snapshot every client renders from.
type SyncPacket struct {
	IsLive       bool         `json:"isLive"`
	CurrentScene show.Scene   `json:"currentScene"`
	CurrentIndex int          `json:"currentIndex"`
	Playlist     []show.Scene `json:"playlist,omitempty"`
	UI           i18n.Dict    `json:"ui"`
}

// currentScene resolves the scene pointer, synthesizing the offline scene
// when the show is not live or the index does not resolve.
func (e *Engine) currentScene() show.Scene {
	if !e.state.IsLive {
		return show.OfflineScene()
	}
	idx := e.state.CurrentSceneIndex
	if idx < 0 || idx >= len(e.showCfg.Scenes) {
		return show.OfflineScene()
	}
	return e.showCfg.Scenes[idx]
}

func (e *Engine) buildSyncPacket() SyncPacket {
	ui := i18n.Lookup(e.showCfg.Lang)
	if !e.state.IsLive {
		return SyncPacket{IsLive: false, CurrentScene: show.OfflineScene(), UI: ui}
	}
	return SyncPacket{
		IsLive:       true,
		CurrentScene: e.currentScene(),
		CurrentIndex: e.state.CurrentSceneIndex,
		Playlist:     e.showCfg.Scenes,
		UI:           ui,
	}
}

// SyncTo sends the full sync packet to one connection. Read-only; emitted
// to every new connection before any other traffic.
func (e *Engine) SyncTo(connID string) {
	e.mu.Lock()
	packet := e.buildSyncPacket()
	e.mu.Unlock()
	e.gateway.SendTo(connID, "sync_state", packet)
}

// SetScene moves the scene pointer and resyncs every client, public
// included, so audience views switch immediately.
func (e *Engine) SetScene(token string, index int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.authorized(token, "admin_set_scene") || e.refuseMutation("admin_set_scene") {
		return
	}
	e.state.CurrentSceneIndex = index
	if !e.persist() {
		return
	}
	e.gateway.ToAll("sync_state", e.buildSyncPacket())
}

// ToggleLive opens or closes the show to the public.
func (e *Engine) ToggleLive(token string, value bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.authorized(token, "admin_toggle_live") || e.refuseMutation("admin_toggle_live") {
		return
	}
	e.state.IsLive = value
	if !e.persist() {
		return
	}
	e.gateway.ToAll("sync_state", e.buildSyncPacket())
}

// ToggleJoins opens or closes new join requests, independently of IsLive.
func (e *Engine) ToggleJoins(token string, value bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.authorized(token, "admin_toggle_joins") || e.refuseMutation("admin_toggle_joins") {
		return
	}
	e.state.AllowNewJoins = value
	if !e.persist() {
		return
	}
	e.gateway.ToAdmins("admin_joins_status", e.state.AllowNewJoins)
}

// --- Show pack management ---

// LoadShow activates an installed show pack: playlist reset to scene zero,
// live mode off until the moderator opens it.
func (e *Engine) LoadShow(token, showID string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.authorized(token, "admin_load_show") || e.refuseMutation("admin_load_show") {
		return
	}
	cfg, err := show.LoadConfig(e.library.Dir(), showID)
	if err != nil {
		e.logger.Error("Failed to load show config", slog.String("showId", showID), slog.Any("error", err))
		return
	}
	e.showCfg = cfg
	e.state.ActiveShowID = showID
	e.state.CurrentSceneIndex = 0
	e.state.IsLive = false
	if !e.persist() {
		return
	}
	e.logger.Info("Show loaded", slog.String("show", cfg.Name))
	e.gateway.ToAll("sync_state", e.buildSyncPacket())
}

// SendShowList answers an admin's show inventory request.
func (e *Engine) SendShowList(token, connID string) {
	e.mu.Lock()
	ok := e.authorized(token, "admin_get_shows")
	e.mu.Unlock()
	if !ok {
		return
	}
	shows, err := e.library.List()
	if err != nil {
		e.logger.Error("Failed to list shows", slog.Any("error", err))
		return
	}
	e.gateway.SendTo(connID, "admin_shows_list", shows)
}

// DeleteShow removes an installed show pack and refreshes the requesting
// admin's inventory.
func (e *Engine) DeleteShow(token, connID, showID string) {
	e.mu.Lock()
	ok := e.authorized(token, "admin_delete_show")
	e.mu.Unlock()
	if !ok {
		return
	}
	if err := e.library.Delete(showID); err != nil {
		e.logger.Error("Failed to delete show", slog.String("showId", showID), slog.Any("error", err))
		return
	}
	shows, err := e.library.List()
	if err != nil {
		e.logger.Error("Failed to list shows", slog.Any("error", err))
		return
	}
	e.gateway.SendTo(connID, "admin_shows_list", shows)
}

// --- shared helpers ---

// refreshAdminLists pushes both roster views to the admin group. Must be
// called without holding copies of the slices; admins always see the
// current state.
func (e *Engine) refreshAdminLists() {
	e.gateway.ToAdmins("admin_user_list", e.state.ActiveUsers)
	e.gateway.ToAdmins("admin_pending_list", e.state.PendingRequests)
}

func randomToken(bytes int) string {
	b := make([]byte, bytes)
	if _, err := rand.Read(b); err != nil {
		panic("crypto/rand unavailable: " + err.Error())
	}
	return hex.EncodeToString(b)
}

// timestamp is the display time attached to proposals.
func timestamp() string {
	return time.Now().Format("15:04:05")
}
