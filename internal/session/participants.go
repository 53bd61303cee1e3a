package session

import (
	"log/slog"
	"strings"
	"time"

	"github.com/arthurd34/OpenImpro-Live/pkg/state"
)

// RequestJoin is the single public entry point: first contact and
// reconnection both arrive here. Reconnection is resolved by token only,
// never by name, so a name guess cannot hijack someone else's session.
func (e *Engine) RequestJoin(connID, displayName, token string, isReconnect bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.refuseMutation("join_request") {
		return
	}

	if !e.state.IsLive && !isReconnect {
		e.gateway.SendTo(connID, "status_update", StatusUpdate{Status: "rejected", Reason: "ERROR_SHOW_NOT_STARTED"})
		return
	}

	if isReconnect && token != "" {
		e.reconnect(connID, token)
		return
	}

	if !e.state.AllowNewJoins {
		e.gateway.SendTo(connID, "status_update", StatusUpdate{Status: "rejected", Reason: "ERROR_JOINS_CLOSED"})
		return
	}

	name := strings.TrimSpace(displayName)
	if name == "" {
		e.logger.Debug("Ignoring join request with empty name", slog.String("connID", connID))
		return
	}
	if e.state.NameTaken(name) {
		e.gateway.SendTo(connID, "status_update", StatusUpdate{Status: "rejected", Reason: "ERROR_NAME_TAKEN"})
		return
	}

	req := &state.ParticipantRequest{
		ConnectionID: connID,
		DisplayName:  name,
		Token:        randomToken(16),
		Proposals:    []*state.Proposal{},
	}
	e.state.PendingRequests = append(e.state.PendingRequests, req)
	if !e.persist() {
		return
	}

	// the token goes out immediately so the client can reconnect even
	// while still pending
	e.gateway.SendTo(connID, "status_update", StatusUpdate{Status: "pending", Token: req.Token})
	e.gateway.ToAdmins("admin_new_request", req)
	e.logger.Info("Join request queued", slog.String("name", name))
}

// reconnect rebinds an existing participant to a new connection. Called
// with the mutex held.
func (e *Engine) reconnect(connID, token string) {
	user := e.state.FindActiveByToken(token)
	if user == nil {
		// terminal: the client must discard its token and join fresh
		e.gateway.SendTo(connID, "status_update", StatusUpdate{Status: "session_expired", Reason: "ERROR_SESSION_EXPIRED"})
		return
	}

	e.cancelKickClose(user.ConnectionID)
	user.ConnectionID = connID
	user.Connected = true
	if !e.persist() {
		return
	}

	e.gateway.SendTo(connID, "status_update", StatusUpdate{Status: "approved", DisplayName: user.DisplayName, Token: user.Token})
	e.gateway.SendTo(connID, "sync_state", e.buildSyncPacket())
	e.gateway.SendTo(connID, "user_history_update", user.Proposals)
	e.refreshAdminLists()
	e.logger.Info("Participant reconnected", slog.String("name", user.DisplayName))
}

// Approve promotes a pending request to the active roster. A stale
// connection id is a no-op; the request was already handled.
func (e *Engine) Approve(token, targetConnID, welcomeMessage string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.authorized(token, "admin_approve_user") || e.refuseMutation("admin_approve_user") {
		return
	}

	req := e.state.FindPendingByConn(targetConnID)
	if req == nil {
		return
	}

	e.removePending(targetConnID)
	e.state.ActiveUsers = append(e.state.ActiveUsers, &state.ActiveParticipant{
		ConnectionID: req.ConnectionID,
		DisplayName:  req.DisplayName,
		Token:        req.Token,
		Connected:    true,
		Proposals:    req.Proposals,
	})
	if !e.persist() {
		return
	}

	e.gateway.SendTo(targetConnID, "status_update", StatusUpdate{Status: "approved", Message: welcomeMessage})
	e.gateway.SendTo(targetConnID, "sync_state", e.buildSyncPacket())
	e.refreshAdminLists()
	e.logger.Info("Participant approved", slog.String("name", req.DisplayName))
}

// Kick removes a participant or pending request. For active participants
// the proposal ledger is purged first so admins never see orphaned
// entries. The target is told why, then its connection is force-closed
// after a short delay so the status message can flush.
func (e *Engine) Kick(token, targetConnID, reason string, isRefusal bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.authorized(token, "admin_kick_user") || e.refuseMutation("admin_kick_user") {
		return
	}

	user := e.state.FindActiveByConn(targetConnID)
	if user == nil && e.state.FindPendingByConn(targetConnID) == nil {
		// already handled; duplicate or late kick
		return
	}
	var purged bool
	if user != nil {
		purged = e.purgeProposalsFor(user.DisplayName)
	}
	e.removeActive(targetConnID)
	e.removePending(targetConnID)
	if !e.persist() {
		return
	}

	status := "kicked"
	if isRefusal {
		status = "rejected"
	}
	e.gateway.SendTo(targetConnID, "status_update", StatusUpdate{Status: status, Reason: reason})
	if purged {
		e.gateway.ToAdmins("admin_sync_proposals", e.state.AllProposals)
	}
	e.refreshAdminLists()
	e.scheduleKickClose(targetConnID)
}

// Rename updates a participant's display name in place.
//
// Known gap, kept on purpose pending a product decision: the new name is
// not re-checked for uniqueness against other participants, and already
// submitted proposals keep the old author name.
func (e *Engine) Rename(token, targetConnID, newName string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.authorized(token, "admin_rename_user") || e.refuseMutation("admin_rename_user") {
		return
	}

	user := e.state.FindActiveByConn(targetConnID)
	if user == nil {
		return
	}
	name := strings.TrimSpace(newName)
	if name == "" {
		return
	}
	user.DisplayName = name
	if !e.persist() {
		return
	}

	e.gateway.SendTo(targetConnID, "name_updated", name)
	e.refreshAdminLists()
}

// Disconnect handles a transport-level close. Active participants are
// kept in the roster with connected=false so they can come back; pending
// requests are dropped outright. Order-guarded: a stale disconnect for a
// connection id that has since been rebound is ignored.
func (e *Engine) Disconnect(connID string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.refuseMutation("disconnect") {
		return
	}

	changed := false
	if user := e.state.FindActiveByConn(connID); user != nil {
		user.Connected = false
		changed = true
	}
	if e.state.FindPendingByConn(connID) != nil {
		e.removePending(connID)
		changed = true
	}
	if changed && !e.persist() {
		return
	}
	e.refreshAdminLists()
}

func (e *Engine) removeActive(connID string) {
	users := e.state.ActiveUsers[:0]
	for _, u := range e.state.ActiveUsers {
		if u.ConnectionID != connID {
			users = append(users, u)
		}
	}
	e.state.ActiveUsers = users
}

func (e *Engine) removePending(connID string) {
	reqs := e.state.PendingRequests[:0]
	for _, r := range e.state.PendingRequests {
		if r.ConnectionID != connID {
			reqs = append(reqs, r)
		}
	}
	e.state.PendingRequests = reqs
}

// scheduleKickClose force-closes the target connection once the terminal
// status message has had a chance to flush. The timer is stored so a
// reconnect that rebinds the id can cancel it. Called with the mutex held.
func (e *Engine) scheduleKickClose(connID string) {
	e.cancelKickClose(connID)
	e.kickTimers[connID] = time.AfterFunc(e.opts.KickDisconnectDelay, func() {
		e.gateway.CloseConnection(connID, "kicked by moderator")
		e.mu.Lock()
		delete(e.kickTimers, connID)
		e.mu.Unlock()
	})
}

// cancelKickClose stops a pending deferred disconnect. Called with the
// mutex held.
func (e *Engine) cancelKickClose(connID string) {
	if t, ok := e.kickTimers[connID]; ok {
		t.Stop()
		delete(e.kickTimers, connID)
	}
}
