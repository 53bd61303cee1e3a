package session

import "log/slog"

// StatusUpdate is the join/approval/kick outcome pushed to participants.
type StatusUpdate struct {
	Status      string `json:"status"`
	Reason      string `json:"reason,omitempty"`
	Message     string `json:"message,omitempty"`
	Token       string `json:"token,omitempty"`
	DisplayName string `json:"displayName,omitempty"`
}

// LoginSuccess acknowledges an admin session and carries its bearer token.
type LoginSuccess struct {
	Token string `json:"token"`
}

// Login authenticates a moderator. A correct password mints a fresh token
// into the bounded token set; a valid existing token re-admits a
// reconnecting admin without retransmitting the password. Anything else
// gets a login_error and no state change.
func (e *Engine) Login(connID, password, token string) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if password != "" && password == e.opts.AdminPassword {
		if e.refuseMutation("admin_login") {
			return
		}
		newToken := randomToken(32)
		e.state.AdminTokens = append(e.state.AdminTokens, newToken)
		// FIFO eviction keeps the token set bounded; no time-based expiry.
		if len(e.state.AdminTokens) > e.opts.AdminTokenCap {
			e.state.AdminTokens = e.state.AdminTokens[len(e.state.AdminTokens)-e.opts.AdminTokenCap:]
		}
		if !e.persist() {
			return
		}
		e.admitAdmin(connID, newToken)
		return
	}

	if token != "" && e.state.HasAdminToken(token) {
		e.admitAdmin(connID, token)
		return
	}

	e.logger.Warn("Admin login rejected", slog.String("connID", connID))
	e.gateway.SendTo(connID, "login_error", "ERROR_INVALID_CREDENTIALS")
}

// admitAdmin joins the connection to the admin group and replays the full
// moderator view. Called with the mutex held.
func (e *Engine) admitAdmin(connID, token string) {
	e.gateway.JoinAdmins(connID)
	e.gateway.SendTo(connID, "login_success", LoginSuccess{Token: token})
	e.gateway.SendTo(connID, "sync_state", e.buildSyncPacket())
	e.refreshAdminLists()
	e.gateway.SendTo(connID, "admin_sync_proposals", e.state.AllProposals)
	e.gateway.SendTo(connID, "admin_joins_status", e.state.AllowNewJoins)
	e.gateway.SendTo(connID, "admin_live_status", e.state.IsLive)
	e.logger.Info("Admin session established", slog.String("connID", connID))
}

// authorized guards every privileged operation. Failures are dropped and
// logged, never answered, so the event surface leaks nothing about why.
// Called with the mutex held.
func (e *Engine) authorized(token, op string) bool {
	if e.state.HasAdminToken(token) {
		return true
	}
	e.logger.Warn("Unauthorized admin action blocked", slog.String("op", op))
	return false
}

// AuthorizeToken is the read-only token check used by the HTTP upload
// route.
func (e *Engine) AuthorizeToken(token string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state.HasAdminToken(token)
}
