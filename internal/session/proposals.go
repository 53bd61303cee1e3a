package session

import (
	"log/slog"
	"time"

	"github.com/arthurd34/OpenImpro-Live/internal/show"
	"github.com/arthurd34/OpenImpro-Live/pkg/state"
)

// Submit records a participant's proposal for the active scene. Silent
// drops (unknown author, wrong scene type, cap reached) are logged but
// never answered; the client caps its own input and anything past that is
// a stale or forged event.
func (e *Engine) Submit(connID, displayName, text string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.refuseMutation("send_proposal") {
		return
	}

	scene := e.currentScene()
	if scene.Type != show.TypeProposal {
		e.logger.Debug("Proposal outside a proposal scene dropped", slog.String("scene", scene.ID))
		return
	}
	user := e.state.FindActiveByName(displayName)
	if user == nil {
		e.logger.Debug("Proposal from unknown participant dropped", slog.String("name", displayName))
		return
	}
	limit := scene.Params.MaxProposals(e.opts.DefaultProposalCap)
	if len(user.Proposals) >= limit {
		e.logger.Debug("Proposal over cap dropped", slog.String("name", displayName), slog.Int("cap", limit))
		return
	}

	p := &state.Proposal{
		ID:        e.nextProposalID(),
		Author:    user.DisplayName,
		Text:      text,
		CreatedAt: timestamp(),
	}
	// global ledger is newest-first for moderator review; the personal
	// history keeps submission order
	e.state.AllProposals = append([]*state.Proposal{p}, e.state.AllProposals...)
	user.Proposals = append(user.Proposals, p)
	if !e.persist() {
		return
	}

	e.gateway.ToAdmins("admin_new_proposal", p)
	e.gateway.SendTo(connID, "user_history_update", user.Proposals)
}

// MarkWinner flips the winner flag on a ledger entry and its copy in the
// author's history, then promotes it to every screen.
func (e *Engine) MarkWinner(token string, proposalID int64, authorName string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.authorized(token, "admin_approve_proposal") || e.refuseMutation("admin_approve_proposal") {
		return
	}

	var winner *state.Proposal
	for _, p := range e.state.AllProposals {
		if p.ID == proposalID {
			p.IsWinner = true
			winner = p
			break
		}
	}
	if winner == nil {
		e.logger.Debug("Winner mark for unknown proposal ignored", slog.Int64("id", proposalID))
		return
	}

	user := e.state.FindActiveByName(authorName)
	if user != nil {
		for _, p := range user.Proposals {
			if p.ID == proposalID {
				p.IsWinner = true
				break
			}
		}
	}
	if !e.persist() {
		return
	}

	e.gateway.ToAll("show_on_screen", winner)
	e.gateway.ToAdmins("admin_sync_proposals", e.state.AllProposals)
	if user != nil {
		e.gateway.SendTo(user.ConnectionID, "user_history_update", user.Proposals)
	}
}

// DeleteProposal removes one entry from the ledger and from whichever
// participant authored it. Deleting an already removed id is a no-op.
func (e *Engine) DeleteProposal(token string, proposalID int64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.authorized(token, "admin_delete_proposal") || e.refuseMutation("admin_delete_proposal") {
		return
	}

	found := false
	ledger := e.state.AllProposals[:0]
	for _, p := range e.state.AllProposals {
		if p.ID == proposalID {
			found = true
			continue
		}
		ledger = append(ledger, p)
	}
	e.state.AllProposals = ledger
	if !found {
		return
	}

	var owner *state.ActiveParticipant
	for _, u := range e.state.ActiveUsers {
		history := u.Proposals[:0]
		for _, p := range u.Proposals {
			if p.ID == proposalID {
				owner = u
				continue
			}
			history = append(history, p)
		}
		u.Proposals = history
		if owner != nil {
			break
		}
	}
	if !e.persist() {
		return
	}

	if owner != nil {
		e.gateway.SendTo(owner.ConnectionID, "user_history_update", owner.Proposals)
	}
	e.gateway.ToAdmins("admin_sync_proposals", e.state.AllProposals)
}

// ClearAll wipes the ledger and every participant's history in one
// operation, typically between rounds.
func (e *Engine) ClearAll(token string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.authorized(token, "admin_clear_all_proposals") || e.refuseMutation("admin_clear_all_proposals") {
		return
	}

	e.state.AllProposals = []*state.Proposal{}
	for _, u := range e.state.ActiveUsers {
		u.Proposals = []*state.Proposal{}
	}
	if !e.persist() {
		return
	}

	e.gateway.ToAll("user_history_update", []*state.Proposal{})
	e.gateway.ToAdmins("admin_sync_proposals", e.state.AllProposals)
}

// purgeProposalsFor drops every ledger entry by the given author. Used
// during a kick, before the participant record itself goes away; the
// caller persists and republishes the ledger. Called with the mutex held.
func (e *Engine) purgeProposalsFor(displayName string) bool {
	purged := false
	ledger := e.state.AllProposals[:0]
	for _, p := range e.state.AllProposals {
		if p.Author == displayName {
			purged = true
			continue
		}
		ledger = append(ledger, p)
	}
	e.state.AllProposals = ledger
	return purged
}

// nextProposalID is time-derived but strictly increasing, so two submits
// in the same millisecond cannot collide. Called with the mutex held.
func (e *Engine) nextProposalID() int64 {
	id := time.Now().UnixMilli()
	if id <= e.lastProposalID {
		id = e.lastProposalID + 1
	}
	e.lastProposalID = id
	return id
}
