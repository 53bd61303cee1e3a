package state

import "strings"

// ShowState is the whole-show document. It is persisted as a single JSON
// snapshot; every field here round-trips through the store.
type ShowState struct {
	ActiveShowID      string                `json:"activeShowId"`
	IsLive            bool                  `json:"isLive"`
	CurrentSceneIndex int                   `json:"currentSceneIndex"`
	AllowNewJoins     bool                  `json:"allowNewJoins"`
	PendingRequests   []*ParticipantRequest `json:"pendingRequests"`
	ActiveUsers       []*ActiveParticipant  `json:"activeUsers"`
	AllProposals      []*Proposal           `json:"allProposals"`
	AdminTokens       []string              `json:"adminTokens"`
}

// ParticipantRequest is an audience member waiting for admin approval.
// The proposals slice is always empty until promotion; it exists so a
// promoted request carries the same shape as an active participant.
type ParticipantRequest struct {
	ConnectionID string      `json:"connectionId"`
	DisplayName  string      `json:"displayName"`
	Token        string      `json:"token"`
	Proposals    []*Proposal `json:"proposals"`
}

// ActiveParticipant is an admitted audience member. Token is the durable
// identity across reconnects; ConnectionID is rebound on every reconnect.
type ActiveParticipant struct {
	ConnectionID string      `json:"connectionId"`
	DisplayName  string      `json:"displayName"`
	Token        string      `json:"token"`
	Connected    bool        `json:"connected"`
	Proposals    []*Proposal `json:"proposals"`
}

// Proposal lives in two places at once: the global ledger and its author's
// personal history. Mutations must touch both copies.
type Proposal struct {
	ID        int64  `json:"id"`
	Author    string `json:"authorDisplayName"`
	Text      string `json:"text"`
	CreatedAt string `json:"createdAt"`
	IsWinner  bool   `json:"isWinner"`
}

// NewShowState returns the state used on first boot, before any snapshot
// exists.
func NewShowState() *ShowState {
	return &ShowState{
		AllowNewJoins:   true,
		PendingRequests: []*ParticipantRequest{},
		ActiveUsers:     []*ActiveParticipant{},
		AllProposals:    []*Proposal{},
		AdminTokens:     []string{},
	}
}

// FindActiveByToken resolves a participant by their durable token.
func (s *ShowState) FindActiveByToken(token string) *ActiveParticipant {
	for _, u := range s.ActiveUsers {
		if u.Token == token {
			return u
		}
	}
	return nil
}

// FindActiveByConn resolves a participant by their current connection id.
func (s *ShowState) FindActiveByConn(connID string) *ActiveParticipant {
	for _, u := range s.ActiveUsers {
		if u.ConnectionID == connID {
			return u
		}
	}
	return nil
}

// FindActiveByName resolves a participant by display name, case-insensitively.
func (s *ShowState) FindActiveByName(name string) *ActiveParticipant {
	for _, u := range s.ActiveUsers {
		if strings.EqualFold(u.DisplayName, name) {
			return u
		}
	}
	return nil
}

// FindPendingByConn resolves a pending request by connection id.
func (s *ShowState) FindPendingByConn(connID string) *ParticipantRequest {
	for _, r := range s.PendingRequests {
		if r.ConnectionID == connID {
			return r
		}
	}
	return nil
}

// NameTaken reports whether name collides, case-insensitively, with any
// pending or active record.
func (s *ShowState) NameTaken(name string) bool {
	if s.FindActiveByName(name) != nil {
		return true
	}
	for _, r := range s.PendingRequests {
		if strings.EqualFold(r.DisplayName, name) {
			return true
		}
	}
	return false
}

// HasAdminToken reports membership in the bounded admin token set.
func (s *ShowState) HasAdminToken(token string) bool {
	for _, t := range s.AdminTokens {
		if t == token {
			return true
		}
	}
	return false
}
