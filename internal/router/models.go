package router

import "encoding/json"

// ClientMessage is the envelope every client frame arrives in.
type ClientMessage struct {
	Event   string          `json:"event"`
	Payload json.RawMessage `json:"payload"`
}

type joinRequestPayload struct {
	DisplayName string `json:"displayName"`
	Token       string `json:"token"`
	IsReconnect bool   `json:"isReconnect"`
}

type adminLoginPayload struct {
	Password string `json:"password"`
	Token    string `json:"token"`
}

type approveUserPayload struct {
	ConnectionID   string `json:"connectionId"`
	WelcomeMessage string `json:"welcomeMessage"`
}

type kickUserPayload struct {
	ConnectionID string `json:"connectionId"`
	Reason       string `json:"reason"`
	IsRefusal    bool   `json:"isRefusal"`
}

type renameUserPayload struct {
	ConnectionID string `json:"connectionId"`
	NewName      string `json:"newName"`
}

type setScenePayload struct {
	Index int `json:"index"`
}

type togglePayload struct {
	Value bool `json:"value"`
}

type showPayload struct {
	ShowID string `json:"showId"`
}

type sendProposalPayload struct {
	DisplayName string `json:"displayName"`
	Text        string `json:"text"`
}

type proposalRefPayload struct {
	ProposalID  int64  `json:"proposalId"`
	DisplayName string `json:"displayName"`
}
