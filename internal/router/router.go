// Package router turns inbound client frames into session engine calls.
// Admin events carry their bearer token inside the payload; the router
// extracts it and hands it to the engine, which does the actual gate.
package router

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/google/uuid"
	"github.com/tidwall/gjson"

	"github.com/arthurd34/OpenImpro-Live/internal/session"
)

type EventRouter struct {
	logger *slog.Logger
	engine *session.Engine
}

func NewEventRouter(logger *slog.Logger, engine *session.Engine) *EventRouter {
	return &EventRouter{
		logger: logger.With(slog.String("component", "event_router")),
		engine: engine,
	}
}

// HandleMessage is wired as the transport's message callback.
func (r *EventRouter) HandleMessage(ctx context.Context, connID uuid.UUID, msg []byte) {
	var clientMsg ClientMessage
	if err := json.Unmarshal(msg, &clientMsg); err != nil {
		r.logger.Warn("Failed to unmarshal client message", "connID", connID, "error", err)
		return
	}

	id := connID.String()
	// admin events authenticate per-message; the token rides in the payload
	token := gjson.GetBytes(clientMsg.Payload, "token").String()

	switch clientMsg.Event {
	case "join_request":
		var p joinRequestPayload
		if r.decode(clientMsg, &p) {
			r.engine.RequestJoin(id, p.DisplayName, p.Token, p.IsReconnect)
		}
	case "admin_login":
		var p adminLoginPayload
		if r.decode(clientMsg, &p) {
			r.engine.Login(id, p.Password, p.Token)
		}
	case "admin_approve_user":
		var p approveUserPayload
		if r.decode(clientMsg, &p) {
			r.engine.Approve(token, p.ConnectionID, p.WelcomeMessage)
		}
	case "admin_kick_user":
		var p kickUserPayload
		if r.decode(clientMsg, &p) {
			r.engine.Kick(token, p.ConnectionID, p.Reason, p.IsRefusal)
		}
	case "admin_rename_user":
		var p renameUserPayload
		if r.decode(clientMsg, &p) {
			r.engine.Rename(token, p.ConnectionID, p.NewName)
		}
	case "admin_set_scene":
		var p setScenePayload
		if r.decode(clientMsg, &p) {
			r.engine.SetScene(token, p.Index)
		}
	case "admin_toggle_live":
		var p togglePayload
		if r.decode(clientMsg, &p) {
			r.engine.ToggleLive(token, p.Value)
		}
	case "admin_toggle_joins":
		var p togglePayload
		if r.decode(clientMsg, &p) {
			r.engine.ToggleJoins(token, p.Value)
		}
	case "admin_load_show":
		var p showPayload
		if r.decode(clientMsg, &p) {
			r.engine.LoadShow(token, p.ShowID)
		}
	case "admin_get_shows":
		r.engine.SendShowList(token, id)
	case "admin_delete_show":
		var p showPayload
		if r.decode(clientMsg, &p) {
			r.engine.DeleteShow(token, id, p.ShowID)
		}
	case "send_proposal":
		var p sendProposalPayload
		if r.decode(clientMsg, &p) {
			r.engine.Submit(id, p.DisplayName, p.Text)
		}
	case "admin_approve_proposal":
		var p proposalRefPayload
		if r.decode(clientMsg, &p) {
			r.engine.MarkWinner(token, p.ProposalID, p.DisplayName)
		}
	case "admin_delete_proposal":
		var p proposalRefPayload
		if r.decode(clientMsg, &p) {
			r.engine.DeleteProposal(token, p.ProposalID)
		}
	case "admin_clear_all_proposals":
		r.engine.ClearAll(token)
	default:
		r.logger.Warn("Received unknown event", "event", clientMsg.Event, "connID", connID)
	}
}

func (r *EventRouter) decode(msg ClientMessage, dst any) bool {
	if len(msg.Payload) == 0 {
		return true
	}
	if err := json.Unmarshal(msg.Payload, dst); err != nil {
		r.logger.Warn("Malformed event payload", "event", msg.Event, "error", err)
		return false
	}
	return true
}
