package session_test

import (
	"fmt"
	"strings"
	"testing"

	"github.com/arthurd34/OpenImpro-Live/pkg/state"
)

// submit pushes n proposals for a participant and returns the ids the
// store saw.
func submitN(t *testing.T, rig *testRig, connID, name string, n int) []int64 {
	t.Helper()
	for i := 0; i < n; i++ {
		rig.engine.Submit(connID, name, fmt.Sprintf("idea %d", i))
	}
	var ids []int64
	for _, p := range rig.store.last(t).AllProposals {
		if p.Author == name {
			ids = append(ids, p.ID)
		}
	}
	return ids
}

func TestSubmitAppendsBothCopies(t *testing.T) {
	rig := newTestRig(t, nil)
	rig.joinAndApprove(t, "conn-1", "Alice")
	rig.gateway.reset()

	rig.engine.Submit("conn-1", "Alice", "a pirate wedding")

	saved := rig.store.last(t)
	if len(saved.AllProposals) != 1 {
		t.Fatalf("ledger length = %d, want 1", len(saved.AllProposals))
	}
	p := saved.AllProposals[0]
	if p.Author != "Alice" || p.Text != "a pirate wedding" || p.IsWinner {
		t.Errorf("unexpected ledger entry: %+v", p)
	}
	if p.ID == 0 || p.CreatedAt == "" {
		t.Errorf("entry missing id or timestamp: %+v", p)
	}

	history := saved.ActiveUsers[0].Proposals
	if len(history) != 1 || history[0].ID != p.ID {
		t.Errorf("personal history out of sync with ledger: %+v", history)
	}

	if len(rig.gateway.find("admin_new_proposal")) != 1 {
		t.Error("admins were not told about the new proposal")
	}
	if len(rig.gateway.findTo("conn-1", "user_history_update")) != 1 {
		t.Error("author did not receive their updated history")
	}
}

func TestLedgerIsNewestFirst(t *testing.T) {
	rig := newTestRig(t, nil)
	rig.joinAndApprove(t, "conn-1", "Alice")

	rig.engine.Submit("conn-1", "Alice", "first")
	rig.engine.Submit("conn-1", "Alice", "second")

	ledger := rig.store.last(t).AllProposals
	if ledger[0].Text != "second" || ledger[1].Text != "first" {
		t.Errorf("ledger not newest-first: %q, %q", ledger[0].Text, ledger[1].Text)
	}
	// the personal history keeps submission order
	history := rig.store.last(t).ActiveUsers[0].Proposals
	if history[0].Text != "first" || history[1].Text != "second" {
		t.Errorf("history not in submission order: %q, %q", history[0].Text, history[1].Text)
	}
}

func TestProposalIDsStrictlyIncrease(t *testing.T) {
	rig := newTestRig(t, nil)
	rig.joinAndApprove(t, "conn-1", "Alice")

	ids := submitN(t, rig, "conn-1", "Alice", 3)
	seen := map[int64]bool{}
	for _, id := range ids {
		if seen[id] {
			t.Fatalf("duplicate proposal id %d", id)
		}
		seen[id] = true
	}
}

func TestSubmitCapFromSceneParams(t *testing.T) {
	rig := newTestRig(t, nil) // round1 scene caps at 3
	rig.joinAndApprove(t, "conn-1", "Alice")

	submitN(t, rig, "conn-1", "Alice", 3)
	savesBefore := len(rig.store.saves)

	rig.engine.Submit("conn-1", "Alice", "one too many")

	if len(rig.store.saves) != savesBefore {
		t.Error("over-cap submit must not persist anything")
	}
	if got := len(rig.store.last(t).AllProposals); got != 3 {
		t.Errorf("ledger length = %d, want 3", got)
	}
}

func TestSubmitOutsideProposalSceneDropped(t *testing.T) {
	rig := newTestRig(t, nil)
	rig.joinAndApprove(t, "conn-1", "Alice")
	rig.engine.SetScene(adminToken, 0) // WAITING scene
	savesBefore := len(rig.store.saves)

	rig.engine.Submit("conn-1", "Alice", "idea")

	if len(rig.store.saves) != savesBefore {
		t.Error("submit outside a proposal scene must be dropped")
	}
}

func TestSubmitFromUnknownNameDropped(t *testing.T) {
	rig := newTestRig(t, nil)

	rig.engine.Submit("conn-1", "Nobody", "idea")

	if len(rig.store.saves) != 0 || len(rig.gateway.all()) != 0 {
		t.Error("submit from an unknown participant must be silent")
	}
}

func TestMarkWinnerFlagsBothCopies(t *testing.T) {
	rig := newTestRig(t, nil)
	rig.joinAndApprove(t, "conn-1", "Alice")
	ids := submitN(t, rig, "conn-1", "Alice", 2)
	target := ids[len(ids)-1]
	rig.gateway.reset()

	rig.engine.MarkWinner(adminToken, target, "Alice")

	saved := rig.store.last(t)
	var inLedger, inHistory bool
	for _, p := range saved.AllProposals {
		if p.ID == target && p.IsWinner {
			inLedger = true
		}
	}
	for _, p := range saved.ActiveUsers[0].Proposals {
		if p.ID == target && p.IsWinner {
			inHistory = true
		}
	}
	if !inLedger || !inHistory {
		t.Errorf("winner flag incoherent: ledger=%v history=%v", inLedger, inHistory)
	}

	screens := rig.gateway.find("show_on_screen")
	if len(screens) != 1 || screens[0].Kind != "all" {
		t.Fatalf("winner was not promoted to every client: %+v", screens)
	}
	if p := screens[0].Payload.(*state.Proposal); p.ID != target || !p.IsWinner {
		t.Errorf("unexpected show_on_screen payload: %+v", p)
	}
	if len(rig.gateway.find("admin_sync_proposals")) != 1 {
		t.Error("admin ledger view was not refreshed")
	}
	if len(rig.gateway.findTo("conn-1", "user_history_update")) != 1 {
		t.Error("author history was not pushed")
	}
}

func TestMarkWinnerUnknownIDIsNoop(t *testing.T) {
	rig := newTestRig(t, nil)
	rig.joinAndApprove(t, "conn-1", "Alice")
	savesBefore := len(rig.store.saves)
	rig.gateway.reset()

	rig.engine.MarkWinner(adminToken, 424242, "Alice")

	if len(rig.store.saves) != savesBefore || len(rig.gateway.all()) != 0 {
		t.Error("marking an unknown proposal must be a silent no-op")
	}
}

func TestDeleteProposalRemovesBothCopies(t *testing.T) {
	rig := newTestRig(t, nil)
	rig.joinAndApprove(t, "conn-1", "Alice")
	ids := submitN(t, rig, "conn-1", "Alice", 2)
	rig.gateway.reset()

	rig.engine.DeleteProposal(adminToken, ids[0])

	saved := rig.store.last(t)
	for _, p := range saved.AllProposals {
		if p.ID == ids[0] {
			t.Error("deleted proposal still in ledger")
		}
	}
	for _, p := range saved.ActiveUsers[0].Proposals {
		if p.ID == ids[0] {
			t.Error("deleted proposal still in author history")
		}
	}
	if len(rig.gateway.findTo("conn-1", "user_history_update")) != 1 {
		t.Error("author was not told about the deletion")
	}

	// second delete of the same id is a no-op
	savesBefore := len(rig.store.saves)
	rig.engine.DeleteProposal(adminToken, ids[0])
	if len(rig.store.saves) != savesBefore {
		t.Error("duplicate delete must not persist")
	}
}

func TestClearAllEmptiesLedgerAndHistories(t *testing.T) {
	rig := newTestRig(t, nil)
	rig.joinAndApprove(t, "conn-1", "Alice")
	rig.joinAndApprove(t, "conn-2", "Bob")
	submitN(t, rig, "conn-1", "Alice", 2)
	submitN(t, rig, "conn-2", "Bob", 1)
	rig.gateway.reset()

	rig.engine.ClearAll(adminToken)

	saved := rig.store.last(t)
	if len(saved.AllProposals) != 0 {
		t.Error("ledger not emptied")
	}
	for _, u := range saved.ActiveUsers {
		if len(u.Proposals) != 0 {
			t.Errorf("history of %s not emptied", u.DisplayName)
		}
	}
	histories := rig.gateway.find("user_history_update")
	if len(histories) != 1 || histories[0].Kind != "all" {
		t.Fatalf("empty history was not broadcast to everyone: %+v", histories)
	}
}

func TestKickCascadePurgesLedger(t *testing.T) {
	rig := newTestRig(t, nil)
	rig.joinAndApprove(t, "conn-1", "Alice")
	rig.joinAndApprove(t, "conn-2", "Bob")
	submitN(t, rig, "conn-1", "Alice", 2)
	submitN(t, rig, "conn-2", "Bob", 1)
	rig.gateway.reset()

	rig.engine.Kick(adminToken, "conn-1", "", false)

	saved := rig.store.last(t)
	for _, p := range saved.AllProposals {
		if p.Author == "Alice" {
			t.Errorf("kicked author's proposal survived: %+v", p)
		}
	}
	if len(saved.AllProposals) != 1 || saved.AllProposals[0].Author != "Bob" {
		t.Errorf("unexpected ledger after kick: %+v", saved.AllProposals)
	}

	syncs := rig.gateway.find("admin_sync_proposals")
	if len(syncs) != 1 {
		t.Fatal("cleaned ledger was not republished to admins")
	}

	// the old name no longer submits
	savesBefore := len(rig.store.saves)
	rig.engine.Submit("conn-3", "Alice", "still here?")
	if len(rig.store.saves) != savesBefore {
		t.Error("submit under a kicked name must be dropped")
	}
}

func TestPersistBeforeBroadcast(t *testing.T) {
	rig := newTestRig(t, nil)
	rig.joinAndApprove(t, "conn-1", "Alice")

	rig.engine.Submit("conn-1", "Alice", "idea")

	ops := rig.log.snapshot()
	lastSave := -1
	for i, op := range ops {
		if op == "save" {
			lastSave = i
		}
	}
	if lastSave == -1 {
		t.Fatal("no save recorded")
	}
	for _, op := range ops[lastSave+1:] {
		if !strings.HasPrefix(op, "send:") {
			t.Fatalf("unexpected op after final save: %q", op)
		}
	}
	// the submit's own notifications come after its save
	var sendsAfter int
	for _, op := range ops[lastSave+1:] {
		if op == "send:admin_new_proposal" || op == "send:user_history_update" {
			sendsAfter++
		}
	}
	if sendsAfter != 2 {
		t.Errorf("expected the submit notifications after its save, got %v", ops[lastSave+1:])
	}
}
