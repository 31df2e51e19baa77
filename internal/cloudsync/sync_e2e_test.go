package cloudsync_test

import (
	"context"
	"testing"
	"time"

	"github.com/cloudsync-go/cloudsync/internal/cloudsync"
	"github.com/cloudsync-go/cloudsync/internal/cloudsync/logging"
	"github.com/cloudsync-go/cloudsync/internal/cloudsync/storage"
	"github.com/cloudsync-go/cloudsync/internal/cloudsync/testutil"
)

// harness wires a fresh SyncState/SyncManager pair over two in-memory
// providers, running a fixed identity translator, for the end-to-end
// reconciliation scenarios below.
type harness struct {
	t            *testing.T
	local        *testutil.MemoryProvider
	remote       *testutil.MemoryProvider
	state        *cloudsync.SyncState
	manager      *cloudsync.SyncManager
	ctx          context.Context
	cancel       context.CancelFunc
	localEvents  <-chan cloudsync.EventResult
	remoteEvents <-chan cloudsync.EventResult
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	log := logging.NewRoot(logging.LevelDisabled)
	state, err := cloudsync.NewSyncState(storage.NewMemory(), "test", log)
	if err != nil {
		t.Fatalf("NewSyncState: %v", err)
	}
	local := testutil.NewMemoryProvider()
	remote := testutil.NewMemoryProvider()
	translate := func(_ cloudsync.Side, path string) (string, error) { return path, nil }
	manager, err := cloudsync.NewSyncManager(state, [2]cloudsync.Provider{local, remote}, translate, cloudsync.DefaultManagerOptions, log)
	if err != nil {
		t.Fatalf("NewSyncManager: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	t.Cleanup(cancel)
	t.Cleanup(manager.Done)

	// Subscribe before any fixture mutations happen so that every later
	// Rename/Delete/SetFile/PutFile call on either provider has somewhere to
	// land; pump (below) drains these synchronously from the test goroutine
	// so assertions never race a background ingestion goroutine the way
	// cmd/cloudsync-inspect's pump() does.
	localEvents := local.Events(ctx)
	remoteEvents := remote.Events(ctx)

	return &harness{
		t: t, local: local, remote: remote, state: state, manager: manager, ctx: ctx, cancel: cancel,
		localEvents: localEvents, remoteEvents: remoteEvents,
	}
}

// coldStart seeds state with whatever both providers currently hold, the
// equivalent of starting the engine against a pre-populated pair of roots.
func (h *harness) coldStart() {
	cloudsync.ColdWalk(h.ctx, h.state, h.local, cloudsync.Local, "/", nil)
	cloudsync.ColdWalk(h.ctx, h.state, h.remote, cloudsync.Remote, "/", nil)
}

// pump ingests every event already queued on either provider's live
// subscription into state, without blocking once a channel runs dry. Call it
// after driving a provider directly (Rename/Delete/SetFile/PutFile) so the
// engine learns about the mutation the same way it would from a live
// Events() feed, before the next tick or assertion.
func (h *harness) pump() {
	drain := func(ch <-chan cloudsync.EventResult, side cloudsync.Side) {
		for {
			select {
			case res, ok := <-ch:
				if !ok {
					return
				}
				if res.Err != nil {
					continue
				}
				cloudsync.IngestEvent(h.state, side, res.Event)
			default:
				return
			}
		}
	}
	drain(h.localEvents, cloudsync.Local)
	drain(h.remoteEvents, cloudsync.Remote)
}

// drain runs reconciliation ticks until the changeset is empty or n ticks
// have elapsed, whichever comes first, failing the test if work is still
// pending afterward.
func (h *harness) drain(n int) {
	h.t.Helper()
	h.pump()
	for i := 0; i < n; i++ {
		if !h.state.HasChanges() {
			return
		}
		if err := h.manager.Do(h.ctx); err != nil {
			h.t.Fatalf("tick %d: %v", i, err)
		}
		h.pump()
	}
	if h.state.HasChanges() {
		h.t.Fatalf("state still has pending changes after %d ticks", n)
	}
}

func TestBasicPropagationLocalToRemote(t *testing.T) {
	h := newHarness(t)
	h.local.PutFile("/a.txt", []byte("hello"))
	h.coldStart()
	h.drain(20)

	content, ok := h.remote.ReadFile("/a.txt")
	if !ok {
		t.Fatal("expected /a.txt to be created on remote")
	}
	if string(content) != "hello" {
		t.Fatalf("remote content = %q, want %q", content, "hello")
	}
}

func TestContentUpdatePropagates(t *testing.T) {
	h := newHarness(t)
	oid := h.local.PutFile("/a.txt", []byte("v1"))
	h.coldStart()
	h.drain(20)

	h.local.SetFile(oid, []byte("v2"))
	h.drain(20)

	content, ok := h.remote.ReadFile("/a.txt")
	if !ok || string(content) != "v2" {
		t.Fatalf("remote content = %q, ok=%v, want %q", content, ok, "v2")
	}
}

func TestRenamePropagation(t *testing.T) {
	h := newHarness(t)
	oid := h.local.PutFile("/old.txt", []byte("data"))
	h.coldStart()
	h.drain(20)

	if _, err := h.local.Rename(h.ctx, oid, "/new.txt"); err != nil {
		t.Fatalf("local rename: %v", err)
	}
	h.drain(20)

	if _, ok := h.remote.ReadFile("/old.txt"); ok {
		t.Fatal("expected /old.txt to be gone from remote")
	}
	content, ok := h.remote.ReadFile("/new.txt")
	if !ok || string(content) != "data" {
		t.Fatalf("remote /new.txt content = %q, ok=%v", content, ok)
	}
}

func TestDeletionPropagation(t *testing.T) {
	h := newHarness(t)
	oid := h.local.PutFile("/gone.txt", []byte("bye"))
	h.coldStart()
	h.drain(20)

	if _, ok := h.remote.ReadFile("/gone.txt"); !ok {
		t.Fatal("precondition: file should have propagated before deletion")
	}

	if err := h.local.Delete(h.ctx, oid); err != nil {
		t.Fatalf("local delete: %v", err)
	}
	h.drain(20)

	if _, ok := h.remote.ReadFile("/gone.txt"); ok {
		t.Fatal("expected /gone.txt to be deleted from remote")
	}
}

func TestSimultaneousCreateConflictSplitsBothFiles(t *testing.T) {
	h := newHarness(t)
	h.local.PutFile("/same.txt", []byte("local version"))
	h.remote.PutFile("/same.txt", []byte("remote version"))
	h.coldStart()
	h.drain(40)

	_, localOrig := h.local.ReadFile("/same.txt")
	_, remoteConflicted := h.remote.ReadFile("/same.txt.conflicted")
	_, localConflicted := h.local.ReadFile("/same.txt.conflicted")
	_, remoteOrig := h.remote.ReadFile("/same.txt")

	// Exactly one side keeps the canonical name and propagates it to the
	// other; the losing side's object survives under the ".conflicted"
	// suffix on both providers. No content is dropped.
	if !(localOrig && remoteOrig) {
		t.Fatalf("expected both providers to end up with /same.txt present, got local=%v remote=%v", localOrig, remoteOrig)
	}
	if !localConflicted || !remoteConflicted {
		t.Fatalf("expected a .conflicted sibling on both providers, got local=%v remote=%v", localConflicted, remoteConflicted)
	}
}

func TestPathConflictPicksLexicographicallyGreaterPath(t *testing.T) {
	h := newHarness(t)
	oid := h.local.PutFile("/orig.txt", []byte("data"))
	h.coldStart()
	h.drain(20)

	remoteInfo, err := h.remote.InfoPath(h.ctx, "/orig.txt")
	if err != nil || remoteInfo == nil {
		t.Fatalf("precondition: expected /orig.txt on remote, err=%v info=%v", err, remoteInfo)
	}

	if _, err := h.local.Rename(h.ctx, oid, "/aaa.txt"); err != nil {
		t.Fatalf("local rename: %v", err)
	}
	if _, err := h.remote.Rename(h.ctx, remoteInfo.Oid, "/zzz.txt"); err != nil {
		t.Fatalf("remote rename: %v", err)
	}
	h.drain(40)

	if _, ok := h.local.ReadFile("/zzz.txt"); !ok {
		t.Fatal("expected lexicographically greater path /zzz.txt to win on local")
	}
	if _, ok := h.remote.ReadFile("/zzz.txt"); !ok {
		t.Fatal("expected lexicographically greater path /zzz.txt to win on remote")
	}
}

func TestThreeCycleRenameConverges(t *testing.T) {
	h := newHarness(t)
	oid := h.local.PutFile("/one.txt", []byte("cycle"))
	h.coldStart()
	h.drain(20)

	for _, next := range []string{"/two.txt", "/three.txt", "/one.txt"} {
		if _, err := h.local.Rename(h.ctx, oid, next); err != nil {
			t.Fatalf("rename to %s: %v", next, err)
		}
		h.drain(20)
	}

	content, ok := h.remote.ReadFile("/one.txt")
	if !ok || string(content) != "cycle" {
		t.Fatalf("remote content after 3-cycle rename = %q, ok=%v", content, ok)
	}
}

// TestConcurrentThreeCycleRenameConverges drives the literal scenario this
// engine's rename-collision handling is meant to survive: three distinct
// files cycled through each other's paths (a→d, c→a, b→c, d→b) with state
// updated after every individual rename but no intervening drain to
// quiescence, so a rename's target transiently collides with another
// entry's still-current path (Invariant 3) before reconciliation catches up.
func TestConcurrentThreeCycleRenameConverges(t *testing.T) {
	h := newHarness(t)
	aOid := h.local.PutFile("/a.txt", []byte("A"))
	bOid := h.local.PutFile("/b.txt", []byte("B"))
	cOid := h.local.PutFile("/c.txt", []byte("C"))
	h.coldStart()
	h.drain(20)

	renames := []struct {
		oid  string
		path string
	}{
		{aOid, "/d.txt"},
		{cOid, "/a.txt"},
		{bOid, "/c.txt"},
		{aOid, "/b.txt"},
	}
	for _, r := range renames {
		if _, err := h.local.Rename(h.ctx, r.oid, r.path); err != nil {
			t.Fatalf("rename %s -> %s: %v", r.oid, r.path, err)
		}
		h.pump()
	}
	h.drain(80)

	want := map[string]string{"/a.txt": "C", "/b.txt": "A", "/c.txt": "B"}
	for path, content := range want {
		got, ok := h.remote.ReadFile(path)
		if !ok || string(got) != content {
			t.Fatalf("remote %s = %q, ok=%v, want %q", path, got, ok, content)
		}
	}
}

func TestDirectoryCreationPropagates(t *testing.T) {
	h := newHarness(t)
	dirOid, err := h.local.Mkdir(h.ctx, "/sub")
	if err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	_ = dirOid
	h.coldStart()
	h.drain(20)

	info, err := h.remote.InfoPath(h.ctx, "/sub")
	if err != nil {
		t.Fatalf("InfoPath: %v", err)
	}
	if info == nil || info.OType != cloudsync.Directory {
		t.Fatalf("expected /sub directory on remote, got %+v", info)
	}
}
