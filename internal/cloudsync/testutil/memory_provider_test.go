package testutil_test

import (
	"context"
	"strings"
	"testing"

	"github.com/cloudsync-go/cloudsync/internal/cloudsync"
	"github.com/cloudsync-go/cloudsync/internal/cloudsync/testutil"
)

func TestCreateThenInfoPathAndDownload(t *testing.T) {
	p := testutil.NewMemoryProvider()
	ctx := context.Background()

	info, err := p.Create(ctx, "/a.txt", strings.NewReader("hello"))
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if info.OType != cloudsync.File {
		t.Fatalf("OType = %v, want File", info.OType)
	}

	got, err := p.InfoPath(ctx, "/a.txt")
	if err != nil || got == nil {
		t.Fatalf("InfoPath: got=%v err=%v", got, err)
	}
	if got.Oid != info.Oid {
		t.Fatalf("InfoPath oid = %q, want %q", got.Oid, info.Oid)
	}

	var buf strings.Builder
	if err := p.Download(ctx, info.Oid, &buf); err != nil {
		t.Fatalf("Download: %v", err)
	}
	if buf.String() != "hello" {
		t.Fatalf("Download content = %q, want %q", buf.String(), "hello")
	}
}

func TestCreateDuplicatePathReturnsExists(t *testing.T) {
	p := testutil.NewMemoryProvider()
	ctx := context.Background()
	if _, err := p.Create(ctx, "/a.txt", strings.NewReader("1")); err != nil {
		t.Fatalf("first Create: %v", err)
	}
	if _, err := p.Create(ctx, "/a.txt", strings.NewReader("2")); !cloudsync.IsExists(err) {
		t.Fatalf("second Create at same path: err = %v, want ErrExists", err)
	}
}

func TestCreateMissingParentReturnsNotFound(t *testing.T) {
	p := testutil.NewMemoryProvider()
	if _, err := p.Create(context.Background(), "/missing/a.txt", strings.NewReader("x")); !cloudsync.IsNotFound(err) {
		t.Fatalf("Create under a missing directory: err = %v, want ErrNotFound", err)
	}
}

func TestRenameAndDelete(t *testing.T) {
	p := testutil.NewMemoryProvider()
	ctx := context.Background()
	oid := p.PutFile("/old.txt", []byte("data"))

	if _, err := p.Rename(ctx, oid, "/new.txt"); err != nil {
		t.Fatalf("Rename: %v", err)
	}
	if info, _ := p.InfoPath(ctx, "/old.txt"); info != nil {
		t.Fatal("old path should no longer resolve after rename")
	}
	if info, _ := p.InfoPath(ctx, "/new.txt"); info == nil {
		t.Fatal("new path should resolve after rename")
	}

	if err := p.Delete(ctx, oid); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if exists, _ := p.ExistsOid(ctx, oid); exists {
		t.Fatal("expected oid to report not existing after delete")
	}
}

func TestMkdirAndListdir(t *testing.T) {
	p := testutil.NewMemoryProvider()
	ctx := context.Background()

	dirOid, err := p.Mkdir(ctx, "/sub")
	if err != nil {
		t.Fatalf("Mkdir: %v", err)
	}
	p.PutFile("/sub/a.txt", []byte("a"))
	p.PutFile("/sub/b.txt", []byte("b"))

	entries, err := p.Listdir(ctx, dirOid)
	if err != nil {
		t.Fatalf("Listdir: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("Listdir returned %d entries, want 2", len(entries))
	}
}

func TestWalkYieldsDescendantsSorted(t *testing.T) {
	p := testutil.NewMemoryProvider()
	p.PutFile("/b.txt", []byte("b"))
	p.PutFile("/a.txt", []byte("a"))
	p.PutFile("/c.txt", []byte("c"))

	ctx := context.Background()
	var paths []string
	for res := range p.Walk(ctx, "/") {
		if res.Err != nil {
			t.Fatalf("Walk error: %v", res.Err)
		}
		paths = append(paths, res.Event.Path)
	}
	want := []string{"/a.txt", "/b.txt", "/c.txt"}
	if len(paths) != len(want) {
		t.Fatalf("Walk yielded %v, want %v", paths, want)
	}
	for i := range want {
		if paths[i] != want[i] {
			t.Fatalf("Walk order = %v, want %v", paths, want)
		}
	}
}

func TestEventsStreamsSubsequentChanges(t *testing.T) {
	p := testutil.NewMemoryProvider()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch := p.Events(ctx)
	oid := p.PutFile("/a.txt", []byte("v1"))
	p.SetFile(oid, []byte("v2"))

	first := <-ch
	second := <-ch
	if first.Event.Oid != oid || second.Event.Oid != oid {
		t.Fatalf("expected both events for oid %q, got %+v and %+v", oid, first.Event, second.Event)
	}
}
