// Package testutil provides an in-memory Provider implementation used to
// exercise the reconciliation engine's own tests and as a reference for
// provider authors validating the Provider contract (spec.md §4.1) without
// a real backing store. It is not a "concrete provider implementation" in
// the sense spec.md §1 excludes from scope — no cloud SDK, OAuth flow, or
// filesystem watcher is involved — it is pure in-process bookkeeping
// grounded on cloudsync/tests/test_sync.py's use of fixture "providers"
// to drive SyncManager end to end.
package testutil

import (
	"context"
	"crypto/sha256"
	"io"
	"sort"
	"strconv"
	"sync"

	"github.com/cloudsync-go/cloudsync/internal/cloudsync"
	"github.com/cloudsync-go/cloudsync/internal/cloudsync/pathutil"
)

type object struct {
	oid     string
	path    string
	otype   cloudsync.OType
	content []byte
	trashed bool
}

// MemoryProvider is a complete, in-process Provider: an oid-keyed object
// table plus a path index, with a synchronous event log that Events()
// replays from the point it was subscribed at (there's no cross-process
// cursor to persist, so NewCursor is simply the log length at emission
// time, formatted as a string).
type MemoryProvider struct {
	mu      sync.Mutex
	objects map[string]*object
	nextOid int
	events  []cloudsync.Event
	subs    []chan cloudsync.EventResult

	config  pathutil.Config
	oidPath bool
}

// NewMemoryProvider creates an empty MemoryProvider using the Unix-style
// path dialect.
func NewMemoryProvider() *MemoryProvider {
	return &MemoryProvider{
		objects: make(map[string]*object),
		config:  pathutil.DefaultConfig,
	}
}

func (p *MemoryProvider) PathConfig() pathutil.Config { return p.config }
func (p *MemoryProvider) OidIsPath() bool             { return p.oidPath }

func (p *MemoryProvider) allocOid() string {
	p.nextOid++
	return "oid-" + strconv.Itoa(p.nextOid)
}

func hashOf(content []byte) []byte {
	sum := sha256.Sum256(content)
	return sum[:]
}

func toObjInfo(o *object) *cloudsync.ObjInfo {
	return &cloudsync.ObjInfo{
		Oid:   o.oid,
		Path:  o.path,
		OType: o.otype,
		Hash:  hashOfIfFile(o),
	}
}

func hashOfIfFile(o *object) []byte {
	if o.otype != cloudsync.File {
		return nil
	}
	return hashOf(o.content)
}

// emit appends an event and fans it out to every live subscriber. Must be
// called with p.mu held.
func (p *MemoryProvider) emit(ev cloudsync.Event) {
	p.events = append(p.events, ev)
	ev.NewCursor = strconv.Itoa(len(p.events))
	for _, ch := range p.subs {
		select {
		case ch <- cloudsync.EventResult{Event: ev}:
		default:
			// A slow subscriber that hasn't drained gets the event
			// dropped from its immediate buffer; ColdWalk/ re-sync from
			// cursor is the documented recovery path (spec.md §6), and
			// the test provider's buffer is generously sized so this
			// should not occur in practice.
		}
	}
}

func (p *MemoryProvider) eventFor(o *object) cloudsync.Event {
	exists := cloudsync.ExistsYes
	if o.trashed {
		exists = cloudsync.ExistsTrashed
	}
	return cloudsync.Event{
		OType:  o.otype,
		Oid:    o.oid,
		Path:   o.path,
		Hash:   hashOfIfFile(o),
		Exists: exists,
	}
}

// Events implements Provider.Events.
func (p *MemoryProvider) Events(ctx context.Context) <-chan cloudsync.EventResult {
	p.mu.Lock()
	ch := make(chan cloudsync.EventResult, 256)
	p.subs = append(p.subs, ch)
	p.mu.Unlock()

	go func() {
		<-ctx.Done()
		p.mu.Lock()
		defer p.mu.Unlock()
		for i, sub := range p.subs {
			if sub == ch {
				p.subs = append(p.subs[:i], p.subs[i+1:]...)
				break
			}
		}
		close(ch)
	}()

	return ch
}

// Walk implements Provider.Walk: yields every existing, non-trashed
// descendant of path (path itself included if it is a descendant match or
// root).
func (p *MemoryProvider) Walk(ctx context.Context, path string) <-chan cloudsync.EventResult {
	ch := make(chan cloudsync.EventResult, 64)
	go func() {
		defer close(ch)
		p.mu.Lock()
		var matches []*object
		for _, o := range p.objects {
			if o.trashed {
				continue
			}
			if _, ok := p.config.IsSubpath(path, o.path, false); ok {
				matches = append(matches, o)
			}
		}
		sort.Slice(matches, func(i, j int) bool { return matches[i].path < matches[j].path })
		p.mu.Unlock()

		for _, o := range matches {
			select {
			case ch <- cloudsync.EventResult{Event: p.eventFor(o)}:
			case <-ctx.Done():
				return
			}
		}
	}()
	return ch
}

func (p *MemoryProvider) InfoPath(ctx context.Context, path string) (*cloudsync.ObjInfo, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, o := range p.objects {
		if o.path == path && !o.trashed {
			return toObjInfo(o), nil
		}
	}
	return nil, nil
}

func (p *MemoryProvider) InfoOid(ctx context.Context, oid string) (*cloudsync.ObjInfo, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	o, ok := p.objects[oid]
	if !ok || o.trashed {
		return nil, nil
	}
	return toObjInfo(o), nil
}

func (p *MemoryProvider) ExistsOid(ctx context.Context, oid string) (bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	o, ok := p.objects[oid]
	return ok && !o.trashed, nil
}

func (p *MemoryProvider) ExistsPath(ctx context.Context, path string) (bool, error) {
	info, err := p.InfoPath(ctx, path)
	return info != nil, err
}

func (p *MemoryProvider) HashOid(ctx context.Context, oid string) ([]byte, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	o, ok := p.objects[oid]
	if !ok || o.trashed || o.otype != cloudsync.File {
		return nil, nil
	}
	return hashOf(o.content), nil
}

func (p *MemoryProvider) Create(ctx context.Context, path string, reader io.Reader) (*cloudsync.ObjInfo, error) {
	content, err := io.ReadAll(reader)
	if err != nil {
		return nil, err
	}

	p.mu.Lock()
	for _, o := range p.objects {
		if o.path == path && !o.trashed {
			p.mu.Unlock()
			return nil, cloudsync.ErrExists
		}
	}
	parent, _ := p.config.Split(path)
	if parent != p.config.Sep {
		found := false
		for _, o := range p.objects {
			if o.path == parent && !o.trashed && o.otype == cloudsync.Directory {
				found = true
				break
			}
		}
		if !found {
			p.mu.Unlock()
			return nil, cloudsync.ErrNotFound
		}
	}

	oid := p.allocOid()
	o := &object{oid: oid, path: path, otype: cloudsync.File, content: content}
	p.objects[oid] = o
	p.emit(p.eventFor(o))
	p.mu.Unlock()
	return toObjInfo(o), nil
}

func (p *MemoryProvider) Upload(ctx context.Context, oid string, reader io.Reader) (*cloudsync.ObjInfo, error) {
	content, err := io.ReadAll(reader)
	if err != nil {
		return nil, err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	o, ok := p.objects[oid]
	if !ok || o.trashed {
		return nil, cloudsync.ErrNotFound
	}
	o.content = content
	p.emit(p.eventFor(o))
	return toObjInfo(o), nil
}

func (p *MemoryProvider) Download(ctx context.Context, oid string, writer io.Writer) error {
	p.mu.Lock()
	o, ok := p.objects[oid]
	if !ok || o.trashed {
		p.mu.Unlock()
		return cloudsync.ErrNotFound
	}
	content := append([]byte(nil), o.content...)
	p.mu.Unlock()
	_, err := writer.Write(content)
	return err
}

func (p *MemoryProvider) Rename(ctx context.Context, oid string, newPath string) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	o, ok := p.objects[oid]
	if !ok || o.trashed {
		return "", cloudsync.ErrNotFound
	}
	for otherOid, other := range p.objects {
		if otherOid != oid && other.path == newPath && !other.trashed {
			return "", cloudsync.ErrExists
		}
	}
	o.path = newPath
	p.emit(p.eventFor(o))
	return o.oid, nil
}

func (p *MemoryProvider) Mkdir(ctx context.Context, path string) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, o := range p.objects {
		if o.path == path && !o.trashed {
			if o.otype == cloudsync.Directory {
				return "", cloudsync.ErrExists
			}
			return "", cloudsync.ErrExists
		}
	}
	parent, _ := p.config.Split(path)
	if parent != p.config.Sep {
		found := false
		for _, o := range p.objects {
			if o.path == parent && !o.trashed && o.otype == cloudsync.Directory {
				found = true
				break
			}
		}
		if !found {
			return "", cloudsync.ErrNotFound
		}
	}
	oid := p.allocOid()
	o := &object{oid: oid, path: path, otype: cloudsync.Directory}
	p.objects[oid] = o
	p.emit(p.eventFor(o))
	return oid, nil
}

func (p *MemoryProvider) Delete(ctx context.Context, oid string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	o, ok := p.objects[oid]
	if !ok || o.trashed {
		return cloudsync.ErrNotFound
	}
	o.trashed = true
	p.emit(p.eventFor(o))
	return nil
}

func (p *MemoryProvider) Listdir(ctx context.Context, oid string) ([]cloudsync.DirInfo, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	dir, ok := p.objects[oid]
	if !ok || dir.trashed || dir.otype != cloudsync.Directory {
		return nil, cloudsync.ErrNotFound
	}
	var out []cloudsync.DirInfo
	for _, o := range p.objects {
		if o.trashed {
			continue
		}
		parent, name := p.config.Split(o.path)
		if parent == dir.path {
			out = append(out, cloudsync.DirInfo{Oid: o.oid, Name: name, OType: o.otype, Hash: hashOfIfFile(o)})
		}
	}
	return out, nil
}

// PutFile is a test fixture helper: it directly creates a file object at
// path with the given content, bypassing the Create/ErrExists dance, and
// returns its oid. Intended for seeding a provider before a test subscribes
// to its events.
func (p *MemoryProvider) PutFile(path string, content []byte) string {
	p.mu.Lock()
	defer p.mu.Unlock()
	oid := p.allocOid()
	o := &object{oid: oid, path: path, otype: cloudsync.File, content: append([]byte(nil), content...)}
	p.objects[oid] = o
	p.emit(p.eventFor(o))
	return oid
}

// SetFile overwrites the content of an existing file by oid and emits a
// change event, the test-driver equivalent of a local edit.
func (p *MemoryProvider) SetFile(oid string, content []byte) {
	p.mu.Lock()
	defer p.mu.Unlock()
	o, ok := p.objects[oid]
	if !ok {
		return
	}
	o.content = append([]byte(nil), content...)
	p.emit(p.eventFor(o))
}

// ReadFile returns the current content of the file at path, for test
// assertions.
func (p *MemoryProvider) ReadFile(path string) ([]byte, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, o := range p.objects {
		if o.path == path && !o.trashed {
			return append([]byte(nil), o.content...), true
		}
	}
	return nil, false
}

// Paths returns the sorted set of non-trashed object paths, for test
// assertions about the overall tree shape.
func (p *MemoryProvider) Paths() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []string
	for _, o := range p.objects {
		if !o.trashed {
			out = append(out, o.path)
		}
	}
	sort.Strings(out)
	return out
}
