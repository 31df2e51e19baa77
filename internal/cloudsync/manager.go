package cloudsync

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/pkg/errors"

	"github.com/cloudsync-go/cloudsync/internal/cloudsync/logging"
	"github.com/cloudsync-go/cloudsync/internal/cloudsync/pathutil"
)

// ManagerOptions carries the reconciliation tunables that
// configuration.Configuration maps onto concrete engine behavior: the
// sibling-path suffix used to preserve a losing content version during a
// hash-conflict split, and the depth bound on mkdirs' parent-creation
// recursion (a pathological or cyclic translator could otherwise make it
// recurse indefinitely).
type ManagerOptions struct {
	ConflictSuffix   string
	MkdirsMaxRetries uint32
}

// DefaultManagerOptions matches configuration.Default(): a ".conflicted"
// suffix and 32 levels of mkdirs parent recursion.
var DefaultManagerOptions = ManagerOptions{ConflictSuffix: ".conflicted", MkdirsMaxRetries: 32}

func (o ManagerOptions) withDefaults() ManagerOptions {
	if o.ConflictSuffix == "" {
		o.ConflictSuffix = DefaultManagerOptions.ConflictSuffix
	}
	if o.MkdirsMaxRetries == 0 {
		o.MkdirsMaxRetries = DefaultManagerOptions.MkdirsMaxRetries
	}
	return o
}

// SyncManager is the reconciliation engine described in spec.md §4.4: it
// pops one changed entry per tick, refreshes live state, classifies the
// change, and issues compensating operations on the other side. It
// implements Runnable so it can be driven by the cooperative harness in
// runnable.go.
type SyncManager struct {
	State     *SyncState
	Providers [2]Provider
	Translate Translator
	tempDir   string
	log       *logging.Logger

	conflictSuffix   string
	mkdirsMaxRetries uint32
}

// NewSyncManager constructs a SyncManager with its own scratch directory
// for in-flight transfer temp files, matching cloudsync/sync.py's
// SyncManager.__init__ (tempfile.mkdtemp). A zero-valued field in opts
// falls back to DefaultManagerOptions, the way configuration.Load fills in
// defaults for an unset YAML field.
func NewSyncManager(state *SyncState, providers [2]Provider, translate Translator, opts ManagerOptions, log *logging.Logger) (*SyncManager, error) {
	dir, err := os.MkdirTemp("", "cloudsync-*")
	if err != nil {
		return nil, errors.Wrap(err, "unable to create scratch directory")
	}
	opts = opts.withDefaults()
	return &SyncManager{
		State:            state,
		Providers:        providers,
		Translate:        translate,
		tempDir:          dir,
		log:              log,
		conflictSuffix:   opts.ConflictSuffix,
		mkdirsMaxRetries: opts.MkdirsMaxRetries,
	}, nil
}

// Do implements one reconciliation tick (spec.md §4.4 step 1): pop one
// changed entry, if any, and sync it. A no-op if the changeset is empty.
func (m *SyncManager) Do(ctx context.Context) error {
	ent := m.State.Change()
	if ent == nil {
		return nil
	}
	m.log.Debug("doing eid ", ent.StorageID)
	if err := m.sync(ctx, ent); err != nil {
		m.log.Warn(err)
	}
	return m.State.StorageUpdate(ent)
}

// Done implements the Runnable teardown contract: it removes the scratch
// directory used for in-flight transfers.
func (m *SyncManager) Done() {
	m.log.Info("cleaning up scratch directory ", m.tempDir)
	_ = os.RemoveAll(m.tempDir)
}

// sync is the per-entry body of Do, spec.md §4.4 steps 2-6.
func (m *SyncManager) sync(ctx context.Context, ent *SyncEntry) error {
	m.log.Debug("syncing eid ", ent.StorageID)

	if err := ent.GetLatestState(ctx, m.Providers); err != nil {
		return err
	}

	if ent.HashConflict() {
		return m.handleHashConflict(ctx, ent)
	}

	if ent.PathConflict() {
		return m.handlePathConflict(ctx, ent)
	}

	for _, side := range []Side{Local, Remote} {
		if ent.Get(side).hasChanged() {
			resp, err := m.embraceChange(ctx, ent, side, side.Other())
			if err != nil {
				return err
			}
			if resp == Finished {
				m.finishSide(ent, side)
			}
			break
		}
	}
	return nil
}

// tempFilePath returns the scratch path for a transfer of the given
// content hash. Preferring a hash-derived name (rather than a random temp
// name) means concurrent transfers for different entries never collide and
// an interrupted transfer can be resumed by name, matching
// cloudsync/sync.py's SyncManager.temp_file.
func (m *SyncManager) tempFilePath(hash []byte) string {
	return filepath.Join(m.tempDir, DebugSig(string(hash))+"-"+hashHex(hash))
}

func hashHex(h []byte) string {
	const hexDigits = "0123456789abcdef"
	out := make([]byte, len(h)*2)
	for i, b := range h {
		out[i*2] = hexDigits[b>>4]
		out[i*2+1] = hexDigits[b&0xf]
	}
	if len(out) == 0 {
		return "empty"
	}
	return string(out)
}

// finishSide clears side's pending change, tells the state the entry may
// be dequeued (subject to SyncState.Finished's staleness check), and
// removes any leftover transfer temp file. Matches
// cloudsync/sync.py's SyncManager.finished.
func (m *SyncManager) finishSide(ent *SyncEntry, side Side) {
	ent.Get(side).Changed = time.Time{}
	m.State.Finished(ent)

	if ent.TempFile != "" {
		_ = os.Remove(ent.TempFile)
		ent.TempFile = ""
	}
}

// downloadChanged downloads changed side's current content into ent's
// scratch temp file, reusing an already-downloaded file if present.
// Returns false (with the side marked TRASHED) if the source object is gone
// by the time the download is attempted. Matches
// cloudsync/sync.py's SyncManager.download_changed.
func (m *SyncManager) downloadChanged(ctx context.Context, changed Side, ent *SyncEntry) (bool, error) {
	st := ent.Get(changed)
	if ent.TempFile == "" {
		ent.TempFile = m.tempFilePath(st.Hash)
		ent.Dirty = true
	}

	if _, err := os.Stat(ent.TempFile); err == nil {
		return true, nil
	}

	partial := ent.TempFile + ".tmp"
	f, err := os.Create(partial)
	if err != nil {
		return false, errors.Wrap(err, "unable to create scratch file")
	}

	dlErr := m.Providers[changed].Download(ctx, st.Oid, f)
	closeErr := f.Close()
	if dlErr != nil {
		_ = os.Remove(partial)
		if IsNotFound(dlErr) {
			m.log.Debugf("download from %s failed not-found, switching to trashed", changed)
			st.Exists = ExistsTrashed
			ent.Dirty = true
			return false, nil
		}
		return false, dlErr
	}
	if closeErr != nil {
		return false, errors.Wrap(closeErr, "unable to finalize scratch file")
	}
	if err := os.Rename(partial, ent.TempFile); err != nil {
		return false, errors.Wrap(err, "unable to rename scratch file into place")
	}
	return true, nil
}

// mkdirs is an idempotent recursive directory create on a single provider,
// per spec.md §4.4.3: attempt Mkdir; on ErrExists, resolve the existing oid
// via InfoPath; on ErrNotFound, recurse to the parent (a parent equal to
// path itself is a fatal configuration error, since it means the path
// helper's Split is not making progress) then retry. Recursion is bounded
// by m.mkdirsMaxRetries (ManagerOptions.MkdirsMaxRetries), since the
// recursion is otherwise only bounded by path depth and a cyclic or
// pathological translator could make Split never reach the root.
func (m *SyncManager) mkdirs(ctx context.Context, p Provider, path string) (string, error) {
	return m.mkdirsDepth(ctx, p, path, 0)
}

func (m *SyncManager) mkdirsDepth(ctx context.Context, p Provider, path string, depth uint32) (string, error) {
	if depth >= m.mkdirsMaxRetries {
		return "", errors.Errorf("mkdirs: exceeded %d levels of parent recursion creating %s", m.mkdirsMaxRetries, path)
	}
	m.log.Debug("mkdirs ", path)
	oid, err := p.Mkdir(ctx, path)
	if err == nil {
		return oid, nil
	}
	if IsExists(err) {
		info, infoErr := p.InfoPath(ctx, path)
		if infoErr != nil {
			return "", infoErr
		}
		if info != nil {
			return info.Oid, nil
		}
		return "", err
	}
	if IsNotFound(err) {
		parent, _ := p.PathConfig().Split(path)
		if parent == path {
			return "", errors.Wrap(err, "mkdirs: parent path did not change, refusing to recurse")
		}
		m.log.Debug("mkdirs parent ", parent)
		if _, err := m.mkdirsDepth(ctx, p, parent, depth+1); err != nil {
			return "", err
		}
		oid, err = p.Mkdir(ctx, path)
		if err != nil {
			if IsNotFound(err) {
				return "", errors.Wrap(ErrExists, "mkdirs: parent create raced with target create")
			}
			return "", err
		}
		return oid, nil
	}
	return "", err
}

// mkdirSynced materializes a directory creation on the synced side, per
// spec.md §4.4.2(b): discard any duplicate directory entries on the
// changed side first, then recursively mkdirs on the synced side, then set
// sync paths on both sides. Matches
// cloudsync/sync.py's SyncManager.mkdir_synced.
func (m *SyncManager) mkdirSynced(ctx context.Context, changed Side, ent *SyncEntry, translatedPath string) error {
	synced := changed.Other()

	others := m.otherEntriesAtPath(changed, ent.Get(changed).Path, ent)
	for _, other := range others {
		if other.OType == Directory {
			other.Discard()
			if err := m.State.StorageUpdate(other); err != nil {
				return err
			}
		}
	}
	others = nonDiscarded(others)
	others = withoutEitherTrashed(others, changed, synced)
	if len(others) > 0 {
		return errors.New("cloudsync: creating a directory where a file entry already exists is not supported")
	}

	oid, err := m.mkdirs(ctx, m.Providers[synced], translatedPath)
	if err != nil {
		return err
	}

	others = m.otherEntriesAtPath(changed, ent.Get(changed).Path, ent)
	for _, other := range others {
		if other.OType == Directory {
			m.log.Debug("discarding duplicate directory entry caused by mkdirs")
			other.Discard()
			if err := m.State.StorageUpdate(other); err != nil {
				return err
			}
		}
	}

	ent.Get(synced).SyncPath = translatedPath
	ent.Get(changed).SyncPath = ent.Get(changed).Path
	ent.Dirty = true

	path := translatedPath
	exists := ExistsYes
	m.State.UpdateEntry(synced, ent, UpdateEntryParams{Oid: &oid, Path: &path, Exists: &exists})
	return nil
}

func (m *SyncManager) otherEntriesAtPath(side Side, path string, exclude *SyncEntry) []*SyncEntry {
	all := m.State.LookupPath(side, path)
	out := all[:0:0]
	for _, e := range all {
		if e != exclude {
			out = append(out, e)
		}
	}
	return out
}

func nonDiscarded(ents []*SyncEntry) []*SyncEntry {
	out := ents[:0:0]
	for _, e := range ents {
		if !e.Discarded {
			out = append(out, e)
		}
	}
	return out
}

func withoutEitherTrashed(ents []*SyncEntry, a, b Side) []*SyncEntry {
	out := ents[:0:0]
	for _, e := range ents {
		if e.Get(a).Exists == ExistsTrashed || e.Get(b).Exists == ExistsTrashed {
			continue
		}
		out = append(out, e)
	}
	return out
}

// uploadSynced writes ent's downloaded temp file content to the synced
// side's existing oid, then records both sides' sync witnesses. Matches
// cloudsync/sync.py's SyncManager.upload_synced.
func (m *SyncManager) uploadSynced(ctx context.Context, changed Side, ent *SyncEntry) error {
	synced := changed.Other()

	f, err := os.Open(ent.TempFile)
	if err != nil {
		return errors.Wrap(err, "unable to open scratch file for upload")
	}
	defer f.Close()

	info, err := m.Providers[synced].Upload(ctx, ent.Get(synced).Oid, f)
	if err != nil {
		if IsNotFound(err) {
			return errors.Wrap(err, "upload target vanished mid-transfer")
		}
		return err
	}

	m.recordSyncedUpload(ent, changed, synced, info)
	return nil
}

func (m *SyncManager) recordSyncedUpload(ent *SyncEntry, changed, synced Side, info *ObjInfo) {
	syncedState := ent.Get(synced)
	syncedState.SyncHash = info.Hash
	if info.Path != "" {
		syncedState.SyncPath = info.Path
	} else {
		syncedState.SyncPath = syncedState.Path
	}

	changedState := ent.Get(changed)
	changedState.SyncHash = changedState.Hash
	changedState.SyncPath = changedState.Path
	ent.Dirty = true

	oid := info.Oid
	path := syncedState.SyncPath
	exists := ExistsYes
	m.State.UpdateEntry(synced, ent, UpdateEntryParams{Oid: &oid, Path: &path, Exists: &exists})
}

// createSyncedOnce performs the single Create attempt behind createSynced,
// split out so the NotFound-retry wrapper doesn't need to duplicate it.
func (m *SyncManager) createSyncedOnce(ctx context.Context, changed Side, ent *SyncEntry, translatedPath string) error {
	synced := changed.Other()
	f, err := os.Open(ent.TempFile)
	if err != nil {
		return errors.Wrap(err, "unable to open scratch file for create")
	}
	defer f.Close()

	info, err := m.Providers[synced].Create(ctx, translatedPath, f)
	if err != nil {
		return err
	}

	syncedState := ent.Get(synced)
	syncedState.SyncHash = info.Hash
	if info.Path != "" {
		syncedState.SyncPath = info.Path
	} else {
		syncedState.SyncPath = translatedPath
	}
	changedState := ent.Get(changed)
	changedState.SyncHash = changedState.Hash
	changedState.SyncPath = changedState.Path
	ent.Dirty = true

	oid := info.Oid
	path := syncedState.SyncPath
	exists := ExistsYes
	m.State.UpdateEntry(synced, ent, UpdateEntryParams{Oid: &oid, Path: &path, Exists: &exists})
	return nil
}

// createSynced creates a brand new object on the synced side, falling back
// to creating missing parent directories on ErrNotFound, and requeuing on
// ErrExists (a parent/child creation race settling itself out on a later
// tick). Before recursing into mkdirs, it classifies the parent via
// pathutil.VerifyParentFolder (spec.md SUPPLEMENTED FEATURES #2): if the
// parent exists but is a file rather than a directory, that is a real
// collision mkdirs cannot resolve, so it is surfaced immediately instead of
// recursing into a doomed Mkdir call. Matches cloudsync/sync.py's
// SyncManager.create_synced.
func (m *SyncManager) createSynced(ctx context.Context, changed Side, ent *SyncEntry, translatedPath string) (Response, error) {
	synced := changed.Other()
	err := m.createSyncedOnce(ctx, changed, ent, translatedPath)
	if err == nil {
		return Finished, nil
	}
	if IsNotFound(err) {
		p := m.Providers[synced]
		if verifyErr := p.PathConfig().VerifyParentFolder(ctx, infoProviderAdapter{p}, translatedPath); verifyErr != nil && pathutil.IsParentIsFile(verifyErr) {
			return Requeue, errors.Wrap(ErrExists, "createSynced: parent path is occupied by a file, not a folder")
		}
		parent, _ := p.PathConfig().Split(translatedPath)
		if _, mkErr := m.mkdirs(ctx, p, parent); mkErr != nil {
			return Requeue, mkErr
		}
		if err := m.createSyncedOnce(ctx, changed, ent, translatedPath); err != nil {
			return Requeue, err
		}
		return Finished, nil
	}
	if IsExists(err) {
		m.log.Debug("create raced with an existing folder, requeuing")
		return Requeue, nil
	}
	return Requeue, err
}

// deleteSynced propagates a deletion observed on changed to synced, per
// spec.md §4.4.1's Deletion bullet. If another (non-discarded) entry
// occupies the same path on changed, and any of those is a pending
// creation, the deletion is assumed superseded by that creation and this
// entry is discarded without touching the synced side; otherwise a
// conflict is logged and the entry is discarded. Matches
// cloudsync/sync.py's SyncManager.delete_synced.
func (m *SyncManager) deleteSynced(ctx context.Context, ent *SyncEntry, changed, synced Side) error {
	m.log.Debug("handling deletion of ", ent.Get(changed).Path)

	others := nonDiscarded(m.otherEntriesAtPath(changed, ent.Get(changed).Path, ent))

	if len(others) == 0 {
		if ent.Get(synced).Oid != "" {
			if err := m.Providers[synced].Delete(ctx, ent.Get(synced).Oid); err != nil && !IsNotFound(err) {
				return err
			}
		} else {
			m.log.Debug("was never synced, ignoring deletion")
		}
		ent.Get(synced).Exists = ExistsTrashed
		ent.Dirty = true
		return nil
	}

	pendingCreate := false
	for _, other := range others {
		if other.IsCreation(changed) {
			m.log.Debug("discarding delete in favor of pending create")
			pendingCreate = true
		}
	}
	if !pendingCreate {
		m.log.Warn(errors.Errorf("conflict: delete of %s raced with other entries at the same path", ent.Get(changed).Path))
	}
	ent.Discard()
	return nil
}

// checkDisjointCreate looks for a pre-existing, non-trashed entry occupying
// the synced side at translatedPath under a different oid — i.e. two
// independent creations that happen to translate to the same path. If
// found, it triggers split-conflict handling and reports that the caller
// should requeue. Matches cloudsync/sync.py's
// SyncManager.check_disjoint_create.
func (m *SyncManager) checkDisjointCreate(ctx context.Context, ent *SyncEntry, changed, synced Side, translatedPath string) (bool, error) {
	if ent.OType != File {
		return false, nil
	}

	others := m.otherEntriesAtPath(synced, translatedPath, ent)
	if len(others) == 0 {
		return false, nil
	}

	live := withoutEitherTrashed(others, synced, changed)
	if len(live) == 0 {
		return false, nil
	}
	if len(live) != 1 {
		return false, errors.New("cloudsync: more than one live entry collides on a disjoint create")
	}

	if err := m.handleSplitConflictEntries(ctx, live[0], synced, ent, changed); err != nil {
		return false, err
	}
	return true, nil
}

// handlePathChangeOrCreation is spec.md §4.4.2: resolve an unknown path via
// InfoOid if necessary, translate it, then either materialize a creation
// (directory mkdir, or file download+upload/create) or perform a rename.
// Matches cloudsync/sync.py's SyncManager.handle_path_change_or_creation.
func (m *SyncManager) handlePathChangeOrCreation(ctx context.Context, ent *SyncEntry, changed, synced Side) (Response, error) {
	if ent.Get(changed).Path == "" {
		if err := m.updateSyncPath(ctx, ent, changed); err != nil {
			return Requeue, err
		}
		if ent.Get(changed).Exists == ExistsTrashed {
			return Requeue, nil
		}
	}

	translatedPath, err := m.Translate(synced, ent.Get(changed).Path)
	if err != nil {
		return Requeue, err
	}
	if translatedPath == ignoreTranslation {
		return Finished, nil
	}

	if ent.IsCreation(changed) {
		disjoint, err := m.checkDisjointCreate(ctx, ent, changed, synced, translatedPath)
		if err != nil {
			return Requeue, err
		}
		if disjoint {
			return Requeue, nil
		}
	}

	if ent.IsCreation(changed) {
		if ent.OType == Directory {
			if err := m.mkdirSynced(ctx, changed, ent, translatedPath); err != nil {
				return Requeue, err
			}
			return Finished, nil
		}
		ok, err := m.downloadChanged(ctx, changed, ent)
		if err != nil {
			return Requeue, err
		}
		if !ok {
			return Finished, nil
		}
		if ent.Get(synced).Oid != "" {
			if err := m.uploadSynced(ctx, changed, ent); err != nil {
				return Requeue, err
			}
			return Finished, nil
		}
		return m.createSynced(ctx, changed, ent, translatedPath)
	}

	syncedState := ent.Get(synced)
	if syncedState.Oid == "" {
		return Requeue, errors.New("cloudsync: rename requested but synced side has no oid")
	}
	m.log.Debugf("renaming %s -> %s", syncedState.SyncPath, translatedPath)
	if _, err := m.Providers[synced].Rename(ctx, syncedState.Oid, translatedPath); err != nil {
		return Requeue, err
	}
	syncedState.Path = translatedPath
	syncedState.SyncPath = translatedPath
	ent.Get(changed).SyncPath = ent.Get(changed).Path
	ent.Dirty = true
	return Finished, nil
}

// embraceChange is the per-side decision tree of spec.md §4.4.1: deletion,
// path change / creation, content-only change, or a spurious no-op.
// Matches cloudsync/sync.py's SyncManager.embrace_change.
func (m *SyncManager) embraceChange(ctx context.Context, ent *SyncEntry, changed, synced Side) (Response, error) {
	m.log.Debug("embracing change on ", changed)

	if ent.Get(changed).Exists == ExistsTrashed {
		if err := m.deleteSynced(ctx, ent, changed, synced); err != nil {
			return Requeue, err
		}
		return Finished, nil
	}

	if ent.IsPathChange(changed) || ent.IsCreation(changed) {
		return m.handlePathChangeOrCreation(ctx, ent, changed, synced)
	}

	if !bytesEqual(ent.Get(changed).Hash, ent.Get(changed).SyncHash) {
		m.log.Debug("needs upload")
		if ent.Get(synced).Oid == "" {
			return Requeue, errors.New("cloudsync: content change with no synced oid on the other side")
		}
		if _, err := m.downloadChanged(ctx, changed, ent); err != nil {
			return Requeue, err
		}
		if err := m.uploadSynced(ctx, changed, ent); err != nil {
			return Requeue, err
		}
		return Finished, nil
	}

	m.log.Info("spurious change flag with nothing to do")
	return Finished, nil
}

// updateSyncPath resolves a missing changed-side path via InfoOid, per
// spec.md §4.4.2 step 1. Matches cloudsync/sync.py's
// SyncManager.update_sync_path.
func (m *SyncManager) updateSyncPath(ctx context.Context, ent *SyncEntry, changed Side) error {
	st := ent.Get(changed)
	if st.Oid == "" {
		return errors.New("cloudsync: path resolution requested but changed side has no oid")
	}

	info, err := m.Providers[changed].InfoOid(ctx, st.Oid)
	if err != nil {
		return err
	}
	if info == nil {
		st.Exists = ExistsTrashed
		ent.Dirty = true
		return nil
	}
	if info.Path == "" {
		return errors.New("cloudsync: provider info has no path: impossible sync state")
	}

	path := info.Path
	exists := ExistsYes
	m.State.UpdateEntry(changed, ent, UpdateEntryParams{Oid: &st.Oid, Path: &path, Exists: &exists})
	return nil
}

// handleHashConflict splits the entry and rewrites the losing side's name,
// per spec.md §4.4.4. Matches cloudsync/sync.py's
// SyncManager.handle_hash_conflict.
func (m *SyncManager) handleHashConflict(ctx context.Context, ent *SyncEntry) error {
	deferEnt, deferSide, replaceEnt, replaceSide := m.State.Split(ent)
	return m.handleSplitConflictEntries(ctx, deferEnt, deferSide, replaceEnt, replaceSide)
}

// handleSplitConflictEntries renames the replace side's object to
// path+m.conflictSuffix and re-queues replaceEnt there as a fresh creation
// (its sync witnesses cleared and its Changed flag set), so the next ticks
// copy the conflict file to the other side as well. It also re-arms the
// defer side so the engine re-pulls the canonical content on the next tick.
// Both files survive on both sides; no data is dropped. Grounded on
// cloudsync/sync.py's SyncManager.handle_split_conflict.
func (m *SyncManager) handleSplitConflictEntries(ctx context.Context, deferEnt *SyncEntry, deferSide Side, replaceEnt *SyncEntry, replaceSide Side) error {
	defer_ := deferEnt.Get(deferSide)
	replace := replaceEnt.Get(replaceSide)

	m.log.Debugf("defer %s replace %s", defer_.Path, replace.Path)

	conflictPath := replace.Path + m.conflictSuffix
	if _, err := m.Providers[replaceSide].Rename(ctx, replace.Oid, conflictPath); err != nil {
		return err
	}
	replace.SyncPath = ""
	replace.SyncHash = nil
	path := conflictPath
	exists := ExistsYes
	m.State.Update(replaceSide, replaceEnt.OType, replace.Oid, UpdateEntryParams{Path: &path, Exists: &exists})

	defer_.Changed = now()
	deferEnt.Dirty = true
	return nil
}

// handlePathConflict resolves a case where both sides independently moved
// the same object to different paths: the lexicographically greater path
// wins, and the losing side is renamed to match, per spec.md §4.4.5.
// Matches cloudsync/sync.py's SyncManager.handle_path_conflict.
func (m *SyncManager) handlePathConflict(ctx context.Context, ent *SyncEntry) error {
	path0, path1 := ent.Get(Local).Path, ent.Get(Remote).Path

	var picked Side
	if path0 > path1 {
		picked = Local
	} else {
		picked = Remote
	}
	other := picked.Other()

	otherPath, err := m.Translate(other, ent.Get(picked).Path)
	if err != nil {
		return err
	}
	if otherPath == ignoreTranslation {
		return nil
	}

	m.log.Debugf("renaming to resolve path conflict: %s -> %s", ent.Get(other).Oid, otherPath)
	if _, err := m.Providers[other].Rename(ctx, ent.Get(other).Oid, otherPath); err != nil {
		return err
	}
	oid := ent.Get(other).Oid
	m.State.UpdateEntry(other, ent, UpdateEntryParams{Oid: &oid, Path: &otherPath})
	ent.Get(other).SyncPath = otherPath
	ent.Get(picked).SyncPath = ent.Get(picked).Path
	ent.Dirty = true
	return nil
}
