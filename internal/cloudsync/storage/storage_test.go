package storage_test

import (
	"path/filepath"
	"testing"

	"github.com/cloudsync-go/cloudsync/internal/cloudsync"
	"github.com/cloudsync-go/cloudsync/internal/cloudsync/storage"
)

// backends returns a fresh instance of every cloudsync.Storage
// implementation this package ships, so the contract tests below run
// identically against both.
func backends(t *testing.T) map[string]cloudsync.Storage {
	t.Helper()
	jsonFile, err := storage.NewJSONFile(filepath.Join(t.TempDir(), "store"))
	if err != nil {
		t.Fatalf("NewJSONFile: %v", err)
	}
	return map[string]cloudsync.Storage{
		"memory":   storage.NewMemory(),
		"jsonfile": jsonFile,
	}
}

func TestCreateReadAllRoundTrip(t *testing.T) {
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			id, err := s.Create("entries", []byte(`{"a":1}`))
			if err != nil {
				t.Fatalf("Create: %v", err)
			}
			if id == "" {
				t.Fatal("Create returned an empty id")
			}

			all, err := s.ReadAll("entries")
			if err != nil {
				t.Fatalf("ReadAll: %v", err)
			}
			if string(all[id]) != `{"a":1}` {
				t.Fatalf("ReadAll[%s] = %q, want %q", id, all[id], `{"a":1}`)
			}
		})
	}
}

func TestUpdateAndDelete(t *testing.T) {
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			id, err := s.Create("entries", []byte("v1"))
			if err != nil {
				t.Fatalf("Create: %v", err)
			}

			if err := s.Update("entries", []byte("v2"), id); err != nil {
				t.Fatalf("Update: %v", err)
			}
			all, _ := s.ReadAll("entries")
			if string(all[id]) != "v2" {
				t.Fatalf("after Update, blob = %q, want v2", all[id])
			}

			if err := s.Delete("entries", id); err != nil {
				t.Fatalf("Delete: %v", err)
			}
			all, _ = s.ReadAll("entries")
			if _, ok := all[id]; ok {
				t.Fatal("expected deleted id to be absent from ReadAll")
			}
		})
	}
}

func TestUpdateDeleteMissingIDReturnsNotFound(t *testing.T) {
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			if err := s.Update("entries", []byte("x"), "missing-id"); !cloudsync.IsNotFound(err) {
				t.Errorf("Update on missing id: err = %v, want ErrNotFound", err)
			}
			if err := s.Delete("entries", "missing-id"); !cloudsync.IsNotFound(err) {
				t.Errorf("Delete on missing id: err = %v, want ErrNotFound", err)
			}
		})
	}
}

func TestTagsAreIsolated(t *testing.T) {
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			idA, _ := s.Create("tagA", []byte("a"))
			_, _ = s.Create("tagB", []byte("b"))

			all, err := s.ReadAll("tagA")
			if err != nil {
				t.Fatalf("ReadAll: %v", err)
			}
			if len(all) != 1 || string(all[idA]) != "a" {
				t.Fatalf("ReadAll(tagA) = %v, want exactly {%s: a}", all, idA)
			}
		})
	}
}

// TestJSONFilePersistsAcrossInstances exercises the durability property
// that distinguishes JSONFile from Memory: a fresh instance pointed at the
// same root directory sees data written by a prior instance.
func TestJSONFilePersistsAcrossInstances(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "store")

	first, err := storage.NewJSONFile(dir)
	if err != nil {
		t.Fatalf("NewJSONFile: %v", err)
	}
	id, err := first.Create("entries", []byte("persisted"))
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	second, err := storage.NewJSONFile(dir)
	if err != nil {
		t.Fatalf("NewJSONFile (reopen): %v", err)
	}
	all, err := second.ReadAll("entries")
	if err != nil {
		t.Fatalf("ReadAll (reopen): %v", err)
	}
	if string(all[id]) != "persisted" {
		t.Fatalf("reopened store ReadAll[%s] = %q, want %q", id, all[id], "persisted")
	}
}
