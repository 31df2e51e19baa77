package pathutil

import (
	"context"
	"testing"
)

func TestJoin(t *testing.T) {
	c := DefaultConfig
	cases := []struct {
		in   []string
		want string
	}{
		{[]string{"/a", "b", "c"}, "/a/b/c"},
		{[]string{"a/", "/b/"}, "/a/b"},
		{[]string{"/"}, "/"},
		{[]string{"", "a", ""}, "/a"},
		{nil, "/"},
	}
	for _, tc := range cases {
		if got := c.Join(tc.in...); got != tc.want {
			t.Errorf("Join(%v) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestSplit(t *testing.T) {
	c := DefaultConfig
	cases := []struct {
		path       string
		wantParent string
		wantName   string
	}{
		{"/a/b/c", "/a/b", "c"},
		{"/a", "/", "a"},
		{"noseparator", "noseparator", ""},
		{"/", "/", ""},
	}
	for _, tc := range cases {
		parent, name := c.Split(tc.path)
		if parent != tc.wantParent || name != tc.wantName {
			t.Errorf("Split(%q) = (%q, %q), want (%q, %q)", tc.path, parent, name, tc.wantParent, tc.wantName)
		}
	}
}

func TestNormalizePath(t *testing.T) {
	c := DefaultConfig
	cases := map[string]string{
		"/a//b///c/": "/a/b/c",
		"a/b":        "/a/b",
		"///":        "/",
		"":           "/",
	}
	for in, want := range cases {
		if got := c.NormalizePath(in); got != want {
			t.Errorf("NormalizePath(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestIsSubpath(t *testing.T) {
	c := DefaultConfig

	if rel, ok := c.IsSubpath("/a", "/a/b/c", true); !ok || rel != "/b/c" {
		t.Errorf("strict subpath: got (%q, %v)", rel, ok)
	}
	if _, ok := c.IsSubpath("/a", "/a", true); ok {
		t.Error("strict subpath should reject equal paths")
	}
	if rel, ok := c.IsSubpath("/a", "/a", false); !ok || rel != "/" {
		t.Errorf("non-strict equal paths: got (%q, %v)", rel, ok)
	}
	if _, ok := c.IsSubpath("/a", "/ab/c", true); ok {
		t.Error("/ab/c should not be considered a subpath of /a")
	}
	if _, ok := c.IsSubpath("/a/b", "/a", true); ok {
		t.Error("/a should not be considered a subpath of /a/b")
	}
}

func TestReplacePath(t *testing.T) {
	c := DefaultConfig

	got, ok := c.ReplacePath("/src/dir/file.txt", "/src", "/dst")
	if !ok || got != "/dst/dir/file.txt" {
		t.Fatalf("ReplacePath = (%q, %v), want (/dst/dir/file.txt, true)", got, ok)
	}

	got, ok = c.ReplacePath("/src", "/src", "/dst")
	if !ok || got != "/dst" {
		t.Fatalf("ReplacePath on fromDir itself = (%q, %v), want (/dst, true)", got, ok)
	}

	if _, ok := c.ReplacePath("/other/file.txt", "/src", "/dst"); ok {
		t.Error("ReplacePath should fail for a path outside fromDir")
	}
}

type fakeInfoProvider struct {
	dirs  map[string]bool
	files map[string]bool
}

func (f *fakeInfoProvider) InfoPath(_ context.Context, path string) (string, bool, bool, error) {
	if f.dirs[path] {
		return "oid-" + path, true, true, nil
	}
	if f.files[path] {
		return "oid-" + path, false, true, nil
	}
	return "", false, false, nil
}

func TestVerifyParentFolder(t *testing.T) {
	c := DefaultConfig
	p := &fakeInfoProvider{
		dirs:  map[string]bool{"/a": true},
		files: map[string]bool{"/a/file.txt": true},
	}

	if err := c.VerifyParentFolder(context.Background(), p, "/a/new.txt"); err != nil {
		t.Errorf("expected nil error for an existing directory parent, got %v", err)
	}
	if err := c.VerifyParentFolder(context.Background(), p, "/new.txt"); err != nil {
		t.Errorf("expected nil error for a root-level parent, got %v", err)
	}
	if err := c.VerifyParentFolder(context.Background(), p, "/missing/new.txt"); err == nil {
		t.Error("expected an error for a missing parent")
	}
	if err := c.VerifyParentFolder(context.Background(), p, "/a/file.txt/new.txt"); err == nil {
		t.Error("expected an error when the parent is a file, not a directory")
	}
}

func TestDirname(t *testing.T) {
	c := DefaultConfig
	cases := map[string]string{
		"/a/b/c": "/a/b",
		"/a":     "/",
		"/":      "/",
	}
	for in, want := range cases {
		if got := c.Dirname(in); got != want {
			t.Errorf("Dirname(%q) = %q, want %q", in, got, want)
		}
	}
}
