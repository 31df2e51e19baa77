// Package pathutil implements the provider-side path manipulation rules
// specified in spec.md §4.1: separator-aware join/split/normalize, subpath
// detection, and path replacement. It is grounded on cloudsync/provider.py's
// Provider.join/split/normalize_path/is_subpath/replace_path helper methods,
// generalized from Python classmethods/instance-methods on a base Provider
// class into methods on a plain Go value type so any Provider implementation
// can embed or delegate to it without inheritance.
package pathutil

import (
	"context"
	"regexp"
	"strings"

	"github.com/pkg/errors"
)

// errNotFoundParent and errParentIsFile are the sentinel causes
// VerifyParentFolder returns, classified via IsMissingParent/IsParentIsFile.
// They are deliberately local to this package (rather than reusing
// cloudsync.ErrNotFound) so pathutil stays free of a dependency on the core
// package; a caller that wants to fold "missing parent" into the core
// error-kind table can still wrap it with cloudsync.ErrNotFound via
// errors.Wrap at the call site.
var (
	errNotFoundParent = errors.New("pathutil: parent folder does not exist")
	errParentIsFile   = errors.New("pathutil: parent path is a file, not a folder")
)

// IsMissingParent reports whether err's root cause is the "parent folder
// does not exist" classification VerifyParentFolder returns.
func IsMissingParent(err error) bool { return errors.Is(err, errNotFoundParent) }

// IsParentIsFile reports whether err's root cause is the "parent path is a
// file, not a folder" classification VerifyParentFolder returns — a real
// collision that recursing into directory creation cannot resolve.
func IsParentIsFile(err error) bool { return errors.Is(err, errParentIsFile) }

// InfoProvider is the minimal slice of the Provider contract
// VerifyParentFolder needs: resolving a path to basic object info. Declared
// locally (rather than imported) to keep this package free of a dependency
// on the core cloudsync package.
type InfoProvider interface {
	InfoPath(ctx context.Context, path string) (oid string, isDir bool, found bool, err error)
}

// Config carries the path-dialect parameters a Provider exposes: its
// primary separator, optional alternate separator, case sensitivity, and
// whether it uses drive-letter-style absolute paths (e.g. "C:\...").
type Config struct {
	// Sep is the primary path separator.
	Sep string
	// AltSep is an alternate separator that is treated as equivalent to Sep.
	// Empty if the provider has no alternate separator.
	AltSep string
	// CaseSensitive indicates whether path comparisons should be case
	// sensitive.
	CaseSensitive bool
	// WinPaths indicates whether paths may be of the form "C:\foo" (in which
	// case Join must not prepend a leading separator to such paths).
	WinPaths bool
}

// DefaultConfig is the Unix-style, case-sensitive, single-separator dialect
// used by the engine's in-memory test provider and by default translators.
var DefaultConfig = Config{Sep: "/", AltSep: "", CaseSensitive: true}

// collapseAlt collapses any alternate separators in s into the primary
// separator.
func (c Config) collapseAlt(s string) string {
	if c.AltSep == "" {
		return s
	}
	return strings.ReplaceAll(s, c.AltSep, c.Sep)
}

// Join joins path components using the dialect's separator, collapsing
// redundant separators and ignoring empty or bare-separator components.
// Mirrors Provider.join: every non-empty component is stripped of leading
// and trailing separators, then the components are rejoined with a single
// leading separator (unless WinPaths and the result looks like "C:...").
func (c Config) Join(paths ...string) string {
	var parts []string
	for _, p := range paths {
		if p == "" || p == c.Sep {
			continue
		}
		p = c.collapseAlt(p)
		p = strings.Trim(p, c.Sep)
		if p == "" {
			continue
		}
		parts = append(parts, p)
	}
	if len(parts) == 0 {
		return c.Sep
	}
	res := strings.Join(parts, c.Sep)
	if !c.WinPaths || len(res) < 2 || res[1] != ':' {
		res = c.Sep + res
	}
	return res
}

// Split splits a path into (parent, name), mirroring Provider.split. If
// there is no separator in the path, the parent is the path itself and the
// name is empty. If the only separator found is the leading one, the parent
// is the root separator.
func (c Config) Split(path string) (string, string) {
	path = c.collapseAlt(path)
	idx := strings.LastIndex(path, c.Sep)
	if idx == -1 {
		return path, ""
	}
	if idx == 0 {
		return c.Sep, path[idx+1:]
	}
	return path[:idx], path[idx+1:]
}

// NormalizePath collapses runs of separators (primary or alternate) and
// strips a trailing separator, mirroring Provider.normalize_path.
func (c Config) NormalizePath(path string) string {
	path = strings.TrimRight(path, c.Sep)
	pattern := regexp.QuoteMeta(c.Sep)
	if c.AltSep != "" {
		pattern = "[" + regexp.QuoteMeta(c.Sep) + regexp.QuoteMeta(c.AltSep) + "]+"
	} else {
		pattern = pattern + "+"
	}
	re := regexp.MustCompile(pattern)
	parts := re.Split(path, -1)
	return c.Join(parts...)
}

// IsSubpath reports whether target is at or below folder. It returns
// (relative, true) where relative is the remainder (including its leading
// separator) when target is a strict descendant of folder, (Sep, true) when
// target equals folder and strict is false, and ("", false) otherwise.
// Mirrors Provider.is_subpath, replacing its falsy-return contract with an
// explicit boolean since Go has no truthy string.
func (c Config) IsSubpath(folder, target string, strict bool) (string, bool) {
	f := strings.TrimRight(c.collapseAlt(folder), c.Sep)
	t := strings.TrimRight(c.collapseAlt(target), c.Sep)
	if !c.CaseSensitive {
		f = strings.ToLower(f)
		t = strings.ToLower(t)
	}

	if f == t {
		if strict {
			return "", false
		}
		return c.Sep, true
	}

	if len(t) > len(f) && t[len(f)] == c.Sep[0] {
		if strings.HasPrefix(t, f) {
			return strings.Replace(t, f, "", 1), true
		}
	}
	return "", false
}

// ReplacePath rewrites path, which must lie under fromDir, to the
// equivalent path under toDir. Per spec.md §9 Open Question 2, the
// authoritative contract is "toDir concatenated with the subpath
// remainder" — the original Python's early-return branch
// (`return relative if relative != "" else self.sep`), which contradicted
// that contract, is not reproduced. ok is false if path is not under
// fromDir.
func (c Config) ReplacePath(path, fromDir, toDir string) (string, bool) {
	relative, ok := c.IsSubpath(fromDir, path, false)
	if !ok {
		return "", false
	}
	if relative == c.Sep {
		return toDir, true
	}
	return c.Join(toDir, relative), true
}

// VerifyParentFolder checks that path's parent exists and is a directory,
// the helper concrete providers use before a create, per
// cloudsync/provider.py's Provider._verify_parent_folder_exists (spec.md
// SUPPLEMENTED FEATURES #2). It returns an error if the parent is missing
// or is itself a file; a nil error means the create may proceed.
func (c Config) VerifyParentFolder(ctx context.Context, p InfoProvider, path string) error {
	parent, _ := c.Split(path)
	if parent == c.Sep || parent == "" {
		return nil
	}
	_, isDir, found, err := p.InfoPath(ctx, parent)
	if err != nil {
		return err
	}
	if !found {
		return errNotFoundParent
	}
	if !isDir {
		return errParentIsFile
	}
	return nil
}

// Dirname returns the normalized parent directory of path.
func (c Config) Dirname(path string) string {
	norm := strings.TrimPrefix(c.NormalizePath(path), c.Sep)
	if norm == "" {
		return c.Sep
	}
	pattern := regexp.QuoteMeta(c.Sep)
	re := regexp.MustCompile(pattern + "+")
	parts := re.Split(norm, -1)
	if len(parts) <= 1 {
		return c.Sep
	}
	return c.Join(parts[:len(parts)-1]...)
}
