package configuration

import (
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/pkg/errors"

	"github.com/cloudsync-go/cloudsync/internal/cloudsync"
)

// GlobRule maps paths matching Pattern (a doublestar glob, matched against
// the source-side path) to a literal Prefix substituted in on the target
// side. It exists for the common case where a translator just needs to
// relocate a subtree rather than rewrite every path through arbitrary
// logic; anything more elaborate should implement cloudsync.Translator
// directly.
type GlobRule struct {
	// Pattern is a doublestar glob matched against the source path.
	Pattern string
	// FromPrefix is stripped from the front of a matching source path
	// before FromPrefix is substituted with ToPrefix.
	FromPrefix string
	// ToPrefix replaces FromPrefix on the target side.
	ToPrefix string
}

// BuildGlobTranslator compiles rules into a cloudsync.Translator: the first
// rule whose Pattern matches pathOnSourceSide and whose FromPrefix is a
// prefix of it wins, with FromPrefix rewritten to ToPrefix (a rule whose
// Pattern matches but whose FromPrefix does not is skipped); a path matching
// no rule is ignored (translated to
// the empty string, per cloudsync's "ignore" sentinel). Grounded on the
// teacher's project-file glob-based path rules
// (pkg/compose/internal/configuration), adapted here to drive path
// translation instead of compose-file discovery.
func BuildGlobTranslator(rules []GlobRule) (cloudsync.Translator, error) {
	for _, r := range rules {
		if !doublestar.ValidatePattern(r.Pattern) {
			return nil, errors.Errorf("invalid glob pattern: %q", r.Pattern)
		}
	}

	return func(targetSide cloudsync.Side, pathOnSourceSide string) (string, error) {
		trimmed := strings.TrimPrefix(pathOnSourceSide, "/")
		for _, r := range rules {
			matched, err := doublestar.Match(r.Pattern, trimmed)
			if err != nil {
				return "", errors.Wrapf(err, "matching glob pattern %q", r.Pattern)
			}
			if !matched {
				continue
			}
			if !strings.HasPrefix(pathOnSourceSide, r.FromPrefix) {
				continue
			}
			return r.ToPrefix + strings.TrimPrefix(pathOnSourceSide, r.FromPrefix), nil
		}
		return "", nil
	}, nil
}
