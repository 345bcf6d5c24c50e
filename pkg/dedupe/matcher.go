package dedupe

import (
	"path/filepath"
	"regexp"

	"github.com/coldog/jspack/pkg/chunk"
)

// matches reports whether a module qualifies for relocation under a target's
// rule. Only file backed modules are eligible; the rule is tested against the
// module's resolved path made relative to root, with no implicit anchoring.
func matches(m *chunk.Module, rule *regexp.Regexp, root string) bool {
	if m.Kind != chunk.KindNormal {
		return false
	}
	rel, err := filepath.Rel(root, m.Resource)
	if err != nil {
		return false
	}
	return rule.MatchString(filepath.ToSlash(rel))
}
