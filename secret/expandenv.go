package secret

import (
	"fmt"
	"os"
	"regexp"
	"sort"
	"strings"
)

// envVarPattern matches ${VAR} and ${VAR:-default}.
var envVarPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)(?::-([^}]*))?\}`)

// ExpandEnvStrict expands environment variables in s.
//
// Semantics:
//   - ${VAR} is replaced by the variable's value; an unset VAR is an error.
//   - ${VAR:-default} falls back to default when VAR is unset.
//   - $$ emits a literal $ (escape hatch). A bare $VAR is left alone.
//
// The error names every missing variable and wraps ErrMissingEnv.
func ExpandEnvStrict(s string) (string, error) {
	const dollarSentinel = "\x00PROVWATCH_SECRET_DOLLAR\x00"
	s = strings.ReplaceAll(s, "$$", dollarSentinel)

	missing := make(map[string]struct{})
	s = envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		sub := envVarPattern.FindStringSubmatch(match)
		name := sub[1]
		if value, ok := os.LookupEnv(name); ok {
			return value
		}
		if strings.Contains(match, ":-") {
			return sub[2]
		}
		missing[name] = struct{}{}
		return match
	})

	if len(missing) > 0 {
		keys := make([]string, 0, len(missing))
		for k := range missing {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		return "", fmt.Errorf("%w: %s", ErrMissingEnv, strings.Join(keys, ", "))
	}

	return strings.ReplaceAll(s, dollarSentinel, "$"), nil
}
