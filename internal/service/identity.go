package service

import (
	"fmt"
	"strings"
)

// Identity builds the deterministic runtime object name for a (kind, name)
// pair. The name doubles as an implicit foreign key: discovery re-derives
// ownership of a runtime object from this string alone, so the format must
// stay parseable by ParseIdentity.
func Identity(kind Kind, name string) string {
	return fmt.Sprintf("%s-%s", kind, name)
}

// ParseIdentity extracts the (kind, name) pair from a runtime object name.
// Returns false for names that do not follow the deterministic convention.
// Kind values are a fixed enum and none is a prefix of another, so prefix
// matching is unambiguous even though both kinds and names contain hyphens.
func ParseIdentity(objectName string) (Kind, string, bool) {
	for _, k := range Kinds() {
		prefix := string(k) + "-"
		if strings.HasPrefix(objectName, prefix) {
			name := strings.TrimPrefix(objectName, prefix)
			if name == "" {
				return "", "", false
			}
			return k, name, true
		}
	}
	return "", "", false
}
