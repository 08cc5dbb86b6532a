package cmd

import (
	"context"
	"fmt"
	"strings"

	"dockhand/internal/engine"
)

// resolveID expands an id or unique id prefix to a full instance id, so the
// shortened ids shown by 'dockhand list' are usable as arguments.
func resolveID(ctx context.Context, e *engine.Engine, idOrPrefix string) (string, error) {
	instances, err := e.List(ctx, "")
	if err != nil {
		return "", err
	}

	var matches []string
	for _, inst := range instances {
		if inst.ID == idOrPrefix {
			return inst.ID, nil
		}
		if strings.HasPrefix(inst.ID, idOrPrefix) {
			matches = append(matches, inst.ID)
		}
	}

	switch len(matches) {
	case 1:
		return matches[0], nil
	case 0:
		// Pass through unchanged; the engine reports the miss.
		return idOrPrefix, nil
	default:
		return "", fmt.Errorf("id prefix %q is ambiguous (%d matches)", idOrPrefix, len(matches))
	}
}
