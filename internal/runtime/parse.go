package runtime

import (
	"strconv"
	"strings"
)

// State is the coarse container state derived from the runtime's status text.
type State string

const (
	StateRunning State = "running"
	StateExited  State = "exited"
	StateCreated State = "created"
	StateUnknown State = "unknown"
)

// ParseStatus interprets the human-readable status column of the container
// runtime, e.g. "Up 3 minutes (healthy)", "Exited (0) 2 hours ago" or
// "Created". Unrecognized text maps to StateUnknown rather than guessing.
func ParseStatus(statusText string) State {
	s := strings.TrimSpace(statusText)
	switch {
	case strings.HasPrefix(s, "Up"):
		return StateRunning
	case strings.HasPrefix(s, "Exited"):
		return StateExited
	case strings.HasPrefix(s, "Created"):
		return StateCreated
	case strings.HasPrefix(s, "Restarting"):
		// A restart-looping container is not usable; treat it as down.
		return StateExited
	default:
		return StateUnknown
	}
}

// ParsePorts extracts published port bindings from the runtime's ports column,
// e.g. "0.0.0.0:15432->5432/tcp, :::15432->5432/tcp, 8222/tcp". Unpublished
// ports and duplicate IPv4/IPv6 entries are dropped.
func ParsePorts(portsText string) []PortBinding {
	var out []PortBinding
	seen := make(map[PortBinding]bool)

	for _, entry := range strings.Split(portsText, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" || !strings.Contains(entry, "->") {
			continue
		}

		parts := strings.SplitN(entry, "->", 2)
		hostPart, containerPart := parts[0], parts[1]

		// Host side is "<addr>:<port>"; the address may itself contain
		// colons for IPv6, so take the segment after the last one.
		idx := strings.LastIndex(hostPart, ":")
		if idx < 0 {
			continue
		}
		hostPort, err := strconv.Atoi(hostPart[idx+1:])
		if err != nil {
			continue
		}

		// Container side is "<port>/<proto>".
		containerPart = strings.SplitN(containerPart, "/", 2)[0]
		containerPort, err := strconv.Atoi(containerPart)
		if err != nil {
			continue
		}

		b := PortBinding{HostPort: hostPort, ContainerPort: containerPort}
		if !seen[b] {
			seen[b] = true
			out = append(out, b)
		}
	}

	return out
}
