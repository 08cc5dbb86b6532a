package runtime

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseStatus(t *testing.T) {
	tests := []struct {
		statusText string
		want       State
	}{
		{"Up 3 minutes", StateRunning},
		{"Up 3 minutes (healthy)", StateRunning},
		{"Up About an hour", StateRunning},
		{"Up Less than a second", StateRunning},
		{"Exited (0) 2 hours ago", StateExited},
		{"Exited (137) 5 seconds ago", StateExited},
		{"Created", StateCreated},
		{"Restarting (1) 10 seconds ago", StateExited},
		{"Dead", StateUnknown},
		{"", StateUnknown},
		{"  Up 10 days  ", StateRunning},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, ParseStatus(tt.statusText), "ParseStatus(%q)", tt.statusText)
	}
}

func TestParsePorts(t *testing.T) {
	tests := []struct {
		name      string
		portsText string
		want      []PortBinding
	}{
		{
			"ipv4 and ipv6 duplicates collapse",
			"0.0.0.0:15432->5432/tcp, :::15432->5432/tcp",
			[]PortBinding{{HostPort: 15432, ContainerPort: 5432}},
		},
		{
			"multiple published ports",
			"0.0.0.0:19000->9000/tcp, 0.0.0.0:19001->9001/tcp",
			[]PortBinding{
				{HostPort: 19000, ContainerPort: 9000},
				{HostPort: 19001, ContainerPort: 9001},
			},
		},
		{
			"unpublished ports are dropped",
			"0.0.0.0:14222->4222/tcp, 8222/tcp, 6222/tcp",
			[]PortBinding{{HostPort: 14222, ContainerPort: 4222}},
		},
		{
			"udp binding",
			"0.0.0.0:5353->53/udp",
			[]PortBinding{{HostPort: 5353, ContainerPort: 53}},
		},
		{
			"empty text",
			"",
			nil,
		},
		{
			"only unpublished",
			"5432/tcp",
			nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ParsePorts(tt.portsText))
		})
	}
}
