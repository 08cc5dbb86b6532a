package service

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func validDefinition() Definition {
	return Definition{Kind: KindCache, Name: "sessions"}
}

func TestValidateAcceptsMinimalDefinition(t *testing.T) {
	assert.NoError(t, Validate(validDefinition()))
}

func TestValidateRejectsBadDefinitions(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Definition)
	}{
		{"unknown kind", func(d *Definition) { d.Kind = "virtual-machine" }},
		{"empty kind", func(d *Definition) { d.Kind = "" }},
		{"empty name", func(d *Definition) { d.Name = "" }},
		{"uppercase name", func(d *Definition) { d.Name = "Sessions" }},
		{"leading hyphen", func(d *Definition) { d.Name = "-sessions" }},
		{"trailing hyphen", func(d *Definition) { d.Name = "sessions-" }},
		{"underscore", func(d *Definition) { d.Name = "my_cache" }},
		{"name too long", func(d *Definition) { d.Name = strings.Repeat("a", 64) }},
		{"negative cpu", func(d *Definition) { d.Resources.CPUCores = -1 }},
		{"cpu over limit", func(d *Definition) { d.Resources.CPUCores = 128 }},
		{"negative memory", func(d *Definition) { d.Resources.MemoryMB = -5 }},
		{"container port zero", func(d *Definition) { d.Ports = []PortMapping{{ContainerPort: 0}} }},
		{"container port too high", func(d *Definition) { d.Ports = []PortMapping{{ContainerPort: 70000}} }},
		{"host port negative", func(d *Definition) { d.Ports = []PortMapping{{ContainerPort: 80, HostPort: -1}} }},
		{"probe without command", func(d *Definition) { d.Probe = &Probe{} }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			def := validDefinition()
			tt.mutate(&def)
			err := Validate(def)
			assert.Error(t, err)
			assert.True(t, IsValidation(err), "expected ValidationError, got %T", err)
		})
	}
}

func TestValidateAllowsHyphenatedNames(t *testing.T) {
	def := validDefinition()
	def.Name = "orders-eu-west-1"
	assert.NoError(t, Validate(def))
}
