package constants

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestUserAgent(t *testing.T) {
	assert.Equal(t, "imgmapon/"+ToolVersion().String(), UserAgent())
}

func TestToolVersion_Malformed(t *testing.T) {
	old := Version
	defer func() { Version = old }()

	Version = "dev-build"
	assert.Equal(t, "0.0.0", ToolVersion().String())
}

func TestCheckCompatible(t *testing.T) {
	old := Version
	defer func() { Version = old }()
	Version = "1.2.0"

	assert.NoError(t, CheckCompatible(""))
	assert.NoError(t, CheckCompatible(">= 1.1, < 2"))
	assert.Error(t, CheckCompatible(">= 2.0"))
	assert.Error(t, CheckCompatible("not a constraint"))
}
