package version

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestVersion_DefaultValues(t *testing.T) {
	assert.Equal(t, "dev", Version)
	assert.Equal(t, "dev", Commit)
	assert.Equal(t, "unknown", BuildTime)
}

func TestCurrent(t *testing.T) {
	original := Version
	t.Cleanup(func() { Version = original })
	Version = "v1.2.3"

	info := Current("directed-assistant")
	assert.Equal(t, Info{Service: "directed-assistant", Version: "v1.2.3", Commit: Commit, BuildTime: BuildTime}, info)
}
