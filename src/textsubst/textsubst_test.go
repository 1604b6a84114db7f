package textsubst

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExpandKnownVariable(t *testing.T) {
	out, err := Expand("make -C $(MUDDLE_SRC) install", map[string]string{"MUDDLE_SRC": "/r/src/hello"})
	assert.NoError(t, err)
	assert.Equal(t, "make -C /r/src/hello install", out)
}

func TestExpandUnknownVariable(t *testing.T) {
	_, err := Expand("echo $(NOPE)", map[string]string{})
	assert.Error(t, err)
}

func TestExpandNoVariables(t *testing.T) {
	out, err := Expand("echo hello", map[string]string{})
	assert.NoError(t, err)
	assert.Equal(t, "echo hello", out)
}
