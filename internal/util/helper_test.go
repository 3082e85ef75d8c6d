package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCloneSlice(t *testing.T) {
	src := []byte{1, 2, 3}
	c := CloneSlice(src, 0)
	assert.Equal(t, src, c)
	c[0] = 9
	assert.Equal(t, byte(1), src[0], "clone must not alias the source")

	assert.Equal(t, []byte{1, 2, 3, 0}, CloneSlice(src, 4))
	assert.Equal(t, []byte{1}, CloneSlice(src, 1))
}

func TestWindow(t *testing.T) {
	src := []byte("0A.0B")

	assert.Equal(t, []byte("0A.0B"), Window(src, 0, 5))
	assert.Equal(t, []byte("0A.0B"), Window(src, 0, 100))
	assert.Equal(t, []byte(".0B"), Window(src, 2, -1))
	assert.Equal(t, []byte("A."), Window(src, 1, 2))
	assert.Empty(t, Window(src, 5, 1))
	assert.Empty(t, Window(src, -1, 1))
}
