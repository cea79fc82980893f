package form

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFieldInsertAndMove(t *testing.T) {
	f := NewField("")
	f.InsertString("hello")
	assert.Equal(t, "hello", f.Value())
	assert.Equal(t, 5, f.Cursor())

	f.Left()
	f.Left()
	f.Insert('x')
	assert.Equal(t, "helxlo", f.Value())
}

func TestFieldMultiByteCursorStaysOnRuneBoundary(t *testing.T) {
	f := NewField("héllo")
	f.Home()
	f.Right()
	f.Right() // past h, é
	f.Insert('ß')
	assert.Equal(t, "héßllo", f.Value())

	f.Backspace()
	assert.Equal(t, "héllo", f.Value())
	assert.Equal(t, 2, f.Cursor())
}

func TestFieldBackspaceAtStartIsNoop(t *testing.T) {
	f := NewField("ab")
	f.Home()
	f.Backspace()
	assert.Equal(t, "ab", f.Value())
	assert.Equal(t, 0, f.Cursor())
}

func TestFieldDelete(t *testing.T) {
	f := NewField("日本語")
	f.Home()
	f.Delete()
	assert.Equal(t, "本語", f.Value())

	f.End()
	f.Delete() // past the end, no-op
	assert.Equal(t, "本語", f.Value())
}

func TestFieldHomeEnd(t *testing.T) {
	f := NewField("héllo")
	f.Home()
	assert.Equal(t, 0, f.Cursor())
	f.End()
	assert.Equal(t, 5, f.Cursor(), "cursor counts runes, not bytes")
}

func TestFieldSetValueResetsCursor(t *testing.T) {
	f := NewField("old")
	f.Home()
	f.SetValue("新しい")
	assert.Equal(t, 3, f.Cursor())
}
