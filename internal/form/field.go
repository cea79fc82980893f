package form

// Field is a single-value text editor with a cursor. All editing is done
// on runes so the cursor always lands on a character boundary, including
// for multi-byte input.
type Field struct {
	runes  []rune
	cursor int
}

// NewField creates a field holding value, cursor at the end.
func NewField(value string) *Field {
	r := []rune(value)
	return &Field{runes: r, cursor: len(r)}
}

// Value returns the field's text.
func (f *Field) Value() string {
	return string(f.runes)
}

// SetValue replaces the text and moves the cursor to the end.
func (f *Field) SetValue(value string) {
	f.runes = []rune(value)
	f.cursor = len(f.runes)
}

// Cursor returns the cursor position in runes.
func (f *Field) Cursor() int {
	return f.cursor
}

// Insert places r at the cursor.
func (f *Field) Insert(r rune) {
	f.runes = append(f.runes[:f.cursor], append([]rune{r}, f.runes[f.cursor:]...)...)
	f.cursor++
}

// InsertString places s at the cursor.
func (f *Field) InsertString(s string) {
	for _, r := range s {
		f.Insert(r)
	}
}

// Backspace removes the rune before the cursor.
func (f *Field) Backspace() {
	if f.cursor == 0 {
		return
	}
	f.runes = append(f.runes[:f.cursor-1], f.runes[f.cursor:]...)
	f.cursor--
}

// Delete removes the rune under the cursor.
func (f *Field) Delete() {
	if f.cursor >= len(f.runes) {
		return
	}
	f.runes = append(f.runes[:f.cursor], f.runes[f.cursor+1:]...)
}

// Left moves the cursor one rune left.
func (f *Field) Left() {
	if f.cursor > 0 {
		f.cursor--
	}
}

// Right moves the cursor one rune right.
func (f *Field) Right() {
	if f.cursor < len(f.runes) {
		f.cursor++
	}
}

// Home moves the cursor to the start.
func (f *Field) Home() {
	f.cursor = 0
}

// End moves the cursor past the last rune.
func (f *Field) End() {
	f.cursor = len(f.runes)
}
