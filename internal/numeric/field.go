package numeric

// Field tracks one numeric text box: the text as typed and the last value
// that was accepted from it. Edits that do not parse are held back and
// reverted when the box loses focus.
type Field struct {
	form       Form
	allowEmpty bool
	text       string
	value      *float64
}

func NewField(value *float64, form Form, allowEmpty bool) *Field {
	f := &Field{form: form, allowEmpty: allowEmpty}
	f.Set(value)
	return f
}

// Set replaces the accepted value from outside and re-renders the text.
func (f *Field) Set(value *float64) {
	f.value = copyValue(value)
	f.text = f.render()
}

// Edit records typed text. It returns the new live value and true when the
// text is acceptable; otherwise the previous value and false, meaning the
// edit must not propagate yet.
func (f *Field) Edit(text string) (*float64, bool) {
	f.text = text
	v := Parse(text)
	switch {
	case v.Kind == KindNumber:
		n := v.Number
		f.value = &n
		return copyValue(f.value), true
	case v.Kind == KindEmpty && f.allowEmpty:
		f.value = nil
		return nil, true
	}
	return copyValue(f.value), false
}

// Blur returns the text to display once focus leaves the field and whether
// it was reverted to the last accepted value.
func (f *Field) Blur() (string, bool) {
	if Acceptable(f.text, f.allowEmpty) {
		return f.text, false
	}
	f.text = f.render()
	return f.text, true
}

func (f *Field) Text() string     { return f.text }
func (f *Field) Value() *float64  { return copyValue(f.value) }
func (f *Field) AllowEmpty() bool { return f.allowEmpty }

func (f *Field) render() string {
	if f.value == nil {
		return ""
	}
	return Format(*f.value, f.form)
}

func copyValue(v *float64) *float64 {
	if v == nil {
		return nil
	}
	n := *v
	return &n
}
