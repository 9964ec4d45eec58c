package numeric

import (
	"fmt"
	"strings"
)

// Form is a named numeric notation. It is used both as a display hint when
// rendering a number and as a constraint on how a guess must be written.
type Form string

const (
	FormInteger  Form = "integer"
	FormDecimal  Form = "decimal"
	FormProper   Form = "proper"
	FormImproper Form = "improper"
	FormMixed    Form = "mixed"
	FormPi       Form = "pi"
)

// AllForms is every form in display order.
var AllForms = []Form{FormInteger, FormDecimal, FormProper, FormImproper, FormMixed, FormPi}

var examples = map[Form]string{
	FormInteger:  "6",
	FormDecimal:  "0.75",
	FormProper:   "2/3",
	FormImproper: "7/4",
	FormMixed:    "1 3/4",
	FormPi:       "2pi",
}

var names = map[Form]string{
	FormInteger:  "an integer",
	FormDecimal:  "a decimal",
	FormProper:   "a proper fraction",
	FormImproper: "an improper fraction",
	FormMixed:    "a mixed number",
	FormPi:       "a multiple of pi",
}

// Example returns a short sample of text written in form f.
func Example(f Form) string { return examples[f] }

// Describe returns a human-readable name for f, e.g. "a mixed number".
func Describe(f Form) string { return names[f] }

func (f Form) Valid() bool {
	_, ok := examples[f]
	return ok
}

// ParseForm accepts a form tag in any letter case.
func ParseForm(s string) (Form, error) {
	f := Form(strings.ToLower(strings.TrimSpace(s)))
	if !f.Valid() {
		return "", fmt.Errorf("unknown answer form %q", s)
	}
	return f, nil
}

// FormInfo is the wire shape used when listing forms to a client.
type FormInfo struct {
	Name    Form   `json:"name"`
	Example string `json:"example"`
}

func Infos(forms []Form) []FormInfo {
	out := make([]FormInfo, 0, len(forms))
	for _, f := range forms {
		out = append(out, FormInfo{Name: f, Example: Example(f)})
	}
	return out
}

// ContainsForm reports whether f is present in forms.
func ContainsForm(forms []Form, f Form) bool {
	for _, x := range forms {
		if x == f {
			return true
		}
	}
	return false
}

// ExampleText builds the instructive hint listing the accepted forms, e.g.
// "an integer, like 6, or a decimal, like 0.75".
func ExampleText(forms []Form) string {
	if len(forms) == 0 {
		forms = AllForms
	}
	parts := make([]string, 0, len(forms))
	for _, f := range forms {
		if !f.Valid() {
			continue
		}
		parts = append(parts, fmt.Sprintf("%s, like %s", Describe(f), Example(f)))
	}
	return strings.Join(parts, ", or ")
}
