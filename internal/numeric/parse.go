// Package numeric converts free-form learner text to numbers and back.
//
// Accepted notations are integers, decimals (optionally with thousands
// separators), fractions, mixed numbers and multiples of pi. Parsing never
// fails with an error: the result is a tri-state Value that callers inspect.
package numeric

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

// Kind classifies the result of parsing a piece of text.
type Kind int

const (
	KindInvalid Kind = iota
	KindEmpty
	KindNumber
)

func (k Kind) String() string {
	switch k {
	case KindEmpty:
		return "empty"
	case KindNumber:
		return "number"
	default:
		return "invalid"
	}
}

// Value is the outcome of Parse. Number is meaningful only for KindNumber.
type Value struct {
	Kind   Kind
	Number float64
}

func (v Value) IsNumber() bool { return v.Kind == KindNumber }
func (v Value) IsEmpty() bool  { return v.Kind == KindEmpty }

// Reading is a Value plus what the text looked like.
type Reading struct {
	Value
	Form       Form
	Simplified bool
}

// Satisfies reports whether the text that produced r is written in form f.
// An integer counts as a decimal, and a proper fraction counts as both an
// improper fraction and a mixed number with no whole part.
func (r Reading) Satisfies(f Form) bool {
	if r.Kind != KindNumber {
		return false
	}
	switch f {
	case FormDecimal:
		return r.Form == FormDecimal || r.Form == FormInteger
	case FormImproper, FormMixed:
		return r.Form == f || r.Form == FormProper
	default:
		return r.Form == f
	}
}

var (
	reInteger  = regexp.MustCompile(`^[+-]?\d+$`)
	reGrouped  = regexp.MustCompile(`^[+-]?\d{1,3}(,\d{3})+(\.\d*)?$`)
	reDecimal  = regexp.MustCompile(`^[+-]?(\d+\.\d*|\.\d+)$`)
	reFraction = regexp.MustCompile(`^([+-]?\d+) ?/ ?(\d+)$`)
	reMixed    = regexp.MustCompile(`^([+-]?)(\d+) (\d+)/(\d+)$`)
)

var replacer = strings.NewReplacer(
	"\u2212", "-", // minus sign
	"\u2013", "-", // en dash
	"\u00a0", " ",
	"\u03c0", "pi",
)

func normalize(s string) string {
	s = replacer.Replace(strings.ToLower(s))
	return strings.Join(strings.Fields(s), " ")
}

// Parse converts text to a number. Blank text is KindEmpty; anything that is
// not a recognizable finite number is KindInvalid.
func Parse(text string) Value {
	return Read(text).Value
}

// Read parses text and also reports its notation and whether it is written
// in lowest terms.
func Read(text string) Reading {
	s := normalize(text)
	if s == "" {
		return Reading{Value: Value{Kind: KindEmpty}}
	}
	var r Reading
	if strings.Contains(s, "pi") {
		r = readPi(s)
	} else {
		r, _ = readRational(s)
	}
	if r.Kind == KindNumber && (math.IsNaN(r.Number) || math.IsInf(r.Number, 0)) {
		return Reading{}
	}
	return r
}

// ratio is the integer structure behind a rational reading. whole is set for
// integers, where num holds the value and den is 1.
type ratio struct {
	num, den int64
	whole    bool
}

func readRational(s string) (Reading, ratio) {
	switch {
	case reInteger.MatchString(s):
		n, err := strconv.ParseInt(s, 10, 64)
		f, ferr := strconv.ParseFloat(s, 64)
		if ferr != nil {
			return Reading{}, ratio{}
		}
		r := Reading{Value: number(f), Form: FormInteger, Simplified: true}
		if err != nil {
			// too large for an exact ratio; still a valid integer reading
			return r, ratio{}
		}
		return r, ratio{num: n, den: 1, whole: true}

	case reGrouped.MatchString(s):
		plain := strings.ReplaceAll(s, ",", "")
		f, err := strconv.ParseFloat(plain, 64)
		if err != nil {
			return Reading{}, ratio{}
		}
		form := FormInteger
		if strings.Contains(plain, ".") {
			form = FormDecimal
		}
		return Reading{Value: number(f), Form: form, Simplified: true}, ratio{}

	case reDecimal.MatchString(s):
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return Reading{}, ratio{}
		}
		return Reading{Value: number(f), Form: FormDecimal, Simplified: true}, ratio{}

	case reFraction.MatchString(s):
		m := reFraction.FindStringSubmatch(s)
		n, err1 := strconv.ParseInt(m[1], 10, 64)
		d, err2 := strconv.ParseInt(m[2], 10, 64)
		if err1 != nil || err2 != nil || d == 0 {
			return Reading{}, ratio{}
		}
		form := FormImproper
		if abs(n) < d {
			form = FormProper
		}
		r := Reading{
			Value:      number(float64(n) / float64(d)),
			Form:       form,
			Simplified: d != 1 && gcd(abs(n), d) == 1,
		}
		return r, ratio{num: n, den: d}

	case reMixed.MatchString(s):
		m := reMixed.FindStringSubmatch(s)
		w, err1 := strconv.ParseInt(m[2], 10, 64)
		n, err2 := strconv.ParseInt(m[3], 10, 64)
		d, err3 := strconv.ParseInt(m[4], 10, 64)
		if err1 != nil || err2 != nil || err3 != nil || n == 0 || n >= d {
			return Reading{}, ratio{}
		}
		v := float64(w) + float64(n)/float64(d)
		if m[1] == "-" {
			v = -v
		}
		return Reading{Value: number(v), Form: FormMixed, Simplified: gcd(n, d) == 1}, ratio{}
	}
	return Reading{}, ratio{}
}

// readPi handles a coefficient followed by pi, optionally divided by an
// integer: "pi", "-pi", "2pi", "1/2 pi", "1.5pi", "3pi/4".
func readPi(s string) Reading {
	i := strings.Index(s, "pi")
	left := strings.TrimSpace(s[:i])
	right := strings.TrimSpace(s[i+2:])
	if strings.Contains(right, "pi") {
		return Reading{}
	}

	var (
		coef       float64
		simplified = true
		whole      bool
		num        int64
	)
	switch left {
	case "", "+":
		coef, num, whole = 1, 1, true
	case "-":
		coef, num, whole = -1, -1, true
	default:
		r, q := readRational(left)
		if r.Kind != KindNumber {
			return Reading{}
		}
		coef, simplified = r.Number, r.Simplified
		num, whole = q.num, q.whole
	}

	if right != "" {
		if !whole || !strings.HasPrefix(right, "/") {
			return Reading{}
		}
		d, err := strconv.ParseInt(strings.TrimSpace(right[1:]), 10, 64)
		if err != nil || d <= 0 {
			return Reading{}
		}
		coef = float64(num) / float64(d)
		simplified = d != 1 && gcd(abs(num), d) == 1
	}
	return Reading{Value: number(coef * math.Pi), Form: FormPi, Simplified: simplified}
}

func number(f float64) Value { return Value{Kind: KindNumber, Number: f} }

// State is the three-way answer to "is this text usable right now".
type State int

const (
	StateInvalid State = iota
	StateNull
	StateNumber
)

func (s State) String() string {
	switch s {
	case StateNull:
		return "null"
	case StateNumber:
		return "number"
	default:
		return "invalid"
	}
}

// Check classifies text as a concrete number, an allowed blank (StateNull),
// or invalid.
func Check(text string, allowEmpty bool) State {
	switch v := Parse(text); v.Kind {
	case KindNumber:
		return StateNumber
	case KindEmpty:
		if allowEmpty {
			return StateNull
		}
	}
	return StateInvalid
}

// Acceptable collapses Check to the boolean used to decide whether an edit
// propagates live.
func Acceptable(text string, allowEmpty bool) bool {
	return Check(text, allowEmpty) != StateInvalid
}

func gcd(a, b int64) int64 {
	for b != 0 {
		a, b = b, a%b
	}
	return a
}

func abs(n int64) int64 {
	if n < 0 {
		return -n
	}
	return n
}
