package numeric

import (
	"math"
	"strconv"
)

// maxDenominator bounds the search for an exact fraction.
const maxDenominator = 1000

// exactInt is the largest magnitude at which every integer is a float64.
const exactInt = 1 << 53

// Format renders x in form f. Parse(Format(x, f)) yields x again for every
// finite x; when f cannot represent x exactly the decimal rendering is used.
func Format(x float64, f Form) string {
	switch f {
	case FormInteger:
		// decimal rendering of an integral value is already an integer
	case FormProper:
		if math.Abs(x) >= 1 {
			return formatMixed(x)
		}
		if s, ok := formatFraction(x); ok {
			return s
		}
	case FormImproper:
		if s, ok := formatFraction(x); ok {
			return s
		}
	case FormMixed:
		return formatMixed(x)
	case FormPi:
		if s, ok := formatPi(x); ok {
			return s
		}
	}
	return formatDecimal(x)
}

func formatDecimal(x float64) string {
	return strconv.FormatFloat(x, 'f', -1, 64)
}

// fraction finds the smallest denominator d <= maxDenominator such that n/d
// evaluates to exactly x.
func fraction(x float64) (n, d int64, ok bool) {
	if math.IsNaN(x) || math.IsInf(x, 0) || math.Abs(x) > exactInt {
		return 0, 0, false
	}
	for d = 1; d <= maxDenominator; d++ {
		nf := math.Round(x * float64(d))
		if math.Abs(nf) > exactInt {
			return 0, 0, false
		}
		n = int64(nf)
		if float64(n)/float64(d) == x {
			return n, d, true
		}
	}
	return 0, 0, false
}

func formatFraction(x float64) (string, bool) {
	n, d, ok := fraction(x)
	if !ok {
		return "", false
	}
	if d == 1 {
		return strconv.FormatInt(n, 10), true
	}
	return strconv.FormatInt(n, 10) + "/" + strconv.FormatInt(d, 10), true
}

func formatMixed(x float64) string {
	n, d, ok := fraction(x)
	if !ok {
		return formatDecimal(x)
	}
	if d == 1 {
		return strconv.FormatInt(n, 10)
	}
	an := abs(n)
	if an < d {
		return strconv.FormatInt(n, 10) + "/" + strconv.FormatInt(d, 10)
	}
	w, r := an/d, an%d
	v := float64(w) + float64(r)/float64(d)
	if n < 0 {
		v = -v
	}
	if v != x {
		// w + r/d rounds differently from n/d; keep the exact improper form
		return strconv.FormatInt(n, 10) + "/" + strconv.FormatInt(d, 10)
	}
	s := strconv.FormatInt(w, 10) + " " + strconv.FormatInt(r, 10) + "/" + strconv.FormatInt(d, 10)
	if n < 0 {
		s = "-" + s
	}
	return s
}

// formatPi writes x as a multiple of pi ("pi", "-2pi", "3pi/4"), provided the
// text evaluates back to exactly x.
func formatPi(x float64) (string, bool) {
	if x == 0 || math.IsNaN(x) || math.IsInf(x, 0) {
		return "", false
	}
	y := x / math.Pi
	if math.Abs(y) > exactInt {
		return "", false
	}
	for d := int64(1); d <= maxDenominator; d++ {
		n := int64(math.Round(y * float64(d)))
		if n == 0 || float64(n)/float64(d)*math.Pi != x {
			continue
		}
		var s string
		switch n {
		case 1:
			s = "pi"
		case -1:
			s = "-pi"
		default:
			s = strconv.FormatInt(n, 10) + "pi"
		}
		if d != 1 {
			s += "/" + strconv.FormatInt(d, 10)
		}
		return s, true
	}
	return "", false
}
