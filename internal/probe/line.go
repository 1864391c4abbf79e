package probe

import (
	"fmt"
	"regexp"
	"strconv"
)

var (
	socPattern    = regexp.MustCompile(`\bsoc=(\d+)\b`)
	inputPattern  = regexp.MustCompile(`\binv\.inputWatts=(\d+)W`)
	outputPattern = regexp.MustCompile(`\bout=(\d+)W`)
)

// FormatLine renders the prober's status line, for example
//
//	AC=1 inv.inputWatts=120W out=45W soc=87
//
// An unknown state of charge is written as soc=n/a, which ParseOutput does
// not match.
func FormatLine(present bool, inputWatts, outputWatts int, soc *int) string {
	ac := 0
	if present {
		ac = 1
	}
	socText := "n/a"
	if soc != nil {
		socText = strconv.Itoa(*soc)
	}
	return fmt.Sprintf("AC=%d inv.inputWatts=%dW out=%dW soc=%s", ac, inputWatts, outputWatts, socText)
}

// ParseOutput extracts the optional numeric fragments from prober output.
// Missing fragments are nil; they are never an error.
func ParseOutput(out string) (soc, inputWatts, outputWatts *int) {
	return firstInt(socPattern, out), firstInt(inputPattern, out), firstInt(outputPattern, out)
}

func firstInt(re *regexp.Regexp, s string) *int {
	m := re.FindStringSubmatch(s)
	if m == nil {
		return nil
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return nil
	}
	return &n
}
