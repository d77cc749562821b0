package reconcile

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/nao1215/casetally/internal/model"
)

var (
	digitsPattern = regexp.MustCompile(`\d+`)
	anyDigit      = regexp.MustCompile(`\d`)
)

// methodRule maps notes keywords to a method. Rules are evaluated in order
// and the first match wins.
type methodRule struct {
	method   model.Method
	keywords []string
}

var methodRules = []methodRule{
	{model.MethodStabbing, []string{"stab"}},
	{model.MethodShooting, []string{"shoot", "shot", "shooting", "gunshot"}},
	{model.MethodAssault, []string{"assault"}},
}

// ParseAge returns the first run of digits in text as an integer.
// It returns nil when text has no digits or the number does not fit an int.
func ParseAge(text string) *int {
	m := digitsPattern.FindString(text)
	if m == "" {
		return nil
	}
	age, err := strconv.Atoi(m)
	if err != nil {
		return nil
	}
	return &age
}

// ClassifyCaseStatus returns CaseClosed when text mentions "closed".
func ClassifyCaseStatus(text string) model.CaseStatus {
	if strings.Contains(strings.ToLower(text), "closed") {
		return model.CaseClosed
	}
	return model.CaseOpenOrUnknown
}

// ClassifyCamera returns CameraPresent when text contains a digit, NoCamera
// when it mentions "none", and CameraUnknown otherwise. The digit check runs
// first, so "1 camera, none visible elsewhere" is CameraPresent.
func ClassifyCamera(text string) model.CameraStatus {
	lower := strings.ToLower(text)
	switch {
	case anyDigit.MatchString(lower):
		return model.CameraPresent
	case strings.Contains(lower, "none"):
		return model.NoCamera
	default:
		return model.CameraUnknown
	}
}

// ClassifyMethod returns the first method whose keywords appear in text.
// Stabbing is checked before shooting, so "stabbed and shot" is Stabbing.
func ClassifyMethod(text string) model.Method {
	lower := strings.ToLower(text)
	for _, rule := range methodRules {
		for _, kw := range rule.keywords {
			if strings.Contains(lower, kw) {
				return rule.method
			}
		}
	}
	return model.MethodOtherUnknown
}
