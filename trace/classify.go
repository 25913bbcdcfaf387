package trace

import "strings"

// classifiers is checked in order; the first substring match wins, so a
// message matching several categories takes the earliest one (timeout, then
// auth, then validation, then network). No match falls back to ErrorUnknown.
var classifiers = []struct {
	errType ErrorType
	needles []string
}{
	{ErrorTimeout, []string{"timeout"}},
	{ErrorAuthFailed, []string{"auth", "unauthorized"}},
	{ErrorValidation, []string{"valid", "validation"}},
	{ErrorNetwork, []string{"network", "econnrefused"}},
}

// Classify maps an error to one of the five sanitized ErrorType values by
// case-insensitive substring match on its message. It never returns the raw
// message; callers must not attach err.Error() to any trace Event.
func Classify(err error) ErrorType {
	if err == nil {
		return ErrorUnknown
	}
	msg := strings.ToLower(err.Error())
	for _, c := range classifiers {
		for _, needle := range c.needles {
			if strings.Contains(msg, needle) {
				return c.errType
			}
		}
	}
	return ErrorUnknown
}
