package health

import (
	"strconv"
	"strings"
)

// rule maps failure vocabulary to a category. Rules are evaluated in
// order and the first match wins, so a message mentioning both a timeout
// and a rate limit is classified by whichever rule comes first.
type rule struct {
	category Category
	terms    []string
}

var rules = []rule{
	{CategoryNetwork, []string{
		"connection refused",
		"econnrefused",
		"fetch failed",
		"network",
		"no such host",
		"connection reset",
		"dial tcp",
	}},
	{CategoryTimeout, []string{
		"timeout",
		"timed out",
		"abort",
		"deadline exceeded",
	}},
	{CategoryAuth, []string{
		"api key",
		"api_key",
		"apikey",
		"unauthorized",
		"401",
		"authentication",
	}},
	{CategoryRateLimit, []string{
		"rate limit",
		"rate_limit",
		"ratelimit",
		"quota",
		"429",
		"too many requests",
	}},
	{CategoryCreditRequired, []string{
		"subscription error",
		"402",
		"credit",
		"insufficient",
		"payment required",
	}},
}

var serverErrorCodes = []int{500, 502, 503, 504}

// Classify maps failure text and an optional HTTP status code (0 when
// absent) to an error category. It is pure and deterministic.
//
// A non-zero status code is searched as if it appeared in the text, so a
// 429 response with a generic body still classifies as a rate limit.
func Classify(text string, httpStatus int) Category {
	haystack := strings.ToLower(text)
	if httpStatus > 0 {
		haystack += " " + strconv.Itoa(httpStatus)
	}

	for _, r := range rules {
		for _, term := range r.terms {
			if strings.Contains(haystack, term) {
				return r.category
			}
		}
	}

	for _, code := range serverErrorCodes {
		if httpStatus == code || strings.Contains(haystack, strconv.Itoa(code)) {
			return CategoryServerError
		}
	}

	return CategoryUnknown
}

// Resolve maps a failure category to the state a provider moves to.
// Unknown failures resolve to StateOffline: an unexplained failure is
// treated as the provider being down, never as it being online.
func Resolve(c Category) State {
	switch c {
	case CategoryAuth:
		return StateAuthRequired
	case CategoryRateLimit:
		return StateRateLimited
	case CategoryCreditRequired:
		return StateCreditRequired
	default:
		return StateOffline
	}
}

// IsInfrastructure reports whether the category describes the upstream
// being unreachable or broken, as opposed to this account being refused.
func IsInfrastructure(c Category) bool {
	return Resolve(c) == StateOffline
}
