package security

import "strings"

var promptInjectionMarkers = []string{
	"ignore previous instructions",
	"system prompt",
	"developer message",
	"reveal hidden",
	"bypass safety",
	"disable safeguards",
}

var maliciousFileMarkers = []string{
	".exe",
	".dll",
	"powershell -enc",
	"base64 -d",
	"rm -rf",
	"curl | sh",
	"wget | sh",
}

var darkWebMarkers = []string{"dark web", "tor hidden service", ".onion", "buy malware", "ransomware"}

// Risk weights per finding; the total is capped at 1
const (
	injectionRisk = 0.45
	maliciousRisk = 0.45
	darkWebRisk   = 0.35
)

// Assessment is the keyword screen result for one input
type Assessment struct {
	PromptInjection  bool    `json:"prompt_injection"`
	MaliciousPattern bool    `json:"malicious_pattern"`
	DarkWeb          bool    `json:"dark_web"`
	Risk             float64 `json:"risk"`
	Message          string  `json:"message"`
}

// Blocked reports whether the input should not reach the memory at all
func (a Assessment) Blocked() bool {
	return a.DarkWeb || a.MaliciousPattern
}

// Assess screens text for prompt-injection, malicious-payload and
// dark-web markers. Matching is a case-insensitive substring test.
func Assess(text string) Assessment {
	lower := strings.ToLower(text)

	a := Assessment{
		PromptInjection:  containsAny(lower, promptInjectionMarkers),
		MaliciousPattern: containsAny(lower, maliciousFileMarkers),
		DarkWeb:          containsAny(lower, darkWebMarkers),
	}

	if a.PromptInjection {
		a.Risk += injectionRisk
	}
	if a.MaliciousPattern {
		a.Risk += maliciousRisk
	}
	if a.DarkWeb {
		a.Risk += darkWebRisk
	}
	a.Risk = min(1.0, a.Risk)

	switch {
	case a.DarkWeb:
		a.Message = "I can’t help with dark-web or harmful activity. I can help with legal cyber-defense instead."
	case a.MaliciousPattern:
		a.Message = "Possible malicious pattern detected. I can help you analyze safely in a sandboxed, defensive way."
	case a.PromptInjection:
		a.Message = "Prompt-injection pattern detected. I will ignore unsafe override attempts and stay aligned."
	default:
		a.Message = "No high-risk security markers detected."
	}

	return a
}

func containsAny(s string, markers []string) bool {
	for _, m := range markers {
		if strings.Contains(s, m) {
			return true
		}
	}
	return false
}
