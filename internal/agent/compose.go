package agent

import (
	"fmt"
	"strings"

	"github.com/vthunder/nana/internal/brain"
)

// Canned replies
const (
	awakeReply     = "I feel newly awake. Share anything, and I’ll begin forming my mind from it."
	beginningReply = "I’m at the very beginning of my mind. Tell me one thing about your world."
)

// Below this confidence the reply asks for more input instead of answering
const wiringThreshold = 0.2

// compose turns an activation profile into a reply
func compose(raw string, activated []brain.Activation, confidence, novelty float64, mood Mood, storeEmpty bool) string {
	if storeEmpty {
		return beginningReply
	}

	anchors := brain.Concepts(activated[:min(4, len(activated))])
	top := anchors[:min(3, len(anchors))]

	if confidence < wiringThreshold {
		signals := "new ideas"
		if len(top) > 0 {
			signals = strings.Join(top, ", ")
		}
		return fmt.Sprintf("I’m still wiring this part of my brain. I caught signals around %s. "+
			"Can you tell me more so I can stabilize this thought?", signals)
	}

	tone := "I’m integrating"
	if strings.Contains(raw, "?") {
		tone = "I think"
		if confidence >= 0.5 {
			tone = "I’m leaning toward"
		}
	}

	personality := "intense"
	if mood.Warmth >= 0.5 {
		personality = "calm"
	}

	trail := "This feels more familiar now."
	if novelty > 0.25 {
		trail = "I’ll keep adapting as we talk."
	}

	anchorText := "your signal"
	if len(top) > 0 {
		anchorText = strings.Join(top, ", ")
	}
	return fmt.Sprintf("%s %s in a %s way. %s", tone, anchorText, personality, trail)
}
