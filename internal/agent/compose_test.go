package agent

import (
	"math"
	"testing"

	"github.com/vthunder/nana/internal/brain"
)

func TestCompose(t *testing.T) {
	act := []brain.Activation{
		{Concept: "night", Score: 0.6},
		{Concept: "code", Score: 0.5},
		{Concept: "focus", Score: 0.4},
		{Concept: "flow", Score: 0.3},
		{Concept: "games", Score: 0.2},
	}
	warm := Mood{Warmth: 0.8}
	cold := Mood{Warmth: 0.2}

	tests := []struct {
		name       string
		raw        string
		act        []brain.Activation
		confidence float64
		novelty    float64
		mood       Mood
		empty      bool
		want       string
	}{
		{"empty store", "", nil, 0.5, 0, warm, true, beginningReply},
		{"low confidence", "hi", act, 0.1, 1, warm, false,
			"I’m still wiring this part of my brain. I caught signals around night, code, focus. Can you tell me more so I can stabilize this thought?"},
		{"low confidence no anchors", "hi", nil, 0.1, 1, warm, false,
			"I’m still wiring this part of my brain. I caught signals around new ideas. Can you tell me more so I can stabilize this thought?"},
		{"statement", "night code", act, 0.6, 0.5, warm, false,
			"I’m integrating night, code, focus in a calm way. I’ll keep adapting as we talk."},
		{"unsure question", "night?", act, 0.3, 0, cold, false,
			"I think night, code, focus in a intense way. This feels more familiar now."},
		{"confident question", "night?", act[:2], 0.7, 0, warm, false,
			"I’m leaning toward night, code in a calm way. This feels more familiar now."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := compose(tt.raw, tt.act, tt.confidence, tt.novelty, tt.mood, tt.empty)
			if got != tt.want {
				t.Errorf("compose =\n%q\nwant\n%q", got, tt.want)
			}
		})
	}
}

func TestMoodUpdate(t *testing.T) {
	m := DefaultMood()
	m.update(0.9, 1)

	if math.Abs(m.Confidence-(0.34*0.7+0.9*0.3)) > 1e-9 {
		t.Errorf("Unexpected confidence %f", m.Confidence)
	}
	if math.Abs(m.Curiosity-(0.68*0.75+0.25)) > 1e-9 {
		t.Errorf("Unexpected curiosity %f", m.Curiosity)
	}
	if math.Abs(m.Warmth-(0.72*0.9+0.05)) > 1e-9 {
		t.Errorf("Unexpected warmth %f", m.Warmth)
	}

	for i := 0; i < 200; i++ {
		m.update(0.95, 1)
	}
	if m.Warmth > 1 || m.Curiosity > 1 || m.Confidence > 1 {
		t.Errorf("Mood escaped [0,1]: %+v", m)
	}
}
