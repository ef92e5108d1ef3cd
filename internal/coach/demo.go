package coach

import (
	"context"
	"time"
)

// demoScript is a canned meeting used when the real speech pipeline is not
// wired up. Each step stands in for one recognized utterance plus the
// analyzer's verdict.
var demoScript = []struct {
	text     string
	analysis *Analysis
}{
	{
		text: "Okay everyone, thanks for joining, let's walk through the quarterly numbers together today.",
		analysis: &Analysis{
			EmotionalState: "calm",
			SocialCue:      "appropriate",
			SpeechPattern:  "normal",
			Confidence:     0.9,
			Coaching:       "Nice steady opening.",
		},
	},
	{
		text: "Um so basically the rollout went fine.",
	},
	{
		text: "I really think we need to move faster on this, we keep missing windows and honestly it is getting frustrating for the whole team.",
		analysis: &Analysis{
			EmotionalState: "elevated",
			SocialCue:      "dominating",
			SpeechPattern:  "rapid",
			Confidence:     0.8,
			Coaching:       "Pause and invite other perspectives.",
			EmotionalAlert: true,
			SocialAlert:    true,
		},
	},
	{
		text: "You know what, that is a fair point, let me take a step back and hear what the rest of you think about the timeline.",
		analysis: &Analysis{
			EmotionalState: "engaged",
			SocialCue:      "appropriate",
			SpeechPattern:  "normal",
			Confidence:     0.85,
			Coaching:       "Good recovery, keep the floor open.",
		},
	},
}

// RunDemo drives a scripted session through the coach, one utterance per
// interval, until ctx is cancelled. It lets the whole system run end to end
// without a microphone or analyzer attached.
func (c *Coach) RunDemo(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = 2 * time.Second
	}

	c.StartSession()
	c.SetListening(true)
	defer func() {
		c.SetListening(false)
		c.StopSession()
	}()

	ticker := c.clock.NewTicker(interval)
	defer ticker.Stop()

	i := 0
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.Chan():
			step := demoScript[i%len(demoScript)]
			c.ProcessSpeech(step.text, step.analysis)
			i++
		}
	}
}
