package evaluation

import (
	"fmt"
	"strings"

	"github.com/jason-s-yu/argumentor/internal/models"
)

// FormatTranscript renders the debate as the judge reads it: the topic, both
// stances with their debaters, then every argument numbered in order.
func FormatTranscript(d models.Debate) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Debate topic: %s\n", d.Topic)
	fmt.Fprintf(&b, "SIDE_A (%s): %s\n", d.SideAName, d.TopicSideA)
	fmt.Fprintf(&b, "SIDE_B (%s): %s\n", d.SideBName, d.TopicSideB)
	b.WriteString("\nArguments:\n")
	for i, m := range d.Messages {
		fmt.Fprintf(&b, "%d. %s (%s): %s\n", i+1, m.Side, d.Label(m.Side), m.Content)
	}
	return b.String()
}
