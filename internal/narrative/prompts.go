package narrative

import (
	"fmt"
	"strings"

	"google.golang.org/genai"

	"github.com/mindloom/mindloom/server/internal/model"
)

const keyInsightSystemInstruction = `You are a supportive reflection writer for a mental-wellness journal.
You receive a summary of one person's week: their logged moods, conversation
topics, session summaries, and optionally remembered moments. Produce between
one and five key insights about their week. Each insight needs a short title
(at most 8 words), a description of one to three sentences written directly
to the person ("you"), a category, and a polarity. Be warm and concrete;
reference actual emotions and topics from the data. Never give medical advice
or diagnoses. If the data is too thin to say anything meaningful, return an
empty list.`

const narrativeSystemInstruction = `You are a supportive reflection writer for a mental-wellness journal.
You receive a summary of one person's week. Write a single warm paragraph
(3-5 sentences) reflecting their week back to them, addressed directly to
the person ("you"). Mention the emotions and themes that actually appear in
the data. Never give medical advice or diagnoses.`

// Allowed category and polarity labels. Anything else coming back from the
// model is normalized rather than rejected.
var (
	validCategories = map[string]bool{
		"mood":       true,
		"connection": true,
		"progress":   true,
		"awareness":  true,
		"habit":      true,
	}
	validPolarities = map[string]bool{
		"positive": true,
		"negative": true,
		"neutral":  true,
	}
)

const (
	defaultCategory = "awareness"
	defaultPolarity = "neutral"
)

var keyInsightSchema = &genai.Schema{
	Type: genai.TypeObject,
	Properties: map[string]*genai.Schema{
		"title":       {Type: genai.TypeString, Description: "Short insight title, at most 8 words."},
		"description": {Type: genai.TypeString, Description: "1-3 sentences addressed to the person."},
		"category":    {Type: genai.TypeString, Description: "One of: mood, connection, progress, awareness, habit."},
		"polarity":    {Type: genai.TypeString, Description: "One of: positive, negative, neutral."},
	},
	Required: []string{"title", "description", "category", "polarity"},
}

var keyInsightListSchema = &genai.Schema{
	Type:        genai.TypeArray,
	Description: "Key insights for the week, possibly empty.",
	Items:       keyInsightSchema,
}

// renderRequest flattens the aggregated week into the prompt body shared by
// both generation modes.
func renderRequest(req Request) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Week of %s to %s (UTC).\n",
		req.Window.Start.Format("2006-01-02"), req.Window.End.AddDate(0, 0, -1).Format("2006-01-02"))
	fmt.Fprintf(&sb, "Mood trend: %s. Resilience: %s.\n", req.MoodTrend, req.ResilienceDelta)

	if len(req.EmotionCounts) > 0 {
		sb.WriteString("Emotions logged: ")
		sb.WriteString(renderCounts(req.EmotionCounts))
		sb.WriteString("\n")
	}
	if len(req.TopicCounts) > 0 {
		sb.WriteString("Topics discussed: ")
		sb.WriteString(renderCounts(req.TopicCounts))
		sb.WriteString("\n")
	}
	for _, d := range req.SessionDigests {
		fmt.Fprintf(&sb, "Session summary: %s\n", d.Summary)
		for k, v := range d.Progress {
			fmt.Fprintf(&sb, "  progress %s: %v\n", k, v)
		}
	}
	for _, m := range req.MemoryContext {
		fmt.Fprintf(&sb, "Remembered moment: %s\n", m)
	}
	return sb.String()
}

func renderCounts(counts []model.LabelCount) string {
	parts := make([]string, 0, len(counts))
	for _, c := range counts {
		parts = append(parts, fmt.Sprintf("%s (%dx)", c.Label, c.Count))
	}
	return strings.Join(parts, ", ")
}

// normalizeInsight lowercases and defaults the enumerated fields and drops
// items with no usable text.
func normalizeInsight(in model.KeyInsight) (model.KeyInsight, bool) {
	in.Title = strings.TrimSpace(in.Title)
	in.Description = strings.TrimSpace(in.Description)
	if in.Title == "" || in.Description == "" {
		return model.KeyInsight{}, false
	}
	in.Category = strings.ToLower(strings.TrimSpace(in.Category))
	if !validCategories[in.Category] {
		in.Category = defaultCategory
	}
	in.Polarity = strings.ToLower(strings.TrimSpace(in.Polarity))
	if !validPolarities[in.Polarity] {
		in.Polarity = defaultPolarity
	}
	return in, true
}
