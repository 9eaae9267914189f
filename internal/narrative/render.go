package narrative

import (
	"fmt"
	"strings"

	"github.com/ironsheep/scene-relations-mcp/internal/spatial"
)

const (
	// NoObjectsPlaceholder stands in for an empty detection list.
	NoObjectsPlaceholder = "No specific objects detected."

	// NoRelationshipsPlaceholder stands in for an empty statement list.
	NoRelationshipsPlaceholder = "- No specific spatial relationships observed."
)

// Render words a single fact as an English sentence.
func Render(f spatial.Fact) string {
	switch f.Kind {
	case spatial.KindDominance:
		return fmt.Sprintf("A large %s dominates the %s side.", f.Label, f.Zone)
	case spatial.KindPair:
		return fmt.Sprintf("The %s is %s the %s.", f.Subject, f.Relation, f.Object)
	default:
		return ""
	}
}

// RenderAll renders facts in order, skipping any that render empty.
func RenderAll(facts []spatial.Fact) []string {
	out := make([]string, 0, len(facts))
	for _, f := range facts {
		if s := Render(f); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// PromptInput is everything the prompt is built from.
type PromptInput struct {
	SceneType  string
	Detections []spatial.Detection
	Statements []string
}

// ObjectSummary lists detections as "label (0.90 conf)" joined by commas.
func ObjectSummary(dets []spatial.Detection) string {
	if len(dets) == 0 {
		return NoObjectsPlaceholder
	}
	parts := make([]string, len(dets))
	for i, d := range dets {
		parts[i] = fmt.Sprintf("%s (%.2f conf)", d.Label, d.Confidence)
	}
	return strings.Join(parts, ", ")
}

// StatementList renders statements as "- " bullets, one per line.
func StatementList(statements []string) string {
	if len(statements) == 0 {
		return NoRelationshipsPlaceholder
	}
	var sb strings.Builder
	for i, s := range statements {
		if i > 0 {
			sb.WriteByte('\n')
		}
		sb.WriteString("- ")
		sb.WriteString(s)
	}
	return sb.String()
}

// BuildPrompt assembles the instruction sent to the text-generation model.
func BuildPrompt(in PromptInput) string {
	scene := in.SceneType
	if scene == "" {
		scene = "unknown"
	}

	var sb strings.Builder
	sb.WriteString("You are an intelligent vision assistant. I will provide you with data derived from an image.\n")
	sb.WriteString("Your job is to synthesize this information into a clear, natural, and descriptive paragraph\n")
	sb.WriteString("summarizing the scene.\n\n")
	sb.WriteString("DATA:\n")
	fmt.Fprintf(&sb, "- **Overall Scene Type:** %s\n", scene)
	fmt.Fprintf(&sb, "- **Detected Objects:** %s\n", ObjectSummary(in.Detections))
	sb.WriteString("- **Spatial Relationships & Events:**\n")
	sb.WriteString(StatementList(in.Statements))
	sb.WriteString("\n\nINSTRUCTIONS:\n")
	sb.WriteString("- Start by setting the scene.\n")
	sb.WriteString("- Describe the main objects and their positions/interactions.\n")
	sb.WriteString("- Infer the context (e.g., \"A person near a dog in a park implies walking the dog\").\n")
	sb.WriteString("- Keep it concise (2-3 sentences).\n")
	return sb.String()
}
