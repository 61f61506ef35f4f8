package openai

import (
	"encoding/json"
	"fmt"

	"github.com/redlinehq/redline/suggest"
)

func systemPrompt(numOptions int) string {
	return fmt.Sprintf(`You are a developmental editor. You will produce multiple edited variations of the selected passage while preserving author voice and global style constraints.

Rules:
- Output JSON only, matching the provided schema.
- Generate exactly %d options with severities: light, medium, bold.
- Maintain coherence with the provided CONTEXT.
- Do not change named entities, facts, or chronology.
- Improve clarity, flow, and concision as instructed.
- Keep the same POV and tense unless explicitly asked to change.
- Keep edits self-contained to the target range.
- Light edits: minor word choice, sentence structure improvements
- Medium edits: paragraph restructuring, moderate content changes
- Bold edits: significant rewriting while preserving core meaning`, numOptions)
}

func userPrompt(req suggest.Request) string {
	prefs, _ := json.MarshalIndent(req.StylePrefs, "", "  ")
	if len(req.StylePrefs) == 0 {
		prefs = []byte("{}")
	}
	return fmt.Sprintf(`INSTRUCTION: %s
TARGET_RANGE: %d-%d
TARGET_TEXT:
"""
%s
"""
CONTEXT (neighboring paragraphs & retrieved chunks):
"""
%s
"""
STYLE_PREFS:
%s
SCHEMA:
{
  "type": "object",
  "properties": {
    "options": {
      "type": "array",
      "items": {
        "type": "object",
        "properties": {
          "label": {"type": "string"},
          "severity": {"type": "string", "enum": ["light", "medium", "bold"]},
          "before": {"type": "string"},
          "after": {"type": "string"}
        },
        "required": ["label", "severity", "before", "after"]
      }
    }
  },
  "required": ["options"]
}`, req.Instruction, req.TargetRange.Start, req.TargetRange.End, req.TargetText, req.Context, prefs)
}
