package agent

import (
	"fmt"
	"strings"

	"github.com/Beny9313/whatsapp-ai-bot/internal/domain"
	"github.com/Beny9313/whatsapp-ai-bot/internal/session"
)

// Stage parameters. These are fixed: classification wants near-greedy
// decoding, planning tolerates some variety, and answers stay tight and
// WhatsApp-sized.
const (
	classifyTemperature = 0.1
	classifyMaxTokens   = 512

	planTemperature = 0.3
	planMaxTokens   = 512

	generateTemperature = 0.2
	generateMaxTokens   = 600
)

// classifierSystemPrompt instructs the model to emit the Classification
// JSON shape
func classifierSystemPrompt() string {
	return fmt.Sprintf(`You are a domain classification expert for SAP CX systems.

%s
Output ONLY valid JSON with this structure:
{
  "primary_domain": "most relevant domain",
  "secondary_domains": ["other involved domains"],
  "is_cross_domain": true/false,
  "confidence": 0.95,
  "reasoning": "brief explanation"
}`, domain.Descriptions())
}

func classifierUserPrompt(query string) string {
	return fmt.Sprintf("Classify this query: %s", query)
}

func plannerPrompt(query, primaryDomain string, crossDomain bool) string {
	if primaryDomain == "" {
		primaryDomain = "unknown"
	}
	return fmt.Sprintf(`Question: %s
Primary domain: %s
Cross-domain: %t

Create a brief step-by-step plan to answer this SAP CX question.
Consider:
1. What information is needed?
2. What order should we retrieve it?
3. Are there dependencies between domains?

Output 3-5 numbered steps.`, query, primaryDomain, crossDomain)
}

func generatorPrompt(query, context string, history []session.Exchange) string {
	var b strings.Builder

	b.WriteString("You are an SAP CX expert. Answer using ONLY the provided documentation.\n\n")

	if len(history) > 0 {
		b.WriteString("Recent conversation:\n")
		for _, exchange := range history {
			fmt.Fprintf(&b, "User: %s\nAssistant: %s\n", exchange.Query, exchange.Answer)
		}
		b.WriteString("\n")
	}

	fmt.Fprintf(&b, "Question: %s\n\nDocumentation:\n%s\n\n", query, context)

	b.WriteString(`Instructions:
- Answer directly and concisely
- Use 3-5 bullet points for steps
- Include specific technical details from docs
- Format for WhatsApp (professional, minimal emojis)
- DO NOT repeat yourself
- If docs are unclear, acknowledge it
- Keep under 400 words

Answer:`)

	return b.String()
}
