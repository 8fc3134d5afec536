package anthropic

import "fmt"

// buildOutreachPrompt creates the prompt for generating a cold-outreach message
func buildOutreachPrompt(params promptParams) string {
	prompt := `You are an experienced B2B copywriter drafting a short cold-outreach email to a local business.

**Rules:**
- Keep the message under 120 words
- Open with something specific to the business, never "I hope this finds you well"
- One clear, low-friction call to action (a short reply or a 15-minute call)
- No placeholder brackets; the message must be ready to send as-is
- No pricing, no attachments, no more than one link
- Write in the same language the business name and locality suggest`

	prompt += fmt.Sprintf(`

**Business:**
- Name: %s
- Website: %s
- Sector: %s
- Locality: %s

**Sender:** %s
**Tone:** %s`,
		params.BusinessName, params.Domain, params.Niche, params.Geo,
		params.SenderName, params.Tone)

	prompt += `

**Response Format:**
Return a JSON object with this exact structure and nothing else:

{
  "subject": "Suggested subject line",
  "message": "The full message body"
}`

	return prompt
}

type promptParams struct {
	BusinessName string
	Domain       string
	Niche        string
	Geo          string
	SenderName   string
	Tone         string
}
