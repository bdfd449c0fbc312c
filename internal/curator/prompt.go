package curator

import (
	"fmt"
	"strings"

	"hallyu-journalist/internal/config"
	"hallyu-journalist/internal/model"
	"hallyu-journalist/internal/scrape"
)

const contextChars = 600

var bandInstructions = map[string]string{
	config.BandLenient: `News volume in this category is typically low, so be GENEROUS:
- If the article is relevant to Korea, give at least 6.0.
- If it is interesting or informative, give 7.5 to 8.5.
- Only give below 5.0 if it is irrelevant or spam.`,
	config.BandStrict: `News volume in this category is high, so be STRICT and objective:
- Standard or routine news (schedule updates) -> 5.0 to 6.5
- Good news (new release, casting) -> 7.0 to 8.5
- Huge breaking news (global awards, dating reveal) -> 9.0 to 10.0`,
}

// ScoreInstruction returns the scoring guidance for a policy. A custom
// instruction wins over the band.
func ScoreInstruction(p Policy) string {
	if s := strings.TrimSpace(p.Instruction); s != "" {
		return s
	}
	if s, ok := bandInstructions[p.Band]; ok {
		return s
	}
	return bandInstructions[config.BandStrict]
}

func systemPrompt(category model.Category) string {
	return fmt.Sprintf("You are a Korean entertainment news editor for the %s section. You answer with JSON only.", category)
}

func userPrompt(category model.Category, batch []model.Candidate, p Policy, admission float64, keep int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Task: select the best %d news items for '%s'.\n\n", keep, category)
	b.WriteString("[Selection Rules]\n")
	fmt.Fprintf(&b, "1. Include every article that deserves a score of %.1f or higher.\n", admission)
	b.WriteString("2. Diversity: when several articles cover the same topic, prefer different angles or sources.\n")
	b.WriteString("3. Deduplication: never select nearly identical articles.\n\n")
	b.WriteString("[Output Constraints]\n")
	b.WriteString("1. eng_title: translate the title into natural English.\n")
	b.WriteString("2. summary: English, 40-50% of the original length, one narrative paragraph of 5-8 sentences. No bullet points.\n")
	b.WriteString("3. score (0.0-10.0):\n")
	b.WriteString(ScoreInstruction(p))
	b.WriteString("\n4. original_index must be the number in brackets of the source article.\n")
	b.WriteString("5. Return JSON only.\n\n")
	b.WriteString("News List:\n")
	for i, c := range batch {
		ctx := scrape.Truncate(strings.Join(strings.Fields(c.Context()), " "), contextChars)
		fmt.Fprintf(&b, "[%d] Title: %s / Link: %s / Context: %s\n", i, c.Title, c.Link, ctx)
	}
	b.WriteString("\nOutput JSON Format:\n")
	b.WriteString(`{"articles":[{"original_index":0,"eng_title":"...","summary":"...","score":8.5}]}`)
	b.WriteString("\n")
	return b.String()
}
