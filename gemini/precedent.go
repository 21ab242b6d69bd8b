package gemini

import (
	"context"
	"fmt"
)

const precedentSystemPrompt = "You are a legal research assistant for caseworkers supporting displaced persons. " +
	"You cite only real, verifiable decisions and instruments. Return valid JSON only."

// FindPrecedents looks up analogous cases and decisions for a category,
// independent of the local document index, capped to max entries.
func (c *Client) FindPrecedents(ctx context.Context, categoryTitle, jurisdiction, caseSummary string, max int) ([]string, error) {
	prompt := fmt.Sprintf(`Identify up to %d precedent cases, tribunal decisions, or authoritative rulings relevant to the legal area "%s"%s.

CASE SITUATION:
%s

Return a JSON array of strings. Each string is one precedent in the form "Case name, court/body, year: one-sentence relevance". Return [] if none apply. No markdown, no explanations.`,
		max, categoryTitle, jurisdictionClause(jurisdiction), caseSummary)

	var precedents []string
	if err := c.GenerateJSON(ctx, precedentSystemPrompt, prompt, &precedents); err != nil {
		return nil, err
	}

	if len(precedents) > max {
		precedents = precedents[:max]
	}
	return precedents, nil
}

func jurisdictionClause(jurisdiction string) string {
	if jurisdiction == "" {
		return ""
	}
	return fmt.Sprintf(" in or applicable to %s", jurisdiction)
}
