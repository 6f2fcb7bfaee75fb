package gemini

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/xavierca1/leadscout/internal/entity"
)

func buildPrompt(profile entity.Profile, leads []entity.RawLead, greeting string) (string, error) {
	raw, err := json.MarshalIndent(leads, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal raw leads: %w", err)
	}

	var b strings.Builder
	b.WriteString("You are an expert in sales and marketing copywriting. ")
	b.WriteString("Your task is to analyze a list of potential leads and prepare comprehensive data for outreach based on a company profile.\n\n")

	b.WriteString("**Company Profile:**\n")
	fmt.Fprintf(&b, "- **Business Field:** %s\n", profile.MyBusiness)
	fmt.Fprintf(&b, "- **Target Customer:** %s\n\n", profile.TargetCustomer)

	b.WriteString("**Raw Data for Analysis (from 'lead' table):**\n")
	b.Write(raw)
	b.WriteString("\n\n")

	b.WriteString("**Instructions:**\n")
	b.WriteString("For each item in the raw data, do the following:\n")
	b.WriteString("1. **Decide** if the person matches the \"Target Customer\" profile. If they do not match, ignore them completely.\n")
	fmt.Fprintf(&b, "2. **For matching leads only**, generate a JSON object with the fields defined in the provided schema (%s, plus phone and email which may be null).\n", fieldList())
	fmt.Fprintf(&b, "3. Every message_content must start with \"%s\" using the person's full name.\n", greeting)
	b.WriteString("4. **Your final output must be only a valid JSON array**, without any additional text, explanations, or markdown formatting.\n")

	return b.String(), nil
}

var codeBlockRegex = regexp.MustCompile("(?s)^\\s*```(?:json)?\\s*(.+?)\\s*```\\s*$")

func stripMarkdownCodeBlock(s string) string {
	s = strings.TrimSpace(s)
	if matches := codeBlockRegex.FindStringSubmatch(s); len(matches) > 1 {
		return strings.TrimSpace(matches[1])
	}
	return s
}
