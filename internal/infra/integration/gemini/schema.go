package gemini

import (
	"strings"

	"google.golang.org/genai"
)

var requiredFields = []string{
	"full_name", "interests", "success_rate", "profile_url",
	"post_text", "post_summary", "message_content",
}

// responseSchema is declared on the request so the model answers with a bare JSON array.
func responseSchema(greeting string) *genai.Schema {
	return &genai.Schema{
		Type: genai.TypeArray,
		Items: &genai.Schema{
			Type: genai.TypeObject,
			Properties: map[string]*genai.Schema{
				"full_name": {
					Type:        genai.TypeString,
					Description: "The full name of the person (from author_name).",
				},
				"interests": {
					Type:        genai.TypeString,
					Description: "Extract the top 3 interests from the author_description as a comma-separated string.",
				},
				"success_rate": {
					Type:        genai.TypeInteger,
					Description: "Estimate a success probability (from 0 to 100) representing how strongly this lead matches the target customer profile.",
				},
				"phone": {
					Type:        genai.TypeString,
					Description: "Find any phone number in the provided texts. If not found, the value should be null.",
					Nullable:    genai.Ptr(true),
				},
				"email": {
					Type:        genai.TypeString,
					Description: "Find any email address. If not found, the value should be null.",
					Nullable:    genai.Ptr(true),
				},
				"profile_url": {
					Type:        genai.TypeString,
					Description: "The URL to the person's profile (from author_url).",
				},
				"post_text": {
					Type:        genai.TypeString,
					Description: "The full text of the post, combining post_title and author_description.",
				},
				"post_summary": {
					Type:        genai.TypeString,
					Description: "Summarize the post_text in a single sentence.",
				},
				"message_content": {
					Type: genai.TypeString,
					Description: `Write a short, personalized outreach message (about 50-70 words). It must start with "` + greeting +
						`", reference their post (post_summary), connect it to the service offered (from the company profile), and end with a call-to-action question.`,
				},
			},
			Required: requiredFields,
		},
	}
}

// validationSchema mirrors responseSchema as JSON Schema. Only shape is
// checked; ranges such as 0-100 are left to the store.
func validationSchema() map[string]any {
	str := map[string]any{"type": "string"}
	nullableStr := map[string]any{"type": []any{"string", "null"}}

	return map[string]any{
		"type": "array",
		"items": map[string]any{
			"type": "object",
			"properties": map[string]any{
				"full_name":       str,
				"interests":       str,
				"success_rate":    map[string]any{"type": "integer"},
				"phone":           nullableStr,
				"email":           nullableStr,
				"profile_url":     str,
				"post_text":       str,
				"post_summary":    str,
				"message_content": str,
			},
			"required": toAny(requiredFields),
		},
	}
}

func toAny(values []string) []any {
	out := make([]any, len(values))
	for i, v := range values {
		out[i] = v
	}
	return out
}

func fieldList() string {
	return strings.Join(requiredFields, ", ")
}
