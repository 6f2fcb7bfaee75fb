package gemini

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/xavierca1/leadscout/internal/entity"
	"github.com/xavierca1/leadscout/internal/infra/http/middleware"
)

const DefaultGreeting = "مرحباً [full_name]"

var ErrMissingAPIKey = errors.New("inference API key is not configured")

type Config struct {
	APIKey   string
	Model    string
	BaseURL  string
	Greeting string
}

// enrichedLeadResponse is one element of the model's array. Fields not
// listed here are dropped on decode.
type enrichedLeadResponse struct {
	FullName       string  `json:"full_name"`
	Interests      string  `json:"interests"`
	SuccessRate    int     `json:"success_rate"`
	Phone          *string `json:"phone"`
	Email          *string `json:"email"`
	ProfileURL     string  `json:"profile_url"`
	PostText       string  `json:"post_text"`
	PostSummary    string  `json:"post_summary"`
	MessageContent string  `json:"message_content"`
}

// generateFunc sends the prompt and returns the model's raw text.
type generateFunc func(ctx context.Context, prompt string, schema *genai.Schema) (string, error)

// Classifier turns raw leads and a business profile into enriched leads with
// one GenerateContent call.
type Classifier struct {
	greeting string
	generate generateFunc
	schema   *gojsonschema.Schema
	logger   *zap.Logger
}

// NewClassifier builds the classifier. A missing API key is not an error
// here; every Classify call fails instead.
func NewClassifier(ctx context.Context, cfg Config, logger *zap.Logger) (*Classifier, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Model == "" {
		cfg.Model = "gemini-2.5-flash"
	}
	if cfg.Greeting == "" {
		cfg.Greeting = DefaultGreeting
	}

	c := &Classifier{greeting: cfg.Greeting, logger: logger}

	schema, err := gojsonschema.NewSchema(gojsonschema.NewGoLoader(validationSchema()))
	if err != nil {
		return nil, fmt.Errorf("compile response schema: %w", err)
	}
	c.schema = schema

	if cfg.APIKey == "" {
		logger.Warn("inference API key not set, analysis requests will fail")
		c.generate = func(context.Context, string, *genai.Schema) (string, error) {
			return "", ErrMissingAPIKey
		}
		return c, nil
	}

	clientConfig := &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if cfg.BaseURL != "" {
		clientConfig.HTTPOptions = genai.HTTPOptions{BaseURL: cfg.BaseURL}
	}

	client, err := genai.NewClient(ctx, clientConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}

	model := cfg.Model
	c.generate = func(ctx context.Context, prompt string, schema *genai.Schema) (string, error) {
		resp, err := client.Models.GenerateContent(ctx, model, genai.Text(prompt), &genai.GenerateContentConfig{
			ResponseMIMEType: "application/json",
			ResponseSchema:   schema,
		})
		if err != nil {
			return "", err
		}
		return resp.Text(), nil
	}

	return c, nil
}

func (c *Classifier) Classify(ctx context.Context, profile entity.Profile, leads []entity.RawLead) ([]entity.EnrichedLead, error) {
	if len(leads) == 0 {
		return []entity.EnrichedLead{}, nil
	}

	prompt, err := buildPrompt(profile, leads, c.greeting)
	if err != nil {
		return nil, err
	}

	text, err := c.generate(ctx, prompt, responseSchema(c.greeting))
	if err != nil {
		middleware.RecordIntegrationError("gemini")
		return nil, err
	}

	return c.parse(text)
}

func (c *Classifier) parse(text string) ([]entity.EnrichedLead, error) {
	text = stripMarkdownCodeBlock(text)
	if text == "" {
		return nil, fmt.Errorf("empty response from model")
	}

	result, err := c.schema.Validate(gojsonschema.NewStringLoader(text))
	if err != nil {
		return nil, fmt.Errorf("parse model response: %w", err)
	}
	if !result.Valid() {
		errs := make([]string, len(result.Errors()))
		for i, desc := range result.Errors() {
			errs[i] = desc.String()
		}
		return nil, fmt.Errorf("model response does not match schema: %s", strings.Join(errs, "; "))
	}

	var decoded []enrichedLeadResponse
	if err := json.Unmarshal([]byte(text), &decoded); err != nil {
		return nil, fmt.Errorf("decode model response: %w", err)
	}

	leads := make([]entity.EnrichedLead, 0, len(decoded))
	for _, d := range decoded {
		leads = append(leads, entity.EnrichedLead{
			FullName:       d.FullName,
			Interests:      d.Interests,
			SuccessRate:    d.SuccessRate,
			Phone:          d.Phone,
			Email:          d.Email,
			ProfileURL:     d.ProfileURL,
			PostText:       d.PostText,
			PostSummary:    d.PostSummary,
			MessageContent: d.MessageContent,
		})
	}

	c.logger.Debug("model response parsed", zap.Int("leads", len(leads)))
	return leads, nil
}
