package ai

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"github.com/wardenbot/warden/config"
)

// generator is the model behind ask/joke; swapped for a fake in tests
type generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

type gemini struct {
	c      *config.Config
	client *genai.Client
}

func newGemini(c *config.Config) (*gemini, error) {
	key := c.Get("GEMINI_API_KEY", "")
	if key == "" {
		return nil, errors.New("missing GEMINI_API_KEY")
	}
	client, err := genai.NewClient(context.Background(), option.WithAPIKey(key))
	if err != nil {
		return nil, err
	}
	return &gemini{c: c, client: client}, nil
}

func (g *gemini) Generate(ctx context.Context, prompt string) (string, error) {
	model := g.client.GenerativeModel(g.c.Get("ai.model", "gemini-1.5-flash"))
	model.SetMaxOutputTokens(int32(g.c.GetInt("GEMINI_MAX_TOKENS", 400)))
	model.SetTopP(float32(g.c.GetFloat64("GEMINI_TOP_P", 0.95)))
	model.SetTopK(int32(g.c.GetInt("GEMINI_TOP_K", 20)))
	model.SetTemperature(float32(g.c.GetFloat64("GEMINI_TEMP", 0.9)))

	model.SafetySettings = []*genai.SafetySetting{
		{genai.HarmCategoryHarassment, genai.HarmBlockNone},
		{genai.HarmCategoryHateSpeech, genai.HarmBlockNone},
		{genai.HarmCategorySexuallyExplicit, genai.HarmBlockNone},
		{genai.HarmCategoryDangerousContent, genai.HarmBlockNone},
	}

	res, err := model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", err
	}
	if len(res.Candidates) == 0 || res.Candidates[0].Content == nil {
		return "", errors.New("no candidates")
	}
	output := ""
	for _, part := range res.Candidates[0].Content.Parts {
		output = fmt.Sprintf("%s %s", output, part)
	}
	return strings.TrimSpace(output), nil
}
