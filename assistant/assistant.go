// Package assistant produces short market commentary for a symbol. When a
// Gemini API key is configured it asks the model; otherwise it degrades to a
// deterministic rule-based label so the sentiment endpoint always answers.
package assistant

import (
	"context"
	"fmt"
	"strings"

	"github.com/aksjeradar/aksjeradar"
	"google.golang.org/genai"
)

// Sentiment is the coarse market mood label.
type Sentiment string

const (
	Bullish Sentiment = "bullish"
	Neutral Sentiment = "neutral"
	Bearish Sentiment = "bearish"
)

// Commentary is the sentiment answer for one symbol.
type Commentary struct {
	Symbol    string    `json:"symbol"`
	Sentiment Sentiment `json:"sentiment"`
	Text      string    `json:"text"`
	Generated bool      `json:"generated"` // true when a model wrote the text
}

// Assistant asks Gemini for commentary. A nil *Assistant is valid and
// answers rule-based only.
type Assistant struct {
	client *genai.Client
	model  string
}

// New connects the Gemini client. Returns nil (and no error) when the
// environment carries no API key: sentiment then runs rule-based.
func New(ctx context.Context, apiKey string) (*Assistant, error) {
	if apiKey == "" {
		return nil, nil
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: apiKey})
	if err != nil {
		return nil, fmt.Errorf("cannot create genai client: %w", err)
	}
	return &Assistant{client: client, model: "gemini-2.0-flash"}, nil
}

// Commentary returns sentiment commentary for a technical summary. Model
// failures fall back to the rule-based answer rather than erroring: the
// analysis page must not 500 because a third-party call failed.
func (a *Assistant) Commentary(ctx context.Context, sum aksjeradar.TechnicalSummary) Commentary {
	ruled := RuleBased(sum)
	if a == nil {
		return ruled
	}

	prompt := buildPrompt(sum)
	resp, err := a.client.Models.GenerateContent(ctx, a.model, genai.Text(prompt), &genai.GenerateContentConfig{
		SystemInstruction: &genai.Content{Parts: []*genai.Part{{Text: systemInstruction}}},
	})
	if err != nil {
		return ruled
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return ruled
	}
	text := strings.TrimSpace(resp.Candidates[0].Content.Parts[0].Text)
	if text == "" {
		return ruled
	}
	ruled.Text = text
	ruled.Generated = true
	return ruled
}

const systemInstruction = "Du er en norsk aksjeanalytiker. Svar med en kort " +
	"markedskommentar på norsk, maks tre setninger, uten investeringsråd."

func buildPrompt(sum aksjeradar.TechnicalSummary) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Aksje: %s. Siste kurs: %.2f.", sum.Symbol, sum.LastClose)
	if sum.RSI != nil {
		fmt.Fprintf(&b, " RSI(14): %.1f.", *sum.RSI)
	}
	if sum.MACD != nil {
		fmt.Fprintf(&b, " MACD-histogram: %.3f.", sum.MACD.Histogram)
	}
	if sum.SMA20 != nil {
		fmt.Fprintf(&b, " SMA20: %.2f.", *sum.SMA20)
	}
	fmt.Fprintf(&b, " Teknisk signal: %s.", sum.Signal)
	return b.String()
}

// RuleBased derives a deterministic commentary from the indicator signal.
func RuleBased(sum aksjeradar.TechnicalSummary) Commentary {
	c := Commentary{Symbol: sum.Symbol, Sentiment: Neutral}
	switch sum.Signal {
	case aksjeradar.SignalBuy:
		c.Sentiment = Bullish
		c.Text = fmt.Sprintf("%s ser oversolgt ut med positivt momentum.", sum.Symbol)
	case aksjeradar.SignalSell:
		c.Sentiment = Bearish
		c.Text = fmt.Sprintf("%s ser overkjøpt ut med negativt momentum.", sum.Symbol)
	default:
		c.Text = fmt.Sprintf("%s viser ingen sterke tekniske signaler.", sum.Symbol)
	}
	return c
}
