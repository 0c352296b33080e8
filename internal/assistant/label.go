package assistant

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/openai/openai-go"

	"github.com/hyperengineering/cellar/internal/images"
	"github.com/hyperengineering/cellar/internal/wine"
)

// labelMaxTokens leaves room for the full field set with tasting notes.
const labelMaxTokens = 2048

const labelPrompt = `You are a sommelier reading a wine label photograph. Record everything printed on the label, then use your knowledge of the producer, region and grapes to fill in what the label implies.

Reply with one JSON object using exactly these keys. Use an empty string only when a value can be neither read nor reasonably inferred.

{
  "producer": "winery or producer",
  "name": "cuvée or wine name without the producer",
  "vintage": "four-digit year, e.g. \"2019\"",
  "country": "country of origin",
  "region": "region, e.g. Barolo, Napa Valley, Champagne",
  "appellation": "AOC/DOC/DOCG/AVA when shown or implied",
  "grapeVarieties": "comma separated; infer from the appellation when not printed (Chablis = Chardonnay)",
  "blendPercentage": "e.g. \"70% Grenache, 30% Syrah\" when shown",
  "wineType": "one of Red, White, Rosé, Sparkling, Dessert, Fortified, Orange/Amber",
  "color": "appearance, e.g. \"Deep ruby with garnet rim\"",
  "alcohol": "percentage as a number string, e.g. \"13.5\"",
  "bottleSize": "e.g. \"750ml\"",
  "body": "one of Light, Light-Medium, Medium, Medium-Full, Full",
  "tanninLevel": "one of N/A, Low, Low-Medium, Medium, Medium-High, High, Very High",
  "acidityLevel": "one of Low, Medium, Medium-High, High",
  "oakTreatment": "e.g. \"18 months French oak\" or \"Unoaked\"",
  "agingPotential": "e.g. \"Drink now\", \"5-10 years\"",
  "drinkWindowStart": "first good year, four digits",
  "drinkWindowEnd": "last good year, four digits",
  "tastingNotes": "palate descriptors",
  "aromaNotes": "nose descriptors",
  "foodPairings": "suggested dishes",
  "notes": "awards, classifications, vineyard or other details"
}

Light whites usually drink within three years of the vintage; structured reds may need ten to twenty-five. Return only the JSON object.`

// AnalyzeLabel reads a label photograph given as a data URL and returns the
// fields the model could read or infer. The result has no identity.
func (a *Assistant) AnalyzeLabel(ctx context.Context, imageDataURL string) (wine.Wine, error) {
	if !a.Configured() {
		return wine.Wine{}, ErrNotConfigured
	}
	if _, err := images.ParseDataURL(imageDataURL); err != nil {
		return wine.Wine{}, fmt.Errorf("%w: %v", ErrInvalidImage, err)
	}

	text, err := a.complete(ctx, a.visionModel, max(a.maxTokens, labelMaxTokens),
		openai.UserMessageParts(
			openai.ImagePart(imageDataURL),
			openai.TextPart(labelPrompt),
		),
	)
	if err != nil {
		return wine.Wine{}, err
	}

	w, err := ParseLabelResponse(text)
	if err != nil {
		slog.Warn("label analysis reply not parseable",
			"component", "assistant",
			"action", "analyze_label",
			"reply_length", len(text),
		)
		return wine.Wine{}, err
	}
	return w, nil
}

// ParseLabelResponse decodes the model's JSON reply, tolerating a markdown
// code fence around it and values of any JSON type.
func ParseLabelResponse(text string) (wine.Wine, error) {
	var values map[string]any
	if err := json.Unmarshal([]byte(StripCodeFence(text)), &values); err != nil {
		return wine.Wine{}, fmt.Errorf("%w: %v", ErrUnparseableResponse, err)
	}
	return wine.FromValues(values), nil
}

// StripCodeFence removes a surrounding ``` or ```json fence.
func StripCodeFence(text string) string {
	text = strings.TrimSpace(text)
	if rest, ok := strings.CutPrefix(text, "```json"); ok {
		text = rest
	} else if rest, ok := strings.CutPrefix(text, "```"); ok {
		text = rest
	}
	text = strings.TrimSuffix(text, "```")
	return strings.TrimSpace(text)
}
