package assistant

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/openai/openai-go"

	"github.com/hyperengineering/cellar/internal/wine"
)

// FallbackReply is used when the model returns an empty answer.
const FallbackReply = "I'm sorry, I couldn't come up with an answer to that."

// Reference links a mention in a chat reply to a wine.
type Reference struct {
	ID          string `json:"id"`
	DisplayName string `json:"displayName"`
}

// Reply is a chat answer with the wines it mentions.
type Reply struct {
	Reply          string      `json:"reply"`
	WineReferences []Reference `json:"wineReferences"`
}

var referencePattern = regexp.MustCompile(`\[\[([^\]|]+)\|([^\]]+)\]\]`)

// Chat answers a question about the collection. Catalog wines and the
// collector's own additions are listed separately in the prompt.
func (a *Assistant) Chat(ctx context.Context, message string, wines, userWines []wine.Wine) (Reply, error) {
	if !a.Configured() {
		return Reply{}, ErrNotConfigured
	}

	text, err := a.complete(ctx, a.model, a.maxTokens,
		openai.SystemMessage(SystemPrompt(wines, userWines)),
		openai.UserMessage(message),
	)
	if err != nil {
		return Reply{}, err
	}
	if text == "" {
		text = FallbackReply
	}
	return Reply{Reply: text, WineReferences: ParseReferences(text)}, nil
}

// ParseReferences extracts [[Display Name|id]] links in first-seen order,
// keeping one entry per id.
func ParseReferences(text string) []Reference {
	refs := []Reference{}
	seen := make(map[string]bool)
	for _, m := range referencePattern.FindAllStringSubmatch(text, -1) {
		id := strings.TrimSpace(m[2])
		if seen[id] {
			continue
		}
		seen[id] = true
		refs = append(refs, Reference{ID: id, DisplayName: strings.TrimSpace(m[1])})
	}
	return refs
}

// SystemPrompt describes the sommelier role and lists the collection with
// the [ID:x] prefixes the model must echo back in links.
func SystemPrompt(wines, userWines []wine.Wine) string {
	var b strings.Builder
	fmt.Fprintf(&b, "You are a sommelier helping a collector make the most of their own cellar. "+
		"You know regions, grapes, food pairing and when bottles are at their best.\n\n"+
		"The collection holds %d wines. Each line starts with the wine's ID in brackets:\n\n",
		len(wines)+len(userWines))

	b.WriteString(CollectionContext(wines))
	if len(userWines) > 0 {
		b.WriteString("\n\n--- ADDED BY THE COLLECTOR ---\n")
		b.WriteString(UserWinesContext(userWines))
	}

	b.WriteString("\n\nWhenever you mention a wine from this list, write it as a link in exactly this form: [[Display Name|ID]]. " +
		"For a line \"[ID:178] Castello Banfi Brunello di Montalcino (2018) ...\" write [[Castello Banfi Brunello di Montalcino 2018|178]]. " +
		"The display name is the producer and wine name, optionally with the vintage. The ID must be copied exactly from the brackets.\n\n" +
		"When recommending, refer to specific bottles from the list, consider style, grapes and region, " +
		"suggest pairings and say whether a wine is ready now or should rest. " +
		"If a question has nothing to do with wine, steer the conversation back to the cellar. " +
		"Be warm and practical.")
	return b.String()
}

// CollectionContext renders catalog wines one per line.
func CollectionContext(wines []wine.Wine) string {
	lines := make([]string, 0, len(wines))
	for i := range wines {
		w := &wines[i]
		vintage := w.Vintage
		if vintage == "" {
			vintage = "NV"
		}
		line := fmt.Sprintf("[ID:%s] %s %s (%s) - %s from %s, %s", w.ID, w.Producer, w.Name, vintage, w.WineType, w.Country, w.Region)
		if w.GrapeVarieties != "" {
			line += " - " + w.GrapeVarieties
		}
		if w.FoodPairings != "" {
			line += " | Pairs with: " + w.FoodPairings
		}
		if w.DrinkWindowStart != "" && w.DrinkWindowEnd != "" {
			line += " | Drink: " + w.DrinkWindowStart + "-" + w.DrinkWindowEnd
		}
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n")
}

// UserWinesContext renders collector-added wines with the fuller detail
// their entries usually carry.
func UserWinesContext(wines []wine.Wine) string {
	lines := make([]string, 0, len(wines))
	for i := range wines {
		w := &wines[i]
		parts := []string{fmt.Sprintf("[ID:%s] %s %s", w.ID, w.Producer, w.Name)}
		add := func(ok bool, s string) {
			if ok {
				parts = append(parts, s)
			}
		}
		add(w.Vintage != "", "("+w.Vintage+")")
		add(w.Region != "" && w.Country != "", "- "+w.Region+", "+w.Country)
		add(w.WineType != "", "["+w.WineType+"]")
		add(w.GrapeVarieties != "", "Grapes: "+w.GrapeVarieties)
		add(w.Body != "", "Body: "+w.Body)
		add(w.DrinkWindowStart != "" && w.DrinkWindowEnd != "", "Drink: "+w.DrinkWindowStart+"-"+w.DrinkWindowEnd)
		add(w.TastingNotes != "", "Notes: "+w.TastingNotes)
		add(w.FoodPairings != "", "Pairings: "+w.FoodPairings)
		add(w.Quantity != "", "Qty: "+w.Quantity)
		lines = append(lines, strings.Join(parts, " | "))
	}
	return strings.Join(lines, "\n")
}
