package cellar

import (
	"context"
	"errors"
	"time"

	"github.com/hyperengineering/cellar/internal/assistant"
	"github.com/hyperengineering/cellar/internal/config"
	"github.com/hyperengineering/cellar/internal/observability"
	"github.com/hyperengineering/cellar/internal/wine"
)

var assistantDefaults = config.AssistantConfig{Model: "gpt-4o"}

// AIConfigured reports whether the assistant can be reached.
func (s *Service) AIConfigured() bool {
	return s.assistant.Configured()
}

// AnalyzeLabel extracts wine fields from a label photograph.
func (s *Service) AnalyzeLabel(ctx context.Context, imageDataURL string) (wine.Wine, error) {
	defer observeAssistant("analyze_label", time.Now())

	w, err := s.assistant.AnalyzeLabel(ctx, imageDataURL)
	countAssistant("analyze_label", err)
	return w, err
}

// Chat answers a question about the collection. Without an API key the
// reply says so instead of failing.
func (s *Service) Chat(ctx context.Context, message string) (assistant.Reply, error) {
	if !s.assistant.Configured() {
		return assistant.Reply{Reply: assistant.NotConfiguredReply, WineReferences: []assistant.Reference{}}, nil
	}

	wines, _, err := s.Collection(ctx)
	if err != nil {
		return assistant.Reply{}, err
	}
	var catalogWines, userWines []wine.Wine
	for _, w := range wines {
		if w.IsUserAdded() {
			userWines = append(userWines, w)
		} else {
			catalogWines = append(catalogWines, w)
		}
	}

	defer observeAssistant("chat", time.Now())
	reply, err := s.assistant.Chat(ctx, message, catalogWines, userWines)
	countAssistant("chat", err)
	return reply, err
}

func observeAssistant(op string, start time.Time) {
	observability.AssistantDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
}

func countAssistant(op string, err error) {
	switch {
	case err == nil:
		observability.AssistantRequests.WithLabelValues(op, observability.OutcomeSuccess).Inc()
	case errors.Is(err, assistant.ErrNotConfigured), errors.Is(err, assistant.ErrInvalidImage):
		// Rejected before reaching the model.
	default:
		observability.AssistantRequests.WithLabelValues(op, observability.OutcomeFailure).Inc()
	}
}
