package ai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"paraglide-stack/internal/models"
	"paraglide-stack/shared/config"
	"paraglide-stack/shared/flyability"

	"google.golang.org/genai"
)

// ErrEmptyBriefing is returned when the model produced no usable text.
var ErrEmptyBriefing = errors.New("empty briefing")

// generator is the part of the Gemini models service the briefer uses.
type generator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// Briefer turns a scored advisory into a short pilot briefing with Gemini.
// The model only phrases what the scoring already decided.
type Briefer struct {
	models generator
	model  string
	logger *slog.Logger
}

func NewBriefer(ctx context.Context, cfg *config.AIConfig, logger *slog.Logger) (*Briefer, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.GeminiAPIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	return &Briefer{
		models: client.Models,
		model:  cfg.Model,
		logger: logger,
	}, nil
}

// Briefing is the structured answer requested from the model.
type Briefing struct {
	Summary string   `json:"summary"`
	BestDay string   `json:"best_day"`
	Hazards []string `json:"hazards"`
}

func (b Briefing) String() string {
	var sb strings.Builder
	sb.WriteString(b.Summary)
	if b.BestDay != "" {
		sb.WriteString(" Best day: ")
		sb.WriteString(b.BestDay)
		sb.WriteString(".")
	}
	if len(b.Hazards) > 0 {
		sb.WriteString(" Watch for: ")
		sb.WriteString(strings.Join(b.Hazards, "; "))
		sb.WriteString(".")
	}
	return sb.String()
}

func (b *Briefer) Brief(ctx context.Context, advisory *models.FlightAdvisory) (string, error) {
	if advisory == nil {
		return "", fmt.Errorf("advisory cannot be nil")
	}

	contents := []*genai.Content{
		genai.NewContentFromParts([]*genai.Part{genai.NewPartFromText(buildPrompt(advisory))}, genai.RoleUser),
	}
	result, err := b.models.GenerateContent(ctx, b.model, contents, &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		Temperature:      genai.Ptr[float32](0.3),
	})
	if err != nil {
		return "", fmt.Errorf("failed to generate briefing for %s: %w", advisory.Location.Name, err)
	}

	text := result.Text()
	if text == "" {
		return "", ErrEmptyBriefing
	}

	briefing, err := parseBriefing(text)
	if err != nil {
		return "", fmt.Errorf("failed to parse briefing for %s: %w", advisory.Location.Name, err)
	}
	b.logger.Debug("briefing generated", "location", advisory.Location.Name, "hazards", len(briefing.Hazards))
	return briefing.String(), nil
}

func buildPrompt(advisory *models.FlightAdvisory) string {
	var days strings.Builder
	for _, d := range advisory.Days {
		fmt.Fprintf(&days, "- %s: day %s, worst hour %s", d.Date, d.TrafficLight, d.WorstScore)
		if d.BestWindow != nil {
			fmt.Fprintf(&days, ", best window %s", d.BestWindow)
		}
		days.WriteString("\n")
		for _, r := range d.Reasons {
			if r.Severity == flyability.SeverityGreen {
				continue
			}
			fmt.Fprintf(&days, "    * [%s] %s\n", r.Severity, r.Text)
		}
	}

	elevation := "unknown"
	if advisory.ElevationM != nil {
		elevation = fmt.Sprintf("%.0f m", *advisory.ElevationM)
	}

	return fmt.Sprintf(`You are a paragliding weather briefer writing for a pilot planning the next days.

SITE: %s (launch elevation %s, timezone %s)

ASSESSMENT (already decided, do not change the verdicts):
%s
Scores: GO means flyable, CAUTION means marginal, NO-GO means do not fly.
Windows are local time and only cover 06:00-20:00.

INSTRUCTIONS:
1. Summarise the outlook in at most three sentences.
2. Name the best day and window, or an empty string when no day is GO.
3. List the main hazards from the reasons above, shortest wording first.

Reply with JSON only:
{
  "summary": "string",
  "best_day": "string",
  "hazards": ["string"]
}`,
		advisory.Location.Name,
		elevation,
		advisory.Timezone,
		days.String(),
	)
}

func parseBriefing(response string) (Briefing, error) {
	start := strings.Index(response, "{")
	end := strings.LastIndex(response, "}")
	if start == -1 || end < start {
		return Briefing{}, fmt.Errorf("no JSON found in response: %s", truncateString(response, 200))
	}
	raw := response[start : end+1]

	var b Briefing
	if err := json.Unmarshal([]byte(raw), &b); err != nil {
		if err2 := json.Unmarshal([]byte(stripTrailingCommas(raw)), &b); err2 != nil {
			return Briefing{}, fmt.Errorf("failed to unmarshal JSON: %w", err)
		}
	}
	if strings.TrimSpace(b.Summary) == "" {
		return Briefing{}, errors.New("briefing summary is required but was empty")
	}
	return b, nil
}

// stripTrailingCommas removes ",}" and ",]" sequences models like to emit.
func stripTrailingCommas(s string) string {
	var sb strings.Builder
	inString, escaped := false, false
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case escaped:
			escaped = false
		case c == '\\' && inString:
			escaped = true
		case c == '"':
			inString = !inString
		case c == ',' && !inString:
			j := i + 1
			for j < len(s) && strings.ContainsRune(" \t\r\n", rune(s[j])) {
				j++
			}
			if j < len(s) && (s[j] == '}' || s[j] == ']') {
				continue
			}
		}
		sb.WriteByte(c)
	}
	return sb.String()
}

func truncateString(s string, maxLength int) string {
	if len(s) <= maxLength {
		return s
	}
	return s[:maxLength] + "..."
}
