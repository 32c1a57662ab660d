package scoring

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/dharmasatrya/flightdeals/internal/models"
	"github.com/dharmasatrya/flightdeals/internal/ratelimit"
)

const backendAI = "ai-scoring"

type AIConfig struct {
	BaseURL string
	APIKey  string
	Model   string
	Timeout time.Duration
	Limiter *ratelimit.BackendLimiter
}

// AIScorer grades deals via an OpenAI-compatible chat-completions endpoint
// that returns strict JSON. Backend errors and unparsable output both fold
// into ErrUnavailable.
type AIScorer struct {
	baseURL    string
	apiKey     string
	model      string
	httpClient *http.Client
	limiter    *ratelimit.BackendLimiter
}

func NewAIScorer(cfg AIConfig) *AIScorer {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	model := cfg.Model
	if model == "" {
		model = "llama-3"
	}
	return &AIScorer{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:     cfg.APIKey,
		model:      model,
		httpClient: &http.Client{Timeout: timeout},
		limiter:    cfg.Limiter,
	}
}

type chatRequest struct {
	Model          string        `json:"model"`
	Messages       []chatMessage `json:"messages"`
	Temperature    float64       `json:"temperature"`
	ResponseFormat struct {
		Type string `json:"type"`
	} `json:"response_format"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

type aiVerdict struct {
	Score   int      `json:"score"`
	Reasons []string `json:"reasons"`
	Badges  []string `json:"badges"`
}

func (s *AIScorer) ScoreDeal(ctx context.Context, deal models.Deal) (Result, error) {
	if s.limiter != nil {
		if err := s.limiter.Wait(ctx, backendAI); err != nil {
			return Result{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
		}
	}

	body := chatRequest{
		Model: s.model,
		Messages: []chatMessage{
			{Role: "system", Content: "You are a precise flight deal grader that returns strict JSON only."},
			{Role: "user", Content: buildPrompt(deal)},
		},
		Temperature: 0.2,
	}
	body.ResponseFormat.Type = "json_object"

	payload, err := json.Marshal(body)
	if err != nil {
		return Result{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return Result{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	req.Header.Set("Content-Type", "application/json")
	if s.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+s.apiKey)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return Result{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return Result{}, fmt.Errorf("%w: status %d", ErrUnavailable, resp.StatusCode)
	}

	var chat chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&chat); err != nil {
		return Result{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if len(chat.Choices) == 0 {
		return Result{}, fmt.Errorf("%w: empty response", ErrUnavailable)
	}

	var verdict aiVerdict
	if err := json.Unmarshal([]byte(chat.Choices[0].Message.Content), &verdict); err != nil {
		return Result{}, fmt.Errorf("%w: malformed verdict: %v", ErrUnavailable, err)
	}

	score := verdict.Score
	if score < 0 {
		score = 0
	}
	if score > 100 {
		score = 100
	}

	reasons := verdict.Reasons
	if len(reasons) > 5 {
		reasons = reasons[:5]
	}

	badges := make([]string, 0, 3)
	for _, b := range verdict.Badges {
		if !models.BadgeVocabulary[b] || contains(badges, b) {
			continue
		}
		badges = append(badges, b)
		if len(badges) == 3 {
			break
		}
	}

	return Result{Score: score, Reasons: reasons, Badges: badges}, nil
}

func buildPrompt(deal models.Deal) string {
	vocabulary := []string{
		models.BadgeBadAirline,
		models.BadgeLongLayover,
		models.BadgeRedEye,
		models.BadgeAmazingDeal,
		models.BadgeMorningDeparture,
		models.BadgeWeekendFriendly,
		models.BadgeShoulderSeason,
		models.BadgeTightConnection,
	}

	attrs := map[string]any{
		"origin":              deal.OriginIATA,
		"destination":         deal.DestinationIATA,
		"one_way":             deal.OneWay,
		"num_stops":           deal.NumStops,
		"duration_minutes":    deal.DurationMinutes,
		"layover_minutes_max": deal.LayoverMinutesMax,
		"airline_codes":       deal.AirlineCodes,
		"cabin_class":         deal.CabinClass,
		"price_total":         deal.PriceTotal,
		"currency":            deal.Currency,
	}
	if deal.PriceBaseline != nil {
		attrs["price_baseline"] = *deal.PriceBaseline
	}
	attrsJSON, _ := json.Marshal(attrs)

	return fmt.Sprintf(
		"You are Flight Scanner AI. Score a flight deal from 0-100. "+
			"Optimize for value and traveler experience. Consider: stops, maximum layover, total duration (minutes), cabin, airline quality (if implied by codes), and price. "+
			"If price baselines are absent, prioritize comfort (direct, shorter duration, reasonable layovers) and keep scores conservative.\n\n"+
			"Return STRICT JSON with keys:\n"+
			"- score: integer 0-100 (no decimals)\n"+
			"- reasons: array of up to 5 short strings (human-friendly)\n"+
			"- badges: array of up to 3 strings chosen from this set only: %s\n\n"+
			"Guidelines: Direct gets higher scores. Layovers over 180 minutes are bad. Red-eye departures (00:00-05:59 local) are bad.\n"+
			"Award 'amazing-deal' only if overall score >= 85 and the itinerary is direct.\n\n"+
			"deal: %s",
		strings.Join(vocabulary, ", "), string(attrsJSON))
}
