// Package valuation talks to the Gemini API to identify photographed items
// and estimate their market value. Both calls are best-effort: callers fall
// back to manual entry on identification failure and to a zero-valued
// estimate on valuation failure, never blocking the add-item flow.
package valuation

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/time/rate"

	"github.com/colletr/colletr/backend/internal/logger"
	"github.com/colletr/colletr/backend/internal/metrics"
	"github.com/colletr/colletr/backend/internal/models"
)

const (
	defaultModel  = "gemini-2.5-flash"
	geminiAPIURL  = "https://generativelanguage.googleapis.com/v1beta/models/%s:generateContent"
	geminiTimeout = 60 * time.Second

	maxSources        = 3
	valuationCacheLen = 128
)

// Identification is the result of the identify call.
type Identification struct {
	Name         string          `json:"name"`
	Manufacturer string          `json:"manufacturer"`
	ItemType     models.ItemType `json:"item_type"`
}

// Gateway abstracts the external identification/pricing oracle.
type Gateway interface {
	Identify(ctx context.Context, imageBytes []byte, hint models.Category) (*Identification, error)
	Valuate(ctx context.Context, itemName string, condition models.Condition) (*models.Valuation, error)
}

// GeminiService implements Gateway over the Gemini REST API.
type GeminiService struct {
	apiKey     string
	model      string
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
	enabled    bool
	log        logger.Logger

	// valuationCache avoids re-pricing the same item+condition within a
	// session; entries carry their fetch time in LastUpdated.
	valuationCache *lru.Cache[string, models.Valuation]
}

// NewGeminiService creates the gateway. An empty apiKey disables it; calls
// then fail immediately and the callers' fallback paths take over.
func NewGeminiService(apiKey, model string, requestsPerMinute int, log logger.Logger) *GeminiService {
	if model == "" {
		model = defaultModel
	}
	if requestsPerMinute <= 0 {
		requestsPerMinute = 10
	}

	cache, err := lru.New[string, models.Valuation](valuationCacheLen)
	if err != nil {
		log.Warn("failed to create valuation cache", logger.Error(err))
	}

	svc := &GeminiService{
		apiKey:         apiKey,
		model:          model,
		baseURL:        geminiAPIURL,
		httpClient:     &http.Client{Timeout: geminiTimeout},
		limiter:        rate.NewLimiter(rate.Every(time.Minute/time.Duration(requestsPerMinute)), requestsPerMinute),
		enabled:        apiKey != "",
		log:            log,
		valuationCache: cache,
	}

	if svc.enabled {
		log.Info("gemini gateway enabled", logger.String("model", model))
	} else {
		log.Warn("gemini gateway disabled (no API key)")
	}
	return svc
}

// IsEnabled returns whether the gateway has credentials.
func (s *GeminiService) IsEnabled() bool {
	return s.enabled
}

// Identify asks the model to recognize the photographed item. The category
// hint narrows the prompt the same way the collection's category narrows
// the UI flow.
func (s *GeminiService) Identify(ctx context.Context, imageBytes []byte, hint models.Category) (*Identification, error) {
	if !s.enabled {
		return nil, &IdentificationError{Err: fmt.Errorf("gateway disabled")}
	}

	req := geminiRequest{
		Contents: []geminiContent{{
			Role: "user",
			Parts: []geminiPart{
				{InlineData: &geminiInlineData{
					MimeType: detectMimeType(imageBytes),
					Data:     base64.StdEncoding.EncodeToString(imageBytes),
				}},
				{Text: identifyPrompt(hint)},
			},
		}},
		GenerationConfig: geminiGenConfig{
			ResponseMimeType: "application/json",
			Temperature:      0.1,
			MaxOutputTokens:  1024,
		},
	}

	text, _, err := s.call(ctx, "identify", req)
	if err != nil {
		return nil, &IdentificationError{Err: err}
	}

	payload, err := extractJSON(text)
	if err != nil {
		metrics.GeminiErrorsTotal.WithLabelValues("identify", "parse").Inc()
		return nil, &IdentificationError{Err: err}
	}

	var raw struct {
		Name         string `json:"name"`
		Manufacturer string `json:"manufacturer"`
		Type         string `json:"type"`
	}
	if err := json.Unmarshal([]byte(payload), &raw); err != nil {
		metrics.GeminiErrorsTotal.WithLabelValues("identify", "parse").Inc()
		return nil, &IdentificationError{Err: fmt.Errorf("failed to parse identification: %w", err)}
	}

	return &Identification{
		Name:         raw.Name,
		Manufacturer: raw.Manufacturer,
		ItemType:     models.NormalizeItemType(raw.Type),
	}, nil
}

// Valuate asks the model for a current market estimate, grounded in search.
// Source URLs come from the grounding metadata, bounded to maxSources.
func (s *GeminiService) Valuate(ctx context.Context, itemName string, condition models.Condition) (*models.Valuation, error) {
	if !s.enabled {
		return nil, &ValuationError{Err: fmt.Errorf("gateway disabled")}
	}

	cacheKey := itemName + "|" + string(condition)
	if s.valuationCache != nil {
		if cached, ok := s.valuationCache.Get(cacheKey); ok {
			metrics.ValuationCacheHits.Inc()
			return &cached, nil
		}
	}

	req := geminiRequest{
		Contents: []geminiContent{{
			Role:  "user",
			Parts: []geminiPart{{Text: valuatePrompt(itemName, condition)}},
		}},
		Tools: []geminiTool{{GoogleSearch: &struct{}{}}},
		GenerationConfig: geminiGenConfig{
			Temperature:     0.2,
			MaxOutputTokens: 2048,
		},
	}

	text, sources, err := s.call(ctx, "valuate", req)
	if err != nil {
		return nil, &ValuationError{Err: err}
	}

	payload, err := extractJSON(text)
	if err != nil {
		metrics.GeminiErrorsTotal.WithLabelValues("valuate", "parse").Inc()
		return nil, &ValuationError{Err: err}
	}

	var raw struct {
		Min       float64 `json:"min"`
		Max       float64 `json:"max"`
		Avg       float64 `json:"avg"`
		Reasoning string  `json:"reasoning"`
	}
	if err := json.Unmarshal([]byte(payload), &raw); err != nil {
		metrics.GeminiErrorsTotal.WithLabelValues("valuate", "parse").Inc()
		return nil, &ValuationError{Err: fmt.Errorf("failed to parse valuation: %w", err)}
	}

	if len(sources) > maxSources {
		sources = sources[:maxSources]
	}
	reasoning := raw.Reasoning
	if reasoning == "" {
		reasoning = "Estimativa baseada em busca online."
	}

	v := models.Valuation{
		Currency:     "BRL",
		MinPrice:     raw.Min,
		MaxPrice:     raw.Max,
		AveragePrice: raw.Avg,
		LastUpdated:  time.Now(),
		Reasoning:    reasoning,
		Sources:      sources,
	}

	if s.valuationCache != nil {
		s.valuationCache.Add(cacheKey, v)
	}
	return &v, nil
}

// call performs one generateContent request and returns the text of the
// first candidate plus any grounding source URLs.
func (s *GeminiService) call(ctx context.Context, operation string, req geminiRequest) (string, []string, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return "", nil, err
	}

	start := time.Now()
	metrics.GeminiRequestsTotal.WithLabelValues(operation).Inc()

	reqJSON, err := json.Marshal(req)
	if err != nil {
		return "", nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	url := fmt.Sprintf(s.baseURL, s.model) + "?key=" + s.apiKey
	httpReq, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewReader(reqJSON))
	if err != nil {
		return "", nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(httpReq)
	if err != nil {
		metrics.GeminiErrorsTotal.WithLabelValues(operation, "network").Inc()
		return "", nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		metrics.GeminiErrorsTotal.WithLabelValues(operation, "read").Inc()
		return "", nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		metrics.GeminiErrorsTotal.WithLabelValues(operation, "api").Inc()
		return "", nil, fmt.Errorf("API returned status %d: %s", resp.StatusCode, string(body))
	}

	var apiResp geminiAPIResponse
	if err := json.Unmarshal(body, &apiResp); err != nil {
		metrics.GeminiErrorsTotal.WithLabelValues(operation, "parse").Inc()
		return "", nil, fmt.Errorf("failed to parse API response: %w", err)
	}
	if apiResp.Error != nil {
		metrics.GeminiErrorsTotal.WithLabelValues(operation, "api").Inc()
		return "", nil, fmt.Errorf("API error %d: %s", apiResp.Error.Code, apiResp.Error.Message)
	}
	if len(apiResp.Candidates) == 0 {
		metrics.GeminiErrorsTotal.WithLabelValues(operation, "empty").Inc()
		return "", nil, fmt.Errorf("no response from Gemini")
	}

	metrics.GeminiAPILatency.WithLabelValues(operation).Observe(time.Since(start).Seconds())

	candidate := apiResp.Candidates[0]
	var text string
	for _, part := range candidate.Content.Parts {
		if part.Text != "" {
			text += part.Text
		}
	}

	var sources []string
	if candidate.GroundingMetadata != nil {
		for _, chunk := range candidate.GroundingMetadata.GroundingChunks {
			if chunk.Web != nil && chunk.Web.URI != "" {
				sources = append(sources, chunk.Web.URI)
			}
		}
	}

	return text, sources, nil
}

// detectMimeType returns the MIME type for image bytes, defaulting to jpeg
// for anything http.DetectContentType does not recognize as an image.
func detectMimeType(data []byte) string {
	contentType := http.DetectContentType(data)
	if !strings.HasPrefix(contentType, "image/") {
		return "image/jpeg"
	}
	return contentType
}

// identifyPrompt narrows the identification by the collection's category.
// Prompts are Portuguese: the model answers with the labels Brazilian
// sellers use and NormalizeItemType maps them back.
func identifyPrompt(hint models.Category) string {
	var context string
	switch hint {
	case models.CategoryGames:
		context = "Identifique este JOGO de videogame (cartucho, disco ou caixa). O campo 'type' deve ser 'Jogo'."
	case models.CategoryAccessories:
		context = "Identifique este ACESSÓRIO de videogame (controle, cabo, periférico). O campo 'type' deve ser 'Acessório'."
	default:
		context = "Identifique este CONSOLE de videogame. O campo 'type' deve ser 'Mesa' ou 'Portátil'."
	}
	return context + " Retorne apenas JSON com os campos: 'name' (nome do item), 'manufacturer' (fabricante ou publisher), e 'type' (enum: 'Mesa', 'Portátil', 'Jogo', 'Acessório', 'Outro')."
}

func valuatePrompt(itemName string, condition models.Condition) string {
	return fmt.Sprintf(`Atue como um especialista em avaliação de videogames retrô.
Pesquise o valor de mercado ATUAL (hoje) para o item: %q na condição: %q.

Pesquise em sites como eBay, OLX, MercadoLivre Brasil, PriceCharting e lojas especializadas.
Considere apenas listagens vendidas recentemente ou preços médios atuais.

Retorne APENAS um bloco JSON válido (sem texto extra antes ou depois) com o seguinte formato:
{
  "min": number (preço mínimo encontrado em R$),
  "max": number (preço máximo encontrado em R$),
  "avg": number (preço médio estimado em R$),
  "reasoning": "string curta explicando a base de preço"
}
Converta todos os preços para Reais (BRL).`, itemName, condition.Label())
}

// Gemini API wire types.

type geminiRequest struct {
	Contents         []geminiContent `json:"contents"`
	Tools            []geminiTool    `json:"tools,omitempty"`
	GenerationConfig geminiGenConfig `json:"generationConfig"`
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text       string            `json:"text,omitempty"`
	InlineData *geminiInlineData `json:"inline_data,omitempty"`
}

type geminiInlineData struct {
	MimeType string `json:"mime_type"`
	Data     string `json:"data"`
}

type geminiTool struct {
	GoogleSearch *struct{} `json:"google_search,omitempty"`
}

type geminiGenConfig struct {
	ResponseMimeType string  `json:"responseMimeType,omitempty"`
	Temperature      float64 `json:"temperature"`
	MaxOutputTokens  int     `json:"maxOutputTokens"`
}

type geminiAPIResponse struct {
	Candidates []struct {
		Content struct {
			Parts []geminiPart `json:"parts"`
			Role  string       `json:"role"`
		} `json:"content"`
		GroundingMetadata *struct {
			GroundingChunks []struct {
				Web *struct {
					URI   string `json:"uri"`
					Title string `json:"title"`
				} `json:"web"`
			} `json:"groundingChunks"`
		} `json:"groundingMetadata"`
	} `json:"candidates"`
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error,omitempty"`
}
