package agent

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"vaidhya-backend/internal/logger"
)

// Translator converts text between language tags. Implementations are
// fail-open: on any failure the original text comes back unchanged, never an
// error. The orchestrator relies on this to keep turns intact.
type Translator interface {
	Translate(ctx context.Context, text, sourceLanguage, targetLanguage string) string
}

// EnglishTag is the pivot language for generation.
const EnglishTag = "en-IN"

// NormalizeLanguageCode maps bare codes like "hi" to the regional form
// "hi-IN" the translation API expects. Empty input means English.
func NormalizeLanguageCode(code string) string {
	if code == "" {
		return EnglishTag
	}
	if strings.Contains(code, "-") {
		return code
	}
	return code + "-IN"
}

// SarvamClient translates via the Sarvam AI API.
type SarvamClient struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
	log        logger.Logger
}

// NewSarvamClient builds a translation client. baseURL falls back to the
// public endpoint when empty.
func NewSarvamClient(apiKey, baseURL string, log logger.Logger) *SarvamClient {
	if baseURL == "" {
		baseURL = "https://api.sarvam.ai"
	}
	return &SarvamClient{
		apiKey:  apiKey,
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		log: log,
	}
}

type translateRequest struct {
	Input               string `json:"input"`
	SourceLanguageCode  string `json:"source_language_code"`
	TargetLanguageCode  string `json:"target_language_code"`
	SpeakerGender       string `json:"speaker_gender"`
	Mode                string `json:"mode"`
	EnablePreprocessing bool   `json:"enable_preprocessing"`
	OutputScript        string `json:"output_script"`
	NumeralsFormat      string `json:"numerals_format"`
}

type translateResponse struct {
	TranslatedText string `json:"translated_text"`
}

// Translate converts text between the given language tags. Identical source
// and target, empty text, transport errors, non-2xx statuses and malformed
// bodies all return the input unchanged.
func (c *SarvamClient) Translate(ctx context.Context, text, sourceLanguage, targetLanguage string) string {
	if strings.TrimSpace(text) == "" {
		return text
	}

	source := NormalizeLanguageCode(sourceLanguage)
	target := NormalizeLanguageCode(targetLanguage)
	if source == target {
		return text
	}

	reqBody := translateRequest{
		Input:               strings.TrimSpace(text),
		SourceLanguageCode:  source,
		TargetLanguageCode:  target,
		SpeakerGender:       "Female",
		Mode:                "formal",
		EnablePreprocessing: true,
		OutputScript:        "fully-native",
		NumeralsFormat:      "international",
	}

	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return text
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/translate", bytes.NewBuffer(jsonBody))
	if err != nil {
		return text
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("api-subscription-key", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.log.Warn("translation request failed, keeping original text",
			logger.String("target_language", target), logger.Err(err))
		return text
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		c.log.Warn("translation API returned non-OK status, keeping original text",
			logger.String("target_language", target),
			logger.Int("status", resp.StatusCode))
		return text
	}

	var result translateResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil || result.TranslatedText == "" {
		return text
	}
	return result.TranslatedText
}
