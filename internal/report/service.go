package report

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/signintech/gopdf"

	"vaidhya-backend/internal/conversation"
	"vaidhya-backend/internal/knowledge"
	"vaidhya-backend/internal/logger"
)

const pageTextWidth = 500

// Service renders a PDF summary of a triage session: the ranked candidate
// conditions computed from the session's symptom mentions, the knowledge-base
// indicators of the leading candidate, and the conversation transcript.
// Probabilities are never persisted, so they are recomputed fresh from the
// stored history at render time.
type Service struct {
	store   *conversation.Store
	index   *knowledge.Index
	profile knowledge.Profile
	log     logger.Logger
}

func NewService(store *conversation.Store, index *knowledge.Index, profile knowledge.Profile, log logger.Logger) *Service {
	return &Service{store: store, index: index, profile: profile, log: log}
}

// Render produces the PDF document for a session.
func (s *Service) Render(ctx context.Context, sessionID string) ([]byte, error) {
	history := s.store.GetOrCreate(ctx, sessionID)

	var userTexts []string
	for _, m := range history {
		if m.Role == conversation.RoleUser {
			userTexts = append(userTexts, m.Content)
		}
	}
	symptoms := knowledge.ExtractAll(userTexts, s.index)
	results := knowledge.Score(symptoms, s.index)

	pdf := gopdf.GoPdf{}
	pdf.Start(gopdf.Config{PageSize: *gopdf.PageSizeA4})
	pdf.AddPage()

	// Common DejaVu locations across base images.
	fontPaths := []string{
		"/usr/share/fonts/ttf-dejavu/DejaVuSans.ttf",
		"/usr/share/fonts/dejavu/DejaVuSans.ttf",
		"/usr/share/fonts/truetype/dejavu/DejaVuSans.ttf",
	}

	var fontErr error
	fontLoaded := false
	for _, path := range fontPaths {
		if err := pdf.AddTTFFont("DejaVu", path); err == nil {
			fontLoaded = true
			break
		} else {
			fontErr = err
		}
	}
	if !fontLoaded {
		return nil, fmt.Errorf("failed to load font for PDF, is ttf-dejavu installed? last error: %w", fontErr)
	}

	if err := pdf.SetFont("DejaVu", "", 20); err != nil {
		return nil, err
	}
	pdf.Cell(nil, "Triage Session Report")
	pdf.Br(30)

	if err := pdf.SetFont("DejaVu", "", 12); err != nil {
		return nil, err
	}
	pdf.Cell(nil, fmt.Sprintf("Date: %s", time.Now().Format("02.01.2006 15:04")))
	pdf.Br(15)
	pdf.Cell(nil, fmt.Sprintf("Session: %s", sessionID))
	pdf.Br(15)
	pdf.Cell(nil, fmt.Sprintf("Messages: %d", len(history)))
	pdf.Br(25)

	if err := pdf.SetFont("DejaVu", "", 14); err != nil {
		return nil, err
	}
	pdf.Cell(nil, "Candidate conditions:")
	pdf.Br(15)

	if err := pdf.SetFont("DejaVu", "", 11); err != nil {
		return nil, err
	}
	if len(results) == 0 {
		pdf.Cell(nil, "- No candidate conditions passed the confidence threshold.")
		pdf.Br(15)
	}
	for _, r := range results {
		line := fmt.Sprintf("- %s: %.1f%% (matching symptoms: %s)",
			r.Disease, r.Probability*100, strings.Join(r.MatchingSymptoms, ", "))
		writeWrapped(&pdf, line)
		pdf.Br(5)
	}
	pdf.Br(10)

	// Reference indicators for the leading candidate, straight from the
	// knowledge base grouping.
	if len(results) > 0 {
		if err := pdf.SetFont("DejaVu", "", 14); err != nil {
			return nil, err
		}
		pdf.Cell(nil, fmt.Sprintf("Known indicators for %s:", results[0].Disease))
		pdf.Br(15)

		if err := pdf.SetFont("DejaVu", "", 11); err != nil {
			return nil, err
		}
		for _, sw := range s.profile[results[0].Disease] {
			writeWrapped(&pdf, fmt.Sprintf("- %s (weight %.2f, noise %.2f)", sw.Symptom, sw.Weight, sw.Noise))
		}
		pdf.Br(10)
	}

	if err := pdf.SetFont("DejaVu", "", 14); err != nil {
		return nil, err
	}
	pdf.Cell(nil, "Conversation:")
	pdf.Br(15)

	if err := pdf.SetFont("DejaVu", "", 11); err != nil {
		return nil, err
	}
	for _, m := range history {
		writeWrapped(&pdf, fmt.Sprintf("[%s] %s", m.Role, m.Content))
		pdf.Br(3)
	}

	var buf bytes.Buffer
	if _, err := pdf.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("failed to write PDF: %w", err)
	}

	s.log.Info("rendered session report",
		logger.String("session_id", sessionID),
		logger.Int("candidates", len(results)),
		logger.Int("size_bytes", buf.Len()))

	return buf.Bytes(), nil
}

func writeWrapped(pdf *gopdf.GoPdf, text string) {
	lines, err := pdf.SplitText(text, pageTextWidth)
	if err != nil {
		lines = []string{text}
	}
	for _, l := range lines {
		pdf.Cell(nil, l)
		pdf.Br(12)
	}
}
