package legalai

import (
	"context"

	"go.uber.org/zap"

	"github.com/lextrack/lextrack/internal/vault"
)

// FallbackDocuments is returned when the collaborator cannot suggest a list,
// so case creation never blocks on its availability.
var FallbackDocuments = []string{
	"Vakalatnama",
	"Aadhar Card",
	"Relevant Court Fee Stamps",
	"Detailed Affidavit",
}

const researchUnavailable = "Live research database unavailable. Please verify your internet connection."

// Service shields callers from collaborator failures: every operation
// returns a usable value even when the provider errors.
type Service struct {
	provider Provider
}

func NewService(provider Provider) *Service {
	return &Service{provider: provider}
}

func (s *Service) AnalyzeQuery(ctx context.Context, query string, history []HistoryMessage, role string, attachments []Attachment) Analysis {
	res, err := s.provider.AnalyzeQuery(ctx, query, history, role, attachments)
	if err != nil {
		zap.S().Warnw("analysis degraded to safety fallback", "error", err)
		return Analysis{
			AgentType: "safety",
			Answer:    "System failure.",
			Safety: &vault.SafetyMetrics{
				Decision:   "ESCALATE",
				Confidence: 0,
				RiskScore:  100,
			},
		}
	}
	return res
}

func (s *Service) SuggestRequiredDocuments(ctx context.Context, caseType, description string) []string {
	docs, err := s.provider.SuggestRequiredDocuments(ctx, caseType, description)
	if err != nil || len(docs) == 0 {
		if err != nil {
			zap.S().Warnw("document suggestion degraded to fallback", "error", err)
		}
		return append([]string(nil), FallbackDocuments...)
	}
	return docs
}

func (s *Service) ResearchCase(ctx context.Context, title, description string) Research {
	res, err := s.provider.ResearchCase(ctx, title, description)
	if err != nil {
		zap.S().Warnw("case research degraded to fallback", "error", err)
		return Research{Points: []string{researchUnavailable}, Sources: []Source{}}
	}
	return res
}
