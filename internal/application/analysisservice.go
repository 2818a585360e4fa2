package application

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/ericfisherdev/pmhub/internal/domain/model"
	"github.com/ericfisherdev/pmhub/internal/domain/port/driven"
)

// ErrEmptyQuestion is returned by Analyze when the question is blank.
var ErrEmptyQuestion = errors.New("question is required")

// SourceLocal marks results produced by LocalAnalysis.
const SourceLocal = "local"

// BackendStatus describes the remote analysis backend for the health endpoint.
type BackendStatus struct {
	Configured bool
	Reachable  bool
}

// AnalysisService answers strategic questions. It prefers the remote backend
// when one is configured and falls back to LocalAnalysis on any backend error.
type AnalysisService struct {
	backend driven.AnalysisBackend // nil when no backend is configured
	logger  *slog.Logger
	now     func() time.Time
}

// NewAnalysisService creates an AnalysisService. backend may be nil.
func NewAnalysisService(backend driven.AnalysisBackend, logger *slog.Logger) *AnalysisService {
	return &AnalysisService{
		backend: backend,
		logger:  logger,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// Analyze returns an analysis for req. Backend failures are logged and never
// surface to the caller.
func (s *AnalysisService) Analyze(ctx context.Context, req model.AnalysisRequest) (*model.AnalysisResult, error) {
	req.Question = strings.TrimSpace(req.Question)
	if req.Question == "" {
		return nil, ErrEmptyQuestion
	}

	if s.backend != nil {
		result, err := s.backend.Analyze(ctx, req)
		if err == nil && result != nil && result.Valid() {
			return result, nil
		}
		if err == nil {
			s.logger.Warn("analysis backend returned incomplete result, using local analysis")
		} else {
			s.logger.Warn("analysis backend failed, using local analysis", "error", err)
		}
	}

	result := LocalAnalysis(req.Question, s.now())
	return &result, nil
}

// BackendStatus reports whether a backend is configured and answers its
// health probe.
func (s *AnalysisService) BackendStatus(ctx context.Context) BackendStatus {
	if s.backend == nil {
		return BackendStatus{}
	}
	err := s.backend.Ping(ctx)
	if err != nil {
		s.logger.Debug("analysis backend unreachable", "error", err)
	}
	return BackendStatus{Configured: true, Reachable: err == nil}
}

// LocalAnalysis picks a framework by case-insensitive keyword match on
// question: "competitor" selects Porter's Five Forces, then "resource" or
// "budget" selects RICE, and anything else gets ICE.
func LocalAnalysis(question string, now time.Time) model.AnalysisResult {
	q := strings.ToLower(question)

	switch {
	case strings.Contains(q, "competitor"):
		return model.AnalysisResult{
			Framework: model.FrameworkPorter,
			Analysis: "Competitive pressure is the dominant factor here. Rivalry among existing " +
				"players is high and buyer power grows as switching costs fall. The main substitute " +
				"threat comes from general-purpose productivity suites.",
			Recommendations: []string{
				"Map the top three competitors against each of the five forces",
				"Raise switching costs through deeper integrations and workflow lock-in",
				"Differentiate on a segment where rivals are weakest rather than on price",
				"Track competitor releases monthly and review positioning each quarter",
			},
			Confidence: 0.82,
			Timestamp:  now,
			Source:     SourceLocal,
		}
	case strings.Contains(q, "resource"), strings.Contains(q, "budget"):
		return model.AnalysisResult{
			Framework: model.FrameworkRICE,
			Analysis: "With constrained resources, score each candidate initiative by Reach, " +
				"Impact, Confidence and Effort. Initiatives with broad reach and low effort " +
				"should be funded first; high-effort bets need strong evidence before committing budget.",
			Recommendations: []string{
				"List candidate initiatives and estimate reach per quarter for each",
				"Score impact on a 0.25 to 3 scale and confidence as a percentage",
				"Estimate effort in person-months and divide to get the RICE score",
				"Fund the top-scoring items until the budget is allocated",
			},
			Confidence: 0.78,
			Timestamp:  now,
			Source:     SourceLocal,
		}
	default:
		return model.AnalysisResult{
			Framework: model.FrameworkICE,
			Analysis: "For a quick prioritization pass, rate each option by Impact, Confidence " +
				"and Ease on a 1 to 10 scale. ICE favors fast, evidence-backed wins and works " +
				"well when the team needs a decision this sprint.",
			Recommendations: []string{
				"Rate impact, confidence and ease for each option from 1 to 10",
				"Multiply the three ratings and rank options by the result",
				"Validate the top option with a small experiment before scaling",
			},
			Confidence: 0.7,
			Timestamp:  now,
			Source:     SourceLocal,
		}
	}
}
