package service

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/opsmind-ai/kb-gateway/types"
)

// AnalyzeService is the pipeline facade: classify intent once, retrieve from
// the relevant knowledge bases, synthesize a grounded answer. Each call is
// stateless and independent.
type AnalyzeService struct {
	classifier  IntentClassifier
	retriever   *Retriever
	synthesizer *Synthesizer
	ocr         OCRService // nil when no OCR collaborator is configured
	logger      *zap.Logger
}

func NewAnalyzeService(classifier IntentClassifier, retriever *Retriever, synthesizer *Synthesizer, ocr OCRService, logger *zap.Logger) *AnalyzeService {
	return &AnalyzeService{
		classifier:  classifier,
		retriever:   retriever,
		synthesizer: synthesizer,
		ocr:         ocr,
		logger:      logger,
	}
}

// Analyze runs one request through the pipeline. At least one of query text,
// screenshot text or a screenshot image must be present.
//
// A response with confidence 0 and the no-match answer means the knowledge
// bases hold nothing relevant; that is a valid outcome. Backend
// unavailability is an error instead, so the two are never conflated.
func (s *AnalyzeService) Analyze(ctx context.Context, req *types.AnalyzeRequest) (*types.AnalyzeResponse, error) {
	queryText := strings.TrimSpace(req.QueryText)
	screenshotText := strings.TrimSpace(req.ScreenshotText)

	debug := types.AnalyzeDebug{TenantID: req.TenantID}

	if screenshotText == "" && len(req.Screenshot) > 0 && s.ocr != nil {
		result, err := s.ocr.ExtractErrorLogs(ctx, req.Screenshot)
		if err != nil {
			if queryText == "" {
				return nil, fmt.Errorf("screenshot analysis failed and no query text given: %w", err)
			}
			// With typed text to work from, a failed OCR call degrades
			// instead of failing the request.
			s.logger.Warn("ocr extraction failed, continuing with query text only", zap.Error(err))
			debug.Degraded = append(debug.Degraded, "ocr")
		} else {
			screenshotText = strings.TrimSpace(result.FullText)
			debug.ScreenshotUsed = true
			debug.OCRSummary = result.ErrorSummary
		}
	}

	if queryText == "" && screenshotText == "" {
		return nil, fmt.Errorf("%w: query_text or screenshot text is required", types.ErrInvalidArgument)
	}

	combined := queryText
	if screenshotText != "" {
		if combined != "" {
			combined += "\n\n"
		}
		combined += screenshotText
	}

	intent := s.classifier.Classify(combined)
	debug.Intent = intent.Label
	debug.IntentConfidence = intent.Confidence

	retrieval, err := s.retriever.Retrieve(ctx, combined, req.TenantID, intent)
	if err != nil {
		return nil, err
	}
	debug.NumCommonKB = retrieval.NumCommon
	debug.NumTenantKB = retrieval.NumTenant
	debug.Degraded = append(debug.Degraded, retrieval.Degraded...)

	synthesis := s.synthesizer.Synthesize(combined, retrieval.Results, intent)

	s.logger.Info("analyze request served",
		zap.String("intent", intent.Label),
		zap.Int("num_common", retrieval.NumCommon),
		zap.Int("num_tenant", retrieval.NumTenant),
		zap.Float64("confidence", synthesis.Confidence))

	return &types.AnalyzeResponse{
		Answer:        synthesis.Answer,
		Citations:     synthesis.Citations,
		Confidence:    synthesis.Confidence,
		KBSuggestions: synthesis.KBSuggestions,
		Debug:         debug,
	}, nil
}
