package services

import (
	"context"
	"log"
	"strings"
	"time"

	"github.com/schemaforge/backend/internal/domain/prompt"
	"github.com/schemaforge/backend/internal/domain/tabular"
	"github.com/schemaforge/backend/internal/observability"
	"github.com/schemaforge/backend/pkg/auth"
	apperrors "github.com/schemaforge/backend/pkg/errors"
)

// Generator is the upstream text-generation endpoint
type Generator interface {
	Generate(ctx context.Context, promptText string) (string, error)
	Model() string
}

// UploadedFile is one uploaded tabular file, held in memory for the duration
// of a single request
type UploadedFile struct {
	Name string
	Data []byte
}

// GenerateRequest carries one generation invocation's inputs
type GenerateRequest struct {
	Sources  []UploadedFile
	Target   UploadedFile
	JoinKeys *UploadedFile
	Policy   prompt.UnmappedPolicy
}

// GenerateResult is the outcome of one generation
type GenerateResult struct {
	SQL    string `json:"sql"`
	Model  string `json:"model"`
	Prompt string `json:"-"`
}

// GenerationService runs the parse -> compose -> generate chain. One
// invocation maps to exactly one outbound call; any failure is terminal for
// the request and nothing is retried.
type GenerationService struct {
	generator   Generator
	entitlement *EntitlementService
	usage       *UsageService
}

// NewGenerationService creates a new GenerationService
func NewGenerationService(generator Generator, entitlement *EntitlementService, usage *UsageService) *GenerationService {
	return &GenerationService{
		generator:   generator,
		entitlement: entitlement,
		usage:       usage,
	}
}

// Generate parses the uploaded schemas, composes the prompt, and calls the
// upstream endpoint. The caller's entitlement is checked before the outbound
// call so denied requests never consume upstream budget.
func (s *GenerationService) Generate(ctx context.Context, user auth.UserSession, req GenerateRequest) (*GenerateResult, error) {
	if len(req.Sources) == 0 {
		return nil, apperrors.NewValidationError("sources", "at least one source schema file is required")
	}
	if len(req.Target.Data) == 0 {
		return nil, apperrors.NewValidationError("target", "a target schema file is required")
	}

	sources := make([]tabular.SchemaDocument, 0, len(req.Sources))
	for _, f := range req.Sources {
		table, err := tabular.Decode(f.Name, f.Data)
		if err != nil {
			return nil, err
		}
		doc, err := tabular.ParseSchema(table, f.Name)
		if err != nil {
			return nil, err
		}
		sources = append(sources, *doc)
	}

	targetTable, err := tabular.Decode(req.Target.Name, req.Target.Data)
	if err != nil {
		return nil, err
	}
	target, err := tabular.ParseSchema(targetTable, req.Target.Name)
	if err != nil {
		return nil, err
	}
	// The target renders without a label
	target.Label = ""

	var joinKeys []tabular.JoinKeyRecord
	if req.JoinKeys != nil && len(req.JoinKeys.Data) > 0 {
		jkTable, err := tabular.Decode(req.JoinKeys.Name, req.JoinKeys.Data)
		if err != nil {
			return nil, err
		}
		joinKeys, err = tabular.ParseJoinKeys(jkTable)
		if err != nil {
			return nil, err
		}
	}

	if err := s.entitlement.Check(ctx, user); err != nil {
		return nil, err
	}

	promptText := prompt.Compose(sources, *target, joinKeys, req.Policy)

	start := time.Now()
	raw, err := s.generator.Generate(ctx, promptText)
	elapsed := time.Since(start)
	if err != nil {
		observability.ObserveGeneration(outcomeOf(err), elapsed, len(promptText))
		return nil, err
	}

	sql := stripMarkdownSQL(raw)
	if strings.TrimSpace(sql) == "" {
		observability.ObserveGeneration("empty", elapsed, len(promptText))
		return nil, apperrors.NewUpstreamError(0, "model returned empty SQL")
	}

	for _, warning := range LintSQL(sql) {
		log.Printf("⚠️ Generated SQL lint: %s", warning)
	}

	observability.ObserveGeneration("ok", elapsed, len(promptText))

	// Metering is best effort; a ledger hiccup must not discard a completed
	// generation the user already paid upstream tokens for
	if err := s.usage.RecordGeneration(ctx, user.ID, s.generator.Model(), len(promptText), len(sql), elapsed); err != nil {
		log.Printf("⚠️ Failed to record usage for %s: %v", user.ID, err)
	}

	return &GenerateResult{
		SQL:    sql,
		Model:  s.generator.Model(),
		Prompt: promptText,
	}, nil
}

func outcomeOf(err error) string {
	switch {
	case apperrors.IsTimeout(err):
		return "timeout"
	case apperrors.IsConfiguration(err):
		return "config_error"
	case apperrors.IsUpstream(err):
		return "upstream_error"
	default:
		return "error"
	}
}

// stripMarkdownSQL unwraps a reply the model insisted on fencing
func stripMarkdownSQL(value string) string {
	trimmed := strings.TrimSpace(value)
	if strings.HasPrefix(trimmed, "```") {
		trimmed = strings.TrimPrefix(trimmed, "```sql")
		trimmed = strings.TrimPrefix(trimmed, "```")
		trimmed = strings.TrimSuffix(trimmed, "```")
		return strings.TrimSpace(trimmed)
	}
	return trimmed
}
