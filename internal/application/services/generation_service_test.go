package services

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/schemaforge/backend/internal/domain/prompt"
	"github.com/schemaforge/backend/internal/infrastructure/persistence"
	"github.com/schemaforge/backend/pkg/auth"
	apperrors "github.com/schemaforge/backend/pkg/errors"
)

type fakeGenerator struct {
	reply  string
	err    error
	calls  int
	prompt string
}

func (g *fakeGenerator) Generate(ctx context.Context, promptText string) (string, error) {
	g.calls++
	g.prompt = promptText
	if g.err != nil {
		return "", g.err
	}
	return g.reply, nil
}

func (g *fakeGenerator) Model() string { return "fake-model" }

func newGenerationFixture(t *testing.T, gen Generator) (*GenerationService, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	t.Cleanup(func() { db.Close() })

	usage := NewUsageService(persistence.NewUsageRepository(db))
	entitlement := NewEntitlementService(persistence.NewPlanRepository(db), usage)
	return NewGenerationService(gen, entitlement, usage), mock
}

func sourceFile() UploadedFile {
	return UploadedFile{
		Name: "legacy.csv",
		Data: []byte("table,column,type,description\norders,id,int,order id\n"),
	}
}

func targetFile() UploadedFile {
	return UploadedFile{
		Name: "target.csv",
		Data: []byte("table,column,type,description\nord,order_id,int,order identifier\n"),
	}
}

func TestGenerateSuccess(t *testing.T) {
	gen := &fakeGenerator{reply: "SELECT o.id AS order_id FROM orders o"}
	svc, mock := newGenerationFixture(t, gen)

	expectPlan(mock, "free", 10, "")
	expectUsedCount(mock, "u-1", 1)
	mock.ExpectExec("INSERT INTO sf_usage_event").
		WithArgs(sqlmock.AnyArg(), "u-1", "fake-model", sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	result, err := svc.Generate(context.Background(), auth.UserSession{ID: "u-1", PlanID: "free"}, GenerateRequest{
		Sources: []UploadedFile{sourceFile()},
		Target:  targetFile(),
		Policy:  prompt.UnmappedPolicy{Kind: prompt.PolicyNull},
	})
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if result.SQL != "SELECT o.id AS order_id FROM orders o" {
		t.Errorf("sql = %q", result.SQL)
	}
	if result.Model != "fake-model" {
		t.Errorf("model = %q", result.Model)
	}

	// The prompt labels the source with its filename and leaves the target bare
	if !strings.Contains(gen.prompt, "[legacy.csv]\norders.id int -- order id") {
		t.Errorf("source section malformed:\n%s", gen.prompt)
	}
	if !strings.Contains(gen.prompt, "<target>\nord.order_id int -- order identifier\n</target>") {
		t.Errorf("target section malformed:\n%s", gen.prompt)
	}
	if strings.Contains(gen.prompt, "[target.csv]") {
		t.Errorf("target should not carry a label:\n%s", gen.prompt)
	}
}

func TestGenerateStripsMarkdownFence(t *testing.T) {
	gen := &fakeGenerator{reply: "```sql\nSELECT 1\n```"}
	svc, mock := newGenerationFixture(t, gen)

	expectPlan(mock, "free", 10, "")
	expectUsedCount(mock, "u-1", 0)
	mock.ExpectExec("INSERT INTO sf_usage_event").WillReturnResult(sqlmock.NewResult(1, 1))

	result, err := svc.Generate(context.Background(), auth.UserSession{ID: "u-1", PlanID: "free"}, GenerateRequest{
		Sources: []UploadedFile{sourceFile()},
		Target:  targetFile(),
	})
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if result.SQL != "SELECT 1" {
		t.Errorf("fences not stripped: %q", result.SQL)
	}
}

func TestGenerateQuotaDeniedBeforeUpstreamCall(t *testing.T) {
	gen := &fakeGenerator{reply: "SELECT 1"}
	svc, mock := newGenerationFixture(t, gen)

	expectPlan(mock, "free", 10, "")
	expectUsedCount(mock, "u-1", 10)

	_, err := svc.Generate(context.Background(), auth.UserSession{ID: "u-1", PlanID: "free"}, GenerateRequest{
		Sources: []UploadedFile{sourceFile()},
		Target:  targetFile(),
	})
	if !apperrors.IsQuotaExceeded(err) {
		t.Fatalf("expected QuotaExceededError, got %v", err)
	}
	if gen.calls != 0 {
		t.Errorf("denied request consumed an upstream call")
	}
}

func TestGenerateMissingColumns(t *testing.T) {
	gen := &fakeGenerator{reply: "SELECT 1"}
	svc, _ := newGenerationFixture(t, gen)

	_, err := svc.Generate(context.Background(), auth.UserSession{ID: "u-1", PlanID: "free"}, GenerateRequest{
		Sources: []UploadedFile{{Name: "bad.csv", Data: []byte("table,column\nt,c\n")}},
		Target:  targetFile(),
	})
	if !apperrors.IsMissingColumns(err) {
		t.Fatalf("expected MissingColumnsError, got %v", err)
	}
	if !strings.Contains(err.Error(), "bad.csv") {
		t.Errorf("error does not name the offending file: %v", err)
	}
	if gen.calls != 0 {
		t.Errorf("invalid input consumed an upstream call")
	}
}

func TestGenerateNoSources(t *testing.T) {
	gen := &fakeGenerator{}
	svc, _ := newGenerationFixture(t, gen)

	_, err := svc.Generate(context.Background(), auth.UserSession{ID: "u-1", PlanID: "free"}, GenerateRequest{
		Target: targetFile(),
	})
	if !apperrors.IsValidation(err) {
		t.Errorf("expected ValidationError, got %v", err)
	}
}

func TestGenerateEmptyReply(t *testing.T) {
	gen := &fakeGenerator{reply: "```sql\n```"}
	svc, mock := newGenerationFixture(t, gen)

	expectPlan(mock, "free", 10, "")
	expectUsedCount(mock, "u-1", 0)

	_, err := svc.Generate(context.Background(), auth.UserSession{ID: "u-1", PlanID: "free"}, GenerateRequest{
		Sources: []UploadedFile{sourceFile()},
		Target:  targetFile(),
	})
	if !apperrors.IsUpstream(err) {
		t.Errorf("expected UpstreamError for empty SQL, got %v", err)
	}
}

func TestGenerateUpstreamFailurePropagates(t *testing.T) {
	gen := &fakeGenerator{err: apperrors.NewUpstreamError(500, "api_error")}
	svc, mock := newGenerationFixture(t, gen)

	expectPlan(mock, "free", 10, "")
	expectUsedCount(mock, "u-1", 0)

	_, err := svc.Generate(context.Background(), auth.UserSession{ID: "u-1", PlanID: "free"}, GenerateRequest{
		Sources: []UploadedFile{sourceFile()},
		Target:  targetFile(),
	})
	if !apperrors.IsUpstream(err) {
		t.Fatalf("expected UpstreamError, got %v", err)
	}
	if gen.calls != 1 {
		t.Errorf("expected exactly one upstream call, got %d", gen.calls)
	}
}

func TestStripMarkdownSQL(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"SELECT 1", "SELECT 1"},
		{"```sql\nSELECT 1\n```", "SELECT 1"},
		{"```\nSELECT 1\n```", "SELECT 1"},
		{"  SELECT 1  ", "SELECT 1"},
	}
	for _, tc := range cases {
		if got := stripMarkdownSQL(tc.in); got != tc.want {
			t.Errorf("stripMarkdownSQL(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestOutcomeOf(t *testing.T) {
	if got := outcomeOf(apperrors.NewTimeoutError("x")); got != "timeout" {
		t.Errorf("outcomeOf(timeout) = %q", got)
	}
	if got := outcomeOf(apperrors.NewConfigurationError("k", "m")); got != "config_error" {
		t.Errorf("outcomeOf(config) = %q", got)
	}
	if got := outcomeOf(apperrors.NewUpstreamError(500, "m")); got != "upstream_error" {
		t.Errorf("outcomeOf(upstream) = %q", got)
	}
	if got := outcomeOf(errors.New("other")); got != "error" {
		t.Errorf("outcomeOf(other) = %q", got)
	}
}
