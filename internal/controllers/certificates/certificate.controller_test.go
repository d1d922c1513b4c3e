package certificateController

import (
	"bytes"
	"context"
	"image/color"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"certgen/config"
	"certgen/internal/database"
	"certgen/internal/metrics"
	. "certgen/internal/models"
	"certgen/internal/repositories"
	"certgen/internal/services"
	"certgen/internal/utils"

	"github.com/disintegration/imaging"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingWS struct {
	mu      sync.Mutex
	actions []string
}

func (r *recordingWS) add(action string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.actions = append(r.actions, action)
}

func (r *recordingWS) SendGenerationProgress(string, map[string]any) { r.add("progress") }
func (r *recordingWS) SendGenerationComplete(string, map[string]any) { r.add("complete") }
func (r *recordingWS) SendGenerationError(string, string)            { r.add("error") }

type fixture struct {
	controller *CertificateController
	config     config.Config
	metrics    *metrics.Metrics
	ws         *recordingWS
	template   string
	dir        string
}

func newFixture(t *testing.T, mutate func(*config.Config)) *fixture {
	t.Helper()
	dir := t.TempDir()

	cfg := config.Default()
	cfg.CertificateDir = filepath.Join(dir, "certificates")
	cfg.VerificationDir = filepath.Join(dir, "verification")
	cfg.UploadDir = filepath.Join(dir, "uploads")
	if mutate != nil {
		mutate(&cfg)
	}
	require.NoError(t, cfg.Validate())

	db, err := database.New(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	encodings, err := utils.Encodings(cfg.Encodings())
	require.NoError(t, err)

	layout, err := services.LookupLayout(cfg.Layout)
	require.NoError(t, err)
	composer := services.NewComposerService(services.ComposerOptions{
		Layout: layout,
		Sizing: services.FontSizing{Initial: cfg.NameFontSize, Floor: cfg.NameMinFontSize, MaxWidth: cfg.NameMaxWidth},
		Format: cfg.OutputFormat,
	})

	certificates, err := repositories.NewCertificate(cfg.CertificateDir, cfg.OutputFormat)
	require.NoError(t, err)
	records, err := repositories.NewVerification(db, cfg.VerificationDir, time.Minute)
	require.NoError(t, err)
	checker, err := services.NewChecker(cfg.VerificationStrategy, certificates, records)
	require.NoError(t, err)

	m := metrics.New()
	ws := &recordingWS{}

	template := filepath.Join(dir, "template.png")
	require.NoError(t, imaging.Save(imaging.New(1000, 800, color.White), template))

	return &fixture{
		controller: New(cfg, utils.NewRosterReader(encodings), composer, checker,
			certificates, records, repositories.NewGenerationRun(db), m, ws),
		config:   cfg,
		metrics:  m,
		ws:       ws,
		template: template,
		dir:      dir,
	}
}

func (f *fixture) roster(t *testing.T, data []byte) string {
	t.Helper()
	path := filepath.Join(f.dir, "roster.csv")
	require.NoError(t, os.WriteFile(path, data, 0644))
	return path
}

func (f *fixture) certificateFiles(t *testing.T) []string {
	t.Helper()
	entries, err := os.ReadDir(f.config.CertificateDir)
	require.NoError(t, err)
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names
}

func TestGenerate_SkipsMalformedRows(t *testing.T) {
	var logs bytes.Buffer
	previous := slog.Default()
	slog.SetDefault(slog.New(slog.NewTextHandler(&logs, nil)))
	t.Cleanup(func() { slog.SetDefault(previous) })

	f := newFixture(t, nil)
	ctx := context.Background()
	roster := f.roster(t, []byte("Name,Event,Date\nAlice Smith,Workshop,2024-01-01\nB,C,D,E\n"))

	result, err := f.controller.Generate(ctx, GenerateRequest{TemplatePath: f.template, RosterPath: roster})
	require.NoError(t, err)

	assert.Equal(t, 1, result.Processed)
	assert.Equal(t, 1, result.Skipped)
	assert.Equal(t, "utf-8", result.Encoding)
	require.Len(t, result.Warnings, 1)
	assert.Equal(t, 3, result.Warnings[0].RowNumber)
	assert.Equal(t, []string{"B", "C", "D", "E"}, result.Warnings[0].Raw)

	assert.Equal(t, []string{"Alice Smith_0.pdf"}, f.certificateFiles(t))
	assert.Contains(t, logs.String(), "Found 1 problematic rows")
	assert.Contains(t, logs.String(), `Row 3: [\"B\", \"C\", \"D\", \"E\"]`)

	run, err := f.controller.GetRun(ctx, result.RunID)
	require.NoError(t, err)
	assert.Equal(t, RunStatusCompleted, run.Status)
	assert.Equal(t, 1, run.Processed)
	require.Len(t, run.SkippedRows, 1)
	assert.Equal(t, 3, run.SkippedRows[0].RowNumber)

	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.CertificatesGenerated))
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.RowsSkipped))
	assert.Equal(t, "complete", f.ws.actions[len(f.ws.actions)-1])
}

func TestGenerate_Latin1Roster(t *testing.T) {
	f := newFixture(t, nil)
	roster := f.roster(t, []byte("Name,Event,Date\nJos\xe9 Garc\xeda,Conf\xe9rence,2024\n"))

	result, err := f.controller.Generate(context.Background(), GenerateRequest{TemplatePath: f.template, RosterPath: roster})
	require.NoError(t, err)

	assert.Equal(t, "iso-8859-1", result.Encoding)
	assert.Equal(t, 1, result.Processed)
	assert.Equal(t, []string{"José García_0.pdf"}, f.certificateFiles(t))
}

func TestGenerate_StructuralFailuresWriteNothing(t *testing.T) {
	tests := []struct {
		name   string
		roster []byte
		target error
	}{
		{"two column header", []byte("Name,Event\nAlice,Workshop\n"), utils.ErrSchema},
		{"four column header", []byte("Name,Event,Date,Extra\nAlice,W,2024,x\n"), utils.ErrSchema},
		{"empty file", []byte{}, utils.ErrEncodingExhausted},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, nil)
			roster := f.roster(t, tt.roster)

			result, err := f.controller.Generate(context.Background(), GenerateRequest{TemplatePath: f.template, RosterPath: roster})
			assert.Nil(t, result)
			assert.ErrorIs(t, err, tt.target)
			assert.True(t, utils.IsStructural(err))
			assert.Empty(t, f.certificateFiles(t))
			assert.Equal(t, "error", f.ws.actions[len(f.ws.actions)-1])

			runs, err := f.controller.ListRuns(context.Background())
			require.NoError(t, err)
			require.Len(t, runs, 1)
			assert.Equal(t, RunStatusFailed, runs[0].Status)
			require.NotNil(t, runs[0].ErrorMessage)
		})
	}
}

func TestGenerate_MissingTemplateIsUnexpected(t *testing.T) {
	f := newFixture(t, nil)
	roster := f.roster(t, []byte("Name,Event,Date\nAlice,W,2024\n"))

	_, err := f.controller.Generate(context.Background(), GenerateRequest{
		TemplatePath: filepath.Join(f.dir, "missing.png"),
		RosterPath:   roster,
	})

	var unexpected *utils.UnexpectedError
	require.ErrorAs(t, err, &unexpected)
	assert.Equal(t, "compose certificates", unexpected.Stage)
	assert.False(t, utils.IsStructural(err))
}

func TestGenerate_MissingFontIsUnexpected(t *testing.T) {
	f := newFixture(t, nil)
	layout, err := services.LookupLayout(config.LayoutClassic)
	require.NoError(t, err)
	f.controller.composer = services.NewComposerService(services.ComposerOptions{
		Layout:   layout,
		Sizing:   services.FontSizing{Initial: 60, Floor: 10, MaxWidth: 700},
		FontPath: filepath.Join(f.dir, "missing.ttf"),
		Format:   "pdf",
	})
	roster := f.roster(t, []byte("Name,Event,Date\nAlice,W,2024\n"))

	_, err = f.controller.Generate(context.Background(), GenerateRequest{TemplatePath: f.template, RosterPath: roster})

	var unexpected *utils.UnexpectedError
	assert.ErrorAs(t, err, &unexpected)
	assert.Empty(t, f.certificateFiles(t))
}

func TestGenerate_DeterministicOverwrite(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	roster := f.roster(t, []byte("Name,Event,Date\nAlice Smith,Workshop,2024-01-01\nBob,Workshop,2024-01-01\n"))
	req := GenerateRequest{TemplatePath: f.template, RosterPath: roster}

	_, err := f.controller.Generate(ctx, req)
	require.NoError(t, err)
	first, err := os.ReadFile(filepath.Join(f.config.CertificateDir, "Bob_1.pdf"))
	require.NoError(t, err)

	_, err = f.controller.Generate(ctx, req)
	require.NoError(t, err)
	second, err := os.ReadFile(filepath.Join(f.config.CertificateDir, "Bob_1.pdf"))
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Len(t, f.certificateFiles(t), 2)
}

func TestGenerate_CancelledContext(t *testing.T) {
	f := newFixture(t, nil)
	roster := f.roster(t, []byte("Name,Event,Date\nAlice,W,2024\n"))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := f.controller.Generate(ctx, GenerateRequest{TemplatePath: f.template, RosterPath: roster})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestFetchAndVerify_Existence(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	roster := f.roster(t, []byte("Name,Event,Date\nAlice Smith,Workshop,2024-01-01\n"))
	_, err := f.controller.Generate(ctx, GenerateRequest{TemplatePath: f.template, RosterPath: roster})
	require.NoError(t, err)

	path, err := f.controller.FetchCertificate(ctx, "Alice Smith_0")
	require.NoError(t, err)
	assert.FileExists(t, path)

	verification, err := f.controller.CheckVerification(ctx, "Alice Smith_0")
	require.NoError(t, err)
	assert.Equal(t, config.StrategyExistence, verification.Strategy)

	_, err = f.controller.FetchCertificate(ctx, "Ghost_99")
	assert.ErrorIs(t, err, repositories.ErrNotFound)
	_, err = f.controller.CheckVerification(ctx, "Ghost_99")
	assert.ErrorIs(t, err, repositories.ErrNotFound)
	_, err = f.controller.FetchCertificate(ctx, "../roster")
	assert.ErrorIs(t, err, repositories.ErrNotFound)

	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.Verifications.WithLabelValues(metrics.OutcomeVerified)))
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.Verifications.WithLabelValues(metrics.OutcomeNotFound)))
}

func TestVerify_RecordStrategy(t *testing.T) {
	f := newFixture(t, func(c *config.Config) {
		c.VerificationStrategy = config.StrategyRecord
		c.OutputFormat = "png"
	})
	ctx := context.Background()
	roster := f.roster(t, []byte("Name,Event,Date\nAlice Smith,Workshop,2024-01-01\n"))
	_, err := f.controller.Generate(ctx, GenerateRequest{TemplatePath: f.template, RosterPath: roster})
	require.NoError(t, err)

	assert.FileExists(t, filepath.Join(f.config.VerificationDir, "Alice Smith_0.txt"))

	verification, err := f.controller.CheckVerification(ctx, "Alice Smith_0")
	require.NoError(t, err)
	require.NotNil(t, verification.Record)
	assert.Equal(t, "Alice Smith", verification.Record.Name)
	assert.Equal(t, "Workshop", verification.Record.Event)
	assert.Equal(t, "2024-01-01", verification.Record.Date)
	assert.True(t, verification.IntegrityChecked)
	assert.True(t, verification.Intact)

	require.NoError(t, os.WriteFile(filepath.Join(f.config.CertificateDir, "Alice Smith_0.png"), []byte("tampered"), 0644))
	verification, err = f.controller.CheckVerification(ctx, "Alice Smith_0")
	require.NoError(t, err)
	assert.False(t, verification.Intact)
}

func TestBaseURL(t *testing.T) {
	tests := []struct {
		name       string
		configured string
		request    string
		want       string
	}{
		{"configured wins", "https://certs.example.org", "http://10.0.0.1:5000", "https://certs.example.org"},
		{"request derived", "", "http://10.0.0.1:5000", "http://10.0.0.1:5000"},
		{"local fallback", "", "", "http://localhost:5000"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := &CertificateController{Config: config.Config{VerifyBaseURL: tt.configured, ServerPort: 5000}}
			assert.Equal(t, tt.want, c.baseURL(tt.request))
		})
	}
}
