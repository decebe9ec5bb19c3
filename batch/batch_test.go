package batch

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/minios-linux/ddtr/config"
	"github.com/minios-linux/ddtr/langcode"
	"github.com/minios-linux/ddtr/propfile"
	"github.com/minios-linux/ddtr/translate"
)

type stubService struct {
	mu      sync.Mutex
	calls   int
	answers map[string]string
	fail    map[string]error
}

func (s *stubService) Translate(_ context.Context, text, _, to string) ([]string, error) {
	s.mu.Lock()
	s.calls++
	s.mu.Unlock()
	if err := s.fail[to]; err != nil {
		return nil, err
	}
	if v, ok := s.answers[to]; ok {
		return []string{v}, nil
	}
	return []string{text + "@" + to}, nil
}

// recordingAppender writes through to disk unless the suffix is listed in
// fail.
type recordingAppender struct {
	mu       sync.Mutex
	attempts []string
	fail     map[string]error
}

func (a *recordingAppender) Append(dir, base, suffix, key, value string) (string, error) {
	a.mu.Lock()
	a.attempts = append(a.attempts, suffix)
	a.mu.Unlock()
	if err := a.fail[suffix]; err != nil {
		return propfile.Path(dir, base, suffix), err
	}
	return propfile.Append(dir, base, suffix, key, value)
}

func testConfig(t *testing.T, targets ...string) *config.Config {
	t.Helper()
	zero := time.Duration(0)
	cfg := &config.Config{
		OutputDir:       t.TempDir(),
		BaseFilename:    "bundle",
		DefaultLanguage: "zh",
		TargetLanguages: targets,
	}
	return cfg.WithPacing(len(targets)+1, &zero)
}

func readValue(t *testing.T, path, key string) (string, bool) {
	t.Helper()
	f, err := propfile.ParseFile(path)
	require.NoError(t, err)
	return f.Get(key)
}

func TestRunWritesEveryBundle(t *testing.T) {
	cfg := testConfig(t, "en", "ja")
	svc := &stubService{answers: map[string]string{"en": "Hello", "jp": "こんにちは"}}

	rep, err := NewRunner(cfg, translate.NewAdapter(svc)).Run(context.Background(), "你好", "greeting")
	require.NoError(t, err)

	require.Len(t, rep.Results, 2)
	assert.Equal(t, "en", rep.Results[0].Lang.String())
	assert.Equal(t, Written, rep.Results[0].Status)
	assert.Equal(t, "ja", rep.Results[1].Lang.String())
	assert.Equal(t, Written, rep.Results[1].Status)
	assert.Equal(t, Written, rep.Default.Status)
	assert.Equal(t, "zh", rep.Default.Lang.String())
	assert.Zero(t, rep.Failed())
	assert.Equal(t, 2, svc.calls)

	v, ok := readValue(t, filepath.Join(cfg.OutputDir, "bundle_en.properties"), "greeting")
	assert.True(t, ok)
	assert.Equal(t, "Hello", v)
	v, _ = readValue(t, filepath.Join(cfg.OutputDir, "bundle_ja.properties"), "greeting")
	assert.Equal(t, "こんにちは", v)
	v, _ = readValue(t, filepath.Join(cfg.OutputDir, "bundle.properties"), "greeting")
	assert.Equal(t, "你好", v)
}

func TestRunFailedLanguageIsSkipped(t *testing.T) {
	cfg := testConfig(t, "en", "ja")
	svc := &stubService{
		answers: map[string]string{"en": "Hello"},
		fail:    map[string]error{"jp": errors.New("58000: client IP not allowed")},
	}

	rep, err := NewRunner(cfg, translate.NewAdapter(svc)).Run(context.Background(), "你好", "greeting")
	require.NoError(t, err)

	assert.Equal(t, Written, rep.Results[0].Status)
	assert.Equal(t, TranslateFailed, rep.Results[1].Status)
	assert.Empty(t, rep.Results[1].Path)
	assert.ErrorContains(t, rep.Results[1].Err, "client IP not allowed")
	assert.Equal(t, 1, rep.Failed())

	data, err := os.ReadFile(filepath.Join(cfg.OutputDir, "bundle_en.properties"))
	require.NoError(t, err)
	assert.Equal(t, "greeting=Hello\n", string(data))

	_, err = os.Stat(filepath.Join(cfg.OutputDir, "bundle_ja.properties"))
	assert.True(t, os.IsNotExist(err), "ja bundle must not be created")

	data, err = os.ReadFile(filepath.Join(cfg.OutputDir, "bundle.properties"))
	require.NoError(t, err)
	assert.Equal(t, "greeting=你好\n", string(data))
}

func TestRunAttemptsOneWritePerTargetPlusDefault(t *testing.T) {
	cfg := testConfig(t, "en", "ja", "ko", "hk")
	svc := &stubService{fail: map[string]error{"kor": errors.New("54003: Invalid Access Limit")}}
	app := &recordingAppender{fail: map[string]error{"ja": errors.New("permission denied")}}

	rep, err := NewRunner(cfg, translate.NewAdapter(svc), WithAppender(app)).Run(context.Background(), "你好", "greeting")
	require.NoError(t, err)

	// ko never reaches the writer; ja fails at the writer.
	assert.Equal(t, []string{"en", "ja", "hk", ""}, app.attempts, "default bundle is written last")

	statuses := []Status{rep.Results[0].Status, rep.Results[1].Status, rep.Results[2].Status, rep.Results[3].Status}
	assert.Equal(t, []Status{Written, WriteFailed, TranslateFailed, Written}, statuses)
	assert.Equal(t, filepath.Join(cfg.OutputDir, "bundle_ja.properties"), rep.Results[1].Path)
	assert.Equal(t, Written, rep.Default.Status)
	assert.Equal(t, 2, rep.Failed())
}

func TestRunDefaultWrittenWhenEverythingFails(t *testing.T) {
	cfg := testConfig(t, "en", "ja")
	boom := errors.New("52001: TIMEOUT")
	svc := &stubService{fail: map[string]error{"en": boom, "jp": boom}}
	app := &recordingAppender{}

	rep, err := NewRunner(cfg, translate.NewAdapter(svc), WithAppender(app)).Run(context.Background(), "你好", "greeting")
	require.NoError(t, err)
	assert.Equal(t, []string{""}, app.attempts)
	assert.Equal(t, 2, rep.Failed())
	assert.Equal(t, Written, rep.Default.Status)
}

func TestRunTwiceAppendsTwice(t *testing.T) {
	cfg := testConfig(t, "en")
	svc := &stubService{answers: map[string]string{"en": "Hello"}}
	r := NewRunner(cfg, translate.NewAdapter(svc))

	for i := 0; i < 2; i++ {
		_, err := r.Run(context.Background(), "你好", "greeting")
		require.NoError(t, err)
	}

	data, err := os.ReadFile(filepath.Join(cfg.OutputDir, "bundle_en.properties"))
	require.NoError(t, err)
	assert.Equal(t, "greeting=Hello\ngreeting=Hello\n", string(data))

	f, err := propfile.ParseFile(filepath.Join(cfg.OutputDir, "bundle.properties"))
	require.NoError(t, err)
	keys, dups := f.Stats()
	assert.Equal(t, 1, keys)
	assert.Equal(t, 1, dups)
}

func TestRunDefaultFilename(t *testing.T) {
	cfg := testConfig(t, "en")
	cfg.DefaultFilename = "messages"
	rep, err := NewRunner(cfg, translate.NewAdapter(&stubService{})).Run(context.Background(), "你好", "greeting")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(cfg.OutputDir, "messages.properties"), rep.Default.Path)
	assert.Equal(t, filepath.Join(cfg.OutputDir, "bundle_en.properties"), rep.Results[0].Path)
}

func TestRunFatalErrorsMakeNoRequests(t *testing.T) {
	cases := []struct {
		name    string
		mutate  func(*testing.T, *config.Config)
		text    string
		key     string
		wantErr error
	}{
		{
			name:    "unknown target",
			mutate:  func(_ *testing.T, c *config.Config) { c.TargetLanguages = []string{"en", "jp"} },
			text:    "你好",
			key:     "greeting",
			wantErr: langcode.ErrUnknown,
		},
		{
			name:    "unknown default",
			mutate:  func(_ *testing.T, c *config.Config) { c.DefaultLanguage = "cn" },
			text:    "你好",
			key:     "greeting",
			wantErr: langcode.ErrUnknown,
		},
		{
			name:    "missing output directory",
			mutate:  func(_ *testing.T, c *config.Config) { c.OutputDir = filepath.Join(c.OutputDir, "nope") },
			text:    "你好",
			key:     "greeting",
			wantErr: os.ErrNotExist,
		},
		{
			name:    "output path is a file",
			mutate:  func(t *testing.T, c *config.Config) { c.OutputDir = writeFile(t, c.OutputDir) },
			text:    "你好",
			key:     "greeting",
			wantErr: config.ErrNotDirectory,
		},
		{
			name:    "empty text",
			text:    "  ",
			key:     "greeting",
			wantErr: translate.ErrEmptyText,
		},
		{
			name:    "empty key",
			text:    "你好",
			wantErr: ErrEmptyKey,
		},
		{
			name:    "key with separator",
			text:    "你好",
			key:     "a=b",
			wantErr: ErrInvalidKey,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := testConfig(t, "en", "ja")
			if tc.mutate != nil {
				tc.mutate(t, cfg)
			}
			svc := &stubService{}
			app := &recordingAppender{}

			rep, err := NewRunner(cfg, translate.NewAdapter(svc), WithAppender(app)).Run(context.Background(), tc.text, tc.key)
			assert.Nil(t, rep)
			assert.ErrorIs(t, err, tc.wantErr)
			assert.Zero(t, svc.calls)
			assert.Empty(t, app.attempts)
		})
	}
}

func writeFile(t *testing.T, dir string) string {
	t.Helper()
	path := filepath.Join(dir, "file")
	require.NoError(t, os.WriteFile(path, nil, 0644))
	return path
}

func TestPlanPaths(t *testing.T) {
	cfg := testConfig(t, "en", "hk")
	p, err := NewRunner(cfg, translate.NewAdapter(&stubService{})).Plan("你好", "greeting")
	require.NoError(t, err)
	assert.Equal(t, "zh", p.From.String())
	assert.Equal(t, []string{
		filepath.Join(cfg.OutputDir, "bundle_en.properties"),
		filepath.Join(cfg.OutputDir, "bundle_hk.properties"),
	}, p.Paths)
	assert.Equal(t, filepath.Join(cfg.OutputDir, "bundle.properties"), p.DefaultPath)
}

func TestRunInterruptedKeepsFinishedWork(t *testing.T) {
	hour := time.Hour
	cfg := testConfig(t, "en", "ja").WithPacing(1, &hour)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	svc := &stubService{answers: map[string]string{"en": "Hello"}}
	r := NewRunner(cfg, translate.NewAdapter(svc), WithProgress(func(translate.Outcome) { cancel() }))

	rep, err := r.Run(ctx, "你好", "greeting")
	require.NoError(t, err)
	require.Len(t, rep.Results, 2)

	assert.Equal(t, Written, rep.Results[0].Status)
	got, ok := readValue(t, rep.Results[0].Path, "greeting")
	require.True(t, ok)
	assert.Equal(t, "Hello", got)

	assert.Equal(t, TranslateFailed, rep.Results[1].Status)
	assert.ErrorIs(t, rep.Results[1].Err, context.Canceled)

	assert.Equal(t, Written, rep.Default.Status)
	assert.Equal(t, 1, svc.calls)
}

func TestRunReportsProgress(t *testing.T) {
	cfg := testConfig(t, "en", "ja", "ko")
	var (
		mu   sync.Mutex
		seen []string
	)
	r := NewRunner(cfg, translate.NewAdapter(&stubService{}), WithProgress(func(o translate.Outcome) {
		mu.Lock()
		seen = append(seen, o.Lang.String())
		mu.Unlock()
	}))
	_, err := r.Run(context.Background(), "你好", "greeting")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"en", "ja", "ko"}, seen)
}

func TestStatusString(t *testing.T) {
	assert.Equal(t, "written", Written.String())
	assert.Equal(t, "translation failed", TranslateFailed.String())
	assert.Equal(t, "write failed", WriteFailed.String())
}
