package orchestrator

import (
	"context"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codescribe/codescribe-go/internal/cache"
	"github.com/codescribe/codescribe-go/internal/graph"
	"github.com/codescribe/codescribe-go/internal/model"
)

// stubService scripts Analyze responses for tests.
type stubService struct {
	mu        sync.Mutex
	calls     int32
	failures  int   // fail this many calls before succeeding
	failErr   error // error returned while failing
	response  string
	blockCtx  bool // block until the context is cancelled
	perPrompt func(prompt string) string
}

func (s *stubService) Analyze(ctx context.Context, prompt string) (string, error) {
	atomic.AddInt32(&s.calls, 1)
	if s.blockCtx {
		<-ctx.Done()
		return "", ctx.Err()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failures > 0 {
		s.failures--
		return "", s.failErr
	}
	if s.perPrompt != nil {
		return s.perPrompt(prompt), nil
	}
	return s.response, nil
}

func (s *stubService) Model() string { return "stub-model" }

func (s *stubService) callCount() int { return int(atomic.LoadInt32(&s.calls)) }

func input(path, content string) Input {
	return Input{
		Path: path,
		Model: &model.FileEntity{
			Path:     path,
			Language: model.LangJava,
			Classes:  []model.ClassEntity{{Name: "C"}},
		},
		Fingerprint: model.ComputeFingerprint([]byte(content), "v1", "stub-model"),
	}
}

func fastOpts(workers int) Options {
	return Options{
		Workers:        workers,
		CallTimeout:    time.Second,
		MaxRetries:     2,
		RetryBaseDelay: time.Millisecond,
		ContextItems:   4,
	}
}

func TestRun_AnalyzesAndCaches(t *testing.T) {
	store := cache.NewStore()
	svc := &stubService{response: `{"purpose": "test subject"}`}
	o := New(graph.NewBuilder(), store, svc, fastOpts(2))

	in := input("src/A.java", "class A {}")
	results := o.Run(context.Background(), []Input{in})

	require.Len(t, results, 1)
	r := results["src/A.java"]
	require.NotNil(t, r)
	assert.True(t, r.Valid)
	assert.Equal(t, "test subject", r.Purpose)
	assert.Equal(t, model.ErrorNone, r.ErrorKind)
	assert.NotNil(t, store.Lookup(in.Fingerprint), "Successful result should be cached")
}

func TestRun_CacheHitSkipsService(t *testing.T) {
	store := cache.NewStore()
	in := input("src/A.java", "class A {}")
	require.NoError(t, store.Store(&model.AnalysisResult{
		FilePath:    in.Path,
		Valid:       true,
		Purpose:     "cached purpose",
		Fingerprint: in.Fingerprint,
		ComputedAt:  time.Now().UTC(),
	}))

	svc := &stubService{response: `{"purpose": "fresh"}`}
	o := New(graph.NewBuilder(), store, svc, fastOpts(2))
	results := o.Run(context.Background(), []Input{in})

	assert.Equal(t, "cached purpose", results["src/A.java"].Purpose)
	assert.Equal(t, 0, svc.callCount(), "Cache hit must not call the service")
}

func TestRun_RetriesTransientThenSucceeds(t *testing.T) {
	store := cache.NewStore()
	svc := &stubService{
		failures: 2,
		failErr:  &openai.APIError{HTTPStatusCode: 503},
		response: `{"purpose": "eventually"}`,
	}
	o := New(graph.NewBuilder(), store, svc, fastOpts(1))

	in := input("src/A.java", "class A {}")
	results := o.Run(context.Background(), []Input{in})

	r := results["src/A.java"]
	require.NotNil(t, r)
	assert.True(t, r.Valid)
	assert.Equal(t, "eventually", r.Purpose)
	assert.Equal(t, 3, svc.callCount(), "Two transient failures then one success")
	assert.NotNil(t, store.Lookup(in.Fingerprint))
}

func TestRun_FatalErrorFailsFast(t *testing.T) {
	store := cache.NewStore()
	svc := &stubService{
		failures: 10,
		failErr:  &openai.APIError{HTTPStatusCode: 401},
	}
	o := New(graph.NewBuilder(), store, svc, fastOpts(1))

	in := input("src/A.java", "class A {}")
	results := o.Run(context.Background(), []Input{in})

	r := results["src/A.java"]
	require.NotNil(t, r)
	assert.False(t, r.Valid)
	assert.Equal(t, model.ErrorServiceUnavailable, r.ErrorKind)
	assert.Equal(t, 1, svc.callCount(), "Fatal errors are not retried")
	assert.Nil(t, store.Lookup(in.Fingerprint), "Failed placeholders are never cached")
}

func TestRun_ExhaustedRetriesProducePlaceholder(t *testing.T) {
	store := cache.NewStore()
	svc := &stubService{
		failures: 10,
		failErr:  &openai.APIError{HTTPStatusCode: 503},
	}
	o := New(graph.NewBuilder(), store, svc, fastOpts(1))

	results := o.Run(context.Background(), []Input{input("src/A.java", "class A {}")})

	r := results["src/A.java"]
	require.NotNil(t, r)
	assert.Equal(t, model.ErrorServiceUnavailable, r.ErrorKind)
	assert.Equal(t, 3, svc.callCount(), "Initial call plus MaxRetries attempts")
}

func TestRun_CancellationMarksUnfinished(t *testing.T) {
	store := cache.NewStore()
	svc := &stubService{blockCtx: true}
	o := New(graph.NewBuilder(), store, svc, fastOpts(1))

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	inputs := []Input{
		input("src/A.java", "class A {}"),
		input("src/B.java", "class B {}"),
		input("src/C.java", "class C {}"),
	}
	results := o.Run(ctx, inputs)

	require.Len(t, results, 3, "Every input gets a result even when cancelled")
	for path, r := range results {
		assert.Equal(t, model.ErrorCancelled, r.ErrorKind, path)
		assert.Nil(t, store.Lookup(r.Fingerprint))
	}
}

func TestRun_ContextFromDependencies(t *testing.T) {
	g := graph.NewBuilder()
	store := cache.NewStore()

	util := Input{
		Path: "src/Util.java",
		Model: &model.FileEntity{
			Path:     "src/Util.java",
			Language: model.LangJava,
			Package:  "com.example",
			Classes:  []model.ClassEntity{{Name: "Util"}},
		},
	}
	util.Fingerprint = model.ComputeFingerprint([]byte("util"), "v1", "stub-model")

	main := Input{
		Path: "src/Main.java",
		Model: &model.FileEntity{
			Path:     "src/Main.java",
			Language: model.LangJava,
			Package:  "com.example",
			Imports:  []model.ImportEntity{{Path: "com.example.Util"}},
			Classes:  []model.ClassEntity{{Name: "Main"}},
		},
	}
	main.Fingerprint = model.ComputeFingerprint([]byte("main"), "v1", "stub-model")

	g.AddFile(util.Model)
	g.AddFile(main.Model)

	var mainPrompt string
	svc := &stubService{perPrompt: func(prompt string) string {
		if strings.Contains(prompt, "src/Main.java") {
			mainPrompt = prompt
		}
		return `{"purpose": "ok"}`
	}}

	o := New(g, store, svc, fastOpts(1))
	results := o.Run(context.Background(), []Input{util, main})

	require.Len(t, results, 2)
	assert.Contains(t, mainPrompt, "src/Util.java", "Dependency summary should appear in the prompt")
}

func TestRun_DuplicateContentFilesBothReported(t *testing.T) {
	store := cache.NewStore()
	svc := &stubService{response: `{"purpose": "shared purpose"}`}
	o := New(graph.NewBuilder(), store, svc, fastOpts(1))

	a := input("src/A.java", "class X {}")
	b := input("src/B.java", "class X {}")
	require.Equal(t, a.Fingerprint, b.Fingerprint, "Identical content shares a fingerprint")

	results := o.Run(context.Background(), []Input{a, b})

	require.Len(t, results, 2, "Both files must appear in the output")
	require.NotNil(t, results["src/A.java"])
	require.NotNil(t, results["src/B.java"])
	assert.Equal(t, "src/A.java", results["src/A.java"].FilePath)
	assert.Equal(t, "src/B.java", results["src/B.java"].FilePath)
	assert.Equal(t, "shared purpose", results["src/A.java"].Purpose)
	assert.Equal(t, "shared purpose", results["src/B.java"].Purpose)

	assert.Equal(t, 1, svc.callCount(), "Second file reuses the cached result")
	assert.Equal(t, 1, store.Invalidate("src/B.java"), "Both paths own the shared cache entry")
}

func TestRun_PreclassifiedFailureReported(t *testing.T) {
	store := cache.NewStore()
	svc := &stubService{response: `{"purpose": "x"}`}
	o := New(graph.NewBuilder(), store, svc, fastOpts(1))

	broken := input("src/Broken.java", "class Broken {")
	broken.ErrorKind = model.ErrorParse

	results := o.Run(context.Background(), []Input{broken, input("src/Ok.java", "class Ok {}")})

	require.Len(t, results, 2)
	r := results["src/Broken.java"]
	require.NotNil(t, r, "Unparseable files stay in the run")
	assert.False(t, r.Valid)
	assert.Equal(t, model.ErrorParse, r.ErrorKind)
	assert.Nil(t, store.Lookup(broken.Fingerprint), "Pre-failed inputs are never cached")

	assert.True(t, results["src/Ok.java"].Valid, "Other files are unaffected")
	assert.Equal(t, 1, svc.callCount(), "The failed file never reaches the service")
}

func TestRun_TwoFileCrossLanguageProject(t *testing.T) {
	g := graph.NewBuilder()
	store := cache.NewStore()

	a := Input{
		Path: "src/A.java",
		Model: &model.FileEntity{
			Path:     "src/A.java",
			Language: model.LangJava,
			Package:  "com.x",
			Imports:  []model.ImportEntity{{Path: "com.x.B"}},
			Classes:  []model.ClassEntity{{Name: "A", Language: model.LangJava}},
		},
		Fingerprint: model.ComputeFingerprint([]byte("class A {}"), "v1", "stub-model"),
	}
	b := Input{
		Path: "src/B.kt",
		Model: &model.FileEntity{
			Path:     "src/B.kt",
			Language: model.LangKotlin,
			Package:  "com.x",
			Classes:  []model.ClassEntity{{Name: "B", Language: model.LangKotlin}},
		},
		Fingerprint: model.ComputeFingerprint([]byte("class B"), "v1", "stub-model"),
	}

	g.AddFile(a.Model)
	g.AddFile(b.Model)
	require.NotEmpty(t, g.Neighbors("src/A.java"), "A should link to B")
	assert.Equal(t, []string{"src/B.kt"}, g.Context("src/A.java", 10))

	const fixed = "Both files are part of the same feature."
	svc := &stubService{response: fixed}
	o := New(g, store, svc, fastOpts(2))
	results := o.Run(context.Background(), []Input{a, b})

	require.Len(t, results, 2)
	for path, r := range results {
		assert.True(t, r.Valid, path)
		assert.Equal(t, model.ErrorNone, r.ErrorKind, path)
		assert.Equal(t, fixed, r.Purpose, path)
	}
	assert.Equal(t, results["src/A.java"].Purpose, results["src/B.kt"].Purpose)
}
