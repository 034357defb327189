package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ppiankov/verisense/internal/cache"
	"github.com/ppiankov/verisense/internal/metrics"
	"github.com/ppiankov/verisense/internal/model"
	"github.com/ppiankov/verisense/internal/pipeline"
	"github.com/ppiankov/verisense/internal/reason"
	"github.com/ppiankov/verisense/internal/voice"
	"github.com/ppiankov/verisense/internal/worker"
)

type fakeExtractor struct {
	claims []model.Claim
	err    error
}

func (f *fakeExtractor) Extract(ctx context.Context, text string) ([]model.Claim, error) {
	if strings.TrimSpace(text) == "" {
		return []model.Claim{}, nil
	}
	return f.claims, f.err
}

type fakeVerifier struct {
	outcome pipeline.Outcome
	panics  bool
	got     string
}

func (f *fakeVerifier) Process(ctx context.Context, text string) pipeline.Outcome {
	f.got = text
	if f.panics {
		panic("upstream exploded")
	}
	return f.outcome
}

type fakeNews struct{ articles []model.Article }

func (f fakeNews) Articles(context.Context) []model.Article { return f.articles }

type fakeSocial struct{ feed model.SocialFeed }

func (f fakeSocial) Feed(context.Context) model.SocialFeed { return f.feed }

type fakeVoice struct {
	result *voice.Result
	err    error
	body   string
	name   string
}

func (f *fakeVoice) Process(ctx context.Context, upload io.Reader, filename string) (*voice.Result, error) {
	data, _ := io.ReadAll(upload)
	f.body = string(data)
	f.name = filename
	return f.result, f.err
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func TestRoot(t *testing.T) {
	s := New(Dependencies{}, Options{})
	rec := do(t, s.Handler(), http.MethodGet, "/", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, WelcomeMessage, decodeBody(t, rec)["message"])
}

func TestHealth(t *testing.T) {
	s := New(Dependencies{News: fakeNews{}}, Options{Version: "1.2.3"})
	rec := do(t, s.Handler(), http.MethodGet, "/healthz", "")
	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, "1.2.3", body["version"])
	assert.Equal(t, map[string]any{"news": true, "social": false, "voice": false}, body["features"])
}

func TestExtract(t *testing.T) {
	s := New(Dependencies{Extractor: &fakeExtractor{claims: []model.Claim{
		{Text: "Paris is in France."},
		{Text: "Obama was born in 1961."},
	}}}, Options{})

	rec := do(t, s.Handler(), http.MethodPost, "/claims/extract", `{"text":"Paris is in France. Obama was born in 1961."}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"claims":["Paris is in France.","Obama was born in 1961."]}`, rec.Body.String())

	rec = do(t, s.Handler(), http.MethodPost, "/claims/extract", `{"text":""}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"claims":[]}`, rec.Body.String())

	rec = do(t, s.Handler(), http.MethodPost, "/claims/extract", `{not json`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestExtractError(t *testing.T) {
	s := New(Dependencies{Extractor: &fakeExtractor{err: errors.New("quota exceeded")}}, Options{})
	rec := do(t, s.Handler(), http.MethodPost, "/claims/extract", `{"text":"Paris is in France."}`)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, decodeBody(t, rec)["detail"], "quota exceeded")
}

func TestVerify(t *testing.T) {
	ts := time.Date(2025, 6, 2, 10, 0, 0, 0, time.UTC)
	verifier := &fakeVerifier{outcome: pipeline.Outcome{Records: []model.VerifiedClaimRecord{{
		Claim:      "The moon is made of cheese.",
		Verdict:    model.VerdictFalse,
		Confidence: 0.9,
		Sources:    []string{"Snopes"},
		Evidence:   []string{"False - Snopes"},
		Reasoning:  "Rated false.",
		Timestamp:  ts,
	}}}}
	m := metrics.New()
	s := New(Dependencies{Verifier: verifier}, Options{Metrics: m})

	for _, path := range []string{"/verification/", "/verification/run", "/verification"} {
		t.Run(path, func(t *testing.T) {
			rec := do(t, s.Handler(), http.MethodPost, path, `{"claim":"The moon is made of cheese."}`)
			require.Equal(t, http.StatusOK, rec.Code)

			var resp verifyResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			assert.Equal(t, "success", resp.Status)
			require.Len(t, resp.Data, 1)
			assert.Equal(t, model.VerdictFalse, resp.Data[0].Verdict)
			assert.Equal(t, ts, resp.Data[0].Timestamp)
			assert.Equal(t, "The moon is made of cheese.", verifier.got)
		})
	}

}

type fixedGatherer struct{ bundle model.EvidenceBundle }

func (f fixedGatherer) Gather(ctx context.Context, claim string) model.EvidenceBundle {
	return f.bundle
}

func TestVerifyCountsEachVerdictOnce(t *testing.T) {
	m := metrics.New()
	p := pipeline.NewPipeline(
		&fakeExtractor{claims: []model.Claim{{Text: "Water boils at 100C at sea level."}}},
		fixedGatherer{bundle: model.EvidenceBundle{
			Verdict:    model.VerdictTrue,
			Confidence: 0.8,
			Sources:    []string{"Reuters"},
			Evidence:   []string{"True - Reuters"},
		}},
		reason.NewRuleReasoner(),
		pipeline.Options{Metrics: m},
	)
	s := New(Dependencies{Verifier: p}, Options{Metrics: m})

	rec := do(t, s.Handler(), http.MethodPost, "/verification/", `{"claim":"Water boils at 100C at sea level."}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp verifyResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Data, 1)
	assert.Equal(t, model.VerdictTrue, resp.Data[0].Verdict)

	rec = do(t, s.Handler(), http.MethodGet, "/metrics", "")
	assert.Contains(t, rec.Body.String(), `verisense_verdicts_total{verdict="True"} 1`)
	assert.NotContains(t, rec.Body.String(), `verisense_verdicts_total{verdict="True"} 2`)
}

func TestVerifyMissingClaim(t *testing.T) {
	s := New(Dependencies{Verifier: &fakeVerifier{}}, Options{})

	for _, body := range []string{`{}`, `{"claim":""}`, ``} {
		rec := do(t, s.Handler(), http.MethodPost, "/verification/", body)
		assert.Equal(t, http.StatusBadRequest, rec.Code, body)
		assert.Equal(t, "No claim text provided", decodeBody(t, rec)["detail"])
	}
}

func TestVerifyPanic(t *testing.T) {
	s := New(Dependencies{Verifier: &fakeVerifier{panics: true}}, Options{})
	rec := do(t, s.Handler(), http.MethodPost, "/verification/run", `{"claim":"x"}`)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "Verification failed: upstream exploded", decodeBody(t, rec)["detail"])
}

func TestReason(t *testing.T) {
	var gotEvidence []string
	r := reason.ReasonerFunc(func(ctx context.Context, claim string, evidence []string) (model.ReasoningResult, error) {
		gotEvidence = evidence
		return model.ReasoningResult{Verdict: model.VerdictTrue, Confidence: 0.9, Reasoning: []string{"Rated true."}}, nil
	})
	s := New(Dependencies{Reasoner: r}, Options{})

	rec := do(t, s.Handler(), http.MethodPost, "/reasoning/run", `{"claim":"Water is wet.","evidence":["True - Example"]}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"verdict":"True","confidence":0.9,"reasoning":["Rated true."]}`, rec.Body.String())
	assert.Equal(t, []string{"True - Example"}, gotEvidence)

	rec = do(t, s.Handler(), http.MethodPost, "/reasoning/run", `{"claim":"Water is wet."}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{}, gotEvidence)
}

func TestReasonDefaultsAndErrors(t *testing.T) {
	empty := reason.ReasonerFunc(func(ctx context.Context, claim string, evidence []string) (model.ReasoningResult, error) {
		return model.ReasoningResult{Verdict: model.VerdictNeedsReview, Confidence: 0.5}, nil
	})
	rec := do(t, New(Dependencies{Reasoner: empty}, Options{}).Handler(), http.MethodPost, "/reasoning/run", `{"claim":"c"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	var result model.ReasoningResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.Equal(t, DefaultReasoningLines, result.Reasoning)

	failing := reason.ReasonerFunc(func(ctx context.Context, claim string, evidence []string) (model.ReasoningResult, error) {
		return model.ReasoningResult{}, context.Canceled
	})
	rec = do(t, New(Dependencies{Reasoner: failing}, Options{}).Handler(), http.MethodPost, "/reasoning/run", `{"claim":"c"}`)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "context canceled", decodeBody(t, rec)["error"])
}

func TestNewsAndSocial(t *testing.T) {
	s := New(Dependencies{
		News: fakeNews{articles: []model.Article{{Title: "t", Link: "l", Source: "pib"}}},
		Social: fakeSocial{feed: model.SocialFeed{
			Reddit:  []model.RedditPost{{Title: "r", URL: "u", Score: 3}},
			Twitter: []model.Tweet{{ID: "1", Text: "x"}},
		}},
	}, Options{})

	rec := do(t, s.Handler(), http.MethodGet, "/news/", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"articles":[{"title":"t","link":"l","source":"pib"}]}`, rec.Body.String())

	rec = do(t, s.Handler(), http.MethodGet, "/social/", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"reddit":[{"title":"r","url":"u","score":3}],"twitter":[{"id":"1","text":"x"}]}`, rec.Body.String())

	empty := New(Dependencies{}, Options{})
	assert.JSONEq(t, `{"articles":[]}`, do(t, empty.Handler(), http.MethodGet, "/news", "").Body.String())
	assert.JSONEq(t, `{"reddit":[],"twitter":[]}`, do(t, empty.Handler(), http.MethodGet, "/social", "").Body.String())
}

func multipartUpload(t *testing.T, field, filename, content string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile(field, filename)
	require.NoError(t, err)
	_, err = fw.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func TestProcessAudio(t *testing.T) {
	fv := &fakeVoice{result: &voice.Result{
		Transcript: "Paris is in France.",
		Results:    []model.VerifiedClaimRecord{{Claim: "Paris is in France.", Verdict: model.VerdictTrue, Sources: []string{}, Evidence: []string{}}},
		SpeechFile: "abc.mp3",
	}}
	s := New(Dependencies{Voice: fv}, Options{})

	body, ctype := multipartUpload(t, "file", "clip.wav", "RIFF")
	req := httptest.NewRequest(http.MethodPost, "/voice/process-audio", body)
	req.Header.Set("Content-Type", ctype)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	out := decodeBody(t, rec)
	assert.Equal(t, "Paris is in France.", out["transcript"])
	assert.Equal(t, "abc.mp3", out["speech_file"])
	assert.Len(t, out["results"], 1)
	assert.Equal(t, "RIFF", fv.body)
	assert.Equal(t, "clip.wav", fv.name)
}

func TestProcessAudioErrors(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		s := New(Dependencies{Voice: &fakeVoice{}}, Options{})
		body, ctype := multipartUpload(t, "other", "clip.wav", "RIFF")
		req := httptest.NewRequest(http.MethodPost, "/voice/process-audio", body)
		req.Header.Set("Content-Type", ctype)
		rec := httptest.NewRecorder()
		s.Handler().ServeHTTP(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("too large", func(t *testing.T) {
		s := New(Dependencies{Voice: &fakeVoice{}}, Options{MaxUploadBytes: 64})
		body, ctype := multipartUpload(t, "file", "clip.wav", strings.Repeat("x", 1024))
		req := httptest.NewRequest(http.MethodPost, "/voice/process-audio", body)
		req.Header.Set("Content-Type", ctype)
		rec := httptest.NewRecorder()
		s.Handler().ServeHTTP(rec, req)
		assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	})

	t.Run("processor failure", func(t *testing.T) {
		s := New(Dependencies{Voice: &fakeVoice{err: errors.New("disk full")}}, Options{})
		body, ctype := multipartUpload(t, "file", "clip.wav", "RIFF")
		req := httptest.NewRequest(http.MethodPost, "/voice/process-audio", body)
		req.Header.Set("Content-Type", ctype)
		rec := httptest.NewRecorder()
		s.Handler().ServeHTTP(rec, req)
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.Contains(t, decodeBody(t, rec)["detail"], "disk full")
	})
}

func TestSpeech(t *testing.T) {
	store, err := cache.NewFileStore(t.TempDir(), ".mp3", time.Minute)
	require.NoError(t, err)
	defer func() { _ = store.Close() }()

	name, f, err := store.Create()
	require.NoError(t, err)
	_, err = f.Write([]byte("ID3-audio"))
	require.NoError(t, err)
	require.NoError(t, f.Close())
	store.Commit(name)

	s := New(Dependencies{Speech: store}, Options{})

	rec := do(t, s.Handler(), http.MethodGet, "/voice/speech/"+name, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "audio/mpeg", rec.Header().Get("Content-Type"))
	assert.Equal(t, "ID3-audio", rec.Body.String())

	rec = do(t, s.Handler(), http.MethodGet, "/voice/speech/unknown.mp3", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	// Present on disk but never issued by the store
	require.NoError(t, os.WriteFile(filepath.Join(store.Dir(), "planted.mp3"), []byte("x"), 0o644))
	rec = do(t, s.Handler(), http.MethodGet, "/voice/speech/planted.mp3", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCORS(t *testing.T) {
	s := New(Dependencies{}, Options{CORSOrigins: []string{"http://localhost:8080"}})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Origin", "http://localhost:8080")
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	assert.Equal(t, "http://localhost:8080", rec.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Origin", "http://evil.example")
	rec = httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestRateLimit(t *testing.T) {
	s := New(Dependencies{}, Options{Limiter: worker.NewLimiter(0.001, 2)})

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		codes = append(codes, do(t, s.Handler(), http.MethodGet, "/", "").Code)
	}
	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)
}

func TestMetricsEndpoint(t *testing.T) {
	m := metrics.New()
	s := New(Dependencies{}, Options{Metrics: m})

	do(t, s.Handler(), http.MethodGet, "/", "")
	rec := do(t, s.Handler(), http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `verisense_http_requests_total{code="200",method="GET",route="/"} 1`)
}

func TestListenAndServeShutdown(t *testing.T) {
	s := New(Dependencies{}, Options{})
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- s.ListenAndServe(ctx, "127.0.0.1:0", time.Second, time.Second) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("server did not shut down")
	}
}
