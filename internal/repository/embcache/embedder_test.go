package embcache

import (
	"context"
	"errors"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"go.uber.org/zap"

	"github.com/kailas-cloud/consdex/internal/domain"
)

func TestEmbed_MissThenHit(t *testing.T) {
	inner := &fakeBatchEncoder{fakeEncoder: fakeEncoder{cost: 7}}
	ce, ms := newCacheUnderTest(t, inner, Config{})
	ctx := context.Background()

	first, err := ce.Embed(ctx, "삼성전자 목표주가 상향")
	if err != nil {
		t.Fatalf("embed: %v", err)
	}
	if first.TotalTokens != 7 {
		t.Errorf("miss should charge encoder tokens, got %d", first.TotalTokens)
	}
	if ms.plain != 1 || len(ms.ttls) != 0 {
		t.Errorf("miss should be stored without TTL: plain=%d ttls=%d", ms.plain, len(ms.ttls))
	}

	second, err := ce.Embed(ctx, "삼성전자 목표주가 상향")
	if err != nil {
		t.Fatalf("embed again: %v", err)
	}
	if len(inner.texts) != 1 {
		t.Errorf("hit must not reach the encoder, got %d calls", len(inner.texts))
	}
	if second.PromptTokens != 0 || second.TotalTokens != 0 {
		t.Errorf("hit must be free, got prompt=%d total=%d", second.PromptTokens, second.TotalTokens)
	}
	if !slices.Equal(first.Embedding, second.Embedding) {
		t.Errorf("cached vector differs: %v vs %v", first.Embedding, second.Embedding)
	}
}

func TestEmbed_CountsHitsAndMisses(t *testing.T) {
	counter := prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "embedding_cache_total_test"}, []string{"result"})
	inner := &fakeBatchEncoder{}
	ce := New(inner, newMemStore(), Config{Model: "text-embedding-3-small"}, counter, zap.NewNop())

	ctx := context.Background()
	for _, text := range []string{"금리 인하 기대", "금리 인하 기대", "반도체 업황 개선"} {
		if _, err := ce.Embed(ctx, text); err != nil {
			t.Fatalf("embed %q: %v", text, err)
		}
	}

	if got := testutil.ToFloat64(counter.WithLabelValues("miss")); got != 2 {
		t.Errorf("miss count = %v, want 2", got)
	}
	if got := testutil.ToFloat64(counter.WithLabelValues("hit")); got != 1 {
		t.Errorf("hit count = %v, want 1", got)
	}
}

func TestCacheKey_ScopedByModelAndPrefix(t *testing.T) {
	inner := &fakeBatchEncoder{}
	small, _ := newCacheUnderTest(t, inner, Config{Model: "text-embedding-3-small"})
	large, _ := newCacheUnderTest(t, inner, Config{Model: "text-embedding-3-large"})

	if small.cacheKey("동일 본문") == large.cacheKey("동일 본문") {
		t.Error("models must not share cache entries")
	}
	if small.cacheKey("본문 하나") == small.cacheKey("본문 둘") {
		t.Error("texts must not share cache entries")
	}

	key := small.cacheKey("본문")
	if !strings.HasPrefix(key, domain.KeyPrefix+"embcache:") {
		t.Errorf("key %q should live under the default namespace", key)
	}
	if got := len(key) - len(domain.KeyPrefix+"embcache:"); got != 64 {
		t.Errorf("digest length = %d, want 64 hex chars", got)
	}

	scoped, _ := newCacheUnderTest(t, inner, Config{Prefix: "staging:", Model: "text-embedding-3-small"})
	if !strings.HasPrefix(scoped.cacheKey("본문"), "staging:embcache:") {
		t.Errorf("custom prefix ignored: %q", scoped.cacheKey("본문"))
	}
}

func TestEmbed_EncoderError(t *testing.T) {
	encErr := errors.New("upstream quota exceeded")
	inner := &fakeBatchEncoder{fakeEncoder: fakeEncoder{err: encErr}}
	ce, ms := newCacheUnderTest(t, inner, Config{})

	if _, err := ce.Embed(context.Background(), "2차전지 수요 둔화"); !errors.Is(err, encErr) {
		t.Fatalf("want encoder error, got %v", err)
	}
	if len(ms.entries) != 0 {
		t.Errorf("failed embed must not be cached, found %d entries", len(ms.entries))
	}
}

func TestEmbed_TTLBoundsEntries(t *testing.T) {
	inner := &fakeBatchEncoder{}
	ce, ms := newCacheUnderTest(t, inner, Config{TTL: time.Hour})

	if _, err := ce.Embed(context.Background(), "유가 상승 수혜"); err != nil {
		t.Fatalf("embed: %v", err)
	}
	if ms.plain != 0 {
		t.Error("plain SET must not be used when a TTL is configured")
	}
	if got := ms.ttls[ce.cacheKey("유가 상승 수혜")]; got != time.Hour {
		t.Errorf("entry TTL = %v, want 1h", got)
	}
}

func TestEmbed_CorruptEntryReadsAsMiss(t *testing.T) {
	inner := &fakeBatchEncoder{fakeEncoder: fakeEncoder{cost: 3}}
	ce, ms := newCacheUnderTest(t, inner, Config{})

	key := ce.cacheKey("환율 변동성 확대")
	ms.entries[key] = []byte{0xde, 0xad, 0xbe} // not a whole number of float32s

	res, err := ce.Embed(context.Background(), "환율 변동성 확대")
	if err != nil {
		t.Fatalf("embed: %v", err)
	}
	if res.TotalTokens != 3 {
		t.Errorf("corrupt entry must re-encode, got %d tokens", res.TotalTokens)
	}
	if len(ms.entries[key])%4 != 0 {
		t.Errorf("corrupt entry not replaced, %d bytes remain", len(ms.entries[key]))
	}
}

func TestEmbed_CacheFailuresDoNotSurface(t *testing.T) {
	inner := &fakeBatchEncoder{fakeEncoder: fakeEncoder{cost: 2}}
	ce, ms := newCacheUnderTest(t, inner, Config{})
	ctx := context.Background()

	ms.getErr = errors.New("connection reset")
	if _, err := ce.Embed(ctx, "조선업 수주 호조"); err != nil {
		t.Fatalf("read failure must degrade to a miss: %v", err)
	}

	ms.getErr = nil
	ms.setErr = errors.New("readonly replica")
	res, err := ce.Embed(ctx, "철강 가격 반등")
	if err != nil {
		t.Fatalf("write failure must not fail the embed: %v", err)
	}
	if res.TotalTokens != 2 {
		t.Errorf("got %d tokens, want the encoder result", res.TotalTokens)
	}
}

func TestBatchEmbed_OneCallForAllMisses(t *testing.T) {
	inner := &fakeBatchEncoder{fakeEncoder: fakeEncoder{cost: 4}}
	ce, ms := newCacheUnderTest(t, inner, Config{})

	texts := []string{"반도체 업황 개선", "금리 인하 기대", "2차전지 수요 둔화"}
	res, err := ce.BatchEmbed(context.Background(), texts)
	if err != nil {
		t.Fatalf("batch embed: %v", err)
	}
	if len(inner.batches) != 1 || !slices.Equal(inner.batches[0], texts) {
		t.Fatalf("want one batch carrying every text, got %v", inner.batches)
	}
	for i, text := range texts {
		if !slices.Equal(res.Embeddings[i], vecFor(text)) {
			t.Errorf("embedding %d does not match %q", i, text)
		}
	}
	if res.TotalTokens != 12 {
		t.Errorf("tokens = %d, want 12", res.TotalTokens)
	}
	if len(ms.entries) != len(texts) {
		t.Errorf("cached %d entries, want %d", len(ms.entries), len(texts))
	}
}

func TestBatchEmbed_RepeatServedFromCache(t *testing.T) {
	inner := &fakeBatchEncoder{fakeEncoder: fakeEncoder{cost: 4}}
	ce, _ := newCacheUnderTest(t, inner, Config{})
	ctx := context.Background()

	texts := []string{"반도체 업황 개선", "금리 인하 기대"}
	first, err := ce.BatchEmbed(ctx, texts)
	if err != nil {
		t.Fatalf("first batch: %v", err)
	}
	second, err := ce.BatchEmbed(ctx, texts)
	if err != nil {
		t.Fatalf("second batch: %v", err)
	}

	if len(inner.batches) != 1 {
		t.Errorf("repeat batch reached the encoder: %d calls", len(inner.batches))
	}
	if second.TotalTokens != 0 {
		t.Errorf("repeat batch charged %d tokens", second.TotalTokens)
	}
	for i := range texts {
		if !slices.Equal(first.Embeddings[i], second.Embeddings[i]) {
			t.Errorf("embedding %d changed between calls", i)
		}
	}
}

func TestBatchEmbed_EncodesOnlyMisses(t *testing.T) {
	inner := &fakeBatchEncoder{fakeEncoder: fakeEncoder{cost: 5}}
	ce, _ := newCacheUnderTest(t, inner, Config{})
	ctx := context.Background()

	if _, err := ce.Embed(ctx, "금리 인하 기대"); err != nil {
		t.Fatalf("seed cache: %v", err)
	}

	texts := []string{"반도체 업황 개선", "금리 인하 기대", "2차전지 수요 둔화"}
	res, err := ce.BatchEmbed(ctx, texts)
	if err != nil {
		t.Fatalf("batch embed: %v", err)
	}

	misses := []string{"반도체 업황 개선", "2차전지 수요 둔화"}
	if len(inner.batches) != 1 || !slices.Equal(inner.batches[0], misses) {
		t.Fatalf("encoder batch = %v, want only the misses %v", inner.batches, misses)
	}
	for i, text := range texts {
		if !slices.Equal(res.Embeddings[i], vecFor(text)) {
			t.Errorf("embedding %d does not match %q", i, text)
		}
	}
	if res.TotalTokens != 10 {
		t.Errorf("tokens = %d, want misses only (10)", res.TotalTokens)
	}
}

func TestBatchEmbed_EncoderError(t *testing.T) {
	encErr := errors.New("batch rejected")
	inner := &fakeBatchEncoder{batchErr: encErr}
	ce, _ := newCacheUnderTest(t, inner, Config{})

	_, err := ce.BatchEmbed(context.Background(), []string{"조선업 수주 호조"})
	if !errors.Is(err, encErr) {
		t.Fatalf("want encoder error, got %v", err)
	}
}

func TestBatchEmbed_VectorCountMismatch(t *testing.T) {
	inner := &fakeBatchEncoder{short: true}
	ce, _ := newCacheUnderTest(t, inner, Config{})

	_, err := ce.BatchEmbed(context.Background(), []string{"본문 하나", "본문 둘"})
	if err == nil || !strings.Contains(err.Error(), "1 vectors for 2 texts") {
		t.Fatalf("want count mismatch error, got %v", err)
	}
}

func TestBatchEmbed_FallsBackToSingleCalls(t *testing.T) {
	inner := &fakeEncoder{cost: 6}
	ce, _ := newCacheUnderTest(t, inner, Config{})

	texts := []string{"반도체 업황 개선", "금리 인하 기대"}
	res, err := ce.BatchEmbed(context.Background(), texts)
	if err != nil {
		t.Fatalf("batch embed: %v", err)
	}
	if !slices.Equal(inner.texts, texts) {
		t.Errorf("fallback calls = %v, want one per text", inner.texts)
	}
	if res.TotalTokens != 12 {
		t.Errorf("tokens = %d, want 12", res.TotalTokens)
	}
}

func TestBatchEmbed_NoTexts(t *testing.T) {
	inner := &fakeBatchEncoder{}
	ce, _ := newCacheUnderTest(t, inner, Config{})

	res, err := ce.BatchEmbed(context.Background(), nil)
	if err != nil {
		t.Fatalf("batch embed: %v", err)
	}
	if res.Embeddings != nil || res.TotalTokens != 0 {
		t.Errorf("empty input must yield a zero result, got %+v", res)
	}
	if len(inner.batches) != 0 {
		t.Error("empty input must not reach the encoder")
	}
}
