package attachment

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Avashneupane9857/ChatGpt-Clone/internal/conversation"
	"github.com/Avashneupane9857/ChatGpt-Clone/internal/observability"
)

func newTestIngestor(cache Cache, timeout time.Duration) *Ingestor {
	return NewIngestor(slog.New(slog.NewTextHandler(io.Discard, nil)), cache, observability.NewMetrics("test"), timeout, 0)
}

func b64(s string) string {
	return base64.StdEncoding.EncodeToString([]byte(s))
}

func TestIngest_TextFile(t *testing.T) {
	t.Parallel()

	ing := newTestIngestor(nil, time.Second)
	att := &conversation.Attachment{Name: "notes.txt", Type: "text/plain", Content: "data:text/plain;base64," + b64("Alpha beta. Gamma delta. Epsilon.")}

	got := ing.Ingest(context.Background(), att)
	assert.Contains(t, got, "[File: notes.txt]\nType: Text File\nWord Count: 5\n")
	assert.Contains(t, got, "\nSummary: Alpha beta. Gamma delta.\n")
	assert.True(t, strings.HasSuffix(got, "Content:\nAlpha beta. Gamma delta. Epsilon."))

	memo, ok := att.Extracted()
	require.True(t, ok)
	assert.Equal(t, got, memo)
}

func TestIngest_PlainTextPayloadAcceptedAsIs(t *testing.T) {
	t.Parallel()

	ing := newTestIngestor(nil, time.Second)
	att := &conversation.Attachment{Name: "raw.txt", Type: "text/plain", Content: "not base64 at all!"}
	got := ing.Ingest(context.Background(), att)
	assert.True(t, strings.HasSuffix(got, "Content:\nnot base64 at all!"))
}

func TestIngest_WordDocument(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, err := zw.Create("word/document.xml")
	require.NoError(t, err)
	_, err = w.Write([]byte(`<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body>` +
		`<w:p><w:r><w:t>Hello</w:t></w:r><w:r><w:t xml:space="preserve"> world</w:t></w:r></w:p>` +
		`<w:p><w:r><w:t>Second paragraph</w:t></w:r></w:p></w:body></w:document>`))
	require.NoError(t, err)
	require.NoError(t, zw.Close())

	ing := newTestIngestor(nil, time.Second)
	att := &conversation.Attachment{
		Name:    "report.docx",
		Type:    "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
		Content: base64.StdEncoding.EncodeToString(buf.Bytes()),
	}
	got, err := ing.Extract(context.Background(), att)
	require.NoError(t, err)
	assert.Contains(t, got, "Type: Word Document\n")
	assert.True(t, strings.HasSuffix(got, "Content:\nHello world\nSecond paragraph"))
}

func TestIngest_SkipsImagesAndPersistedDocuments(t *testing.T) {
	t.Parallel()

	ing := newTestIngestor(nil, time.Second)
	img := &conversation.Attachment{Name: "pic.png", Type: "image/png", Content: b64("png")}
	assert.Equal(t, "", ing.Ingest(context.Background(), img))

	stored := &conversation.Attachment{Name: "a.pdf", Type: "application/pdf", RemoteURL: "https://cdn.test/a.pdf"}
	assert.Equal(t, "", ing.Ingest(context.Background(), stored))
}

func TestIngest_FailuresBecomeInlineErrors(t *testing.T) {
	t.Parallel()

	ing := newTestIngestor(nil, time.Second)
	att := &conversation.Attachment{Name: "archive.zip", Type: "application/zip", Content: b64("zip")}
	got := ing.Ingest(context.Background(), att)
	assert.True(t, strings.HasPrefix(got, "[Error processing file archive.zip: unsupported attachment type"))

	_, err := ing.Extract(context.Background(), &conversation.Attachment{Name: "x.txt", Type: "text/plain"})
	assert.ErrorIs(t, err, ErrInvalidAttachment)
}

func TestIngest_CacheHitSkipsExtraction(t *testing.T) {
	t.Parallel()

	ing := newTestIngestor(NewMemoryCache(time.Minute), time.Second)
	var calls atomic.Int32
	ing.extractors[KindText] = func(_ string, data []byte) (string, error) {
		calls.Add(1)
		return string(data), nil
	}

	payload := b64("same bytes. every time. again.")
	first := &conversation.Attachment{Name: "one.txt", Type: "text/plain", Content: payload}
	second := &conversation.Attachment{Name: "one.txt", Type: "text/plain", Content: payload}

	a := ing.Ingest(context.Background(), first)
	b := ing.Ingest(context.Background(), second)
	assert.Equal(t, a, b)
	assert.Equal(t, int32(1), calls.Load())

	again := ing.Ingest(context.Background(), first)
	assert.Equal(t, a, again)
	assert.Equal(t, int32(1), calls.Load())
}

func TestIngest_TimeoutDegradesOnlyThatAttachment(t *testing.T) {
	t.Parallel()

	ing := newTestIngestor(nil, 50*time.Millisecond)
	release := make(chan struct{})
	t.Cleanup(func() { close(release) })
	ing.extractors[KindPDF] = func(string, []byte) (string, error) {
		<-release
		return "", errors.New("unreachable")
	}

	slow := &conversation.Attachment{Name: "big.pdf", Type: "application/pdf", Content: b64("%PDF-1.4")}
	fine := &conversation.Attachment{Name: "ok.txt", Type: "text/plain", Content: b64("fine content")}

	slowText := ing.Ingest(context.Background(), slow)
	fineText := ing.Ingest(context.Background(), fine)

	assert.True(t, strings.HasPrefix(slowText, "[Error processing file big.pdf: extraction timed out"))
	assert.Contains(t, fineText, "Content:\nfine content")
}

func TestRunWithTimeout_RecoversExtractorPanic(t *testing.T) {
	t.Parallel()

	ing := newTestIngestor(nil, time.Second)
	ing.extractors[KindPDF] = func(string, []byte) (string, error) {
		panic("malformed xref")
	}
	_, err := ing.runWithTimeout(context.Background(), KindPDF, "bad.pdf", []byte("x"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "malformed xref")
}

func TestRunWithTimeout_ParentCancellationIsNotATimeout(t *testing.T) {
	t.Parallel()

	ing := newTestIngestor(nil, time.Minute)
	release := make(chan struct{})
	t.Cleanup(func() { close(release) })
	ing.extractors[KindPDF] = func(string, []byte) (string, error) {
		<-release
		return "", errors.New("unreachable")
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := ing.runWithTimeout(ctx, KindPDF, "big.pdf", []byte("x"))
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.NotErrorIs(t, err, ErrExtractionTimeout)
}

func TestIngest_SharedCacheReturnsStoredBlockPerName(t *testing.T) {
	t.Parallel()

	shared := NewMemoryCache(time.Minute)
	var calls atomic.Int32
	count := func(_ string, data []byte) (string, error) {
		calls.Add(1)
		return string(data), nil
	}
	first := newTestIngestor(shared, time.Second)
	first.extractors[KindText] = count
	second := newTestIngestor(shared, time.Second)
	second.extractors[KindText] = count

	payload := b64("quarterly numbers")
	a := first.Ingest(context.Background(), &conversation.Attachment{Name: "q1.txt", Type: "text/plain", Content: payload})
	b := second.Ingest(context.Background(), &conversation.Attachment{Name: "q1.txt", Type: "text/plain", Content: payload})
	assert.Equal(t, a, b)
	assert.Equal(t, int32(1), calls.Load())

	renamed := second.Ingest(context.Background(), &conversation.Attachment{Name: "q2.txt", Type: "text/plain", Content: payload})
	assert.True(t, strings.HasPrefix(renamed, "[File: q2.txt]\n"))
	assert.Equal(t, int32(2), calls.Load())
}
