package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/go-kratos/kratos/v2/log"
	kratoshttp "github.com/go-kratos/kratos/v2/transport/http"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iWorld-y/annual_review/app/annual_review/pkg/artifact"
	"github.com/iWorld-y/annual_review/app/annual_review/pkg/engine"
	"github.com/iWorld-y/annual_review/app/console/internal/conf"
	"github.com/iWorld-y/annual_review/app/console/internal/data"
	"github.com/iWorld-y/annual_review/app/console/internal/domain"
	"github.com/iWorld-y/annual_review/app/console/internal/service"
	"github.com/iWorld-y/annual_review/app/console/internal/usecase"
)

type echoRunner struct{}

func (echoRunner) Run(_ context.Context, opts engine.Options) (*engine.Result, error) {
	opts.Log.Infof("处理 <a&b>.txt")
	return &engine.Result{Reports: 1}, artifact.WriteJSON(filepath.Join(opts.OutDir, artifact.IndividualFile), []string{})
}

func newService(t *testing.T) (*service.ReviewService, *usecase.Layout) {
	t.Helper()
	review := &conf.Review{BaseDir: t.TempDir()}
	layout, err := usecase.NewLayout(review)
	require.NoError(t, err)
	repo := data.NewRunRepo(&data.Data{}, log.DefaultLogger)
	files := usecase.NewFileUseCase(layout, log.DefaultLogger)
	jobs := usecase.NewJobUseCase(echoRunner{}, repo, layout, review, log.DefaultLogger)
	return service.NewReviewService(files, jobs, repo, log.DefaultLogger), layout
}

func parseEvents(t *testing.T, body string) []map[string]any {
	t.Helper()
	var out []map[string]any
	for _, frame := range strings.Split(body, "\n\n") {
		if frame == "" {
			continue
		}
		require.True(t, strings.HasPrefix(frame, "data: "), frame)
		var ev map[string]any
		require.NoError(t, json.Unmarshal([]byte(strings.TrimPrefix(frame, "data: ")), &ev))
		out = append(out, ev)
	}
	return out
}

func TestStreamHandler(t *testing.T) {
	svc, layout := newService(t)
	require.NoError(t, os.WriteFile(filepath.Join(layout.UploadRoot, "a.txt"), []byte("a"), 0o644))

	req := httptest.NewRequest(http.MethodPost, "/run-stream", strings.NewReader(`{"api_key":"sk-x"}`))
	rec := httptest.NewRecorder()
	streamHandler(svc).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "no-cache", rec.Header().Get("Cache-Control"))
	assert.Equal(t, "no", rec.Header().Get("X-Accel-Buffering"))
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/event-stream")
	// 非 ASCII 与 HTML 字符原样输出
	assert.Contains(t, rec.Body.String(), "处理 <a&b>.txt")

	events := parseEvents(t, rec.Body.String())
	require.GreaterOrEqual(t, len(events), 3)
	last := events[len(events)-1]
	assert.Equal(t, "done", last["type"])
	assert.EqualValues(t, 0, last["exit_code"])
	assert.NotEmpty(t, last["individual"])
	assert.Nil(t, last["organization"])
	for _, ev := range events[:len(events)-1] {
		assert.Equal(t, "log", ev["type"])
	}
}

func TestStreamHandlerEmptyInput(t *testing.T) {
	svc, _ := newService(t)
	rec := httptest.NewRecorder()
	streamHandler(svc).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/run-stream", nil))

	events := parseEvents(t, rec.Body.String())
	require.Len(t, events, 1)
	assert.Equal(t, "done", events[0]["type"])
	assert.EqualValues(t, 1, events[0]["exit_code"])
	assert.Contains(t, events[0]["stderr"], "输入目录为空")
}

func TestStreamHandlerRejectsGet(t *testing.T) {
	svc, _ := newService(t)
	rec := httptest.NewRecorder()
	streamHandler(svc).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/run-stream", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestDownloadHandler(t *testing.T) {
	svc, layout := newService(t)
	p := filepath.Join(layout.RunRoot, "run-1", "organization_review.md")
	require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
	require.NoError(t, os.WriteFile(p, []byte("# 年终总结评审"), 0o644))
	h := downloadHandler(svc, kratoshttp.DefaultErrorEncoder)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/download?path=web_runs/run-1/organization_review.md", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "# 年终总结评审", rec.Body.String())
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "attachment")

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/download?path=../secret", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/download", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestMarshalEvent(t *testing.T) {
	data, err := marshalEvent(domain.Event{Type: domain.EventLog, Message: "a<b>\n"})
	require.NoError(t, err)
	assert.Equal(t, `{"type":"log","message":"a<b>\n"}`, string(data))
}
