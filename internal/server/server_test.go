package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
	"google.golang.org/protobuf/types/known/structpb"

	"mediaup/internal/upload/api"
	"mediaup/pkg/config"
	perrors "mediaup/pkg/errors"
)

type call struct {
	postID     string
	credential string
	items      string
}

type fakeUploader struct {
	calls []call
	err   error
}

func (f *fakeUploader) UploadBatch(_ context.Context, postID, credential string, itemsJSON []byte) (*api.Report, error) {
	f.calls = append(f.calls, call{postID, credential, string(itemsJSON)})
	if f.err != nil {
		return nil, f.err
	}
	return &api.Report{
		BatchID:   "b-1",
		PostID:    postID,
		Message:   "Upload completed for postId: " + postID,
		Succeeded: 1,
		Items:     []api.ItemReport{{Index: 0, Filename: "img1", Status: "succeeded", URL: "https://x/img1"}},
	}, nil
}

func dialBufconn(t *testing.T, uploader Uploader) *grpc.ClientConn {
	t.Helper()
	cfg := config.DefaultConfig
	lis := bufconn.Listen(1024 * 1024)
	srv := NewGRPCServer(&cfg, uploader)
	go func() { _ = srv.Serve(lis) }()
	t.Cleanup(srv.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) { return lis.DialContext(ctx) }),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func TestUploadFiles_OverGRPC(t *testing.T) {
	uploader := &fakeUploader{}
	conn := dialBufconn(t, uploader)

	req, err := structpb.NewStruct(map[string]any{
		"postId":     "p1",
		"credential": "sv=1&sig=x",
		"items":      []any{map[string]any{"filename": "img1"}},
	})
	require.NoError(t, err)

	resp := &structpb.Struct{}
	require.NoError(t, conn.Invoke(context.Background(), UploadFilesFullMethod, req, resp))

	require.Len(t, uploader.calls, 1)
	assert.Equal(t, "p1", uploader.calls[0].postID)
	assert.Equal(t, "sv=1&sig=x", uploader.calls[0].credential)
	assert.JSONEq(t, `[{"filename":"img1"}]`, uploader.calls[0].items)

	report, err := StructToReport(resp)
	require.NoError(t, err)
	assert.Equal(t, "Upload completed for postId: p1", report.Message)
	assert.Equal(t, 1, report.Succeeded)
	require.Len(t, report.Items, 1)
	assert.Equal(t, "https://x/img1", report.Items[0].URL)
}

func TestUploadFiles_InvalidBatchIsInvalidArgument(t *testing.T) {
	uploader := &fakeUploader{err: fmt.Errorf("%w: %w", perrors.ErrInvalidBatch, perrors.ErrMissingPostID)}
	conn := dialBufconn(t, uploader)

	req, err := structpb.NewStruct(map[string]any{"credential": "tok", "items": []any{}})
	require.NoError(t, err)

	err = conn.Invoke(context.Background(), UploadFilesFullMethod, req, &structpb.Struct{})
	require.Error(t, err)
	assert.Equal(t, codes.InvalidArgument, status.Code(err))
}

func TestUploadFiles_UnexpectedErrorIsInternal(t *testing.T) {
	svc := NewUploadService(&fakeUploader{err: fmt.Errorf("boom")}, nil)

	_, err := svc.UploadFiles(context.Background(), &structpb.Struct{})
	require.Error(t, err)
	assert.Equal(t, codes.Internal, status.Code(err))
}

func TestItemsJSON(t *testing.T) {
	got, err := ItemsJSON(structpb.NewStringValue(`[{"a":1}]`))
	require.NoError(t, err)
	assert.Equal(t, `[{"a":1}]`, string(got))

	list, err := structpb.NewValue([]any{"x"})
	require.NoError(t, err)
	got, err = ItemsJSON(list)
	require.NoError(t, err)
	assert.JSONEq(t, `["x"]`, string(got))

	got, err = ItemsJSON(nil)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestRouter_Upload(t *testing.T) {
	uploader := &fakeUploader{}
	router := NewRouter(uploader, nil, 0)

	body := `{"postId":"p1","credential":"tok","items":[{"filename":"img1"}]}`
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/v1/uploads", bytes.NewBufferString(body)))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var report api.Report
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &report))
	assert.Equal(t, "p1", report.PostID)
	require.Len(t, uploader.calls, 1)
	assert.JSONEq(t, `[{"filename":"img1"}]`, uploader.calls[0].items)
}

func TestRouter_UploadAcceptsItemsAsString(t *testing.T) {
	uploader := &fakeUploader{}
	router := NewRouter(uploader, nil, 0)

	body := `{"postId":"p1","credential":"tok","items":"[]"}`
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/v1/uploads", bytes.NewBufferString(body)))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "[]", uploader.calls[0].items)
}

func TestRouter_UploadErrors(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		err      error
		wantCode int
		wantKind string
	}{
		{"malformed body", `{`, nil, http.StatusBadRequest, "bad_request"},
		{"invalid batch", `{"postId":"","items":[]}`, fmt.Errorf("%w: %w", perrors.ErrInvalidBatch, perrors.ErrMissingPostID), http.StatusBadRequest, "invalid_batch"},
		{"unexpected", `{"postId":"p","credential":"c","items":[]}`, fmt.Errorf("boom"), http.StatusInternalServerError, "internal"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := NewRouter(&fakeUploader{err: tt.err}, nil, 0)
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/v1/uploads", bytes.NewBufferString(tt.body)))

			assert.Equal(t, tt.wantCode, rec.Code)
			var resp errorResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			assert.Equal(t, tt.wantKind, resp.Error)
		})
	}
}

func TestRouter_UploadBodyLimit(t *testing.T) {
	uploader := &fakeUploader{}
	router := NewRouter(uploader, nil, 64)

	body := `{"postId":"p1","credential":"tok","items":[{"binarydata":"` + strings.Repeat("A", 128) + `"}]}`
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/v1/uploads", bytes.NewBufferString(body)))

	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	var resp errorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "too_large", resp.Error)
	assert.Empty(t, uploader.calls)

	small := `{"postId":"p1","credential":"tok","items":[]}`
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/v1/uploads", bytes.NewBufferString(small)))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRouter_HealthAndMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	counter := prometheus.NewCounter(prometheus.CounterOpts{Name: "mediaup_test_total", Help: "test"})
	reg.MustRegister(counter)
	counter.Inc()

	router := NewRouter(&fakeUploader{}, promhttp.HandlerFor(reg, promhttp.HandlerOpts{}), 0)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "mediaup_test_total 1")
}

func TestStartHTTPServer_DisabledWithoutAddress(t *testing.T) {
	cfg := config.DefaultConfig
	cfg.Server.HTTPAddress = ""

	srv, err := StartHTTPServer(&cfg, http.NotFoundHandler())
	require.NoError(t, err)
	assert.Nil(t, srv)
}
