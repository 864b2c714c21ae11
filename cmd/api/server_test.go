package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"caption-plan-go/internal/annotator"
	"caption-plan-go/internal/config"
	"caption-plan-go/internal/editor"
	"caption-plan-go/internal/pipeline"
	"caption-plan-go/internal/processor"
	"caption-plan-go/internal/project"
	"caption-plan-go/internal/types"
)

type stubMedia struct{}

func (stubMedia) Probe(context.Context, string) (types.Metadata, error) {
	return types.Metadata{Width: 720, Height: 1280, Duration: 3}, nil
}

func (stubMedia) ExtractAudio(_ context.Context, videoPath string) (string, error) {
	out := videoPath + ".wav"
	return out, os.WriteFile(out, []byte("wav"), 0o644)
}

type stubTranscriber struct{}

func (stubTranscriber) Transcribe(context.Context, string) ([]types.TranscriptEntry, error) {
	return []types.TranscriptEntry{{Text: "Hello there friends", Start: 0, End: 3}}, nil
}

type stubDecider struct{ err error }

func (d stubDecider) Decide(context.Context, annotator.Request) (string, error) {
	return `{"highlight":["friends"]}`, d.err
}

type stubCompleter struct{ reply string }

func (c stubCompleter) Complete(context.Context, string, string) (string, error) {
	return c.reply, nil
}

func newTestServer(t *testing.T, decider stubDecider, editReply string) *httptest.Server {
	t.Helper()
	root := t.TempDir()
	proc := processor.New(processor.Deps{
		Media:           stubMedia{},
		Transcriber:     stubTranscriber{},
		Pipeline:        pipeline.New(config.DefaultPipeline(), decider),
		Editor:          editor.New(stubCompleter{reply: editReply}, config.DefaultPipeline()),
		Projects:        project.NewStore(filepath.Join(root, "src", "sample.json")),
		RenderPublicDir: filepath.Join(root, "public"),
	})
	s := &server{
		proc:           proc,
		uploadDir:      filepath.Join(root, "uploads"),
		processTimeout: 5 * time.Second,
		editTimeout:    5 * time.Second,
	}
	ts := httptest.NewServer(s.routes())
	t.Cleanup(ts.Close)
	return ts
}

func uploadVideo(t *testing.T, baseURL string) *http.Response {
	t.Helper()
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	part, err := w.CreateFormFile("video", "Clip.MP4")
	if err != nil {
		t.Fatal(err)
	}
	_, _ = part.Write([]byte("fake mp4"))
	_ = w.Close()

	resp, err := http.Post(baseURL+"/api/process-video", w.FormDataContentType(), &body)
	if err != nil {
		t.Fatal(err)
	}
	return resp
}

func decode(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()
	defer resp.Body.Close()
	var out map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return out
}

func TestHealthz(t *testing.T) {
	ts := newTestServer(t, stubDecider{}, "")
	resp, err := http.Get(ts.URL + "/healthz")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
}

func TestProcessAndEditFlow(t *testing.T) {
	reply := `{"segments":[{"text":"Hello there friends","start":0,"end":3,"highlight":["friends"],"captionAnimation":"SLIDE_UP","videoAnimation":"ZOOM_IN","isTitle":true}]}`
	ts := newTestServer(t, stubDecider{}, reply)

	resp := uploadVideo(t, ts.URL)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("process status = %d: %v", resp.StatusCode, decode(t, resp))
	}
	body := decode(t, resp)
	if body["status"] != "ok" || body["segments"] != float64(1) {
		t.Fatalf("process body = %v", body)
	}

	resp, err := http.Get(ts.URL + "/api/project")
	if err != nil {
		t.Fatal(err)
	}
	var proj types.Project
	if err := json.NewDecoder(resp.Body).Decode(&proj); err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if proj.Video != "video.mp4" || len(proj.EditPlan.Segments) != 1 || !proj.EditPlan.Segments[0].IsTitle {
		t.Fatalf("project = %+v", proj)
	}

	resp, err = http.Post(ts.URL+"/api/edit-video", "application/json", strings.NewReader(`{"prompt":"slide captions up"}`))
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("edit status = %d: %v", resp.StatusCode, decode(t, resp))
	}
	body = decode(t, resp)
	data, _ := body["data"].(map[string]any)
	plan, _ := data["editPlan"].(map[string]any)
	segs, _ := plan["segments"].([]any)
	if len(segs) != 1 || segs[0].(map[string]any)["captionAnimation"] != "SLIDE_UP" {
		t.Fatalf("edit body = %v", body)
	}
}

func TestProcessWithoutFile(t *testing.T) {
	ts := newTestServer(t, stubDecider{}, "")
	resp, err := http.Post(ts.URL+"/api/process-video", "application/json", strings.NewReader(`{}`))
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if decode(t, resp)["error"] != "No video uploaded" {
		t.Fatal("unexpected error message")
	}
}

func TestProcessDecisionFailure(t *testing.T) {
	ts := newTestServer(t, stubDecider{err: errors.New("gateway down")}, "")
	resp := uploadVideo(t, ts.URL)
	if resp.StatusCode != http.StatusBadGateway {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	resp.Body.Close()
}

func TestEditErrors(t *testing.T) {
	ts := newTestServer(t, stubDecider{}, "not json")

	tests := []struct {
		name   string
		body   string
		upload bool
		want   int
	}{
		{name: "bad body", body: `{`, want: http.StatusBadRequest},
		{name: "empty prompt", body: `{"prompt":"  "}`, want: http.StatusBadRequest},
		{name: "no project", body: `{"prompt":"bigger"}`, want: http.StatusNotFound},
		{name: "unparsable reply", body: `{"prompt":"bigger"}`, upload: true, want: http.StatusBadGateway},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.upload {
				resp := uploadVideo(t, ts.URL)
				resp.Body.Close()
			}
			resp, err := http.Post(ts.URL+"/api/edit-video", "application/json", strings.NewReader(tt.body))
			if err != nil {
				t.Fatal(err)
			}
			resp.Body.Close()
			if resp.StatusCode != tt.want {
				t.Fatalf("status = %d, want %d", resp.StatusCode, tt.want)
			}
		})
	}
}

func TestProjectMissing(t *testing.T) {
	ts := newTestServer(t, stubDecider{}, "")
	resp, err := http.Get(ts.URL + "/api/project")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("status = %d", resp.StatusCode)
	}
}

func TestHistoryLimitValidation(t *testing.T) {
	ts := newTestServer(t, stubDecider{}, "")
	for limit, want := range map[string]int{"5": http.StatusOK, "zero": http.StatusBadRequest, "-1": http.StatusBadRequest} {
		resp, err := http.Get(fmt.Sprintf("%s/api/history?limit=%s", ts.URL, limit))
		if err != nil {
			t.Fatal(err)
		}
		resp.Body.Close()
		if resp.StatusCode != want {
			t.Fatalf("limit=%s status = %d, want %d", limit, resp.StatusCode, want)
		}
	}
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{project.ErrNoProject, http.StatusNotFound},
		{fmt.Errorf("wrapped: %w", project.ErrBusy), http.StatusConflict},
		{&annotator.DecisionServiceError{Index: 2, Err: errors.New("x")}, http.StatusBadGateway},
		{&editor.EditApplyError{Err: errors.New("x")}, http.StatusBadGateway},
		{context.DeadlineExceeded, http.StatusGatewayTimeout},
		{fmt.Errorf("annotate segments: %w", &annotator.DecisionServiceError{Index: 1, Err: context.DeadlineExceeded}), http.StatusGatewayTimeout},
		{&editor.EditApplyError{Err: fmt.Errorf("llm request: %w", context.DeadlineExceeded)}, http.StatusGatewayTimeout},
		{errors.New("disk full"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		if got := statusFor(tt.err); got != tt.want {
			t.Errorf("statusFor(%v) = %d, want %d", tt.err, got, tt.want)
		}
	}
}
