package cli

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"
)

func newTestSpinner(ctx context.Context, message string) (*Spinner, *bytes.Buffer) {
	var buf bytes.Buffer
	s := newSpinnerWithContext(ctx, message)
	s.out = &buf
	return s, &buf
}

func TestSpinnerProgress(t *testing.T) {
	s, buf := newTestSpinner(context.Background(), "Searching for \"media\" (0/3 sources)")
	s.Start()

	report := s.Progress(`Searching for "media"`)
	report(1, 3)
	report(3, 3)
	if got, want := s.Message(), `Searching for "media" (3/3 sources)`; got != want {
		t.Errorf("Message() = %q, want %q", got, want)
	}

	time.Sleep(100 * time.Millisecond)
	s.Stop()
	if !strings.Contains(buf.String(), "3/3 sources") {
		t.Errorf("output %q does not show progress", buf.String())
	}
	if s.Cancelled() {
		t.Error("Stop should not count as cancellation")
	}
}

func TestSpinnerClearsLongestMessage(t *testing.T) {
	s, buf := newTestSpinner(context.Background(), "short")
	s.Start()
	s.SetMessage("a considerably longer message")
	s.SetMessage("x")
	s.Stop()

	want := "\r" + strings.Repeat(" ", len("a considerably longer message")+4) + "\r"
	if !strings.HasSuffix(buf.String(), want) {
		t.Errorf("final clear = %q, want suffix %q", buf.String(), want)
	}
}

func TestSpinnerWithContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	s, _ := newTestSpinner(ctx, "Loading synocommunity...")
	s.Start()
	cancel()
	time.Sleep(100 * time.Millisecond)

	if !s.Cancelled() {
		t.Error("spinner should report cancellation of its parent context")
	}
	s.Stop()
}

func TestSpinnerStopIsIdempotent(t *testing.T) {
	s, _ := newTestSpinner(context.Background(), "Loading...")
	s.Start()
	s.Stop()
	s.Stop()
}

func TestSpinnerStopWithResult(t *testing.T) {
	ok, _ := newTestSpinner(context.Background(), "Loading...")
	ok.Start()
	ok.StopWithSuccess("Found 3 packages")

	failed, _ := newTestSpinner(context.Background(), "Loading...")
	failed.Start()
	failed.StopWithError("Search failed")
}
