package watch

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/carden-code/wb-stickers/internal/config"
	"github.com/carden-code/wb-stickers/internal/errs"
	"github.com/carden-code/wb-stickers/internal/home"
	"github.com/carden-code/wb-stickers/internal/pipeline"
)

const testConfig = `watch:
  workers: 2
  job_timeout: 200ms
  settle_attempts: 3
  settle_delay: 10ms
`

func setup(t *testing.T, exec ExecFunc) (*home.Dir, context.CancelFunc) {
	t.Helper()
	root := t.TempDir()
	dir, err := home.New(root)
	if err != nil {
		t.Fatal(err)
	}
	if err := dir.EnsureExists(); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(dir.ConfigPath(), []byte(testConfig), 0o644); err != nil {
		t.Fatal(err)
	}
	cm, err := config.NewManager(dir.ConfigPath(), root)
	if err != nil {
		t.Fatalf("NewManager() error = %v", err)
	}

	r := New(dir, cm, Options{Exec: exec}, nil)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- r.Run(ctx) }()
	t.Cleanup(func() {
		cancel()
		select {
		case err := <-done:
			if err != nil {
				t.Errorf("Run() error = %v", err)
			}
		case <-time.After(5 * time.Second):
			t.Error("Run did not stop")
		}
	})
	return dir, cancel
}

func writeFile(t *testing.T, path, data string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}
}

func waitReport(t *testing.T, path string) Report {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if b, err := os.ReadFile(path); err == nil {
			var rep Report
			if err := yaml.Unmarshal(b, &rep); err != nil {
				t.Fatalf("invalid report: %v", err)
			}
			return rep
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("no report at %s", path)
	return Report{}
}

func fakeExec(job *Job, inputs []string, out string, cfg *config.Config) *pipeline.Result {
	if err := os.WriteFile(out, []byte("%PDF-1.7\n"), 0o644); err != nil {
		return &pipeline.Result{Variant: job.Variant, Err: err, Error: err.Error()}
	}
	return &pipeline.Result{Variant: job.Variant, Output: out, Pages: len(inputs) + 1}
}

func TestRunner(t *testing.T) {
	t.Run("processes queued and new jobs", func(t *testing.T) {
		root := t.TempDir()
		dir, _ := home.New(root)
		_ = dir.EnsureExists()
		writeFile(t, filepath.Join(dir.InboxDir(), "orders.xlsx"), "x")
		writeFile(t, filepath.Join(dir.InboxDir(), "stickers.pdf"), "x")
		writeFile(t, filepath.Join(dir.InboxDir(), "early.job.json"),
			`{"variant":"wb","manifest":"orders.xlsx","stickers":"stickers.pdf"}`)

		writeFile(t, dir.ConfigPath(), testConfig)
		cm, err := config.NewManager(dir.ConfigPath(), root)
		if err != nil {
			t.Fatal(err)
		}
		r := New(dir, cm, Options{Exec: fakeExec}, nil)
		ctx, cancel := context.WithCancel(context.Background())
		done := make(chan error, 1)
		go func() { done <- r.Run(ctx) }()
		defer func() {
			cancel()
			<-done
		}()

		rep := waitReport(t, dir.ResultPath(dir.OutboxDir(), "early"))
		if rep.Status != StatusDone || rep.Result == nil || rep.Result.Pages != 3 {
			t.Errorf("unexpected report %+v", rep)
		}
		if _, err := os.Stat(filepath.Join(dir.OutboxDir(), "early.pdf")); err != nil {
			t.Errorf("expected output in outbox: %v", err)
		}
		if _, err := os.Stat(filepath.Join(dir.OutboxDir(), "early.job.json")); err != nil {
			t.Errorf("expected descriptor moved to outbox: %v", err)
		}

		writeFile(t, filepath.Join(dir.InboxDir(), "late.job.json"),
			`{"variant":"wb","manifest":"orders.xlsx","stickers":"stickers.pdf","output":"late-sorted.pdf"}`)
		rep = waitReport(t, dir.ResultPath(dir.OutboxDir(), "late"))
		if rep.Status != StatusDone {
			t.Errorf("unexpected report %+v", rep)
		}
		if rep.Result.Output != filepath.Join(dir.OutboxDir(), "late-sorted.pdf") {
			t.Errorf("unexpected output %s", rep.Result.Output)
		}

		entries, _ := os.ReadDir(filepath.Join(root, home.WorkDirName))
		if len(entries) != 0 {
			t.Errorf("expected work dirs cleaned up, got %d", len(entries))
		}
	})

	t.Run("invalid descriptor fails", func(t *testing.T) {
		dir, _ := setup(t, fakeExec)
		writeFile(t, filepath.Join(dir.InboxDir(), "bad.job.json"), `{"variant":"avito"}`)

		rep := waitReport(t, dir.ResultPath(dir.FailedDir(), "bad"))
		if rep.Status != StatusFailed || rep.ErrorKind != errs.KindFormat {
			t.Errorf("unexpected report %+v", rep)
		}
	})

	t.Run("missing input fails after settle", func(t *testing.T) {
		dir, _ := setup(t, fakeExec)
		writeFile(t, filepath.Join(dir.InboxDir(), "lost.job.json"),
			`{"variant":"ozon","assembly":"a.pdf","ticket":"t.pdf"}`)

		rep := waitReport(t, dir.ResultPath(dir.FailedDir(), "lost"))
		if rep.ErrorKind != errs.KindResourceNotFound {
			t.Errorf("expected resource_not_found, got %+v", rep)
		}
	})

	t.Run("pipeline failure goes to failed", func(t *testing.T) {
		exec := func(job *Job, inputs []string, out string, cfg *config.Config) *pipeline.Result {
			err := &errs.ExtractionError{Reason: "no sticker matched"}
			return &pipeline.Result{Variant: job.Variant, Err: err, Error: err.Error(), ErrorKind: errs.KindExtraction}
		}
		dir, _ := setup(t, exec)
		writeFile(t, filepath.Join(dir.InboxDir(), "a.pdf"), "x")
		writeFile(t, filepath.Join(dir.InboxDir(), "t.pdf"), "x")
		writeFile(t, filepath.Join(dir.InboxDir(), "empty.job.json"),
			`{"variant":"ozon","assembly":"a.pdf","ticket":"t.pdf"}`)

		rep := waitReport(t, dir.ResultPath(dir.FailedDir(), "empty"))
		if rep.Status != StatusFailed || rep.Result == nil || rep.Result.ErrorKind != errs.KindExtraction {
			t.Errorf("unexpected report %+v", rep)
		}
	})

	t.Run("timed out job is discarded", func(t *testing.T) {
		finished := make(chan struct{})
		exec := func(job *Job, inputs []string, out string, cfg *config.Config) *pipeline.Result {
			defer close(finished)
			time.Sleep(400 * time.Millisecond)
			return fakeExec(job, inputs, out, cfg)
		}
		dir, _ := setup(t, exec)
		writeFile(t, filepath.Join(dir.InboxDir(), "a.pdf"), "x")
		writeFile(t, filepath.Join(dir.InboxDir(), "t.pdf"), "x")
		writeFile(t, filepath.Join(dir.InboxDir(), "slow.job.json"),
			`{"variant":"ozon","assembly":"a.pdf","ticket":"t.pdf"}`)

		rep := waitReport(t, dir.ResultPath(dir.FailedDir(), "slow"))
		if rep.Status != StatusFailed {
			t.Errorf("unexpected report %+v", rep)
		}

		<-finished
		time.Sleep(50 * time.Millisecond)
		if _, err := os.Stat(filepath.Join(dir.OutboxDir(), "slow.pdf")); err == nil {
			t.Error("late output should not reach the outbox")
		}
	})
}
