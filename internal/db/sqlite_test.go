package db

import (
	"path/filepath"
	"testing"

	"github.com/srt-flow/backend/internal/auth"
)

func newTestDB(t *testing.T) *Database {
	t.Helper()
	database, err := NewSQLite(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("NewSQLite: %v", err)
	}
	t.Cleanup(func() { database.Close() })
	return database
}

func TestEnsureAdmin(t *testing.T) {
	database := newTestDB(t)

	if err := database.EnsureAdmin("admin", "secret"); err != nil {
		t.Fatalf("EnsureAdmin: %v", err)
	}

	user, err := database.GetUserByUsername("admin")
	if err != nil {
		t.Fatalf("GetUserByUsername: %v", err)
	}
	if user.Role != "admin" {
		t.Errorf("role = %q, want admin", user.Role)
	}
	if !auth.CheckPassword("secret", user.Password) {
		t.Error("stored password hash does not verify")
	}

	// A second call must not create another admin.
	if err := database.EnsureAdmin("other", "pw"); err != nil {
		t.Fatalf("second EnsureAdmin: %v", err)
	}
	if _, err := database.GetUserByUsername("other"); err == nil {
		t.Error("second admin should not have been created")
	}
}

func TestSettingsRoundTrip(t *testing.T) {
	database := newTestDB(t)

	if got := database.GetSetting("engine", "gemini"); got != "gemini" {
		t.Errorf("missing key should return fallback, got %q", got)
	}

	if err := database.SetSetting("engine", "deepl"); err != nil {
		t.Fatalf("SetSetting: %v", err)
	}
	if got := database.GetSetting("engine", "gemini"); got != "deepl" {
		t.Errorf("got %q, want deepl", got)
	}

	// Upsert overwrites.
	if err := database.SetSetting("engine", "openai"); err != nil {
		t.Fatalf("SetSetting upsert: %v", err)
	}
	if got := database.GetSetting("engine", "gemini"); got != "openai" {
		t.Errorf("got %q, want openai", got)
	}

	// Empty stored value falls back.
	if err := database.SetSetting("engine", ""); err != nil {
		t.Fatalf("SetSetting clear: %v", err)
	}
	if got := database.GetSetting("engine", "gemini"); got != "gemini" {
		t.Errorf("cleared key should return fallback, got %q", got)
	}

	all, err := database.GetAllSettings()
	if err != nil {
		t.Fatalf("GetAllSettings: %v", err)
	}
	if _, ok := all["engine"]; !ok {
		t.Error("GetAllSettings missing engine key")
	}
}

func TestRunLifecycle(t *testing.T) {
	database := newTestDB(t)

	if err := database.InsertRun("run-1", "movie.srt", "gemini", "gemini-2.0-flash", "pt"); err != nil {
		t.Fatalf("InsertRun: %v", err)
	}

	run, err := database.GetRun("run-1")
	if err != nil {
		t.Fatalf("GetRun: %v", err)
	}
	if run.Status != "running" || run.FileName != "movie.srt" || run.Engine != "gemini" {
		t.Errorf("unexpected run: %+v", run)
	}
	if run.CompletedAt != nil {
		t.Error("running run should have nil CompletedAt")
	}

	if err := database.UpdateRunProgress("run-1", 40, 120); err != nil {
		t.Fatalf("UpdateRunProgress: %v", err)
	}
	run, _ = database.GetRun("run-1")
	if run.TranslatedCount != 40 || run.CueCount != 120 {
		t.Errorf("progress not recorded: %+v", run)
	}

	if err := database.CompleteRun("run-1", 95, "/data/output/run-1_movie.srt"); err != nil {
		t.Fatalf("CompleteRun: %v", err)
	}
	run, _ = database.GetRun("run-1")
	if run.Status != "completed" || run.ElapsedSeconds != 95 || run.OutputPath == "" {
		t.Errorf("completion not recorded: %+v", run)
	}
	if run.CompletedAt == nil {
		t.Error("completed run should have CompletedAt set")
	}

	if err := database.DeleteRun("run-1"); err != nil {
		t.Fatalf("DeleteRun: %v", err)
	}
	if _, err := database.GetRun("run-1"); err == nil {
		t.Error("deleted run should not be found")
	}
}

func TestFailRun(t *testing.T) {
	database := newTestDB(t)

	if err := database.InsertRun("run-2", "show.srt", "deepl", "", "de"); err != nil {
		t.Fatalf("InsertRun: %v", err)
	}
	if err := database.FailRun("run-2", 12, "quota exhausted"); err != nil {
		t.Fatalf("FailRun: %v", err)
	}

	run, err := database.GetRun("run-2")
	if err != nil {
		t.Fatalf("GetRun: %v", err)
	}
	if run.Status != "failed" || run.Error != "quota exhausted" {
		t.Errorf("failure not recorded: %+v", run)
	}
}

func TestListRunsNewestFirst(t *testing.T) {
	database := newTestDB(t)

	// created_at has second precision; force distinct timestamps.
	if _, err := database.db.Exec(
		`INSERT INTO runs (id, file_name, created_at) VALUES
		 ('old', 'a.srt', '2026-01-01 10:00:00'),
		 ('new', 'b.srt', '2026-01-02 10:00:00')`); err != nil {
		t.Fatalf("seed runs: %v", err)
	}

	runs, err := database.ListRuns()
	if err != nil {
		t.Fatalf("ListRuns: %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("got %d runs, want 2", len(runs))
	}
	if runs[0].ID != "new" || runs[1].ID != "old" {
		t.Errorf("runs not newest first: %s, %s", runs[0].ID, runs[1].ID)
	}
}
