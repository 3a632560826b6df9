package db

import (
	"database/sql"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/srt-flow/backend/internal/auth"
	"github.com/srt-flow/backend/internal/db/models"
)

type Database struct {
	db *sql.DB
}

func NewSQLite(path string) (*Database, error) {
	sqlDB, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, err
	}
	d := &Database{db: sqlDB}
	if err := d.migrate(); err != nil {
		return nil, err
	}
	return d, nil
}

func (d *Database) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS users (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		username TEXT UNIQUE NOT NULL,
		password TEXT NOT NULL,
		role TEXT NOT NULL DEFAULT 'viewer',
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS settings (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL,
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		file_name TEXT NOT NULL,
		status TEXT NOT NULL DEFAULT 'running',
		engine TEXT NOT NULL DEFAULT '',
		model TEXT NOT NULL DEFAULT '',
		target_lang TEXT NOT NULL DEFAULT '',
		cue_count INTEGER NOT NULL DEFAULT 0,
		translated_count INTEGER NOT NULL DEFAULT 0,
		elapsed_seconds INTEGER NOT NULL DEFAULT 0,
		error TEXT NOT NULL DEFAULT '',
		output_path TEXT NOT NULL DEFAULT '',
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		completed_at DATETIME
	);
	`
	_, err := d.db.Exec(schema)
	return err
}

func (d *Database) EnsureAdmin(username, password string) error {
	var count int
	err := d.db.QueryRow("SELECT COUNT(*) FROM users WHERE role = 'admin'").Scan(&count)
	if err != nil {
		return err
	}
	if count > 0 {
		return nil
	}
	hash, err := auth.HashPassword(password)
	if err != nil {
		return err
	}
	_, err = d.db.Exec(
		"INSERT INTO users (username, password, role) VALUES (?, ?, 'admin')",
		username, hash,
	)
	return err
}

func (d *Database) GetUserByUsername(username string) (*models.User, error) {
	u := &models.User{}
	err := d.db.QueryRow(
		"SELECT id, username, password, role, created_at, updated_at FROM users WHERE username = ?",
		username,
	).Scan(&u.ID, &u.Username, &u.Password, &u.Role, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return u, nil
}

func (d *Database) GetUserByID(id int64) (*models.User, error) {
	u := &models.User{}
	err := d.db.QueryRow(
		"SELECT id, username, password, role, created_at, updated_at FROM users WHERE id = ?",
		id,
	).Scan(&u.ID, &u.Username, &u.Password, &u.Role, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return u, nil
}

// GetSetting returns a setting value by key, or fallback if not found.
func (d *Database) GetSetting(key, fallback string) string {
	var val string
	err := d.db.QueryRow("SELECT value FROM settings WHERE key = ?", key).Scan(&val)
	if err != nil || val == "" {
		return fallback
	}
	return val
}

// SetSetting upserts a setting.
func (d *Database) SetSetting(key, value string) error {
	_, err := d.db.Exec(`
		INSERT INTO settings (key, value, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(key) DO UPDATE SET value = ?, updated_at = CURRENT_TIMESTAMP`,
		key, value, value,
	)
	return err
}

// GetAllSettings returns all settings as a map.
func (d *Database) GetAllSettings() (map[string]string, error) {
	rows, err := d.db.Query("SELECT key, value FROM settings")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := make(map[string]string)
	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			return nil, err
		}
		result[k] = v
	}
	return result, nil
}

func (d *Database) Close() error {
	return d.db.Close()
}

// DB returns the underlying sql.DB.
func (d *Database) DB() *sql.DB {
	return d.db
}

// Run is one persisted pipeline run.
type Run struct {
	ID              string     `json:"id"`
	FileName        string     `json:"file_name"`
	Status          string     `json:"status"` // running, completed, failed
	Engine          string     `json:"engine"`
	Model           string     `json:"model"`
	TargetLang      string     `json:"target_lang"`
	CueCount        int        `json:"cue_count"`
	TranslatedCount int        `json:"translated_count"`
	ElapsedSeconds  int        `json:"elapsed_seconds"`
	Error           string     `json:"error,omitempty"`
	OutputPath      string     `json:"output_path,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	CompletedAt     *time.Time `json:"completed_at,omitempty"`
}

// InsertRun records the start of a pipeline run.
func (d *Database) InsertRun(id, fileName, engine, model, targetLang string) error {
	_, err := d.db.Exec(`
		INSERT INTO runs (id, file_name, status, engine, model, target_lang, created_at)
		VALUES (?, ?, 'running', ?, ?, ?, ?)`,
		id, fileName, engine, model, targetLang, time.Now(),
	)
	return err
}

// UpdateRunProgress records live translation progress for a run.
func (d *Database) UpdateRunProgress(id string, translated, total int) error {
	_, err := d.db.Exec(
		"UPDATE runs SET translated_count = ?, cue_count = ? WHERE id = ?",
		translated, total, id,
	)
	return err
}

// CompleteRun marks a run finished.
func (d *Database) CompleteRun(id string, elapsedSeconds int, outputPath string) error {
	_, err := d.db.Exec(`
		UPDATE runs SET status = 'completed', elapsed_seconds = ?, output_path = ?, completed_at = ?
		WHERE id = ?`,
		elapsedSeconds, outputPath, time.Now(), id,
	)
	return err
}

// FailRun marks a run failed with its user-facing message.
func (d *Database) FailRun(id string, elapsedSeconds int, errMsg string) error {
	_, err := d.db.Exec(`
		UPDATE runs SET status = 'failed', elapsed_seconds = ?, error = ?, completed_at = ?
		WHERE id = ?`,
		elapsedSeconds, errMsg, time.Now(), id,
	)
	return err
}

// GetRun retrieves a run by ID.
func (d *Database) GetRun(id string) (*Run, error) {
	r := &Run{}
	var completedAt sql.NullTime
	err := d.db.QueryRow(`
		SELECT id, file_name, status, engine, model, target_lang, cue_count,
		       translated_count, elapsed_seconds, error, output_path, created_at, completed_at
		FROM runs WHERE id = ?`, id,
	).Scan(&r.ID, &r.FileName, &r.Status, &r.Engine, &r.Model, &r.TargetLang,
		&r.CueCount, &r.TranslatedCount, &r.ElapsedSeconds, &r.Error, &r.OutputPath,
		&r.CreatedAt, &completedAt)
	if err != nil {
		return nil, err
	}
	if completedAt.Valid {
		r.CompletedAt = &completedAt.Time
	}
	return r, nil
}

// ListRuns returns all runs, newest first.
func (d *Database) ListRuns() ([]*Run, error) {
	rows, err := d.db.Query(`
		SELECT id, file_name, status, engine, model, target_lang, cue_count,
		       translated_count, elapsed_seconds, error, output_path, created_at, completed_at
		FROM runs ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []*Run
	for rows.Next() {
		r := &Run{}
		var completedAt sql.NullTime
		if err := rows.Scan(&r.ID, &r.FileName, &r.Status, &r.Engine, &r.Model, &r.TargetLang,
			&r.CueCount, &r.TranslatedCount, &r.ElapsedSeconds, &r.Error, &r.OutputPath,
			&r.CreatedAt, &completedAt); err != nil {
			return nil, err
		}
		if completedAt.Valid {
			r.CompletedAt = &completedAt.Time
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// DeleteRun removes a run record.
func (d *Database) DeleteRun(id string) error {
	_, err := d.db.Exec("DELETE FROM runs WHERE id = ?", id)
	return err
}
