// internal/store/sqlite.go
//
// SQLite implementation of the Store interface.
// Schema lives in ./sql migrations (game_images, characters,
// game_sessions, high_scores). Timestamps are stored as RFC3339 strings.

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// SQLite wraps a *sql.DB opened with the sqlite3 driver.
type SQLite struct {
	db *sql.DB
}

// NewSQLite constructs a SQLite-backed Store.
func NewSQLite(db *sql.DB) *SQLite { return &SQLite{db: db} }

func (s *SQLite) DefaultScene(ctx context.Context) (Scene, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, name, image_url, width, height FROM game_images ORDER BY id LIMIT 1`)
	return s.scanScene(ctx, row)
}

func (s *SQLite) SceneByID(ctx context.Context, id int) (Scene, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, name, image_url, width, height FROM game_images WHERE id=?`, id)
	return s.scanScene(ctx, row)
}

func (s *SQLite) scanScene(ctx context.Context, row *sql.Row) (Scene, error) {
	var sc Scene
	if err := row.Scan(&sc.ID, &sc.Name, &sc.ImageURL, &sc.Width, &sc.Height); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Scene{}, ErrNotFound
		}
		return Scene{}, fmt.Errorf("scan scene: %w", err)
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, x_min, y_min, x_max, y_max FROM characters WHERE game_image_id=? ORDER BY id`, sc.ID)
	if err != nil {
		return Scene{}, fmt.Errorf("query characters: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var c Character
		if err := rows.Scan(&c.ID, &c.Name, &c.XMin, &c.YMin, &c.XMax, &c.YMax); err != nil {
			return Scene{}, fmt.Errorf("scan character: %w", err)
		}
		sc.Characters = append(sc.Characters, c)
	}
	return sc, rows.Err()
}

func (s *SQLite) Character(ctx context.Context, sceneID, characterID int) (Character, error) {
	var c Character
	err := s.db.QueryRowContext(ctx,
		`SELECT id, name, x_min, y_min, x_max, y_max FROM characters WHERE id=? AND game_image_id=?`,
		characterID, sceneID).Scan(&c.ID, &c.Name, &c.XMin, &c.YMin, &c.XMax, &c.YMax)
	if errors.Is(err, sql.ErrNoRows) {
		return Character{}, ErrNotFound
	}
	if err != nil {
		return Character{}, fmt.Errorf("scan character: %w", err)
	}
	return c, nil
}

func (s *SQLite) CreateSession(ctx context.Context, gs GameSession) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO game_sessions (id, game_image_id, start_time, completed) VALUES (?,?,?,0)`,
		gs.ID, gs.SceneID, gs.StartedAt.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("insert session: %w", err)
	}
	return nil
}

func (s *SQLite) Session(ctx context.Context, id string) (GameSession, error) {
	var gs GameSession
	var start string
	var end sql.NullString
	var completed int
	err := s.db.QueryRowContext(ctx,
		`SELECT id, game_image_id, start_time, end_time, completed FROM game_sessions WHERE id=?`, id).
		Scan(&gs.ID, &gs.SceneID, &start, &end, &completed)
	if errors.Is(err, sql.ErrNoRows) {
		return GameSession{}, ErrNotFound
	}
	if err != nil {
		return GameSession{}, fmt.Errorf("scan session: %w", err)
	}
	gs.StartedAt = parseTime(start)
	if end.Valid {
		t := parseTime(end.String)
		gs.EndedAt = &t
	}
	gs.Completed = completed == 1
	return gs, nil
}

func (s *SQLite) EndSession(ctx context.Context, id string, at time.Time) (float64, error) {
	gs, err := s.Session(ctx, id)
	if err != nil {
		return 0, err
	}
	if gs.EndedAt != nil {
		return 0, ErrSessionEnded
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE game_sessions SET end_time=?, completed=1 WHERE id=? AND end_time IS NULL`,
		at.UTC().Format(time.RFC3339Nano), id)
	if err != nil {
		return 0, fmt.Errorf("end session: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		// Lost a race with another end call.
		return 0, ErrSessionEnded
	}
	return at.Sub(gs.StartedAt).Seconds(), nil
}

func (s *SQLite) InsertHighScore(ctx context.Context, hs HighScore) (HighScore, error) {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO high_scores (game_image_id, player_name, time_seconds, created_at) VALUES (?,?,?,?)`,
		hs.SceneID, hs.PlayerName, hs.TimeSeconds, hs.CreatedAt.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return HighScore{}, fmt.Errorf("insert high score: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return HighScore{}, fmt.Errorf("high score id: %w", err)
	}
	hs.ID = int(id)
	return hs, nil
}

func (s *SQLite) HighScores(ctx context.Context, sceneID, limit int) ([]HighScore, error) {
	if limit <= 0 {
		limit = 20
	}
	q := `SELECT id, game_image_id, player_name, time_seconds, created_at
	      FROM high_scores`
	args := []any{}
	if sceneID != 0 {
		q += ` WHERE game_image_id=?`
		args = append(args, sceneID)
	}
	q += ` ORDER BY time_seconds ASC, created_at ASC LIMIT ?`
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("query high scores: %w", err)
	}
	defer rows.Close()

	out := make([]HighScore, 0, limit)
	for rows.Next() {
		var hs HighScore
		var created string
		if err := rows.Scan(&hs.ID, &hs.SceneID, &hs.PlayerName, &hs.TimeSeconds, &created); err != nil {
			return nil, fmt.Errorf("scan high score: %w", err)
		}
		hs.CreatedAt = parseTime(created)
		out = append(out, hs)
	}
	return out, rows.Err()
}

func (s *SQLite) SeedScene(ctx context.Context, sc Scene, replace bool) (Scene, error) {
	var existingID int
	err := s.db.QueryRowContext(ctx, `SELECT id FROM game_images WHERE name=?`, sc.Name).Scan(&existingID)
	switch {
	case err == nil && !replace:
		return s.SceneByID(ctx, existingID)
	case err != nil && !errors.Is(err, sql.ErrNoRows):
		return Scene{}, fmt.Errorf("lookup scene: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return Scene{}, err
	}
	defer func() { _ = tx.Rollback() }()

	if existingID != 0 {
		for _, stmt := range []string{
			`DELETE FROM high_scores WHERE game_image_id=?`,
			`DELETE FROM game_sessions WHERE game_image_id=?`,
			`DELETE FROM characters WHERE game_image_id=?`,
			`DELETE FROM game_images WHERE id=?`,
		} {
			if _, err := tx.ExecContext(ctx, stmt, existingID); err != nil {
				return Scene{}, fmt.Errorf("replace scene: %w", err)
			}
		}
	}

	res, err := tx.ExecContext(ctx,
		`INSERT INTO game_images (name, image_url, width, height) VALUES (?,?,?,?)`,
		sc.Name, sc.ImageURL, sc.Width, sc.Height)
	if err != nil {
		return Scene{}, fmt.Errorf("insert scene: %w", err)
	}
	sceneID, err := res.LastInsertId()
	if err != nil {
		return Scene{}, fmt.Errorf("scene id: %w", err)
	}
	for i := range sc.Characters {
		c := &sc.Characters[i]
		r, err := tx.ExecContext(ctx,
			`INSERT INTO characters (game_image_id, name, x_min, y_min, x_max, y_max) VALUES (?,?,?,?,?,?)`,
			sceneID, c.Name, c.XMin, c.YMin, c.XMax, c.YMax)
		if err != nil {
			return Scene{}, fmt.Errorf("insert character %q: %w", c.Name, err)
		}
		id, err := r.LastInsertId()
		if err != nil {
			return Scene{}, fmt.Errorf("character id: %w", err)
		}
		c.ID = int(id)
	}
	if err := tx.Commit(); err != nil {
		return Scene{}, fmt.Errorf("commit seed: %w", err)
	}
	sc.ID = int(sceneID)
	return sc, nil
}

// parseTime parses RFC3339 timestamps; on error returns zero time.
func parseTime(s string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		t, _ = time.Parse(time.RFC3339, s)
	}
	return t
}
