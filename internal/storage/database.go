package storage

import (
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite" // Registers the sqlite driver

	"github.com/ogunacik/kartbox/internal/domain"
)

// DB wraps the SQL database connection holding the four collections:
// cards, packs, settings and progress.
type DB struct {
	conn *sql.DB
}

// Open creates a new database connection and ensures the schema is up to date.
func Open(dsn string) (*DB, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}

	return &DB{conn: db}, nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

const cardColumns = "id, front, back, tag, created_at, status, due_date, interval, ease_factor, reps"

func scanCard(row interface{ Scan(...any) error }) (domain.Card, error) {
	var c domain.Card
	var createdAt, dueDate int64
	var status string
	err := row.Scan(&c.ID, &c.Front, &c.Back, &c.Tag, &createdAt, &status, &dueDate, &c.Interval, &c.EaseFactor, &c.Reps)
	if err != nil {
		return domain.Card{}, err
	}
	c.CreatedAt = time.UnixMilli(createdAt)
	c.DueDate = time.UnixMilli(dueDate)
	c.Status = domain.Status(status)
	return c, nil
}

// InsertCard stores a new card.
func (db *DB) InsertCard(card domain.Card) error {
	_, err := db.conn.Exec(`
		INSERT INTO cards (`+cardColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		card.ID,
		card.Front,
		card.Back,
		card.Tag,
		card.CreatedAt.UnixMilli(),
		string(card.Status),
		card.DueDate.UnixMilli(),
		card.Interval,
		card.EaseFactor,
		card.Reps,
	)
	if err != nil {
		return fmt.Errorf("failed to insert card %s: %w", card.ID, err)
	}
	return nil
}

// GetCards returns the whole card collection, newest first.
func (db *DB) GetCards() ([]domain.Card, error) {
	rows, err := db.conn.Query(`
		SELECT ` + cardColumns + ` FROM cards ORDER BY created_at DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to get cards: %w", err)
	}
	defer rows.Close()

	var cards []domain.Card
	for rows.Next() {
		c, err := scanCard(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan card row: %w", err)
		}
		cards = append(cards, c)
	}
	return cards, rows.Err()
}

// GetDueCards returns cards due at or before the given time, oldest due first.
func (db *DB) GetDueCards(now time.Time) ([]domain.Card, error) {
	rows, err := db.conn.Query(`
		SELECT `+cardColumns+` FROM cards
		WHERE due_date <= ?
		ORDER BY due_date ASC
	`, now.UnixMilli())
	if err != nil {
		return nil, fmt.Errorf("failed to get due cards: %w", err)
	}
	defer rows.Close()

	var cards []domain.Card
	for rows.Next() {
		c, err := scanCard(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan due card row: %w", err)
		}
		cards = append(cards, c)
	}
	return cards, rows.Err()
}

// FindCard retrieves one card by id. It returns domain.ErrNotFound when the
// id does not exist.
func (db *DB) FindCard(id string) (domain.Card, error) {
	row := db.conn.QueryRow(`
		SELECT `+cardColumns+` FROM cards WHERE id = ?
	`, id)

	c, err := scanCard(row)
	if err == sql.ErrNoRows {
		return domain.Card{}, fmt.Errorf("card %s: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return domain.Card{}, fmt.Errorf("failed to find card %s: %w", id, err)
	}
	return c, nil
}

// UpdateCard replaces the stored card with the same id. It returns
// domain.ErrNotFound when the card no longer exists.
func (db *DB) UpdateCard(card domain.Card) error {
	res, err := db.conn.Exec(`
		UPDATE cards
		SET front = ?, back = ?, tag = ?, status = ?, due_date = ?, interval = ?, ease_factor = ?, reps = ?
		WHERE id = ?
	`,
		card.Front,
		card.Back,
		card.Tag,
		string(card.Status),
		card.DueDate.UnixMilli(),
		card.Interval,
		card.EaseFactor,
		card.Reps,
		card.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update card %s: %w", card.ID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to update card %s: %w", card.ID, err)
	}
	if n == 0 {
		return fmt.Errorf("card %s: %w", card.ID, domain.ErrNotFound)
	}
	return nil
}

// DeleteCard removes a card by id. Deleting an absent id is not an error.
func (db *DB) DeleteCard(id string) error {
	if _, err := db.conn.Exec(`DELETE FROM cards WHERE id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete card %s: %w", id, err)
	}
	return nil
}

// Tags returns the distinct card tags.
func (db *DB) Tags() ([]string, error) {
	rows, err := db.conn.Query(`SELECT DISTINCT tag FROM cards ORDER BY tag`)
	if err != nil {
		return nil, fmt.Errorf("failed to get tags: %w", err)
	}
	defer rows.Close()

	var tags []string
	for rows.Next() {
		var t string
		if err := rows.Scan(&t); err != nil {
			return nil, fmt.Errorf("failed to scan tag row: %w", err)
		}
		tags = append(tags, t)
	}
	return tags, rows.Err()
}

// DeckStats summarizes the card collection. The streak field is filled in
// by the caller from the progress aggregate.
func (db *DB) DeckStats(now time.Time) (domain.DeckStats, error) {
	var s domain.DeckStats
	var inProgress int
	err := db.conn.QueryRow(`
		SELECT
			COUNT(*),
			COALESCE(SUM(due_date <= ?), 0),
			COALESCE(SUM(status = 'NEW'), 0),
			COALESCE(SUM(status = 'GRADUATED'), 0),
			COALESCE(SUM(status IN ('LEARNING', 'REVIEW')), 0)
		FROM cards
	`, now.UnixMilli()).Scan(&s.Total, &s.Due, &s.New, &s.Mastered, &inProgress)
	if err != nil {
		return domain.DeckStats{}, fmt.Errorf("failed to compute deck stats: %w", err)
	}
	s.XP = s.Mastered*50 + inProgress*10
	return s, nil
}

// InsertPack stores a new pack.
func (db *DB) InsertPack(pack domain.Pack) error {
	_, err := db.conn.Exec(`
		INSERT INTO packs (id, name, created_at) VALUES (?, ?, ?)
	`, pack.ID, pack.Name, pack.CreatedAt.UnixMilli())
	if err != nil {
		return fmt.Errorf("failed to insert pack %s: %w", pack.Name, err)
	}
	return nil
}

// GetPacks returns all packs, oldest first.
func (db *DB) GetPacks() ([]domain.Pack, error) {
	rows, err := db.conn.Query(`SELECT id, name, created_at FROM packs ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("failed to get packs: %w", err)
	}
	defer rows.Close()

	var packs []domain.Pack
	for rows.Next() {
		var p domain.Pack
		var createdAt int64
		if err := rows.Scan(&p.ID, &p.Name, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan pack row: %w", err)
		}
		p.CreatedAt = time.UnixMilli(createdAt)
		packs = append(packs, p)
	}
	return packs, rows.Err()
}

// CountPacks returns the number of packs.
func (db *DB) CountPacks() (int, error) {
	var n int
	if err := db.conn.QueryRow(`SELECT COUNT(*) FROM packs`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count packs: %w", err)
	}
	return n, nil
}

// DeletePack removes a pack by id.
func (db *DB) DeletePack(id string) error {
	if _, err := db.conn.Exec(`DELETE FROM packs WHERE id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete pack %s: %w", id, err)
	}
	return nil
}

// GetSettings returns the stored settings, or the defaults when none have
// been saved yet.
func (db *DB) GetSettings() (domain.Settings, error) {
	s := domain.DefaultSettings()
	var fuzz int
	err := db.conn.QueryRow(`
		SELECT easy_bonus, hard_penalty, max_interval, daily_goal, session_size, fuzz
		FROM settings WHERE id = 1
	`).Scan(&s.EasyBonus, &s.HardPenalty, &s.MaxInterval, &s.DailyGoal, &s.SessionSize, &fuzz)
	if err == sql.ErrNoRows {
		return s, nil
	}
	if err != nil {
		return domain.Settings{}, fmt.Errorf("failed to get settings: %w", err)
	}
	s.Fuzz = fuzz != 0
	return s, nil
}

// SeedSettings writes the given settings only when none have been saved
// yet, so config-file defaults never clobber user-edited values.
func (db *DB) SeedSettings(s domain.Settings) error {
	fuzz := 0
	if s.Fuzz {
		fuzz = 1
	}
	_, err := db.conn.Exec(`
		INSERT OR IGNORE INTO settings (id, easy_bonus, hard_penalty, max_interval, daily_goal, session_size, fuzz)
		VALUES (1, ?, ?, ?, ?, ?, ?)
	`, s.EasyBonus, s.HardPenalty, s.MaxInterval, s.DailyGoal, s.SessionSize, fuzz)
	if err != nil {
		return fmt.Errorf("failed to seed settings: %w", err)
	}
	return nil
}

// SaveSettings replaces the stored settings.
func (db *DB) SaveSettings(s domain.Settings) error {
	fuzz := 0
	if s.Fuzz {
		fuzz = 1
	}
	_, err := db.conn.Exec(`
		INSERT INTO settings (id, easy_bonus, hard_penalty, max_interval, daily_goal, session_size, fuzz)
		VALUES (1, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			easy_bonus = excluded.easy_bonus,
			hard_penalty = excluded.hard_penalty,
			max_interval = excluded.max_interval,
			daily_goal = excluded.daily_goal,
			session_size = excluded.session_size,
			fuzz = excluded.fuzz
	`, s.EasyBonus, s.HardPenalty, s.MaxInterval, s.DailyGoal, s.SessionSize, fuzz)
	if err != nil {
		return fmt.Errorf("failed to save settings: %w", err)
	}
	return nil
}

// GetProgress loads the progress aggregate, its history and the unlocked
// achievement set. A fresh database yields a zero aggregate.
func (db *DB) GetProgress() (domain.Progress, error) {
	var p domain.Progress
	var lastStudy int64
	err := db.conn.QueryRow(`
		SELECT last_study_date, current_streak, total_reviews, reviews_today
		FROM progress WHERE id = 1
	`).Scan(&lastStudy, &p.CurrentStreak, &p.TotalReviews, &p.ReviewsToday)
	if err == sql.ErrNoRows {
		return domain.Progress{}, nil
	}
	if err != nil {
		return domain.Progress{}, fmt.Errorf("failed to get progress: %w", err)
	}
	p.LastStudyDate = time.UnixMilli(lastStudy)

	rows, err := db.conn.Query(`
		SELECT date, count, correct_count, time_spent FROM progress_days ORDER BY date
	`)
	if err != nil {
		return domain.Progress{}, fmt.Errorf("failed to get progress history: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var d domain.DayStat
		var date int64
		if err := rows.Scan(&date, &d.Count, &d.CorrectCount, &d.TimeSpent); err != nil {
			return domain.Progress{}, fmt.Errorf("failed to scan history row: %w", err)
		}
		d.Date = time.UnixMilli(date)
		p.History = append(p.History, d)
	}
	if err := rows.Err(); err != nil {
		return domain.Progress{}, fmt.Errorf("failed to read progress history: %w", err)
	}

	achRows, err := db.conn.Query(`SELECT id FROM unlocked_achievements ORDER BY unlocked_at`)
	if err != nil {
		return domain.Progress{}, fmt.Errorf("failed to get achievements: %w", err)
	}
	defer achRows.Close()
	for achRows.Next() {
		var id string
		if err := achRows.Scan(&id); err != nil {
			return domain.Progress{}, fmt.Errorf("failed to scan achievement row: %w", err)
		}
		p.UnlockedAchievements = append(p.UnlockedAchievements, id)
	}
	return p, achRows.Err()
}

// SaveProgress atomically replaces the progress aggregate, its history
// window and the unlocked achievement set.
func (db *DB) SaveProgress(p domain.Progress) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin progress save: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(`
		INSERT INTO progress (id, last_study_date, current_streak, total_reviews, reviews_today)
		VALUES (1, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			last_study_date = excluded.last_study_date,
			current_streak = excluded.current_streak,
			total_reviews = excluded.total_reviews,
			reviews_today = excluded.reviews_today
	`, p.LastStudyDate.UnixMilli(), p.CurrentStreak, p.TotalReviews, p.ReviewsToday)
	if err != nil {
		return fmt.Errorf("failed to save progress: %w", err)
	}

	if _, err := tx.Exec(`DELETE FROM progress_days`); err != nil {
		return fmt.Errorf("failed to clear progress history: %w", err)
	}
	for _, d := range p.History {
		_, err := tx.Exec(`
			INSERT INTO progress_days (date, count, correct_count, time_spent)
			VALUES (?, ?, ?, ?)
		`, d.Date.UnixMilli(), d.Count, d.CorrectCount, d.TimeSpent)
		if err != nil {
			return fmt.Errorf("failed to save history day: %w", err)
		}
	}

	for _, id := range p.UnlockedAchievements {
		_, err := tx.Exec(`
			INSERT OR IGNORE INTO unlocked_achievements (id, unlocked_at) VALUES (?, ?)
		`, id, p.LastStudyDate.UnixMilli())
		if err != nil {
			return fmt.Errorf("failed to save achievement %s: %w", id, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit progress save: %w", err)
	}
	return nil
}
