package storage

const schema = `
-- Cards hold both the user content and the scheduling state.
-- Timestamps are epoch milliseconds.
CREATE TABLE IF NOT EXISTS cards (
    id TEXT PRIMARY KEY,
    front TEXT NOT NULL,
    back TEXT NOT NULL,
    tag TEXT NOT NULL DEFAULT '',
    created_at INTEGER NOT NULL,
    status TEXT NOT NULL DEFAULT 'NEW', -- NEW, LEARNING, REVIEW, GRADUATED
    due_date INTEGER NOT NULL,
    interval INTEGER NOT NULL DEFAULT 0,
    ease_factor REAL NOT NULL DEFAULT 2.5,
    reps INTEGER NOT NULL DEFAULT 0
);

CREATE INDEX IF NOT EXISTS idx_cards_due_date ON cards(due_date);

-- Packs are label containers; cards reference them loosely by tag = name.
CREATE TABLE IF NOT EXISTS packs (
    id TEXT PRIMARY KEY,
    name TEXT NOT NULL UNIQUE,
    created_at INTEGER NOT NULL
);

-- Single-row study settings; defaults apply until the row exists.
CREATE TABLE IF NOT EXISTS settings (
    id INTEGER PRIMARY KEY CHECK (id = 1),
    easy_bonus REAL NOT NULL,
    hard_penalty REAL NOT NULL,
    max_interval INTEGER NOT NULL,
    daily_goal INTEGER NOT NULL,
    session_size INTEGER NOT NULL,
    fuzz INTEGER NOT NULL DEFAULT 0
);

-- Single-row progress aggregate plus its per-day history.
CREATE TABLE IF NOT EXISTS progress (
    id INTEGER PRIMARY KEY CHECK (id = 1),
    last_study_date INTEGER NOT NULL,
    current_streak INTEGER NOT NULL,
    total_reviews INTEGER NOT NULL,
    reviews_today INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS progress_days (
    date INTEGER PRIMARY KEY,
    count INTEGER NOT NULL,
    correct_count INTEGER NOT NULL,
    time_spent INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS unlocked_achievements (
    id TEXT PRIMARY KEY,
    unlocked_at INTEGER NOT NULL
);
`
