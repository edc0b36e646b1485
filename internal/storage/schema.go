// ABOUTME: SQLite schema definition and initialization.
// ABOUTME: Tables for raw signals, derived state, and the audit log.
package storage

// initSchema creates or updates the database schema. Uniqueness keys on
// derived tables back the upsert semantics of the repository.
func (d *DB) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS users (
		user_id TEXT PRIMARY KEY,
		name TEXT NOT NULL DEFAULT '',
		timezone TEXT NOT NULL DEFAULT 'UTC',
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS device_sources (
		user_id TEXT NOT NULL,
		device_name TEXT NOT NULL,
		device_type TEXT NOT NULL,
		source_label TEXT NOT NULL,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		PRIMARY KEY (user_id, device_name, source_label),
		FOREIGN KEY (user_id) REFERENCES users(user_id) ON DELETE CASCADE
	);

	CREATE TABLE IF NOT EXISTS observations (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		obs_type TEXT NOT NULL,
		source TEXT NOT NULL DEFAULT '',
		recorded_at DATETIME NOT NULL,
		value REAL NOT NULL,
		unit TEXT NOT NULL,
		metadata TEXT,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		FOREIGN KEY (user_id) REFERENCES users(user_id) ON DELETE CASCADE
	);

	CREATE TABLE IF NOT EXISTS workouts (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		category TEXT NOT NULL,
		started_at DATETIME NOT NULL,
		ended_at DATETIME NOT NULL,
		duration_minutes INTEGER NOT NULL DEFAULT 0,
		location_cluster_id TEXT,
		notes TEXT,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		FOREIGN KEY (user_id) REFERENCES users(user_id) ON DELETE CASCADE
	);

	CREATE TABLE IF NOT EXISTS calendar_events (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		title TEXT NOT NULL DEFAULT '',
		category TEXT NOT NULL,
		starts_at DATETIME NOT NULL,
		ends_at DATETIME NOT NULL,
		location_cluster_id TEXT,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		FOREIGN KEY (user_id) REFERENCES users(user_id) ON DELETE CASCADE
	);

	CREATE TABLE IF NOT EXISTS location_clusters (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		label TEXT NOT NULL,
		latitude REAL NOT NULL,
		longitude REAL NOT NULL,
		visit_count INTEGER NOT NULL DEFAULT 1,
		last_seen_at DATETIME NOT NULL,
		FOREIGN KEY (user_id) REFERENCES users(user_id) ON DELETE CASCADE
	);

	CREATE TABLE IF NOT EXISTS daily_summaries (
		user_id TEXT NOT NULL,
		date TEXT NOT NULL,
		hr_sum REAL NOT NULL DEFAULT 0,
		hr_count INTEGER NOT NULL DEFAULT 0,
		min_hr REAL,
		max_hr REAL,
		hrv_sum REAL NOT NULL DEFAULT 0,
		hrv_count INTEGER NOT NULL DEFAULT 0,
		steps REAL NOT NULL DEFAULT 0,
		active_minutes INTEGER NOT NULL DEFAULT 0,
		active_energy REAL NOT NULL DEFAULT 0,
		sleep_hours REAL NOT NULL DEFAULT 0,
		workout_minutes INTEGER NOT NULL DEFAULT 0,
		resting_hr REAL,
		stress_score REAL,
		updated_at DATETIME NOT NULL,
		PRIMARY KEY (user_id, date),
		FOREIGN KEY (user_id) REFERENCES users(user_id) ON DELETE CASCADE
	);

	CREATE TABLE IF NOT EXISTS hr_baselines (
		user_id TEXT NOT NULL,
		hour_of_day INTEGER NOT NULL,
		day_of_week INTEGER NOT NULL,
		mean REAL NOT NULL,
		stddev REAL NOT NULL,
		sample_count INTEGER NOT NULL,
		last_updated DATETIME NOT NULL,
		PRIMARY KEY (user_id, hour_of_day, day_of_week),
		FOREIGN KEY (user_id) REFERENCES users(user_id) ON DELETE CASCADE
	);

	CREATE TABLE IF NOT EXISTS hrv_baselines (
		user_id TEXT NOT NULL,
		period_start TEXT NOT NULL,
		period_end TEXT NOT NULL,
		mean REAL NOT NULL,
		stddev REAL NOT NULL,
		sample_count INTEGER NOT NULL,
		z_threshold REAL NOT NULL DEFAULT 2.0,
		last_updated DATETIME NOT NULL,
		PRIMARY KEY (user_id, period_start),
		FOREIGN KEY (user_id) REFERENCES users(user_id) ON DELETE CASCADE
	);

	CREATE TABLE IF NOT EXISTS activity_patterns (
		user_id TEXT NOT NULL,
		day_of_week INTEGER NOT NULL,
		hour_of_day INTEGER NOT NULL,
		motion_type TEXT NOT NULL,
		frequency_count INTEGER NOT NULL DEFAULT 0,
		last_updated DATETIME NOT NULL,
		PRIMARY KEY (user_id, day_of_week, hour_of_day, motion_type),
		FOREIGN KEY (user_id) REFERENCES users(user_id) ON DELETE CASCADE
	);

	CREATE TABLE IF NOT EXISTS habits (
		user_id TEXT NOT NULL,
		name TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		kind TEXT NOT NULL,
		qualifier TEXT NOT NULL,
		min_value REAL NOT NULL DEFAULT 0,
		target_count INTEGER NOT NULL,
		period TEXT NOT NULL,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		PRIMARY KEY (user_id, name),
		FOREIGN KEY (user_id) REFERENCES users(user_id) ON DELETE CASCADE
	);

	CREATE TABLE IF NOT EXISTS habit_tracking (
		user_id TEXT NOT NULL,
		habit_name TEXT NOT NULL,
		state TEXT NOT NULL,
		rolling_count INTEGER NOT NULL DEFAULT 0,
		streak_days INTEGER NOT NULL DEFAULT 0,
		longest_streak_days INTEGER NOT NULL DEFAULT 0,
		period_start DATETIME,
		streak_started_at DATETIME,
		last_event_at DATETIME,
		last_reinforced_at DATETIME,
		last_evaluated DATETIME,
		updated_at DATETIME NOT NULL,
		PRIMARY KEY (user_id, habit_name),
		FOREIGN KEY (user_id) REFERENCES users(user_id) ON DELETE CASCADE
	);

	CREATE TABLE IF NOT EXISTS habit_events (
		user_id TEXT NOT NULL,
		habit_name TEXT NOT NULL,
		event_id TEXT NOT NULL,
		occurred_at DATETIME NOT NULL,
		period_start DATETIME NOT NULL,
		PRIMARY KEY (user_id, habit_name, event_id),
		FOREIGN KEY (user_id) REFERENCES users(user_id) ON DELETE CASCADE
	);

	CREATE TABLE IF NOT EXISTS correlation_signals (
		user_id TEXT NOT NULL,
		date TEXT NOT NULL,
		meeting_count INTEGER NOT NULL DEFAULT 0,
		meeting_minutes INTEGER NOT NULL DEFAULT 0,
		avg_hr_meetings REAL NOT NULL DEFAULT 0,
		baseline_hr REAL NOT NULL DEFAULT 0,
		stress_delta REAL NOT NULL DEFAULT 0,
		strength REAL NOT NULL DEFAULT 0,
		sample_days INTEGER NOT NULL DEFAULT 0,
		computed_at DATETIME NOT NULL,
		PRIMARY KEY (user_id, date),
		FOREIGN KEY (user_id) REFERENCES users(user_id) ON DELETE CASCADE
	);

	CREATE TABLE IF NOT EXISTS suggestions (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		sugg_type TEXT NOT NULL,
		title TEXT NOT NULL DEFAULT '',
		body TEXT NOT NULL DEFAULT '',
		confidence REAL NOT NULL,
		context TEXT,
		generated_at DATETIME NOT NULL,
		shown_at DATETIME,
		expires_at DATETIME NOT NULL,
		superseded INTEGER NOT NULL DEFAULT 0,
		FOREIGN KEY (user_id) REFERENCES users(user_id) ON DELETE CASCADE
	);

	CREATE TABLE IF NOT EXISTS feedback (
		id TEXT PRIMARY KEY,
		suggestion_id TEXT NOT NULL,
		user_id TEXT NOT NULL,
		action TEXT NOT NULL,
		reaction TEXT NOT NULL,
		created_at DATETIME NOT NULL,
		FOREIGN KEY (suggestion_id) REFERENCES suggestions(id) ON DELETE CASCADE,
		FOREIGN KEY (user_id) REFERENCES users(user_id) ON DELETE CASCADE
	);

	CREATE TABLE IF NOT EXISTS confidence_weights (
		user_id TEXT NOT NULL,
		sugg_type TEXT NOT NULL,
		weight REAL NOT NULL,
		updated_at DATETIME NOT NULL,
		PRIMARY KEY (user_id, sugg_type),
		FOREIGN KEY (user_id) REFERENCES users(user_id) ON DELETE CASCADE
	);

	CREATE INDEX IF NOT EXISTS idx_observations_user_recorded ON observations(user_id, recorded_at DESC);
	CREATE INDEX IF NOT EXISTS idx_observations_user_type_recorded ON observations(user_id, obs_type, recorded_at DESC);
	CREATE INDEX IF NOT EXISTS idx_workouts_user_started ON workouts(user_id, started_at DESC);
	CREATE INDEX IF NOT EXISTS idx_calendar_user_starts ON calendar_events(user_id, starts_at DESC);
	CREATE INDEX IF NOT EXISTS idx_suggestions_user_generated ON suggestions(user_id, generated_at DESC);
	CREATE INDEX IF NOT EXISTS idx_suggestions_user_type ON suggestions(user_id, sugg_type);
	CREATE INDEX IF NOT EXISTS idx_feedback_suggestion ON feedback(suggestion_id);
	CREATE INDEX IF NOT EXISTS idx_habit_events_period ON habit_events(user_id, habit_name, period_start);
	`

	_, err := d.db.Exec(schema)
	return err
}
