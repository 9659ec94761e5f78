package history

// Schema DDL. Statements are idempotent so an existing archive is reused.
const (
	createRuns = `CREATE TABLE IF NOT EXISTS restore_runs (
    run_id TEXT PRIMARY KEY,
    started_at TEXT NOT NULL,
    finished_at TEXT NOT NULL,
    total INTEGER NOT NULL,
    restored INTEGER NOT NULL,
    skipped INTEGER NOT NULL,
    failed INTEGER NOT NULL,
    canceled INTEGER NOT NULL
);`

	createOutcomes = `CREATE TABLE IF NOT EXISTS restore_outcomes (
    run_id TEXT NOT NULL,
    seq INTEGER NOT NULL,
    kind TEXT NOT NULL,
    original_path TEXT NOT NULL,
    new_path TEXT,
    outcome TEXT NOT NULL,
    error TEXT,
    PRIMARY KEY (run_id, seq),
    FOREIGN KEY (run_id) REFERENCES restore_runs(run_id) ON DELETE CASCADE
);`

	idxRunsStarted     = `CREATE INDEX IF NOT EXISTS idx_restore_runs_started ON restore_runs(started_at);`
	idxOutcomesOutcome = `CREATE INDEX IF NOT EXISTS idx_restore_outcomes_outcome ON restore_outcomes(outcome);`
)

// schemaDDL lists the statements in dependency order.
var schemaDDL = []string{
	createRuns,
	createOutcomes,
	idxRunsStarted,
	idxOutcomesOutcome,
}
