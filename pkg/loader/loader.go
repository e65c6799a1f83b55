package loader

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"

	_ "github.com/mattn/go-sqlite3"

	"subharvest/pkg/kilonova"
	"subharvest/pkg/logger"
)

// Loader writes a harvested dump into a relational SQLite schema for
// analysis. Inserts are idempotent (ignore-on-conflict by primary key), so
// loading the same dump twice leaves the database unchanged.
type Loader struct {
	db     *sql.DB
	logger logger.Logger
}

// Stats summarizes one load operation
type Stats struct {
	UsersInserted       int64
	ProblemsInserted    int64
	SubmissionsInserted int64
	SubmissionsSkipped  int
}

// Open opens (or creates) the SQLite database at the given path
func Open(path string) (*Loader, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &Loader{
		db:     db,
		logger: logger.GetLogger(),
	}, nil
}

// Close closes the underlying database
func (l *Loader) Close() error {
	return l.db.Close()
}

// CreateTables creates the Users, Problems and Submissions tables if they
// do not exist
func (l *Loader) CreateTables(ctx context.Context) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS Users (
			ID INTEGER PRIMARY KEY,
			Name TEXT NOT NULL,
			DisplayName TEXT
		)`,
		`CREATE TABLE IF NOT EXISTS Problems (
			ID INTEGER PRIMARY KEY,
			Name TEXT NOT NULL,
			Test_Name TEXT,
			Default_Points INTEGER NOT NULL,
			Visible BOOLEAN,
			Visible_Tests BOOLEAN,
			Time_ms REAL NOT NULL,
			Memory_Limit INTEGER NOT NULL,
			Source_Size INTEGER,
			Source_Credits TEXT,
			Console_Input BOOLEAN,
			Score_Precision INTEGER,
			Published_At TEXT,
			Scoring_Strategy TEXT
		)`,
		`CREATE TABLE IF NOT EXISTS Submissions (
			ID INTEGER PRIMARY KEY,
			Created_At TEXT NOT NULL,
			User_ID INTEGER NOT NULL,
			Problem_ID INTEGER NOT NULL,
			Contest_ID INTEGER,
			Score INTEGER NOT NULL,
			Compile_Error BOOLEAN NOT NULL,
			Max_Time_ms REAL NOT NULL,
			Max_Memory_bytes INTEGER NOT NULL,
			Language TEXT,
			Code_Size INTEGER,
			Score_Precision INTEGER,
			Submission_Type TEXT,
			ICPC_Verdict TEXT,
			FOREIGN KEY(User_ID) REFERENCES Users(ID),
			FOREIGN KEY(Problem_ID) REFERENCES Problems(ID)
		)`,
	}

	for _, stmt := range statements {
		if _, err := l.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to create tables: %w", err)
		}
	}

	return nil
}

// LoadDump shapes the dump into rows and inserts them inside a single
// transaction
func (l *Loader) LoadDump(ctx context.Context, dump *kilonova.Dump) (*Stats, error) {
	if err := l.CreateTables(ctx); err != nil {
		return nil, err
	}

	tx, err := l.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stats := &Stats{}

	users := ShapeUsers(dump.Users)
	if stats.UsersInserted, err = l.insertUsers(ctx, tx, users); err != nil {
		return nil, err
	}

	problems := ShapeProblems(dump.Problems)
	if stats.ProblemsInserted, err = l.insertProblems(ctx, tx, problems); err != nil {
		return nil, err
	}

	submissions := ShapeSubmissions(dump.Submissions)
	stats.SubmissionsSkipped = len(dump.Submissions) - len(submissions)
	if stats.SubmissionsInserted, err = l.insertSubmissions(ctx, tx, submissions); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	l.logger.InfoWithFields("dump loaded into database", map[string]interface{}{
		"users_inserted":       stats.UsersInserted,
		"problems_inserted":    stats.ProblemsInserted,
		"submissions_inserted": stats.SubmissionsInserted,
		"submissions_skipped":  stats.SubmissionsSkipped,
	})

	return stats, nil
}

// LoadFile reads a dump JSON file and loads it
func (l *Loader) LoadFile(ctx context.Context, path string) (*Stats, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open dump file: %w", err)
	}
	defer file.Close()

	dump := kilonova.NewDump()
	if err := json.NewDecoder(file).Decode(dump); err != nil {
		return nil, fmt.Errorf("failed to decode dump file: %w", err)
	}

	return l.LoadDump(ctx, dump)
}

func (l *Loader) insertUsers(ctx context.Context, tx *sql.Tx, rows []UserRow) (int64, error) {
	stmt, err := tx.PrepareContext(ctx, `
		INSERT OR IGNORE INTO Users (ID, Name, DisplayName) VALUES (?, ?, ?)
	`)
	if err != nil {
		return 0, fmt.Errorf("failed to prepare users insert: %w", err)
	}
	defer stmt.Close()

	var inserted int64
	for _, row := range rows {
		res, err := stmt.ExecContext(ctx, row.ID, row.Name, row.DisplayName)
		if err != nil {
			return inserted, fmt.Errorf("failed to insert user %d: %w", row.ID, err)
		}
		n, _ := res.RowsAffected()
		inserted += n
	}
	return inserted, nil
}

func (l *Loader) insertProblems(ctx context.Context, tx *sql.Tx, rows []ProblemRow) (int64, error) {
	stmt, err := tx.PrepareContext(ctx, `
		INSERT OR IGNORE INTO Problems (
			ID, Name, Test_Name, Default_Points, Visible, Visible_Tests,
			Time_ms, Memory_Limit, Source_Size, Source_Credits, Console_Input,
			Score_Precision, Published_At, Scoring_Strategy
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return 0, fmt.Errorf("failed to prepare problems insert: %w", err)
	}
	defer stmt.Close()

	var inserted int64
	for _, row := range rows {
		res, err := stmt.ExecContext(ctx,
			row.ID,
			row.Name,
			row.TestName,
			row.DefaultPoints,
			row.Visible,
			row.VisibleTests,
			row.TimeMs,
			row.MemoryLimit,
			row.SourceSize,
			row.SourceCredits,
			row.ConsoleInput,
			row.ScorePrecision,
			row.PublishedAt,
			row.ScoringStrategy,
		)
		if err != nil {
			return inserted, fmt.Errorf("failed to insert problem %d: %w", row.ID, err)
		}
		n, _ := res.RowsAffected()
		inserted += n
	}
	return inserted, nil
}

func (l *Loader) insertSubmissions(ctx context.Context, tx *sql.Tx, rows []SubmissionRow) (int64, error) {
	stmt, err := tx.PrepareContext(ctx, `
		INSERT OR IGNORE INTO Submissions (
			ID, Created_At, User_ID, Problem_ID, Contest_ID, Score, Compile_Error,
			Max_Time_ms, Max_Memory_bytes, Language, Code_Size, Score_Precision,
			Submission_Type, ICPC_Verdict
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return 0, fmt.Errorf("failed to prepare submissions insert: %w", err)
	}
	defer stmt.Close()

	var inserted int64
	for _, row := range rows {
		res, err := stmt.ExecContext(ctx,
			row.ID,
			row.CreatedAt,
			row.UserID,
			row.ProblemID,
			row.ContestID,
			row.Score,
			row.CompileError,
			row.MaxTimeMs,
			row.MaxMemoryBytes,
			row.Language,
			row.CodeSize,
			row.ScorePrecision,
			row.SubmissionType,
			row.ICPCVerdict,
		)
		if err != nil {
			return inserted, fmt.Errorf("failed to insert submission %d: %w", row.ID, err)
		}
		n, _ := res.RowsAffected()
		inserted += n
	}
	return inserted, nil
}
