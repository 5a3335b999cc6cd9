package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	_ "modernc.org/sqlite"

	"netaudit/internal/domain"
	"netaudit/internal/repository"
)

var _ repository.SummaryStore = (*Repository)(nil)

// Repository implements repository.SummaryStore using SQLite
type Repository struct {
	db *sql.DB
}

// New opens (or creates) the database at dbPath and migrates its schema.
// ":memory:" gives a private in-memory database.
func New(dbPath string) (*Repository, error) {
	db, err := sql.Open("sqlite", dbPath+"?_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// an in-memory database lives and dies with its connection
	db.SetMaxOpenConns(1)

	if dbPath != ":memory:" {
		if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to enable WAL: %w", err)
		}
	}

	repo := &Repository{db: db}
	if err := repo.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return repo, nil
}

// Close closes the database
func (r *Repository) Close() error {
	return r.db.Close()
}

func (r *Repository) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		generated_at TEXT NOT NULL,
		notes TEXT
	);

	CREATE TABLE IF NOT EXISTS nodes (
		run_id TEXT NOT NULL,
		name TEXT NOT NULL,
		device_type TEXT NOT NULL,
		protocols JSON,
		asn INTEGER,
		PRIMARY KEY (run_id, name),
		FOREIGN KEY (run_id) REFERENCES runs(id) ON DELETE CASCADE
	);

	CREATE TABLE IF NOT EXISTS edges (
		run_id TEXT NOT NULL,
		edge_key TEXT NOT NULL,
		a TEXT NOT NULL,
		b TEXT NOT NULL,
		capacity_kbps INTEGER NOT NULL,
		mtus JSON,
		PRIMARY KEY (run_id, a, b),
		FOREIGN KEY (run_id) REFERENCES runs(id) ON DELETE CASCADE
	);

	CREATE TABLE IF NOT EXISTS links (
		run_id TEXT NOT NULL,
		a_device TEXT NOT NULL,
		b_device TEXT NOT NULL,
		seq INTEGER NOT NULL,
		a_interface TEXT NOT NULL,
		b_interface TEXT NOT NULL,
		PRIMARY KEY (run_id, a_device, b_device, seq),
		FOREIGN KEY (run_id, a_device, b_device) REFERENCES edges(run_id, a, b) ON DELETE CASCADE
	);

	CREATE TABLE IF NOT EXISTS issues (
		run_id TEXT NOT NULL,
		seq INTEGER NOT NULL,
		type TEXT NOT NULL,
		data JSON NOT NULL,
		PRIMARY KEY (run_id, seq),
		FOREIGN KEY (run_id) REFERENCES runs(id) ON DELETE CASCADE
	);

	CREATE TABLE IF NOT EXISTS edge_loads (
		run_id TEXT NOT NULL,
		edge_key TEXT NOT NULL,
		load_kbps INTEGER NOT NULL,
		PRIMARY KEY (run_id, edge_key),
		FOREIGN KEY (run_id) REFERENCES runs(id) ON DELETE CASCADE
	);

	CREATE TABLE IF NOT EXISTS load_balance (
		run_id TEXT NOT NULL,
		seq INTEGER NOT NULL,
		link TEXT NOT NULL,
		load_kbps INTEGER NOT NULL,
		capacity_kbps INTEGER NOT NULL,
		suggestion TEXT NOT NULL,
		PRIMARY KEY (run_id, seq),
		FOREIGN KEY (run_id) REFERENCES runs(id) ON DELETE CASCADE
	);

	CREATE TABLE IF NOT EXISTS recommendations (
		run_id TEXT NOT NULL,
		seq INTEGER NOT NULL,
		text TEXT NOT NULL,
		PRIMARY KEY (run_id, seq),
		FOREIGN KEY (run_id) REFERENCES runs(id) ON DELETE CASCADE
	);

	CREATE TABLE IF NOT EXISTS demand_trials (
		run_id TEXT NOT NULL,
		seq INTEGER NOT NULL,
		src TEXT NOT NULL,
		dst TEXT NOT NULL,
		path JSON,
		demand_kbps INTEGER NOT NULL DEFAULT 0,
		skipped INTEGER NOT NULL DEFAULT 0,
		PRIMARY KEY (run_id, seq),
		FOREIGN KEY (run_id) REFERENCES runs(id) ON DELETE CASCADE
	);

	CREATE TABLE IF NOT EXISTS sim_routers (
		run_id TEXT NOT NULL,
		router TEXT NOT NULL,
		PRIMARY KEY (run_id, router),
		FOREIGN KEY (run_id) REFERENCES runs(id) ON DELETE CASCADE
	);

	CREATE TABLE IF NOT EXISTS sim_events (
		run_id TEXT NOT NULL,
		router TEXT NOT NULL,
		seq INTEGER NOT NULL,
		sender TEXT NOT NULL,
		type TEXT NOT NULL,
		PRIMARY KEY (run_id, router, seq),
		FOREIGN KEY (run_id) REFERENCES runs(id) ON DELETE CASCADE
	);

	CREATE INDEX IF NOT EXISTS idx_issues_type ON issues(run_id, type);
	`

	_, err := r.db.Exec(schema)
	return err
}

// ============================================================================
// Writes
// ============================================================================

// SaveSummary replaces the stored snapshot with summary in one transaction
func (r *Repository) SaveSummary(ctx context.Context, s *domain.Summary) error {
	if s == nil || s.RunID == "" {
		return domain.NewError(domain.KindExport, "SaveSummary", errors.New("summary has no run id"))
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	// Cascades to every child table
	if _, err := tx.ExecContext(ctx, `DELETE FROM runs`); err != nil {
		return fmt.Errorf("failed to clear previous run: %w", err)
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO runs (id, generated_at, notes) VALUES (?, ?, ?)`,
		s.RunID, s.GeneratedAt.UTC().Format(time.RFC3339Nano), stringToNull(s.Notes),
	); err != nil {
		return fmt.Errorf("failed to insert run: %w", err)
	}

	steps := []struct {
		name string
		fn   func(context.Context, *sql.Tx, *domain.Summary) error
	}{
		{"nodes", saveNodes},
		{"edges", saveEdges},
		{"issues", saveIssues},
		{"edge loads", saveEdgeLoads},
		{"load balance", saveLoadBalance},
		{"recommendations", saveRecommendations},
		{"demand trials", saveDemandTrials},
		{"sim log", saveSimLog},
	}
	for _, step := range steps {
		if err := step.fn(ctx, tx, s); err != nil {
			return domain.NewError(domain.KindExport, "SaveSummary", fmt.Errorf("%s: %w", step.name, err))
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit: %w", err)
	}
	return nil
}

func saveNodes(ctx context.Context, tx *sql.Tx, s *domain.Summary) error {
	for _, n := range s.Nodes {
		protocols, err := marshalToNull(n.Protocols)
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO nodes (run_id, name, device_type, protocols, asn) VALUES (?, ?, ?, ?, ?)`,
			s.RunID, n.Name, string(n.Kind), protocols, intPtrToNull(n.ASN),
		); err != nil {
			return err
		}
	}
	return nil
}

func saveEdges(ctx context.Context, tx *sql.Tx, s *domain.Summary) error {
	for _, e := range s.Edges {
		mtus, err := marshalToNull(e.MTUPairs)
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO edges (run_id, edge_key, a, b, capacity_kbps, mtus) VALUES (?, ?, ?, ?, ?, ?)`,
			s.RunID, e.Key(), e.A, e.B, e.CapacityKbps, mtus,
		); err != nil {
			return err
		}
		for seq, l := range e.Links {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO links (run_id, a_device, b_device, seq, a_interface, b_interface)
				VALUES (?, ?, ?, ?, ?, ?)`,
				s.RunID, e.A, e.B, seq, l.AInterface, l.BInterface,
			); err != nil {
				return err
			}
		}
	}
	return nil
}

func saveIssues(ctx context.Context, tx *sql.Tx, s *domain.Summary) error {
	for seq, issue := range s.Issues {
		data, err := json.Marshal(issue)
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO issues (run_id, seq, type, data) VALUES (?, ?, ?, ?)`,
			s.RunID, seq, string(issue.Type), string(data),
		); err != nil {
			return err
		}
	}
	return nil
}

func saveEdgeLoads(ctx context.Context, tx *sql.Tx, s *domain.Summary) error {
	for key, load := range s.EdgeLoadKbps {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO edge_loads (run_id, edge_key, load_kbps) VALUES (?, ?, ?)`,
			s.RunID, key, load,
		); err != nil {
			return err
		}
	}
	return nil
}

func saveLoadBalance(ctx context.Context, tx *sql.Tx, s *domain.Summary) error {
	for seq, rec := range s.LoadBalance {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO load_balance (run_id, seq, link, load_kbps, capacity_kbps, suggestion)
			VALUES (?, ?, ?, ?, ?, ?)`,
			s.RunID, seq, rec.Link, rec.LoadKbps, rec.CapacityKbps, rec.Suggestion,
		); err != nil {
			return err
		}
	}
	return nil
}

func saveRecommendations(ctx context.Context, tx *sql.Tx, s *domain.Summary) error {
	for seq, text := range s.Recommendations {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO recommendations (run_id, seq, text) VALUES (?, ?, ?)`,
			s.RunID, seq, text,
		); err != nil {
			return err
		}
	}
	return nil
}

func saveDemandTrials(ctx context.Context, tx *sql.Tx, s *domain.Summary) error {
	for seq, trial := range s.DemandTrials {
		var path sql.NullString
		if len(trial.Path) > 0 {
			data, err := json.Marshal(trial.Path)
			if err != nil {
				return err
			}
			path = stringToNull(string(data))
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO demand_trials (run_id, seq, src, dst, path, demand_kbps, skipped)
			VALUES (?, ?, ?, ?, ?, ?, ?)`,
			s.RunID, seq, trial.Src, trial.Dst, path, trial.DemandKbps, trial.Skipped,
		); err != nil {
			return err
		}
	}
	return nil
}

func saveSimLog(ctx context.Context, tx *sql.Tx, s *domain.Summary) error {
	for router, events := range s.Day1SimLog {
		// routers that heard nothing still belong in the log
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO sim_routers (run_id, router) VALUES (?, ?)`, s.RunID, router,
		); err != nil {
			return err
		}
		for seq, ev := range events {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO sim_events (run_id, router, seq, sender, type) VALUES (?, ?, ?, ?, ?)`,
				s.RunID, router, seq, ev.From, string(ev.Type),
			); err != nil {
				return err
			}
		}
	}
	return nil
}

// ============================================================================
// Reads
// ============================================================================

// LatestRunID returns the id of the stored run
func (r *Repository) LatestRunID(ctx context.Context) (string, error) {
	var id string
	err := r.db.QueryRowContext(ctx,
		`SELECT id FROM runs ORDER BY generated_at DESC LIMIT 1`).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return "", domain.ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("failed to query runs: %w", err)
	}
	return id, nil
}

// GetRun returns the header and counts of a stored run
func (r *Repository) GetRun(ctx context.Context, runID string) (*repository.RunInfo, error) {
	var (
		info        repository.RunInfo
		generatedAt string
		notes       sql.NullString
	)
	err := r.db.QueryRowContext(ctx, `
		SELECT id, generated_at, notes,
			(SELECT COUNT(*) FROM nodes WHERE run_id = runs.id),
			(SELECT COUNT(*) FROM edges WHERE run_id = runs.id),
			(SELECT COUNT(*) FROM issues WHERE run_id = runs.id)
		FROM runs WHERE id = ?
	`, runID).Scan(&info.ID, &generatedAt, &notes, &info.NodeCount, &info.EdgeCount, &info.IssueCount)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("run %s: %w", runID, domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query run: %w", err)
	}

	info.GeneratedAt, err = time.Parse(time.RFC3339Nano, generatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to parse generated_at: %w", err)
	}
	info.Notes = nullToString(notes)
	return &info, nil
}

// LoadSummary reassembles every section of a stored run
func (r *Repository) LoadSummary(ctx context.Context, runID string) (*domain.Summary, error) {
	info, err := r.GetRun(ctx, runID)
	if err != nil {
		return nil, err
	}

	s := &domain.Summary{
		RunID:       info.ID,
		GeneratedAt: info.GeneratedAt,
		Notes:       info.Notes,
	}
	if s.Nodes, err = r.ListNodes(ctx, runID); err != nil {
		return nil, err
	}
	if s.Edges, err = r.ListEdges(ctx, runID); err != nil {
		return nil, err
	}
	if s.Issues, err = r.ListIssues(ctx, runID, ""); err != nil {
		return nil, err
	}
	if s.EdgeLoadKbps, err = r.EdgeLoads(ctx, runID); err != nil {
		return nil, err
	}
	if s.LoadBalance, err = r.LoadBalance(ctx, runID); err != nil {
		return nil, err
	}
	if s.Recommendations, err = r.Recommendations(ctx, runID); err != nil {
		return nil, err
	}
	if s.DemandTrials, err = r.DemandTrials(ctx, runID); err != nil {
		return nil, err
	}
	if s.Day1SimLog, err = r.FullSimLog(ctx, runID); err != nil {
		return nil, err
	}
	return s, nil
}

// ListNodes returns the run's nodes sorted by name
func (r *Repository) ListNodes(ctx context.Context, runID string) ([]*domain.Node, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+nodeColumns+` FROM nodes WHERE run_id = ? ORDER BY name`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query nodes: %w", err)
	}
	defer rows.Close()

	nodes := []*domain.Node{}
	for rows.Next() {
		var row nodeRow
		if err := rows.Scan(row.scanArgs()...); err != nil {
			return nil, fmt.Errorf("failed to scan node: %w", err)
		}
		node, err := row.toDomain()
		if err != nil {
			return nil, err
		}
		nodes = append(nodes, node)
	}
	return nodes, rows.Err()
}

// ListEdges returns the run's edges with their links, sorted by key
func (r *Repository) ListEdges(ctx context.Context, runID string) ([]*domain.Edge, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+edgeColumns+` FROM edges WHERE run_id = ? ORDER BY edge_key, a`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query edges: %w", err)
	}
	defer rows.Close()

	edges := []*domain.Edge{}
	byPair := make(map[domain.DevicePair]*domain.Edge)
	for rows.Next() {
		var row edgeRow
		if err := rows.Scan(row.scanArgs()...); err != nil {
			return nil, fmt.Errorf("failed to scan edge: %w", err)
		}
		edge, err := row.toDomain()
		if err != nil {
			return nil, err
		}
		edge.Links = []domain.Link{}
		edges = append(edges, edge)
		byPair[edge.Pair()] = edge
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating edges: %w", err)
	}

	linkRows, err := r.db.QueryContext(ctx, `
		SELECT a_device, a_interface, b_device, b_interface
		FROM links WHERE run_id = ? ORDER BY a_device, b_device, seq
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query links: %w", err)
	}
	defer linkRows.Close()

	for linkRows.Next() {
		var l domain.Link
		if err := linkRows.Scan(&l.ADevice, &l.AInterface, &l.BDevice, &l.BInterface); err != nil {
			return nil, fmt.Errorf("failed to scan link: %w", err)
		}
		if edge, ok := byPair[l.Pair()]; ok {
			edge.Links = append(edge.Links, l)
		}
	}
	return edges, linkRows.Err()
}

// ListIssues returns the run's issues in detection order
func (r *Repository) ListIssues(ctx context.Context, runID string, issueType domain.IssueType) ([]domain.Issue, error) {
	query := `SELECT data FROM issues WHERE run_id = ?`
	args := []any{runID}
	if issueType != "" {
		query += ` AND type = ?`
		args = append(args, string(issueType))
	}
	query += ` ORDER BY seq`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query issues: %w", err)
	}
	defer rows.Close()

	issues := []domain.Issue{}
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, fmt.Errorf("failed to scan issue: %w", err)
		}
		var issue domain.Issue
		if err := json.Unmarshal([]byte(data), &issue); err != nil {
			return nil, fmt.Errorf("failed to unmarshal issue: %w", err)
		}
		issues = append(issues, issue)
	}
	return issues, rows.Err()
}

// EdgeLoads returns the accumulated demand per edge key
func (r *Repository) EdgeLoads(ctx context.Context, runID string) (domain.EdgeLoad, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT edge_key, load_kbps FROM edge_loads WHERE run_id = ?`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query edge loads: %w", err)
	}
	defer rows.Close()

	loads := domain.EdgeLoad{}
	for rows.Next() {
		var (
			key  string
			load int
		)
		if err := rows.Scan(&key, &load); err != nil {
			return nil, fmt.Errorf("failed to scan edge load: %w", err)
		}
		loads[key] = load
	}
	return loads, rows.Err()
}

// LoadBalance returns the run's overloaded-link suggestions
func (r *Repository) LoadBalance(ctx context.Context, runID string) ([]domain.LoadRecommendation, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT link, load_kbps, capacity_kbps, suggestion
		FROM load_balance WHERE run_id = ? ORDER BY seq
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query load balance: %w", err)
	}
	defer rows.Close()

	recs := []domain.LoadRecommendation{}
	for rows.Next() {
		var rec domain.LoadRecommendation
		if err := rows.Scan(&rec.Link, &rec.LoadKbps, &rec.CapacityKbps, &rec.Suggestion); err != nil {
			return nil, fmt.Errorf("failed to scan load recommendation: %w", err)
		}
		recs = append(recs, rec)
	}
	return recs, rows.Err()
}

// Recommendations returns the run's recommendation strings in order
func (r *Repository) Recommendations(ctx context.Context, runID string) ([]string, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT text FROM recommendations WHERE run_id = ? ORDER BY seq`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query recommendations: %w", err)
	}
	defer rows.Close()

	out := []string{}
	for rows.Next() {
		var text string
		if err := rows.Scan(&text); err != nil {
			return nil, fmt.Errorf("failed to scan recommendation: %w", err)
		}
		out = append(out, text)
	}
	return out, rows.Err()
}

// DemandTrials returns the run's demand draws in order
func (r *Repository) DemandTrials(ctx context.Context, runID string) ([]domain.DemandTrial, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT src, dst, path, demand_kbps, skipped
		FROM demand_trials WHERE run_id = ? ORDER BY seq
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query demand trials: %w", err)
	}
	defer rows.Close()

	trials := []domain.DemandTrial{}
	for rows.Next() {
		var (
			trial domain.DemandTrial
			path  sql.NullString
		)
		if err := rows.Scan(&trial.Src, &trial.Dst, &path, &trial.DemandKbps, &trial.Skipped); err != nil {
			return nil, fmt.Errorf("failed to scan demand trial: %w", err)
		}
		if err := unmarshalJSONField(path, &trial.Path); err != nil {
			return nil, fmt.Errorf("unmarshal path: %w", err)
		}
		trials = append(trials, trial)
	}
	return trials, rows.Err()
}

// SimLog returns the ordered events router received
func (r *Repository) SimLog(ctx context.Context, runID, router string) ([]domain.SimEvent, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT sender, type FROM sim_events
		WHERE run_id = ? AND router = ? ORDER BY seq
	`, runID, router)
	if err != nil {
		return nil, fmt.Errorf("failed to query sim events: %w", err)
	}
	defer rows.Close()

	events := []domain.SimEvent{}
	for rows.Next() {
		var ev domain.SimEvent
		if err := rows.Scan(&ev.From, &ev.Type); err != nil {
			return nil, fmt.Errorf("failed to scan sim event: %w", err)
		}
		events = append(events, ev)
	}
	return events, rows.Err()
}

// FullSimLog returns the discovery log of every router
func (r *Repository) FullSimLog(ctx context.Context, runID string) (domain.SimLog, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT router FROM sim_routers WHERE run_id = ?`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query routers: %w", err)
	}
	var routers []string
	for rows.Next() {
		var router string
		if err := rows.Scan(&router); err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan router: %w", err)
		}
		routers = append(routers, router)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}
	sort.Strings(routers)

	log := domain.SimLog{}
	for _, router := range routers {
		events, err := r.SimLog(ctx, runID, router)
		if err != nil {
			return nil, err
		}
		log[router] = events
	}
	return log, nil
}
