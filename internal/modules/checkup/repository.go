package checkup

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/aristath/checkup/internal/modules/checkup/domain"
	"github.com/aristath/checkup/internal/modules/checkup/flow"
	"github.com/aristath/checkup/internal/utils"
	"github.com/rs/zerolog"
)

// Repository persists checkups in the checkups table.
// Nested structures (profile, holdings, analytics, report) are JSON columns.
type Repository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewRepository creates a checkup repository over the checkups database
func NewRepository(db *sql.DB, log zerolog.Logger) *Repository {
	return &Repository{
		db:  db,
		log: log.With().Str("repository", "checkups").Logger(),
	}
}

const selectColumns = `id, status, step, profile, policy_profile, holdings, parse_errors,
	classification_confidence, analytics, score, report, created_at, updated_at`

// Create inserts a new checkup
func (r *Repository) Create(ctx context.Context, c *domain.Checkup) error {
	row, err := encodeRow(c)
	if err != nil {
		return fmt.Errorf("failed to encode checkup %s: %w", c.ID, err)
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO checkups (`+selectColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, row.args()...)
	if err != nil {
		return fmt.Errorf("failed to insert checkup %s: %w", c.ID, err)
	}

	r.log.Debug().Str("checkup_id", c.ID).Msg("Checkup created")
	return nil
}

// GetByID loads a checkup.
// Returns domain.ErrNotFound when no checkup has that id.
func (r *Repository) GetByID(ctx context.Context, id string) (*domain.Checkup, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+selectColumns+` FROM checkups WHERE id = ?`, id)

	c, err := scanCheckup(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("checkup %s: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get checkup %s: %w", id, err)
	}
	return c, nil
}

// Update overwrites the working state of an existing checkup.
// Status is left untouched; it only changes through UpdateStatus.
func (r *Repository) Update(ctx context.Context, c *domain.Checkup) error {
	row, err := encodeRow(c)
	if err != nil {
		return fmt.Errorf("failed to encode checkup %s: %w", c.ID, err)
	}

	result, err := r.db.ExecContext(ctx, `
		UPDATE checkups SET
			step = ?, profile = ?, policy_profile = ?, holdings = ?, parse_errors = ?,
			classification_confidence = ?, analytics = ?, score = ?, report = ?, updated_at = ?
		WHERE id = ?
	`, row.step, row.profile, row.policyProfile, row.holdings, row.parseErrors,
		row.confidence, row.analytics, row.score, row.report, row.updatedAt, row.id)
	if err != nil {
		return fmt.Errorf("failed to update checkup %s: %w", c.ID, err)
	}

	return requireAffected(result, c.ID)
}

// UpdateStatus changes only the commercial status of a checkup
func (r *Repository) UpdateStatus(ctx context.Context, id string, status domain.Status) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE checkups SET status = ?, updated_at = ? WHERE id = ?`,
		string(status), time.Now().Unix(), id)
	if err != nil {
		return fmt.Errorf("failed to update status of checkup %s: %w", id, err)
	}

	if err := requireAffected(result, id); err != nil {
		return err
	}

	r.log.Info().Str("checkup_id", id).Str("status", string(status)).Msg("Checkup status updated")
	return nil
}

// DeleteStalePreviews removes unpaid checkups untouched since before.
//
// Returns:
//   - int64: number of deleted checkups
//   - error: error if the delete fails
func (r *Repository) DeleteStalePreviews(ctx context.Context, before time.Time) (int64, error) {
	done := utils.MeasureDBQuery("delete_stale_previews", r.log)

	result, err := r.db.ExecContext(ctx,
		`DELETE FROM checkups WHERE status = ? AND updated_at < ?`,
		string(domain.StatusPreview), before.Unix())
	if err != nil {
		return 0, fmt.Errorf("failed to delete stale previews: %w", err)
	}

	deleted, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to count deleted previews: %w", err)
	}
	done(deleted)
	return deleted, nil
}

// CountByStatus returns the number of checkups per status
func (r *Repository) CountByStatus(ctx context.Context) (map[domain.Status]int, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT status, COUNT(*) FROM checkups GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("failed to count checkups: %w", err)
	}
	defer rows.Close()

	counts := make(map[domain.Status]int)
	for rows.Next() {
		var status string
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			r.log.Warn().Err(err).Msg("Failed to scan status count row")
			continue
		}
		counts[domain.Status(status)] = n
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating status counts: %w", err)
	}
	return counts, nil
}

func requireAffected(result sql.Result, id string) error {
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check affected rows for checkup %s: %w", id, err)
	}
	if n == 0 {
		return fmt.Errorf("checkup %s: %w", id, domain.ErrNotFound)
	}
	return nil
}

// checkupRow is the column form of a checkup
type checkupRow struct {
	id            string
	status        string
	step          string
	profile       sql.NullString
	policyProfile sql.NullString
	holdings      string
	parseErrors   string
	confidence    sql.NullFloat64
	analytics     sql.NullString
	score         sql.NullInt64
	report        sql.NullString
	createdAt     int64
	updatedAt     int64
}

func (r checkupRow) args() []any {
	return []any{
		r.id, r.status, r.step, r.profile, r.policyProfile, r.holdings, r.parseErrors,
		r.confidence, r.analytics, r.score, r.report, r.createdAt, r.updatedAt,
	}
}

func encodeRow(c *domain.Checkup) (checkupRow, error) {
	row := checkupRow{
		id:        c.ID,
		status:    string(c.Status),
		step:      string(c.Step),
		createdAt: c.CreatedAt.Unix(),
		updatedAt: c.UpdatedAt.Unix(),
	}

	var err error
	if row.profile, err = nullJSON(c.Profile, c.Profile == nil); err != nil {
		return row, err
	}
	if row.policyProfile, err = nullJSON(c.PolicyProfile, c.PolicyProfile == nil); err != nil {
		return row, err
	}
	if row.analytics, err = nullJSON(c.Analytics, c.Analytics == nil); err != nil {
		return row, err
	}
	if row.report, err = nullJSON(c.Report, c.Report == nil); err != nil {
		return row, err
	}

	holdings := c.Holdings
	if holdings == nil {
		holdings = []domain.TypedHolding{}
	}
	data, err := json.Marshal(holdings)
	if err != nil {
		return row, fmt.Errorf("holdings: %w", err)
	}
	row.holdings = string(data)

	parseErrors := c.ParseErrors
	if parseErrors == nil {
		parseErrors = []string{}
	}
	if data, err = json.Marshal(parseErrors); err != nil {
		return row, fmt.Errorf("parse errors: %w", err)
	}
	row.parseErrors = string(data)

	if c.ClassificationConfidence != nil {
		row.confidence = sql.NullFloat64{Float64: *c.ClassificationConfidence, Valid: true}
	}
	if c.Score != nil {
		row.score = sql.NullInt64{Int64: int64(*c.Score), Valid: true}
	}

	return row, nil
}

func nullJSON(v any, isNil bool) (sql.NullString, error) {
	if isNil {
		return sql.NullString{}, nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return sql.NullString{}, err
	}
	return sql.NullString{String: string(data), Valid: true}, nil
}

func scanCheckup(s interface{ Scan(dest ...any) error }) (*domain.Checkup, error) {
	var row checkupRow
	err := s.Scan(&row.id, &row.status, &row.step, &row.profile, &row.policyProfile, &row.holdings,
		&row.parseErrors, &row.confidence, &row.analytics, &row.score, &row.report,
		&row.createdAt, &row.updatedAt)
	if err != nil {
		return nil, err
	}

	c := &domain.Checkup{
		ID:        row.id,
		Status:    domain.Status(row.status),
		Step:      flow.State(row.step),
		CreatedAt: time.Unix(row.createdAt, 0).UTC(),
		UpdatedAt: time.Unix(row.updatedAt, 0).UTC(),
	}

	if err := json.Unmarshal([]byte(row.holdings), &c.Holdings); err != nil {
		return nil, fmt.Errorf("failed to decode holdings: %w", err)
	}
	if err := json.Unmarshal([]byte(row.parseErrors), &c.ParseErrors); err != nil {
		return nil, fmt.Errorf("failed to decode parse errors: %w", err)
	}

	if row.profile.Valid {
		c.Profile = &domain.UserProfile{}
		if err := json.Unmarshal([]byte(row.profile.String), c.Profile); err != nil {
			return nil, fmt.Errorf("failed to decode profile: %w", err)
		}
	}
	if row.policyProfile.Valid {
		c.PolicyProfile = &domain.PolicyProfile{}
		if err := json.Unmarshal([]byte(row.policyProfile.String), c.PolicyProfile); err != nil {
			return nil, fmt.Errorf("failed to decode policy profile: %w", err)
		}
	}
	if row.analytics.Valid {
		c.Analytics = &domain.Analytics{}
		if err := json.Unmarshal([]byte(row.analytics.String), c.Analytics); err != nil {
			return nil, fmt.Errorf("failed to decode analytics: %w", err)
		}
	}
	if row.report.Valid {
		c.Report = &domain.DiagnosisReport{}
		if err := json.Unmarshal([]byte(row.report.String), c.Report); err != nil {
			return nil, fmt.Errorf("failed to decode report: %w", err)
		}
	}

	if row.confidence.Valid {
		c.ClassificationConfidence = domain.Float(row.confidence.Float64)
	}
	if row.score.Valid {
		score := int(row.score.Int64)
		c.Score = &score
	}

	return c, nil
}
