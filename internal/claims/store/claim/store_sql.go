package claim

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"opdclaims/internal/claims/models"
	"opdclaims/internal/platform/database"
	"opdclaims/pkg/platform/sentinel"
	txcontext "opdclaims/pkg/platform/tx"
)

const dateLayout = "2006-01-02"

const claimColumns = `id, member_id, submitted_at, treatment_date, total_amount, approved_amount, status,
	category, hospital_name, bill_number, is_network, pre_auth_number, created_at, updated_at`

// SQLStore persists claims in Postgres or SQLite. Documents and decisions
// are stored as JSON payloads next to their indexed columns.
type SQLStore struct {
	db      *sql.DB
	dialect database.Dialect
}

func NewSQL(db *sql.DB, dialect database.Dialect) *SQLStore {
	return &SQLStore{db: db, dialect: dialect}
}

func (s *SQLStore) q(query string) string {
	return s.dialect.Rebind(query)
}

// CreateClaim inserts the claim and its documents. Without a caller
// transaction both writes run in one of their own.
func (s *SQLStore) CreateClaim(ctx context.Context, rec *models.ClaimRecord, docs []models.Document) error {
	if _, ok := txcontext.From(ctx); !ok {
		return txcontext.NewRunner(s.db, 0).RunInTx(ctx, func(ctx context.Context) error {
			return s.CreateClaim(ctx, rec, docs)
		})
	}
	exec := txcontext.Executor(ctx, s.db)

	_, err := exec.ExecContext(ctx, s.q(`
		INSERT INTO claims (`+claimColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`),
		rec.ID,
		rec.MemberID,
		rec.SubmittedAt.UTC(),
		rec.TreatmentDate.Format(dateLayout),
		rec.TotalAmount,
		nullAmount(rec.ApprovedAmount),
		string(rec.Status),
		string(rec.Category),
		rec.HospitalName,
		rec.BillNumber,
		rec.IsNetwork,
		rec.PreAuthNumber,
		rec.CreatedAt.UTC(),
		rec.UpdatedAt.UTC(),
	)
	if database.IsUniqueViolation(err) {
		return fmt.Errorf("claim %s: %w", rec.ID, sentinel.ErrConflict)
	}
	if err != nil {
		return fmt.Errorf("insert claim: %w", err)
	}

	insertDoc := s.q(`
		INSERT INTO claim_documents (id, claim_id, position, document_type, filename, payload, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`)
	for i, d := range docs {
		if d.ID == "" {
			d.ID = uuid.NewString()
		}
		payload, err := json.Marshal(d)
		if err != nil {
			return fmt.Errorf("encode document %d: %w", i, err)
		}
		if _, err := exec.ExecContext(ctx, insertDoc,
			d.ID, rec.ID, i, string(d.Type), d.Filename, string(payload), rec.CreatedAt.UTC(),
		); err != nil {
			return fmt.Errorf("insert document %d: %w", i, err)
		}
	}
	return nil
}

func (s *SQLStore) GetClaim(ctx context.Context, claimID string) (*models.ClaimRecord, error) {
	row := txcontext.Executor(ctx, s.db).QueryRowContext(ctx,
		s.q(`SELECT `+claimColumns+` FROM claims WHERE id = ?`), claimID)
	rec, err := scanClaim(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("claim %s: %w", claimID, sentinel.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get claim: %w", err)
	}
	return rec, nil
}

// UpdateClaim writes the adjudication fields of an existing claim.
func (s *SQLStore) UpdateClaim(ctx context.Context, rec *models.ClaimRecord) error {
	res, err := txcontext.Executor(ctx, s.db).ExecContext(ctx, s.q(`
		UPDATE claims SET
			total_amount = ?, approved_amount = ?, status = ?, category = ?,
			hospital_name = ?, bill_number = ?, is_network = ?, updated_at = ?
		WHERE id = ?`),
		rec.TotalAmount,
		nullAmount(rec.ApprovedAmount),
		string(rec.Status),
		string(rec.Category),
		rec.HospitalName,
		rec.BillNumber,
		rec.IsNetwork,
		rec.UpdatedAt.UTC(),
		rec.ID,
	)
	if err != nil {
		return fmt.Errorf("update claim: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("claim %s: %w", rec.ID, sentinel.ErrNotFound)
	}
	return nil
}

// ListClaims returns claims newest first.
func (s *SQLStore) ListClaims(ctx context.Context, filter models.ClaimFilter) ([]*models.ClaimRecord, error) {
	filter = filter.Normalize()

	var (
		where []string
		args  []any
	)
	if filter.MemberID != "" {
		where = append(where, "member_id = ?")
		args = append(args, filter.MemberID)
	}
	if filter.Status != "" {
		where = append(where, "status = ?")
		args = append(args, string(filter.Status))
	}
	query := `SELECT ` + claimColumns + ` FROM claims`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}
	query += ` ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?`
	args = append(args, filter.Limit, filter.Skip)

	rows, err := txcontext.Executor(ctx, s.db).QueryContext(ctx, s.q(query), args...)
	if err != nil {
		return nil, fmt.Errorf("list claims: %w", err)
	}
	defer rows.Close()

	out := make([]*models.ClaimRecord, 0)
	for rows.Next() {
		rec, err := scanClaim(rows)
		if err != nil {
			return nil, fmt.Errorf("scan claim: %w", err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate claims: %w", err)
	}
	return out, nil
}

// Documents returns the claim's documents in submission order.
func (s *SQLStore) Documents(ctx context.Context, claimID string) ([]models.StoredDocument, error) {
	rows, err := txcontext.Executor(ctx, s.db).QueryContext(ctx, s.q(`
		SELECT payload, created_at FROM claim_documents
		WHERE claim_id = ?
		ORDER BY position`), claimID)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	defer rows.Close()

	out := make([]models.StoredDocument, 0)
	for rows.Next() {
		var (
			payload string
			created time.Time
		)
		if err := rows.Scan(&payload, &created); err != nil {
			return nil, fmt.Errorf("scan document: %w", err)
		}
		var d models.Document
		if err := json.Unmarshal([]byte(payload), &d); err != nil {
			return nil, fmt.Errorf("decode document: %w", err)
		}
		out = append(out, models.StoredDocument{ClaimID: claimID, Document: d, CreatedAt: created.UTC()})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate documents: %w", err)
	}
	return out, nil
}

func (s *SQLStore) SaveDecision(ctx context.Context, rec *models.DecisionRecord) error {
	payload, err := json.Marshal(rec.DecisionOutcome)
	if err != nil {
		return fmt.Errorf("encode decision: %w", err)
	}
	_, err = txcontext.Executor(ctx, s.db).ExecContext(ctx, s.q(`
		INSERT INTO decisions (id, claim_id, decision, policy_hash, payload, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`),
		rec.ID, rec.ClaimID, string(rec.Decision), rec.PolicyHash, string(payload), rec.CreatedAt.UTC(),
	)
	if database.IsUniqueViolation(err) {
		return fmt.Errorf("decision for claim %s: %w", rec.ClaimID, sentinel.ErrConflict)
	}
	if err != nil {
		return fmt.Errorf("insert decision: %w", err)
	}
	return nil
}

func (s *SQLStore) Decision(ctx context.Context, claimID string) (*models.DecisionRecord, error) {
	var (
		rec     models.DecisionRecord
		payload string
	)
	err := txcontext.Executor(ctx, s.db).QueryRowContext(ctx, s.q(`
		SELECT id, claim_id, policy_hash, payload, created_at FROM decisions WHERE claim_id = ?`), claimID).
		Scan(&rec.ID, &rec.ClaimID, &rec.PolicyHash, &payload, &rec.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("decision for claim %s: %w", claimID, sentinel.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get decision: %w", err)
	}
	if err := json.Unmarshal([]byte(payload), &rec.DecisionOutcome); err != nil {
		return nil, fmt.Errorf("decode decision: %w", err)
	}
	rec.CreatedAt = rec.CreatedAt.UTC()
	return &rec, nil
}

// -----------------------------------------------------------------------------
// Claim history
// -----------------------------------------------------------------------------

func (s *SQLStore) CountSameDay(ctx context.Context, memberID string, day time.Time, excludeClaimID string) (int, error) {
	var n int
	err := txcontext.Executor(ctx, s.db).QueryRowContext(ctx, s.q(`
		SELECT COUNT(*) FROM claims
		WHERE member_id = ? AND treatment_date = ? AND status NOT IN (?, ?) AND id <> ?`),
		memberID, day.Format(dateLayout),
		string(models.ClaimStatusRejected), string(models.ClaimStatusProcessing), excludeClaimID,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count same-day claims: %w", err)
	}
	return n, nil
}

func (s *SQLStore) CountInWindow(ctx context.Context, memberID string, from, to time.Time, excludeClaimID string) (int, error) {
	var n int
	err := txcontext.Executor(ctx, s.db).QueryRowContext(ctx, s.q(`
		SELECT COUNT(*) FROM claims
		WHERE member_id = ? AND treatment_date >= ? AND treatment_date <= ? AND status <> ? AND id <> ?`),
		memberID, from.Format(dateLayout), to.Format(dateLayout),
		string(models.ClaimStatusProcessing), excludeClaimID,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count claims in window: %w", err)
	}
	return n, nil
}

func (s *SQLStore) BillNumberInUse(ctx context.Context, billNumber string, excludeClaimID string) (bool, error) {
	if billNumber == "" {
		return false, nil
	}
	var n int
	err := txcontext.Executor(ctx, s.db).QueryRowContext(ctx, s.q(`
		SELECT COUNT(*) FROM claims
		WHERE bill_number = ? AND status NOT IN (?, ?) AND id <> ?`),
		billNumber, string(models.ClaimStatusRejected), string(models.ClaimStatusProcessing), excludeClaimID,
	).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("check bill number: %w", err)
	}
	return n > 0, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanClaim(row scanner) (*models.ClaimRecord, error) {
	var (
		rec       models.ClaimRecord
		treatment string
		approved  sql.NullFloat64
		status    string
		category  string
	)
	err := row.Scan(
		&rec.ID,
		&rec.MemberID,
		&rec.SubmittedAt,
		&treatment,
		&rec.TotalAmount,
		&approved,
		&status,
		&category,
		&rec.HospitalName,
		&rec.BillNumber,
		&rec.IsNetwork,
		&rec.PreAuthNumber,
		&rec.CreatedAt,
		&rec.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	td, err := time.Parse(dateLayout, treatment)
	if err != nil {
		return nil, fmt.Errorf("claim %s treatment date %q: %w", rec.ID, treatment, err)
	}
	rec.TreatmentDate = td
	if approved.Valid {
		v := approved.Float64
		rec.ApprovedAmount = &v
	}
	rec.Status = models.ClaimStatus(status)
	rec.Category = models.Category(category)
	rec.SubmittedAt = rec.SubmittedAt.UTC()
	rec.CreatedAt = rec.CreatedAt.UTC()
	rec.UpdatedAt = rec.UpdatedAt.UTC()
	return &rec, nil
}

func nullAmount(v *float64) sql.NullFloat64 {
	if v == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *v, Valid: true}
}
