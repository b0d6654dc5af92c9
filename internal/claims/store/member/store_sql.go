package member

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"opdclaims/internal/claims/models"
	"opdclaims/internal/platform/database"
	"opdclaims/pkg/platform/sentinel"
	txcontext "opdclaims/pkg/platform/tx"
)

const dateLayout = "2006-01-02"

const memberColumns = `id, name, policy_id, join_date, gender, annual_limit_used, created_at`

// SQLStore persists members in Postgres or SQLite. Calls join a transaction
// carried in ctx.
type SQLStore struct {
	db      *sql.DB
	dialect database.Dialect
}

func NewSQL(db *sql.DB, dialect database.Dialect) *SQLStore {
	return &SQLStore{db: db, dialect: dialect}
}

func (s *SQLStore) FindMember(ctx context.Context, memberID string) (*models.Member, error) {
	row := txcontext.Executor(ctx, s.db).QueryRowContext(ctx,
		s.dialect.Rebind(`SELECT `+memberColumns+` FROM members WHERE id = ?`), memberID)
	m, err := scanMember(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("member %s: %w", memberID, sentinel.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("find member: %w", err)
	}
	return m, nil
}

func (s *SQLStore) ListMembers(ctx context.Context) ([]*models.Member, error) {
	rows, err := txcontext.Executor(ctx, s.db).QueryContext(ctx,
		`SELECT `+memberColumns+` FROM members ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list members: %w", err)
	}
	defer rows.Close()

	var out []*models.Member
	for rows.Next() {
		m, err := scanMember(rows)
		if err != nil {
			return nil, fmt.Errorf("scan member: %w", err)
		}
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate members: %w", err)
	}
	return out, nil
}

func (s *SQLStore) CreateMember(ctx context.Context, m *models.Member) error {
	_, err := txcontext.Executor(ctx, s.db).ExecContext(ctx, s.dialect.Rebind(`
		INSERT INTO members (`+memberColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?)`),
		memberArgs(m)...)
	if database.IsUniqueViolation(err) {
		return fmt.Errorf("member %s: %w", m.ID, sentinel.ErrConflict)
	}
	if err != nil {
		return fmt.Errorf("create member: %w", err)
	}
	return nil
}

// AddToAnnualLimitUsed increments the used limit in a single statement so
// concurrent approvals for one member cannot lose updates.
func (s *SQLStore) AddToAnnualLimitUsed(ctx context.Context, memberID string, amount float64) (float64, error) {
	if amount < 0 {
		return 0, fmt.Errorf("annual limit increment must not be negative: %.2f", amount)
	}
	var used float64
	err := txcontext.Executor(ctx, s.db).QueryRowContext(ctx, s.dialect.Rebind(`
		UPDATE members SET annual_limit_used = annual_limit_used + ?
		WHERE id = ?
		RETURNING annual_limit_used`),
		amount, memberID).Scan(&used)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("member %s: %w", memberID, sentinel.ErrNotFound)
	}
	if err != nil {
		return 0, fmt.Errorf("update annual limit: %w", err)
	}
	return used, nil
}

// Seed inserts members whose IDs are not present yet and reports how many
// were added.
func (s *SQLStore) Seed(ctx context.Context, members []*models.Member) (int, error) {
	exec := txcontext.Executor(ctx, s.db)
	query := s.dialect.Rebind(`
		INSERT INTO members (` + memberColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO NOTHING`)
	added := 0
	for _, m := range members {
		res, err := exec.ExecContext(ctx, query, memberArgs(m)...)
		if err != nil {
			return added, fmt.Errorf("seed member %s: %w", m.ID, err)
		}
		if n, err := res.RowsAffected(); err == nil {
			added += int(n)
		}
	}
	return added, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanMember(row scanner) (*models.Member, error) {
	var (
		m        models.Member
		joinDate string
		gender   string
	)
	if err := row.Scan(&m.ID, &m.Name, &m.PolicyID, &joinDate, &gender, &m.AnnualLimitUsed, &m.CreatedAt); err != nil {
		return nil, err
	}
	join, err := time.Parse(dateLayout, joinDate)
	if err != nil {
		return nil, fmt.Errorf("member %s join date %q: %w", m.ID, joinDate, err)
	}
	m.JoinDate = join
	m.Gender = models.Gender(gender)
	m.CreatedAt = m.CreatedAt.UTC()
	return &m, nil
}

func memberArgs(m *models.Member) []any {
	return []any{
		m.ID,
		m.Name,
		m.PolicyID,
		m.JoinDate.Format(dateLayout),
		string(m.Gender),
		m.AnnualLimitUsed,
		m.CreatedAt.UTC(),
	}
}
