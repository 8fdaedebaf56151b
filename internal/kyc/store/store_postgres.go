package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"kycgate/internal/identity"
	"kycgate/internal/kyc/models"
	"kycgate/internal/platform/postgres"
	"kycgate/pkg/domain"
	txcontext "kycgate/pkg/platform/tx"
)

// PostgresStore persists verifications in kyc_verifications.
type PostgresStore struct {
	db *sqlx.DB
}

func NewPostgres(db *sqlx.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) execer(ctx context.Context) sqlx.ExtContext {
	if tx, ok := txcontext.From(ctx); ok {
		return tx
	}
	return s.db
}

type verificationRow struct {
	VerificationID   string         `db:"verification_id"`
	AccountID        string         `db:"account_id"`
	Network          string         `db:"network"`
	VerificationType string         `db:"verification_type"`
	FirstName        string         `db:"first_name"`
	LastName         string         `db:"last_name"`
	DateOfBirth      string         `db:"date_of_birth"`
	Nationality      string         `db:"nationality"`
	DocumentType     string         `db:"document_type"`
	DocumentNumber   string         `db:"document_number"`
	DocumentCountry  string         `db:"document_country"`
	BVN              string         `db:"bvn"`
	NIN              string         `db:"nin"`
	SAIDNumber       string         `db:"sa_id_number"`
	GhanaCard        string         `db:"ghana_card"`
	SubjectHash      string         `db:"subject_hash"`
	Status           string         `db:"status"`
	Provider         string         `db:"provider"`
	Score            *float64       `db:"score"`
	RiskLevel        string         `db:"risk_level"`
	Notes            string         `db:"notes"`
	ScreeningDetails pq.StringArray `db:"screening_details"`
	CreatedAt        time.Time      `db:"created_at"`
	UpdatedAt        time.Time      `db:"updated_at"`
	VerifiedAt       *time.Time     `db:"verified_at"`
	ExpiresAt        *time.Time     `db:"expires_at"`
}

const verificationColumns = `verification_id, account_id, network, verification_type,
	first_name, last_name, date_of_birth, nationality,
	document_type, document_number, document_country,
	bvn, nin, sa_id_number, ghana_card, subject_hash,
	status, provider, score, risk_level, notes, screening_details,
	created_at, updated_at, verified_at, expires_at`

func toRow(v *models.Verification) verificationRow {
	return verificationRow{
		VerificationID:   v.ID.String(),
		AccountID:        v.AccountID,
		Network:          v.Network.String(),
		VerificationType: v.Type.String(),
		FirstName:        v.Subject.FirstName,
		LastName:         v.Subject.LastName,
		DateOfBirth:      v.Subject.DateOfBirth,
		Nationality:      v.Subject.Nationality,
		DocumentType:     v.Subject.DocumentType,
		DocumentNumber:   v.Subject.DocumentNumber,
		DocumentCountry:  v.Subject.DocumentCountry,
		BVN:              v.Subject.BVN,
		NIN:              v.Subject.NIN,
		SAIDNumber:       v.Subject.SAIDNumber,
		GhanaCard:        v.Subject.GhanaCard,
		SubjectHash:      v.SubjectHash,
		Status:           v.Status.String(),
		Provider:         v.Provider,
		Score:            v.Score,
		RiskLevel:        v.RiskLevel.String(),
		Notes:            v.Notes,
		ScreeningDetails: pq.StringArray(v.ScreeningDetails),
		CreatedAt:        v.CreatedAt,
		UpdatedAt:        v.UpdatedAt,
		VerifiedAt:       v.VerifiedAt,
		ExpiresAt:        v.ExpiresAt,
	}
}

func (r verificationRow) toModel() *models.Verification {
	details := []string(r.ScreeningDetails)
	if details == nil {
		details = []string{}
	}
	return &models.Verification{
		ID:        domain.VerificationID(r.VerificationID),
		AccountID: r.AccountID,
		Network:   domain.Network(r.Network),
		Type:      domain.VerificationType(r.VerificationType),
		Subject: identity.Subject{
			FirstName:       r.FirstName,
			LastName:        r.LastName,
			DateOfBirth:     r.DateOfBirth,
			Nationality:     r.Nationality,
			DocumentType:    r.DocumentType,
			DocumentNumber:  r.DocumentNumber,
			DocumentCountry: r.DocumentCountry,
			BVN:             r.BVN,
			NIN:             r.NIN,
			SAIDNumber:      r.SAIDNumber,
			GhanaCard:       r.GhanaCard,
		},
		SubjectHash:      r.SubjectHash,
		Status:           domain.VerificationStatus(r.Status),
		Provider:         r.Provider,
		Score:            r.Score,
		RiskLevel:        domain.RiskLevel(r.RiskLevel),
		Notes:            r.Notes,
		ScreeningDetails: details,
		CreatedAt:        r.CreatedAt.UTC(),
		UpdatedAt:        r.UpdatedAt.UTC(),
		VerifiedAt:       utcPtr(r.VerifiedAt),
		ExpiresAt:        utcPtr(r.ExpiresAt),
	}
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}

func (s *PostgresStore) Create(ctx context.Context, v *models.Verification) error {
	query := `INSERT INTO kyc_verifications (` + verificationColumns + `) VALUES (
		:verification_id, :account_id, :network, :verification_type,
		:first_name, :last_name, :date_of_birth, :nationality,
		:document_type, :document_number, :document_country,
		:bvn, :nin, :sa_id_number, :ghana_card, :subject_hash,
		:status, :provider, :score, :risk_level, :notes, :screening_details,
		:created_at, :updated_at, :verified_at, :expires_at)`
	if _, err := sqlx.NamedExecContext(ctx, s.execer(ctx), query, toRow(v)); err != nil {
		if postgres.IsUniqueViolation(err) {
			return ErrConflict
		}
		return fmt.Errorf("insert verification: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, id domain.VerificationID) (*models.Verification, error) {
	var row verificationRow
	query := `SELECT ` + verificationColumns + ` FROM kyc_verifications WHERE verification_id = $1`
	if err := sqlx.GetContext(ctx, s.execer(ctx), &row, query, id.String()); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("find verification: %w", err)
	}
	return row.toModel(), nil
}

func (s *PostgresStore) List(ctx context.Context, q models.ListQuery) (models.ListResult, error) {
	where, args := buildWhere(q.Filter)
	ext := s.execer(ctx)

	res := models.ListResult{Limit: q.Limit, Offset: q.Offset, Items: []*models.Verification{}}
	if err := sqlx.GetContext(ctx, ext, &res.Total, ext.Rebind(`SELECT COUNT(*) FROM kyc_verifications`+where), args...); err != nil {
		return models.ListResult{}, fmt.Errorf("count verifications: %w", err)
	}

	var rows []verificationRow
	query := `SELECT ` + verificationColumns + ` FROM kyc_verifications` + where +
		` ORDER BY created_at DESC, verification_id DESC LIMIT ? OFFSET ?`
	if err := sqlx.SelectContext(ctx, ext, &rows, ext.Rebind(query), append(args, q.Limit, q.Offset)...); err != nil {
		return models.ListResult{}, fmt.Errorf("list verifications: %w", err)
	}
	for _, row := range rows {
		res.Items = append(res.Items, row.toModel())
	}
	return res, nil
}

func (s *PostgresStore) LatestStatus(ctx context.Context, accountID string, network domain.Network) (domain.VerificationStatus, error) {
	var status string
	query := `SELECT status FROM kyc_verifications
		WHERE account_id = $1 AND network = $2
		ORDER BY created_at DESC, verification_id DESC LIMIT 1`
	if err := sqlx.GetContext(ctx, s.execer(ctx), &status, query, accountID, network.String()); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("latest verification status: %w", err)
	}
	return domain.VerificationStatus(status), nil
}

func buildWhere(f models.Filter) (string, []any) {
	var (
		conds []string
		args  []any
	)
	add := func(cond string, arg any) {
		conds = append(conds, cond)
		args = append(args, arg)
	}
	if f.AccountID != "" {
		add("account_id = ?", f.AccountID)
	}
	if f.Status != "" {
		add("status = ?", f.Status.String())
	}
	if f.Type != "" {
		add("verification_type = ?", f.Type.String())
	}
	if f.Network != "" {
		add("network = ?", f.Network.String())
	}
	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}
