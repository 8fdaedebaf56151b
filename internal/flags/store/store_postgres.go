package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"kycgate/internal/flags/models"
	"kycgate/internal/platform/postgres"
	"kycgate/pkg/domain"
	txcontext "kycgate/pkg/platform/tx"
)

// PostgresStore persists flags in compliance_flags and their history in
// flag_audit_events.
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

type flagRow struct {
	ID              uuid.UUID  `db:"id"`
	EntityType      string     `db:"entity_type"`
	EntityID        string     `db:"entity_id"`
	Network         string     `db:"network"`
	FlagType        string     `db:"flag_type"`
	Severity        string     `db:"severity"`
	Reason          string     `db:"reason"`
	FlagData        []byte     `db:"flag_data"`
	RiskScore       *float64   `db:"risk_score"`
	CountryCode     string     `db:"country_code"`
	Region          string     `db:"region"`
	Status          string     `db:"status"`
	Disposition     string     `db:"disposition"`
	ResolvedBy      *string    `db:"resolved_by"`
	ResolutionNotes *string    `db:"resolution_notes"`
	ResolutionData  []byte     `db:"resolution_data"`
	ResolvedAt      *time.Time `db:"resolved_at"`
	CreatedAt       time.Time  `db:"created_at"`
	UpdatedAt       time.Time  `db:"updated_at"`
}

const flagColumns = `id, entity_type, entity_id, network, flag_type, severity, reason,
	flag_data, risk_score, country_code, region, status, disposition,
	resolved_by, resolution_notes, resolution_data, resolved_at, created_at, updated_at`

func (r flagRow) toModel() *models.Flag {
	f := &models.Flag{
		ID:          domain.FlagID(r.ID),
		EntityType:  domain.EntityType(r.EntityType),
		EntityID:    r.EntityID,
		Network:     domain.Network(r.Network),
		Type:        domain.FlagType(r.FlagType),
		Severity:    domain.Severity(r.Severity),
		Reason:      r.Reason,
		RiskScore:   r.RiskScore,
		CountryCode: r.CountryCode,
		Region:      r.Region,
		Status:      domain.FlagStatus(r.Status),
		Disposition: domain.Disposition(r.Disposition),
		CreatedAt:   r.CreatedAt.UTC(),
		UpdatedAt:   r.UpdatedAt.UTC(),
	}
	if len(r.FlagData) > 0 {
		f.Data = json.RawMessage(r.FlagData)
	}
	if len(r.ResolutionData) > 0 {
		f.ResolutionData = json.RawMessage(r.ResolutionData)
	}
	if r.ResolvedBy != nil {
		f.ResolvedBy = *r.ResolvedBy
	}
	if r.ResolutionNotes != nil {
		f.ResolutionNotes = *r.ResolutionNotes
	}
	if r.ResolvedAt != nil {
		t := r.ResolvedAt.UTC()
		f.ResolvedAt = &t
	}
	return f
}

// jsonArg passes raw JSON as text so jsonb columns accept it.
func jsonArg(raw json.RawMessage) any {
	if len(raw) == 0 {
		return nil
	}
	return string(raw)
}

func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func (s *PostgresStore) Create(ctx context.Context, f *models.Flag) error {
	query := `INSERT INTO compliance_flags (
		id, entity_type, entity_id, network, flag_type, severity, severity_rank, reason,
		flag_data, risk_score, country_code, region, status, disposition, created_at, updated_at
	) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)`
	_, err := s.execer(ctx).ExecContext(ctx, query,
		uuid.UUID(f.ID), f.EntityType.String(), f.EntityID, f.Network.String(),
		f.Type.String(), f.Severity.String(), f.Severity.Rank(), f.Reason,
		jsonArg(f.Data), f.RiskScore, f.CountryCode, f.Region,
		f.Status.String(), f.Disposition.String(), f.CreatedAt, f.UpdatedAt,
	)
	if err != nil {
		if postgres.IsUniqueViolation(err) {
			return ErrConflict
		}
		return fmt.Errorf("insert flag: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, id domain.FlagID) (*models.Flag, error) {
	return s.find(ctx, id, false)
}

func (s *PostgresStore) find(ctx context.Context, id domain.FlagID, forUpdate bool) (*models.Flag, error) {
	query := `SELECT ` + flagColumns + ` FROM compliance_flags WHERE id = $1`
	if forUpdate {
		query += ` FOR UPDATE`
	}
	var row flagRow
	if err := sqlx.GetContext(ctx, s.execer(ctx), &row, query, uuid.UUID(id)); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("find flag: %w", err)
	}
	return row.toModel(), nil
}

// Execute locks the row with FOR UPDATE when called inside a transaction,
// validates, mutates and writes back the mutable columns.
func (s *PostgresStore) Execute(ctx context.Context, id domain.FlagID, validate func(*models.Flag) error, mutate func(*models.Flag)) (*models.Flag, error) {
	f, err := s.find(ctx, id, true)
	if err != nil {
		return nil, err
	}
	if err := validate(f); err != nil {
		return nil, err
	}
	mutate(f)

	query := `UPDATE compliance_flags SET
		status = $2, disposition = $3, resolved_by = $4, resolution_notes = $5,
		resolution_data = $6, resolved_at = $7, updated_at = $8
		WHERE id = $1`
	res, err := s.execer(ctx).ExecContext(ctx, query,
		uuid.UUID(f.ID), f.Status.String(), f.Disposition.String(),
		nullString(f.ResolvedBy), nullString(f.ResolutionNotes),
		jsonArg(f.ResolutionData), f.ResolvedAt, f.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("update flag: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return nil, ErrNotFound
	}
	return f, nil
}

var orderColumns = map[models.SortField]string{
	models.SortByCreatedAt: "created_at",
	models.SortByUpdatedAt: "updated_at",
	models.SortByRiskScore: "risk_score",
	models.SortBySeverity:  "severity_rank",
}

func orderBy(field models.SortField, order models.SortOrder) string {
	col, ok := orderColumns[field]
	if !ok {
		col = "created_at"
	}
	dir := "DESC"
	if order == models.SortAsc {
		dir = "ASC"
	}
	return fmt.Sprintf(" ORDER BY %s %s NULLS LAST, created_at DESC, id DESC", col, dir)
}

func (s *PostgresStore) List(ctx context.Context, q models.ListQuery) (models.ListResult, error) {
	where, args := buildWhere(q.Filter)
	ext := s.execer(ctx)

	res := models.ListResult{Limit: q.Limit, Offset: q.Offset, Items: []*models.Flag{}}
	if err := sqlx.GetContext(ctx, ext, &res.Total, ext.Rebind(`SELECT COUNT(*) FROM compliance_flags`+where), args...); err != nil {
		return models.ListResult{}, fmt.Errorf("count flags: %w", err)
	}

	var rows []flagRow
	query := `SELECT ` + flagColumns + ` FROM compliance_flags` + where + orderBy(q.SortBy, q.Order) + ` LIMIT ? OFFSET ?`
	if err := sqlx.SelectContext(ctx, ext, &rows, ext.Rebind(query), append(args, q.Limit, q.Offset)...); err != nil {
		return models.ListResult{}, fmt.Errorf("list flags: %w", err)
	}
	for _, row := range rows {
		res.Items = append(res.Items, row.toModel())
	}
	return res, nil
}

func (s *PostgresStore) ListAll(ctx context.Context, filter models.Filter) ([]*models.Flag, error) {
	where, args := buildWhere(filter)
	ext := s.execer(ctx)

	var rows []flagRow
	if err := sqlx.SelectContext(ctx, ext, &rows, ext.Rebind(`SELECT `+flagColumns+` FROM compliance_flags`+where), args...); err != nil {
		return nil, fmt.Errorf("list flags: %w", err)
	}
	out := make([]*models.Flag, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toModel())
	}
	return out, nil
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
	if f.EntityType != "" {
		add("entity_type = ?", f.EntityType.String())
	}
	if f.EntityID != "" {
		add("entity_id = ?", f.EntityID)
	}
	if f.Type != "" {
		add("flag_type = ?", f.Type.String())
	}
	if f.Severity != "" {
		add("severity = ?", f.Severity.String())
	}
	if f.Status != "" {
		add("status = ?", f.Status.String())
	}
	if f.Network != "" {
		add("network = ?", f.Network.String())
	}
	if f.CountryCode != "" {
		add("country_code = ?", f.CountryCode)
	}
	if f.Region != "" {
		add("region = ?", f.Region)
	}
	if f.CreatedFrom != nil {
		add("created_at >= ?", *f.CreatedFrom)
	}
	if f.CreatedTo != nil {
		add("created_at <= ?", *f.CreatedTo)
	}
	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

type eventRow struct {
	ID         uuid.UUID `db:"id"`
	FlagID     uuid.UUID `db:"flag_id"`
	Action     string    `db:"action"`
	FromStatus string    `db:"from_status"`
	ToStatus   string    `db:"to_status"`
	Actor      string    `db:"actor"`
	Notes      string    `db:"notes"`
	CreatedAt  time.Time `db:"created_at"`
}

func (s *PostgresStore) AppendEvent(ctx context.Context, e models.FlagAuditEvent) error {
	query := `INSERT INTO flag_audit_events (id, flag_id, action, from_status, to_status, actor, notes, created_at)
		VALUES (:id, :flag_id, :action, :from_status, :to_status, :actor, :notes, :created_at)`
	row := eventRow{
		ID:         uuid.UUID(e.ID),
		FlagID:     uuid.UUID(e.FlagID),
		Action:     string(e.Action),
		FromStatus: e.FromStatus.String(),
		ToStatus:   e.ToStatus.String(),
		Actor:      e.Actor,
		Notes:      e.Notes,
		CreatedAt:  e.CreatedAt,
	}
	if _, err := sqlx.NamedExecContext(ctx, s.execer(ctx), query, row); err != nil {
		return fmt.Errorf("insert flag audit event: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListEvents(ctx context.Context, flagID domain.FlagID) ([]models.FlagAuditEvent, error) {
	var rows []eventRow
	query := `SELECT id, flag_id, action, from_status, to_status, actor, notes, created_at
		FROM flag_audit_events WHERE flag_id = $1 ORDER BY created_at, id`
	if err := sqlx.SelectContext(ctx, s.execer(ctx), &rows, query, uuid.UUID(flagID)); err != nil {
		return nil, fmt.Errorf("list flag audit events: %w", err)
	}
	out := make([]models.FlagAuditEvent, 0, len(rows))
	for _, r := range rows {
		out = append(out, models.FlagAuditEvent{
			ID:         domain.AuditEventID(r.ID),
			FlagID:     domain.FlagID(r.FlagID),
			Action:     models.AuditAction(r.Action),
			FromStatus: domain.FlagStatus(r.FromStatus),
			ToStatus:   domain.FlagStatus(r.ToStatus),
			Actor:      r.Actor,
			Notes:      r.Notes,
			CreatedAt:  r.CreatedAt.UTC(),
		})
	}
	return out, nil
}
