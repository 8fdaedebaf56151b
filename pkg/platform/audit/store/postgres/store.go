package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	audit "kycgate/pkg/platform/audit"
	txcontext "kycgate/pkg/platform/tx"
)

// Store implements audit.Store using the transactional outbox pattern.
// Events are written to audit_outbox inside the caller's transaction and
// relayed to Kafka by the outbox worker.
type Store struct {
	db *sqlx.DB
}

// New creates a PostgreSQL audit store that writes to the outbox.
func New(db *sqlx.DB) *Store {
	return &Store{db: db}
}

func (s *Store) execer(ctx context.Context) sqlx.ExtContext {
	if tx, ok := txcontext.From(ctx); ok {
		return tx
	}
	return s.db
}

// Payload is the JSON document published for every outbox entry.
type Payload struct {
	ID            string `json:"id"`
	Category      string `json:"category"`
	Timestamp     string `json:"timestamp"`
	Subject       string `json:"subject"`
	Action        string `json:"action"`
	Decision      string `json:"decision,omitempty"`
	Reason        string `json:"reason,omitempty"`
	SubjectIDHash string `json:"subject_id_hash,omitempty"`
	RequestID     string `json:"request_id,omitempty"`
	ActorID       string `json:"actor_id,omitempty"`
	ClientIP      string `json:"client_ip,omitempty"`
}

// Entry is an outbox row awaiting publication.
type Entry struct {
	ID            uuid.UUID `db:"id"`
	AggregateType string    `db:"aggregate_type"`
	AggregateID   string    `db:"aggregate_id"`
	EventType     string    `db:"event_type"`
	Payload       []byte    `db:"payload"`
	CreatedAt     time.Time `db:"created_at"`
}

// Append writes an audit event to the outbox table.
func (s *Store) Append(ctx context.Context, event audit.Event) error {
	entryID := uuid.New()
	payload := Payload{
		ID:            entryID.String(),
		Category:      string(event.Action.Category()),
		Timestamp:     event.Timestamp.UTC().Format(time.RFC3339Nano),
		Subject:       event.Subject,
		Action:        string(event.Action),
		Decision:      event.Decision,
		Reason:        event.Reason,
		SubjectIDHash: event.SubjectIDHash,
		RequestID:     event.RequestID,
		ActorID:       event.ActorID,
		ClientIP:      event.ClientIP,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal audit payload: %w", err)
	}

	query := `
		INSERT INTO audit_outbox (id, aggregate_type, aggregate_id, event_type, payload, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err = s.execer(ctx).ExecContext(ctx, query,
		entryID,
		aggregateType(event.Action),
		event.Subject,
		string(event.Action),
		string(body),
		event.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("insert outbox entry: %w", err)
	}
	return nil
}

// FetchUnpublished returns up to limit entries in creation order.
func (s *Store) FetchUnpublished(ctx context.Context, limit int) ([]Entry, error) {
	query := `
		SELECT id, aggregate_type, aggregate_id, event_type, payload, created_at
		FROM audit_outbox
		WHERE published_at IS NULL
		ORDER BY created_at
		LIMIT $1
	`
	var entries []Entry
	if err := sqlx.SelectContext(ctx, s.db, &entries, query, limit); err != nil {
		return nil, fmt.Errorf("select outbox entries: %w", err)
	}
	return entries, nil
}

// MarkPublished stamps entries as delivered.
func (s *Store) MarkPublished(ctx context.Context, ids []uuid.UUID, at time.Time) error {
	if len(ids) == 0 {
		return nil
	}
	query, args, err := sqlx.In(`UPDATE audit_outbox SET published_at = ? WHERE id IN (?)`, at, ids)
	if err != nil {
		return fmt.Errorf("build mark published query: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, s.db.Rebind(query), args...); err != nil {
		return fmt.Errorf("mark outbox entries published: %w", err)
	}
	return nil
}

func aggregateType(action audit.AuditEvent) string {
	switch action {
	case audit.EventVerificationCompleted:
		return "verification"
	default:
		return "flag"
	}
}
