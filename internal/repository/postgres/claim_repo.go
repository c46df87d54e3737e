package postgres

import (
	"context"
	"errors"
	"fmt"

	"insurance-service/internal/domain/claim"
	xerrors "insurance-service/internal/pkg/errors"

	"github.com/jackc/pgx/v5"
)

type ClaimRepository struct {
	db *DB
}

func NewClaimRepository(db *DB) *ClaimRepository {
	return &ClaimRepository{db: db}
}

const claimSelect = `
	SELECT cl.id, cl.claim_number, cl.policy_id, COALESCE(p.name, ''), cl.customer_id,
	       COALESCE(cu.first_name || ' ' || cu.last_name, ''), cl.agent_id, cl.claim_type,
	       cl.incident_date, cl.description, cl.requested_amount::float8, cl.approved_amount::float8,
	       cl.status, cl.created_at, cl.updated_at
	FROM claims cl
	LEFT JOIN policies p ON p.id = cl.policy_id
	LEFT JOIN customers cu ON cu.id = cl.customer_id
`

func scanClaim(row rowScanner) (*claim.Claim, error) {
	var c claim.Claim
	err := row.Scan(
		&c.ID, &c.ClaimNumber, &c.PolicyID, &c.PolicyName, &c.CustomerID,
		&c.CustomerName, &c.AgentID, &c.ClaimType,
		&c.IncidentDate, &c.Description, &c.RequestedAmount, &c.ApprovedAmount,
		&c.Status, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// Create inserts the claim together with its opening timeline entries.
func (r *ClaimRepository) Create(ctx context.Context, c *claim.Claim) error {
	return r.db.WithTx(ctx, func(tx pgx.Tx) error {
		query := `
			INSERT INTO claims (
				claim_number, policy_id, customer_id, agent_id, claim_type, incident_date,
				description, requested_amount, status
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
			RETURNING id, created_at, updated_at
		`
		err := tx.QueryRow(ctx, query,
			c.ClaimNumber, c.PolicyID, c.CustomerID, c.AgentID, c.ClaimType, c.IncidentDate,
			c.Description, c.RequestedAmount, c.Status,
		).Scan(&c.ID, &c.CreatedAt, &c.UpdatedAt)
		if err != nil {
			return mapError(err, "claim")
		}

		for i := range c.Timeline {
			c.Timeline[i].ClaimID = c.ID
			if err := insertTimeline(ctx, tx, &c.Timeline[i]); err != nil {
				return err
			}
		}
		return nil
	})
}

// SaveTransition persists a status change and its timeline entry atomically.
// The update is guarded on the previous status so concurrent decisions on the
// same claim cannot both succeed.
func (r *ClaimRepository) SaveTransition(ctx context.Context, c *claim.Claim, from claim.Status, entry *claim.TimelineEntry) error {
	return r.db.WithTx(ctx, func(tx pgx.Tx) error {
		err := tx.QueryRow(ctx, `
			UPDATE claims SET status = $2, approved_amount = $3, updated_at = $4
			WHERE id = $1 AND status = $5
			RETURNING updated_at`,
			c.ID, c.Status, c.ApprovedAmount, entry.CreatedAt, from,
		).Scan(&c.UpdatedAt)
		if errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("claim %d is no longer %s: %w", c.ID, from, xerrors.ErrConflict)
		}
		if err != nil {
			return mapError(err, "claim")
		}

		entry.ClaimID = c.ID
		return insertTimeline(ctx, tx, entry)
	})
}

func insertTimeline(ctx context.Context, tx pgx.Tx, e *claim.TimelineEntry) error {
	err := tx.QueryRow(ctx, `
		INSERT INTO claim_timeline (claim_id, status, note, created_at)
		VALUES ($1, $2, $3, $4) RETURNING id`,
		e.ClaimID, e.Status, e.Note, e.CreatedAt,
	).Scan(&e.ID)
	return mapError(err, "claim timeline")
}

func (r *ClaimRepository) FindByID(ctx context.Context, id int64) (*claim.Claim, error) {
	c, err := scanClaim(r.db.pool.QueryRow(ctx, claimSelect+` WHERE cl.id = $1`, id))
	if err != nil {
		return nil, mapError(err, "claim")
	}
	return c, nil
}

func (r *ClaimRepository) List(ctx context.Context, filters *claim.ListFilters) ([]claim.Claim, int64, error) {
	w := &where{}
	if filters.AgentID != nil {
		w.add("cl.agent_id = $%d", *filters.AgentID)
	}
	if filters.Status != nil {
		w.add("cl.status = $%d", *filters.Status)
	}
	if filters.PolicyID != nil {
		w.add("cl.policy_id = $%d", *filters.PolicyID)
	}
	if filters.CustomerID != nil {
		w.add("cl.customer_id = $%d", *filters.CustomerID)
	}
	if filters.Search != "" {
		w.search(filters.Search, "cl.claim_number", "cl.claim_type",
			"cu.first_name || ' ' || cu.last_name", "p.name")
	}

	var total int64
	countQuery := fmt.Sprintf(`
		SELECT COUNT(*) FROM claims cl
		LEFT JOIN policies p ON p.id = cl.policy_id
		LEFT JOIN customers cu ON cu.id = cl.customer_id
		WHERE %s`, w.clause())
	if err := r.db.pool.QueryRow(ctx, countQuery, w.args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count claims: %w", err)
	}

	limit, offset := page(&filters.Page, &filters.PageSize)
	query := fmt.Sprintf(`%s WHERE %s ORDER BY cl.created_at DESC LIMIT $%d OFFSET $%d`,
		claimSelect, w.clause(), w.next(), w.next()+1)

	rows, err := r.db.pool.Query(ctx, query, append(w.args, limit, offset)...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list claims: %w", err)
	}
	defer rows.Close()

	claims := []claim.Claim{}
	for rows.Next() {
		c, err := scanClaim(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan claim: %w", err)
		}
		claims = append(claims, *c)
	}
	return claims, total, rows.Err()
}

func (r *ClaimRepository) Timeline(ctx context.Context, claimID int64) ([]claim.TimelineEntry, error) {
	rows, err := r.db.pool.Query(ctx, `
		SELECT id, claim_id, status, note, created_at
		FROM claim_timeline WHERE claim_id = $1 ORDER BY created_at, id`, claimID)
	if err != nil {
		return nil, fmt.Errorf("failed to load timeline: %w", err)
	}
	defer rows.Close()

	entries := []claim.TimelineEntry{}
	for rows.Next() {
		var e claim.TimelineEntry
		if err := rows.Scan(&e.ID, &e.ClaimID, &e.Status, &e.Note, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan timeline entry: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func (r *ClaimRepository) AddNote(ctx context.Context, n *claim.Note) error {
	err := r.db.pool.QueryRow(ctx, `
		WITH inserted AS (
			INSERT INTO claim_notes (claim_id, author_id, note) VALUES ($1, $2, $3)
			RETURNING id, author_id, created_at
		)
		SELECT i.id, i.created_at, COALESCE(u.full_name, '')
		FROM inserted i LEFT JOIN users u ON u.id = i.author_id`,
		n.ClaimID, n.AuthorID, n.Note,
	).Scan(&n.ID, &n.CreatedAt, &n.AuthorName)
	return mapError(err, "claim note")
}

func (r *ClaimRepository) Notes(ctx context.Context, claimID int64) ([]claim.Note, error) {
	rows, err := r.db.pool.Query(ctx, `
		SELECT n.id, n.claim_id, n.author_id, COALESCE(u.full_name, ''), n.note, n.created_at
		FROM claim_notes n LEFT JOIN users u ON u.id = n.author_id
		WHERE n.claim_id = $1 ORDER BY n.created_at, n.id`, claimID)
	if err != nil {
		return nil, fmt.Errorf("failed to load notes: %w", err)
	}
	defer rows.Close()

	notes := []claim.Note{}
	for rows.Next() {
		var n claim.Note
		if err := rows.Scan(&n.ID, &n.ClaimID, &n.AuthorID, &n.AuthorName, &n.Note, &n.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan note: %w", err)
		}
		notes = append(notes, n)
	}
	return notes, rows.Err()
}

func (r *ClaimRepository) AddDocument(ctx context.Context, d *claim.Document) error {
	err := r.db.pool.QueryRow(ctx, `
		INSERT INTO claim_documents (claim_id, display_name, content_type, size_bytes, storage_key, checksum, uploaded_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING id, uploaded_at`,
		d.ClaimID, d.Name, d.ContentType, d.Size, d.StorageKey, d.Checksum, d.UploadedBy,
	).Scan(&d.ID, &d.UploadedAt)
	return mapError(err, "claim document")
}

const claimDocumentColumns = `id, claim_id, display_name, content_type, size_bytes, storage_key, checksum, uploaded_by, uploaded_at`

func scanClaimDocument(row rowScanner) (*claim.Document, error) {
	var d claim.Document
	err := row.Scan(&d.ID, &d.ClaimID, &d.Name, &d.ContentType, &d.Size, &d.StorageKey, &d.Checksum, &d.UploadedBy, &d.UploadedAt)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func (r *ClaimRepository) Documents(ctx context.Context, claimID int64) ([]claim.Document, error) {
	rows, err := r.db.pool.Query(ctx, `SELECT `+claimDocumentColumns+`
		FROM claim_documents WHERE claim_id = $1 ORDER BY uploaded_at, id`, claimID)
	if err != nil {
		return nil, fmt.Errorf("failed to load claim documents: %w", err)
	}
	defer rows.Close()

	docs := []claim.Document{}
	for rows.Next() {
		d, err := scanClaimDocument(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan claim document: %w", err)
		}
		docs = append(docs, *d)
	}
	return docs, rows.Err()
}

func (r *ClaimRepository) FindDocument(ctx context.Context, id int64) (*claim.Document, error) {
	d, err := scanClaimDocument(r.db.pool.QueryRow(ctx, `SELECT `+claimDocumentColumns+` FROM claim_documents WHERE id = $1`, id))
	if err != nil {
		return nil, mapError(err, "claim document")
	}
	return d, nil
}
