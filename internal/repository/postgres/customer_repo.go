// internal/repository/postgres/customer_repo.go
package postgres

import (
	"context"
	"fmt"

	"insurance-service/internal/domain/customer"
	"insurance-service/internal/domain/document"

	"github.com/jackc/pgx/v5"
)

type CustomerRepository struct {
	db *DB
}

func NewCustomerRepository(db *DB) *CustomerRepository {
	return &CustomerRepository{db: db}
}

const customerSelect = `
	SELECT c.id, c.reference, c.agent_id,
	       c.first_name, c.last_name, c.date_of_birth, c.gender, c.occupation, c.annual_income::float8,
	       c.email, c.phone, c.address_line1, c.address_line2, c.city, c.state, c.postal_code, c.country,
	       c.has_nominee, c.nominee_name, c.nominee_relationship, c.nominee_phone,
	       c.policy_id, COALESCE(p.name, ''), c.status, c.tags, c.created_at, c.updated_at
	FROM customers c
	LEFT JOIN policies p ON p.id = c.policy_id
`

func scanCustomer(row rowScanner) (*customer.Customer, error) {
	var c customer.Customer
	err := row.Scan(
		&c.ID, &c.Reference, &c.AgentID,
		&c.FirstName, &c.LastName, &c.DateOfBirth, &c.Gender, &c.Occupation, &c.AnnualIncome,
		&c.Email, &c.Phone, &c.AddressLine1, &c.AddressLine2, &c.City, &c.State, &c.PostalCode, &c.Country,
		&c.HasNominee, &c.NomineeName, &c.NomineeRelationship, &c.NomineePhone,
		&c.PolicyID, &c.PolicyName, &c.Status, &c.Tags, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// Create inserts the customer and its documents in one transaction.
func (r *CustomerRepository) Create(ctx context.Context, c *customer.Customer, docs []document.Record) error {
	return r.db.WithTx(ctx, func(tx pgx.Tx) error {
		query := `
			INSERT INTO customers (
				reference, agent_id, first_name, last_name, date_of_birth, gender, occupation, annual_income,
				email, phone, address_line1, address_line2, city, state, postal_code, country,
				has_nominee, nominee_name, nominee_relationship, nominee_phone, policy_id, status, tags
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21, $22, $23)
			RETURNING id, created_at, updated_at
		`
		err := tx.QueryRow(ctx, query,
			c.Reference, c.AgentID, c.FirstName, c.LastName, c.DateOfBirth, c.Gender, c.Occupation, c.AnnualIncome,
			c.Email, c.Phone, c.AddressLine1, c.AddressLine2, c.City, c.State, c.PostalCode, c.Country,
			c.HasNominee, c.NomineeName, c.NomineeRelationship, c.NomineePhone, c.PolicyID, c.Status, tags(c),
		).Scan(&c.ID, &c.CreatedAt, &c.UpdatedAt)
		if err != nil {
			return mapError(err, "customer")
		}

		for i := range docs {
			docs[i].CustomerID = c.ID
			if err := insertDocument(ctx, tx, &docs[i]); err != nil {
				return err
			}
		}
		return nil
	})
}

// Update writes the customer fields and attaches docs. A keyed document
// supersedes the current record of the same type; extra documents append.
func (r *CustomerRepository) Update(ctx context.Context, c *customer.Customer, docs []document.Record) error {
	return r.db.WithTx(ctx, func(tx pgx.Tx) error {
		query := `
			UPDATE customers SET
				first_name = $2, last_name = $3, date_of_birth = $4, gender = $5, occupation = $6,
				annual_income = $7, email = $8, phone = $9, address_line1 = $10, address_line2 = $11,
				city = $12, state = $13, postal_code = $14, country = $15, has_nominee = $16,
				nominee_name = $17, nominee_relationship = $18, nominee_phone = $19, policy_id = $20,
				status = $21, tags = $22, updated_at = NOW()
			WHERE id = $1
			RETURNING updated_at
		`
		err := tx.QueryRow(ctx, query, c.ID,
			c.FirstName, c.LastName, c.DateOfBirth, c.Gender, c.Occupation,
			c.AnnualIncome, c.Email, c.Phone, c.AddressLine1, c.AddressLine2,
			c.City, c.State, c.PostalCode, c.Country, c.HasNominee,
			c.NomineeName, c.NomineeRelationship, c.NomineePhone, c.PolicyID,
			c.Status, tags(c),
		).Scan(&c.UpdatedAt)
		if err != nil {
			return mapError(err, "customer")
		}

		for i := range docs {
			docs[i].CustomerID = c.ID
			if docs[i].Type != document.Other {
				_, err := tx.Exec(ctx, `
					UPDATE customer_documents SET superseded_at = NOW()
					WHERE customer_id = $1 AND document_type = $2 AND superseded_at IS NULL`,
					c.ID, docs[i].Type)
				if err != nil {
					return fmt.Errorf("failed to supersede %s: %w", docs[i].Type, err)
				}
			}
			if err := insertDocument(ctx, tx, &docs[i]); err != nil {
				return err
			}
		}
		return nil
	})
}

func tags(c *customer.Customer) []string {
	if c.Tags == nil {
		return []string{}
	}
	return c.Tags
}

func insertDocument(ctx context.Context, tx pgx.Tx, d *document.Record) error {
	query := `
		INSERT INTO customer_documents (
			customer_id, document_type, display_name, content_type, size_bytes, storage_key, checksum
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, uploaded_at
	`
	err := tx.QueryRow(ctx, query, d.CustomerID, d.Type, d.Name, d.ContentType, d.Size, d.StorageKey, d.Checksum).
		Scan(&d.ID, &d.UploadedAt)
	return mapError(err, "customer document")
}

func (r *CustomerRepository) FindByID(ctx context.Context, id int64) (*customer.Customer, error) {
	c, err := scanCustomer(r.db.pool.QueryRow(ctx, customerSelect+` WHERE c.id = $1`, id))
	if err != nil {
		return nil, mapError(err, "customer")
	}
	return c, nil
}

func (r *CustomerRepository) List(ctx context.Context, filters *customer.ListFilters) ([]customer.Customer, int64, error) {
	w := &where{}
	if filters.AgentID != nil {
		w.add("c.agent_id = $%d", *filters.AgentID)
	}
	if filters.Status != nil {
		w.add("c.status = $%d", *filters.Status)
	}
	if filters.Search != "" {
		w.search(filters.Search,
			"c.first_name || ' ' || c.last_name", "c.email", "c.phone", "c.reference")
	}

	var total int64
	countQuery := fmt.Sprintf(`SELECT COUNT(*) FROM customers c WHERE %s`, w.clause())
	if err := r.db.pool.QueryRow(ctx, countQuery, w.args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count customers: %w", err)
	}

	limit, offset := page(&filters.Page, &filters.PageSize)
	query := fmt.Sprintf(`%s WHERE %s ORDER BY c.created_at DESC LIMIT $%d OFFSET $%d`,
		customerSelect, w.clause(), w.next(), w.next()+1)

	rows, err := r.db.pool.Query(ctx, query, append(w.args, limit, offset)...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list customers: %w", err)
	}
	defer rows.Close()

	customers := []customer.Customer{}
	for rows.Next() {
		c, err := scanCustomer(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan customer: %w", err)
		}
		customers = append(customers, *c)
	}
	return customers, total, rows.Err()
}

const documentColumns = `id, customer_id, document_type, display_name, content_type, size_bytes,
	storage_key, checksum, superseded_at, uploaded_at`

func scanDocument(row rowScanner) (*document.Record, error) {
	var d document.Record
	err := row.Scan(&d.ID, &d.CustomerID, &d.Type, &d.Name, &d.ContentType, &d.Size,
		&d.StorageKey, &d.Checksum, &d.SupersededAt, &d.UploadedAt)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

// CurrentDocuments lists the customer's documents that are not superseded.
func (r *CustomerRepository) CurrentDocuments(ctx context.Context, customerID int64) ([]document.Record, error) {
	rows, err := r.db.pool.Query(ctx, `
		SELECT `+documentColumns+` FROM customer_documents
		WHERE customer_id = $1 AND superseded_at IS NULL
		ORDER BY uploaded_at, id`, customerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list documents: %w", err)
	}
	defer rows.Close()

	docs := []document.Record{}
	for rows.Next() {
		d, err := scanDocument(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan document: %w", err)
		}
		docs = append(docs, *d)
	}
	return docs, rows.Err()
}

func (r *CustomerRepository) FindDocument(ctx context.Context, id int64) (*document.Record, error) {
	d, err := scanDocument(r.db.pool.QueryRow(ctx, `SELECT `+documentColumns+` FROM customer_documents WHERE id = $1`, id))
	if err != nil {
		return nil, mapError(err, "document")
	}
	return d, nil
}
