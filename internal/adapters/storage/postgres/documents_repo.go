package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/lib/pq"

	"family-care/internal/domain/documents"
)

type DocumentsRepo struct {
	db *sql.DB
}

func NewDocumentsRepo(db *sql.DB) *DocumentsRepo {
	return &DocumentsRepo{db: db}
}

const documentColumns = `
	id, family_member_id, title, document_type, document_date,
	file_path, mime_type, file_size, notes,
	uploaded_by, created_at, updated_at`

func (r *DocumentsRepo) Create(ctx context.Context, d documents.Document) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO medical_documents (`+documentColumns+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
	`,
		d.ID,
		d.FamilyMemberID,
		d.Title,
		string(d.DocumentType),
		nullTime(d.DocumentDate),
		d.FilePath,
		nullString(d.MimeType),
		d.FileSize,
		nullString(d.Notes),
		d.UploadedBy,
		d.CreatedAt,
		d.UpdatedAt,
	)
	return foreignKeyNotFound(err, documents.ErrNotFound)
}

func (r *DocumentsRepo) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM medical_documents WHERE id = $1`, id)
	return expectOne(res, err, documents.ErrNotFound)
}

func (r *DocumentsRepo) GetByID(ctx context.Context, id string) (documents.Document, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return documents.Document{}, documents.ErrNotFound
	}

	row := r.db.QueryRowContext(ctx, `SELECT `+documentColumns+` FROM medical_documents WHERE id = $1`, id)
	d, err := scanDocument(row)
	if err != nil {
		return documents.Document{}, noRows(err, documents.ErrNotFound)
	}
	return d, nil
}

func (r *DocumentsRepo) List(ctx context.Context, filter documents.ListFilter) ([]documents.Document, error) {
	if len(filter.MemberIDs) == 0 {
		return []documents.Document{}, nil
	}

	where, args := documentWhere(filter)
	q := `SELECT ` + documentColumns + ` FROM medical_documents` + where + ` ORDER BY created_at DESC, id DESC`
	if filter.Limit > 0 {
		q += fmt.Sprintf(" LIMIT $%d", len(args)+1)
		args = append(args, filter.Limit)
	}

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]documents.Document, 0)
	for rows.Next() {
		d, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

func (r *DocumentsRepo) Count(ctx context.Context, filter documents.ListFilter) (int, error) {
	if len(filter.MemberIDs) == 0 {
		return 0, nil
	}
	where, args := documentWhere(filter)

	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT count(*) FROM medical_documents`+where, args...).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

func documentWhere(filter documents.ListFilter) (string, []any) {
	where := " WHERE family_member_id = ANY($1::uuid[])"
	args := []any{pq.Array(filter.MemberIDs)}
	if filter.DocumentType != nil {
		where += fmt.Sprintf(" AND document_type = $%d", len(args)+1)
		args = append(args, string(*filter.DocumentType))
	}
	return where, args
}

func scanDocument(s rowScanner) (documents.Document, error) {
	var (
		d           documents.Document
		docType     string
		docDate     sql.NullTime
		mime, notes sql.NullString
		size        sql.NullInt64
	)
	if err := s.Scan(
		&d.ID,
		&d.FamilyMemberID,
		&d.Title,
		&docType,
		&docDate,
		&d.FilePath,
		&mime,
		&size,
		&notes,
		&d.UploadedBy,
		&d.CreatedAt,
		&d.UpdatedAt,
	); err != nil {
		return documents.Document{}, err
	}

	d.DocumentType = documents.DocumentType(docType)
	d.DocumentDate = timePtr(docDate)
	d.MimeType = mime.String
	d.FileSize = size.Int64
	d.Notes = notes.String
	return d, nil
}
