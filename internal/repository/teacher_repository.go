package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mkce-labs/vivalab-backend/internal/model"
)

// TeacherRepository handles teacher account data access.
type TeacherRepository struct {
	pool *pgxpool.Pool
}

// NewTeacherRepository creates a new TeacherRepository.
func NewTeacherRepository(pool *pgxpool.Pool) *TeacherRepository {
	return &TeacherRepository{pool: pool}
}

// GetByEmail retrieves a teacher by email.
func (r *TeacherRepository) GetByEmail(ctx context.Context, email string) (*model.Teacher, error) {
	t := &model.Teacher{}
	err := r.pool.QueryRow(ctx,
		`SELECT id, name, email, password_hash, designation, department, created_at
		 FROM teachers
		 WHERE LOWER(email) = LOWER($1)`, email,
	).Scan(&t.ID, &t.Name, &t.Email, &t.PasswordHash, &t.Designation, &t.Department, &t.CreatedAt)
	if err != nil {
		return nil, err
	}
	return t, nil
}

// GetByID retrieves a teacher by primary key.
func (r *TeacherRepository) GetByID(ctx context.Context, id int) (*model.Teacher, error) {
	t := &model.Teacher{}
	err := r.pool.QueryRow(ctx,
		`SELECT id, name, email, password_hash, designation, department, created_at
		 FROM teachers
		 WHERE id = $1`, id,
	).Scan(&t.ID, &t.Name, &t.Email, &t.PasswordHash, &t.Designation, &t.Department, &t.CreatedAt)
	if err != nil {
		return nil, err
	}
	return t, nil
}

// Create inserts a new teacher account.
func (r *TeacherRepository) Create(ctx context.Context, t *model.Teacher) error {
	return r.pool.QueryRow(ctx,
		`INSERT INTO teachers (name, email, password_hash, designation, department)
		 VALUES ($1, LOWER($2), $3, $4, $5)
		 RETURNING id, created_at`,
		t.Name, t.Email, t.PasswordHash, t.Designation, t.Department,
	).Scan(&t.ID, &t.CreatedAt)
}
