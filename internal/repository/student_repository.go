package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mkce-labs/vivalab-backend/internal/model"
)

// StudentRepository handles student account data access.
type StudentRepository struct {
	pool *pgxpool.Pool
}

// NewStudentRepository creates a new StudentRepository.
func NewStudentRepository(pool *pgxpool.Pool) *StudentRepository {
	return &StudentRepository{pool: pool}
}

// GetByRegNo retrieves a student by registration number, case-insensitively.
func (r *StudentRepository) GetByRegNo(ctx context.Context, regNo string) (*model.Student, error) {
	s := &model.Student{}
	err := r.pool.QueryRow(ctx,
		`SELECT id, reg_no, name, email, password_hash, year, created_at
		 FROM students
		 WHERE UPPER(reg_no) = UPPER($1)`, regNo,
	).Scan(&s.ID, &s.RegNo, &s.Name, &s.Email, &s.PasswordHash, &s.Year, &s.CreatedAt)
	if err != nil {
		return nil, err
	}
	return s, nil
}

// GetByID retrieves a student by primary key.
func (r *StudentRepository) GetByID(ctx context.Context, id int) (*model.Student, error) {
	s := &model.Student{}
	err := r.pool.QueryRow(ctx,
		`SELECT id, reg_no, name, email, password_hash, year, created_at
		 FROM students
		 WHERE id = $1`, id,
	).Scan(&s.ID, &s.RegNo, &s.Name, &s.Email, &s.PasswordHash, &s.Year, &s.CreatedAt)
	if err != nil {
		return nil, err
	}
	return s, nil
}

// Create inserts a new student account. Registration numbers are stored
// uppercase so the roster join stays case-insensitive.
func (r *StudentRepository) Create(ctx context.Context, s *model.Student) error {
	return r.pool.QueryRow(ctx,
		`INSERT INTO students (reg_no, name, email, password_hash, year)
		 VALUES (UPPER($1), $2, $3, $4, $5)
		 RETURNING id, reg_no, created_at`,
		s.RegNo, s.Name, s.Email, s.PasswordHash, s.Year,
	).Scan(&s.ID, &s.RegNo, &s.CreatedAt)
}

// List retrieves all students ordered by registration number.
func (r *StudentRepository) List(ctx context.Context) ([]model.Student, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, reg_no, name, email, password_hash, year, created_at
		 FROM students
		 ORDER BY reg_no`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var students []model.Student
	for rows.Next() {
		var s model.Student
		if err := rows.Scan(&s.ID, &s.RegNo, &s.Name, &s.Email, &s.PasswordHash, &s.Year, &s.CreatedAt); err != nil {
			return nil, err
		}
		students = append(students, s)
	}
	return students, rows.Err()
}
