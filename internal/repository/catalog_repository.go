package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mkce-labs/vivalab-backend/internal/model"
)

// CatalogRepository handles subjects, labs, and experiments. The catalog is
// seeded from the roster spreadsheet and edited by teachers afterwards.
type CatalogRepository struct {
	pool *pgxpool.Pool
}

// NewCatalogRepository creates a new CatalogRepository.
func NewCatalogRepository(pool *pgxpool.Pool) *CatalogRepository {
	return &CatalogRepository{pool: pool}
}

// UpsertSubject inserts a subject or updates its name on code conflict.
func (r *CatalogRepository) UpsertSubject(ctx context.Context, s *model.Subject) error {
	return r.pool.QueryRow(ctx,
		`INSERT INTO subjects (code, name, is_lab, year)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (code) DO UPDATE SET name = EXCLUDED.name, is_lab = EXCLUDED.is_lab, year = EXCLUDED.year
		 RETURNING id, created_at`,
		s.Code, s.Name, s.IsLab, s.Year,
	).Scan(&s.ID, &s.CreatedAt)
}

// UpsertLab inserts a lab or updates it when the (subject, name) pair exists.
func (r *CatalogRepository) UpsertLab(ctx context.Context, l *model.Lab) error {
	return r.pool.QueryRow(ctx,
		`INSERT INTO labs (subject_id, name, description, total_experiments, materials_text)
		 VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (subject_id, name) DO UPDATE SET
		   description = EXCLUDED.description,
		   total_experiments = EXCLUDED.total_experiments
		 RETURNING id, created_at`,
		l.SubjectID, l.Name, l.Description, l.TotalExperiments, l.MaterialsText,
	).Scan(&l.ID, &l.CreatedAt)
}

// ListLabs retrieves all labs ordered by name.
func (r *CatalogRepository) ListLabs(ctx context.Context) ([]model.Lab, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, subject_id, name, description, total_experiments, materials_text, created_at
		 FROM labs
		 ORDER BY name`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var labs []model.Lab
	for rows.Next() {
		var l model.Lab
		if err := rows.Scan(&l.ID, &l.SubjectID, &l.Name, &l.Description, &l.TotalExperiments, &l.MaterialsText, &l.CreatedAt); err != nil {
			return nil, err
		}
		labs = append(labs, l)
	}
	return labs, rows.Err()
}

// GetLab retrieves one lab by primary key.
func (r *CatalogRepository) GetLab(ctx context.Context, id int) (*model.Lab, error) {
	l := &model.Lab{}
	err := r.pool.QueryRow(ctx,
		`SELECT id, subject_id, name, description, total_experiments, materials_text, created_at
		 FROM labs
		 WHERE id = $1`, id,
	).Scan(&l.ID, &l.SubjectID, &l.Name, &l.Description, &l.TotalExperiments, &l.MaterialsText, &l.CreatedAt)
	if err != nil {
		return nil, err
	}
	return l, nil
}

// UpsertExperiment inserts an experiment or updates it when the lab already
// has that experiment number.
func (r *CatalogRepository) UpsertExperiment(ctx context.Context, e *model.Experiment) error {
	return r.pool.QueryRow(ctx,
		`INSERT INTO experiments (lab_id, experiment_no, title, description, materials_text, total_marks, duration_minutes)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 ON CONFLICT (lab_id, experiment_no) DO UPDATE SET
		   title = EXCLUDED.title,
		   description = EXCLUDED.description,
		   materials_text = EXCLUDED.materials_text,
		   total_marks = EXCLUDED.total_marks,
		   duration_minutes = EXCLUDED.duration_minutes
		 RETURNING id, created_at`,
		e.LabID, e.ExperimentNo, e.Title, e.Description, e.MaterialsText, e.TotalMarks, e.DurationMinutes,
	).Scan(&e.ID, &e.CreatedAt)
}

// GetExperiment retrieves one experiment by primary key.
func (r *CatalogRepository) GetExperiment(ctx context.Context, id int) (*model.Experiment, error) {
	e := &model.Experiment{}
	err := r.pool.QueryRow(ctx,
		`SELECT id, lab_id, experiment_no, title, description, materials_text, total_marks, duration_minutes, created_at
		 FROM experiments
		 WHERE id = $1`, id,
	).Scan(&e.ID, &e.LabID, &e.ExperimentNo, &e.Title, &e.Description, &e.MaterialsText, &e.TotalMarks, &e.DurationMinutes, &e.CreatedAt)
	if err != nil {
		return nil, err
	}
	return e, nil
}

// ListExperimentsByLab retrieves a lab's experiments in experiment order.
func (r *CatalogRepository) ListExperimentsByLab(ctx context.Context, labID int) ([]model.Experiment, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, lab_id, experiment_no, title, description, materials_text, total_marks, duration_minutes, created_at
		 FROM experiments
		 WHERE lab_id = $1
		 ORDER BY experiment_no`, labID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var experiments []model.Experiment
	for rows.Next() {
		var e model.Experiment
		if err := rows.Scan(&e.ID, &e.LabID, &e.ExperimentNo, &e.Title, &e.Description, &e.MaterialsText, &e.TotalMarks, &e.DurationMinutes, &e.CreatedAt); err != nil {
			return nil, err
		}
		experiments = append(experiments, e)
	}
	return experiments, rows.Err()
}

// UpdateExperimentMaterials replaces the generation context of an experiment.
func (r *CatalogRepository) UpdateExperimentMaterials(ctx context.Context, experimentID int, materials string) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE experiments SET materials_text = $1 WHERE id = $2`,
		materials, experimentID)
	return err
}
