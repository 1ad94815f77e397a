package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/mkce-labs/vivalab-backend/internal/model"
	"github.com/mkce-labs/vivalab-backend/internal/repository"
	"github.com/mkce-labs/vivalab-backend/internal/roster"
)

// SyncReport summarizes one roster-to-database catalog sync.
type SyncReport struct {
	Labs        int `json:"labs"`
	Experiments int `json:"experiments"`
	Skipped     int `json:"skipped"`
}

// CatalogService manages the lab/experiment catalog. The teacher spreadsheet
// is the seed source; edits after seeding live in the database.
type CatalogService struct {
	catalog *repository.CatalogRepository
	roster  roster.Store
	log     zerolog.Logger
}

// NewCatalogService creates a new CatalogService.
func NewCatalogService(catalog *repository.CatalogRepository, rosterStore roster.Store, log zerolog.Logger) *CatalogService {
	return &CatalogService{
		catalog: catalog,
		roster:  rosterStore,
		log:     log.With().Str("component", "catalog_service").Logger(),
	}
}

// ListLabs returns all labs.
func (s *CatalogService) ListLabs(ctx context.Context) ([]model.Lab, error) {
	return s.catalog.ListLabs(ctx)
}

// ListExperiments returns one lab's experiments in order.
func (s *CatalogService) ListExperiments(ctx context.Context, labID int) ([]model.Experiment, error) {
	if _, err := s.catalog.GetLab(ctx, labID); err != nil {
		if isNoRows(err) {
			return nil, ErrLabNotFound
		}
		return nil, fmt.Errorf("get lab: %w", err)
	}
	return s.catalog.ListExperimentsByLab(ctx, labID)
}

// GetExperiment returns one experiment.
func (s *CatalogService) GetExperiment(ctx context.Context, id int) (*model.Experiment, error) {
	exp, err := s.catalog.GetExperiment(ctx, id)
	if err != nil {
		if isNoRows(err) {
			return nil, ErrExperimentNotFound
		}
		return nil, fmt.Errorf("get experiment: %w", err)
	}
	return exp, nil
}

// UpsertExperiment creates or updates an experiment within a lab.
func (s *CatalogService) UpsertExperiment(ctx context.Context, labID int, req model.UpsertExperimentRequest) (*model.Experiment, error) {
	lab, err := s.catalog.GetLab(ctx, labID)
	if err != nil {
		if isNoRows(err) {
			return nil, ErrLabNotFound
		}
		return nil, fmt.Errorf("get lab: %w", err)
	}

	duration := req.DurationMinutes
	if duration == 0 {
		duration = 30
	}

	exp := &model.Experiment{
		LabID:           lab.ID,
		ExperimentNo:    req.ExperimentNo,
		Title:           req.Title,
		Description:     req.Description,
		MaterialsText:   req.MaterialsText,
		TotalMarks:      10,
		DurationMinutes: duration,
	}
	if err := s.catalog.UpsertExperiment(ctx, exp); err != nil {
		return nil, fmt.Errorf("upsert experiment: %w", err)
	}
	return exp, nil
}

// UpdateMaterials replaces an experiment's question-generation context.
func (s *CatalogService) UpdateMaterials(ctx context.Context, experimentID int, materials string) error {
	if _, err := s.catalog.GetExperiment(ctx, experimentID); err != nil {
		if isNoRows(err) {
			return ErrExperimentNotFound
		}
		return fmt.Errorf("get experiment: %w", err)
	}
	return s.catalog.UpdateExperimentMaterials(ctx, experimentID, materials)
}

// SyncFromRoster pulls the Labs and Experiments tabs of the teacher sheet in
// parallel and upserts them into the catalog. Experiments whose lab name
// matches no synced lab are skipped and counted.
func (s *CatalogService) SyncFromRoster(ctx context.Context) (*SyncReport, error) {
	var (
		rosterLabs        []roster.Lab
		rosterExperiments []roster.Experiment
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		rosterLabs, err = s.roster.ListLabs(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		rosterExperiments, err = s.roster.ListExperiments(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("read roster catalog: %w", err)
	}

	report := &SyncReport{}
	labIDByName := make(map[string]int, len(rosterLabs))

	for _, rl := range rosterLabs {
		subject := &model.Subject{
			Code:  subjectCode(rl.Subject, rl.LabName),
			Name:  rl.Subject,
			IsLab: true,
			Year:  rl.Year,
		}
		if err := s.catalog.UpsertSubject(ctx, subject); err != nil {
			return nil, fmt.Errorf("upsert subject %q: %w", subject.Code, err)
		}

		lab := &model.Lab{
			SubjectID:        subject.ID,
			Name:             rl.LabName,
			TotalExperiments: rl.TotalExperiments,
		}
		if err := s.catalog.UpsertLab(ctx, lab); err != nil {
			return nil, fmt.Errorf("upsert lab %q: %w", lab.Name, err)
		}
		labIDByName[strings.ToLower(rl.LabName)] = lab.ID
		report.Labs++
	}

	for _, re := range rosterExperiments {
		labID, ok := labIDByName[strings.ToLower(re.LabName)]
		if !ok {
			s.log.Warn().Str("lab_name", re.LabName).Int("experiment_no", re.ExperimentNo).
				Msg("Experiment references unknown lab, skipped")
			report.Skipped++
			continue
		}
		exp := &model.Experiment{
			LabID:           labID,
			ExperimentNo:    re.ExperimentNo,
			Title:           re.Name,
			Description:     re.Description,
			TotalMarks:      re.MaxMarks,
			DurationMinutes: 30,
		}
		if err := s.catalog.UpsertExperiment(ctx, exp); err != nil {
			return nil, fmt.Errorf("upsert experiment %q: %w", exp.Title, err)
		}
		report.Experiments++
	}

	s.log.Info().
		Int("labs", report.Labs).
		Int("experiments", report.Experiments).
		Int("skipped", report.Skipped).
		Msg("Catalog synced from roster")

	return report, nil
}

// subjectCode derives a stable upsert key when the sheet has no explicit
// code column.
func subjectCode(subject, labName string) string {
	base := subject
	if base == "" {
		base = labName
	}
	code := strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(base), " ", "_"))
	if len(code) > 32 {
		code = code[:32]
	}
	return code
}
