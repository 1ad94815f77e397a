package roster

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/rs/zerolog"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

// Tab names inside the two spreadsheets. The student sheet keeps its
// default tab; the teacher sheet carries one tab per catalog concern.
const (
	studentTab     = "Sheet1"
	experimentsTab = "Experiments"
	labsTab        = "Labs"
)

// maxExperiments bounds the mark columns: C holds experiment 1 through L
// holding experiment 10.
const maxExperiments = 10

// SheetsStore implements Store against the Google Sheets API using a
// service-account credential. The target sheets must be shared with the
// service account's email.
type SheetsStore struct {
	svc            *sheets.Service
	studentSheetID string
	teacherSheetID string
	log            zerolog.Logger
}

func NewSheetsStore(ctx context.Context, credentialsPath, studentSheetID, teacherSheetID string, log zerolog.Logger) (*SheetsStore, error) {
	if credentialsPath == "" || studentSheetID == "" {
		return nil, ErrUnavailable
	}

	svc, err := sheets.NewService(ctx,
		option.WithCredentialsFile(credentialsPath),
		option.WithScopes(sheets.SpreadsheetsScope),
	)
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}

	return &SheetsStore{
		svc:            svc,
		studentSheetID: studentSheetID,
		teacherSheetID: teacherSheetID,
		log:            log.With().Str("component", "sheets_roster").Logger(),
	}, nil
}

var _ Store = (*SheetsStore)(nil)

func (s *SheetsStore) ValidateStudent(ctx context.Context, regNo string) (*Student, error) {
	rows, err := s.read(ctx, s.studentSheetID, studentTab+"!A:B")
	if err != nil {
		return nil, err
	}

	want := strings.ToUpper(strings.TrimSpace(regNo))
	for _, row := range skipHeader(rows) {
		if strings.ToUpper(strings.TrimSpace(cell(row, 0))) == want {
			return &Student{
				RegNo: cell(row, 0),
				Name:  cell(row, 1),
			}, nil
		}
	}
	return nil, ErrStudentNotFound
}

func (s *SheetsStore) WriteMark(ctx context.Context, regNo string, experimentNo int, value string) error {
	if experimentNo < 1 || experimentNo > maxExperiments {
		return fmt.Errorf("experiment number %d out of range", experimentNo)
	}

	rows, err := s.read(ctx, s.studentSheetID, studentTab+"!A:A")
	if err != nil {
		return err
	}

	want := strings.ToUpper(strings.TrimSpace(regNo))
	rowNum := 0
	for i, row := range rows {
		if strings.ToUpper(strings.TrimSpace(cell(row, 0))) == want {
			rowNum = i + 1
			break
		}
	}
	if rowNum == 0 {
		return ErrStudentNotFound
	}

	cellRange := fmt.Sprintf("%s!%s%d", studentTab, markColumn(experimentNo), rowNum)
	_, err = s.svc.Spreadsheets.Values.Update(s.studentSheetID, cellRange, &sheets.ValueRange{
		Values: [][]interface{}{{value}},
	}).ValueInputOption("RAW").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("update mark cell %s: %w", cellRange, err)
	}

	s.log.Info().
		Str("reg_no", regNo).
		Int("experiment_no", experimentNo).
		Str("cell", cellRange).
		Msg("Roster mark written")
	return nil
}

func (s *SheetsStore) AllStudentsWithMarks(ctx context.Context) ([]Student, error) {
	rows, err := s.read(ctx, s.studentSheetID, studentTab+"!A:L")
	if err != nil {
		return nil, err
	}

	var students []Student
	for _, row := range skipHeader(rows) {
		regNo := cell(row, 0)
		if regNo == "" {
			continue
		}
		student := Student{
			RegNo: regNo,
			Name:  cell(row, 1),
			Marks: make(map[int]string, maxExperiments),
		}
		for expNo := 1; expNo <= maxExperiments; expNo++ {
			if mark := cell(row, 1+expNo); mark != "" {
				student.Marks[expNo] = mark
			}
		}
		students = append(students, student)
	}
	return students, nil
}

func (s *SheetsStore) ListExperiments(ctx context.Context) ([]Experiment, error) {
	if s.teacherSheetID == "" {
		return nil, ErrUnavailable
	}
	rows, err := s.read(ctx, s.teacherSheetID, experimentsTab+"!A:E")
	if err != nil {
		return nil, err
	}

	var experiments []Experiment
	for _, row := range skipHeader(rows) {
		expNo, err := strconv.Atoi(strings.TrimSpace(cell(row, 0)))
		if err != nil {
			continue
		}
		experiments = append(experiments, Experiment{
			ExperimentNo: expNo,
			Name:         cell(row, 1),
			LabName:      cell(row, 2),
			Description:  cell(row, 3),
			MaxMarks:     intCell(row, 4, 10),
		})
	}
	return experiments, nil
}

func (s *SheetsStore) ListLabs(ctx context.Context) ([]Lab, error) {
	if s.teacherSheetID == "" {
		return nil, ErrUnavailable
	}
	rows, err := s.read(ctx, s.teacherSheetID, labsTab+"!A:E")
	if err != nil {
		return nil, err
	}

	var labs []Lab
	for _, row := range skipHeader(rows) {
		name := cell(row, 1)
		if name == "" {
			continue
		}
		labs = append(labs, Lab{
			LabName:          name,
			Subject:          cell(row, 2),
			Year:             cell(row, 3),
			TotalExperiments: intCell(row, 4, 10),
		})
	}
	return labs, nil
}

func (s *SheetsStore) read(ctx context.Context, sheetID, readRange string) ([][]interface{}, error) {
	resp, err := s.svc.Spreadsheets.Values.Get(sheetID, readRange).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("read range %s: %w", readRange, err)
	}
	return resp.Values, nil
}

// markColumn maps an experiment number to its sheet column: C holds
// experiment 1, L holds experiment 10.
func markColumn(experimentNo int) string {
	return string(rune('C' + experimentNo - 1))
}

func skipHeader(rows [][]interface{}) [][]interface{} {
	if len(rows) == 0 {
		return nil
	}
	return rows[1:]
}

func cell(row []interface{}, idx int) string {
	if idx >= len(row) {
		return ""
	}
	s, _ := row[idx].(string)
	return strings.TrimSpace(s)
}

func intCell(row []interface{}, idx, fallback int) int {
	n, err := strconv.Atoi(cell(row, idx))
	if err != nil {
		return fallback
	}
	return n
}
