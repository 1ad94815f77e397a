package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/mkce-labs/vivalab-backend/internal/model"
	"github.com/mkce-labs/vivalab-backend/internal/repository"
	"github.com/mkce-labs/vivalab-backend/internal/roster"
)

// Student account errors.
var (
	ErrStudentNotFound   = errors.New("student not found")
	ErrNotOnRoster       = errors.New("registration number not found on the roster")
	ErrStudentRegistered = errors.New("account already exists for this registration number")
)

// StudentService handles student accounts. Registration is gated on the
// roster spreadsheet: only listed registration numbers may create accounts.
type StudentService struct {
	students *repository.StudentRepository
	roster   roster.Store
	auth     *AuthService
	log      zerolog.Logger
}

// NewStudentService creates a new StudentService.
func NewStudentService(students *repository.StudentRepository, rosterStore roster.Store, auth *AuthService, log zerolog.Logger) *StudentService {
	return &StudentService{
		students: students,
		roster:   rosterStore,
		auth:     auth,
		log:      log.With().Str("component", "student_service").Logger(),
	}
}

// Register creates a student account after validating the registration
// number against the roster. When no roster is configured the gate is
// waived so development setups still work.
func (s *StudentService) Register(ctx context.Context, req model.StudentRegisterRequest) (*model.Student, error) {
	if _, err := s.students.GetByRegNo(ctx, req.RegNo); err == nil {
		return nil, ErrStudentRegistered
	} else if !isNoRows(err) {
		return nil, fmt.Errorf("check existing student: %w", err)
	}

	name := req.RegNo
	rosterStudent, err := s.roster.ValidateStudent(ctx, req.RegNo)
	switch {
	case err == nil:
		name = rosterStudent.Name
	case errors.Is(err, roster.ErrStudentNotFound):
		return nil, ErrNotOnRoster
	case errors.Is(err, roster.ErrUnavailable):
		s.log.Warn().Str("reg_no", req.RegNo).Msg("Roster not configured, registration gate waived")
	default:
		return nil, fmt.Errorf("validate against roster: %w", err)
	}

	hash, err := s.auth.HashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	student := &model.Student{
		RegNo:        req.RegNo,
		Name:         name,
		Email:        req.Email,
		PasswordHash: hash,
		Year:         req.Year,
	}
	if err := s.students.Create(ctx, student); err != nil {
		if isUniqueViolation(err) {
			return nil, ErrStudentRegistered
		}
		return nil, fmt.Errorf("create student: %w", err)
	}

	s.log.Info().Str("reg_no", student.RegNo).Int("student_id", student.ID).Msg("Student registered")
	return student, nil
}

// Login verifies credentials and issues a single-session token.
func (s *StudentService) Login(ctx context.Context, req model.StudentLoginRequest) (*model.Student, string, error) {
	student, err := s.students.GetByRegNo(ctx, req.RegNo)
	if err != nil {
		if isNoRows(err) {
			return nil, "", ErrInvalidCredentials
		}
		return nil, "", fmt.Errorf("get student: %w", err)
	}

	if err := s.auth.CheckPassword(student.PasswordHash, req.Password); err != nil {
		return nil, "", err
	}

	token, err := s.auth.GenerateStudentToken(ctx, student.ID, student.RegNo)
	if err != nil {
		return nil, "", err
	}
	return student, token, nil
}

// Get returns one student by ID.
func (s *StudentService) Get(ctx context.Context, id int) (*model.Student, error) {
	student, err := s.students.GetByID(ctx, id)
	if err != nil {
		if isNoRows(err) {
			return nil, ErrStudentNotFound
		}
		return nil, fmt.Errorf("get student: %w", err)
	}
	return student, nil
}

// TeacherService handles teacher accounts. Accounts are provisioned with the
// create-teacher command, so only login lives here.
type TeacherService struct {
	teachers *repository.TeacherRepository
	auth     *AuthService
	log      zerolog.Logger
}

// NewTeacherService creates a new TeacherService.
func NewTeacherService(teachers *repository.TeacherRepository, auth *AuthService, log zerolog.Logger) *TeacherService {
	return &TeacherService{
		teachers: teachers,
		auth:     auth,
		log:      log.With().Str("component", "teacher_service").Logger(),
	}
}

// Login verifies credentials and issues a teacher token.
func (s *TeacherService) Login(ctx context.Context, req model.TeacherLoginRequest) (*model.Teacher, string, error) {
	teacher, err := s.teachers.GetByEmail(ctx, req.Email)
	if err != nil {
		if isNoRows(err) {
			return nil, "", ErrInvalidCredentials
		}
		return nil, "", fmt.Errorf("get teacher: %w", err)
	}

	if err := s.auth.CheckPassword(teacher.PasswordHash, req.Password); err != nil {
		return nil, "", err
	}

	token, err := s.auth.GenerateTeacherToken(teacher.ID)
	if err != nil {
		return nil, "", fmt.Errorf("generate token: %w", err)
	}
	return teacher, token, nil
}

// Get returns one teacher by ID.
func (s *TeacherService) Get(ctx context.Context, id int) (*model.Teacher, error) {
	teacher, err := s.teachers.GetByID(ctx, id)
	if err != nil {
		if isNoRows(err) {
			return nil, fmt.Errorf("teacher %d not found", id)
		}
		return nil, fmt.Errorf("get teacher: %w", err)
	}
	return teacher, nil
}
