// AngelaMos | 2026
// seed.go

// Package seed fills a development database with a superadmin, the
// department catalogue and optional demo students and theses.
package seed

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/carterperez-dev/thesis-archive/internal/audit"
	"github.com/carterperez-dev/thesis-archive/internal/core"
	"github.com/carterperez-dev/thesis-archive/internal/department"
	"github.com/carterperez-dev/thesis-archive/internal/policy"
	"github.com/carterperez-dev/thesis-archive/internal/storage"
	"github.com/carterperez-dev/thesis-archive/internal/thesis"
	"github.com/carterperez-dev/thesis-archive/internal/user"
)

// Departments is the default catalogue. Codes double as course codes.
var Departments = []department.CreateDepartmentRequest{
	{Code: "CCS", Name: "College of Computer Studies"},
	{Code: "CBA", Name: "College of Business Administration"},
	{Code: "COE", Name: "College of Engineering"},
	{Code: "CAS", Name: "College of Arts and Sciences"},
	{Code: "CED", Name: "College of Education"},
}

// minimalPDF passes content sniffing; demo uploads carry no real document.
var minimalPDF = []byte("%PDF-1.4\n1 0 obj<<>>endobj\ntrailer<<>>\n%%EOF\n")

type Options struct {
	AdminEmail    string
	AdminPassword string
	Students      int
	Theses        int
}

type Seeder struct {
	db      *sqlx.DB
	users   user.Repository
	depts   *department.Service
	theses  *thesis.Service
	logger  *slog.Logger
	faker   *gofakeit.Faker
	created Summary
}

// Summary counts what a run inserted. Existing rows are left untouched.
type Summary struct {
	Departments int
	Students    int
	Theses      int
}

func New(db *sqlx.DB, files storage.Provider, logger *slog.Logger, fakerSeed int64) *Seeder {
	return &Seeder{
		db:    db,
		users: user.NewRepository(db),
		depts: department.NewService(department.NewRepository(db), audit.Discard{}),
		theses: thesis.NewService(thesis.ServiceConfig{
			Repo:    thesis.NewRepository(db),
			Storage: files,
			Logger:  logger,
		}),
		logger: logger,
		faker:  gofakeit.New(fakerSeed),
	}
}

func (s *Seeder) Run(ctx context.Context, opts Options) (Summary, error) {
	adminID, err := s.superadmin(ctx, opts.AdminEmail, opts.AdminPassword)
	if err != nil {
		return s.created, err
	}

	if err := s.departments(ctx, adminID); err != nil {
		return s.created, err
	}

	students, err := s.students(ctx, opts.Students)
	if err != nil {
		return s.created, err
	}

	if err := s.demoTheses(ctx, adminID, students, opts.Theses); err != nil {
		return s.created, err
	}

	return s.created, nil
}

func (s *Seeder) superadmin(ctx context.Context, email, password string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	existing, err := s.users.GetByEmail(ctx, email)
	if err == nil {
		s.logger.Info("superadmin already present", "email", email)
		return existing.ID, nil
	}
	if !errors.Is(err, core.ErrNotFound) {
		return "", err
	}

	hash, err := core.HashPassword(password)
	if err != nil {
		return "", fmt.Errorf("hash superadmin password: %w", err)
	}

	admin := &user.User{
		ID:           uuid.New().String(),
		Email:        email,
		PasswordHash: hash,
		Name:         "Superadmin",
		Role:         policy.RoleSuperadmin,
	}
	if err := s.users.Create(ctx, admin); err != nil {
		return "", err
	}
	if err := s.markVerified(ctx, admin.ID); err != nil {
		return "", err
	}

	s.logger.Info("superadmin created", "email", email)
	return admin.ID, nil
}

func (s *Seeder) departments(ctx context.Context, actorID string) error {
	for _, req := range Departments {
		_, err := s.depts.Create(ctx, actorID, req)
		if errors.Is(err, core.ErrDuplicateKey) {
			continue
		}
		if err != nil {
			return fmt.Errorf("seed department %s: %w", req.Code, err)
		}
		s.created.Departments++
	}
	return nil
}

func (s *Seeder) students(ctx context.Context, n int) ([]*user.User, error) {
	hash, err := core.HashPassword("password123")
	if err != nil {
		return nil, fmt.Errorf("hash demo password: %w", err)
	}

	out := make([]*user.User, 0, n)
	for range n {
		first, last := s.faker.FirstName(), s.faker.LastName()
		dept := Departments[s.faker.Number(0, len(Departments)-1)]
		email := fmt.Sprintf(
			"%s.%s.%d@students.example.edu",
			first,
			last,
			s.faker.Number(100, 999),
		)

		u := &user.User{
			ID:           uuid.New().String(),
			Email:        strings.ToLower(email),
			PasswordHash: hash,
			Name:         first + " " + last,
			Role:         policy.RoleGuest,
		}
		if err := s.users.Create(ctx, u); err != nil {
			if errors.Is(err, core.ErrDuplicateKey) {
				continue
			}
			return nil, err
		}

		section := fmt.Sprintf(
			"%d%s",
			s.faker.Number(1, 4),
			s.faker.RandomString([]string{"A", "B", "C"}),
		)
		u.StudentProfile = user.StudentProfile{
			FirstName:  first,
			LastName:   last,
			Section:    section,
			Course:     dept.Code,
			SchoolYear: "2025-2026",
		}
		if err := s.users.PromoteToStudent(ctx, u.ID, u.StudentProfile); err != nil {
			return nil, err
		}
		if err := s.markVerified(ctx, u.ID); err != nil {
			return nil, err
		}

		u.Role = policy.RoleStudent
		out = append(out, u)
		s.created.Students++
	}

	return out, nil
}

// demoTheses uploads n theses from random students and decides most of
// them so every listing has something to show.
func (s *Seeder) demoTheses(
	ctx context.Context,
	adminID string,
	students []*user.User,
	n int,
) error {
	if len(students) == 0 {
		return nil
	}

	for i := range n {
		author := students[s.faker.Number(0, len(students)-1)]

		t, err := s.theses.Upload(ctx, author.ID, thesis.UploadRequest{
			Title:       strings.TrimSuffix(s.faker.Sentence(6), "."),
			Description: s.faker.Paragraph(1, 3, 12, " "),
			Author:      author.Name,
			Course:      author.Course,
			Year:        s.faker.Number(2018, 2026),
			Department:  author.Course,
		}, fmt.Sprintf("thesis-%d.pdf", i+1), bytes.NewReader(minimalPDF))
		if err != nil {
			return fmt.Errorf("seed thesis: %w", err)
		}
		s.created.Theses++

		switch i % 5 {
		case 0:
			// stays pending
		case 1:
			if _, err := s.theses.Reject(ctx, adminID, t.ID, "incomplete abstract"); err != nil {
				return err
			}
		default:
			if _, err := s.theses.Approve(ctx, adminID, t.ID); err != nil {
				return err
			}
		}
	}

	return nil
}

func (s *Seeder) markVerified(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx,
		`UPDATE users SET is_verified = TRUE, updated_at = NOW() WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("verify seeded user: %w", err)
	}
	return core.RequireAffected(result, "verify seeded user")
}
