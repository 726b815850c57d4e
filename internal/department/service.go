// AngelaMos | 2026
// service.go

package department

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/carterperez-dev/thesis-archive/internal/audit"
)

type Service struct {
	repo  Repository
	audit audit.Recorder
}

func NewService(repo Repository, recorder audit.Recorder) *Service {
	if recorder == nil {
		recorder = audit.Discard{}
	}
	return &Service{repo: repo, audit: recorder}
}

func (s *Service) List(ctx context.Context) ([]Department, error) {
	return s.repo.List(ctx)
}

func (s *Service) Get(ctx context.Context, id string) (*Department, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) Count(ctx context.Context) (int, error) {
	return s.repo.Count(ctx)
}

// IsValidCode reports whether a course string names an existing department.
func (s *Service) IsValidCode(ctx context.Context, code string) (bool, error) {
	code = NormalizeCode(code)
	if code == "" {
		return false, nil
	}
	return s.repo.ExistsByCode(ctx, code)
}

func (s *Service) Create(
	ctx context.Context,
	actorID string,
	req CreateDepartmentRequest,
) (*Department, error) {
	dept := &Department{
		ID:   uuid.New().String(),
		Name: strings.TrimSpace(req.Name),
		Code: NormalizeCode(req.Code),
	}

	if err := s.repo.Create(ctx, dept); err != nil {
		return nil, err
	}

	s.audit.Record(ctx, actorID, audit.DepartmentCreate{DepartmentRef: ref(dept)})
	return dept, nil
}

func (s *Service) Update(
	ctx context.Context,
	actorID, id string,
	req UpdateDepartmentRequest,
) (*Department, error) {
	dept, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	changes := map[string]audit.Change{}
	if req.Name != nil {
		if name := strings.TrimSpace(*req.Name); name != dept.Name {
			changes["name"] = audit.Change{From: dept.Name, To: name}
			dept.Name = name
		}
	}
	if req.Code != nil {
		if code := NormalizeCode(*req.Code); code != dept.Code {
			changes["code"] = audit.Change{From: dept.Code, To: code}
			dept.Code = code
		}
	}

	if len(changes) == 0 {
		return dept, nil
	}

	if err := s.repo.Update(ctx, dept); err != nil {
		return nil, fmt.Errorf("update department: %w", err)
	}

	s.audit.Record(ctx, actorID, audit.DepartmentUpdate{
		DepartmentRef: ref(dept),
		Changes:       changes,
	})
	return dept, nil
}

func (s *Service) Delete(ctx context.Context, actorID, id string) error {
	dept, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}

	s.audit.Record(ctx, actorID, audit.DepartmentDelete{DepartmentRef: ref(dept)})
	return nil
}

func ref(d *Department) audit.DepartmentRef {
	return audit.DepartmentRef{DepartmentID: d.ID, Code: d.Code, Name: d.Name}
}
