// AngelaMos | 2026
// dto.go

package department

import (
	"time"
)

type CreateDepartmentRequest struct {
	Name string `json:"name" validate:"required,min=1,max=200"`
	Code string `json:"code" validate:"required,min=1,max=32,alphanum"`
}

type UpdateDepartmentRequest struct {
	Name *string `json:"name" validate:"omitempty,min=1,max=200"`
	Code *string `json:"code" validate:"omitempty,min=1,max=32,alphanum"`
}

type DepartmentResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Code      string    `json:"code"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func ToDepartmentResponse(d *Department) DepartmentResponse {
	return DepartmentResponse{
		ID:        d.ID,
		Name:      d.Name,
		Code:      d.Code,
		CreatedAt: d.CreatedAt,
		UpdatedAt: d.UpdatedAt,
	}
}

func ToDepartmentResponseList(depts []Department) []DepartmentResponse {
	out := make([]DepartmentResponse, len(depts))
	for i := range depts {
		out[i] = ToDepartmentResponse(&depts[i])
	}
	return out
}
