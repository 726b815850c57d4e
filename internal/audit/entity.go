// AngelaMos | 2026
// entity.go

package audit

import (
	"encoding/json"
	"fmt"
	"time"
)

type Action string

const (
	ActionApproveThesis  Action = "APPROVE_THESIS"
	ActionRejectThesis   Action = "REJECT_THESIS"
	ActionUpdateThesis   Action = "UPDATE_THESIS"
	ActionTrashThesis    Action = "TRASH_THESIS"
	ActionRestoreThesis  Action = "RESTORE_THESIS"
	ActionPurgeThesis    Action = "PURGE_THESIS"
	ActionPurgeRejected  Action = "PURGE_REJECTED"
	ActionUserUpdate     Action = "USER_UPDATE"
	ActionStudentProfile Action = "STUDENT_PROFILE_UPDATE"
	ActionUserRoleUpdate Action = "USER_ROLE_UPDATE"
	ActionUserBan        Action = "USER_BAN"
	ActionUserUnban      Action = "USER_UNBAN"
	ActionUserDelete     Action = "USER_DELETE"
	ActionAppSubmit      Action = "APP_SUBMIT"
	ActionAppApprove     Action = "APP_APPROVE"
	ActionAppReject      Action = "APP_REJECT"
	ActionDepartmentAdd  Action = "DEPT_CREATE"
	ActionDepartmentEdit Action = "DEPT_UPDATE"
	ActionDepartmentDrop Action = "DEPT_DELETE"
)

// Details is the typed payload of an audit entry. The set of
// implementations is closed: one struct per Action.
type Details interface {
	Action() Action
}

// Change is one field's before/after value in an edit diff.
type Change struct {
	From any `json:"from"`
	To   any `json:"to"`
}

type ThesisRef struct {
	ThesisID string `json:"thesis_id"`
	Title    string `json:"title"`
}

type ApproveThesis struct {
	ThesisRef
}

type RejectThesis struct {
	ThesisRef
	Reason string `json:"reason"`
}

type UpdateThesis struct {
	ThesisRef
	Changes map[string]Change `json:"changes"`
}

type TrashThesis struct {
	ThesisRef
}

type RestoreThesis struct {
	ThesisRef
}

type PurgeThesis struct {
	ThesisRef
}

type PurgeRejected struct {
	Count int `json:"count"`
}

type UserRef struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
}

type UserUpdate struct {
	UserRef
	Changes map[string]Change `json:"changes"`
}

type StudentProfileUpdate struct {
	UserRef
	Changes map[string]Change `json:"changes"`
}

type UserRoleUpdate struct {
	UserRef
	From string `json:"from"`
	To   string `json:"to"`
}

type UserBan struct {
	UserRef
	Reason string `json:"reason"`
}

type UserUnban struct {
	UserRef
}

type UserDelete struct {
	UserRef
	Role string `json:"role"`
}

type ApplicationRef struct {
	ApplicationID string `json:"application_id"`
	UserID        string `json:"user_id"`
}

type AppSubmit struct {
	ApplicationRef
	Course string `json:"course"`
}

type AppApprove struct {
	ApplicationRef
}

type AppReject struct {
	ApplicationRef
	Reason string `json:"reason,omitempty"`
}

type DepartmentRef struct {
	DepartmentID string `json:"department_id"`
	Code         string `json:"code"`
	Name         string `json:"name"`
}

type DepartmentCreate struct {
	DepartmentRef
}

type DepartmentUpdate struct {
	DepartmentRef
	Changes map[string]Change `json:"changes"`
}

type DepartmentDelete struct {
	DepartmentRef
}

func (ApproveThesis) Action() Action        { return ActionApproveThesis }
func (RejectThesis) Action() Action         { return ActionRejectThesis }
func (UpdateThesis) Action() Action         { return ActionUpdateThesis }
func (TrashThesis) Action() Action          { return ActionTrashThesis }
func (RestoreThesis) Action() Action        { return ActionRestoreThesis }
func (PurgeThesis) Action() Action          { return ActionPurgeThesis }
func (PurgeRejected) Action() Action        { return ActionPurgeRejected }
func (UserUpdate) Action() Action           { return ActionUserUpdate }
func (StudentProfileUpdate) Action() Action { return ActionStudentProfile }
func (UserRoleUpdate) Action() Action       { return ActionUserRoleUpdate }
func (UserBan) Action() Action              { return ActionUserBan }
func (UserUnban) Action() Action            { return ActionUserUnban }
func (UserDelete) Action() Action           { return ActionUserDelete }
func (AppSubmit) Action() Action            { return ActionAppSubmit }
func (AppApprove) Action() Action           { return ActionAppApprove }
func (AppReject) Action() Action            { return ActionAppReject }
func (DepartmentCreate) Action() Action     { return ActionDepartmentAdd }
func (DepartmentUpdate) Action() Action     { return ActionDepartmentEdit }
func (DepartmentDelete) Action() Action     { return ActionDepartmentDrop }

var decoders = map[Action]func() Details{
	ActionApproveThesis:  func() Details { return &ApproveThesis{} },
	ActionRejectThesis:   func() Details { return &RejectThesis{} },
	ActionUpdateThesis:   func() Details { return &UpdateThesis{} },
	ActionTrashThesis:    func() Details { return &TrashThesis{} },
	ActionRestoreThesis:  func() Details { return &RestoreThesis{} },
	ActionPurgeThesis:    func() Details { return &PurgeThesis{} },
	ActionPurgeRejected:  func() Details { return &PurgeRejected{} },
	ActionUserUpdate:     func() Details { return &UserUpdate{} },
	ActionStudentProfile: func() Details { return &StudentProfileUpdate{} },
	ActionUserRoleUpdate: func() Details { return &UserRoleUpdate{} },
	ActionUserBan:        func() Details { return &UserBan{} },
	ActionUserUnban:      func() Details { return &UserUnban{} },
	ActionUserDelete:     func() Details { return &UserDelete{} },
	ActionAppSubmit:      func() Details { return &AppSubmit{} },
	ActionAppApprove:     func() Details { return &AppApprove{} },
	ActionAppReject:      func() Details { return &AppReject{} },
	ActionDepartmentAdd:  func() Details { return &DepartmentCreate{} },
	ActionDepartmentEdit: func() Details { return &DepartmentUpdate{} },
	ActionDepartmentDrop: func() Details { return &DepartmentDelete{} },
}

func IsKnownAction(a Action) bool {
	_, ok := decoders[a]
	return ok
}

// DecodeDetails rebuilds the typed payload stored for action.
func DecodeDetails(action Action, raw []byte) (Details, error) {
	newFn, ok := decoders[action]
	if !ok {
		return nil, fmt.Errorf("decode audit details: unknown action %q", action)
	}

	d := newFn()
	if len(raw) == 0 {
		return d, nil
	}

	if err := json.Unmarshal(raw, d); err != nil {
		return nil, fmt.Errorf("decode audit details %s: %w", action, err)
	}

	return d, nil
}

type Entry struct {
	ID        string          `db:"id"`
	ActorID   *string         `db:"actor_id"`
	Action    Action          `db:"action"`
	Details   json.RawMessage `db:"details"`
	CreatedAt time.Time       `db:"created_at"`

	ActorName  *string `db:"actor_name"`
	ActorEmail *string `db:"actor_email"`
	ActorRole  *string `db:"actor_role"`
}
