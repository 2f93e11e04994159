package transport

import (
	"encoding/json"
	"time"

	"github.com/fastygo/taskflow/domain"
)

// CredentialsRequest is the body of sign-in and sign-up calls.
type CredentialsRequest struct {
	Email    string            `json:"email"`
	Password string            `json:"password"`
	Data     map[string]string `json:"data,omitempty"`
}

// UserUpdateRequest changes profile metadata.
type UserUpdateRequest struct {
	Data map[string]string `json:"data"`
}

// TaskCreateRequest is a row inserted into the task collection.
type TaskCreateRequest struct {
	UserID   string     `json:"user_id"`
	Title    string     `json:"title"`
	Deadline *time.Time `json:"deadline"`
}

// TaskPatchRequest keeps the raw fields so an explicit null deadline can be
// told apart from an absent one.
type TaskPatchRequest struct {
	Title     *string    `json:"title"`
	Completed *bool      `json:"completed"`
	Deadline  *time.Time `json:"deadline"`
	// Set when the body contained a "deadline" key.
	HasDeadline bool `json:"-"`
}

func (r *TaskPatchRequest) UnmarshalJSON(data []byte) error {
	type plain TaskPatchRequest
	var keys map[string]json.RawMessage
	if err := json.Unmarshal(data, &keys); err != nil {
		return err
	}
	var out plain
	if err := json.Unmarshal(data, &out); err != nil {
		return err
	}
	_, out.HasDeadline = keys["deadline"]
	*r = TaskPatchRequest(out)
	return nil
}

// ToPatch converts the request into a domain patch.
func (r TaskPatchRequest) ToPatch() domain.TaskPatch {
	patch := domain.TaskPatch{Title: r.Title, Completed: r.Completed}
	if r.HasDeadline {
		if r.Deadline == nil {
			patch.ClearDeadline = true
		} else {
			patch.Deadline = r.Deadline
		}
	}
	return patch
}

// NewPatchRequest is the inverse of ToPatch.
func NewPatchRequest(patch domain.TaskPatch) map[string]interface{} {
	body := make(map[string]interface{}, 3)
	if patch.Title != nil {
		body["title"] = *patch.Title
	}
	if patch.ClearDeadline {
		body["deadline"] = nil
	} else if patch.Deadline != nil {
		body["deadline"] = patch.Deadline.UTC()
	}
	if patch.Completed != nil {
		body["completed"] = *patch.Completed
	}
	return body
}
