package job

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

type Status string

const (
	StatusApplied   Status = "applied"
	StatusInterview Status = "interview"
	StatusRejected  Status = "rejected"
	StatusAccepted  Status = "accepted"
)

// Statuses lists every recognised status in display order.
var Statuses = []Status{StatusApplied, StatusInterview, StatusRejected, StatusAccepted}

var ErrNotFound = errors.New("job not found")

func (s Status) IsValid() bool {
	switch s {
	case StatusApplied, StatusInterview, StatusRejected, StatusAccepted:
		return true
	}
	return false
}

// NormalizeStatus maps an empty or unknown status to StatusApplied.
func NormalizeStatus(raw string) Status {
	s := Status(raw)
	if !s.IsValid() {
		return StatusApplied
	}
	return s
}

type Job struct {
	ID        string    `json:"id"`
	OwnerID   string    `json:"ownerId"`
	Company   string    `json:"company"`
	Position  string    `json:"position"`
	Status    Status    `json:"status"`
	Location  string    `json:"location,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// status is deliberately unvalidated here: anything unrecognised falls back to applied.
type CreateRequest struct {
	Company  string `json:"company" binding:"required,max=200"`
	Position string `json:"position" binding:"required,max=200"`
	Status   string `json:"status"`
	Location string `json:"location" binding:"omitempty,max=200"`
}

// partial update, nil means "leave as is"
type UpdateRequest struct {
	Company  *string `json:"company" binding:"omitempty,min=1,max=200"`
	Position *string `json:"position" binding:"omitempty,min=1,max=200"`
	Status   *Status `json:"status" binding:"omitempty,oneof=applied interview rejected accepted"`
	Location *string `json:"location" binding:"omitempty,max=200"`
}

func (u UpdateRequest) IsEmpty() bool {
	return u.Company == nil && u.Position == nil && u.Status == nil && u.Location == nil
}

// Apply copies the present fields of u onto j.
func (u UpdateRequest) Apply(j *Job) {
	if u.Company != nil {
		j.Company = *u.Company
	}
	if u.Position != nil {
		j.Position = *u.Position
	}
	if u.Status != nil {
		j.Status = *u.Status
	}
	if u.Location != nil {
		j.Location = *u.Location
	}
}

type ListFilter struct {
	Status  *Status
	Company *string
}

type StatusCounts struct {
	Applied   int `json:"applied"`
	Interview int `json:"interview"`
	Rejected  int `json:"rejected"`
	Accepted  int `json:"accepted"`
}

func (c StatusCounts) Total() int {
	return c.Applied + c.Interview + c.Rejected + c.Accepted
}

// CountsFromGroups folds raw status->count groups into StatusCounts.
// Unrecognised statuses are dropped.
func CountsFromGroups(groups map[string]int) StatusCounts {
	var out StatusCounts

	for raw, n := range groups {
		switch Status(raw) {
		case StatusApplied:
			out.Applied += n
		case StatusInterview:
			out.Interview += n
		case StatusRejected:
			out.Rejected += n
		case StatusAccepted:
			out.Accepted += n
		}
	}

	return out
}

func New(ownerID string, req CreateRequest) Job {
	now := time.Now().UTC()

	return Job{
		ID:        uuid.NewString(),
		OwnerID:   ownerID,
		Company:   req.Company,
		Position:  req.Position,
		Status:    NormalizeStatus(req.Status),
		Location:  req.Location,
		CreatedAt: now,
		UpdatedAt: now,
	}
}
