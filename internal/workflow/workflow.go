// Package workflow builds typed payloads for the platform actions used to
// create tasks, edit changes, and comment on processes.
package workflow

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
)

// Action names understood by the platform's generic action mutation.
const (
	ActionAddTask               = "Addtask"
	ActionEditChange            = "Editchange"
	ActionIncidentComment       = "Addcommentforincident"
	ActionDocumentReviewComment = "Addcommentfordocumentreview"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// Caller sends one action and returns its result as raw JSON.
// *graphql.ActionClient satisfies it.
type Caller interface {
	CallActionRaw(ctx context.Context, action string, payload any) (json.RawMessage, error)
}

// Request is a typed action payload.
type Request interface {
	Action() string
	Validate() error
}

// Send validates r and sends it as the payload of r.Action().
func Send(ctx context.Context, c Caller, r Request) (json.RawMessage, error) {
	if err := r.Validate(); err != nil {
		return nil, err
	}
	result, err := c.CallActionRaw(ctx, r.Action(), r)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", r.Action(), err)
	}
	return result, nil
}

// Priority is the business priority of a task or change.
type Priority string

const (
	PriorityLow    Priority = "LOW"
	PriorityMedium Priority = "MEDIUM"
	PriorityHigh   Priority = "HIGH"
)

// EpochMillis is a timestamp sent as a decimal string of Unix milliseconds.
type EpochMillis time.Time

// MarshalJSON implements json.Marshaler.
func (e EpochMillis) MarshalJSON() ([]byte, error) {
	return json.Marshal(strconv.FormatInt(time.Time(e).UnixMilli(), 10))
}

// UnmarshalJSON accepts the millisecond value as a string or a number.
func (e *EpochMillis) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		s = string(data)
	}
	ms, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return fmt.Errorf("epoch millis %s: %w", data, err)
	}
	*e = EpochMillis(time.UnixMilli(ms).UTC())
	return nil
}

// Task is the payload of the Addtask action.
type Task struct {
	TemplateID        string       `json:"templateId" validate:"required"`
	Summary           string       `json:"aptBusinessObjectSummary" validate:"required"`
	Description       string       `json:"aptBusinessObjectDescription,omitempty"`
	Priority          Priority     `json:"businessPriority,omitempty" validate:"omitempty,oneof=LOW MEDIUM HIGH"`
	CompletionDueDate *EpochMillis `json:"completionDueDate,omitempty"`
	IsVisible         bool         `json:"isVisible"`
	IsAtRisk          bool         `json:"isAtRisk"`
}

// Action implements Request.
func (Task) Action() string { return ActionAddTask }

// Validate implements Request.
func (t Task) Validate() error {
	if err := validate.Struct(t); err != nil {
		return fmt.Errorf("invalid task: %w", err)
	}
	return nil
}

// ChangeEdit is the payload of the Editchange action. The responsible party
// key keeps the platform's spelling.
type ChangeEdit struct {
	ID               string         `json:"id" validate:"required"`
	Description      string         `json:"aptBusinessObjectDescription,omitempty"`
	Priority         Priority       `json:"businessPriority,omitempty" validate:"omitempty,oneof=LOW MEDIUM HIGH"`
	ResponsibleParty map[string]any `json:"responsiblePartyAtParner"`
}

// Action implements Request.
func (ChangeEdit) Action() string { return ActionEditChange }

// Validate implements Request.
func (c ChangeEdit) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid change edit: %w", err)
	}
	return nil
}

// MarshalJSON sends an absent responsible party as an empty object.
func (c ChangeEdit) MarshalJSON() ([]byte, error) {
	type plain ChangeEdit
	p := plain(c)
	if p.ResponsibleParty == nil {
		p.ResponsibleParty = map[string]any{}
	}
	return json.Marshal(p)
}

// ProcessType identifies the kind of process a comment is attached to.
type ProcessType string

const (
	ProcessComplianceException ProcessType = "complianceException"
	ProcessDocumentReview      ProcessType = "documentReview"
)

// commentActions maps each process type to its comment action.
var commentActions = map[ProcessType]string{
	ProcessComplianceException: ActionIncidentComment,
	ProcessDocumentReview:      ActionDocumentReviewComment,
}

// CommentAction returns the action that adds a comment to a process of type pt.
func CommentAction(pt ProcessType) (string, error) {
	action, ok := commentActions[pt]
	if !ok {
		return "", fmt.Errorf("no comment action for process type %q", pt)
	}
	return action, nil
}

// Visibility controls who can read a comment.
type Visibility string

const (
	VisibilityPublic  Visibility = "Public"
	VisibilityPrivate Visibility = "Private"
)

// Comment is a comment on a compliance exception or document review. It is
// sent nested under aptCommentBox.aptComment.
type Comment struct {
	ProcessID   string      `validate:"required"`
	ProcessType ProcessType `validate:"required,oneof=complianceException documentReview"`
	Text        string      `validate:"required"`
	Visibility  Visibility  `validate:"omitempty,oneof=Public Private"`
}

// Action implements Request. It is empty for an unknown process type, which
// Validate rejects.
func (c Comment) Action() string {
	action, _ := CommentAction(c.ProcessType)
	return action
}

// Validate implements Request.
func (c Comment) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid comment: %w", err)
	}
	return nil
}

type commentBody struct {
	CommentText    string     `json:"commentText"`
	VisibilityType Visibility `json:"visibilityType"`
}

type commentPayload struct {
	ProcessID     string      `json:"processId"`
	ProcessType   ProcessType `json:"processType"`
	AptCommentBox struct {
		AptComment commentBody `json:"aptComment"`
	} `json:"aptCommentBox"`
}

// MarshalJSON renders the nested comment box shape. Visibility defaults to
// Public.
func (c Comment) MarshalJSON() ([]byte, error) {
	p := commentPayload{
		ProcessID:   c.ProcessID,
		ProcessType: c.ProcessType,
	}
	p.AptCommentBox.AptComment = commentBody{
		CommentText:    c.Text,
		VisibilityType: c.Visibility,
	}
	if p.AptCommentBox.AptComment.VisibilityType == "" {
		p.AptCommentBox.AptComment.VisibilityType = VisibilityPublic
	}
	return json.Marshal(p)
}

// AddTask creates a task from a template.
func AddTask(ctx context.Context, c Caller, t Task) (json.RawMessage, error) {
	return Send(ctx, c, t)
}

// EditChange updates an existing change.
func EditChange(ctx context.Context, c Caller, e ChangeEdit) (json.RawMessage, error) {
	return Send(ctx, c, e)
}

// AddComment comments on a process, choosing the action from its type.
func AddComment(ctx context.Context, c Caller, cm Comment) (json.RawMessage, error) {
	return Send(ctx, c, cm)
}

// ParseDueDate accepts RFC 3339, a plain date (2006-01-02, midnight UTC), or
// Unix milliseconds. An empty string yields nil.
func ParseDueDate(s string) (*EpochMillis, error) {
	if s == "" {
		return nil, nil
	}
	if ms, err := strconv.ParseInt(s, 10, 64); err == nil {
		e := EpochMillis(time.UnixMilli(ms).UTC())
		return &e, nil
	}
	for _, layout := range []string{time.RFC3339, time.DateOnly} {
		if ts, err := time.Parse(layout, s); err == nil {
			e := EpochMillis(ts)
			return &e, nil
		}
	}
	return nil, fmt.Errorf("invalid due date %q: want RFC 3339, YYYY-MM-DD, or epoch milliseconds", s)
}
