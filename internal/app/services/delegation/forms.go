package delegation

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"slices"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/dalemusser/memberhub/internal/app/store/audit"
	"github.com/dalemusser/memberhub/internal/app/system/authz"
	"github.com/dalemusser/memberhub/internal/app/system/htmlsanitize"
	"github.com/dalemusser/memberhub/internal/app/system/metrics"
	"github.com/dalemusser/memberhub/internal/app/system/normalize"
	"github.com/dalemusser/memberhub/internal/domain/errs"
	"github.com/dalemusser/memberhub/internal/domain/models"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	maxFields      = 50
	maxAnswerRunes = 500
	minPhoneDigits = 10
)

// validators checks one non-empty answer per field kind. The returned string
// is the field message; empty means valid.
var validators = map[string]func(f models.FormField, v string) string{
	models.FieldText: func(_ models.FormField, v string) string {
		if utf8.RuneCountInString(v) > maxAnswerRunes {
			return "too long"
		}
		return ""
	},
	models.FieldNumber: func(_ models.FormField, v string) string {
		if _, err := strconv.ParseFloat(v, 64); err != nil {
			return "must be a number"
		}
		return ""
	},
	models.FieldEmail: func(_ models.FormField, v string) string {
		if _, err := mail.ParseAddress(v); err != nil {
			return "must be an email address"
		}
		return ""
	},
	models.FieldTel: func(_ models.FormField, v string) string {
		if len(normalize.PhoneDigits(v)) < minPhoneDigits {
			return "must be a phone number"
		}
		return ""
	},
	models.FieldSelect: func(f models.FormField, v string) string {
		if !slices.Contains(f.Options, v) {
			return "must be one of the listed options"
		}
		return ""
	},
}

// cleanFields validates a form definition and returns the cleaned fields.
// Labels and options are stripped of markup; missing ids are assigned.
func cleanFields(in []models.FormField) ([]models.FormField, error) {
	ve := &errs.ValidationError{}
	if len(in) > maxFields {
		ve.Add("fields", "at most "+strconv.Itoa(maxFields)+" fields")
		return nil, ve
	}

	out := make([]models.FormField, 0, len(in))
	ids := map[string]bool{}
	labels := map[string]bool{}
	for i, f := range in {
		key := "fields[" + strconv.Itoa(i) + "]"
		f.Label = normalize.Label(htmlsanitize.StripTags(f.Label))
		f.Type = strings.ToLower(strings.TrimSpace(f.Type))
		f.ID = strings.TrimSpace(f.ID)

		if f.Label == "" {
			ve.Add(key+".label", "required")
		} else if folded := strings.ToLower(f.Label); labels[folded] {
			ve.Add(key+".label", "duplicate label")
		} else {
			labels[folded] = true
		}
		if _, ok := validators[f.Type]; !ok {
			ve.Add(key+".type", "must be one of "+strings.Join(models.FieldKinds, ", "))
		}

		if f.Type == models.FieldSelect {
			opts := make([]string, 0, len(f.Options))
			for _, o := range f.Options {
				o = normalize.Label(htmlsanitize.StripTags(o))
				if o != "" && !slices.Contains(opts, o) {
					opts = append(opts, o)
				}
			}
			if len(opts) == 0 {
				ve.Add(key+".options", "select fields need at least one option")
			}
			f.Options = opts
		} else {
			f.Options = nil
		}

		if f.ID == "" {
			f.ID = uuid.NewString()
		}
		if ids[f.ID] {
			ve.Add(key+".id", "duplicate id")
		}
		ids[f.ID] = true
		out = append(out, f)
	}
	if err := ve.OrNil(); err != nil {
		return nil, err
	}
	return out, nil
}

// SaveForm creates or replaces the manager's registration form. The manager
// may save their own form while their grant is live; admins and super
// controllers may save it on their behalf.
func (s *Service) SaveForm(ctx context.Context, actor authz.Actor, managerID string, fields []models.FormField, isActive bool) (models.EventForm, error) {
	const op = "save event form"
	self := actor.UserID != "" && actor.UserID == managerID
	admin := authz.CanAdminister(actor)
	if !self && !admin {
		return models.EventForm{}, s.deny(ctx, op, actor, audit.TargetEventForm, managerID)
	}

	_, live, err := s.liveGrant(ctx, managerID)
	if err != nil {
		return models.EventForm{}, fmt.Errorf("%s: %w", op, err)
	}
	if !live {
		if self && !admin {
			return models.EventForm{}, s.deny(ctx, op, actor, audit.TargetEventForm, managerID)
		}
		return models.EventForm{}, fmt.Errorf("%s: no live event manager grant: %w", op, errs.ErrNotFound)
	}

	cleaned, err := cleanFields(fields)
	if err != nil {
		return models.EventForm{}, err
	}
	saved, err := s.forms.Save(ctx, models.EventForm{
		ManagerID: managerID,
		Fields:    cleaned,
		IsActive:  isActive,
	})
	if err != nil {
		return models.EventForm{}, fmt.Errorf("%s: %w", op, err)
	}
	s.audit.Admin(ctx, audit.EventEventFormSaved, actor.UserID, audit.TargetEventForm, managerID, map[string]string{
		"fields":    strconv.Itoa(len(cleaned)),
		"is_active": strconv.FormatBool(isActive),
	})
	return saved, nil
}

// PublicForm is the registration form as shown to delegates.
type PublicForm struct {
	ManagerID string             `json:"manager_id"`
	EventName string             `json:"event_name"`
	Fields    []models.FormField `json:"fields"`
}

// GetForm returns the manager's form for public registration. Inactive
// forms and forms whose manager's grant has lapsed are reported as
// errs.ErrNotFound.
func (s *Service) GetForm(ctx context.Context, managerID string) (PublicForm, error) {
	rec, live, err := s.liveGrant(ctx, managerID)
	if err != nil {
		return PublicForm{}, fmt.Errorf("get event form: %w", err)
	}
	if !live {
		return PublicForm{}, fmt.Errorf("get event form: %w", errs.ErrNotFound)
	}
	f, err := s.forms.Get(ctx, managerID)
	if err != nil {
		return PublicForm{}, fmt.Errorf("get event form: %w", err)
	}
	if !f.IsActive {
		return PublicForm{}, fmt.Errorf("get event form: inactive: %w", errs.ErrNotFound)
	}
	return PublicForm{ManagerID: managerID, EventName: rec.EventLabel, Fields: f.Fields}, nil
}

// DelegateSubmission is a public registration. Answers are keyed by form
// field id.
type DelegateSubmission struct {
	FullName    string            `json:"full_name"`
	Email       string            `json:"email"`
	Phone       string            `json:"phone"`
	RoleInEvent string            `json:"role_in_event"`
	Delegation  string            `json:"delegation"`
	Answers     map[string]string `json:"answers"`
}

// SubmitDelegate registers a delegate through the manager's active form.
// Every field error is reported in one *errs.ValidationError and nothing is
// stored. The delegate's custom_data is keyed by field label and its
// event_name is the manager's current event label.
func (s *Service) SubmitDelegate(ctx context.Context, managerID string, sub DelegateSubmission) (models.Delegate, error) {
	const op = "submit delegate"
	form, err := s.GetForm(ctx, managerID)
	if err != nil {
		return models.Delegate{}, fmt.Errorf("%s: %w", op, err)
	}

	d := models.Delegate{
		ManagerID:   managerID,
		EventName:   form.EventName,
		FullName:    normalize.Name(htmlsanitize.StripTags(sub.FullName)),
		Email:       normalize.Email(sub.Email),
		Phone:       normalize.Phone(sub.Phone),
		RoleInEvent: normalize.Label(htmlsanitize.StripTags(sub.RoleInEvent)),
		Delegation:  normalize.Label(htmlsanitize.StripTags(sub.Delegation)),
		CustomData:  make(map[string]string, len(form.Fields)),
		CreatedAt:   s.now().UTC(),
	}

	ve := &errs.ValidationError{}
	if d.FullName == "" {
		ve.Add("full_name", "required")
	}
	if d.Email == "" {
		ve.Add("email", "required")
	} else if msg := validators[models.FieldEmail](models.FormField{}, d.Email); msg != "" {
		ve.Add("email", msg)
	}
	if d.Phone == "" {
		ve.Add("phone", "required")
	} else if msg := validators[models.FieldTel](models.FormField{}, d.Phone); msg != "" {
		ve.Add("phone", msg)
	}

	for _, f := range form.Fields {
		key := "answers." + f.ID
		v := strings.TrimSpace(htmlsanitize.StripTags(sub.Answers[f.ID]))
		if v == "" {
			if f.Required {
				ve.Add(key, "required")
			}
			continue
		}
		validate, ok := validators[f.Type]
		if !ok {
			// A stored field of a kind we no longer accept; keep the answer
			// as text rather than rejecting every registration.
			validate = validators[models.FieldText]
		}
		if msg := validate(f, v); msg != "" {
			ve.Add(key, msg)
			continue
		}
		d.CustomData[f.Label] = v
	}
	if err := ve.OrNil(); err != nil {
		return models.Delegate{}, err
	}

	d.ID = uuid.NewString()
	created, err := s.delegates.Create(ctx, d)
	if err != nil {
		return models.Delegate{}, fmt.Errorf("%s: %w", op, err)
	}
	metrics.DelegatesRegisteredTotal.Inc()
	s.audit.Public(ctx, audit.EventDelegateRegistered, audit.TargetDelegate, created.ID, map[string]string{
		"manager_id": managerID,
		"event_name": created.EventName,
	})
	return created, nil
}

// ListDelegates returns the delegates registered through a manager's form,
// newest first. The manager may list their own; admins and super
// controllers may list anyone's. Delegates remain listable after the grant
// lapses.
func (s *Service) ListDelegates(ctx context.Context, actor authz.Actor, managerID string, limit int64) ([]models.Delegate, error) {
	const op = "list delegates"
	self := actor.UserID != "" && actor.UserID == managerID
	admin := authz.CanAdminister(actor)
	if !self && !admin {
		return nil, s.deny(ctx, op, actor, audit.TargetDelegate, managerID)
	}
	list, err := s.delegates.ListByManager(ctx, managerID, limit)
	if err != nil {
		if errors.Is(err, errs.ErrNotFound) {
			return []models.Delegate{}, nil
		}
		s.log.Error("failed to list delegates", zap.String("manager_id", managerID), zap.Error(err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return list, nil
}
