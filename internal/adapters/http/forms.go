package web

import (
	"errors"
	"net/http"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
)

// errInvalidForm is matched (via errors.Is) by every *formError.
var errInvalidForm = errors.New("invalid form submission")

// formError lists every problem found in one submission so they can be
// shown together in a single notice.
type formError struct {
	Problems []string
}

func (e *formError) Error() string {
	return strings.Join(e.Problems, "; ")
}

func (e *formError) Is(target error) bool {
	return target == errInvalidForm
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		return fieldLabel(f)
	})
	return v
}

// fieldLabel is the human name of a form field: its form key with
// underscores as spaces.
func fieldLabel(f reflect.StructField) string {
	name := f.Tag.Get("form")
	if name == "" || name == "-" {
		return f.Name
	}
	return strings.ReplaceAll(name, "_", " ")
}

type loginForm struct {
	Email    string `form:"email" validate:"required,email"`
	Password string `form:"password" validate:"required"`
}

type passwordForm struct {
	CurrentPassword string `form:"current_password" validate:"required"`
	NewPassword     string `form:"new_password" validate:"required,min=8"`
	ConfirmPassword string `form:"confirm_password" validate:"required,eqfield=NewPassword"`
}

type branchForm struct {
	Name    string `form:"name" validate:"required,max=100"`
	Address string `form:"address" validate:"max=255"`
	Phone   string `form:"phone" validate:"max=32"`
	Status  string `form:"status" validate:"omitempty,oneof=active inactive"`
}

type adminForm struct {
	Name     string `form:"name" validate:"required,max=100"`
	Email    string `form:"email" validate:"required,email,max=254"`
	Password string `form:"password" validate:"required,min=8"`
	BranchID string `form:"branch_id" validate:"required"`
}

type featureForm struct {
	Enabled bool `form:"enabled"`
}

type customerForm struct {
	Name             string `form:"name" validate:"required,max=100"`
	Email            string `form:"email" validate:"omitempty,email,max=254"`
	Phone            string `form:"phone" validate:"max=32"`
	Gender           string `form:"gender" validate:"omitempty,oneof=male female other"`
	SubscriptionType string `form:"subscription_type" validate:"required,oneof=monthly six_months yearly"`
	JoinDate         string `form:"join_date" validate:"omitempty,datetime=2006-01-02"`
	Status           string `form:"status" validate:"omitempty,oneof=active inactive"`
}

type trainerForm struct {
	Name           string `form:"name" validate:"required,max=100"`
	Email          string `form:"email" validate:"omitempty,email,max=254"`
	Phone          string `form:"phone" validate:"max=32"`
	Specialization string `form:"specialization" validate:"max=100"`
	Bio            string `form:"bio" validate:"max=4000"`
	Status         string `form:"status" validate:"omitempty,oneof=active inactive on_leave"`
	HireDate       string `form:"hire_date" validate:"omitempty,datetime=2006-01-02"`
	RemovePhoto    bool   `form:"remove_photo"`
}

type checkInForm struct {
	CustomerID string `form:"customer_id" validate:"required"`
	Notes      string `form:"notes" validate:"max=500"`
	Override   bool   `form:"override"`
}

type checkOutForm struct {
	Notes string `form:"notes" validate:"max=500"`
}

type settingsForm struct {
	MaxEntriesPerDay  int  `form:"max_entries_per_day" validate:"gte=1,lte=50"`
	AutoCheckoutAfter int  `form:"auto_checkout_after" validate:"gte=1,lte=1440"`
	RequireCheckout   bool `form:"require_checkout"`
}

// sessionForm is checked by schedule.Request.Validate, which collects
// every problem itself.
type sessionForm struct {
	TrainerID       string `form:"trainer_id"`
	CustomerID      string `form:"customer_id"`
	Date            string `form:"date"`
	StartTime       string `form:"start_time"`
	EndTime         string `form:"end_time"`
	AssignmentStart string `form:"assignment_start"`
	AssignmentEnd   string `form:"assignment_end"`
	Notes           string `form:"notes" validate:"max=500"`
}

type statusForm struct {
	Status string `form:"status" validate:"required"`
}

// decodeForm parses the request form into dst and validates it.
// PRE: dst is a pointer to a struct whose fields carry form tags
// POST: Returns a *formError listing every problem, or nil
func decodeForm(r *http.Request, dst any) error {
	if err := r.ParseForm(); err != nil {
		return &formError{Problems: []string{"the form could not be read"}}
	}
	problems := bindValues(r, dst)
	if err := validate.Struct(dst); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return err
		}
		for _, fe := range verrs {
			problems = append(problems, describe(fe))
		}
	}
	if len(problems) > 0 {
		return &formError{Problems: problems}
	}
	return nil
}

// bindValues copies trimmed form values into dst's tagged fields.
func bindValues(r *http.Request, dst any) []string {
	var problems []string
	v := reflect.ValueOf(dst).Elem()
	t := v.Type()
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		key := f.Tag.Get("form")
		if key == "" || key == "-" {
			continue
		}
		raw := strings.TrimSpace(r.FormValue(key))
		field := v.Field(i)
		switch field.Kind() {
		case reflect.String:
			field.SetString(raw)
		case reflect.Bool:
			field.SetBool(raw == "on" || raw == "true" || raw == "1")
		case reflect.Int:
			if raw == "" {
				continue
			}
			n, err := strconv.Atoi(raw)
			if err != nil {
				problems = append(problems, fieldLabel(f)+" must be a whole number")
				continue
			}
			field.SetInt(int64(n))
		}
	}
	return problems
}

func describe(fe validator.FieldError) string {
	label := fe.Field()
	switch fe.Tag() {
	case "required":
		return label + " is required"
	case "email":
		return label + " must be a valid email address"
	case "oneof":
		return label + " must be one of: " + strings.ReplaceAll(fe.Param(), " ", ", ")
	case "datetime":
		return label + " must be in YYYY-MM-DD format"
	case "min":
		if fe.Kind() == reflect.String {
			return label + " must be at least " + fe.Param() + " characters"
		}
		return label + " must be at least " + fe.Param()
	case "max":
		if fe.Kind() == reflect.String {
			return label + " cannot exceed " + fe.Param() + " characters"
		}
		return label + " cannot exceed " + fe.Param()
	case "eqfield":
		return label + " does not match"
	case "gte":
		return label + " must be at least " + fe.Param()
	case "lte":
		return label + " must be at most " + fe.Param()
	default:
		return label + " is invalid"
	}
}
