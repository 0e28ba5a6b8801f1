package ui

import (
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/go-playground/validator/v10"
)

const minPasswordLength = 6

// AdminInput holds the fields for a new admin account
type AdminInput struct {
	Name     string `validate:"required,max=100"`
	Email    string `validate:"required,email,max=254"`
	Password string `validate:"required,min=6,max=128"`
}

// Complete reports whether every field was supplied, so the form can be skipped
func (in AdminInput) Complete() bool {
	return in.Name != "" && in.Email != "" && in.Password != ""
}

var validate = validator.New()

// ValidateAdmin checks in against the same rules registration uses
func ValidateAdmin(in AdminInput) error {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = strings.TrimSpace(in.Email)

	err := validate.Struct(in)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}

	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fieldMessage(fe))
	}
	return errors.New(strings.Join(msgs, "; "))
}

func fieldMessage(fe validator.FieldError) string {
	field := strings.ToLower(fe.Field())
	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "email":
		return field + " must be a valid email address"
	case "min":
		return fmt.Sprintf("%s must be at least %s characters", field, fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", field, fe.Param())
	default:
		return field + " is invalid"
	}
}

// RunAdminForm asks for the fields of in that are still empty
func RunAdminForm(in *AdminInput) error {
	var fields []huh.Field

	if in.Name == "" {
		fields = append(fields, huh.NewInput().
			Title("Name").
			Placeholder("Site Admin").
			Value(&in.Name).
			Validate(func(s string) error {
				if strings.TrimSpace(s) == "" {
					return fmt.Errorf("name is required")
				}
				return nil
			}))
	}

	if in.Email == "" {
		fields = append(fields, huh.NewInput().
			Title("Email").
			Description("Used to log in").
			Placeholder("admin@example.com").
			Value(&in.Email).
			Validate(func(s string) error {
				if err := validate.Var(strings.TrimSpace(s), "required,email"); err != nil {
					return fmt.Errorf("enter a valid email address")
				}
				return nil
			}))
	}

	if in.Password == "" {
		fields = append(fields, huh.NewInput().
			Title("Password").
			EchoMode(huh.EchoModePassword).
			Value(&in.Password).
			Validate(func(s string) error {
				if len(s) < minPasswordLength {
					return fmt.Errorf("password must be at least %d characters", minPasswordLength)
				}
				return nil
			}))
	}

	confirmed := true
	fields = append(fields, huh.NewConfirm().
		Title("Create this admin account?").
		Affirmative("Yes").
		Negative("No").
		Value(&confirmed))

	form := huh.NewForm(huh.NewGroup(fields...)).WithTheme(huh.ThemeCatppuccin())
	if err := form.Run(); err != nil {
		return err
	}

	if !confirmed {
		return huh.ErrUserAborted
	}
	return nil
}
