package accountsim

import (
	"errors"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	"github.com/gofiber/fiber/v2"
	"github.com/goliatone/go-portal"
)

type loginPayload struct {
	Identifier string `json:"identifier"`
	Email      string `json:"email"`
	Username   string `json:"username"`
	Password   string `json:"password"`
}

func (p loginPayload) identifier() string {
	for _, v := range []string{p.Identifier, p.Email, p.Username} {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}

type registerPayload struct {
	Email           string `json:"email"`
	Username        string `json:"username"`
	FirstName       string `json:"first_name"`
	LastName        string `json:"last_name"`
	Role            string `json:"role"`
	Password        string `json:"password"`
	PasswordConfirm string `json:"password_confirm"`
}

func (r registerPayload) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required, validation.Length(3, 254), is.Email),
		validation.Field(&r.Username, validation.Length(0, 150)),
		validation.Field(&r.FirstName, validation.Length(0, 150)),
		validation.Field(&r.LastName, validation.Length(0, 150)),
		validation.Field(&r.Role, validation.Required, validation.By(func(v any) error {
			if _, ok := portal.ParseRole(r.Role); !ok {
				return errors.New("\"" + r.Role + "\" is not a valid choice.")
			}
			return nil
		})),
		validation.Field(&r.Password, validation.Required),
		validation.Field(&r.PasswordConfirm, validation.Required),
	)
}

func (r registerPayload) registration() portal.Registration {
	role, _ := portal.ParseRole(r.Role)
	return portal.Registration{
		Email:           r.Email,
		Username:        r.Username,
		FirstName:       r.FirstName,
		LastName:        r.LastName,
		Role:            role,
		Password:        r.Password,
		PasswordConfirm: r.PasswordConfirm,
	}
}

type passwordPayload struct {
	OldPassword        string `json:"old_password"`
	NewPassword        string `json:"new_password"`
	NewPasswordConfirm string `json:"new_password_confirm"`
}

func (p passwordPayload) Validate() error {
	return validation.ValidateStruct(&p,
		validation.Field(&p.OldPassword, validation.Required),
		validation.Field(&p.NewPassword, validation.Required),
		validation.Field(&p.NewPasswordConfirm, validation.Required),
	)
}

type profilePayload struct {
	FirstName *string `json:"first_name"`
	LastName  *string `json:"last_name"`
	Email     *string `json:"email"`
	Phone     *string `json:"phone"`
}

func (p profilePayload) Validate() error {
	return validation.ValidateStruct(&p,
		validation.Field(&p.FirstName, validation.Length(0, 150)),
		validation.Field(&p.LastName, validation.Length(0, 150)),
		validation.Field(&p.Email, validation.NilOrNotEmpty, is.Email),
		validation.Field(&p.Phone, validation.Length(0, 20)),
	)
}

func (p profilePayload) update() portal.ProfileUpdate {
	return portal.ProfileUpdate{
		FirstName: p.FirstName,
		LastName:  p.LastName,
		Email:     p.Email,
		Phone:     p.Phone,
	}
}

// fieldErrors renders validation errors the way the account service does,
// one list of messages per field.
func fieldErrors(err error) fiber.Map {
	out := fiber.Map{}

	var fieldErrs validation.Errors
	if errors.As(err, &fieldErrs) {
		for field, ferr := range fieldErrs {
			out[field] = []string{capitalize(ferr.Error()) + "."}
		}
		return out
	}

	var fe *fieldError
	if errors.As(err, &fe) {
		out[fe.Field] = []string{fe.Message}
		return out
	}

	out["non_field_errors"] = []string{err.Error()}
	return out
}

func nonFieldError(message string) fiber.Map {
	return fiber.Map{"non_field_errors": []string{message}}
}

func capitalize(s string) string {
	s = strings.TrimSuffix(s, ".")
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
