package portal

import (
	"errors"
	"sort"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	"github.com/nyaruka/phonenumbers"
)

// DefaultPhoneRegion is used to parse phone numbers given without a
// country prefix.
var DefaultPhoneRegion = "US"

const (
	msgPasswordsMismatch    = "Passwords don't match."
	msgNewPasswordsMismatch = "New passwords don't match."
	msgNothingToUpdate      = "Nothing to update."
)

// Validate checks the login payload before it is sent
func (c Credentials) Validate() error {
	err := validation.ValidateStruct(&c,
		validation.Field(&c.Identifier, validation.Required, validation.Length(1, 254)),
		validation.Field(&c.Password, validation.Required),
	)
	return asValidationError(err)
}

// Validate checks the registration payload before it is sent
func (r Registration) Validate() error {
	err := validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required, validation.Length(3, 254), is.Email),
		validation.Field(&r.Username, validation.Length(0, 150)),
		validation.Field(&r.FirstName, validation.Required, validation.Length(1, 150)),
		validation.Field(&r.LastName, validation.Required, validation.Length(1, 150)),
		validation.Field(&r.Role, validation.Required, validation.By(validRole)),
		validation.Field(&r.Password, validation.Required),
		validation.Field(&r.PasswordConfirm, validation.Required),
	)
	if err != nil {
		return asValidationError(err)
	}

	if r.Password != r.PasswordConfirm {
		return NewValidationError(msgPasswordsMismatch, map[string]any{
			"password_confirm": msgPasswordsMismatch,
		})
	}

	return nil
}

// Validate checks the password change payload before it is sent
func (p PasswordChange) Validate() error {
	err := validation.ValidateStruct(&p,
		validation.Field(&p.OldPassword, validation.Required),
		validation.Field(&p.NewPassword, validation.Required),
		validation.Field(&p.NewPasswordConfirm, validation.Required),
	)
	if err != nil {
		return asValidationError(err)
	}

	if p.NewPassword != p.NewPasswordConfirm {
		return NewValidationError(msgNewPasswordsMismatch, map[string]any{
			"new_password_confirm": msgNewPasswordsMismatch,
		})
	}

	return nil
}

// Validate checks the profile update before it is sent
func (p ProfileUpdate) Validate() error {
	if p.IsEmpty() {
		return NewValidationError(msgNothingToUpdate, nil)
	}

	err := validation.ValidateStruct(&p,
		validation.Field(&p.FirstName, validation.NilOrNotEmpty, validation.Length(1, 150)),
		validation.Field(&p.LastName, validation.NilOrNotEmpty, validation.Length(1, 150)),
		validation.Field(&p.Email, validation.NilOrNotEmpty, is.Email),
		validation.Field(&p.Phone, validation.Length(0, 20), validation.By(validPhone)),
	)
	return asValidationError(err)
}

func validRole(value any) error {
	var role Role
	switch v := value.(type) {
	case Role:
		role = v
	case string:
		role = Role(v)
	}
	if !role.IsValid() {
		return errors.New("must be one of admin, faculty, student, parent")
	}
	return nil
}

func validPhone(value any) error {
	var raw string
	switch v := value.(type) {
	case *string:
		if v != nil {
			raw = *v
		}
	case string:
		raw = v
	}

	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}

	num, err := phonenumbers.Parse(raw, DefaultPhoneRegion)
	if err != nil || !phonenumbers.IsValidNumber(num) {
		return errors.New("must be a valid phone number")
	}
	return nil
}

// NormalizePhone formats a valid phone number as E.164, other input is
// returned trimmed.
func NormalizePhone(raw string) string {
	raw = strings.TrimSpace(raw)
	num, err := phonenumbers.Parse(raw, DefaultPhoneRegion)
	if err != nil || !phonenumbers.IsValidNumber(num) {
		return raw
	}
	return phonenumbers.Format(num, phonenumbers.E164)
}

// asValidationError flattens ozzo field errors into ErrValidation. The
// message lists fields in a stable order.
func asValidationError(err error) error {
	if err == nil {
		return nil
	}

	var fieldErrs validation.Errors
	if !errors.As(err, &fieldErrs) {
		return NewValidationError(err.Error(), nil)
	}

	keys := make([]string, 0, len(fieldErrs))
	for k := range fieldErrs {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	fields := make(map[string]any, len(keys))
	for _, k := range keys {
		msg := fieldErrs[k].Error()
		fields[k] = msg
		parts = append(parts, k+": "+msg)
	}

	return NewValidationError(strings.Join(parts, "; "), fields)
}
