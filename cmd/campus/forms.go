package main

import (
	"errors"
	"os"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/goliatone/go-portal"
)

var errNotInteractive = errors.New("missing input and stdin is not a terminal, pass the values as flags")

func isInteractive() bool {
	info, err := os.Stdin.Stat()
	if err != nil {
		return false
	}
	return info.Mode()&os.ModeCharDevice != 0
}

func required(label string) func(string) error {
	return func(s string) error {
		if strings.TrimSpace(s) == "" {
			return errors.New(label + " is required")
		}
		return nil
	}
}

func runForm(fields ...huh.Field) error {
	if len(fields) == 0 {
		return nil
	}
	if !isInteractive() {
		return errNotInteractive
	}
	return huh.NewForm(huh.NewGroup(fields...)).Run()
}

func textInput(title string, value *string, validate func(string) error) huh.Field {
	input := huh.NewInput().Title(title).Value(value)
	if validate != nil {
		input = input.Validate(validate)
	}
	return input
}

func passwordInput(title string, value *string) huh.Field {
	return huh.NewInput().
		Title(title).
		EchoMode(huh.EchoModePassword).
		Value(value).
		Validate(required(title))
}

// promptCredentials asks for whatever the flags left empty
func promptCredentials(c *portal.Credentials) error {
	var fields []huh.Field
	if c.Identifier == "" {
		fields = append(fields, textInput("Email or username", &c.Identifier, required("email or username")))
	}
	if c.Password == "" {
		fields = append(fields, passwordInput("Password", &c.Password))
	}
	return runForm(fields...)
}

func promptRegistration(r *portal.Registration) error {
	var fields []huh.Field
	if r.Email == "" {
		fields = append(fields, textInput("Email", &r.Email, required("email")))
	}
	if r.FirstName == "" {
		fields = append(fields, textInput("First name", &r.FirstName, required("first name")))
	}
	if r.LastName == "" {
		fields = append(fields, textInput("Last name", &r.LastName, required("last name")))
	}
	if r.Role == "" {
		options := make([]huh.Option[portal.Role], 0, len(portal.AllRoles()))
		for _, role := range portal.AllRoles() {
			options = append(options, huh.NewOption(role.Title(), role))
		}
		fields = append(fields, huh.NewSelect[portal.Role]().
			Title("Role").
			Options(options...).
			Value(&r.Role))
	}
	if r.Password == "" {
		fields = append(fields, passwordInput("Password", &r.Password))
	}
	if r.PasswordConfirm == "" {
		fields = append(fields, passwordInput("Confirm password", &r.PasswordConfirm))
	}
	return runForm(fields...)
}

func promptPasswordChange(p *portal.PasswordChange) error {
	var fields []huh.Field
	if p.OldPassword == "" {
		fields = append(fields, passwordInput("Current password", &p.OldPassword))
	}
	if p.NewPassword == "" {
		fields = append(fields, passwordInput("New password", &p.NewPassword))
	}
	if p.NewPasswordConfirm == "" {
		fields = append(fields, passwordInput("Confirm new password", &p.NewPasswordConfirm))
	}
	return runForm(fields...)
}
