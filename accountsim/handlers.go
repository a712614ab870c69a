package accountsim

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/goliatone/go-portal"
)

const (
	localsClaims  = "sim_claims"
	localsAccount = "sim_account"

	msgMissingCredentials = "Must include email and password."
	msgInvalidCredentials = "Invalid credentials."
	msgAccountDisabled    = "User account is disabled."
	msgPasswordsMismatch  = "Passwords don't match."
	msgNewPasswordsDiffer = "New passwords don't match."
	msgInvalidOldPassword = "Invalid old password"
	msgNoCredentials      = "Authentication credentials were not provided."
	msgInvalidToken       = "Given token not valid for any token type"
	msgUnavailable        = "Service temporarily unavailable."
)

func (s *Simulator) newApp() *fiber.App {
	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
		AppName:               "campus-accounts",
		ErrorHandler:          s.errorHandler,
	})

	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(s.outageGuard)

	accounts := app.Group(s.config.Prefix + "/accounts")
	accounts.Post("/login", s.login)
	accounts.Post("/register", s.register)
	accounts.Post("/logout", s.logout)
	accounts.Get("/profile", s.authenticate, s.profile)
	accounts.Put("/profile", s.authenticate, s.updateProfile)
	accounts.Post("/change-password", s.authenticate, s.changePassword)

	return app
}

func (s *Simulator) errorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
	}
	if code >= fiber.StatusInternalServerError {
		s.logger.Error("%s %s request_id=%s failed: %v", c.Method(), c.Path(), requestID(c), err)
	}
	return c.Status(code).JSON(fiber.Map{"detail": err.Error()})
}

func (s *Simulator) outageGuard(c *fiber.Ctx) error {
	if s.outage.Load() {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"detail": msgUnavailable})
	}
	return c.Next()
}

func (s *Simulator) authenticate(c *fiber.Ctx) error {
	raw := bearerToken(c.Get(fiber.HeaderAuthorization))
	if raw == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"detail": msgNoCredentials})
	}

	claims, err := s.tokens.validate(raw)
	if err != nil {
		s.logger.Debug("request_id=%s token rejected: %v", requestID(c), err)
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"detail": msgInvalidToken})
	}

	acc, ok := s.users.get(portal.UserID(claims.Subject))
	if !ok || !acc.user.IsActive {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"detail": msgInvalidToken})
	}

	c.Locals(localsClaims, claims)
	c.Locals(localsAccount, acc)
	return c.Next()
}

func (s *Simulator) login(c *fiber.Ctx) error {
	var payload loginPayload
	if err := c.BodyParser(&payload); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(nonFieldError(msgMissingCredentials))
	}

	identifier := payload.identifier()
	if identifier == "" || payload.Password == "" {
		return c.Status(fiber.StatusBadRequest).JSON(nonFieldError(msgMissingCredentials))
	}

	acc, ok := s.users.lookup(identifier)
	if !ok || !passwordMatches(payload.Password, acc.passwordHash) {
		return c.Status(fiber.StatusBadRequest).JSON(nonFieldError(msgInvalidCredentials))
	}
	if !acc.user.IsActive {
		return c.Status(fiber.StatusBadRequest).JSON(nonFieldError(msgAccountDisabled))
	}

	token, err := s.tokens.mint(acc.user.ID.String(), string(acc.user.Role))
	if err != nil {
		return err
	}

	s.logger.Info("login user=%s role=%s request_id=%s", acc.user.ID, acc.user.Role, requestID(c))

	return c.JSON(fiber.Map{
		"message": "Login successful",
		"user":    acc.user,
		"token":   token,
	})
}

func (s *Simulator) register(c *fiber.Ctx) error {
	var payload registerPayload
	if err := c.BodyParser(&payload); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(nonFieldError("Invalid payload."))
	}

	if err := payload.Validate(); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fieldErrors(err))
	}
	if payload.Password != payload.PasswordConfirm {
		return c.Status(fiber.StatusBadRequest).JSON(nonFieldError(msgPasswordsMismatch))
	}

	hash, err := hashPassword(payload.Password, s.config.BcryptCost)
	if err != nil {
		return err
	}

	user, err := s.users.create(payload.registration(), hash, s.now())
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fieldErrors(err))
	}

	s.logger.Info("registered user=%s role=%s request_id=%s", user.ID, user.Role, requestID(c))

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "Registration successful",
		"user":    user,
	})
}

// logout revokes the presented token when there is one, it never fails
func (s *Simulator) logout(c *fiber.Ctx) error {
	if raw := bearerToken(c.Get(fiber.HeaderAuthorization)); raw != "" {
		if claims, err := s.tokens.validate(raw); err == nil {
			s.tokens.revoke(claims)
		}
	}
	return c.JSON(fiber.Map{"message": "Logout successful"})
}

func (s *Simulator) profile(c *fiber.Ctx) error {
	acc := c.Locals(localsAccount).(*account)
	return c.JSON(fiber.Map{"user": acc.user})
}

func (s *Simulator) updateProfile(c *fiber.Ctx) error {
	acc := c.Locals(localsAccount).(*account)

	var payload profilePayload
	if err := c.BodyParser(&payload); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(nonFieldError("Invalid payload."))
	}
	if err := payload.Validate(); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fieldErrors(err))
	}

	user, err := s.users.update(acc.user.ID, payload.update())
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fieldErrors(err))
	}

	return c.JSON(fiber.Map{"user": user})
}

func (s *Simulator) changePassword(c *fiber.Ctx) error {
	acc := c.Locals(localsAccount).(*account)

	var payload passwordPayload
	if err := c.BodyParser(&payload); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(nonFieldError("Invalid payload."))
	}
	if err := payload.Validate(); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fieldErrors(err))
	}
	if payload.NewPassword != payload.NewPasswordConfirm {
		return c.Status(fiber.StatusBadRequest).JSON(nonFieldError(msgNewPasswordsDiffer))
	}
	if !passwordMatches(payload.OldPassword, acc.passwordHash) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": msgInvalidOldPassword})
	}

	hash, err := hashPassword(payload.NewPassword, s.config.BcryptCost)
	if err != nil {
		return err
	}
	s.users.setPassword(acc.user.ID, hash)

	return c.JSON(fiber.Map{"message": "Password changed successfully"})
}

func bearerToken(header string) string {
	const prefix = "bearer "
	header = strings.TrimSpace(header)
	if len(header) <= len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return ""
	}
	return strings.TrimSpace(header[len(prefix):])
}

func requestID(c *fiber.Ctx) string {
	if id, ok := c.Locals(requestid.ConfigDefault.ContextKey).(string); ok {
		return id
	}
	return c.Get(fiber.HeaderXRequestID)
}
