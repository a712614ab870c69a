// Package accountsim is an in memory campus account service. It serves the
// account endpoints the portal client talks to, so the portal can be run and
// tested without the real backend.
package accountsim

import (
	"net/http"
	"sync/atomic"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-portal"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

const (
	DefaultIssuer   = "campus-accounts"
	DefaultTokenTTL = 24 * time.Hour
	DefaultPrefix   = "/api"
)

// Config holds the simulator configuration.
type Config struct {
	// SigningKey signs bearer tokens, a random key is generated when empty
	SigningKey []byte
	TokenTTL   time.Duration
	Issuer     string
	// Prefix is the mount point of the account routes
	Prefix     string
	BcryptCost int
	Logger     portal.Logger
	Clock      func() time.Time
}

// Simulator is the in memory account service.
type Simulator struct {
	config Config
	users  *directory
	tokens *tokenIssuer
	logger portal.Logger
	now    func() time.Time
	outage atomic.Bool
	app    *fiber.App
}

// New creates a simulator with an empty user table.
func New(cfg Config) *Simulator {
	if len(cfg.SigningKey) == 0 {
		cfg.SigningKey = []byte(uuid.NewString())
	}
	if cfg.TokenTTL <= 0 {
		cfg.TokenTTL = DefaultTokenTTL
	}
	if cfg.Issuer == "" {
		cfg.Issuer = DefaultIssuer
	}
	if cfg.Prefix == "" {
		cfg.Prefix = DefaultPrefix
	}
	if cfg.BcryptCost == 0 {
		cfg.BcryptCost = bcrypt.DefaultCost
	}
	if cfg.Clock == nil {
		cfg.Clock = time.Now
	}

	logger := cfg.Logger
	if logger == nil {
		logger = nopLogger{}
	}

	s := &Simulator{
		config: cfg,
		users:  newDirectory(),
		tokens: newTokenIssuer(cfg.SigningKey, cfg.Issuer, cfg.TokenTTL, cfg.Clock),
		logger: logger,
		now:    cfg.Clock,
	}
	s.app = s.newApp()
	return s
}

// App returns the fiber application serving the account routes
func (s *Simulator) App() *fiber.App {
	return s.app
}

// Handler adapts the fiber application to net/http
func (s *Simulator) Handler() http.Handler {
	return adaptor.FiberApp(s.app)
}

// Listen serves the account routes on addr until Shutdown is called
func (s *Simulator) Listen(addr string) error {
	s.logger.Info("account simulator listening on %s%s", addr, s.config.Prefix)
	return s.app.Listen(addr)
}

// Shutdown stops a running Listen
func (s *Simulator) Shutdown() error {
	return s.app.Shutdown()
}

// SetOutage makes every route answer 503 while on
func (s *Simulator) SetOutage(on bool) {
	s.outage.Store(on)
}

// AddUser registers an account directly, bypassing the HTTP surface.
func (s *Simulator) AddUser(reg portal.Registration) (*portal.User, error) {
	if reg.PasswordConfirm == "" {
		reg.PasswordConfirm = reg.Password
	}
	if err := reg.Validate(); err != nil {
		return nil, err
	}

	hash, err := hashPassword(reg.Password, s.config.BcryptCost)
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to hash password")
	}

	user, err := s.users.create(reg, hash, s.now())
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryConflict, "could not create user")
	}
	return user, nil
}

// Deactivate disables an account, its tokens stop resolving
func (s *Simulator) Deactivate(id portal.UserID) bool {
	return s.users.setActive(id, false)
}

// IssueToken mints a bearer token for an existing account
func (s *Simulator) IssueToken(id portal.UserID) (string, error) {
	acc, ok := s.users.get(id)
	if !ok {
		return "", goerrors.New("unknown user", goerrors.CategoryNotFound)
	}
	return s.tokens.mint(acc.user.ID.String(), string(acc.user.Role))
}

// UserCount returns the number of registered accounts
func (s *Simulator) UserCount() int {
	return s.users.count()
}

// DemoPassword is the password of every DemoUsers account
const DemoPassword = "campus-demo-123"

// DemoUsers returns one account per portal role
func DemoUsers() []portal.Registration {
	users := make([]portal.Registration, 0, len(portal.AllRoles()))
	for _, role := range portal.AllRoles() {
		users = append(users, portal.Registration{
			Email:           string(role) + "@campus.test",
			Username:        string(role),
			FirstName:       "Demo",
			LastName:        role.Title(),
			Role:            role,
			Password:        DemoPassword,
			PasswordConfirm: DemoPassword,
		})
	}
	return users
}

type nopLogger struct{}

func (nopLogger) Debug(string, ...any) {}
func (nopLogger) Info(string, ...any)  {}
func (nopLogger) Error(string, ...any) {}
