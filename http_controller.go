package clarix

import (
	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/gofiber/fiber/v2"
	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-print"
	"github.com/google/uuid"
)

// APIControllerRoutes holds the route paths, all relative to Prefix.
type APIControllerRoutes struct {
	Prefix         string
	Register       string
	Login          string
	Refresh        string
	Logout         string
	ForgotPassword string
	ResetPassword  string
	Onboarding     string
	Health         string
}

// APIController wires the JSON API to the workflow handlers. Protected
// routes run the Guard middleware, which stores the caller's id in request
// locals under jwtware's user key.
type APIController struct {
	Debug        bool
	Logger       Logger
	Version      string
	Routes       *APIControllerRoutes
	Guard        fiber.Handler
	ErrorHandler fiber.ErrorHandler

	register   *RegisterUserHandler
	login      *LoginHandler
	refresh    *RefreshSessionHandler
	logout     *LogoutHandler
	resetInit  *InitializePasswordResetHandler
	resetDone  *FinalizePasswordResetHandler
	onboarding *OnboardingStatusHandler
}

type APIControllerOption func(*APIController) *APIController

func NewAPIController(opts ...APIControllerOption) *APIController {
	c := &APIController{
		Logger:       defLogger{},
		ErrorHandler: DefaultErrorHandler,
		Version:      "dev",
		Routes: &APIControllerRoutes{
			Prefix:         "/api/v1",
			Register:       "/register",
			Login:          "/login",
			Refresh:        "/refresh",
			Logout:         "/logout",
			ForgotPassword: "/forgot-password",
			ResetPassword:  "/reset-password",
			Onboarding:     "/onboarding",
			Health:         "/health",
		},
	}

	for _, opt := range opts {
		c = opt(c)
	}

	if c.register == nil || c.login == nil || c.refresh == nil || c.logout == nil ||
		c.resetInit == nil || c.resetDone == nil || c.onboarding == nil {
		panic("Missing workflow handlers in api controller...")
	}

	if c.Guard == nil {
		panic("Missing auth guard in api controller...")
	}

	return c
}

// WithControllerHandlers builds the full handler set from shared
// dependencies. An optional activity sink receives audit events from the
// handlers that produce them.
func WithControllerHandlers(repo RepositoryManager, backend IdentityBackend, payments PaymentCustomers, logger Logger, sinks ...ActivitySink) APIControllerOption {
	return func(c *APIController) *APIController {
		c.register = NewRegisterUserHandler(repo, backend, payments, logger, sinks...)
		c.login = NewLoginHandler(repo, backend, logger, sinks...)
		c.refresh = NewRefreshSessionHandler(backend, logger)
		c.logout = NewLogoutHandler(backend, logger, sinks...)
		c.resetInit = NewInitializePasswordResetHandler(repo, backend, logger, sinks...)
		c.resetDone = NewFinalizePasswordResetHandler(backend, logger, sinks...)
		c.onboarding = NewOnboardingStatusHandler(repo)
		return c
	}
}

func WithControllerGuard(guard fiber.Handler) APIControllerOption {
	return func(c *APIController) *APIController {
		c.Guard = guard
		return c
	}
}

func WithControllerLogger(logger Logger) APIControllerOption {
	return func(c *APIController) *APIController {
		if logger != nil {
			c.Logger = logger
		}
		return c
	}
}

func WithControllerVersion(version string) APIControllerOption {
	return func(c *APIController) *APIController {
		c.Version = version
		return c
	}
}

func WithControllerDebug(debug bool) APIControllerOption {
	return func(c *APIController) *APIController {
		c.Debug = debug
		return c
	}
}

// RegisterRoutes mounts every route under the configured prefix.
func (a *APIController) RegisterRoutes(app fiber.Router) {
	api := app.Group(a.Routes.Prefix)

	api.Get(a.Routes.Health, a.HealthShow)

	api.Post(a.Routes.Register, a.RegistrationCreate)
	api.Post(a.Routes.Login, a.LoginPost)
	api.Post(a.Routes.Refresh, a.RefreshPost)
	api.Post(a.Routes.Logout, a.Guard, a.LogoutPost)
	api.Post(a.Routes.ForgotPassword, a.PasswordResetPost)
	api.Post(a.Routes.ResetPassword, a.PasswordResetExecute)
	api.Get(a.Routes.Onboarding, a.Guard, a.OnboardingShow)
}

func (a *APIController) HealthShow(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":  "ok",
		"version": a.Version,
	})
}

func (a *APIController) RegistrationCreate(c *fiber.Ctx) error {
	msg := RegisterUserMessage{}
	if err := c.BodyParser(&msg); err != nil {
		return a.ErrorHandler(c, badBody(err))
	}

	if a.Debug {
		a.Logger.Debug("register payload: %s", print.MaybePrettyJSON(msg))
	}

	resp, err := a.register.Execute(c.UserContext(), msg)
	if err != nil {
		return a.ErrorHandler(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(resp)
}

func (a *APIController) LoginPost(c *fiber.Ctx) error {
	msg := LoginMessage{}
	if err := c.BodyParser(&msg); err != nil {
		return a.ErrorHandler(c, badBody(err))
	}

	resp, err := a.login.Execute(c.UserContext(), msg)
	if err != nil {
		return a.ErrorHandler(c, err)
	}

	return c.JSON(resp)
}

func (a *APIController) RefreshPost(c *fiber.Ctx) error {
	msg := RefreshSessionMessage{}
	if err := c.BodyParser(&msg); err != nil {
		return a.ErrorHandler(c, badBody(err))
	}

	resp, err := a.refresh.Execute(c.UserContext(), msg)
	if err != nil {
		return a.ErrorHandler(c, err)
	}

	return c.JSON(resp)
}

func (a *APIController) LogoutPost(c *fiber.Ctx) error {
	token, err := bearerToken(c)
	if err != nil {
		return a.ErrorHandler(c, err)
	}

	resp, err := a.logout.Execute(c.UserContext(), LogoutMessage{AccessToken: token})
	if err != nil {
		return a.ErrorHandler(c, err)
	}

	return c.JSON(resp)
}

func (a *APIController) PasswordResetPost(c *fiber.Ctx) error {
	msg := InitializePasswordResetMessage{}
	if err := c.BodyParser(&msg); err != nil {
		return a.ErrorHandler(c, badBody(err))
	}

	resp, err := a.resetInit.Execute(c.UserContext(), msg)
	if err != nil {
		return a.ErrorHandler(c, err)
	}

	return c.JSON(resp)
}

func (a *APIController) PasswordResetExecute(c *fiber.Ctx) error {
	msg := FinalizePasswordResetMessage{}
	if err := c.BodyParser(&msg); err != nil {
		return a.ErrorHandler(c, badBody(err))
	}

	resp, err := a.resetDone.Execute(c.UserContext(), msg)
	if err != nil {
		return a.ErrorHandler(c, err)
	}

	return c.JSON(resp)
}

func (a *APIController) OnboardingShow(c *fiber.Ctx) error {
	subject, _ := c.Locals("user_id").(string)

	userUUID, err := uuid.Parse(subject)
	if err != nil {
		return a.ErrorHandler(c, withSource(ErrTokenInvalid, err))
	}

	resp, err := a.onboarding.Execute(c.UserContext(), OnboardingStatusMessage{UserUUID: userUUID})
	if err != nil {
		return a.ErrorHandler(c, err)
	}

	return c.JSON(resp)
}

// DefaultErrorHandler renders every error as a JSON body with a single
// detail field, using the rich error's code as the HTTP status.
func DefaultErrorHandler(c *fiber.Ctx, err error) error {
	var rich *goerrors.Error
	if goerrors.As(err, &rich) {
		status := rich.Code
		if status == 0 {
			status = fiber.StatusInternalServerError
		}
		return c.Status(status).JSON(fiber.Map{"detail": rich.Message})
	}

	if verrs, ok := err.(validation.Errors); ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"detail": verrs.Error()})
	}

	if ferr, ok := err.(*fiber.Error); ok {
		return c.Status(ferr.Code).JSON(fiber.Map{"detail": ferr.Message})
	}

	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"detail": "internal server error"})
}

func badBody(err error) error {
	return goerrors.Wrap(err, goerrors.CategoryBadInput, "invalid request body").
		WithCode(goerrors.CodeBadRequest)
}

func bearerToken(c *fiber.Ctx) (string, error) {
	header := c.Get(fiber.HeaderAuthorization)
	if len(header) > 7 && (header[:7] == "Bearer " || header[:7] == "bearer ") {
		return header[7:], nil
	}
	return "", ErrTokenInvalid.Clone()
}
