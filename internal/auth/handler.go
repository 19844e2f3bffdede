package auth

import (
	"errors"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"inventory-backend/internal/apperr"
	"inventory-backend/internal/permission"
	"inventory-backend/internal/store"
	"inventory-backend/internal/users"
)

// Handler handles authentication endpoints.
type Handler struct {
	db        *store.Store
	users     *users.Store
	fields    permission.Fields
	jwtSecret string
}

func NewHandler(db *store.Store, userStore *users.Store, fields permission.Fields, jwtSecret string) *Handler {
	return &Handler{db: db, users: userStore, fields: fields, jwtSecret: jwtSecret}
}

// RegisterRoutes registers auth routes on the given Fiber app.
func RegisterRoutes(app *fiber.App, h *Handler) {
	grp := app.Group("/api/auth")
	grp.Get("/check-first-user", h.CheckFirstUser)
	grp.Post("/login", h.Login)
	grp.Post("/register", h.Register)
	grp.Post("/refresh", h.Refresh)
	grp.Post("/logout", h.Logout)
}

// RegisterMeRoute mounts GET /api/me behind the auth middleware.
func RegisterMeRoute(app *fiber.App, h *Handler, mw ...fiber.Handler) {
	app.Get("/api/me", append(mw, h.Me)...)
}

// Me handles GET /api/me: the authenticated user plus the rendering
// capabilities derived from the visibility resolver, so the client
// never re-derives permission logic.
func (h *Handler) Me(c *fiber.Ctx) error {
	user := GetUser(c)
	if user == nil {
		return apperr.Unauthorized("Missing auth token")
	}
	return c.JSON(fiber.Map{"data": fiber.Map{
		"user":          user,
		"visibleFields": permission.VisibleFields(user.Role, user.Permissions, h.fields),
		"canEdit":       permission.CanEditAny(user.Role, user.Permissions, h.fields),
		"canDelete":     permission.CanDeleteAny(user.Role, user.Permissions, h.fields),
	}})
}

// CheckFirstUser handles GET /api/auth/check-first-user. The client
// uses it to decide whether to show the initial admin signup screen.
func (h *Handler) CheckFirstUser(c *fiber.Ctx) error {
	count, err := h.db.CountUsers(c.Context())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"isFirstUser": count == 0})
}

// Login handles POST /api/auth/login.
func (h *Handler) Login(c *fiber.Ctx) error {
	var body struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.BodyParser(&body); err != nil {
		return apperr.New("INVALID_PAYLOAD", 400, "Invalid request body")
	}
	if body.Email == "" || body.Password == "" {
		return apperr.Unauthorized("Email and password are required")
	}

	user, hash, err := h.users.GetByEmail(c.Context(), body.Email)
	if err != nil || !CheckPassword(body.Password, hash) {
		return apperr.Unauthorized("Invalid email or password")
	}

	pair, err := h.generateTokenPair(c, user.ID)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{"data": fiber.Map{"tokens": pair, "user": user}})
}

// Register handles POST /api/auth/register. When no users exist the
// registration is open but must carry the admin role; once any user
// exists, only an authenticated admin may register new users.
func (h *Handler) Register(c *fiber.Ctx) error {
	var body struct {
		Username    string                       `json:"username"`
		Email       string                       `json:"email"`
		Password    string                       `json:"password"`
		Role        string                       `json:"role"`
		Permissions []permission.FieldPermission `json:"permissions"`
	}
	if err := c.BodyParser(&body); err != nil {
		return apperr.New("INVALID_PAYLOAD", 400, "Invalid request body")
	}
	if body.Username == "" || body.Email == "" || body.Password == "" {
		return apperr.Validation([]apperr.ErrorDetail{
			{Message: "Username, email and password are required"},
		})
	}

	role, err := permission.ParseRole(body.Role)
	if err != nil {
		return apperr.InvalidEnum(err.Error())
	}
	set, err := permission.Normalize(body.Permissions, h.fields)
	if err != nil {
		return apperr.InvalidEnum(err.Error())
	}

	count, err := h.db.CountUsers(c.Context())
	if err != nil {
		return err
	}
	if count == 0 {
		if role != permission.RoleAdmin {
			return apperr.New("FIRST_USER_MUST_BE_ADMIN", 400, "First user must be an admin")
		}
	} else {
		actor, err := h.actorFromHeader(c)
		if err != nil {
			return err
		}
		if !actor.IsAdmin() {
			return apperr.Forbidden("Only admins can create new users")
		}
	}

	hash, err := HashPassword(body.Password)
	if err != nil {
		return apperr.Internal("Failed to hash password")
	}

	user, err := h.users.Create(c.Context(), body.Username, body.Email, hash, role, set)
	if err != nil {
		if store.IsUniqueViolation(err) {
			return apperr.Conflict("User already exists")
		}
		return err
	}

	pair, err := h.generateTokenPair(c, user.ID)
	if err != nil {
		return err
	}

	return c.Status(201).JSON(fiber.Map{"data": fiber.Map{"tokens": pair, "user": user}})
}

// Refresh handles POST /api/auth/refresh.
func (h *Handler) Refresh(c *fiber.Ctx) error {
	var body struct {
		RefreshToken string `json:"refresh_token"`
	}
	if err := c.BodyParser(&body); err != nil {
		return apperr.New("INVALID_PAYLOAD", 400, "Invalid request body")
	}
	if body.RefreshToken == "" {
		return apperr.Unauthorized("Refresh token is required")
	}

	ctx := c.Context()
	row, err := store.QueryRow(ctx, h.db.Pool,
		`SELECT id, user_id, expires_at FROM _refresh_tokens WHERE token = $1`,
		body.RefreshToken)
	if err != nil {
		return apperr.Unauthorized("Invalid refresh token")
	}

	expiresAt, _ := row["expires_at"].(time.Time)
	if time.Now().After(expiresAt) {
		_, _ = store.Exec(ctx, h.db.Pool,
			"DELETE FROM _refresh_tokens WHERE token = $1", body.RefreshToken)
		return apperr.Unauthorized("Refresh token expired")
	}

	// Rotation: the used token is burned before a new pair is issued.
	tokenID, _ := row["id"].(string)
	_, _ = store.Exec(ctx, h.db.Pool,
		"DELETE FROM _refresh_tokens WHERE id = $1", tokenID)

	userID, _ := row["user_id"].(string)
	pair, err := h.generateTokenPair(c, userID)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{"data": pair})
}

// Logout handles POST /api/auth/logout.
func (h *Handler) Logout(c *fiber.Ctx) error {
	var body struct {
		RefreshToken string `json:"refresh_token"`
	}
	if err := c.BodyParser(&body); err != nil {
		return apperr.New("INVALID_PAYLOAD", 400, "Invalid request body")
	}
	if body.RefreshToken == "" {
		return apperr.Unauthorized("Refresh token is required")
	}

	_, _ = store.Exec(c.Context(), h.db.Pool,
		"DELETE FROM _refresh_tokens WHERE token = $1", body.RefreshToken)

	return c.JSON(fiber.Map{"message": "Logged out"})
}

// actorFromHeader authenticates the caller of an open route that is
// conditionally restricted (register once users exist).
func (h *Handler) actorFromHeader(c *fiber.Ctx) (*users.User, error) {
	header := c.Get("Authorization")
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return nil, apperr.Unauthorized("Only admins can create new users")
	}
	claims, err := ParseAccessToken(parts[1], h.jwtSecret)
	if err != nil {
		return nil, apperr.Unauthorized("Invalid or expired token")
	}
	actor, err := h.users.GetByID(c.Context(), claims.Subject)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, apperr.Unauthorized("Unknown user")
		}
		return nil, err
	}
	return actor, nil
}

func (h *Handler) generateTokenPair(c *fiber.Ctx, userID string) (*TokenPair, error) {
	accessToken, err := GenerateAccessToken(userID, h.jwtSecret)
	if err != nil {
		return nil, apperr.Internal("Failed to generate access token")
	}

	refreshToken := GenerateRefreshToken()
	expiresAt := time.Now().Add(RefreshTokenTTL)

	_, err = store.Exec(c.Context(), h.db.Pool,
		`INSERT INTO _refresh_tokens (user_id, token, expires_at) VALUES ($1, $2, $3)`,
		userID, refreshToken, expiresAt)
	if err != nil {
		return nil, apperr.Internal("Failed to store refresh token")
	}

	return &TokenPair{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
	}, nil
}
