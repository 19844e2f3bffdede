package users

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/crypto/bcrypt"

	"inventory-backend/internal/apperr"
	"inventory-backend/internal/permission"
	"inventory-backend/internal/store"
)

// Handler exposes admin-only user management: CRUD plus permission
// matrix replacement. All permission payloads pass through
// permission.Normalize before they touch storage, so malformed field
// or action strings are rejected at this boundary.
type Handler struct {
	users  *Store
	fields permission.Fields
}

func NewHandler(users *Store, fields permission.Fields) *Handler {
	return &Handler{users: users, fields: fields}
}

// RegisterRoutes mounts the user management routes. The caller is
// expected to pass auth + admin middleware.
func RegisterRoutes(app *fiber.App, h *Handler, mw ...fiber.Handler) {
	grp := app.Group("/api/users", mw...)
	grp.Get("/", h.List)
	grp.Post("/", h.Create)
	grp.Put("/:id", h.Update)
	grp.Delete("/:id", h.Delete)
}

type userPayload struct {
	Username    string                       `json:"username"`
	Email       string                       `json:"email"`
	Password    string                       `json:"password"`
	Role        string                       `json:"role"`
	Permissions []permission.FieldPermission `json:"permissions"`
}

// List handles GET /api/users.
func (h *Handler) List(c *fiber.Ctx) error {
	list, err := h.users.List(c.Context())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": list})
}

// Create handles POST /api/users.
func (h *Handler) Create(c *fiber.Ctx) error {
	var body userPayload
	if err := c.BodyParser(&body); err != nil {
		return apperr.New("INVALID_PAYLOAD", 400, "Invalid request body")
	}

	details := validateRequired(body, true)
	if len(details) > 0 {
		return apperr.Validation(details)
	}

	role, set, err := h.parseRoleAndPermissions(body.Role, body.Permissions)
	if err != nil {
		return err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(body.Password), bcrypt.DefaultCost)
	if err != nil {
		return apperr.Internal("Failed to hash password")
	}

	user, err := h.users.Create(c.Context(), body.Username, body.Email, string(hash), role, set)
	if err != nil {
		if store.IsUniqueViolation(err) {
			return apperr.Conflict("A user with this username or email already exists")
		}
		return err
	}
	return c.Status(201).JSON(fiber.Map{"data": user})
}

// Update handles PUT /api/users/:id. The password is not updatable
// through this route; the permission set is replaced wholesale with
// the normalized payload.
func (h *Handler) Update(c *fiber.Ctx) error {
	id := c.Params("id")

	var body userPayload
	if err := c.BodyParser(&body); err != nil {
		return apperr.New("INVALID_PAYLOAD", 400, "Invalid request body")
	}

	details := validateRequired(body, false)
	if len(details) > 0 {
		return apperr.Validation(details)
	}

	role, set, err := h.parseRoleAndPermissions(body.Role, body.Permissions)
	if err != nil {
		return err
	}

	user, err := h.users.Update(c.Context(), id, body.Username, body.Email, role, set)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return apperr.NotFound("user", id)
		}
		if store.IsUniqueViolation(err) {
			return apperr.Conflict("A user with this username or email already exists")
		}
		return err
	}
	return c.JSON(fiber.Map{"data": user})
}

// Delete handles DELETE /api/users/:id. Removes the record and its
// owned permission set atomically.
func (h *Handler) Delete(c *fiber.Ctx) error {
	id := c.Params("id")
	if err := h.users.Delete(c.Context(), id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return apperr.NotFound("user", id)
		}
		return err
	}
	return c.JSON(fiber.Map{"message": "User deleted"})
}

func (h *Handler) parseRoleAndPermissions(rawRole string, rawPerms []permission.FieldPermission) (permission.Role, permission.Set, error) {
	role, err := permission.ParseRole(rawRole)
	if err != nil {
		return "", nil, apperr.InvalidEnum(err.Error())
	}
	set, err := permission.Normalize(rawPerms, h.fields)
	if err != nil {
		return "", nil, apperr.InvalidEnum(err.Error())
	}
	return role, set, nil
}

func validateRequired(body userPayload, needPassword bool) []apperr.ErrorDetail {
	var details []apperr.ErrorDetail
	if body.Username == "" {
		details = append(details, apperr.ErrorDetail{Field: "username", Rule: "required", Message: "Username is required"})
	}
	if body.Email == "" {
		details = append(details, apperr.ErrorDetail{Field: "email", Rule: "required", Message: "Email is required"})
	}
	if needPassword && body.Password == "" {
		details = append(details, apperr.ErrorDetail{Field: "password", Rule: "required", Message: "Password is required"})
	}
	if body.Role == "" {
		details = append(details, apperr.ErrorDetail{Field: "role", Rule: "required", Message: "Role is required"})
	}
	return details
}
