package users

import (
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"inventory-backend/internal/apperr"
	"inventory-backend/internal/permission"
	"inventory-backend/internal/store"
)

// Matrix endpoints let an administrator edit a user's permission set
// one toggle at a time, with the server as the single authority for
// the resulting set. Each toggle loads the current set, applies the
// matrix operation, and writes the whole set back (last write wins
// between concurrent administrators).

// RegisterMatrixRoutes mounts the permission matrix routes. Same
// gating as the user CRUD routes.
func RegisterMatrixRoutes(app *fiber.App, h *Handler, mw ...fiber.Handler) {
	grp := app.Group("/api/users/:id/permissions", mw...)
	grp.Get("/", h.GetMatrix)
	grp.Post("/cell", h.ToggleCell)
	grp.Post("/field", h.ToggleField)
	grp.Post("/action", h.ToggleAction)
}

// matrixState is the full control state for rendering the matrix:
// the set itself plus the select-all checkbox states.
type matrixState struct {
	Permissions   permission.Set  `json:"permissions"`
	FieldChecked  map[string]bool `json:"fieldChecked"`
	ColumnChecked map[string]bool `json:"columnChecked"`
}

// GetMatrix handles GET /api/users/:id/permissions.
func (h *Handler) GetMatrix(c *fiber.Ctx) error {
	user, err := h.loadUser(c)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": h.matrixState(user.Permissions)})
}

// ToggleCell handles POST /api/users/:id/permissions/cell.
func (h *Handler) ToggleCell(c *fiber.Ctx) error {
	user, err := h.loadUser(c)
	if err != nil {
		return err
	}

	var body struct {
		Field  string `json:"field"`
		Action string `json:"action"`
	}
	if err := c.BodyParser(&body); err != nil {
		return apperr.New("INVALID_PAYLOAD", 400, "Invalid request body")
	}

	field, err := h.parseField(body.Field)
	if err != nil {
		return err
	}
	action, err := parseAction(body.Action)
	if err != nil {
		return err
	}

	next := permission.ToggleCell(user.Permissions, field, action)
	return h.saveMatrix(c, user.ID, next)
}

// ToggleField handles POST /api/users/:id/permissions/field: grants
// or revokes the full action row for one field.
func (h *Handler) ToggleField(c *fiber.Ctx) error {
	user, err := h.loadUser(c)
	if err != nil {
		return err
	}

	var body struct {
		Field   string `json:"field"`
		Enabled bool   `json:"enabled"`
	}
	if err := c.BodyParser(&body); err != nil {
		return apperr.New("INVALID_PAYLOAD", 400, "Invalid request body")
	}

	field, err := h.parseField(body.Field)
	if err != nil {
		return err
	}

	next := permission.ToggleAllForField(user.Permissions, field, body.Enabled)
	return h.saveMatrix(c, user.ID, next)
}

// ToggleAction handles POST /api/users/:id/permissions/action: grants
// or revokes one action column across the whole field enumeration.
func (h *Handler) ToggleAction(c *fiber.Ctx) error {
	user, err := h.loadUser(c)
	if err != nil {
		return err
	}

	var body struct {
		Action  string `json:"action"`
		Enabled bool   `json:"enabled"`
	}
	if err := c.BodyParser(&body); err != nil {
		return apperr.New("INVALID_PAYLOAD", 400, "Invalid request body")
	}

	action, err := parseAction(body.Action)
	if err != nil {
		return err
	}

	next := permission.ToggleAllForAction(user.Permissions, h.fields, action, body.Enabled)
	return h.saveMatrix(c, user.ID, next)
}

func (h *Handler) loadUser(c *fiber.Ctx) (*User, error) {
	id := c.Params("id")
	user, err := h.users.GetByID(c.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, apperr.NotFound("user", id)
		}
		return nil, err
	}
	return user, nil
}

func (h *Handler) saveMatrix(c *fiber.Ctx, id string, set permission.Set) error {
	if err := h.users.UpdatePermissions(c.Context(), id, set); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return apperr.NotFound("user", id)
		}
		return err
	}
	return c.JSON(fiber.Map{"data": h.matrixState(set)})
}

func (h *Handler) matrixState(set permission.Set) matrixState {
	state := matrixState{
		Permissions:   set,
		FieldChecked:  make(map[string]bool, len(h.fields)),
		ColumnChecked: make(map[string]bool, len(permission.Actions)),
	}
	for _, f := range h.fields {
		state.FieldChecked[string(f)] = permission.FieldFullyGranted(set, f)
	}
	for _, a := range permission.Actions {
		state.ColumnChecked[string(a)] = permission.ActionGrantedForAll(set, h.fields, a)
	}
	return state
}

func (h *Handler) parseField(raw string) (permission.Field, error) {
	f := permission.Field(raw)
	if !h.fields.Contains(f) {
		return "", apperr.InvalidEnum("invalid enum value: field " + strconv.Quote(raw))
	}
	return f, nil
}

func parseAction(raw string) (permission.Action, error) {
	switch permission.Action(raw) {
	case permission.ActionView, permission.ActionEdit, permission.ActionDelete:
		return permission.Action(raw), nil
	}
	return "", apperr.InvalidEnum("invalid enum value: action " + strconv.Quote(raw))
}
