package catalog

import (
	"errors"
	"fmt"
	"mime/multipart"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"inventory-backend/internal/apperr"
	"inventory-backend/internal/auth"
	"inventory-backend/internal/permission"
	"inventory-backend/internal/storage"
	"inventory-backend/internal/store"
)

const productColumns = "id, image, name, product_code, size, manufacturer, stock, bad_stock, bookings, created_at, updated_at"

// Handler serves product CRUD. Every mutation passes the enforcement
// gateway before it touches the database, and every read is filtered
// through the visibility resolver.
type Handler struct {
	db          *store.Store
	storage     *storage.LocalStorage
	fields      permission.Fields
	maxFileSize int64
	stats       *StatsEvaluator
}

func NewHandler(db *store.Store, fs *storage.LocalStorage, fields permission.Fields, maxFileSize int64, stats *StatsEvaluator) *Handler {
	return &Handler{db: db, storage: fs, fields: fields, maxFileSize: maxFileSize, stats: stats}
}

// RegisterRoutes mounts the product routes behind the given middleware.
func RegisterRoutes(app *fiber.App, h *Handler, mw ...fiber.Handler) {
	grp := app.Group("/api/products", mw...)
	grp.Get("/", h.List)
	grp.Get("/stats", h.Stats)
	grp.Get("/:id", h.GetByID)
	grp.Post("/", h.Create)
	grp.Put("/:id", h.Update)
	grp.Delete("/:id", h.Delete)
}

// List handles GET /api/products.
func (h *Handler) List(c *fiber.Ctx) error {
	rows, err := store.QueryRows(c.Context(), h.db.Pool,
		"SELECT "+productColumns+" FROM products ORDER BY created_at")
	if err != nil {
		return fmt.Errorf("list products: %w", err)
	}

	actor := auth.GetUser(c)
	out := make([]map[string]any, 0, len(rows))
	for _, row := range rows {
		out = append(out, FilterVisible(shapeProduct(row), actor.Role, actor.Permissions, h.fields))
	}
	return c.JSON(fiber.Map{"data": out})
}

// Stats handles GET /api/products/stats.
func (h *Handler) Stats(c *fiber.Ctx) error {
	rows, err := store.QueryRows(c.Context(), h.db.Pool,
		"SELECT "+productColumns+" FROM products")
	if err != nil {
		return fmt.Errorf("load products for stats: %w", err)
	}

	shaped := make([]map[string]any, 0, len(rows))
	for _, row := range rows {
		shaped = append(shaped, shapeProduct(row))
	}

	stats, err := h.stats.Evaluate(shaped)
	if err != nil {
		return fmt.Errorf("evaluate stats: %w", err)
	}
	return c.JSON(fiber.Map{"data": stats})
}

// GetByID handles GET /api/products/:id.
func (h *Handler) GetByID(c *fiber.Ctx) error {
	id := c.Params("id")
	row, err := store.QueryRow(c.Context(), h.db.Pool,
		"SELECT "+productColumns+" FROM products WHERE id = $1", id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return apperr.NotFound("product", id)
		}
		return fmt.Errorf("get product %s: %w", id, err)
	}

	actor := auth.GetUser(c)
	return c.JSON(fiber.Map{
		"data": FilterVisible(shapeProduct(row), actor.Role, actor.Permissions, h.fields),
	})
}

// Create handles POST /api/products.
func (h *Handler) Create(c *fiber.Ctx) error {
	payload, file, err := h.parsePayload(c)
	if err != nil {
		return err
	}

	actor := auth.GetUser(c)
	if err := CheckWrite(actor.Role, actor.Permissions, payload, h.fields); err != nil {
		return err
	}

	values, details := h.writeValues(payload)
	for _, f := range requiredOnCreate {
		if _, ok := values[columnFor[f]]; !ok {
			details = append(details, apperr.ErrorDetail{
				Field: string(f), Rule: "required",
				Message: fmt.Sprintf("%s is required", f),
			})
		}
	}
	if len(details) > 0 {
		return apperr.Validation(details)
	}

	if file != nil {
		url, err := h.saveImage(c, file)
		if err != nil {
			return err
		}
		values["image"] = url
	}

	cols := make([]string, 0, len(values))
	placeholders := make([]string, 0, len(values))
	args := make([]any, 0, len(values))
	for col, v := range values {
		cols = append(cols, col)
		placeholders = append(placeholders, fmt.Sprintf("$%d", len(args)+1))
		args = append(args, v)
	}

	sql := fmt.Sprintf("INSERT INTO products (%s) VALUES (%s) RETURNING %s",
		strings.Join(cols, ", "), strings.Join(placeholders, ", "), productColumns)
	row, err := store.QueryRow(c.Context(), h.db.Pool, sql, args...)
	if err != nil {
		if store.IsUniqueViolation(err) {
			return apperr.Conflict("A product with this code already exists")
		}
		return fmt.Errorf("create product: %w", err)
	}

	return c.Status(201).JSON(fiber.Map{
		"data": FilterVisible(shapeProduct(row), actor.Role, actor.Permissions, h.fields),
	})
}

// Update handles PUT /api/products/:id.
func (h *Handler) Update(c *fiber.Ctx) error {
	id := c.Params("id")

	payload, file, err := h.parsePayload(c)
	if err != nil {
		return err
	}

	actor := auth.GetUser(c)
	if err := CheckWrite(actor.Role, actor.Permissions, payload, h.fields); err != nil {
		return err
	}

	values, details := h.writeValues(payload)
	if len(details) > 0 {
		return apperr.Validation(details)
	}

	if file != nil {
		url, err := h.saveImage(c, file)
		if err != nil {
			return err
		}
		values["image"] = url
	}

	if len(values) == 0 {
		row, err := store.QueryRow(c.Context(), h.db.Pool,
			"SELECT "+productColumns+" FROM products WHERE id = $1", id)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return apperr.NotFound("product", id)
			}
			return fmt.Errorf("get product %s: %w", id, err)
		}
		return c.JSON(fiber.Map{
			"data": FilterVisible(shapeProduct(row), actor.Role, actor.Permissions, h.fields),
		})
	}

	sets := make([]string, 0, len(values)+1)
	args := []any{id}
	for col, v := range values {
		args = append(args, v)
		sets = append(sets, fmt.Sprintf("%s = $%d", col, len(args)))
	}
	sets = append(sets, "updated_at = NOW()")

	sql := fmt.Sprintf("UPDATE products SET %s WHERE id = $1 RETURNING %s",
		strings.Join(sets, ", "), productColumns)
	row, err := store.QueryRow(c.Context(), h.db.Pool, sql, args...)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return apperr.NotFound("product", id)
		}
		if store.IsUniqueViolation(err) {
			return apperr.Conflict("A product with this code already exists")
		}
		return fmt.Errorf("update product %s: %w", id, err)
	}

	return c.JSON(fiber.Map{
		"data": FilterVisible(shapeProduct(row), actor.Role, actor.Permissions, h.fields),
	})
}

// Delete handles DELETE /api/products/:id.
func (h *Handler) Delete(c *fiber.Ctx) error {
	actor := auth.GetUser(c)
	if err := CheckDelete(actor.Role, actor.Permissions, h.fields); err != nil {
		return err
	}

	id := c.Params("id")
	affected, err := store.Exec(c.Context(), h.db.Pool,
		"DELETE FROM products WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("delete product %s: %w", id, err)
	}
	if affected == 0 {
		return apperr.NotFound("product", id)
	}
	return c.JSON(fiber.Map{"message": "Product deleted"})
}

// parsePayload reads the mutation payload from either a JSON body or
// a multipart form (the client posts multipart when an image is
// attached). An attached file counts as the image field being present
// for permission purposes.
func (h *Handler) parsePayload(c *fiber.Ctx) (map[string]any, *multipart.FileHeader, error) {
	ct := c.Get("Content-Type")
	if !strings.HasPrefix(ct, "multipart/form-data") {
		payload := make(map[string]any)
		if err := c.BodyParser(&payload); err != nil {
			return nil, nil, apperr.New("INVALID_PAYLOAD", 400, "Invalid JSON body")
		}
		return payload, nil, nil
	}

	form, err := c.MultipartForm()
	if err != nil {
		return nil, nil, apperr.New("INVALID_PAYLOAD", 400, "Invalid multipart form")
	}

	payload := make(map[string]any, len(form.Value))
	for key, vals := range form.Value {
		if len(vals) > 0 {
			payload[key] = vals[0]
		}
	}

	var file *multipart.FileHeader
	if files := form.File["image"]; len(files) > 0 {
		file = files[0]
		payload["image"] = file.Filename
	}
	return payload, file, nil
}

// writeValues maps payload fields to columns, coercing numeric fields
// and skipping the derived field.
func (h *Handler) writeValues(payload map[string]any) (map[string]any, []apperr.ErrorDetail) {
	values := make(map[string]any, len(payload))
	var details []apperr.ErrorDetail

	for key, v := range payload {
		f := permission.Field(key)
		col, ok := columnFor[f]
		if !ok {
			continue
		}
		if numericFields[f] {
			n, err := toInt64(v)
			if err != nil {
				details = append(details, apperr.ErrorDetail{
					Field: key, Rule: "integer",
					Message: fmt.Sprintf("%s must be an integer", key),
				})
				continue
			}
			values[col] = n
			continue
		}
		values[col] = v
	}
	return values, details
}

func (h *Handler) saveImage(c *fiber.Ctx, file *multipart.FileHeader) (string, error) {
	if file.Size > h.maxFileSize {
		msg := fmt.Sprintf("File too large: %d bytes (max %d)", file.Size, h.maxFileSize)
		return "", apperr.New("FILE_TOO_LARGE", 413, msg)
	}

	src, err := file.Open()
	if err != nil {
		return "", fmt.Errorf("open uploaded file: %w", err)
	}
	defer src.Close()

	name := uuid.New().String() + filepath.Ext(file.Filename)
	url, err := h.storage.Save(c.Context(), name, src)
	if err != nil {
		return "", fmt.Errorf("save image: %w", err)
	}
	return url, nil
}

// shapeProduct converts a database row into the API shape, including
// the derived availableStock.
func shapeProduct(row map[string]any) map[string]any {
	stock := mustInt64(row["stock"])
	badStock := mustInt64(row["bad_stock"])
	bookings := mustInt64(row["bookings"])

	return map[string]any{
		"id":             row["id"],
		"image":          row["image"],
		"name":           row["name"],
		"productCode":    row["product_code"],
		"size":           row["size"],
		"manufacturer":   row["manufacturer"],
		"stock":          stock,
		"badStock":       badStock,
		"bookings":       bookings,
		"availableStock": stock - badStock - bookings,
		"createdAt":      row["created_at"],
		"updatedAt":      row["updated_at"],
	}
}

func toInt64(v any) (int64, error) {
	switch n := v.(type) {
	case int64:
		return n, nil
	case int32:
		return int64(n), nil
	case int:
		return int64(n), nil
	case float64:
		if n != float64(int64(n)) {
			return 0, fmt.Errorf("not an integer: %v", v)
		}
		return int64(n), nil
	case string:
		parsed, err := strconv.ParseInt(strings.TrimSpace(n), 10, 64)
		if err != nil {
			return 0, fmt.Errorf("not an integer: %q", n)
		}
		return parsed, nil
	default:
		return 0, fmt.Errorf("not an integer: %v", v)
	}
}

func mustInt64(v any) int64 {
	n, err := toInt64(v)
	if err != nil {
		return 0
	}
	return n
}
