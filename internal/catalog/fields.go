package catalog

import (
	"fmt"

	"inventory-backend/internal/permission"
)

// FieldAvailableStock is derived on read (stock - badStock - bookings)
// and is never written to a column, though it is authorized like any
// other field.
const FieldAvailableStock = permission.Field("availableStock")

// columnFor maps an API field to its products column.
var columnFor = map[permission.Field]string{
	"image":        "image",
	"name":         "name",
	"productCode":  "product_code",
	"size":         "size",
	"manufacturer": "manufacturer",
	"stock":        "stock",
	"badStock":     "bad_stock",
	"bookings":     "bookings",
}

// numericFields are coerced to integers on write.
var numericFields = map[permission.Field]bool{
	"stock":    true,
	"badStock": true,
	"bookings": true,
}

// requiredOnCreate mirrors the NOT NULL product columns.
var requiredOnCreate = []permission.Field{"productCode", "size", "manufacturer"}

// ParseFields validates the configured field enumeration: every
// configured field must be backed by a column or be the derived one.
func ParseFields(names []string) (permission.Fields, error) {
	if len(names) == 0 {
		return nil, fmt.Errorf("catalog field enumeration is empty")
	}
	fields := make(permission.Fields, 0, len(names))
	for _, name := range names {
		f := permission.Field(name)
		if _, ok := columnFor[f]; !ok && f != FieldAvailableStock {
			return nil, fmt.Errorf("unknown catalog field %q", name)
		}
		fields = append(fields, f)
	}
	return fields, nil
}
