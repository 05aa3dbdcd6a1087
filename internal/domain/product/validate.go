package product

import (
	"strings"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/shopspring/decimal"
)

// Input is a parsed request body: top-level keys mapped to their raw JSON
// values. Presence of a key is what makes a field "supplied".
type Input map[string]jx.Raw

// ParseInput decodes body into an Input. A JSON null body yields a nil Input.
func ParseInput(body []byte) (Input, error) {
	if !jx.Valid(body) {
		return nil, ErrInvalidJSON
	}

	d := jx.DecodeBytes(body)
	switch d.Next() {
	case jx.Null:
		return nil, nil
	case jx.Object:
	default:
		return nil, invalid("", "Request body must be a JSON object")
	}

	in := Input{}
	if err := d.Obj(func(d *jx.Decoder, key string) error {
		raw, err := d.Raw()
		if err != nil {
			return err
		}
		in[key] = raw
		return nil
	}); err != nil {
		return nil, errors.Wrapf(ErrInvalidJSON, "decode object: %v", err)
	}
	return in, nil
}

const (
	msgBodyRequired      = "Request body is required"
	msgUpdateEmpty       = "At least one field is required for update"
	msgNameRequired      = "Name is required and must be a string"
	msgNameEmpty         = "Name must be a non-empty string"
	msgDescRequired      = "Description is required and must be a string"
	msgDescEmpty         = "Description must be a non-empty string"
	msgPriceRequired     = "Price is required and must be a non-negative number"
	msgPriceInvalid      = "Price must be a non-negative number"
	msgCategoryRequired  = "Category is required and must be a string"
	msgAvailableInvalid  = "Available must be a boolean"
	msgProductIDRequired = "Product ID is required and must be a non-empty string"
)

func msgCategoryInvalid() string {
	return "Category must be one of: " + categoryList()
}

// ValidateCreate checks a create payload and returns the trimmed request.
// Fields are checked in order and the first failure is returned.
func ValidateCreate(in Input) (CreateRequest, error) {
	if len(in) == 0 {
		return CreateRequest{}, invalid("", msgBodyRequired)
	}

	var (
		req CreateRequest
		err error
	)
	if req.Name, err = requiredText(in, "name", msgNameRequired, msgNameEmpty); err != nil {
		return CreateRequest{}, err
	}
	if req.Description, err = requiredText(in, "description", msgDescRequired, msgDescEmpty); err != nil {
		return CreateRequest{}, err
	}

	raw, ok := in["price"]
	if !ok {
		return CreateRequest{}, invalid("price", msgPriceRequired)
	}
	if req.Price, err = price(raw, msgPriceRequired); err != nil {
		return CreateRequest{}, err
	}

	raw, ok = in["category"]
	if !ok || raw.Type() != jx.String {
		return CreateRequest{}, invalid("category", msgCategoryRequired)
	}
	if req.Category, err = category(raw); err != nil {
		return CreateRequest{}, err
	}

	if raw, ok := in["available"]; ok {
		v, err := boolean(raw)
		if err != nil {
			return CreateRequest{}, err
		}
		req.Available = &v
	}

	return req, nil
}

// ValidateUpdate checks a partial update payload. Only supplied fields are set
// on the result.
func ValidateUpdate(in Input) (UpdateRequest, error) {
	if len(in) == 0 {
		return UpdateRequest{}, invalid("", msgUpdateEmpty)
	}

	var req UpdateRequest
	if raw, ok := in["name"]; ok {
		v, err := optionalText(raw, "name", msgNameEmpty)
		if err != nil {
			return UpdateRequest{}, err
		}
		req.Name = &v
	}
	if raw, ok := in["description"]; ok {
		v, err := optionalText(raw, "description", msgDescEmpty)
		if err != nil {
			return UpdateRequest{}, err
		}
		req.Description = &v
	}
	if raw, ok := in["price"]; ok {
		v, err := price(raw, msgPriceInvalid)
		if err != nil {
			return UpdateRequest{}, err
		}
		req.Price = &v
	}
	if raw, ok := in["category"]; ok {
		v, err := category(raw)
		if err != nil {
			return UpdateRequest{}, err
		}
		req.Category = &v
	}
	if raw, ok := in["available"]; ok {
		v, err := boolean(raw)
		if err != nil {
			return UpdateRequest{}, err
		}
		req.Available = &v
	}

	// Unknown keys alone would turn into a timestamp-only write.
	if len(req.Changes()) == 0 {
		return UpdateRequest{}, invalid("", msgUpdateEmpty)
	}
	return req, nil
}

// ValidateProductID trims a path identifier and rejects blank values.
func ValidateProductID(raw string) (string, error) {
	id := strings.TrimSpace(raw)
	if id == "" {
		return "", invalid("id", msgProductIDRequired)
	}
	return id, nil
}

// requiredText checks presence and type before trimming, then rejects a
// value that trims to nothing.
func requiredText(in Input, field, msgRequired, msgEmpty string) (string, error) {
	raw, ok := in[field]
	if !ok || raw.Type() != jx.String {
		return "", invalid(field, msgRequired)
	}
	s, err := jx.DecodeBytes(raw).Str()
	if err != nil || s == "" {
		return "", invalid(field, msgRequired)
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return "", invalid(field, msgEmpty)
	}
	return s, nil
}

// optionalText checks the type, trims, and only then checks for emptiness.
func optionalText(raw jx.Raw, field, msg string) (string, error) {
	if raw.Type() != jx.String {
		return "", invalid(field, msg)
	}
	s, err := jx.DecodeBytes(raw).Str()
	if err != nil {
		return "", invalid(field, msg)
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return "", invalid(field, msg)
	}
	return s, nil
}

func price(raw jx.Raw, msg string) (decimal.Decimal, error) {
	if raw.Type() != jx.Number {
		return decimal.Decimal{}, invalid("price", msg)
	}
	n, err := jx.DecodeBytes(raw).Num()
	if err != nil {
		return decimal.Decimal{}, invalid("price", msg)
	}
	v, err := decimal.NewFromString(n.String())
	if err != nil || v.IsNegative() {
		return decimal.Decimal{}, invalid("price", msg)
	}
	// Stores render prices without trailing zeros; keep the same
	// representation in memory so a read-back compares equal.
	return decimal.RequireFromString(v.String()), nil
}

func category(raw jx.Raw) (Category, error) {
	if raw.Type() != jx.String {
		return "", invalid("category", msgCategoryInvalid())
	}
	s, err := jx.DecodeBytes(raw).Str()
	if err != nil {
		return "", invalid("category", msgCategoryInvalid())
	}
	c := Category(s)
	if !c.Valid() {
		return "", invalid("category", msgCategoryInvalid())
	}
	return c, nil
}

func boolean(raw jx.Raw) (bool, error) {
	if raw.Type() != jx.Bool {
		return false, invalid("available", msgAvailableInvalid)
	}
	v, err := jx.DecodeBytes(raw).Bool()
	if err != nil {
		return false, invalid("available", msgAvailableInvalid)
	}
	return v, nil
}
