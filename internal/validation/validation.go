package validation

import (
	"fmt"
	"math"

	"github.com/google/uuid"

	"github.com/arcadefolio/arcadefolio/internal/domain"
)

// ValidateID checks the identifier format shared by all collections. Only
// the canonical hyphenated form is accepted; urn, braced and compact
// encodings are rejected even though they name valid UUIDs.
func ValidateID(id string) error {
	if len(id) != 36 {
		return domain.ValidationError{Detail: "invalid identifier"}
	}
	if _, err := uuid.Parse(id); err != nil {
		return domain.ValidationError{Detail: "invalid identifier"}
	}
	return nil
}

// ValidateCreate checks a full candidate record: every declared required
// field must be present, every present field must be valid, and no key
// outside the resource's field allow-list is accepted.
func ValidateCreate(rt domain.ResourceType, payload map[string]any) error {
	if err := checkAllowed(rt, payload); err != nil {
		return err
	}
	for _, f := range rt.Fields {
		value, ok := payload[f.Name]
		if !ok {
			if f.Required {
				return domain.ValidationError{Detail: fmt.Sprintf("%s is required", f.Name)}
			}
			continue
		}
		if err := checkValue(f, value); err != nil {
			return err
		}
	}
	return nil
}

// ValidateUpdate checks a partial payload. Field inclusion is structural:
// a key that is present is an intended update even if its value is the
// zero value. An empty payload is rejected outright.
func ValidateUpdate(rt domain.ResourceType, payload map[string]any) error {
	if len(payload) == 0 {
		return domain.ErrNoUpdates
	}
	if err := checkAllowed(rt, payload); err != nil {
		return err
	}
	for name, value := range payload {
		f, _ := rt.Field(name)
		if err := checkValue(f, value); err != nil {
			return err
		}
	}
	return nil
}

// checkAllowed rejects any key outside the declared mutable fields. This
// is what keeps caller-supplied keys out of the dynamic write below the
// usecase layer; id and created_at are not declared and fail here too.
func checkAllowed(rt domain.ResourceType, payload map[string]any) error {
	for key := range payload {
		if _, ok := rt.Field(key); !ok {
			return domain.ValidationError{Detail: fmt.Sprintf("unknown field %q", key)}
		}
	}
	return nil
}

func checkValue(f domain.FieldSpec, value any) error {
	switch f.Kind {
	case domain.FieldString:
		s, ok := value.(string)
		if !ok {
			return domain.ValidationError{Detail: fmt.Sprintf("%s must be a string", f.Name)}
		}
		if f.MaxLen > 0 && len(s) > f.MaxLen {
			return domain.ValidationError{Detail: fmt.Sprintf("%s must be at most %d characters", f.Name, f.MaxLen)}
		}
	case domain.FieldInt:
		// JSON numbers arrive as float64; integral values only.
		var n float64
		switch t := value.(type) {
		case float64:
			n = t
		case int:
			n = float64(t)
		case int64:
			n = float64(t)
		default:
			return domain.ValidationError{Detail: fmt.Sprintf("%s must be an integer", f.Name)}
		}
		if n != math.Trunc(n) {
			return domain.ValidationError{Detail: fmt.Sprintf("%s must be an integer", f.Name)}
		}
		v := int(n)
		if v < f.Min || v > f.Max {
			return domain.ValidationError{Detail: fmt.Sprintf("%s must be between %d and %d", f.Name, f.Min, f.Max)}
		}
	}
	return nil
}
