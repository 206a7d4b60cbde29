package application

import (
	"fmt"
	"math"

	"openproject-mcp-server/internal/domain"
)

func missingParam(name string) *domain.Error {
	return &domain.Error{
		Code:    domain.InvalidParams,
		Message: fmt.Sprintf("missing required parameter: %s", name),
	}
}

func invalidParam(name, kind string) *domain.Error {
	return &domain.Error{
		Code:    domain.InvalidParams,
		Message: fmt.Sprintf("parameter %s must be %s", name, kind),
	}
}

// present reports whether name was supplied with a non-null value.
func present(args map[string]any, name string) (any, bool) {
	value, exists := args[name]
	if !exists || value == nil {
		return nil, false
	}
	return value, true
}

// getStringParam extracts a string parameter from the arguments map.
// Returns an error if the parameter is required but missing or not a string.
func getStringParam(args map[string]any, name string, required bool) (string, error) {
	value, ok := present(args, name)
	if !ok {
		if required {
			return "", missingParam(name)
		}
		return "", nil
	}

	strValue, ok := value.(string)
	if !ok {
		return "", invalidParam(name, "a string")
	}
	if required && strValue == "" {
		return "", missingParam(name)
	}

	return strValue, nil
}

// getOptionalStringParam returns nil when the parameter is absent.
func getOptionalStringParam(args map[string]any, name string) (*string, error) {
	if _, ok := present(args, name); !ok {
		return nil, nil
	}
	s, err := getStringParam(args, name, false)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// getIntParam extracts an integer parameter from the arguments map.
// Returns an error if the parameter is required but missing or not a number.
// Also returns an error if the parameter exists but is not a valid number type.
func getIntParam(args map[string]any, name string, required bool) (int, error) {
	value, ok := present(args, name)
	if !ok {
		if required {
			return 0, missingParam(name)
		}
		return 0, nil
	}

	// JSON numbers decode as float64
	switch v := value.(type) {
	case float64:
		if v != math.Trunc(v) {
			return 0, invalidParam(name, "an integer")
		}
		return int(v), nil
	case int:
		return v, nil
	case int64:
		return int(v), nil
	default:
		return 0, invalidParam(name, "an integer")
	}
}

// getOptionalIntParam returns nil when the parameter is absent.
func getOptionalIntParam(args map[string]any, name string) (*int, error) {
	if _, ok := present(args, name); !ok {
		return nil, nil
	}
	n, err := getIntParam(args, name, false)
	if err != nil {
		return nil, err
	}
	return &n, nil
}

// getFloatParam extracts a number parameter.
func getFloatParam(args map[string]any, name string, required bool) (float64, error) {
	value, ok := present(args, name)
	if !ok {
		if required {
			return 0, missingParam(name)
		}
		return 0, nil
	}

	switch v := value.(type) {
	case float64:
		return v, nil
	case int:
		return float64(v), nil
	default:
		return 0, invalidParam(name, "a number")
	}
}

// getOptionalFloatParam returns nil when the parameter is absent.
func getOptionalFloatParam(args map[string]any, name string) (*float64, error) {
	if _, ok := present(args, name); !ok {
		return nil, nil
	}
	f, err := getFloatParam(args, name, false)
	if err != nil {
		return nil, err
	}
	return &f, nil
}

// getBoolParam extracts a boolean parameter, returning def when absent.
func getBoolParam(args map[string]any, name string, def bool) (bool, error) {
	value, ok := present(args, name)
	if !ok {
		return def, nil
	}
	b, ok := value.(bool)
	if !ok {
		return false, invalidParam(name, "a boolean")
	}
	return b, nil
}

// getOptionalBoolParam returns nil when the parameter is absent.
func getOptionalBoolParam(args map[string]any, name string) (*bool, error) {
	if _, ok := present(args, name); !ok {
		return nil, nil
	}
	b, err := getBoolParam(args, name, false)
	if err != nil {
		return nil, err
	}
	return &b, nil
}

// getIntArrayParam extracts an array of integers. Absent yields nil.
func getIntArrayParam(args map[string]any, name string) ([]int, error) {
	value, ok := present(args, name)
	if !ok {
		return nil, nil
	}

	items, ok := value.([]any)
	if !ok {
		if ints, isInts := value.([]int); isInts {
			return ints, nil
		}
		return nil, invalidParam(name, "an array of integers")
	}

	ids := make([]int, 0, len(items))
	for _, item := range items {
		n, err := getIntParam(map[string]any{name: item}, name, true)
		if err != nil {
			return nil, invalidParam(name, "an array of integers")
		}
		ids = append(ids, n)
	}
	return ids, nil
}

// getPageParams reads the offset and page_size arguments.
func getPageParams(args map[string]any) (domain.Page, error) {
	offset, err := getIntParam(args, "offset", false)
	if err != nil {
		return domain.Page{}, err
	}
	pageSize, err := getIntParam(args, "page_size", false)
	if err != nil {
		return domain.Page{}, err
	}
	return domain.NewPage(offset, pageSize), nil
}
