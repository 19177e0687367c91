package attask

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
)

// Params are the form parameters of a request: field values for create and
// update, filter criteria for search and report.
type Params map[string]any

// Reserved parameter names.
const (
	ParamMethod  = "method"
	ParamAPIKey  = "apiKey"
	ParamFields  = "fields"
	ParamIDs     = "ids"
	ParamAction  = "action"
	ParamForce   = "force"
	ParamUpdates = "updates"
	ParamLimit   = "$$LIMIT"
	ParamFirst   = "$$FIRST"

	// ParamAggFunc selects the report aggregate applied to ID.
	ParamAggFunc = "ID_AggFunc"
)

// ModSuffix turns a field name into the name of its comparison-operator parameter.
const ModSuffix = "_Mod"

// Comparison operators used with ModSuffix.
const (
	ModIn  = "in"
	ModEq  = "eq"
	ModLte = "lte"
	ModGte = "gte"
	ModLt  = "lt"
	ModGt  = "gt"
)

// TodayMinusMonths renders the server-side relative date "n months before today".
func TodayMinusMonths(n int) string {
	return fmt.Sprintf("$$TODAY-%dm", n)
}

// Clone returns a shallow copy, never nil.
func (p Params) Clone() Params {
	out := make(Params, len(p)+3)
	for k, v := range p {
		out[k] = v
	}
	return out
}

// Encode renders p as an application/x-www-form-urlencoded body.
func (p Params) Encode() (string, error) {
	values := url.Values{}
	for k, v := range p {
		s, err := encodeValue(v)
		if err != nil {
			return "", fmt.Errorf("encoding parameter %q: %w", k, err)
		}
		values.Set(k, s)
	}
	return values.Encode(), nil
}

// encodeValue turns a parameter value into its wire form. Scalars are written
// as text; maps and slices travel as compact JSON, which is what the API expects
// for "updates" and structured field values.
func encodeValue(v any) (string, error) {
	switch x := v.(type) {
	case nil:
		return "", nil
	case string:
		return x, nil
	case bool:
		return strconv.FormatBool(x), nil
	case int:
		return strconv.Itoa(x), nil
	case int64:
		return strconv.FormatInt(x, 10), nil
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64), nil
	case json.Number:
		return x.String(), nil
	case fmt.Stringer:
		return x.String(), nil
	default:
		b, err := json.Marshal(x)
		if err != nil {
			return "", err
		}
		return string(b), nil
	}
}
