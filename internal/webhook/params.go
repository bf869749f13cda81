package webhook

import "errors"

// Parameter bags arrive as loosely typed JSON; each recognized intent
// decodes its bag into a typed struct here, at the boundary, so the
// handlers never inspect raw values.

var (
	errMalformedParams = errors.New("parameters do not match the expected shape")
	errLengthMismatch  = errors.New("food-item and number lists differ in length")
)

// AddParams is the decoded parameter set for the add-to-order intent.
// Names and Quantities are parallel and equal length.
type AddParams struct {
	Names      []string
	Quantities []int
}

// RemoveParams is the decoded parameter set for the remove-from-order intent
type RemoveParams struct {
	Names []string
}

// TrackParams is the decoded parameter set for the track-order intent
type TrackParams struct {
	OrderID int64
}

// decodeAddParams expects "food-item" and "number" to be equal-length
// lists. Quantities are truncated toward zero. Pairs whose name is not
// a string or whose quantity is not numeric are skipped, matching the
// per-element tolerance of the NLU payloads.
func decodeAddParams(params map[string]interface{}) (*AddParams, error) {
	items, ok := params["food-item"].([]interface{})
	if !ok {
		return nil, errMalformedParams
	}
	numbers, ok := params["number"].([]interface{})
	if !ok {
		return nil, errMalformedParams
	}
	if len(items) != len(numbers) {
		return nil, errLengthMismatch
	}

	decoded := &AddParams{}
	for i := range items {
		name, nameOK := items[i].(string)
		num, numOK := numbers[i].(float64)
		if !nameOK || !numOK {
			continue
		}
		decoded.Names = append(decoded.Names, name)
		decoded.Quantities = append(decoded.Quantities, int(num))
	}
	return decoded, nil
}

// decodeRemoveParams expects "food-item" to be a list; non-string
// elements are skipped.
func decodeRemoveParams(params map[string]interface{}) (*RemoveParams, error) {
	items, ok := params["food-item"].([]interface{})
	if !ok {
		return nil, errMalformedParams
	}

	decoded := &RemoveParams{}
	for _, item := range items {
		if name, ok := item.(string); ok {
			decoded.Names = append(decoded.Names, name)
		}
	}
	return decoded, nil
}

// decodeTrackParams requires "order_id" to be a JSON number
func decodeTrackParams(params map[string]interface{}) (*TrackParams, error) {
	num, ok := params["order_id"].(float64)
	if !ok {
		return nil, errMalformedParams
	}
	return &TrackParams{OrderID: int64(num)}, nil
}
