package domain

// OptionHandle is the source handle of a choice option: "<elementID>-<optionID>".
func OptionHandle(elementID, optionID string) string {
	return elementID + "-" + optionID
}

// SwipeHandle is the source handle of a swipe direction: "<elementID>-left" or "<elementID>-right".
func SwipeHandle(elementID string, d SwipeDirection) string {
	return elementID + "-" + string(d)
}

// CandidateHandles returns the outcome-specific handles for an element in
// priority order. For multi-select the order follows option declaration
// order, not selection order. The general handle is not included.
func CandidateHandles(el Element, out Outcome) []string {
	switch e := el.(type) {
	case *ChoiceElement:
		co, ok := out.(ChoiceOutcome)
		if !ok {
			return nil
		}
		selected := make(map[string]bool, len(co.OptionIDs))
		for _, id := range co.OptionIDs {
			selected[id] = true
		}
		var handles []string
		for _, opt := range e.Options {
			if selected[opt.ID] {
				handles = append(handles, OptionHandle(e.ID, opt.ID))
			}
		}
		return handles
	case *SwipeElement:
		so, ok := out.(SwipeOutcome)
		if !ok {
			return nil
		}
		return []string{SwipeHandle(e.ID, so.Direction)}
	}
	return nil
}

// PossibleHandles lists every outcome-specific handle an element can emit.
func PossibleHandles(el Element) []string {
	switch e := el.(type) {
	case *ChoiceElement:
		handles := make([]string, 0, len(e.Options))
		for _, opt := range e.Options {
			handles = append(handles, OptionHandle(e.ID, opt.ID))
		}
		return handles
	case *SwipeElement:
		return []string{SwipeHandle(e.ID, SwipeLeft), SwipeHandle(e.ID, SwipeRight)}
	}
	return nil
}

// Branches reports whether the element can route on its own handles.
func Branches(el Element) bool {
	return len(PossibleHandles(el)) > 0
}
