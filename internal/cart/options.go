package cart

import (
	"sort"
	"strings"
)

// SelectedOption is one configurable option of a product and the choices picked for it.
type SelectedOption struct {
	OptionID  string   `json:"optionId"`
	ChosenIDs []string `json:"chosenIds"`
}

// CanonicalOptions returns opts in canonical form: options sorted by id, repeated
// option ids merged, choice ids trimmed, sorted and de-duplicated, and options
// without any choice dropped. The input is not modified.
func CanonicalOptions(opts []SelectedOption) []SelectedOption {
	if len(opts) == 0 {
		return nil
	}

	merged := make(map[string]map[string]struct{}, len(opts))
	for _, opt := range opts {
		id := strings.TrimSpace(opt.OptionID)
		if id == "" {
			continue
		}
		set, ok := merged[id]
		if !ok {
			set = make(map[string]struct{}, len(opt.ChosenIDs))
			merged[id] = set
		}
		for _, choice := range opt.ChosenIDs {
			if choice = strings.TrimSpace(choice); choice != "" {
				set[choice] = struct{}{}
			}
		}
	}

	out := make([]SelectedOption, 0, len(merged))
	for id, set := range merged {
		if len(set) == 0 {
			continue
		}
		chosen := make([]string, 0, len(set))
		for choice := range set {
			chosen = append(chosen, choice)
		}
		sort.Strings(chosen)
		out = append(out, SelectedOption{OptionID: id, ChosenIDs: chosen})
	}
	if len(out) == 0 {
		return nil
	}
	sort.Slice(out, func(i, j int) bool { return out[i].OptionID < out[j].OptionID })
	return out
}

// optionsEqual compares two canonical option lists by value.
func optionsEqual(a, b []SelectedOption) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i].OptionID != b[i].OptionID || len(a[i].ChosenIDs) != len(b[i].ChosenIDs) {
			return false
		}
		for j := range a[i].ChosenIDs {
			if a[i].ChosenIDs[j] != b[i].ChosenIDs[j] {
				return false
			}
		}
	}
	return true
}

func cloneOptions(opts []SelectedOption) []SelectedOption {
	if opts == nil {
		return nil
	}
	out := make([]SelectedOption, len(opts))
	for i, opt := range opts {
		out[i] = SelectedOption{
			OptionID:  opt.OptionID,
			ChosenIDs: append([]string(nil), opt.ChosenIDs...),
		}
	}
	return out
}
