package cart

import (
	"github.com/angelmondragon/marketplace-core/internal/cart"
)

// SelectedOptionRequest is one option group picked by the customer.
type SelectedOptionRequest struct {
	OptionID  string   `json:"optionId" validate:"required"`
	ChosenIDs []string `json:"chosenIds"`
}

type AddItemRequest struct {
	ProductID       string                  `json:"productId" validate:"required"`
	Quantity        int                     `json:"quantity" validate:"min=1,max=999"`
	SelectedOptions []SelectedOptionRequest `json:"selectedOptions" validate:"omitempty,dive"`
}

// UpdateQuantityRequest sets a line's quantity; 0 or less removes the line.
type UpdateQuantityRequest struct {
	Quantity *int `json:"quantity" validate:"required,max=999"`
}

func toSelectedOptions(in []SelectedOptionRequest) []cart.SelectedOption {
	if len(in) == 0 {
		return nil
	}
	out := make([]cart.SelectedOption, 0, len(in))
	for _, opt := range in {
		out = append(out, cart.SelectedOption{OptionID: opt.OptionID, ChosenIDs: opt.ChosenIDs})
	}
	return out
}
