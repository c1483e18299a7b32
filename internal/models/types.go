package models

import (
	"errors"
	"fmt"
	"strings"
)

const (
	ModelInputText  = "text"
	ModelInputImage = "image"
)

// Variant names, also used as metric labels.
const (
	VariantText   = "text"
	VariantVision = "vision"
)

// Variant is one model configuration the pipeline can route a submission to.
type Variant struct {
	Name            string   `json:"name"`
	ModelID         string   `json:"model_id"`
	InputModalities []string `json:"input_modalities,omitempty"`
	// MaxTokens caps the completion length; 0 leaves it to the provider.
	MaxTokens int `json:"max_tokens,omitempty"`
}

// validInputModalities is the set of recognised input modality tokens.
var validInputModalities = map[string]struct{}{
	ModelInputText: {}, ModelInputImage: {},
}

func (v *Variant) Validate() error {
	if strings.TrimSpace(v.ModelID) == "" {
		return errors.New("model ID is required")
	}
	if v.MaxTokens < 0 {
		return errors.New("max tokens must not be negative")
	}
	for _, mod := range v.InputModalities {
		if _, ok := validInputModalities[mod]; !ok {
			return fmt.Errorf("invalid input modality: %s", mod)
		}
	}
	return nil
}

// HasInputModality checks whether the variant accepts a given input modality.
func (v *Variant) HasInputModality(mod string) bool {
	for _, m := range v.InputModalities {
		if m == mod {
			return true
		}
	}
	return false
}

// IsMultimodal returns true if the variant accepts any input beyond text.
func (v *Variant) IsMultimodal() bool {
	for _, m := range v.InputModalities {
		if m != ModelInputText {
			return true
		}
	}
	return false
}
