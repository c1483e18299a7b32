// Package models holds the model variants a submission can be routed to.
package models

import "fmt"

// Catalog pairs the default text variant with the vision-capable one.
type Catalog struct {
	Text   Variant
	Vision Variant
}

// NewCatalog builds a catalog. The vision variant carries the output cap;
// the text variant has none.
func NewCatalog(textModel, visionModel string, visionMaxTokens int) (Catalog, error) {
	c := Catalog{
		Text: Variant{
			Name:            VariantText,
			ModelID:         textModel,
			InputModalities: []string{ModelInputText},
		},
		Vision: Variant{
			Name:            VariantVision,
			ModelID:         visionModel,
			InputModalities: []string{ModelInputText, ModelInputImage},
			MaxTokens:       visionMaxTokens,
		},
	}
	if err := c.Text.Validate(); err != nil {
		return Catalog{}, fmt.Errorf("text variant: %w", err)
	}
	if err := c.Vision.Validate(); err != nil {
		return Catalog{}, fmt.Errorf("vision variant: %w", err)
	}
	if !c.Vision.HasInputModality(ModelInputImage) {
		return Catalog{}, fmt.Errorf("vision variant must accept images")
	}
	return c, nil
}

// Select routes a submission: any image forces the vision variant.
func (c Catalog) Select(hasImages bool) Variant {
	if hasImages {
		return c.Vision
	}
	return c.Text
}
