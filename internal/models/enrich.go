// ABOUTME: Request and response shapes for content enrichment
// ABOUTME: Old and new data are optional; which ones are present selects the template
package models

// EnrichInput carries the pieces of an enrichment request.
// Nil pointers mean "absent"; an empty string is still present.
type EnrichInput struct {
	MetaData string  `json:"meta_data"`
	OldData  *string `json:"old_data,omitempty"`
	NewData  *string `json:"new_data,omitempty"`
}

// EnrichOutput is the enriched text
type EnrichOutput struct {
	FinalData string `json:"final_data"`
}

// EnrichMode names the branch an enrichment request takes
type EnrichMode string

const (
	// EnrichMerge - old and new data present, new data folds into old
	EnrichMerge EnrichMode = "merge"
	// EnrichUpdate - only old data present, reviewed against feedback in metadata
	EnrichUpdate EnrichMode = "update"
	// EnrichFresh - only new data present, first ingest
	EnrichFresh EnrichMode = "fresh"
)
