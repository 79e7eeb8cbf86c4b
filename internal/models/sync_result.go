package models

// JobResult is the envelope shared by every sync job response
type JobResult struct {
	Success    bool     `json:"success"`
	Message    string   `json:"message"`
	RunID      string   `json:"run_id,omitempty"`
	Errors     []string `json:"errors"`
	DurationMS int64    `json:"duration_ms"`
}

// Envelope exposes the shared fields to the job runner
func (r *JobResult) Envelope() *JobResult {
	return r
}

// SetSyncResult is returned by the set sync job
type SetSyncResult struct {
	JobResult
	SetsSynced  int `json:"sets_synced"`
	SetsCreated int `json:"sets_created"`
	SetsUpdated int `json:"sets_updated"`
	SetsSkipped int `json:"sets_skipped"`
}

func (r *SetSyncResult) Affected() int {
	return r.SetsCreated + r.SetsUpdated
}

// CardSyncResult is returned by the card sync job
type CardSyncResult struct {
	JobResult
	SetsProcessed int              `json:"sets_processed"`
	CardsSynced   int              `json:"cards_synced"`
	CardsCreated  int              `json:"cards_created"`
	CardsUpdated  int              `json:"cards_updated"`
	CardsSkipped  int              `json:"cards_skipped"`
	PricesSynced  int              `json:"prices_synced"`
	SetValues     []SetValueResult `json:"set_values,omitempty"`
}

func (r *CardSyncResult) Affected() int {
	return r.CardsCreated + r.CardsUpdated
}

// PopulationSyncResult is returned by the population job
type PopulationSyncResult struct {
	JobResult
	Action         string `json:"action"`
	CardsUpdated   int    `json:"cards_updated"`
	EntriesSkipped int    `json:"entries_skipped"`
}

func (r *PopulationSyncResult) Affected() int {
	return r.CardsUpdated
}

// SlabPriceSyncResult is returned by the graded slab price job
type SlabPriceSyncResult struct {
	JobResult
	CardsProcessed int              `json:"cards_processed"`
	CardsUnmatched int              `json:"cards_unmatched"`
	PricesFound    int              `json:"prices_found"`
	PricesSaved    int              `json:"prices_saved"`
	SetValues      []SetValueResult `json:"set_values,omitempty"`
}

func (r *SlabPriceSyncResult) Affected() int {
	return r.PricesSaved
}

// CalculateResult is returned by the set value job
type CalculateResult struct {
	JobResult
	SetsCalculated int              `json:"sets_calculated"`
	Results        []SetValueResult `json:"results"`
}

func (r *CalculateResult) Affected() int {
	return r.SetsCalculated
}
