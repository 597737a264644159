package api

// DeltaRequest is the body of POST /v1/delta: an inline grid plus the
// batch to evaluate against it.
type DeltaRequest struct {
	Grid      []float64 `json:"grid"`
	Z         []float64 `json:"z"`
	R         []float64 `json:"r"`
	Strategy  string    `json:"strategy,omitempty"`
	Precision string    `json:"precision,omitempty"`
}

// GridDeltaRequest is the body of POST /v1/grids/:id/delta.
type GridDeltaRequest struct {
	Z         []float64 `json:"z"`
	R         []float64 `json:"r"`
	Strategy  string    `json:"strategy,omitempty"`
	Precision string    `json:"precision,omitempty"`
}

// DeltaResponse reports one batch evaluation. Strategy is the resolved
// strategy, never "auto".
type DeltaResponse struct {
	ID        string    `json:"id"`
	Object    string    `json:"object"`
	N         int       `json:"n"`
	Strategy  string    `json:"strategy"`
	Precision string    `json:"precision"`
	ElapsedUS int64     `json:"elapsed_us"`
	Delta     []float64 `json:"delta"`
}

// SynthSpec asks the server to synthesize grid values instead of
// receiving them inline.
type SynthSpec struct {
	Profile  string  `json:"profile"`
	U1       float64 `json:"u1,omitempty"`
	U2       float64 `json:"u2,omitempty"`
	Points   int     `json:"points"`
	RefRatio float64 `json:"ref_ratio,omitempty"`
}

// GridCreateRequest is the body of POST /v1/grids. Exactly one of
// Values or Synth must be set.
type GridCreateRequest struct {
	Name   string     `json:"name,omitempty"`
	Values []float64  `json:"values,omitempty"`
	Synth  *SynthSpec `json:"synth,omitempty"`
}

// GridResource is the stored-grid representation. List responses omit
// Values.
type GridResource struct {
	ID        string    `json:"id"`
	Object    string    `json:"object"`
	Name      string    `json:"name,omitempty"`
	Points    int       `json:"points"`
	Profile   string    `json:"profile,omitempty"`
	RefRatio  float64   `json:"ref_ratio,omitempty"`
	CreatedAt int64     `json:"created_at"`
	Values    []float64 `json:"values,omitempty"`
}

// GridList is the envelope of GET /v1/grids.
type GridList struct {
	Object string         `json:"object"`
	Data   []GridResource `json:"data"`
}

// DeleteGridResponse confirms a DELETE /v1/grids/:id.
type DeleteGridResponse struct {
	ID      string `json:"id"`
	Object  string `json:"object"`
	Deleted bool   `json:"deleted"`
}

// ResponseError is the payload inside the error envelope.
type ResponseError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
