package checkpoint

// Manifest is the small durable record written at the end of a successful
// checkpoint. It intentionally says nothing about what data was
// checkpointed or how — that is the consuming store's concern; this
// package only coordinates *when* it is safe to do so and records that it
// happened.
type Manifest struct {
	// ID uniquely identifies this checkpoint independent of Generation,
	// which is only a per-process counter and resets across restarts.
	ID         string `json:"id"`
	Generation int64  `json:"generation"`
	Epoch      int32  `json:"epoch"`
}
