package classstore

// MaxCount is the saturation ceiling for a bucket's count field (§3, §4.4).
// Once a bucket reaches this value it is permanently locked against further
// increment; decrements still apply until the bucket empties.
const MaxCount = 65535

// MaxClasses bounds how many classes a single Classify call may consider
// (§7's InvalidInput: "too many classes (> 128)").
const MaxClasses = 128

// defaultDisplacementTrigger is used when a class's configured max_chain is
// zero, i.e. "auto" (§4.4's D_trig formula uses this as its floor).
const defaultDisplacementTrigger = 29

// defaultMicrogroomStopAfter caps how many buckets one microgroom pass
// evicts before it gives up widening its displacement search (§6's
// stop_after option default).
const defaultMicrogroomStopAfter = 10000
