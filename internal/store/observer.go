package store

// Observer is notified of store activity. Implementations must be safe for
// concurrent use and must not call back into the Store.
type Observer interface {
	CollectionLoaded(collection string, size int)
	CollectionSaved(collection string, size int)
	MalformedRead(collection string)
	IDsBackfilled(collection string)
	Mutation(op string, ok bool)
}

// NopObserver ignores every event.
type NopObserver struct{}

func (NopObserver) CollectionLoaded(string, int) {}
func (NopObserver) CollectionSaved(string, int)  {}
func (NopObserver) MalformedRead(string)         {}
func (NopObserver) IDsBackfilled(string)         {}
func (NopObserver) Mutation(string, bool)        {}

// Mutation names reported to the observer.
const (
	OpDelete         = "delete"
	OpDuplicate      = "duplicate"
	OpAddDose        = "add_dose"
	OpAddSymptom     = "add_symptom"
	OpLogSymptom     = "log_symptom"
	OpAddResource    = "add_resource"
	OpRemoveResource = "remove_resource"
	OpSeedResources  = "seed_resources"
)
