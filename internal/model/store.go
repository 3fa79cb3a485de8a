package model

// ModelStore persists trained handles. The artifact format belongs to the store.
type ModelStore interface {
	Save(handle ModelHandle, path string) error
	Load(path string) (ModelHandle, error)
}
