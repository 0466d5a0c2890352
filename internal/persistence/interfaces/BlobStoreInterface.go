package interfaces

// BlobStoreInterface stores one opaque blob per key.
type BlobStoreInterface interface {
	Load(key string) ([]byte, error)
	Save(key string, data []byte) error
	Delete(key string) error
	List() ([]string, error)
	// SetAside moves the blob out of the key's way under a suffixed name so
	// the next Save cannot overwrite it.
	SetAside(key, suffix string) (string, error)
	Close()
}
