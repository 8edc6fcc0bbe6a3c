// Package cursor persists the session index across resets.
//
// The cursor is a single-line text file at the root of the storage medium
// holding a decimal index terminated by "\r\n". It is read once at startup
// and rewritten whole on every session rotation:
//
//	store := cursor.NewFileStore(cursor.Config{Dir: "/media/sd"}, log)
//	idx, err := store.ReadIndex()
//	if err != nil && !cursor.Defaulted(err) {
//	    // medium fault
//	}
//	err = store.WriteIndex(idx + 1)
package cursor

// DefaultFileName is the cursor file name used when Config.FileName is empty.
const DefaultFileName = "index.xdk"

// MaxCursorBytes bounds how much of the cursor file is read.
const MaxCursorBytes = 16

// Store reads and writes the persisted session index.
type Store interface {
	// ReadIndex returns the persisted index.
	//
	// Returns:
	//   - (n, nil) when the cursor holds a valid index
	//   - (0, ErrNoCursor) when no cursor exists
	//   - (0, ErrCorruptCursor) when the content cannot be parsed
	//   - (0, err) for any other storage failure
	ReadIndex() (uint32, error)

	// WriteIndex replaces the persisted index with index.
	WriteIndex(index uint32) error
}

// Config contains file store configuration.
type Config struct {
	// Dir is the medium root that holds the cursor file.
	Dir string

	// FileName is the cursor file name (default: index.xdk).
	FileName string
}
