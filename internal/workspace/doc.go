// Package workspace confines capability paths to a single root directory.
//
// Every path handed to a file or process capability is resolved here first.
// Relative paths are joined to the root; absolute paths are accepted only
// when they already lie under it. A path whose existing part resolves
// through a symlink to somewhere outside the root is rejected as well.
// Rejection happens before any filesystem effect.
//
// # Usage
//
//	root, err := workspace.New("./workspace")
//	if err != nil {
//	    return err
//	}
//	abs, err := root.Resolve("notes/today.md")
//	if errors.As(err, new(*workspace.EscapeError)) {
//	    // refused
//	}
package workspace
