// Package filesystem provides implementations of the types.FS interface.
//
// Two implementations are available:
//   - NewOS: direct OS filesystem access, used in production
//   - NewAferoFS: afero-backed, used with afero.NewMemMapFs() in tests
package filesystem
