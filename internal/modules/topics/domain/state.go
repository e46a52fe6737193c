//go:generate go run github.com/abice/go-enum --file=$GOFILE --names --nocase

package domain

// State is the phase a provisioning run is in
// ENUM(start,verify_forum,rename_default,creating,done,aborted)
type State string

// Terminal reports whether no further transition can happen.
func (s State) Terminal() bool {
	return s == StateDone || s == StateAborted
}
