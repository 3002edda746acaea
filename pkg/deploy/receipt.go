package deploy

import (
	"sort"

	"github.com/endfield-tools/endmod/pkg/fsutil"
	"github.com/endfield-tools/endmod/pkg/types"
)

// ReceiptEntry records everything needed to undo one asset-replacement
// write: where the pristine original was stashed (empty when the
// destination did not exist before any mod touched it) and which mods
// have written this destination over the ledger's lifetime.
type ReceiptEntry struct {
	// Backup is the backup-store-relative location of the original, or
	// "" for a mod-created destination.
	Backup string `json:"backup,omitempty"`

	// Mods are the identifiers of every mod that has written this
	// destination since the ledger was last cleared.
	Mods []string `json:"mods"`
}

// Receipt is the persisted asset-replacement ledger, one entry per
// game-root-relative destination path ever touched. The first deploy to
// touch a path is authoritative for what was there originally: an
// entry's Backup is never rewritten while the ledger is active.
type Receipt struct {
	Files map[string]*ReceiptEntry `json:"files"`
}

// NewReceipt returns an empty ledger.
func NewReceipt() *Receipt {
	return &Receipt{Files: map[string]*ReceiptEntry{}}
}

// LoadReceipt reads the ledger from receiptPath. A missing or
// unreadable ledger yields a fresh empty one; deploy must always be
// able to proceed.
func LoadReceipt(fsys types.FS, receiptPath string) *Receipt {
	if !fsutil.Exists(fsys, receiptPath) {
		return NewReceipt()
	}
	var r Receipt
	if err := fsutil.ReadJSON(fsys, receiptPath, &r); err != nil {
		return NewReceipt()
	}
	if r.Files == nil {
		r.Files = map[string]*ReceiptEntry{}
	}
	return &r
}

// Save persists the ledger.
func (r *Receipt) Save(fsys types.FS, receiptPath string) error {
	return fsutil.WriteJSON(fsys, receiptPath, r)
}

// Touch returns the entry for dest, creating it if this is the first
// time any deploy has written that path. created reports whether the
// entry is new, which is exactly the backup-once condition.
func (r *Receipt) Touch(dest string) (entry *ReceiptEntry, created bool) {
	if e, ok := r.Files[dest]; ok {
		return e, false
	}
	e := &ReceiptEntry{}
	r.Files[dest] = e
	return e, true
}

// AddMod appends the mod identifier to the entry's contributor set.
func (e *ReceiptEntry) AddMod(mod string) {
	for _, m := range e.Mods {
		if m == mod {
			return
		}
	}
	e.Mods = append(e.Mods, mod)
}

// Paths returns the ledgered destination paths in sorted order.
func (r *Receipt) Paths() []string {
	out := make([]string, 0, len(r.Files))
	for p := range r.Files {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

// Empty reports whether the ledger has no entries.
func (r *Receipt) Empty() bool {
	return len(r.Files) == 0
}

// Clear removes every entry, returning the ledger to its fresh state.
func (r *Receipt) Clear() {
	r.Files = map[string]*ReceiptEntry{}
}
