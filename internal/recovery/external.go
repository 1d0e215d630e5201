package recovery

import "github.com/kaptinlin/jsonrepair"

// ExternalRepairer adapts the jsonrepair library to the Repairer
// collaborator slot.
type ExternalRepairer struct{}

// Repair runs the library's best-effort repair over the text.
func (ExternalRepairer) Repair(text string) (string, error) {
	return jsonrepair.JSONRepair(text)
}
