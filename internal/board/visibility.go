package board

import (
	"strings"

	"planroom/api/internal/store"
)

// QualifyingRoleRank is the highest (worst) system role rank that still
// appears on the board. Rank 4 and up are external or archived accounts.
const QualifyingRoleRank = 3

// excludedEmailFragments filters out contracts whose manager is an archive
// or service mailbox.
var excludedEmailFragments = []string{"+archive", "archiwum"}

// TaskVisible is the board visibility predicate for tasks: not in the
// backlog, and either unowned or owned by someone with a qualifying role.
// The third condition - the contract header being present on the board - is
// checked by the synchronizer, which owns the board state.
func TaskVisible(status string, ownerID *string, ownerRoleRank int) bool {
	if status == store.TaskStatusBacklog {
		return false
	}
	if ownerID == nil {
		return true
	}
	return ownerRoleRank <= QualifyingRoleRank
}

// ContractVisibility carries the inputs of the contract predicate.
type ContractVisibility struct {
	Kind            string
	Status          string
	ManagerRoleRank int
	ManagerEmail    string
	AdminRoleRank   int
	HasManager      bool
	HasAdmin        bool
}

// ContractVisible decides whether a contract gets a header row. Own
// contracts require a qualifying manager, other contracts accept a
// qualifying admin as well; archived contracts and excluded mailboxes never
// appear.
func ContractVisible(v ContractVisibility) bool {
	if v.Status == store.ContractStatusArchived {
		return false
	}
	email := strings.ToLower(v.ManagerEmail)
	for _, fragment := range excludedEmailFragments {
		if fragment != "" && strings.Contains(email, fragment) {
			return false
		}
	}
	if v.Kind == store.ContractKindOwn {
		return v.HasManager && v.ManagerRoleRank <= QualifyingRoleRank
	}
	if v.HasManager && v.ManagerRoleRank <= QualifyingRoleRank {
		return true
	}
	return v.HasAdmin && v.AdminRoleRank <= QualifyingRoleRank
}
