package folders

import (
	"fmt"
	"strings"
)

// Sequence prefixes are fixed per entity kind so folder names sort in
// creation order within a parent.
const (
	MilestonePrefix = "M"
	CasePrefix      = "S"
)

// ToDeleteSuffix marks folders the service could not trash itself (the
// caller lacks delete rights on folders it does not own).
const ToDeleteSuffix = " - TO DELETE"

// MigrateSuffix marks a folder whose files must be moved by hand, e.g. after
// an entity switched to a unique-per-parent type and lost its numbered
// folder.
const MigrateSuffix = " - MIGRATE FILES"

// UniqueTypeFolderName names the folder of a unique-per-parent type:
// "{typeFolderNumber} {typeName}".
func UniqueTypeFolderName(folderNumber, typeName string) string {
	return strings.TrimSpace(folderNumber + " " + typeName)
}

// NumberedFolderName names the folder of a numbered entity:
// "{prefix}{NN} {name}", e.g. "S01 Site survey".
func NumberedFolderName(prefix string, number int, name string) string {
	return strings.TrimSpace(fmt.Sprintf("%s%02d %s", prefix, number, name))
}

// ContractFolderName names a contract folder from its visible identifier and
// name. Other-kind contracts without an identifier fall back to the name.
func ContractFolderName(ourID, name string) string {
	return strings.TrimSpace(ourID + " " + name)
}
