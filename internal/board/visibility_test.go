package board

import (
	"testing"

	"planroom/api/internal/store"
)

func TestTaskVisible(t *testing.T) {
	owner := "p1"
	cases := []struct {
		name    string
		status  string
		ownerID *string
		rank    int
		want    bool
	}{
		{"backlog never visible", store.TaskStatusBacklog, &owner, 1, false},
		{"backlog without owner never visible", store.TaskStatusBacklog, nil, 0, false},
		{"no owner, in progress", store.TaskStatusInProgress, nil, 0, true},
		{"qualifying owner", store.TaskStatusInProgress, &owner, 3, true},
		{"rank 4 owner never visible", store.TaskStatusInProgress, &owner, 4, false},
		{"done with qualifying owner", store.TaskStatusDone, &owner, 1, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := TaskVisible(tc.status, tc.ownerID, tc.rank); got != tc.want {
				t.Errorf("TaskVisible(%q, owner=%v, rank=%d) = %v, want %v",
					tc.status, tc.ownerID != nil, tc.rank, got, tc.want)
			}
		})
	}
}

func TestContractVisible(t *testing.T) {
	cases := []struct {
		name string
		v    ContractVisibility
		want bool
	}{
		{
			"own contract with qualifying manager",
			ContractVisibility{Kind: store.ContractKindOwn, HasManager: true, ManagerRoleRank: 2, ManagerEmail: "manager@site.example"},
			true,
		},
		{
			"own contract with rank 4 manager",
			ContractVisibility{Kind: store.ContractKindOwn, HasManager: true, ManagerRoleRank: 4},
			false,
		},
		{
			"own contract without manager",
			ContractVisibility{Kind: store.ContractKindOwn},
			false,
		},
		{
			"archived contract",
			ContractVisibility{Kind: store.ContractKindOwn, Status: store.ContractStatusArchived, HasManager: true, ManagerRoleRank: 1},
			false,
		},
		{
			"archive mailbox excluded",
			ContractVisibility{Kind: store.ContractKindOwn, HasManager: true, ManagerRoleRank: 1, ManagerEmail: "team+archive@site.example"},
			false,
		},
		{
			"other contract via admin",
			ContractVisibility{Kind: store.ContractKindOther, HasAdmin: true, AdminRoleRank: 3},
			true,
		},
		{
			"other contract with nobody qualifying",
			ContractVisibility{Kind: store.ContractKindOther, HasManager: true, ManagerRoleRank: 4, HasAdmin: true, AdminRoleRank: 5},
			false,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := ContractVisible(tc.v); got != tc.want {
				t.Errorf("ContractVisible(%+v) = %v, want %v", tc.v, got, tc.want)
			}
		})
	}
}
