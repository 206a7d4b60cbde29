package domain

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseHours(t *testing.T) {
	tests := []struct {
		in   string
		want float64
	}{
		{"PT2H", 2},
		{"PT1.5H", 1.5},
		{"PT2H30M", 2.5},
		{"PT45M", 0.75},
		{"P1D", 24},
		{"P1DT1H", 25},
	}
	for _, tt := range tests {
		got, err := ParseHours(tt.in)
		require.NoError(t, err, tt.in)
		assert.InDelta(t, tt.want, got, 1e-9, tt.in)
	}

	for _, bad := range []string{"", "P", "PT", " PT", "P ", "2H", "PTxH"} {
		_, err := ParseHours(bad)
		assert.Error(t, err, bad)
	}
}

func TestFormatHours(t *testing.T) {
	assert.Equal(t, "PT2H", FormatHours(2))
	assert.Equal(t, "PT0.25H", FormatHours(0.25))

	back, err := ParseHours(FormatHours(3.75))
	require.NoError(t, err)
	assert.InDelta(t, 3.75, back, 1e-9)
}

func TestMembershipNames(t *testing.T) {
	var m Membership
	require.NoError(t, json.Unmarshal([]byte(`{
		"id": 1,
		"_links": {
			"principal": {"href": "/api/v3/users/5", "title": "Ada Lovelace"},
			"roles": [{"href": "/api/v3/roles/3", "title": "Member"}, {"href": "/api/v3/roles/4"}]
		}
	}`), &m))

	assert.Equal(t, "Ada Lovelace", m.PrincipalName())
	assert.Equal(t, NotAvailable, m.ProjectName())
	assert.Equal(t, []string{"Member", NotAvailable}, m.RoleNames())
}

func TestRelationEnds(t *testing.T) {
	var r Relation
	require.NoError(t, json.Unmarshal([]byte(`{
		"id": 9,
		"type": "blocks",
		"_embedded": {"from": {"id": 1, "subject": "Design"}},
		"_links": {"to": {"href": "/api/v3/work_packages/2", "title": "Build"}}
	}`), &r))

	assert.Equal(t, 1, r.FromID())
	assert.Equal(t, 2, r.ToID())
	assert.Equal(t, "Design", r.FromSubject())
	assert.Equal(t, "Build", r.ToSubject())
}

func TestWorkPackageDefaults(t *testing.T) {
	var wp WorkPackage
	require.NoError(t, json.Unmarshal([]byte(`{"id": 3, "subject": "Bare"}`), &wp))

	assert.Equal(t, DefaultStatusName, wp.StatusName())
	assert.Equal(t, NotAvailable, wp.TypeName())
	assert.Equal(t, "", wp.PriorityName())
	assert.Equal(t, "", wp.ProjectName())
	assert.Equal(t, "", wp.DescriptionText())
	assert.Equal(t, 0, wp.ParentID())
}

func TestWorkPackageNamesFromLinks(t *testing.T) {
	var wp WorkPackage
	require.NoError(t, json.Unmarshal([]byte(`{
		"id": 4,
		"subject": "Linked",
		"_links": {
			"status": {"href": "/api/v3/statuses/1", "title": "New"},
			"type": {"href": "/api/v3/types/2", "title": "Bug"},
			"priority": {"href": "/api/v3/priorities/8", "title": "High"},
			"assignee": {"href": "/api/v3/users/5", "title": "Ada"},
			"project": {"href": "/api/v3/projects/2", "title": "Demo"}
		}
	}`), &wp))

	assert.Equal(t, "New", wp.StatusName())
	assert.Equal(t, "Bug", wp.TypeName())
	assert.Equal(t, "High", wp.PriorityName())
	assert.Equal(t, "Ada", wp.AssigneeName())
	assert.Equal(t, "Demo", wp.ProjectName())

	var unassigned WorkPackage
	require.NoError(t, json.Unmarshal([]byte(`{"id": 5, "_links": {"assignee": {"href": null}}}`), &unassigned))
	assert.Equal(t, "", unassigned.AssigneeName())
}
