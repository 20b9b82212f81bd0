package quality

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		want Role
	}{
		{"ProductID", RoleIdentifier},
		{"location_code", RoleIdentifier},
		{"PrimaryKey", RoleIdentifier},
		{"CreatedDate", RoleDate},
		{"LeadTime", RoleDate},
		{"LastUpdated", RoleDate | RoleUpdateMarker},
		{"LastModified", RoleUpdateMarker},
		{"ChangeReason", RoleUpdateMarker},
		{"Timestamp", RoleDate | RoleUpdateMarker},
		{"ForecastDate", RoleDate | RoleForwardLooking},
		{"FutureStart", RoleForwardLooking},
		{"Valid", RoleIdentifier},
		{"Name", RoleNone},
		{"", RoleNone},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.name), "got %s", Classify(tt.name))
		})
	}
}

func TestRolePredicates(t *testing.T) {
	r := Classify("ForecastUpdateDate")
	assert.True(t, r.IsDate())
	assert.True(t, r.IsUpdateMarker())
	assert.True(t, r.IsForwardLooking())
	assert.False(t, r.IsIdentifier())
	assert.Equal(t, "date|update|forward", r.String())

	assert.False(t, RoleNone.Has(RoleNone))
	assert.Equal(t, "none", RoleNone.String())
}
