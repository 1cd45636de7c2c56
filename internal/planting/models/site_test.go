package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "arbor/pkg/domain-errors"
)

func TestDefaultPriority(t *testing.T) {
	cases := []struct {
		site SiteType
		sun  SunExposure
		want int
	}{
		{SiteSidewalk, SunPartial, 85},
		{SiteSidewalk, SunFull, 90},
		{SiteVacantLot, SunFull, 95},
		{SiteYard, SunShade, 40},
		{SiteMedian, SunPartial, 60},
		{SiteSchool, SunFull, 85},
		{SitePark, SunShade, 60},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, DefaultPriority(tc.site, tc.sun), "%s/%s", tc.site, tc.sun)
	}
}

func TestParseSiteEnums(t *testing.T) {
	st, err := ParseSiteType(" Vacant-Lot ")
	require.NoError(t, err)
	assert.Equal(t, SiteVacantLot, st)

	_, err = ParseSiteType("rooftop")
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	_, err = ParseSoilType("gravel")
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	_, err = ParseSunExposure("dappled")
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	_, err = ParseSiteStatus("lost")
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
}

func TestSiteStatusMachine(t *testing.T) {
	site := &PlantingSite{Status: SiteAvailable}
	require.Error(t, site.ChangeStatus(SitePlanted))
	require.Error(t, site.ChangeStatus(SiteAvailable))
	require.NoError(t, site.ChangeStatus(SiteReserved))
	require.NoError(t, site.ChangeStatus(SiteAvailable))
	require.NoError(t, site.ChangeStatus(SiteReserved))
	require.NoError(t, site.ChangeStatus(SitePlanted))

	err := site.ChangeStatus(SiteReserved)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidTransition))
}

func TestSiteAdministration(t *testing.T) {
	site := &PlantingSite{CreatedBy: "alice"}
	assert.True(t, site.CanAdminister("alice", false))
	assert.False(t, site.CanAdminister("bob", false))
	assert.True(t, site.CanAdminister("bob", true))
	assert.False(t, site.CanAdminister("", false))
}
