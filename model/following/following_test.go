package following_test

import (
	"errors"
	"testing"

	"git.fiblab.net/general/common/v2/mathutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tsinghua-fib-lab/agentsociety-perception/model/following"
	"github.com/tsinghua-fib-lab/agentsociety-perception/model/parameter"
	"github.com/tsinghua-fib-lab/agentsociety-perception/model/speedlimit"
)

func idmParams(t *testing.T) *parameter.Set {
	p := parameter.NewSet()
	require.NoError(t, p.Set(parameter.A, 1.25))
	require.NoError(t, p.Set(parameter.B, 2.09))
	require.NoError(t, p.Set(parameter.S0, 3))
	require.NoError(t, p.Set(parameter.T, 1.2))
	require.NoError(t, p.Set(parameter.FSPEED, 1.1))
	return p
}

func TestDesiredSpeed(t *testing.T) {
	m, err := following.ByName("idm")
	require.NoError(t, err)
	sli := speedlimit.Info{}.With(speedlimit.FixedSign, 20).With(speedlimit.MaxVehicleSpeed, 30)
	v, err := m.DesiredSpeed(idmParams(t), sli)
	require.NoError(t, err)
	assert.InDelta(t, 22, v, 1e-9)

	sli = sli.With(speedlimit.MaxVehicleSpeed, 18)
	v, err = m.DesiredSpeed(idmParams(t), sli)
	require.NoError(t, err)
	assert.InDelta(t, 18, v, 1e-9)

	_, err = m.DesiredSpeed(parameter.NewSet(), sli)
	assert.True(t, errors.Is(err, parameter.ErrMissing))
}

func TestFollowingAcceleration(t *testing.T) {
	m := following.IDM{}
	p := idmParams(t)
	sli := speedlimit.Info{}.With(speedlimit.FixedSign, 20)
	free, err := m.FollowingAcceleration(p, 0, sli, mathutil.INF, 0)
	require.NoError(t, err)
	assert.InDelta(t, 1.25, free, 1e-9)

	closeGap, err := m.FollowingAcceleration(p, 15, sli, 5, 0)
	require.NoError(t, err)
	assert.Less(t, closeGap, 0.)

	crash, err := m.FollowingAcceleration(p, 15, sli, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, -mathutil.INF, crash)

	h, err := m.DesiredHeadway(p, 10)
	require.NoError(t, err)
	assert.InDelta(t, 15, h, 1e-9)

	_, err = following.ByName("gipps")
	assert.Error(t, err)
}
