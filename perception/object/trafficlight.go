package object

import (
	"fmt"

	mapv2 "git.fiblab.net/sim/protos/v2/go/city/map/v2"
	"github.com/tsinghua-fib-lab/agentsociety-perception/entity"
	"github.com/tsinghua-fib-lab/agentsociety-perception/perception/kinematics"
)

const (
	greenLight  = mapv2.LightState_LIGHT_STATE_GREEN
	yellowLight = mapv2.LightState_LIGHT_STATE_YELLOW
)

var _ PerceivedObject = TrafficLight{}

// TrafficLight 感知到的信号灯
type TrafficLight struct {
	Object
	state     mapv2.LightState
	turnOnRed bool
}

// OfTrafficLight 感知t时刻的信号灯灯色
func OfTrafficLight(light entity.ITrafficLight, k kinematics.Kinematics, t float64) (TrafficLight, error) {
	o, err := NewObject(light.ID(), TypeTrafficLight, light.Length(), k)
	if err != nil {
		return TrafficLight{}, err
	}
	return TrafficLight{
		Object:    o,
		state:     light.LightStateAt(t),
		turnOnRed: light.TurnOnRed(),
	}, nil
}

// LightState 感知时刻的灯色
func (l TrafficLight) LightState() mapv2.LightState {
	return l.state
}

func (l TrafficLight) TurnOnRed() bool {
	return l.turnOnRed
}

// CanPass 是否可以通过（绿灯或黄灯）
func (l TrafficLight) CanPass() bool {
	return l.state == greenLight || l.state == yellowLight
}

func (l TrafficLight) String() string {
	return fmt.Sprintf("%v (%v)", l.Object, l.state)
}
