package config

// ControlStep 指定模拟器模拟时间范围和间隔的配置项
// 功能：定义仿真时间控制参数
// 说明：控制仿真的时间范围与步长
type ControlStep struct {
	Start    int32   `yaml:"start"`    // 开始步数
	Total    int32   `yaml:"total"`    // 总步数
	Interval float64 `yaml:"interval"` // 每步的时间间隔
}

// Control 模拟器控制配置
type Control struct {
	Step ControlStep `yaml:"step"`
}

// Perception 感知配置
// 功能：定义感知的保真度与可视范围
// 说明：Mode取值为perfect、delayed、assumed、estimated，其余字段按模式生效
type Perception struct {
	Mode             string  `yaml:"mode"`                        // 感知模式
	Delay            float64 `yaml:"delay,omitempty"`             // 感知延迟（秒），delayed模式使用
	Estimation       string  `yaml:"estimation,omitempty"`        // 估计误差类型：none、underestimation、overestimation、factor
	EstimationStd    float64 `yaml:"estimation_std,omitempty"`    // factor模式下估计系数的标准差
	Seed             uint64  `yaml:"seed,omitempty"`              // factor模式下的随机数种子
	Visibility       float64 `yaml:"visibility"`                  // 冲突车道上的可视距离（米）
	LookAhead        float64 `yaml:"look_ahead"`                  // 前向感知距离（米）
	LookBack         float64 `yaml:"look_back"`                   // 后向感知距离（米）
	ConflictSnapshot bool    `yaml:"conflict_snapshot,omitempty"` // 冲突区是否总是使用快照（冻结）形式
}

// GtuAssumption 某一类交通参与者的行为假设
type GtuAssumption struct {
	GtuType    string             `yaml:"gtu_type"`              // 交通参与者类别
	Model      string             `yaml:"model"`                 // 跟驰模型名称
	Parameters map[string]float64 `yaml:"parameters"`            // 行为参数，键为参数ID
	LaneSpeeds map[string]float64 `yaml:"lane_speeds,omitempty"` // 各车道类型的假定限速，键为LaneType名称（如LANE_TYPE_DRIVING）
}

// ScenarioLane 演示场景中的车道
type ScenarioLane struct {
	ID             int32              `yaml:"id"`
	Type           string             `yaml:"type"`                       // LaneType名称
	Turn           string             `yaml:"turn,omitempty"`             // LaneTurn名称
	Parent         int32              `yaml:"parent,omitempty"`           // 所在道路/路口ID
	Width          float64            `yaml:"width"`                      // 车道宽度
	EndWidth       float64            `yaml:"end_width,omitempty"`        // 终点宽度，为0时与起点相同
	SpeedLimit     float64            `yaml:"speed_limit"`                // 限速（米/秒）
	GtuSpeedLimits map[string]float64 `yaml:"gtu_speed_limits,omitempty"` // 针对特定交通参与者类别的限速
	Line           [][2]float64       `yaml:"line"`                       // 中心线折线
	Predecessors   []int32            `yaml:"predecessors,omitempty"`     // 前驱车道
}

// ScenarioVehicle 演示场景中的车辆
type ScenarioVehicle struct {
	ID         string             `yaml:"id"`
	GtuType    string             `yaml:"gtu_type"`
	Lane       int32              `yaml:"lane"`
	S          float64            `yaml:"s"`
	V          float64            `yaml:"v"`
	A          float64            `yaml:"a,omitempty"`
	Length     float64            `yaml:"length"`
	Width      float64            `yaml:"width"`
	MaxSpeed   float64            `yaml:"max_speed"`
	Indicator  string             `yaml:"indicator,omitempty"` // none、left、right、hazard
	Braking    bool               `yaml:"braking,omitempty"`
	Model      string             `yaml:"model"`
	Parameters map[string]float64 `yaml:"parameters,omitempty"`
	Route      []int32            `yaml:"route,omitempty"`
}

// LightPhase 固定配时信号灯的一个相位
type LightPhase struct {
	State    string  `yaml:"state"`    // LightState名称
	Duration float64 `yaml:"duration"` // 持续时间（秒）
}

// ScenarioLight 演示场景中的信号灯
type ScenarioLight struct {
	ID        string       `yaml:"id"`
	Lane      int32        `yaml:"lane"`
	S         float64      `yaml:"s"`
	Offset    float64      `yaml:"offset,omitempty"` // 相位偏移（秒）
	Phases    []LightPhase `yaml:"phases"`
	TurnOnRed bool         `yaml:"turn_on_red,omitempty"`
}

// ScenarioStopLine 演示场景中的停止线
type ScenarioStopLine struct {
	ID   string  `yaml:"id"`
	Lane int32   `yaml:"lane"`
	S    float64 `yaml:"s"`
}

// ScenarioConflict 演示场景中的一对冲突区
type ScenarioConflict struct {
	Type         string  `yaml:"type"`                    // crossing、merge、split
	Rule         string  `yaml:"rule"`                    // fixed、all_stop、traffic_light
	PriorityLane int32   `yaml:"priority_lane,omitempty"` // fixed规则下的优先车道
	Stop         bool    `yaml:"stop,omitempty"`          // fixed规则下次要方向是否需停车（否则让行）
	Permitted    bool    `yaml:"permitted,omitempty"`     // 信控中是否为允许冲突
	Lane1        int32   `yaml:"lane1"`
	S1           float64 `yaml:"s1"`
	Length1      float64 `yaml:"length1"`
	StopLine1    string  `yaml:"stop_line1,omitempty"`
	Lane2        int32   `yaml:"lane2"`
	S2           float64 `yaml:"s2"`
	Length2      float64 `yaml:"length2"`
	StopLine2    string  `yaml:"stop_line2,omitempty"`
}

// Scenario 演示场景
type Scenario struct {
	Ego       string             `yaml:"ego"` // 感知主体车辆ID
	Lanes     []ScenarioLane     `yaml:"lanes"`
	Vehicles  []ScenarioVehicle  `yaml:"vehicles"`
	Lights    []ScenarioLight    `yaml:"lights,omitempty"`
	StopLines []ScenarioStopLine `yaml:"stop_lines,omitempty"`
	Conflicts []ScenarioConflict `yaml:"conflicts,omitempty"`
}

// Config YAML配置文件的根结构
// 功能：定义整个感知演示程序的配置结构
// 说明：包含模拟控制、感知、行为假设与场景
type Config struct {
	Control     Control         `yaml:"control"`               // 模拟过程控制
	Perception  Perception      `yaml:"perception"`            // 感知
	Assumptions []GtuAssumption `yaml:"assumptions,omitempty"` // 行为假设
	Scenario    Scenario        `yaml:"scenario"`              // 场景
}
