package service

// State 工位状态
type State string

const (
	StateAwaitLogin             State = "AwaitLogin"
	StateAuthorizedIdling       State = "AuthorizedIdling"
	StateUnitAssignedIdling     State = "UnitAssignedIdling"
	StateGatherComponents       State = "GatherComponents"
	StateProductionStageOngoing State = "ProductionStageOngoing"
)

// AllStates 全部工位状态
var AllStates = []State{
	StateAwaitLogin,
	StateAuthorizedIdling,
	StateUnitAssignedIdling,
	StateGatherComponents,
	StateProductionStageOngoing,
}

// stateTransitions 状态迁移表：源状态 → 允许的目标状态
var stateTransitions = map[State][]State{
	StateAwaitLogin:             {StateAuthorizedIdling},
	StateAuthorizedIdling:       {StateUnitAssignedIdling, StateAwaitLogin},
	StateUnitAssignedIdling:     {StateAuthorizedIdling, StateAwaitLogin, StateProductionStageOngoing, StateGatherComponents},
	StateGatherComponents:       {StateUnitAssignedIdling},
	StateProductionStageOngoing: {StateUnitAssignedIdling},
}

var stateDescriptions = map[State]string{
	StateAwaitLogin:             "等待员工登录",
	StateAuthorizedIdling:       "员工已登录，等待分配产品",
	StateUnitAssignedIdling:     "产品已分配，等待开始工序",
	StateGatherComponents:       "等待扫描组件",
	StateProductionStageOngoing: "工序进行中",
}

// CanTransitionTo 判断迁移表中是否存在 s → target
func (s State) CanTransitionTo(target State) bool {
	for _, next := range stateTransitions[s] {
		if next == target {
			return true
		}
	}
	return false
}

// Description 状态的中文说明
func (s State) Description() string {
	return stateDescriptions[s]
}
