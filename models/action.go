package models

import "strings"

// Action is the closed set of commands the agent understands.
type Action int

const (
	ActionUnknown Action = iota
	ActionSysinfo
	ActionCreate
	ActionUpgrade
	ActionRename
	ActionRestart
	ActionStop
	ActionRemove

	// ActionList is only served for local CLI requests.
	ActionList
)

var actionNames = map[Action]string{
	ActionSysinfo: "sysinfo",
	ActionCreate:  "create",
	ActionUpgrade: "upgrade",
	ActionRename:  "rename",
	ActionRestart: "restart",
	ActionStop:    "stop",
	ActionRemove:  "remove",
	ActionList:    "list",
}

// Actions lists every known action in declaration order.
func Actions() []Action {
	return []Action{
		ActionSysinfo,
		ActionCreate,
		ActionUpgrade,
		ActionRename,
		ActionRestart,
		ActionStop,
		ActionRemove,
		ActionList,
	}
}

func (a Action) String() string {
	if name, ok := actionNames[a]; ok {
		return name
	}
	return "unknown"
}

// CLIOnly reports whether the action may only be requested locally.
func (a Action) CLIOnly() bool {
	return a == ActionList
}

// ParseAction maps a wire action name to its Action.
func ParseAction(name string) (Action, bool) {
	name = strings.ToLower(strings.TrimSpace(name))
	for a, n := range actionNames {
		if n == name {
			return a, true
		}
	}
	return ActionUnknown, false
}
