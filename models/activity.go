package models

import "strings"

type ActivityType string

const (
	ActivityAssigned   ActivityType = "assigned"
	ActivityStarted    ActivityType = "started"
	ActivityInProgress ActivityType = "in progress"
	ActivityCompleted  ActivityType = "completed"
	ActivityCommented  ActivityType = "commented"
	ActivityBug        ActivityType = "bug"
)

var ActivityTypes = []ActivityType{
	ActivityAssigned,
	ActivityStarted,
	ActivityInProgress,
	ActivityCompleted,
	ActivityCommented,
	ActivityBug,
}

func ParseActivityType(s string) (ActivityType, error) {
	v := ActivityType(strings.ToLower(strings.TrimSpace(s)))
	for _, t := range ActivityTypes {
		if v == t {
			return t, nil
		}
	}
	return "", ValidationError("Invalid activity type %q", s)
}

// ActivityStyle is how the board renders an activity entry.
type ActivityStyle struct {
	Icon  string `json:"icon"`
	Color string `json:"color"`
}

// ActivityStyles must hold an entry for every value in ActivityTypes.
var ActivityStyles = map[ActivityType]ActivityStyle{
	ActivityAssigned:   {Icon: "user", Color: "bg-blue-600"},
	ActivityStarted:    {Icon: "thumbs-up", Color: "bg-blue-600"},
	ActivityInProgress: {Icon: "running", Color: "bg-yellow-600"},
	ActivityCompleted:  {Icon: "check-circle", Color: "bg-green-600"},
	ActivityCommented:  {Icon: "chat", Color: "bg-gray-500"},
	ActivityBug:        {Icon: "bug", Color: "bg-red-600"},
}

func (t ActivityType) Style() ActivityStyle {
	if s, ok := ActivityStyles[t]; ok {
		return s
	}
	return ActivityStyle{Icon: "info", Color: "bg-gray-400"}
}
