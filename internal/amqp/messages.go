package amqp

import (
	"encoding/json"
	"fmt"
	"time"
)

// PlanAction is the lifecycle transition a PlanEventMessage reports.
type PlanAction string

const (
	PlanCreated PlanAction = "created"
	PlanUpdated PlanAction = "updated"
	PlanDeleted PlanAction = "deleted"
)

// PlanEventMessage announces a committed change to a monthly plan. It carries
// only identifiers; consumers read the plan itself from the store.
type PlanEventMessage struct {
	PlanID int64      `json:"plan_id"`
	Action PlanAction `json:"action"`
	Period string     `json:"period"`
	// PreviousPeriod is set when an update moved the plan to another month.
	PreviousPeriod string    `json:"previous_period,omitempty"`
	DailyCount     int       `json:"daily_count"`
	Timestamp      time.Time `json:"timestamp"`
}

// NewPlanEventMessage creates an event stamped with the current time.
func NewPlanEventMessage(planID int64, action PlanAction, period string, dailyCount int) *PlanEventMessage {
	return &PlanEventMessage{
		PlanID:     planID,
		Action:     action,
		Period:     period,
		DailyCount: dailyCount,
		Timestamp:  time.Now(),
	}
}

// ToJSON converts the message to JSON bytes
func (m *PlanEventMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// PlanEventMessageFromJSON decodes and checks a message body.
func PlanEventMessageFromJSON(data []byte) (*PlanEventMessage, error) {
	var msg PlanEventMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	switch msg.Action {
	case PlanCreated, PlanUpdated, PlanDeleted:
	default:
		return nil, fmt.Errorf("unknown plan action %q", msg.Action)
	}
	if msg.Period == "" {
		return nil, fmt.Errorf("plan event %d has no period", msg.PlanID)
	}
	return &msg, nil
}
