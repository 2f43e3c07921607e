// Package events publishes task lifecycle notifications to NATS.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/SainiAdi-04/Task-Manager/logging"
	"github.com/SainiAdi-04/Task-Manager/models"

	"github.com/nats-io/nats.go"
)

const (
	TaskCreated          = "created"
	TaskUpdated          = "updated"
	TaskDeleted          = "deleted"
	TaskStatusChanged    = "status_changed"
	TaskChecklistUpdated = "checklist_updated"
)

// SubjectPrefix is prepended to every event name to build the NATS subject.
const SubjectPrefix = "tasks."

type TaskEvent struct {
	Event      string            `json:"event"`
	TaskID     string            `json:"taskId"`
	ActorID    string            `json:"actorId"`
	Status     models.TaskStatus `json:"status"`
	Progress   int               `json:"progress"`
	AssignedTo []string          `json:"assignedTo"`
	OccurredAt time.Time         `json:"occurredAt"`
}

// NewTaskEvent snapshots the task as seen by actor.
func NewTaskEvent(event string, task *models.Task, actor *models.User, at time.Time) TaskEvent {
	assignees := make([]string, 0, len(task.AssignedTo))
	for _, id := range task.AssignedTo {
		assignees = append(assignees, id.Hex())
	}
	ev := TaskEvent{
		Event:      event,
		TaskID:     task.ID.Hex(),
		Status:     task.Status,
		Progress:   task.Progress,
		AssignedTo: assignees,
		OccurredAt: at,
	}
	if actor != nil {
		ev.ActorID = actor.ID.Hex()
	}
	return ev
}

func (e TaskEvent) Subject() string {
	return SubjectPrefix + e.Event
}

// Publisher delivers task events. Delivery is best effort: implementations log
// failures instead of returning them.
type Publisher interface {
	Publish(ctx context.Context, event TaskEvent)
}

type NATSPublisher struct {
	conn *nats.Conn
}

func NewNATSPublisher(url string) (*NATSPublisher, error) {
	nc, err := nats.Connect(url,
		nats.Name(logging.SystemName),
		nats.MaxReconnects(-1),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				logging.Logger.Warnf("Event ID: NATS_DISCONNECTED, Description: NATS connection lost: %v", err)
			}
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			logging.Logger.Infof("Event ID: NATS_RECONNECTED, Description: Reconnected to NATS at %s", nc.ConnectedUrl())
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("error connecting to NATS: %w", err)
	}
	return &NATSPublisher{conn: nc}, nil
}

func (p *NATSPublisher) Publish(_ context.Context, event TaskEvent) {
	data, err := json.Marshal(event)
	if err != nil {
		logging.Logger.Errorf("Event ID: TASK_EVENT_ENCODE_FAILED, Description: Failed to encode %s event for task %s: %v", event.Event, event.TaskID, err)
		return
	}
	if err := p.conn.Publish(event.Subject(), data); err != nil {
		logging.Logger.Warnf("Event ID: TASK_EVENT_PUBLISH_FAILED, Description: Failed to publish %s for task %s: %v", event.Subject(), event.TaskID, err)
		return
	}
	logging.Logger.Debugf("Event ID: TASK_EVENT_PUBLISHED, Description: Published %s for task %s", event.Subject(), event.TaskID)
}

// Close flushes pending messages and closes the connection.
func (p *NATSPublisher) Close() {
	if err := p.conn.Drain(); err != nil {
		p.conn.Close()
	}
}

// NopPublisher drops every event. Used when no NATS server is configured.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, TaskEvent) {}
