package tools

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	agent "github.com/armatrix/taskagent"
)

// MaxTodoItems caps the length of a todo list.
const MaxTodoItems = 20

// Todo statuses.
const (
	StatusPending    = "pending"
	StatusInProgress = "in_progress"
	StatusCompleted  = "completed"
)

// TodoItem is one entry of a TodoList.
type TodoItem struct {
	Content    string `json:"content" jsonschema:"required,description=What needs to be done"`
	Status     string `json:"status" jsonschema:"required,description=One of pending, in_progress or completed"`
	ActiveForm string `json:"activeForm" jsonschema:"required,description=Present-tense label shown while the item is in progress"`
}

// TodoList holds the current task list of one agent. Updates replace the
// whole list; an invalid update leaves the previous list in place.
type TodoList struct {
	mu    sync.Mutex
	items []TodoItem
}

// NewTodoList returns an empty list.
func NewTodoList() *TodoList {
	return &TodoList{}
}

// Update validates items and, if valid, replaces the list with them.
func (l *TodoList) Update(items []TodoItem) error {
	if len(items) > MaxTodoItems {
		return fmt.Errorf("max %d todos allowed, got %d", MaxTodoItems, len(items))
	}
	validated := make([]TodoItem, 0, len(items))
	inProgress := 0
	for i, item := range items {
		content := strings.TrimSpace(item.Content)
		status := strings.ToLower(strings.TrimSpace(item.Status))
		activeForm := strings.TrimSpace(item.ActiveForm)

		if content == "" {
			return fmt.Errorf("item %d: content required", i)
		}
		switch status {
		case StatusPending, StatusCompleted:
		case StatusInProgress:
			inProgress++
		default:
			return fmt.Errorf("item %d: invalid status '%s'", i, item.Status)
		}
		if activeForm == "" {
			return fmt.Errorf("item %d: activeForm required", i)
		}
		validated = append(validated, TodoItem{Content: content, Status: status, ActiveForm: activeForm})
	}
	if inProgress > 1 {
		return errors.New("only one task can be in_progress at a time")
	}

	l.mu.Lock()
	l.items = validated
	l.mu.Unlock()
	return nil
}

// Items returns a copy of the current list.
func (l *TodoList) Items() []TodoItem {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]TodoItem, len(l.items))
	copy(out, l.items)
	return out
}

// Render formats the list as a checklist followed by a completion count.
func (l *TodoList) Render() string {
	items := l.Items()
	if len(items) == 0 {
		return "Todo list is empty."
	}
	var b strings.Builder
	done := 0
	for _, item := range items {
		switch item.Status {
		case StatusCompleted:
			done++
			fmt.Fprintf(&b, "- [✅] %s\n", item.Content)
		case StatusInProgress:
			fmt.Fprintf(&b, "- [>] %s <- (%s)\n", item.Content, item.ActiveForm)
		default:
			fmt.Fprintf(&b, "- [ ] %s\n", item.Content)
		}
	}
	fmt.Fprintf(&b, "\n(%d/%d items completed)", done, len(items))
	return b.String()
}

// TodoInput defines the input for the todo_write tool.
type TodoInput struct {
	Items []TodoItem `json:"items" jsonschema:"required,description=The complete updated todo list"`
}

// TodoWriteTool replaces a TodoList and returns its rendering.
type TodoWriteTool struct {
	List *TodoList
}

var _ agent.Tool[TodoInput] = (*TodoWriteTool)(nil)

func (t *TodoWriteTool) Name() string { return agent.TodoToolName }
func (t *TodoWriteTool) Description() string {
	return fmt.Sprintf("Replace the task list. Send every item each time. At most %d items and one in_progress.", MaxTodoItems)
}

func (t *TodoWriteTool) Execute(_ context.Context, input TodoInput) (*agent.ToolResult, error) {
	if err := t.List.Update(input.Items); err != nil {
		return agent.ErrorResult(err.Error()), nil
	}
	return agent.TextResult(t.List.Render()), nil
}
