package postgres

import (
	"database/sql"
	"encoding/json"

	"github.com/quarryhill/taskgraph/internal/model"
)

// scannable covers both *sql.Row and *sql.Rows.
type scannable interface {
	Scan(dest ...any) error
}

func scanTask(row scannable) (*model.Task, error) {
	var t model.Task
	var description, parentStoryID sql.NullString
	err := row.Scan(
		&t.ID,
		&t.Title,
		&description,
		&t.Status,
		&parentStoryID,
		&t.IsStory,
		&t.CreatedAt,
		&t.CreatedBy,
		&t.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	t.Description = description.String
	t.ParentStoryID = parentStoryID.String
	return &t, nil
}

func scanTaskWithTotal(rows *sql.Rows) (*model.Task, int, error) {
	var t model.Task
	var total int
	var description, parentStoryID sql.NullString
	err := rows.Scan(
		&total,
		&t.ID,
		&t.Title,
		&description,
		&t.Status,
		&parentStoryID,
		&t.IsStory,
		&t.CreatedAt,
		&t.CreatedBy,
		&t.UpdatedAt,
	)
	if err != nil {
		return nil, 0, err
	}
	t.Description = description.String
	t.ParentStoryID = parentStoryID.String
	return &t, total, nil
}

func scanTasks(rows *sql.Rows) ([]*model.Task, error) {
	var tasks []*model.Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, t)
	}
	return tasks, rows.Err()
}

func scanDependencies(rows *sql.Rows) ([]*model.Dependency, error) {
	var deps []*model.Dependency
	for rows.Next() {
		var d model.Dependency
		if err := rows.Scan(&d.TaskID, &d.DependsOnID, &d.CreatedAt, &d.CreatedBy); err != nil {
			return nil, err
		}
		deps = append(deps, &d)
	}
	return deps, rows.Err()
}

func scanResource(row scannable) (*model.Resource, error) {
	var r model.Resource
	var path sql.NullString
	err := row.Scan(&r.ID, &r.Kind, &r.Name, &path, &r.CreatedAt)
	if err != nil {
		return nil, err
	}
	r.Path = path.String
	return &r, nil
}

func scanResourceWithEdge(rows *sql.Rows) (*model.Resource, *model.ResourceEdge, error) {
	var r model.Resource
	var e model.ResourceEdge
	var path sql.NullString
	err := rows.Scan(
		&r.ID, &r.Kind, &r.Name, &path, &r.CreatedAt,
		&e.ID, &e.TaskID, &e.ResourceID, &e.Action, &e.Confidence, &e.CreatedAt,
	)
	if err != nil {
		return nil, nil, err
	}
	r.Path = path.String
	return &r, &e, nil
}

func scanEvents(rows *sql.Rows) ([]*model.Event, error) {
	var events []*model.Event
	for rows.Next() {
		var e model.Event
		var payload []byte
		if err := rows.Scan(&e.ID, &e.Topic, &e.TaskID, &e.Actor, &payload, &e.CreatedAt); err != nil {
			return nil, err
		}
		e.Payload = json.RawMessage(payload)
		events = append(events, &e)
	}
	return events, rows.Err()
}

// nullString maps the empty string to SQL NULL on the way in.
func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

// nullStringScanner scans a nullable text column into a plain string,
// mapping NULL to the empty string.
type nullStringScanner struct {
	dest *string
}

func (n *nullStringScanner) Scan(src any) error {
	var ns sql.NullString
	if err := ns.Scan(src); err != nil {
		return err
	}
	*n.dest = ns.String
	return nil
}
