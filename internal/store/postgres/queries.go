package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/lib/pq"

	"github.com/quarryhill/taskgraph/internal/model"
	"github.com/quarryhill/taskgraph/internal/store"
)

// taskColumns is the column list used for SELECT statements on the tasks table.
const taskColumns = `id, title, description, status, parent_story_id, is_story,
	created_at, created_by, updated_at`

// depLockKey serializes dependency-edge writers so the reachability check
// and the insert are indivisible across concurrent transactions.
const depLockKey = 0x7461736b // "task"

// executor is the interface satisfied by both *sql.DB and *sql.Tx.
type executor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func queryCreateTask(ctx context.Context, db executor, t *model.Task) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO tasks (
			id, title, description, status, parent_story_id, is_story,
			created_at, created_by, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		t.ID,
		t.Title,
		t.Description,
		string(t.Status),
		nullString(t.ParentStoryID),
		t.IsStory,
		t.CreatedAt,
		t.CreatedBy,
		t.UpdatedAt,
	)
	return err
}

func queryGetTask(ctx context.Context, db executor, id string) (*model.Task, error) {
	row := db.QueryRowContext(ctx, `SELECT `+taskColumns+` FROM tasks WHERE id = $1`, id)
	t, err := scanTask(row)
	if err != nil {
		return nil, err
	}

	deps, err := queryGetDependencies(ctx, db, id)
	if err != nil {
		return nil, err
	}
	t.Dependencies = deps

	return t, nil
}

func queryListTasks(ctx context.Context, db executor, filter model.TaskFilter) ([]*model.Task, int, error) {
	var (
		whereClauses []string
		args         []any
		argIdx       int
	)

	nextArg := func() string {
		argIdx++
		return fmt.Sprintf("$%d", argIdx)
	}

	if len(filter.Status) > 0 {
		placeholders := make([]string, len(filter.Status))
		for i, s := range filter.Status {
			placeholders[i] = nextArg()
			args = append(args, string(s))
		}
		whereClauses = append(whereClauses, "status IN ("+strings.Join(placeholders, ", ")+")")
	}

	if filter.StoryID != "" {
		whereClauses = append(whereClauses, "parent_story_id = "+nextArg())
		args = append(args, filter.StoryID)
	}

	if filter.Stories {
		whereClauses = append(whereClauses, "is_story")
	}

	if filter.Search != "" {
		p := nextArg()
		whereClauses = append(whereClauses,
			fmt.Sprintf("(title ILIKE '%%' || %s || '%%' OR description ILIKE '%%' || %s || '%%')", p, p))
		args = append(args, filter.Search)
	}

	whereSQL := ""
	if len(whereClauses) > 0 {
		whereSQL = " WHERE " + strings.Join(whereClauses, " AND ")
	}

	// Single query with COUNT(*) OVER() to get total and rows atomically.
	dataQuery := "SELECT COUNT(*) OVER() AS total_count, " + taskColumns + " FROM tasks" + whereSQL + " ORDER BY " + parseSortClause(filter.Sort)

	if filter.Limit > 0 {
		dataQuery += " LIMIT " + nextArg()
		args = append(args, filter.Limit)
	}
	if filter.Offset > 0 {
		dataQuery += " OFFSET " + nextArg()
		args = append(args, filter.Offset)
	}

	rows, err := db.QueryContext(ctx, dataQuery, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list tasks: %w", err)
	}
	defer rows.Close()

	var tasks []*model.Task
	var total int
	for rows.Next() {
		t, n, err := scanTaskWithTotal(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan tasks: %w", err)
		}
		total = n
		tasks = append(tasks, t)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("scan tasks: %w", err)
	}

	return tasks, total, nil
}

func queryUpdateTask(ctx context.Context, db executor, t *model.Task) error {
	return db.QueryRowContext(ctx, `
		UPDATE tasks SET
			title = $2,
			description = $3,
			status = $4,
			parent_story_id = $5,
			is_story = $6,
			updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at`,
		t.ID,
		t.Title,
		t.Description,
		string(t.Status),
		nullString(t.ParentStoryID),
		t.IsStory,
	).Scan(&t.UpdatedAt)
}

// queryUpdateTaskStatus writes only the status and update timestamp. The
// aggregate status engine uses this so a rollup never clobbers other fields.
func queryUpdateTaskStatus(ctx context.Context, db executor, id string, status model.Status) error {
	res, err := db.ExecContext(ctx, `
		UPDATE tasks SET status = $2, updated_at = NOW() WHERE id = $1`,
		id, string(status),
	)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func queryDeleteTask(ctx context.Context, db executor, id string) error {
	res, err := db.ExecContext(ctx, `DELETE FROM tasks WHERE id = $1`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func queryDeleteTasks(ctx context.Context, db executor, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	_, err := db.ExecContext(ctx, `DELETE FROM tasks WHERE id = ANY($1)`, pq.Array(ids))
	return err
}

// queryAddDependency inserts a dependency edge, rejecting any edge that
// would close a cycle. The recursive CTE computes everything the new
// prerequisite transitively depends on inside the same statement as the
// insert, and the advisory lock taken first serializes concurrent writers,
// so two racing inserts can never both succeed if their union is cyclic.
func queryAddDependency(ctx context.Context, db executor, dep *model.Dependency) error {
	if _, err := db.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, depLockKey); err != nil {
		return fmt.Errorf("acquire dependency lock: %w", err)
	}

	res, err := db.ExecContext(ctx, `
		WITH RECURSIVE reach(id) AS (
			SELECT depends_on_id FROM task_deps WHERE task_id = $2
			UNION
			SELECT td.depends_on_id FROM task_deps td JOIN reach r ON td.task_id = r.id
		)
		INSERT INTO task_deps (task_id, depends_on_id, created_at, created_by)
		SELECT $1, $2, $3, $4
		WHERE $1 <> $2 AND NOT EXISTS (SELECT 1 FROM reach WHERE id = $1)
		ON CONFLICT (task_id, depends_on_id) DO NOTHING`,
		dep.TaskID,
		dep.DependsOnID,
		dep.CreatedAt,
		dep.CreatedBy,
	)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 1 {
		return nil
	}

	// Zero rows: either the pair already exists (idempotent no-op) or the
	// reachability guard fired.
	var exists bool
	err = db.QueryRowContext(ctx, `
		SELECT EXISTS (SELECT 1 FROM task_deps WHERE task_id = $1 AND depends_on_id = $2)`,
		dep.TaskID, dep.DependsOnID,
	).Scan(&exists)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}
	return &store.CycleError{TaskID: dep.TaskID, DependsOnID: dep.DependsOnID}
}

func queryRemoveDependency(ctx context.Context, db executor, taskID, dependsOnID string) error {
	_, err := db.ExecContext(ctx, `
		DELETE FROM task_deps
		WHERE task_id = $1 AND depends_on_id = $2`,
		taskID, dependsOnID,
	)
	return err
}

func queryGetDependencies(ctx context.Context, db executor, taskID string) ([]*model.Dependency, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT task_id, depends_on_id, created_at, created_by
		FROM task_deps
		WHERE task_id = $1
		ORDER BY created_at`,
		taskID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanDependencies(rows)
}

func queryListDependencies(ctx context.Context, db executor) ([]*model.Dependency, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT task_id, depends_on_id, created_at, created_by
		FROM task_deps
		ORDER BY created_at`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanDependencies(rows)
}

// queryUpsertResource converges on (kind, name): a duplicate insert reuses
// the existing row's id and only refreshes the path when a new one is
// supplied. The resolved id and creation time are written back to r.
func queryUpsertResource(ctx context.Context, db executor, r *model.Resource) error {
	return db.QueryRowContext(ctx, `
		INSERT INTO resources (id, kind, name, path, created_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (kind, name) DO UPDATE
		SET path = COALESCE(EXCLUDED.path, resources.path)
		RETURNING id, path, created_at`,
		r.ID,
		string(r.Kind),
		r.Name,
		nullString(r.Path),
		r.CreatedAt,
	).Scan(&r.ID, &nullStringScanner{&r.Path}, &r.CreatedAt)
}

// queryUpsertResourceEdge converges on (task_id, resource_id, action); a
// duplicate refreshes only the confidence metadata.
func queryUpsertResourceEdge(ctx context.Context, db executor, e *model.ResourceEdge) error {
	return db.QueryRowContext(ctx, `
		INSERT INTO resource_edges (id, task_id, resource_id, action, confidence, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (task_id, resource_id, action) DO UPDATE
		SET confidence = EXCLUDED.confidence
		RETURNING id, created_at`,
		e.ID,
		e.TaskID,
		e.ResourceID,
		string(e.Action),
		e.Confidence,
		e.CreatedAt,
	).Scan(&e.ID, &e.CreatedAt)
}

func queryGetTaskResources(ctx context.Context, db executor, taskID string) (*model.DependencyGraph, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT r.id, r.kind, r.name, r.path, r.created_at,
			re.id, re.task_id, re.resource_id, re.action, re.confidence, re.created_at
		FROM resource_edges re
		JOIN resources r ON r.id = re.resource_id
		WHERE re.task_id = $1
		ORDER BY re.created_at`,
		taskID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	g := &model.DependencyGraph{Nodes: []*model.Resource{}, Edges: []*model.ResourceEdge{}}
	seen := make(map[string]bool)
	for rows.Next() {
		r, e, err := scanResourceWithEdge(rows)
		if err != nil {
			return nil, err
		}
		// A task holding several action-typed edges to one resource yields
		// one node.
		if !seen[r.ID] {
			seen[r.ID] = true
			g.Nodes = append(g.Nodes, r)
		}
		g.Edges = append(g.Edges, e)
	}
	return g, rows.Err()
}

func queryGetResource(ctx context.Context, db executor, id string) (*model.Resource, error) {
	row := db.QueryRowContext(ctx, `
		SELECT id, kind, name, path, created_at FROM resources WHERE id = $1`, id)
	return scanResource(row)
}

func queryGetResourceUses(ctx context.Context, db executor, resourceID string) ([]model.ResourceUse, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT task_id, action FROM resource_edges
		WHERE resource_id = $1
		ORDER BY created_at`,
		resourceID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var uses []model.ResourceUse
	for rows.Next() {
		var u model.ResourceUse
		if err := rows.Scan(&u.TaskID, &u.Action); err != nil {
			return nil, err
		}
		uses = append(uses, u)
	}
	return uses, rows.Err()
}

// queryGetActiveUsages returns every reference to the given resources held
// by other tasks whose status marks them as actively worked. Backlog and
// done tasks cannot be actively conflicting, so they are filtered here.
func queryGetActiveUsages(ctx context.Context, db executor, resourceIDs []string, excludeTaskID string) ([]model.ActiveUsage, error) {
	if len(resourceIDs) == 0 {
		return nil, nil
	}
	rows, err := db.QueryContext(ctx, `
		SELECT re.task_id, re.resource_id, r.name, re.action
		FROM resource_edges re
		JOIN resources r ON r.id = re.resource_id
		JOIN tasks t ON t.id = re.task_id
		WHERE re.resource_id = ANY($1)
		  AND re.task_id <> $2
		  AND t.status IN ('todo', 'in_progress')
		ORDER BY re.created_at`,
		pq.Array(resourceIDs), excludeTaskID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var usages []model.ActiveUsage
	for rows.Next() {
		var u model.ActiveUsage
		if err := rows.Scan(&u.TaskID, &u.ResourceID, &u.ResourceName, &u.Action); err != nil {
			return nil, err
		}
		usages = append(usages, u)
	}
	return usages, rows.Err()
}

func queryListChildren(ctx context.Context, db executor, storyID string) ([]*model.Task, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT `+taskColumns+` FROM tasks
		WHERE parent_story_id = $1
		ORDER BY created_at`,
		storyID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanTasks(rows)
}

func queryCountChildrenByStatus(ctx context.Context, db executor, storyID string) (model.StatusCounts, error) {
	var counts model.StatusCounts
	err := db.QueryRowContext(ctx, `
		SELECT
			COALESCE(SUM(CASE WHEN status = 'backlog' THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN status = 'todo' THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN status = 'in_progress' THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN status = 'done' THEN 1 ELSE 0 END), 0)
		FROM tasks WHERE parent_story_id = $1`, storyID).Scan(
		&counts.Backlog,
		&counts.Todo,
		&counts.InProgress,
		&counts.Done,
	)
	if err != nil {
		return model.StatusCounts{}, fmt.Errorf("count children: %w", err)
	}
	return counts, nil
}

func queryListStories(ctx context.Context, db executor) ([]*model.Task, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT `+taskColumns+` FROM tasks
		WHERE is_story
		ORDER BY created_at`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanTasks(rows)
}

func queryGetGraph(ctx context.Context, db executor, limit int) (*model.GraphResponse, error) {
	if limit <= 0 {
		limit = 500
	}

	tasks, _, err := queryListTasks(ctx, db, model.TaskFilter{
		Limit: limit,
		Sort:  "-updated_at",
	})
	if err != nil {
		return nil, fmt.Errorf("graph: list tasks: %w", err)
	}

	idSet := make(map[string]struct{}, len(tasks))
	for _, t := range tasks {
		idSet[t.ID] = struct{}{}
	}

	// Fetch all dependencies in one query (not per-task N+1).
	deps, err := queryListDependencies(ctx, db)
	if err != nil {
		return nil, fmt.Errorf("graph: fetch deps: %w", err)
	}

	var edges []*model.GraphEdge
	depMap := make(map[string][]*model.Dependency)
	for _, d := range deps {
		depMap[d.TaskID] = append(depMap[d.TaskID], d)

		// Only include edges where both endpoints are in the node set.
		_, srcOK := idSet[d.TaskID]
		_, tgtOK := idSet[d.DependsOnID]
		if srcOK && tgtOK {
			edges = append(edges, &model.GraphEdge{
				Source: d.TaskID,
				Target: d.DependsOnID,
			})
		}
	}

	for _, t := range tasks {
		if ds, ok := depMap[t.ID]; ok {
			t.Dependencies = ds
		}
	}

	stats, err := queryGetStats(ctx, db)
	if err != nil {
		return nil, fmt.Errorf("graph: %w", err)
	}

	if tasks == nil {
		tasks = []*model.Task{}
	}
	if edges == nil {
		edges = []*model.GraphEdge{}
	}

	return &model.GraphResponse{
		Nodes: tasks,
		Edges: edges,
		Stats: stats,
	}, nil
}

func queryGetStats(ctx context.Context, db executor) (*model.GraphStats, error) {
	stats := &model.GraphStats{}
	err := db.QueryRowContext(ctx, `
		SELECT
			COALESCE(SUM(CASE WHEN status = 'backlog' THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN status = 'todo' THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN status = 'in_progress' THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN status = 'done' THEN 1 ELSE 0 END), 0)
		FROM tasks`).Scan(
		&stats.TotalBacklog,
		&stats.TotalTodo,
		&stats.TotalInProgress,
		&stats.TotalDone,
	)
	if err != nil {
		return nil, fmt.Errorf("stats: %w", err)
	}
	return stats, nil
}

func queryRecordEvent(ctx context.Context, db executor, e *model.Event) error {
	return db.QueryRowContext(ctx, `
		INSERT INTO events (topic, task_id, actor, payload)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at`,
		e.Topic, e.TaskID, e.Actor, []byte(e.Payload),
	).Scan(&e.ID, &e.CreatedAt)
}

func queryGetEvents(ctx context.Context, db executor, taskID string) ([]*model.Event, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT id, topic, task_id, actor, payload, created_at
		FROM events
		WHERE task_id = $1
		ORDER BY created_at ASC`,
		taskID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanEvents(rows)
}

func parseSortClause(sort string) string {
	if sort == "" {
		return "created_at ASC"
	}
	desc := strings.HasPrefix(sort, "-")
	col := strings.TrimPrefix(sort, "-")
	allowed := map[string]bool{
		"created_at": true, "updated_at": true,
		"title": true, "status": true,
	}
	if !allowed[col] {
		return "created_at ASC"
	}
	if desc {
		return col + " DESC"
	}
	return col + " ASC"
}
