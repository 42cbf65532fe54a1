package analyzer

// RateTable resolves the hourly rate for a project task. Providers that
// embed a price on every entry do not need one; pass NoRates instead.
type RateTable interface {
	Rate(projectID, taskID string) (float64, bool)
}

// NoRates is a RateTable with no entries.
var NoRates RateTable = noRates{}

type noRates struct{}

func (noRates) Rate(string, string) (float64, bool) { return 0, false }

// BillingRow is one row of the rendered billing rollup. Each concrete row
// carries hours and totals for exactly one level of the rollup, so a
// renderer can emit the sequence without knowing the tree shape.
type BillingRow interface {
	billingRow()
}

// ProjectHeaderRow opens a project section with its aggregate sums.
type ProjectHeaderRow struct {
	ProjectName string
	Hours       float64
	Total       float64
}

// TaskRow is a per-task subtotal under a project.
type TaskRow struct {
	TaskName string
	Rate     float64
	Hours    float64
	Total    float64
}

// UserRow is one consultant's contribution to a task.
type UserRow struct {
	Name  string
	Hours float64
	Total float64
}

// SeparatorRow is an empty spacer between project sections.
type SeparatorRow struct{}

// TotalRow closes the rollup with grand totals and the average hourly rate.
type TotalRow struct {
	Hours float64
	Total float64
	Avg   float64
}

func (ProjectHeaderRow) billingRow() {}
func (TaskRow) billingRow()          {}
func (UserRow) billingRow()          {}
func (SeparatorRow) billingRow()     {}
func (TotalRow) billingRow()         {}

type userAgg struct {
	name  string
	hours float64
}

type taskAgg struct {
	name      string
	rate      float64
	userOrder []string
	users     map[string]*userAgg
}

type projectAgg struct {
	name      string
	taskOrder []string
	tasks     map[string]*taskAgg
}

// BillableStats folds every billable entry into a project, task, user tree
// and renders it as a flat row sequence: per project a header row, then per
// task a subtotal row followed by the contributing consultants, a separator
// after each project, and one grand total row at the end. Task rates come
// from the rate table when present, else from the entry's embedded price.
// Unrated tasks stay in the output with rate 0.
func (a *Analyzer) BillableStats(groups []UserEntries, rates RateTable) []BillingRow {
	projects := make(map[string]*projectAgg)
	var projectOrder []string

	for _, group := range groups {
		for _, entry := range group.Entries {
			if !a.dayInfo(entry).isBillable {
				continue
			}

			project, ok := projects[entry.ProjectID]
			if !ok {
				project = &projectAgg{name: entry.ProjectName, tasks: make(map[string]*taskAgg)}
				projects[entry.ProjectID] = project
				projectOrder = append(projectOrder, entry.ProjectID)
			}

			task, ok := project.tasks[entry.TaskID]
			if !ok {
				rate, found := rates.Rate(entry.ProjectID, entry.TaskID)
				if !found {
					rate = entry.HourlyPrice
				}
				task = &taskAgg{name: entry.TaskName, rate: rate, users: make(map[string]*userAgg)}
				project.tasks[entry.TaskID] = task
				project.taskOrder = append(project.taskOrder, entry.TaskID)
			}

			user, ok := task.users[group.User.ID]
			if !ok {
				user = &userAgg{name: group.User.FullName()}
				task.users[group.User.ID] = user
				task.userOrder = append(task.userOrder, group.User.ID)
			}
			user.hours += entry.Hours
		}
	}

	var rows []BillingRow
	var grandHours, grandTotal float64

	for _, projectID := range projectOrder {
		project := projects[projectID]
		var projectRows []BillingRow
		var projectHours, projectTotal float64

		for _, taskID := range project.taskOrder {
			task := project.tasks[taskID]
			var taskHours, taskTotal float64
			var userRows []BillingRow

			for _, userID := range task.userOrder {
				user := task.users[userID]
				total := user.hours * task.rate
				taskHours += user.hours
				taskTotal += total
				userRows = append(userRows, UserRow{Name: user.name, Hours: user.hours, Total: total})
			}

			projectRows = append(projectRows, TaskRow{
				TaskName: task.name,
				Rate:     task.rate,
				Hours:    taskHours,
				Total:    taskTotal,
			})
			projectRows = append(projectRows, userRows...)
			projectHours += taskHours
			projectTotal += taskTotal
		}

		rows = append(rows, ProjectHeaderRow{
			ProjectName: project.name,
			Hours:       projectHours,
			Total:       projectTotal,
		})
		rows = append(rows, projectRows...)
		rows = append(rows, SeparatorRow{})

		grandHours += projectHours
		grandTotal += projectTotal
	}

	avg := 0.0
	if grandHours > 0 {
		avg = grandTotal / grandHours
	}
	rows = append(rows, TotalRow{Hours: grandHours, Total: grandTotal, Avg: avg})
	return rows
}
