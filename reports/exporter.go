// Package reports renders task and user data as xlsx workbooks.
package reports

import (
	"fmt"
	"io"
	"strings"

	"github.com/SainiAdi-04/Task-Manager/models"

	"github.com/xuri/excelize/v2"
)

const (
	ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

	TasksFilename = "tasks_report.xlsx"
	UsersFilename = "users_report.xlsx"

	tasksSheet = "Tasks Report"
	usersSheet = "User Task Report"
)

var (
	taskColumns = []string{"Task ID", "Title", "Description", "Priority", "Status", "Due Date", "Assigned To"}
	userColumns = []string{"User Name", "Email", "Total Assigned Tasks", "Pending Tasks", "In Progress Tasks", "Completed Tasks"}
)

// WriteTasks writes one row per task to w.
func WriteTasks(w io.Writer, tasks []models.TaskListItem) error {
	rows := make([][]interface{}, 0, len(tasks))
	for _, task := range tasks {
		dueDate := ""
		if task.DueDate != nil {
			dueDate = task.DueDate.Format("2006-01-02")
		}
		rows = append(rows, []interface{}{
			task.ID.Hex(),
			task.Title,
			task.Description,
			string(task.Priority),
			string(task.Status),
			dueDate,
			assigneeList(task.AssignedTo),
		})
	}
	return writeWorkbook(w, tasksSheet, taskColumns, rows, []float64{28, 30, 50, 12, 14, 14, 40})
}

// WriteUsers writes one row per user with their task counts to w.
func WriteUsers(w io.Writer, users []models.UserWithTaskCounts) error {
	rows := make([][]interface{}, 0, len(users))
	for _, user := range users {
		total := user.PendingTasks + user.InProgressTasks + user.CompletedTasks
		rows = append(rows, []interface{}{
			user.Name,
			user.Email,
			total,
			user.PendingTasks,
			user.InProgressTasks,
			user.CompletedTasks,
		})
	}
	return writeWorkbook(w, usersSheet, userColumns, rows, []float64{28, 40, 20, 20, 20, 20})
}

func assigneeList(users []models.UserSummary) string {
	names := make([]string, 0, len(users))
	for _, user := range users {
		names = append(names, fmt.Sprintf("%s (%s)", user.Name, user.Email))
	}
	return strings.Join(names, ", ")
}

func writeWorkbook(w io.Writer, sheet string, columns []string, rows [][]interface{}, widths []float64) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), sheet); err != nil {
		return fmt.Errorf("failed to name sheet: %w", err)
	}

	header := make([]interface{}, len(columns))
	for i, column := range columns {
		header[i] = column
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("failed to create header style: %w", err)
	}
	last, err := excelize.CoordinatesToCellName(len(columns), 1)
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(sheet, "A1", last, bold); err != nil {
		return fmt.Errorf("failed to style header: %w", err)
	}

	for i, width := range widths {
		col, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return err
		}
		if err := f.SetColWidth(sheet, col, col, width); err != nil {
			return fmt.Errorf("failed to size column %s: %w", col, err)
		}
	}

	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		row := row
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("failed to write row %d: %w", i+2, err)
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}
