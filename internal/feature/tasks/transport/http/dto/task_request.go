// Package dto defines data transfer objects for the tasks feature's HTTP transport layer.
package dto

// CreateTaskReq represents the request body for POST /tasks.
type CreateTaskReq struct {
	Title       string  `json:"title"`
	Description string  `json:"description"`
	DueDate     *string `json:"due_date"`
	Priority    string  `json:"priority"`
}

// UpdateTaskReq represents the request body for PUT /tasks/:id.
// Pointer fields distinguish "absent" (nil, leave untouched) from
// "present" (validate and apply).
type UpdateTaskReq struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	DueDate     *string `json:"due_date"`
	Completed   *bool   `json:"completed"`
	Priority    *string `json:"priority"`
}
