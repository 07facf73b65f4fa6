package models

// JobSpec carries the job-creation form. It is built transiently at
// submission time and never persisted beyond the rendered script.
type JobSpec struct {
	Name         string   `json:"name"`
	Partition    string   `json:"partition"`
	Nodes        int      `json:"nodes"`
	CPUs         int      `json:"cpus"`
	Memory       string   `json:"memory"`
	TimeLimit    string   `json:"time_limit"`
	WorkingDir   string   `json:"working_dir"`
	Modules      []string `json:"modules"`
	EmailEnabled bool     `json:"email_enabled"`
	Email        string   `json:"email"`
	MailEvents   []string `json:"mail_events"` // BEGIN, END, FAIL
	Commands     string   `json:"commands"`
}

// QueueJob is one row of a scheduler queue snapshot.
type QueueJob struct {
	JobID   string `json:"job_id"`
	Name    string `json:"name"`
	State   string `json:"state"`
	Elapsed string `json:"elapsed"`
}
