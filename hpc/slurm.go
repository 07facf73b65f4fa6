package hpc

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/alessio/shellescape"

	"github.com/cognition-bio/cognition/models"
)

// submitMarker is the sbatch success line; the job id trails it.
const submitMarker = "Submitted batch job"

var moduleToken = regexp.MustCompile(`^\w+[/\w.-]*$`)

// ModuleSet is an ordered, duplicate-free module selection. Add and
// Remove are idempotent.
type ModuleSet struct {
	names []string
}

func (m *ModuleSet) Add(name string) {
	if name == "" {
		return
	}
	for _, existing := range m.names {
		if existing == name {
			return
		}
	}
	m.names = append(m.names, name)
}

func (m *ModuleSet) Remove(name string) {
	kept := m.names[:0]
	for _, existing := range m.names {
		if existing != name {
			kept = append(kept, existing)
		}
	}
	m.names = kept
}

func (m *ModuleSet) Names() []string {
	out := make([]string, len(m.names))
	copy(out, m.names)
	return out
}

// JobOptions bootstraps the job-creation dialog: scheduler partitions
// with the starred default, and the loadable environment modules.
type JobOptions struct {
	Partitions       []string `json:"partitions"`
	DefaultPartition string   `json:"default_partition"`
	Modules          []string `json:"modules"`
	SelectedModules  []string `json:"selected_modules"`
}

// LoadJobOptions queries the scheduler and module system and refreshes
// the per-connection caches. Called when the dialog opens and on
// explicit refresh.
func (s *Session) LoadJobOptions() (*JobOptions, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.connected {
		return nil, ErrNotConnected
	}

	res, err := s.exec(`bash -l -c 'sinfo --format="%P"'`)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRemoteCommand, err)
	}
	s.partitions, s.defaultPartition = parsePartitions(res.Stdout)

	res, err = s.exec("bash -l -c 'module -t avail 2>&1'")
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRemoteCommand, err)
	}
	s.moduleCatalog = parseModules(res.Stdout)

	return &JobOptions{
		Partitions:       s.partitions,
		DefaultPartition: s.defaultPartition,
		Modules:          s.moduleCatalog,
		SelectedModules:  s.jobModules.Names(),
	}, nil
}

// AddJobModule appends a module to the job selection and returns the
// updated list.
func (s *Session) AddJobModule(name string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobModules.Add(name)
	return s.jobModules.Names()
}

// RemoveJobModule removes a module from the job selection and returns
// the updated list.
func (s *Session) RemoveJobModule(name string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobModules.Remove(name)
	return s.jobModules.Names()
}

// parsePartitions reads sinfo's single-column partition output: the
// header row is skipped, rows may carry comma-joined lists, a trailing
// "*" marks the default (first starred wins), and the result is
// deduplicated and sorted.
func parsePartitions(raw string) ([]string, string) {
	lines := strings.Split(strings.TrimSpace(raw), "\n")

	seen := make(map[string]bool)
	var partitions []string
	var def string

	for i, line := range lines {
		if i == 0 {
			continue
		}
		for _, part := range strings.Split(line, ",") {
			name := strings.TrimSpace(part)
			if name == "" {
				continue
			}
			if strings.Contains(name, "*") {
				name = strings.ReplaceAll(name, "*", "")
				if def == "" {
					def = name
				}
			}
			if !seen[name] {
				seen[name] = true
				partitions = append(partitions, name)
			}
		}
	}

	sort.Strings(partitions)
	if def == "" && len(partitions) > 0 {
		def = partitions[0]
	}
	return partitions, def
}

// parseModules keeps only lines shaped like name or name/version.
func parseModules(raw string) []string {
	var modules []string
	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimSpace(line)
		if moduleToken.MatchString(line) {
			modules = append(modules, line)
		}
	}
	sort.Strings(modules)
	return modules
}

// Queue returns a fresh job-queue snapshot for the connected user. The
// snapshot replaces any previous one wholesale.
func (s *Session) Queue() ([]models.QueueJob, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.connected {
		return nil, ErrNotConnected
	}

	res, err := s.exec(fmt.Sprintf("squeue -u %s --format='%%A|%%j|%%T|%%M'", shellescape.Quote(s.username)))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRemoteCommand, err)
	}
	if msg := strings.TrimSpace(res.Stderr); msg != "" {
		return nil, fmt.Errorf("%w: %s", ErrRemoteCommand, msg)
	}
	return parseQueue(res.Stdout), nil
}

// parseQueue splits squeue's pipe-delimited rows, skipping the header.
func parseQueue(raw string) []models.QueueJob {
	jobs := []models.QueueJob{}
	lines := strings.Split(strings.TrimSpace(raw), "\n")
	for i, line := range lines {
		if i == 0 || strings.TrimSpace(line) == "" {
			continue
		}
		parts := strings.Split(line, "|")
		if len(parts) < 4 {
			continue
		}
		jobs = append(jobs, models.QueueJob{
			JobID:   parts[0],
			Name:    parts[1],
			State:   parts[2],
			Elapsed: parts[3],
		})
	}
	return jobs
}

// SubmitResult is a successful submission.
type SubmitResult struct {
	JobID  string `json:"job_id"`
	Script string `json:"script"`
}

// SubmitDiagnostic echoes what a failed submission had resolved so
// far. Fields resolved after the failing step stay at their zero
// value.
type SubmitDiagnostic struct {
	Partition  string   `json:"partition"`
	WorkingDir string   `json:"working_dir"`
	Modules    []string `json:"modules"`
	Commands   string   `json:"commands"`
}

// SubmitJob renders the batch script for spec, stages it into the job
// working directory and submits it. Modules given on the request are
// normalized through a ModuleSet; when the request names none, the
// session's dialog selection is used.
func (s *Session) SubmitJob(spec models.JobSpec) (*SubmitResult, *SubmitDiagnostic, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	modules := spec.Modules
	if len(modules) == 0 {
		modules = s.jobModules.Names()
	}
	var set ModuleSet
	for _, m := range modules {
		set.Add(m)
	}
	modules = set.Names()

	diag := &SubmitDiagnostic{
		Modules:  modules,
		Commands: firstN(spec.Commands, 200),
	}

	if !s.connected {
		return nil, diag, ErrNotConnected
	}
	if strings.TrimSpace(spec.Name) == "" {
		return nil, diag, fmt.Errorf("%w: job name required", ErrValidation)
	}

	workingDir := strings.ReplaceAll(spec.WorkingDir, "$USER", s.username)
	if workingDir == "" {
		workingDir = s.cwd
	}
	diag.WorkingDir = workingDir
	quotedDir := shellescape.Quote(workingDir)

	res, err := s.exec("mkdir -p " + quotedDir)
	if err != nil {
		return nil, diag, fmt.Errorf("%w: %v", ErrRemoteCommand, err)
	}
	if msg := strings.TrimSpace(res.Stderr); msg != "" {
		return nil, diag, fmt.Errorf("%w: directory creation failed: %s", ErrRemoteCommand, msg)
	}

	// Any "(default)" display annotation is stripped before use; on
	// earlier failures the diagnostic reports an unresolved partition.
	partition := strings.TrimSpace(strings.SplitN(spec.Partition, " (default)", 2)[0])
	diag.Partition = partition

	spec.Modules = modules
	script := renderScript(spec, partition, workingDir)

	remotePath := workingDir + "/" + spec.Name + ".sh"
	if err := s.putContentLocked(remotePath, script, 0o755); err != nil {
		return nil, diag, err
	}

	res, err = s.exec("sbatch " + shellescape.Quote(remotePath))
	if err != nil {
		return nil, diag, fmt.Errorf("%w: %v", ErrRemoteCommand, err)
	}

	out := strings.TrimSpace(res.Stdout)
	errOut := strings.TrimSpace(res.Stderr)
	if out == "" {
		return nil, diag, fmt.Errorf("%w: no output from sbatch: %s", ErrRemoteCommand, errOut)
	}
	if !strings.Contains(out, submitMarker) {
		return nil, diag, fmt.Errorf("%w: submission rejected: output %q error %q", ErrRemoteCommand, out, errOut)
	}

	fields := strings.Fields(out)
	return &SubmitResult{JobID: fields[len(fields)-1], Script: script}, nil, nil
}

// renderScript assembles the batch script: the scheduler directive
// block, the working-directory cd, an optional single module-load
// line, then the user's command body verbatim. Every value that ends
// up on a shell command line is quoted; the body is data and is not
// touched.
func renderScript(spec models.JobSpec, partition, workingDir string) string {
	quotedDir := shellescape.Quote(workingDir)

	var b strings.Builder
	b.WriteString("#!/bin/bash\n")
	fmt.Fprintf(&b, "#SBATCH --job-name=%s\n", shellescape.Quote(spec.Name))
	fmt.Fprintf(&b, "#SBATCH --partition=%s\n", shellescape.Quote(partition))
	fmt.Fprintf(&b, "#SBATCH --nodes=%d\n", spec.Nodes)
	fmt.Fprintf(&b, "#SBATCH --ntasks=%d\n", spec.CPUs)
	fmt.Fprintf(&b, "#SBATCH --time=%s\n", shellescape.Quote(spec.TimeLimit))
	fmt.Fprintf(&b, "#SBATCH --mem=%s\n", shellescape.Quote(spec.Memory))
	fmt.Fprintf(&b, "#SBATCH --output=%s/%s-%%j.out\n", quotedDir, spec.Name)
	fmt.Fprintf(&b, "#SBATCH --error=%s/%s-%%j.err\n", quotedDir, spec.Name)

	if spec.EmailEnabled {
		if email := strings.TrimSpace(spec.Email); email != "" {
			fmt.Fprintf(&b, "#SBATCH --mail-user=%s\n", shellescape.Quote(email))
			if len(spec.MailEvents) > 0 {
				fmt.Fprintf(&b, "#SBATCH --mail-type=%s\n", strings.Join(spec.MailEvents, ","))
			}
		}
	}

	fmt.Fprintf(&b, "\ncd %s\n", quotedDir)

	if len(spec.Modules) > 0 {
		quoted := make([]string, len(spec.Modules))
		for i, m := range spec.Modules {
			quoted[i] = shellescape.Quote(m)
		}
		fmt.Fprintf(&b, "\nmodule load %s\n", strings.Join(quoted, " "))
	}

	b.WriteString("\n")
	b.WriteString(spec.Commands)
	b.WriteString("\n")
	return b.String()
}

func firstN(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
