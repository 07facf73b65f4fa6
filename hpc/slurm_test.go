package hpc

import (
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cognition-bio/cognition/models"
)

func TestParsePartitions(t *testing.T) {
	partitions, def := parsePartitions("PARTITION\ndebug*,batch\ngpu\n")
	assert.Equal(t, []string{"batch", "debug", "gpu"}, partitions)
	assert.Equal(t, "debug", def)
}

func TestParsePartitionsNoDefaultFallsBackToFirst(t *testing.T) {
	partitions, def := parsePartitions("PARTITION\nlong\nshort\n")
	assert.Equal(t, []string{"long", "short"}, partitions)
	assert.Equal(t, "long", def)
}

func TestParsePartitionsDeduplicates(t *testing.T) {
	partitions, _ := parsePartitions("PARTITION\nbatch\nbatch\nbatch*\n")
	assert.Equal(t, []string{"batch"}, partitions)
}

func TestParseModules(t *testing.T) {
	raw := strings.Join([]string{
		"/usr/share/modulefiles:",
		"gcc/12.2.0",
		"python/3.11",
		"blast+",
		"samtools",
		"  ",
		"----- aligned output -----",
	}, "\n")

	modules := parseModules(raw)
	assert.Equal(t, []string{"gcc/12.2.0", "python/3.11", "samtools"}, modules)
}

func TestModuleSet(t *testing.T) {
	var set ModuleSet
	set.Add("gcc/12.2.0")
	set.Add("python/3.11")
	set.Add("gcc/12.2.0")
	assert.Equal(t, []string{"gcc/12.2.0", "python/3.11"}, set.Names(), "adds are idempotent, order preserved")

	set.Remove("gcc/12.2.0")
	assert.Equal(t, []string{"python/3.11"}, set.Names())

	set.Remove("never-added")
	assert.Equal(t, []string{"python/3.11"}, set.Names())
}

func TestParseQueue(t *testing.T) {
	raw := "JOBID|NAME|STATE|TIME\n101|align|RUNNING|1:02:03\n102|assemble|PENDING|0:00\n"
	jobs := parseQueue(raw)
	require.Len(t, jobs, 2)
	assert.Equal(t, models.QueueJob{JobID: "101", Name: "align", State: "RUNNING", Elapsed: "1:02:03"}, jobs[0])
	assert.Equal(t, models.QueueJob{JobID: "102", Name: "assemble", State: "PENDING", Elapsed: "0:00"}, jobs[1])
}

func TestParseQueueHeaderOnly(t *testing.T) {
	assert.Empty(t, parseQueue("JOBID|NAME|STATE|TIME\n"))
}

func TestQueueReportsRemoteErrors(t *testing.T) {
	sc := &scripted{replies: map[string]execResult{
		"squeue -u jdoe --format='%A|%j|%T|%M'": {Stderr: "slurm_load_jobs error\n"},
	}}
	s := testSession(t, sc.exec)

	_, err := s.Queue()
	assert.ErrorIs(t, err, ErrRemoteCommand)
}

func TestLoadJobOptionsCachesResults(t *testing.T) {
	sc := &scripted{replies: map[string]execResult{
		`bash -l -c 'sinfo --format="%P"'`:  {Stdout: "PARTITION\ndebug*,batch\n"},
		"bash -l -c 'module -t avail 2>&1'": {Stdout: "gcc/12.2.0\npython/3.11\n"},
	}}
	s := testSession(t, sc.exec)
	s.AddJobModule("gcc/12.2.0")

	opts, err := s.LoadJobOptions()
	require.NoError(t, err)
	assert.Equal(t, []string{"batch", "debug"}, opts.Partitions)
	assert.Equal(t, "debug", opts.DefaultPartition)
	assert.Equal(t, []string{"gcc/12.2.0", "python/3.11"}, opts.Modules)
	assert.Equal(t, []string{"gcc/12.2.0"}, opts.SelectedModules)
}

func jobSpec() models.JobSpec {
	return models.JobSpec{
		Name:       "align",
		Partition:  "debug (default)",
		Nodes:      1,
		CPUs:       4,
		Memory:     "4G",
		TimeLimit:  "01:00:00",
		WorkingDir: "/scratch/$USER/run1",
		Modules:    []string{"gcc/12.2.0"},
		Commands:   "bwa mem ref.fa reads.fq > out.sam",
	}
}

func TestSubmitJobSuccess(t *testing.T) {
	sc := &scripted{replies: map[string]execResult{
		"sbatch /scratch/jdoe/run1/align.sh": {Stdout: "Submitted batch job 12345\n"},
	}}
	s := testSession(t, sc.exec)
	ch := newMemChannel()
	s.transferFn = func() (TransferChannel, error) { return ch, nil }

	result, diag, err := s.SubmitJob(jobSpec())
	require.NoError(t, err)
	assert.Nil(t, diag)
	assert.Equal(t, "12345", result.JobID)

	assert.Contains(t, sc.ran, "mkdir -p /scratch/jdoe/run1", "working dir resolved with $USER substituted")

	script := string(ch.files["/scratch/jdoe/run1/align.sh"])
	assert.Equal(t, result.Script, script)
	assert.Equal(t, os.FileMode(0o755), ch.chmods["/scratch/jdoe/run1/align.sh"])

	assert.Contains(t, script, "#SBATCH --job-name=align\n")
	assert.Contains(t, script, "#SBATCH --partition=debug\n", "display annotation stripped")
	assert.Contains(t, script, "#SBATCH --nodes=1\n")
	assert.Contains(t, script, "#SBATCH --ntasks=4\n")
	assert.Contains(t, script, "cd /scratch/jdoe/run1\n")
	assert.Contains(t, script, "module load gcc/12.2.0\n")
	assert.Contains(t, script, "bwa mem ref.fa reads.fq > out.sam\n")
	assert.NotContains(t, script, "--mail-user", "mail directives only when enabled")
}

func TestSubmitJobMailDirectives(t *testing.T) {
	sc := &scripted{replies: map[string]execResult{
		"sbatch /scratch/jdoe/run1/align.sh": {Stdout: "Submitted batch job 7\n"},
	}}
	s := testSession(t, sc.exec)
	ch := newMemChannel()
	s.transferFn = func() (TransferChannel, error) { return ch, nil }

	spec := jobSpec()
	spec.EmailEnabled = true
	spec.Email = "jdoe@example.edu"
	spec.MailEvents = []string{"END", "FAIL"}

	result, _, err := s.SubmitJob(spec)
	require.NoError(t, err)
	assert.Contains(t, result.Script, "#SBATCH --mail-user=jdoe@example.edu\n")
	assert.Contains(t, result.Script, "#SBATCH --mail-type=END,FAIL\n")
}

func TestSubmitJobUsesSessionModulesWhenSpecHasNone(t *testing.T) {
	sc := &scripted{replies: map[string]execResult{
		"sbatch /scratch/jdoe/run1/align.sh": {Stdout: "Submitted batch job 8\n"},
	}}
	s := testSession(t, sc.exec)
	ch := newMemChannel()
	s.transferFn = func() (TransferChannel, error) { return ch, nil }
	s.AddJobModule("samtools/1.19")

	spec := jobSpec()
	spec.Modules = nil

	result, _, err := s.SubmitJob(spec)
	require.NoError(t, err)
	assert.Contains(t, result.Script, "module load samtools/1.19\n")
}

func TestSubmitJobRejectedBySchedulerReturnsDiagnostic(t *testing.T) {
	sc := &scripted{replies: map[string]execResult{
		"sbatch /scratch/jdoe/run1/align.sh": {Stderr: "sbatch: error: invalid partition\n"},
	}}
	s := testSession(t, sc.exec)
	ch := newMemChannel()
	s.transferFn = func() (TransferChannel, error) { return ch, nil }

	result, diag, err := s.SubmitJob(jobSpec())
	assert.ErrorIs(t, err, ErrRemoteCommand)
	assert.Nil(t, result)
	require.NotNil(t, diag)
	assert.Equal(t, "debug", diag.Partition)
	assert.Equal(t, "/scratch/jdoe/run1", diag.WorkingDir)
	assert.Equal(t, []string{"gcc/12.2.0"}, diag.Modules)
	assert.Contains(t, err.Error(), "invalid partition")
}

func TestSubmitJobFailedMkdirStopsBeforePartitionResolution(t *testing.T) {
	sc := &scripted{replies: map[string]execResult{
		"mkdir -p /scratch/jdoe/run1": {Stderr: "mkdir: permission denied\n"},
	}}
	s := testSession(t, sc.exec)

	_, diag, err := s.SubmitJob(jobSpec())
	assert.ErrorIs(t, err, ErrRemoteCommand)
	require.NotNil(t, diag)
	assert.Empty(t, diag.Partition, "partition not yet resolved at failure point")
	assert.Equal(t, "/scratch/jdoe/run1", diag.WorkingDir)
}

func TestSubmitJobRequiresName(t *testing.T) {
	s := testSession(t, func(string) (execResult, error) { return execResult{}, nil })
	spec := jobSpec()
	spec.Name = "   "

	_, _, err := s.SubmitJob(spec)
	assert.True(t, IsValidation(err))
}

func TestRenderScriptQuotesHostileValues(t *testing.T) {
	spec := models.JobSpec{
		Name:      "job",
		Nodes:     1,
		CPUs:      1,
		Memory:    "4G",
		TimeLimit: "01:00:00",
		Modules:   []string{"evil; rm -rf /"},
		Commands:  "echo ok",
	}
	script := renderScript(spec, "batch", "/scratch/my dir")

	assert.Contains(t, script, "cd '/scratch/my dir'\n")
	assert.Contains(t, script, "module load 'evil; rm -rf /'\n")
}
