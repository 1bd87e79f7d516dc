package watch

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/carden-code/wb-stickers/internal/errs"
	"github.com/carden-code/wb-stickers/internal/pipeline"
)

// JobSuffix marks job descriptors in the inbox.
const JobSuffix = ".job.json"

//go:embed job.schema.json
var jobSchemaJSON []byte

var (
	jobSchemaOnce sync.Once
	jobSchema     *jsonschema.Schema
	jobSchemaErr  error
)

func compiledSchema() (*jsonschema.Schema, error) {
	jobSchemaOnce.Do(func() {
		compiler := jsonschema.NewCompiler()
		if err := compiler.AddResource("job.schema.json", bytes.NewReader(jobSchemaJSON)); err != nil {
			jobSchemaErr = fmt.Errorf("failed to load job schema: %w", err)
			return
		}
		jobSchema, jobSchemaErr = compiler.Compile("job.schema.json")
		if jobSchemaErr != nil {
			jobSchemaErr = fmt.Errorf("failed to compile job schema: %w", jobSchemaErr)
		}
	})
	return jobSchema, jobSchemaErr
}

// Job is a parsed job descriptor. Input paths are relative to the inbox.
type Job struct {
	Name     string           `json:"-"`
	Variant  pipeline.Variant `json:"variant"`
	Manifest string           `json:"manifest,omitempty"`
	Stickers string           `json:"stickers,omitempty"`
	Assembly string           `json:"assembly,omitempty"`
	Ticket   string           `json:"ticket,omitempty"`
	Output   string           `json:"output,omitempty"`
}

// Inputs returns the input paths of the job in pipeline argument order.
func (j *Job) Inputs() []string {
	if j.Variant == pipeline.VariantOzon {
		return []string{j.Assembly, j.Ticket}
	}
	return []string{j.Manifest, j.Stickers}
}

// JobName returns the job name of a descriptor path.
func JobName(path string) string {
	return strings.TrimSuffix(filepath.Base(path), JobSuffix)
}

// IsDescriptor reports whether path names a job descriptor.
func IsDescriptor(path string) bool {
	base := filepath.Base(path)
	return strings.HasSuffix(base, JobSuffix) && len(base) > len(JobSuffix) && !strings.HasPrefix(base, ".")
}

// ParseJob validates data against the job schema and decodes it.
// The output defaults to <name>.pdf.
func ParseJob(name string, data []byte) (*Job, error) {
	schema, err := compiledSchema()
	if err != nil {
		return nil, err
	}

	var doc any
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, &errs.FormatError{Path: name + JobSuffix, Reason: "malformed job descriptor", Err: err}
	}
	if err := schema.Validate(doc); err != nil {
		return nil, &errs.FormatError{Path: name + JobSuffix, Reason: "invalid job descriptor", Err: err}
	}

	job := &Job{Name: name}
	if err := json.Unmarshal(data, job); err != nil {
		return nil, &errs.FormatError{Path: name + JobSuffix, Reason: "malformed job descriptor", Err: err}
	}
	if job.Output == "" {
		job.Output = name + ".pdf"
	}
	return job, nil
}
